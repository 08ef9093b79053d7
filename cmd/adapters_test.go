package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/eykd/mintdraw/internal/domain"
	"github.com/eykd/mintdraw/internal/fs"
	"github.com/eykd/mintdraw/internal/lock"
	"github.com/eykd/mintdraw/internal/seed"
)

func newTestAdapter(t *testing.T, dir string) (*projectAdapter, *bytes.Buffer) {
	t.Helper()
	NewRootCmd() // reset global flags
	stderr := new(bytes.Buffer)
	return newProjectAdapter(func() (string, error) { return dir, nil }, stderr), stderr
}

func TestProjectAdapter_InitCreatesProject(t *testing.T) {
	dir := t.TempDir()
	a, _ := newTestAdapter(t, dir)

	status, err := a.Init(context.Background(), "Tickets", 3)

	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if status.Key != "tickets" || status.Remaining != 3 {
		t.Errorf("status = %+v", status)
	}
	if info, err := os.Stat(filepath.Join(dir, fs.DirName)); err != nil || !info.IsDir() {
		t.Fatalf("project directory not created: %v", err)
	}
}

func TestProjectAdapter_OutsideProject(t *testing.T) {
	a, _ := newTestAdapter(t, t.TempDir())
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["draw"] = a.Draw(ctx, "tickets", 1, "")
	_, checks["status"] = a.Status(ctx, "tickets")
	_, checks["list"] = a.List(ctx)
	_, checks["export"] = a.Snapshot(ctx, "tickets")

	for op, err := range checks {
		if !errors.Is(err, ErrNotInProject) {
			t.Errorf("%s error = %v, want ErrNotInProject", op, err)
		}
	}
}

func TestProjectAdapter_FindsProjectFromSubdirectory(t *testing.T) {
	root := t.TempDir()
	a, _ := newTestAdapter(t, root)
	if _, err := a.Init(context.Background(), "tickets", 2); err != nil {
		t.Fatalf("Init: %v", err)
	}

	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	b, _ := newTestAdapter(t, sub)

	status, err := b.Status(context.Background(), "tickets")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Capacity != 2 {
		t.Errorf("capacity = %d, want 2", status.Capacity)
	}
}

func TestProjectAdapter_DrawsToExhaustion(t *testing.T) {
	a, stderr := newTestAdapter(t, t.TempDir())
	ctx := context.Background()
	if _, err := a.Init(ctx, "tickets", 5); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var ids []uint64
	for i := 0; i < 5; i++ {
		got, err := a.Draw(ctx, "tickets", 1, "")
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		ids = append(ids, got...)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if id != uint64(i) {
			t.Fatalf("drawn ids = %v, want a permutation of 0..4", ids)
		}
	}

	_, err := a.Draw(ctx, "tickets", 1, "")
	if !errors.Is(err, domain.ErrExhausted) {
		t.Errorf("error = %v, want ErrExhausted", err)
	}
	if n := strings.Count(stderr.String(), "Token id: "); n != 5 {
		t.Errorf("logged %d token ids, want 5:\n%s", n, stderr.String())
	}

	status, err := a.Status(ctx, "tickets")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Exhausted || status.Remaining != 0 {
		t.Errorf("status = %+v", status)
	}
}

func TestProjectAdapter_SeededDrawsAreReproducible(t *testing.T) {
	ctx := context.Background()
	draw := func() []uint64 {
		a, _ := newTestAdapter(t, t.TempDir())
		if _, err := a.Init(ctx, "tickets", 1000); err != nil {
			t.Fatalf("Init: %v", err)
		}
		ids, err := a.Draw(ctx, "tickets", 10, "c0ffee")
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		return ids
	}

	first, second := draw(), draw()

	if len(first) != 10 {
		t.Fatalf("got %d ids, want 10", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("seeded draws differ: %v vs %v", first, second)
		}
	}
}

func TestProjectAdapter_InvalidSeed(t *testing.T) {
	a, _ := newTestAdapter(t, t.TempDir())

	_, err := a.Draw(context.Background(), "tickets", 1, "not-hex")

	if !errors.Is(err, seed.ErrInvalidSeed) {
		t.Errorf("error = %v, want ErrInvalidSeed", err)
	}
}

func TestProjectAdapter_LockedProject(t *testing.T) {
	dir := t.TempDir()
	a, _ := newTestAdapter(t, dir)
	ctx := context.Background()
	if _, err := a.Init(ctx, "tickets", 3); err != nil {
		t.Fatalf("Init: %v", err)
	}

	holder := lock.NewFromPath(fs.Project{Root: dir}.LockPath(), 0)
	if err := holder.TryLock(ctx); err != nil {
		t.Fatalf("holder TryLock: %v", err)
	}

	_, err := a.Draw(ctx, "tickets", 1, "")
	if !errors.Is(err, lock.ErrAlreadyLocked) {
		t.Errorf("error = %v, want ErrAlreadyLocked", err)
	}

	if err := holder.Unlock(); err != nil {
		t.Fatalf("holder Unlock: %v", err)
	}
	if _, err := a.Draw(ctx, "tickets", 1, ""); err != nil {
		t.Errorf("draw after unlock: %v", err)
	}
}

func TestProjectAdapter_WritesMetricsFile(t *testing.T) {
	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "mintdraw.prom")
	t.Setenv("MINTDRAW_METRICS_FILE", metricsPath)

	a, _ := newTestAdapter(t, dir)
	ctx := context.Background()
	if _, err := a.Init(ctx, "tickets", 3); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := a.Draw(ctx, "tickets", 2, ""); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	for _, want := range []string{"mintdraw_draws_total 2", `mintdraw_remaining{allocator="tickets"} 1`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %q:\n%s", want, data)
		}
	}
}

func TestProjectAdapter_ConfigFileSetsLogFormat(t *testing.T) {
	dir := t.TempDir()
	a, stderr := newTestAdapter(t, dir)
	ctx := context.Background()
	if _, err := a.Init(ctx, "tickets", 3); err != nil {
		t.Fatalf("Init: %v", err)
	}
	cfg := filepath.Join(dir, fs.DirName, "config.yaml")
	if err := os.WriteFile(cfg, []byte("log:\n  format: json\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Draw(ctx, "tickets", 1, ""); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if !strings.Contains(stderr.String(), `"msg":"Token id: `) {
		t.Errorf("expected JSON log line, got:\n%s", stderr.String())
	}
}
