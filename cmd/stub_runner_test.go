package cmd

import (
	"bytes"
	"context"

	"github.com/eykd/mintdraw/internal/allocator"
)

// stubRunner is a test double for AllocatorRunner that records its inputs.
type stubRunner struct {
	status   *allocator.Status
	statuses []allocator.Status
	snapshot *allocator.Snapshot
	ids      []uint64
	err      error

	gotName     string
	gotCapacity uint64
	gotCount    int
	gotSeed     string
}

func (s *stubRunner) Init(ctx context.Context, name string, capacity uint64) (*allocator.Status, error) {
	s.gotName, s.gotCapacity = name, capacity
	return s.status, s.err
}

func (s *stubRunner) Draw(ctx context.Context, name string, count int, seedHex string) ([]uint64, error) {
	s.gotName, s.gotCount, s.gotSeed = name, count, seedHex
	return s.ids, s.err
}

func (s *stubRunner) Status(ctx context.Context, name string) (*allocator.Status, error) {
	s.gotName = name
	return s.status, s.err
}

func (s *stubRunner) List(ctx context.Context) ([]allocator.Status, error) {
	return s.statuses, s.err
}

func (s *stubRunner) Snapshot(ctx context.Context, name string) (*allocator.Snapshot, error) {
	s.gotName = name
	return s.snapshot, s.err
}

// runTree executes args against a fresh command tree wired to runner. A fresh
// root also resets the global flag variables.
func runTree(runner AllocatorRunner, args ...string) (string, error) {
	root := BuildCommandTree(runner)
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}
