package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/eykd/mintdraw/internal/allocator"
)

func TestListCmd_Text(t *testing.T) {
	runner := &stubRunner{statuses: []allocator.Status{
		{Key: "badges", Drawn: 10, Remaining: 90},
		{Key: "tickets", Drawn: 1, Remaining: 2},
	}}

	out, err := runTree(runner, "list")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "ALLOCATOR") {
		t.Errorf("header = %q", lines[0])
	}
	if fields := strings.Fields(lines[1]); strings.Join(fields, " ") != "badges 10 90" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestListCmd_Empty(t *testing.T) {
	out, err := runTree(&stubRunner{}, "list")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "No allocators" {
		t.Errorf("output = %q", out)
	}
}

func TestListCmd_JSON(t *testing.T) {
	tests := []struct {
		name     string
		statuses []allocator.Status
		want     int
	}{
		{"empty", nil, 0},
		{"two", []allocator.Status{{Key: "a"}, {Key: "b"}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runTree(&stubRunner{statuses: tt.statuses}, "--json", "list")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var got struct {
				Allocators []allocator.Status `json:"allocators"`
			}
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("invalid JSON %q: %v", out, err)
			}
			if got.Allocators == nil || len(got.Allocators) != tt.want {
				t.Errorf("allocators = %v, want %d entries", got.Allocators, tt.want)
			}
		})
	}
}

func TestListCmd_RejectsArgs(t *testing.T) {
	if _, err := runTree(&stubRunner{}, "list", "extra"); err == nil {
		t.Error("expected error for positional argument")
	}
}
