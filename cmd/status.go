package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/eykd/mintdraw/internal/allocator"
)

// StatusRunner defines the interface for inspecting an allocator.
type StatusRunner interface {
	Status(ctx context.Context, name string) (*allocator.Status, error)
}

// NewStatusCmd creates the status command with the given runner.
func NewStatusCmd(runner StatusRunner) *cobra.Command {
	return &cobra.Command{
		Use:          "status <name>",
		Short:        "Show how many identifiers are left",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := runner.Status(cmd.Context(), args[0])
			if err != nil {
				return &ContextError{Op: "status", Name: args[0], Err: err}
			}

			if GetJSON() {
				writeJSON(cmd.OutOrStdout(), status)
			} else {
				renderStatusText(cmd.OutOrStdout(), status)
			}
			return nil
		},
	}
}

func renderStatusText(w io.Writer, s *allocator.Status) {
	fmt.Fprintf(w, "allocator: %s\n", s.Key)
	fmt.Fprintf(w, "capacity:  %d\n", s.Capacity)
	fmt.Fprintf(w, "drawn:     %d\n", s.Drawn)
	fmt.Fprintf(w, "remaining: %d\n", s.Remaining)
	if s.Exhausted {
		fmt.Fprintln(w, "exhausted")
	}
}
