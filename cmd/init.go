package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eykd/mintdraw/internal/allocator"
)

// InitRunner defines the interface for creating an allocator.
type InitRunner interface {
	Init(ctx context.Context, name string, capacity uint64) (*allocator.Status, error)
}

// NewInitCmd creates the init command with the given runner.
func NewInitCmd(runner InitRunner) *cobra.Command {
	var capacity uint64

	cmd := &cobra.Command{
		Use:          "init <name>",
		Short:        "Create an allocator over [0, capacity)",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := runner.Init(cmd.Context(), args[0], capacity)
			if err != nil {
				return &ContextError{Op: "init", Name: args[0], Err: err}
			}

			if GetJSON() {
				writeJSON(cmd.OutOrStdout(), status)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s with capacity %d\n", status.Key, status.Capacity)
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&capacity, "capacity", 0, "Number of identifiers to allocate")
	_ = cmd.MarkFlagRequired("capacity")

	return cmd
}
