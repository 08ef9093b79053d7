package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/eykd/mintdraw/internal/allocator"
)

// ExportRunner defines the interface for exporting allocator state.
type ExportRunner interface {
	Snapshot(ctx context.Context, name string) (*allocator.Snapshot, error)
}

// NewExportCmd creates the export command with the given runner.
func NewExportCmd(runner ExportRunner) *cobra.Command {
	return &cobra.Command{
		Use:          "export <name>",
		Short:        "Print the full allocator state as YAML",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := runner.Snapshot(cmd.Context(), args[0])
			if err != nil {
				return &ContextError{Op: "export", Name: args[0], Err: err}
			}

			if GetJSON() {
				writeJSON(cmd.OutOrStdout(), snap)
				return nil
			}
			return writeYAML(cmd.OutOrStdout(), snap)
		},
	}
}
