package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/eykd/mintdraw/internal/allocator"
)

// ListRunner defines the interface for listing allocators.
type ListRunner interface {
	List(ctx context.Context) ([]allocator.Status, error)
}

// listOutput is the top-level JSON structure for list output.
type listOutput struct {
	Allocators []allocator.Status `json:"allocators"`
}

// NewListCmd creates the list command with the given runner.
func NewListCmd(runner ListRunner) *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List every allocator in the project",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := runner.List(cmd.Context())
			if err != nil {
				return &ContextError{Op: "list", Err: err}
			}

			if GetJSON() {
				if all == nil {
					all = []allocator.Status{}
				}
				writeJSON(cmd.OutOrStdout(), &listOutput{Allocators: all})
			} else {
				renderListText(cmd.OutOrStdout(), all)
			}
			return nil
		},
	}
}

func renderListText(w io.Writer, all []allocator.Status) {
	if len(all) == 0 {
		fmt.Fprintln(w, "No allocators")
		return
	}
	width := len("ALLOCATOR")
	for _, s := range all {
		if len(s.Key) > width {
			width = len(s.Key)
		}
	}
	fmt.Fprintf(w, "%-*s  %10s  %10s\n", width, "ALLOCATOR", "DRAWN", "REMAINING")
	for _, s := range all {
		fmt.Fprintf(w, "%-*s  %10d  %10d\n", width, s.Key, s.Drawn, s.Remaining)
	}
}
