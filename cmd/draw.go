package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// DrawResult is the JSON shape of a draw.
type DrawResult struct {
	Allocator string   `json:"allocator"`
	IDs       []uint64 `json:"ids"`
}

// DrawRunner defines the interface for drawing identifiers. A non-empty
// seedHex makes the draws reproducible.
type DrawRunner interface {
	Draw(ctx context.Context, name string, count int, seedHex string) ([]uint64, error)
}

// NewDrawCmd creates the draw command with the given runner.
func NewDrawCmd(runner DrawRunner) *cobra.Command {
	var count int
	var seedHex string

	cmd := &cobra.Command{
		Use:          "draw <name>",
		Short:        "Draw identifiers that have not been drawn before",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := runner.Draw(cmd.Context(), args[0], count, seedHex)

			// Ids committed before a failure are still reported.
			if GetJSON() {
				if ids == nil {
					ids = []uint64{}
				}
				writeJSON(cmd.OutOrStdout(), &DrawResult{Allocator: args[0], IDs: ids})
			} else {
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
			}

			if err != nil {
				return &ContextError{Op: "draw", Name: args[0], Err: err}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of identifiers to draw")
	cmd.Flags().StringVar(&seedHex, "seed", "", "Hex entropy seed for reproducible draws")

	return cmd
}
