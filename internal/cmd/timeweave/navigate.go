package timeweave

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/louisbranch/timeweave/internal/graph"
)

func newLineageCommand(cfg *Config) *cobra.Command {
	var branchID string
	lineageCmd := &cobra.Command{
		Use:   "lineage [commit-id]",
		Short: "Walk a commit's parent chain, or a branch's base chain with --branch",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEngine(cfg, func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error {
			if branchID != "" {
				chain, err := engine.BranchChain(ctx, branchID)
				if err != nil {
					return err
				}
				return printJSON(out, toBranchViews(chain))
			}
			if len(args) == 0 {
				return fmt.Errorf("a commit id or --branch is required")
			}
			chain, err := engine.ParentChain(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(out, toCommitViews(chain))
		}),
	}
	lineageCmd.Flags().StringVar(&branchID, "branch", "", "Walk this branch's base chain instead")
	return lineageCmd
}

func newIsAncestorCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "is-ancestor <ancestor-id> <commit-id>",
		Short: "Report whether one commit is an ancestor of another",
		Args:  cobra.ExactArgs(2),
		RunE: withEngine(cfg, func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error {
			ok, err := engine.IsAncestor(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(out, map[string]bool{"is_ancestor": ok})
		}),
	}
}

func newDescendantsCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "descendants <commit-id>",
		Short: "List every commit that builds on the given commit",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(cfg, func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error {
			descendants, err := engine.Descendants(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(out, toCommitViews(descendants))
		}),
	}
}
