package timeweave

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/louisbranch/timeweave/internal/graph"
	"github.com/louisbranch/timeweave/internal/graph/domain"
)

func newBranchCommand(cfg *Config) *cobra.Command {
	branchCmd := &cobra.Command{
		Use:   "branch",
		Short: "Branch commands",
	}

	var (
		branchType string
		baseID     string
		entityType string
	)
	createCmd := &cobra.Command{
		Use:   "create <entity-id> <name>",
		Short: "Create a branch for an entity",
		Args:  cobra.ExactArgs(2),
		RunE: withEngine(cfg, func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error {
			parsedType, err := domain.BranchTypeFromLabel(branchType)
			if err != nil {
				return err
			}
			branch, err := engine.CreateBranch(ctx, domain.CreateBranchInput{
				Name:            args[1],
				Type:            parsedType,
				BaseBranchID:    baseID,
				OwnerEntityID:   args[0],
				OwnerEntityType: entityType,
			})
			if err != nil {
				return err
			}
			return printJSON(out, toBranchView(branch))
		}),
	}
	createCmd.Flags().StringVar(&branchType, "type", "FEATURE", "Branch type (MAIN, FEATURE, VARIANT, RELEASE, HOTFIX)")
	createCmd.Flags().StringVar(&baseID, "base", "", "Base branch ID to fork from")
	createCmd.Flags().StringVar(&entityType, "entity-type", "", "Owner entity type (e.g. character)")

	listCmd := &cobra.Command{
		Use:   "list <entity-id>",
		Short: "List all branches for an entity",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(cfg, func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error {
			branches, err := engine.ListBranches(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(out, toBranchViews(branches))
		}),
	}

	var (
		showEntity string
		showName   string
	)
	showCmd := &cobra.Command{
		Use:   "show [branch-id]",
		Short: "Show one branch by ID, or by entity and name",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEngine(cfg, func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error {
			var (
				branch domain.Branch
				err    error
			)
			if len(args) == 1 {
				branch, err = engine.GetBranch(ctx, args[0])
			} else {
				branch, err = engine.GetBranchByName(ctx, showEntity, showName)
			}
			if err != nil {
				return err
			}
			return printJSON(out, toBranchView(branch))
		}),
	}
	showCmd.Flags().StringVar(&showEntity, "entity", "", "Owner entity ID (with --name)")
	showCmd.Flags().StringVar(&showName, "name", "", "Branch name (with --entity)")

	var newBase string
	setBaseCmd := &cobra.Command{
		Use:   "set-base <branch-id>",
		Short: "Reassign a branch's base branch",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(cfg, func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error {
			branch, err := engine.SetBaseBranch(ctx, args[0], newBase)
			if err != nil {
				return err
			}
			return printJSON(out, toBranchView(branch))
		}),
	}
	setBaseCmd.Flags().StringVar(&newBase, "base", "", "New base branch ID (empty detaches the branch)")

	transitionCmd := &cobra.Command{
		Use:   "transition <branch-id> <state>",
		Short: "Move a branch to a terminal state (MERGED, ARCHIVED, ABANDONED)",
		Args:  cobra.ExactArgs(2),
		RunE: withEngine(cfg, func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error {
			state, err := domain.BranchStateFromLabel(args[1])
			if err != nil {
				return err
			}
			branch, err := engine.TransitionBranch(ctx, args[0], state)
			if err != nil {
				return err
			}
			return printJSON(out, toBranchView(branch))
		}),
	}

	branchCmd.AddCommand(createCmd)
	branchCmd.AddCommand(listCmd)
	branchCmd.AddCommand(showCmd)
	branchCmd.AddCommand(setBaseCmd)
	branchCmd.AddCommand(transitionCmd)
	return branchCmd
}

func newHeadCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "head <branch-id>",
		Short: "Show the most recent commit on a branch",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(cfg, func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error {
			head, ok, err := engine.ResolveHead(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return printJSON(out, nil)
			}
			return printJSON(out, toCommitView(head))
		}),
	}
}
