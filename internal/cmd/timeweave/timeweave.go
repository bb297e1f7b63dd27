// Package timeweave implements the version-graph CLI commands.
package timeweave

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/louisbranch/timeweave/internal/graph"
	"github.com/louisbranch/timeweave/internal/graph/storage/sqlite"
	entrypoint "github.com/louisbranch/timeweave/internal/platform/cmd"
)

// Config holds timeweave command configuration.
type Config struct {
	DBPath string `env:"TIMEWEAVE_DB_PATH" envDefault:"timeweave.db"`
}

// Run parses configuration and executes the CLI with telemetry wired.
func Run(ctx context.Context, args []string) error {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTimeweave, func(ctx context.Context) error {
		root := NewRootCommand(&cfg)
		root.SetArgs(args)
		return root.ExecuteContext(ctx)
	})
}

// NewRootCommand builds the timeweave command tree.
func NewRootCommand(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "timeweave",
		Short:         "Version-graph engine for campaign entities",
		Long:          `Timeweave tracks branches, commits, and field-level changes for versioned entities, with Git-like lineage traversal over an append-only history.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database")

	root.AddCommand(newBranchCommand(cfg))
	root.AddCommand(newHeadCommand(cfg))
	root.AddCommand(newCommitCommand(cfg))
	root.AddCommand(newLogCommand(cfg))
	root.AddCommand(newShowCommand(cfg))
	root.AddCommand(newRevertCommand(cfg))
	root.AddCommand(newAnnotateCommand(cfg))
	root.AddCommand(newLineageCommand(cfg))
	root.AddCommand(newIsAncestorCommand(cfg))
	root.AddCommand(newDescendantsCommand(cfg))
	return root
}

// withEngine opens the store for one command invocation and closes it after.
func withEngine(cfg *Config, fn func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer store.Close()
		return fn(cmd.Context(), graph.NewEngine(store), cmd.OutOrStdout(), args)
	}
}

func printJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
