package timeweave

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/louisbranch/timeweave/internal/graph"
	"github.com/louisbranch/timeweave/internal/graph/domain"
)

// commitSpec is the YAML document describing one commit.
type commitSpec struct {
	BranchID       string        `yaml:"branch_id"`
	ParentCommitID string        `yaml:"parent_commit_id"`
	Message        string        `yaml:"message"`
	CreatedBy      string        `yaml:"created_by"`
	State          any           `yaml:"state"`
	Changes        []changeSpec  `yaml:"changes"`
	Metadata       *metadataSpec `yaml:"metadata"`
}

type changeSpec struct {
	EntityID   string  `yaml:"entity_id"`
	EntityType string  `yaml:"entity_type"`
	FieldName  string  `yaml:"field_name"`
	OldValue   *string `yaml:"old_value"`
	NewValue   *string `yaml:"new_value"`
}

type metadataSpec struct {
	Level      int    `yaml:"level"`
	ThemeID    string `yaml:"theme_id"`
	CampaignID string `yaml:"campaign_id"`
	Milestone  bool   `yaml:"milestone"`
}

// toInput converts the YAML document into a commit input. A string state is
// taken verbatim; any other YAML value is re-encoded as JSON.
func (s commitSpec) toInput() (domain.NewCommitInput, error) {
	input := domain.NewCommitInput{
		BranchID:       s.BranchID,
		ParentCommitID: s.ParentCommitID,
		Message:        s.Message,
		CreatedBy:      s.CreatedBy,
	}

	switch state := s.State.(type) {
	case nil:
	case string:
		input.State = []byte(state)
	default:
		encoded, err := json.Marshal(state)
		if err != nil {
			return domain.NewCommitInput{}, fmt.Errorf("encode state: %w", err)
		}
		input.State = encoded
	}

	for _, change := range s.Changes {
		input.Changes = append(input.Changes, domain.ChangeInput{
			EntityID:   change.EntityID,
			EntityType: change.EntityType,
			FieldName:  change.FieldName,
			OldValue:   stringPtrToBytes(change.OldValue),
			NewValue:   stringPtrToBytes(change.NewValue),
		})
	}

	if s.Metadata != nil {
		input.Metadata = &domain.VersionMetadata{
			Level:      s.Metadata.Level,
			ThemeID:    s.Metadata.ThemeID,
			CampaignID: s.Metadata.CampaignID,
			Milestone:  s.Metadata.Milestone,
		}
	}
	return input, nil
}

func stringPtrToBytes(value *string) []byte {
	if value == nil {
		return nil
	}
	return []byte(*value)
}

func loadCommitSpec(path string) (domain.NewCommitInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.NewCommitInput{}, fmt.Errorf("read commit file: %w", err)
	}
	var spec commitSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return domain.NewCommitInput{}, fmt.Errorf("parse commit file: %w", err)
	}
	return spec.toInput()
}

func newCommitCommand(cfg *Config) *cobra.Command {
	var (
		branchID string
		parentID string
	)
	commitCmd := &cobra.Command{
		Use:   "commit <file.yaml>",
		Short: "Append a commit described by a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(cfg, func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error {
			input, err := loadCommitSpec(args[0])
			if err != nil {
				return err
			}
			if branchID != "" {
				input.BranchID = branchID
			}
			if parentID != "" {
				input.ParentCommitID = parentID
			}
			commit, err := engine.Commit(ctx, input)
			if err != nil {
				return err
			}
			return printJSON(out, toCommitView(commit))
		}),
	}
	commitCmd.Flags().StringVar(&branchID, "branch", "", "Branch ID (overrides the file)")
	commitCmd.Flags().StringVar(&parentID, "parent", "", "Parent commit ID (overrides the file)")
	return commitCmd
}

func newLogCommand(cfg *Config) *cobra.Command {
	var (
		limit  int
		offset int
	)
	logCmd := &cobra.Command{
		Use:   "log <branch-id>",
		Short: "List commits on a branch in creation order",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(cfg, func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error {
			commits, err := engine.ListCommits(ctx, args[0], limit, offset)
			if err != nil {
				return err
			}
			return printJSON(out, toCommitViews(commits))
		}),
	}
	logCmd.Flags().IntVar(&limit, "limit", 50, "Maximum commits to list")
	logCmd.Flags().IntVar(&offset, "offset", 0, "Commits to skip")
	return logCmd
}

func newShowCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <commit-id>",
		Short: "Show one commit with its changes",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(cfg, func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error {
			commit, err := engine.GetCommit(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(out, toCommitView(commit))
		}),
	}
}

func newRevertCommand(cfg *Config) *cobra.Command {
	var createdBy string
	revertCmd := &cobra.Command{
		Use:   "revert <commit-id>",
		Short: "Append a commit that undoes the target commit",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(cfg, func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error {
			commit, err := engine.Revert(ctx, args[0], createdBy)
			if err != nil {
				return err
			}
			return printJSON(out, toCommitView(commit))
		}),
	}
	revertCmd.Flags().StringVar(&createdBy, "by", "", "Author of the revert commit")
	return revertCmd
}

func newAnnotateCommand(cfg *Config) *cobra.Command {
	var (
		level      int
		themeID    string
		campaignID string
		milestone  bool
	)
	annotateCmd := &cobra.Command{
		Use:   "annotate <commit-id>",
		Short: "Upsert the denormalized version index for a commit",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(cfg, func(ctx context.Context, engine *graph.Engine, out io.Writer, args []string) error {
			return engine.AnnotateMetadata(ctx, domain.VersionMetadata{
				CommitID:   args[0],
				Level:      level,
				ThemeID:    themeID,
				CampaignID: campaignID,
				Milestone:  milestone,
			})
		}),
	}
	annotateCmd.Flags().IntVar(&level, "level", 0, "Denormalized entity level")
	annotateCmd.Flags().StringVar(&themeID, "theme", "", "Theme ID")
	annotateCmd.Flags().StringVar(&campaignID, "campaign", "", "Campaign ID")
	annotateCmd.Flags().BoolVar(&milestone, "milestone", false, "Mark the commit as a milestone")
	return annotateCmd
}
