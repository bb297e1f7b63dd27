// Package commitlog appends commits and their change records atomically.
package commitlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/timeweave/internal/graph/domain"
	"github.com/louisbranch/timeweave/internal/graph/storage"
	apperrors "github.com/louisbranch/timeweave/internal/platform/errors"
)

// Engine appends commits to the graph. Parent-existence and root-uniqueness
// are validated here; the store's transaction and unique index make the
// write itself all-or-nothing and race-free.
type Engine struct {
	store       storage.Store
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewEngine creates a commit engine backed by the provided store.
func NewEngine(store storage.Store) *Engine {
	return &Engine{store: store}
}

// WithClock overrides the engine's clock. Intended for tests.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// WithIDGenerator overrides the engine's ID generator. Intended for tests.
func (e *Engine) WithIDGenerator(idGenerator func() (string, error)) *Engine {
	e.idGenerator = idGenerator
	return e
}

// Commit appends one commit with its changes to a branch.
//
// A parentless commit is only legal as the first commit on its branch; the
// store's partial unique index backs that check so two concurrent root
// commits cannot both succeed. When a parent is named it must already exist
// and belong to a branch in the same lineage.
func (e *Engine) Commit(ctx context.Context, input domain.NewCommitInput) (domain.Commit, error) {
	commit, err := domain.NewCommit(input, e.clock, e.idGenerator)
	if err != nil {
		return domain.Commit{}, err
	}

	if commit.ParentCommitID != "" {
		if _, err := e.store.GetCommit(ctx, commit.ParentCommitID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return domain.Commit{}, apperrors.WithMetadata(
					apperrors.CodeCommitParentNotFound,
					fmt.Sprintf("parent commit %s not found", commit.ParentCommitID),
					map[string]string{"ParentCommitID": commit.ParentCommitID},
				)
			}
			return domain.Commit{}, fmt.Errorf("resolve parent commit: %w", err)
		}
	} else {
		count, err := e.store.CountCommitsByBranch(ctx, commit.BranchID)
		if err != nil {
			return domain.Commit{}, fmt.Errorf("count branch commits: %w", err)
		}
		if count > 0 {
			return domain.Commit{}, apperrors.WithMetadata(
				apperrors.CodeCommitRootExists,
				fmt.Sprintf("branch %s already has a root commit", commit.BranchID),
				map[string]string{"BranchID": commit.BranchID},
			)
		}
	}

	persisted, err := e.store.CreateCommit(ctx, commit, input.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrRootCommitExists):
			// Lost the race against a concurrent root commit.
			return domain.Commit{}, apperrors.WithMetadata(
				apperrors.CodeCommitRootExists,
				fmt.Sprintf("branch %s already has a root commit", commit.BranchID),
				map[string]string{"BranchID": commit.BranchID},
			)
		case errors.Is(err, storage.ErrNotFound):
			return domain.Commit{}, apperrors.WithMetadata(
				apperrors.CodeBranchNotFound,
				fmt.Sprintf("branch %s not found", commit.BranchID),
				map[string]string{"BranchID": commit.BranchID},
			)
		}
		return domain.Commit{}, fmt.Errorf("persist commit: %w", err)
	}
	return persisted, nil
}

// Revert appends a commit that undoes the target commit: its state is the
// target's parent state and its changes are the target's changes with old
// and new values swapped. Root commits cannot be reverted.
func (e *Engine) Revert(ctx context.Context, commitID string, createdBy string) (domain.Commit, error) {
	target, err := e.store.GetCommit(ctx, commitID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Commit{}, apperrors.WithMetadata(
				apperrors.CodeCommitNotFound,
				fmt.Sprintf("commit %s not found", commitID),
				map[string]string{"CommitID": commitID},
			)
		}
		return domain.Commit{}, fmt.Errorf("resolve commit: %w", err)
	}

	if target.IsRoot() {
		return domain.Commit{}, apperrors.WithMetadata(
			apperrors.CodeCommitRevertRoot,
			fmt.Sprintf("commit %s is a root commit and cannot be reverted", commitID),
			map[string]string{"CommitID": commitID},
		)
	}

	parent, err := e.store.GetCommit(ctx, target.ParentCommitID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// The commit engine never creates a child before its parent,
			// so a dangling parent pointer means out-of-band corruption.
			return domain.Commit{}, apperrors.WithMetadata(
				apperrors.CodeGraphCorrupt,
				fmt.Sprintf("parent commit %s of %s does not resolve", target.ParentCommitID, commitID),
				map[string]string{"CommitID": commitID, "ParentCommitID": target.ParentCommitID},
			)
		}
		return domain.Commit{}, fmt.Errorf("resolve parent commit: %w", err)
	}

	head, err := e.store.LatestCommitByBranch(ctx, target.BranchID)
	if err != nil {
		return domain.Commit{}, fmt.Errorf("resolve branch head: %w", err)
	}

	changes := make([]domain.ChangeInput, 0, len(target.Changes))
	for _, change := range target.Changes {
		swapped := change.Swapped()
		changes = append(changes, domain.ChangeInput{
			EntityID:   swapped.EntityID,
			EntityType: swapped.EntityType,
			FieldName:  swapped.FieldName,
			OldValue:   swapped.OldValue,
			NewValue:   swapped.NewValue,
		})
	}

	return e.Commit(ctx, domain.NewCommitInput{
		BranchID:       target.BranchID,
		ParentCommitID: head.ID,
		Message:        fmt.Sprintf("Revert %q", target.Message),
		State:          parent.State,
		Changes:        changes,
		CreatedBy:      createdBy,
	})
}

// Get returns one commit with its changes attached.
func (e *Engine) Get(ctx context.Context, commitID string) (domain.Commit, error) {
	commit, err := e.store.GetCommit(ctx, commitID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Commit{}, apperrors.WithMetadata(
				apperrors.CodeCommitNotFound,
				fmt.Sprintf("commit %s not found", commitID),
				map[string]string{"CommitID": commitID},
			)
		}
		return domain.Commit{}, fmt.Errorf("get commit: %w", err)
	}
	return commit, nil
}

// List returns commits for one branch in creation order.
func (e *Engine) List(ctx context.Context, branchID string, limit, offset int) ([]domain.Commit, error) {
	return e.store.ListCommitsByBranch(ctx, branchID, limit, offset)
}

// AnnotateMetadata upserts the denormalized version index for one commit.
// The index is a rebuildable accelerator, never the source of truth.
func (e *Engine) AnnotateMetadata(ctx context.Context, metadata domain.VersionMetadata) error {
	if _, err := e.Get(ctx, metadata.CommitID); err != nil {
		return err
	}
	return e.store.PutVersionMetadata(ctx, metadata)
}
