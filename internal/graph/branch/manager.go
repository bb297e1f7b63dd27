// Package branch manages branch lifecycle and lineage invariants.
package branch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/timeweave/internal/graph/domain"
	"github.com/louisbranch/timeweave/internal/graph/storage"
	apperrors "github.com/louisbranch/timeweave/internal/platform/errors"
)

// maxBaseChainDepth bounds base-chain walks so corrupted data cannot make
// the cycle check spin forever.
const maxBaseChainDepth = 1000

// Manager creates branches, assigns bases, and drives the branch state
// machine. All lineage invariants (no self-reference, no cycles) are
// enforced here rather than in storage.
type Manager struct {
	store       storage.Store
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewManager creates a branch manager backed by the provided store.
func NewManager(store storage.Store) *Manager {
	return &Manager{store: store}
}

// WithClock overrides the manager's clock. Intended for tests.
func (m *Manager) WithClock(clock func() time.Time) *Manager {
	m.clock = clock
	return m
}

// WithIDGenerator overrides the manager's ID generator. Intended for tests.
func (m *Manager) WithIDGenerator(idGenerator func() (string, error)) *Manager {
	m.idGenerator = idGenerator
	return m
}

// Create validates input, resolves the base branch when provided, and
// persists a new ACTIVE branch.
func (m *Manager) Create(ctx context.Context, input domain.CreateBranchInput) (domain.Branch, error) {
	normalized, err := domain.NormalizeCreateBranchInput(input)
	if err != nil {
		return domain.Branch{}, err
	}

	if normalized.BaseBranchID != "" {
		if _, err := m.store.GetBranch(ctx, normalized.BaseBranchID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return domain.Branch{}, apperrors.WithMetadata(
					apperrors.CodeBranchNotFound,
					fmt.Sprintf("base branch %s not found", normalized.BaseBranchID),
					map[string]string{"BranchID": normalized.BaseBranchID},
				)
			}
			return domain.Branch{}, fmt.Errorf("resolve base branch: %w", err)
		}
	}

	branch, err := domain.CreateBranch(normalized, m.clock, m.idGenerator)
	if err != nil {
		return domain.Branch{}, err
	}

	if err := m.store.CreateBranch(ctx, branch); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return domain.Branch{}, apperrors.WithMetadata(
				apperrors.CodeBranchNameTaken,
				fmt.Sprintf("branch name %q already exists for entity %s", branch.Name, branch.OwnerEntityID),
				map[string]string{"Name": branch.Name},
			)
		}
		return domain.Branch{}, fmt.Errorf("persist branch: %w", err)
	}
	return branch, nil
}

// SetBase reassigns a branch's base branch. Self-reference is rejected, and
// the candidate's base chain is walked to prove the assignment cannot close
// a cycle before anything is persisted.
func (m *Manager) SetBase(ctx context.Context, branchID string, newBaseBranchID string) (domain.Branch, error) {
	if branchID == "" {
		return domain.Branch{}, fmt.Errorf("branch id is required")
	}
	if newBaseBranchID == branchID {
		return domain.Branch{}, domain.ErrBranchSelfReference
	}

	branch, err := m.getBranch(ctx, branchID)
	if err != nil {
		return domain.Branch{}, err
	}

	if newBaseBranchID != "" {
		if err := m.ensureNoCycle(ctx, branchID, newBaseBranchID); err != nil {
			return domain.Branch{}, err
		}
	}

	now := m.clock
	if now == nil {
		now = time.Now
	}
	branch.BaseBranchID = newBaseBranchID
	branch.UpdatedAt = now().UTC()
	if err := m.store.UpdateBranch(ctx, branch); err != nil {
		return domain.Branch{}, fmt.Errorf("persist branch base: %w", err)
	}
	return branch, nil
}

// Transition moves a branch to a new lifecycle state. Only ACTIVE branches
// may transition; the target states are terminal.
func (m *Manager) Transition(ctx context.Context, branchID string, target domain.BranchState) (domain.Branch, error) {
	branch, err := m.getBranch(ctx, branchID)
	if err != nil {
		return domain.Branch{}, err
	}

	updated, err := domain.TransitionBranchState(branch, target, m.clock)
	if err != nil {
		return domain.Branch{}, err
	}

	if err := m.store.UpdateBranch(ctx, updated); err != nil {
		return domain.Branch{}, fmt.Errorf("persist branch state: %w", err)
	}
	return updated, nil
}

// ResolveHead returns the most recently created commit on a branch, or
// ok=false when the branch has no commits yet.
func (m *Manager) ResolveHead(ctx context.Context, branchID string) (domain.Commit, bool, error) {
	if _, err := m.getBranch(ctx, branchID); err != nil {
		return domain.Commit{}, false, err
	}
	head, err := m.store.LatestCommitByBranch(ctx, branchID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Commit{}, false, nil
		}
		return domain.Commit{}, false, fmt.Errorf("resolve head: %w", err)
	}
	return head, true, nil
}

// Get returns one branch by ID.
func (m *Manager) Get(ctx context.Context, branchID string) (domain.Branch, error) {
	return m.getBranch(ctx, branchID)
}

// GetByName returns one branch by owner entity and name.
func (m *Manager) GetByName(ctx context.Context, ownerEntityID string, name string) (domain.Branch, error) {
	branch, err := m.store.GetBranchByName(ctx, ownerEntityID, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Branch{}, apperrors.WithMetadata(
				apperrors.CodeBranchNotFound,
				fmt.Sprintf("branch %q not found for entity %s", name, ownerEntityID),
				map[string]string{"Name": name, "OwnerEntityID": ownerEntityID},
			)
		}
		return domain.Branch{}, fmt.Errorf("get branch by name: %w", err)
	}
	return branch, nil
}

// ListByOwner returns all branches for one owner entity in creation order.
func (m *Manager) ListByOwner(ctx context.Context, ownerEntityID string) ([]domain.Branch, error) {
	return m.store.ListBranchesByOwner(ctx, ownerEntityID)
}

func (m *Manager) getBranch(ctx context.Context, branchID string) (domain.Branch, error) {
	branch, err := m.store.GetBranch(ctx, branchID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Branch{}, apperrors.WithMetadata(
				apperrors.CodeBranchNotFound,
				fmt.Sprintf("branch %s not found", branchID),
				map[string]string{"BranchID": branchID},
			)
		}
		return domain.Branch{}, fmt.Errorf("get branch: %w", err)
	}
	return branch, nil
}

// ensureNoCycle walks the candidate base's chain; revisiting branchID means
// the assignment would close a cycle.
func (m *Manager) ensureNoCycle(ctx context.Context, branchID string, candidateBaseID string) error {
	current := candidateBaseID
	for depth := 0; current != ""; depth++ {
		if depth >= maxBaseChainDepth {
			return apperrors.New(apperrors.CodeGraphCorrupt, "base chain exceeds maximum depth")
		}
		if current == branchID {
			return apperrors.WithMetadata(
				apperrors.CodeBranchBaseCycle,
				fmt.Sprintf("setting base %s on branch %s would create a cycle", candidateBaseID, branchID),
				map[string]string{"BranchID": branchID, "BaseBranchID": candidateBaseID},
			)
		}
		next, err := m.store.GetBranch(ctx, current)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return apperrors.WithMetadata(
					apperrors.CodeBranchNotFound,
					fmt.Sprintf("base branch %s not found", current),
					map[string]string{"BranchID": current},
				)
			}
			return fmt.Errorf("walk base chain: %w", err)
		}
		current = next.BaseBranchID
	}
	return nil
}
