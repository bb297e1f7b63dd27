// Package graph composes the version-graph engine: branch management,
// commit appending, and ancestry traversal over one store.
//
// The engine serializes mutating operations per owner entity so two
// concurrent writes against the same entity's graph cannot interleave.
// Reads take no lock; a stale head during a concurrent commit is
// acceptable.
package graph

import (
	"context"
	"sync"
	"time"

	"github.com/louisbranch/timeweave/internal/graph/branch"
	"github.com/louisbranch/timeweave/internal/graph/commitlog"
	"github.com/louisbranch/timeweave/internal/graph/domain"
	"github.com/louisbranch/timeweave/internal/graph/navigate"
	"github.com/louisbranch/timeweave/internal/graph/storage"
)

// Engine is the façade over the version-graph components.
type Engine struct {
	branches  *branch.Manager
	commits   *commitlog.Engine
	navigator *navigate.Navigator
	locks     keyedMutex
}

// Option configures an Engine.
type Option func(*config)

type config struct {
	clock       func() time.Time
	idGenerator func() (string, error)
}

// WithClock overrides the engine clock. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithIDGenerator overrides the engine ID generator. Intended for tests.
func WithIDGenerator(idGenerator func() (string, error)) Option {
	return func(c *config) {
		c.idGenerator = idGenerator
	}
}

// NewEngine creates a version-graph engine backed by the provided store.
func NewEngine(store storage.Store, opts ...Option) *Engine {
	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Engine{
		branches:  branch.NewManager(store).WithClock(cfg.clock).WithIDGenerator(cfg.idGenerator),
		commits:   commitlog.NewEngine(store).WithClock(cfg.clock).WithIDGenerator(cfg.idGenerator),
		navigator: navigate.NewNavigator(store),
	}
}

// CreateBranch creates a new ACTIVE branch for an entity.
func (e *Engine) CreateBranch(ctx context.Context, input domain.CreateBranchInput) (domain.Branch, error) {
	unlock := e.locks.lock(input.OwnerEntityID)
	defer unlock()
	return e.branches.Create(ctx, input)
}

// SetBaseBranch reassigns a branch's base branch.
func (e *Engine) SetBaseBranch(ctx context.Context, branchID string, newBaseBranchID string) (domain.Branch, error) {
	owner, err := e.ownerOfBranch(ctx, branchID)
	if err != nil {
		return domain.Branch{}, err
	}
	unlock := e.locks.lock(owner)
	defer unlock()
	return e.branches.SetBase(ctx, branchID, newBaseBranchID)
}

// TransitionBranch moves a branch to a terminal lifecycle state.
func (e *Engine) TransitionBranch(ctx context.Context, branchID string, target domain.BranchState) (domain.Branch, error) {
	owner, err := e.ownerOfBranch(ctx, branchID)
	if err != nil {
		return domain.Branch{}, err
	}
	unlock := e.locks.lock(owner)
	defer unlock()
	return e.branches.Transition(ctx, branchID, target)
}

// ResolveHead returns the most recent commit on a branch, or ok=false for
// a branch with no commits.
func (e *Engine) ResolveHead(ctx context.Context, branchID string) (domain.Commit, bool, error) {
	return e.branches.ResolveHead(ctx, branchID)
}

// GetBranch returns one branch by ID.
func (e *Engine) GetBranch(ctx context.Context, branchID string) (domain.Branch, error) {
	return e.branches.Get(ctx, branchID)
}

// GetBranchByName returns one branch by owner entity and name.
func (e *Engine) GetBranchByName(ctx context.Context, ownerEntityID string, name string) (domain.Branch, error) {
	return e.branches.GetByName(ctx, ownerEntityID, name)
}

// ListBranches returns all branches for one owner entity in creation order.
func (e *Engine) ListBranches(ctx context.Context, ownerEntityID string) ([]domain.Branch, error) {
	return e.branches.ListByOwner(ctx, ownerEntityID)
}

// Commit appends one commit with its changes to a branch.
func (e *Engine) Commit(ctx context.Context, input domain.NewCommitInput) (domain.Commit, error) {
	owner, err := e.ownerOfBranch(ctx, input.BranchID)
	if err != nil {
		return domain.Commit{}, err
	}
	unlock := e.locks.lock(owner)
	defer unlock()
	return e.commits.Commit(ctx, input)
}

// Revert appends a commit undoing the target commit.
func (e *Engine) Revert(ctx context.Context, commitID string, createdBy string) (domain.Commit, error) {
	target, err := e.commits.Get(ctx, commitID)
	if err != nil {
		return domain.Commit{}, err
	}
	owner, err := e.ownerOfBranch(ctx, target.BranchID)
	if err != nil {
		return domain.Commit{}, err
	}
	unlock := e.locks.lock(owner)
	defer unlock()
	return e.commits.Revert(ctx, commitID, createdBy)
}

// GetCommit returns one commit with its changes attached.
func (e *Engine) GetCommit(ctx context.Context, commitID string) (domain.Commit, error) {
	return e.commits.Get(ctx, commitID)
}

// ListCommits returns commits for one branch in creation order.
func (e *Engine) ListCommits(ctx context.Context, branchID string, limit, offset int) ([]domain.Commit, error) {
	return e.commits.List(ctx, branchID, limit, offset)
}

// AnnotateMetadata upserts the denormalized version index for one commit.
func (e *Engine) AnnotateMetadata(ctx context.Context, metadata domain.VersionMetadata) error {
	return e.commits.AnnotateMetadata(ctx, metadata)
}

// ParentChain returns the commit chain from commitID to its root.
func (e *Engine) ParentChain(ctx context.Context, commitID string) ([]domain.Commit, error) {
	return e.navigator.ParentChain(ctx, commitID)
}

// RootCommit returns the parentless commit at the end of commitID's chain.
func (e *Engine) RootCommit(ctx context.Context, commitID string) (domain.Commit, error) {
	return e.navigator.RootCommit(ctx, commitID)
}

// BranchChain returns the branch chain from branchID to its root branch.
func (e *Engine) BranchChain(ctx context.Context, branchID string) ([]domain.Branch, error) {
	return e.navigator.BranchChain(ctx, branchID)
}

// RootBranch returns the baseless branch at the end of branchID's chain.
func (e *Engine) RootBranch(ctx context.Context, branchID string) (domain.Branch, error) {
	return e.navigator.RootBranch(ctx, branchID)
}

// IsAncestor reports whether candidateID is in commitID's parent chain.
func (e *Engine) IsAncestor(ctx context.Context, candidateID string, commitID string) (bool, error) {
	return e.navigator.IsAncestor(ctx, candidateID, commitID)
}

// Descendants returns every commit whose parent chain contains commitID.
func (e *Engine) Descendants(ctx context.Context, commitID string) ([]domain.Commit, error) {
	return e.navigator.Descendants(ctx, commitID)
}

func (e *Engine) ownerOfBranch(ctx context.Context, branchID string) (string, error) {
	b, err := e.branches.Get(ctx, branchID)
	if err != nil {
		return "", err
	}
	return b.OwnerEntityID, nil
}

// keyedMutex serializes work per string key. Entries are never removed;
// the set of owner entities seen by one process stays small.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &sync.Mutex{}
		k.locks[key] = entry
	}
	k.mu.Unlock()

	entry.Lock()
	return entry.Unlock
}
