// Package storage defines persistence contracts for the version graph.
//
// Stores hold records and uniqueness guarantees only; graph invariants
// (acyclic lineage, parent-before-child) are enforced by the branch manager
// and commit engine so implementations stay swappable.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/timeweave/internal/graph/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
var ErrAlreadyExists = errors.New("record already exists")

// ErrRootCommitExists indicates a branch already has a parentless commit.
var ErrRootCommitExists = errors.New("branch already has a root commit")

// BranchStore persists branch records.
//
// CreateBranch must enforce name uniqueness per owner entity and report
// ErrAlreadyExists on collision.
type BranchStore interface {
	CreateBranch(ctx context.Context, branch domain.Branch) error
	GetBranch(ctx context.Context, branchID string) (domain.Branch, error)
	GetBranchByName(ctx context.Context, ownerEntityID string, name string) (domain.Branch, error)
	UpdateBranch(ctx context.Context, branch domain.Branch) error
	ListBranchesByOwner(ctx context.Context, ownerEntityID string) ([]domain.Branch, error)
}

// CommitStore persists commit and change records.
//
// CreateCommit must write the commit, its changes, and optional metadata in
// one transaction, report ErrNotFound when the branch does not resolve, and
// report ErrRootCommitExists when a second parentless commit is attempted on
// a branch. The root-uniqueness check must be race-free (a constraint, not a
// read-then-write). The returned commit carries the store-assigned sequence.
type CommitStore interface {
	CreateCommit(ctx context.Context, commit domain.Commit, metadata *domain.VersionMetadata) (domain.Commit, error)
	GetCommit(ctx context.Context, commitID string) (domain.Commit, error)
	ListCommitsByBranch(ctx context.Context, branchID string, limit, offset int) ([]domain.Commit, error)
	ListChangesByCommit(ctx context.Context, commitID string) ([]domain.Change, error)
	LatestCommitByBranch(ctx context.Context, branchID string) (domain.Commit, error)
	CountCommitsByBranch(ctx context.Context, branchID string) (int, error)
}

// MetadataStore persists the optional denormalized version index.
type MetadataStore interface {
	PutVersionMetadata(ctx context.Context, metadata domain.VersionMetadata) error
	GetVersionMetadata(ctx context.Context, commitID string) (domain.VersionMetadata, error)
}

// Store combines all version-graph persistence contracts.
type Store interface {
	BranchStore
	CommitStore
	MetadataStore
}
