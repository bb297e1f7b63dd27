// Package navigate provides read-only traversal over the version graph.
package navigate

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/timeweave/internal/graph/domain"
	"github.com/louisbranch/timeweave/internal/graph/storage"
	apperrors "github.com/louisbranch/timeweave/internal/platform/errors"
)

// descendantsPageSize is the batch size used when scanning a branch's
// commit list. Branches are expected to stay small enough that a plain
// scan-and-test beats maintaining a descendant index.
const descendantsPageSize = 200

// Navigator answers ancestry questions over commits and branches. It holds
// no state of its own; every walk reads through the store.
//
// Traversal never fails on a structurally valid graph. A pointer that does
// not resolve, or a chain that revisits a node, indicates out-of-band data
// corruption and surfaces as a GRAPH_CORRUPT error instead of looping or
// silently truncating the result.
type Navigator struct {
	store storage.Store
}

// NewNavigator creates a navigator backed by the provided store.
func NewNavigator(store storage.Store) *Navigator {
	return &Navigator{store: store}
}

// ParentChain returns the commit chain starting at commitID and following
// parent pointers to the root, inclusive of both ends.
func (n *Navigator) ParentChain(ctx context.Context, commitID string) ([]domain.Commit, error) {
	var chain []domain.Commit
	visited := make(map[string]struct{})

	current := commitID
	for current != "" {
		if _, seen := visited[current]; seen {
			return nil, corruptErr(fmt.Sprintf("commit parent chain revisits %s", current), current)
		}
		visited[current] = struct{}{}

		commit, err := n.store.GetCommit(ctx, current)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				if len(chain) == 0 {
					return nil, apperrors.WithMetadata(
						apperrors.CodeCommitNotFound,
						fmt.Sprintf("commit %s not found", current),
						map[string]string{"CommitID": current},
					)
				}
				return nil, corruptErr(fmt.Sprintf("parent commit %s does not resolve", current), current)
			}
			return nil, fmt.Errorf("walk parent chain: %w", err)
		}
		chain = append(chain, commit)
		current = commit.ParentCommitID
	}
	return chain, nil
}

// RootCommit returns the parentless commit at the end of commitID's chain.
func (n *Navigator) RootCommit(ctx context.Context, commitID string) (domain.Commit, error) {
	chain, err := n.ParentChain(ctx, commitID)
	if err != nil {
		return domain.Commit{}, err
	}
	return chain[len(chain)-1], nil
}

// BranchChain returns the branch chain starting at branchID and following
// base pointers to the root branch, inclusive of both ends.
func (n *Navigator) BranchChain(ctx context.Context, branchID string) ([]domain.Branch, error) {
	var chain []domain.Branch
	visited := make(map[string]struct{})

	current := branchID
	for current != "" {
		if _, seen := visited[current]; seen {
			return nil, corruptErr(fmt.Sprintf("branch base chain revisits %s", current), current)
		}
		visited[current] = struct{}{}

		branch, err := n.store.GetBranch(ctx, current)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				if len(chain) == 0 {
					return nil, apperrors.WithMetadata(
						apperrors.CodeBranchNotFound,
						fmt.Sprintf("branch %s not found", current),
						map[string]string{"BranchID": current},
					)
				}
				return nil, corruptErr(fmt.Sprintf("base branch %s does not resolve", current), current)
			}
			return nil, fmt.Errorf("walk base chain: %w", err)
		}
		chain = append(chain, branch)
		current = branch.BaseBranchID
	}
	return chain, nil
}

// RootBranch returns the baseless branch at the end of branchID's chain.
func (n *Navigator) RootBranch(ctx context.Context, branchID string) (domain.Branch, error) {
	chain, err := n.BranchChain(ctx, branchID)
	if err != nil {
		return domain.Branch{}, err
	}
	return chain[len(chain)-1], nil
}

// IsAncestor reports whether candidateID appears in commitID's parent
// chain. A commit is considered its own ancestor.
func (n *Navigator) IsAncestor(ctx context.Context, candidateID string, commitID string) (bool, error) {
	chain, err := n.ParentChain(ctx, commitID)
	if err != nil {
		return false, err
	}
	for _, commit := range chain {
		if commit.ID == candidateID {
			return true, nil
		}
	}
	return false, nil
}

// Descendants returns every commit whose parent chain contains commitID,
// excluding commitID itself. The branch's commit list is scanned and each
// candidate tested, which is fine for the bounded branch sizes this graph
// is designed for.
func (n *Navigator) Descendants(ctx context.Context, commitID string) ([]domain.Commit, error) {
	origin, err := n.store.GetCommit(ctx, commitID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.WithMetadata(
				apperrors.CodeCommitNotFound,
				fmt.Sprintf("commit %s not found", commitID),
				map[string]string{"CommitID": commitID},
			)
		}
		return nil, fmt.Errorf("resolve commit: %w", err)
	}

	originBranch, err := n.store.GetBranch(ctx, origin.BranchID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, corruptErr(fmt.Sprintf("branch %s of commit %s does not resolve", origin.BranchID, commitID), commitID)
		}
		return nil, fmt.Errorf("resolve branch: %w", err)
	}

	// Descendants can live on any branch of the same entity, so every
	// sibling branch's commit list is scanned and each candidate tested.
	branches, err := n.store.ListBranchesByOwner(ctx, originBranch.OwnerEntityID)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}

	var descendants []domain.Commit
	for _, branch := range branches {
		for offset := 0; ; offset += descendantsPageSize {
			page, err := n.store.ListCommitsByBranch(ctx, branch.ID, descendantsPageSize, offset)
			if err != nil {
				return nil, fmt.Errorf("list commits: %w", err)
			}
			for _, candidate := range page {
				if candidate.ID == commitID {
					continue
				}
				isDescendant, err := n.IsAncestor(ctx, commitID, candidate.ID)
				if err != nil {
					return nil, err
				}
				if isDescendant {
					descendants = append(descendants, candidate)
				}
			}
			if len(page) < descendantsPageSize {
				break
			}
		}
	}
	return descendants, nil
}

func corruptErr(message string, nodeID string) *apperrors.Error {
	return apperrors.WithMetadata(
		apperrors.CodeGraphCorrupt,
		message,
		map[string]string{"NodeID": nodeID},
	)
}
