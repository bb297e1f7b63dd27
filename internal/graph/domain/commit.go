package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/timeweave/internal/platform/errors"
	"github.com/louisbranch/timeweave/internal/platform/id"
)

var (
	// ErrEmptyCommitBranchID indicates a missing branch reference.
	ErrEmptyCommitBranchID = apperrors.New(apperrors.CodeCommitEmptyBranchID, "branch id is required for commit")
	// ErrEmptyCommitState indicates a missing state snapshot.
	ErrEmptyCommitState = apperrors.New(apperrors.CodeCommitEmptyState, "commit state snapshot is required")
	// ErrEmptyChangeFieldName indicates a change without a field name.
	ErrEmptyChangeFieldName = apperrors.New(apperrors.CodeChangeEmptyFieldName, "change field name is required")
	// ErrEmptyChangeEntityID indicates a change without an entity reference.
	ErrEmptyChangeEntityID = apperrors.New(apperrors.CodeChangeEmptyEntityID, "change entity id is required")
)

// Commit represents an immutable snapshot of an entity at one point on a
// branch. Commits are append-only: once created they are never updated or
// physically deleted.
type Commit struct {
	ID       string
	BranchID string
	// ParentCommitID references the commit this one builds on.
	// Empty only for the first commit on a root branch.
	ParentCommitID string
	// Message is a free-text description. Required but may be empty.
	Message string
	// State is the full serialized snapshot of the entity at this point.
	// The graph never interprets it.
	State []byte
	// Seq is the store-assigned insertion order, the canonical ordering
	// for history display. Zero until persisted.
	Seq int64
	// Changes are the field-level diffs that produced this commit, in
	// the order the caller supplied them.
	Changes   []Change
	CreatedAt time.Time
	CreatedBy string
}

// IsRoot reports whether the commit has no parent.
func (c Commit) IsRoot() bool {
	return c.ParentCommitID == ""
}

// Change represents a single field-level before/after diff attached to a
// commit. Changes are created atomically with their owning commit and are
// immutable.
type Change struct {
	ID       string
	CommitID string
	// EntityID and EntityType identify the entity the field belongs to.
	EntityID   string
	EntityType string
	FieldName  string
	// OldValue is nil when the field did not exist before this commit.
	OldValue []byte
	NewValue []byte
	// Position orders changes inside their commit.
	Position int
}

// Swapped returns a copy of the change with old and new values exchanged.
// Revert commits are built from swapped changes.
func (c Change) Swapped() Change {
	swapped := c
	swapped.OldValue = c.NewValue
	swapped.NewValue = c.OldValue
	return swapped
}

// VersionMetadata carries caller-supplied denormalized fields for one
// commit, used to accelerate common queries without walking the graph.
// It is not authoritative; the commit's state blob is the source of truth,
// and the index can be rebuilt from it at any time.
type VersionMetadata struct {
	CommitID   string
	Level      int
	ThemeID    string
	CampaignID string
	Milestone  bool
}

// ChangeInput describes one field-level diff supplied with a commit.
type ChangeInput struct {
	EntityID   string
	EntityType string
	FieldName  string
	OldValue   []byte
	NewValue   []byte
}

// NewCommitInput describes the data needed to append a commit.
type NewCommitInput struct {
	BranchID       string
	ParentCommitID string
	Message        string
	State          []byte
	Changes        []ChangeInput
	CreatedBy      string
	// Metadata optionally populates the denormalized version index.
	Metadata *VersionMetadata
}

// NewCommit constructs a commit and its change rows with generated IDs and
// timestamps. The result is not yet persisted.
func NewCommit(input NewCommitInput, now func() time.Time, idGenerator func() (string, error)) (Commit, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	branchID := strings.TrimSpace(input.BranchID)
	if branchID == "" {
		return Commit{}, ErrEmptyCommitBranchID
	}
	if len(input.State) == 0 {
		return Commit{}, ErrEmptyCommitState
	}

	commitID, err := idGenerator()
	if err != nil {
		return Commit{}, fmt.Errorf("generate commit id: %w", err)
	}

	commit := Commit{
		ID:             commitID,
		BranchID:       branchID,
		ParentCommitID: strings.TrimSpace(input.ParentCommitID),
		Message:        input.Message,
		State:          input.State,
		CreatedAt:      now().UTC(),
		CreatedBy:      strings.TrimSpace(input.CreatedBy),
	}

	commit.Changes = make([]Change, 0, len(input.Changes))
	for i, in := range input.Changes {
		entityID := strings.TrimSpace(in.EntityID)
		fieldName := strings.TrimSpace(in.FieldName)
		if entityID == "" {
			return Commit{}, ErrEmptyChangeEntityID
		}
		if fieldName == "" {
			return Commit{}, ErrEmptyChangeFieldName
		}
		changeID, err := idGenerator()
		if err != nil {
			return Commit{}, fmt.Errorf("generate change id: %w", err)
		}
		commit.Changes = append(commit.Changes, Change{
			ID:         changeID,
			CommitID:   commitID,
			EntityID:   entityID,
			EntityType: strings.TrimSpace(in.EntityType),
			FieldName:  fieldName,
			OldValue:   in.OldValue,
			NewValue:   in.NewValue,
			Position:   i,
		})
	}

	return commit, nil
}
