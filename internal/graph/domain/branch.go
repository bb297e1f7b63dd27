package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	apperrors "github.com/louisbranch/timeweave/internal/platform/errors"
	"github.com/louisbranch/timeweave/internal/platform/id"
)

// BranchType describes the purpose of a branch.
type BranchType int

// BranchState describes the lifecycle of a branch.
type BranchState int

const (
	// BranchTypeUnspecified represents an invalid branch type value.
	BranchTypeUnspecified BranchType = iota
	// BranchTypeMain indicates the canonical branch for an entity.
	BranchTypeMain
	// BranchTypeFeature indicates an in-progress line of work.
	BranchTypeFeature
	// BranchTypeVariant indicates an alternate take on the entity.
	BranchTypeVariant
	// BranchTypeRelease indicates a stabilization branch.
	BranchTypeRelease
	// BranchTypeHotfix indicates a short-lived correction branch.
	BranchTypeHotfix
)

const (
	// BranchStateUnspecified represents an invalid branch state value.
	BranchStateUnspecified BranchState = iota
	// BranchStateActive indicates the branch accepts new commits.
	BranchStateActive
	// BranchStateMerged indicates the branch was merged into another.
	BranchStateMerged
	// BranchStateArchived indicates the branch was retired.
	BranchStateArchived
	// BranchStateAbandoned indicates the branch was discarded.
	BranchStateAbandoned
)

var (
	// ErrEmptyBranchName indicates a missing branch name.
	ErrEmptyBranchName = apperrors.New(apperrors.CodeBranchNameEmpty, "branch name is required")
	// ErrInvalidBranchName indicates a branch name containing whitespace.
	ErrInvalidBranchName = apperrors.New(apperrors.CodeBranchNameInvalid, "branch name must not contain whitespace")
	// ErrInvalidBranchType indicates a missing or invalid branch type.
	ErrInvalidBranchType = apperrors.New(apperrors.CodeBranchInvalidType, "branch type is required")
	// ErrMainBranchHasBase indicates a main branch declaring a base branch.
	ErrMainBranchHasBase = apperrors.New(apperrors.CodeBranchMainHasBase, "main branch cannot have a base branch")
	// ErrEmptyOwnerEntity indicates a missing owner entity reference.
	ErrEmptyOwnerEntity = apperrors.New(apperrors.CodeBranchEmptyOwner, "owner entity id is required")
	// ErrBranchSelfReference indicates a branch referencing itself as base.
	ErrBranchSelfReference = apperrors.New(apperrors.CodeBranchSelfReference, "branch cannot be its own base")
	// ErrInvalidBranchStateTransition indicates a disallowed branch state change.
	ErrInvalidBranchStateTransition = apperrors.New(apperrors.CodeBranchInvalidStateTransition, "branch state transition is not allowed")
)

// Branch represents a named, independently-advancing line of commits for
// one versioned entity.
type Branch struct {
	ID   string
	Name string
	Type BranchType
	// State tracks the branch lifecycle. Retired branches keep their
	// commits retrievable; there is no physical deletion.
	State BranchState
	// BaseBranchID references the branch this one forked from.
	// Empty for root branches.
	BaseBranchID string
	// OwnerEntityID is the entity this branch versions.
	OwnerEntityID string
	// OwnerEntityType tags the entity kind (e.g. "character", "campaign").
	OwnerEntityType string
	// CreatedAt is the timestamp when the branch was created.
	CreatedAt time.Time
	// UpdatedAt is the timestamp when branch metadata last changed.
	UpdatedAt time.Time
}

// IsRoot reports whether the branch has no base branch.
func (b Branch) IsRoot() bool {
	return b.BaseBranchID == ""
}

// CreateBranchInput describes the metadata needed to create a branch.
type CreateBranchInput struct {
	Name            string
	Type            BranchType
	BaseBranchID    string
	OwnerEntityID   string
	OwnerEntityType string
}

// CreateBranch creates a new branch with a generated ID and timestamps.
func CreateBranch(input CreateBranchInput, now func() time.Time, idGenerator func() (string, error)) (Branch, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateBranchInput(input)
	if err != nil {
		return Branch{}, err
	}

	branchID, err := idGenerator()
	if err != nil {
		return Branch{}, fmt.Errorf("generate branch id: %w", err)
	}

	createdAt := now().UTC()
	return Branch{
		ID:              branchID,
		Name:            normalized.Name,
		Type:            normalized.Type,
		State:           BranchStateActive,
		BaseBranchID:    normalized.BaseBranchID,
		OwnerEntityID:   normalized.OwnerEntityID,
		OwnerEntityType: normalized.OwnerEntityType,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}, nil
}

// NormalizeCreateBranchInput trims and validates branch input metadata.
func NormalizeCreateBranchInput(input CreateBranchInput) (CreateBranchInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.BaseBranchID = strings.TrimSpace(input.BaseBranchID)
	input.OwnerEntityID = strings.TrimSpace(input.OwnerEntityID)
	input.OwnerEntityType = strings.TrimSpace(input.OwnerEntityType)
	if input.Name == "" {
		return CreateBranchInput{}, ErrEmptyBranchName
	}
	if strings.IndexFunc(input.Name, unicode.IsSpace) >= 0 {
		return CreateBranchInput{}, apperrors.WithMetadata(
			apperrors.CodeBranchNameInvalid,
			fmt.Sprintf("branch name %q must not contain whitespace", input.Name),
			map[string]string{"Name": input.Name},
		)
	}
	if input.Type == BranchTypeUnspecified {
		return CreateBranchInput{}, ErrInvalidBranchType
	}
	if input.Type == BranchTypeMain && input.BaseBranchID != "" {
		return CreateBranchInput{}, ErrMainBranchHasBase
	}
	if input.OwnerEntityID == "" {
		return CreateBranchInput{}, ErrEmptyOwnerEntity
	}
	return input, nil
}

// TransitionBranchState applies a state transition and updates timestamps.
// Only ACTIVE branches may transition; MERGED, ARCHIVED, and ABANDONED are
// terminal.
func TransitionBranchState(branch Branch, target BranchState, now func() time.Time) (Branch, error) {
	if now == nil {
		now = time.Now
	}
	if !isBranchStateTransitionAllowed(branch.State, target) {
		fromState := BranchStateLabel(branch.State)
		toState := BranchStateLabel(target)
		return Branch{}, apperrors.WithMetadata(
			apperrors.CodeBranchInvalidStateTransition,
			fmt.Sprintf("branch state transition not allowed: %s -> %s", fromState, toState),
			map[string]string{"FromState": fromState, "ToState": toState},
		)
	}

	updated := branch
	updated.State = target
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// isBranchStateTransitionAllowed reports whether a state transition is permitted.
func isBranchStateTransitionAllowed(from, to BranchState) bool {
	switch from {
	case BranchStateActive:
		return to == BranchStateMerged || to == BranchStateArchived || to == BranchStateAbandoned
	default:
		return false
	}
}

// BranchStateLabel returns a stable label for a branch state.
func BranchStateLabel(state BranchState) string {
	switch state {
	case BranchStateActive:
		return "ACTIVE"
	case BranchStateMerged:
		return "MERGED"
	case BranchStateArchived:
		return "ARCHIVED"
	case BranchStateAbandoned:
		return "ABANDONED"
	default:
		return "UNSPECIFIED"
	}
}

// BranchStateFromLabel parses a string label into a BranchState.
// It trims whitespace and matches case-insensitively.
func BranchStateFromLabel(value string) (BranchState, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return BranchStateUnspecified, fmt.Errorf("branch state is required")
	}
	switch strings.ToUpper(trimmed) {
	case "ACTIVE":
		return BranchStateActive, nil
	case "MERGED":
		return BranchStateMerged, nil
	case "ARCHIVED":
		return BranchStateArchived, nil
	case "ABANDONED":
		return BranchStateAbandoned, nil
	default:
		return BranchStateUnspecified, fmt.Errorf("unknown branch state %q", value)
	}
}

// BranchTypeLabel returns a stable label for a branch type.
func BranchTypeLabel(branchType BranchType) string {
	switch branchType {
	case BranchTypeMain:
		return "MAIN"
	case BranchTypeFeature:
		return "FEATURE"
	case BranchTypeVariant:
		return "VARIANT"
	case BranchTypeRelease:
		return "RELEASE"
	case BranchTypeHotfix:
		return "HOTFIX"
	default:
		return "UNSPECIFIED"
	}
}

// BranchTypeFromLabel parses a string label into a BranchType.
// It trims whitespace and matches case-insensitively.
func BranchTypeFromLabel(value string) (BranchType, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return BranchTypeUnspecified, fmt.Errorf("branch type is required")
	}
	switch strings.ToUpper(trimmed) {
	case "MAIN":
		return BranchTypeMain, nil
	case "FEATURE":
		return BranchTypeFeature, nil
	case "VARIANT":
		return BranchTypeVariant, nil
	case "RELEASE":
		return BranchTypeRelease, nil
	case "HOTFIX":
		return BranchTypeHotfix, nil
	default:
		return BranchTypeUnspecified, fmt.Errorf("unknown branch type %q", value)
	}
}
