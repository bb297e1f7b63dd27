package branch

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/timeweave/internal/graph/domain"
	"github.com/louisbranch/timeweave/internal/graph/storage/sqlite"
	apperrors "github.com/louisbranch/timeweave/internal/platform/errors"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store, err := sqlite.Open(t.TempDir() + "/timeweave.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewManager(store)
}

func createBranch(t *testing.T, manager *Manager, name string, branchType domain.BranchType, baseID string) domain.Branch {
	t.Helper()
	branch, err := manager.Create(context.Background(), domain.CreateBranchInput{
		Name:            name,
		Type:            branchType,
		BaseBranchID:    baseID,
		OwnerEntityID:   "char-1",
		OwnerEntityType: "character",
	})
	if err != nil {
		t.Fatalf("create branch %s: %v", name, err)
	}
	return branch
}

func TestCreateBranchPersists(t *testing.T) {
	manager := newTestManager(t)

	branch := createBranch(t, manager, "main", domain.BranchTypeMain, "")
	if branch.State != domain.BranchStateActive {
		t.Fatalf("state = %v, want active", branch.State)
	}

	got, err := manager.Get(context.Background(), branch.ID)
	if err != nil {
		t.Fatalf("get branch: %v", err)
	}
	if got.Name != "main" {
		t.Fatalf("name = %q, want main", got.Name)
	}
}

func TestCreateBranchUnknownBase(t *testing.T) {
	manager := newTestManager(t)

	_, err := manager.Create(context.Background(), domain.CreateBranchInput{
		Name:          "alt",
		Type:          domain.BranchTypeVariant,
		BaseBranchID:  "missing",
		OwnerEntityID: "char-1",
	})
	if !apperrors.IsCode(err, apperrors.CodeBranchNotFound) {
		t.Fatalf("expected BRANCH_NOT_FOUND, got %v", err)
	}
}

func TestCreateBranchDuplicateName(t *testing.T) {
	manager := newTestManager(t)

	createBranch(t, manager, "alt", domain.BranchTypeFeature, "")
	_, err := manager.Create(context.Background(), domain.CreateBranchInput{
		Name:          "alt",
		Type:          domain.BranchTypeFeature,
		OwnerEntityID: "char-1",
	})
	if !apperrors.IsCode(err, apperrors.CodeBranchNameTaken) {
		t.Fatalf("expected BRANCH_NAME_TAKEN, got %v", err)
	}
}

func TestSetBaseSelfReference(t *testing.T) {
	manager := newTestManager(t)
	branch := createBranch(t, manager, "alt", domain.BranchTypeFeature, "")

	_, err := manager.SetBase(context.Background(), branch.ID, branch.ID)
	if !apperrors.IsCode(err, apperrors.CodeBranchSelfReference) {
		t.Fatalf("expected BRANCH_SELF_REFERENCE, got %v", err)
	}
}

func TestSetBaseCycleRejected(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	// a <- b <- c, then closing c as a's base would form a cycle.
	a := createBranch(t, manager, "a", domain.BranchTypeFeature, "")
	b := createBranch(t, manager, "b", domain.BranchTypeFeature, a.ID)
	c := createBranch(t, manager, "c", domain.BranchTypeFeature, b.ID)

	_, err := manager.SetBase(ctx, a.ID, c.ID)
	if !apperrors.IsCode(err, apperrors.CodeBranchBaseCycle) {
		t.Fatalf("expected BRANCH_BASE_CYCLE, got %v", err)
	}

	// The rejected assignment must not be persisted.
	got, err := manager.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get branch: %v", err)
	}
	if got.BaseBranchID != "" {
		t.Fatalf("base branch id = %q, want empty", got.BaseBranchID)
	}
}

func TestSetBaseReassignAndClear(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	a := createBranch(t, manager, "a", domain.BranchTypeFeature, "")
	b := createBranch(t, manager, "b", domain.BranchTypeFeature, "")

	updated, err := manager.SetBase(ctx, b.ID, a.ID)
	if err != nil {
		t.Fatalf("set base: %v", err)
	}
	if updated.BaseBranchID != a.ID {
		t.Fatalf("base branch id = %q, want %q", updated.BaseBranchID, a.ID)
	}

	cleared, err := manager.SetBase(ctx, b.ID, "")
	if err != nil {
		t.Fatalf("clear base: %v", err)
	}
	if !cleared.IsRoot() {
		t.Fatalf("expected cleared branch to be root, got base %q", cleared.BaseBranchID)
	}
}

func TestTransitionTerminalStates(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	branch := createBranch(t, manager, "alt", domain.BranchTypeFeature, "")
	merged, err := manager.Transition(ctx, branch.ID, domain.BranchStateMerged)
	if err != nil {
		t.Fatalf("transition to merged: %v", err)
	}
	if merged.State != domain.BranchStateMerged {
		t.Fatalf("state = %v, want merged", merged.State)
	}

	_, err = manager.Transition(ctx, branch.ID, domain.BranchStateArchived)
	if !apperrors.IsCode(err, apperrors.CodeBranchInvalidStateTransition) {
		t.Fatalf("expected BRANCH_INVALID_STATE_TRANSITION, got %v", err)
	}
}

func TestResolveHeadEmptyBranch(t *testing.T) {
	manager := newTestManager(t)

	branch := createBranch(t, manager, "alt", domain.BranchTypeFeature, "")
	_, ok, err := manager.ResolveHead(context.Background(), branch.ID)
	if err != nil {
		t.Fatalf("resolve head: %v", err)
	}
	if ok {
		t.Fatal("expected no head on empty branch")
	}

	_, _, err = manager.ResolveHead(context.Background(), "missing")
	if !apperrors.IsCode(err, apperrors.CodeBranchNotFound) {
		t.Fatalf("expected BRANCH_NOT_FOUND, got %v", err)
	}
}

func TestGetByName(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	created := createBranch(t, manager, "alt", domain.BranchTypeFeature, "")
	got, err := manager.GetByName(ctx, "char-1", "alt")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("id = %q, want %q", got.ID, created.ID)
	}

	_, err = manager.GetByName(ctx, "char-1", "missing")
	if !apperrors.IsCode(err, apperrors.CodeBranchNotFound) {
		t.Fatalf("expected BRANCH_NOT_FOUND, got %v", err)
	}
}

func TestManagerClockOverride(t *testing.T) {
	fixedTime := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	manager := newTestManager(t).WithClock(func() time.Time { return fixedTime })

	branch := createBranch(t, manager, "alt", domain.BranchTypeFeature, "")
	if !branch.CreatedAt.Equal(fixedTime) {
		t.Fatalf("created_at = %v, want %v", branch.CreatedAt, fixedTime)
	}
}
