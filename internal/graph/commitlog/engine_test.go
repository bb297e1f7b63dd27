package commitlog

import (
	"bytes"
	"context"
	"testing"

	"github.com/louisbranch/timeweave/internal/graph/domain"
	"github.com/louisbranch/timeweave/internal/graph/storage"
	"github.com/louisbranch/timeweave/internal/graph/storage/sqlite"
	apperrors "github.com/louisbranch/timeweave/internal/platform/errors"
)

func newTestEngine(t *testing.T) (*Engine, storage.Store) {
	t.Helper()
	store, err := sqlite.Open(t.TempDir() + "/timeweave.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewEngine(store), store
}

func createTestBranch(t *testing.T, store storage.Store, id string) {
	t.Helper()
	branch, err := domain.CreateBranch(domain.CreateBranchInput{
		Name:            "main-" + id,
		Type:            domain.BranchTypeMain,
		OwnerEntityID:   "char-1",
		OwnerEntityType: "character",
	}, nil, func() (string, error) { return id, nil })
	if err != nil {
		t.Fatalf("build branch: %v", err)
	}
	if err := store.CreateBranch(context.Background(), branch); err != nil {
		t.Fatalf("create branch: %v", err)
	}
}

func TestCommitRootThenChild(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	createTestBranch(t, store, "branch-1")

	root, err := engine.Commit(ctx, domain.NewCommitInput{
		BranchID: "branch-1",
		Message:  "initial",
		State:    []byte(`{"level":1}`),
	})
	if err != nil {
		t.Fatalf("root commit: %v", err)
	}
	if !root.IsRoot() {
		t.Fatal("expected root commit")
	}

	child, err := engine.Commit(ctx, domain.NewCommitInput{
		BranchID:       "branch-1",
		ParentCommitID: root.ID,
		Message:        "level up",
		State:          []byte(`{"level":2}`),
		Changes: []domain.ChangeInput{
			{EntityID: "char-1", EntityType: "character", FieldName: "level", OldValue: []byte("1"), NewValue: []byte("2")},
		},
	})
	if err != nil {
		t.Fatalf("child commit: %v", err)
	}
	if child.ParentCommitID != root.ID {
		t.Fatalf("parent = %q, want %q", child.ParentCommitID, root.ID)
	}
	if child.Seq <= root.Seq {
		t.Fatalf("child seq %d not after root seq %d", child.Seq, root.Seq)
	}
}

func TestCommitParentNotFoundLeavesStoreUnchanged(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	createTestBranch(t, store, "branch-1")

	_, err := engine.Commit(ctx, domain.NewCommitInput{
		BranchID:       "branch-1",
		ParentCommitID: "missing",
		State:          []byte(`{}`),
	})
	if !apperrors.IsCode(err, apperrors.CodeCommitParentNotFound) {
		t.Fatalf("expected COMMIT_PARENT_NOT_FOUND, got %v", err)
	}

	count, err := store.CountCommitsByBranch(ctx, "branch-1")
	if err != nil {
		t.Fatalf("count commits: %v", err)
	}
	if count != 0 {
		t.Fatalf("commit count = %d, want 0", count)
	}
}

func TestCommitSecondRootRejected(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	createTestBranch(t, store, "branch-1")

	if _, err := engine.Commit(ctx, domain.NewCommitInput{
		BranchID: "branch-1",
		State:    []byte(`{}`),
	}); err != nil {
		t.Fatalf("root commit: %v", err)
	}

	_, err := engine.Commit(ctx, domain.NewCommitInput{
		BranchID: "branch-1",
		State:    []byte(`{}`),
	})
	if !apperrors.IsCode(err, apperrors.CodeCommitRootExists) {
		t.Fatalf("expected COMMIT_ROOT_EXISTS, got %v", err)
	}
}

func TestCommitUnknownBranch(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Commit(context.Background(), domain.NewCommitInput{
		BranchID: "missing",
		State:    []byte(`{}`),
	})
	if !apperrors.IsCode(err, apperrors.CodeBranchNotFound) {
		t.Fatalf("expected BRANCH_NOT_FOUND, got %v", err)
	}
}

func TestRevertRoundTrip(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	createTestBranch(t, store, "branch-1")

	root, err := engine.Commit(ctx, domain.NewCommitInput{
		BranchID: "branch-1",
		Message:  "initial",
		State:    []byte(`{"level":1}`),
	})
	if err != nil {
		t.Fatalf("root commit: %v", err)
	}

	target, err := engine.Commit(ctx, domain.NewCommitInput{
		BranchID:       "branch-1",
		ParentCommitID: root.ID,
		Message:        "level up",
		State:          []byte(`{"level":2}`),
		Changes: []domain.ChangeInput{
			{EntityID: "char-1", EntityType: "character", FieldName: "level", OldValue: []byte("1"), NewValue: []byte("2")},
			{EntityID: "char-1", EntityType: "character", FieldName: "title", NewValue: []byte(`"Knight"`)},
		},
	})
	if err != nil {
		t.Fatalf("target commit: %v", err)
	}

	revert, err := engine.Revert(ctx, target.ID, "user-1")
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if revert.ParentCommitID != target.ID {
		t.Fatalf("revert parent = %q, want branch head %q", revert.ParentCommitID, target.ID)
	}
	if !bytes.Equal(revert.State, root.State) {
		t.Fatalf("revert state = %s, want parent state %s", revert.State, root.State)
	}
	if len(revert.Changes) != 2 {
		t.Fatalf("revert changes len = %d, want 2", len(revert.Changes))
	}
	first := revert.Changes[0]
	if !bytes.Equal(first.OldValue, []byte("2")) || !bytes.Equal(first.NewValue, []byte("1")) {
		t.Fatalf("expected swapped values, got old=%s new=%s", first.OldValue, first.NewValue)
	}
	second := revert.Changes[1]
	if second.OldValue == nil || second.NewValue != nil {
		t.Fatalf("expected field creation swapped to removal, got old=%v new=%v", second.OldValue, second.NewValue)
	}

	// The original commit is untouched; history only grows.
	unchanged, err := engine.Get(ctx, target.ID)
	if err != nil {
		t.Fatalf("get target: %v", err)
	}
	if !bytes.Equal(unchanged.State, target.State) {
		t.Fatal("expected target commit to remain immutable")
	}
	commits, err := engine.List(ctx, "branch-1", 10, 0)
	if err != nil {
		t.Fatalf("list commits: %v", err)
	}
	if len(commits) != 3 {
		t.Fatalf("commit count = %d, want 3", len(commits))
	}
}

func TestRevertRootRejected(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	createTestBranch(t, store, "branch-1")

	root, err := engine.Commit(ctx, domain.NewCommitInput{
		BranchID: "branch-1",
		State:    []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("root commit: %v", err)
	}

	_, err = engine.Revert(ctx, root.ID, "user-1")
	if !apperrors.IsCode(err, apperrors.CodeCommitRevertRoot) {
		t.Fatalf("expected COMMIT_REVERT_ROOT, got %v", err)
	}
}

func TestRevertUnknownCommit(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Revert(context.Background(), "missing", "user-1")
	if !apperrors.IsCode(err, apperrors.CodeCommitNotFound) {
		t.Fatalf("expected COMMIT_NOT_FOUND, got %v", err)
	}
}

func TestAnnotateMetadata(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	createTestBranch(t, store, "branch-1")

	commit, err := engine.Commit(ctx, domain.NewCommitInput{
		BranchID: "branch-1",
		State:    []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := engine.AnnotateMetadata(ctx, domain.VersionMetadata{
		CommitID:  commit.ID,
		Level:     5,
		Milestone: true,
	}); err != nil {
		t.Fatalf("annotate metadata: %v", err)
	}

	got, err := store.GetVersionMetadata(ctx, commit.ID)
	if err != nil {
		t.Fatalf("get version metadata: %v", err)
	}
	if got.Level != 5 || !got.Milestone {
		t.Fatalf("unexpected metadata: %+v", got)
	}

	err = engine.AnnotateMetadata(ctx, domain.VersionMetadata{CommitID: "missing"})
	if !apperrors.IsCode(err, apperrors.CodeCommitNotFound) {
		t.Fatalf("expected COMMIT_NOT_FOUND, got %v", err)
	}
}
