package timeweave

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func runCommand(t *testing.T, cfg *Config, args ...string) string {
	t.Helper()
	root := NewRootCommand(cfg)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("run %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestBranchCommitHeadFlow(t *testing.T) {
	cfg := &Config{DBPath: filepath.Join(t.TempDir(), "timeweave.db")}

	created := runCommand(t, cfg, "branch", "create", "char-1", "main", "--type", "MAIN", "--entity-type", "character")
	var branch struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}
	if err := json.Unmarshal([]byte(created), &branch); err != nil {
		t.Fatalf("decode branch: %v\n%s", err, created)
	}
	if branch.State != "ACTIVE" {
		t.Fatalf("state = %q, want ACTIVE", branch.State)
	}

	specPath := filepath.Join(t.TempDir(), "commit.yaml")
	spec := `branch_id: ` + branch.ID + `
message: initial snapshot
created_by: user-1
state:
  level: 1
changes:
  - entity_id: char-1
    entity_type: character
    field_name: level
    new_value: "1"
`
	if err := os.WriteFile(specPath, []byte(spec), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}

	committed := runCommand(t, cfg, "commit", specPath)
	var commit struct {
		ID    string          `json:"id"`
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal([]byte(committed), &commit); err != nil {
		t.Fatalf("decode commit: %v\n%s", err, committed)
	}
	if commit.ID == "" {
		t.Fatal("expected commit id")
	}
	var state struct {
		Level int `json:"level"`
	}
	if err := json.Unmarshal(commit.State, &state); err != nil {
		t.Fatalf("decode state: %v\n%s", err, commit.State)
	}
	if state.Level != 1 {
		t.Fatalf("state level = %d, want 1", state.Level)
	}

	head := runCommand(t, cfg, "head", branch.ID)
	var headCommit struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(head), &headCommit); err != nil {
		t.Fatalf("decode head: %v\n%s", err, head)
	}
	if headCommit.ID != commit.ID {
		t.Fatalf("head = %q, want %q", headCommit.ID, commit.ID)
	}
}

func TestHeadOnEmptyBranchPrintsNull(t *testing.T) {
	cfg := &Config{DBPath: filepath.Join(t.TempDir(), "timeweave.db")}

	created := runCommand(t, cfg, "branch", "create", "char-1", "main", "--type", "MAIN")
	var branch struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(created), &branch); err != nil {
		t.Fatalf("decode branch: %v", err)
	}

	out := runCommand(t, cfg, "head", branch.ID)
	if out != "null\n" {
		t.Fatalf("head output = %q, want null", out)
	}
}

func TestLineageAndIsAncestorCommands(t *testing.T) {
	cfg := &Config{DBPath: filepath.Join(t.TempDir(), "timeweave.db")}

	created := runCommand(t, cfg, "branch", "create", "char-1", "main", "--type", "MAIN")
	var branch struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(created), &branch); err != nil {
		t.Fatalf("decode branch: %v", err)
	}

	dir := t.TempDir()
	writeSpec := func(name, body string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	rootOut := runCommand(t, cfg, "commit", writeSpec("root.yaml", `branch_id: `+branch.ID+`
state: '{"level":1}'
`))
	var rootCommit struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(rootOut), &rootCommit); err != nil {
		t.Fatalf("decode root commit: %v", err)
	}

	childOut := runCommand(t, cfg, "commit", writeSpec("child.yaml", `branch_id: `+branch.ID+`
parent_commit_id: `+rootCommit.ID+`
state: '{"level":2}'
`))
	var childCommit struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(childOut), &childCommit); err != nil {
		t.Fatalf("decode child commit: %v", err)
	}

	lineage := runCommand(t, cfg, "lineage", childCommit.ID)
	var chain []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(lineage), &chain); err != nil {
		t.Fatalf("decode lineage: %v\n%s", err, lineage)
	}
	if len(chain) != 2 || chain[0].ID != childCommit.ID || chain[1].ID != rootCommit.ID {
		t.Fatalf("unexpected lineage: %+v", chain)
	}

	ancestry := runCommand(t, cfg, "is-ancestor", rootCommit.ID, childCommit.ID)
	var verdict struct {
		IsAncestor bool `json:"is_ancestor"`
	}
	if err := json.Unmarshal([]byte(ancestry), &verdict); err != nil {
		t.Fatalf("decode verdict: %v", err)
	}
	if !verdict.IsAncestor {
		t.Fatal("expected root to be ancestor of child")
	}
}

func TestCommitSpecStateForms(t *testing.T) {
	spec := commitSpec{
		BranchID: "branch-1",
		State:    "{\"level\":1}",
	}
	input, err := spec.toInput()
	if err != nil {
		t.Fatalf("to input: %v", err)
	}
	if string(input.State) != `{"level":1}` {
		t.Fatalf("string state = %s", input.State)
	}

	spec.State = map[string]any{"level": 2}
	input, err = spec.toInput()
	if err != nil {
		t.Fatalf("to input: %v", err)
	}
	if string(input.State) != `{"level":2}` {
		t.Fatalf("structured state = %s", input.State)
	}

	oldValue := "1"
	spec.Changes = []changeSpec{{EntityID: "char-1", FieldName: "level", OldValue: &oldValue}}
	input, err = spec.toInput()
	if err != nil {
		t.Fatalf("to input: %v", err)
	}
	if string(input.Changes[0].OldValue) != "1" {
		t.Fatalf("old value = %v", input.Changes[0].OldValue)
	}
	if input.Changes[0].NewValue != nil {
		t.Fatalf("expected nil new value, got %v", input.Changes[0].NewValue)
	}
}
