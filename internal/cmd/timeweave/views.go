package timeweave

import (
	"encoding/json"
	"time"

	"github.com/louisbranch/timeweave/internal/graph/domain"
)

// branchView is the JSON shape of a branch for CLI output.
type branchView struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	State           string    `json:"state"`
	BaseBranchID    string    `json:"base_branch_id,omitempty"`
	OwnerEntityID   string    `json:"owner_entity_id"`
	OwnerEntityType string    `json:"owner_entity_type,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toBranchView(branch domain.Branch) branchView {
	return branchView{
		ID:              branch.ID,
		Name:            branch.Name,
		Type:            domain.BranchTypeLabel(branch.Type),
		State:           domain.BranchStateLabel(branch.State),
		BaseBranchID:    branch.BaseBranchID,
		OwnerEntityID:   branch.OwnerEntityID,
		OwnerEntityType: branch.OwnerEntityType,
		CreatedAt:       branch.CreatedAt,
		UpdatedAt:       branch.UpdatedAt,
	}
}

func toBranchViews(branches []domain.Branch) []branchView {
	views := make([]branchView, 0, len(branches))
	for _, branch := range branches {
		views = append(views, toBranchView(branch))
	}
	return views
}

// commitView is the JSON shape of a commit for CLI output. The state blob
// is emitted verbatim when it is valid JSON and as a string otherwise.
type commitView struct {
	ID             string          `json:"id"`
	BranchID       string          `json:"branch_id"`
	ParentCommitID string          `json:"parent_commit_id,omitempty"`
	Seq            int64           `json:"seq"`
	Message        string          `json:"message,omitempty"`
	State          json.RawMessage `json:"state,omitempty"`
	Changes        []changeView    `json:"changes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CreatedBy      string          `json:"created_by,omitempty"`
}

type changeView struct {
	EntityID   string  `json:"entity_id"`
	EntityType string  `json:"entity_type,omitempty"`
	FieldName  string  `json:"field_name"`
	OldValue   *string `json:"old_value"`
	NewValue   *string `json:"new_value"`
	Position   int     `json:"position"`
}

func toCommitView(commit domain.Commit) commitView {
	view := commitView{
		ID:             commit.ID,
		BranchID:       commit.BranchID,
		ParentCommitID: commit.ParentCommitID,
		Seq:            commit.Seq,
		Message:        commit.Message,
		State:          rawOrQuoted(commit.State),
		CreatedAt:      commit.CreatedAt,
		CreatedBy:      commit.CreatedBy,
	}
	for _, change := range commit.Changes {
		view.Changes = append(view.Changes, changeView{
			EntityID:   change.EntityID,
			EntityType: change.EntityType,
			FieldName:  change.FieldName,
			OldValue:   bytesToStringPtr(change.OldValue),
			NewValue:   bytesToStringPtr(change.NewValue),
			Position:   change.Position,
		})
	}
	return view
}

func toCommitViews(commits []domain.Commit) []commitView {
	views := make([]commitView, 0, len(commits))
	for _, commit := range commits {
		views = append(views, toCommitView(commit))
	}
	return views
}

func rawOrQuoted(state []byte) json.RawMessage {
	if len(state) == 0 {
		return nil
	}
	if json.Valid(state) {
		return json.RawMessage(state)
	}
	quoted, err := json.Marshal(string(state))
	if err != nil {
		return nil
	}
	return json.RawMessage(quoted)
}

func bytesToStringPtr(value []byte) *string {
	if value == nil {
		return nil
	}
	s := string(value)
	return &s
}
