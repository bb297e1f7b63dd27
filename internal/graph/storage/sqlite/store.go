// Package sqlite provides a SQLite-backed version-graph storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/timeweave/internal/graph/domain"
	"github.com/louisbranch/timeweave/internal/graph/storage"
	"github.com/louisbranch/timeweave/internal/graph/storage/sqlite/migrations"
	sqlitemigrate "github.com/louisbranch/timeweave/internal/platform/storage/sqlitemigrate"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists version-graph state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func toNullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func fromNullString(value sql.NullString) string {
	if !value.Valid {
		return ""
	}
	return value.String
}

// Open opens a SQLite version-graph store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateBranch inserts one branch record.
func (s *Store) CreateBranch(ctx context.Context, branch domain.Branch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(branch.ID) == "" {
		return fmt.Errorf("branch id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO branches (id, name, branch_type, state, base_branch_id,
		                       owner_entity_id, owner_entity_type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		branch.ID,
		branch.Name,
		domain.BranchTypeLabel(branch.Type),
		domain.BranchStateLabel(branch.State),
		toNullString(branch.BaseBranchID),
		branch.OwnerEntityID,
		branch.OwnerEntityType,
		toMillis(branch.CreatedAt),
		toMillis(branch.UpdatedAt),
	)
	if err != nil {
		if isBranchNameUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create branch: %w", err)
	}
	return nil
}

// GetBranch returns one branch by ID.
func (s *Store) GetBranch(ctx context.Context, branchID string) (domain.Branch, error) {
	if err := ctx.Err(); err != nil {
		return domain.Branch{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Branch{}, fmt.Errorf("storage is not configured")
	}
	branchID = strings.TrimSpace(branchID)
	if branchID == "" {
		return domain.Branch{}, fmt.Errorf("branch id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, branch_type, state, base_branch_id,
		        owner_entity_id, owner_entity_type, created_at, updated_at
		   FROM branches
		  WHERE id = ?`,
		branchID,
	)
	return scanBranch(row)
}

// GetBranchByName returns one branch by owner entity and name.
func (s *Store) GetBranchByName(ctx context.Context, ownerEntityID string, name string) (domain.Branch, error) {
	if err := ctx.Err(); err != nil {
		return domain.Branch{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Branch{}, fmt.Errorf("storage is not configured")
	}
	ownerEntityID = strings.TrimSpace(ownerEntityID)
	name = strings.TrimSpace(name)
	if ownerEntityID == "" {
		return domain.Branch{}, fmt.Errorf("owner entity id is required")
	}
	if name == "" {
		return domain.Branch{}, fmt.Errorf("branch name is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, branch_type, state, base_branch_id,
		        owner_entity_id, owner_entity_type, created_at, updated_at
		   FROM branches
		  WHERE owner_entity_id = ? AND name = ?`,
		ownerEntityID,
		name,
	)
	return scanBranch(row)
}

// UpdateBranch rewrites the mutable columns of one branch record.
func (s *Store) UpdateBranch(ctx context.Context, branch domain.Branch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(branch.ID) == "" {
		return fmt.Errorf("branch id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE branches
		    SET name = ?, branch_type = ?, state = ?, base_branch_id = ?, updated_at = ?
		  WHERE id = ?`,
		branch.Name,
		domain.BranchTypeLabel(branch.Type),
		domain.BranchStateLabel(branch.State),
		toNullString(branch.BaseBranchID),
		toMillis(branch.UpdatedAt),
		branch.ID,
	)
	if err != nil {
		if isBranchNameUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("update branch: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update branch: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListBranchesByOwner returns all branches for one owner entity in creation order.
func (s *Store) ListBranchesByOwner(ctx context.Context, ownerEntityID string) ([]domain.Branch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	ownerEntityID = strings.TrimSpace(ownerEntityID)
	if ownerEntityID == "" {
		return nil, fmt.Errorf("owner entity id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, name, branch_type, state, base_branch_id,
		        owner_entity_id, owner_entity_type, created_at, updated_at
		   FROM branches
		  WHERE owner_entity_id = ?
		  ORDER BY created_at ASC, id ASC`,
		ownerEntityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	var branches []domain.Branch
	for rows.Next() {
		branch, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("list branches: %w", err)
		}
		branches = append(branches, branch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return branches, nil
}

// CreateCommit inserts one commit with its changes and optional metadata in
// a single transaction. The returned commit carries the assigned sequence.
func (s *Store) CreateCommit(ctx context.Context, commit domain.Commit, metadata *domain.VersionMetadata) (domain.Commit, error) {
	if err := ctx.Err(); err != nil {
		return domain.Commit{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Commit{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(commit.ID) == "" {
		return domain.Commit{}, fmt.Errorf("commit id is required")
	}
	if strings.TrimSpace(commit.BranchID) == "" {
		return domain.Commit{}, fmt.Errorf("branch id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Commit{}, fmt.Errorf("begin commit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM branches WHERE id = ?`, commit.BranchID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Commit{}, storage.ErrNotFound
		}
		return domain.Commit{}, fmt.Errorf("resolve branch: %w", err)
	}

	result, err := tx.ExecContext(
		ctx,
		`INSERT INTO commits (id, branch_id, parent_commit_id, message, state, created_at, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		commit.ID,
		commit.BranchID,
		toNullString(commit.ParentCommitID),
		commit.Message,
		commit.State,
		toMillis(commit.CreatedAt),
		commit.CreatedBy,
	)
	if err != nil {
		if isRootCommitUniqueViolation(err) {
			return domain.Commit{}, storage.ErrRootCommitExists
		}
		return domain.Commit{}, fmt.Errorf("create commit: %w", err)
	}
	seq, err := result.LastInsertId()
	if err != nil {
		return domain.Commit{}, fmt.Errorf("commit sequence: %w", err)
	}

	for _, change := range commit.Changes {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO changes (id, commit_id, entity_id, entity_type, field_name, old_value, new_value, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			change.ID,
			change.CommitID,
			change.EntityID,
			change.EntityType,
			change.FieldName,
			change.OldValue,
			change.NewValue,
			change.Position,
		); err != nil {
			return domain.Commit{}, fmt.Errorf("create change %s: %w", change.FieldName, err)
		}
	}

	if metadata != nil {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO version_metadata (commit_id, level, theme_id, campaign_id, milestone)
			 VALUES (?, ?, ?, ?, ?)`,
			commit.ID,
			metadata.Level,
			metadata.ThemeID,
			metadata.CampaignID,
			boolToInt(metadata.Milestone),
		); err != nil {
			return domain.Commit{}, fmt.Errorf("create version metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Commit{}, fmt.Errorf("commit transaction: %w", err)
	}
	commit.Seq = seq
	return commit, nil
}

// GetCommit returns one commit with its changes attached.
func (s *Store) GetCommit(ctx context.Context, commitID string) (domain.Commit, error) {
	if err := ctx.Err(); err != nil {
		return domain.Commit{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Commit{}, fmt.Errorf("storage is not configured")
	}
	commitID = strings.TrimSpace(commitID)
	if commitID == "" {
		return domain.Commit{}, fmt.Errorf("commit id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT seq, id, branch_id, parent_commit_id, message, state, created_at, created_by
		   FROM commits
		  WHERE id = ?`,
		commitID,
	)
	commit, err := scanCommit(row)
	if err != nil {
		return domain.Commit{}, err
	}
	changes, err := s.ListChangesByCommit(ctx, commitID)
	if err != nil {
		return domain.Commit{}, err
	}
	commit.Changes = changes
	return commit, nil
}

// ListCommitsByBranch returns commits for one branch in creation order.
// Change rows are not attached; use GetCommit for the full record.
func (s *Store) ListCommitsByBranch(ctx context.Context, branchID string, limit, offset int) ([]domain.Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	branchID = strings.TrimSpace(branchID)
	if branchID == "" {
		return nil, fmt.Errorf("branch id is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must not be negative")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT seq, id, branch_id, parent_commit_id, message, state, created_at, created_by
		   FROM commits
		  WHERE branch_id = ?
		  ORDER BY seq ASC
		  LIMIT ? OFFSET ?`,
		branchID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	defer rows.Close()

	var commits []domain.Commit
	for rows.Next() {
		commit, err := scanCommit(rows)
		if err != nil {
			return nil, fmt.Errorf("list commits: %w", err)
		}
		commits = append(commits, commit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	return commits, nil
}

// ListChangesByCommit returns the changes for one commit in position order.
func (s *Store) ListChangesByCommit(ctx context.Context, commitID string) ([]domain.Change, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	commitID = strings.TrimSpace(commitID)
	if commitID == "" {
		return nil, fmt.Errorf("commit id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, commit_id, entity_id, entity_type, field_name, old_value, new_value, position
		   FROM changes
		  WHERE commit_id = ?
		  ORDER BY position ASC`,
		commitID,
	)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	var changes []domain.Change
	for rows.Next() {
		var change domain.Change
		if err := rows.Scan(
			&change.ID,
			&change.CommitID,
			&change.EntityID,
			&change.EntityType,
			&change.FieldName,
			&change.OldValue,
			&change.NewValue,
			&change.Position,
		); err != nil {
			return nil, fmt.Errorf("list changes: %w", err)
		}
		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	return changes, nil
}

// LatestCommitByBranch returns the most recently created commit on a branch.
func (s *Store) LatestCommitByBranch(ctx context.Context, branchID string) (domain.Commit, error) {
	if err := ctx.Err(); err != nil {
		return domain.Commit{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Commit{}, fmt.Errorf("storage is not configured")
	}
	branchID = strings.TrimSpace(branchID)
	if branchID == "" {
		return domain.Commit{}, fmt.Errorf("branch id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT seq, id, branch_id, parent_commit_id, message, state, created_at, created_by
		   FROM commits
		  WHERE branch_id = ?
		  ORDER BY seq DESC
		  LIMIT 1`,
		branchID,
	)
	commit, err := scanCommit(row)
	if err != nil {
		return domain.Commit{}, err
	}
	changes, err := s.ListChangesByCommit(ctx, commit.ID)
	if err != nil {
		return domain.Commit{}, err
	}
	commit.Changes = changes
	return commit, nil
}

// CountCommitsByBranch returns the number of commits on a branch.
func (s *Store) CountCommitsByBranch(ctx context.Context, branchID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	branchID = strings.TrimSpace(branchID)
	if branchID == "" {
		return 0, fmt.Errorf("branch id is required")
	}

	var count int
	row := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM commits WHERE branch_id = ?`, branchID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count commits: %w", err)
	}
	return count, nil
}

// PutVersionMetadata upserts the denormalized index row for one commit.
func (s *Store) PutVersionMetadata(ctx context.Context, metadata domain.VersionMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(metadata.CommitID) == "" {
		return fmt.Errorf("commit id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO version_metadata (commit_id, level, theme_id, campaign_id, milestone)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(commit_id) DO UPDATE SET
		   level = excluded.level,
		   theme_id = excluded.theme_id,
		   campaign_id = excluded.campaign_id,
		   milestone = excluded.milestone`,
		metadata.CommitID,
		metadata.Level,
		metadata.ThemeID,
		metadata.CampaignID,
		boolToInt(metadata.Milestone),
	)
	if err != nil {
		return fmt.Errorf("put version metadata: %w", err)
	}
	return nil
}

// GetVersionMetadata returns the denormalized index row for one commit.
func (s *Store) GetVersionMetadata(ctx context.Context, commitID string) (domain.VersionMetadata, error) {
	if err := ctx.Err(); err != nil {
		return domain.VersionMetadata{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.VersionMetadata{}, fmt.Errorf("storage is not configured")
	}
	commitID = strings.TrimSpace(commitID)
	if commitID == "" {
		return domain.VersionMetadata{}, fmt.Errorf("commit id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT commit_id, level, theme_id, campaign_id, milestone
		   FROM version_metadata
		  WHERE commit_id = ?`,
		commitID,
	)
	var metadata domain.VersionMetadata
	var milestone int
	if err := row.Scan(
		&metadata.CommitID,
		&metadata.Level,
		&metadata.ThemeID,
		&metadata.CampaignID,
		&milestone,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.VersionMetadata{}, storage.ErrNotFound
		}
		return domain.VersionMetadata{}, fmt.Errorf("get version metadata: %w", err)
	}
	metadata.Milestone = milestone != 0
	return metadata, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBranch(row rowScanner) (domain.Branch, error) {
	var (
		branch    domain.Branch
		typeLabel string
		state     string
		base      sql.NullString
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(
		&branch.ID,
		&branch.Name,
		&typeLabel,
		&state,
		&base,
		&branch.OwnerEntityID,
		&branch.OwnerEntityType,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Branch{}, storage.ErrNotFound
		}
		return domain.Branch{}, fmt.Errorf("get branch: %w", err)
	}
	branchType, err := domain.BranchTypeFromLabel(typeLabel)
	if err != nil {
		return domain.Branch{}, fmt.Errorf("get branch: %w", err)
	}
	branchState, err := domain.BranchStateFromLabel(state)
	if err != nil {
		return domain.Branch{}, fmt.Errorf("get branch: %w", err)
	}
	branch.Type = branchType
	branch.State = branchState
	branch.BaseBranchID = fromNullString(base)
	branch.CreatedAt = fromMillis(createdAt)
	branch.UpdatedAt = fromMillis(updatedAt)
	return branch, nil
}

func scanCommit(row rowScanner) (domain.Commit, error) {
	var (
		commit    domain.Commit
		parent    sql.NullString
		createdAt int64
	)
	err := row.Scan(
		&commit.Seq,
		&commit.ID,
		&commit.BranchID,
		&parent,
		&commit.Message,
		&commit.State,
		&createdAt,
		&commit.CreatedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Commit{}, storage.ErrNotFound
		}
		return domain.Commit{}, fmt.Errorf("get commit: %w", err)
	}
	commit.ParentCommitID = fromNullString(parent)
	commit.CreatedAt = fromMillis(createdAt)
	return commit, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func isBranchNameUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if !isUniqueConstraint(err) {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "branches.owner_entity_id") ||
		strings.Contains(message, "branches.name")
}

func isRootCommitUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if !isUniqueConstraint(err) {
		return false
	}
	// Partial index violations report the index name rather than columns.
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "idx_commits_branch_root") ||
		strings.Contains(message, "commits.branch_id")
}

func isUniqueConstraint(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
