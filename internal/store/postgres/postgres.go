// Package postgres is the primary store.Store adapter: a pgx connection
// pool with sqlx for struct scanning, modeled on
// rohankatakam-coderisk's internal/database postgres client
// (pool-with-health-check construction, fmt.Errorf wrapping throughout).
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/smartshark/inducingSHARK/internal/store"
	"github.com/smartshark/inducingSHARK/internal/szz/versiondate"
)

// Store is a pgx/sqlx-backed store.Store implementation. Commit/FileAction/
// Hunk/Issue map to tables of the same (lowercased, underscored) name; the
// FileAction.induces column is JSONB.
type Store struct {
	pool   *pgxpool.Pool
	db     *sqlx.DB
	logger *logrus.Logger
}

// Config holds connection parameters. Never log Password.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// New creates a Store, verifying connectivity before returning (fail fast
// on startup, matching the pool-then-ping pattern this is grounded on).
func New(ctx context.Context, cfg Config, logger *logrus.Logger) (*Store, error) {
	if cfg.Host == "" || cfg.Database == "" || cfg.User == "" {
		return nil, fmt.Errorf("postgres: missing connection parameters: host=%q db=%q user=%q", cfg.Host, cfg.Database, cfg.User)
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, sslMode,
	)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to connect to %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	db := sqlx.NewDb(stdlib.OpenDB(*pool.Config().ConnConfig), "pgx")

	logger.WithFields(logrus.Fields{"host": cfg.Host, "port": cfg.Port, "database": cfg.Database}).Info("postgres store connected")

	return &Store{pool: pool, db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, name string) (store.Project, error) {
	var p store.Project
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM project WHERE name = $1`, name).Scan(&p.ID, &p.Name)
	if err != nil {
		return store.Project{}, fmt.Errorf("postgres: get project %q: %w", name, err)
	}
	return p, nil
}

func (s *Store) GetVCSSystem(ctx context.Context, projectID, url string) (store.VCSSystem, error) {
	var v store.VCSSystem
	var err error
	if url != "" {
		err = s.pool.QueryRow(ctx,
			`SELECT id, project_id, url FROM vcs_system WHERE project_id = $1 AND url = $2`,
			projectID, url).Scan(&v.ID, &v.ProjectID, &v.URL)
	} else {
		err = s.pool.QueryRow(ctx,
			`SELECT id, project_id, url FROM vcs_system WHERE project_id = $1 LIMIT 1`,
			projectID).Scan(&v.ID, &v.ProjectID, &v.URL)
	}
	if err != nil {
		return store.VCSSystem{}, fmt.Errorf("postgres: get vcs_system for project %s: %w", projectID, err)
	}
	return v, nil
}

func (s *Store) GetIssueSystem(ctx context.Context, projectID string) (store.IssueSystem, error) {
	var is store.IssueSystem
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, url FROM issue_system WHERE project_id = $1 LIMIT 1`,
		projectID).Scan(&is.ID, &is.ProjectID, &is.URL)
	if err != nil {
		return store.IssueSystem{}, fmt.Errorf("postgres: get issue_system for project %s: %w", projectID, err)
	}
	return is, nil
}

func (s *Store) ListBugfixCommitIDs(ctx context.Context, filter store.CommitFilter) ([]string, error) {
	if err := versiondate.ValidateLabel(filter.Label); err != nil {
		return nil, fmt.Errorf("postgres: list bugfix commit ids: %w", err)
	}

	const query = `
		SELECT id FROM commit
		WHERE vcs_system_id = $1
		AND (labels->>$2)::boolean IS TRUE
		AND COALESCE(array_length(parent_hashes, 1), 0) <= 1`

	rows, err := s.pool.Query(ctx, query, filter.VCSSystemID, filter.Label)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bugfix commit ids (label=%s): %w", filter.Label, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan commit id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) GetCommit(ctx context.Context, id string) (store.Commit, error) {
	return s.scanCommit(ctx, `SELECT id, vcs_system_id, revision_hash, parent_hashes, author_date, committer_date, message, labels, fixed_issue_ids, szz_issue_ids, linked_issue_ids FROM commit WHERE id = $1`, id)
}

func (s *Store) GetCommitByRevision(ctx context.Context, vcsSystemID, revisionHash string) (store.Commit, error) {
	return s.scanCommit(ctx, `SELECT id, vcs_system_id, revision_hash, parent_hashes, author_date, committer_date, message, labels, fixed_issue_ids, szz_issue_ids, linked_issue_ids FROM commit WHERE vcs_system_id = $1 AND revision_hash = $2`, vcsSystemID, revisionHash)
}

func (s *Store) scanCommit(ctx context.Context, query string, args ...any) (store.Commit, error) {
	var c store.Commit
	var labelsJSON []byte
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.VCSSystemID, &c.RevisionHash, &c.ParentHashes,
		&c.AuthorDate, &c.CommitterDate, &c.Message, &labelsJSON,
		&c.FixedIssueIDs, &c.SZZIssueIDs, &c.LinkedIssueIDs,
	)
	if err != nil {
		return store.Commit{}, fmt.Errorf("postgres: get commit: %w", err)
	}
	if len(labelsJSON) > 0 {
		if err := json.Unmarshal(labelsJSON, &c.Labels); err != nil {
			return store.Commit{}, fmt.Errorf("postgres: unmarshal commit labels: %w", err)
		}
	}
	return c, nil
}

func (s *Store) ListFileActions(ctx context.Context, commitID string) ([]store.FileAction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, commit_id, file_id, mode, old_file_path, size_at_commit, lines_added, lines_deleted, induces
		 FROM file_action WHERE commit_id = $1`, commitID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list file actions for commit %s: %w", commitID, err)
	}
	defer rows.Close()

	var out []store.FileAction
	for rows.Next() {
		fa, err := scanFileAction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fa)
	}
	return out, rows.Err()
}

func (s *Store) GetFileAction(ctx context.Context, id string) (store.FileAction, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, commit_id, file_id, mode, old_file_path, size_at_commit, lines_added, lines_deleted, induces
		 FROM file_action WHERE id = $1`, id)
	return scanFileAction(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFileAction(row rowScanner) (store.FileAction, error) {
	var fa store.FileAction
	var inducesJSON []byte
	err := row.Scan(&fa.ID, &fa.CommitID, &fa.FileID, &fa.Mode, &fa.OldFilePath,
		&fa.SizeAtCommit, &fa.LinesAdded, &fa.LinesDeleted, &inducesJSON)
	if err != nil {
		return store.FileAction{}, fmt.Errorf("postgres: scan file_action: %w", err)
	}
	if len(inducesJSON) > 0 {
		if err := json.Unmarshal(inducesJSON, &fa.Induces); err != nil {
			return store.FileAction{}, fmt.Errorf("postgres: unmarshal induces: %w", err)
		}
	}
	return fa, nil
}

func (s *Store) GetFile(ctx context.Context, id string) (store.File, error) {
	var f store.File
	err := s.pool.QueryRow(ctx, `SELECT id, vcs_system_id, path FROM file WHERE id = $1`, id).
		Scan(&f.ID, &f.VCSSystemID, &f.Path)
	if err != nil {
		return store.File{}, fmt.Errorf("postgres: get file %s: %w", id, err)
	}
	return f, nil
}

func (s *Store) ListHunks(ctx context.Context, fileActionID string) ([]store.Hunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, file_action_id, old_start, new_start, old_lines, new_lines, content, lines_verified
		 FROM hunk WHERE file_action_id = $1 ORDER BY old_start`, fileActionID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list hunks for file_action %s: %w", fileActionID, err)
	}
	defer rows.Close()

	var out []store.Hunk
	for rows.Next() {
		var h store.Hunk
		var verifiedJSON []byte
		if err := rows.Scan(&h.ID, &h.FileActionID, &h.OldStart, &h.NewStart, &h.OldLines, &h.NewLines, &h.Content, &verifiedJSON); err != nil {
			return nil, fmt.Errorf("postgres: scan hunk: %w", err)
		}
		if len(verifiedJSON) > 0 {
			if err := json.Unmarshal(verifiedJSON, &h.LinesVerified); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal hunk.lines_verified: %w", err)
			}
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) ListRefactorings(ctx context.Context, commitID, detectionTool string) ([]store.Refactoring, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, commit_id, detection_tool, hunks FROM refactoring WHERE commit_id = $1 AND detection_tool = $2`,
		commitID, detectionTool)
	if err != nil {
		return nil, fmt.Errorf("postgres: list refactorings for commit %s: %w", commitID, err)
	}
	defer rows.Close()

	var out []store.Refactoring
	for rows.Next() {
		var r store.Refactoring
		var hunksJSON []byte
		if err := rows.Scan(&r.ID, &r.CommitID, &r.DetectionTool, &hunksJSON); err != nil {
			return nil, fmt.Errorf("postgres: scan refactoring: %w", err)
		}
		if len(hunksJSON) > 0 {
			if err := json.Unmarshal(hunksJSON, &r.Hunks); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal refactoring.hunks: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetIssue(ctx context.Context, id string) (store.Issue, error) {
	var i store.Issue
	err := s.pool.QueryRow(ctx,
		`SELECT id, issue_system_id, external_id, created_at, issue_type, issue_type_verified, status, resolution, affects_versions
		 FROM issue WHERE id = $1`, id).
		Scan(&i.ID, &i.IssueSystemID, &i.ExternalID, &i.CreatedAt, &i.IssueType, &i.IssueTypeVerified, &i.Status, &i.Resolution, &i.AffectsVersions)
	if err != nil {
		return store.Issue{}, fmt.Errorf("postgres: get issue %s: %w", id, err)
	}
	return i, nil
}

// ListIssues and ListTags use sqlx's StructScan directly against the
// db-tagged store types, rather than hand-rolled pgx row scanning, since
// both rows shapes map 1:1 onto a struct with no JSONB unmarshal step.
func (s *Store) ListIssues(ctx context.Context, issueSystemID string) ([]store.Issue, error) {
	var out []store.Issue
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, issue_system_id, external_id, created_at, issue_type, issue_type_verified, status, resolution, affects_versions
		FROM issue WHERE issue_system_id = $1`, issueSystemID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list issues for issue_system %s: %w", issueSystemID, err)
	}
	return out, nil
}

func (s *Store) ListTags(ctx context.Context, vcsSystemID string) ([]store.Tag, error) {
	var out []store.Tag
	err := s.db.SelectContext(ctx, &out,
		`SELECT name, revision, corrected_revision, version, qualifier, original FROM tag WHERE vcs_system_id = $1`,
		vcsSystemID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tags for vcs_system %s: %w", vcsSystemID, err)
	}
	return out, nil
}

func (s *Store) EnsureProject(ctx context.Context, name string) (store.Project, error) {
	p := store.Project{ID: store.DeriveID("project", name), Name: name}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO project (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`, p.ID, p.Name)
	if err != nil {
		return store.Project{}, fmt.Errorf("postgres: ensure project %q: %w", name, err)
	}
	return p, nil
}

func (s *Store) EnsureVCSSystem(ctx context.Context, projectID, url string) (store.VCSSystem, error) {
	v := store.VCSSystem{ID: store.DeriveID("vcs_system", projectID, url), ProjectID: projectID, URL: url}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vcs_system (id, project_id, url) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`, v.ID, v.ProjectID, v.URL)
	if err != nil {
		return store.VCSSystem{}, fmt.Errorf("postgres: ensure vcs_system for project %s: %w", projectID, err)
	}
	return v, nil
}

func (s *Store) EnsureIssueSystem(ctx context.Context, projectID, url string) (store.IssueSystem, error) {
	if err := store.ValidateJIRAURL(url); err != nil {
		return store.IssueSystem{}, err
	}
	is := store.IssueSystem{ID: store.DeriveID("issue_system", projectID, url), ProjectID: projectID, URL: url}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO issue_system (id, project_id, url) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`, is.ID, is.ProjectID, is.URL)
	if err != nil {
		return store.IssueSystem{}, fmt.Errorf("postgres: ensure issue_system for project %s: %w", projectID, err)
	}
	return is, nil
}

func (s *Store) EnsureFile(ctx context.Context, vcsSystemID, path string) (store.File, error) {
	f := store.File{ID: store.DeriveID("file", vcsSystemID, path), VCSSystemID: vcsSystemID, Path: path}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO file (id, vcs_system_id, path) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`, f.ID, f.VCSSystemID, f.Path)
	if err != nil {
		return store.File{}, fmt.Errorf("postgres: ensure file %s: %w", path, err)
	}
	return f, nil
}

func (s *Store) PutCommit(ctx context.Context, c store.Commit) error {
	labelsJSON, err := json.Marshal(c.Labels)
	if err != nil {
		return fmt.Errorf("postgres: marshal commit labels: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO commit (id, vcs_system_id, revision_hash, parent_hashes, author_date, committer_date, message, labels, fixed_issue_ids, szz_issue_ids, linked_issue_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			parent_hashes = EXCLUDED.parent_hashes, author_date = EXCLUDED.author_date,
			committer_date = EXCLUDED.committer_date, message = EXCLUDED.message,
			labels = EXCLUDED.labels, fixed_issue_ids = EXCLUDED.fixed_issue_ids,
			szz_issue_ids = EXCLUDED.szz_issue_ids, linked_issue_ids = EXCLUDED.linked_issue_ids`,
		c.ID, c.VCSSystemID, c.RevisionHash, c.ParentHashes, c.AuthorDate, c.CommitterDate,
		c.Message, labelsJSON, c.FixedIssueIDs, c.SZZIssueIDs, c.LinkedIssueIDs)
	if err != nil {
		return fmt.Errorf("postgres: put commit %s: %w", c.RevisionHash, err)
	}
	return nil
}

func (s *Store) PutFileAction(ctx context.Context, fa store.FileAction) error {
	// Induces is owned by ClearInducing/AppendInducing once a FileAction
	// exists; an upsert here must not clobber it back to empty on re-ingest.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO file_action (id, commit_id, file_id, mode, old_file_path, size_at_commit, lines_added, lines_deleted, induces)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '[]'::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			mode = EXCLUDED.mode, old_file_path = EXCLUDED.old_file_path,
			size_at_commit = EXCLUDED.size_at_commit, lines_added = EXCLUDED.lines_added,
			lines_deleted = EXCLUDED.lines_deleted`,
		fa.ID, fa.CommitID, fa.FileID, fa.Mode, fa.OldFilePath, fa.SizeAtCommit, fa.LinesAdded, fa.LinesDeleted)
	if err != nil {
		return fmt.Errorf("postgres: put file_action %s: %w", fa.ID, err)
	}
	return nil
}

func (s *Store) PutHunk(ctx context.Context, h store.Hunk) error {
	verifiedJSON, err := json.Marshal(h.LinesVerified)
	if err != nil {
		return fmt.Errorf("postgres: marshal hunk.lines_verified: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO hunk (id, file_action_id, old_start, new_start, old_lines, new_lines, content, lines_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			old_start = EXCLUDED.old_start, new_start = EXCLUDED.new_start,
			old_lines = EXCLUDED.old_lines, new_lines = EXCLUDED.new_lines,
			content = EXCLUDED.content, lines_verified = EXCLUDED.lines_verified`,
		h.ID, h.FileActionID, h.OldStart, h.NewStart, h.OldLines, h.NewLines, h.Content, verifiedJSON)
	if err != nil {
		return fmt.Errorf("postgres: put hunk %s: %w", h.ID, err)
	}
	return nil
}

func (s *Store) PutTag(ctx context.Context, vcsSystemID string, t store.Tag) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tag (vcs_system_id, name, revision, corrected_revision, version, qualifier, original)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (vcs_system_id, name) DO UPDATE SET
			revision = EXCLUDED.revision, corrected_revision = EXCLUDED.corrected_revision,
			version = EXCLUDED.version, qualifier = EXCLUDED.qualifier, original = EXCLUDED.original`,
		vcsSystemID, t.Name, t.Revision, t.CorrectedRevision, t.Version, t.Qualifier, t.Original)
	if err != nil {
		return fmt.Errorf("postgres: put tag %s: %w", t.Name, err)
	}
	return nil
}

func (s *Store) PutIssue(ctx context.Context, i store.Issue) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO issue (id, issue_system_id, external_id, created_at, issue_type, issue_type_verified, status, resolution, affects_versions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			issue_type = EXCLUDED.issue_type, issue_type_verified = EXCLUDED.issue_type_verified,
			status = EXCLUDED.status, resolution = EXCLUDED.resolution, affects_versions = EXCLUDED.affects_versions`,
		i.ID, i.IssueSystemID, i.ExternalID, i.CreatedAt, i.IssueType, i.IssueTypeVerified, i.Status, i.Resolution, i.AffectsVersions)
	if err != nil {
		return fmt.Errorf("postgres: put issue %s: %w", i.ExternalID, err)
	}
	return nil
}

func (s *Store) PutRefactoring(ctx context.Context, r store.Refactoring) error {
	hunksJSON, err := json.Marshal(r.Hunks)
	if err != nil {
		return fmt.Errorf("postgres: marshal refactoring.hunks: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO refactoring (id, commit_id, detection_tool, hunks)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET hunks = EXCLUDED.hunks`,
		r.ID, r.CommitID, r.DetectionTool, hunksJSON)
	if err != nil {
		return fmt.Errorf("postgres: put refactoring %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) ClearInducing(ctx context.Context, vcsSystemID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE file_action SET induces = '[]'::jsonb
		WHERE commit_id IN (SELECT id FROM commit WHERE vcs_system_id = $1)`, vcsSystemID)
	if err != nil {
		return fmt.Errorf("postgres: clear inducing for vcs_system %s: %w", vcsSystemID, err)
	}
	s.logger.WithField("vcs_system_id", vcsSystemID).Info("cleared FileAction.induces")
	return nil
}

func (s *Store) AppendInducing(ctx context.Context, fileActionID string, rec store.InducingRecord) error {
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("postgres: marshal inducing record: %w", err)
	}
	// jsonb `@>` checks whether the array already contains an equal element.
	_, err = s.pool.Exec(ctx, `
		UPDATE file_action
		SET induces = induces || $2::jsonb
		WHERE id = $1 AND NOT (induces @> jsonb_build_array($2::jsonb))`,
		fileActionID, recJSON)
	if err != nil {
		return fmt.Errorf("postgres: append inducing record to file_action %s: %w", fileActionID, err)
	}
	return nil
}
