// Package sqlite is a same-process store.Store adapter for local runs and
// integration tests that don't want a running Postgres instance, sharing
// the postgres adapter's schema shape via database/sql + sqlx.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/smartshark/inducingSHARK/internal/store"
	"github.com/smartshark/inducingSHARK/internal/szz/versiondate"
)

// sqliteTimeLayouts covers both the format time.Time.Format(time.RFC3339Nano)
// produces when we write rows, and sqlite3's own CURRENT_TIMESTAMP default.
var sqliteTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func parseSQLiteTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("parse sqlite timestamp %q: %w", raw, lastErr)
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Store is a sqlx-over-go-sqlite3 store.Store implementation.
type Store struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// New opens (creating if absent) the sqlite database file at path.
func New(path string, logger *logrus.Logger) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}
	logger.WithField("path", path).Info("sqlite store opened")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) GetProject(ctx context.Context, name string) (store.Project, error) {
	var p store.Project
	err := s.db.GetContext(ctx, &p, `SELECT id, name FROM project WHERE name = ?`, name)
	if err != nil {
		return store.Project{}, fmt.Errorf("sqlite: get project %q: %w", name, err)
	}
	return p, nil
}

func (s *Store) GetVCSSystem(ctx context.Context, projectID, url string) (store.VCSSystem, error) {
	var v store.VCSSystem
	var err error
	if url != "" {
		err = s.db.GetContext(ctx, &v, `SELECT id, project_id, url FROM vcs_system WHERE project_id = ? AND url = ?`, projectID, url)
	} else {
		err = s.db.GetContext(ctx, &v, `SELECT id, project_id, url FROM vcs_system WHERE project_id = ? LIMIT 1`, projectID)
	}
	if err != nil {
		return store.VCSSystem{}, fmt.Errorf("sqlite: get vcs_system for project %s: %w", projectID, err)
	}
	return v, nil
}

func (s *Store) GetIssueSystem(ctx context.Context, projectID string) (store.IssueSystem, error) {
	var is store.IssueSystem
	err := s.db.GetContext(ctx, &is, `SELECT id, project_id, url FROM issue_system WHERE project_id = ? LIMIT 1`, projectID)
	if err != nil {
		return store.IssueSystem{}, fmt.Errorf("sqlite: get issue_system for project %s: %w", projectID, err)
	}
	return is, nil
}

func (s *Store) ListBugfixCommitIDs(ctx context.Context, filter store.CommitFilter) ([]string, error) {
	if err := versiondate.ValidateLabel(filter.Label); err != nil {
		return nil, fmt.Errorf("sqlite: list bugfix commit ids: %w", err)
	}

	const query = `
		SELECT id FROM commit
		WHERE vcs_system_id = ?
		AND json_extract(labels, '$.' || ?) = 1
		AND json_array_length(parent_hashes) <= 1`

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query, filter.VCSSystemID, filter.Label); err != nil {
		return nil, fmt.Errorf("sqlite: list bugfix commit ids (label=%s): %w", filter.Label, err)
	}
	return ids, nil
}

type commitRow struct {
	ID             string `db:"id"`
	VCSSystemID    string `db:"vcs_system_id"`
	RevisionHash   string `db:"revision_hash"`
	ParentHashes   string `db:"parent_hashes"` // JSON array
	AuthorDate     string `db:"author_date"`
	CommitterDate  string `db:"committer_date"`
	Message        string `db:"message"`
	Labels         string `db:"labels"` // JSON object
	FixedIssueIDs  string `db:"fixed_issue_ids"`
	SZZIssueIDs    string `db:"szz_issue_ids"`
	LinkedIssueIDs string `db:"linked_issue_ids"`
}

func (r commitRow) toCommit() (store.Commit, error) {
	c := store.Commit{ID: r.ID, VCSSystemID: r.VCSSystemID, RevisionHash: r.RevisionHash, Message: r.Message}

	var err error
	if c.AuthorDate, err = parseSQLiteTime(r.AuthorDate); err != nil {
		return store.Commit{}, fmt.Errorf("sqlite: parse author_date: %w", err)
	}
	if c.CommitterDate, err = parseSQLiteTime(r.CommitterDate); err != nil {
		return store.Commit{}, fmt.Errorf("sqlite: parse committer_date: %w", err)
	}
	for field, dest := range map[string]*[]string{
		"parent_hashes":    &c.ParentHashes,
		"fixed_issue_ids":  &c.FixedIssueIDs,
		"szz_issue_ids":    &c.SZZIssueIDs,
		"linked_issue_ids": &c.LinkedIssueIDs,
	} {
		raw := map[string]string{
			"parent_hashes":    r.ParentHashes,
			"fixed_issue_ids":  r.FixedIssueIDs,
			"szz_issue_ids":    r.SZZIssueIDs,
			"linked_issue_ids": r.LinkedIssueIDs,
		}[field]
		if raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), dest); err != nil {
			return store.Commit{}, fmt.Errorf("sqlite: unmarshal %s: %w", field, err)
		}
	}
	if r.Labels != "" {
		if err := json.Unmarshal([]byte(r.Labels), &c.Labels); err != nil {
			return store.Commit{}, fmt.Errorf("sqlite: unmarshal labels: %w", err)
		}
	}
	return c, nil
}

func (s *Store) GetCommit(ctx context.Context, id string) (store.Commit, error) {
	var r commitRow
	err := s.db.GetContext(ctx, &r, commitSelect+` WHERE id = ?`, id)
	if err != nil {
		return store.Commit{}, fmt.Errorf("sqlite: get commit %s: %w", id, err)
	}
	return r.toCommit()
}

func (s *Store) GetCommitByRevision(ctx context.Context, vcsSystemID, revisionHash string) (store.Commit, error) {
	var r commitRow
	err := s.db.GetContext(ctx, &r, commitSelect+` WHERE vcs_system_id = ? AND revision_hash = ?`, vcsSystemID, revisionHash)
	if err != nil {
		return store.Commit{}, fmt.Errorf("sqlite: get commit by revision %s: %w", revisionHash, err)
	}
	return r.toCommit()
}

const commitSelect = `SELECT id, vcs_system_id, revision_hash, parent_hashes, author_date, committer_date, message, labels, fixed_issue_ids, szz_issue_ids, linked_issue_ids FROM commit`

func (s *Store) ListFileActions(ctx context.Context, commitID string) ([]store.FileAction, error) {
	rows, err := s.db.QueryxContext(ctx, fileActionSelect+` WHERE commit_id = ?`, commitID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list file actions for commit %s: %w", commitID, err)
	}
	defer rows.Close()
	return scanFileActionRows(rows)
}

const fileActionSelect = `SELECT id, commit_id, file_id, mode, old_file_path, size_at_commit, lines_added, lines_deleted, induces FROM file_action`

type fileActionRow struct {
	ID           string `db:"id"`
	CommitID     string `db:"commit_id"`
	FileID       string `db:"file_id"`
	Mode         string `db:"mode"`
	OldFilePath  string `db:"old_file_path"`
	SizeAtCommit int64  `db:"size_at_commit"`
	LinesAdded   int    `db:"lines_added"`
	LinesDeleted int    `db:"lines_deleted"`
	Induces      string `db:"induces"` // JSON array
}

func (r fileActionRow) toFileAction() (store.FileAction, error) {
	fa := store.FileAction{
		ID: r.ID, CommitID: r.CommitID, FileID: r.FileID,
		Mode: store.FileActionMode(r.Mode), OldFilePath: r.OldFilePath,
		SizeAtCommit: r.SizeAtCommit, LinesAdded: r.LinesAdded, LinesDeleted: r.LinesDeleted,
	}
	if r.Induces != "" {
		if err := json.Unmarshal([]byte(r.Induces), &fa.Induces); err != nil {
			return store.FileAction{}, fmt.Errorf("sqlite: unmarshal induces: %w", err)
		}
	}
	return fa, nil
}

func scanFileActionRows(rows *sqlx.Rows) ([]store.FileAction, error) {
	var out []store.FileAction
	for rows.Next() {
		var r fileActionRow
		if err := rows.StructScan(&r); err != nil {
			return nil, fmt.Errorf("sqlite: scan file_action: %w", err)
		}
		fa, err := r.toFileAction()
		if err != nil {
			return nil, err
		}
		out = append(out, fa)
	}
	return out, rows.Err()
}

func (s *Store) GetFileAction(ctx context.Context, id string) (store.FileAction, error) {
	var r fileActionRow
	if err := s.db.GetContext(ctx, &r, fileActionSelect+` WHERE id = ?`, id); err != nil {
		return store.FileAction{}, fmt.Errorf("sqlite: get file_action %s: %w", id, err)
	}
	return r.toFileAction()
}

func (s *Store) GetFile(ctx context.Context, id string) (store.File, error) {
	var f store.File
	if err := s.db.GetContext(ctx, &f, `SELECT id, vcs_system_id, path FROM file WHERE id = ?`, id); err != nil {
		return store.File{}, fmt.Errorf("sqlite: get file %s: %w", id, err)
	}
	return f, nil
}

func (s *Store) ListHunks(ctx context.Context, fileActionID string) ([]store.Hunk, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT id, file_action_id, old_start, new_start, old_lines, new_lines, content, lines_verified
		 FROM hunk WHERE file_action_id = ? ORDER BY old_start`, fileActionID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list hunks for file_action %s: %w", fileActionID, err)
	}
	defer rows.Close()

	var out []store.Hunk
	for rows.Next() {
		var h struct {
			ID            string `db:"id"`
			FileActionID  string `db:"file_action_id"`
			OldStart      int    `db:"old_start"`
			NewStart      int    `db:"new_start"`
			OldLines      int    `db:"old_lines"`
			NewLines      int    `db:"new_lines"`
			Content       string `db:"content"`
			LinesVerified string `db:"lines_verified"`
		}
		if err := rows.StructScan(&h); err != nil {
			return nil, fmt.Errorf("sqlite: scan hunk: %w", err)
		}
		sh := store.Hunk{ID: h.ID, FileActionID: h.FileActionID, OldStart: h.OldStart, NewStart: h.NewStart, OldLines: h.OldLines, NewLines: h.NewLines, Content: h.Content}
		if h.LinesVerified != "" {
			if err := json.Unmarshal([]byte(h.LinesVerified), &sh.LinesVerified); err != nil {
				return nil, fmt.Errorf("sqlite: unmarshal hunk.lines_verified: %w", err)
			}
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (s *Store) ListRefactorings(ctx context.Context, commitID, detectionTool string) ([]store.Refactoring, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT id, commit_id, detection_tool, hunks FROM refactoring WHERE commit_id = ? AND detection_tool = ?`,
		commitID, detectionTool)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list refactorings for commit %s: %w", commitID, err)
	}
	defer rows.Close()

	var out []store.Refactoring
	for rows.Next() {
		var r struct {
			ID            string `db:"id"`
			CommitID      string `db:"commit_id"`
			DetectionTool string `db:"detection_tool"`
			Hunks         string `db:"hunks"`
		}
		if err := rows.StructScan(&r); err != nil {
			return nil, fmt.Errorf("sqlite: scan refactoring: %w", err)
		}
		refac := store.Refactoring{ID: r.ID, CommitID: r.CommitID, DetectionTool: r.DetectionTool}
		if r.Hunks != "" {
			if err := json.Unmarshal([]byte(r.Hunks), &refac.Hunks); err != nil {
				return nil, fmt.Errorf("sqlite: unmarshal refactoring.hunks: %w", err)
			}
		}
		out = append(out, refac)
	}
	return out, rows.Err()
}

func (s *Store) GetIssue(ctx context.Context, id string) (store.Issue, error) {
	var row issueRow
	if err := s.db.GetContext(ctx, &row, issueSelect+` WHERE id = ?`, id); err != nil {
		return store.Issue{}, fmt.Errorf("sqlite: get issue %s: %w", id, err)
	}
	return row.toIssue()
}

func (s *Store) ListIssues(ctx context.Context, issueSystemID string) ([]store.Issue, error) {
	var rows []issueRow
	if err := s.db.SelectContext(ctx, &rows, issueSelect+` WHERE issue_system_id = ?`, issueSystemID); err != nil {
		return nil, fmt.Errorf("sqlite: list issues for issue_system %s: %w", issueSystemID, err)
	}
	out := make([]store.Issue, 0, len(rows))
	for _, r := range rows {
		issue, err := r.toIssue()
		if err != nil {
			return nil, err
		}
		out = append(out, issue)
	}
	return out, nil
}

const issueSelect = `SELECT id, issue_system_id, external_id, created_at, issue_type, issue_type_verified, status, resolution, affects_versions FROM issue`

type issueRow struct {
	ID                string `db:"id"`
	IssueSystemID     string `db:"issue_system_id"`
	ExternalID        string `db:"external_id"`
	CreatedAt         string `db:"created_at"`
	IssueType         string `db:"issue_type"`
	IssueTypeVerified string `db:"issue_type_verified"`
	Status            string `db:"status"`
	Resolution        string `db:"resolution"`
	AffectsVersions   string `db:"affects_versions"` // JSON array
}

func (r issueRow) toIssue() (store.Issue, error) {
	created, err := parseSQLiteTime(r.CreatedAt)
	if err != nil {
		return store.Issue{}, fmt.Errorf("sqlite: parse issue.created_at: %w", err)
	}
	issue := store.Issue{
		ID: r.ID, IssueSystemID: r.IssueSystemID, ExternalID: r.ExternalID,
		CreatedAt: created, IssueType: r.IssueType, IssueTypeVerified: r.IssueTypeVerified,
		Status: r.Status, Resolution: r.Resolution,
	}
	if r.AffectsVersions != "" {
		if err := json.Unmarshal([]byte(r.AffectsVersions), &issue.AffectsVersions); err != nil {
			return store.Issue{}, fmt.Errorf("sqlite: unmarshal affects_versions: %w", err)
		}
	}
	return issue, nil
}

func (s *Store) ListTags(ctx context.Context, vcsSystemID string) ([]store.Tag, error) {
	var rows []tagRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT name, revision, corrected_revision, version, qualifier, original FROM tag WHERE vcs_system_id = ?`,
		vcsSystemID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tags for vcs_system %s: %w", vcsSystemID, err)
	}
	out := make([]store.Tag, 0, len(rows))
	for _, r := range rows {
		tag, err := r.toTag()
		if err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, nil
}

type tagRow struct {
	Name              string         `db:"name"`
	Revision          string         `db:"revision"`
	CorrectedRevision sql.NullString `db:"corrected_revision"`
	Version           string         `db:"version"` // JSON array
	Qualifier         string         `db:"qualifier"`
	Original          string         `db:"original"`
}

func (r tagRow) toTag() (store.Tag, error) {
	tag := store.Tag{Name: r.Name, Revision: r.Revision, Qualifier: r.Qualifier, Original: r.Original}
	if r.CorrectedRevision.Valid {
		tag.CorrectedRevision = &r.CorrectedRevision.String
	}
	if r.Version != "" {
		if err := json.Unmarshal([]byte(r.Version), &tag.Version); err != nil {
			return store.Tag{}, fmt.Errorf("sqlite: unmarshal tag.version: %w", err)
		}
	}
	return tag, nil
}

func (s *Store) EnsureProject(ctx context.Context, name string) (store.Project, error) {
	p := store.Project{ID: store.DeriveID("project", name), Name: name}
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO project (id, name) VALUES (?, ?)`, p.ID, p.Name)
	if err != nil {
		return store.Project{}, fmt.Errorf("sqlite: ensure project %q: %w", name, err)
	}
	return p, nil
}

func (s *Store) EnsureVCSSystem(ctx context.Context, projectID, url string) (store.VCSSystem, error) {
	v := store.VCSSystem{ID: store.DeriveID("vcs_system", projectID, url), ProjectID: projectID, URL: url}
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO vcs_system (id, project_id, url) VALUES (?, ?, ?)`, v.ID, v.ProjectID, v.URL)
	if err != nil {
		return store.VCSSystem{}, fmt.Errorf("sqlite: ensure vcs_system for project %s: %w", projectID, err)
	}
	return v, nil
}

func (s *Store) EnsureIssueSystem(ctx context.Context, projectID, url string) (store.IssueSystem, error) {
	if err := store.ValidateJIRAURL(url); err != nil {
		return store.IssueSystem{}, err
	}
	is := store.IssueSystem{ID: store.DeriveID("issue_system", projectID, url), ProjectID: projectID, URL: url}
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO issue_system (id, project_id, url) VALUES (?, ?, ?)`, is.ID, is.ProjectID, is.URL)
	if err != nil {
		return store.IssueSystem{}, fmt.Errorf("sqlite: ensure issue_system for project %s: %w", projectID, err)
	}
	return is, nil
}

func (s *Store) EnsureFile(ctx context.Context, vcsSystemID, path string) (store.File, error) {
	f := store.File{ID: store.DeriveID("file", vcsSystemID, path), VCSSystemID: vcsSystemID, Path: path}
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO file (id, vcs_system_id, path) VALUES (?, ?, ?)`, f.ID, f.VCSSystemID, f.Path)
	if err != nil {
		return store.File{}, fmt.Errorf("sqlite: ensure file %s: %w", path, err)
	}
	return f, nil
}

func (s *Store) PutCommit(ctx context.Context, c store.Commit) error {
	parentHashes, err := json.Marshal(c.ParentHashes)
	if err != nil {
		return fmt.Errorf("sqlite: marshal parent_hashes: %w", err)
	}
	labelsJSON, err := json.Marshal(c.Labels)
	if err != nil {
		return fmt.Errorf("sqlite: marshal commit labels: %w", err)
	}
	fixedIssueIDs, _ := json.Marshal(c.FixedIssueIDs)
	szzIssueIDs, _ := json.Marshal(c.SZZIssueIDs)
	linkedIssueIDs, _ := json.Marshal(c.LinkedIssueIDs)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO commit (id, vcs_system_id, revision_hash, parent_hashes, author_date, committer_date, message, labels, fixed_issue_ids, szz_issue_ids, linked_issue_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			parent_hashes = excluded.parent_hashes, author_date = excluded.author_date,
			committer_date = excluded.committer_date, message = excluded.message,
			labels = excluded.labels, fixed_issue_ids = excluded.fixed_issue_ids,
			szz_issue_ids = excluded.szz_issue_ids, linked_issue_ids = excluded.linked_issue_ids`,
		c.ID, c.VCSSystemID, c.RevisionHash, string(parentHashes),
		formatSQLiteTime(c.AuthorDate), formatSQLiteTime(c.CommitterDate), c.Message, string(labelsJSON),
		string(fixedIssueIDs), string(szzIssueIDs), string(linkedIssueIDs))
	if err != nil {
		return fmt.Errorf("sqlite: put commit %s: %w", c.RevisionHash, err)
	}
	return nil
}

func (s *Store) PutFileAction(ctx context.Context, fa store.FileAction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_action (id, commit_id, file_id, mode, old_file_path, size_at_commit, lines_added, lines_deleted, induces)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, '[]')
		ON CONFLICT (id) DO UPDATE SET
			mode = excluded.mode, old_file_path = excluded.old_file_path,
			size_at_commit = excluded.size_at_commit, lines_added = excluded.lines_added,
			lines_deleted = excluded.lines_deleted`,
		fa.ID, fa.CommitID, fa.FileID, string(fa.Mode), fa.OldFilePath, fa.SizeAtCommit, fa.LinesAdded, fa.LinesDeleted)
	if err != nil {
		return fmt.Errorf("sqlite: put file_action %s: %w", fa.ID, err)
	}
	return nil
}

func (s *Store) PutHunk(ctx context.Context, h store.Hunk) error {
	verifiedJSON, err := json.Marshal(h.LinesVerified)
	if err != nil {
		return fmt.Errorf("sqlite: marshal hunk.lines_verified: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO hunk (id, file_action_id, old_start, new_start, old_lines, new_lines, content, lines_verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			old_start = excluded.old_start, new_start = excluded.new_start,
			old_lines = excluded.old_lines, new_lines = excluded.new_lines,
			content = excluded.content, lines_verified = excluded.lines_verified`,
		h.ID, h.FileActionID, h.OldStart, h.NewStart, h.OldLines, h.NewLines, h.Content, string(verifiedJSON))
	if err != nil {
		return fmt.Errorf("sqlite: put hunk %s: %w", h.ID, err)
	}
	return nil
}

func (s *Store) PutTag(ctx context.Context, vcsSystemID string, t store.Tag) error {
	versionJSON, err := json.Marshal(t.Version)
	if err != nil {
		return fmt.Errorf("sqlite: marshal tag.version: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tag (vcs_system_id, name, revision, corrected_revision, version, qualifier, original)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (vcs_system_id, name) DO UPDATE SET
			revision = excluded.revision, corrected_revision = excluded.corrected_revision,
			version = excluded.version, qualifier = excluded.qualifier, original = excluded.original`,
		vcsSystemID, t.Name, t.Revision, t.CorrectedRevision, string(versionJSON), t.Qualifier, t.Original)
	if err != nil {
		return fmt.Errorf("sqlite: put tag %s: %w", t.Name, err)
	}
	return nil
}

func (s *Store) PutIssue(ctx context.Context, i store.Issue) error {
	affectsVersions, err := json.Marshal(i.AffectsVersions)
	if err != nil {
		return fmt.Errorf("sqlite: marshal affects_versions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO issue (id, issue_system_id, external_id, created_at, issue_type, issue_type_verified, status, resolution, affects_versions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			issue_type = excluded.issue_type, issue_type_verified = excluded.issue_type_verified,
			status = excluded.status, resolution = excluded.resolution, affects_versions = excluded.affects_versions`,
		i.ID, i.IssueSystemID, i.ExternalID, formatSQLiteTime(i.CreatedAt), i.IssueType, i.IssueTypeVerified, i.Status, i.Resolution, string(affectsVersions))
	if err != nil {
		return fmt.Errorf("sqlite: put issue %s: %w", i.ExternalID, err)
	}
	return nil
}

func (s *Store) PutRefactoring(ctx context.Context, r store.Refactoring) error {
	hunksJSON, err := json.Marshal(r.Hunks)
	if err != nil {
		return fmt.Errorf("sqlite: marshal refactoring.hunks: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO refactoring (id, commit_id, detection_tool, hunks)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET hunks = excluded.hunks`,
		r.ID, r.CommitID, r.DetectionTool, string(hunksJSON))
	if err != nil {
		return fmt.Errorf("sqlite: put refactoring %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) ClearInducing(ctx context.Context, vcsSystemID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE file_action SET induces = '[]'
		WHERE commit_id IN (SELECT id FROM commit WHERE vcs_system_id = ?)`, vcsSystemID)
	if err != nil {
		return fmt.Errorf("sqlite: clear inducing for vcs_system %s: %w", vcsSystemID, err)
	}
	s.logger.WithField("vcs_system_id", vcsSystemID).Info("cleared FileAction.induces")
	return nil
}

func (s *Store) AppendInducing(ctx context.Context, fileActionID string, rec store.InducingRecord) error {
	fa, err := s.GetFileAction(ctx, fileActionID)
	if err != nil {
		return err
	}
	for _, existing := range fa.Induces {
		if existing == rec {
			return nil
		}
	}
	fa.Induces = append(fa.Induces, rec)
	inducesJSON, err := json.Marshal(fa.Induces)
	if err != nil {
		return fmt.Errorf("sqlite: marshal induces: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE file_action SET induces = ? WHERE id = ?`, inducesJSON, fileActionID)
	if err != nil {
		return fmt.Errorf("sqlite: append inducing record to file_action %s: %w", fileActionID, err)
	}
	return nil
}
