package store

import (
	"context"
	"errors"
)

// ErrNonJIRAIssueSystem is returned when an IssueSystem's URL does not carry
// a non-empty `project=<KEY>` query parameter. The host is not checked.
var ErrNonJIRAIssueSystem = errors.New("store: issue system is not a supported JIRA tracker")

// ErrNotFound is returned by single-row lookups with no matching record.
var ErrNotFound = errors.New("store: not found")

// CommitFilter selects bug-fix commits by label, scoped to one VCSSystem.
// Only merge commits (more than one parent) are excluded; root commits
// are kept — mirrors the original's `parents__1__exists: False`
// constraint restricting to commits with at most one parent.
type CommitFilter struct {
	VCSSystemID string
	Label       string // "validated_bugfix" | "adjustedszz_bugfix" | "issueonly_bugfix" | "issuefasttext_bugfix"
}

// Store is the narrow read/write surface the SZZ engine consumes. Adapters
// (postgres, sqlite, memtest) implement it; the core never imports a
// database driver directly.
type Store interface {
	GetProject(ctx context.Context, name string) (Project, error)
	GetVCSSystem(ctx context.Context, projectID, url string) (VCSSystem, error)
	GetIssueSystem(ctx context.Context, projectID string) (IssueSystem, error)

	// ListBugfixCommitIDs materializes matching commit IDs up front,
	// never a live driver cursor, so a long classify run can't time out
	// mid-iteration (spec.md §9 bounded-streaming requirement).
	ListBugfixCommitIDs(ctx context.Context, filter CommitFilter) ([]string, error)
	GetCommit(ctx context.Context, id string) (Commit, error)
	GetCommitByRevision(ctx context.Context, vcsSystemID, revisionHash string) (Commit, error)

	ListFileActions(ctx context.Context, commitID string) ([]FileAction, error)
	GetFileAction(ctx context.Context, id string) (FileAction, error)
	GetFile(ctx context.Context, id string) (File, error)

	ListHunks(ctx context.Context, fileActionID string) ([]Hunk, error)
	ListRefactorings(ctx context.Context, commitID, detectionTool string) ([]Refactoring, error)

	GetIssue(ctx context.Context, id string) (Issue, error)
	ListIssues(ctx context.Context, issueSystemID string) ([]Issue, error)

	ListTags(ctx context.Context, vcsSystemID string) ([]Tag, error)

	// EnsureProject, EnsureVCSSystem, EnsureIssueSystem, and EnsureFile are
	// get-or-create lookups keyed on their natural key (Project.Name,
	// VCSSystem.URL, IssueSystem.ProjectID, File.Path) — the ingestor calls
	// these once per distinct entity rather than tracking its own cache of
	// which rows it has already created this run.
	EnsureProject(ctx context.Context, name string) (Project, error)
	EnsureVCSSystem(ctx context.Context, projectID, url string) (VCSSystem, error)
	// EnsureIssueSystem returns ErrNonJIRAIssueSystem if url does not carry
	// a `project=<KEY>` query parameter.
	EnsureIssueSystem(ctx context.Context, projectID, url string) (IssueSystem, error)
	EnsureFile(ctx context.Context, vcsSystemID, path string) (File, error)

	// PutCommit, PutFileAction, PutHunk, PutTag, PutIssue, and PutRefactoring
	// are idempotent upserts keyed on the row's ID (see DeriveID) — ingest
	// and the mining subcommands call these directly rather than going
	// through a separate insert/update split.
	PutCommit(ctx context.Context, c Commit) error
	PutFileAction(ctx context.Context, fa FileAction) error
	PutHunk(ctx context.Context, h Hunk) error
	PutTag(ctx context.Context, vcsSystemID string, t Tag) error
	PutIssue(ctx context.Context, i Issue) error
	PutRefactoring(ctx context.Context, r Refactoring) error

	// ClearInducing resets FileAction.Induces to empty for every FileAction
	// belonging to a Commit under vcsSystemID, the re-run lifecycle from
	// spec.md §3.
	ClearInducing(ctx context.Context, vcsSystemID string) error
	// AppendInducing appends rec to fileActionID's Induces list unless an
	// equal record (by ChangeFileActionID+SZZType+Label) is already present.
	AppendInducing(ctx context.Context, fileActionID string, rec InducingRecord) error

	Close() error
}
