// Package store defines the metadata model the SZZ engine reads and
// writes, and the narrow interface concrete adapters implement.
package store

import "time"

// Project is the top-level unit of work (one git project under analysis).
type Project struct {
	ID   string
	Name string
}

// VCSSystem is one version-control system tracked for a Project.
type VCSSystem struct {
	ID        string
	ProjectID string
	URL       string
}

// IssueSystem is an issue tracker tracked for a Project. Only JIRA-backed
// trackers are supported; URL must carry a `project=<KEY>` query parameter.
type IssueSystem struct {
	ID        string
	ProjectID string
	URL       string
}

// File is a path tracked within a VCSSystem across its whole history
// (renames keep the same logical File via FileAction chaining, not by
// changing File.Path).
type File struct {
	ID          string
	VCSSystemID string
	Path        string
}

// Commit is one revision in the DAG.
type Commit struct {
	ID             string
	VCSSystemID    string
	RevisionHash   string
	ParentHashes   []string
	AuthorDate     time.Time
	CommitterDate  time.Time
	Message        string
	Labels         map[string]bool
	FixedIssueIDs  []string
	SZZIssueIDs    []string
	LinkedIssueIDs []string
}

// IsRoot reports whether this commit has no parents.
func (c Commit) IsRoot() bool {
	return len(c.ParentHashes) == 0
}

// FileActionMode is the libgit-style single-letter status code.
type FileActionMode string

const (
	ModeAdded       FileActionMode = "A"
	ModeDeleted     FileActionMode = "D"
	ModeModified    FileActionMode = "M"
	ModeRenamed     FileActionMode = "R"
	ModeCopied      FileActionMode = "C"
	ModeIgnored     FileActionMode = "I"
	ModeUntracked   FileActionMode = "U"
	ModeTypeChanged FileActionMode = "T"
	ModeUnknown     FileActionMode = "X"
)

// FileAction records one file's change within one Commit.
type FileAction struct {
	ID           string
	CommitID     string
	FileID       string
	Mode         FileActionMode
	OldFilePath  string // set for R/C, the path as it existed in the parent
	SizeAtCommit int64
	LinesAdded   int
	LinesDeleted int
	Induces      []InducingRecord
}

// Hunk is one contiguous diff chunk for a FileAction.
type Hunk struct {
	ID            string
	FileActionID  string
	OldStart      int
	NewStart      int
	OldLines      int
	NewLines      int
	Content       string          // unified-diff body, '+'/'-'/' ' prefixed lines joined by '\n'
	LinesVerified map[string][]int // e.g. {"bugfix": [2, 5]} — hunk-relative line indices
}

// Issue is a tracked bug/feature/task in an IssueSystem. Struct tags are
// used by the postgres adapter's sqlx-backed queries.
type Issue struct {
	ID                string    `db:"id"`
	IssueSystemID     string    `db:"issue_system_id"`
	ExternalID        string    `db:"external_id"`
	CreatedAt         time.Time `db:"created_at"`
	IssueType         string    `db:"issue_type"`
	IssueTypeVerified string    `db:"issue_type_verified"`
	Status            string    `db:"status"`
	Resolution        string    `db:"resolution"`
	AffectsVersions   []string  `db:"affects_versions"`
}

// RefactoringHunk is one refactoring-tool-reported span within a commit.
type RefactoringHunk struct {
	HunkID    string
	Mode      string // "a" (added) or "d"/"m" (deleted/modified) per the detection tool
	StartLine int
	EndLine   int
}

// Refactoring is one rMiner-style detected refactoring in a Commit.
type Refactoring struct {
	ID            string
	CommitID      string
	DetectionTool string
	Hunks         []RefactoringHunk
}

// Tag is one VCS tag/version reference.
type Tag struct {
	Name              string   `db:"name"`
	Revision          string   `db:"revision"`
	CorrectedRevision *string  `db:"corrected_revision"` // overrides Revision when tag date is known-broken (e.g. SVN->git migration)
	Version           []string `db:"version"`            // numeric parts padded with "0" to length 3, e.g. ["3","0","0"]
	Qualifier         string   `db:"qualifier"`           // e.g. "rc1", "", "beta2"
	Original          string   `db:"original"`            // the raw tag name as it appeared in the VCS
}

// EffectiveRevision returns CorrectedRevision when set, else Revision.
func (t Tag) EffectiveRevision() string {
	if t.CorrectedRevision != nil {
		return *t.CorrectedRevision
	}
	return t.Revision
}

// InducingRecord is one entry appended to FileAction.Induces.
type InducingRecord struct {
	ChangeFileActionID string
	SZZType            string // "inducing" | "suspect" | "hard_suspect" | "weak_suspect" | "partial_fix"
	Label              string
}
