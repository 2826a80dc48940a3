// Package vcs provides version control system abstractions.
package vcs

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repository provides access to git repository operations.
type Repository interface {
	// Head returns a reference to the HEAD commit.
	Head() (Reference, error)
	// Log returns a commit iterator starting from HEAD.
	Log(opts *LogOptions) (CommitIterator, error)
	// CommitObject returns the commit with the given hash.
	CommitObject(hash plumbing.Hash) (Commit, error)
	// Blame returns blame information for a file at a specific commit.
	Blame(commit Commit, path string) (*BlameResult, error)
	// BlameAtHead returns blame information for a file at HEAD using native git.
	// This is much faster than Blame() for large repositories.
	BlameAtHead(path string) (*BlameResult, error)
	// RepoPath returns the root path of the repository.
	RepoPath() string
	// Branches enumerates local branch references.
	Branches() ([]NamedReference, error)
	// Tags enumerates tag references, resolving annotated tags to their
	// target commit.
	Tags() ([]NamedReference, error)
}

// Reference represents a git reference (branch, tag, HEAD).
type Reference interface {
	Hash() plumbing.Hash
}

// NamedReference is a Reference with an associated short name, used when
// enumerating branches and tags.
type NamedReference interface {
	Reference
	// Name returns the short reference name (e.g. "main", "v1.2.0").
	Name() string
	// Annotated reports whether the reference is an annotated tag object
	// rather than a lightweight (direct-to-commit) reference.
	Annotated() bool
}

// LogOptions configures the commit log query.
type LogOptions struct {
	Since *time.Time
	// All walks every reference (every branch and tag), not just HEAD's
	// ancestry — the ingestor uses this to visit every commit reachable
	// from any ref, mirroring the original's per-branch/per-tag walk.
	All bool
}

// CommitIterator iterates over commits.
type CommitIterator interface {
	ForEach(fn func(Commit) error) error
	Close()
}

// Commit represents a git commit.
type Commit interface {
	// Hash returns the commit hash.
	Hash() plumbing.Hash
	// NumParents returns the number of parent commits.
	NumParents() int
	// Parent returns the nth parent commit.
	Parent(n int) (Commit, error)
	// ParentHashes returns every parent's hash without resolving the
	// parent commit objects, for cheap DAG edge construction.
	ParentHashes() []plumbing.Hash
	// Tree returns the tree object for this commit.
	Tree() (Tree, error)
	// Stats returns file stats for this commit.
	Stats() (object.FileStats, error)
	// Author returns commit author information.
	Author() object.Signature
	// Committer returns commit committer information. SZZ boundary-date
	// computation uses the committer timestamp, not the author timestamp.
	Committer() object.Signature
	// Message returns the commit message.
	Message() string
}

// TreeEntry represents a file or directory in a git tree.
type TreeEntry struct {
	Path  string
	Size  int64
	IsDir bool
}

// Tree represents a git tree object.
type Tree interface {
	// Diff computes differences between this tree and another.
	Diff(to Tree) (Changes, error)
	// Entries returns all files in the tree (recursively).
	Entries() ([]TreeEntry, error)
	// File reads the full blob content of path at this tree. Ingest uses
	// this to read unchanged files as copy-detection candidates.
	File(path string) ([]byte, error)
}

// DiffFromNil diffs an empty tree against to, used for a root commit: every
// entry in to shows up as an add. to must not be nil.
func DiffFromNil(to Tree) (Changes, error) {
	gt, ok := to.(*gitTree)
	if !ok {
		return nil, ErrInvalidType
	}
	objChanges, err := object.DiffTree(nil, gt.tree)
	if err != nil {
		return nil, err
	}
	changes := make(Changes, len(objChanges))
	for i, c := range objChanges {
		changes[i] = &gitChange{change: c}
	}
	return changes, nil
}

// Changes represents a collection of file changes between trees.
type Changes []Change

// Change represents a single file change.
type Change interface {
	// From returns the source file name (empty for new files).
	FromName() string
	// To returns the destination file name (empty for deleted files).
	ToName() string
	// Action reports whether the change is an add, delete, or modify.
	// go-git does not detect renames/copies at this layer; ingest derives
	// R/C status itself by matching deletes against adds on blob similarity.
	Action() ChangeAction
	// Patch computes the patch for this change.
	Patch() (Patch, error)
}

// ChangeAction classifies a Change the way merkletrie reports it.
type ChangeAction int

const (
	ActionModify ChangeAction = iota
	ActionInsert
	ActionDelete
)

// Patch represents a diff patch.
type Patch interface {
	FilePatches() []FilePatch
}

// FilePatch represents changes to a single file.
type FilePatch interface {
	Chunks() []Chunk
	// IsBinary reports whether either side of the patch is a binary blob;
	// binary files are excluded from comment/whitespace classification and
	// rename-similarity scoring.
	IsBinary() bool
	// Files returns the old and new path for this file patch. ok is false
	// on the side that doesn't exist (add: old absent, delete: new absent).
	Files() (old FileIdentity, oldOK bool, new FileIdentity, newOK bool)
}

// FileIdentity identifies one side of a FilePatch.
type FileIdentity struct {
	Path string
	Hash plumbing.Hash
}

// Chunk represents a chunk of changes within a file patch.
type Chunk interface {
	Type() ChunkType
	Content() string
}

// ChunkType represents the type of change in a chunk.
type ChunkType int

const (
	ChunkEqual ChunkType = iota
	ChunkAdd
	ChunkDelete
)

// BlameResult contains blame information for a file.
type BlameResult struct {
	Lines []BlameLine
}

// BlameLine represents a single line in a blame result.
type BlameLine struct {
	Author     string
	AuthorName string
	Text       string
	// CommitHash is the revision that most recently touched this line, as
	// of the commit the blame was computed against. Shown by `szz status
	// --file`; the SZZ blame engine (szz/blame) does not use it.
	CommitHash plumbing.Hash
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens an existing git repository.
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
	PlainOpenWithDetect(path string) (Repository, error)
}

// ContextAwareRepository extends Repository with context-aware operations.
type ContextAwareRepository interface {
	Repository
	// LogWithContext returns a commit iterator with context support.
	LogWithContext(ctx context.Context, opts *LogOptions) (CommitIterator, error)
}
