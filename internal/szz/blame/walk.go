package blame

import (
	"context"
	"errors"
	"fmt"

	"github.com/smartshark/inducingSHARK/internal/store"
)

// walkBackward follows path backward from commit (fixRevision's parent)
// until it finds the commit that last wrote line, translating line
// through each commit's hunks (or carrying it straight across a rename's
// OldFilePath) as it goes.
func (e *Engine) walkBackward(ctx context.Context, commit store.Commit, path string, line int) (*InducingLine, error) {
	for {
		fa, ok, err := findFileAction(ctx, e.store, commit.ID, path)
		if err != nil {
			return nil, err
		}
		if !ok {
			next, err := e.parentOf(ctx, commit)
			if err != nil {
				return nil, err
			}
			if next == nil {
				return &InducingLine{InducingRevision: commit.RevisionHash, OriginalPath: path}, nil
			}
			commit = *next
			continue
		}

		switch fa.Mode {
		case store.ModeAdded:
			return &InducingLine{InducingRevision: commit.RevisionHash, OriginalPath: path}, nil

		case store.ModeRenamed, store.ModeCopied:
			// The file's content at this point is a best-effort
			// similarity match (ingest didn't compute a real diff
			// between the old and new blob), so line numbers carry
			// over unchanged rather than through a hunk mapping.
			path = fa.OldFilePath
			next, err := e.parentOf(ctx, commit)
			if err != nil {
				return nil, err
			}
			if next == nil {
				return &InducingLine{InducingRevision: commit.RevisionHash, OriginalPath: path}, nil
			}
			commit = *next

		case store.ModeModified:
			hunks, err := e.store.ListHunks(ctx, fa.ID)
			if err != nil {
				return nil, err
			}
			hit, mappedLine, ok := mapLineBackward(hunks, line)
			if !ok {
				return nil, fmt.Errorf("%w: line %d out of range for %s at %s", ErrCorruptDAG, line, path, commit.RevisionHash)
			}
			if hit {
				return &InducingLine{InducingRevision: commit.RevisionHash, OriginalPath: path}, nil
			}
			next, err := e.parentOf(ctx, commit)
			if err != nil {
				return nil, err
			}
			if next == nil {
				return &InducingLine{InducingRevision: commit.RevisionHash, OriginalPath: path}, nil
			}
			line = mappedLine
			commit = *next

		default:
			// A delete (or unrecognized mode) reached while walking
			// backward along a supposedly live path means our
			// assumption about the path's continuity broke down —
			// logged and skipped by the caller, not fatal to the
			// whole call.
			return nil, fmt.Errorf("blame: unexpected mode %q for %s at %s while walking backward", fa.Mode, path, commit.RevisionHash)
		}
	}
}

// mapLineBackward translates a new-file line number through a commit's
// hunks (sorted by NewStart) to its old-file equivalent. hit is true when
// line falls inside a hunk's new range — the commit that owns that hunk
// wrote this line's current content. ok is false if line is non-positive,
// if the hunks aren't in non-overlapping increasing NewStart order, or if
// the translated old-file line would be non-positive — all symptomatic of
// a corrupt DAG or a wrong parent, which callers treat as ErrCorruptDAG.
func mapLineBackward(hunks []store.Hunk, line int) (hit bool, oldLine int, ok bool) {
	if line < 1 {
		return false, 0, false
	}
	shift := 0 // oldLine = newLine - shift, valid for any line not inside a hunk
	prevNewEnd := 0
	for _, h := range hunks {
		if h.NewStart < prevNewEnd {
			return false, 0, false
		}
		prevNewEnd = h.NewStart + h.NewLines

		if line < h.NewStart {
			return false, line - shift, true
		}
		if line <= h.NewStart+h.NewLines-1 {
			return true, 0, true
		}
		shift += h.NewLines - h.OldLines
	}
	mapped := line - shift
	if mapped < 1 {
		return false, 0, false
	}
	return false, mapped, true
}

// parentOf resolves commit's first parent (merges are out of scope, so
// there is at most one parent to follow by construction of the walk).
func (e *Engine) parentOf(ctx context.Context, commit store.Commit) (*store.Commit, error) {
	if len(commit.ParentHashes) == 0 {
		return nil, nil
	}
	parent, err := e.store.GetCommitByRevision(ctx, e.vcsSystemID, commit.ParentHashes[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: parent %s of %s not found", ErrCorruptDAG, commit.ParentHashes[0], commit.RevisionHash)
		}
		return nil, err
	}
	return &parent, nil
}

// findFileAction locates commitID's FileAction touching path, by joining
// through File.Path (FileAction only carries a FileID).
func findFileAction(ctx context.Context, st store.Store, commitID, path string) (store.FileAction, bool, error) {
	actions, err := st.ListFileActions(ctx, commitID)
	if err != nil {
		return store.FileAction{}, false, err
	}
	for _, fa := range actions {
		file, err := st.GetFile(ctx, fa.FileID)
		if err != nil {
			return store.FileAction{}, false, err
		}
		if file.Path == path {
			return fa, true, nil
		}
	}
	return store.FileAction{}, false, nil
}
