package blame_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartshark/inducingSHARK/internal/logging"
	"github.com/smartshark/inducingSHARK/internal/store"
	"github.com/smartshark/inducingSHARK/internal/store/memtest"
	"github.com/smartshark/inducingSHARK/internal/szz/blame"
)

const vcsSystemID = "vcs-1"

// seedCommit writes a Commit plus (at most) one FileAction+Hunk for path
// into st, wiring commit/file/hunk IDs consistently so blame's joins
// resolve.
func seedCommit(t *testing.T, st *memtest.Store, rev string, parents []string, path string, mode store.FileActionMode, oldPath string, hunks []store.Hunk) store.Commit {
	t.Helper()
	ctx := context.Background()

	commitID := store.DeriveID("commit", vcsSystemID, rev)
	c := store.Commit{ID: commitID, VCSSystemID: vcsSystemID, RevisionHash: rev, ParentHashes: parents}
	require.NoError(t, st.PutCommit(ctx, c))

	if path == "" {
		return c
	}
	file, err := st.EnsureFile(ctx, vcsSystemID, path)
	require.NoError(t, err)

	faID := store.DeriveID("fileaction", commitID, path, string(mode))
	fa := store.FileAction{ID: faID, CommitID: commitID, FileID: file.ID, Mode: mode, OldFilePath: oldPath}
	require.NoError(t, st.PutFileAction(ctx, fa))

	for i, h := range hunks {
		h.ID = store.DeriveID("hunk", faID, string(rune('a'+i)))
		h.FileActionID = faID
		require.NoError(t, st.PutHunk(ctx, h))
	}
	return c
}

func TestBlame_AttributesToAddingCommit(t *testing.T) {
	st := memtest.New()
	seedCommit(t, st, "c1", nil, "file.go", store.ModeAdded, "", nil)
	seedCommit(t, st, "c2", []string{"c1"}, "file.go", store.ModeModified, "", []store.Hunk{
		{OldStart: 2, OldLines: 1, NewStart: 2, NewLines: 1, Content: "-old line two\n+new line two\n"},
	})

	e := blame.New(st, vcsSystemID, logging.NewNop())
	results, err := e.Blame(context.Background(), "c2", "file.go", blame.StrategyAll, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "c1", results[0].InducingRevision)
	require.Equal(t, "file.go", results[0].OriginalPath)
}

func TestBlame_WalksThroughUnrelatedModify(t *testing.T) {
	st := memtest.New()
	seedCommit(t, st, "c1", nil, "file.go", store.ModeAdded, "", nil)
	// c2 touches only line 1, leaving line 2 untouched.
	seedCommit(t, st, "c2", []string{"c1"}, "file.go", store.ModeModified, "", []store.Hunk{
		{OldStart: 1, OldLines: 1, NewStart: 1, NewLines: 1, Content: "-first\n+first revised\n"},
	})
	// c3 (the fix) deletes line 2, which c2 never touched.
	seedCommit(t, st, "c3", []string{"c2"}, "file.go", store.ModeModified, "", []store.Hunk{
		{OldStart: 2, OldLines: 1, NewStart: 2, NewLines: 0, Content: "-second\n"},
	})

	e := blame.New(st, vcsSystemID, logging.NewNop())
	results, err := e.Blame(context.Background(), "c3", "file.go", blame.StrategyAll, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "c1", results[0].InducingRevision, "line 2 passed through c2 untouched, so c1 (which added it) is the inducing commit")
}

func TestBlame_FollowsRename(t *testing.T) {
	st := memtest.New()
	seedCommit(t, st, "c1", nil, "old.txt", store.ModeAdded, "", nil)
	seedCommit(t, st, "c2", []string{"c1"}, "new.txt", store.ModeRenamed, "old.txt", nil)
	seedCommit(t, st, "c3", []string{"c2"}, "new.txt", store.ModeModified, "", []store.Hunk{
		{OldStart: 1, OldLines: 1, NewStart: 1, NewLines: 1, Content: "-content\n+new content\n"},
	})

	e := blame.New(st, vcsSystemID, logging.NewNop())
	results, err := e.Blame(context.Background(), "c3", "new.txt", blame.StrategyAll, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "c1", results[0].InducingRevision)
	require.Equal(t, "old.txt", results[0].OriginalPath)
}

func TestBlame_MergeCommitReturnsEmpty(t *testing.T) {
	st := memtest.New()
	seedCommit(t, st, "c1", nil, "", "", "", nil)
	seedCommit(t, st, "c2", nil, "", "", "", nil)
	seedCommit(t, st, "m", []string{"c1", "c2"}, "file.go", store.ModeModified, "", []store.Hunk{
		{OldStart: 1, OldLines: 1, NewStart: 1, NewLines: 1, Content: "-a\n+b\n"},
	})

	e := blame.New(st, vcsSystemID, logging.NewNop())
	results, err := e.Blame(context.Background(), "m", "file.go", blame.StrategyAll, nil, nil)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestBlame_UnknownRevisionReturnsEmpty(t *testing.T) {
	st := memtest.New()
	e := blame.New(st, vcsSystemID, logging.NewNop())
	results, err := e.Blame(context.Background(), "does-not-exist", "file.go", blame.StrategyAll, nil, nil)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestBlame_MultiOriginDeletionReturnsEachContributor(t *testing.T) {
	st := memtest.New()
	// c1 adds lines 1-2; c2 adds a third line after them.
	seedCommit(t, st, "c1", nil, "file.go", store.ModeAdded, "", nil)
	seedCommit(t, st, "c2", []string{"c1"}, "file.go", store.ModeModified, "", []store.Hunk{
		{OldStart: 2, OldLines: 0, NewStart: 3, NewLines: 1, Content: "+third (from c2)\n"},
	})
	// c3 (the fix) deletes all three lines in one hunk: two originated at
	// c1, one at c2.
	seedCommit(t, st, "c3", []string{"c2"}, "file.go", store.ModeModified, "", []store.Hunk{
		{OldStart: 1, OldLines: 3, NewStart: 1, NewLines: 0, Content: "-first (from c1)\n-second (from c1)\n-third (from c2)\n"},
	})

	e := blame.New(st, vcsSystemID, logging.NewNop())
	results, err := e.Blame(context.Background(), "c3", "file.go", blame.StrategyAll, nil, nil)
	require.NoError(t, err)

	revisions := make(map[string]bool)
	for _, r := range results {
		revisions[r.InducingRevision] = true
	}
	require.Equal(t, map[string]bool{"c1": true, "c2": true}, revisions, "a single deletion hunk spanning lines from two different commits blames both")
}

func TestBlame_CodeOnlyStrategySkipsCommentOnlyHunk(t *testing.T) {
	st := memtest.New()
	seedCommit(t, st, "c1", nil, "file.go", store.ModeAdded, "", nil)
	seedCommit(t, st, "c2", []string{"c1"}, "file.go", store.ModeModified, "", []store.Hunk{
		{OldStart: 1, OldLines: 1, NewStart: 1, NewLines: 1, Content: "-// old comment\n+// new comment\n"},
	})

	e := blame.New(st, vcsSystemID, logging.NewNop())
	results, err := e.Blame(context.Background(), "c2", "file.go", blame.StrategyCodeOnly, nil, nil)
	require.NoError(t, err)
	require.Empty(t, results, "a comment-only hunk produces no candidates under code_only")
}
