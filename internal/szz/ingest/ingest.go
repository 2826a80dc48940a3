// Package ingest walks a git repository's full commit history (every
// branch and tag, not just HEAD's ancestry) and populates the Store's
// Commit/File/FileAction/Hunk/Tag rows, plus a dag.Graph for downstream
// components. It never classifies anything as bug-inducing; that's
// szz/classify's job once commits carry issue labels from an upstream
// pipeline.
package ingest

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"

	"github.com/smartshark/inducingSHARK/internal/store"
	"github.com/smartshark/inducingSHARK/internal/szz/dag"
	"github.com/smartshark/inducingSHARK/internal/vcs"
)

// Ingestor walks a Repository and persists its history through Store.
type Ingestor struct {
	store     store.Store
	logger    *logrus.Logger
	hunkCount int
}

// New returns an Ingestor writing through st.
func New(st store.Store, logger *logrus.Logger) *Ingestor {
	return &Ingestor{store: st, logger: logger}
}

// Size returns the number of hunks this Ingestor has written to the
// Store so far, exposed for operator observability. Hunks are not kept
// in memory after they are written.
func (ing *Ingestor) Size() int {
	return ing.hunkCount
}

// Result summarizes one Ingest run.
type Result struct {
	Commits int
	Tags    int
	Graph   *dag.Graph
}

// Ingest walks every commit reachable from any branch or tag in repo,
// under a Project named projectName and a VCSSystem at repoURL, and
// returns the populated commit DAG along with the commit and tag counts.
func (ing *Ingestor) Ingest(ctx context.Context, repo vcs.Repository, projectName, repoURL string) (Result, error) {
	proj, err := ing.store.EnsureProject(ctx, projectName)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: ensure project: %w", err)
	}
	vcsSys, err := ing.store.EnsureVCSSystem(ctx, proj.ID, repoURL)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: ensure vcs system: %w", err)
	}

	g := dag.New()

	iter, err := repo.Log(&vcs.LogOptions{All: true})
	if err != nil {
		return Result{}, fmt.Errorf("ingest: log: %w", err)
	}
	defer iter.Close()

	commitCount := 0
	err = iter.ForEach(func(c vcs.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ing.ingestCommit(ctx, vcsSys, g, c); err != nil {
			return fmt.Errorf("ingest: commit %s: %w", c.Hash().String(), err)
		}
		commitCount++
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if err := g.Validate(); err != nil {
		return Result{}, fmt.Errorf("ingest: %w", err)
	}

	tagCount, err := ing.ingestTags(ctx, repo, vcsSys.ID)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: tags: %w", err)
	}

	ing.logger.WithFields(logrus.Fields{
		"commits":                commitCount,
		"tags":                   tagCount,
		"szz_ingest_hunks_total": ing.hunkCount,
	}).Info("ingest complete")

	return Result{Commits: commitCount, Tags: tagCount, Graph: g}, nil
}

func (ing *Ingestor) ingestCommit(ctx context.Context, vcsSys store.VCSSystem, g *dag.Graph, c vcs.Commit) error {
	rev := c.Hash().String()
	parentHashes := c.ParentHashes()
	parents := make([]string, len(parentHashes))
	for i, h := range parentHashes {
		parents[i] = h.String()
	}
	g.AddCommit(rev, parents)

	commitID := store.DeriveID("commit", vcsSys.ID, rev)
	commit := store.Commit{
		ID:            commitID,
		VCSSystemID:   vcsSys.ID,
		RevisionHash:  rev,
		ParentHashes:  parents,
		AuthorDate:    c.Author().When,
		CommitterDate: c.Committer().When,
		Message:       c.Message(),
	}
	if err := ing.store.PutCommit(ctx, commit); err != nil {
		return fmt.Errorf("put commit: %w", err)
	}

	newTree, err := c.Tree()
	if err != nil {
		return fmt.Errorf("tree: %w", err)
	}

	var changes vcs.Changes
	var oldTree vcs.Tree
	if c.NumParents() == 0 {
		changes, err = vcs.DiffFromNil(newTree)
	} else {
		if c.NumParents() > 1 {
			// Merge-commit analysis is a spec Non-goal: we diff only
			// against the first parent, same as the original's pygit2
			// collector.
			ing.logger.WithField("commit", rev).Debug("merge commit, diffing first parent only")
		}
		var parent vcs.Commit
		parent, err = c.Parent(0)
		if err != nil {
			return fmt.Errorf("parent: %w", err)
		}
		oldTree, err = parent.Tree()
		if err != nil {
			return fmt.Errorf("parent tree: %w", err)
		}
		changes, err = oldTree.Diff(newTree)
	}
	if err != nil {
		return fmt.Errorf("diff: %w", err)
	}

	return ing.ingestFileActions(ctx, vcsSys.ID, commitID, oldTree, changes)
}

// ingestFileActions classifies changes into A/D/M plus best-effort R/C,
// then persists one FileAction (with its Hunks) per change.
func (ing *Ingestor) ingestFileActions(ctx context.Context, vcsSystemID, commitID string, oldTree vcs.Tree, changes vcs.Changes) error {
	type pending struct {
		path  string
		mode  store.FileActionMode
		old   string // OldFilePath, set for R/C
		hunks []store.Hunk
	}

	var actions []pending
	var deletes, inserts []blobContent
	deleteFP := make(map[string]vcs.FilePatch)
	insertFP := make(map[string]vcs.FilePatch)
	touched := make(map[string]bool)

	for _, change := range changes {
		patch, err := change.Patch()
		if err != nil {
			return fmt.Errorf("patch: %w", err)
		}
		fps := patch.FilePatches()
		if len(fps) == 0 {
			continue
		}
		fp := fps[0]

		switch change.Action() {
		case vcs.ActionModify:
			path := change.ToName()
			touched[path] = true
			hunks := buildHunks(fp)
			actions = append(actions, pending{path: path, mode: store.ModeModified, hunks: hunks})
		case vcs.ActionDelete:
			path := change.FromName()
			touched[path] = true
			deleteFP[path] = fp
			if fp.IsBinary() {
				actions = append(actions, pending{path: path, mode: store.ModeDeleted, hunks: buildHunks(fp)})
				delete(deleteFP, path)
				continue
			}
			deletes = append(deletes, blobContent{path: path, content: rawContent(fp)})
		case vcs.ActionInsert:
			path := change.ToName()
			touched[path] = true
			insertFP[path] = fp
			if fp.IsBinary() {
				actions = append(actions, pending{path: path, mode: store.ModeAdded, hunks: buildHunks(fp)})
				delete(insertFP, path)
				continue
			}
			inserts = append(inserts, blobContent{path: path, content: rawContent(fp)})
		}
	}

	// Phase 1: rename detection between this commit's own deletes/inserts.
	renamePairs, unmatchedDeletes, unmatchedInserts := matchRenames(deletes, inserts)
	for _, pair := range renamePairs {
		actions = append(actions, pending{
			path:  pair.to.path,
			mode:  store.ModeRenamed,
			old:   pair.from.path,
			hunks: buildHunks(insertFP[pair.to.path]),
		})
	}

	// Phase 2: copy detection against files this commit left untouched,
	// only for basenames the remaining inserts actually need.
	if len(unmatchedInserts) > 0 && oldTree != nil {
		candidates, err := ing.unchangedCandidates(oldTree, touched, unmatchedInserts)
		if err != nil {
			return fmt.Errorf("unchanged candidates: %w", err)
		}
		copies, stillUnmatched := matchCopies(unmatchedInserts, candidates)
		for _, pair := range copies {
			actions = append(actions, pending{
				path:  pair.to.path,
				mode:  store.ModeCopied,
				old:   pair.from.path,
				hunks: buildHunks(insertFP[pair.to.path]),
			})
		}
		unmatchedInserts = stillUnmatched
	}

	for _, d := range unmatchedDeletes {
		actions = append(actions, pending{path: d.path, mode: store.ModeDeleted, hunks: buildHunks(deleteFP[d.path])})
	}
	for _, ins := range unmatchedInserts {
		actions = append(actions, pending{path: ins.path, mode: store.ModeAdded, hunks: buildHunks(insertFP[ins.path])})
	}

	seen := make(map[uint64]bool, len(actions))
	for _, a := range actions {
		key := xxhash.Sum64String(a.path)
		if seen[key] {
			ing.logger.WithFields(logrus.Fields{
				"commit": commitID,
				"path":   a.path,
			}).Warn("duplicate file action for path within commit, skipping")
			continue
		}
		seen[key] = true

		file, err := ing.store.EnsureFile(ctx, vcsSystemID, a.path)
		if err != nil {
			return fmt.Errorf("ensure file %s: %w", a.path, err)
		}

		added, deleted := sumLines(a.hunks)
		faID := store.DeriveID("fileaction", commitID, a.path, string(a.mode))
		fa := store.FileAction{
			ID:           faID,
			CommitID:     commitID,
			FileID:       file.ID,
			Mode:         a.mode,
			OldFilePath:  a.old,
			LinesAdded:   added,
			LinesDeleted: deleted,
		}
		if err := ing.store.PutFileAction(ctx, fa); err != nil {
			return fmt.Errorf("put file action %s: %w", a.path, err)
		}
		for _, h := range a.hunks {
			h.ID = store.DeriveID("hunk", faID, fmt.Sprintf("%d", h.OldStart), fmt.Sprintf("%d", h.NewStart))
			h.FileActionID = faID
			if err := ing.store.PutHunk(ctx, h); err != nil {
				return fmt.Errorf("put hunk: %w", err)
			}
			ing.hunkCount++
		}
	}

	return nil
}

// unchangedCandidates walks oldTree once, collecting (path, content) pairs
// for entries whose basename matches one of needed's basenames and which
// this commit did not itself touch. Reading tree content only for the
// basenames under consideration keeps a large, mostly-unrelated tree from
// being read in full on every commit.
func (ing *Ingestor) unchangedCandidates(oldTree vcs.Tree, touched map[string]bool, needed []blobContent) (map[string][]blobContent, error) {
	wanted := make(map[string]bool, len(needed))
	for _, n := range needed {
		wanted[basename(n.path)] = true
	}

	entries, err := oldTree.Entries()
	if err != nil {
		return nil, err
	}

	out := make(map[string][]blobContent)
	for _, e := range entries {
		if e.IsDir || touched[e.Path] {
			continue
		}
		bn := basename(e.Path)
		if !wanted[bn] {
			continue
		}
		content, err := oldTree.File(e.Path)
		if err != nil {
			continue // unreadable blob (e.g. submodule gitlink), not a copy candidate
		}
		out[bn] = append(out[bn], blobContent{path: e.Path, content: string(content)})
	}
	return out, nil
}

// ingestTags persists every tag reference as a raw Tag row; version/date
// parsing (szz/versiondate) enriches these later.
func (ing *Ingestor) ingestTags(ctx context.Context, repo vcs.Repository, vcsSystemID string) (int, error) {
	refs, err := repo.Tags()
	if err != nil {
		return 0, err
	}
	for _, ref := range refs {
		tag := store.Tag{
			Name:     ref.Name(),
			Revision: ref.Hash().String(),
			Original: ref.Name(),
		}
		if err := ing.store.PutTag(ctx, vcsSystemID, tag); err != nil {
			return 0, fmt.Errorf("put tag %s: %w", ref.Name(), err)
		}
	}
	return len(refs), nil
}
