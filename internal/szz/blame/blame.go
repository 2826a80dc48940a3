// Package blame resolves, for a bug-fixing commit's deleted lines, which
// earlier commit most recently wrote each line — the core of SZZ. It
// walks the Store's own Commit/FileAction/Hunk rows rather than asking
// git directly, so it can follow a rename/copy chain the same way the
// ingestor recorded it and stays usable against any Store adapter.
package blame

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/sirupsen/logrus"

	"github.com/smartshark/inducingSHARK/internal/store"
	"github.com/smartshark/inducingSHARK/internal/szz/diffclassify"
)

// Strategy selects which deleted lines are candidates for blame.
type Strategy string

const (
	// StrategyAll treats every deleted line as a candidate.
	StrategyAll Strategy = "all"
	// StrategyCodeOnly drops comment/whitespace-only hunks and
	// comment-looking deleted lines.
	StrategyCodeOnly Strategy = "code_only"
)

// LineRange is an inclusive [Start, End] span of old-side line numbers to
// exclude from candidate selection (e.g. a detected refactoring span).
type LineRange struct {
	Start, End int
}

// InducingLine is one (inducing_rev, original_path) pair the blame walk
// attributed a candidate line to.
type InducingLine struct {
	InducingRevision string
	OriginalPath     string
}

// ErrCorruptDAG is returned when a blame walk can't resolve a parent
// commit it expects to exist, or a candidate line maps outside its
// hunk-implied bounds — both symptomatic of a corrupt DAG or a wrong
// parent being walked. Per spec, this aborts the whole Blame call rather
// than being skipped like other per-candidate anomalies.
var ErrCorruptDAG = errors.New("blame: DAG appears corrupt or parent is wrong")

// Engine computes blame against one VCSSystem's persisted history.
type Engine struct {
	store       store.Store
	vcsSystemID string
	logger      *logrus.Logger
}

// New returns an Engine reading vcsSystemID's commits from st.
func New(st store.Store, vcsSystemID string, logger *logrus.Logger) *Engine {
	return &Engine{store: st, vcsSystemID: vcsSystemID, logger: logger}
}

// Blame returns the set of (inducing_rev, original_path) pairs for
// fixRevision's changes to filePath. Returns an empty set (not an error)
// if fixRevision is unknown, has no parent, or is a merge commit — all
// three are defined as "nothing to blame" rather than failures.
func (e *Engine) Blame(ctx context.Context, fixRevision, filePath string, strategy Strategy, ignoreLineRanges []LineRange, validatedLines *roaring.Bitmap) ([]InducingLine, error) {
	fixCommit, err := e.store.GetCommitByRevision(ctx, e.vcsSystemID, fixRevision)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blame: get commit %s: %w", fixRevision, err)
	}
	if len(fixCommit.ParentHashes) != 1 {
		// No parent (root) or a merge: both out of scope for blame.
		return nil, nil
	}

	candidates, err := e.candidateLines(ctx, fixCommit, filePath, strategy, ignoreLineRanges, validatedLines)
	if err != nil {
		return nil, fmt.Errorf("blame: candidate lines: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	parent, err := e.parentOf(ctx, fixCommit)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, nil
	}

	seen := make(map[InducingLine]bool, len(candidates))
	var out []InducingLine
	for _, cand := range candidates {
		result, err := e.walkBackward(ctx, *parent, filePath, cand.line)
		if err != nil {
			if errors.Is(err, ErrCorruptDAG) {
				return nil, err
			}
			e.logger.WithError(err).WithFields(logrus.Fields{
				"revision": fixRevision,
				"file":     filePath,
				"line":     cand.line,
			}).Warn("skipping blame candidate")
			continue
		}
		if result == nil {
			continue
		}
		if !seen[*result] {
			seen[*result] = true
			out = append(out, *result)
		}
	}
	return out, nil
}

type candidateLine struct {
	line int
	text string
}

// candidateLines implements spec step 3: scan fixCommit's hunks for
// filePath, collecting deleted lines that survive the strategy,
// validated-lines, and ignore-ranges filters, de-duplicated by line
// number within a hunk.
func (e *Engine) candidateLines(ctx context.Context, fixCommit store.Commit, filePath string, strategy Strategy, ignoreLineRanges []LineRange, validatedLines *roaring.Bitmap) ([]candidateLine, error) {
	fa, ok, err := findFileAction(ctx, e.store, fixCommit.ID, filePath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	hunks, err := e.store.ListHunks(ctx, fa.ID)
	if err != nil {
		return nil, err
	}

	ignoreBitmap := roaring.New()
	for _, r := range ignoreLineRanges {
		if r.End < r.Start {
			continue
		}
		ignoreBitmap.AddRange(uint64(r.Start), uint64(r.End)+1)
	}

	seenLines := make(map[int]bool)
	var out []candidateLine
	for _, h := range hunks {
		if strategy == StrategyCodeOnly && diffclassify.IsCommentOrWhitespaceOnly(h.Content) {
			e.logger.WithFields(logrus.Fields{
				"revision": fixCommit.RevisionHash,
				"file":     filePath,
			}).Debug("skipping comment/whitespace-only hunk")
			continue
		}

		oldLine := h.OldStart
		for _, raw := range strings.Split(h.Content, "\n") {
			switch {
			case strings.HasPrefix(raw, "+"):
				// advances only the new counter, tracked implicitly by
				// not touching oldLine here.
			case strings.HasPrefix(raw, "-"):
				text := strings.TrimSpace(raw[1:])
				if text != "" && !seenLines[oldLine] && candidateSurvives(text, oldLine, strategy, validatedLines, ignoreBitmap) {
					seenLines[oldLine] = true
					out = append(out, candidateLine{line: oldLine, text: text})
				}
				oldLine++
			case strings.HasPrefix(raw, " "):
				// context line: present on both sides.
				oldLine++
			}
		}
	}
	return out, nil
}

func candidateSurvives(text string, line int, strategy Strategy, validatedLines *roaring.Bitmap, ignoreBitmap *roaring.Bitmap) bool {
	if strategy == StrategyCodeOnly && !diffclassify.IsCodeLine(text) {
		return false
	}
	if validatedLines != nil && !validatedLines.Contains(uint32(line)) {
		return false
	}
	if ignoreBitmap.Contains(uint32(line)) {
		return false
	}
	return true
}
