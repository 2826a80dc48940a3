// Package classify runs the inducing-commit classifier: for a chosen
// label's bug-fix commits, it blames every modified file's deleted
// lines, scores each inducing commit against a per-fix boundary date,
// and persists the refined szz_type onto the inducing FileAction.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/sirupsen/logrus"

	"github.com/smartshark/inducingSHARK/internal/store"
	"github.com/smartshark/inducingSHARK/internal/szz/blame"
	"github.com/smartshark/inducingSHARK/internal/szz/diffclassify"
	"github.com/smartshark/inducingSHARK/internal/szz/versiondate"
)

// Params mirrors the original's write_bug_inducing keyword arguments —
// one call produces one named run of inducing records.
type Params struct {
	Label                    string // validated_bugfix | adjustedszz_bugfix | issueonly_bugfix | issuefasttext_bugfix
	InducingStrategy         blame.Strategy
	JavaOnly                 bool
	AffectedVersions         bool
	IgnoreRefactorings       bool
	OnlyValidatedBugfixLines bool
	Name                     string // stamped onto every emitted InducingRecord.Label
}

// Classifier runs WriteBugInducing against one VCSSystem.
type Classifier struct {
	store        store.Store
	blame        *blame.Engine
	vcsSystemID  string
	projectName  string
	versionDates map[string][]time.Time
	logger       *logrus.Logger
}

// New returns a Classifier. versionDates is the output of
// versiondate.BuildVersionDates, computed once per run and shared
// across every Params invocation against the same VCSSystem.
func New(st store.Store, blameEngine *blame.Engine, vcsSystemID, projectName string, versionDates map[string][]time.Time, logger *logrus.Logger) *Classifier {
	return &Classifier{
		store:        st,
		blame:        blameEngine,
		vcsSystemID:  vcsSystemID,
		projectName:  projectName,
		versionDates: versionDates,
		logger:       logger,
	}
}

// ClearAll resets every FileAction.Induces under this VCSSystem. The
// caller runs this once before any WriteBugInducing calls for a fresh
// run — re-running the same run from scratch always re-clears first.
func (c *Classifier) ClearAll(ctx context.Context) error {
	c.logger.Info("clearing all inducing records")
	return c.store.ClearInducing(ctx, c.vcsSystemID)
}

// changeEntry is one (fix file action, inducing file action) pair, keyed
// by a content-addressed dedup key (see changeDedupKey) so the same pair
// reached through two different blame candidates collapses to one entry.
type changeEntry struct {
	changeFileActionID   string
	inducingFileActionID string
	szzType              string
}

// changeDedupKey derives allChanges' map key the same way the store
// derives row IDs: a blake3 digest of the pair's natural key, so two
// candidate lines in the same fix landing on the same inducing
// FileAction always collapse to a single entry.
func changeDedupKey(changeFileActionID, inducingFileActionID string) string {
	return store.DeriveID("change", changeFileActionID, inducingFileActionID)
}

// WriteBugInducing selects p.Label's bug-fix commits, blames each
// modified file's surviving candidate lines, and appends a refined
// InducingRecord to every inducing FileAction it finds. The returned
// summary counts emitted records by their final SZZType, for callers
// that report a per-run breakdown (e.g. "szz mine"'s summary table).
func (c *Classifier) WriteBugInducing(ctx context.Context, p Params) (map[string]int, error) {
	commitIDs, err := c.store.ListBugfixCommitIDs(ctx, store.CommitFilter{VCSSystemID: c.vcsSystemID, Label: p.Label})
	if err != nil {
		return nil, fmt.Errorf("classify: list bugfix commits: %w", err)
	}

	allChanges := make(map[string]changeEntry)

	for _, commitID := range commitIDs {
		if err := c.processCommit(ctx, commitID, p, allChanges); err != nil {
			return nil, err
		}
	}

	c.logger.WithField("changes", len(allChanges)).Debug("finished first pass, starting second pass")
	refined := secondPass(allChanges)

	summary := make(map[string]int)
	for key, entry := range allChanges {
		szzType := refined[key]
		rec := store.InducingRecord{
			ChangeFileActionID: entry.changeFileActionID,
			SZZType:            szzType,
			Label:              p.Name,
		}
		if err := c.store.AppendInducing(ctx, entry.inducingFileActionID, rec); err != nil {
			return nil, fmt.Errorf("classify: append inducing record: %w", err)
		}
		summary[szzType]++
	}
	return summary, nil
}

func (c *Classifier) processCommit(ctx context.Context, commitID string, p Params, allChanges map[string]changeEntry) error {
	bugfixCommit, err := c.store.GetCommit(ctx, commitID)
	if err != nil {
		return fmt.Errorf("classify: get commit %s: %w", commitID, err)
	}

	issueIDs := issueIDsForLabel(bugfixCommit, p.Label)
	issues, err := c.filterIssues(ctx, issueIDs, p.Label)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		c.logger.WithField("revision", bugfixCommit.RevisionHash).Warn("skipping commit: no surviving issues")
		return nil
	}

	issueDates := make([]versiondate.IssueDate, len(issues))
	for i, iss := range issues {
		issueDates[i] = versiondate.IssueDate{CreatedAt: iss.CreatedAt, AffectsVersions: iss.AffectsVersions}
	}
	boundary, ok := versiondate.BoundaryDate(issueDates, c.versionDates, c.projectName, p.AffectedVersions)
	if !ok {
		c.logger.WithField("revision", bugfixCommit.RevisionHash).Warn("skipping commit: no reporting dates among surviving issues")
		return nil
	}

	actions, err := c.store.ListFileActions(ctx, bugfixCommit.ID)
	if err != nil {
		return fmt.Errorf("classify: list file actions for %s: %w", commitID, err)
	}

	for _, fa := range actions {
		if fa.Mode != store.ModeModified {
			continue
		}
		if err := c.processFileAction(ctx, bugfixCommit, fa, p, boundary, allChanges); err != nil {
			return err
		}
	}
	return nil
}

func (c *Classifier) processFileAction(ctx context.Context, bugfixCommit store.Commit, fa store.FileAction, p Params, boundary time.Time, allChanges map[string]changeEntry) error {
	f, err := c.store.GetFile(ctx, fa.FileID)
	if err != nil {
		return fmt.Errorf("classify: get file %s: %w", fa.FileID, err)
	}
	if p.JavaOnly && !strings.HasSuffix(strings.ToLower(f.Path), ".java") {
		return nil
	}

	var ignoreRanges []blame.LineRange
	if p.IgnoreRefactorings {
		ranges, err := c.refactoringLines(ctx, bugfixCommit.ID, fa.ID)
		if err != nil {
			return err
		}
		ignoreRanges = ranges
	}

	var validatedLines *roaring.Bitmap
	if p.OnlyValidatedBugfixLines {
		bm, err := c.bugFixingLines(ctx, fa.ID)
		if err != nil {
			return err
		}
		validatedLines = bm
	}

	inducing, err := c.blame.Blame(ctx, bugfixCommit.RevisionHash, f.Path, p.InducingStrategy, ignoreRanges, validatedLines)
	if err != nil {
		return fmt.Errorf("classify: blame %s at %s: %w", f.Path, bugfixCommit.RevisionHash, err)
	}

	for _, ind := range inducing {
		blameCommit, err := c.store.GetCommitByRevision(ctx, c.vcsSystemID, ind.InducingRevision)
		if err != nil {
			c.logger.WithError(err).WithField("revision", ind.InducingRevision).Warn("skipping unresolvable inducing commit")
			continue
		}

		szzType := "inducing"
		if !blameCommit.CommitterDate.Before(boundary) {
			szzType = "suspect"
			if blameCommit.Labels[p.Label] {
				szzType = "partial_fix"
			}
		}

		blameActions, err := c.store.ListFileActions(ctx, blameCommit.ID)
		if err != nil {
			return fmt.Errorf("classify: list file actions for inducing commit %s: %w", blameCommit.ID, err)
		}
		for _, bfa := range blameActions {
			bf, err := c.store.GetFile(ctx, bfa.FileID)
			if err != nil {
				return fmt.Errorf("classify: get file %s: %w", bfa.FileID, err)
			}
			if bf.Path != ind.OriginalPath {
				continue
			}
			key := changeDedupKey(fa.ID, bfa.ID)
			if _, exists := allChanges[key]; !exists {
				allChanges[key] = changeEntry{changeFileActionID: fa.ID, inducingFileActionID: bfa.ID, szzType: szzType}
			}
		}
	}
	return nil
}

// secondPass distinguishes hard_suspect from weak_suspect: a suspect is
// "weak" if some other change inducing the same FileAction is not
// itself a suspect (meaning that FileAction is already known to be
// inducing or a partial fix through another path).
func secondPass(allChanges map[string]changeEntry) map[string]string {
	out := make(map[string]string, len(allChanges))
	for key, entry := range allChanges {
		if entry.szzType != "suspect" {
			out[key] = entry.szzType
			continue
		}
		szzType := "hard_suspect"
		for other, otherEntry := range allChanges {
			if other == key {
				continue
			}
			if otherEntry.inducingFileActionID == entry.inducingFileActionID && otherEntry.szzType != "suspect" {
				szzType = "weak_suspect"
				break
			}
		}
		out[key] = szzType
	}
	return out
}

func issueIDsForLabel(c store.Commit, label string) []string {
	switch label {
	case "validated_bugfix":
		return c.FixedIssueIDs
	case "adjustedszz_bugfix":
		return c.SZZIssueIDs
	case "issueonly_bugfix", "issuefasttext_bugfix":
		return c.LinkedIssueIDs
	default:
		return nil
	}
}

// filterIssues resolves issueIDs to Issues, dropping any that are
// missing, not bug-typed (for automatic labels), not resolved-and-fixed,
// or (for validated_bugfix) not verified as a bug.
func (c *Classifier) filterIssues(ctx context.Context, issueIDs []string, label string) ([]store.Issue, error) {
	var out []store.Issue
	for _, id := range issueIDs {
		issue, err := c.store.GetIssue(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("classify: get issue %s: %w", id, err)
		}

		if label != "validated_bugfix" && !strings.EqualFold(issue.IssueType, "bug") {
			continue
		}
		if !jiraResolvedAndFixed(issue) {
			continue
		}
		if label == "validated_bugfix" && !strings.EqualFold(issue.IssueTypeVerified, "bug") {
			continue
		}
		out = append(out, issue)
	}
	return out, nil
}

// jiraResolvedAndFixed mirrors pycoshark's jira_is_resolved_and_fixed:
// an issue only counts if JIRA marked it resolved-or-closed with a
// "fixed" resolution.
func jiraResolvedAndFixed(issue store.Issue) bool {
	status := strings.ToLower(issue.Status)
	if status != "resolved" && status != "closed" {
		return false
	}
	return strings.ToLower(issue.Resolution) == "fixed"
}

// refactoringLines returns the deletion-side line ranges rMiner
// reported for fileActionID within commitID — added-side ranges are
// dropped, since only deleted lines are ever blame candidates.
func (c *Classifier) refactoringLines(ctx context.Context, commitID, fileActionID string) ([]blame.LineRange, error) {
	hunks, err := c.store.ListHunks(ctx, fileActionID)
	if err != nil {
		return nil, fmt.Errorf("classify: list hunks for %s: %w", fileActionID, err)
	}
	ownHunks := make(map[string]bool, len(hunks))
	for _, h := range hunks {
		ownHunks[h.ID] = true
	}

	refactorings, err := c.store.ListRefactorings(ctx, commitID, "rMiner")
	if err != nil {
		return nil, fmt.Errorf("classify: list refactorings for %s: %w", commitID, err)
	}

	var ranges []blame.LineRange
	for _, r := range refactorings {
		for _, h := range r.Hunks {
			if strings.EqualFold(h.Mode, "a") {
				continue
			}
			if !ownHunks[h.HunkID] {
				continue
			}
			ranges = append(ranges, blame.LineRange{Start: h.StartLine, End: h.EndLine})
		}
	}
	return ranges, nil
}

// bugFixingLines returns the absolute deleted-line numbers a human
// marked "bugfix" across fileActionID's hunks, as a bitmap suitable for
// blame's validatedLines filter.
func (c *Classifier) bugFixingLines(ctx context.Context, fileActionID string) (*roaring.Bitmap, error) {
	hunks, err := c.store.ListHunks(ctx, fileActionID)
	if err != nil {
		return nil, fmt.Errorf("classify: list hunks for %s: %w", fileActionID, err)
	}
	bm := roaring.New()
	for _, h := range hunks {
		_, deleted := diffclassify.TransformHunkLines(h, "bugfix")
		for _, line := range deleted {
			bm.Add(uint32(line))
		}
	}
	return bm, nil
}
