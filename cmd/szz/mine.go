package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/smartshark/inducingSHARK/internal/config"
	"github.com/smartshark/inducingSHARK/internal/output"
	"github.com/smartshark/inducingSHARK/internal/progress"
	"github.com/smartshark/inducingSHARK/internal/store"
	"github.com/smartshark/inducingSHARK/internal/szz/blame"
	"github.com/smartshark/inducingSHARK/internal/szz/classify"
	"github.com/smartshark/inducingSHARK/internal/szz/versiondate"
)

var (
	mineLabel                    string
	mineStrategy                 string
	mineName                     string
	mineExtensions               []string
	mineAffectedVersions         bool
	mineIgnoreRefactorings       bool
	mineOnlyValidatedBugfixLines bool
	mineFormat                   string
)

// mineSZZTypeOrder fixes the row order of the szz_type summary table —
// from strongest to weakest classification, matching the order
// classify.secondPass refines a suspect down through.
var mineSZZTypeOrder = []string{"inducing", "partial_fix", "suspect", "weak_suspect", "hard_suspect"}

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Classify bug-inducing commits for a chosen bug-fix label",
	Long: `mine selects every commit labeled p.Label as a bug fix, blames each
modified file's surviving deleted lines, scores the blamed commit
against a per-fix boundary date, and persists a refined szz_type onto
every inducing FileAction it finds.`,
	RunE: runMine,
}

func init() {
	mineCmd.Flags().StringVar(&mineLabel, "label", "", "bug-fix label to mine: validated_bugfix | adjustedszz_bugfix | issueonly_bugfix | issuefasttext_bugfix (overrides config)")
	mineCmd.Flags().StringVar(&mineStrategy, "strategy", "", "blame candidate strategy: all | code_only (overrides config)")
	mineCmd.Flags().StringVar(&mineName, "name", "", "run name stamped onto every emitted InducingRecord.Label (required)")
	mineCmd.Flags().StringSliceVar(&mineExtensions, "ext", nil, "language filter for blamed files: exactly --ext=.java restricts to .java files, any other set applies no restriction (overrides config)")
	mineCmd.Flags().BoolVar(&mineAffectedVersions, "affected-versions", false, "tighten the boundary date using JIRA affected-version dates when available (overrides config)")
	mineCmd.Flags().BoolVar(&mineIgnoreRefactorings, "ignore-refactorings", false, "exclude deleted lines inside detected refactorings from blame candidates")
	mineCmd.Flags().BoolVar(&mineOnlyValidatedBugfixLines, "only-validated-bugfix-lines", false, "restrict blame candidates to lines a human marked bugfix")
	mineCmd.Flags().StringVar(&mineFormat, "format", "", "render a szz_type summary in this format: text | json | markdown (overrides output.format)")
	rootCmd.AddCommand(mineCmd)
}

func runMine(cmd *cobra.Command, args []string) error {
	if mineName == "" {
		return fmt.Errorf("mine: --name is required")
	}

	cfg, err := loadEffectiveConfig()
	if err != nil {
		return err
	}
	label := cfg.SZZ.Label
	if mineLabel != "" {
		label = mineLabel
	}
	if err := versiondate.ValidateLabel(label); err != nil {
		return fmt.Errorf("mine: %w", err)
	}
	strategyName := cfg.SZZ.Strategy
	if mineStrategy != "" {
		strategyName = mineStrategy
	}
	extensions := cfg.SZZ.LanguageExtensions
	if len(mineExtensions) > 0 {
		extensions = mineExtensions
	}

	logger := newLogger(cfg)
	ctx := cmd.Context()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	proj, err := st.GetProject(ctx, cfg.Project.Name)
	if err != nil {
		return fmt.Errorf("mine: get project %s: %w", cfg.Project.Name, err)
	}
	vcsSys, err := st.GetVCSSystem(ctx, proj.ID, cfg.Project.RepoURL)
	if err != nil {
		return fmt.Errorf("mine: get vcs system: %w", err)
	}

	versionDates, err := buildVersionDates(ctx, st, vcsSys.ID, proj, cfg)
	if err != nil {
		return fmt.Errorf("mine: %w", err)
	}

	blameEngine := blame.New(st, vcsSys.ID, logger)
	classifier := classify.New(st, blameEngine, vcsSys.ID, cfg.Project.Name, versionDates, logger)

	if err := classifier.ClearAll(ctx); err != nil {
		return fmt.Errorf("mine: %w", err)
	}

	commitIDs, err := st.ListBugfixCommitIDs(ctx, store.CommitFilter{VCSSystemID: vcsSys.ID, Label: label})
	if err != nil {
		return fmt.Errorf("mine: list bugfix commits: %w", err)
	}

	// classify.WriteBugInducing runs as one critical section (clear-all and
	// classify-all complete together or not at all, per the engine's
	// single-threaded lifecycle) — there's no safe midpoint to report, so
	// the bar jumps from 0 to commitIDs's count on success rather than
	// per-commit.
	tracker := progress.NewTracker("szz mine", len(commitIDs))
	defer tracker.FinishSuccess()

	params := classify.Params{
		Label:                    label,
		InducingStrategy:         blame.Strategy(strategyName),
		JavaOnly:                 onlyJavaExtensions(extensions),
		AffectedVersions:         cfg.SZZ.AffectedVersions || mineAffectedVersions,
		IgnoreRefactorings:       cfg.SZZ.IgnoreRefactorings || mineIgnoreRefactorings,
		OnlyValidatedBugfixLines: cfg.SZZ.OnlyValidatedBugfixLines || mineOnlyValidatedBugfixLines,
		Name:                     mineName,
	}

	summary, err := classifier.WriteBugInducing(ctx, params)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("mine: %w", err)
	}
	for range commitIDs {
		tracker.Tick()
	}

	color.Green("mined %d bug-fix commits under label %q (run %q)", len(commitIDs), label, mineName)

	format := cfg.Output.Format
	if mineFormat != "" {
		format = mineFormat
	}
	return renderMineSummary(format, cfg.Output.Color, summary)
}

// renderMineSummary prints the run's emitted InducingRecords broken down
// by szz_type, through the same Formatter every other subcommand uses,
// so --format=json/markdown behaves consistently across the CLI.
func renderMineSummary(format string, colored bool, summary map[string]int) error {
	formatter, err := output.NewFormatter(output.ParseFormat(format), "", colored)
	if err != nil {
		return fmt.Errorf("mine: %w", err)
	}
	defer formatter.Close()
	return formatter.Output(buildMineSummaryTable(summary))
}

// buildMineSummaryTable lays out summary's counts in mineSZZTypeOrder
// (strongest classification first) with a total footer row.
func buildMineSummaryTable(summary map[string]int) *output.Table {
	rows := make([][]string, 0, len(mineSZZTypeOrder))
	total := 0
	for _, szzType := range mineSZZTypeOrder {
		count := summary[szzType]
		total += count
		rows = append(rows, []string{szzType, fmt.Sprintf("%d", count)})
	}
	footer := []string{"total", fmt.Sprintf("%d", total)}
	return output.NewTable("szz_type summary", []string{"szz_type", "count"}, rows, footer, summary)
}

// onlyJavaExtensions reports whether extensions names exactly the
// classic SmartSHARK java-only restriction — classify.Params only
// supports a java/all toggle, mirroring the original's own scope.
func onlyJavaExtensions(extensions []string) bool {
	return len(extensions) == 1 && extensions[0] == ".java"
}

func buildVersionDates(ctx context.Context, st store.Store, vcsSystemID string, proj store.Project, cfg *config.Config) (map[string][]time.Time, error) {
	tagDates, _, err := versiondate.ResolveTagDates(ctx, st, vcsSystemID, cfg.Project.Name)
	if err != nil {
		return nil, fmt.Errorf("resolve tag dates: %w", err)
	}

	var affectedVersions [][]string
	issueSys, err := st.GetIssueSystem(ctx, proj.ID)
	if err == nil {
		issues, err := st.ListIssues(ctx, issueSys.ID)
		if err != nil {
			return nil, fmt.Errorf("list issues: %w", err)
		}
		for _, issue := range issues {
			for _, raw := range issue.AffectsVersions {
				if v, ok := versiondate.AffectedVersion(raw, cfg.Project.Name); ok {
					affectedVersions = append(affectedVersions, v)
				}
			}
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get issue system: %w", err)
	}

	return versiondate.BuildVersionDates(tagDates, affectedVersions), nil
}
