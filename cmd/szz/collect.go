package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/smartshark/inducingSHARK/internal/archive"
	"github.com/smartshark/inducingSHARK/internal/config"
	"github.com/smartshark/inducingSHARK/internal/output"
	"github.com/smartshark/inducingSHARK/internal/progress"
	"github.com/smartshark/inducingSHARK/internal/szz/ingest"
	"github.com/smartshark/inducingSHARK/internal/vcs"
)

var collectArchivePath string

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Ingest a repository's full commit DAG into the metadata store",
	Long: `collect walks every commit reachable from any branch or tag (not
just HEAD's ancestry), persisting Commit/File/FileAction/Hunk/Tag rows.
It never classifies anything as bug-inducing — that's "szz mine"'s job
once commits carry issue labels from an upstream pipeline.`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().StringVar(&collectArchivePath, "archive", "", "path to a gzipped tar archive to extract before ingesting (instead of --repo-path)")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadEffectiveConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := cmd.Context()

	repoPath := cfg.Project.RepoPath
	if collectArchivePath != "" {
		dest, err := os.MkdirTemp("", "szz-collect-*")
		if err != nil {
			return fmt.Errorf("collect: create extraction dir: %w", err)
		}
		f, err := os.Open(collectArchivePath)
		if err != nil {
			return fmt.Errorf("collect: open archive %s: %w", collectArchivePath, err)
		}
		defer f.Close()
		if err := archive.ExtractTarGz(f, dest); err != nil {
			return fmt.Errorf("collect: extract %s: %w", collectArchivePath, err)
		}
		repoPath = dest
	}
	if repoPath == "" {
		return fmt.Errorf("collect: no repository given (set project.repo_path or pass --archive)")
	}

	opener := vcs.NewGitOpener()
	repo, err := opener.PlainOpenWithDetect(repoPath)
	if err != nil {
		return fmt.Errorf("collect: open repository at %s: %w", repoPath, err)
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	// Preflight: Project/VCSSystem resolution (idempotent get-or-create)
	// and tag enumeration are read-only ahead of the single-threaded DAG
	// walk, so they run concurrently before the heavy part starts. Ingest
	// re-resolves Project/VCSSystem itself — harmless, since both are
	// idempotent upserts keyed on their natural key.
	p := pool.New().WithContext(ctx).WithCancelOnError()
	var tagRefs []vcs.NamedReference
	p.Go(func(ctx context.Context) error {
		_, err := st.EnsureProject(ctx, cfg.Project.Name)
		return err
	})
	p.Go(func(ctx context.Context) error {
		proj, err := st.EnsureProject(ctx, cfg.Project.Name)
		if err != nil {
			return err
		}
		_, err = st.EnsureVCSSystem(ctx, proj.ID, cfg.Project.RepoURL)
		return err
	})
	p.Go(func(ctx context.Context) error {
		refs, err := repo.Tags()
		if err != nil {
			return err
		}
		tagRefs = refs
		return nil
	})
	if err := p.Wait(); err != nil {
		return fmt.Errorf("collect: preflight: %w", err)
	}
	logger.WithField("tags_seen", len(tagRefs)).Debug("preflight complete")

	spinner := progress.NewSpinner("szz collect")
	ingestor := ingest.New(st, logger)
	result, err := ingestor.Ingest(ctx, repo, cfg.Project.Name, cfg.Project.RepoURL)
	if err != nil {
		spinner.FinishError(err)
		return fmt.Errorf("collect: %w", err)
	}
	spinner.Describe("szz collect (%d hunks recorded)", ingestor.Size())
	spinner.FinishSuccess()

	return renderCollectSummary(cfg, result, ingestor.Size())
}

// collectSummary is the JSON/markdown-serializable shape behind the
// ingest report's narrative Section.
type collectSummary struct {
	Project string `json:"project"`
	Commits int    `json:"commits"`
	Tags    int    `json:"tags"`
	Hunks   int    `json:"hunks"`
}

// renderCollectSummary reports one run's ingest counts as a narrative
// Section nested in a titled Report, through the same Formatter every
// other subcommand uses.
func renderCollectSummary(cfg *config.Config, result ingest.Result, hunks int) error {
	summary := collectSummary{Project: cfg.Project.Name, Commits: result.Commits, Tags: result.Tags, Hunks: hunks}
	section := &output.Section{
		Title: "ingest summary",
		Content: fmt.Sprintf("collected %d commits, %d tags, %d hunks for project %q",
			summary.Commits, summary.Tags, summary.Hunks, summary.Project),
		Data: summary,
	}
	report := &output.Report{Title: "szz collect", Sections: []output.Renderable{section}}

	formatter, err := output.NewFormatter(output.ParseFormat(cfg.Output.Format), "", cfg.Output.Color)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	defer formatter.Close()
	return formatter.Output(report)
}
