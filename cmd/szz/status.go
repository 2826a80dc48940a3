package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smartshark/inducingSHARK/internal/config"
	"github.com/smartshark/inducingSHARK/internal/output"
	"github.com/smartshark/inducingSHARK/internal/vcs"
)

var statusFile string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the metadata store's size and the configured project/VCS identity",
	Long: `status reports the metadata store's size and the configured
project/VCS identity. With --file, it instead runs a native "git blame"
against HEAD for one file — a debugging aid for comparing the stored
history's blame chain against the real repository, independent of the
blame engine's own backward walk.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFile, "file", "", "run a native git blame at HEAD for this path instead of reporting store size")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadEffectiveConfig()
	if err != nil {
		return err
	}

	if statusFile != "" {
		return runStatusFile(cfg)
	}

	logger := newLogger(cfg)
	ctx := cmd.Context()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	rows := [][]string{
		{"project", cfg.Project.Name},
		{"repo_url", cfg.Project.RepoURL},
		{"database.driver", cfg.Database.Driver},
	}

	proj, err := st.GetProject(ctx, cfg.Project.Name)
	if err != nil {
		rows = append(rows, []string{"status", "project not yet collected — run \"szz collect\" first"})
	} else if vcsSys, err := st.GetVCSSystem(ctx, proj.ID, cfg.Project.RepoURL); err != nil {
		rows = append(rows, []string{"status", "vcs system not yet collected — run \"szz collect\" first"})
	} else {
		rows = append(rows, []string{"vcs_system_id", vcsSys.ID})

		tags, err := st.ListTags(ctx, vcsSys.ID)
		if err == nil {
			rows = append(rows, []string{"tags", strconv.Itoa(len(tags))})
		}
	}

	table := output.NewTable("szz status", []string{"field", "value"}, rows, nil, nil)
	formatter, err := output.NewFormatter(output.ParseFormat(cfg.Output.Format), "", cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(table)
}

func runStatusFile(cfg *config.Config) error {
	if cfg.Project.RepoPath == "" {
		return fmt.Errorf("status --file: project.repo_path (or --repo-path) is required")
	}
	opener := vcs.NewGitOpener()
	repo, err := opener.PlainOpenWithDetect(cfg.Project.RepoPath)
	if err != nil {
		return fmt.Errorf("status --file: open repository at %s: %w", cfg.Project.RepoPath, err)
	}

	result, err := repo.BlameAtHead(statusFile)
	if err != nil {
		return fmt.Errorf("status --file: blame %s: %w", statusFile, err)
	}

	rows := make([][]string, len(result.Lines))
	for i, line := range result.Lines {
		rows[i] = []string{strconv.Itoa(i + 1), line.CommitHash.String()[:8], line.AuthorName, line.Text}
	}

	table := output.NewTable(fmt.Sprintf("blame: %s", statusFile), []string{"line", "commit", "author", "text"}, rows, nil, nil)
	formatter, err := output.NewFormatter(output.ParseFormat(cfg.Output.Format), "", cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(table)
}
