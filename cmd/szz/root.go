// Command szz mines bug-inducing commits out of a SmartSHARK-style
// metadata store: `szz collect` ingests a repository's full commit DAG,
// `szz mine` runs the inducing-commit classifier against it, and
// `szz status`/`szz config` inspect the store and effective configuration.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/smartshark/inducingSHARK/internal/archive"
	"github.com/smartshark/inducingSHARK/internal/config"
	"github.com/smartshark/inducingSHARK/internal/logging"
)

var (
	cfgFile string
	verbose bool

	dbDriver   string
	dbHost     string
	dbPort     int
	dbName     string
	dbUser     string
	dbPassword string
	sqlitePath string

	projectName string
	repoURL     string
	repoPath    string
)

var rootCmd = &cobra.Command{
	Use:   "szz",
	Short: "Bug-inducing commit detection over a mined repository",
	Long: `szz walks a git repository's full commit history, links bug-fixing
commits to the lines they touched, and blames those lines back to the
commits most likely to have introduced the bug (the SZZ algorithm).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (TOML, YAML, or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug-level) logging")

	rootCmd.PersistentFlags().StringVar(&dbDriver, "db-driver", "", "metadata store driver: postgres or sqlite (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dbHost, "db-host", "", "postgres host (overrides config)")
	rootCmd.PersistentFlags().IntVar(&dbPort, "db-port", 0, "postgres port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dbName, "db-name", "", "postgres database name (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dbUser, "db-user", "", "postgres user (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dbPassword, "db-password", "", "postgres password (overrides config)")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", "", "sqlite database file (overrides config)")

	rootCmd.PersistentFlags().StringVar(&projectName, "project", "", "project name (overrides config)")
	rootCmd.PersistentFlags().StringVar(&repoURL, "repo-url", "", "canonical VCS system URL used to key stored commits (overrides config)")
	rootCmd.PersistentFlags().StringVar(&repoPath, "repo-path", "", "local repository checkout path (overrides config)")
}

// loadEffectiveConfig merges the config file with any global flag
// overrides, validating the result before returning.
func loadEffectiveConfig() (*config.Config, error) {
	var opts []config.LoadOption
	if cfgFile != "" {
		opts = append(opts, config.WithPath(cfgFile))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	cfg := result.Config

	if dbDriver != "" {
		cfg.Database.Driver = dbDriver
	}
	if dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort != 0 {
		cfg.Database.Port = dbPort
	}
	if dbName != "" {
		cfg.Database.Name = dbName
	}
	if dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPassword != "" {
		cfg.Database.Password = dbPassword
	}
	if sqlitePath != "" {
		cfg.Database.SQLitePath = sqlitePath
	}
	if projectName != "" {
		cfg.Project.Name = projectName
	}
	if repoURL != "" {
		cfg.Project.RepoURL = repoURL
	}
	if repoPath != "" {
		cfg.Project.RepoPath = repoPath
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logrus.Logger {
	return logging.New(logging.Options{Verbose: verbose || cfg.Output.Verbose})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		if errors.Is(err, archive.ErrPathTraversal) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
