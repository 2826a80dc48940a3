// Package config loads inducingSHARK-go's configuration: database
// connection parameters, the target project/VCS/ITS identifiers, and
// the default SZZ run parameters, loaded from a config file via koanf and
// overridden by CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/smartshark/inducingSHARK/internal/szz/versiondate"
)

// Config holds every setting the engine needs outside of per-invocation
// CLI flags.
type Config struct {
	Database DatabaseConfig `koanf:"database" toml:"database"`
	Project  ProjectConfig  `koanf:"project" toml:"project"`
	SZZ      SZZConfig      `koanf:"szz" toml:"szz"`
	Output   OutputConfig   `koanf:"output" toml:"output"`
}

// DatabaseConfig selects and configures the metadata store adapter.
type DatabaseConfig struct {
	Driver   string `koanf:"driver" toml:"driver"` // "postgres" | "sqlite"
	Host     string `koanf:"host" toml:"host"`
	Port     int    `koanf:"port" toml:"port"`
	Name     string `koanf:"name" toml:"name"`
	User     string `koanf:"user" toml:"user"`
	Password string `koanf:"password" toml:"password"`
	SSLMode  string `koanf:"ssl_mode" toml:"ssl_mode"`
	// SQLitePath is used instead of Host/Port/Name/User/Password when
	// Driver == "sqlite".
	SQLitePath string `koanf:"sqlite_path" toml:"sqlite_path"`
}

// ProjectConfig identifies the project/VCS/ITS under analysis.
type ProjectConfig struct {
	Name     string `koanf:"name" toml:"name"`
	RepoURL  string `koanf:"repo_url" toml:"repo_url"`
	RepoPath string `koanf:"repo_path" toml:"repo_path"` // local checkout; may be empty only when `szz collect --archive` supplies the repository
}

// SZZConfig holds the default run parameters for `szz mine`, overridable
// per-invocation by CLI flags.
type SZZConfig struct {
	Label                    string   `koanf:"label" toml:"label"`
	Strategy                 string   `koanf:"strategy" toml:"strategy"` // "all" | "code_only"
	LanguageExtensions       []string `koanf:"language_extensions" toml:"language_extensions"`
	AffectedVersions         bool     `koanf:"affected_versions" toml:"affected_versions"`
	IgnoreRefactorings       bool     `koanf:"ignore_refactorings" toml:"ignore_refactorings"`
	OnlyValidatedBugfixLines bool     `koanf:"only_validated_bugfix_lines" toml:"only_validated_bugfix_lines"`
}

// OutputConfig controls how `szz status`/`szz mine` render results.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // "text" | "json"
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// DefaultConfig returns a Config with sensible defaults — a local
// sqlite store, code_only blame, and a .java-only language restriction.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "szz.db",
			Port:       5432,
			SSLMode:    "disable",
		},
		SZZ: SZZConfig{
			Label:              "validated_bugfix",
			Strategy:           "code_only",
			LanguageExtensions: []string{".java"},
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load reads path (format chosen by extension — toml/yaml/yml/json,
// defaulting to toml) over DefaultConfig's values.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches standard locations for a config file, returning
// its path or "" if none is found.
func FindConfigFile() string {
	names := []string{"szz.toml", "szz.yaml", "szz.yml", "szz.json"}
	dirs := []string{".", ".szz"}
	for _, dir := range dirs {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
}

// WithPath specifies an explicit config file path; LoadConfig errors if
// it doesn't exist.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// LoadResult is the loaded Config plus the file path it came from (empty
// when defaults were used).
type LoadResult struct {
	Config *Config
	Source string
}

// LoadConfig loads configuration per opts, searching standard locations
// when no explicit path is given, and always validates before returning.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	var cfg *Config
	var source string
	var err error

	if o.path != "" {
		if _, statErr := os.Stat(o.path); os.IsNotExist(statErr) {
			return nil, fmt.Errorf("config file not found: %s", o.path)
		}
		cfg, err = Load(o.path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", o.path, err)
		}
		source = o.path
	} else {
		source = FindConfigFile()
		if source == "" {
			cfg = DefaultConfig()
		} else {
			cfg, err = Load(source)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", source, err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &LoadResult{Config: cfg, Source: source}, nil
}

// LoadOrDefault loads from standard locations or returns validated
// defaults if no config file is present.
func LoadOrDefault() (*Config, error) {
	result, err := LoadConfig()
	if err != nil {
		if FindConfigFile() == "" {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return result.Config, nil
}

// Validate checks required fields and enum-like values, collecting every
// violation before returning instead of stopping at the first one.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be \"postgres\" or \"sqlite\", got %q", c.Database.Driver))
	}
	if c.Database.Driver == "sqlite" && c.Database.SQLitePath == "" {
		errs = append(errs, errors.New("database.sqlite_path is required when database.driver is sqlite"))
	}
	if c.Database.Driver == "postgres" && c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required when database.driver is postgres"))
	}

	switch c.SZZ.Strategy {
	case "all", "code_only":
	default:
		errs = append(errs, fmt.Errorf("szz.strategy must be \"all\" or \"code_only\", got %q", c.SZZ.Strategy))
	}

	if err := versiondate.ValidateLabel(c.SZZ.Label); err != nil {
		errs = append(errs, fmt.Errorf("szz.label: %w", err))
	}

	switch c.Output.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("output.format must be \"text\" or \"json\", got %q", c.Output.Format))
	}

	return errors.Join(errs...)
}
