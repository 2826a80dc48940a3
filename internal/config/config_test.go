package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.SQLitePath != "szz.db" {
		t.Errorf("Database.SQLitePath = %s, want szz.db", cfg.Database.SQLitePath)
	}
	if cfg.SZZ.Label != "validated_bugfix" {
		t.Errorf("SZZ.Label = %s, want validated_bugfix", cfg.SZZ.Label)
	}
	if cfg.SZZ.Strategy != "code_only" {
		t.Errorf("SZZ.Strategy = %s, want code_only", cfg.SZZ.Strategy)
	}
	if len(cfg.SZZ.LanguageExtensions) != 1 || cfg.SZZ.LanguageExtensions[0] != ".java" {
		t.Errorf("SZZ.LanguageExtensions = %v, want [.java]", cfg.SZZ.LanguageExtensions)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() should validate cleanly, got: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "szz.toml")

	content := `
[database]
driver = "postgres"
host = "db.internal"
port = 5432
name = "smartshark"
user = "szz"

[project]
name = "apache-commons-lang"
repo_url = "https://github.com/apache/commons-lang.git"

[szz]
label = "adjustedszz_bugfix"
strategy = "all"
affected_versions = true

[output]
format = "json"
color = false
`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %s, want postgres", cfg.Database.Driver)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %s, want db.internal", cfg.Database.Host)
	}
	if cfg.Project.Name != "apache-commons-lang" {
		t.Errorf("Project.Name = %s, want apache-commons-lang", cfg.Project.Name)
	}
	if cfg.SZZ.Label != "adjustedszz_bugfix" {
		t.Errorf("SZZ.Label = %s, want adjustedszz_bugfix", cfg.SZZ.Label)
	}
	if !cfg.SZZ.AffectedVersions {
		t.Error("SZZ.AffectedVersions should be true")
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %s, want json", cfg.Output.Format)
	}
	if cfg.Output.Color {
		t.Error("Output.Color should be false")
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "szz.yaml")

	content := `
database:
  driver: sqlite
  sqlite_path: /tmp/szz-test.db
szz:
  label: issueonly_bugfix
  strategy: code_only
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Database.SQLitePath != "/tmp/szz-test.db" {
		t.Errorf("Database.SQLitePath = %s, want /tmp/szz-test.db", cfg.Database.SQLitePath)
	}
	if cfg.SZZ.Label != "issueonly_bugfix" {
		t.Errorf("SZZ.Label = %s, want issueonly_bugfix", cfg.SZZ.Label)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/does/not/exist.toml")
	if err == nil {
		t.Error("expected an error loading a non-existent file")
	}
}

func TestLoadConfigMissingExplicitPath(t *testing.T) {
	_, err := LoadConfig(WithPath("/does/not/exist.toml"))
	if err == nil {
		t.Error("expected an error for a missing explicit --config path")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault()
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected default driver when no config file is present, got %s", cfg.Database.Driver)
	}
}

func TestValidate_RejectsUnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Driver = "oracle"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unsupported driver")
	}
}

func TestValidate_RejectsMissingSQLitePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.SQLitePath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty sqlite_path")
	}
}

func TestValidate_RejectsPostgresWithoutDatabaseName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Driver = "postgres"
	cfg.Database.Name = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for postgres driver with no database name")
	}
}

func TestValidate_RejectsUnknownStrategy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SZZ.Strategy = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown szz.strategy")
	}
}

func TestFindConfigFile_NoneFound(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	if got := FindConfigFile(); got != "" {
		t.Errorf("FindConfigFile() = %q, want empty in a directory with no config", got)
	}
}
