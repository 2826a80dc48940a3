package main

import (
	"strings"
	"testing"

	"github.com/smartshark/inducingSHARK/internal/config"
)

func TestRunStatusFile_RequiresRepoPath(t *testing.T) {
	statusFile = "main.go"
	defer func() { statusFile = "" }()

	err := runStatusFile(&config.Config{})
	if err == nil || !strings.Contains(err.Error(), "repo_path") {
		t.Fatalf("runStatusFile() error = %v, want a repo_path error", err)
	}
}
