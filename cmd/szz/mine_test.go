package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/smartshark/inducingSHARK/internal/config"
	"github.com/smartshark/inducingSHARK/internal/store"
	"github.com/smartshark/inducingSHARK/internal/store/memtest"
)

func TestOnlyJavaExtensions(t *testing.T) {
	tests := []struct {
		name string
		ext  []string
		want bool
	}{
		{name: "exact java match", ext: []string{".java"}, want: true},
		{name: "multiple extensions", ext: []string{".java", ".go"}, want: false},
		{name: "empty means all", ext: nil, want: false},
		{name: "single non-java extension", ext: []string{".py"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := onlyJavaExtensions(tt.ext); got != tt.want {
				t.Errorf("onlyJavaExtensions(%v) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestBuildVersionDates_NoIssueSystemIsNotFatal(t *testing.T) {
	st := memtest.New()
	proj, _ := st.EnsureProject(context.Background(), "demo")
	vcsSys, _ := st.EnsureVCSSystem(context.Background(), proj.ID, "https://example.com/demo.git")

	cfg := &config.Config{Project: config.ProjectConfig{Name: "demo"}}
	got, err := buildVersionDates(context.Background(), st, vcsSys.ID, proj, cfg)
	if err != nil {
		t.Fatalf("buildVersionDates() error = %v, want nil", err)
	}
	if len(got) != 0 {
		t.Errorf("buildVersionDates() = %v, want empty map with no tags or issue system", got)
	}
}

func TestBuildMineSummaryTable_OrdersSZZTypesAndTotals(t *testing.T) {
	summary := map[string]int{"inducing": 3, "weak_suspect": 1, "hard_suspect": 2}
	table := buildMineSummaryTable(summary)

	var md bytes.Buffer
	if err := table.RenderMarkdown(&md); err != nil {
		t.Fatalf("RenderMarkdown() error = %v", err)
	}
	want := "## szz_type summary\n\n" +
		"| szz_type | count |\n" +
		"| --- | --- |\n" +
		"| inducing | 3 |\n" +
		"| partial_fix | 0 |\n" +
		"| suspect | 0 |\n" +
		"| weak_suspect | 1 |\n" +
		"| hard_suspect | 2 |\n" +
		"| total | 6 |\n\n"
	if md.String() != want {
		t.Errorf("RenderMarkdown() = %q, want %q", md.String(), want)
	}

	data, err := json.Marshal(table.RenderData())
	if err != nil {
		t.Fatalf("json.Marshal(RenderData()) error = %v", err)
	}
	var roundTripped map[string]int
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if roundTripped["inducing"] != 3 || roundTripped["hard_suspect"] != 2 {
		t.Errorf("RenderData() round-trip = %v, want the raw summary counts", roundTripped)
	}
}

func TestBuildVersionDates_CollectsAffectedVersionsFromIssues(t *testing.T) {
	st := memtest.New()
	ctx := context.Background()
	proj, _ := st.EnsureProject(ctx, "demo")
	vcsSys, _ := st.EnsureVCSSystem(ctx, proj.ID, "https://example.com/demo.git")
	issueSys, _ := st.EnsureIssueSystem(ctx, proj.ID, "https://jira.example.com/browse?project=DEMO")

	commit := store.Commit{ID: "c1", VCSSystemID: vcsSys.ID, RevisionHash: "abc123", CommitterDate: time.Now()}
	if err := st.PutCommit(ctx, commit); err != nil {
		t.Fatal(err)
	}
	if err := st.PutTag(ctx, vcsSys.ID, store.Tag{Name: "v1.2.0", Revision: "abc123", Original: "v1.2.0"}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutIssue(ctx, store.Issue{
		ID:              "i1",
		IssueSystemID:   issueSys.ID,
		CreatedAt:       time.Now(),
		AffectsVersions: []string{"v1.2.0", "not-a-version-at-all-@#$"},
	}); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{Project: config.ProjectConfig{Name: "demo"}}
	got, err := buildVersionDates(ctx, st, vcsSys.ID, proj, cfg)
	if err != nil {
		t.Fatalf("buildVersionDates() error = %v", err)
	}
	if _, ok := got["1.2.0"]; !ok {
		t.Errorf("buildVersionDates() = %v, want key for 1.2.0", got)
	}
}
