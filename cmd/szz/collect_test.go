package main

import (
	"bytes"
	"testing"

	"github.com/smartshark/inducingSHARK/internal/output"
)

func TestRenderCollectSummary_ReportNestsIngestSection(t *testing.T) {
	summary := collectSummary{Project: "demo", Commits: 12, Tags: 3, Hunks: 40}
	section := &output.Section{
		Title:   "ingest summary",
		Content: "collected 12 commits, 3 tags, 40 hunks for project \"demo\"",
		Data:    summary,
	}
	report := &output.Report{Title: "szz collect", Sections: []output.Renderable{section}}

	var md bytes.Buffer
	if err := report.RenderMarkdown(&md); err != nil {
		t.Fatalf("RenderMarkdown() error = %v", err)
	}
	want := "# szz collect\n\n" +
		"## ingest summary\n\n" +
		"collected 12 commits, 3 tags, 40 hunks for project \"demo\"\n\n"
	if md.String() != want {
		t.Errorf("RenderMarkdown() = %q, want %q", md.String(), want)
	}

	data, ok := report.RenderData().(map[string]any)
	if !ok {
		t.Fatalf("RenderData() = %T, want map[string]any", report.RenderData())
	}
	if data["title"] != "szz collect" {
		t.Errorf("RenderData()[\"title\"] = %v, want %q", data["title"], "szz collect")
	}
}
