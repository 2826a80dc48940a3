package versiondate

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2020, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestBoundaryDate_LatestIssueCreationWhenAffectedVersionsOff(t *testing.T) {
	issues := []IssueDate{
		{CreatedAt: day(1)},
		{CreatedAt: day(5)},
		{CreatedAt: day(3)},
	}
	got, ok := BoundaryDate(issues, nil, "", false)
	if !ok {
		t.Fatal("expected a boundary date")
	}
	if !got.Equal(day(5)) {
		t.Errorf("expected day 5, got %v", got)
	}
}

func TestBoundaryDate_AffectedVersionsTightenToEarliest(t *testing.T) {
	issues := []IssueDate{
		{CreatedAt: day(10), AffectsVersions: []string{"1.0.0"}},
	}
	versionDates := map[string][]time.Time{
		"1.0.0": {day(2)},
	}
	got, ok := BoundaryDate(issues, versionDates, "", true)
	if !ok {
		t.Fatal("expected a boundary date")
	}
	if !got.Equal(day(2)) {
		t.Errorf("expected earliest affected-version date (day 2) to win, got %v", got)
	}
}

func TestBoundaryDate_AffectedVersionNeverOverridesWithLaterDate(t *testing.T) {
	issues := []IssueDate{
		{CreatedAt: day(3), AffectsVersions: []string{"1.0.0"}},
	}
	versionDates := map[string][]time.Time{
		"1.0.0": {day(9)},
	}
	got, ok := BoundaryDate(issues, versionDates, "", true)
	if !ok {
		t.Fatal("expected a boundary date")
	}
	if !got.Equal(day(3)) {
		t.Errorf("expected min(bug date, av date) == bug date (day 3), got %v", got)
	}
}

func TestBoundaryDate_SkipsIssueWithNoReportingDate(t *testing.T) {
	issues := []IssueDate{
		{CreatedAt: time.Time{}},
		{CreatedAt: day(4)},
	}
	got, ok := BoundaryDate(issues, nil, "", false)
	if !ok {
		t.Fatal("expected a boundary date")
	}
	if !got.Equal(day(4)) {
		t.Errorf("expected day 4, got %v", got)
	}
}

func TestBoundaryDate_NoIssuesReturnsNotOK(t *testing.T) {
	_, ok := BoundaryDate(nil, nil, "", false)
	if ok {
		t.Error("expected no boundary date with no surviving issues")
	}
}

func TestBuildVersionDates_PrefixMatch(t *testing.T) {
	tags := []TagDate{
		{Version: []string{"3", "0", "0"}, Date: day(1)},
		{Version: []string{"3", "0", "1"}, Date: day(2)},
		{Version: []string{"3", "1", "0"}, Date: day(3)},
	}
	out := BuildVersionDates(tags, [][]string{{"3", "0"}})
	dates := out["3.0"]
	if len(dates) != 2 {
		t.Fatalf("expected 2 dates matching prefix 3.0, got %d: %v", len(dates), dates)
	}
}
