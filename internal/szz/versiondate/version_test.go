package versiondate

import "testing"

func TestParseTags_BasicDotSeparated(t *testing.T) {
	tags := []rawTag{
		{Original: "myproject-3.0.1", Revision: "r1"},
		{Original: "myproject-3.1.0", Revision: "r2"},
	}
	parsed := ParseTags(tags, Options{ProjectName: "myproject"})
	if len(parsed) != 2 {
		t.Fatalf("expected 2 parsed tags, got %d", len(parsed))
	}
	if got := parsed[0].Version; got[0] != "3" || got[1] != "0" || got[2] != "1" {
		t.Errorf("unexpected version vector %v", got)
	}
}

func TestParseTags_QualifierExtraction(t *testing.T) {
	parsed := ParseTags([]rawTag{{Original: "v2.0.0-rc1", Revision: "r1"}}, Options{})
	if len(parsed) != 1 {
		t.Fatalf("expected 1 parsed tag, got %d", len(parsed))
	}
	if parsed[0].Qualifier != "rc" {
		t.Errorf("expected qualifier name rc, got %q", parsed[0].Qualifier)
	}
	if parsed[0].QualifierNumber == nil || *parsed[0].QualifierNumber != "1" {
		t.Errorf("expected qualifier number 1, got %v", parsed[0].QualifierNumber)
	}
	if got := parsed[0].Version; got[0] != "2" || got[1] != "0" || got[2] != "0" {
		t.Errorf("unexpected version vector %v", got)
	}
}

func TestParseTags_QualifierWithoutNumericSuffix(t *testing.T) {
	parsed := ParseTags([]rawTag{{Original: "v1.0.0-beta", Revision: "r1"}}, Options{})
	if len(parsed) != 1 {
		t.Fatalf("expected 1 parsed tag, got %d", len(parsed))
	}
	if parsed[0].Qualifier != "beta" {
		t.Errorf("expected qualifier name beta, got %q", parsed[0].Qualifier)
	}
	if parsed[0].QualifierNumber != nil {
		t.Errorf("expected no qualifier number, got %v", *parsed[0].QualifierNumber)
	}
}

func TestParseTags_DiscardQualifiers(t *testing.T) {
	tags := []rawTag{
		{Original: "v1.0.0", Revision: "r1"},
		{Original: "v1.0.0-beta", Revision: "r2"},
	}
	parsed := ParseTags(tags, Options{DiscardQualifiers: true})
	if len(parsed) != 1 {
		t.Fatalf("expected 1 tag after discarding qualifiers, got %d", len(parsed))
	}
	if parsed[0].Qualifier != "" {
		t.Errorf("expected no qualifier to survive, got %q", parsed[0].Qualifier)
	}
}

func TestParseTags_DiscardPatchTruncatesToTwoComponents(t *testing.T) {
	parsed := ParseTags([]rawTag{{Original: "v2.3.9", Revision: "r1"}}, Options{DiscardPatch: true})
	if len(parsed) != 1 {
		t.Fatalf("expected 1 parsed tag, got %d", len(parsed))
	}
	if len(parsed[0].Version) != 2 {
		t.Fatalf("expected truncated 2-component version, got %v", parsed[0].Version)
	}
}

func TestParseTags_ZeroPadsShortVersions(t *testing.T) {
	parsed := ParseTags([]rawTag{{Original: "v2", Revision: "r1"}}, Options{})
	if len(parsed) != 1 {
		t.Fatalf("expected 1 parsed tag, got %d", len(parsed))
	}
	if got := parsed[0].Version; len(got) != 3 || got[1] != "0" || got[2] != "0" {
		t.Errorf("expected zero-padded [2 0 0], got %v", got)
	}
}

func TestParseTags_SkipsUnparsableTag(t *testing.T) {
	parsed := ParseTags([]rawTag{{Original: "nightly-build", Revision: "r1"}}, Options{})
	if len(parsed) != 0 {
		t.Fatalf("expected no version extracted from a non-numeric tag, got %v", parsed)
	}
}

func TestParseTags_FliersMarkOutliers(t *testing.T) {
	tags := []rawTag{
		{Original: "v1.0.0", Revision: "r1"},
		{Original: "v1.1.0", Revision: "r2"},
		{Original: "v1.2.0", Revision: "r3"},
		{Original: "v1.3.0", Revision: "r4"},
		{Original: "v99.0.0", Revision: "r5"},
	}
	parsed := ParseTags(tags, Options{})
	if len(parsed) != 5 {
		t.Fatalf("expected all 5 tags parsed, got %d", len(parsed))
	}
	var flierCount int
	for _, pt := range parsed {
		if pt.Flier {
			flierCount++
			if pt.Original != "v99.0.0" {
				t.Errorf("unexpected flier %q", pt.Original)
			}
		}
	}
	if flierCount != 1 {
		t.Errorf("expected exactly 1 flier, got %d", flierCount)
	}
}

func TestParseTags_DiscardFliers(t *testing.T) {
	tags := []rawTag{
		{Original: "v1.0.0", Revision: "r1"},
		{Original: "v1.1.0", Revision: "r2"},
		{Original: "v1.2.0", Revision: "r3"},
		{Original: "v1.3.0", Revision: "r4"},
		{Original: "v99.0.0", Revision: "r5"},
	}
	parsed := ParseTags(tags, Options{DiscardFliers: true})
	for _, pt := range parsed {
		if pt.Original == "v99.0.0" {
			t.Errorf("expected flier v99.0.0 to be discarded")
		}
	}
}

func TestBestSeparator_PrefersMostAllDigitComponents(t *testing.T) {
	if sep := bestSeparator("1_2_3"); sep != "_" {
		t.Errorf("expected underscore separator, got %q", sep)
	}
	if sep := bestSeparator("1.2.3"); sep != "." {
		t.Errorf("expected dot separator, got %q", sep)
	}
}
