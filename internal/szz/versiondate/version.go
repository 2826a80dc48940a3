// Package versiondate parses VCS tags into version vectors, maps an
// issue's affected-version tuples to the tag dates that introduced them,
// and computes the boundary date that separates "inducing" from
// "suspect" in the classifier.
package versiondate

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// qualifiers is checked in order — "b" must come last so it doesn't
// swallow the "b" in "beta" or "rc-b2" style suffixes first.
var qualifiers = []string{"rc", "alpha", "beta", "b"}

var digitsRe = regexp.MustCompile(`[0-9]+`)
var nonDigitRe = regexp.MustCompile(`[^0-9]+`)

// ParsedTag is one tag reduced to a comparable version vector.
type ParsedTag struct {
	Original        string
	Revision        string
	Version         []string // zero-padded to length 3
	Qualifier       string   // pre-release qualifier name, e.g. "rc", "beta", "b"; "" if none
	QualifierNumber *string  // numeric suffix following Qualifier, e.g. "1" in "rc1"; nil if none
	Flier           bool
}

// Options controls which ParsedTags ParseTags keeps.
type Options struct {
	ProjectName       string
	DiscardQualifiers bool
	DiscardFliers     bool
	DiscardPatch bool // truncate Version to its first 2 components
}

// ParseTags reduces raw tags (name + revision, already resolved to the
// EffectiveRevision) into version vectors, applying qualifier
// extraction, separator selection, zero-padding, and (optionally)
// flier detection against the major-version component.
func ParseTags(tags []rawTag, opts Options) []ParsedTag {
	parsed := make([]ParsedTag, 0, len(tags))
	for _, t := range tags {
		pt, ok := parseOne(t, opts.ProjectName)
		if !ok {
			continue
		}
		parsed = append(parsed, pt)
	}

	markFliers(parsed)

	out := parsed[:0]
	for _, pt := range parsed {
		if opts.DiscardQualifiers && pt.Qualifier != "" {
			continue
		}
		if opts.DiscardFliers && pt.Flier {
			continue
		}
		if opts.DiscardPatch && len(pt.Version) > 2 {
			pt.Version = pt.Version[:2]
		}
		out = append(out, pt)
	}
	return out
}

// rawTag is the minimal input ParseTags needs — deliberately decoupled
// from store.Tag so this package has no dependency on the store layer.
type rawTag struct {
	Original string
	Revision string
}

// NewRawTag adapts a store.Tag-shaped pair of fields into a rawTag.
func NewRawTag(original, revision string) rawTag {
	return rawTag{Original: original, Revision: revision}
}

func parseOne(t rawTag, projectName string) (ParsedTag, bool) {
	name := strings.ToLower(t.Original)
	qualifier := ""
	var qualifierNumber *string

	for _, q := range qualifiers {
		idx := strings.Index(name, q)
		if idx < 0 {
			continue
		}
		suffix := name[idx+len(q):]
		suffix = nonDigitRe.ReplaceAllString(suffix, "")
		qualifier = q
		if suffix != "" {
			qualifierNumber = &suffix
		}
		name = name[:idx]
		break
	}

	if projectName != "" {
		name = strings.ReplaceAll(name, strings.ToLower(projectName), "")
	}

	sep := bestSeparator(name)
	var parts []string
	if sep == "" {
		parts = []string{name}
	} else {
		parts = strings.Split(name, sep)
	}

	version := make([]string, 0, len(parts))
	for _, p := range parts {
		digits := digitsRe.FindString(p)
		if digits == "" {
			continue
		}
		version = append(version, digits)
	}
	if len(version) == 0 {
		return ParsedTag{}, false
	}
	for len(version) < 3 {
		version = append(version, "0")
	}

	return ParsedTag{
		Original:        t.Original,
		Revision:        t.Revision,
		Version:         version,
		Qualifier:       qualifier,
		QualifierNumber: qualifierNumber,
	}, true
}

// bestSeparator picks whichever of '.', '_', '-' splits name into the
// most all-digit components, preferring '.' on ties (tried first).
func bestSeparator(name string) string {
	best := ""
	bestScore := -1
	for _, sep := range []string{".", "_", "-"} {
		parts := strings.Split(name, sep)
		score := 0
		for _, p := range parts {
			if p != "" && digitsRe.MatchString(p) && nonDigitRe.FindString(p) == "" {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = sep
		}
	}
	if bestScore <= 0 {
		return ""
	}
	return best
}

// markFliers flags each ParsedTag whose major-version component falls
// outside [Q1 - 1.5*IQR, Q3 + 1.5*IQR] of the sample of major versions,
// using gonum's linear-interpolation quantile.
func markFliers(tags []ParsedTag) {
	if len(tags) < 4 {
		return
	}
	majors := make([]float64, len(tags))
	for i, t := range tags {
		v, _ := strconv.ParseFloat(t.Version[0], 64)
		majors[i] = v
	}
	sorted := append([]float64(nil), majors...)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr

	for i := range tags {
		tags[i].Flier = majors[i] < lo || majors[i] > hi
	}
}
