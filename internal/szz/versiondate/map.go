package versiondate

import (
	"time"
)

// TagDate is a resolved version vector paired with the commit date that
// introduced it — the VCS side of the version→date join.
type TagDate struct {
	Version []string
	Date    time.Time
}

// AffectedVersion parses a raw JIRA "affects version" string the same
// way a tag name is parsed (qualifier stripped, zero-padded to 3
// components), so it can be compared against TagDate.Version by prefix.
func AffectedVersion(raw, projectName string) ([]string, bool) {
	pt, ok := parseOne(rawTag{Original: raw}, projectName)
	if !ok {
		return nil, false
	}
	return pt.Version, true
}

// BuildVersionDates maps each affected-version tuple appearing across
// issues to the set of tag dates whose version is a prefix match —
// "3.0" matches every "3.0.X" tag, "3.0.0" matches only that exact tag.
func BuildVersionDates(tags []TagDate, affectedVersions [][]string) map[string][]time.Time {
	out := make(map[string][]time.Time)
	for _, av := range affectedVersions {
		key := versionKey(av)
		for _, t := range tags {
			if !isPrefix(av, t.Version) {
				continue
			}
			out[key] = append(out[key], t.Date)
		}
	}
	return out
}

func isPrefix(prefix, full []string) bool {
	if len(prefix) > len(full) {
		return false
	}
	for i, p := range prefix {
		if full[i] != p {
			return false
		}
	}
	return true
}

func versionKey(v []string) string {
	key := ""
	for i, p := range v {
		if i > 0 {
			key += "."
		}
		key += p
	}
	return key
}
