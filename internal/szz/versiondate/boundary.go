package versiondate

import "time"

// IssueDate is the minimal issue shape the boundary calculation needs —
// decoupled from store.Issue the same way rawTag decouples from
// store.Tag.
type IssueDate struct {
	CreatedAt        time.Time
	AffectsVersions []string
}

// BoundaryDate computes the suspect boundary for a bug-fix: the latest
// of its linked issues' reporting dates, optionally tightened to the
// earliest known affected-version date when useAffectedVersions is set.
// issues must already be filtered to the ones that survive the
// classifier's issue-filtering rules; an issue with a zero CreatedAt is
// skipped (mirrors the original logging-and-skipping an issue with no
// reporting date).
func BoundaryDate(issues []IssueDate, versionDates map[string][]time.Time, projectName string, useAffectedVersions bool) (time.Time, bool) {
	var dBug time.Time
	haveBug := false
	var avDates []time.Time

	for _, iss := range issues {
		if iss.CreatedAt.IsZero() {
			continue
		}
		if !haveBug || iss.CreatedAt.After(dBug) {
			dBug = iss.CreatedAt
			haveBug = true
		}

		for _, raw := range iss.AffectsVersions {
			av, ok := AffectedVersion(raw, projectName)
			if !ok {
				continue
			}
			for _, d := range versionDates[versionKey(av)] {
				avDates = append(avDates, d)
			}
		}
	}

	if !haveBug {
		return time.Time{}, false
	}

	if useAffectedVersions && len(avDates) > 0 {
		dAV := avDates[0]
		for _, d := range avDates[1:] {
			if d.Before(dAV) {
				dAV = d
			}
		}
		if dAV.Before(dBug) {
			return dAV, true
		}
	}
	return dBug, true
}
