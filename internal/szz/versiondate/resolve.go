package versiondate

import (
	"context"
	"fmt"

	"github.com/smartshark/inducingSHARK/internal/store"
)

// ResolveTagDates loads vcsSystemID's tags, parses them into version
// vectors, and resolves each to the committer date of its (possibly
// corrected) revision — the join `git_tag_filter` + `Commit.committer_date`
// performs in the original.
func ResolveTagDates(ctx context.Context, st store.Store, vcsSystemID, projectName string) ([]TagDate, []ParsedTag, error) {
	tags, err := st.ListTags(ctx, vcsSystemID)
	if err != nil {
		return nil, nil, fmt.Errorf("versiondate: list tags: %w", err)
	}

	raw := make([]rawTag, len(tags))
	for i, t := range tags {
		raw[i] = NewRawTag(t.Original, t.EffectiveRevision())
	}

	parsed := ParseTags(raw, Options{ProjectName: projectName, DiscardPatch: false})

	dates := make([]TagDate, 0, len(parsed))
	for _, pt := range parsed {
		c, err := st.GetCommitByRevision(ctx, vcsSystemID, pt.Revision)
		if err != nil {
			continue
		}
		dates = append(dates, TagDate{Version: pt.Version, Date: c.CommitterDate})
	}
	return dates, parsed, nil
}
