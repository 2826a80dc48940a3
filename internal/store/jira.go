package store

import "net/url"

// ValidateJIRAURL enforces the JIRA-only IssueSystem constraint from
// spec.md: the tracker URL must carry a `project=<KEY>` query parameter.
// Any other issue tracker (GitHub Issues, Bugzilla, ...) is a fatal
// configuration error, not a degrade-and-continue.
func ValidateJIRAURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ErrNonJIRAIssueSystem
	}
	if u.Query().Get("project") == "" {
		return ErrNonJIRAIssueSystem
	}
	return nil
}
