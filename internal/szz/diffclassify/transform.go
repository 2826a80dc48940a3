package diffclassify

import (
	"strings"

	"github.com/smartshark/inducingSHARK/internal/store"
)

// TransformHunkLines walks h.Content line by line, tracking the running
// old/new line numbers the way the original's pygit2 hunk dict did, and
// returns the absolute old-side and new-side line numbers that carry
// lines_verified[tag] — the hunk-relative line indices a human manually
// confirmed as bug-fixing. Used by the classifier's bugFixingLines to
// build the only_validated_bugfix_lines restriction passed to blame.
func TransformHunkLines(h store.Hunk, tag string) (addedLines, deletedLines []int) {
	verified := h.LinesVerified[tag]
	if len(verified) == 0 {
		return nil, nil
	}
	verifiedSet := make(map[int]bool, len(verified))
	for _, idx := range verified {
		verifiedSet[idx] = true
	}

	delLine := h.OldStart
	addLine := h.NewStart

	for i, line := range strings.Split(h.Content, "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			if verifiedSet[i] {
				addedLines = append(addedLines, addLine)
			}
			delLine--
		case strings.HasPrefix(line, "-"):
			if verifiedSet[i] {
				deletedLines = append(deletedLines, delLine)
			}
			addLine--
		}
		delLine++
		addLine++
	}
	return addedLines, deletedLines
}
