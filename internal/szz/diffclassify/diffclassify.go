// Package diffclassify decides whether a hunk's net effect is purely
// comments/whitespace, and whether a single deleted line looks like code.
// Both predicates only matter under the code_only blame strategy; under
// all, every deleted line is already a candidate.
package diffclassify

import (
	"regexp"
	"strings"
)

// stringLiteralRe matches a double-quoted string literal that does not
// cross a line boundary, backslash-escapes honored. Used to mask out
// string contents before comment matching, so `"// not a comment"` is
// never mistaken for the start of a line comment.
var stringLiteralRe = regexp.MustCompile(`"(?:[^"\\\r\n]|\\.)*"`)

// lineCommentRe matches a `//` line comment up to (not including) the
// line terminator.
var lineCommentRe = regexp.MustCompile(`//[^\r\n]*`)

// blockCommentRe matches a `/* ... */` block comment, non-greedy and
// spanning lines. RE2 has no lookahead, but the original's
// `([^*]|\*(?!/))*?\*/` is exactly what a non-greedy dot-all `.*?\*/`
// already expresses; no lookahead-based equivalent is needed.
var blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)

// jdocLineRe matches a diff line that is only a Javadoc-style continuation
// (`- *`, `+ *`, `- /*`, `+ /*`) — these are dropped before the
// removed/added comparison so a comment block's asterisk margin never
// counts as a content difference.
var jdocLineRe = regexp.MustCompile(`^[-+]\s*(\*|/\*).*$`)

var whitespaceRunRe = regexp.MustCompile(`\s+`)

// stripComments removes every `//` and `/* */` comment from content,
// without touching comment-like text inside a double-quoted string
// literal. It masks string-literal spans to the same byte length first,
// so the match offsets found against the masked copy apply unchanged to
// the original content.
func stripComments(content string) string {
	masked := maskStringLiterals(content)

	type span struct{ start, end int }
	var spans []span
	for _, m := range blockCommentRe.FindAllStringIndex(masked, -1) {
		spans = append(spans, span{m[0], m[1]})
	}
	for _, m := range lineCommentRe.FindAllStringIndex(masked, -1) {
		spans = append(spans, span{m[0], m[1]})
	}
	if len(spans) == 0 {
		return content
	}

	// Sort by start, then drop any span fully contained in an
	// already-kept one (a line comment inside an already-matched block
	// comment would otherwise double-strip the same bytes).
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && spans[j].start < spans[j-1].start; j-- {
			spans[j], spans[j-1] = spans[j-1], spans[j]
		}
	}
	var kept []span
	for _, s := range spans {
		if len(kept) > 0 && s.start < kept[len(kept)-1].end {
			continue
		}
		kept = append(kept, s)
	}

	var b strings.Builder
	pos := 0
	for _, s := range kept {
		b.WriteString(content[pos:s.start])
		pos = s.end
	}
	b.WriteString(content[pos:])
	return b.String()
}

// maskStringLiterals replaces the interior of every string literal with
// 'x', preserving length and quote characters, so later regex matches
// against the masked copy land on the same byte offsets as the original.
func maskStringLiterals(content string) string {
	return stringLiteralRe.ReplaceAllStringFunc(content, func(lit string) string {
		if len(lit) <= 2 {
			return lit
		}
		return lit[:1] + strings.Repeat("x", len(lit)-2) + lit[len(lit)-1:]
	})
}

// IsCommentOrWhitespaceOnly reports whether hunkContent's net effect,
// after stripping comments and collapsing whitespace runs, is empty: the
// concatenation of stripped '-' line bodies equals the concatenation of
// stripped '+' line bodies.
func IsCommentOrWhitespaceOnly(hunkContent string) bool {
	content := stripComments(hunkContent + "\n")

	var removed, added strings.Builder
	for _, line := range strings.Split(content, "\n") {
		line = whitespaceRunRe.ReplaceAllString(line, " ")
		if jdocLineRe.MatchString(line) {
			continue
		}
		switch {
		case strings.HasPrefix(line, "-"):
			removed.WriteString(strings.TrimSpace(line[1:]))
		case strings.HasPrefix(line, "+"):
			added.WriteString(strings.TrimSpace(line[1:]))
		}
	}
	return removed.String() == added.String()
}

// IsCodeLine reports whether a deleted line's trimmed body does not look
// like a comment: not starting with `//`, `/*`, or `*`.
func IsCodeLine(deletedLineText string) bool {
	trimmed := strings.TrimSpace(deletedLineText)
	return !(strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*"))
}
