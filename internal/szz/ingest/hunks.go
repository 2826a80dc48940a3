package ingest

import (
	"strings"

	"github.com/smartshark/inducingSHARK/internal/store"
	"github.com/smartshark/inducingSHARK/internal/vcs"
)

// buildHunks groups a file patch's chunks into maximal runs of add/delete
// content, the way the original's pygit2 collection does with
// context_lines=0: equal chunks only advance the line cursors, they never
// appear in Hunk.Content.
func buildHunks(fp vcs.FilePatch) []store.Hunk {
	var hunks []store.Hunk
	oldLine, newLine := 0, 0

	var open *store.Hunk
	var content strings.Builder

	flush := func() {
		if open == nil {
			return
		}
		open.Content = content.String()
		hunks = append(hunks, *open)
		open = nil
		content.Reset()
	}

	for _, chunk := range fp.Chunks() {
		lines := splitLines(chunk.Content())
		switch chunk.Type() {
		case vcs.ChunkEqual:
			flush()
			oldLine += len(lines)
			newLine += len(lines)
		case vcs.ChunkDelete:
			if open == nil {
				open = &store.Hunk{OldStart: oldLine + 1, NewStart: newLine + 1}
			}
			for _, l := range lines {
				content.WriteString("-")
				content.WriteString(l)
				content.WriteString("\n")
			}
			open.OldLines += len(lines)
			oldLine += len(lines)
		case vcs.ChunkAdd:
			if open == nil {
				open = &store.Hunk{OldStart: oldLine + 1, NewStart: newLine + 1}
			}
			for _, l := range lines {
				content.WriteString("+")
				content.WriteString(l)
				content.WriteString("\n")
			}
			open.NewLines += len(lines)
			newLine += len(lines)
		}
	}
	flush()

	return hunks
}

// splitLines splits chunk content into lines without an empty trailing
// element for a final newline (go-git's Chunk.Content() includes line
// terminators; the original's hunk lines do not).
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(content, "\n")
	if trimmed == "" {
		return []string{""}
	}
	return strings.Split(trimmed, "\n")
}

// sumLines totals LinesAdded/LinesDeleted across a FileAction's hunks.
func sumLines(hunks []store.Hunk) (added, deleted int) {
	for _, h := range hunks {
		added += h.NewLines
		deleted += h.OldLines
	}
	return added, deleted
}

// rawContent reconstructs a whole-file text from a FilePatch whose chunks
// are all one type — true for any FilePatch behind a pure add or pure
// delete Change, which is exactly what go-git hands us for an Insert/Delete
// action. Used as the rename/copy similarity input instead of a second
// tree read, since the patch content already equals the blob text.
func rawContent(fp vcs.FilePatch) string {
	var b strings.Builder
	for _, chunk := range fp.Chunks() {
		b.WriteString(chunk.Content())
	}
	return b.String()
}
