// Package review implements the long-form response assembly protocol: the
// submitted code is split into line-aligned chunks, each chunk is driven
// through as many bounded completion calls as the backend asks for, and the
// fragments are stitched back into one improved file.
package review

import (
	"strings"

	"github.com/sevigo/code-pilot/internal/core"
)

// DefaultMaxLines is the chunk size used when no positive limit is configured.
const DefaultMaxLines = 600

// Split breaks code into consecutive chunks of at most maxLines lines.
// Joining the chunk texts with "\n" yields the original input. Empty input
// produces a single empty chunk. A single line is never subdivided, however
// long it is.
func Split(code string, maxLines int) []core.Chunk {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	lines := strings.Split(code, "\n")
	chunks := make([]core.Chunk, 0, (len(lines)+maxLines-1)/maxLines)
	for start := 0; start < len(lines); start += maxLines {
		end := min(start+maxLines, len(lines))
		chunks = append(chunks, core.Chunk{
			Index:     len(chunks),
			Text:      strings.Join(lines[start:end], "\n"),
			StartLine: start + 1,
			LineCount: end - start,
		})
	}
	return chunks
}

// Join reassembles chunk texts into the original code.
func Join(chunks []core.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, "\n")
}
