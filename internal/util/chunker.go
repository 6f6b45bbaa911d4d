package util

import (
	"strings"
	"unicode"
)

// DefaultChunkSize is the chunk length in runes used when none is configured.
const DefaultChunkSize = 4096

// ChunkText splits text into chunks of at most chunkSize runes, consecutive
// chunks sharing overlap runes. A chunk that does not reach the end of text is
// cut after the last blank line, line break or space in its second half, so
// section headings and words stay whole. Blank chunks are dropped.
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	runes := []rune(text)
	out := make([]string, 0, len(runes)/chunkSize+1)
	for start := 0; start < len(runes); {
		end := start + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = cutPoint(runes, start, end)
		}
		if part := strings.TrimSpace(string(runes[start:end])); part != "" {
			out = append(out, part)
		}
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// cutPoint picks where the window runes[start:end] ends. A blank line wins
// over a line break, which wins over a space; with none of them in the second
// half of the window the cut stays at end.
func cutPoint(runes []rune, start, end int) int {
	line, space := -1, -1
	if unicode.IsSpace(runes[end]) {
		space = end
	}
	for i := end - 1; i > start+(end-start)/2; i-- {
		switch {
		case runes[i] == '\n' && runes[i-1] == '\n':
			return i + 1
		case runes[i] == '\n':
			if line < 0 {
				line = i + 1
			}
		case unicode.IsSpace(runes[i]):
			if space < 0 {
				space = i + 1
			}
		}
	}
	if line > 0 {
		return line
	}
	if space > 0 {
		return space
	}
	return end
}
