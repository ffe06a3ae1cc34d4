package rag

import "strings"

// Chunking defaults for corpus ingestion.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// ChunkText splits text into overlapping chunks of roughly size runes,
// preferring to break at whitespace near the boundary.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	var chunks []string
	step := size - overlap
	start := 0
	for start < len(runes) {
		// A chunk boundary inside a word shifts forward to the next
		// word start. The skipped runes are covered by the previous
		// chunk's overlap.
		shifted := start
		for shifted < len(runes) && shifted > 0 && !isSpace(runes[shifted-1]) {
			if shifted-start >= overlap {
				shifted = start
				break
			}
			shifted++
		}
		start = shifted

		end := start + size
		if end >= len(runes) {
			tail := strings.TrimSpace(string(runes[start:]))
			if tail != "" {
				chunks = append(chunks, tail)
			}
			break
		}

		// Back up to the nearest whitespace to avoid splitting words.
		cut := end
		for cut > start+step && !isSpace(runes[cut-1]) {
			cut--
		}
		if cut == start+step {
			cut = end
		}
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		start += step
	}
	return chunks
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
