// Package align matches speech transcripts to lyric lines.
package align

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultMinRatio is the minimum similarity required to accept a match.
const DefaultMinRatio = 0.45

// Line pairs an original lyric line with its translation.
type Line struct {
	// Index is the position of the line in the song.
	Index int

	// Original is the lyric line as published.
	Original string

	// Translation is the line in the target language.
	Translation string
}

// Aligner is a stateful fuzzy matcher between transcripts and lyric lines.
//
// The cursor only moves forward: once a line has been matched, earlier lines
// are never reported again. This keeps the output in song order even when a
// transcript resembles a chorus line that already played.
type Aligner struct {
	mu       sync.Mutex
	lines    []Line
	cursor   int
	minRatio float64
}

// Option configures an Aligner.
type Option func(*Aligner)

// WithMinRatio sets the minimum similarity ratio for a match (0.0-1.0).
func WithMinRatio(ratio float64) Option {
	return func(a *Aligner) {
		a.minRatio = ratio
	}
}

// New creates an aligner over the given lyrics and their translations.
// Extra entries in the longer slice are ignored, mirroring a pairwise zip.
func New(lyrics, translations []string, opts ...Option) *Aligner {
	n := len(lyrics)
	if len(translations) < n {
		n = len(translations)
	}

	lines := make([]Line, n)
	for i := 0; i < n; i++ {
		lines[i] = Line{
			Index:       i,
			Original:    lyrics[i],
			Translation: translations[i],
		}
	}

	a := &Aligner{
		lines:    lines,
		cursor:   -1,
		minRatio: DefaultMinRatio,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Process returns the best matching lyric line for the transcript, or nil
// when no line scores at or above the minimum ratio, or when the best match
// would move the cursor backward.
func (a *Aligner) Process(transcript string) *Line {
	normalized := strings.ToLower(strings.TrimSpace(transcript))
	if normalized == "" {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	start := a.cursor
	if start < 0 {
		start = 0
	}

	bestIdx := -1
	bestRatio := 0.0
	for idx := start; idx < len(a.lines); idx++ {
		candidate := strings.ToLower(a.lines[idx].Original)
		ratio := Ratio(candidate, normalized)
		if bestIdx == -1 || ratio > bestRatio {
			bestIdx, bestRatio = idx, ratio
		}
	}

	if bestIdx == -1 || bestRatio < a.minRatio {
		return nil
	}
	if bestIdx <= a.cursor {
		return nil
	}

	a.cursor = bestIdx
	line := a.lines[bestIdx]
	return &line
}

// Cursor returns the index of the last matched line, or -1 before any match.
func (a *Aligner) Cursor() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cursor
}

// Len returns the number of lyric lines.
func (a *Aligner) Len() int {
	return len(a.lines)
}

// Ratio computes a similarity ratio between two strings from their
// Levenshtein distance: 1.0 for identical strings, 0.0 for fully distinct.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}
