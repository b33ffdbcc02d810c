// Package chunker implements the core's deterministic text splitter,
// generalizing the teacher's ParagraphChunker/SentenceChunker from
// path-tagged semantic chunking to the plain ordered-strings contract
// Stage B's construct package needs.
package chunker

import (
	"strings"
)

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
)

// Chunk splits text into an ordered sequence of chunks no longer than size,
// each consecutive pair sharing up to overlap trailing/leading characters.
// Splitting recurses paragraph boundary -> sentence boundary -> fixed
// character window, never breaking mid-word when a word boundary exists
// within the last 20% of the window. Pure: identical input always produces
// identical output.
func Chunk(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap > size-2 {
		overlap = size / 5
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []string{}, nil
	}

	// Leave room for the overlap prefix and its separating space that
	// applyOverlap adds, so no finished chunk exceeds size.
	windowSize := size
	if overlap > 0 {
		windowSize = size - overlap - 1
	}

	units := splitParagraphs(trimmed)
	windows := packUnits(units, windowSize)

	return applyOverlap(windows, overlap), nil
}

// splitParagraphs performs the recursive descent: paragraph -> sentence ->
// fixed window, returning units no single one of which exceeds size
// characters (size is applied lazily by packUnits via splitSentences'
// windowing, so splitParagraphs itself only enforces sentence granularity).
func splitParagraphs(text string) []string {
	paras := strings.Split(text, "\n\n")
	var units []string
	for _, p := range paras {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		units = append(units, splitSentences(p)...)
	}
	return units
}

func splitSentences(paragraph string) []string {
	replacer := strings.NewReplacer("! ", "!|", "? ", "?|", ". ", ".|")
	marked := replacer.Replace(paragraph)
	parts := strings.Split(marked, "|")

	var sentences []string
	for _, s := range parts {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return []string{paragraph}
	}
	return sentences
}

// packUnits greedily packs sentence units into windows of at most size
// characters, falling back to a fixed-width split for any unit that alone
// exceeds size.
func packUnits(units []string, size int) []string {
	var windows []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			windows = append(windows, current.String())
			current.Reset()
		}
	}

	for _, u := range units {
		if len(u) > size {
			flush()
			windows = append(windows, splitFixedWindow(u, size)...)
			continue
		}

		candidateLen := current.Len() + len(u)
		if current.Len() > 0 {
			candidateLen++ // separating space
		}

		if candidateLen > size {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(u)
	}
	flush()

	return windows
}

// splitFixedWindow splits a single oversized unit into size-character
// windows, cutting each window back to the last space within its final 20%
// when one exists, so a split never lands mid-word.
func splitFixedWindow(text string, size int) []string {
	var out []string
	runes := []rune(text)
	tailFraction := size / 5

	for len(runes) > 0 {
		if len(runes) <= size {
			out = append(out, strings.TrimSpace(string(runes)))
			break
		}

		cut := size
		tailStart := size - tailFraction
		if tailStart < 0 {
			tailStart = 0
		}
		for i := size - 1; i >= tailStart; i-- {
			if runes[i] == ' ' {
				cut = i
				break
			}
		}

		out = append(out, strings.TrimSpace(string(runes[:cut])))
		runes = runes[cut:]
	}

	return out
}

// applyOverlap prepends up to overlap trailing characters of each window to
// the next, so adjacent chunks share context.
func applyOverlap(windows []string, overlap int) []string {
	if overlap == 0 || len(windows) < 2 {
		return windows
	}

	out := make([]string, len(windows))
	out[0] = windows[0]
	for i := 1; i < len(windows); i++ {
		prev := []rune(windows[i-1])
		tailLen := overlap
		if tailLen > len(prev) {
			tailLen = len(prev)
		}
		tail := string(prev[len(prev)-tailLen:])
		out[i] = strings.TrimSpace(tail + " " + windows[i])
	}
	return out
}
