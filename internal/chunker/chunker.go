// Package chunker splits normalized text into bounded, overlapping chunks
// that prefer paragraph and sentence boundaries.
//
// Lengths are measured in runes. The size is a soft target: a single
// sentence longer than the size is emitted as its own chunk.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/Acid-base/researcher/internal/textseg"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 100
)

// Splitter holds chunking parameters.
type Splitter struct {
	Size    int
	Overlap int
}

// Default returns a Splitter with the default size and overlap.
func Default() Splitter {
	return Splitter{Size: DefaultSize, Overlap: DefaultOverlap}
}

// Chunk splits text with the given size and overlap.
func Chunk(text string, size, overlap int) []string {
	return Splitter{Size: size, Overlap: overlap}.Split(text)
}

// Split runs two passes over text.
//
// Pass one greedily packs paragraphs into chunks. When the next unit does
// not fit, the running chunk is closed and the next chunk is seeded with
// its trailing Overlap runes. A paragraph that alone exceeds Size is fed
// to this pass sentence by sentence, so overlap also applies inside long
// paragraphs.
//
// Pass two re-splits any chunk still over Size at sentence boundaries,
// without overlap.
func (s Splitter) Split(text string) []string {
	size, overlap := s.Size, s.Overlap
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}

	var units []string
	for _, p := range textseg.Paragraphs(text) {
		if runeLen(p) > size {
			units = append(units, textseg.Sentences(p)...)
			continue
		}
		units = append(units, p)
	}
	if len(units) == 0 {
		return []string{}
	}

	first := pack(units, size, overlap)

	out := make([]string, 0, len(first))
	for _, c := range first {
		if runeLen(c) <= size {
			out = append(out, c)
			continue
		}
		out = append(out, pack(textseg.Sentences(c), size, 0)...)
	}
	return out
}

// pack greedily accumulates units into chunks of at most size runes,
// counting the joining space. An empty running chunk always accepts the
// next unit, however long.
func pack(units []string, size, overlap int) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() string {
		c := strings.TrimSpace(cur.String())
		if c != "" {
			chunks = append(chunks, c)
		}
		cur.Reset()
		curLen = 0
		return c
	}

	for _, u := range units {
		ul := runeLen(u)
		if curLen > 0 && curLen+1+ul > size {
			closed := flush()
			if overlap > 0 && runeLen(closed) >= overlap {
				tail := lastRunes(closed, overlap)
				cur.WriteString(tail)
				curLen = runeLen(tail)
			}
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(u)
		curLen += ul
	}
	flush()
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// lastRunes returns the final n runes of s.
func lastRunes(s string, n int) string {
	i := len(s)
	for count := 0; count < n && i > 0; count++ {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}
