// Package textseg splits text into paragraph and sentence spans.
//
// The tokenizers are explicit scanners rather than regular expressions so
// that sentence boundaries (a terminator followed by whitespace) do not
// depend on lookbehind support.
package textseg

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span is a half-open byte range [Start, End) into the source text.
type Span struct {
	Start int
	End   int
}

// Text returns the slice of src covered by the span.
func (s Span) Text(src string) string {
	return src[s.Start:s.End]
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// ParagraphSpans returns the paragraphs of text in order. A paragraph
// boundary is any whitespace run containing at least two newlines. Spans
// are trimmed of surrounding whitespace and empty paragraphs are dropped.
func ParagraphSpans(text string) []Span {
	var spans []Span
	start := 0
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			i += size
			continue
		}
		runStart := i
		newlines := 0
		for i < len(text) {
			r, size = utf8.DecodeRuneInString(text[i:])
			if !unicode.IsSpace(r) {
				break
			}
			if r == '\n' {
				newlines++
			}
			i += size
		}
		if newlines >= 2 {
			spans = appendTrimmed(spans, text, start, runStart)
			start = i
		}
	}
	return appendTrimmed(spans, text, start, len(text))
}

// SentenceSpans returns the sentences of text in order. A sentence ends
// after '.', '!' or '?' when the next character is whitespace. Trailing
// text without a terminator forms the final sentence.
func SentenceSpans(text string) []Span {
	var spans []Span
	start := 0
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i >= len(text) {
			break
		}
		next, _ := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(next) {
			continue
		}
		spans = appendTrimmed(spans, text, start, i)
		start = i
	}
	return appendTrimmed(spans, text, start, len(text))
}

// Paragraphs returns the trimmed paragraph texts of text.
func Paragraphs(text string) []string {
	return texts(text, ParagraphSpans(text))
}

// Sentences returns the trimmed sentence texts of text.
func Sentences(text string) []string {
	return texts(text, SentenceSpans(text))
}

func texts(src string, spans []Span) []string {
	if len(spans) == 0 {
		return nil
	}
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Text(src)
	}
	return out
}

func appendTrimmed(spans []Span, text string, start, end int) []Span {
	seg := text[start:end]
	lead := len(seg) - len(strings.TrimLeftFunc(seg, unicode.IsSpace))
	trimmed := strings.TrimSpace(seg)
	if trimmed == "" {
		return spans
	}
	s := start + lead
	return append(spans, Span{Start: s, End: s + len(trimmed)})
}
