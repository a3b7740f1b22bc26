// Package normalize turns extracted document text into a canonical form
// suitable for chunking and embedding.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/Acid-base/researcher/internal/textseg"
)

// ParagraphSeparator joins paragraphs in the output of CleanParagraphs.
const ParagraphSeparator = "\n\n"

// Clean collapses whitespace, replaces characters outside the allow-list
// with spaces, collapses again, trims, and composes the result to NFC.
// Clean(Clean(s)) == Clean(s) for every s.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	s := collapse(text)
	s = strings.Map(func(r rune) rune {
		if Allowed(r) {
			return r
		}
		return ' '
	}, s)
	s = collapse(s)
	return norm.NFC.String(s)
}

// CleanParagraphs applies Clean to every paragraph of text and joins the
// non-empty results with ParagraphSeparator, so blank-line paragraph
// boundaries survive normalization.
func CleanParagraphs(text string) string {
	if text == "" {
		return ""
	}
	paras := textseg.Paragraphs(text)
	out := make([]string, 0, len(paras))
	for _, p := range paras {
		if c := Clean(p); c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, ParagraphSeparator)
}

// Allowed reports whether r survives cleaning: letters, marks, numbers,
// underscore, whitespace, basic punctuation and dash variants.
func Allowed(r rune) bool {
	switch {
	case unicode.IsLetter(r), unicode.IsMark(r), unicode.IsNumber(r), unicode.IsSpace(r):
		return true
	}
	switch r {
	case '_', '.', ',', ';', ':', '!', '?', '\'', '"', '-', '(', ')':
		return true
	case '‒', '–', '—', '―': // figure, en, em, horizontal bar
		return true
	}
	return false
}

// collapse replaces every whitespace run with one space and trims the ends.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
