package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"collapse", "a  b\t\tc\n\nd", "a b c d"},
		{"trim", "   padded   ", "padded"},
		{"keeps punctuation", `He said: "yes, (maybe); no!" -- ok?`, `He said: "yes, (maybe); no!" -- ok?`},
		{"keeps dashes", "2019–2020 — a decade", "2019–2020 — a decade"},
		{"drops symbols", "price: $100 & more™", "price: 100 more"},
		{"symbol between words splits them", "alpha•beta", "alpha beta"},
		{"keeps unicode letters", "naïve café Ελληνικά 日本語", "naïve café Ελληνικά 日本語"},
		{"keeps underscore and digits", "snake_case 42", "snake_case 42"},
		{"nbsp is whitespace", "a\u00a0\u00a0b", "a b"},
		{"composes to nfc", "cafe\u0301", "caf\u00e9"},
		{"emoji dropped", "hello 👋 world", "hello world"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"  <div>Markup &amp; entities</div>  ",
		"Tabs\tand\nnewlines\r\n\r\nparagraphs",
		"é combining ́ orphan mark",
		"mixed: ½ ² ① ™ © § ¶ → ∑ ≠",
		"   odd spaces 　 here",
		"quotes “curly” ‘single’ «guillemets»",
		strings.Repeat("Sentence with ~weird~ ^chars^ | pipes. ", 20),
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "input %q", in)

		paras := CleanParagraphs(in)
		assert.Equal(t, paras, CleanParagraphs(paras), "paragraph input %q", in)
	}
}

func TestCleanParagraphs(t *testing.T) {
	in := "First  paragraph\nwraps here.\n\n\n  Second ™ paragraph.  \n \n\n★\n\nThird."
	want := "First paragraph wraps here.\n\nSecond paragraph.\n\nThird."
	assert.Equal(t, want, CleanParagraphs(in))
	assert.Equal(t, "", CleanParagraphs(""))
	assert.Equal(t, "", CleanParagraphs("★ ☆\n\n♥"))
}

func TestCleanParagraphsFlattensToClean(t *testing.T) {
	in := "One.\n\nTwo   words.\n\nThree!"
	flat := strings.Join(strings.Fields(CleanParagraphs(in)), " ")
	assert.Equal(t, Clean(in), flat)
}

func TestAllowed(t *testing.T) {
	for _, r := range "aZé9_ .,;:!?'\"-()–—" {
		assert.True(t, Allowed(r), "%q should be allowed", r)
	}
	for _, r := range "$&*#@<>[]{}|\\/~^`+=%™©•" {
		assert.False(t, Allowed(r), "%q should not be allowed", r)
	}
}
