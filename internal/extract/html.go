package extract

import (
	"bytes"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// skipElements are removed with their whole subtree before flattening.
var skipElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
	"header": true,
	"footer": true,
	"nav":    true,
}

// blockElements start a new paragraph when paragraphs are kept.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"aside": true, "blockquote": true, "pre": true, "ul": true, "ol": true,
	"li": true, "dl": true, "dt": true, "dd": true, "table": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"figure": true, "figcaption": true, "form": true, "fieldset": true,
	"details": true, "summary": true, "address": true, "hr": true, "br": true,
}

// HTML parses an HTML document and returns its title and visible text.
// The title defaults to "Untitled". Text nodes are joined with single
// spaces; with keepParagraphs, block element boundaries become blank lines.
func HTML(body []byte, keepParagraphs bool) (title, text string, err error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}

	title = findTitle(doc)
	if title == "" {
		title = UntitledHTML
	}

	f := &flattener{keepParagraphs: keepParagraphs}
	f.walk(doc)
	return title, f.b.String(), nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
		return strings.Join(strings.Fields(sb.String()), " ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

type flattener struct {
	b              strings.Builder
	keepParagraphs bool
	pendingBreak   bool
}

func (f *flattener) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		t := strings.Join(strings.Fields(n.Data), " ")
		if t == "" {
			return
		}
		if f.b.Len() > 0 {
			if f.pendingBreak && f.keepParagraphs {
				f.b.WriteString("\n\n")
			} else {
				f.b.WriteByte(' ')
			}
		}
		f.b.WriteString(t)
		f.pendingBreak = false
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if skipElements[n.Data] {
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		f.pendingBreak = true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		f.walk(c)
	}
	if block {
		f.pendingBreak = true
	}
}

// Readable runs readability main-content extraction over an HTML page.
func Readable(body []byte, pageURL string) (string, bool) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return "", false
	}
	text := strings.TrimSpace(article.TextContent)
	return text, text != ""
}
