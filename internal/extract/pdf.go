package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts the plain text of every page in order. Pages are joined
// with blank lines; no layout is reconstructed.
func PDF(content []byte) (text string, err error) {
	if len(content) == 0 {
		return "", ErrNoContent
	}
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}
	return sb.String(), nil
}

// PDFTitle derives a title from the last path segment of a PDF URL with
// the ".pdf" suffix removed.
func PDFTitle(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	base := path.Base(strings.TrimRight(p, "/"))
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	if strings.HasSuffix(strings.ToLower(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	base = strings.TrimSpace(base)
	if base == "" || base == "." || base == "/" {
		return UntitledPDF
	}
	return base
}
