package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

var pageTmpl = template.Must(template.New("report").Parse(pageTemplate))

// RenderHTML renders the report as a standalone HTML page with its
// citation list. Raw HTML in the model output is dropped.
func RenderHTML(r *Report) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(r.Content), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var out bytes.Buffer
	err := pageTmpl.Execute(&out, struct {
		Query     string
		Body      template.HTML
		Citations []Citation
		Generated string
	}{
		Query:     r.Query,
		Body:      template.HTML(body.String()),
		Citations: r.Citations,
		Generated: r.GeneratedAt.Format("2006-01-02 15:04 MST"),
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return out.Bytes(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Query}}</title>
  <style>
    body { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; font: 16px/1.6 system-ui, sans-serif; color: #1f2328; }
    h1, h2, h3 { line-height: 1.25; }
    pre { padding: 1rem; overflow-x: auto; border-radius: 6px; background: #f6f8fa; }
    .meta { color: #59636e; font-size: 0.875rem; }
    .citations li { margin-bottom: 0.25rem; word-break: break-word; }
  </style>
</head>
<body>
  <header>
    <h1>{{.Query}}</h1>
    <p class="meta">Generated {{.Generated}}</p>
  </header>
  <article>
{{.Body}}
  </article>
  {{if .Citations}}<section class="citations">
    <h2>Sources</h2>
    <ol>
      {{range .Citations}}<li id="source-{{.ID}}">{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}} <span class="meta">{{.SourceType}}{{if not .RetrievedAt.IsZero}}, retrieved {{.RetrievedAt.Format "2006-01-02"}}{{end}}</span></li>
      {{end}}
    </ol>
  </section>{{end}}
</body>
</html>`
