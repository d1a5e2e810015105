// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package digest renders a day's summarized papers as Markdown and HTML
// and exports them as YAML and JSON, ready for a mailer or a static site.
package digest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-digest/pkg/types"
)

const dateLayout = "2006-01-02"

// Digest is one rendered digest.
type Digest struct {
	Date     time.Time
	Markdown string
	HTML     string
}

// Export is the document written to the YAML and JSON files.
type Export struct {
	Date   string       `json:"date" yaml:"date"`
	Count  int          `json:"count" yaml:"count"`
	Papers []types.Item `json:"papers" yaml:"papers"`
}

var funcs = texttemplate.FuncMap{
	"join":  strings.Join,
	"day":   func(t time.Time) string { return formatDay(t) },
	"title": escapeLinkText,
	"link":  safeLink,
}

var markdownTmpl = texttemplate.Must(texttemplate.New("digest").Funcs(funcs).Parse(
	`# Research digest for {{day .Date}}

{{len .Items}} new paper(s).
{{range .Items}}
## [{{title .Title}}]({{link .URL}})
{{if .Authors}}
**Authors:** {{join .Authors ", "}}
{{end}}{{if not .Published.IsZero}}
**Published:** {{day .Published}}
{{end}}{{if .Categories}}
**Categories:** {{range $i, $c := .Categories}}{{if $i}} {{end}}` + "`{{$c}}`" + `{{end}}
{{end}}
{{if .Summary}}{{.Summary}}{{else}}_No summary available._{{end}}
{{end}}`))

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Research digest for {{.Date}}</title>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 50em; margin: auto; }
h2 { border-top: 1px solid #eee; padding-top: 20px; }
code { background-color: #f1f8ff; padding: 3px 8px; border-radius: 3px; font-size: 12px; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// md renders Markdown to HTML. Raw HTML in the source is dropped, so
// model output cannot inject markup.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Render builds the Markdown and HTML digest for items.
func Render(items []types.Item, date time.Time) (Digest, error) {
	var mdBuf bytes.Buffer
	if err := markdownTmpl.Execute(&mdBuf, struct {
		Date  time.Time
		Items []types.Item
	}{date, items}); err != nil {
		return Digest{}, fmt.Errorf("rendering markdown: %w", err)
	}

	var body bytes.Buffer
	if err := md.Convert(mdBuf.Bytes(), &body); err != nil {
		return Digest{}, fmt.Errorf("converting markdown: %w", err)
	}

	var page bytes.Buffer
	if err := pageTmpl.Execute(&page, struct {
		Date string
		Body template.HTML
	}{formatDay(date), template.HTML(body.String())}); err != nil {
		return Digest{}, fmt.Errorf("rendering html: %w", err)
	}

	return Digest{Date: date, Markdown: mdBuf.String(), HTML: page.String()}, nil
}

// Write renders items and writes digest-<date>.{md,html,yaml,json} under
// dir, returning the written paths. Nothing is written for an empty list.
func Write(dir string, date time.Time, items []types.Item) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating digest directory: %w", err)
	}

	d, err := Render(items, date)
	if err != nil {
		return nil, err
	}

	export := Export{Date: formatDay(date), Count: len(items), Papers: items}
	yamlData, err := yaml.Marshal(export)
	if err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	jsonData, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}

	base := filepath.Join(dir, "digest-"+formatDay(date))
	files := []struct {
		ext  string
		data []byte
	}{
		{".md", []byte(d.Markdown)},
		{".html", []byte(d.HTML)},
		{".yaml", yamlData},
		{".json", jsonData},
	}

	var paths []string
	for _, f := range files {
		p := base + f.ext
		if err := os.WriteFile(p, f.data, 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// escapeLinkText keeps brackets in a title from closing the link early.
func escapeLinkText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.NewReplacer(`\`, `\\`, "[", `\[`, "]", `\]`).Replace(s)
}

// safeLink passes through absolute http(s) URLs and replaces anything
// else with "#".
func safeLink(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "#"
	}
	return strings.NewReplacer("(", "%28", ")", "%29", " ", "%20").Replace(u.String())
}
