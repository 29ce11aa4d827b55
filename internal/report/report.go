// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders fused results as a Markdown document, or as a
// standalone HTML page built from that Markdown.
package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pdiddy/research-dashboard/pkg/types"
)

// Report is everything a rendered report shows.
type Report struct {
	Query     string
	Keywords  []string
	Attempts  []types.QueryAttempt
	Records   []types.Record
	Patents   []types.Patent
	Summary   string
	Generated time.Time
}

var markdownTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"cell": cell,
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
	"date": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04 UTC") },
	"quote": func(s string) string {
		return "> " + strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n> ")
	},
}).Parse(`# Research report: {{.Query}}

_Generated {{date .Generated}}_
{{- if .Keywords}}

**Keywords:** {{join .Keywords ", "}}
{{- end}}
{{- if .Attempts}}

## Query attempts

| # | Query | Results |
|---|-------|---------|
{{- range $i, $a := .Attempts}}
| {{inc $i}} | {{cell $a.Query}} | {{$a.Results}} |
{{- end}}
{{- end}}
{{- if .Summary}}

## Summary

{{.Summary}}
{{- end}}
{{- if or .Records (not .Patents)}}

## Publications ({{len .Records}})
{{- if not .Records}}

No publications found.
{{- end}}
{{- end}}
{{- range $i, $r := .Records}}

### {{inc $i}}. {{$r.Title}}

- **Year:** {{if $r.PublicationYear}}{{$r.PublicationYear}}{{else}}unknown{{end}} | **Citations:** {{$r.CitationCount}} | **Similarity:** {{printf "%.2f" $r.SimilarityScore}}
{{- if $r.Authors}}
- **Authors:** {{join $r.Authors ", "}}
{{- end}}
{{- if $r.Topics}}
- **Topics:** {{join $r.Topics ", "}}
{{- end}}
{{- if $r.AccessURL}}
- **Link:** <{{$r.AccessURL}}>
{{- end}}

{{quote $r.Abstract}}
{{- end}}
{{- if .Patents}}

## Patents ({{len .Patents}})

| Patent | Title | Filed | Assignee |
|--------|-------|-------|----------|
{{- range .Patents}}
| {{if .URL}}[{{.PatentID}}]({{.URL}}){{else}}{{cell .PublicationNumber}}{{end}} | {{cell .Title}} | {{.FilingDate}} | {{cell .Assignee}} |
{{- end}}
{{- end}}
`))

// cell makes s safe inside a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// Markdown writes r as a Markdown document to w.
func Markdown(r Report, w io.Writer) error {
	if r.Generated.IsZero() {
		r.Generated = time.Now()
	}
	if err := markdownTmpl.Execute(w, r); err != nil {
		return fmt.Errorf("rendering markdown report: %w", err)
	}
	return nil
}

const htmlStyle = `body{font-family:system-ui,sans-serif;max-width:960px;margin:2rem auto;padding:0 1rem;line-height:1.5;color:#1c1917}` +
	`table{border-collapse:collapse;width:100%}th,td{border:1px solid #a8a29e;padding:.35rem .45rem;text-align:left;vertical-align:top}` +
	`thead th{background:#f1f5f9}blockquote{margin:.5rem 0;padding-left:1rem;border-left:3px solid #d6d3d1;color:#44403c}`

// HTML writes r as a standalone HTML page to w.
func HTML(r Report, w io.Writer) error {
	var md bytes.Buffer
	if err := Markdown(r, &md); err != nil {
		return err
	}
	var content bytes.Buffer
	conv := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := conv.Convert(md.Bytes(), &content); err != nil {
		return fmt.Errorf("markdown convert: %w", err)
	}
	_, err := fmt.Fprintf(w, "<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>Research report: %s</title><style>%s</style></head>\n<body>\n%s</body></html>\n",
		html.EscapeString(r.Query), htmlStyle, content.String())
	return err
}

// WriteFile renders r to path. Paths ending in .html or .htm get HTML;
// everything else gets Markdown.
func WriteFile(path string, r Report) error {
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		err = HTML(r, &buf)
	default:
		err = Markdown(r, &buf)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
