// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search holds the provider sources (OpenAlex, Semantic Scholar,
// patents, ORCID) and the exporters for their results: tables, JSON,
// CSL-YAML, and saved query files.
//
// Sources never return errors for per-request failures. The Transport
// absorbs them and hands back an empty payload.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/research-dashboard/internal/httputil"
	"github.com/pdiddy/research-dashboard/pkg/types"
)

// Transport issues JSON requests. *httputil.Fetcher implements it.
type Transport interface {
	Get(ctx context.Context, endpoint string, params url.Values) httputil.Payload
	Post(ctx context.Context, endpoint string, payload any) httputil.Payload
}

// FormatTable writes records as a human-readable table to w.
func FormatTable(records []types.Record, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-6s  %-5s  %s\n",
		"Rank", "Title", "Authors", "Year", "Cites", "Score", "DOI")
	fmt.Fprintln(w, strings.Repeat("-", 130))

	for i, r := range records {
		year := ""
		if r.PublicationYear > 0 {
			year = fmt.Sprintf("%d", r.PublicationYear)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-6d  %-5.2f  %s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.Authors), year,
			r.CitationCount, r.SimilarityScore, r.Identifier)
	}

	fmt.Fprintf(w, "\n%d results\n", len(records))
}

// FormatPatents writes patents as a table to w.
func FormatPatents(patents []types.Patent, w io.Writer) {
	if len(patents) == 0 {
		fmt.Fprintln(w, "No patents found.")
		return
	}

	fmt.Fprintf(w, "%-18s  %-60s  %-20s  %-10s  %s\n",
		"Patent", "Title", "Inventors", "Filed", "Assignee")
	fmt.Fprintln(w, strings.Repeat("-", 130))
	for _, p := range patents {
		fmt.Fprintf(w, "%-18s  %-60s  %-20s  %-10s  %s\n",
			truncate(p.PatentID, 18), truncate(p.Title, 60), formatAuthors(p.Inventors),
			p.FilingDate, truncate(p.Assignee, 30))
	}
	fmt.Fprintf(w, "\n%d patents\n", len(patents))
}

// FormatAuthors writes registry entries as a table to w.
func FormatAuthors(authors []types.AuthorStub, w io.Writer) {
	if len(authors) == 0 {
		fmt.Fprintln(w, "No authors found.")
		return
	}

	fmt.Fprintf(w, "%-19s  %-30s  %s\n", "ORCID", "Name", "Institutions")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, a := range authors {
		fmt.Fprintf(w, "%-19s  %-30s  %s\n",
			a.ORCID, truncate(a.DisplayName(), 30), truncate(strings.Join(a.Institutions, "; "), 40))
	}
}

// FormatCitations writes the works citing identifier to w.
func FormatCitations(identifier string, stubs []types.CitationStub, w io.Writer) {
	fmt.Fprintf(w, "%s: %d citing works\n", identifier, len(stubs))
	for _, s := range stubs {
		year := "----"
		if s.PublicationYear > 0 {
			year = fmt.Sprintf("%d", s.PublicationYear)
		}
		fmt.Fprintf(w, "  %s  %5d  %s\n", year, s.CitationCount, truncate(s.Title, 80))
	}
}

// FormatJSON writes v as indented JSON to w.
func FormatJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
