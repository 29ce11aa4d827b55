// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/research-dashboard/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const arxivDefaultPage = 100

// FeedTransport fetches raw response bodies. *httputil.Fetcher implements it.
type FeedTransport interface {
	GetRaw(ctx context.Context, endpoint string, params url.Values) ([]byte, bool)
}

// ArxivSource searches the arXiv Atom API. arXiv reports no citation
// counts, so its records rank on similarity alone.
type ArxivSource struct {
	t FeedTransport
}

// NewArxivSource returns a source issuing requests through t.
func NewArxivSource(t FeedTransport) *ArxivSource {
	return &ArxivSource{t: t}
}

// Name returns the source identifier.
func (s *ArxivSource) Name() string { return "arxiv" }

// Search queries arXiv and returns one RawRecord per feed entry.
func (s *ArxivSource) Search(ctx context.Context, query string, perPage int) []types.RawRecord {
	q := buildArxivQuery(query)
	if q == "" {
		return nil
	}
	if perPage <= 0 {
		perPage = arxivDefaultPage
	}
	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(perPage)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	body, ok := s.t.GetRaw(ctx, arxivAPIBase, params)
	if !ok {
		return nil
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil
	}
	out := make([]types.RawRecord, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		if raw := e.raw(); raw != nil {
			out = append(out, raw)
		}
	}
	return out
}

// Normalize maps one arXiv entry to a Record.
func (s *ArxivSource) Normalize(raw types.RawRecord) types.Record {
	return normalizeEntry(raw)
}

// Citations always returns no records: arXiv exposes no citation graph.
func (s *ArxivSource) Citations(context.Context, string) []types.RawRecord {
	return nil
}

// Stub maps an entry to a CitationStub.
func (s *ArxivSource) Stub(raw types.RawRecord) types.CitationStub {
	r := normalizeEntry(raw)
	return types.CitationStub{
		ID:              stringField(raw, "id"),
		Title:           r.Title,
		Identifier:      r.Identifier,
		PublicationYear: r.PublicationYear,
	}
}

// normalizeEntry is the single place arXiv fields are read.
func normalizeEntry(raw types.RawRecord) types.Record {
	r := newRecord("arxiv", collapseSpace(stringField(raw, "title")), stringField(raw, "doi"))
	r.Abstract = collapseSpace(stringField(raw, "summary"))
	if t, err := time.Parse(time.RFC3339, stringField(raw, "published")); err == nil {
		r.PublicationYear = t.Year()
	}
	if cats := stringList(raw, "categories"); len(cats) > 0 {
		r.Topics = cats
	}
	r.Authors = stringList(raw, "authors")
	return r
}

// buildArxivQuery turns a fusion query into arXiv search_query syntax.
// " OR " separates alternatives; a quoted alternative becomes a phrase and
// the words of any other alternative must all match.
func buildArxivQuery(query string) string {
	var alts []string
	for _, part := range strings.Split(query, " OR ") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, `"`) {
			phrase := strings.Join(strings.Fields(strings.ReplaceAll(part, `"`, "")), " ")
			if phrase != "" {
				alts = append(alts, `all:"`+phrase+`"`)
			}
			continue
		}
		words := strings.Fields(part)
		terms := make([]string, len(words))
		for i, w := range words {
			terms[i] = "all:" + w
		}
		clause := strings.Join(terms, " AND ")
		if len(terms) > 1 && strings.Contains(query, " OR ") {
			clause = "(" + clause + ")"
		}
		alts = append(alts, clause)
	}
	return strings.Join(alts, " OR ")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	DOI        string          `xml:"http://arxiv.org/schemas/atom doi"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// raw converts the entry to the RawRecord shape normalizeEntry reads.
// Entries without an arXiv ID are dropped.
func (e arxivEntry) raw() types.RawRecord {
	id := extractArxivID(e.ID)
	if id == "" {
		return nil
	}
	authors := make([]any, 0, len(e.Authors))
	for _, a := range e.Authors {
		authors = append(authors, a.Name)
	}
	cats := make([]any, 0, len(e.Categories))
	for _, c := range e.Categories {
		cats = append(cats, c.Term)
	}
	return types.RawRecord{
		"id":         id,
		"title":      e.Title,
		"summary":    e.Summary,
		"published":  e.Published,
		"doi":        e.DOI,
		"authors":    authors,
		"categories": cats,
	}
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL, dropping
// the version suffix: "http://arxiv.org/abs/2301.07041v1" gives "2301.07041".
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]
	if v := strings.LastIndex(id, "v"); v > 0 {
		if _, err := strconv.Atoi(id[v+1:]); err == nil {
			id = id[:v]
		}
	}
	return id
}
