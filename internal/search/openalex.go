// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/research-dashboard/pkg/types"
)

// openAlexWorksBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexWorksBase = "https://api.openalex.org/works"

// openAlexSelect is the field-selection list sent with every search.
const openAlexSelect = "id,doi,title,display_name,publication_year,cited_by_count,topics,concepts,authorships,abstract_inverted_index"

const openAlexCitationSelect = "id,doi,display_name,publication_year,cited_by_count"

// citationsPerPage bounds the stubs returned for one cited work.
const citationsPerPage = 50

// OpenAlexSource searches the OpenAlex works index.
type OpenAlexSource struct {
	t Transport
	// email is sent as mailto for polite pool access.
	email string
}

// NewOpenAlexSource returns a source issuing requests through t.
func NewOpenAlexSource(t Transport, email string) *OpenAlexSource {
	return &OpenAlexSource{t: t, email: email}
}

// Name returns the source identifier.
func (s *OpenAlexSource) Name() string { return "openalex" }

// Search issues query verbatim and returns the raw works.
func (s *OpenAlexSource) Search(ctx context.Context, query string, perPage int) []types.RawRecord {
	params := url.Values{
		"search":   {query},
		"per-page": {strconv.Itoa(perPage)},
		"select":   {openAlexSelect},
	}
	s.polite(params)
	return s.t.Get(ctx, openAlexWorksBase, params).Records("results")
}

// Normalize maps one OpenAlex work to a Record.
func (s *OpenAlexSource) Normalize(raw types.RawRecord) types.Record {
	return normalizeWork(raw)
}

// Citations returns the works citing identifier, which may be an OpenAlex
// work ID, an OpenAlex URL, or a DOI.
func (s *OpenAlexSource) Citations(ctx context.Context, identifier string) []types.RawRecord {
	workID := s.resolveWorkID(ctx, identifier)
	if workID == "" {
		return nil
	}
	params := url.Values{
		"filter":   {"cites:" + workID},
		"per-page": {strconv.Itoa(citationsPerPage)},
		"select":   {openAlexCitationSelect},
		"sort":     {"cited_by_count:desc"},
	}
	s.polite(params)
	return s.t.Get(ctx, openAlexWorksBase, params).Records("results")
}

// Stub maps a citing work to a CitationStub without further processing.
func (s *OpenAlexSource) Stub(raw types.RawRecord) types.CitationStub {
	return types.CitationStub{
		ID:              lastPathSegment(stringField(raw, "id")),
		Title:           stringField(raw, "display_name", "title"),
		Identifier:      types.BareDOI(stringField(raw, "doi")),
		PublicationYear: intField(raw, "publication_year"),
		CitationCount:   nonNegative(intField(raw, "cited_by_count")),
	}
}

func (s *OpenAlexSource) polite(params url.Values) {
	if s.email != "" {
		params.Set("mailto", s.email)
	}
}

// resolveWorkID turns identifier into a bare OpenAlex work ID ("W123").
func (s *OpenAlexSource) resolveWorkID(ctx context.Context, identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return ""
	}
	if isOpenAlexID(identifier) {
		return lastPathSegment(identifier)
	}
	params := url.Values{"select": {"id"}}
	s.polite(params)
	p := s.t.Get(ctx, openAlexWorksBase+"/doi:"+types.BareDOI(identifier), params)
	id, _ := p["id"].(string)
	return lastPathSegment(id)
}

func isOpenAlexID(s string) bool {
	s = lastPathSegment(s)
	if len(s) < 2 || (s[0] != 'W' && s[0] != 'w') {
		return false
	}
	_, err := strconv.ParseUint(s[1:], 10, 64)
	return err == nil
}

// normalizeWork is the single place OpenAlex optional fields are read.
func normalizeWork(raw types.RawRecord) types.Record {
	r := newRecord("openalex", stringField(raw, "title", "display_name"), stringField(raw, "doi"))

	r.Abstract = stringField(raw, "abstract")
	if r.Abstract == "" {
		r.Abstract = reconstructAbstract(invertedIndex(objectField(raw, "abstract_inverted_index")))
	}

	r.PublicationYear = intField(raw, "publication_year")
	r.CitationCount = nonNegative(intField(raw, "cited_by_count"))

	if topics := displayNames(raw, "topics"); len(topics) > 0 {
		r.Topics = topics
	} else if concepts := displayNames(raw, "concepts"); len(concepts) > 0 {
		r.Topics = concepts
	}

	for _, a := range objectList(raw, "authorships") {
		if name := stringField(objectField(a, "author"), "display_name"); name != "" {
			r.Authors = append(r.Authors, name)
		}
	}
	return r
}

// invertedIndex converts the decoded JSON form of
// abstract_inverted_index into word positions.
func invertedIndex(m map[string]any) map[string][]int {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string][]int, len(m))
	for word, v := range m {
		positions, _ := v.([]any)
		for _, p := range positions {
			if f, ok := p.(float64); ok {
				out[word] = append(out[word], int(f))
			}
		}
	}
	return out
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].pos != pairs[j].pos {
			return pairs[i].pos < pairs[j].pos
		}
		return pairs[i].word < pairs[j].word
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}
