// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/research-dashboard/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper endpoint. Declared as a var
// so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper"

const (
	semanticFields         = "title,abstract,authors,externalIds,year,citationCount,fieldsOfStudy,s2FieldsOfStudy"
	semanticCitationFields = "title,externalIds,year,citationCount"

	// semanticMaxLimit is the largest page the search endpoint accepts.
	semanticMaxLimit = 100
)

// SemanticScholarSource searches the Semantic Scholar graph API. The API
// key, if any, is attached by the Transport.
type SemanticScholarSource struct {
	t Transport
}

// NewSemanticScholarSource returns a source issuing requests through t.
func NewSemanticScholarSource(t Transport) *SemanticScholarSource {
	return &SemanticScholarSource{t: t}
}

// Name returns the source identifier.
func (s *SemanticScholarSource) Name() string { return "semantic_scholar" }

// Search issues query verbatim. perPage is capped at the API maximum.
func (s *SemanticScholarSource) Search(ctx context.Context, query string, perPage int) []types.RawRecord {
	if perPage <= 0 || perPage > semanticMaxLimit {
		perPage = semanticMaxLimit
	}
	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(perPage)},
		"fields": {semanticFields},
	}
	return s.t.Get(ctx, semanticAPIBase+"/search", params).Records("data")
}

// Normalize maps one Semantic Scholar paper to a Record.
func (s *SemanticScholarSource) Normalize(raw types.RawRecord) types.Record {
	return normalizePaper(raw)
}

// Citations returns the papers citing identifier (a DOI or paper ID).
func (s *SemanticScholarSource) Citations(ctx context.Context, identifier string) []types.RawRecord {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil
	}
	paper := identifier
	if doi := types.BareDOI(identifier); strings.HasPrefix(doi, "10.") {
		paper = "DOI:" + doi
	}
	params := url.Values{
		"fields": {semanticCitationFields},
		"limit":  {strconv.Itoa(citationsPerPage)},
	}
	edges := s.t.Get(ctx, semanticAPIBase+"/"+paper+"/citations", params).Records("data")
	out := make([]types.RawRecord, 0, len(edges))
	for _, e := range edges {
		if citing := objectField(e, "citingPaper"); citing != nil {
			out = append(out, types.RawRecord(citing))
		}
	}
	return out
}

// Stub maps a citing paper to a CitationStub.
func (s *SemanticScholarSource) Stub(raw types.RawRecord) types.CitationStub {
	return types.CitationStub{
		ID:              stringField(raw, "paperId"),
		Title:           stringField(raw, "title"),
		Identifier:      stringField(objectField(raw, "externalIds"), "DOI"),
		PublicationYear: intField(raw, "year"),
		CitationCount:   nonNegative(intField(raw, "citationCount")),
	}
}

// normalizePaper is the single place Semantic Scholar fields are read.
func normalizePaper(raw types.RawRecord) types.Record {
	r := newRecord("semantic_scholar", stringField(raw, "title"), stringField(objectField(raw, "externalIds"), "DOI"))
	r.Abstract = stringField(raw, "abstract")
	r.PublicationYear = intField(raw, "year")
	r.CitationCount = nonNegative(intField(raw, "citationCount"))

	if fields := stringList(raw, "fieldsOfStudy"); len(fields) > 0 {
		r.Topics = fields
	} else {
		for _, f := range objectList(raw, "s2FieldsOfStudy") {
			if c := stringField(f, "category"); c != "" {
				r.Topics = append(r.Topics, c)
			}
		}
	}

	r.Authors = stringList(raw, "authors")
	return r
}
