// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/pdiddy/research-dashboard/internal/httputil"
	"github.com/pdiddy/research-dashboard/pkg/types"
)

// patentViewerBase builds the public viewer URL for a patent ID.
var patentViewerBase = "https://patents.google.com/patent/"

const defaultPatentLimit = 20

// Configuration errors returned by NewPatentSource.
var (
	ErrMissingPatentKey      = errors.New("patent API key is not configured")
	ErrMissingPatentEndpoint = errors.New("patent API endpoint is not configured")
)

// PatentSource queries a patent search service that accepts a natural
// language question and answers with {"patents": [...]}.
type PatentSource struct {
	t        Transport
	endpoint string
	limit    int
}

// NewPatentSource validates cfg and returns a source whose requests carry
// the API key. It fails when the key or endpoint is missing.
func NewPatentSource(client *http.Client, cfg types.PatentConfig, opts ...httputil.FetcherOption) (*PatentSource, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingPatentKey
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, ErrMissingPatentEndpoint
	}
	opts = append(opts, httputil.WithHeader("X-API-Key", cfg.APIKey))
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultPatentLimit
	}
	return &PatentSource{
		t:        httputil.NewFetcher(client, opts...),
		endpoint: cfg.Endpoint,
		limit:    limit,
	}, nil
}

// Name returns the source identifier.
func (s *PatentSource) Name() string { return "patents" }

// Search posts the question and returns normalized patents in provider
// order. A limit of zero uses the configured default.
func (s *PatentSource) Search(ctx context.Context, question string, limit int) []types.Patent {
	if limit <= 0 {
		limit = s.limit
	}
	payload := map[string]any{"question": question, "limit": limit}
	raws := s.t.Post(ctx, s.endpoint, payload).Records("patents")
	out := make([]types.Patent, 0, len(raws))
	for _, raw := range raws {
		out = append(out, normalizePatent(raw))
	}
	return out
}

// normalizePatent is the single place patent fields are read.
func normalizePatent(raw types.RawRecord) types.Patent {
	p := types.Patent{
		PublicationNumber: stringField(raw, "publication_number", "patent_number"),
		Title:             stringField(raw, "title"),
		Abstract:          stringField(raw, "abstract"),
		FilingDate:        stringField(raw, "filing_date"),
		Inventors:         stringList(raw, "inventors"),
	}
	if p.Title == "" {
		p.Title = types.TitleNotFound
	}
	if assignees := stringList(raw, "assignee"); len(assignees) > 0 {
		p.Assignee = assignees[0]
	}
	p.PatentID = PatentID(p.PublicationNumber)
	if p.PatentID != "" {
		p.URL = patentViewerBase + p.PatentID
	}
	return p
}

// PatentID strips every non-alphanumeric character from a publication
// number: "US-2021/0123456 A1" becomes "US20210123456A1".
func PatentID(publicationNumber string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, publicationNumber)
}
