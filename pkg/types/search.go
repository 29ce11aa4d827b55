// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research dashboard:
// canonical search records, patent and author stubs, and stage configuration.
package types

import "strings"

// TitleNotFound is the title given to records whose provider omitted one.
const TitleNotFound = "Title not found"

// doiResolverBase prefixes bare DOIs to form a canonical access URL.
const doiResolverBase = "https://doi.org/"

// RawRecord is a provider-specific JSON object as decoded from the wire.
// Normalizers read it; nothing writes to it.
type RawRecord map[string]any

// Record is the canonical representation of one academic search result.
// Providers normalize their raw payloads into Records; the fusion engine
// enriches and scores them, and exporters consume them.
type Record struct {
	// Title is the work title, or TitleNotFound when the provider had none.
	Title string `json:"title" yaml:"title"`

	// Abstract is empty until enrichment runs; afterwards it holds text
	// or a human-readable placeholder.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Identifier is the bare DOI (no resolver prefix), empty when unknown.
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`

	// PublicationYear is zero when the provider did not report one.
	PublicationYear int `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`

	// Topics lists topic or concept display names in provider order.
	Topics []string `json:"topics" yaml:"topics"`

	// Authors lists author display names in provider order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// CitationCount is never negative.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// AccessURL is derived from Identifier and is empty exactly when it is.
	AccessURL string `json:"access_url,omitempty" yaml:"access_url,omitempty"`

	// SimilarityScore is the weighted keyword similarity in [0, 1].
	SimilarityScore float64 `json:"similarity_score" yaml:"similarity_score"`

	// Source names the provider the record came from (e.g. "openalex").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// AccessURL returns the resolver URL for a DOI, or "" when doi is empty.
func AccessURL(doi string) string {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return ""
	}
	return doiResolverBase + doi
}

// BareDOI strips a resolver prefix ("https://doi.org/", "doi:") from a DOI.
func BareDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi:"} {
		if strings.HasPrefix(strings.ToLower(doi), prefix) {
			return doi[len(prefix):]
		}
	}
	return doi
}

// QueryAttempt records one query issued during fusion and how many raw
// records it produced.
type QueryAttempt struct {
	Query   string `json:"query" yaml:"query"`
	Results int    `json:"results" yaml:"results"`
}

// CitationStub is a lightweight reference to a work that cites another.
type CitationStub struct {
	ID              string `json:"id" yaml:"id"`
	Title           string `json:"title" yaml:"title"`
	Identifier      string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	PublicationYear int    `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`
	CitationCount   int    `json:"citation_count" yaml:"citation_count"`
}

// Patent is the patent-domain counterpart of Record.
type Patent struct {
	// PatentID is the publication number with non-alphanumerics removed.
	PatentID string `json:"patent_id" yaml:"patent_id"`

	// PublicationNumber is the number exactly as the provider returned it.
	PublicationNumber string `json:"publication_number" yaml:"publication_number"`

	Title      string   `json:"title" yaml:"title"`
	Abstract   string   `json:"abstract" yaml:"abstract"`
	FilingDate string   `json:"filing_date,omitempty" yaml:"filing_date,omitempty"`
	Inventors  []string `json:"inventors,omitempty" yaml:"inventors,omitempty"`
	Assignee   string   `json:"assignee,omitempty" yaml:"assignee,omitempty"`

	// URL points at the public patent viewer page for PatentID.
	URL string `json:"url" yaml:"url"`
}

// AuthorStub is an entry from the author-identity registry.
type AuthorStub struct {
	ORCID        string   `json:"orcid" yaml:"orcid"`
	GivenNames   string   `json:"given_names" yaml:"given_names"`
	FamilyNames  string   `json:"family_names" yaml:"family_names"`
	Institutions []string `json:"institutions,omitempty" yaml:"institutions,omitempty"`
}

// DisplayName joins the given and family names.
func (a AuthorStub) DisplayName() string {
	return strings.TrimSpace(a.GivenNames + " " + a.FamilyNames)
}
