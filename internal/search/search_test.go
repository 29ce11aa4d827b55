// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-dashboard/internal/httputil"
	"github.com/pdiddy/research-dashboard/pkg/types"
)

// testTransport returns a fetcher that talks to ts without pacing.
func testTransport(ts *httptest.Server, opts ...httputil.FetcherOption) *httputil.Fetcher {
	opts = append([]httputil.FetcherOption{httputil.WithSpacing(0), httputil.WithMaxRetries(1)}, opts...)
	return httputil.NewFetcher(ts.Client(), opts...)
}

// decode turns a JSON object literal into a RawRecord the way the fetcher does.
func decode(t *testing.T, s string) types.RawRecord {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return types.RawRecord(m)
}

// --- Formatting ---

func TestFormatTable(t *testing.T) {
	records := []types.Record{
		{Title: "Self-inflating tire", Authors: []string{"Ada Lovelace", "Charles Babbage"}, PublicationYear: 2021, CitationCount: 12, SimilarityScore: 0.7, Identifier: "10.1/tire"},
		{Title: strings.Repeat("Long title ", 10), CitationCount: 3},
	}
	var buf bytes.Buffer
	FormatTable(records, &buf)
	out := buf.String()

	assert.Contains(t, out, "Rank")
	assert.Contains(t, out, "Self-inflating tire")
	assert.Contains(t, out, "Ada Lovelace et al.")
	assert.Contains(t, out, "2021")
	assert.Contains(t, out, "0.70")
	assert.Contains(t, out, "10.1/tire")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "2 results")
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(nil, &buf)
	if got := buf.String(); got != "No results found.\n" {
		t.Errorf("FormatTable(nil) = %q", got)
	}
}

func TestFormatPatentsAndAuthors(t *testing.T) {
	var buf bytes.Buffer
	FormatPatents([]types.Patent{{PatentID: "US123B2", Title: "Valve", Inventors: []string{"Edison"}, FilingDate: "2020-01-02", Assignee: "GE"}}, &buf)
	assert.Contains(t, buf.String(), "US123B2")
	assert.Contains(t, buf.String(), "1 patents")

	buf.Reset()
	FormatPatents(nil, &buf)
	assert.Equal(t, "No patents found.\n", buf.String())

	buf.Reset()
	FormatAuthors([]types.AuthorStub{{ORCID: "0000-0002-1825-0097", GivenNames: "Josiah", FamilyNames: "Carberry", Institutions: []string{"Brown University"}}}, &buf)
	assert.Contains(t, buf.String(), "Josiah Carberry")
	assert.Contains(t, buf.String(), "Brown University")

	buf.Reset()
	FormatAuthors(nil, &buf)
	assert.Equal(t, "No authors found.\n", buf.String())
}

func TestFormatCitations(t *testing.T) {
	var buf bytes.Buffer
	FormatCitations("10.1/x", []types.CitationStub{
		{Title: "Follow-up", PublicationYear: 2022, CitationCount: 4},
		{Title: "Undated"},
	}, &buf)
	out := buf.String()
	assert.Contains(t, out, "10.1/x: 2 citing works")
	assert.Contains(t, out, "2022")
	assert.Contains(t, out, "----")
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON([]types.Record{{Title: "A", Topics: []string{}}}, &buf))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0]["title"])
	assert.Equal(t, 0.0, got[0]["similarity_score"])
	assert.NotContains(t, got[0], "identifier")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is too long", 10, "this is..."},
		{"ñañañañañañañaña", 8, "ñañañ..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

// --- Field helpers ---

func TestFieldHelpers(t *testing.T) {
	raw := decode(t, `{
		"title": "  ",
		"display_name": "Fallback",
		"count": 7,
		"count_str": "9",
		"bad": "x",
		"names": ["a", "", {"name": "b"}, 3],
		"single": "solo",
		"nested": {"k": "v"}
	}`)

	assert.Equal(t, "Fallback", stringField(raw, "title", "display_name"))
	assert.Equal(t, "", stringField(raw, "missing"))
	assert.Equal(t, 7, intField(raw, "count"))
	assert.Equal(t, 9, intField(raw, "count_str"))
	assert.Equal(t, 0, intField(raw, "bad"))
	assert.Equal(t, 0, intField(raw, "missing"))
	assert.Equal(t, []string{"a", "b"}, stringList(raw, "names"))
	assert.Equal(t, []string{"solo"}, stringList(raw, "single"))
	assert.Equal(t, "v", objectField(raw, "nested")["k"])
	assert.Nil(t, objectField(raw, "names"))
	assert.Empty(t, objectList(raw, "missing"))
}

func TestNewRecordDefaults(t *testing.T) {
	r := newRecord("x", "", "")
	assert.Equal(t, types.TitleNotFound, r.Title)
	assert.Empty(t, r.Identifier)
	assert.Empty(t, r.AccessURL)
	assert.NotNil(t, r.Topics)

	r = newRecord("x", "T", "https://doi.org/10.1/abc")
	assert.Equal(t, "10.1/abc", r.Identifier)
	assert.Equal(t, "https://doi.org/10.1/abc", r.AccessURL)
}
