// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-dashboard/internal/httputil"
	"github.com/pdiddy/research-dashboard/pkg/types"
)

func TestNewPatentSourceFailsFast(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.PatentConfig
		want error
	}{
		{"missing key", types.PatentConfig{Endpoint: "http://x"}, ErrMissingPatentKey},
		{"blank key", types.PatentConfig{Endpoint: "http://x", APIKey: "  "}, ErrMissingPatentKey},
		{"missing endpoint", types.PatentConfig{APIKey: "k"}, ErrMissingPatentEndpoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewPatentSource(nil, tt.cfg)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, s)
		})
	}
}

func TestPatentSearch(t *testing.T) {
	var body map[string]any
	var key string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"patents": [
			{"publication_number": "US-2021/0123456 A1", "title": "Self-inflating tire", "abstract": "A tire.", "filing_date": "2019-05-01", "inventors": ["Jane Roe", "John Doe"], "assignee": "Tire Co"},
			{"publication_number": "", "title": ""}
		]}`)
	}))
	defer ts.Close()

	s, err := NewPatentSource(ts.Client(), types.PatentConfig{Endpoint: ts.URL, APIKey: "secret", Limit: 7}, httputil.WithSpacing(0))
	require.NoError(t, err)

	patents := s.Search(context.Background(), "self-inflating tires", 0)
	require.Len(t, patents, 2)

	assert.Equal(t, "secret", key)
	assert.Equal(t, "self-inflating tires", body["question"])
	assert.Equal(t, float64(7), body["limit"])

	p := patents[0]
	assert.Equal(t, "US20210123456A1", p.PatentID)
	assert.Equal(t, "US-2021/0123456 A1", p.PublicationNumber)
	assert.Equal(t, "https://patents.google.com/patent/US20210123456A1", p.URL)
	assert.Equal(t, []string{"Jane Roe", "John Doe"}, p.Inventors)
	assert.Equal(t, "Tire Co", p.Assignee)
	assert.Equal(t, "2019-05-01", p.FilingDate)

	assert.Equal(t, types.TitleNotFound, patents[1].Title)
	assert.Empty(t, patents[1].URL)
}

func TestPatentSearchFailureIsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer ts.Close()

	s, err := NewPatentSource(ts.Client(), types.PatentConfig{Endpoint: ts.URL, APIKey: "k"}, httputil.WithSpacing(0))
	require.NoError(t, err)
	assert.Empty(t, s.Search(context.Background(), "q", 5))
}

func TestNormalizePatentInventorObjects(t *testing.T) {
	p := normalizePatent(decode(t, `{"patent_number": "EP 1 234 567 B1", "inventors": [{"name": "A. Inventor"}], "assignee": ["First", "Second"]}`))
	assert.Equal(t, "EP1234567B1", p.PatentID)
	assert.Equal(t, []string{"A. Inventor"}, p.Inventors)
	assert.Equal(t, "First", p.Assignee)
}

func TestPatentID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"US7654321B2", "US7654321B2"},
		{"US 7,654,321 B2", "US7654321B2"},
		{"WO/2020/123456", "WO2020123456"},
		{"", ""},
		{"--", ""},
	}
	for _, tt := range tests {
		if got := PatentID(tt.in); got != tt.want {
			t.Errorf("PatentID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
