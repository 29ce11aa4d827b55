// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fusion

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/pdiddy/research-dashboard/internal/backfill"
	"github.com/pdiddy/research-dashboard/internal/httputil"
	"github.com/pdiddy/research-dashboard/internal/search"
	"github.com/pdiddy/research-dashboard/pkg/types"
)

// fakeProvider answers searches from a canned map keyed by query string.
type fakeProvider struct {
	mu        sync.Mutex
	responses map[string][]types.RawRecord
	citations []types.RawRecord
	queries   []string
	panicky   bool
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Search(_ context.Context, query string, perPage int) []types.RawRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, query)
	if p.panicky {
		panic("provider exploded")
	}
	return p.responses[query]
}

func (p *fakeProvider) Normalize(raw types.RawRecord) types.Record {
	r := types.Record{Source: "fake"}
	r.Title, _ = raw["title"].(string)
	r.Abstract, _ = raw["abstract"].(string)
	r.Identifier, _ = raw["doi"].(string)
	if n, ok := raw["cites"].(int); ok {
		r.CitationCount = n
	}
	if topics, ok := raw["topics"].([]string); ok {
		r.Topics = topics
	}
	return r
}

func (p *fakeProvider) Citations(_ context.Context, identifier string) []types.RawRecord {
	if p.panicky {
		panic("citations exploded")
	}
	return p.citations
}

func (p *fakeProvider) Stub(raw types.RawRecord) types.CitationStub {
	title, _ := raw["title"].(string)
	return types.CitationStub{Title: title}
}

func (p *fakeProvider) Queries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.queries...)
}

func work(title string, cites int) types.RawRecord {
	return types.RawRecord{"title": title, "abstract": "Text about " + title, "cites": cites}
}

// assertOrdered checks the citation-then-similarity ordering.
func assertOrdered(t *testing.T, records []types.Record) {
	t.Helper()
	for i := 1; i < len(records); i++ {
		a, b := records[i-1], records[i]
		ok := a.CitationCount > b.CitationCount ||
			(a.CitationCount == b.CitationCount && a.SimilarityScore >= b.SimilarityScore)
		assert.True(t, ok, "records %d and %d out of order: %+v / %+v", i-1, i, a, b)
	}
}

// --- Capping and ordering ---

func TestFuseCapsAtFifty(t *testing.T) {
	raws := make([]types.RawRecord, 200)
	for i := range raws {
		raws[i] = work(fmt.Sprintf("Paper %03d on tires", i), (i*37)%11)
	}
	p := &fakeProvider{responses: map[string][]types.RawRecord{"tires": raws}}

	got := NewEngine(p, nil).Fuse(context.Background(), "tires", []string{"tires"})

	assert.Len(t, got, DefaultMaxResults)
	assertOrdered(t, got)
	for _, r := range got {
		assert.GreaterOrEqual(t, r.SimilarityScore, 0.0)
		assert.LessOrEqual(t, r.SimilarityScore, 1.0)
		assert.NotEmpty(t, r.Abstract)
	}
}

func TestMaxResultsNeverExceedsFifty(t *testing.T) {
	raws := make([]types.RawRecord, 200)
	for i := range raws {
		raws[i] = work(fmt.Sprintf("Paper %03d", i), i)
	}

	tests := []struct {
		name string
		opt  Option
		want int
	}{
		{"option above cap", WithMaxResults(150), DefaultMaxResults},
		{"config above cap", FromConfig(types.FusionConfig{MaxResults: 150}), DefaultMaxResults},
		{"option below cap", WithMaxResults(10), 10},
		{"zero keeps default", WithMaxResults(0), DefaultMaxResults},
		{"negative keeps default", WithMaxResults(-5), DefaultMaxResults},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{responses: map[string][]types.RawRecord{"q": raws}}
			got := NewEngine(p, nil, tt.opt).Fuse(context.Background(), "q", nil)
			if len(got) != tt.want {
				t.Errorf("len(Fuse) = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFuseOrdering(t *testing.T) {
	p := &fakeProvider{responses: map[string][]types.RawRecord{"q": {
		{"title": "unrelated", "cites": 5},
		{"title": "Self-inflating tire", "cites": 5},
		{"title": "most cited", "cites": 9},
		{"title": "tie first", "cites": 1},
		{"title": "tie second", "cites": 1},
	}}}

	got := NewEngine(p, nil).Fuse(context.Background(), "q", []string{"Self-inflating tire"})
	require.Len(t, got, 5)

	titles := make([]string, len(got))
	for i, r := range got {
		titles[i] = r.Title
	}
	assert.Equal(t, "most cited", titles[0])
	assert.Equal(t, "Self-inflating tire", titles[1])
	assert.Equal(t, "unrelated", titles[2])
	assertOrdered(t, got)
}

func TestFuseStableForEqualKeys(t *testing.T) {
	p := &fakeProvider{responses: map[string][]types.RawRecord{"q": {
		work("first", 2), work("second", 2), work("third", 2),
	}}}

	got := NewEngine(p, nil).Fuse(context.Background(), "q", nil)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{got[0].Title, got[1].Title, got[2].Title})
}

// --- Scoring ---

func TestFuseScoresExactTitle(t *testing.T) {
	p := &fakeProvider{responses: map[string][]types.RawRecord{"tire": {
		{"title": "Self-inflating tire"},
	}}}

	got := NewEngine(p, backfill.New(nil, nil)).Fuse(context.Background(), "tire", []string{"Self-inflating tire"})
	require.Len(t, got, 1)
	// The placeholder abstract also contributes, so the score is at least
	// the title share.
	assert.GreaterOrEqual(t, got[0].SimilarityScore, 0.7)
}

func TestFuseEmptyKeywordsScoreZero(t *testing.T) {
	p := &fakeProvider{responses: map[string][]types.RawRecord{"q": {
		{"title": "q", "abstract": "q", "cites": 1},
		{"title": "other", "cites": 2, "similarity_score": 0.9},
	}}}

	for _, kw := range [][]string{nil, {}} {
		got := NewEngine(p, nil).Fuse(context.Background(), "q", kw)
		require.Len(t, got, 2)
		for _, r := range got {
			assert.Equal(t, 0.0, r.SimilarityScore)
		}
	}
}

func TestFuseCustomWeights(t *testing.T) {
	p := &fakeProvider{responses: map[string][]types.RawRecord{"q": {
		{"title": "tire", "abstract": "zzzz"},
	}}}
	cfg := types.FusionConfig{TitleWeight: 0.5, AbstractWeight: 0.5}

	got := NewEngine(p, nil, FromConfig(cfg)).Fuse(context.Background(), "q", []string{"tire"})
	require.Len(t, got, 1)
	assert.InDelta(t, 0.5, got[0].SimilarityScore, 1e-9)
}

// --- Query escalation ---

func TestFuseKeywordFallbackIssuesOneRequest(t *testing.T) {
	p := &fakeProvider{responses: map[string][]types.RawRecord{
		"graphene OR carbon nanotube": {work("Graphene sheets", 3)},
	}}

	got, rep := NewEngine(p, nil).FuseWithReport(context.Background(), `"2d carbon"`, []string{"graphene", "carbon nanotube"})

	require.Len(t, got, 1)
	assert.Equal(t, []string{`"2d carbon"`, "graphene OR carbon nanotube"}, p.Queries())
	assert.Equal(t, []types.QueryAttempt{
		{Query: `"2d carbon"`, Results: 0},
		{Query: "graphene OR carbon nanotube", Results: 1},
	}, rep.Attempts)
}

func TestFuseLenientFallback(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		want     []string
	}{
		{"without keywords", nil, []string{`"2d carbon" sheets`, "2d carbon sheets"}},
		{"keywords also empty", []string{"a", "b"}, []string{`"2d carbon" sheets`, "a OR b", "2d carbon sheets"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{responses: map[string][]types.RawRecord{
				"2d carbon sheets": {work("Found leniently", 0)},
			}}
			got := NewEngine(p, nil).Fuse(context.Background(), `"2d carbon" sheets`, tt.keywords)
			assert.Equal(t, tt.want, p.Queries())
			require.Len(t, got, 1)
			assert.Equal(t, "Found leniently", got[0].Title)
		})
	}
}

func TestFuseNothingFoundIsEmptyNotNil(t *testing.T) {
	p := &fakeProvider{}
	got, rep := NewEngine(p, nil).FuseWithReport(context.Background(), "q", []string{"k"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Len(t, rep.Attempts, 3)
	assert.NoError(t, rep.Err)
}

func TestFuseUsesPageSize(t *testing.T) {
	var perPage int
	p := &pageSpy{perPage: &perPage}
	NewEngine(p, nil).Fuse(context.Background(), "q", nil)
	assert.Equal(t, 100, perPage)

	NewEngine(p, nil, WithPageSize(25)).Fuse(context.Background(), "q", nil)
	assert.Equal(t, 25, perPage)
}

type pageSpy struct {
	fakeProvider
	perPage *int
}

func (p *pageSpy) Search(_ context.Context, _ string, perPage int) []types.RawRecord {
	*p.perPage = perPage
	return nil
}

// --- Enrichment ---

func TestFuseBackfillsAbstracts(t *testing.T) {
	p := &fakeProvider{responses: map[string][]types.RawRecord{"q": {
		{"title": "Self-inflating tire", "topics": []string{"Tires", "Pneumatics", "Automotive", "Rubber"}, "cites": 3},
		{"title": "No topics", "cites": 2},
		{"title": "Has abstract", "abstract": "Given.", "cites": 1},
	}}}

	got, rep := NewEngine(p, nil).FuseWithReport(context.Background(), "q", nil)
	require.Len(t, got, 3)

	assert.Equal(t, "This paper titled 'Self-inflating tire' focuses on Tires, Pneumatics, Automotive. Additional details can be found in the full paper.", got[0].Abstract)
	assert.Equal(t, backfill.Placeholder, got[1].Abstract)
	assert.Equal(t, "Given.", got[2].Abstract)
	assert.Equal(t, map[string]int{"synthesized": 1, "placeholder": 1, "original": 1}, rep.Abstracts)
}

func TestFuseBlankAbstractIsBackfilled(t *testing.T) {
	p := &fakeProvider{responses: map[string][]types.RawRecord{"q": {
		{"title": "T", "abstract": "   \n "},
		{"title": "Padded", "abstract": "  Real text.\n"},
	}}}

	got, rep := NewEngine(p, nil).FuseWithReport(context.Background(), "q", nil)
	require.Len(t, got, 2)
	assert.Equal(t, backfill.Placeholder, got[0].Abstract)
	assert.Equal(t, "Real text.", got[1].Abstract)
	assert.Equal(t, map[string]int{"placeholder": 1, "original": 1}, rep.Abstracts)
}

type stubExtractor map[string]string

func (s stubExtractor) AttemptExtract(_ context.Context, id string) (string, bool) {
	text, ok := s[id]
	return text, ok
}

func TestFuseUsesExtractor(t *testing.T) {
	p := &fakeProvider{responses: map[string][]types.RawRecord{"q": {
		{"title": "With DOI", "doi": "https://doi.org/10.1/x"},
	}}}
	b := backfill.New(stubExtractor{"10.1/x": "Extracted text."}, nil)

	got := NewEngine(p, b).Fuse(context.Background(), "q", nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Extracted text.", got[0].Abstract)
	assert.Equal(t, "10.1/x", got[0].Identifier)
	assert.Equal(t, "https://doi.org/10.1/x", got[0].AccessURL)
}

func TestSanitize(t *testing.T) {
	r := types.Record{Title: " ", Abstract: " \t\n", CitationCount: -3, AccessURL: "stale", SimilarityScore: 4}
	sanitize(&r)
	assert.Equal(t, types.TitleNotFound, r.Title)
	assert.Empty(t, r.Abstract)
	assert.Zero(t, r.CitationCount)
	assert.Empty(t, r.AccessURL)
	assert.NotNil(t, r.Topics)
	assert.Zero(t, r.SimilarityScore)
}

// --- Failure containment ---

func TestFusePanickingProviderYieldsEmpty(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	p := &fakeProvider{panicky: true}
	got, rep := NewEngine(p, nil, WithTracer(tp.Tracer("test"))).FuseWithReport(context.Background(), "q", []string{"k"})

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Error(t, rep.Err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "fusion.Fuse", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestFuseNilProviderYieldsEmpty(t *testing.T) {
	got := NewEngine(nil, nil).Fuse(context.Background(), "q", nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFuseCancelledContext(t *testing.T) {
	p := &fakeProvider{responses: map[string][]types.RawRecord{"q": {work("a", 1)}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, rep := NewEngine(p, nil).FuseWithReport(ctx, "q", nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.ErrorIs(t, rep.Err, context.Canceled)
}

func TestFuseAlwaysFailingTransport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := ts.URL
	ts.Close()

	f := httputil.NewFetcher(nil, httputil.WithSpacing(0))
	p := &fetcherProvider{f: f, endpoint: addr}

	got := NewEngine(p, nil).Fuse(context.Background(), `"q"`, []string{"k"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.EqualValues(t, 3, p.calls.Load())
}

// --- Rate limiting through the real fetcher ---

// fetcherProvider is a minimal provider over httputil.Fetcher.
type fetcherProvider struct {
	fakeProvider
	f        *httputil.Fetcher
	endpoint string
	calls    atomic.Int32
}

func (p *fetcherProvider) Search(ctx context.Context, query string, perPage int) []types.RawRecord {
	p.calls.Add(1)
	return p.f.Get(ctx, p.endpoint, url.Values{"search": {query}, "per-page": {fmt.Sprint(perPage)}}).Records("results")
}

func (p *fetcherProvider) Normalize(raw types.RawRecord) types.Record {
	title, _ := raw["title"].(string)
	cites, _ := raw["cited_by_count"].(float64)
	return types.Record{Title: title, CitationCount: int(cites)}
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func TestFuseRecoversFromOne429(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results": [
			{"title": "Self-inflating tire", "cited_by_count": 4},
			{"title": "Run-flat tire", "cited_by_count": 9}
		]}`)
	}))
	defer ts.Close()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	f := httputil.NewFetcher(ts.Client(), httputil.WithClock(clock))
	p := &fetcherProvider{f: f, endpoint: ts.URL}

	got := NewEngine(p, nil).Fuse(context.Background(), "tire", []string{"Self-inflating tire"})

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{5 * time.Second}, clock.sleeps)
	require.Len(t, got, 2)
	assert.Equal(t, "Run-flat tire", got[0].Title)
	assert.Equal(t, "Self-inflating tire", got[1].Title)
	assert.Greater(t, got[1].SimilarityScore, 0.7-1e-9)
	assert.EqualValues(t, 1, p.calls.Load())
}

// --- Citations ---

func TestCitations(t *testing.T) {
	p := &fakeProvider{citations: []types.RawRecord{{"title": "A"}, {"title": "B"}}}
	got := NewEngine(p, nil).Citations(context.Background(), "10.1/x")
	assert.Equal(t, []types.CitationStub{{Title: "A"}, {Title: "B"}}, got)

	empty := NewEngine(&fakeProvider{}, nil).Citations(context.Background(), "10.1/x")
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	panicked := NewEngine(&fakeProvider{panicky: true}, nil).Citations(context.Background(), "10.1/x")
	assert.NotNil(t, panicked)
	assert.Empty(t, panicked)
}

func TestSourcesImplementProvider(t *testing.T) {
	var _ Provider = (*search.OpenAlexSource)(nil)
	var _ Provider = (*search.SemanticScholarSource)(nil)
	var _ Provider = (*search.ArxivSource)(nil)
}
