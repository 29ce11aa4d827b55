// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fusion turns one provider's raw search results into a ranked,
// capped list of canonical records. A fuse call escalates through up to
// three query forms, normalizes every raw record, backfills missing
// abstracts, scores records against the keywords, and orders them by
// citation count and then similarity.
//
// Fuse never fails. Anything that goes wrong inside it is logged, recorded
// on the trace span, and surfaces to the caller as an empty list.
package fusion

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pdiddy/research-dashboard/internal/backfill"
	"github.com/pdiddy/research-dashboard/internal/similarity"
	"github.com/pdiddy/research-dashboard/pkg/types"
)

const (
	DefaultPageSize   = 100
	DefaultMaxResults = 50
)

const tracerName = "github.com/pdiddy/research-dashboard/internal/fusion"

// Provider is the search capability fusion drives. Search and Citations
// absorb transport failures and return no records instead.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, perPage int) []types.RawRecord
	Normalize(raw types.RawRecord) types.Record
	Citations(ctx context.Context, identifier string) []types.RawRecord
	Stub(raw types.RawRecord) types.CitationStub
}

// Report describes how a fuse call arrived at its result.
type Report struct {
	// Attempts lists every query issued, in order.
	Attempts []types.QueryAttempt

	// Abstracts counts records by the backfill step that produced their
	// abstract ("original", "extracted", ...).
	Abstracts map[string]int

	// Err is set when the call was abandoned; the result is then empty.
	Err error
}

// Engine fuses results from a single Provider.
type Engine struct {
	provider   Provider
	backfiller *backfill.Backfiller
	logger     *slog.Logger
	tracer     trace.Tracer
	weights    similarity.Weights
	pageSize   int
	maxResults int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithWeights replaces the title/abstract blend.
func WithWeights(w similarity.Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithPageSize sets how many raw records each query attempt requests.
func WithPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithMaxResults lowers the output cap. Values above DefaultMaxResults
// are clamped to it.
func WithMaxResults(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxResults = min(n, DefaultMaxResults)
		}
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// FromConfig applies page size, cap, and weights from cfg.
func FromConfig(cfg types.FusionConfig) Option {
	return func(e *Engine) {
		WithPageSize(cfg.PageSize)(e)
		WithMaxResults(cfg.MaxResults)(e)
		if cfg.TitleWeight > 0 || cfg.AbstractWeight > 0 {
			e.weights = similarity.Weights{Title: cfg.TitleWeight, Abstract: cfg.AbstractWeight}
		}
	}
}

// NewEngine returns an Engine over p. A nil Backfiller still synthesizes
// abstracts but never fetches documents.
func NewEngine(p Provider, b *backfill.Backfiller, opts ...Option) *Engine {
	e := &Engine{
		provider:   p,
		backfiller: b,
		logger:     slog.New(slog.DiscardHandler),
		tracer:     otel.Tracer(tracerName),
		weights:    similarity.DefaultWeights,
		pageSize:   DefaultPageSize,
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.backfiller == nil {
		e.backfiller = backfill.New(nil, e.logger)
	}
	return e
}

// Fuse returns at most MaxResults records for query, ordered by citation
// count and then similarity to keywords. It never returns nil.
func (e *Engine) Fuse(ctx context.Context, query string, keywords []string) []types.Record {
	records, _ := e.FuseWithReport(ctx, query, keywords)
	return records
}

// FuseWithReport is Fuse plus a description of the attempts made.
func (e *Engine) FuseWithReport(ctx context.Context, query string, keywords []string) (records []types.Record, rep Report) {
	rep.Abstracts = map[string]int{}

	ctx, span := e.tracer.Start(ctx, "fusion.Fuse", trace.WithAttributes(
		attribute.String("fusion.provider", e.providerName()),
		attribute.String("fusion.query", query),
		attribute.Int("fusion.keywords", len(keywords)),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("fusion panicked: %v", r)
			e.fail(span, query, err)
			records, rep.Err = []types.Record{}, err
		}
	}()

	raws := e.collect(ctx, query, keywords, &rep)
	if err := ctx.Err(); err != nil {
		e.fail(span, query, err)
		return []types.Record{}, Report{Attempts: rep.Attempts, Abstracts: rep.Abstracts, Err: err}
	}

	records = make([]types.Record, 0, len(raws))
	for _, raw := range raws {
		rec := e.provider.Normalize(raw)
		sanitize(&rec)
		strategy := e.backfiller.Backfill(ctx, &rec)
		rep.Abstracts[strategy.String()]++
		records = append(records, rec)
	}

	if len(keywords) > 0 {
		for i := range records {
			records[i].SimilarityScore = e.weights.Relevance(records[i].Title, records[i].Abstract, keywords)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CitationCount != records[j].CitationCount {
			return records[i].CitationCount > records[j].CitationCount
		}
		return records[i].SimilarityScore > records[j].SimilarityScore
	})

	if len(records) > e.maxResults {
		records = records[:e.maxResults]
	}

	span.SetAttributes(
		attribute.Int("fusion.attempts", len(rep.Attempts)),
		attribute.Int("fusion.raw", len(raws)),
		attribute.Int("fusion.results", len(records)),
	)
	e.logger.Info("fused results", "query", query, "attempts", len(rep.Attempts), "raw", len(raws), "results", len(records))
	return records, rep
}

// collect runs the query escalation: the query as given, then the keywords
// OR-joined, then the query without double quotes. The last attempt's
// result is used even when empty.
func (e *Engine) collect(ctx context.Context, query string, keywords []string, rep *Report) []types.RawRecord {
	attempt := func(q string) []types.RawRecord {
		raws := e.provider.Search(ctx, q, e.pageSize)
		rep.Attempts = append(rep.Attempts, types.QueryAttempt{Query: q, Results: len(raws)})
		e.logger.Debug("query attempt", "query", q, "results", len(raws))
		return raws
	}

	if raws := attempt(query); len(raws) > 0 {
		return raws
	}
	if len(keywords) > 0 {
		if raws := attempt(strings.Join(keywords, " OR ")); len(raws) > 0 {
			return raws
		}
	}
	return attempt(strings.ReplaceAll(query, `"`, ""))
}

// Citations returns stubs for the works citing identifier. It never
// returns nil.
func (e *Engine) Citations(ctx context.Context, identifier string) (stubs []types.CitationStub) {
	ctx, span := e.tracer.Start(ctx, "fusion.Citations", trace.WithAttributes(
		attribute.String("fusion.provider", e.providerName()),
		attribute.String("fusion.identifier", identifier),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			e.fail(span, identifier, fmt.Errorf("citations panicked: %v", r))
			stubs = []types.CitationStub{}
		}
	}()

	raws := e.provider.Citations(ctx, identifier)
	stubs = make([]types.CitationStub, 0, len(raws))
	for _, raw := range raws {
		stubs = append(stubs, e.provider.Stub(raw))
	}
	span.SetAttributes(attribute.Int("fusion.results", len(stubs)))
	return stubs
}

func (e *Engine) fail(span trace.Span, subject string, err error) {
	e.logger.Error("fusion abandoned", "subject", subject, "error", err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (e *Engine) providerName() string {
	if e.provider == nil {
		return ""
	}
	return e.provider.Name()
}

// sanitize enforces the record invariants whatever the provider produced.
func sanitize(r *types.Record) {
	if strings.TrimSpace(r.Title) == "" {
		r.Title = types.TitleNotFound
	}
	r.Abstract = strings.TrimSpace(r.Abstract)
	if r.CitationCount < 0 {
		r.CitationCount = 0
	}
	r.Identifier = types.BareDOI(r.Identifier)
	r.AccessURL = types.AccessURL(r.Identifier)
	if r.Topics == nil {
		r.Topics = []string{}
	}
	r.SimilarityScore = 0
}
