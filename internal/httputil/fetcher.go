// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/research-dashboard/pkg/types"
)

const (
	defaultSpacing  = 1 * time.Second
	defaultCooldown = 5 * time.Second
	defaultTimeout  = 30 * time.Second
)

// Payload is a decoded JSON response body. A failed request yields
// EmptyPayload rather than an error.
type Payload map[string]any

// EmptyPayload returns the payload used in place of any failed response.
func EmptyPayload() Payload {
	return Payload{"results": []any{}}
}

// Records returns the objects stored under key as RawRecords. Non-object
// elements are skipped.
func (p Payload) Records(key string) []types.RawRecord {
	items, ok := p[key].([]any)
	if !ok {
		return nil
	}
	out := make([]types.RawRecord, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, types.RawRecord(m))
		}
	}
	return out
}

// Clock abstracts time so tests can observe request spacing and 429
// cooldowns without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fetcher issues JSON requests to one provider. It keeps a minimum spacing
// between consecutive requests, measured from the end of the previous one,
// and reissues a request after a fixed cooldown whenever the provider
// answers 429. Every other failure is logged and turned into EmptyPayload.
//
// A Fetcher is safe for concurrent use; requests through one Fetcher are
// serialized so the spacing holds across callers.
type Fetcher struct {
	client     *http.Client
	clock      Clock
	logger     *slog.Logger
	header     http.Header
	spacing    time.Duration
	cooldown   time.Duration
	maxRetries int

	mu          sync.Mutex
	lastRequest time.Time
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithClock replaces the wall clock.
func WithClock(c Clock) FetcherOption {
	return func(f *Fetcher) { f.clock = c }
}

// WithLogger sets the logger used for absorbed failures.
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) FetcherOption {
	return func(f *Fetcher) {
		if value != "" {
			f.header.Set(key, value)
		}
	}
}

// WithSpacing sets the minimum gap between requests. Zero disables it.
func WithSpacing(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.spacing = d }
}

// WithCooldown sets the wait applied after each 429.
func WithCooldown(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.cooldown = d }
}

// WithMaxRetries caps the number of 429 retries per request. Zero means
// no cap.
func WithMaxRetries(n int) FetcherOption {
	return func(f *Fetcher) { f.maxRetries = n }
}

// FromConfig applies the pacing settings of cfg.
func FromConfig(cfg types.FetcherConfig) FetcherOption {
	return func(f *Fetcher) {
		f.spacing = cfg.Spacing
		f.cooldown = cfg.Cooldown
		f.maxRetries = cfg.MaxRetries
	}
}

// NewFetcher returns a Fetcher using client. A nil client gets a 30 s timeout.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	f := &Fetcher{
		client:   client,
		clock:    realClock{},
		logger:   slog.New(slog.DiscardHandler),
		header:   http.Header{},
		spacing:  defaultSpacing,
		cooldown: defaultCooldown,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get issues a GET to endpoint with params encoded into the query string.
func (f *Fetcher) Get(ctx context.Context, endpoint string, params url.Values) Payload {
	return f.do(ctx, http.MethodGet, withQuery(endpoint, params), nil)
}

func withQuery(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + params.Encode()
}

// Post issues a POST to endpoint with payload encoded as JSON.
func (f *Fetcher) Post(ctx context.Context, endpoint string, payload any) Payload {
	body, err := json.Marshal(payload)
	if err != nil {
		f.logger.Warn("encoding request body", "endpoint", endpoint, "error", err)
		return EmptyPayload()
	}
	return f.do(ctx, http.MethodPost, endpoint, body)
}

func (f *Fetcher) do(ctx context.Context, method, reqURL string, body []byte) Payload {
	data, ok := f.fetch(ctx, method, reqURL, body)
	if !ok {
		return EmptyPayload()
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		f.logger.Warn("response is not JSON", "url", reqURL, "error", err)
		return EmptyPayload()
	}
	if p == nil {
		return EmptyPayload()
	}
	return p
}

// GetRaw is Get for non-JSON bodies such as Atom feeds. It applies the
// same spacing and 429 handling; ok is false on any failure.
func (f *Fetcher) GetRaw(ctx context.Context, endpoint string, params url.Values) (body []byte, ok bool) {
	return f.fetch(ctx, http.MethodGet, withQuery(endpoint, params), nil)
}

// fetch runs one request to completion, reissuing it after each 429.
func (f *Fetcher) fetch(ctx context.Context, method, reqURL string, body []byte) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for attempt := 0; ; attempt++ {
		if err := f.waitForSpacing(ctx); err != nil {
			f.logger.Warn("request abandoned while spacing", "url", reqURL, "error", err)
			return nil, false
		}

		status, data, err := f.roundTrip(ctx, method, reqURL, body)
		f.lastRequest = f.clock.Now()
		if err != nil {
			f.logger.Warn("request failed", "method", method, "url", reqURL, "error", err)
			return nil, false
		}

		if status == http.StatusTooManyRequests {
			if f.maxRetries > 0 && attempt >= f.maxRetries {
				f.logger.Warn("rate limited, retries exhausted", "url", reqURL, "attempts", attempt+1)
				return nil, false
			}
			f.logger.Info("rate limited, cooling down", "url", reqURL, "cooldown", f.cooldown, "attempt", attempt+1)
			if err := f.clock.Sleep(ctx, f.cooldown); err != nil {
				f.logger.Warn("request abandoned during cooldown", "url", reqURL, "error", err)
				return nil, false
			}
			continue
		}

		if status < 200 || status > 299 {
			f.logger.Warn("unexpected status", "method", method, "url", reqURL, "status", status)
			return nil, false
		}
		return data, true
	}
}

// waitForSpacing blocks until Spacing has elapsed since the last request.
func (f *Fetcher) waitForSpacing(ctx context.Context) error {
	if f.spacing <= 0 || f.lastRequest.IsZero() {
		return nil
	}
	elapsed := f.clock.Now().Sub(f.lastRequest)
	if elapsed >= f.spacing {
		return nil
	}
	return f.clock.Sleep(ctx, f.spacing-elapsed)
}

func (f *Fetcher) roundTrip(ctx context.Context, method, reqURL string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range f.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, data, nil
}
