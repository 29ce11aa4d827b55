// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backfill

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/pdiddy/research-dashboard/internal/httputil"
)

// doiBase resolves identifiers to documents. Declared as a var so tests can
// substitute an httptest server.
var doiBase = "https://doi.org/"

// maxDocumentBytes bounds how much of a landing page is read.
const maxDocumentBytes = 4 << 20

// blockElements end a line when a page is flattened to text.
const blockElements = "p, div, br, li, tr, h1, h2, h3, h4, h5, h6, section, article, header, footer, blockquote, pre, dt, dd"

// DocumentExtractor fetches the landing page behind a DOI and returns the
// line following the first line that mentions "abstract".
type DocumentExtractor struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *slog.Logger
}

// NewDocumentExtractor returns an extractor that issues at most one fetch
// per interval. A nil client gets a 30 s timeout.
func NewDocumentExtractor(client *http.Client, interval time.Duration, userAgent string, logger *slog.Logger) *DocumentExtractor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &DocumentExtractor{
		client:    client,
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: userAgent,
		logger:    logger,
	}
}

// AttemptExtract implements Extractor.
func (d *DocumentExtractor) AttemptExtract(ctx context.Context, identifier string) (string, bool) {
	text, err := d.fetchText(ctx, identifier)
	if err != nil {
		d.logger.Debug("document fetch failed", "identifier", identifier, "error", err)
		return "", false
	}
	return AbstractFromText(text)
}

func (d *DocumentExtractor) fetchText(ctx context.Context, identifier string) (string, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doiBase+escapeDOI(identifier), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	req.Header.Set("Accept", "text/html, text/plain;q=0.9")

	resp, err := httputil.DoWithRetry(ctx, d.client, req, 0)
	if err != nil {
		return "", fmt.Errorf("fetching document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("document returned HTTP %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxDocumentBytes)
	if strings.Contains(resp.Header.Get("Content-Type"), "text/plain") {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("reading document: %w", err)
		}
		return string(data), nil
	}
	return ExtractText(body)
}

// escapeDOI escapes each path segment of a DOI, keeping the "/" separators.
func escapeDOI(doi string) string {
	segments := strings.Split(doi, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// ExtractText flattens an HTML document to plain text, one block element
// per line. Scripts and styles are dropped.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml("\n")
	})
	return doc.Text(), nil
}

// AbstractFromText scans text line by line for the first line containing
// "abstract" (any case) and returns the next non-blank line.
func AbstractFromText(text string) (string, bool) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), "abstract") {
			continue
		}
		if i+1 < len(lines) {
			return lines[i+1], true
		}
		return "", false
	}
	return "", false
}
