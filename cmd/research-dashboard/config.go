// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/research-dashboard/internal/backfill"
	"github.com/pdiddy/research-dashboard/internal/fusion"
	"github.com/pdiddy/research-dashboard/internal/httputil"
	"github.com/pdiddy/research-dashboard/internal/search"
	"github.com/pdiddy/research-dashboard/internal/secrets"
	"github.com/pdiddy/research-dashboard/pkg/types"
)

// dashboardConfig layers the config file and RESEARCH_DASHBOARD_* variables
// over the defaults. Keys mirror the yaml tags of types.DashboardConfig,
// e.g. fusion.page_size or RESEARCH_DASHBOARD_FUSION_PAGE_SIZE.
func dashboardConfig() types.DashboardConfig {
	cfg := types.DefaultDashboardConfig()

	setDuration("http.timeout", &cfg.HTTP.Timeout)
	setString("http.user_agent", &cfg.HTTP.UserAgent)

	setDuration("fetcher.spacing", &cfg.Fetcher.Spacing)
	setDuration("fetcher.cooldown", &cfg.Fetcher.Cooldown)
	setInt("fetcher.max_retries", &cfg.Fetcher.MaxRetries)

	setInt("fusion.page_size", &cfg.Fusion.PageSize)
	setInt("fusion.max_results", &cfg.Fusion.MaxResults)
	setFloat("fusion.title_weight", &cfg.Fusion.TitleWeight)
	setFloat("fusion.abstract_weight", &cfg.Fusion.AbstractWeight)
	setString("fusion.openalex_email", &cfg.Fusion.OpenAlexEmail)
	setBool("fusion.backfill_documents", &cfg.Fusion.BackfillDocuments)
	setDuration("fusion.document_interval", &cfg.Fusion.DocumentInterval)

	setString("patent.endpoint", &cfg.Patent.Endpoint)
	setString("patent.api_key", &cfg.Patent.APIKey)
	setInt("patent.limit", &cfg.Patent.Limit)

	setString("ai.model", &cfg.AI.Model)
	setString("ai.api_key", &cfg.AI.APIKey)
	setInt("ai.max_tokens", &cfg.AI.MaxTokens)

	setString("telemetry.otlp_endpoint", &cfg.Telemetry.OTLPEndpoint)
	setString("telemetry.service_name", &cfg.Telemetry.ServiceName)

	// Credentials fall back to .secrets/ and the conventional variables.
	if cfg.Patent.APIKey == "" {
		cfg.Patent.APIKey = secrets.Lookup(loadedSecrets, secrets.PatentAPIKey, "PATENT_API_KEY")
	}
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = secrets.Lookup(loadedSecrets, secrets.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	}
	if cfg.Fusion.OpenAlexEmail == "" {
		cfg.Fusion.OpenAlexEmail = secrets.Lookup(loadedSecrets, secrets.OpenAlexEmail, "OPENALEX_EMAIL")
	}
	return cfg
}

func setString(key string, dst *string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func setInt(key string, dst *int) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func setFloat(key string, dst *float64) {
	if viper.IsSet(key) {
		*dst = viper.GetFloat64(key)
	}
}

func setBool(key string, dst *bool) {
	if viper.IsSet(key) {
		*dst = viper.GetBool(key)
	}
}

func setDuration(key string, dst *time.Duration) {
	if viper.IsSet(key) {
		*dst = viper.GetDuration(key)
	}
}

func newHTTPClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

func newFetcher(cfg types.DashboardConfig, opts ...httputil.FetcherOption) *httputil.Fetcher {
	opts = append([]httputil.FetcherOption{
		httputil.FromConfig(cfg.Fetcher),
		httputil.WithLogger(slog.Default()),
		httputil.WithHeader("User-Agent", cfg.HTTP.UserAgent),
	}, opts...)
	return httputil.NewFetcher(newHTTPClient(cfg.HTTP), opts...)
}

// newProvider returns the named academic search provider.
func newProvider(name string, cfg types.DashboardConfig) (fusion.Provider, error) {
	switch strings.ToLower(name) {
	case "", "openalex":
		return search.NewOpenAlexSource(newFetcher(cfg), cfg.Fusion.OpenAlexEmail), nil
	case "semantic", "semantic_scholar", "semanticscholar":
		key := secrets.Lookup(loadedSecrets, secrets.SemanticScholarAPIKey, "SEMANTIC_SCHOLAR_API_KEY")
		return search.NewSemanticScholarSource(newFetcher(cfg, httputil.WithHeader("x-api-key", key))), nil
	case "arxiv":
		return search.NewArxivSource(newFetcher(cfg, httputil.WithHeader("Accept", "application/atom+xml"))), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want openalex, semantic or arxiv)", name)
	}
}

// newPatentSource builds the patent provider, failing when its endpoint or
// key is missing.
func newPatentSource(cfg types.DashboardConfig) (*search.PatentSource, error) {
	return search.NewPatentSource(newHTTPClient(cfg.HTTP), cfg.Patent,
		httputil.FromConfig(cfg.Fetcher),
		httputil.WithLogger(slog.Default()),
		httputil.WithHeader("User-Agent", cfg.HTTP.UserAgent),
	)
}

// newEngine wires a fusion engine over provider with abstract backfill.
func newEngine(provider fusion.Provider, cfg types.DashboardConfig, fetchDocuments bool) *fusion.Engine {
	logger := slog.Default()
	var extractor backfill.Extractor
	if fetchDocuments {
		extractor = backfill.NewDocumentExtractor(newHTTPClient(cfg.HTTP), cfg.Fusion.DocumentInterval, cfg.HTTP.UserAgent, logger)
	}
	return fusion.NewEngine(provider, backfill.New(extractor, logger),
		fusion.FromConfig(cfg.Fusion),
		fusion.WithLogger(logger),
	)
}
