package types

import "time"

// HTTPConfig holds shared HTTP settings used by every provider transport.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-dashboard/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetcherConfig controls request pacing and 429 handling for one provider.
type FetcherConfig struct {
	// Spacing is the minimum gap between the end of one request and the
	// start of the next (default 1s).
	Spacing time.Duration `json:"spacing" yaml:"spacing"`

	// Cooldown is the fixed wait after an HTTP 429 before the identical
	// request is reissued (default 5s).
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown"`

	// MaxRetries caps 429 retries. Zero retries indefinitely.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// FusionConfig holds settings for the result-fusion stage.
type FusionConfig struct {
	// PageSize is the number of raw records requested per query attempt (default 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxResults caps the fused output (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// TitleWeight and AbstractWeight blend the two similarity scores
	// (defaults 0.7 and 0.3).
	TitleWeight    float64 `json:"title_weight" yaml:"title_weight"`
	AbstractWeight float64 `json:"abstract_weight" yaml:"abstract_weight"`

	// OpenAlexEmail is sent as mailto for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// BackfillDocuments enables fetching documents to recover abstracts.
	BackfillDocuments bool `json:"backfill_documents" yaml:"backfill_documents"`

	// DocumentInterval is the minimum interval between document fetches
	// during abstract backfill (default 1s).
	DocumentInterval time.Duration `json:"document_interval" yaml:"document_interval"`
}

// PatentConfig holds settings for the patent search provider.
type PatentConfig struct {
	// Endpoint is the patent search URL that accepts question/limit payloads.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// APIKey authenticates against the patent provider. Required.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Limit is the default number of patents to request (default 20).
	Limit int `json:"limit" yaml:"limit"`
}

// AIConfig holds settings for the optional language-model summary.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens bounds the summary length (default 1024).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// TelemetryConfig selects where traces are exported.
type TelemetryConfig struct {
	// OTLPEndpoint is an OTLP/HTTP traces URL. Empty disables export.
	OTLPEndpoint string `json:"otlp_endpoint,omitempty" yaml:"otlp_endpoint,omitempty"`

	// ServiceName labels exported spans (default "research-dashboard").
	ServiceName string `json:"service_name" yaml:"service_name"`
}

// DashboardConfig groups all stage configurations.
type DashboardConfig struct {
	HTTP      HTTPConfig      `json:"http" yaml:"http"`
	Fetcher   FetcherConfig   `json:"fetcher" yaml:"fetcher"`
	Fusion    FusionConfig    `json:"fusion" yaml:"fusion"`
	Patent    PatentConfig    `json:"patent" yaml:"patent"`
	AI        AIConfig        `json:"ai" yaml:"ai"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// DefaultDashboardConfig returns the configuration used when no file or
// environment override is present.
func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "research-dashboard/0.1",
		},
		Fetcher: FetcherConfig{
			Spacing:  1 * time.Second,
			Cooldown: 5 * time.Second,
		},
		Fusion: FusionConfig{
			PageSize:          100,
			MaxResults:        50,
			TitleWeight:       0.7,
			AbstractWeight:    0.3,
			BackfillDocuments: true,
			DocumentInterval:  1 * time.Second,
		},
		Patent: PatentConfig{
			Limit: 20,
		},
		AI: AIConfig{
			Model:     "claude-sonnet-4-5-20250929",
			MaxTokens: 1024,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "research-dashboard",
		},
	}
}
