// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize asks a language model to describe a fused result set:
// an overview, the research trends it shows, or the gaps it leaves.
package summarize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"unicode/utf8"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pdiddy/research-dashboard/pkg/types"
)

// ErrMissingAPIKey is returned when no Anthropic key is configured.
var ErrMissingAPIKey = errors.New("anthropic API key is not configured")

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 1024

	// maxPromptRecords and maxAbstractRunes keep the prompt bounded.
	maxPromptRecords = 25
	maxAbstractRunes = 600
)

const systemPrompt = "You are a research analyst. You summarize bibliographic search results for a technical reader. Base every statement on the records provided and do not invent facts. Answer in Markdown."

// Kind selects what the model is asked for.
type Kind string

const (
	Overview Kind = "overview"
	Trends   Kind = "trends"
	Gaps     Kind = "gaps"
)

var instructions = map[Kind]string{
	Overview: "Write a concise overview (3-5 short paragraphs) of the main themes across these publications.",
	Trends:   "Identify the research trends these publications show over time. Use a bulleted list and cite publication years.",
	Gaps:     "Identify open questions and research gaps these publications leave unaddressed. Use a bulleted list.",
}

// ParseKind maps a name to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := instructions[k]; !ok {
		return "", fmt.Errorf("unknown summary kind %q (want overview, trends, or gaps)", s)
	}
	return k, nil
}

var promptTmpl = template.Must(template.New("summary").Parse(`{{.Instruction}}

Search query: {{.Query}}

Publications ({{len .Records}}):
{{range $i, $r := .Records}}
[{{$r.Index}}] {{$r.Title}}{{if $r.Year}} ({{$r.Year}}){{end}}, {{$r.Citations}} citations
{{- if $r.Topics}}
Topics: {{$r.Topics}}
{{- end}}
Abstract: {{$r.Abstract}}
{{end}}`))

type promptRecord struct {
	Index     int
	Title     string
	Year      int
	Citations int
	Topics    string
	Abstract  string
}

// Messager is the subset of the Anthropic client the summarizer uses.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Summarizer produces model-written summaries of record lists.
type Summarizer struct {
	messages  Messager
	model     string
	maxTokens int64
	logger    *slog.Logger
}

// NewAnthropicSummarizer returns a Summarizer backed by the Anthropic API.
// It fails when cfg carries no API key.
func NewAnthropicSummarizer(cfg types.AIConfig, logger *slog.Logger, opts ...option.RequestOption) (*Summarizer, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	c := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(key)}, opts...)...)
	return New(&c.Messages, cfg, logger), nil
}

// New returns a Summarizer over m.
func New(m Messager, cfg types.AIConfig, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Summarizer{
		messages:  m,
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		logger:    logger,
	}
	if s.model == "" {
		s.model = defaultModel
	}
	if s.maxTokens <= 0 {
		s.maxTokens = defaultMaxTokens
	}
	return s
}

// Model returns the model identifier requests are sent to.
func (s *Summarizer) Model() string { return s.model }

// Summarize asks the model for kind over records. An empty record list
// is answered without calling the model.
func (s *Summarizer) Summarize(ctx context.Context, kind Kind, query string, records []types.Record) (string, error) {
	instruction, ok := instructions[kind]
	if !ok {
		return "", fmt.Errorf("unknown summary kind %q", kind)
	}
	if len(records) == 0 {
		return "No publications were found, so there is nothing to summarize.", nil
	}

	prompt, err := buildPrompt(instruction, query, records)
	if err != nil {
		return "", err
	}

	s.logger.Debug("requesting summary", "kind", kind, "model", s.model, "records", min(len(records), maxPromptRecords))
	resp, err := s.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: s.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	})
	if err != nil {
		return "", fmt.Errorf("calling Anthropic API: %w", err)
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("model returned an empty summary")
	}
	return text, nil
}

func buildPrompt(instruction, query string, records []types.Record) (string, error) {
	if len(records) > maxPromptRecords {
		records = records[:maxPromptRecords]
	}
	data := struct {
		Instruction string
		Query       string
		Records     []promptRecord
	}{Instruction: instruction, Query: query}

	for i, r := range records {
		data.Records = append(data.Records, promptRecord{
			Index:     i + 1,
			Title:     r.Title,
			Year:      r.PublicationYear,
			Citations: r.CitationCount,
			Topics:    strings.Join(r.Topics, ", "),
			Abstract:  clip(r.Abstract, maxAbstractRunes),
		})
	}

	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
