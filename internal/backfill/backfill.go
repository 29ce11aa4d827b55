// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backfill repairs records whose provider omitted an abstract. It
// tries, in order: the existing abstract, text extracted from the document
// behind the record's identifier, a sentence synthesized from the title and
// topics, and finally a fixed placeholder.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/research-dashboard/pkg/types"
)

// Placeholder is the abstract given to records nothing else could repair.
const Placeholder = "This paper's abstract is not available in our database. You can access the full paper for detailed information."

// maxSynthesisTopics bounds how many topics appear in a synthesized abstract.
const maxSynthesisTopics = 3

// Extractor recovers an abstract for a document identifier. Implementations
// report failure with ok == false; they should not panic, but Backfiller
// recovers if they do.
type Extractor interface {
	AttemptExtract(ctx context.Context, identifier string) (abstract string, ok bool)
}

// Strategy names the step that produced a record's abstract.
type Strategy int

const (
	Original Strategy = iota
	Extracted
	Synthesized
	Placeholdered
)

func (s Strategy) String() string {
	switch s {
	case Original:
		return "original"
	case Extracted:
		return "extracted"
	case Synthesized:
		return "synthesized"
	case Placeholdered:
		return "placeholder"
	default:
		return "unknown"
	}
}

// Backfiller fills empty abstracts. A nil Extractor skips the document step.
type Backfiller struct {
	extractor Extractor
	logger    *slog.Logger
}

// New returns a Backfiller. A nil logger discards output.
func New(extractor Extractor, logger *slog.Logger) *Backfiller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backfiller{extractor: extractor, logger: logger}
}

// Backfill sets rec.Abstract when it is empty and reports which step
// produced it. A whitespace-only abstract counts as empty. After Backfill
// returns rec.Abstract is never blank.
func (b *Backfiller) Backfill(ctx context.Context, rec *types.Record) Strategy {
	if strings.TrimSpace(rec.Abstract) != "" {
		return Original
	}
	rec.Abstract = ""

	if rec.Identifier != "" && b != nil && b.extractor != nil {
		if text, ok := b.extract(ctx, rec.Identifier); ok {
			rec.Abstract = text
			return Extracted
		}
	}

	if text, ok := Synthesize(rec.Title, rec.Topics); ok {
		rec.Abstract = text
		return Synthesized
	}

	rec.Abstract = Placeholder
	return Placeholdered
}

func (b *Backfiller) extract(ctx context.Context, identifier string) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("abstract extraction panicked", "identifier", identifier, "panic", fmt.Sprint(r))
			text, ok = "", false
		}
	}()
	text, ok = b.extractor.AttemptExtract(ctx, identifier)
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		b.logger.Debug("no abstract extracted", "identifier", identifier)
		return "", false
	}
	return text, true
}

// Synthesize builds a one-sentence description from a title and up to three
// topics. It fails when the title is missing or there are no topics.
func Synthesize(title string, topics []string) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" || title == types.TitleNotFound {
		return "", false
	}
	var named []string
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			named = append(named, t)
		}
		if len(named) == maxSynthesisTopics {
			break
		}
	}
	if len(named) == 0 {
		return "", false
	}
	return fmt.Sprintf("This paper titled '%s' focuses on %s. Additional details can be found in the full paper.",
		title, strings.Join(named, ", ")), true
}
