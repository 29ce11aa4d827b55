// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-dashboard/pkg/types"
)

// QueryFile is the on-disk representation of a fused search and its
// results. A saved search can be reprinted later without re-querying.
type QueryFile struct {
	RunID    string               `yaml:"run_id"`
	Query    QueryParams          `yaml:"query"`
	Config   QueryFileConfig      `yaml:"config"`
	Attempts []types.QueryAttempt `yaml:"attempts,omitempty"`
	Results  []types.Record       `yaml:"results"`
	Summary  QuerySummary         `yaml:"summary"`
}

// QueryParams stores the query in a serializable form.
type QueryParams struct {
	FreeText string   `yaml:"free_text"`
	Keywords []string `yaml:"keywords,omitempty"`
}

// QueryFileConfig stores the settings that produced the results.
type QueryFileConfig struct {
	Provider   string `yaml:"provider"`
	PageSize   int    `yaml:"page_size"`
	MaxResults int    `yaml:"max_results"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total     int            `yaml:"total"`
	Abstracts map[string]int `yaml:"abstracts,omitempty"`
	Timestamp time.Time      `yaml:"timestamp"`
}

// NewQueryFile assembles a QueryFile with a fresh run ID.
func NewQueryFile(query string, keywords []string, cfg QueryFileConfig, attempts []types.QueryAttempt, results []types.Record) QueryFile {
	return QueryFile{
		RunID:    uuid.NewString(),
		Query:    QueryParams{FreeText: query, Keywords: keywords},
		Config:   cfg,
		Attempts: attempts,
		Results:  results,
		Summary: QuerySummary{
			Total:     len(results),
			Timestamp: time.Now().UTC(),
		},
	}
}

// WriteQueryFile saves qf to path as YAML.
func WriteQueryFile(path string, qf QueryFile) error {
	if qf.RunID == "" {
		qf.RunID = uuid.NewString()
	}
	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
