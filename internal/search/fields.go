// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/research-dashboard/pkg/types"
)

// Helpers for reading optional fields out of decoded provider JSON. Every
// helper returns the zero value when the key is missing or has the wrong
// shape.

// stringField returns the first non-blank string stored under keys.
func stringField(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// intField reads a JSON number (or numeric string) as an int.
func intField(raw map[string]any, key string) int {
	switch v := raw[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		return 0
	}
}

// objectField returns the nested object under key.
func objectField(raw map[string]any, key string) map[string]any {
	m, _ := raw[key].(map[string]any)
	return m
}

// objectList returns the objects in the array under key, skipping others.
func objectList(raw map[string]any, key string) []map[string]any {
	items, _ := raw[key].([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// stringList returns the non-blank strings in the array under key. Objects
// in the array contribute their "name" field, if any.
func stringList(raw map[string]any, key string) []string {
	var out []string
	switch v := raw[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range v {
			switch it := item.(type) {
			case string:
				if s := strings.TrimSpace(it); s != "" {
					out = append(out, s)
				}
			case map[string]any:
				if s := stringField(it, "name", "display_name"); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// displayNames collects display_name from each object in the array under key.
func displayNames(raw map[string]any, key string) []string {
	var out []string
	for _, m := range objectList(raw, key) {
		if s := stringField(m, "display_name"); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// lastPathSegment returns the part of s after its final slash.
func lastPathSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// newRecord applies the defaults every provider shares.
func newRecord(source, title, doi string) types.Record {
	if title == "" {
		title = types.TitleNotFound
	}
	id := types.BareDOI(doi)
	return types.Record{
		Title:      title,
		Identifier: id,
		AccessURL:  types.AccessURL(id),
		Topics:     []string{},
		Source:     source,
	}
}
