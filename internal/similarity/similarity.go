// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity scores free text against query keywords using the
// sequence-matcher ratio: twice the number of characters in matching blocks
// divided by the combined length of both strings.
package similarity

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Weights blends title and abstract similarity into one relevance score.
type Weights struct {
	Title    float64
	Abstract float64
}

// DefaultWeights favors the title.
var DefaultWeights = Weights{Title: 0.7, Abstract: 0.3}

// Ratio returns the case-insensitive matching-block ratio of a and b in
// [0, 1]. Either string being empty yields 0.
func Ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	m := difflib.NewMatcher(chars(strings.ToLower(a)), chars(strings.ToLower(b)))
	return clamp(m.Ratio())
}

// chars splits s into one element per rune.
func chars(s string) []string {
	return strings.Split(s, "")
}

// Relevance scores a record against keywords using DefaultWeights.
func Relevance(title, abstract string, keywords []string) float64 {
	return DefaultWeights.Relevance(title, abstract, keywords)
}

// Relevance returns w.Title times the best title ratio over keywords plus
// w.Abstract times the best abstract ratio. An empty keyword set scores 0.
func (w Weights) Relevance(title, abstract string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	var bestTitle, bestAbstract float64
	for _, k := range keywords {
		bestTitle = max(bestTitle, Ratio(title, k))
		bestAbstract = max(bestAbstract, Ratio(abstract, k))
	}
	return clamp(w.Title*bestTitle + w.Abstract*bestAbstract)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
