// Package strategy decides which retrieval strategies a query runs.
package strategy

import "unicode/utf8"

// RecommendMaxQueryLen is the exclusive codepoint-length bound below
// which a query also runs the prefix-anchored recommend strategy.
const RecommendMaxQueryLen = 5

// Strategy is one of the two alternative retrieval approaches raced
// against each other per query.
type Strategy int

const (
	// Recommend anchors similarity on a precomputed prefix vector.
	Recommend Strategy = iota
	// VectorSearch embeds the full query and searches directly.
	VectorSearch
)

// String returns the strategy name for logs and metrics labels.
func (s Strategy) String() string {
	switch s {
	case Recommend:
		return "recommend"
	case VectorSearch:
		return "vector_search"
	default:
		return "unknown"
	}
}

// Select returns the strategies to run for a query. Short queries embed
// unreliably, so below the length threshold the prefix-anchored
// recommend strategy is added. VectorSearch is always included: the
// exact prefix may never have been indexed, and recommend then yields
// nothing.
func Select(query string) []Strategy {
	if utf8.RuneCountInString(query) < RecommendMaxQueryLen {
		return []Strategy{Recommend, VectorSearch}
	}
	return []Strategy{VectorSearch}
}
