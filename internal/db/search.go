package db

import "github.com/kailas-cloud/sitesearch/internal/domain/search/cascade"

// KNNQuery is the input for one vector similarity search against an FT
// index, pre-filtered by a cascade tier.
type KNNQuery struct {
	IndexName    string
	Tier         cascade.Tier
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
