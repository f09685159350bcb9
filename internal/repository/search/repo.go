// Package search adapts the db store into the batched vector store
// operations the query engine consumes.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/sitesearch/internal/db"
	"github.com/kailas-cloud/sitesearch/internal/domain"
	"github.com/kailas-cloud/sitesearch/internal/domain/point"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/cascade"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNNMulti(ctx context.Context, qs []*db.KNNQuery) ([]*db.SearchResult, error)
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// Config names the two collections and the shared key prefix.
type Config struct {
	KeyPrefix        string
	Collection       string
	PrefixCollection string
	PageSize         int
}

// Repo implements the batched search and recommend operations against
// the content collection, with recommend anchors looked up from the
// prefix collection.
type Repo struct {
	store store
	cfg   Config
}

// New creates a search repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// SearchBatch issues one batched call carrying every cascade tier as a
// KNN sub-query over the content collection. Returned slices are in
// tier order, each ranked by similarity by the store.
func (r *Repo) SearchBatch(
	ctx context.Context, vector []float32, tiers [cascade.Tiers]cascade.Tier,
) ([][]point.ScoredPoint, error) {
	qs := r.tierQueries(vector, tiers)

	results, err := r.store.SearchKNNMulti(ctx, qs)
	if err != nil {
		return nil, fmt.Errorf("search batch: %w: %w", domain.ErrVectorStoreUnavailable, err)
	}

	return r.parseBatch(results)
}

// RecommendBatch resolves the anchor vector from the prefix collection
// and issues the same batched tier search over the content collection.
// An anchor that was never indexed yields ErrPrefixNotIndexed.
func (r *Repo) RecommendBatch(
	ctx context.Context, anchor point.ID, tiers [cascade.Tiers]cascade.Tier,
) ([][]point.ScoredPoint, error) {
	key := fmt.Sprintf("%s%s:%s", r.cfg.KeyPrefix, r.cfg.PrefixCollection, anchor.String())

	raw, err := r.store.JSONGet(ctx, key, "$.vector")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrPrefixNotIndexed
		}
		return nil, fmt.Errorf("anchor lookup: %w: %w", domain.ErrVectorStoreUnavailable, err)
	}

	vector, err := parseVectorJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("anchor %s: %w", anchor, err)
	}

	return r.SearchBatch(ctx, vector, tiers)
}

func (r *Repo) tierQueries(
	vector []float32, tiers [cascade.Tiers]cascade.Tier,
) []*db.KNNQuery {
	indexName := fmt.Sprintf("%s%s:idx", r.cfg.KeyPrefix, r.cfg.Collection)

	qs := make([]*db.KNNQuery, 0, len(tiers))
	for _, tier := range tiers {
		qs = append(qs, &db.KNNQuery{
			IndexName:    indexName,
			Tier:         tier,
			Vector:       vector,
			K:            r.cfg.PageSize,
			ReturnFields: []string{"__vector_score", "$"},
		})
	}
	return qs
}

func (r *Repo) parseBatch(results []*db.SearchResult) ([][]point.ScoredPoint, error) {
	keyPrefix := fmt.Sprintf("%s%s:", r.cfg.KeyPrefix, r.cfg.Collection)

	out := make([][]point.ScoredPoint, 0, len(results))
	for _, sr := range results {
		out = append(out, parseTierResult(sr, keyPrefix))
	}
	return out, nil
}

// parseTierResult converts one tier's hits into scored points. Entries
// with unparsable ids or documents are skipped rather than failing the
// whole tier.
func parseTierResult(sr *db.SearchResult, keyPrefix string) []point.ScoredPoint {
	if sr == nil || sr.Total == 0 {
		return nil
	}

	points := make([]point.ScoredPoint, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id, err := point.ParseID(strings.TrimPrefix(entry.Key, keyPrefix))
		if err != nil {
			continue
		}

		payload, err := parseDocPayload(entry.Fields["$"])
		if err != nil {
			continue
		}

		points = append(points, point.ScoredPoint{
			ID:      id,
			Score:   entry.Score,
			Payload: payload,
		})
	}
	return points
}

// parseDocPayload decodes the stored JSON document and strips the
// embedding, which is storage detail rather than payload.
func parseDocPayload(doc string) (point.Payload, error) {
	if doc == "" {
		return point.Payload{}, nil
	}

	var payload point.Payload
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	delete(payload, "vector")
	return payload, nil
}

// parseVectorJSON decodes a JSON.GET $.vector reply, which arrives as a
// single-element array of matches.
func parseVectorJSON(raw []byte) ([]float32, error) {
	var matches [][]float32
	if err := json.Unmarshal(raw, &matches); err != nil {
		var flat []float32
		if err2 := json.Unmarshal(raw, &flat); err2 == nil {
			return flat, nil
		}
		return nil, fmt.Errorf("decode anchor vector: %w", err)
	}
	if len(matches) == 0 || len(matches[0]) == 0 {
		return nil, fmt.Errorf("anchor vector is empty")
	}
	return matches[0], nil
}
