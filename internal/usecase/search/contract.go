package search

import (
	"context"

	"github.com/kailas-cloud/sitesearch/internal/domain"
	"github.com/kailas-cloud/sitesearch/internal/domain/point"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/cascade"
)

// Repository defines the vector store contract for batched tier queries.
// Both operations return one result list per tier, in tier order, each
// list ranked by similarity.
type Repository interface {
	SearchBatch(
		ctx context.Context, vector []float32, tiers [cascade.Tiers]cascade.Tier,
	) ([][]point.ScoredPoint, error)

	RecommendBatch(
		ctx context.Context, anchor point.ID, tiers [cascade.Tiers]cascade.Tier,
	) ([][]point.ScoredPoint, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
