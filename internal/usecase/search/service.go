// Package search orchestrates the query pipeline: cascade construction,
// strategy selection, concurrent batched execution, and merging.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sitesearch/internal/domain"
	"github.com/kailas-cloud/sitesearch/internal/domain/point"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/cascade"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/strategy"
	"github.com/kailas-cloud/sitesearch/internal/logger"
	"github.com/kailas-cloud/sitesearch/internal/metrics"
)

// DefaultPageSize caps the merged result page.
const DefaultPageSize = 5

// Service runs search queries against the vector store.
type Service struct {
	repo     Repository
	embed    Embedder
	pageSize int
}

// New creates a search service.
func New(repo Repository, embed Embedder) *Service {
	return &Service{repo: repo, embed: embed, pageSize: DefaultPageSize}
}

// WithPageSize overrides the merged page size.
func (s *Service) WithPageSize(n int) *Service {
	if n > 0 {
		s.pageSize = n
	}
	return s
}

type outcome struct {
	strat  strategy.Strategy
	points []point.ScoredPoint
	err    error
}

// Search executes a query with an optional section facet. Selected
// strategies run concurrently; the first non-empty merged result wins.
// A strategy that completes empty leaves the race waiting on its
// siblings. Recommend failures degrade to empty results; a VectorSearch
// failure surfaces only when no sibling produced anything.
func (s *Service) Search(
	ctx context.Context, query, section string,
) ([]point.ScoredPoint, error) {
	log := logger.FromContext(ctx)

	tiers := cascade.Build(query, section)
	strategies := strategy.Select(query)

	ch := make(chan outcome, len(strategies))
	for _, st := range strategies {
		go func(st strategy.Strategy) {
			points, err := s.execute(ctx, st, query, tiers)
			ch <- outcome{strat: st, points: points, err: err}
		}(st)
	}

	var searchErr error
	for range strategies {
		o := <-ch
		switch {
		case o.err != nil:
			if o.strat == strategy.Recommend {
				// Best-effort accelerator: a missing or failing prefix
				// anchor never fails the request.
				if !errors.Is(o.err, domain.ErrPrefixNotIndexed) {
					log.Warn("recommend strategy failed",
						zap.String("query", query), zap.Error(o.err))
				}
				metrics.SearchStrategyTotal.WithLabelValues(o.strat.String(), "error").Inc()
				continue
			}
			log.Error("vector search strategy failed",
				zap.String("query", query), zap.Error(o.err))
			metrics.SearchStrategyTotal.WithLabelValues(o.strat.String(), "error").Inc()
			searchErr = o.err

		case len(o.points) > 0:
			metrics.SearchStrategyTotal.WithLabelValues(o.strat.String(), "win").Inc()
			return o.points, nil

		default:
			metrics.SearchStrategyTotal.WithLabelValues(o.strat.String(), "empty").Inc()
		}
	}

	if searchErr != nil {
		return nil, searchErr
	}
	return nil, nil
}

// execute runs one strategy: a single batched store call carrying all
// cascade tiers, merged down to one page.
func (s *Service) execute(
	ctx context.Context,
	st strategy.Strategy,
	query string,
	tiers [cascade.Tiers]cascade.Tier,
) ([]point.ScoredPoint, error) {
	start := time.Now()

	var batches [][]point.ScoredPoint
	var err error

	switch st {
	case strategy.Recommend:
		batches, err = s.repo.RecommendBatch(ctx, point.PrefixID(query), tiers)
	case strategy.VectorSearch:
		var emb domain.EmbeddingResult
		emb, err = s.embed.Embed(ctx, query)
		if err != nil {
			err = fmt.Errorf("vectorize query: %w", err)
			break
		}
		batches, err = s.repo.SearchBatch(ctx, emb.Embedding, tiers)
	default:
		err = fmt.Errorf("unsupported strategy: %s", st)
	}

	metrics.SearchStrategyDuration.WithLabelValues(st.String()).
		Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	return Merge(batches, s.pageSize), nil
}
