package search

import "github.com/kailas-cloud/sitesearch/internal/domain/point"

// Merge flattens tier-ordered result lists into a single page. Tiers
// are consumed in rank order and each tier in its store-ranked order,
// so a point keeps the position of the highest-priority tier that
// returned it. Duplicates (same normalized id) are dropped and the
// output never exceeds limit.
func Merge(batches [][]point.ScoredPoint, limit int) []point.ScoredPoint {
	seen := make(map[string]struct{}, limit)
	out := make([]point.ScoredPoint, 0, limit)

	for _, batch := range batches {
		for _, p := range batch {
			if len(out) == limit {
				return out
			}
			key := p.ID.String()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
