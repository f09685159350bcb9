package search

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/sitesearch/internal/db"
	"github.com/kailas-cloud/sitesearch/internal/domain"
	"github.com/kailas-cloud/sitesearch/internal/domain/point"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/cascade"
)

// --- Mocks ---

type mockStore struct {
	searchResults []*db.SearchResult
	searchErr     error
	lastQueries   []*db.KNNQuery

	jsonData []byte
	jsonErr  error
	lastKey  string
	lastPath string
}

func (m *mockStore) SearchKNNMulti(_ context.Context, qs []*db.KNNQuery) ([]*db.SearchResult, error) {
	m.lastQueries = qs
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchResults != nil {
		return m.searchResults, nil
	}
	out := make([]*db.SearchResult, len(qs))
	for i := range out {
		out[i] = &db.SearchResult{}
	}
	return out, nil
}

func (m *mockStore) JSONGet(_ context.Context, key string, paths ...string) ([]byte, error) {
	m.lastKey = key
	if len(paths) > 0 {
		m.lastPath = paths[0]
	}
	return m.jsonData, m.jsonErr
}

func testConfig() Config {
	return Config{
		KeyPrefix:        "site:",
		Collection:       "content",
		PrefixCollection: "prefix",
		PageSize:         5,
	}
}

func entry(key string, score float64, doc string) db.SearchEntry {
	return db.SearchEntry{
		Key:    key,
		Score:  score,
		Fields: map[string]string{"$": doc},
	}
}

// --- Tests ---

func TestSearchBatchQueries(t *testing.T) {
	store := &mockStore{}
	repo := New(store, testConfig())

	tiers := cascade.Build("wifi", "")
	vector := []float32{0.1, 0.2, 0.3}

	if _, err := repo.SearchBatch(context.Background(), vector, tiers); err != nil {
		t.Fatalf("SearchBatch: %v", err)
	}

	if len(store.lastQueries) != cascade.Tiers {
		t.Fatalf("issued %d queries, want %d", len(store.lastQueries), cascade.Tiers)
	}
	for i, q := range store.lastQueries {
		if q.IndexName != "site:content:idx" {
			t.Errorf("query %d index = %q", i, q.IndexName)
		}
		if q.K != 5 {
			t.Errorf("query %d k = %d, want page size", i, q.K)
		}
		if len(q.Vector) != 3 {
			t.Errorf("query %d vector len = %d", i, len(q.Vector))
		}
		if q.Tier.Rank != tiers[i].Rank {
			t.Errorf("query %d rank = %v, want %v", i, q.Tier.Rank, tiers[i].Rank)
		}
	}
}

func TestSearchBatchParsesResults(t *testing.T) {
	store := &mockStore{
		searchResults: []*db.SearchResult{
			{Total: 1, Entries: []db.SearchEntry{
				entry("site:content:42", 0.9, `{"text":"The cat sat.","tag":"h1","vector":[0.1]}`),
			}},
			{Total: 1, Entries: []db.SearchEntry{
				entry("site:content:7", 0.8, `{"text":"body text","tag":"p"}`),
			}},
			{},
			{},
		},
	}
	repo := New(store, testConfig())

	batches, err := repo.SearchBatch(context.Background(), []float32{0.1}, cascade.Build("cat", ""))
	if err != nil {
		t.Fatalf("SearchBatch: %v", err)
	}

	if len(batches) != cascade.Tiers {
		t.Fatalf("got %d batches, want %d", len(batches), cascade.Tiers)
	}
	if len(batches[0]) != 1 {
		t.Fatalf("tier 1 has %d points", len(batches[0]))
	}

	p := batches[0][0]
	if p.ID != point.NumID(42) {
		t.Errorf("id = %v, want 42", p.ID)
	}
	if p.Score != 0.9 {
		t.Errorf("score = %v, want 0.9", p.Score)
	}
	if text, _ := p.Payload.Text(); text != "The cat sat." {
		t.Errorf("payload text = %q", text)
	}
	if _, ok := p.Payload["vector"]; ok {
		t.Error("stored embedding must be stripped from the payload")
	}
}

func TestSearchBatchSkipsBadEntries(t *testing.T) {
	store := &mockStore{
		searchResults: []*db.SearchResult{
			{Total: 3, Entries: []db.SearchEntry{
				entry("site:content:not-an-id", 0.9, `{"text":"a"}`),
				entry("site:content:1", 0.8, `{broken json`),
				entry("site:content:2", 0.7, `{"text":"keep me"}`),
			}},
			{}, {}, {},
		},
	}
	repo := New(store, testConfig())

	batches, err := repo.SearchBatch(context.Background(), []float32{0.1}, cascade.Build("", ""))
	if err != nil {
		t.Fatalf("SearchBatch: %v", err)
	}
	if len(batches[0]) != 1 {
		t.Fatalf("tier 1 has %d points, want only the valid one", len(batches[0]))
	}
	if batches[0][0].ID != point.NumID(2) {
		t.Errorf("surviving id = %v, want 2", batches[0][0].ID)
	}
}

func TestSearchBatchStoreFailure(t *testing.T) {
	store := &mockStore{searchErr: errors.New("connection refused")}
	repo := New(store, testConfig())

	_, err := repo.SearchBatch(context.Background(), []float32{0.1}, cascade.Build("", ""))
	if !errors.Is(err, domain.ErrVectorStoreUnavailable) {
		t.Errorf("error = %v, want ErrVectorStoreUnavailable", err)
	}
}

func TestRecommendBatchAnchorLookup(t *testing.T) {
	store := &mockStore{
		jsonData: []byte(`[[0.5,0.25]]`),
	}
	repo := New(store, testConfig())

	anchor := point.PrefixID("cat")
	if _, err := repo.RecommendBatch(context.Background(), anchor, cascade.Build("cat", "")); err != nil {
		t.Fatalf("RecommendBatch: %v", err)
	}

	wantKey := "site:prefix:" + anchor.String()
	if store.lastKey != wantKey {
		t.Errorf("anchor key = %q, want %q", store.lastKey, wantKey)
	}
	if store.lastPath != "$.vector" {
		t.Errorf("anchor path = %q, want $.vector", store.lastPath)
	}

	// The resolved anchor vector drives the tier queries.
	if len(store.lastQueries) != cascade.Tiers {
		t.Fatalf("issued %d queries", len(store.lastQueries))
	}
	v := store.lastQueries[0].Vector
	if len(v) != 2 || v[0] != 0.5 || v[1] != 0.25 {
		t.Errorf("query vector = %v, want the anchor vector", v)
	}
}

func TestRecommendBatchFlatVectorShape(t *testing.T) {
	store := &mockStore{jsonData: []byte(`[0.5,0.25]`)}
	repo := New(store, testConfig())

	if _, err := repo.RecommendBatch(context.Background(), point.NumID(1), cascade.Build("", "")); err != nil {
		t.Fatalf("RecommendBatch: %v", err)
	}
	if len(store.lastQueries[0].Vector) != 2 {
		t.Errorf("query vector = %v", store.lastQueries[0].Vector)
	}
}

func TestRecommendBatchAnchorMissing(t *testing.T) {
	store := &mockStore{jsonErr: db.ErrKeyNotFound}
	repo := New(store, testConfig())

	_, err := repo.RecommendBatch(context.Background(), point.PrefixID("zq"), cascade.Build("zq", ""))
	if !errors.Is(err, domain.ErrPrefixNotIndexed) {
		t.Errorf("error = %v, want ErrPrefixNotIndexed", err)
	}
}

func TestRecommendBatchStoreFailure(t *testing.T) {
	store := &mockStore{jsonErr: errors.New("connection refused")}
	repo := New(store, testConfig())

	_, err := repo.RecommendBatch(context.Background(), point.NumID(1), cascade.Build("", ""))
	if !errors.Is(err, domain.ErrVectorStoreUnavailable) {
		t.Errorf("error = %v, want ErrVectorStoreUnavailable", err)
	}
}
