package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/sitesearch/internal/db"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/cascade"
)

// SearchKNN runs a single KNN vector similarity search via FT.SEARCH.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	cmd, err := buildKNNCommand(s.b(), q)
	if err != nil {
		return nil, err
	}

	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKNNResult(raw)
}

// SearchKNNMulti runs several KNN searches in one DoMulti round-trip.
// Result order matches query order; a failing sub-query fails the batch.
func (s *Store) SearchKNNMulti(ctx context.Context, qs []*db.KNNQuery) ([]*db.SearchResult, error) {
	if len(qs) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(qs))
	for i, q := range qs {
		cmd, err := buildKNNCommand(s.b(), q)
		if err != nil {
			return nil, err
		}
		cmds[i] = cmd
	}

	results := s.doMulti(ctx, cmds...)
	out := make([]*db.SearchResult, len(results))
	for i, res := range results {
		raw, err := res.ToArray()
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("batch query %d: %w", i, err)}
		}
		parsed, err := parseKNNResult(raw)
		if err != nil {
			return nil, err
		}
		out[i] = parsed
	}
	return out, nil
}

func buildKNNCommand(b rueidis.Builder, q *db.KNNQuery) (rueidis.Completed, error) {
	if q.IndexName == "" {
		return rueidis.Completed{}, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return rueidis.Completed{}, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return rueidis.Completed{}, fmt.Errorf("k must be positive")
	}

	filterStr := buildTierFilter(q.Tier)
	queryStr := fmt.Sprintf("(%s)=>[KNN %d @vector $BLOB]", filterStr, q.K)

	args := []string{q.IndexName, queryStr}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	args = append(args, "PARAMS", "2", "BLOB", vectorToBytes(q.Vector), "DIALECT", "2")

	return b.Arbitrary("FT.SEARCH").Args(args...).Build(), nil
}

// --- Result parsing ---

func parseKNNResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		}

		if scoreStr, ok := entry.Fields["__vector_score"]; ok {
			if s, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				entry.Score = max(0, 1.0-s) // cosine distance -> similarity, clamped to [0,1]
			}
			delete(entry.Fields, "__vector_score")
		}

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Filter building ---

// buildTierFilter translates a cascade tier into an FT.SEARCH pre-filter
// query string (dialect 2). Forbidden conditions are rendered with a
// leading "-"; a tier with no required conditions falls back to "*" so
// the negative clauses still parse.
func buildTierFilter(tier cascade.Tier) string {
	var parts []string

	for _, cond := range tier.Must {
		parts = append(parts, buildCondition(cond))
	}
	if len(parts) == 0 {
		parts = append(parts, "*")
	}
	for _, cond := range tier.MustNot {
		parts = append(parts, "-"+buildCondition(cond))
	}

	return strings.Join(parts, " ")
}

func buildCondition(cond cascade.Condition) string {
	switch cond.Type {
	case cascade.TextContains:
		return fmt.Sprintf("@%s:\"%s\"", cond.Key, escapePhrase(cond.Text))
	case cascade.TagAny:
		escaped := make([]string, len(cond.Values))
		for i, v := range cond.Values {
			escaped[i] = tagEscaper.Replace(v)
		}
		return fmt.Sprintf("@%s:{%s}", cond.Key, strings.Join(escaped, "|"))
	case cascade.FacetIs:
		value := ""
		if len(cond.Values) > 0 {
			value = cond.Values[0]
		}
		return fmt.Sprintf("@%s:{%s}", cond.Key, tagEscaper.Replace(value))
	default:
		return "*"
	}
}

// --- Query helpers ---

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

// escapePhrase escapes a string for use inside a quoted FT.SEARCH phrase.
var phraseEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
)

func escapePhrase(s string) string {
	return phraseEscaper.Replace(s)
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
