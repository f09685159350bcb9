// Command sitesearch-indexer loads site content and query prefixes into
// the vector store. It is the offline companion of the API server:
//
//	sitesearch-indexer content --file data/abstracts.jsonl
//	sitesearch-indexer prefixes --file data/words.txt
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sitesearch/internal/config"
	"github.com/kailas-cloud/sitesearch/internal/db"
	dbRedis "github.com/kailas-cloud/sitesearch/internal/db/redis"
	"github.com/kailas-cloud/sitesearch/internal/domain"
	"github.com/kailas-cloud/sitesearch/internal/domain/point"
	logpkg "github.com/kailas-cloud/sitesearch/internal/logger"
	"github.com/kailas-cloud/sitesearch/internal/metrics"
	"github.com/kailas-cloud/sitesearch/internal/repository/embcache"
	openaiEmb "github.com/kailas-cloud/sitesearch/internal/transport/openai"
	"github.com/kailas-cloud/sitesearch/internal/version"
)

const defaultBatchSize = 256

func main() {
	app := &cli.App{
		Name:    "sitesearch-indexer",
		Usage:   "load documents and query prefixes into the search store",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "documents per pipelined write",
				Value: defaultBatchSize,
			},
			&cli.BoolFlag{
				Name:  "recreate",
				Usage: "drop and recreate the target index",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "content",
				Usage: "index site content from a JSONL file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "JSONL file, one document per line with a text field",
						Required: true,
					},
				},
				Action: runContent,
			},
			{
				Name:  "prefixes",
				Usage: "index 1..5-codepoint word prefixes from a word list",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "word list, one word per line",
						Required: true,
					},
				},
				Action: runPrefixes,
			},
		},
	}

	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGTERM, syscall.SIGINT,
	)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// indexer bundles the collaborators both commands need.
type indexer struct {
	cfg      config.Config
	store    db.Store
	embedder domain.Embedder
	logger   *zap.Logger
}

func setup(ctx context.Context) (*indexer, error) {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	embedder := embcache.New(base, store, cfg.Search.KeyPrefix, metrics.EmbeddingCacheTotal, logger)

	return &indexer{cfg: cfg, store: store, embedder: embedder, logger: logger}, nil
}

func (ix *indexer) close() {
	ix.store.Close()
	_ = ix.logger.Sync()
}

func runContent(c *cli.Context) error {
	ctx := c.Context

	ix, err := setup(ctx)
	if err != nil {
		return err
	}
	defer ix.close()

	keyPrefix := ix.cfg.Search.KeyPrefix + ix.cfg.Search.Collection + ":"
	indexName := keyPrefix + "idx"

	if err := ix.ensureIndex(ctx, contentIndexDef(indexName, keyPrefix, ix.cfg), c.Bool("recreate")); err != nil {
		return err
	}

	file, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("open content file: %w", err)
	}
	defer file.Close()

	var (
		batch []db.JSONSetItem
		id    uint64
		total int
	)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var doc map[string]interface{}
		if err := json.Unmarshal(line, &doc); err != nil {
			return fmt.Errorf("line %d: decode document: %w", total+1, err)
		}
		text, _ := doc["text"].(string)
		if text == "" {
			ix.logger.Warn("Skipping document without text", zap.Int("line", total+1))
			continue
		}

		emb, err := ix.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("embed document %d: %w", total+1, err)
		}
		doc["vector"] = emb.Embedding

		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode document %d: %w", total+1, err)
		}

		// Sequential numeric ids, starting from 1.
		id++
		batch = append(batch, db.JSONSetItem{
			Key:  keyPrefix + point.NumID(id).String(),
			Path: "$",
			Data: data,
		})
		total++

		if len(batch) >= c.Int("batch-size") {
			if err := ix.flush(ctx, &batch, total); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read content file: %w", err)
	}
	if err := ix.flush(ctx, &batch, total); err != nil {
		return err
	}

	ix.logger.Info("Content indexed",
		zap.Int("documents", total),
		zap.String("index", indexName),
	)
	return nil
}

func runPrefixes(c *cli.Context) error {
	ctx := c.Context

	ix, err := setup(ctx)
	if err != nil {
		return err
	}
	defer ix.close()

	keyPrefix := ix.cfg.Search.KeyPrefix + ix.cfg.Search.PrefixCollection + ":"
	indexName := keyPrefix + "idx"

	if err := ix.ensureIndex(ctx, prefixIndexDef(indexName, keyPrefix, ix.cfg), c.Bool("recreate")); err != nil {
		return err
	}

	prefixes, err := collectPrefixes(c.String("file"))
	if err != nil {
		return err
	}
	ix.logger.Info("Prefixes collected", zap.Int("count", len(prefixes)))

	var (
		batch []db.JSONSetItem
		total int
	)
	for _, prefix := range prefixes {
		emb, err := ix.embedder.Embed(ctx, prefix)
		if err != nil {
			return fmt.Errorf("embed prefix %q: %w", prefix, err)
		}

		data, err := json.Marshal(map[string]interface{}{
			"prefix": prefix,
			"vector": emb.Embedding,
		})
		if err != nil {
			return fmt.Errorf("encode prefix %q: %w", prefix, err)
		}

		batch = append(batch, db.JSONSetItem{
			Key:  keyPrefix + point.PrefixID(prefix).String(),
			Path: "$",
			Data: data,
		})
		total++

		if len(batch) >= c.Int("batch-size") {
			if err := ix.flush(ctx, &batch, total); err != nil {
				return err
			}
		}
	}
	if err := ix.flush(ctx, &batch, total); err != nil {
		return err
	}

	ix.logger.Info("Prefixes indexed",
		zap.Int("prefixes", total),
		zap.String("index", indexName),
	)
	return nil
}

func (ix *indexer) flush(ctx context.Context, batch *[]db.JSONSetItem, total int) error {
	if len(*batch) == 0 {
		return nil
	}
	if err := ix.store.JSONSetMulti(ctx, *batch); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	ix.logger.Info("Batch written", zap.Int("size", len(*batch)), zap.Int("total", total))
	*batch = (*batch)[:0]
	return nil
}

func (ix *indexer) ensureIndex(ctx context.Context, def *db.IndexDefinition, recreate bool) error {
	exists, err := ix.store.IndexExists(ctx, def.Name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", def.Name, err)
	}

	if exists && recreate {
		if err := ix.store.DropIndex(ctx, def.Name); err != nil {
			return fmt.Errorf("drop index %s: %w", def.Name, err)
		}
		exists = false
	}
	if exists {
		return nil
	}

	if err := ix.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}
	ix.logger.Info("Index created", zap.String("index", def.Name))
	return nil
}

func contentIndexDef(name, keyPrefix string, cfg config.Config) *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     name,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "$.text", Alias: "text", Type: db.IndexFieldText},
			{Name: "$.tag", Alias: "tag", Type: db.IndexFieldTag},
			{Name: "$.sections[*]", Alias: "sections", Type: db.IndexFieldTag},
			vectorField(cfg),
		},
	}
}

func prefixIndexDef(name, keyPrefix string, cfg config.Config) *db.IndexDefinition {
	// Anchors are fetched by key, never KNN-searched: a FLAT index keeps
	// writes cheap and the collection still introspectable.
	return &db.IndexDefinition{
		Name:     name,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "$.prefix", Alias: "prefix", Type: db.IndexFieldTag},
			{
				Name:           "$.vector",
				Alias:          "vector",
				Type:           db.IndexFieldVector,
				VectorAlgo:     db.VectorFlat,
				VectorDim:      vectorField(cfg).VectorDim,
				VectorDistance: db.DistanceCosine,
			},
		},
	}
}

func vectorField(cfg config.Config) db.IndexField {
	dims := cfg.Embedding.Dimensions
	if dims <= 0 {
		dims = domain.VectorSize
	}
	return db.IndexField{
		Name:              "$.vector",
		Alias:             "vector",
		Type:              db.IndexFieldVector,
		VectorAlgo:        db.VectorHNSW,
		VectorDim:         dims,
		VectorDistance:    db.DistanceCosine,
		VectorM:           cfg.Search.HNSWM,
		VectorEFConstruct: cfg.Search.HNSWEFConstruct,
	}
}

// collectPrefixes reads the word list and expands every word into its
// 1..5-codepoint prefixes, deduplicated, in stable order.
func collectPrefixes(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer file.Close()

	seen := make(map[string]bool)
	var prefixes []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := scanner.Text()
		runes := []rune(word)
		for n := 1; n <= 5 && n <= len(runes); n++ {
			p := string(runes[:n])
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			prefixes = append(prefixes, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	return prefixes, nil
}
