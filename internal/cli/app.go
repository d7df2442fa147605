package cli

import (
	"fmt"
	"log/slog"
	"time"

	"docsearch/config"
	"docsearch/internal/adapter/analyzer"
	"docsearch/internal/adapter/cache"
	"docsearch/internal/adapter/chunker"
	"docsearch/internal/adapter/embedding"
	"docsearch/internal/adapter/lexical"
	"docsearch/internal/adapter/reranker"
	"docsearch/internal/adapter/source"
	"docsearch/internal/adapter/store"
	"docsearch/internal/port"
	"docsearch/internal/search"
	"docsearch/internal/usecase"
)

// app holds the wired engine for one command invocation.
type app struct {
	indexUC  *usecase.IndexUseCase
	searchUC *usecase.SearchUseCase
	store    *store.BoltStore
}

func (a *app) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// newApp builds all adapters and use cases from configuration. The store is
// opened at the standard index path under dir.
func newApp(cfg *config.Config, dir string, logger *slog.Logger) (*app, error) {
	if err := config.EnsureDataDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.NewBoltStore(config.IndexDBPath(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}

	docSource, err := buildSource(cfg, dir)
	if err != nil {
		st.Close()
		return nil, err
	}

	chk, err := chunker.New(chunker.Strategy(cfg.Chunking.Strategy), chunker.Options{
		ChunkSize:    cfg.Chunking.ChunkSize,
		OverlapSize:  cfg.Chunking.OverlapSize,
		MinChunkSize: cfg.Chunking.MinChunkSize,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	tokenizer := analyzer.NewTokenizer(true)

	var embedder port.Embedder
	embedModel := ""
	if cfg.Pipeline.UseDense {
		embedder, err = buildEmbedder(cfg)
		if err != nil {
			st.Close()
			return nil, err
		}
		embedModel = embedder.ModelName()
	}

	var rr port.Reranker
	if cfg.Pipeline.UseRerank {
		rr, err = buildReranker(cfg)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	builder := search.NewBuilder(lexical.NewProvider(cfg.Pipeline.K1, cfg.Pipeline.B))
	if embedder != nil {
		builder.WithEmbedder(embedder, cfg.Embedding.BatchSize)
	}

	holder := &search.Holder{}
	pipeline := search.NewPipeline(cfg.Pipeline, cfg.Ranking.BoostFactor, embedder, rr, logger)

	var queryCache *cache.QueryCache[*usecase.SearchResult]
	var invalidator usecase.Invalidator
	if cfg.Cache.Enabled {
		queryCache = cache.New[*usecase.SearchResult](
			cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
		invalidator = queryCache
	}

	return &app{
		indexUC: usecase.NewIndexUseCase(
			docSource, chk, tokenizer, builder, holder, st, invalidator, embedModel, logger),
		searchUC: usecase.NewSearchUseCase(
			holder, pipeline, tokenizer, cfg.Ranking, queryCache, logger),
		store: st,
	}, nil
}

func buildSource(cfg *config.Config, dir string) (port.DocumentSource, error) {
	path := cfg.Source.Path
	if path == "" {
		path = dir
	}

	switch cfg.Source.Format {
	case "json":
		return source.NewJSONSource(path), nil
	case "dir", "":
		return source.NewDirSource(path, cfg.Source.Includes, cfg.Source.Excludes), nil
	default:
		return nil, fmt.Errorf("unknown source format: %q", cfg.Source.Format)
	}
}

func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model, e.Dimension)
	case "ollama":
		return embedding.NewOllamaEmbedder(e.Model, e.BaseURL, e.Dimension)
	case "static", "":
		return embedding.NewStaticEmbedder(), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", e.Provider)
	}
}

func buildReranker(cfg *config.Config) (port.Reranker, error) {
	r := cfg.Reranker
	switch r.Provider {
	case "cohere":
		return reranker.NewCohereReranker(r.APIKeyEnv, r.Model)
	case "overlap", "":
		return reranker.NewOverlapReranker(), nil
	default:
		return nil, fmt.Errorf("unknown reranker provider: %q", r.Provider)
	}
}
