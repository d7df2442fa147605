package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"docsearch/config"
	"docsearch/internal/adapter/analyzer"
	"docsearch/internal/adapter/cache"
	"docsearch/internal/adapter/chunker"
	"docsearch/internal/adapter/lexical"
	"docsearch/internal/adapter/store"
	"docsearch/internal/domain"
	"docsearch/internal/search"
)

type fakeSource struct {
	docs []domain.Document
}

func (s *fakeSource) Load() ([]domain.Document, error) {
	return s.docs, nil
}

var testDocs = []domain.Document{
	{ID: 0, Filename: "pool.md", Content: `# Connection Pooling

The pool manages a bounded set of reusable connections shared by all clients
of one endpoint and hands out idle connections on demand.

## Sizing

Pick a pool size that matches the downstream capacity so that backpressure
stays visible and file descriptors are not wasted on idle sockets.
`},
	{ID: 1, Filename: "retry.md", Content: `# Retry Policies

Retries with exponential backoff and jitter smooth out transient failures
without synchronizing clients into thundering herds against the backend.
`},
	{ID: 2, Filename: "cache.md", Content: `# Caching

An expiring cache in front of the storage layer absorbs repeated reads and
keeps tail latency flat when the working set fits in memory.
`},
}

type engine struct {
	indexUC  *IndexUseCase
	searchUC *SearchUseCase
	source   *fakeSource
	cache    *cache.QueryCache[*SearchResult]
}

func newTestEngine(t *testing.T, st *store.BoltStore) *engine {
	t.Helper()

	cfg := config.DefaultConfig()
	src := &fakeSource{docs: testDocs}
	chk, err := chunker.New(chunker.StrategyHierarchical, chunker.Options{
		ChunkSize: 128, OverlapSize: 16, MinChunkSize: 30,
	})
	if err != nil {
		t.Fatal(err)
	}

	tokenizer := analyzer.NewTokenizer(true)
	builder := search.NewBuilder(lexical.NewProvider(0, 0))
	holder := &search.Holder{}
	pipeline := search.NewPipeline(cfg.Pipeline, cfg.Ranking.BoostFactor, nil, nil, nil)
	qc := cache.New[*SearchResult](10, time.Minute)

	return &engine{
		indexUC:  NewIndexUseCase(src, chk, tokenizer, builder, holder, st, qc, "", nil),
		searchUC: NewSearchUseCase(holder, pipeline, tokenizer, cfg.Ranking, qc, nil),
		source:   src,
		cache:    qc,
	}
}

func TestSearchBeforeIndexing(t *testing.T) {
	e := newTestEngine(t, nil)

	_, err := e.searchUC.Search(context.Background(), "pooling", ModeDocument, 5)
	if !errors.Is(err, ErrNotIndexed) {
		t.Fatalf("expected ErrNotIndexed, got %v", err)
	}
}

func TestIndexThenSearch(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	summary, err := e.indexUC.Index(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Docs != 3 || summary.Chunks == 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	result, err := e.searchUC.Search(ctx, "connection pooling", ModeDocument, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Documents) == 0 {
		t.Fatal("expected document results")
	}
	if result.Documents[0].DocID != 0 {
		t.Errorf("top document %d, want the pooling document", result.Documents[0].DocID)
	}
	if len(result.Documents[0].BestChunks) == 0 {
		t.Error("document result should carry its best chunks")
	}
	if len(result.Trace) == 0 {
		t.Error("result should carry the pipeline trace")
	}
}

func TestSearchChunkMode(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	if _, err := e.indexUC.Index(ctx, nil); err != nil {
		t.Fatal(err)
	}

	result, err := e.searchUC.Search(ctx, "exponential backoff", ModeChunk, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Chunks) == 0 || len(result.Chunks) > 3 {
		t.Fatalf("expected 1..3 chunks, got %d", len(result.Chunks))
	}
	if len(result.Documents) != 0 {
		t.Error("chunk mode should not aggregate documents")
	}
	if result.Chunks[0].Chunk.DocID != 1 {
		t.Errorf("top chunk from doc %d, want the retry document", result.Chunks[0].Chunk.DocID)
	}
}

func TestSearchContextMode(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	if _, err := e.indexUC.Index(ctx, nil); err != nil {
		t.Fatal(err)
	}

	result, err := e.searchUC.Search(ctx, "pool sizing", ModeContext, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Documents) == 0 {
		t.Fatal("expected document results")
	}
	if len(result.Documents[0].ContextChunks) == 0 {
		t.Error("context mode should expand the neighborhood of best chunks")
	}
}

func TestSearchUnknownMode(t *testing.T) {
	e := newTestEngine(t, nil)
	if _, err := e.indexUC.Index(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	if _, err := e.searchUC.Search(context.Background(), "pooling", Mode("fuzzy"), 5); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	if _, err := e.indexUC.Index(ctx, nil); err != nil {
		t.Fatal(err)
	}

	// Stopwords only: nothing indexable remains.
	result, err := e.searchUC.Search(ctx, "the of and", ModeDocument, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Documents) != 0 || len(result.Chunks) != 0 {
		t.Error("query with no indexable tokens should return an empty result")
	}
}

func TestSearchCacheInvalidatedByReindex(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	if _, err := e.indexUC.Index(ctx, nil); err != nil {
		t.Fatal(err)
	}

	first, err := e.searchUC.Search(ctx, "caching", ModeDocument, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Documents) == 0 {
		t.Fatal("expected results for the caching document")
	}

	// Remove the caching document and reindex; the cached answer must not
	// survive.
	e.source.docs = testDocs[:2]
	if _, err := e.indexUC.Index(ctx, nil); err != nil {
		t.Fatal(err)
	}

	second, err := e.searchUC.Search(ctx, "caching", ModeDocument, 5)
	if err != nil {
		t.Fatal(err)
	}
	for _, doc := range second.Documents {
		if doc.DocID == 2 {
			t.Fatal("stale cached result served after reindex")
		}
	}
}

func TestSearchMinScoreThreshold(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	if _, err := e.indexUC.Index(ctx, nil); err != nil {
		t.Fatal(err)
	}

	e.searchUC.ranking.MinScoreThreshold = 1e6
	result, err := e.searchUC.Search(ctx, "pooling", ModeChunk, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Chunks) != 0 {
		t.Errorf("threshold should filter everything, got %d chunks", len(result.Chunks))
	}
}

func TestRestoreFromStore(t *testing.T) {
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	ctx := context.Background()
	indexer := newTestEngine(t, st)
	if _, err := indexer.indexUC.Index(ctx, nil); err != nil {
		t.Fatal(err)
	}

	// A fresh engine over the same store restores without the source.
	restored := newTestEngine(t, st)
	restored.source.docs = nil
	if err := restored.indexUC.Restore(ctx); err != nil {
		t.Fatal(err)
	}

	result, err := restored.searchUC.Search(ctx, "connection pooling", ModeDocument, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Documents) == 0 || result.Documents[0].DocID != 0 {
		t.Fatalf("restored index should answer queries, got %+v", result.Documents)
	}
}

func TestRestoreEmptyStore(t *testing.T) {
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	e := newTestEngine(t, st)
	if err := e.indexUC.Restore(context.Background()); !errors.Is(err, ErrNotIndexed) {
		t.Fatalf("expected ErrNotIndexed, got %v", err)
	}
}

func TestStats(t *testing.T) {
	e := newTestEngine(t, nil)

	if _, err := e.searchUC.Stats(); !errors.Is(err, ErrNotIndexed) {
		t.Fatalf("expected ErrNotIndexed before indexing, got %v", err)
	}

	if _, err := e.indexUC.Index(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	stats, err := e.searchUC.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalDocs != 3 {
		t.Errorf("total docs %d, want 3", stats.TotalDocs)
	}
	if stats.ChunksByType[domain.ChunkOverview] != 3 {
		t.Errorf("expected one overview per document, got %d",
			stats.ChunksByType[domain.ChunkOverview])
	}
}
