// Package usecase wires the adapters and the search core into the
// operations the CLI exposes: indexing a corpus and querying it.
package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"docsearch/internal/adapter/store"
	"docsearch/internal/domain"
	"docsearch/internal/port"
	"docsearch/internal/search"
)

// Invalidator is anything whose cached state must be discarded after a
// reindex.
type Invalidator interface {
	Invalidate()
}

// IndexSummary reports what an indexing run produced.
type IndexSummary struct {
	Docs     int
	Chunks   int
	Embedded bool
	Stats    domain.Stats
}

// IndexUseCase loads documents, chunks and tokenizes them, builds a snapshot
// and publishes it. When a store is attached, the corpus and its embeddings
// are persisted so later processes can restore without re-reading sources.
type IndexUseCase struct {
	source     port.DocumentSource
	chunker    port.Chunker
	tokenizer  port.Tokenizer
	builder    *search.Builder
	holder     *search.Holder
	store      *store.BoltStore // optional
	cache      Invalidator      // optional
	embedModel string           // "" when the dense stage is not built
	logger     *slog.Logger
}

// NewIndexUseCase creates an index use case. store and cache may be nil.
func NewIndexUseCase(
	source port.DocumentSource,
	chunker port.Chunker,
	tokenizer port.Tokenizer,
	builder *search.Builder,
	holder *search.Holder,
	corpusStore *store.BoltStore,
	cache Invalidator,
	embedModel string,
	logger *slog.Logger,
) *IndexUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexUseCase{
		source:     source,
		chunker:    chunker,
		tokenizer:  tokenizer,
		builder:    builder,
		holder:     holder,
		store:      corpusStore,
		cache:      cache,
		embedModel: embedModel,
		logger:     logger,
	}
}

// Index runs a full indexing pass. progress, when non-nil, is called after
// each chunked document with (done, total).
func (u *IndexUseCase) Index(ctx context.Context, progress func(done, total int)) (*IndexSummary, error) {
	docs, err := u.source.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	u.logger.Info("loaded documents", "count", len(docs))

	var chunks []domain.Chunk
	for i, doc := range docs {
		docChunks, err := u.chunker.Chunk(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to chunk document %d (%s): %w", doc.ID, doc.Filename, err)
		}
		chunks = append(chunks, docChunks...)
		if progress != nil {
			progress(i+1, len(docs))
		}
	}

	tokenized := u.tokenizeAll(chunks)

	if u.store != nil && u.embedModel != "" {
		u.seedCachedEmbeddings()
	}

	snap, err := u.builder.Build(ctx, docs, chunks, tokenized)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	if u.store != nil {
		if err := u.persist(docs, chunks, snap); err != nil {
			return nil, err
		}
	}

	u.holder.Swap(snap)
	if u.cache != nil {
		u.cache.Invalidate()
	}

	u.logger.Info("index built",
		"docs", len(docs), "chunks", len(chunks), "embedded", snap.HasEmbeddings())

	return &IndexSummary{
		Docs:     len(docs),
		Chunks:   len(chunks),
		Embedded: snap.HasEmbeddings(),
		Stats:    snap.Stats(),
	}, nil
}

// Restore rebuilds the snapshot from the persisted corpus without touching
// the document source. The lexical index is recomputed (it is cheap);
// embeddings are reused when the stored model matches the configured one.
func (u *IndexUseCase) Restore(ctx context.Context) error {
	if u.store == nil {
		return ErrNotIndexed
	}

	docs, chunks, err := u.store.LoadCorpus()
	if err != nil {
		return fmt.Errorf("failed to load stored corpus: %w", err)
	}
	if len(chunks) == 0 {
		return ErrNotIndexed
	}

	if u.embedModel != "" {
		u.seedCachedEmbeddings()
	}

	snap, err := u.builder.Build(ctx, docs, chunks, u.tokenizeAll(chunks))
	if err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}

	u.holder.Swap(snap)
	u.logger.Debug("index restored", "docs", len(docs), "chunks", len(chunks))
	return nil
}

func (u *IndexUseCase) tokenizeAll(chunks []domain.Chunk) [][]string {
	tokenized := make([][]string, len(chunks))
	for i, chunk := range chunks {
		tokenized[i] = u.tokenizer.Tokenize(chunk.Content)
	}
	return tokenized
}

// seedCachedEmbeddings hands stored vectors to the builder when they were
// produced by the configured model; vectors from another model are unusable.
func (u *IndexUseCase) seedCachedEmbeddings() {
	storedModel, err := u.store.GetMeta(store.MetaEmbeddingModel)
	if err != nil || storedModel != u.embedModel {
		return
	}
	vectors, err := u.store.LoadEmbeddings()
	if err != nil {
		u.logger.Warn("failed to load cached embeddings, re-embedding", "error", err)
		return
	}
	u.builder.WithPrecomputedEmbeddings(vectors)
}

func (u *IndexUseCase) persist(docs []domain.Document, chunks []domain.Chunk, snap *search.Snapshot) error {
	if err := u.store.SaveCorpus(docs, chunks); err != nil {
		return fmt.Errorf("failed to persist corpus: %w", err)
	}
	if vectors := snap.EmbeddingsByID(); vectors != nil {
		if err := u.store.SaveEmbeddings(vectors); err != nil {
			return fmt.Errorf("failed to persist embeddings: %w", err)
		}
		if err := u.store.PutMeta(store.MetaEmbeddingModel, u.embedModel); err != nil {
			return err
		}
	}
	return nil
}
