package search

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"docsearch/internal/domain"
	"docsearch/internal/port"
)

const defaultEmbedBatch = 32

// Builder constructs index snapshots. The lexical index is always built;
// embeddings are computed only when an embedder is attached.
type Builder struct {
	lexical   port.LexicalProvider
	embedder  port.Embedder // nil disables the dense stage
	batchSize int

	// precomputed maps chunk ID to an already known embedding. Chunks found
	// here are not re-embedded.
	precomputed map[string][]float32
}

// NewBuilder creates a builder over the given lexical provider.
func NewBuilder(lexical port.LexicalProvider) *Builder {
	return &Builder{lexical: lexical, batchSize: defaultEmbedBatch}
}

// WithEmbedder enables dense index construction.
func (b *Builder) WithEmbedder(e port.Embedder, batchSize int) *Builder {
	b.embedder = e
	if batchSize > 0 {
		b.batchSize = batchSize
	}
	return b
}

// WithPrecomputedEmbeddings seeds the builder with cached vectors.
func (b *Builder) WithPrecomputedEmbeddings(vectors map[string][]float32) *Builder {
	b.precomputed = vectors
	return b
}

// Build constructs a snapshot from chunked, tokenized documents. The
// tokenized slice must be aligned with chunks. The lexical index and the
// embedding batches are computed concurrently; each batch writes into a
// disjoint range of the embedding matrix, so no synchronization beyond the
// errgroup is needed.
func (b *Builder) Build(ctx context.Context, docs []domain.Document, chunks []domain.Chunk, tokenized [][]string) (*Snapshot, error) {
	if len(chunks) != len(tokenized) {
		return nil, fmt.Errorf("chunk/token misalignment: %d chunks, %d token lists", len(chunks), len(tokenized))
	}

	snap := &Snapshot{
		chunks:      chunks,
		docs:        make(map[int]domain.Document, len(docs)),
		byID:        make(map[string]int, len(chunks)),
		docOrdinals: make(map[int][]int, len(docs)),
	}
	for _, doc := range docs {
		snap.docs[doc.ID] = doc
	}
	for i, chunk := range chunks {
		if prev, dup := snap.byID[chunk.ID]; dup {
			return nil, fmt.Errorf("duplicate chunk ID %q at indices %d and %d", chunk.ID, prev, i)
		}
		snap.byID[chunk.ID] = i
		snap.docOrdinals[chunk.DocID] = append(snap.docOrdinals[chunk.DocID], i)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		scorer, err := b.lexical.Build(tokenized)
		if err != nil {
			return fmt.Errorf("failed to build lexical index: %w", err)
		}
		snap.scorer = scorer
		return nil
	})

	if b.embedder != nil {
		snap.embeddings = make([][]float32, len(chunks))
		b.embedAll(gctx, g, snap)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.stats = computeStats(docs, chunks)
	return snap, nil
}

// embedAll schedules one goroutine per batch of chunks that still need a
// vector. Cached vectors are copied in directly.
func (b *Builder) embedAll(ctx context.Context, g *errgroup.Group, snap *Snapshot) {
	var pending []int
	for i, chunk := range snap.chunks {
		if vec, ok := b.precomputed[chunk.ID]; ok && len(vec) == b.embedder.Dimension() {
			snap.embeddings[i] = vec
			continue
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += b.batchSize {
		end := start + b.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for j, idx := range batch {
				texts[j] = snap.chunks[idx].Content
			}

			vectors, err := b.embedder.Embed(ctx, texts)
			if err != nil {
				return fmt.Errorf("failed to embed batch of %d chunks: %w", len(batch), err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
			}

			for j, idx := range batch {
				snap.embeddings[idx] = vectors[j]
			}
			return nil
		})
	}
}

// EmbeddingsByID returns the snapshot's vectors keyed by chunk ID, for
// persisting to the corpus store.
func (s *Snapshot) EmbeddingsByID() map[string][]float32 {
	if s.embeddings == nil {
		return nil
	}
	out := make(map[string][]float32, len(s.chunks))
	for i, chunk := range s.chunks {
		if s.embeddings[i] != nil {
			out[chunk.ID] = s.embeddings[i]
		}
	}
	return out
}

func computeStats(docs []domain.Document, chunks []domain.Chunk) domain.Stats {
	stats := domain.Stats{
		TotalDocs:     len(docs),
		TotalChunks:   len(chunks),
		ChunksByType:  make(map[domain.ChunkType]int),
		ChunksByLevel: make(map[int]int),
	}

	totalWords := 0
	for _, chunk := range chunks {
		stats.ChunksByType[chunk.Type]++
		stats.ChunksByLevel[chunk.Level]++
		totalWords += len(strings.Fields(chunk.Content))
	}
	if len(chunks) > 0 {
		stats.AvgChunkWords = float64(totalWords) / float64(len(chunks))
	}

	return stats
}
