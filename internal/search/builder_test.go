package search

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"docsearch/internal/adapter/embedding"
	"docsearch/internal/adapter/lexical"
	"docsearch/internal/domain"
)

func builderCorpus(n int) ([]domain.Document, []domain.Chunk, [][]string) {
	docs := []domain.Document{{ID: 0, Filename: "doc.md"}}
	chunks := make([]domain.Chunk, n)
	tokenized := make([][]string, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:      fmt.Sprintf("0_sec_%d", i),
			DocID:   0,
			Ordinal: i,
			Content: fmt.Sprintf("unique content number %d", i),
			Type:    domain.ChunkSection,
			Level:   1,
		}
		tokenized[i] = []string{"unique", "content", fmt.Sprintf("c%d", i)}
	}
	return docs, chunks, tokenized
}

func TestBuildParallelEmbeddingsAligned(t *testing.T) {
	embedder := embedding.NewStaticEmbedder()
	docs, chunks, tokenized := builderCorpus(25)

	// Batch size 4 forces several concurrent batches over 25 chunks.
	snap, err := NewBuilder(lexical.NewProvider(0, 0)).
		WithEmbedder(embedder, 4).
		Build(context.Background(), docs, chunks, tokenized)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.HasEmbeddings() {
		t.Fatal("snapshot should carry embeddings")
	}

	// Every row must match a direct, sequential embedding of the same chunk.
	for i, chunk := range chunks {
		want, err := embedder.Embed(context.Background(), []string{chunk.Content})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(snap.embeddings[i], want[0]) {
			t.Fatalf("embedding row %d does not match its chunk", i)
		}
	}
}

func TestBuildWithoutEmbedder(t *testing.T) {
	docs, chunks, tokenized := builderCorpus(5)

	snap, err := NewBuilder(lexical.NewProvider(0, 0)).
		Build(context.Background(), docs, chunks, tokenized)
	if err != nil {
		t.Fatal(err)
	}
	if snap.HasEmbeddings() {
		t.Error("snapshot without an embedder should carry no embeddings")
	}
	if snap.Len() != 5 {
		t.Errorf("snapshot has %d chunks, want 5", snap.Len())
	}
}

func TestBuildReusesPrecomputedEmbeddings(t *testing.T) {
	embedder := embedding.NewStaticEmbedder()
	docs, chunks, tokenized := builderCorpus(3)

	// A sentinel vector of the right dimension, distinguishable from any
	// hash-derived vector.
	sentinel := make([]float32, embedder.Dimension())
	sentinel[0] = 42

	snap, err := NewBuilder(lexical.NewProvider(0, 0)).
		WithEmbedder(embedder, 2).
		WithPrecomputedEmbeddings(map[string][]float32{chunks[1].ID: sentinel}).
		Build(context.Background(), docs, chunks, tokenized)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(snap.embeddings[1], sentinel) {
		t.Error("cached vector should be reused, not recomputed")
	}
	if reflect.DeepEqual(snap.embeddings[0], sentinel) {
		t.Error("uncached chunks should be embedded fresh")
	}
}

func TestBuildIgnoresWrongDimensionCache(t *testing.T) {
	embedder := embedding.NewStaticEmbedder()
	docs, chunks, tokenized := builderCorpus(2)

	snap, err := NewBuilder(lexical.NewProvider(0, 0)).
		WithEmbedder(embedder, 2).
		WithPrecomputedEmbeddings(map[string][]float32{chunks[0].ID: {1, 2, 3}}).
		Build(context.Background(), docs, chunks, tokenized)
	if err != nil {
		t.Fatal(err)
	}

	if len(snap.embeddings[0]) != embedder.Dimension() {
		t.Errorf("wrong-dimension cache entry should be re-embedded, got %d dims",
			len(snap.embeddings[0]))
	}
}

func TestBuildRejectsDuplicateChunkIDs(t *testing.T) {
	docs, chunks, tokenized := builderCorpus(3)
	chunks[2].ID = chunks[0].ID

	_, err := NewBuilder(lexical.NewProvider(0, 0)).
		Build(context.Background(), docs, chunks, tokenized)
	if err == nil {
		t.Fatal("expected error for duplicate chunk IDs")
	}
}

func TestBuildRejectsMisalignedTokens(t *testing.T) {
	docs, chunks, tokenized := builderCorpus(3)

	_, err := NewBuilder(lexical.NewProvider(0, 0)).
		Build(context.Background(), docs, chunks, tokenized[:2])
	if err == nil {
		t.Fatal("expected error for chunk/token misalignment")
	}
}

func TestBuildStats(t *testing.T) {
	docs, chunks, tokenized := builderCorpus(4)
	chunks[0].Type = domain.ChunkOverview
	chunks[0].Level = 0

	snap, err := NewBuilder(lexical.NewProvider(0, 0)).
		Build(context.Background(), docs, chunks, tokenized)
	if err != nil {
		t.Fatal(err)
	}

	stats := snap.Stats()
	if stats.TotalDocs != 1 || stats.TotalChunks != 4 {
		t.Errorf("totals %d/%d, want 1/4", stats.TotalDocs, stats.TotalChunks)
	}
	if stats.ChunksByType[domain.ChunkOverview] != 1 || stats.ChunksByType[domain.ChunkSection] != 3 {
		t.Errorf("chunks by type: %v", stats.ChunksByType)
	}
	if stats.ChunksByLevel[0] != 1 || stats.ChunksByLevel[1] != 3 {
		t.Errorf("chunks by level: %v", stats.ChunksByLevel)
	}
	if stats.AvgChunkWords != 4 {
		t.Errorf("avg chunk words %f, want 4", stats.AvgChunkWords)
	}
}

func TestDocOrdinals(t *testing.T) {
	docs := []domain.Document{{ID: 0}, {ID: 1}}
	chunks := []domain.Chunk{
		{ID: "0_a", DocID: 0, Ordinal: 0, Content: "x"},
		{ID: "1_a", DocID: 1, Ordinal: 0, Content: "y"},
		{ID: "0_b", DocID: 0, Ordinal: 1, Content: "z"},
	}
	tokenized := [][]string{{"x"}, {"y"}, {"z"}}

	snap, err := NewBuilder(lexical.NewProvider(0, 0)).
		Build(context.Background(), docs, chunks, tokenized)
	if err != nil {
		t.Fatal(err)
	}

	if got := snap.DocOrdinals(0); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("doc 0 ordinal indices %v, want [0 2]", got)
	}
	if got := snap.DocOrdinals(1); len(got) != 1 || got[0] != 1 {
		t.Errorf("doc 1 ordinal indices %v, want [1]", got)
	}
}
