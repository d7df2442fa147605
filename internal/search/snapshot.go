// Package search implements the cascading retrieval pipeline: lexical
// recall, dense refinement, reranking, score fusion, boosting, document
// aggregation and context expansion, all over an immutable index snapshot.
package search

import (
	"sync/atomic"

	"docsearch/internal/domain"
	"docsearch/internal/port"
)

// Snapshot is a fully built, immutable view of an indexed corpus. Queries
// read from a snapshot without locking; reindexing builds a new snapshot and
// swaps it in atomically.
type Snapshot struct {
	chunks []domain.Chunk
	docs   map[int]domain.Document
	scorer port.LexicalScorer

	// embeddings[i] is the vector for chunks[i]; nil when the dense stage
	// was not built.
	embeddings [][]float32

	byID        map[string]int // chunk ID -> ordinal index into chunks
	docOrdinals map[int][]int  // doc ID -> ordinal indices, chunk-ordinal order

	stats domain.Stats
}

// Chunks returns the indexed chunks in build order.
func (s *Snapshot) Chunks() []domain.Chunk { return s.chunks }

// Chunk returns the chunk at ordinal index i.
func (s *Snapshot) Chunk(i int) domain.Chunk { return s.chunks[i] }

// Len returns the number of indexed chunks.
func (s *Snapshot) Len() int { return len(s.chunks) }

// Document returns the source document for a doc ID.
func (s *Snapshot) Document(id int) (domain.Document, bool) {
	doc, ok := s.docs[id]
	return doc, ok
}

// DocOrdinals returns the ordinal indices of a document's chunks, in chunk
// ordinal order. The returned slice must not be mutated.
func (s *Snapshot) DocOrdinals(docID int) []int { return s.docOrdinals[docID] }

// HasEmbeddings reports whether the dense stage can run on this snapshot.
func (s *Snapshot) HasEmbeddings() bool { return s.embeddings != nil }

// Stats returns corpus statistics computed at build time.
func (s *Snapshot) Stats() domain.Stats { return s.stats }

// Holder publishes the current snapshot. The zero value holds no snapshot.
type Holder struct {
	ptr atomic.Pointer[Snapshot]
}

// Current returns the latest snapshot, or nil before the first Swap.
func (h *Holder) Current() *Snapshot { return h.ptr.Load() }

// Swap publishes a new snapshot. In-flight queries keep reading the one they
// started with.
func (h *Holder) Swap(s *Snapshot) { h.ptr.Store(s) }
