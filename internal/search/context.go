package search

import (
	"sort"

	"docsearch/internal/domain"
)

// ContextExpander gathers the chunks surrounding a document's best hits so a
// result can be shown with its neighborhood instead of an isolated span.
type ContextExpander struct {
	window int
}

// NewContextExpander creates an expander. A window of n pulls in up to n
// chunks on either side of each hit; zero disables expansion.
func NewContextExpander(window int) *ContextExpander {
	return &ContextExpander{window: window}
}

// Expand returns the context chunks for a document's best hits: every chunk
// within the window of any hit, deduplicated, in document order. Window
// bounds are clamped to the document.
func (e *ContextExpander) Expand(snap *Snapshot, docID int, hits []domain.ScoredChunk) []domain.Chunk {
	if e.window <= 0 || len(hits) == 0 {
		return nil
	}

	ordinals := snap.DocOrdinals(docID)
	if len(ordinals) == 0 {
		return nil
	}

	// Map chunk ordinal within the document to its position in the ordinal
	// slice; hits reference chunks by ID.
	position := make(map[string]int, len(ordinals))
	for pos, idx := range ordinals {
		position[snap.chunks[idx].ID] = pos
	}

	include := make(map[int]struct{})
	for _, hit := range hits {
		pos, ok := position[hit.Chunk.ID]
		if !ok {
			continue
		}
		lo := pos - e.window
		if lo < 0 {
			lo = 0
		}
		hi := pos + e.window
		if hi > len(ordinals)-1 {
			hi = len(ordinals) - 1
		}
		for p := lo; p <= hi; p++ {
			include[p] = struct{}{}
		}
	}

	positions := make([]int, 0, len(include))
	for p := range include {
		positions = append(positions, p)
	}
	sort.Ints(positions)

	out := make([]domain.Chunk, 0, len(positions))
	for _, p := range positions {
		out = append(out, snap.chunks[ordinals[p]])
	}
	return out
}
