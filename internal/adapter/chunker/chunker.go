package chunker

import (
	"fmt"
	"strings"

	"docsearch/internal/domain"
)

// Strategy selects how documents are split.
type Strategy string

const (
	StrategyFixed        Strategy = "fixed"
	StrategySection      Strategy = "section"
	StrategyHierarchical Strategy = "hierarchical"
	StrategyHybrid       Strategy = "hybrid"
)

// Options configures a Chunker. Zero values fall back to defaults.
type Options struct {
	ChunkSize    int // maximum chunk size in words
	OverlapSize  int // sliding-window overlap in words
	MinChunkSize int // minimum section/paragraph size in bytes, smaller ones are dropped
}

const (
	defaultChunkSize    = 256
	defaultOverlapSize  = 32
	defaultMinChunkSize = 50

	// Overview content preview is capped at this many bytes.
	overviewPreviewLimit = 300
)

// Chunker splits documents into ordered, metadata-tagged chunks under one
// strategy. Construction validates the configuration; Chunk never fails on
// well-formed input.
type Chunker struct {
	strategy Strategy
	size     int
	overlap  int
	minSize  int
}

// New creates a Chunker. An overlap greater than or equal to the chunk size
// would make the sliding-window stride non-positive, so it is rejected here,
// never at chunk time.
func New(strategy Strategy, opts Options) (*Chunker, error) {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.OverlapSize == 0 {
		opts.OverlapSize = defaultOverlapSize
	}
	if opts.MinChunkSize == 0 {
		opts.MinChunkSize = defaultMinChunkSize
	}

	switch strategy {
	case StrategyFixed, StrategySection, StrategyHierarchical, StrategyHybrid:
	default:
		return nil, fmt.Errorf("unknown chunking strategy: %q", strategy)
	}
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", opts.ChunkSize)
	}
	if opts.OverlapSize < 0 {
		return nil, fmt.Errorf("overlap size must not be negative, got %d", opts.OverlapSize)
	}
	if opts.OverlapSize >= opts.ChunkSize {
		return nil, fmt.Errorf("overlap size (%d) must be smaller than chunk size (%d)",
			opts.OverlapSize, opts.ChunkSize)
	}
	if opts.MinChunkSize < 0 {
		return nil, fmt.Errorf("min chunk size must not be negative, got %d", opts.MinChunkSize)
	}

	return &Chunker{
		strategy: strategy,
		size:     opts.ChunkSize,
		overlap:  opts.OverlapSize,
		minSize:  opts.MinChunkSize,
	}, nil
}

// Chunk splits one document. Ordinals are strictly increasing from 0 and
// chunk IDs are deterministic, so re-chunking an unchanged document yields
// identical output. An empty document yields no chunks.
func (c *Chunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}

	switch c.strategy {
	case StrategyFixed:
		return c.chunkFixed(doc), nil
	case StrategySection:
		return c.chunkSections(doc), nil
	case StrategyHierarchical:
		return c.chunkHierarchical(doc), nil
	case StrategyHybrid:
		return c.chunkHybrid(doc), nil
	default:
		return nil, fmt.Errorf("unknown chunking strategy: %q", c.strategy)
	}
}

// chunkFixed slides a window of size words with stride size-overlap over the
// document's word sequence. Offsets are word indices. The last window may be
// shorter; a document that fits in one window is emitted verbatim.
func (c *Chunker) chunkFixed(doc domain.Document) []domain.Chunk {
	words := strings.Fields(doc.Content)
	if len(words) == 0 {
		return nil
	}

	if len(words) <= c.size {
		return []domain.Chunk{{
			ID:          fixedChunkID(doc.ID, 0),
			DocID:       doc.ID,
			Ordinal:     0,
			Content:     doc.Content,
			Type:        domain.ChunkFixed,
			Level:       0,
			StartOffset: 0,
			EndOffset:   len(words),
		}}
	}

	stride := c.size - c.overlap // > 0 by construction

	var chunks []domain.Chunk
	start := 0
	for start < len(words) {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, domain.Chunk{
			ID:          fixedChunkID(doc.ID, len(chunks)),
			DocID:       doc.ID,
			Ordinal:     len(chunks),
			Content:     strings.Join(words[start:end], " "),
			Type:        domain.ChunkFixed,
			Level:       0,
			StartOffset: start,
			EndOffset:   end,
		})
		if end >= len(words) {
			break
		}
		start += stride
	}

	return chunks
}

// slideWindow cuts a word slice into overlapping windows, returning the
// joined window contents with their word offsets. Used by the hybrid
// strategy for oversized sections.
func (c *Chunker) slideWindow(words []string) []windowSpan {
	if len(words) <= c.size {
		return []windowSpan{{content: strings.Join(words, " "), start: 0, end: len(words)}}
	}

	stride := c.size - c.overlap

	var spans []windowSpan
	start := 0
	for start < len(words) {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		spans = append(spans, windowSpan{
			content: strings.Join(words[start:end], " "),
			start:   start,
			end:     end,
		})
		if end >= len(words) {
			break
		}
		start += stride
	}

	return spans
}

type windowSpan struct {
	content    string
	start, end int // word offsets
}

func fixedChunkID(docID, idx int) string {
	return fmt.Sprintf("%d_fixed_%d", docID, idx)
}

func sectionChunkID(docID, idx int) string {
	return fmt.Sprintf("%d_sec_%d", docID, idx)
}

func overviewChunkID(docID int) string {
	return fmt.Sprintf("%d_overview", docID)
}

func paragraphChunkID(docID, idx int) string {
	return fmt.Sprintf("%d_para_%d", docID, idx)
}

func hybridChunkID(docID, idx, sub int) string {
	return fmt.Sprintf("%d_hybrid_%d_%d", docID, idx, sub)
}
