package domain

// Document is one source record. Owned by the document source and never
// mutated after loading.
type Document struct {
	ID       int
	Filename string
	Content  string
}

// ChunkType classifies how a chunk was produced.
type ChunkType string

const (
	ChunkOverview   ChunkType = "overview"
	ChunkSection    ChunkType = "section"
	ChunkSubSection ChunkType = "sub_section"
	ChunkParagraph  ChunkType = "paragraph"
	ChunkFixed      ChunkType = "fixed"
)

// Metadata keys attached by the chunker.
const (
	MetaSectionTitle  = "section_title"
	MetaParentSection = "parent_section"
)

// Chunk is a bounded span of a document, the unit of indexing and scoring.
// Chunks are immutable after creation.
type Chunk struct {
	ID      string
	DocID   int
	Ordinal int // position within the parent document, starting at 0
	Content string
	Type    ChunkType
	Level   int // hierarchy level, 0 = top
	// Offsets into the source the chunk was cut from. Word offsets for
	// window-based chunks, byte offsets for structural chunks.
	StartOffset int
	EndOffset   int
	Metadata    map[string]string
}

// SectionTitle returns the section title metadata, if present.
func (c Chunk) SectionTitle() (string, bool) {
	if c.Metadata == nil {
		return "", false
	}
	title, ok := c.Metadata[MetaSectionTitle]
	return title, ok
}

// Stage identifies one pipeline stage.
type Stage string

const (
	StageLexical Stage = "lexical"
	StageDense   Stage = "dense"
	StageRerank  Stage = "rerank"
)

// ScoredChunk is a chunk with its per-stage raw scores and the final
// fused, boosted score.
type ScoredChunk struct {
	Chunk       Chunk
	StageScores map[Stage]float64
	Score       float64
}

// StageTrace records what one pipeline stage did, for diagnostics.
type StageTrace struct {
	Stage      Stage     `json:"stage"`
	Candidates int       `json:"candidates"`
	TopScores  []float64 `json:"top_scores,omitempty"`
	Skipped    bool      `json:"skipped,omitempty"`
	Dropped    bool      `json:"dropped,omitempty"` // stage failed at query time, weight redistributed
}

// DocumentResult is a ranked document with its supporting chunks.
type DocumentResult struct {
	DocID         int
	Score         float64
	BestChunks    []ScoredChunk // at most 3, score descending
	ContextChunks []Chunk       // ordinal order, deduplicated
}

// Stats describes an indexed corpus.
type Stats struct {
	TotalDocs     int
	TotalChunks   int
	AvgChunkWords float64
	ChunksByType  map[ChunkType]int
	ChunksByLevel map[int]int
}
