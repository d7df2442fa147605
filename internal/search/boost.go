package search

import (
	"strings"

	"docsearch/internal/domain"
)

// Boost multipliers by chunk type. Structural overviews and sections carry
// more context than mechanically cut windows, so they rank ahead of them at
// equal retrieval score.
var typeBoosts = map[domain.ChunkType]float64{
	domain.ChunkOverview:   1.3,
	domain.ChunkSection:    1.2,
	domain.ChunkParagraph:  1.0,
	domain.ChunkSubSection: 0.9,
	domain.ChunkFixed:      0.8,
}

const (
	titleMatchBoost    = 1.4
	titleWordBoostStep = 0.1
	shortChunkWords    = 20
	shortChunkPenalty  = 0.8
	longChunkWords     = 200
	longChunkPenalty   = 0.95
)

// Boost multiplies a fused score by the chunk's structural and query-match
// multipliers plus the global boost factor. The computation is a pure product
// of deterministic factors.
func Boost(chunk domain.Chunk, score float64, query string, boostFactor float64) float64 {
	if mult, ok := typeBoosts[chunk.Type]; ok {
		score *= mult
	}

	switch chunk.Level {
	case 0:
		score *= 1.2
	case 1:
		score *= 1.1
	}

	if title, ok := chunk.SectionTitle(); ok && title != "" {
		score *= titleBoost(query, title)
	}

	words := len(strings.Fields(chunk.Content))
	if words < shortChunkWords {
		score *= shortChunkPenalty
	} else if words > longChunkWords {
		score *= longChunkPenalty
	}

	if boostFactor > 0 {
		score *= boostFactor
	}
	return score
}

// titleBoost rewards chunks whose section title matches the query: a full
// substring match outweighs any partial word overlap.
func titleBoost(query, title string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	t := strings.ToLower(title)
	if q == "" {
		return 1.0
	}

	if strings.Contains(t, q) {
		return titleMatchBoost
	}

	titleWords := make(map[string]struct{})
	for _, w := range strings.Fields(t) {
		titleWords[w] = struct{}{}
	}

	matches := 0
	for _, w := range strings.Fields(q) {
		if _, ok := titleWords[w]; ok {
			matches++
		}
	}
	return 1.0 + titleWordBoostStep*float64(matches)
}
