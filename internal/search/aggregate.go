package search

import (
	"math"
	"sort"

	"docsearch/internal/domain"
)

// Aggregation laws for combining chunk scores into a document score.
const (
	AggregateMax         = "max"
	AggregateMean        = "mean"
	AggregateWeightedSum = "weighted_sum"
)

const (
	bestChunksPerDoc = 3
	weightedSumDecay = 0.1
)

// AggregateDocuments groups ranked chunks by document and scores each
// document under the given law. Results are sorted by document score
// descending, doc ID ascending, and truncated to topK.
//
// An unrecognized law behaves like max; configuration validation rejects
// unknown laws up front, so this only covers callers bypassing it.
func AggregateDocuments(chunks []domain.ScoredChunk, law string, topK int) []domain.DocumentResult {
	if len(chunks) == 0 {
		return nil
	}

	byDoc := make(map[int][]domain.ScoredChunk)
	var docIDs []int
	for _, sc := range chunks {
		if _, seen := byDoc[sc.Chunk.DocID]; !seen {
			docIDs = append(docIDs, sc.Chunk.DocID)
		}
		byDoc[sc.Chunk.DocID] = append(byDoc[sc.Chunk.DocID], sc)
	}

	results := make([]domain.DocumentResult, 0, len(docIDs))
	for _, docID := range docIDs {
		docChunks := byDoc[docID]
		sort.SliceStable(docChunks, func(i, j int) bool {
			if docChunks[i].Score != docChunks[j].Score {
				return docChunks[i].Score > docChunks[j].Score
			}
			return docChunks[i].Chunk.ID < docChunks[j].Chunk.ID
		})

		best := docChunks
		if len(best) > bestChunksPerDoc {
			best = best[:bestChunksPerDoc]
		}

		results = append(results, domain.DocumentResult{
			DocID:      docID,
			Score:      aggregate(docChunks, law),
			BestChunks: best,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// aggregate expects chunks sorted by score descending.
func aggregate(chunks []domain.ScoredChunk, law string) float64 {
	switch law {
	case AggregateMean:
		sum := 0.0
		for _, sc := range chunks {
			sum += sc.Score
		}
		return sum / float64(len(chunks))

	case AggregateWeightedSum:
		// Exponentially decaying rank weights: a document's best chunks
		// dominate, but depth of coverage still counts.
		sum, totalWeight := 0.0, 0.0
		for rank, sc := range chunks {
			w := math.Exp(-weightedSumDecay * float64(rank))
			sum += w * sc.Score
			totalWeight += w
		}
		return sum / totalWeight

	default:
		return chunks[0].Score
	}
}
