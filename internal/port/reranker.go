package port

import "context"

// Reranker assigns a pairwise relevance score to a (query, text) pair.
// Scores are in [0,1], higher is more relevant.
type Reranker interface {
	Score(ctx context.Context, query, text string) (float64, error)

	// ModelName returns the name of the reranking model.
	ModelName() string
}
