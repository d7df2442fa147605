package reranker

import (
	"context"
	"strings"
	"unicode"
)

// OverlapReranker scores pairs by query-term overlap. It needs no model and
// never fails, which makes it the offline fallback provider.
type OverlapReranker struct{}

// NewOverlapReranker creates a new overlap reranker.
func NewOverlapReranker() *OverlapReranker {
	return &OverlapReranker{}
}

// Score returns the fraction of distinct query terms that occur in text.
// An empty query scores a neutral 0.5.
func (r *OverlapReranker) Score(_ context.Context, query, text string) (float64, error) {
	queryTerms := termSet(query)
	if len(queryTerms) == 0 {
		return 0.5, nil
	}

	textTerms := termSet(text)
	matches := 0
	for term := range queryTerms {
		if _, ok := textTerms[term]; ok {
			matches++
		}
	}

	return float64(matches) / float64(len(queryTerms)), nil
}

// ModelName returns the model identifier.
func (r *OverlapReranker) ModelName() string {
	return "term-overlap"
}

func termSet(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) >= 2 {
			set[w] = struct{}{}
		}
	}
	return set
}
