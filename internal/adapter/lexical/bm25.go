// Package lexical provides the default in-memory BM25 lexical scorer.
package lexical

import (
	"math"

	"docsearch/internal/port"
)

const (
	defaultK1 = 1.2
	defaultB  = 0.75
)

// Provider builds BM25 scorers over tokenized corpora. It implements
// port.LexicalProvider.
type Provider struct {
	k1 float64
	b  float64
}

// NewProvider creates a BM25 provider. Non-positive parameters fall back to
// the standard k1=1.2, b=0.75.
func NewProvider(k1, b float64) *Provider {
	if k1 <= 0 {
		k1 = defaultK1
	}
	if b <= 0 {
		b = defaultB
	}
	return &Provider{k1: k1, b: b}
}

// Build constructs a scorer from the tokenized corpus. Each corpus entry is
// the token sequence of one chunk; scoring output is aligned with the input
// order.
func (p *Provider) Build(corpus [][]string) (port.LexicalScorer, error) {
	s := &Scorer{
		k1:       p.k1,
		b:        p.b,
		size:     len(corpus),
		lengths:  make([]int, len(corpus)),
		postings: make(map[string][]posting),
	}

	totalLen := 0
	for i, tokens := range corpus {
		s.lengths[i] = len(tokens)
		totalLen += len(tokens)

		tf := make(map[string]int, len(tokens))
		for _, token := range tokens {
			tf[token]++
		}
		for term, count := range tf {
			s.postings[term] = append(s.postings[term], posting{idx: i, tf: count})
		}
	}

	if len(corpus) > 0 {
		s.avgLen = float64(totalLen) / float64(len(corpus))
	}

	return s, nil
}

type posting struct {
	idx int
	tf  int
}

// Scorer is an immutable BM25 index over one corpus snapshot. Safe for
// concurrent use.
type Scorer struct {
	k1       float64
	b        float64
	size     int
	avgLen   float64
	lengths  []int
	postings map[string][]posting
}

// Score returns one BM25 score per corpus chunk for the query tokens.
// Chunks matching no query term score zero.
func (s *Scorer) Score(queryTokens []string) []float64 {
	scores := make([]float64, s.size)
	if s.size == 0 || len(queryTokens) == 0 {
		return scores
	}

	n := float64(s.size)
	for _, term := range queryTokens {
		postings, ok := s.postings[term]
		if !ok {
			continue
		}

		df := float64(len(postings))
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)

		for _, p := range postings {
			tf := float64(p.tf)
			dl := float64(s.lengths[p.idx])
			norm := s.k1 * (1 - s.b + s.b*dl/s.avgLen)
			scores[p.idx] += idf * (tf * (s.k1 + 1)) / (tf + norm)
		}
	}

	return scores
}
