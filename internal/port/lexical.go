package port

// LexicalProvider builds a lexical scorer over a tokenized corpus.
type LexicalProvider interface {
	Build(corpus [][]string) (LexicalScorer, error)
}

// LexicalScorer scores every chunk of the corpus it was built over against a
// query token sequence. The returned slice is aligned with the corpus: one
// score per chunk, in build order.
type LexicalScorer interface {
	Score(queryTokens []string) []float64
}
