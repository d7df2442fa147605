package port

// Tokenizer turns text into a sequence of normalized tokens. Implementations
// own language-specific concerns (stopwords, compounds, stemming).
type Tokenizer interface {
	Tokenize(text string) []string
}
