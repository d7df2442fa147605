package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// StaticDimension is the vector width of the hash-based embedder.
const StaticDimension = 256

// StaticEmbedder generates deterministic hash-based embeddings. No network,
// no model download; reduced semantic quality, but stable across runs, which
// makes it the default offline provider and the test provider.
type StaticEmbedder struct{}

// NewStaticEmbedder creates a new static embedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

// Embed generates one vector per input text.
func (e *StaticEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = hashVector(text)
	}
	return vectors, nil
}

// Dimension returns the embedding vector dimension.
func (e *StaticEmbedder) Dimension() int {
	return StaticDimension
}

// ModelName returns the model identifier.
func (e *StaticEmbedder) ModelName() string {
	return "static-hash-256"
}

// hashVector folds token and trigram hashes into a fixed-width, L2-normalized
// vector. Empty text yields the zero vector.
func hashVector(text string) []float32 {
	vec := make([]float32, StaticDimension)

	tokens := staticTokens(text)
	if len(tokens) == 0 {
		return vec
	}

	for _, token := range tokens {
		vec[bucket(token)] += 1.0

		for i := 0; i+3 <= len(token); i++ {
			vec[bucket(token[i:i+3])] += 0.3
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}

	return vec
}

func bucket(s string) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() % StaticDimension)
}

func staticTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
