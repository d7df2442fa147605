package embedding

import "math"

// Cosine returns the cosine similarity of two vectors. Mismatched lengths or
// zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Similarities returns the cosine similarity of the query vector against
// each row of the matrix.
func Similarities(query []float32, matrix [][]float32) []float64 {
	sims := make([]float64, len(matrix))
	for i, row := range matrix {
		sims[i] = Cosine(query, row)
	}
	return sims
}
