package reranker

import (
	"context"
	"math"
	"testing"
)

func TestOverlapScore(t *testing.T) {
	r := NewOverlapReranker()
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		text  string
		want  float64
	}{
		{"full match", "connection pool", "the connection pool manages sockets", 1.0},
		{"half match", "connection pool", "pool of workers", 0.5},
		{"no match", "connection pool", "garden flowers bloom", 0.0},
		{"empty query neutral", "", "anything at all", 0.5},
		{"case insensitive", "Connection POOL", "the connection pool", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Score(ctx, tt.query, tt.text)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score(%q, %q) = %f, want %f", tt.query, tt.text, got, tt.want)
			}
		})
	}
}

func TestOverlapScoreDistinctTerms(t *testing.T) {
	r := NewOverlapReranker()

	// Repeated query terms count once.
	got, err := r.Score(context.Background(), "pool pool pool timeout", "the pool")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("got %f, want 0.5", got)
	}
}
