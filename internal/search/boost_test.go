package search

import (
	"math"
	"strings"
	"testing"

	"docsearch/internal/domain"
)

func mediumContent() string {
	return strings.Repeat("word ", 30) // between the short and long thresholds
}

func TestBoostOverviewAtTopLevel(t *testing.T) {
	chunk := domain.Chunk{
		Type:    domain.ChunkOverview,
		Level:   0,
		Content: mediumContent(),
	}

	// 0.5 * 1.3 (overview) * 1.2 (level 0) * 1.2 (global) = 0.936
	got := Boost(chunk, 0.5, "unrelated query", 1.2)
	if math.Abs(got-0.936) > 1e-9 {
		t.Errorf("got %f, want 0.936", got)
	}
}

func TestBoostTypeMultipliers(t *testing.T) {
	tests := []struct {
		typ  domain.ChunkType
		want float64
	}{
		{domain.ChunkOverview, 1.3},
		{domain.ChunkSection, 1.2},
		{domain.ChunkParagraph, 1.0},
		{domain.ChunkSubSection, 0.9},
		{domain.ChunkFixed, 0.8},
	}

	for _, tt := range tests {
		chunk := domain.Chunk{Type: tt.typ, Level: 3, Content: mediumContent()}
		got := Boost(chunk, 1.0, "xyz", 1.0)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("type %s: got %f, want %f", tt.typ, got, tt.want)
		}
	}
}

func TestBoostLevels(t *testing.T) {
	for _, tt := range []struct {
		level int
		want  float64
	}{
		{0, 1.2},
		{1, 1.1},
		{2, 1.0},
		{5, 1.0},
	} {
		chunk := domain.Chunk{Type: domain.ChunkParagraph, Level: tt.level, Content: mediumContent()}
		got := Boost(chunk, 1.0, "xyz", 1.0)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("level %d: got %f, want %f", tt.level, got, tt.want)
		}
	}
}

func TestBoostTitleSubstringMatch(t *testing.T) {
	chunk := domain.Chunk{
		Type:    domain.ChunkParagraph,
		Level:   2,
		Content: mediumContent(),
		Metadata: map[string]string{
			domain.MetaSectionTitle: "Advanced Connection Pooling",
		},
	}

	got := Boost(chunk, 1.0, "connection pooling", 1.0)
	if math.Abs(got-1.4) > 1e-9 {
		t.Errorf("substring title match: got %f, want 1.4", got)
	}
}

func TestBoostTitleWordOverlap(t *testing.T) {
	chunk := domain.Chunk{
		Type:    domain.ChunkParagraph,
		Level:   2,
		Content: mediumContent(),
		Metadata: map[string]string{
			domain.MetaSectionTitle: "Pooling and Timeouts",
		},
	}

	// Not a substring; "pooling" and "timeouts" overlap as words: 1 + 2*0.1.
	got := Boost(chunk, 1.0, "timeouts during pooling", 1.0)
	if math.Abs(got-1.2) > 1e-9 {
		t.Errorf("word overlap: got %f, want 1.2", got)
	}

	// Substring match wins over counting overlapping words.
	chunk.Metadata[domain.MetaSectionTitle] = "timeouts during pooling explained"
	got = Boost(chunk, 1.0, "timeouts during pooling", 1.0)
	if math.Abs(got-1.4) > 1e-9 {
		t.Errorf("substring should take precedence: got %f, want 1.4", got)
	}
}

func TestBoostWordCountPenalties(t *testing.T) {
	short := domain.Chunk{Type: domain.ChunkParagraph, Level: 2, Content: "just a few words"}
	if got := Boost(short, 1.0, "xyz", 1.0); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("short chunk: got %f, want 0.8", got)
	}

	long := domain.Chunk{Type: domain.ChunkParagraph, Level: 2,
		Content: strings.Repeat("word ", 250)}
	if got := Boost(long, 1.0, "xyz", 1.0); math.Abs(got-0.95) > 1e-9 {
		t.Errorf("long chunk: got %f, want 0.95", got)
	}
}

func TestBoostDeterministic(t *testing.T) {
	chunk := domain.Chunk{
		Type:    domain.ChunkSection,
		Level:   1,
		Content: mediumContent(),
		Metadata: map[string]string{
			domain.MetaSectionTitle: "Retry Policies",
		},
	}

	first := Boost(chunk, 0.7, "retry policies", 1.2)
	for i := 0; i < 10; i++ {
		if got := Boost(chunk, 0.7, "retry policies", 1.2); got != first {
			t.Fatalf("boost varied across calls: %f vs %f", got, first)
		}
	}
}
