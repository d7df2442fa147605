package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"docsearch/config"
	"docsearch/internal/adapter/cache"
	"docsearch/internal/domain"
	"docsearch/internal/port"
	"docsearch/internal/search"
)

// ErrNotIndexed is returned when a query arrives before any corpus has been
// indexed or restored.
var ErrNotIndexed = errors.New("no index available, run index first")

// Mode selects the result shape of a search.
type Mode string

const (
	// ModeChunk returns individual ranked chunks.
	ModeChunk Mode = "chunk"
	// ModeDocument aggregates chunk scores into ranked documents.
	ModeDocument Mode = "document"
	// ModeContext is document mode plus the neighborhood of each best chunk.
	ModeContext Mode = "context"
)

// SearchResult is the answer to one query.
type SearchResult struct {
	Query     string
	Mode      Mode
	Chunks    []domain.ScoredChunk   // chunk mode
	Documents []domain.DocumentResult // document and context modes
	Trace     []domain.StageTrace
}

// SearchUseCase answers queries against the current snapshot.
type SearchUseCase struct {
	holder    *search.Holder
	pipeline  *search.Pipeline
	expander  *search.ContextExpander
	tokenizer port.Tokenizer
	ranking   config.RankingConfig
	cache     *cache.QueryCache[*SearchResult] // nil disables caching
	logger    *slog.Logger
}

// NewSearchUseCase creates a search use case. queryCache may be nil.
func NewSearchUseCase(
	holder *search.Holder,
	pipeline *search.Pipeline,
	tokenizer port.Tokenizer,
	ranking config.RankingConfig,
	queryCache *cache.QueryCache[*SearchResult],
	logger *slog.Logger,
) *SearchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchUseCase{
		holder:    holder,
		pipeline:  pipeline,
		expander:  search.NewContextExpander(ranking.ContextWindow),
		tokenizer: tokenizer,
		ranking:   ranking,
		cache:     queryCache,
		logger:    logger,
	}
}

// Search runs one query. topK bounds the number of results (chunks in chunk
// mode, documents otherwise); non-positive values fall back to the default.
// A query with no indexable tokens returns an empty result, not an error.
func (u *SearchUseCase) Search(ctx context.Context, query string, mode Mode, topK int) (*SearchResult, error) {
	snap := u.holder.Current()
	if snap == nil || snap.Len() == 0 {
		return nil, ErrNotIndexed
	}

	switch mode {
	case ModeChunk, ModeDocument, ModeContext:
	default:
		return nil, fmt.Errorf("unknown search mode: %q", mode)
	}
	if topK <= 0 {
		topK = 10
	}

	tokens := u.tokenizer.Tokenize(query)
	if len(tokens) == 0 {
		return &SearchResult{Query: query, Mode: mode}, nil
	}

	key := fmt.Sprintf("%s|%d|%s", mode, topK, query)
	if u.cache != nil {
		if cached, ok := u.cache.Get(key); ok {
			u.logger.Debug("query cache hit", "query", query)
			return cached, nil
		}
	}

	// Document modes rank over a wider chunk pool than the requested number
	// of documents, so multi-chunk documents aggregate properly.
	budget := topK
	if mode != ModeChunk && u.ranking.ChunksPerSearch > budget {
		budget = u.ranking.ChunksPerSearch
	}

	ranked, trace := u.pipeline.Run(ctx, snap, query, tokens, budget)
	ranked = u.applyThreshold(ranked)

	result := &SearchResult{Query: query, Mode: mode, Trace: trace}
	switch mode {
	case ModeChunk:
		if len(ranked) > topK {
			ranked = ranked[:topK]
		}
		result.Chunks = ranked

	case ModeDocument, ModeContext:
		result.Documents = search.AggregateDocuments(ranked, u.ranking.Aggregation, topK)
		if mode == ModeContext {
			for i := range result.Documents {
				doc := &result.Documents[i]
				doc.ContextChunks = u.expander.Expand(snap, doc.DocID, doc.BestChunks)
			}
		}
	}

	if u.cache != nil {
		u.cache.Put(key, result)
	}
	return result, nil
}

// Stats returns statistics for the current snapshot.
func (u *SearchUseCase) Stats() (domain.Stats, error) {
	snap := u.holder.Current()
	if snap == nil {
		return domain.Stats{}, ErrNotIndexed
	}
	return snap.Stats(), nil
}

func (u *SearchUseCase) applyThreshold(chunks []domain.ScoredChunk) []domain.ScoredChunk {
	if u.ranking.MinScoreThreshold <= 0 {
		return chunks
	}
	out := chunks[:0]
	for _, sc := range chunks {
		if sc.Score >= u.ranking.MinScoreThreshold {
			out = append(out, sc)
		}
	}
	return out
}
