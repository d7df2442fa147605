package search

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"docsearch/config"
	"docsearch/internal/adapter/embedding"
	"docsearch/internal/domain"
	"docsearch/internal/port"
)

const (
	rerankConcurrency = 8
	traceTopScores    = 5

	// Score assigned to a pair the reranker could not score. Neutral so one
	// bad pair neither sinks nor promotes its chunk.
	neutralRerankScore = 0.5
)

// Pipeline runs the cascading retrieval stages over a snapshot. Each enabled
// stage scores the current candidate pool and keeps only its top-k, so later,
// more expensive stages see fewer chunks. Stage scores are fused at the end;
// a stage that fails at query time is dropped from fusion instead of failing
// the query.
type Pipeline struct {
	cfg         config.PipelineConfig
	boostFactor float64
	embedder    port.Embedder // nil disables the dense stage
	reranker    port.Reranker // nil disables the rerank stage
	logger      *slog.Logger
}

// NewPipeline creates a pipeline. Either provider may be nil; the matching
// stage then acts as disabled regardless of configuration.
func NewPipeline(cfg config.PipelineConfig, boostFactor float64, embedder port.Embedder, reranker port.Reranker, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:         cfg,
		boostFactor: boostFactor,
		embedder:    embedder,
		reranker:    reranker,
		logger:      logger,
	}
}

type stageDef struct {
	stage   domain.Stage
	enabled bool
	topK    int
	run     func(ctx context.Context, snap *Snapshot, query string, queryTokens []string, pool []int) (map[int]float64, error)
}

// Run executes the cascade and returns up to limit chunks ranked by fused,
// boosted score. Ties break on ordinal index, so identical inputs always
// produce identical rankings. If the context expires mid-cascade, the stages
// completed so far are fused and returned.
func (p *Pipeline) Run(ctx context.Context, snap *Snapshot, query string, queryTokens []string, limit int) ([]domain.ScoredChunk, []domain.StageTrace) {
	if snap == nil || snap.Len() == 0 || limit <= 0 {
		return nil, nil
	}

	pool := make([]int, snap.Len())
	for i := range pool {
		pool[i] = i
	}

	stage3TopK := p.cfg.Stage3TopK
	if limit < stage3TopK {
		stage3TopK = limit
	}

	stages := []stageDef{
		{domain.StageLexical, p.cfg.UseLexical, p.cfg.Stage1TopK, p.runLexical},
		{domain.StageDense, p.cfg.UseDense && p.embedder != nil && snap.HasEmbeddings(), p.cfg.Stage2TopK, p.runDense},
		{domain.StageRerank, p.cfg.UseRerank && p.reranker != nil, stage3TopK, p.runRerank},
	}

	scores := make(map[domain.Stage]map[int]float64, len(stages))
	var fused []domain.Stage       // stages whose scores enter fusion
	var latest map[int]float64     // most recent stage scores, for disabled truncation
	traces := make([]domain.StageTrace, 0, len(stages))

	for _, st := range stages {
		if ctx.Err() != nil {
			p.logger.Warn("deadline reached mid-cascade, fusing completed stages",
				"stage", st.stage, "pool", len(pool))
			break
		}

		if !st.enabled {
			// A disabled stage still narrows the pool when earlier scores
			// exist; with nothing to rank by it passes the pool through.
			if latest != nil {
				pool = rankAndTruncate(pool, latest, st.topK)
			}
			traces = append(traces, domain.StageTrace{
				Stage: st.stage, Candidates: len(pool), Skipped: true,
			})
			continue
		}

		stageScores, err := st.run(ctx, snap, query, queryTokens, pool)
		if err != nil {
			p.logger.Warn("stage failed, dropping it from fusion",
				"stage", st.stage, "error", err)
			traces = append(traces, domain.StageTrace{
				Stage: st.stage, Candidates: len(pool), Dropped: true,
			})
			continue
		}

		scores[st.stage] = stageScores
		latest = stageScores
		fused = append(fused, st.stage)
		pool = rankAndTruncate(pool, stageScores, st.topK)
		traces = append(traces, domain.StageTrace{
			Stage:      st.stage,
			Candidates: len(pool),
			TopScores:  topScores(pool, stageScores, traceTopScores),
		})
	}

	ranked := p.fuseAndBoost(snap, query, pool, scores, fused)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, traces
}

func (p *Pipeline) runLexical(_ context.Context, snap *Snapshot, _ string, queryTokens []string, pool []int) (map[int]float64, error) {
	all := snap.scorer.Score(queryTokens)
	out := make(map[int]float64, len(pool))
	for _, idx := range pool {
		out[idx] = all[idx]
	}
	return out, nil
}

func (p *Pipeline) runDense(ctx context.Context, snap *Snapshot, query string, _ []string, pool []int) (map[int]float64, error) {
	vectors, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	queryVec := vectors[0]

	out := make(map[int]float64, len(pool))
	for _, idx := range pool {
		out[idx] = embedding.Cosine(queryVec, snap.embeddings[idx])
	}
	return out, nil
}

// runRerank scores every pool chunk against the query with bounded
// concurrency. A pair the reranker cannot score gets a neutral score rather
// than failing the stage.
func (p *Pipeline) runRerank(ctx context.Context, snap *Snapshot, query string, _ []string, pool []int) (map[int]float64, error) {
	results := make([]float64, len(pool))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rerankConcurrency)
	for i, idx := range pool {
		i, idx := i, idx
		g.Go(func() error {
			score, err := p.reranker.Score(gctx, query, snap.chunks[idx].Content)
			if err != nil {
				p.logger.Warn("rerank pair failed, using neutral score",
					"chunk", snap.chunks[idx].ID, "error", err)
				score = neutralRerankScore
			}
			results[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int]float64, len(pool))
	for i, idx := range pool {
		out[idx] = results[i]
	}
	return out, nil
}

// fuseAndBoost combines the per-stage scores of the surviving pool, applies
// structural boosts and ranks the result.
func (p *Pipeline) fuseAndBoost(snap *Snapshot, query string, pool []int, scores map[domain.Stage]map[int]float64, fusedStages []domain.Stage) []domain.ScoredChunk {
	base := FuseScores(pool, scores, fusedStages, p.stageWeights())

	out := make([]domain.ScoredChunk, 0, len(pool))
	for _, idx := range pool {
		chunk := snap.chunks[idx]

		stageScores := make(map[domain.Stage]float64, len(scores))
		for stage, m := range scores {
			if s, ok := m[idx]; ok {
				stageScores[stage] = s
			}
		}

		out = append(out, domain.ScoredChunk{
			Chunk:       chunk,
			StageScores: stageScores,
			Score:       Boost(chunk, base[idx], query, p.boostFactor),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return snap.byID[out[i].Chunk.ID] < snap.byID[out[j].Chunk.ID]
	})
	return out
}

func (p *Pipeline) stageWeights() map[domain.Stage]float64 {
	return map[domain.Stage]float64{
		domain.StageLexical: p.cfg.LexicalWeight,
		domain.StageDense:   p.cfg.DenseWeight,
		domain.StageRerank:  p.cfg.RerankWeight,
	}
}

// rankAndTruncate returns the top-k pool indices by score, ties broken by
// ordinal index ascending. The input pool is not modified.
func rankAndTruncate(pool []int, scores map[int]float64, k int) []int {
	ranked := make([]int, len(pool))
	copy(ranked, pool)

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i]], scores[ranked[j]]
		if si != sj {
			return si > sj
		}
		return ranked[i] < ranked[j]
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

func topScores(pool []int, scores map[int]float64, n int) []float64 {
	if len(pool) < n {
		n = len(pool)
	}
	out := make([]float64, 0, n)
	for _, idx := range pool[:n] {
		out = append(out, scores[idx])
	}
	return out
}
