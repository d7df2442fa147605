package search

import "docsearch/internal/domain"

// FuseScores combines per-stage raw scores into one score per pool index.
//
// Raw stage scores live on incompatible scales (BM25 is unbounded, cosine and
// rerank sit in [0,1] or [-1,1]), so each stage is first normalized by its
// maximum over the pool. A stage whose maximum is not positive contributes
// zero. Stage weights are renormalized over the stages that actually ran, so
// a dropped stage redistributes its weight instead of deflating every score.
func FuseScores(pool []int, scores map[domain.Stage]map[int]float64, stages []domain.Stage, weights map[domain.Stage]float64) map[int]float64 {
	fused := make(map[int]float64, len(pool))

	totalWeight := 0.0
	for _, stage := range stages {
		totalWeight += weights[stage]
	}
	if totalWeight <= 0 {
		for _, idx := range pool {
			fused[idx] = 0
		}
		return fused
	}

	for _, stage := range stages {
		stageScores := scores[stage]
		maxScore := 0.0
		for _, idx := range pool {
			if s := stageScores[idx]; s > maxScore {
				maxScore = s
			}
		}
		if maxScore <= 0 {
			continue
		}

		weight := weights[stage] / totalWeight
		for _, idx := range pool {
			fused[idx] += weight * (stageScores[idx] / maxScore)
		}
	}

	for _, idx := range pool {
		if _, ok := fused[idx]; !ok {
			fused[idx] = 0
		}
	}
	return fused
}
