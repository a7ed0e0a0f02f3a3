package search

import (
	"sort"
)

// FusionConfig defines weights for hybrid score fusion.
type FusionConfig struct {
	SemanticWeight float64
	KeywordWeight  float64
}

// DefaultFusionConfig provides balanced fusion (70% semantic, 30% keyword).
var DefaultFusionConfig = FusionConfig{
	SemanticWeight: 0.7,
	KeywordWeight:  0.3,
}

// SearchHybrid performs hybrid search combining BM25 and semantic scores.
// BM25 scores are normalized to [0, 1] before fusion.
func (i *Indexer) SearchHybrid(query string, limit int, config FusionConfig) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	bm25Results, err := i.SearchBM25(query, limit*2)
	if err != nil {
		return nil, err
	}

	semanticResults, err := i.SearchSemantic(query, limit*2)
	if err != nil || len(semanticResults) == 0 {
		if len(bm25Results) > limit {
			bm25Results = bm25Results[:limit]
		}
		return normalizeScores(bm25Results), nil
	}

	fusedResults := fuseScores(normalizeScores(bm25Results), semanticResults, config)

	sort.Slice(fusedResults, func(a, b int) bool {
		if fusedResults[a].Score != fusedResults[b].Score {
			return fusedResults[a].Score > fusedResults[b].Score
		}
		return fusedResults[a].ID < fusedResults[b].ID
	})

	if len(fusedResults) > limit {
		fusedResults = fusedResults[:limit]
	}
	return fusedResults, nil
}

// fuseScores combines BM25 and semantic results using weighted fusion.
// A document found by only one side keeps that side's weighted score.
func fuseScores(bm25Results, semanticResults []Result, config FusionConfig) []Result {
	semanticMap := make(map[string]Result, len(semanticResults))
	for _, r := range semanticResults {
		semanticMap[r.ID] = r
	}
	bm25Map := make(map[string]Result, len(bm25Results))
	for _, r := range bm25Results {
		bm25Map[r.ID] = r
	}

	var ids []string
	seen := make(map[string]bool)
	for _, r := range semanticResults {
		if !seen[r.ID] {
			seen[r.ID] = true
			ids = append(ids, r.ID)
		}
	}
	for _, r := range bm25Results {
		if !seen[r.ID] {
			seen[r.ID] = true
			ids = append(ids, r.ID)
		}
	}

	fused := make([]Result, 0, len(ids))
	for _, id := range ids {
		sem, hasSemantic := semanticMap[id]
		kw, hasBM25 := bm25Map[id]

		var base Result
		var score float64
		switch {
		case hasSemantic && hasBM25:
			base = sem
			score = config.SemanticWeight*sem.Score + config.KeywordWeight*kw.Score
		case hasSemantic:
			base = sem
			score = config.SemanticWeight * sem.Score
		default:
			base = kw
			score = config.KeywordWeight * kw.Score
		}

		base.Score = score
		fused = append(fused, base)
	}
	return fused
}

// normalizeScores normalizes scores to [0, 1] range.
func normalizeScores(results []Result) []Result {
	if len(results) == 0 {
		return results
	}

	minScore := results[0].Score
	maxScore := results[0].Score
	for _, r := range results {
		if r.Score < minScore {
			minScore = r.Score
		}
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}

	normalized := make([]Result, len(results))
	for idx, r := range results {
		normalized[idx] = r
		if maxScore == minScore {
			normalized[idx].Score = 1.0
			continue
		}
		normalized[idx].Score = (r.Score - minScore) / (maxScore - minScore)
	}
	return normalized
}
