package evo

import (
	"gonum.org/v1/gonum/stat"
)

// GenerationDiagnostics summarizes one evaluated generation.
type GenerationDiagnostics struct {
	Generation    int     `json:"generation"`
	BestScore     float64 `json:"best_score"`
	BestEverScore float64 `json:"best_ever_score"`
	MeanScore     float64 `json:"mean_score"`
	StdDevScore   float64 `json:"std_dev_score"`
	WorstScore    float64 `json:"worst_score"`
	Diversity     int     `json:"diversity"`
	Survivors     int     `json:"survivors"`
}

// LineageRecord describes how a candidate entered a generation.
type LineageRecord struct {
	CandidateID string `json:"candidate_id"`
	ParentID    string `json:"parent_id,omitempty"`
	Generation  int    `json:"generation"`
	Operation   string `json:"operation"`
	Fingerprint string `json:"fingerprint"`
}

// summarizeGeneration expects ranked to be sorted best first.
func summarizeGeneration(ranked []ScoredLayout, generation, survivors int, bestEver float64) GenerationDiagnostics {
	if len(ranked) == 0 {
		return GenerationDiagnostics{Generation: generation}
	}
	scores := make([]float64, len(ranked))
	fingerprints := make(map[string]struct{}, len(ranked))
	for i, item := range ranked {
		scores[i] = item.Score
		fingerprints[Fingerprint(item.Layout)] = struct{}{}
	}
	mean, std := stat.MeanStdDev(scores, nil)
	if len(scores) < 2 {
		std = 0
	}
	return GenerationDiagnostics{
		Generation:    generation,
		BestScore:     ranked[0].Score,
		BestEverScore: bestEver,
		MeanScore:     mean,
		StdDevScore:   std,
		WorstScore:    ranked[len(ranked)-1].Score,
		Diversity:     len(fingerprints),
		Survivors:     survivors,
	}
}
