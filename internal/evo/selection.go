package evo

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"keyforge/internal/keyboard"
)

// ScoredLayout is one evaluated candidate. Lower scores are better.
type ScoredLayout struct {
	ID     string
	Layout *keyboard.Layout
	Score  float64
}

// Selector chooses parents from the surviving prefix of a ranked population.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []ScoredLayout, survivors int) (ScoredLayout, error)
}

// EliteSelector picks uniformly among the survivors.
type EliteSelector struct{}

func (EliteSelector) Name() string {
	return "elite"
}

func (EliteSelector) PickParent(rng *rand.Rand, ranked []ScoredLayout, survivors int) (ScoredLayout, error) {
	if err := checkSelection(rng, ranked, survivors); err != nil {
		return ScoredLayout{}, err
	}
	return ranked[rng.Intn(survivors)], nil
}

// TournamentSelector samples TournamentSize survivors and keeps the lowest
// score among them.
type TournamentSelector struct {
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []ScoredLayout, survivors int) (ScoredLayout, error) {
	if err := checkSelection(rng, ranked, survivors); err != nil {
		return ScoredLayout{}, err
	}
	size := s.TournamentSize
	if size <= 0 {
		size = 3
	}
	if size > survivors {
		size = survivors
	}
	best := ranked[rng.Intn(survivors)]
	for i := 1; i < size; i++ {
		candidate := ranked[rng.Intn(survivors)]
		if better(candidate, best) {
			best = candidate
		}
	}
	return best, nil
}

func checkSelection(rng *rand.Rand, ranked []ScoredLayout, survivors int) error {
	if rng == nil {
		return fmt.Errorf("random source is required")
	}
	if survivors <= 0 || survivors > len(ranked) {
		return fmt.Errorf("invalid survivor count: %d", survivors)
	}
	return nil
}

// SelectorByName resolves a configured selector name.
func SelectorByName(name string) (Selector, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "elite":
		return EliteSelector{}, nil
	case "tournament":
		return TournamentSelector{}, nil
	default:
		return nil, fmt.Errorf("unsupported selector: %s", name)
	}
}

// SurvivorCount returns round(cutoff*size) clamped to [1, size].
func SurvivorCount(size int, cutoff float64) int {
	n := int(math.Round(cutoff * float64(size)))
	if n < 1 {
		n = 1
	}
	if n > size {
		n = size
	}
	return n
}

func better(a, b ScoredLayout) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.ID < b.ID
}

// rank sorts ascending by score with ties broken by candidate id.
func rank(scored []ScoredLayout) {
	sort.Slice(scored, func(i, j int) bool { return better(scored[i], scored[j]) })
}
