package evo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurvivorCount(t *testing.T) {
	cases := []struct {
		size   int
		cutoff float64
		want   int
	}{
		{5, 0.1, 1},
		{10, 0.25, 3},
		{4, 1, 4},
		{3, 0.01, 1},
		{20, 0.5, 10},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SurvivorCount(tc.size, tc.cutoff), "size=%d cutoff=%v", tc.size, tc.cutoff)
	}
}

func TestRankBreaksTiesByID(t *testing.T) {
	scored := []ScoredLayout{{ID: "b", Score: 1}, {ID: "c", Score: 0.5}, {ID: "a", Score: 1}}
	rank(scored)
	assert.Equal(t, []string{"c", "a", "b"}, []string{scored[0].ID, scored[1].ID, scored[2].ID})
}

func TestEliteSelectorPicksSurvivorsOnly(t *testing.T) {
	ranked := []ScoredLayout{{ID: "a", Score: 1}, {ID: "b", Score: 2}, {ID: "c", Score: 3}}
	rng := rand.New(rand.NewSource(9))
	seen := map[string]int{}
	for i := 0; i < 50; i++ {
		parent, err := EliteSelector{}.PickParent(rng, ranked, 2)
		require.NoError(t, err)
		seen[parent.ID]++
	}
	assert.NotContains(t, seen, "c")
	assert.Len(t, seen, 2)

	_, err := EliteSelector{}.PickParent(rng, ranked, 4)
	assert.Error(t, err)
	_, err = EliteSelector{}.PickParent(nil, ranked, 1)
	assert.Error(t, err)
}

func TestTournamentSelectorPrefersLowerScores(t *testing.T) {
	ranked := []ScoredLayout{{ID: "a", Score: 1}, {ID: "b", Score: 2}, {ID: "c", Score: 3}, {ID: "d", Score: 4}}
	selector := TournamentSelector{TournamentSize: 4}
	rng := rand.New(rand.NewSource(5))
	counts := map[string]int{}
	for i := 0; i < 200; i++ {
		parent, err := selector.PickParent(rng, ranked, 4)
		require.NoError(t, err)
		counts[parent.ID]++
	}
	assert.Greater(t, counts["a"], counts["d"])
}

func TestSelectorByName(t *testing.T) {
	s, err := SelectorByName("")
	require.NoError(t, err)
	assert.Equal(t, "elite", s.Name())
	s, err = SelectorByName("Tournament")
	require.NoError(t, err)
	assert.Equal(t, "tournament", s.Name())
	_, err = SelectorByName("roulette")
	assert.Error(t, err)
}
