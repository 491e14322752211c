// Package corpus builds the n-gram frequency tables a layout is scored
// against.
package corpus

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"
)

var (
	ErrWeightMismatch = errors.New("corpus: dataset weights do not match tables")
	ErrNoWeight       = errors.New("corpus: dataset weights sum to zero")
)

// FrequencyTable maps an n-gram to its relative weight. It is read-only once
// handed to a scorer.
type FrequencyTable map[string]float64

// Entry is one n-gram and its weight.
type Entry struct {
	Ngram string  `json:"ngram"`
	Freq  float64 `json:"freq"`
}

// Total returns the sum of all weights.
func (t FrequencyTable) Total() float64 {
	var sum float64
	for _, v := range t {
		sum += v
	}
	return sum
}

// MaxLen returns the longest n-gram length in runes.
func (t FrequencyTable) MaxLen() int {
	longest := 0
	for ngram := range t {
		longest = max(longest, utf8.RuneCountInString(ngram))
	}
	return longest
}

// Sorted returns entries ordered by descending weight, then by n-gram.
func (t FrequencyTable) Sorted() []Entry {
	out := make([]Entry, 0, len(t))
	for ngram, freq := range t {
		out = append(out, Entry{Ngram: ngram, Freq: freq})
	}
	sortEntries(out)
	return out
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Freq != entries[j].Freq {
			return entries[i].Freq > entries[j].Freq
		}
		return entries[i].Ngram < entries[j].Ngram
	})
}

// Normalize returns a copy whose weights sum to 1. An empty or all-zero table
// is returned as a plain copy.
func (t FrequencyTable) Normalize() FrequencyTable {
	total := t.Total()
	out := make(FrequencyTable, len(t))
	for ngram, freq := range t {
		if total > 0 {
			freq /= total
		}
		out[ngram] = freq
	}
	return out
}

// TopN keeps the n heaviest n-grams of every length. n <= 0 keeps everything.
func (t FrequencyTable) TopN(n int) FrequencyTable {
	if n <= 0 {
		out := make(FrequencyTable, len(t))
		for ngram, freq := range t {
			out[ngram] = freq
		}
		return out
	}
	byLen := make(map[int][]Entry)
	for _, e := range t.Sorted() {
		l := utf8.RuneCountInString(e.Ngram)
		if len(byLen[l]) < n {
			byLen[l] = append(byLen[l], e)
		}
	}
	out := make(FrequencyTable)
	for _, entries := range byLen {
		for _, e := range entries {
			out[e.Ngram] = e.Freq
		}
	}
	return out
}

// Combine merges tables so each contributes in proportion to its weight.
// Every table is normalized before weighting.
func Combine(tables []FrequencyTable, weights []float64) (FrequencyTable, error) {
	if len(tables) != len(weights) {
		return nil, fmt.Errorf("%w: %d tables, %d weights", ErrWeightMismatch, len(tables), len(weights))
	}
	var total float64
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("corpus: dataset weight %d is negative: %v", i, w)
		}
		total += w
	}
	if total <= 0 {
		return nil, ErrNoWeight
	}
	out := make(FrequencyTable)
	for i, table := range tables {
		ratio := weights[i] / total
		for ngram, freq := range table.Normalize() {
			out[ngram] += freq * ratio
		}
	}
	return out, nil
}
