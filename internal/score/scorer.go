package score

import (
	"errors"
	"math"
	"unicode/utf8"

	"keyforge/internal/corpus"
	"keyforge/internal/keyboard"
)

// Scorer computes typing effort for layouts sharing one physical keyboard.
type Scorer struct {
	effort  *keyboard.EffortLayer
	phalanx *keyboard.PhalanxLayer
	opts    Options
}

// NewScorer binds the per-position effort and hand/finger assignment.
func NewScorer(effort *keyboard.EffortLayer, phalanx *keyboard.PhalanxLayer, opts Options) (*Scorer, error) {
	if effort == nil || phalanx == nil {
		return nil, errors.New("score: effort and phalanx layers are required")
	}
	if effort.Rows() != phalanx.Rows() || effort.Cols() != phalanx.Cols() {
		return nil, keyboard.ErrShapeMismatch
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{effort: effort, phalanx: phalanx, opts: opts}, nil
}

func (s *Scorer) Options() Options { return s.opts }

// Resolver indexes layout for repeated n-gram resolution.
func (s *Scorer) Resolver(layout *keyboard.Layout) (*Resolver, error) {
	return NewResolver(layout, s.effort, s.phalanx)
}

// Effort returns the adjusted effort of typing strokes for an n-gram of
// ngramLen characters.
func (s *Scorer) Effort(strokes []Keystroke, ngramLen int) float64 {
	return s.breakdown(strokes, ngramLen).Total
}

// ScoreLayout returns the frequency-weighted effort of every n-gram in table.
func (s *Scorer) ScoreLayout(layout *keyboard.Layout, table corpus.FrequencyTable) (float64, error) {
	return s.ScoreEntries(layout, table.Sorted())
}

// ScoreEntries is ScoreLayout over entries in caller-chosen order. Summing in
// a fixed order keeps scores bit-identical across runs.
func (s *Scorer) ScoreEntries(layout *keyboard.Layout, entries []corpus.Entry) (float64, error) {
	resolver, err := s.Resolver(layout)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, e := range entries {
		effort, err := s.ngramEffort(resolver, e.Ngram)
		if errors.Is(err, ErrUntypeable) {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += e.Freq * effort
	}
	return total, nil
}

func (s *Scorer) ngramEffort(resolver *Resolver, ngram string) (float64, error) {
	strokes, err := resolver.Resolve(ngram)
	switch {
	case errors.Is(err, ErrUnreachable):
		return s.opts.UnreachablePenalty * float64(utf8.RuneCountInString(ngram)), nil
	case err != nil:
		return 0, err
	}
	return s.Effort(strokes, utf8.RuneCountInString(ngram)), nil
}

// Run is a half-open range [Start, End) of keystrokes.
type Run struct {
	Start   int  `json:"start"`
	End     int  `json:"end"`
	SameRow bool `json:"same_row,omitempty"`
}

func (r Run) Len() int { return r.End - r.Start }

// Breakdown explains how an n-gram's effort was assembled.
type Breakdown struct {
	Ngram            string      `json:"ngram"`
	Strokes          []Keystroke `json:"strokes"`
	Base             float64     `json:"base"`
	LengthMultiplier float64     `json:"length_multiplier"`
	AlternationRuns  []Run       `json:"alternation_runs,omitempty"`
	RollRuns         []Run       `json:"roll_runs,omitempty"`
	SameFingerPairs  []int       `json:"same_finger_pairs,omitempty"`
	Multipliers      []float64   `json:"multipliers"`
	Unreachable      bool        `json:"unreachable,omitempty"`
	Total            float64     `json:"total"`
}

// Explain resolves ngram on layout and reports every adjustment applied.
func (s *Scorer) Explain(layout *keyboard.Layout, ngram string) (Breakdown, error) {
	resolver, err := s.Resolver(layout)
	if err != nil {
		return Breakdown{}, err
	}
	strokes, err := resolver.Resolve(ngram)
	switch {
	case errors.Is(err, ErrUnreachable):
		return Breakdown{
			Ngram:       ngram,
			Unreachable: true,
			Total:       s.opts.UnreachablePenalty * float64(utf8.RuneCountInString(ngram)),
		}, nil
	case err != nil:
		return Breakdown{}, err
	}
	b := s.breakdown(strokes, utf8.RuneCountInString(ngram))
	b.Ngram = ngram
	return b, nil
}

func (s *Scorer) breakdown(strokes []Keystroke, ngramLen int) Breakdown {
	b := Breakdown{
		Strokes:          strokes,
		LengthMultiplier: 1,
		Multipliers:      make([]float64, len(strokes)),
	}
	for i, k := range strokes {
		b.Base += k.Effort
		b.Multipliers[i] = 1
	}
	if extra := len(strokes) - ngramLen; extra > 0 {
		b.LengthMultiplier = math.Pow(s.opts.ExtraLengthPenalty, float64(extra))
	}

	altMul := 1 - s.opts.alternationWeight()*(1-s.opts.HandAlternationReductionFactor)
	b.AlternationRuns = alternationRuns(strokes)
	for _, run := range b.AlternationRuns {
		for i := run.Start; i < run.End; i++ {
			b.Multipliers[i] *= altMul
		}
	}

	rollMul := 1 - s.opts.rollWeight()*(1-s.opts.FingerRollReductionFactor)
	sameRowMul := 1 - s.opts.rollWeight()*(1-s.opts.FingerRollSameRowReductionFactor)
	b.RollRuns = rollRuns(strokes)
	for _, run := range b.RollRuns {
		for i := run.Start; i < run.End; i++ {
			b.Multipliers[i] *= rollMul
			if run.SameRow {
				b.Multipliers[i] *= sameRowMul
			}
		}
	}

	for i := 1; i < len(strokes); i++ {
		if strokes[i].Hand == strokes[i-1].Hand && strokes[i].Finger == strokes[i-1].Finger {
			b.SameFingerPairs = append(b.SameFingerPairs, i)
			b.Multipliers[i] *= s.opts.SameFingerPenaltyFactor
		}
	}

	var total float64
	for i, k := range strokes {
		total += k.Effort * b.Multipliers[i]
	}
	b.Total = total * b.LengthMultiplier
	return b
}

const minRunLength = 3

// alternationRuns finds maximal runs of at least three strokes where every
// stroke uses the other hand from its predecessor.
func alternationRuns(strokes []Keystroke) []Run {
	return maximalRuns(len(strokes), func(i int) (int, bool) {
		return 0, strokes[i].Hand != strokes[i-1].Hand
	})
}

// rollRuns finds maximal runs of at least three same-hand strokes whose
// fingers move steadily inward or outward, never jumping more than one row.
func rollRuns(strokes []Keystroke) []Run {
	runs := maximalRuns(len(strokes), func(i int) (int, bool) {
		prev, cur := strokes[i-1], strokes[i]
		if prev.Hand != cur.Hand || prev.Finger == cur.Finger {
			return 0, false
		}
		if rowDelta := cur.Pos.Row - prev.Pos.Row; rowDelta > 1 || rowDelta < -1 {
			return 0, false
		}
		if cur.Finger > prev.Finger {
			return 1, true
		}
		return -1, true
	})
	for i := range runs {
		runs[i].SameRow = true
		for j := runs[i].Start + 1; j < runs[i].End; j++ {
			if strokes[j].Pos.Row != strokes[runs[i].Start].Pos.Row {
				runs[i].SameRow = false
				break
			}
		}
	}
	return runs
}

// maximalRuns groups consecutive qualifying steps. step(i) reports whether
// stroke i continues from stroke i-1 and in which direction; a change of
// direction starts a new run at the shared stroke.
func maximalRuns(n int, step func(i int) (int, bool)) []Run {
	var runs []Run
	start, dir := 0, 0
	flush := func(end int) {
		if end-start >= minRunLength {
			runs = append(runs, Run{Start: start, End: end})
		}
	}
	for i := 1; i < n; i++ {
		d, ok := step(i)
		switch {
		case !ok:
			flush(i)
			start, dir = i, 0
		case i-1 == start:
			dir = d
		case d != dir:
			flush(i)
			start, dir = i-1, d
		}
	}
	flush(n)
	return runs
}
