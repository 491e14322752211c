// Package score models the typing effort of a layout against an n-gram
// frequency table.
package score

import (
	"errors"
	"fmt"
)

var ErrInvalidOptions = errors.New("score: invalid options")

// Options weights the adjustments applied to the raw per-position effort.
type Options struct {
	// Relative weight of the hand alternation bonus against the finger roll bonus.
	HandAlternationWeight float64 `toml:"hand_alternation_weight" yaml:"hand_alternation_weight" json:"hand_alternation_weight"`
	// Multiplier for strokes inside an alternation run of at least three strokes.
	HandAlternationReductionFactor float64 `toml:"hand_alternation_reduction_factor" yaml:"hand_alternation_reduction_factor" json:"hand_alternation_reduction_factor"`
	FingerRollWeight               float64 `toml:"finger_roll_weight" yaml:"finger_roll_weight" json:"finger_roll_weight"`
	// Multiplier for strokes inside a roll of at least three strokes.
	FingerRollReductionFactor float64 `toml:"finger_roll_reduction_factor" yaml:"finger_roll_reduction_factor" json:"finger_roll_reduction_factor"`
	// Additional multiplier for rolls that stay on one row.
	FingerRollSameRowReductionFactor float64 `toml:"finger_roll_same_row_reduction_factor" yaml:"finger_roll_same_row_reduction_factor" json:"finger_roll_same_row_reduction_factor"`
	// Multiplier for the second of two consecutive strokes on the same finger.
	SameFingerPenaltyFactor float64 `toml:"same_finger_penalty_factor" yaml:"same_finger_penalty_factor" json:"same_finger_penalty_factor"`
	// Base for the penalty on keystrokes beyond the n-gram length.
	ExtraLengthPenalty float64 `toml:"extra_length_penalty" yaml:"extra_length_penalty" json:"extra_length_penalty"`
	// Cost per character of an n-gram the layout cannot type.
	UnreachablePenalty float64 `toml:"unreachable_penalty" yaml:"unreachable_penalty" json:"unreachable_penalty"`
}

// DefaultOptions returns the stock weights.
func DefaultOptions() Options {
	return Options{
		HandAlternationWeight:            3.0,
		HandAlternationReductionFactor:   0.9,
		FingerRollWeight:                 2.0,
		FingerRollReductionFactor:        0.9,
		FingerRollSameRowReductionFactor: 0.9,
		SameFingerPenaltyFactor:          5.0,
		ExtraLengthPenalty:               1.1,
		UnreachablePenalty:               100,
	}
}

// Validate rejects negative weights and factors.
func (o Options) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"hand_alternation_weight", o.HandAlternationWeight},
		{"hand_alternation_reduction_factor", o.HandAlternationReductionFactor},
		{"finger_roll_weight", o.FingerRollWeight},
		{"finger_roll_reduction_factor", o.FingerRollReductionFactor},
		{"finger_roll_same_row_reduction_factor", o.FingerRollSameRowReductionFactor},
		{"same_finger_penalty_factor", o.SameFingerPenaltyFactor},
		{"extra_length_penalty", o.ExtraLengthPenalty},
		{"unreachable_penalty", o.UnreachablePenalty},
	}
	for _, f := range fields {
		if f.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidOptions, f.name, f.value)
		}
	}
	return nil
}

// alternationWeight and rollWeight split the bonus between the two run kinds.
func (o Options) alternationWeight() float64 {
	total := o.HandAlternationWeight + o.FingerRollWeight
	if total <= 0 {
		return 0
	}
	return o.HandAlternationWeight / total
}

func (o Options) rollWeight() float64 {
	total := o.HandAlternationWeight + o.FingerRollWeight
	if total <= 0 {
		return 0
	}
	return o.FingerRollWeight / total
}
