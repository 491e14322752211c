package evo

import (
	"context"

	"keyforge/internal/keyboard"
)

// Operator produces a mutated copy of a layout. The input layout is never
// modified.
type Operator interface {
	Name() string
	Apply(ctx context.Context, layout *keyboard.Layout) (*keyboard.Layout, error)
}

// WeightedMutation pairs an operator with its relative selection weight.
type WeightedMutation struct {
	Operator Operator
	Weight   float64
}
