package evo

import (
	"context"
	"errors"
	"math/rand"

	"keyforge/internal/keyboard"
	"keyforge/internal/keycode"
)

var ErrNoMutationChoice = errors.New("no mutation choice available")

// mutableCells splits the moveable cells of layout into plain cells and
// symmetric cells that can be changed together with their mirror. A
// symmetric cell whose mirror is not symmetric is a malformed template.
func mutableCells(layout *keyboard.Layout) (plain, paired []keyboard.LayoutPosition, err error) {
	for _, pos := range layout.MoveableCells() {
		key, err := layout.Get(pos)
		if err != nil {
			return nil, nil, err
		}
		if !key.Symmetric {
			plain = append(plain, pos)
			continue
		}
		mirrorPos := layout.SymmetricPosition(pos)
		mirror, err := layout.Get(mirrorPos)
		if err != nil {
			return nil, nil, err
		}
		if !mirror.Symmetric {
			return nil, nil, &keyboard.SymmetryError{
				Layer: pos.Layer, Row: pos.Row, Col: pos.Col,
				MirrorRow: mirrorPos.Row, MirrorCol: mirrorPos.Col,
			}
		}
		if mirror.Moveable {
			paired = append(paired, pos)
		}
	}
	return plain, paired, nil
}

// pairGroups counts distinct mirror pairs among symmetric cells.
func pairGroups(layout *keyboard.Layout, paired []keyboard.LayoutPosition) int {
	groups := make(map[keyboard.LayoutPosition]struct{}, len(paired))
	for _, pos := range paired {
		mirror := layout.SymmetricPosition(pos)
		if mirror.Col < pos.Col {
			pos = mirror
		}
		groups[pos] = struct{}{}
	}
	return len(groups)
}

// SwapKeys exchanges the values of two moveable cells. Plain cells swap with
// plain cells; symmetric cells swap with symmetric cells and the mirrored
// swap is applied to their partners.
type SwapKeys struct {
	Rand *rand.Rand
}

func (o *SwapKeys) Name() string {
	return "swap_keys"
}

func (o *SwapKeys) Apply(_ context.Context, layout *keyboard.Layout) (*keyboard.Layout, error) {
	plain, paired, err := mutableCells(layout)
	if err != nil {
		return nil, err
	}
	if len(plain) < 2 {
		plain = nil
	}
	if pairGroups(layout, paired) < 2 {
		paired = nil
	}
	total := len(plain) + len(paired)
	if total == 0 {
		return nil, ErrNoMutationChoice
	}

	mutated := layout.Clone()
	pick := o.Rand.Intn(total)
	if pick < len(plain) {
		a := plain[pick]
		b := pickOther(o.Rand, plain, func(p keyboard.LayoutPosition) bool { return p == a })
		if err := swapValues(mutated, a, b); err != nil {
			return nil, err
		}
		return mutated, nil
	}

	a := paired[pick-len(plain)]
	mirrorA := layout.SymmetricPosition(a)
	b := pickOther(o.Rand, paired, func(p keyboard.LayoutPosition) bool { return p == a || p == mirrorA })
	mirrorB := layout.SymmetricPosition(b)

	// read all four values first so a centre-column cell, which is its own
	// mirror, ends up with a consistent value
	values := make(map[keyboard.LayoutPosition]keycode.Keycode, 4)
	for _, pos := range []keyboard.LayoutPosition{a, b, mirrorA, mirrorB} {
		key, err := layout.Get(pos)
		if err != nil {
			return nil, err
		}
		values[pos] = key.Value
	}
	for _, assign := range []struct{ to, from keyboard.LayoutPosition }{
		{a, b}, {b, a}, {mirrorA, mirrorB}, {mirrorB, mirrorA},
	} {
		if err := setValue(mutated, assign.to, values[assign.from]); err != nil {
			return nil, err
		}
	}
	return mutated, nil
}

// pickOther chooses uniformly among cells not excluded. The caller guarantees
// at least one such cell exists.
func pickOther(rng *rand.Rand, cells []keyboard.LayoutPosition, exclude func(keyboard.LayoutPosition) bool) keyboard.LayoutPosition {
	candidates := make([]keyboard.LayoutPosition, 0, len(cells))
	for _, pos := range cells {
		if !exclude(pos) {
			candidates = append(candidates, pos)
		}
	}
	return candidates[rng.Intn(len(candidates))]
}

func swapValues(layout *keyboard.Layout, a, b keyboard.LayoutPosition) error {
	ka, err := layout.Ptr(a)
	if err != nil {
		return err
	}
	kb, err := layout.Ptr(b)
	if err != nil {
		return err
	}
	ka.Value, kb.Value = kb.Value, ka.Value
	return nil
}

func setValue(layout *keyboard.Layout, pos keyboard.LayoutPosition, value keycode.Keycode) error {
	key, err := layout.Ptr(pos)
	if err != nil {
		return err
	}
	key.Value = value
	return nil
}

// ReplaceKey assigns a random keycode to one moveable cell. A symmetric
// cell's mirror receives the same keycode.
type ReplaceKey struct {
	Rand     *rand.Rand
	Keycodes []keycode.Keycode
}

func (o *ReplaceKey) Name() string {
	return "replace_key"
}

func (o *ReplaceKey) Apply(_ context.Context, layout *keyboard.Layout) (*keyboard.Layout, error) {
	if len(o.Keycodes) == 0 {
		return nil, ErrNoMutationChoice
	}
	plain, paired, err := mutableCells(layout)
	if err != nil {
		return nil, err
	}
	cells := append(plain, paired...)
	if len(cells) == 0 {
		return nil, ErrNoMutationChoice
	}

	pos := cells[o.Rand.Intn(len(cells))]
	value := o.Keycodes[o.Rand.Intn(len(o.Keycodes))]
	mutated := layout.Clone()
	if err := setValue(mutated, pos, value); err != nil {
		return nil, err
	}
	key, err := layout.Get(pos)
	if err != nil {
		return nil, err
	}
	if key.Symmetric {
		if err := setValue(mutated, layout.SymmetricPosition(pos), value); err != nil {
			return nil, err
		}
	}
	return mutated, nil
}
