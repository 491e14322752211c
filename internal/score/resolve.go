package score

import (
	"errors"
	"fmt"
	"sort"

	"keyforge/internal/keyboard"
	"keyforge/internal/keycode"
)

var (
	// ErrUnreachable means the layout has no way to type a character.
	ErrUnreachable = errors.New("score: character unreachable on layout")
	// ErrUntypeable means a character has no keycode at all.
	ErrUntypeable = errors.New("score: character has no keycode")
)

// Keystroke is one key press needed to type an n-gram.
type Keystroke struct {
	Pos     keyboard.LayoutPosition `json:"pos"`
	Keycode keycode.Keycode         `json:"keycode"`
	Effort  float64                 `json:"effort"`
	Hand    keyboard.Hand           `json:"hand"`
	Finger  keyboard.Finger         `json:"finger"`
}

// Resolver maps characters to keystrokes on one layout. It is built once per
// candidate and is safe for concurrent reads.
type Resolver struct {
	effort  *keyboard.EffortLayer
	phalanx *keyboard.PhalanxLayer
	// positions of each keycode ordered by layer, then effort, then row-major
	positions map[keycode.Keycode][]keyboard.LayoutPosition
}

// NewResolver indexes layout. The effort and phalanx layers must share its
// dimensions.
func NewResolver(layout *keyboard.Layout, effort *keyboard.EffortLayer, phalanx *keyboard.PhalanxLayer) (*Resolver, error) {
	if err := checkShape(layout, effort, phalanx); err != nil {
		return nil, err
	}
	r := &Resolver{
		effort:    effort,
		phalanx:   phalanx,
		positions: make(map[keycode.Keycode][]keyboard.LayoutPosition),
	}
	for i := 0; i < layout.NumLayers(); i++ {
		layer, err := layout.Layer(i)
		if err != nil {
			return nil, err
		}
		layer.Each(func(row, col int, key keyboard.KeycodeKey) {
			if key.Value == keycode.NO {
				return
			}
			r.positions[key.Value] = append(r.positions[key.Value], keyboard.LayoutPosition{Layer: i, Row: row, Col: col})
		})
	}
	for _, positions := range r.positions {
		sort.SliceStable(positions, func(a, b int) bool {
			pa, pb := positions[a], positions[b]
			if pa.Layer != pb.Layer {
				return pa.Layer < pb.Layer
			}
			return r.cost(pa) < r.cost(pb)
		})
	}
	return r, nil
}

func checkShape(layout *keyboard.Layout, effort *keyboard.EffortLayer, phalanx *keyboard.PhalanxLayer) error {
	if effort.Rows() != layout.Rows() || effort.Cols() != layout.Cols() {
		return fmt.Errorf("score: effort layer is %dx%d, layout is %dx%d: %w",
			effort.Rows(), effort.Cols(), layout.Rows(), layout.Cols(), keyboard.ErrShapeMismatch)
	}
	if phalanx.Rows() != layout.Rows() || phalanx.Cols() != layout.Cols() {
		return fmt.Errorf("score: phalanx layer is %dx%d, layout is %dx%d: %w",
			phalanx.Rows(), phalanx.Cols(), layout.Rows(), layout.Cols(), keyboard.ErrShapeMismatch)
	}
	return nil
}

func (r *Resolver) cost(pos keyboard.LayoutPosition) float64 {
	v, _ := r.effort.GetAt(pos)
	return v
}

func (r *Resolver) stroke(pos keyboard.LayoutPosition, k keycode.Keycode) Keystroke {
	p, _ := r.phalanx.GetAt(pos)
	return Keystroke{Pos: pos, Keycode: k, Effort: r.cost(pos), Hand: p.Hand, Finger: p.Finger}
}

// Resolve returns the keystrokes that type ngram.
func (r *Resolver) Resolve(ngram string) ([]Keystroke, error) {
	var out []Keystroke
	for _, ch := range ngram {
		codes, ok := keycode.FromRune(ch)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUntypeable, ch)
		}
		strokes, ok := r.resolveCodes(codes)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnreachable, ch)
		}
		out = append(out, strokes...)
	}
	return out, nil
}

func (r *Resolver) resolveCodes(codes []keycode.Keycode) ([]Keystroke, bool) {
	if len(codes) == 2 && codes[0] == keycode.SFT {
		return r.shifted(codes[1])
	}
	if len(codes) != 1 {
		return nil, false
	}
	if strokes, ok := r.direct(codes[0]); ok {
		return strokes, true
	}
	if base, ok := keycode.Unshift(codes[0]); ok {
		return r.shifted(base)
	}
	return nil, false
}

// direct types k from the lowest layer holding it, prefixed by the layer
// shift key when k is above the base layer.
func (r *Resolver) direct(k keycode.Keycode) ([]Keystroke, bool) {
	for _, pos := range r.positions[k] {
		if pos.Layer == 0 {
			return []Keystroke{r.stroke(pos, k)}, true
		}
		shiftKey, ok := keycode.LayerShiftFor(pos.Layer)
		if !ok {
			continue
		}
		shiftPos, ok := r.baseLayer(shiftKey, nil)
		if !ok {
			continue
		}
		return []Keystroke{r.stroke(shiftPos, shiftKey), r.stroke(pos, k)}, true
	}
	return nil, false
}

// shifted types SFT followed by k, preferring a shift key on the other hand.
func (r *Resolver) shifted(k keycode.Keycode) ([]Keystroke, bool) {
	strokes, ok := r.direct(k)
	if !ok {
		return nil, false
	}
	target := strokes[len(strokes)-1].Hand
	shiftPos, ok := r.baseLayer(keycode.SFT, &target)
	if !ok {
		return nil, false
	}
	return append([]Keystroke{r.stroke(shiftPos, keycode.SFT)}, strokes...), true
}

// baseLayer finds the cheapest base-layer position of k. When avoid is set a
// position on the other hand wins over any position on that hand.
func (r *Resolver) baseLayer(k keycode.Keycode, avoid *keyboard.Hand) (keyboard.LayoutPosition, bool) {
	var (
		best  keyboard.LayoutPosition
		found bool
	)
	for _, pos := range r.positions[k] {
		if pos.Layer != 0 {
			break
		}
		if avoid == nil {
			return pos, true
		}
		if r.stroke(pos, k).Hand != *avoid {
			return pos, true
		}
		if !found {
			best, found = pos, true
		}
	}
	return best, found
}
