package keyboard

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"keyforge/internal/keycode"
)

// Layout is an ordered stack of key layers sharing the same dimensions.
type Layout struct {
	rows   int
	cols   int
	layers []*KeyLayer
}

// NewLayout returns a layout of blank layers.
func NewLayout(rows, cols, layers int) *Layout {
	out := &Layout{rows: rows, cols: cols, layers: make([]*KeyLayer, layers)}
	for i := range out.layers {
		out.layers[i] = NewKeyLayer(rows, cols)
	}
	return out
}

// LayoutFromLayers stacks existing layers. All layers must share dimensions.
func LayoutFromLayers(layers ...*KeyLayer) (*Layout, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("keyboard: layout needs at least one layer: %w", ErrShapeMismatch)
	}
	rows, cols := layers[0].Rows(), layers[0].Cols()
	for i, l := range layers[1:] {
		if l.Rows() != rows {
			return nil, fmt.Errorf("layer %d: %w", i+1, &RowMismatchError{Expected: rows, Actual: l.Rows()})
		}
		if l.Cols() != cols {
			return nil, fmt.Errorf("layer %d: %w", i+1, &ColMismatchError{Row: 0, Expected: cols, Actual: l.Cols()})
		}
	}
	return &Layout{rows: rows, cols: cols, layers: append([]*KeyLayer(nil), layers...)}, nil
}

func (l *Layout) Rows() int { return l.rows }

func (l *Layout) Cols() int { return l.cols }

func (l *Layout) NumLayers() int { return len(l.layers) }

// Layer returns the layer at index i.
func (l *Layout) Layer(i int) (*KeyLayer, error) {
	if i < 0 || i >= len(l.layers) {
		return nil, &LayerIndexError{Index: i, Count: len(l.layers)}
	}
	return l.layers[i], nil
}

func (l *Layout) Get(pos LayoutPosition) (KeycodeKey, error) {
	layer, err := l.Layer(pos.Layer)
	if err != nil {
		return KeycodeKey{}, err
	}
	return layer.Get(pos.Row, pos.Col)
}

func (l *Layout) Set(pos LayoutPosition, key KeycodeKey) error {
	layer, err := l.Layer(pos.Layer)
	if err != nil {
		return err
	}
	return layer.Set(pos.Row, pos.Col, key)
}

func (l *Layout) Ptr(pos LayoutPosition) (*KeycodeKey, error) {
	layer, err := l.Layer(pos.Layer)
	if err != nil {
		return nil, err
	}
	return layer.Ptr(pos.Row, pos.Col)
}

// SymmetricPosition mirrors pos left-right; the layer index is kept.
func (l *Layout) SymmetricPosition(pos LayoutPosition) LayoutPosition {
	return SymmetricPosition(pos, l.cols)
}

// ValidateSymmetry checks every layer in order and returns the first
// *SymmetryError found.
func (l *Layout) ValidateSymmetry() error {
	for i, layer := range l.layers {
		if err := layer.validateSymmetry(i); err != nil {
			return err
		}
	}
	return nil
}

// Randomize randomizes every layer in order with the same candidate set.
func (l *Layout) Randomize(rng *rand.Rand, candidates []keycode.Keycode) error {
	for i, layer := range l.layers {
		if err := layer.randomize(rng, candidates, i); err != nil {
			return err
		}
	}
	return nil
}

// Find returns every position holding k, lowest layer first, row-major within
// a layer.
func (l *Layout) Find(k keycode.Keycode) []LayoutPosition {
	var out []LayoutPosition
	for i, layer := range l.layers {
		layer.Each(func(r, c int, key KeycodeKey) {
			if key.Value == k {
				out = append(out, LayoutPosition{Layer: i, Row: r, Col: c})
			}
		})
	}
	return out
}

// MoveableCells lists every moveable position, symmetric or not.
func (l *Layout) MoveableCells() []LayoutPosition {
	var out []LayoutPosition
	for i, layer := range l.layers {
		layer.Each(func(r, c int, key KeycodeKey) {
			if key.Moveable {
				out = append(out, LayoutPosition{Layer: i, Row: r, Col: c})
			}
		})
	}
	return out
}

// Clone returns a deep copy that shares no cells with l.
func (l *Layout) Clone() *Layout {
	out := &Layout{rows: l.rows, cols: l.cols, layers: make([]*KeyLayer, len(l.layers))}
	for i, layer := range l.layers {
		out.layers[i] = layer.Clone()
	}
	return out
}

func (l *Layout) Equal(other *Layout) bool {
	if other == nil || l.rows != other.rows || l.cols != other.cols || len(l.layers) != len(other.layers) {
		return false
	}
	for i := range l.layers {
		if !l.layers[i].Equal(other.layers[i]) {
			return false
		}
	}
	return true
}

// String renders "___Layer N___" blocks of tokens accepted by ParseLayout.
func (l *Layout) String() string {
	var b strings.Builder
	for i, layer := range l.layers {
		fmt.Fprintf(&b, "___Layer %d___\n", i)
		b.WriteString(layer.Tokens())
		b.WriteString("\n")
	}
	return b.String()
}

// Render returns the diagnostic view of every layer.
func (l *Layout) Render(bits bool) string {
	var b strings.Builder
	for i, layer := range l.layers {
		fmt.Fprintf(&b, "___Layer %d___\n", i)
		if bits {
			b.WriteString(layer.RenderBits())
		} else {
			b.WriteString(layer.Render())
		}
	}
	return b.String()
}

var (
	layerHeaderRE = regexp.MustCompile(`^___Layer\s*(\d+)___$`)
	rowPrefixRE   = regexp.MustCompile(`^\s*\d+\|`)
)

// ParseLayout parses "___Layer N___" delimited blocks of key tokens. Layers
// must appear in order starting at 0. Text without any header is parsed as a
// single layer. Column-index headers, dash rows and "N|" row prefixes written
// by Render are ignored.
func ParseLayout(text string, rows, cols int) (*Layout, error) {
	var (
		blocks  []*strings.Builder
		current *strings.Builder
	)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if m := layerHeaderRE.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			if n != len(blocks) {
				return nil, &InvalidTokenError{Token: line, Reason: fmt.Sprintf("expected layer %d", len(blocks))}
			}
			current = &strings.Builder{}
			blocks = append(blocks, current)
			continue
		}
		line = strings.TrimSpace(rowPrefixRE.ReplaceAllString(line, ""))
		if line == "" || isDecoration(line) {
			continue
		}
		if current == nil {
			current = &strings.Builder{}
			blocks = append(blocks, current)
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if len(blocks) == 0 {
		return nil, &RowMismatchError{Expected: rows, Actual: 0}
	}
	layers := make([]*KeyLayer, len(blocks))
	for i, block := range blocks {
		layer, err := ParseKeyLayer(block.String(), rows, cols)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers[i] = layer
	}
	return LayoutFromLayers(layers...)
}

// isDecoration reports whether line is a rendered column-index header or dash
// row. Key tokens always contain an underscore so neither can be mistaken for
// a row of keys.
func isDecoration(line string) bool {
	for _, field := range strings.Fields(line) {
		if field == "-" {
			continue
		}
		if _, err := strconv.Atoi(field); err != nil {
			return false
		}
	}
	return true
}
