package keyboard

import (
	"math/rand"
	"strconv"
	"strings"

	"keyforge/internal/keycode"
)

// Layer is a fixed-size grid of per-position values: keys, effort weights or
// hand/finger assignments.
type Layer[K any] struct {
	grid *Grid[K]
}

// NewLayer returns a rows×cols layer with every cell set to fill.
func NewLayer[K any](rows, cols int, fill K) Layer[K] {
	return Layer[K]{grid: NewGrid(rows, cols, fill)}
}

// LayerFromRows builds a layer from row-major values.
func LayerFromRows[K any](rows, cols int, elements [][]K) (Layer[K], error) {
	g, err := GridFromRows(rows, cols, elements)
	if err != nil {
		return Layer[K]{}, err
	}
	return Layer[K]{grid: g}, nil
}

func (l *Layer[K]) Rows() int { return l.grid.Rows() }

func (l *Layer[K]) Cols() int { return l.grid.Cols() }

func (l *Layer[K]) Get(r, c int) (K, error) { return l.grid.Get(r, c) }

func (l *Layer[K]) Set(r, c int, v K) error { return l.grid.Set(r, c, v) }

func (l *Layer[K]) Ptr(r, c int) (*K, error) { return l.grid.Ptr(r, c) }

// GetAt reads the cell addressed by pos, ignoring its layer index.
func (l *Layer[K]) GetAt(pos LayoutPosition) (K, error) {
	return l.grid.Get(pos.Row, pos.Col)
}

// SymmetricPosition mirrors pos left-right across this layer.
func (l *Layer[K]) SymmetricPosition(pos LayoutPosition) LayoutPosition {
	return SymmetricPosition(pos, l.grid.Cols())
}

func (l *Layer[K]) ToRows() [][]K { return l.grid.ToRows() }

func (l *Layer[K]) Each(fn func(r, c int, v K)) { l.grid.Each(fn) }

func (l *Layer[K]) clone() Layer[K] {
	return Layer[K]{grid: l.grid.Clone()}
}

// KeyLayer is a layer of key cells.
type KeyLayer struct {
	Layer[KeycodeKey]
}

// NewKeyLayer returns a blank layer: every cell NO, moveable, not symmetric.
func NewKeyLayer(rows, cols int) *KeyLayer {
	return &KeyLayer{Layer: NewLayer(rows, cols, BlankKey())}
}

// KeyLayerFromRows builds a key layer from row-major keys.
func KeyLayerFromRows(rows, cols int, elements [][]KeycodeKey) (*KeyLayer, error) {
	l, err := LayerFromRows(rows, cols, elements)
	if err != nil {
		return nil, err
	}
	return &KeyLayer{Layer: l}, nil
}

func (l *KeyLayer) Clone() *KeyLayer {
	return &KeyLayer{Layer: l.clone()}
}

// ValidateSymmetry returns the first symmetric cell, in row-major order, whose
// mirror cell is not symmetric.
func (l *KeyLayer) ValidateSymmetry() error {
	return l.validateSymmetry(0)
}

func (l *KeyLayer) validateSymmetry(layer int) error {
	for r := 0; r < l.Rows(); r++ {
		for c := 0; c < l.Cols(); c++ {
			if err := l.checkMirror(layer, r, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *KeyLayer) checkMirror(layer, r, c int) error {
	key, err := l.Get(r, c)
	if err != nil {
		return err
	}
	if !key.Symmetric {
		return nil
	}
	mirror := l.SymmetricPosition(LayoutPosition{Layer: layer, Row: r, Col: c})
	mirrorKey, err := l.GetAt(mirror)
	if err != nil {
		return err
	}
	if !mirrorKey.Symmetric {
		return &SymmetryError{Layer: layer, Row: r, Col: c, MirrorRow: mirror.Row, MirrorCol: mirror.Col}
	}
	return nil
}

// Randomize assigns a uniformly chosen candidate to every moveable,
// non-symmetric cell in row-major order. Symmetric cells are validated against
// their mirror and left unchanged. The first violation aborts the scan; cells
// visited before it keep their new values.
func (l *KeyLayer) Randomize(rng *rand.Rand, candidates []keycode.Keycode) error {
	return l.randomize(rng, candidates, 0)
}

func (l *KeyLayer) randomize(rng *rand.Rand, candidates []keycode.Keycode, layer int) error {
	for r := 0; r < l.Rows(); r++ {
		for c := 0; c < l.Cols(); c++ {
			key, err := l.Get(r, c)
			if err != nil {
				return err
			}
			if key.Symmetric {
				if err := l.checkMirror(layer, r, c); err != nil {
					return err
				}
				continue
			}
			if !key.Moveable || len(candidates) == 0 {
				continue
			}
			if err := l.Set(r, c, NewKey(candidates[rng.Intn(len(candidates))])); err != nil {
				return err
			}
		}
	}
	return nil
}

// Equal reports whether both layers hold identical cells.
func (l *KeyLayer) Equal(other *KeyLayer) bool {
	if l.Rows() != other.Rows() || l.Cols() != other.Cols() {
		return false
	}
	a, b := l.ToRows(), other.ToRows()
	for r := range a {
		for c := range a[r] {
			if a[r][c] != b[r][c] {
				return false
			}
		}
	}
	return true
}

// Tokens renders the layer in the text grammar accepted by ParseKeyLayer.
func (l *KeyLayer) Tokens() string {
	return joinCells(l.ToRows(), KeycodeKey.Token)
}

// Render returns a diagnostic view of key values with column and row indices.
func (l *KeyLayer) Render() string {
	return renderRows(l.ToRows(), KeycodeKey.String)
}

// RenderBits is Render using each cell's bit-pattern token.
func (l *KeyLayer) RenderBits() string {
	return renderRows(l.ToRows(), KeycodeKey.BitString)
}

// ParseKeyLayer parses whitespace-separated key tokens, one row per non-blank
// line.
func ParseKeyLayer(text string, rows, cols int) (*KeyLayer, error) {
	elements, err := parseCells(text, rows, cols, ParseKeycodeKey)
	if err != nil {
		return nil, err
	}
	return KeyLayerFromRows(rows, cols, elements)
}

// EffortLayer assigns a non-negative typing cost to every position.
type EffortLayer struct {
	Layer[float64]
}

func NewEffortLayer(rows, cols int, fill float64) *EffortLayer {
	return &EffortLayer{Layer: NewLayer(rows, cols, fill)}
}

func (l *EffortLayer) Clone() *EffortLayer {
	return &EffortLayer{Layer: l.clone()}
}

func (l *EffortLayer) Tokens() string {
	return joinCells(l.ToRows(), formatEffort)
}

func (l *EffortLayer) Render() string {
	return renderRows(l.ToRows(), formatEffort)
}

// ParseEffortLayer parses whitespace-separated numbers.
func ParseEffortLayer(text string, rows, cols int) (*EffortLayer, error) {
	elements, err := parseCells(text, rows, cols, parseEffort)
	if err != nil {
		return nil, err
	}
	l, err := LayerFromRows(rows, cols, elements)
	if err != nil {
		return nil, err
	}
	return &EffortLayer{Layer: l}, nil
}

func formatEffort(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseEffort(token string) (float64, error) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, &InvalidTokenError{Token: token, Reason: "not a number"}
	}
	if v < 0 {
		return 0, &InvalidTokenError{Token: token, Reason: "effort must not be negative"}
	}
	return v, nil
}

// PhalanxLayer assigns a hand and finger to every position.
type PhalanxLayer struct {
	Layer[PhalanxKey]
}

func NewPhalanxLayer(rows, cols int, fill PhalanxKey) *PhalanxLayer {
	return &PhalanxLayer{Layer: NewLayer(rows, cols, fill)}
}

func (l *PhalanxLayer) Clone() *PhalanxLayer {
	return &PhalanxLayer{Layer: l.clone()}
}

func (l *PhalanxLayer) Tokens() string {
	return joinCells(l.ToRows(), PhalanxKey.String)
}

func (l *PhalanxLayer) Render() string {
	return renderRows(l.ToRows(), PhalanxKey.String)
}

// ParsePhalanxLayer parses whitespace-separated "{hand}:{finger}" tokens.
func ParsePhalanxLayer(text string, rows, cols int) (*PhalanxLayer, error) {
	elements, err := parseCells(text, rows, cols, ParsePhalanxKey)
	if err != nil {
		return nil, err
	}
	l, err := LayerFromRows(rows, cols, elements)
	if err != nil {
		return nil, err
	}
	return &PhalanxLayer{Layer: l}, nil
}

// parseCells applies the shared row/column grammar: blank lines are ignored,
// every other line is one row of whitespace-separated tokens.
func parseCells[K any](text string, rows, cols int, parse func(string) (K, error)) ([][]K, error) {
	lines := nonBlankLines(text)
	if len(lines) != rows {
		return nil, &RowMismatchError{Expected: rows, Actual: len(lines)}
	}
	out := make([][]K, rows)
	for r, line := range lines {
		tokens := strings.Fields(line)
		if len(tokens) != cols {
			return nil, &ColMismatchError{Row: r, Expected: cols, Actual: len(tokens)}
		}
		out[r] = make([]K, cols)
		for c, token := range tokens {
			v, err := parse(token)
			if err != nil {
				return nil, err
			}
			out[r][c] = v
		}
	}
	return out, nil
}

func nonBlankLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
