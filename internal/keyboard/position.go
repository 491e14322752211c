package keyboard

import "fmt"

// LayoutPosition addresses one cell of a multi-layer layout.
type LayoutPosition struct {
	Layer int `json:"layer"`
	Row   int `json:"row"`
	Col   int `json:"col"`
}

// ForLayer returns a position on the base layer.
func ForLayer(row, col int) LayoutPosition {
	return LayoutPosition{Row: row, Col: col}
}

func (p LayoutPosition) String() string {
	return fmt.Sprintf("L%d(%d,%d)", p.Layer, p.Row, p.Col)
}

// SymmetricPosition mirrors p left-right across a grid with cols columns.
// Layer and row are unchanged; the middle column of an odd-width grid maps to
// itself.
func SymmetricPosition(p LayoutPosition, cols int) LayoutPosition {
	return LayoutPosition{Layer: p.Layer, Row: p.Row, Col: cols - 1 - p.Col}
}
