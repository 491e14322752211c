package keyboard

// Grid is a fixed-size row-major container. Its dimensions are set once at
// construction and never change.
type Grid[T any] struct {
	rows  int
	cols  int
	cells []T
}

// NewGrid returns a rows×cols grid with every cell set to fill.
func NewGrid[T any](rows, cols int, fill T) *Grid[T] {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	cells := make([]T, rows*cols)
	for i := range cells {
		cells[i] = fill
	}
	return &Grid[T]{rows: rows, cols: cols, cells: cells}
}

// GridFromRows copies a row-major input into a rows×cols grid.
func GridFromRows[T any](rows, cols int, elements [][]T) (*Grid[T], error) {
	if len(elements) != rows {
		return nil, &RowMismatchError{Expected: rows, Actual: len(elements)}
	}
	cells := make([]T, 0, rows*cols)
	for i, row := range elements {
		if len(row) != cols {
			return nil, &ColMismatchError{Row: i, Expected: cols, Actual: len(row)}
		}
		cells = append(cells, row...)
	}
	return &Grid[T]{rows: rows, cols: cols, cells: cells}, nil
}

func (g *Grid[T]) Rows() int { return g.rows }

func (g *Grid[T]) Cols() int { return g.cols }

// InBounds reports whether (r, c) addresses a cell.
func (g *Grid[T]) InBounds(r, c int) bool {
	return r >= 0 && r < g.rows && c >= 0 && c < g.cols
}

func (g *Grid[T]) index(r, c int) (int, error) {
	if !g.InBounds(r, c) {
		return 0, &OutOfBoundsError{Row: r, Col: c, Rows: g.rows, Cols: g.cols}
	}
	return r*g.cols + c, nil
}

// Get returns a copy of the cell at (r, c).
func (g *Grid[T]) Get(r, c int) (T, error) {
	idx, err := g.index(r, c)
	if err != nil {
		var zero T
		return zero, err
	}
	return g.cells[idx], nil
}

// Ptr returns a pointer to the cell at (r, c) for in-place edits.
func (g *Grid[T]) Ptr(r, c int) (*T, error) {
	idx, err := g.index(r, c)
	if err != nil {
		return nil, err
	}
	return &g.cells[idx], nil
}

// Set replaces the cell at (r, c).
func (g *Grid[T]) Set(r, c int, v T) error {
	idx, err := g.index(r, c)
	if err != nil {
		return err
	}
	g.cells[idx] = v
	return nil
}

// Row returns a copy of row r.
func (g *Grid[T]) Row(r int) ([]T, error) {
	if r < 0 || r >= g.rows {
		return nil, &OutOfBoundsError{Row: r, Col: 0, Rows: g.rows, Cols: g.cols}
	}
	out := make([]T, g.cols)
	copy(out, g.cells[r*g.cols:(r+1)*g.cols])
	return out, nil
}

// ToRows returns a row-major copy of the grid.
func (g *Grid[T]) ToRows() [][]T {
	out := make([][]T, g.rows)
	for r := range out {
		out[r] = make([]T, g.cols)
		copy(out[r], g.cells[r*g.cols:(r+1)*g.cols])
	}
	return out
}

// Each calls fn for every cell in row-major order.
func (g *Grid[T]) Each(fn func(r, c int, v T)) {
	for i, v := range g.cells {
		fn(i/g.cols, i%g.cols, v)
	}
}

// Clone returns an independent copy of the grid.
func (g *Grid[T]) Clone() *Grid[T] {
	cells := make([]T, len(g.cells))
	copy(cells, g.cells)
	return &Grid[T]{rows: g.rows, cols: g.cols, cells: cells}
}
