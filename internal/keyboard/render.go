package keyboard

import (
	"fmt"
	"strings"
)

const minCellWidth = 3

// joinCells renders rows of single-space separated tokens.
func joinCells[K any](rows [][]K, format func(K) string) string {
	var b strings.Builder
	for r, row := range rows {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c, v := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(format(v))
		}
	}
	return b.String()
}

// renderRows writes a column-index header, a dash row and one "i|" prefixed
// row per grid row with every cell right-padded to a common width.
func renderRows[K any](rows [][]K, format func(K) string) string {
	cells := make([][]string, len(rows))
	width := minCellWidth
	cols := 0
	for r, row := range rows {
		cells[r] = make([]string, len(row))
		for c, v := range row {
			s := format(v)
			cells[r][c] = s
			width = max(width, len(s))
		}
		cols = max(cols, len(row))
	}
	prefix := len(fmt.Sprint(max(len(rows)-1, 0))) + 1

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", prefix))
	for c := 0; c < cols; c++ {
		fmt.Fprintf(&b, "%-*d ", width, c)
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", prefix))
	for c := 0; c < cols; c++ {
		fmt.Fprintf(&b, "%-*s ", width, "-")
	}
	b.WriteString("\n")
	for r, row := range cells {
		fmt.Fprintf(&b, "%*s", prefix, fmt.Sprintf("%d|", r))
		for _, s := range row {
			fmt.Fprintf(&b, "%-*s ", width, s)
		}
		b.WriteString("\n")
	}
	return b.String()
}
