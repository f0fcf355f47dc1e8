package layout

import (
	"math"

	"github.com/dyluth/easel/pkg/board"
)

// packGrid divides z into fixed-size cells, marks every cell covered by an
// existing member's box, and returns the corner of the first cell (row-major)
// from which req's box fits on free cells. A full grid stacks req below the
// lowest member, past the zone's nominal height.
func packGrid(z Zone, req Request, categories []board.ItemType, existing []board.Item) Point {
	rows := int(z.Height / z.CellHeight)
	cols := int(z.Width / z.CellWidth)

	occupied := make([][]bool, rows)
	for r := range occupied {
		occupied[r] = make([]bool, cols)
	}

	lowest := math.Inf(-1)
	for i := range existing {
		item := &existing[i]
		h := EstimateHeight(item)
		if !z.holds(item, h, categories) {
			continue
		}
		if bottom := item.Y + h; bottom > lowest {
			lowest = bottom
		}

		r0, r1 := span(item.Y-z.Y, h, z.CellHeight)
		c0, c1 := span(item.X-z.X, item.Width, z.CellWidth)
		for r := max(r0, 0); r <= r1 && r < rows; r++ {
			for c := max(c0, 0); c <= c1 && c < cols; c++ {
				occupied[r][c] = true
			}
		}
	}

	needRows := cellsFor(req.Height, z.CellHeight)
	needCols := cellsFor(req.Width, z.CellWidth)

	for r := 0; r+needRows <= rows; r++ {
		for c := 0; c+needCols <= cols; c++ {
			if free(occupied, r, c, needRows, needCols) {
				return Point{
					X: z.X + float64(c)*z.CellWidth,
					Y: z.Y + float64(r)*z.CellHeight,
				}
			}
		}
	}

	if math.IsInf(lowest, -1) {
		return Point{X: z.X, Y: z.Y}
	}
	return Point{X: z.X, Y: lowest + z.Padding}
}

// span returns the first and last cell indexes covered by [offset, offset+size).
func span(offset, size, cell float64) (int, int) {
	first := floorDiv(offset, cell)
	last := int(math.Ceil((offset+size)/cell)) - 1
	if last < first {
		last = first
	}
	return first, last
}

func cellsFor(size, cell float64) int {
	n := int(math.Ceil(size / cell))
	if n < 1 {
		n = 1
	}
	return n
}

func free(occupied [][]bool, r, c, nr, nc int) bool {
	for i := r; i < r+nr; i++ {
		for j := c; j < c+nc; j++ {
			if occupied[i][j] {
				return false
			}
		}
	}
	return true
}
