package layout

import "github.com/dyluth/easel/pkg/board"

// packColumns divides z into equal columns, tracks the running bottom of each
// column over the zone's members, and places req at the top of the shortest
// run of columns (the first one on ties). Items wider than one column span
// as many adjacent columns as their width needs. When nothing fits in the
// zone's height the item overflows below the first columns.
func packColumns(z Zone, req Request, categories []board.ItemType, existing []board.Item) Point {
	colWidth := z.ColumnWidth()
	stride := colWidth + z.Padding

	bottoms := make([]float64, z.Columns)
	for i := range bottoms {
		bottoms[i] = z.Y
	}

	for i := range existing {
		item := &existing[i]
		h := EstimateHeight(item)
		if !z.holds(item, h, categories) {
			continue
		}

		c0, c1 := span(item.X-z.X, item.Width, stride)
		c0 = min(max(c0, 0), z.Columns-1)
		c1 = min(max(c1, c0), z.Columns-1)

		bottom := item.Y + h + z.Padding
		for c := c0; c <= c1; c++ {
			if bottom > bottoms[c] {
				bottoms[c] = bottom
			}
		}
	}

	need := min(cellsFor(req.Width+z.Padding, stride), z.Columns)
	tops := make([]float64, z.Columns-need+1)
	for s := range tops {
		tops[s] = bottoms[s]
		for c := s + 1; c < s+need; c++ {
			tops[s] = max(tops[s], bottoms[c])
		}
	}

	best := 0
	for s := 1; s < len(tops); s++ {
		if tops[s] < tops[best] {
			best = s
		}
	}

	if tops[best]+req.Height > z.Bottom() {
		fit := -1
		for s, top := range tops {
			if top+req.Height <= z.Bottom() {
				fit = s
				break
			}
		}
		if fit < 0 {
			return Point{X: z.X, Y: tops[0]}
		}
		best = fit
	}

	return Point{X: z.X + float64(best)*stride, Y: tops[best]}
}
