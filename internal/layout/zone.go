package layout

import (
	"fmt"

	"github.com/dyluth/easel/pkg/board"
)

// Zone names used by the default configuration.
const (
	ZoneTask          = "task-management-zone"
	ZoneRetrievedData = "retrieved-data-zone"
	ZoneDoctorNotes   = "doctor-notes-zone"
)

// Point is a top-left position in the board plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the rectangle's right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the rectangle's bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Overlaps reports whether r and o share any interior area.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Zone is a named rectangle that items are packed into. Column packing uses
// Columns; grid packing uses CellWidth and CellHeight. A zone may support both.
type Zone struct {
	Name string `json:"name"`
	Rect
	Columns    int     `json:"columns,omitempty"`
	CellWidth  float64 `json:"cellWidth,omitempty"`
	CellHeight float64 `json:"cellHeight,omitempty"`
	Padding    float64 `json:"padding"`
}

// Validate checks the zone's geometry.
func (z Zone) Validate() error {
	if z.Name == "" {
		return fmt.Errorf("zone name is required")
	}
	if z.Width <= 0 || z.Height <= 0 {
		return fmt.Errorf("zone '%s': width and height must be positive", z.Name)
	}
	if z.Padding < 0 {
		return fmt.Errorf("zone '%s': padding must be >= 0", z.Name)
	}
	if z.Columns < 0 {
		return fmt.Errorf("zone '%s': columns must be >= 0", z.Name)
	}
	if z.Columns > 0 && z.ColumnWidth() <= 0 {
		return fmt.Errorf("zone '%s': %d columns do not fit in width %g", z.Name, z.Columns, z.Width)
	}
	if (z.CellWidth > 0) != (z.CellHeight > 0) {
		return fmt.Errorf("zone '%s': cell_width and cell_height must be set together", z.Name)
	}
	if z.Columns == 0 && z.CellWidth == 0 {
		return fmt.Errorf("zone '%s': needs columns or a grid cell size", z.Name)
	}
	return nil
}

// ColumnWidth is the width of one column, excluding the gutter.
func (z Zone) ColumnWidth() float64 {
	if z.Columns <= 0 {
		return 0
	}
	return float64(int((z.Width - float64(z.Columns-1)*z.Padding) / float64(z.Columns)))
}

// holds reports whether item belongs to the zone for packing purposes: its
// type is in categories and its center lies within the zone's horizontal
// extent, at or below the zone's top. The region below the zone counts so
// that items stacked there on overflow keep taking part in collision math.
func (z Zone) holds(item *board.Item, estimate float64, categories []board.ItemType) bool {
	if !inCategory(item.Type, categories) {
		return false
	}
	cx := item.X + item.Width/2
	cy := item.Y + estimate/2
	return cx >= z.X && cx < z.Right() && cy >= z.Y
}

func inCategory(t board.ItemType, categories []board.ItemType) bool {
	for _, c := range categories {
		if c == t {
			return true
		}
	}
	return false
}

// DefaultZones returns the built-in zone layout.
func DefaultZones() []Zone {
	return []Zone{
		{
			Name:    ZoneTask,
			Rect:    Rect{X: 0, Y: 0, Width: 1700, Height: 2100},
			Columns: 3,
			Padding: 60,
		},
		{
			Name:       ZoneRetrievedData,
			Rect:       Rect{X: 1900, Y: 0, Width: 2000, Height: 2100},
			Columns:    3,
			CellWidth:  520,
			CellHeight: 320,
			Padding:    40,
		},
		{
			Name:       ZoneDoctorNotes,
			Rect:       Rect{X: 4100, Y: 0, Width: 1000, Height: 2100},
			CellWidth:  490,
			CellHeight: 420,
			Padding:    20,
		},
	}
}
