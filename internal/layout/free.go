package layout

import (
	"math"
	"math/rand"

	"github.com/dyluth/easel/pkg/board"
)

// FreeArea is where items without a zone are dropped.
type FreeArea struct {
	Rect
	Padding float64 `json:"padding"`
	// CrowdLimit is how far below the area's top a shifted item may land
	// before placement gives up on the area and jumps to a fresh region.
	CrowdLimit  float64 `json:"crowdLimit"`
	MaxAttempts int     `json:"maxAttempts"`
}

// DefaultFreeArea sits below the default zones.
func DefaultFreeArea() FreeArea {
	return FreeArea{
		Rect:        Rect{X: 0, Y: 2400, Width: 2000, Height: 1500},
		Padding:     20,
		CrowdLimit:  6000,
		MaxAttempts: 10,
	}
}

// placeFree tries the wanted (or a random) spot, and on collision moves below
// the lowest item with a concrete height. Items with "auto" height never
// collide here because their true size is unknown.
func placeFree(area FreeArea, rng *rand.Rand, req Request, want *Point, existing []board.Item) Point {
	var candidate Point
	if want != nil {
		candidate = *want
	} else {
		candidate = randomPoint(rng, area.Rect)
	}

	attempts := area.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		box := Rect{X: candidate.X, Y: candidate.Y, Width: req.Width, Height: req.Height}
		if !collides(box, existing) {
			return candidate
		}

		candidate.Y = lowestBottom(existing) + area.Padding
		if candidate.Y > area.Y+area.CrowdLimit {
			fresh := area.Rect
			fresh.X = area.Right() + area.Padding + rng.Float64()*area.Width
			candidate = randomPoint(rng, fresh)
		}
	}

	return candidate
}

func collides(box Rect, existing []board.Item) bool {
	for i := range existing {
		h, ok := existing[i].Height.Value()
		if !ok {
			continue
		}
		other := Rect{X: existing[i].X, Y: existing[i].Y, Width: existing[i].Width, Height: h}
		if box.Overlaps(other) {
			return true
		}
	}
	return false
}

func lowestBottom(existing []board.Item) float64 {
	lowest := math.Inf(-1)
	for i := range existing {
		h, ok := existing[i].Height.Value()
		if !ok {
			continue
		}
		if b := existing[i].Y + h; b > lowest {
			lowest = b
		}
	}
	if math.IsInf(lowest, -1) {
		return 0
	}
	return lowest
}

func randomPoint(rng *rand.Rand, r Rect) Point {
	return Point{
		X: math.Round(r.X + rng.Float64()*r.Width),
		Y: math.Round(r.Y + rng.Float64()*r.Height),
	}
}
