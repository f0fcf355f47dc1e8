package layout

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/dyluth/easel/pkg/board"
)

// Request describes the item being placed.
type Request struct {
	Type   board.ItemType
	Width  float64
	Height float64 // estimated, see EstimateHeight
}

// Engine computes collision-free positions for new items. Placement only
// reads the existing items; prior items never move.
// Engine is safe for concurrent use.
type Engine struct {
	zones map[string]Zone
	order []string
	free  FreeArea

	mu  sync.Mutex
	rng *rand.Rand
}

// Option customises an Engine.
type Option func(*Engine)

// WithRand sets the random source used by free placement.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithFreeArea overrides DefaultFreeArea.
func WithFreeArea(area FreeArea) Option {
	return func(e *Engine) {
		e.free = area
	}
}

// NewEngine creates an engine over the given zones.
func NewEngine(zones []Zone, opts ...Option) (*Engine, error) {
	e := &Engine{
		zones: make(map[string]Zone, len(zones)),
		free:  DefaultFreeArea(),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, z := range zones {
		if err := z.Validate(); err != nil {
			return nil, err
		}
		if _, dup := e.zones[z.Name]; dup {
			return nil, fmt.Errorf("duplicate zone '%s'", z.Name)
		}
		e.zones[z.Name] = z
		e.order = append(e.order, z.Name)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Zone returns the named zone.
func (e *Engine) Zone(name string) (Zone, bool) {
	z, ok := e.zones[name]
	return z, ok
}

// Zones returns all zones in configuration order.
func (e *Engine) Zones() []Zone {
	out := make([]Zone, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.zones[name])
	}
	return out
}

// FreeArea returns the area used for items without a zone.
func (e *Engine) FreeArea() FreeArea {
	return e.free
}

// PlaceColumn packs req into the shortest column of the named zone, counting
// only existing items whose type is in categories.
func (e *Engine) PlaceColumn(zoneName string, req Request, categories []board.ItemType, existing []board.Item) (Point, error) {
	z, ok := e.zones[zoneName]
	if !ok {
		return Point{}, fmt.Errorf("unknown zone '%s'", zoneName)
	}
	if z.Columns <= 0 {
		return Point{}, fmt.Errorf("zone '%s' has no columns", zoneName)
	}
	return packColumns(z, req, categories, existing), nil
}

// PlaceGrid puts req into the first free grid cell of the named zone, counting
// only existing items whose type is in categories.
func (e *Engine) PlaceGrid(zoneName string, req Request, categories []board.ItemType, existing []board.Item) (Point, error) {
	z, ok := e.zones[zoneName]
	if !ok {
		return Point{}, fmt.Errorf("unknown zone '%s'", zoneName)
	}
	if z.CellWidth <= 0 || z.CellHeight <= 0 {
		return Point{}, fmt.Errorf("zone '%s' has no grid", zoneName)
	}
	return packGrid(z, req, categories, existing), nil
}

// PlaceFree finds a spot outside any zone. want is the caller's preferred
// position; nil picks a random one in the free area.
func (e *Engine) PlaceFree(req Request, want *Point, existing []board.Item) Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return placeFree(e.free, e.rng, req, want, existing)
}

func floorDiv(v, size float64) int {
	return int(math.Floor(v / size))
}
