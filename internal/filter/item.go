package filter

import (
	"path/filepath"
	"time"

	"github.com/dyluth/easel/pkg/board"
	"github.com/oklog/ulid/v2"
)

// Criteria selects board items. All set criteria must match.
type Criteria struct {
	Since    time.Time // zero = no lower bound
	Until    time.Time // zero = no upper bound
	TypeGlob string    // glob over the item type, e.g. "agent*"
	Zone     string    // exact zone name
}

// Matches reports whether item passes every criterion.
func (c *Criteria) Matches(item *board.Item) bool {
	if !c.Since.IsZero() || !c.Until.IsZero() {
		created, ok := CreatedAt(item)
		if !ok {
			return false
		}
		if !c.Since.IsZero() && created.Before(c.Since) {
			return false
		}
		if !c.Until.IsZero() && created.After(c.Until) {
			return false
		}
	}

	if c.TypeGlob != "" {
		matched, err := filepath.Match(c.TypeGlob, string(item.Type))
		if err != nil || !matched {
			return false
		}
	}

	if c.Zone != "" && item.Zone != c.Zone {
		return false
	}

	return true
}

// HasFilters reports whether any criterion is set.
func (c *Criteria) HasFilters() bool {
	return !c.Since.IsZero() || !c.Until.IsZero() || c.TypeGlob != "" || c.Zone != ""
}

// Apply returns the items that match, in order.
func (c *Criteria) Apply(list []board.Item) []board.Item {
	out := make([]board.Item, 0, len(list))
	for i := range list {
		if c.Matches(&list[i]) {
			out = append(out, list[i])
		}
	}
	return out
}

// CreatedAt returns when item was created, from its createdAt field or, for
// items that lack one, the timestamp embedded in its ULID.
func CreatedAt(item *board.Item) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, item.CreatedAt); err == nil {
		return t, true
	}
	if id, err := ulid.ParseStrict(item.ID); err == nil {
		return ulid.Time(id.Time()), true
	}
	return time.Time{}, false
}
