package board

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Serialization helpers
//
// A session's items are stored as one JSON array under a single key. Reads and
// writes always move the whole list; the mutation serializer is what keeps
// concurrent read-modify-write sequences from clobbering each other.

// EncodeItems encodes an item list for storage. A nil list encodes as [].
func EncodeItems(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal items: %w", err)
	}
	return data, nil
}

// DecodeItems decodes a stored item list. Empty input decodes to an empty list.
func DecodeItems(data []byte) ([]Item, error) {
	if len(data) == 0 {
		return []Item{}, nil
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewItemID returns a new ULID: a millisecond timestamp followed by a random
// suffix. IDs generated by one process are strictly increasing.
func NewItemID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), idEntropy).String()
}

// Timestamp formats t the way items record createdAt/updatedAt.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// immutableFields are never overwritten by a partial update.
var immutableFields = map[string]bool{
	"id":        true,
	"type":      true,
	"createdAt": true,
	"updatedAt": true,
}

// MergeItem applies a partial update to item and returns the result.
// Keys in patch replace the item's top-level JSON fields; identity and
// timestamp fields are ignored. The returned item has UpdatedAt set to now.
func MergeItem(item Item, patch map[string]json.RawMessage, now time.Time) (Item, error) {
	current, err := json.Marshal(item)
	if err != nil {
		return Item{}, fmt.Errorf("failed to marshal item: %w", err)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(current, &fields); err != nil {
		return Item{}, fmt.Errorf("failed to unmarshal item fields: %w", err)
	}

	for key, value := range patch {
		if immutableFields[key] {
			continue
		}
		fields[key] = value
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return Item{}, fmt.Errorf("failed to marshal merged item: %w", err)
	}

	var out Item
	if err := json.Unmarshal(merged, &out); err != nil {
		return Item{}, NewInvalidRequest(fmt.Sprintf("invalid update: %v", err))
	}
	out.UpdatedAt = Timestamp(now)
	return out, nil
}
