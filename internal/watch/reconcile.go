package watch

import (
	"sort"
	"sync"

	"github.com/dyluth/easel/pkg/board"
)

// Reconciler remembers which item ids a viewer already shows, so that an item
// seen twice (once pushed, once polled, or redelivered) is applied once.
// Reconciler is safe for concurrent use.
type Reconciler struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewReconciler creates an empty reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{seen: make(map[string]struct{})}
}

// Observe returns the items in list whose ids have not been seen before, in
// list order, and records them.
func (r *Reconciler) Observe(list []board.Item) []board.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fresh []board.Item
	for _, item := range list {
		if item.ID == "" {
			continue
		}
		if _, ok := r.seen[item.ID]; ok {
			continue
		}
		r.seen[item.ID] = struct{}{}
		fresh = append(fresh, item)
	}
	return fresh
}

// Known reports whether id has been observed.
func (r *Reconciler) Known(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[id]
	return ok
}

// Forget drops ids and returns the ones that were known.
func (r *Reconciler) Forget(ids []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dropped []string
	for _, id := range ids {
		if _, ok := r.seen[id]; ok {
			delete(r.seen, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}

// Retain forgets every id not in list and returns the forgotten ids, sorted.
func (r *Reconciler) Retain(list []board.Item) []string {
	keep := make(map[string]struct{}, len(list))
	for _, item := range list {
		keep[item.ID] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var dropped []string
	for id := range r.seen {
		if _, ok := keep[id]; !ok {
			delete(r.seen, id)
			dropped = append(dropped, id)
		}
	}
	sort.Strings(dropped)
	return dropped
}

// Reset forgets everything.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = make(map[string]struct{})
}

// Len returns the number of known ids.
func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
