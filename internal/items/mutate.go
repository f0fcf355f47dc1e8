package items

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dyluth/easel/pkg/board"
)

// Update applies a partial update to one item. id, type and createdAt cannot
// be changed; the item keeps its position in the list.
func (s *Service) Update(ctx context.Context, sessionID, id string, patch map[string]json.RawMessage) (board.Item, error) {
	var updated board.Item
	err := s.mutate(ctx, sessionID, func(items []board.Item) ([]board.Item, error) {
		i := indexOf(items, id)
		if i < 0 {
			return nil, board.NewItemNotFound(sessionID, id)
		}

		merged, err := board.MergeItem(items[i], patch, s.now())
		if err != nil {
			return nil, err
		}
		if err := merged.Validate(); err != nil {
			return nil, err
		}

		items[i] = merged
		updated = merged
		return items, nil
	})
	if err != nil {
		return board.Item{}, err
	}

	s.notify(ctx, sessionID, board.EventNewItem, board.NewItemPayload{Item: updated, Action: board.ItemActionUpdated})
	return updated, nil
}

// DeleteOutput is the result of Delete.
type DeleteOutput struct {
	DeletedID      string `json:"deletedId"`
	RemainingCount int    `json:"remainingCount"`
}

// Delete removes one item.
func (s *Service) Delete(ctx context.Context, sessionID, id string) (*DeleteOutput, error) {
	var remaining int
	err := s.mutate(ctx, sessionID, func(items []board.Item) ([]board.Item, error) {
		i := indexOf(items, id)
		if i < 0 {
			return nil, board.NewItemNotFound(sessionID, id)
		}
		items = append(items[:i], items[i+1:]...)
		remaining = len(items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, sessionID, board.EventItemsDeleted, board.ItemsDeletedPayload{ItemIDs: []string{id}})
	return &DeleteOutput{DeletedID: id, RemainingCount: remaining}, nil
}

// BatchDeleteOutput is the result of BatchDelete.
type BatchDeleteOutput struct {
	DeletedCount   int      `json:"deletedCount"`
	NotFoundCount  int      `json:"notFoundCount"`
	NotFoundIDs    []string `json:"notFoundIds"`
	RemainingCount int      `json:"remainingCount"`
}

// BatchDelete removes every listed item in one locked step. Unknown ids are
// reported, not treated as errors. Repeated ids count once.
func (s *Service) BatchDelete(ctx context.Context, sessionID string, ids []string) (*BatchDeleteOutput, error) {
	wanted := make(map[string]bool, len(ids))
	order := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || wanted[id] {
			continue
		}
		wanted[id] = true
		order = append(order, id)
	}
	if len(order) == 0 {
		return nil, board.NewValidation(board.FieldErrors{"itemIds": "must be a non-empty array of item ids"})
	}

	out := &BatchDeleteOutput{NotFoundIDs: []string{}}
	var deleted []string
	err := s.mutate(ctx, sessionID, func(items []board.Item) ([]board.Item, error) {
		present := make(map[string]bool, len(items))
		kept := items[:0]
		for _, item := range items {
			present[item.ID] = true
			if wanted[item.ID] {
				deleted = append(deleted, item.ID)
				continue
			}
			kept = append(kept, item)
		}
		for _, id := range order {
			if !present[id] {
				out.NotFoundIDs = append(out.NotFoundIDs, id)
			}
		}
		out.RemainingCount = len(kept)
		return kept, nil
	})
	if err != nil {
		return nil, err
	}

	out.DeletedCount = len(deleted)
	out.NotFoundCount = len(out.NotFoundIDs)
	if len(deleted) > 0 {
		s.notify(ctx, sessionID, board.EventItemsDeleted, board.ItemsDeletedPayload{ItemIDs: deleted})
	}
	return out, nil
}

// FocusInput asks viewers to move their camera to an item.
type FocusInput struct {
	ItemID     string `json:"itemId"`
	SubElement string `json:"subElement"`
	// FocusOptions fields left out keep their defaults.
	FocusOptions json.RawMessage `json:"focusOptions"`
}

// Focus broadcasts a focus event. Nothing is persisted, and the item is not
// looked up: viewers ignore ids they do not know. It returns the number of
// viewers reached on this instance.
func (s *Service) Focus(ctx context.Context, sessionID string, in FocusInput) (int, error) {
	itemID := strings.TrimSpace(in.ItemID)
	if itemID == "" {
		return 0, board.NewValidation(board.FieldErrors{"itemId": "required"})
	}

	opts := board.DefaultFocusOptions()
	if len(in.FocusOptions) > 0 && string(in.FocusOptions) != "null" {
		if err := json.Unmarshal(in.FocusOptions, &opts); err != nil {
			return 0, board.NewValidation(board.FieldErrors{"focusOptions": err.Error()})
		}
	}

	return s.notify(ctx, sessionID, board.EventFocus, board.FocusPayload{
		ItemID:       itemID,
		SubElement:   in.SubElement,
		FocusOptions: opts,
	}), nil
}
