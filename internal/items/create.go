package items

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyluth/easel/internal/layout"
	"github.com/dyluth/easel/pkg/board"
)

// Kind defaults for width and height.
const (
	todoWidth         = 420
	enhancedTodoWidth = 520
	agentWidth        = 520
	labResultWidth    = 360
	labResultHeight   = 280
	ehrWidth          = 520
	doctorNoteWidth   = 450
	doctorNoteHeight  = 400
	boardItemWidth    = 300
	boardItemHeight   = 200
)

type strategy int

const (
	placeFree strategy = iota
	placeColumn
	placeGrid
)

// plan says where a new item goes when the caller gives no explicit position.
type plan struct {
	strategy   strategy
	zone       string
	categories []board.ItemType
}

var (
	todoCategories     = []board.ItemType{board.TypeTodo}
	agentCategories    = []board.ItemType{board.TypeAgent, board.TypeAgentResult}
	clinicalCategories = []board.ItemType{board.TypeEHRData, board.TypeLabResult}
	noteCategories     = []board.ItemType{board.TypeDoctorNote}
)

// CreateTodo adds a plain todo list to the task zone.
func (s *Service) CreateTodo(ctx context.Context, sessionID string, in TodoInput) (board.Item, error) {
	var fields board.FieldErrors
	title := strings.TrimSpace(in.Title)
	if title == "" {
		fields.Add("title", "required")
	}
	if len(in.TodoItems) == 0 {
		fields.Add("todo_items", "must be a non-empty array")
	}

	todos := make([]board.TodoItem, 0, len(in.TodoItems))
	for i, entry := range in.TodoItems {
		status := entry.Status
		if status == "" {
			status = board.TodoStatusTodo
		}
		if strings.TrimSpace(entry.Text) == "" {
			fields.Add(fmt.Sprintf("todo_items[%d].text", i), "required")
		}
		if !validPlainStatus(status) {
			fields.Add(fmt.Sprintf("todo_items[%d].status", i), fmt.Sprintf("must be one of todo, pending, executing, finished (got %q)", status))
		}
		todos = append(todos, board.TodoItem{Text: entry.Text, Status: status})
	}

	item := s.newItem(board.TypeTodo, in.Overrides, todoWidth, board.AutoDimension, &fields)
	item.TodoData = &board.TodoData{Title: title, Description: in.Description, Todos: todos}

	if err := fields.Err(); err != nil {
		return board.Item{}, err
	}
	return s.create(ctx, sessionID, item, in.Overrides, plan{placeColumn, layout.ZoneTask, todoCategories})
}

// CreateEnhancedTodo adds an agent-delegated todo list to the task zone.
// Entry and sub-entry ids are synthesized when absent.
func (s *Service) CreateEnhancedTodo(ctx context.Context, sessionID string, in EnhancedTodoInput) (board.Item, error) {
	var fields board.FieldErrors
	title := strings.TrimSpace(in.Title)
	if title == "" {
		fields.Add("title", "required")
	}
	if len(in.Todos) == 0 {
		fields.Add("todos", "must be a non-empty array")
	}

	item := s.newItem(board.TypeTodo, in.Overrides, enhancedTodoWidth, board.AutoDimension, &fields)

	todos := make([]board.TodoItem, 0, len(in.Todos))
	for i, entry := range in.Todos {
		prefix := fmt.Sprintf("todos[%d]", i)
		if strings.TrimSpace(entry.Text) == "" {
			fields.Add(prefix+".text", "required")
		}
		if err := entry.Status.ValidateEnhanced(); err != nil {
			fields.Add(prefix+".status", err.Error())
		}
		if strings.TrimSpace(entry.Agent) == "" {
			fields.Add(prefix+".agent", "required")
		}

		todo := board.TodoItem{
			ID:     entry.ID,
			Text:   entry.Text,
			Status: entry.Status,
			Agent:  entry.Agent,
		}
		if todo.ID == "" {
			todo.ID = fmt.Sprintf("%s-%d", item.ID, i+1)
		}

		for j, sub := range entry.SubTodos {
			subPrefix := fmt.Sprintf("%s.subTodos[%d]", prefix, j)
			if strings.TrimSpace(sub.Text) == "" {
				fields.Add(subPrefix+".text", "required")
			}
			if err := sub.Status.ValidateEnhanced(); err != nil {
				fields.Add(subPrefix+".status", err.Error())
			}
			subID := sub.ID
			if subID == "" {
				subID = fmt.Sprintf("%s-%d", todo.ID, j+1)
			}
			todo.SubTodos = append(todo.SubTodos, board.TodoSubItem{ID: subID, Text: sub.Text, Status: sub.Status})
		}
		todos = append(todos, todo)
	}
	item.TodoData = &board.TodoData{Title: title, Description: in.Description, Todos: todos}

	if err := fields.Err(); err != nil {
		return board.Item{}, err
	}
	return s.create(ctx, sessionID, item, in.Overrides, plan{placeColumn, layout.ZoneTask, todoCategories})
}

// CreateAgent adds an agent note, packed into columns of its zone.
func (s *Service) CreateAgent(ctx context.Context, sessionID string, in AgentInput) (board.Item, error) {
	var fields board.FieldErrors
	title := strings.TrimSpace(in.Title)
	if title == "" {
		fields.Add("title", "required")
	}
	if strings.TrimSpace(in.Content) == "" {
		fields.Add("content", "required")
	}

	zone := in.Zone
	if zone == "" {
		zone = layout.ZoneRetrievedData
	}
	p, err := s.zonePlan(zone, agentCategories)
	if err != nil {
		fields.Add("zone", err.Error())
	}

	item := s.newItem(board.TypeAgent, in.Overrides, agentWidth, board.AutoDimension, &fields)
	item.AgentData = &board.AgentData{Title: title, Markdown: in.Content}

	if err := fields.Err(); err != nil {
		return board.Item{}, err
	}
	return s.create(ctx, sessionID, item, in.Overrides, p)
}

// CreateLabResult adds a lab result card to the retrieved-data grid.
func (s *Service) CreateLabResult(ctx context.Context, sessionID string, in LabResultInput) (board.Item, error) {
	var fields board.FieldErrors
	if strings.TrimSpace(in.Parameter) == "" {
		fields.Add("parameter", "required")
	}
	if strings.TrimSpace(string(in.Value)) == "" {
		fields.Add("value", "required")
	}
	if strings.TrimSpace(in.Unit) == "" {
		fields.Add("unit", "required")
	}
	if err := in.Status.Validate(); err != nil {
		fields.Add("status", err.Error())
	}
	if err := in.Trend.Validate(); err != nil {
		fields.Add("trend", err.Error())
	}

	data := &board.LabResultData{
		Parameter: in.Parameter,
		Value:     string(in.Value),
		Unit:      in.Unit,
		Status:    in.Status,
		Trend:     in.Trend,
	}
	switch {
	case in.Range == nil:
		fields.Add("range", "required")
	case in.Range.Min >= in.Range.Max:
		fields.Add("range", fmt.Sprintf("range.min (%g) must be less than range.max (%g)", in.Range.Min, in.Range.Max))
	default:
		data.Range = *in.Range
	}

	item := s.newItem(board.TypeLabResult, in.Overrides, labResultWidth, board.Px(labResultHeight), &fields)
	item.LabResultData = data

	if err := fields.Err(); err != nil {
		return board.Item{}, err
	}
	return s.create(ctx, sessionID, item, in.Overrides, plan{placeGrid, layout.ZoneRetrievedData, clinicalCategories})
}

// CreateEHR adds an EHR data card to the retrieved-data grid.
func (s *Service) CreateEHR(ctx context.Context, sessionID string, in EHRInput) (board.Item, error) {
	var fields board.FieldErrors
	title := strings.TrimSpace(in.Title)
	if title == "" {
		fields.Add("title", "required")
	}
	if strings.TrimSpace(in.Content) == "" {
		fields.Add("content", "required")
	}

	item := s.newItem(board.TypeEHRData, in.Overrides, ehrWidth, board.AutoDimension, &fields)
	item.EHRData = &board.EHRData{Title: title, Content: in.Content, DataType: in.DataType, Source: in.Source}

	if err := fields.Err(); err != nil {
		return board.Item{}, err
	}
	return s.create(ctx, sessionID, item, in.Overrides, plan{placeGrid, layout.ZoneRetrievedData, clinicalCategories})
}

// CreateDoctorNote adds a note to the doctor's notes grid. Content may be empty.
func (s *Service) CreateDoctorNote(ctx context.Context, sessionID string, in DoctorNoteInput) (board.Item, error) {
	var fields board.FieldErrors
	item := s.newItem(board.TypeDoctorNote, in.Overrides, doctorNoteWidth, board.Px(doctorNoteHeight), &fields)
	item.NoteData = &board.NoteData{Content: in.Content}

	if err := fields.Err(); err != nil {
		return board.Item{}, err
	}
	return s.create(ctx, sessionID, item, in.Overrides, plan{placeGrid, layout.ZoneDoctorNotes, noteCategories})
}

// CreateBoardItem adds a generic item. With a zone it is packed there against
// items of the same type; without one it goes to the free area.
func (s *Service) CreateBoardItem(ctx context.Context, sessionID string, in BoardItemInput) (board.Item, error) {
	var fields board.FieldErrors

	itemType := in.Type
	if itemType == "" {
		itemType = board.TypeBoardItem
	}
	if err := itemType.Validate(); err != nil {
		fields.Add("type", err.Error())
	}

	p := plan{strategy: placeFree}
	if in.Zone != "" {
		var err error
		if p, err = s.zonePlan(in.Zone, []board.ItemType{itemType}); err != nil {
			fields.Add("zone", err.Error())
		}
	}

	item := s.newItem(itemType, in.Overrides, boardItemWidth, board.Px(boardItemHeight), &fields)
	item.Content = in.Content
	if len(in.ComponentData) > 0 && string(in.ComponentData) != "null" {
		item.ComponentData = in.ComponentData
	}

	if err := fields.Err(); err != nil {
		return board.Item{}, err
	}
	return s.create(ctx, sessionID, item, in.Overrides, p)
}

// newItem builds an item with the kind defaults and the caller's overrides,
// recording invalid overrides in fields.
func (s *Service) newItem(itemType board.ItemType, o Overrides, width float64, height board.Dimension, fields *board.FieldErrors) board.Item {
	item := board.Item{
		ID:       board.NewItemID(),
		Type:     itemType,
		Width:    width,
		Height:   height,
		Color:    o.Color,
		Rotation: o.Rotation,
	}

	if o.Width != nil {
		if *o.Width <= 0 {
			fields.Add("width", "must be a positive number")
		}
		item.Width = *o.Width
	}
	if o.Height != nil {
		if h, ok := o.Height.Value(); ok && h <= 0 {
			fields.Add("height", `must be a positive number or "auto"`)
		}
		item.Height = *o.Height
	}
	if (o.X == nil) != (o.Y == nil) {
		if o.X == nil {
			fields.Add("x", "required when y is given")
		} else {
			fields.Add("y", "required when x is given")
		}
	}
	return item
}

// zonePlan packs into the named zone by columns when it has them, else by grid.
func (s *Service) zonePlan(zone string, categories []board.ItemType) (plan, error) {
	z, ok := s.engine.Zone(zone)
	if !ok {
		return plan{}, fmt.Errorf("unknown zone '%s'", zone)
	}
	if z.Columns > 0 {
		return plan{placeColumn, zone, categories}, nil
	}
	return plan{placeGrid, zone, categories}, nil
}

// create validates, places and appends item under the session lock, then
// notifies viewers.
func (s *Service) create(ctx context.Context, sessionID string, item board.Item, o Overrides, p plan) (board.Item, error) {
	if err := item.Validate(); err != nil {
		return board.Item{}, err
	}

	err := s.mutate(ctx, sessionID, func(items []board.Item) ([]board.Item, error) {
		for indexOf(items, item.ID) >= 0 {
			item.ID = board.NewItemID()
		}

		now := board.Timestamp(s.now())
		item.CreatedAt = now
		item.UpdatedAt = now

		if o.X != nil && o.Y != nil {
			item.X, item.Y = *o.X, *o.Y
		} else if err := s.place(&item, p, items); err != nil {
			return nil, board.NewInternal(err)
		}

		return append(items, item), nil
	})
	if err != nil {
		return board.Item{}, err
	}

	s.notify(ctx, sessionID, board.EventNewItem, board.NewItemPayload{Item: item, Action: board.ItemActionCreated})
	return item, nil
}

func (s *Service) place(item *board.Item, p plan, existing []board.Item) error {
	req := layout.Request{Type: item.Type, Width: item.Width, Height: layout.EstimateHeight(item)}

	var (
		pt  layout.Point
		err error
	)
	switch p.strategy {
	case placeColumn:
		pt, err = s.engine.PlaceColumn(p.zone, req, p.categories, existing)
	case placeGrid:
		pt, err = s.engine.PlaceGrid(p.zone, req, p.categories, existing)
	default:
		pt = s.engine.PlaceFree(req, nil, existing)
	}
	if err != nil {
		return fmt.Errorf("failed to place %s item: %w", item.Type, err)
	}

	item.X, item.Y = pt.X, pt.Y
	item.Zone = p.zone
	return nil
}

func validPlainStatus(status board.TodoStatus) bool {
	return status == board.TodoStatusTodo || status.ValidateEnhanced() == nil
}
