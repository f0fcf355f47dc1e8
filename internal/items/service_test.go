package items

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/easel/internal/broadcast"
	"github.com/dyluth/easel/internal/layout"
	"github.com/dyluth/easel/internal/lock"
	"github.com/dyluth/easel/pkg/board"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *Service
	hub   *broadcast.Hub
	store board.Store
	locks *lock.Sessions
}

func setupService(t *testing.T, store board.Store, zones ...layout.Zone) *fixture {
	t.Helper()
	if store == nil {
		store = board.NewMemoryStore(0)
	}
	if len(zones) == 0 {
		zones = layout.DefaultZones()
	}
	engine, err := layout.NewEngine(zones, layout.WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)

	hub := broadcast.NewHub()
	locks := lock.New(time.Second)
	return &fixture{
		svc:   NewService(store, locks, engine, hub),
		hub:   hub,
		store: store,
		locks: locks,
	}
}

func ptr[T any](v T) *T { return &v }

func mustList(t *testing.T, f *fixture, sessionID string) []board.Item {
	t.Helper()
	items, err := f.svc.List(context.Background(), sessionID)
	require.NoError(t, err)
	return items
}

func zoneRect(t *testing.T, f *fixture, name string) layout.Rect {
	t.Helper()
	z, ok := f.svc.Engine().Zone(name)
	require.True(t, ok)
	return z.Rect
}

func assertInside(t *testing.T, item board.Item, r layout.Rect) {
	t.Helper()
	assert.GreaterOrEqual(t, item.X, r.X)
	assert.LessOrEqual(t, item.X+item.Width, r.Right())
	assert.GreaterOrEqual(t, item.Y, r.Y)
	assert.LessOrEqual(t, item.Y+layout.EstimateHeight(&item), r.Bottom())
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	bErr := board.AsError(err)
	require.Equal(t, board.ErrInvalidRequest, bErr.Code)
	fields, ok := bErr.Details["fields"].(map[string]string)
	require.True(t, ok, "validation error should list fields")
	return fields
}

func sampleTodo() TodoInput {
	return TodoInput{Title: "T", TodoItems: []TodoEntry{{Text: "a"}, {Text: "b"}}}
}

func TestCreateTodo(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()

	item, err := f.svc.CreateTodo(ctx, "S", sampleTodo())
	require.NoError(t, err)

	assert.Equal(t, board.TypeTodo, item.Type)
	require.NotNil(t, item.TodoData)
	assert.Equal(t, "T", item.TodoData.Title)
	assert.Equal(t, []board.TodoItem{
		{Text: "a", Status: board.TodoStatusTodo},
		{Text: "b", Status: board.TodoStatusTodo},
	}, item.TodoData.Todos)
	assert.Equal(t, 420.0, item.Width)
	assert.True(t, item.Height.IsAuto(), "declared height stays auto")
	assert.Equal(t, layout.ZoneTask, item.Zone)
	assert.NotEmpty(t, item.CreatedAt)
	assert.Equal(t, item.CreatedAt, item.UpdatedAt)
	assertInside(t, item, zoneRect(t, f, layout.ZoneTask))

	assert.Equal(t, []board.Item{item}, mustList(t, f, "S"))
}

func TestCreateTodo_Validation(t *testing.T) {
	f := setupService(t, nil)

	_, err := f.svc.CreateTodo(context.Background(), "S", TodoInput{Title: " "})
	fields := validationFields(t, err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "todo_items")

	_, err = f.svc.CreateTodo(context.Background(), "S", TodoInput{
		Title:     "T",
		TodoItems: []TodoEntry{{Text: "a", Status: "blocked"}, {Text: ""}},
	})
	fields = validationFields(t, err)
	assert.Contains(t, fields, "todo_items[0].status")
	assert.Contains(t, fields, "todo_items[1].text")

	assert.Empty(t, mustList(t, f, "S"))
}

func TestTodoEntry_DecodesStringsAndObjects(t *testing.T) {
	var in TodoInput
	require.NoError(t, json.Unmarshal([]byte(`{"title":"T","todo_items":["a",{"text":"b","status":"finished"}]}`), &in))
	assert.Equal(t, []TodoEntry{{Text: "a"}, {Text: "b", Status: board.TodoStatusFinished}}, in.TodoItems)
}

func TestCreateTodo_BackToBackDoNotOverlap(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()

	first, err := f.svc.CreateTodo(ctx, "S", sampleTodo())
	require.NoError(t, err)
	second, err := f.svc.CreateTodo(ctx, "S", sampleTodo())
	require.NoError(t, err)

	a := layout.Rect{X: first.X, Y: first.Y, Width: first.Width, Height: layout.EstimateHeight(&first)}
	b := layout.Rect{X: second.X, Y: second.Y, Width: second.Width, Height: layout.EstimateHeight(&second)}
	assert.False(t, a.Overlaps(b))
}

func TestCreateTodo_WideTodosDoNotOverlap(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()

	var created []board.Item
	for _, width := range []float64{900, 900, 420, 1700, 420} {
		in := sampleTodo()
		in.Width = ptr(width)
		item, err := f.svc.CreateTodo(ctx, "S", in)
		require.NoError(t, err)
		assert.Equal(t, width, item.Width)
		created = append(created, item)
	}

	for i := range created {
		a := layout.Rect{X: created[i].X, Y: created[i].Y, Width: created[i].Width, Height: layout.EstimateHeight(&created[i])}
		for j := i + 1; j < len(created); j++ {
			b := layout.Rect{X: created[j].X, Y: created[j].Y, Width: created[j].Width, Height: layout.EstimateHeight(&created[j])}
			assert.False(t, a.Overlaps(b), "todo %d %+v overlaps todo %d %+v", i, a, j, b)
		}
	}
}

func TestCreateTodo_SingleColumnStacksBelow(t *testing.T) {
	zone := layout.Zone{Name: layout.ZoneTask, Rect: layout.Rect{Width: 600, Height: 2000}, Columns: 1, Padding: 60}
	f := setupService(t, nil, zone)
	ctx := context.Background()

	first, err := f.svc.CreateTodo(ctx, "S", sampleTodo())
	require.NoError(t, err)
	second, err := f.svc.CreateTodo(ctx, "S", sampleTodo())
	require.NoError(t, err)

	assert.NotEqual(t, first.Y, second.Y)
	assert.GreaterOrEqual(t, second.Y, first.Y+layout.EstimateHeight(&first)+zone.Padding)
}

func TestCreateEnhancedTodo(t *testing.T) {
	f := setupService(t, nil)

	item, err := f.svc.CreateEnhancedTodo(context.Background(), "S", EnhancedTodoInput{
		Title: "Plan",
		Todos: []EnhancedTodoEntry{
			{Text: "fetch labs", Status: board.TodoStatusExecuting, Agent: "lab-agent",
				SubTodos: []SubTodoEntry{{Text: "cbc", Status: board.TodoStatusPending}}},
			{ID: "keep-me", Text: "summarize", Status: board.TodoStatusPending, Agent: "writer"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 520.0, item.Width)
	todos := item.TodoData.Todos
	require.Len(t, todos, 2)
	assert.NotEmpty(t, todos[0].ID)
	assert.Equal(t, "lab-agent", todos[0].Agent)
	require.Len(t, todos[0].SubTodos, 1)
	assert.NotEmpty(t, todos[0].SubTodos[0].ID)
	assert.NotEqual(t, todos[0].ID, todos[0].SubTodos[0].ID)
	assert.Equal(t, "keep-me", todos[1].ID)
	assertInside(t, item, zoneRect(t, f, layout.ZoneTask))
}

func TestCreateEnhancedTodo_Validation(t *testing.T) {
	f := setupService(t, nil)

	_, err := f.svc.CreateEnhancedTodo(context.Background(), "S", EnhancedTodoInput{
		Title: "Plan",
		Todos: []EnhancedTodoEntry{
			{Text: "x", Status: board.TodoStatusTodo, Agent: "a",
				SubTodos: []SubTodoEntry{{Text: "y", Status: "done"}}},
			{Text: "z", Status: board.TodoStatusFinished},
		},
	})
	fields := validationFields(t, err)
	assert.Contains(t, fields, "todos[0].status")
	assert.Contains(t, fields, "todos[0].subTodos[0].status")
	assert.Contains(t, fields, "todos[1].agent")
}

func TestCreateAgent_Zones(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()

	item, err := f.svc.CreateAgent(ctx, "S", AgentInput{Title: "Findings", Content: "## Summary\nAll clear"})
	require.NoError(t, err)
	assert.Equal(t, layout.ZoneRetrievedData, item.Zone)
	assert.Equal(t, "## Summary\nAll clear", item.AgentData.Markdown)
	assertInside(t, item, zoneRect(t, f, layout.ZoneRetrievedData))

	item, err = f.svc.CreateAgent(ctx, "S", AgentInput{Title: "Plan", Content: "steps", Zone: layout.ZoneTask})
	require.NoError(t, err)
	assert.Equal(t, layout.ZoneTask, item.Zone)

	_, err = f.svc.CreateAgent(ctx, "S", AgentInput{Title: "x", Content: "y", Zone: "nowhere"})
	assert.Contains(t, validationFields(t, err), "zone")

	_, err = f.svc.CreateAgent(ctx, "S", AgentInput{})
	fields := validationFields(t, err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "content")
}

func TestCreateLabResult(t *testing.T) {
	f := setupService(t, nil)

	item, err := f.svc.CreateLabResult(context.Background(), "S", LabResultInput{
		Parameter: "Hemoglobin",
		Value:     "13.5",
		Unit:      "g/dL",
		Status:    board.LabStatusOptimal,
		Range:     &board.LabRange{Min: 12, Max: 16},
		Trend:     board.LabTrendStable,
	})
	require.NoError(t, err)

	assert.Equal(t, 360.0, item.Width)
	h, ok := item.Height.Value()
	require.True(t, ok)
	assert.Equal(t, 280.0, h)
	assert.Equal(t, board.LabRange{Min: 12, Max: 16}, item.LabResultData.Range)
	assertInside(t, item, zoneRect(t, f, layout.ZoneRetrievedData))
}

func TestCreateLabResult_InvertedRangeCreatesNothing(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()
	_, err := f.svc.CreateTodo(ctx, "S", sampleTodo())
	require.NoError(t, err)

	_, err = f.svc.CreateLabResult(ctx, "S", LabResultInput{
		Parameter: "Glucose",
		Value:     "90",
		Unit:      "mg/dL",
		Status:    board.LabStatusWarning,
		Range:     &board.LabRange{Min: 100, Max: 50},
	})
	fields := validationFields(t, err)
	assert.Contains(t, fields["range"], "must be less than")

	assert.Len(t, mustList(t, f, "S"), 1)
}

func TestCreateLabResult_Validation(t *testing.T) {
	f := setupService(t, nil)

	_, err := f.svc.CreateLabResult(context.Background(), "S", LabResultInput{Status: "fine", Trend: "sideways"})
	fields := validationFields(t, err)
	for _, name := range []string{"parameter", "value", "unit", "status", "trend", "range"} {
		assert.Contains(t, fields, name)
	}
}

func TestFlexString(t *testing.T) {
	var in LabResultInput
	require.NoError(t, json.Unmarshal([]byte(`{"value": 7.25}`), &in))
	assert.Equal(t, FlexString("7.25"), in.Value)

	require.NoError(t, json.Unmarshal([]byte(`{"value": "<5"}`), &in))
	assert.Equal(t, FlexString("<5"), in.Value)

	assert.Error(t, json.Unmarshal([]byte(`{"value": true}`), &in))
}

func TestCreateEHRAndDoctorNote_GridPlacement(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()

	var clinical []board.Item
	for i := 0; i < 5; i++ {
		item, err := f.svc.CreateEHR(ctx, "S", EHRInput{Title: "Vitals", Content: "BP 120/80", Source: "EHR"})
		require.NoError(t, err)
		clinical = append(clinical, item)
	}
	lab, err := f.svc.CreateLabResult(ctx, "S", LabResultInput{
		Parameter: "K", Value: "4.1", Unit: "mmol/L", Status: board.LabStatusOptimal,
		Range: &board.LabRange{Min: 3.5, Max: 5.1},
	})
	require.NoError(t, err)
	clinical = append(clinical, lab)

	for i := range clinical {
		for j := i + 1; j < len(clinical); j++ {
			a, b := clinical[i], clinical[j]
			ra := layout.Rect{X: a.X, Y: a.Y, Width: a.Width, Height: layout.EstimateHeight(&a)}
			rb := layout.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: layout.EstimateHeight(&b)}
			assert.False(t, ra.Overlaps(rb), "items %d and %d overlap", i, j)
		}
	}

	note, err := f.svc.CreateDoctorNote(ctx, "S", DoctorNoteInput{})
	require.NoError(t, err)
	assert.Equal(t, layout.ZoneDoctorNotes, note.Zone)
	assert.Equal(t, "", note.NoteData.Content)
	assertInside(t, note, zoneRect(t, f, layout.ZoneDoctorNotes))
}

func TestCreateBoardItem(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()

	free, err := f.svc.CreateBoardItem(ctx, "S", BoardItemInput{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, board.TypeBoardItem, free.Type)
	assert.Empty(t, free.Zone)
	area := layout.DefaultFreeArea()
	assert.GreaterOrEqual(t, free.Y, area.Y)

	sticky, err := f.svc.CreateBoardItem(ctx, "S", BoardItemInput{Type: board.TypeSticky, Zone: layout.ZoneTask})
	require.NoError(t, err)
	assert.Equal(t, layout.ZoneTask, sticky.Zone)
	assertInside(t, sticky, zoneRect(t, f, layout.ZoneTask))

	component, err := f.svc.CreateBoardItem(ctx, "S", BoardItemInput{
		Type:          board.TypeComponent,
		ComponentData: json.RawMessage(`{"widget":"chart"}`),
		Zone:          layout.ZoneDoctorNotes,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"widget":"chart"}`, string(component.ComponentData))

	_, err = f.svc.CreateBoardItem(ctx, "S", BoardItemInput{Type: "hologram"})
	assert.Contains(t, validationFields(t, err), "type")
}

func TestCreate_ExplicitPositionBypassesLayout(t *testing.T) {
	f := setupService(t, nil)

	in := sampleTodo()
	in.X, in.Y = ptr(-500.0), ptr(12345.5)
	in.Width = ptr(333.0)
	in.Height = ptr(board.Px(150))
	in.Color = "#ffeeaa"
	in.Rotation = 4

	item, err := f.svc.CreateTodo(context.Background(), "S", in)
	require.NoError(t, err)
	assert.Equal(t, -500.0, item.X)
	assert.Equal(t, 12345.5, item.Y)
	assert.Equal(t, 333.0, item.Width)
	assert.Equal(t, board.Px(150), item.Height)
	assert.Equal(t, "#ffeeaa", item.Color)
	assert.Equal(t, 4.0, item.Rotation)
	assert.Empty(t, item.Zone)

	in = sampleTodo()
	in.X = ptr(10.0)
	_, err = f.svc.CreateTodo(context.Background(), "S", in)
	assert.Contains(t, validationFields(t, err), "y")
}

func TestCreate_IDsAreUnique(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		item, err := f.svc.CreateBoardItem(ctx, "S", BoardItemInput{})
		require.NoError(t, err)
		assert.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}
	assert.Len(t, mustList(t, f, "S"), 100)
}

func TestCreate_SessionIsolation(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()

	a1 := f.hub.Subscribe("S")
	a2 := f.hub.Subscribe("S")
	other := f.hub.Subscribe("S2")
	defer a1.Close()
	defer a2.Close()
	defer other.Close()
	for _, sub := range []*broadcast.Subscription{a1, a2, other} {
		<-sub.Events()
	}

	item, err := f.svc.CreateTodo(ctx, "S", sampleTodo())
	require.NoError(t, err)

	for _, sub := range []*broadcast.Subscription{a1, a2} {
		ev := <-sub.Events()
		require.Equal(t, board.EventNewItem, ev.Type)
		var payload board.NewItemPayload
		require.NoError(t, ev.Decode(&payload))
		assert.Equal(t, item, payload.Item)
		assert.Equal(t, board.ItemActionCreated, payload.Action)
	}
	select {
	case ev := <-other.Events():
		t.Fatalf("other session received %s", ev.Type)
	default:
	}

	assert.Empty(t, mustList(t, f, "S2"))
}

func TestCreate_SessionBusy(t *testing.T) {
	store := board.NewMemoryStore(0)
	engine, err := layout.NewEngine(layout.DefaultZones())
	require.NoError(t, err)
	locks := lock.New(20 * time.Millisecond)
	svc := NewService(store, locks, engine, broadcast.NewHub())

	release, err := locks.Acquire(context.Background(), "S")
	require.NoError(t, err)
	defer release()

	_, err = svc.CreateTodo(context.Background(), "S", sampleTodo())
	assert.True(t, board.Is(err, board.ErrSessionBusy))
}

func TestRoundTrip_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store := board.NewRedisStore(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = store.Close() })
	f := setupService(t, store)
	ctx := context.Background()

	ehr, err := f.svc.CreateEHR(ctx, "S", EHRInput{
		Overrides: Overrides{Color: "#fff", Rotation: 2},
		Title:     "Discharge summary",
		Content:   "Patient stable.\nFollow up in 2 weeks.",
		DataType:  "summary",
		Source:    "Epic",
	})
	require.NoError(t, err)

	items := mustList(t, f, "S")
	require.Len(t, items, 1)
	got := items[0]
	assert.Equal(t, ehr, got)
	assert.Equal(t, board.EHRData{Title: "Discharge summary", Content: "Patient stable.\nFollow up in 2 weeks.", DataType: "summary", Source: "Epic"}, *got.EHRData)
	assert.Equal(t, "#fff", got.Color)
	assert.Equal(t, 2.0, got.Rotation)
	assert.True(t, got.Height.IsAuto())
	assertInside(t, got, zoneRect(t, f, layout.ZoneRetrievedData))

	assert.True(t, mr.Exists("easel:session:S:items"))
	assert.True(t, mr.Exists("easel:session:S:meta"))
}

func TestUpdate(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()

	first, err := f.svc.CreateBoardItem(ctx, "S", BoardItemInput{Content: "one"})
	require.NoError(t, err)
	second, err := f.svc.CreateBoardItem(ctx, "S", BoardItemInput{Content: "two"})
	require.NoError(t, err)

	sub := f.hub.Subscribe("S")
	defer sub.Close()
	<-sub.Events()

	f.svc.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	updated, err := f.svc.Update(ctx, "S", first.ID, map[string]json.RawMessage{
		"content": json.RawMessage(`"edited"`),
		"x":       json.RawMessage(`42`),
		"id":      json.RawMessage(`"hijack"`),
		"type":    json.RawMessage(`"sticky"`),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, board.TypeBoardItem, updated.Type)
	assert.Equal(t, "edited", updated.Content)
	assert.Equal(t, 42.0, updated.X)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "2030-01-01T00:00:00Z", updated.UpdatedAt)

	items := mustList(t, f, "S")
	require.Len(t, items, 2)
	assert.Equal(t, updated, items[0], "update keeps list order")
	assert.Equal(t, second, items[1])

	ev := <-sub.Events()
	var payload board.NewItemPayload
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, board.ItemActionUpdated, payload.Action)
	assert.Equal(t, "edited", payload.Item.Content)
}

func TestUpdate_Errors(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, "S", "missing", map[string]json.RawMessage{"content": json.RawMessage(`"x"`)})
	assert.True(t, board.IsNotFound(err))

	item, err := f.svc.CreateBoardItem(ctx, "S", BoardItemInput{})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, "S", item.ID, map[string]json.RawMessage{"width": json.RawMessage(`"wide"`)})
	assert.True(t, board.Is(err, board.ErrInvalidRequest))

	_, err = f.svc.Update(ctx, "S", item.ID, map[string]json.RawMessage{"width": json.RawMessage(`-5`)})
	assert.Contains(t, validationFields(t, err), "width")

	assert.Equal(t, []board.Item{item}, mustList(t, f, "S"))
}

func TestDelete(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()

	a, err := f.svc.CreateBoardItem(ctx, "S", BoardItemInput{})
	require.NoError(t, err)
	b, err := f.svc.CreateBoardItem(ctx, "S", BoardItemInput{})
	require.NoError(t, err)

	sub := f.hub.Subscribe("S")
	defer sub.Close()
	<-sub.Events()

	out, err := f.svc.Delete(ctx, "S", a.ID)
	require.NoError(t, err)
	assert.Equal(t, &DeleteOutput{DeletedID: a.ID, RemainingCount: 1}, out)
	assert.Equal(t, []board.Item{b}, mustList(t, f, "S"))

	ev := <-sub.Events()
	require.Equal(t, board.EventItemsDeleted, ev.Type)
	var payload board.ItemsDeletedPayload
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, []string{a.ID}, payload.ItemIDs)
}

func TestDelete_NotFoundLeavesListUnchanged(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()
	_, err := f.svc.CreateBoardItem(ctx, "S", BoardItemInput{})
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, "S", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.Error(t, err)
	assert.True(t, board.IsNotFound(err))
	assert.Equal(t, 404, board.AsError(err).Status)
	assert.Len(t, mustList(t, f, "S"), 1)
}

// slowStore widens the window between load and save so that unserialized
// read-modify-write sequences reliably interleave.
type slowStore struct {
	board.Store
	delay time.Duration
}

func (s *slowStore) Load(ctx context.Context, sessionID string) ([]board.Item, error) {
	items, err := s.Store.Load(ctx, sessionID)
	time.Sleep(s.delay)
	return items, err
}

func deleteUnserialized(ctx context.Context, store board.Store, sessionID, id string) error {
	items, err := store.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	return store.Save(ctx, sessionID, kept)
}

func seedTwo(t *testing.T, f *fixture) (board.Item, board.Item) {
	t.Helper()
	a, err := f.svc.CreateBoardItem(context.Background(), "S", BoardItemInput{Content: "A"})
	require.NoError(t, err)
	b, err := f.svc.CreateBoardItem(context.Background(), "S", BoardItemInput{Content: "B"})
	require.NoError(t, err)
	return a, b
}

func TestConcurrentDeletes_LoseUpdateWithoutLock(t *testing.T) {
	store := &slowStore{Store: board.NewMemoryStore(0), delay: 20 * time.Millisecond}
	f := setupService(t, store)
	a, b := seedTwo(t, f)

	var wg sync.WaitGroup
	for _, id := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, deleteUnserialized(context.Background(), store, "S", id))
		}(id)
	}
	wg.Wait()

	// Both deleters loaded [A, B]; the last save resurrects one of them.
	assert.Len(t, mustList(t, f, "S"), 1)
}

func TestConcurrentDeletes_SerializedRemoveBoth(t *testing.T) {
	store := &slowStore{Store: board.NewMemoryStore(0), delay: 20 * time.Millisecond}
	f := setupService(t, store)
	a, b := seedTwo(t, f)

	var wg sync.WaitGroup
	for _, id := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.Delete(context.Background(), "S", id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Empty(t, mustList(t, f, "S"))
}

func TestBatchDelete_MatchesSequentialDeletes(t *testing.T) {
	ctx := context.Background()

	batch := setupService(t, nil)
	a, b := seedTwo(t, batch)
	c, err := batch.svc.CreateBoardItem(ctx, "S", BoardItemInput{Content: "C"})
	require.NoError(t, err)

	sequential := setupService(t, nil)
	for _, item := range []board.Item{a, b, c} {
		require.NoError(t, sequential.store.Save(ctx, "S", append(mustList(t, sequential, "S"), item)))
	}

	out, err := batch.svc.BatchDelete(ctx, "S", []string{a.ID, b.ID, a.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, &BatchDeleteOutput{
		DeletedCount:   2,
		NotFoundCount:  1,
		NotFoundIDs:    []string{"missing"},
		RemainingCount: 1,
	}, out)

	_, err = sequential.svc.Delete(ctx, "S", a.ID)
	require.NoError(t, err)
	_, err = sequential.svc.Delete(ctx, "S", b.ID)
	require.NoError(t, err)

	assert.Equal(t, mustList(t, sequential, "S"), mustList(t, batch, "S"))
	assert.Equal(t, []board.Item{c}, mustList(t, batch, "S"))
}

func TestBatchDelete_EmptyList(t *testing.T) {
	f := setupService(t, nil)
	_, err := f.svc.BatchDelete(context.Background(), "S", nil)
	assert.Contains(t, validationFields(t, err), "itemIds")

	_, err = f.svc.BatchDelete(context.Background(), "S", []string{" "})
	assert.Contains(t, validationFields(t, err), "itemIds")
}

func TestBatchDelete_NothingFound(t *testing.T) {
	f := setupService(t, nil)
	out, err := f.svc.BatchDelete(context.Background(), "S", []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.DeletedCount)
	assert.Equal(t, []string{"x", "y"}, out.NotFoundIDs)
	assert.Equal(t, 0, out.RemainingCount)
}

func TestFocus(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()

	sub := f.hub.Subscribe("S")
	defer sub.Close()
	<-sub.Events()

	delivered, err := f.svc.Focus(ctx, "S", FocusInput{
		ItemID:       "item-1",
		SubElement:   "todo-2",
		FocusOptions: json.RawMessage(`{"zoom": 1.5}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	ev := <-sub.Events()
	require.Equal(t, board.EventFocus, ev.Type)
	var payload board.FocusPayload
	require.NoError(t, ev.Decode(&payload))
	want := board.DefaultFocusOptions()
	want.Zoom = 1.5
	assert.Equal(t, board.FocusPayload{ItemID: "item-1", SubElement: "todo-2", FocusOptions: want}, payload)

	_, err = f.svc.Focus(ctx, "S", FocusInput{})
	assert.Contains(t, validationFields(t, err), "itemId")
}

// brokenPurgeStore fails every purge, with err when set and a panic otherwise.
type brokenPurgeStore struct {
	board.Store
	err error
}

func (s *brokenPurgeStore) Purge(context.Context, string) error {
	if s.err != nil {
		return s.err
	}
	panic("store exploded")
}

func TestPurge_ReleasesLockWhenStorePanics(t *testing.T) {
	f := setupService(t, &brokenPurgeStore{Store: board.NewMemoryStore(0)})
	ctx := context.Background()

	assert.Panics(t, func() {
		_, _ = f.svc.Purge(ctx, "S")
	})

	assert.Equal(t, 0, f.locks.Active())
	_, err := f.svc.CreateBoardItem(ctx, "S", BoardItemInput{Content: "still writable"})
	require.NoError(t, err)
}

func TestPurge_ReleasesLockOnStoreError(t *testing.T) {
	f := setupService(t, &brokenPurgeStore{Store: board.NewMemoryStore(0), err: errors.New("backend down")})
	ctx := context.Background()

	_, err := f.svc.Purge(ctx, "S")
	var boardErr *board.Error
	require.ErrorAs(t, err, &boardErr)
	assert.Equal(t, board.ErrInternal, boardErr.Code)

	assert.Equal(t, 0, f.locks.Active())
	_, err = f.svc.CreateBoardItem(ctx, "S", BoardItemInput{Content: "still writable"})
	require.NoError(t, err)
}

func TestSessionAndPurge(t *testing.T) {
	f := setupService(t, nil)
	ctx := context.Background()

	info, err := f.svc.Session(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, "S", info.SessionID)
	assert.Equal(t, 0, info.ItemCount)
	assert.NotEmpty(t, info.CreatedAt)

	_, err = f.svc.CreateTodo(ctx, "S", sampleTodo())
	require.NoError(t, err)
	sub := f.hub.Subscribe("S")
	<-sub.Events()

	info, err = f.svc.Session(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, 1, info.ItemCount)
	assert.Equal(t, 1, info.ConnectedClients)

	disconnected, err := f.svc.Purge(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, 1, disconnected)

	ev := <-sub.Events()
	assert.Equal(t, board.EventSessionReset, ev.Type)
	<-sub.Done()

	assert.Empty(t, mustList(t, f, "S"))
	assert.Equal(t, 0, f.hub.Connections("S"))
}
