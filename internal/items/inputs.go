package items

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dyluth/easel/pkg/board"
)

// Overrides are the presentation fields every create operation accepts.
// X and Y override placement only when both are given.
type Overrides struct {
	X        *float64         `json:"x"`
	Y        *float64         `json:"y"`
	Width    *float64         `json:"width"`
	Height   *board.Dimension `json:"height"`
	Color    string           `json:"color"`
	Rotation float64          `json:"rotation"`
}

// TodoInput creates a plain todo list.
type TodoInput struct {
	Overrides
	Title       string      `json:"title"`
	Description string      `json:"description"`
	TodoItems   []TodoEntry `json:"todo_items"`
}

// TodoEntry is one plain todo entry. It decodes from either a bare string or
// an object with text and an optional status.
type TodoEntry struct {
	Text   string           `json:"text"`
	Status board.TodoStatus `json:"status"`
}

// UnmarshalJSON accepts "text" or {"text": ..., "status": ...}.
func (e *TodoEntry) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*e = TodoEntry{Text: text}
		return nil
	}

	type plain TodoEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = TodoEntry(p)
	return nil
}

// EnhancedTodoInput creates a todo list whose entries are delegated to agents.
type EnhancedTodoInput struct {
	Overrides
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Todos       []EnhancedTodoEntry `json:"todos"`
}

// EnhancedTodoEntry is one enhanced todo entry. Missing ids are synthesized.
type EnhancedTodoEntry struct {
	ID       string           `json:"id"`
	Text     string           `json:"text"`
	Status   board.TodoStatus `json:"status"`
	Agent    string           `json:"agent"`
	SubTodos []SubTodoEntry   `json:"subTodos"`
}

// SubTodoEntry is a sub-task of an enhanced todo entry.
type SubTodoEntry struct {
	ID     string           `json:"id"`
	Text   string           `json:"text"`
	Status board.TodoStatus `json:"status"`
}

// AgentInput creates an agent note. An empty Zone means the retrieved-data zone.
type AgentInput struct {
	Overrides
	Title   string `json:"title"`
	Content string `json:"content"`
	Zone    string `json:"zone"`
}

// LabResultInput creates a lab result card.
type LabResultInput struct {
	Overrides
	Parameter string          `json:"parameter"`
	Value     FlexString      `json:"value"`
	Unit      string          `json:"unit"`
	Status    board.LabStatus `json:"status"`
	Range     *board.LabRange `json:"range"`
	Trend     board.LabTrend  `json:"trend"`
}

// EHRInput creates an EHR data card.
type EHRInput struct {
	Overrides
	Title    string `json:"title"`
	Content  string `json:"content"`
	DataType string `json:"dataType"`
	Source   string `json:"source"`
}

// DoctorNoteInput creates a doctor's note.
type DoctorNoteInput struct {
	Overrides
	Content string `json:"content"`
}

// BoardItemInput creates a generic item. An empty Type means board-item; an
// empty Zone means free placement.
type BoardItemInput struct {
	Overrides
	Type          board.ItemType  `json:"type"`
	Content       string          `json:"content"`
	Zone          string          `json:"zone"`
	ComponentData json.RawMessage `json:"componentData"`
}

// FlexString decodes from a JSON string or number.
type FlexString string

// UnmarshalJSON accepts "7.2" or 7.2.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value must be a string or a number")
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("value must be a string or a number")
	}
	*f = FlexString(n.String())
	return nil
}
