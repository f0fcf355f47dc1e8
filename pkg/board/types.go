package board

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ItemType is the discriminant tag carried by every board item.
type ItemType string

const (
	TypeText        ItemType = "text"
	TypeShape       ItemType = "shape"
	TypeSticky      ItemType = "sticky"
	TypeTodo        ItemType = "todo"
	TypeAgent       ItemType = "agent"
	TypeAgentResult ItemType = "agent_result"
	TypeLabResult   ItemType = "lab-result"
	TypeEHRData     ItemType = "ehr-data"
	TypeDoctorNote  ItemType = "doctor-note"
	TypeComponent   ItemType = "component"
	TypeBoardItem   ItemType = "board-item"
)

// Validate checks that the ItemType is one of the known kinds.
func (t ItemType) Validate() error {
	switch t {
	case TypeText, TypeShape, TypeSticky, TypeTodo, TypeAgent, TypeAgentResult,
		TypeLabResult, TypeEHRData, TypeDoctorNote, TypeComponent, TypeBoardItem:
		return nil
	default:
		return fmt.Errorf("unknown item type: %q", t)
	}
}

// Item is the unit of persisted board content.
// Exactly one of the kind payloads is set for the structured kinds; generic
// kinds carry free text in Content.
type Item struct {
	ID       string    `json:"id"`
	Type     ItemType  `json:"type"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Width    float64   `json:"width"`
	Height   Dimension `json:"height"`
	Color    string    `json:"color,omitempty"`
	Rotation float64   `json:"rotation"`
	Content  string    `json:"content,omitempty"`
	Zone     string    `json:"zone,omitempty"`

	TodoData      *TodoData       `json:"todoData,omitempty"`
	AgentData     *AgentData      `json:"agentData,omitempty"`
	LabResultData *LabResultData  `json:"labResultData,omitempty"`
	EHRData       *EHRData        `json:"ehrData,omitempty"`
	NoteData      *NoteData       `json:"noteData,omitempty"`
	ComponentData json.RawMessage `json:"componentData,omitempty"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// TodoData is the payload of todo items, both plain and enhanced.
type TodoData struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Todos       []TodoItem `json:"todos"`
}

// TodoItem is one top-level entry of a todo list.
type TodoItem struct {
	ID       string        `json:"id,omitempty"`
	Text     string        `json:"text"`
	Status   TodoStatus    `json:"status"`
	Agent    string        `json:"agent,omitempty"`
	SubTodos []TodoSubItem `json:"subTodos,omitempty"`
}

// TodoSubItem is a delegated sub-task of an enhanced todo entry.
type TodoSubItem struct {
	ID     string     `json:"id,omitempty"`
	Text   string     `json:"text"`
	Status TodoStatus `json:"status"`
}

// TodoStatus is the lifecycle state of a todo entry.
// Plain todos use TodoStatusTodo; enhanced todos use pending/executing/finished.
type TodoStatus string

const (
	TodoStatusTodo      TodoStatus = "todo"
	TodoStatusPending   TodoStatus = "pending"
	TodoStatusExecuting TodoStatus = "executing"
	TodoStatusFinished  TodoStatus = "finished"
)

// ValidateEnhanced checks the status against the enhanced todo enum.
func (s TodoStatus) ValidateEnhanced() error {
	switch s {
	case TodoStatusPending, TodoStatusExecuting, TodoStatusFinished:
		return nil
	default:
		return fmt.Errorf("status must be one of pending, executing, finished (got %q)", s)
	}
}

// AgentData is the payload of agent notes and agent results.
type AgentData struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

// LabResultData is the payload of lab-result items.
type LabResultData struct {
	Parameter string    `json:"parameter"`
	Value     string    `json:"value"`
	Unit      string    `json:"unit"`
	Status    LabStatus `json:"status"`
	Range     LabRange  `json:"range"`
	Trend     LabTrend  `json:"trend,omitempty"`
}

// LabRange is the reference range of a lab parameter. Min must be below Max.
type LabRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// LabStatus classifies a lab value against its reference range.
type LabStatus string

const (
	LabStatusOptimal  LabStatus = "optimal"
	LabStatusWarning  LabStatus = "warning"
	LabStatusCritical LabStatus = "critical"
)

// Validate checks if the LabStatus is a valid enum value.
func (s LabStatus) Validate() error {
	switch s {
	case LabStatusOptimal, LabStatusWarning, LabStatusCritical:
		return nil
	default:
		return fmt.Errorf("status must be one of optimal, warning, critical (got %q)", s)
	}
}

// LabTrend is the optional direction of a lab value over time.
type LabTrend string

const (
	LabTrendUp     LabTrend = "up"
	LabTrendDown   LabTrend = "down"
	LabTrendStable LabTrend = "stable"
)

// Validate checks if the LabTrend is empty or a valid enum value.
func (t LabTrend) Validate() error {
	switch t {
	case "", LabTrendUp, LabTrendDown, LabTrendStable:
		return nil
	default:
		return fmt.Errorf("trend must be one of up, down, stable (got %q)", t)
	}
}

// EHRData is the payload of ehr-data items.
type EHRData struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	DataType string `json:"dataType,omitempty"`
	Source   string `json:"source,omitempty"`
}

// NoteData is the payload of doctor-note items.
type NoteData struct {
	Content string `json:"content"`
}

// Dimension is a box height: either a concrete number or the "auto" sentinel
// for kinds whose rendered height depends on their content.
type Dimension struct {
	value float64
	auto  bool
}

// AutoDimension is the "auto" sentinel.
var AutoDimension = Dimension{auto: true}

// Px returns a concrete dimension.
func Px(v float64) Dimension {
	return Dimension{value: v}
}

// IsAuto reports whether the dimension is the "auto" sentinel.
func (d Dimension) IsAuto() bool {
	return d.auto
}

// Value returns the concrete value and whether there is one.
func (d Dimension) Value() (float64, bool) {
	if d.auto {
		return 0, false
	}
	return d.value, true
}

func (d Dimension) String() string {
	if d.auto {
		return "auto"
	}
	return strconv.FormatFloat(d.value, 'f', -1, 64)
}

// MarshalJSON encodes "auto" as a string and concrete heights as numbers.
func (d Dimension) MarshalJSON() ([]byte, error) {
	if d.auto {
		return []byte(`"auto"`), nil
	}
	return json.Marshal(d.value)
}

// UnmarshalJSON accepts a number, "auto", or a numeric string.
func (d *Dimension) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = AutoDimension
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "auto" || s == "" {
			*d = AutoDimension
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("height must be a number or \"auto\", got %q", s)
		}
		*d = Px(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("height must be a number or \"auto\": %w", err)
	}
	*d = Px(v)
	return nil
}
