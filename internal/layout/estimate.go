package layout

import (
	"strings"

	"github.com/dyluth/easel/pkg/board"
)

// Height estimation constants. Estimates only feed packing math; they are
// never written back to an item.
const (
	todoBaseHeight        = 80
	todoEntryHeight       = 35
	todoSubEntryHeight    = 25
	todoDescriptionHeight = 20
	todoMinHeight         = 120
	todoMaxHeight         = 800

	textBaseHeight  = 120
	textLineHeight  = 24
	textLineChars   = 60
	textMinHeight   = 200
	textMaxHeight   = 900
	labResultHeight = 280

	// DefaultHeight is the estimate for kinds without a content model.
	DefaultHeight = 300
)

// EstimateHeight returns the height the layout engine assumes for item.
// A declared numeric height wins; "auto" heights are estimated from content.
func EstimateHeight(item *board.Item) float64 {
	if h, ok := item.Height.Value(); ok {
		return h
	}

	switch item.Type {
	case board.TypeTodo:
		return estimateTodo(item.TodoData)
	case board.TypeAgent, board.TypeAgentResult, board.TypeEHRData:
		return estimateText(textContent(item))
	case board.TypeLabResult:
		return labResultHeight
	default:
		return DefaultHeight
	}
}

func estimateTodo(data *board.TodoData) float64 {
	if data == nil {
		return todoMinHeight
	}

	h := float64(todoBaseHeight + todoEntryHeight*len(data.Todos))
	for _, todo := range data.Todos {
		h += float64(todoSubEntryHeight * len(todo.SubTodos))
	}
	if strings.TrimSpace(data.Description) != "" {
		h += todoDescriptionHeight
	}
	return clamp(h, todoMinHeight, todoMaxHeight)
}

func estimateText(content string) float64 {
	lines := 0
	for _, line := range strings.Split(content, "\n") {
		n := len([]rune(line))
		wrapped := (n + textLineChars - 1) / textLineChars
		if wrapped < 1 {
			wrapped = 1
		}
		lines += wrapped
	}
	return clamp(float64(textBaseHeight+lines*textLineHeight), textMinHeight, textMaxHeight)
}

func textContent(item *board.Item) string {
	switch {
	case item.AgentData != nil:
		return item.AgentData.Markdown
	case item.EHRData != nil:
		return item.EHRData.Content
	default:
		return item.Content
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
