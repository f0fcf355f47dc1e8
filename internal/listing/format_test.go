package listing

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dyluth/easel/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 10, 29, 15, 0, 0, 0, time.UTC)

func sampleItems() []board.Item {
	return []board.Item{
		{
			ID:   "01JBCDEF00AAAAAAAAAAAAAAAA",
			Type: board.TypeTodo,
			Zone: "task-management-zone",
			X:    4200,
			TodoData: &board.TodoData{Title: "Discharge", Todos: []board.TodoItem{
				{Text: "a", Status: board.TodoStatusFinished},
				{Text: "b", Status: board.TodoStatusTodo},
			}},
			CreatedAt: board.Timestamp(now.Add(-5 * time.Minute)),
		},
		{
			ID:            "01JBCDEF00BBBBBBBBBBBBBBBB",
			Type:          board.TypeLabResult,
			Zone:          "retrieved-data-zone",
			LabResultData: &board.LabResultData{Parameter: "Hb", Value: "13.2", Unit: "g/dL", Status: board.LabStatusOptimal},
			CreatedAt:     board.Timestamp(now.Add(-3 * time.Hour)),
		},
		{
			ID:        "01JBCDEF00CCCCCCCCCCCCCCCC",
			Type:      board.TypeText,
			Content:   "\n  " + strings.Repeat("x", 60),
			CreatedAt: board.Timestamp(now.Add(-50 * time.Hour)),
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, OutputFormatTable, f)

	f, err = ParseFormat("jsonl")
	require.NoError(t, err)
	assert.Equal(t, OutputFormatJSONL, f)

	_, err = ParseFormat("yaml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestFormatTable(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		count, err := FormatTable(&buf, nil, "S", now)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
		assert.Contains(t, buf.String(), "No items found in session 'S'")
	})

	t.Run("items", func(t *testing.T) {
		var buf bytes.Buffer
		count, err := FormatTable(&buf, sampleItems(), "S", now)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		output := buf.String()
		assert.Contains(t, output, "Items in session 'S'")
		assert.Contains(t, output, "01JBCDEF00AAAA ")
		assert.NotContains(t, output, "01JBCDEF00AAAAA")
		assert.Contains(t, output, "task-manage...")
		assert.Contains(t, output, "4200,0")
		assert.Contains(t, output, "Discharge (1/2 done)")
		assert.Contains(t, output, "Hb 13.2 g/dL (optimal)")
		assert.Contains(t, output, "5m ago")
		assert.Contains(t, output, "3h ago")
		assert.Contains(t, output, "2d ago")
		assert.Contains(t, output, strings.Repeat("x", 37)+"...")
		assert.Contains(t, output, "3 items found")
	})
}

func TestFormatJSONAndJSONL(t *testing.T) {
	items := sampleItems()

	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, items))
	var decoded []board.Item
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 3)

	buf.Reset()
	require.NoError(t, FormatJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, OutputFormatJSONL, items, "S", now))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], `"labResultData"`)
}

func TestSummary_Fallbacks(t *testing.T) {
	assert.Equal(t, "note body", Summary(&board.Item{NoteData: &board.NoteData{Content: "note body"}}))
	assert.Equal(t, "Agent run", Summary(&board.Item{AgentData: &board.AgentData{Title: "Agent run"}}))
	assert.Equal(t, "-", truncate(Summary(&board.Item{}), 40))
}
