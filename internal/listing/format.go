// Package listing renders board items for the easel CLI.
package listing

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/easel/internal/filter"
	"github.com/dyluth/easel/pkg/board"
	"github.com/olekukonko/tablewriter"
)

// OutputFormat selects how items are written.
type OutputFormat string

const (
	// OutputFormatTable is a bordered table with truncated summaries.
	OutputFormatTable OutputFormat = "table"
	// OutputFormatJSON is the full items as one indented JSON array.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatJSONL is one compact item per line, for jq.
	OutputFormatJSONL OutputFormat = "jsonl"
)

// ParseFormat validates a --output value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputFormatTable, OutputFormatJSON, OutputFormatJSONL:
		return f, nil
	case "":
		return OutputFormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: table, json, jsonl)", s)
	}
}

// Write renders list in format.
func Write(w io.Writer, format OutputFormat, list []board.Item, sessionID string, now time.Time) error {
	switch format {
	case OutputFormatJSON:
		return FormatJSON(w, list)
	case OutputFormatJSONL:
		return FormatJSONL(w, list)
	default:
		_, err := FormatTable(w, list, sessionID, now)
		return err
	}
}

// FormatTable writes items as a table with columns ID, TYPE, ZONE, POSITION,
// AGE and SUMMARY. It returns the number of items written.
func FormatTable(w io.Writer, list []board.Item, sessionID string, now time.Time) (int, error) {
	if len(list) == 0 {
		fmt.Fprintf(w, "No items found in session '%s'\n", sessionID)
		return 0, nil
	}

	fmt.Fprintf(w, "Items in session '%s':\n\n", sessionID)

	rows := make([][]string, 0, len(list))
	for i := range list {
		item := &list[i]
		rows = append(rows, []string{
			formatID(item.ID),
			string(item.Type),
			formatZone(item.Zone),
			fmt.Sprintf("%.0f,%.0f", item.X, item.Y),
			formatAge(item, now),
			truncate(Summary(item), 40),
		})
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "TYPE", "ZONE", "POSITION", "AGE", "SUMMARY")
	if err := table.Bulk(rows); err != nil {
		return 0, fmt.Errorf("failed to build table: %w", err)
	}
	if err := table.Render(); err != nil {
		return 0, fmt.Errorf("failed to render table: %w", err)
	}

	noun := "item"
	if len(list) != 1 {
		noun = "items"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(list), noun)

	return len(list), nil
}

// FormatJSON writes items as an indented JSON array.
func FormatJSON(w io.Writer, list []board.Item) error {
	if list == nil {
		list = []board.Item{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal items to JSON: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}

// FormatJSONL writes one compact JSON item per line.
func FormatJSONL(w io.Writer, list []board.Item) error {
	for i := range list {
		data, err := json.Marshal(&list[i])
		if err != nil {
			return fmt.Errorf("failed to marshal item to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// Summary is a one-line description of the item's content.
func Summary(item *board.Item) string {
	switch {
	case item.TodoData != nil:
		done := 0
		for _, todo := range item.TodoData.Todos {
			if todo.Status == board.TodoStatusFinished {
				done++
			}
		}
		return fmt.Sprintf("%s (%d/%d done)", item.TodoData.Title, done, len(item.TodoData.Todos))
	case item.AgentData != nil:
		return item.AgentData.Title
	case item.LabResultData != nil:
		lab := item.LabResultData
		return fmt.Sprintf("%s %s %s (%s)", lab.Parameter, lab.Value, lab.Unit, lab.Status)
	case item.EHRData != nil:
		return item.EHRData.Title
	case item.NoteData != nil:
		return item.NoteData.Content
	default:
		return item.Content
	}
}

// formatID shortens a ULID to its timestamp and four random characters,
// enough for a unique prefix among one session's items.
func formatID(id string) string {
	if len(id) > 14 {
		return id[:14]
	}
	return id
}

func formatZone(zone string) string {
	if zone == "" {
		return "-"
	}
	return truncate(strings.TrimSuffix(zone, "-zone"), 14)
}

// truncate keeps the first non-empty line of s, cut to max characters.
// Empty text renders as "-".
func truncate(s string, max int) string {
	var first string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			first = trimmed
			break
		}
	}
	if first == "" {
		return "-"
	}

	runes := []rune(first)
	if len(runes) > max {
		return string(runes[:max-3]) + "..."
	}
	return first
}

// formatAge renders how long ago the item was created, like "2m ago".
func formatAge(item *board.Item, now time.Time) string {
	created, ok := filter.CreatedAt(item)
	if !ok {
		return "-"
	}

	diff := now.Sub(created)
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", max(int(diff.Seconds()), 0))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
