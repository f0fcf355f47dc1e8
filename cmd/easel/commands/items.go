package commands

import (
	"time"

	"github.com/dyluth/easel/internal/filter"
	"github.com/dyluth/easel/internal/listing"
	"github.com/dyluth/easel/internal/timespec"
	"github.com/spf13/cobra"
)

var (
	itemsOutputFormat string
	itemsSince        string
	itemsUntil        string
	itemsType         string
	itemsZone         string
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List the session's board items",
	Long: `List the items on the selected session's board, in creation order.

Output Formats:
  table - Human-readable table with short ids and one-line summaries
  json  - The full items as a JSON array
  jsonl - One item per line, for piping to jq

Filters:
  --since / --until - Creation time bounds (duration like 1h or RFC3339)
  --type            - Item type glob ("agent*", "lab-result")
  --zone            - Exact zone name

Examples:
  easel items -s $EASEL_SESSION
  easel items --type="todo" --since=30m
  easel items --output=jsonl | jq -r '.id'`,
	Args: cobra.NoArgs,
	RunE: runItems,
}

func init() {
	itemsCmd.Flags().StringVarP(&itemsOutputFormat, "output", "o", "table", "Output format: table, json or jsonl")
	itemsCmd.Flags().StringVar(&itemsSince, "since", "", "Show items created after time (duration or RFC3339)")
	itemsCmd.Flags().StringVar(&itemsUntil, "until", "", "Show items created before time (duration or RFC3339)")
	itemsCmd.Flags().StringVar(&itemsType, "type", "", "Filter by item type (glob pattern)")
	itemsCmd.Flags().StringVar(&itemsZone, "zone", "", "Filter by zone name")
	rootCmd.AddCommand(itemsCmd)
}

func runItems(cmd *cobra.Command, args []string) error {
	p, c, err := setupSession(cmd)
	if err != nil {
		return err
	}

	format, err := listing.ParseFormat(itemsOutputFormat)
	if err != nil {
		return p.Error("invalid output format", err.Error(), nil, []string{"Valid formats: table, json, jsonl"})
	}

	now := time.Now()
	since, until, err := timespec.ParseRange(itemsSince, itemsUntil, now)
	if err != nil {
		return p.Error("invalid time filter", err.Error(), nil, []string{"Use a duration like --since=1h or a timestamp like --since=2025-10-29T13:00:00Z"})
	}
	criteria := filter.Criteria{Since: since, Until: until, TypeGlob: itemsType, Zone: itemsZone}

	list, err := c.ListItems(cmd.Context())
	if err != nil {
		return p.APIError("list items", err)
	}
	if criteria.HasFilters() {
		list = criteria.Apply(list)
	}

	return listing.Write(p.Out(), format, list, c.SessionID(), now)
}
