package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dyluth/easel/internal/items"
	"github.com/dyluth/easel/internal/resolver"
	"github.com/spf13/cobra"
)

var (
	focusZoom        float64
	focusNoHighlight bool
	focusDuration    int
	focusSubElement  string
)

var focusCmd = &cobra.Command{
	Use:   "focus ITEM_ID",
	Short: "Move the session's viewers to an item",
	Long: `Ask every viewer of the session to center on an item.

The item can be named by full id or a unique prefix. Options left unset keep
the server's defaults (zoom 0.8, highlighted, 1200ms animation).`,
	Args: cobra.ExactArgs(1),
	RunE: runFocus,
}

func init() {
	focusCmd.Flags().Float64Var(&focusZoom, "zoom", 0.8, "Zoom level")
	focusCmd.Flags().BoolVar(&focusNoHighlight, "no-highlight", false, "Do not highlight the item")
	focusCmd.Flags().IntVar(&focusDuration, "duration", 1200, "Animation duration in milliseconds")
	focusCmd.Flags().StringVar(&focusSubElement, "sub-element", "", "Element within the item to focus, such as a todo id")
	rootCmd.AddCommand(focusCmd)
}

func runFocus(cmd *cobra.Command, args []string) error {
	p, c, err := setupSession(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	list, err := c.ListItems(ctx)
	if err != nil {
		return p.APIError("list items", err)
	}
	id, err := resolver.ResolveItemID(list, args[0])
	if err != nil {
		var amb *resolver.AmbiguousError
		if errors.As(err, &amb) {
			return p.Error("ambiguous item id", resolver.FormatAmbiguousError(amb), nil, nil)
		}
		return p.Error("item not found", err.Error(), nil, []string{"List the session's items:\n  easel items"})
	}

	opts := map[string]any{}
	if cmd.Flags().Changed("zoom") {
		opts["zoom"] = focusZoom
	}
	if focusNoHighlight {
		opts["highlight"] = false
	}
	if cmd.Flags().Changed("duration") {
		opts["duration"] = focusDuration
	}

	in := items.FocusInput{ItemID: id, SubElement: focusSubElement}
	if len(opts) > 0 {
		raw, err := json.Marshal(opts)
		if err != nil {
			return fmt.Errorf("failed to encode focus options: %w", err)
		}
		in.FocusOptions = raw
	}

	delivered, err := c.Focus(ctx, in)
	if err != nil {
		return p.APIError("focus item", err)
	}

	p.Success("Focused %s on %d viewer(s)\n", id, delivered)
	return nil
}
