package commands

import (
	"errors"
	"strings"

	"github.com/dyluth/easel/internal/resolver"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm ITEM_ID...",
	Short: "Remove items from the session's board",
	Long: `Remove one or more items in a single batch.

Items can be named by full id or by a unique prefix of at least 6 characters,
as shown in the ID column of 'easel items'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	p, c, err := setupSession(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	list, err := c.ListItems(ctx)
	if err != nil {
		return p.APIError("list items", err)
	}

	ids, err := resolver.ResolveAll(list, args)
	if err != nil {
		var amb *resolver.AmbiguousError
		if errors.As(err, &amb) {
			return p.Error("ambiguous item id", resolver.FormatAmbiguousError(amb), nil, nil)
		}
		return p.Error("item not found", err.Error(), nil, []string{"List the session's items:\n  easel items"})
	}

	out, err := c.BatchDelete(ctx, ids)
	if err != nil {
		return p.APIError("remove items", err)
	}

	p.Success("Removed %d item(s); %d remain\n", out.DeletedCount, out.RemainingCount)
	if out.NotFoundCount > 0 {
		p.Warning("Already gone: %s\n", strings.Join(out.NotFoundIDs, ", "))
	}
	return nil
}
