package commands

import (
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every item in the session and disconnect its viewers",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	p, c, err := setupSession(cmd)
	if err != nil {
		return err
	}

	out, err := c.Reset(cmd.Context())
	if err != nil {
		return p.APIError("reset session", err)
	}

	p.Success("Session %s reset (%d viewer(s) disconnected)\n", out.SessionID, out.Disconnected)
	return nil
}
