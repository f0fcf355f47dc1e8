package commands

import (
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Create a session, or describe the selected one",
	Long: `Without --session, asks the server for a new session and prints its id,
so it can be captured by scripts:

  export EASEL_SESSION=$(easel session)

With --session, prints the session's item count, creation time and the number
of viewers connected to this server.`,
	Args: cobra.NoArgs,
	RunE: runSession,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	p, c, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if c.SessionID() == "" {
		info, err := c.CreateSession(ctx)
		if err != nil {
			return p.APIError("create session", err)
		}
		p.Info("%s\n", info.SessionID)
		return nil
	}

	info, err := c.Session(ctx)
	if err != nil {
		return p.APIError("describe session", err)
	}
	p.Info("Session:   %s\n", info.SessionID)
	p.Info("Items:     %d\n", info.ItemCount)
	p.Info("Created:   %s\n", info.CreatedAt)
	p.Info("Viewers:   %d\n", info.ConnectedClients)
	return nil
}
