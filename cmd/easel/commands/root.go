package commands

import (
	"fmt"
	"os"

	"github.com/dyluth/easel/internal/client"
	"github.com/dyluth/easel/internal/printer"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	serverURL string
	sessionID string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "easel",
	Short: "Easel - collaborative canvas board client",
	Long: `Easel is a client for the Easel board service.

It creates sessions, lists and removes board items, moves viewers' focus and
follows a session's board live, either from the server's event stream or by
polling when streaming is unavailable.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("EASEL_SERVER", client.DefaultServer), "Easel server URL (env EASEL_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", os.Getenv("EASEL_SESSION"), "Session id (env EASEL_SESSION)")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// setup builds the printer and API client for a command.
func setup(cmd *cobra.Command) (*printer.Printer, *client.Client, error) {
	p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
	c, err := client.New(serverURL, sessionID, nil)
	if err != nil {
		return p, nil, p.Error("invalid server URL", err.Error(), nil, []string{"Pass a URL like --server http://localhost:8080"})
	}
	return p, c, nil
}

// setupSession is setup for commands that act on an existing session.
func setupSession(cmd *cobra.Command) (*printer.Printer, *client.Client, error) {
	p, c, err := setup(cmd)
	if err != nil {
		return p, nil, err
	}
	if c.SessionID() == "" {
		return p, nil, p.Error(
			"no session selected",
			fmt.Sprintf("'easel %s' acts on a session.", cmd.Name()),
			nil,
			[]string{"Create one:\n  easel session", "Select one with --session <id> or EASEL_SESSION"},
		)
	}
	return p, c, nil
}
