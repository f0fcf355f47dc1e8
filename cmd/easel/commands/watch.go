package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/easel/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchPoll     bool
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the session's board live",
	Long: `Print items as they are added, changed or removed, and focus requests.

By default the server's event stream is used. If the stream cannot be opened
or drops, watch falls back to polling the item list; --poll starts there.
Items already printed are never printed again as new, whichever way they
arrived.

Examples:
  easel watch -s $EASEL_SESSION
  easel watch --poll --interval=5s`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchPoll, "poll", false, "Poll the item list instead of streaming events")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", watch.DefaultPollInterval, "Poll interval")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	p, c, err := setupSession(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := watch.NewReconciler()
	var feed watch.Feed = watch.NewStreamFeed(c, c, rec)
	if watchPoll {
		feed = watch.NewPollFeed(c, watchInterval, rec)
	}

	p.Step("Watching session %s (%s)\n", c.SessionID(), feed.Name())
	err = feed.Run(ctx, p.Update)

	if err != nil && ctx.Err() == nil && feed.Name() == "stream" {
		if errors.Is(err, watch.ErrStreamEnded) {
			p.Warning("Event stream closed by the server, switching to polling\n")
		} else {
			p.Warning("Event stream unavailable (%v), switching to polling\n", err)
		}
		feed = watch.NewPollFeed(c, watchInterval, rec)
		err = feed.Run(ctx, p.Update)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return p.APIError("watch session", err)
	}
	return nil
}
