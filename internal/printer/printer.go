// Package printer writes the easel CLI's user-facing output.
package printer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dyluth/easel/internal/listing"
	"github.com/dyluth/easel/internal/watch"
	"github.com/dyluth/easel/pkg/board"
	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green   = color.New(color.FgGreen)
	yellow  = color.New(color.FgYellow)
	red     = color.New(color.FgRed, color.Bold)
	cyan    = color.New(color.FgCyan)
	magenta = color.New(color.FgMagenta)
)

// Printer writes to an output and an error stream.
type Printer struct {
	out io.Writer
	err io.Writer
}

// New creates a printer. Nil writers default to stdout and stderr.
func New(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{out: out, err: errOut}
}

// Out returns the output stream.
func (p *Printer) Out() io.Writer {
	return p.out
}

// Success prints a success message in green with a checkmark prefix
func (p *Printer) Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(p.out, msg)
}

// Info prints an informational message in the default color
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// Warning prints a warning message in yellow to the error stream
func (p *Printer) Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		msg = "⚠️  " + msg
	}
	yellow.Fprint(p.err, msg)
}

// Step prints a step message with emphasis
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.out, "→ %s", fmt.Sprintf(format, a...))
}

// Error prints a title, explanation, optional context and suggestions to the
// error stream, and returns an error carrying only the title for Cobra.
func (p *Printer) Error(title, explanation string, context map[string]string, suggestions []string) error {
	red.Fprintf(p.err, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(p.err, "%s\n", explanation)
	}

	if len(context) > 0 {
		keys := make([]string, 0, len(context))
		for key := range context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(p.err, "\n")
		for _, key := range keys {
			fmt.Fprintf(p.err, "  %s: %s\n", key, context[key])
		}
	}

	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(p.err, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(p.err, "\nEither:\n")
		for i, suggestion := range suggestions {
			fmt.Fprintf(p.err, "  %d. %s\n", i+1, suggestion)
		}
	}

	return fmt.Errorf("%s", title)
}

// APIError renders a server error with a remedy for the common codes.
// Errors that are not server errors are rendered as failures to reach it.
func (p *Printer) APIError(action string, err error) error {
	var bErr *board.Error
	if !errors.As(err, &bErr) {
		return p.Error(
			fmt.Sprintf("failed to %s", action),
			err.Error(),
			nil,
			[]string{"Check that easeld is running and --server (or EASEL_SERVER) points at it"},
		)
	}

	context := map[string]string{"Code": string(bErr.Code)}
	if fields, ok := bErr.Details["fields"].(map[string]any); ok {
		for name, problem := range fields {
			context[name] = fmt.Sprint(problem)
		}
	}

	var suggestions []string
	switch bErr.Code {
	case board.ErrSessionRequired:
		suggestions = []string{"Create a session first:\n  easel session", "Pass an existing one with --session or EASEL_SESSION"}
	case board.ErrNotFound:
		suggestions = []string{"List the session's items:\n  easel items"}
	case board.ErrSessionBusy:
		suggestions = []string{"Another change to this session is in progress; retry shortly"}
	}

	return p.Error(fmt.Sprintf("failed to %s", action), bErr.Message, context, suggestions)
}

// Update prints one applied watch update.
func (p *Printer) Update(u watch.Update) {
	switch u.Kind {
	case watch.UpdateAdded:
		green.Fprintf(p.out, "+ %s %-13s %s\n", u.Item.ID, u.Item.Type, listing.Summary(&u.Item))
	case watch.UpdateChanged:
		cyan.Fprintf(p.out, "~ %s %-13s %s\n", u.Item.ID, u.Item.Type, listing.Summary(&u.Item))
	case watch.UpdateRemoved:
		yellow.Fprintf(p.out, "- %s\n", strings.Join(u.ItemIDs, " "))
	case watch.UpdateFocus:
		target := u.Focus.ItemID
		if u.Focus.SubElement != "" {
			target += "#" + u.Focus.SubElement
		}
		magenta.Fprintf(p.out, "◎ focus %s (zoom %.1f)\n", target, u.Focus.FocusOptions.Zoom)
	case watch.UpdateReset:
		red.Fprintf(p.out, "✗ session reset\n")
	}
}
