// ABOUTME: One-shot load and status probe subcommands
// ABOUTME: fetch runs a manual load through the coordinator and prints the regions
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/harperreed/salesdash/cache"
	"github.com/harperreed/salesdash/loader"
	"github.com/harperreed/salesdash/panels"
	"github.com/harperreed/salesdash/viz"
)

// ErrLoadFailed is returned when a load ends without anything to show.
var ErrLoadFailed = errors.New("load failed")

// FetchCommand performs one manual load and prints the result.
func FetchCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the raw payload as JSON")
	summary := fs.Bool("summary", false, "Print a short text summary instead of the panels")
	width := fs.Int("width", 0, "Render width (default: terminal width or 100)")
	timeout := fs.Duration("timeout", 2*time.Minute, "Give up waiting for retries after this long")
	filterArgs := addFilterFlags(fs)
	_ = fs.Parse(args)

	filters, err := filterArgs.filters()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	coord, capture, err := app.headlessLoad(ctx, filters)
	if err != nil {
		return err
	}
	defer coord.Close()

	res, err := capture.Settle(ctx, coord, loader.TriggerManual)
	if err != nil {
		return fmt.Errorf("load interrupted: %w", err)
	}
	latest := capture.Latest()
	_, _ = fmt.Fprintf(os.Stderr, "%s • %s • %s\n", latest.Status, filters.Describe(), res.Outcome)
	for _, w := range res.Warnings {
		_, _ = fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if res.Payload == nil {
		if res.Err != nil {
			return fmt.Errorf("%w: %v", ErrLoadFailed, res.Err)
		}
		return ErrLoadFailed
	}

	switch {
	case *asJSON:
		raw, err := res.Payload.MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		_, _ = fmt.Fprintln(app.Out, string(raw))
		return nil
	case *summary:
		stats, err := viz.GenerateDashboardStats(res.Payload)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(app.Out, viz.RenderDashboard(stats))
		return nil
	}

	dashboardPanels, _ := panels.DefaultPanels()
	dispatcher := panels.NewDispatcher(app.Logger.Named("panels"), dashboardPanels...)
	printRegions(app, dispatcher.Dispatch(res.Payload, renderWidth(*width)), renderWidth(*width))
	return nil
}

// printRegions styles the grid for a terminal and falls back to plain text
// when stdout is redirected.
func printRegions(app *App, regions []panels.Region, width int) {
	if app.Out == os.Stdout && term.IsTerminal(int(os.Stdout.Fd())) {
		columns := 1
		if width >= 100 {
			columns = 2
		}
		_, _ = fmt.Fprintln(app.Out, panels.Grid(regions, width, columns))
		return
	}
	for _, r := range regions {
		_, _ = fmt.Fprintln(app.Out, r.Plain())
	}
}

func renderWidth(requested int) int {
	if requested > 0 {
		return requested
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}

// StatusCommand probes the endpoint and reports the cache and journal state.
func StatusCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	_ = fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var probeErr error
	client, err := app.Client(ctx)
	if err != nil {
		probeErr = err
		_, _ = fmt.Fprintf(app.Out, "Endpoint:   %v\n", err)
	} else {
		latency, err := client.Ping(ctx)
		if err != nil {
			probeErr = err
			_, _ = fmt.Fprintf(app.Out, "Endpoint:   %s\n            unreachable: %v\n", client.Endpoint(), err)
		} else {
			_, _ = fmt.Fprintf(app.Out, "Endpoint:   %s\n            ok (%dms)\n", client.Endpoint(), latency.Milliseconds())
		}
	}

	entry, err := app.Snapshot.Peek(ctx)
	switch {
	case err == nil:
		freshness := "stale"
		if app.Snapshot.IsFresh(entry) {
			freshness = "fresh"
		}
		_, _ = fmt.Fprintf(app.Out, "Snapshot:   %s, captured %s (%s)\n", freshness, humanize.Time(entry.CapturedAt()), entry.Filters)
	case errors.Is(err, cache.ErrNotFound):
		_, _ = fmt.Fprintln(app.Out, "Snapshot:   none")
	default:
		_, _ = fmt.Fprintf(app.Out, "Snapshot:   unreadable: %v\n", err)
	}

	if app.Journal != nil {
		state, err := app.Journal.State()
		if err != nil {
			return fmt.Errorf("failed to read load state: %w", err)
		}
		if state == nil {
			_, _ = fmt.Fprintln(app.Out, "Last load:  never")
		} else {
			_, _ = fmt.Fprintf(app.Out, "Last load:  %s, %s\n", state.Status, humanize.Time(state.LastAttemptAt))
			if state.LastSuccessAt != nil {
				_, _ = fmt.Fprintf(app.Out, "Last good:  %s\n", humanize.Time(*state.LastSuccessAt))
			}
			if state.ErrorMessage != nil && *state.ErrorMessage != "" {
				_, _ = fmt.Fprintf(app.Out, "Last error: %s\n", *state.ErrorMessage)
			}
		}
	}

	return probeErr
}
