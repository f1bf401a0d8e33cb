// ABOUTME: Snapshot cache and load history subcommands
// ABOUTME: cache show|clear inspects the fallback slot; history lists journaled loads
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/harperreed/salesdash/cache"
	"github.com/harperreed/salesdash/viz"
)

// CacheCommand handles `cache show` and `cache clear`.
func CacheCommand(app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("cache requires a subcommand (show or clear)")
	}

	switch args[0] {
	case "show":
		return cacheShow(app, args[1:])
	case "clear":
		if err := app.Snapshot.Clear(context.Background()); err != nil {
			return fmt.Errorf("failed to clear snapshot: %w", err)
		}
		_, _ = fmt.Fprintln(app.Out, "✓ Snapshot cleared")
		return nil
	default:
		return fmt.Errorf("unknown cache command: %s", args[0])
	}
}

func cacheShow(app *App, args []string) error {
	fs := flag.NewFlagSet("cache show", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the stored entry as JSON")
	_ = fs.Parse(args)

	entry, err := app.Snapshot.Peek(context.Background())
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			_, _ = fmt.Fprintln(app.Out, "No snapshot cached")
			return nil
		}
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	if *asJSON {
		raw, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		_, _ = fmt.Fprintln(app.Out, string(raw))
		return nil
	}

	freshness := "stale (not used for fallback)"
	if app.Snapshot.IsFresh(entry) {
		freshness = "fresh"
	}
	_, _ = fmt.Fprintf(app.Out, "Captured: %s (%s)\n", entry.CapturedAt().Format(time.RFC3339), humanize.Time(entry.CapturedAt()))
	_, _ = fmt.Fprintf(app.Out, "State:    %s\n", freshness)
	_, _ = fmt.Fprintf(app.Out, "Filters:  %s\n\n", entry.Filters)

	if stats, err := viz.GenerateDashboardStats(entry.Payload); err == nil {
		_, _ = fmt.Fprint(app.Out, viz.RenderDashboard(stats))
	}
	return nil
}

// HistoryCommand lists recent loads from the journal.
func HistoryCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum loads to show")
	_ = fs.Parse(args)

	if app.Journal == nil {
		return fmt.Errorf("load journal is not available")
	}

	loads, err := app.Journal.Recent(*limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(loads) == 0 {
		_, _ = fmt.Fprintln(app.Out, "No loads recorded")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tTRIGGER\tOUTCOME\tATTEMPT\tDURATION\tFILTERS\tERROR")
	_, _ = fmt.Fprintln(w, "----\t-------\t-------\t-------\t--------\t-------\t-----")

	for _, l := range loads {
		errMsg := "-"
		if l.ErrorMessage != nil && *l.ErrorMessage != "" {
			errMsg = *l.ErrorMessage
		}
		filters := l.Filters
		if filters == "" {
			filters = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%dms\t%s\t%s\n",
			humanize.Time(l.StartedAt), l.Trigger, l.Outcome, l.Attempt, l.Duration.Milliseconds(), filters, errMsg)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(app.Out, "\nTotal: %d load(s)\n", len(loads))
	return nil
}
