// ABOUTME: Visualization CLI commands
// ABOUTME: Renders the funnel and team graphs from the cached snapshot or a fresh load
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/salesdash/loader"
	"github.com/harperreed/salesdash/models"
	"github.com/harperreed/salesdash/viz"
)

// VizCommand handles `viz funnel` and `viz teams`.
func VizCommand(app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("viz requires a graph type (funnel or teams)")
	}
	graphType := args[0]

	fs := flag.NewFlagSet("viz "+graphType, flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	format := fs.String("format", "dot", "Output format: dot or svg")
	fresh := fs.Bool("fresh", false, "Load from the endpoint instead of the cached snapshot")
	filterArgs := addFilterFlags(fs)
	_ = fs.Parse(args[1:])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	payload, err := vizPayload(ctx, app, *fresh, filterArgs)
	if err != nil {
		return err
	}

	generator, err := viz.NewGraphGenerator(payload).WithFormat(*format)
	if err != nil {
		return err
	}

	var out string
	switch graphType {
	case "funnel":
		out, err = generator.GenerateFunnelGraph(ctx)
	case "teams":
		out, err = generator.GenerateTeamGraph(ctx)
	default:
		return fmt.Errorf("unknown graph type: %s", graphType)
	}
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(out), 0644)
	}

	_, _ = fmt.Fprintln(app.Out, out)
	return nil
}

// vizPayload prefers the cached snapshot and loads when there is none.
func vizPayload(ctx context.Context, app *App, fresh bool, filterArgs filterFlags) (*models.Payload, error) {
	if !fresh {
		if entry, err := app.Snapshot.Peek(ctx); err == nil {
			return entry.Payload, nil
		}
	}

	filters, err := filterArgs.filters()
	if err != nil {
		return nil, err
	}
	coord, capture, err := app.headlessLoad(ctx, filters)
	if err != nil {
		return nil, err
	}
	defer coord.Close()

	res, err := capture.Settle(ctx, coord, loader.TriggerManual)
	if err != nil {
		return nil, fmt.Errorf("load interrupted: %w", err)
	}
	if res.Payload == nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, res.Err)
	}
	return res.Payload, nil
}
