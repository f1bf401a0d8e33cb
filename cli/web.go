// ABOUTME: Web UI subcommand
// ABOUTME: Serves the HTML dashboard until interrupted
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/salesdash/web"
)

// WebCommand starts the web dashboard.
func WebCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("web", flag.ExitOnError)
	port := fs.Int("port", 8080, "Port to listen on")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := app.Client(ctx)
	if err != nil {
		return err
	}

	var server *web.Server
	if app.Journal != nil {
		server, err = web.NewServer(client, app.Snapshot, app.Journal, app.Logger.Named("web"))
	} else {
		server, err = web.NewServer(client, app.Snapshot, nil, app.Logger.Named("web"))
	}
	if err != nil {
		return err
	}
	defer server.Close()

	_, _ = fmt.Fprintf(app.Out, "Dashboard at http://localhost:%d\n", *port)
	return server.Start(ctx, *port)
}
