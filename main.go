// ABOUTME: Entry point for the sales dashboard CLI, TUI, web UI and MCP server
// ABOUTME: Routes to subcommands based on arguments
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harperreed/salesdash/cli"
	"github.com/harperreed/salesdash/config"
)

const version = "0.2.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file path (default: ~/.config/salesdash/config.json)")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	// Handle version flag
	if *showVersion {
		fmt.Printf("salesdash version %s\n", version)
		os.Exit(0)
	}

	// Get remaining args after flags
	args := flag.Args()

	// If no command specified, show usage
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Config edits don't need the cache or journal
	if command == "config" {
		if err := cli.ConfigCommand(cfg, os.Stdout, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	switch command {
	case "dashboard", "fetch", "status", "cache", "history", "viz", "web", "mcp", "auth":
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	switch command {
	case "dashboard":
		err = cli.DashboardCommand(app, commandArgs)
	case "fetch":
		err = cli.FetchCommand(app, commandArgs)
	case "status":
		err = cli.StatusCommand(app, commandArgs)
	case "cache":
		err = cli.CacheCommand(app, commandArgs)
	case "history":
		err = cli.HistoryCommand(app, commandArgs)
	case "viz":
		err = cli.VizCommand(app, commandArgs)
	case "web":
		err = cli.WebCommand(app, commandArgs)
	case "mcp":
		err = cli.MCPCommand(app, version)
	case "auth":
		err = cli.AuthCommand(app, commandArgs)
	}
	app.Close()

	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Printf(`salesdash v%s - Sales performance dashboard

USAGE:
  salesdash [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/salesdash/config.json)

COMMANDS:
  dashboard              Interactive terminal dashboard
  fetch                  Load once and print the panels
  status                 Probe the endpoint and show cache and journal state
  cache                  Inspect or clear the offline snapshot
  history                List recent loads
  viz                    Funnel and team graphs
  web                    Serve the dashboard over HTTP
  mcp                    Start MCP server for Claude Desktop
  auth                   Authorize against the reporting endpoint
  config                 Show or change settings

FILTER FLAGS (dashboard, fetch, viz):
  --start <YYYY-MM-DD>     Range start; requires --end
  --end <YYYY-MM-DD>       Range end; requires --start
  --days <n>               Relative window (default: 365); ignored with a range
  --teamlead <name>        Restrict to one team lead
  --person <name>          Restrict to one salesperson
  --group <name>           Restrict to one group

DASHBOARD:
  salesdash dashboard
    --no-auto-refresh        Start with auto refresh off
    --interval <duration>    Auto refresh interval (default: from config, 30s)

  Keys: a apply • r refresh • R reset filters • t toggle auto refresh
        tab edit filters • [ ] page people • ↑/↓ scroll • q quit

FETCH:
  salesdash fetch
    --json                   Print the raw payload
    --summary                Print a short text summary
    --width <n>              Render width (default: terminal width or 100)
    --timeout <duration>     Give up waiting for retries (default: 2m)

  salesdash status         Probe the endpoint

CACHE:
  salesdash cache show     Show the cached snapshot
    --json                   Print the stored entry
  salesdash cache clear    Drop the cached snapshot

  salesdash history        List recent loads
    --limit <n>              Max rows (default: 20)

VIZ:
  salesdash viz funnel     Lead to close funnel graph
  salesdash viz teams      Team and salesperson graph
    --output <file>          Output file (default: stdout)
    --format <dot|svg>       Output format (default: dot)
    --fresh                  Load instead of using the cached snapshot

WEB:
  salesdash web
    --port <n>               Port to listen on (default: 8080)

AUTH:
  salesdash auth           Run the OAuth flow and store the token
    --port <n>               Callback port (default: 8080)

CONFIG:
  salesdash config show
  salesdash config path
  salesdash config set-endpoint <url>
  salesdash config auto-refresh on|off

EXAMPLES:
  # Point at the reporting endpoint
  salesdash config set-endpoint https://script.google.com/macros/s/XXXX/exec

  # Open the dashboard for the last 30 days
  salesdash dashboard --days 30

  # One team's January as plain text
  salesdash fetch --teamlead "Ana" --start 2025-01-01 --end 2025-01-31 > jan.txt

  # Funnel graph as SVG
  salesdash viz funnel --format svg --output funnel.svg

`, version)
}
