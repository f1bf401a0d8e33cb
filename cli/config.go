// ABOUTME: Config subcommands
// ABOUTME: Shows the effective settings and persists the endpoint and auto refresh choice
package cli

import (
	"fmt"
	"io"
	"net/url"

	"github.com/harperreed/salesdash/config"
)

// ConfigCommand handles `config show|path|set-endpoint|auto-refresh`.
func ConfigCommand(cfg *config.Config, out io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("config requires a subcommand (show, path, set-endpoint, auto-refresh)")
	}

	switch args[0] {
	case "show":
		raw, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(raw))
		return nil

	case "path":
		_, _ = fmt.Fprintln(out, cfg.Path())
		return nil

	case "set-endpoint":
		if len(args) < 2 {
			return fmt.Errorf("set-endpoint requires a URL")
		}
		u, err := url.Parse(args[1])
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid endpoint URL: %s", args[1])
		}
		if err := cfg.SetEndpoint(args[1]); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		_, _ = fmt.Fprintf(out, "✓ Endpoint set to %s\n", args[1])
		return nil

	case "auto-refresh":
		if len(args) < 2 || (args[1] != "on" && args[1] != "off") {
			return fmt.Errorf("auto-refresh requires on or off")
		}
		if err := cfg.SetAutoRefresh(args[1] == "on"); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		_, _ = fmt.Fprintf(out, "✓ Auto refresh %s\n", args[1])
		return nil

	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}
