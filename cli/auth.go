// ABOUTME: OAuth setup for endpoints deployed behind Google sign-in
// ABOUTME: Runs the browser consent flow and stores the token where the endpoint client finds it
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/harperreed/salesdash/transport"
)

// AuthCommand handles OAuth setup
func AuthCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	port := fs.Int("port", 8080, "Local port for the OAuth callback")
	_ = fs.Parse(args)

	ctx := context.Background()

	redirectURL := fmt.Sprintf("http://localhost:%d/oauth/callback", *port)
	config, err := transport.NewOAuthConfig(redirectURL)
	if err != nil {
		return fmt.Errorf("failed to get OAuth config: %w", err)
	}

	state := uuid.NewString()

	// Start local server for OAuth callback
	callbackChan := make(chan *oauth2.Token, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			errChan <- fmt.Errorf("state mismatch in OAuth callback")
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := config.Exchange(ctx, code)
		if err != nil {
			errChan <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}

		callbackChan <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: fmt.Sprintf(":%d", *port), Handler: mux}
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline)

	_, _ = fmt.Fprintln(app.Out, "Opening browser for Google sign-in...")
	_, _ = fmt.Fprintf(app.Out, "\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)

	_ = openBrowser(authURL)

	select {
	case token := <-callbackChan:
		_ = server.Shutdown(ctx)

		if err := transport.SaveToken(app.Config.TokenFile, token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}

		_, _ = fmt.Fprintf(app.Out, "\n✓ Authenticated successfully\n")
		_, _ = fmt.Fprintf(app.Out, "✓ Token saved to %s\n\n", app.Config.TokenFile)
		_, _ = fmt.Fprintln(app.Out, "Run 'salesdash status' to check the endpoint.")
		return nil

	case err := <-errChan:
		_ = server.Shutdown(ctx)
		return fmt.Errorf("OAuth flow failed: %w", err)
	}
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	command := exec.Command(cmd, args...)
	return command.Start()
}
