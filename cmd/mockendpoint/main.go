// ABOUTME: Local stand-in for the reporting endpoint
// ABOUTME: Serves generated sales payloads as callback-wrapped JSON with optional latency and failures
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/harperreed/salesdash/logging"
	"github.com/harperreed/salesdash/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var callbackName = regexp.MustCompile(`^[A-Za-z_$][\w$.]*$`)

func main() {
	port := flag.Int("port", 8090, "Port to listen on")
	latency := flag.Duration("latency", 300*time.Millisecond, "Delay before each response")
	failRate := flag.Float64("fail-rate", 0, "Fraction of requests answered with 503 (0-1)")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger, err := logging.New(*logLevel, "")
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           newHandler(*latency, *failRate, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("mock endpoint listening",
		zap.Int("port", *port),
		zap.Duration("latency", *latency),
		zap.Float64("fail_rate", *failRate))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Error: %v", err)
	}
}

func newHandler(latency time.Duration, failRate float64, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if latency > 0 {
			select {
			case <-time.After(latency):
			case <-r.Context().Done():
				return
			}
		}

		if failRate > 0 && rand.Float64() < failRate {
			logger.Info("injected failure", zap.String("query", r.URL.RawQuery))
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}

		filters, err := models.ParseFilters(r.URL.RawQuery)
		var body any
		if err == nil {
			err = filters.Validate()
		}
		if err != nil {
			body = map[string]any{"ok": false, "error": err.Error()}
		} else {
			body = generatePayload(filters, time.Now())
		}

		raw, err := json.Marshal(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		cb := r.URL.Query().Get("callback")
		if cb == "" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(raw)
			return
		}
		if !callbackName.MatchString(cb) {
			http.Error(w, "invalid callback", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = fmt.Fprintf(w, "%s(%s);", cb, raw)
		logger.Debug("served payload", zap.String("filters", filters.Encode()))
	})
}
