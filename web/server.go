// ABOUTME: Web UI server with embedded templates
// ABOUTME: Renders the dashboard regions as HTML; apply and reset go through the load coordinator
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/harperreed/salesdash/cache"
	"github.com/harperreed/salesdash/handlers"
	"github.com/harperreed/salesdash/loader"
	"github.com/harperreed/salesdash/models"
	"github.com/harperreed/salesdash/panels"
	"github.com/harperreed/salesdash/viz"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed templates/*
var templatesFS embed.FS

// regionWidth is the text width panels are rendered at for HTML output.
const regionWidth = 72

type Server struct {
	coord      *loader.Coordinator
	capture    *loader.Capture
	snapshot   *cache.Snapshot
	dispatcher *panels.Dispatcher
	templates  *template.Template
	logger     *zap.Logger

	loadMu  sync.Mutex
	mu      sync.Mutex
	filters models.Filters
	loaded  bool
}

// NewServer wires a headless coordinator. recorder may be nil.
func NewServer(fetcher loader.Fetcher, snapshot *cache.Snapshot, recorder loader.Recorder, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	dashboardPanels, _ := panels.DefaultPanels()
	s := &Server{
		capture:    loader.NewCapture(),
		snapshot:   snapshot,
		dispatcher: panels.NewDispatcher(logger.Named("panels"), dashboardPanels...),
		templates:  tmpl,
		logger:     logger,
		filters:    models.DefaultFilters(),
	}

	cfg := loader.Config{
		Fetcher:  fetcher,
		Cache:    snapshot,
		Renderer: s.capture,
		View:     s.capture,
		Filters:  s.currentFilters,
		Logger:   logger.Named("loader"),
	}
	if recorder != nil {
		cfg.Recorder = recorder
	}
	coord, err := loader.New(cfg)
	if err != nil {
		return nil, err
	}
	s.coord = coord
	return s, nil
}

// Close stops any pending retry.
func (s *Server) Close() {
	s.coord.Close()
}

func (s *Server) currentFilters() models.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("POST /apply", s.handleApply)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /graph/funnel", s.handleFunnelGraph)
	return mux
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting web server", zap.String("addr", "http://localhost"+addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// load runs one manual load with f and waits for any retry chain.
func (s *Server) load(ctx context.Context, f models.Filters) loader.Result {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	s.filters = f
	s.loaded = true
	s.mu.Unlock()

	res, err := s.capture.Settle(ctx, s.coord, loader.TriggerManual)
	if err != nil {
		s.logger.Warn("load interrupted", zap.Error(err))
	}
	return res
}

type regionView struct {
	Title string
	State string
	Body  string
}

type dashboardData struct {
	Title       string
	Status      string
	Source      string
	Filters     models.Filters
	Description string
	Busy        bool
	Regions     []regionView
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if !loaded {
		s.load(r.Context(), s.currentFilters())
	}

	latest := s.capture.Latest()
	var regions []panels.Region
	if latest.Payload != nil {
		regions = s.dispatcher.Dispatch(latest.Payload, regionWidth)
	}
	if latest.Fallback != nil {
		regions = panels.Merge(regions, s.dispatcher.Fallback(latest.Fallback))
	}

	filters := s.currentFilters()
	data := dashboardData{
		Title:       "Sales Dashboard",
		Status:      latest.Status.String(),
		Filters:     filters,
		Description: filters.Describe(),
		Busy:        latest.Busy,
	}
	if latest.Payload != nil {
		data.Source = latest.Source.String()
	}
	for _, region := range regions {
		data.Regions = append(data.Regions, regionView{
			Title: region.Title,
			State: region.State.String(),
			Body:  region.Body,
		})
	}

	s.renderTemplate(w, "dashboard.html", data)
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template error", zap.String("template", name), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	input := handlers.LoadDashboardInput{
		Start:    r.FormValue("start"),
		End:      r.FormValue("end"),
		TeamLead: r.FormValue("teamlead"),
		Person:   r.FormValue("person"),
		Group:    r.FormValue("group"),
	}
	if days := r.FormValue("days"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil {
			http.Error(w, "days must be a number", http.StatusBadRequest)
			return
		}
		input.Days = n
	}
	filters, err := handlers.FiltersFromInput(input)
	if err != nil {
		http.Error(w, "invalid filters: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.load(r.Context(), filters)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.load(r.Context(), models.DefaultFilters())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	entry, err := s.snapshot.Peek(r.Context())
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			http.Error(w, "no snapshot", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Snapshot-Fresh", strconv.FormatBool(s.snapshot.IsFresh(entry)))
	if err := json.NewEncoder(w).Encode(entry); err != nil {
		s.logger.Warn("failed to write snapshot", zap.Error(err))
	}
}

func (s *Server) handleFunnelGraph(w http.ResponseWriter, r *http.Request) {
	payload := s.capture.Latest().Payload
	if payload == nil {
		http.Error(w, "no data loaded", http.StatusNotFound)
		return
	}

	generator, err := viz.NewGraphGenerator(payload).WithFormat("svg")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	svg, err := generator.GenerateFunnelGraph(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write([]byte(svg))
}
