package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/csrf"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"craftcal/internal/config"
	"craftcal/internal/feed"
	appLog "craftcal/internal/log"
	"craftcal/internal/submission"
)

// Options carries the server's injectable collaborators. Zero values use
// production defaults.
type Options struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// HTTPClient is used for feed and submission calls when set.
	HTTPClient *http.Client
}

// Server serves the navigation shell, its three pages and the supporting
// API. It keeps no per-user state: every request builds its own calendar
// view, form and pickers.
type Server struct {
	cfgMu sync.RWMutex
	cfg   *config.Config

	mux   *http.ServeMux
	pages *pages
	guard *submission.Guard

	now        func() time.Time
	httpClient *http.Client
}

// NewServer constructs a Server. Template or about-page errors are
// returned because they are programming errors in embedded assets.
func NewServer(cfg *config.Config, opts Options) (*Server, error) {
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		cfg:        cfg,
		mux:        http.NewServeMux(),
		pages:      p,
		guard:      submission.NewGuard(),
		now:        opts.Now,
		httpClient: opts.HTTPClient,
	}
	s.registerRoutes()
	return s, nil
}

// SetConfig swaps the configuration, e.g. after a hot reload.
func (s *Server) SetConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

func (s *Server) config() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// Handler returns the root http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if key := s.config().CSRFKey; len(key) == 32 {
		appLog.Info("CSRF protection enabled")
		protect := csrf.Protect([]byte(key), csrf.Path("/"), csrf.Secure(false))
		h = plaintextMarker(protect(h))
	} else if key != "" {
		appLog.Info("csrf_key ignored: must be exactly 32 bytes", "length", len(key))
	}
	return loggingMiddleware(h)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	s.mux.HandleFunc("GET /about", s.handleAbout)
	s.mux.HandleFunc("GET /calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /submit-event", s.handleSubmitForm)
	s.mux.HandleFunc("POST /submit-event", s.handleSubmit)

	s.mux.HandleFunc("GET /api/calendar", s.handleCalendarAPI)
	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendarICS)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)

	// Everything else, "/" included, lands on the About tab.
	s.mux.HandleFunc("/", s.handleFallback)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleFallback(w http.ResponseWriter, r *http.Request) {
	// API clients get a JSON 404 rather than an HTML redirect.
	if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	http.Redirect(w, r, "/about", http.StatusFound)
}

// handlePreview serves the last captured calendar PNG.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.config().Snapshot.Output)
}

func (s *Server) fetcher(cfg *config.Config) *feed.Fetcher {
	f := feed.NewFetcher(cfg.Endpoint, time.Duration(cfg.RequestTimeoutSeconds)*time.Second)
	if s.httpClient != nil {
		f.WithClient(s.httpClient)
	}
	return f
}

func (s *Server) submitter(cfg *config.Config) *submission.Client {
	c := submission.NewClient(cfg.Endpoint, time.Duration(cfg.RequestTimeoutSeconds)*time.Second)
	if s.httpClient != nil {
		c.WithClient(s.httpClient)
	}
	return c
}

// today returns now in the configured display zone.
func (s *Server) today(cfg *config.Config) time.Time {
	return s.now().In(resolveLocationOrLocal(cfg.Timezone))
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
