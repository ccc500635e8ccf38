// Package server is the archmap HTTP API.
//
// It stores submitted analyses, serves their annotated element models,
// statistics, colors and exports, and hosts live overlay sessions over
// WebSocket: the browser reports its container, drags and camera moves, the
// server runs a view session against a [Remote] surface and streams element
// and camera changes back.
//
// Routes:
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/layouts
//	GET    /api/layouts/{name}
//	GET    /api/palette
//	POST   /api/analyses
//	GET    /api/analyses
//	GET    /api/analyses/{id}
//	DELETE /api/analyses/{id}
//	GET    /api/analyses/{id}/elements
//	GET    /api/analyses/{id}/stats
//	GET    /api/analyses/{id}/colors
//	GET    /api/analyses/{id}/export.{format}
//	GET    /api/analyses/{id}/live
//	GET    /api/live
//	GET    /api/session/last
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/archmap/pkg/cache"
	"github.com/matzehuels/archmap/pkg/config"
	"github.com/matzehuels/archmap/pkg/metrics"
	"github.com/matzehuels/archmap/pkg/palette"
	"github.com/matzehuels/archmap/pkg/storage"
)

// SessionHeader carries the client session used to remember the last
// analysis a client submitted.
const SessionHeader = "X-Archmap-Session"

// Options configures a Server.
type Options struct {
	Server config.ServerConfig
	View   config.ViewConfig

	Store   storage.Store
	Cache   cache.Cache
	Keys    cache.Keyer
	Metrics *metrics.Registry
	Logger  *log.Logger

	// Palette builds the color registry of each request or live session.
	// Nil uses the curated palette.
	Palette func() *palette.Registry

	// PaletteID distinguishes cached element models built with different
	// palettes. Empty means the curated palette.
	PaletteID string

	// CacheTTL bounds cached element models and last-analysis pointers.
	CacheTTL time.Duration
}

// Server serves the HTTP API.
type Server struct {
	opts     Options
	logger   *log.Logger
	router   chi.Router
	upgrader websocket.Upgrader
}

// New creates a server. Missing collaborators get in-memory defaults.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keys == nil {
		opts.Keys = cache.NewDefaultKeyer()
	}
	if opts.Palette == nil {
		opts.Palette = palette.New
	}
	if opts.Server.MaxBodyBytes <= 0 {
		opts.Server.MaxBodyBytes = config.Default().Server.MaxBodyBytes
	}
	if opts.View.Layout == "" {
		opts.View.Layout = config.Default().View.Layout
	}
	opts.Cache = cache.Instrument(opts.Cache)

	s := &Server{
		opts:   opts,
		logger: opts.Logger.WithPrefix("server"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 16384,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/layouts", s.handleLayouts)
		r.Get("/layouts/{name}", s.handleLayout)
		r.Get("/palette", s.handlePalette)
		r.Get("/session/last", s.handleLastAnalysis)
		r.Get("/live", s.handleLive)

		r.Route("/analyses", func(r chi.Router) {
			r.Post("/", s.handleCreateAnalysis)
			r.Get("/", s.handleListAnalyses)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetAnalysis)
				r.Delete("/", s.handleDeleteAnalysis)
				r.Get("/elements", s.handleElements)
				r.Get("/stats", s.handleStats)
				r.Get("/colors", s.handleColors)
				r.Get("/export.{format}", s.handleExport)
				r.Get("/live", s.handleLive)
			})
		})
	})
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.opts.Server.ReadTimeout.Duration,
		WriteTimeout:      s.opts.Server.WriteTimeout.Duration,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.opts.Server.ShutdownTimeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.opts.Server.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range s.opts.Server.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
