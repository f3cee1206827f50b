// Package server exposes the resolved documents, port probing and the log
// stream over HTTP for the management UI.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"mofox-ui/pkg/document"
	"mofox-ui/pkg/logtail"
	"mofox-ui/pkg/startup"
)

const shutdownTimeout = 5 * time.Second

// Config configures a Server.
type Config struct {
	State        *startup.State
	Logger       *slog.Logger
	PollInterval time.Duration // log tail poll interval
}

// Server is the HTTP and WebSocket surface.
type Server struct {
	state        *startup.State
	stores       map[string]*document.Store
	logger       *slog.Logger
	pollInterval time.Duration
	router       chi.Router
}

// New builds a Server for a finished startup state. Each document gets one
// Store, so concurrent updates to the same file are serialized.
func New(cfg Config) (*Server, error) {
	if cfg.State == nil {
		return nil, errors.New("server: startup state is required")
	}
	s := &Server{
		state:        cfg.State,
		stores:       make(map[string]*document.Store, len(startup.Documents)),
		logger:       cfg.Logger,
		pollInterval: cfg.PollInterval,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	for _, name := range startup.Documents {
		path, _ := cfg.State.DocumentPath(name)
		s.stores[name] = document.NewStore(path)
	}
	s.router = s.buildRouter()
	return s, nil
}

// ServeHTTP delegates to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  func(*http.Request, string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/paths", s.handlePaths)
		r.Post("/check-ports", s.handleCheckPorts)
	})
	r.Get("/config/{name}", s.handleConfigGet)
	r.Post("/config/{name}", s.handleConfigUpdate)
	r.Get("/ws/logs", s.handleLogs)

	return r
}

// ListenAndServe listens on addr and serves until ctx is done, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done. Open log streams end with ctx.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func (s *Server) tailOptions(logger *slog.Logger) logtail.Options {
	return logtail.Options{Interval: s.pollInterval, Logger: logger}
}

// requestLogger logs one line per request with slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
