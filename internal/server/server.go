// Package server wires the CRM components into an HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BigLep01/CRMdev/internal/components"
	"github.com/BigLep01/CRMdev/internal/query"
	"github.com/BigLep01/CRMdev/internal/ui"
)

// Server serves the dashboard, the company pages and the component routes.
type Server struct {
	store  query.Collaborator
	set    *components.Set
	router chi.Router
	log    *zap.Logger

	shutdownTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithShutdownTimeout bounds how long Run waits for in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// New builds a server over store. key signs component props.
func New(store query.Collaborator, key []byte, opts ...Option) *Server {
	s := &Server{
		store:           store,
		log:             zap.NewNop(),
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	reg := ui.NewRegistry(key, ui.WithLogger(s.log))
	s.set = components.Init(reg, store, s.log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/", s.dashboard)
	r.Get("/companies/{id}", s.company)
	r.Get("/healthz", s.healthz)
	r.Handle("/_c/*", reg.Handler())
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.log),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		s.log.Info("shutting down", zap.Duration("timeout", s.shutdownTimeout))
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.set.Wait()
	return err
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	companies, err := s.set.Companies.Prerender(r.Context(), components.CompaniesListProps{})
	if err != nil {
		s.log.Error("list companies", zap.Error(err))
		http.Error(w, "Could not load companies", http.StatusBadGateway)
		return
	}
	s.render(w, r, s.set.DashboardPage(companies))
}

func (s *Server) company(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res := s.store.Query(r.Context(), "companies", []string{"id"}, []query.Criterion{query.Eq("id", id)})
	switch {
	case !res.OK():
		s.log.Error("load company", zap.String("id", id), zap.Error(res.Err))
		http.Error(w, "Could not load company", http.StatusBadGateway)
		return
	case res.First() == nil:
		http.NotFound(w, r)
		return
	}
	s.render(w, r, s.set.CompanyPage(id))
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, page templ.Component) {
	if err := ui.Render(w, r, page); err != nil {
		s.log.Warn("render page", zap.String("path", r.URL.Path), zap.Error(err))
	}
}
