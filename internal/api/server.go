// Package api serves the sake preference store and the sommelier over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeanpaul/sakemate/internal/logging"
	"github.com/jeanpaul/sakemate/internal/menu"
	"github.com/jeanpaul/sakemate/internal/session"
	"github.com/jeanpaul/sakemate/internal/store"
	"github.com/jeanpaul/sakemate/internal/types"
)

// Sommelier is the AI side of the API.
type Sommelier interface {
	AnalyzeSakeBrand(ctx context.Context, brandName string) types.BrandAnalysis
	AnalyzeMenuAndRecommend(ctx context.Context, doc menu.Image, userBrands []types.SakeBrand) (types.MenuAnalysisResult, error)
}

type Options struct {
	Addr              string
	CORSOrigins       []string
	RateLimitRequests int // zero disables rate limiting
	RateLimitWindow   time.Duration
	MaxImageBytes     int64
	ShutdownTimeout   time.Duration
}

type Server struct {
	store   *store.Store
	session *session.Session
	som     Sommelier
	opts    Options
	mw      *middlewares
}

func NewServer(st *store.Store, sess *session.Session, som Sommelier, opts Options) *Server {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = menu.DefaultMaxBytes
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = time.Minute
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{store: st, session: sess, som: som, opts: opts, mw: newMiddlewares(opts)}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.mw.cors)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", s.handleLive)
		r.Get("/ready", s.handleReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.mw.rateLimit)

		r.Get("/users", s.handleListUsers)
		r.Post("/users", s.handleAddUser)

		r.Get("/session", s.handleGetSession)
		r.Put("/session", s.handleSelectUser)
		r.Delete("/session", s.handleLogout)

		r.Get("/brands", s.handleListBrands)
		r.Post("/brands", s.handleAddBrand)
		r.Post("/brands/analyze", s.handleAnalyzeBrand)
		r.Delete("/brands/{id}", s.handleDeleteBrand)

		r.Post("/recommendations", s.handleRecommend)

		r.Delete("/data", s.handleClearAll)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "no such endpoint", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
	return r
}

// Serve listens on opts.Addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.opts.Addr).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
