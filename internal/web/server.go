// Package web serves the import API: report uploads per importer, batch SKU
// matching, stock lookups, a read-only tour API proxy and metrics.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/merchdesk/internal/config"
	"github.com/JonMunkholm/merchdesk/internal/importer"
	"github.com/JonMunkholm/merchdesk/internal/ledger"
	"github.com/JonMunkholm/merchdesk/internal/mastertour"
	"github.com/JonMunkholm/merchdesk/internal/skumatch"
	"github.com/JonMunkholm/merchdesk/internal/store"
	"github.com/JonMunkholm/merchdesk/internal/web/middleware"
)

// TourSource is the tour API the server proxies.
type TourSource interface {
	Tours(ctx context.Context) ([]mastertour.Tour, error)
	Tour(ctx context.Context, tourID string) (mastertour.Tour, error)
	TourCrew(ctx context.Context, tourID string) ([]mastertour.CrewMember, error)
	DayEvents(ctx context.Context, dayID string) ([]mastertour.Event, error)
	GuestList(ctx context.Context, eventID string) ([]mastertour.GuestListEntry, error)
	SetList(ctx context.Context, eventID string) ([]mastertour.SetListEntry, error)
}

// Server is the HTTP server.
type Server struct {
	cfg      *config.Config
	runner   *importer.Runner
	matcher  *skumatch.Matcher
	ledger   *ledger.Ledger
	tours    TourSource
	validate *validator.Validate
	limiter  *rateLimiter
	router   *chi.Mux
	server   *http.Server
}

// NewServer wires the routes and middleware. Call Run to serve.
func NewServer(cfg *config.Config, st store.Store, runner *importer.Runner, tours TourSource) *Server {
	s := &Server{
		cfg:      cfg,
		runner:   runner,
		matcher:  skumatch.New(st),
		ledger:   ledger.New(st),
		tours:    tours,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		limiter:  newRateLimiter(100, time.Minute),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))
		r.Use(s.limiter.middleware)

		r.Get("/imports", s.handleListImports)
		r.Post("/import/{kind}", s.handleImport)

		r.Post("/sku/match", s.handleMatch)
		r.Get("/stock/{sku}", s.handleStock)

		r.Route("/mastertour", func(r chi.Router) {
			r.Get("/tours", s.handleTours)
			r.Get("/tours/{id}", s.handleTour)
			r.Get("/tours/{id}/crew", s.handleTourCrew)
			r.Get("/days/{id}/events", s.handleDayEvents)
			r.Get("/events/{id}/guestlist", s.handleGuestList)
			r.Get("/events/{id}/setlist", s.handleSetList)
		})
	})
}

func (s *Server) httpServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
}

// Run serves until ctx ends and then shuts down. It returns only after
// Shutdown has finished, so running imports complete before the caller
// releases the database.
func (s *Server) Run(ctx context.Context) error {
	s.server = s.httpServer()
	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.limiter.stop()
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	if status := s.runner.Limiter().Status(); status.Active > 0 {
		slog.Info("waiting for imports to complete", "active", status.Active)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	shutdownErr := s.Shutdown(shutdownCtx)

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return shutdownErr
}

// Shutdown stops accepting requests, waits for in-flight requests and
// running imports, then returns. The import drain happens even when the
// listener was never started.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.stop()
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.runner.Limiter().WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter is a fixed-window limiter per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
	done     chan struct{}
	once     sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup drops visitors idle for two windows.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok || time.Since(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: time.Now()}
		return true
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondError(w, r, errRateLimited, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
