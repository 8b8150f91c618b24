// Package web provides the HTTP server and handlers for the duty summary UI.
//
// Each browser session owns one core.Controller, found through a session
// cookie. GET / always starts a fresh session, so a reload starts at Idle.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/dutysummary/internal/config"
	"github.com/JonMunkholm/dutysummary/internal/core"
	"github.com/JonMunkholm/dutysummary/internal/web/middleware"
	"github.com/JonMunkholm/dutysummary/internal/web/templates"
)

// AuditLog reads back recorded workflow events. Optional.
type AuditLog interface {
	Recent(ctx context.Context, limit int) ([]core.AuditEvent, error)
}

// Server is the HTTP server for the duty summary application.
type Server struct {
	cfg       *config.Config
	limiter   *core.Limiter
	sessions  *SessionStore
	downloads *DownloadStore
	auditLog  AuditLog
	router    *chi.Mux
	server    *http.Server

	rateLimiters []*rateLimiter
}

// NewServer creates a new Server instance. newController builds a fresh Idle
// controller for a session ID; auditLog may be nil.
func NewServer(cfg *config.Config, limiter *core.Limiter, newController func(id string) *core.Controller, auditLog AuditLog) *Server {
	s := &Server{
		cfg:       cfg,
		limiter:   limiter,
		sessions:  NewSessionStore(cfg.Session.TTL, cfg.Session.MaxSessions, newController),
		downloads: NewDownloadStore(cfg.Export.DownloadTTL),
		auditLog:  auditLog,
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// A page load always starts over
	s.router.Get("/", s.handleIndex)

	// Workflow commands, bound to the session cookie
	s.router.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		roundTrip := func(next http.Handler) http.Handler { return next }
		if s.cfg.Rate.Enabled {
			roundTrip = s.newRateLimiter(s.cfg.Rate.RoundTripLimit).middleware
		}

		r.Get("/state", s.handleState)
		r.Post("/select", s.handleSelect)
		r.With(roundTrip).Post("/submit", s.handleSubmit)
		r.Post("/rows/{index}", s.handleEditRow)
		r.Post("/problems", s.handleProblems)
		r.With(roundTrip).Post("/export", s.handleExport)
		r.Get("/download/{token}", s.handleDownload)
		r.Get("/snapshot.xlsx", s.handleSnapshot)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))
		r.Get("/status", s.handleStatus)
		r.Get("/audit", s.handleAuditLog)
	})
}

func (s *Server) newRateLimiter(perMinute int) *rateLimiter {
	rl := newRateLimiter(perMinute, time.Minute)
	s.rateLimiters = append(s.rateLimiters, rl)
	return rl
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.rateLimiters {
		rl.Stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Sessions returns the session store so main can run its sweeper.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	csp := "default-src 'self'; script-src 'self' " + templates.HTMXOrigin +
		"; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'; frame-ancestors 'none'"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			if enableCSP {
				w.Header().Set("Content-Security-Policy", csp)
			}

			// Control referrer information
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// requireSession resolves the session cookie to a controller.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.cfg.Session.CookieName)
		if err != nil {
			s.respondError(w, r, errSessionNotFound, http.StatusGone)
			return
		}
		c, ok := s.sessions.Get(cookie.Value)
		if !ok {
			s.respondError(w, r, errSessionNotFound, http.StatusGone)
			return
		}
		next.ServeHTTP(w, r.WithContext(withController(r.Context(), c)))
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
