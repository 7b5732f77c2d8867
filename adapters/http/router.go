// Package http exposes Zacre over HTTP: the layout and page admin API,
// the module dispatch endpoints, sign-in, static assets and the
// catch-all page renderer.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/zacre/adapters/metrics"
	"github.com/artpar/zacre/app"
	"github.com/artpar/zacre/ports"
	"github.com/artpar/zacre/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Services are the application services behind the routes.
type Services struct {
	Layouts    *app.LayoutService
	Pages      *app.PageService
	Assembler  *app.Assembler
	Dispatcher *app.Dispatcher
	Auth       *app.AuthService
}

// RouterConfig holds the router collaborators.
type RouterConfig struct {
	Services Services
	Sessions ports.AuthProvider
	Assets   *web.Assets
	Health   HealthChecker

	// CookieName names the session cookie; CookieSecure marks it Secure.
	CookieName   string
	CookieSecure bool

	Metrics        *metrics.Collector
	MetricsHandler http.Handler
	MetricsPath    string
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP router.
func NewRouter(cfg RouterConfig, logger zerolog.Logger) chi.Router {
	if cfg.CookieName == "" {
		cfg.CookieName = "token"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger, cfg.MetricsPath))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics, cfg.MetricsPath))
	}
	r.Use(NewSessionMiddleware(cfg.Sessions))

	health := NewHealthHandler(cfg.Health)
	r.Get("/health", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.MetricsHandler != nil {
		r.Handle(cfg.MetricsPath, cfg.MetricsHandler)
	} else if cfg.Metrics != nil {
		r.Handle(cfg.MetricsPath, promhttp.Handler())
	}

	h := &handlers{svc: cfg.Services, cookieName: cfg.CookieName, cookieSecure: cfg.CookieSecure, logger: logger}

	r.Route("/api", func(r chi.Router) {
		r.Route("/layouts", func(r chi.Router) {
			r.Use(RequireRole("admin"))
			r.Get("/", h.listLayouts)
			r.Post("/", h.createLayout)
			r.Get("/{id}", h.getLayout)
			r.Put("/{id}", h.updateLayout)
			r.Delete("/{id}", h.deleteLayout)
		})
		r.Route("/pages", func(r chi.Router) {
			r.Use(RequireRole("admin"))
			r.Get("/", h.listPages)
			r.Post("/", h.createPage)
			r.Get("/{id}", h.getPage)
			r.Put("/{id}", h.updatePage)
			r.Delete("/{id}", h.deletePage)
		})
		r.Get("/layout-modules", h.moduleData)
		r.Get("/layout-modules/{elementId}/render", h.moduleRender)
		r.Post("/layout-modules/{elementId}/action", h.moduleAction)
		r.Post("/auth/sign-in", h.signIn)
		r.Post("/auth/sign-out", h.signOut)
	})

	pages := &pageHandler{assembler: cfg.Services.Assembler, logger: logger}
	if cfg.Assets != nil {
		pages.static = cfg.Assets.Handler()
		pages.staticDir = cfg.Assets.Dir()
	}
	r.Get("/*", pages.ServeHTTP)

	return r
}

type handlers struct {
	svc          Services
	cookieName   string
	cookieSecure bool
	logger       zerolog.Logger
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	check HealthChecker
}

// NewHealthHandler creates a health handler. A nil checker is always ready.
func NewHealthHandler(check HealthChecker) *HealthHandler {
	return &HealthHandler{check: check}
}

// Liveness reports that the process is serving.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readiness pings the database.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if h.check != nil {
		if err := h.check.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// NewSessionMiddleware attaches the authenticated session to the request
// context. Anonymous requests pass through unchanged.
func NewSessionMiddleware(sessions ports.AuthProvider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessions != nil {
				if s := sessions.Authenticate(r); s != nil {
					r = r.WithContext(web.WithSession(r.Context(), s))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects requests whose session lacks role with 401.
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := web.SessionFrom(r.Context())
			if s == nil || s.Role != role {
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewMetricsMiddleware records request counts and latency per route pattern.
func NewMetricsMiddleware(m *metrics.Collector, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == metricsPath {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			m.RequestsTotal.WithLabelValues(r.Method, route, statusLabel(ww.Status())).Inc()
			m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// NewLoggingMiddleware logs each request at debug level. Health probes and
// metrics scrapes are skipped.
func NewLoggingMiddleware(logger zerolog.Logger, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == metricsPath {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
