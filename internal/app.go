package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/formtree/pkg/health"
	"github.com/dmitrymomot/formtree/pkg/logger"
)

const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20
	defaultShutdownTimeout   = 30 * time.Second

	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// App is an HTTP host for form handlers. It is immutable after New.
type App struct {
	router          chi.Router
	errorHandler    ErrorHandler
	notFoundHandler HandlerFunc
	logger          *slog.Logger
	health          *healthConfig
	middlewares     []Middleware
	handlers        []Handler
	staticRoutes    []staticRoute
	shutdownHooks   []func(context.Context) error
}

type staticRoute struct {
	handler http.Handler
	pattern string
}

// New creates an app.
func New(opts ...Option) *App {
	a := &App{
		router: chi.NewRouter(),
		logger: logger.NewNope(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.setupRoutes()
	return a
}

// Router returns the underlying chi router.
func (a *App) Router() chi.Router {
	return a.router
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Run serves the app on addr until SIGINT or SIGTERM, then shuts down
// gracefully and runs the shutdown hooks.
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if cfg.address == "" {
		cfg.address = addr
	}
	if cfg.logger == nil {
		cfg.logger = a.logger
	}
	cfg.shutdownHooks = append(cfg.shutdownHooks, a.shutdownHooks...)
	return runServer(a.router, cfg)
}

func (a *App) setupRoutes() {
	if a.notFoundHandler != nil {
		a.router.NotFound(a.wrapHandler(a.notFoundHandler))
	}

	for _, mw := range a.middlewares {
		a.router.Use(a.adaptMiddleware(mw))
	}

	for _, sr := range a.staticRoutes {
		a.router.Mount(sr.pattern, sr.handler)
	}

	if a.health != nil {
		opts := []health.Option{health.WithLogger(a.logger)}
		a.router.Get(a.health.livenessPath, health.LivenessHandler())
		a.router.Get(a.health.readinessPath, health.ReadinessHandler(a.health.checks, opts...))
	}

	r := &routerAdapter{router: a.router, app: a}
	for _, h := range a.handlers {
		h.Routes(r)
	}
}

func (a *App) wrapHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := newContext(w, r, a.logger)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

func (a *App) handleError(c Context, err error) {
	if c.Written() {
		c.LogError("handler failed after response was written", "error", err)
		return
	}
	handler := a.errorHandler
	if handler == nil {
		handler = DefaultErrorHandler
	}
	if herr := handler(c, err); herr != nil {
		c.LogError("error handler failed", "error", herr)
	}
}

// DefaultErrorHandler responds with the HTTPError's status and message,
// as JSON when the client accepts it. Other errors become 500 responses
// without details, unless they report a StatusCode. Server errors are logged.
func DefaultErrorHandler(c Context, err error) error {
	httpErr := AsHTTPError(err)
	if httpErr == nil {
		code := http.StatusInternalServerError
		var coded interface{ StatusCode() int }
		if errors.As(err, &coded) {
			code = coded.StatusCode()
		}
		httpErr = NewHTTPError(code, http.StatusText(code), WithError(err))
	}
	if httpErr.Code >= http.StatusInternalServerError {
		c.LogError("request failed", "status", httpErr.Code, "error", err)
	} else {
		c.LogDebug("request rejected", "status", httpErr.Code, "error", err)
	}

	if strings.Contains(c.Header("Accept"), "application/json") {
		return c.JSON(httpErr.Code, map[string]any{
			"error":      httpErr.Message,
			"code":       httpErr.ErrorCode,
			"request_id": httpErr.RequestID,
		})
	}
	return c.String(httpErr.Code, httpErr.Message)
}

type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// HealthOption configures the health endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath overrides "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath overrides "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
//
//	formtree.WithReadinessCheck("definitions", manager.Healthcheck())
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = make(health.Checks)
		}
		c.checks[name] = fn
	}
}
