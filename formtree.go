package formtree

import (
	"context"
	"io/fs"
	"log/slog"
	"time"

	"github.com/dmitrymomot/formtree/internal"
	"github.com/dmitrymomot/formtree/pkg/formmodel"
	"github.com/dmitrymomot/formtree/pkg/health"
	"github.com/dmitrymomot/formtree/pkg/logger"
)

// Type aliases - public API
type (
	// App hosts form handlers: routing, middleware, error rendering and
	// graceful shutdown.
	App = internal.App

	// Router is the interface handlers use to declare routes.
	Router = internal.Router

	// Context provides request/response access and helper methods.
	Context = internal.Context

	// Handler declares routes on a router.
	Handler = internal.Handler

	// HandlerFunc is the signature for route handlers.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc.
	Middleware = internal.Middleware

	// ErrorHandler handles errors returned from handlers.
	ErrorHandler = internal.ErrorHandler

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// Component is the interface for renderable templates.
	Component = internal.Component

	// ContextExtractor extracts a slog attribute from context.
	ContextExtractor = logger.ContextExtractor

	// HTTPError is an error with an HTTP status.
	HTTPError = internal.HTTPError

	// FormsHandler serves form definitions as multi-request dialogues.
	FormsHandler = internal.FormsHandler

	// FormsOption configures a FormsHandler.
	FormsOption = internal.FormsOption

	// FormSource creates form instances by definition name.
	FormSource = internal.FormSource

	// CompletionFunc handles a finished form.
	CompletionFunc = internal.CompletionFunc

	// FormStore keeps form instances between requests.
	FormStore = internal.FormStore

	// FormStoreOption configures a FormStore.
	FormStoreOption = internal.FormStoreOption

	// LanguageKey is the context key of the request language.
	LanguageKey = internal.LanguageKey
)

// Events triggered on htmx clients after a submission.
const (
	EventFormFinished = internal.EventFormFinished
	EventFormInvalid  = internal.EventFormInvalid
)

// New creates an application. The App is immutable after creation.
//
// Example:
//
//	manager := definitions.NewManager(definitions.NewDirSource("forms"))
//
//	app := formtree.New(
//	    formtree.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    formtree.WithHandlers(formtree.NewFormsHandler(manager)),
//	)
//
//	err := app.Run(":8080")
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// NewFormsHandler serves the forms of src under /forms/{name}.
//
// Example:
//
//	forms := formtree.NewFormsHandler(manager,
//	    formtree.WithCompletion(func(c formtree.Context, name string, f *formmodel.Form) error {
//	        return c.JSON(http.StatusOK, f.Values())
//	    }),
//	)
func NewFormsHandler(src FormSource, opts ...FormsOption) *FormsHandler {
	return internal.NewFormsHandler(src, opts...)
}

// NewFormStore creates an in-memory instance store.
func NewFormStore(opts ...FormStoreOption) *FormStore {
	return internal.NewFormStore(opts...)
}

// RenderForm writes f as HTML, or XML on request.
func RenderForm(c Context, status int, f *formmodel.Form) error {
	return internal.RenderForm(c, status, f)
}

// Forms handler options

// WithFormStore shares a store between handlers.
func WithFormStore(s *FormStore) FormsOption {
	return internal.WithFormStore(s)
}

// WithCompletion sets the handler for finished forms.
func WithCompletion(fn CompletionFunc) FormsOption {
	return internal.WithCompletion(fn)
}

// WithPathPrefix mounts the forms under prefix instead of "/forms".
func WithPathPrefix(prefix string) FormsOption {
	return internal.WithPathPrefix(prefix)
}

// WithMaxMemory bounds the in-memory part of multipart bodies.
func WithMaxMemory(n int64) FormsOption {
	return internal.WithMaxMemory(n)
}

// WithInstanceTTL sets how long an idle form instance is kept.
func WithInstanceTTL(d time.Duration) FormStoreOption {
	return internal.WithInstanceTTL(d)
}

// WithMaxInstances bounds the number of stored form instances.
func WithMaxInstances(n int) FormStoreOption {
	return internal.WithMaxInstances(n)
}

// App options

// WithMiddleware adds global middleware, applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandlers registers handlers that declare routes.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithStaticFiles serves subDir of fsys under pattern.
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithErrorHandler replaces the default error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithNotFoundHandler sets a custom 404 handler.
func WithNotFoundHandler(h HandlerFunc) Option {
	return internal.WithNotFoundHandler(h)
}

// WithHealthChecks enables /health/live and /health/ready.
//
//	formtree.WithHealthChecks(
//	    formtree.WithReadinessCheck("definitions", manager.Healthcheck()),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithLogger creates a logger with a component name and extractors.
//
//	formtree.WithLogger("formserver", middlewares.RequestIDExtractor(), logger.FormIDExtractor())
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// WithShutdownHook registers a cleanup function run after the server stopped.
func WithShutdownHook(fn func(context.Context) error) Option {
	return internal.WithShutdownHook(fn)
}

// Health check options

// WithLivenessPath overrides "/health/live".
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath overrides "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check. Checks run in parallel.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Run options

// Address overrides the listen address.
func Address(addr string) RunOption {
	return internal.Address(addr)
}

// Logger sets the runtime logger.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout bounds graceful shutdown including hooks. Default: 30s.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook runs fn before the server accepts requests.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook runs fn after the server stopped.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets the base context; cancelling it stops the server.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Errors

// NewHTTPError creates an error rendered with the given status.
func NewHTTPError(code int, message string) *HTTPError {
	return internal.NewHTTPError(code, message)
}

// AsHTTPError extracts an HTTPError from err.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

// DefaultErrorHandler is the error handler used unless replaced.
func DefaultErrorHandler(c Context, err error) error {
	return internal.DefaultErrorHandler(c, err)
}

// ContextValue retrieves a typed value from the request context.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}
