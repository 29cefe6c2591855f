package internal_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formtree/internal"
)

type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }

func trace(name string, log *[]string) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			*log = append(*log, name)
			return next(c)
		}
	}
}

func TestApp_Routing(t *testing.T) {
	t.Parallel()

	var order []string
	app := internal.New(
		internal.WithMiddleware(trace("global", &order)),
		internal.WithHandlers(routes(func(r internal.Router) {
			r.GET("/hello/{name}", func(c internal.Context) error {
				order = append(order, "handler")
				return c.String(http.StatusOK, "hello "+c.Param("name"))
			}, trace("first", &order), trace("second", &order))
			r.Route("/api", func(r internal.Router) {
				r.Use(trace("api", &order))
				r.POST("/echo", func(c internal.Context) error {
					return c.JSON(http.StatusOK, map[string]string{"q": c.Query("q")})
				})
			})
			r.Group(func(r internal.Router) {
				r.GET("/empty", func(c internal.Context) error {
					return c.NoContent(http.StatusNoContent)
				})
			})
			r.Mount("/raw", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			}))
		})),
	)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello/ann", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello ann", rec.Body.String())
	assert.Equal(t, []string{"global", "first", "second", "handler"}, order)

	order = nil
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/echo?q=x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"q":"x"}`, rec.Body.String())
	assert.Equal(t, []string{"global", "api"}, order)

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/empty", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/raw/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestApp_Errors(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.GET("/missing", func(c internal.Context) error {
			return c.Error(http.StatusNotFound, "no such thing", internal.WithErrorCode("missing"))
		})
		r.GET("/boom", func(c internal.Context) error {
			return errors.New("secret failure")
		})
		r.GET("/late", func(c internal.Context) error {
			_ = c.String(http.StatusAccepted, "partial")
			return errors.New("too late")
		})
	})))

	tests := []struct {
		name   string
		path   string
		accept string
		status int
		body   string
	}{
		{"http error as text", "/missing", "", http.StatusNotFound, "no such thing"},
		{"plain error hides details", "/boom", "", http.StatusInternalServerError, "Internal Server Error"},
		{"error after write keeps response", "/late", "", http.StatusAccepted, "partial"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "no such thing", body["error"])
		assert.Equal(t, "missing", body["code"])
	})

	t.Run("custom handlers", func(t *testing.T) {
		t.Parallel()
		custom := internal.New(
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				return c.String(http.StatusTeapot, "custom: "+err.Error())
			}),
			internal.WithNotFoundHandler(func(c internal.Context) error {
				return c.String(http.StatusNotFound, "nothing here")
			}),
			internal.WithHandlers(routes(func(r internal.Router) {
				r.GET("/fail", func(c internal.Context) error { return errors.New("x") })
			})),
		)

		rec := httptest.NewRecorder()
		custom.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "custom: x", rec.Body.String())

		rec = httptest.NewRecorder()
		custom.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "nothing here", rec.Body.String())
	})
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := internal.ErrServiceUnavailable("try later", internal.WithError(cause), internal.WithRequestID("r1"))
	assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode())
	assert.Equal(t, "Service Unavailable", err.StatusText())
	assert.Equal(t, "r1", err.RequestID)
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Same(t, err, internal.AsHTTPError(wrapped))
	assert.Nil(t, internal.AsHTTPError(cause))

	assert.Equal(t, http.StatusBadRequest, internal.ErrBadRequest("x").Code)
	assert.Equal(t, http.StatusForbidden, internal.ErrForbidden("x").Code)
	assert.Equal(t, http.StatusNotFound, internal.ErrNotFound("x").Code)
	assert.Equal(t, http.StatusInternalServerError, internal.ErrInternal("x").Code)
}

func TestApp_HTMX(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.GET("/invalid", func(c internal.Context) error {
			assert.True(t, c.IsHTMX())
			c.HX().Trigger("saved", nil)
			return c.String(http.StatusUnprocessableEntity, "fix it")
		})
	})))

	req := httptest.NewRequest(http.MethodGet, "/invalid", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fix it", rec.Body.String())
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "saved")
}

func TestApp_HealthChecks(t *testing.T) {
	t.Parallel()

	var ready atomic.Bool
	app := internal.New(internal.WithHealthChecks(
		internal.WithReadinessCheck("flag", func(context.Context) error {
			if !ready.Load() {
				return errors.New("not yet")
			}
			return nil
		}),
	))

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/health/live").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/health/ready").Code)

	ready.Store(true)
	rec := get("/health/ready?format=json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"flag"`)
}

func TestApp_StaticFiles(t *testing.T) {
	t.Parallel()

	assets := fstest.MapFS{"public/app.css": {Data: []byte("body{}")}}
	app := internal.New(internal.WithStaticFiles("/static/", assets, "public"))

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApp_Run(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var started, stopped, appStopped atomic.Bool
	app := internal.New(
		internal.WithShutdownHook(func(context.Context) error {
			appStopped.Store(true)
			return nil
		}),
		internal.WithHandlers(routes(func(r internal.Router) {
			r.GET("/ping", func(c internal.Context) error { return c.String(http.StatusOK, "pong") })
		})),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.Run("",
			internal.Listener(ln),
			internal.WithContext(ctx),
			internal.ShutdownTimeout(time.Second),
			internal.StartupHook(func(context.Context) error {
				started.Store(true)
				return nil
			}),
			internal.ShutdownHook(func(context.Context) error {
				stopped.Store(true)
				return nil
			}),
		)
	}()

	url := "http://" + ln.Addr().String() + "/ping"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return strings.TrimSpace(string(body)) == "pong"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, started.Load())
	assert.True(t, stopped.Load())
	assert.True(t, appStopped.Load())
}

func TestApp_RunStartupHookFails(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	hookErr := errors.New("no database")
	err = internal.New().Run("", internal.Listener(ln), internal.StartupHook(func(context.Context) error {
		return hookErr
	}))
	assert.ErrorIs(t, err, hookErr)
}
