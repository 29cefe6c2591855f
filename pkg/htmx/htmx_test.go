package htmx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formtree/pkg/htmx"
)

func htmxRequest(headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/forms/signup", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestRequestHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		isHTMX  bool
		trigger string
		target  string
	}{
		{
			name:    "plain request",
			headers: map[string]string{"HX-Trigger-Name": "send"},
		},
		{
			name:    "htmx request",
			headers: map[string]string{"HX-Request": "true", "HX-Trigger-Name": "order.send", "HX-Target": "order"},
			isHTMX:  true,
			trigger: "order.send",
			target:  "order",
		},
		{
			name:    "header values are case sensitive",
			headers: map[string]string{"HX-Request": "True", "HX-Trigger-Name": "send"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := htmxRequest(tt.headers)
			assert.Equal(t, tt.isHTMX, htmx.IsHTMX(req))
			assert.Equal(t, tt.trigger, htmx.TriggerName(req))
			assert.Equal(t, tt.target, htmx.Target(req))
		})
	}

	assert.True(t, htmx.IsBoosted(htmxRequest(map[string]string{"HX-Boosted": "true"})))
}

func TestResponse_Apply(t *testing.T) {
	t.Parallel()

	t.Run("plain triggers", func(t *testing.T) {
		t.Parallel()

		resp := &htmx.Response{Retarget: "#form", Reswap: htmx.SwapOuterHTML, PushURL: "/forms/a", Refresh: true}
		resp.Trigger("b", nil)
		resp.Trigger("a", nil)
		rec := httptest.NewRecorder()
		resp.Apply(rec)

		h := rec.Header()
		assert.Equal(t, "#form", h.Get("HX-Retarget"))
		assert.Equal(t, "outerHTML", h.Get("HX-Reswap"))
		assert.Equal(t, "/forms/a", h.Get("HX-Push-Url"))
		assert.Equal(t, "true", h.Get("HX-Refresh"))
		assert.Equal(t, "a, b", h.Get("HX-Trigger"))
	})

	t.Run("triggers with detail", func(t *testing.T) {
		t.Parallel()

		resp := &htmx.Response{}
		resp.Trigger("formtree:processed", map[string]any{"valid": false})
		resp.Trigger("other", nil)
		rec := httptest.NewRecorder()
		resp.Apply(rec)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &got))
		assert.Equal(t, map[string]any{"valid": false}, got["formtree:processed"])
		assert.Contains(t, got, "other")
	})

	t.Run("nil response writes nothing", func(t *testing.T) {
		t.Parallel()

		var resp *htmx.Response
		rec := httptest.NewRecorder()
		resp.Apply(rec)
		assert.Empty(t, rec.Header())
	})
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	htmx.Redirect(rec, htmxRequest(map[string]string{"HX-Request": "true"}), "/done")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/done", rec.Header().Get("HX-Redirect"))

	rec = httptest.NewRecorder()
	htmx.Redirect(rec, htmxRequest(nil), "/done")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/done", rec.Header().Get("Location"))
}
