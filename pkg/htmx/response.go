package htmx

import (
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// SwapStrategy is an hx-swap value.
type SwapStrategy string

const (
	SwapInnerHTML SwapStrategy = "innerHTML"
	SwapOuterHTML SwapStrategy = "outerHTML"
	SwapNone      SwapStrategy = "none"
)

// Response collects the htmx headers of one response.
type Response struct {
	Retarget string
	Reswap   SwapStrategy
	PushURL  string
	Refresh  bool

	triggers map[string]any
}

// Trigger asks the client to fire event. A non-nil detail is sent as the
// event detail.
func (r *Response) Trigger(event string, detail any) {
	if r.triggers == nil {
		r.triggers = make(map[string]any)
	}
	r.triggers[event] = detail
}

// Apply writes the headers. It must run before the status is written.
func (r *Response) Apply(w http.ResponseWriter) {
	if r == nil {
		return
	}
	h := w.Header()
	if r.Retarget != "" {
		h.Set(HeaderHXRetarget, r.Retarget)
	}
	if r.Reswap != "" {
		h.Set(HeaderHXReswap, string(r.Reswap))
	}
	if r.PushURL != "" {
		h.Set(HeaderHXPushURL, r.PushURL)
	}
	if r.Refresh {
		h.Set(HeaderHXRefresh, "true")
	}
	if v := r.triggerHeader(); v != "" {
		h.Set(HeaderHXTrigger, v)
	}
}

// triggerHeader uses the plain comma list when no event carries a detail
// and the JSON object form otherwise.
func (r *Response) triggerHeader() string {
	if len(r.triggers) == 0 {
		return ""
	}
	names := slices.Sorted(maps.Keys(r.triggers))
	plain := true
	for _, name := range names {
		if r.triggers[name] != nil {
			plain = false
			break
		}
	}
	if plain {
		return strings.Join(names, ", ")
	}
	data, err := json.Marshal(r.triggers)
	if err != nil {
		return strings.Join(names, ", ")
	}
	return string(data)
}

// Redirect sends HX-Redirect to htmx clients and a regular redirect to
// everyone else.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if IsHTMX(r) {
		w.Header().Set(HeaderHXRedirect, url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
