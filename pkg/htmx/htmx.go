package htmx

import "net/http"

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get(HeaderHXRequest) == "true"
}

// IsBoosted reports whether the request comes from a boosted link or form.
func IsBoosted(r *http.Request) bool {
	return r.Header.Get(HeaderHXBoosted) == "true"
}

// TriggerName returns the name attribute of the element that triggered
// the request, or "" for non-htmx requests.
func TriggerName(r *http.Request) string {
	if !IsHTMX(r) {
		return ""
	}
	return r.Header.Get(HeaderHXTriggerName)
}

// Target returns the id of the target element, or "" for non-htmx requests.
func Target(r *http.Request) string {
	if !IsHTMX(r) {
		return ""
	}
	return r.Header.Get(HeaderHXTarget)
}
