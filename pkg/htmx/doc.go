// Package htmx reads htmx request headers and writes htmx response headers.
//
// Forms posted by htmx carry the name of the triggering element in
// HX-Trigger-Name; the form host uses it as the submit widget id when the
// request names none explicitly:
//
//	if id := htmx.TriggerName(r); id != "" { ... }
//
// Responses announce processing results as client events:
//
//	resp := &htmx.Response{Reswap: htmx.SwapOuterHTML}
//	resp.Trigger("formtree:processed", map[string]any{"valid": true})
//	resp.Apply(w)
package htmx
