// Package health serves liveness and readiness probes.
//
// A readiness probe runs a set of named checks concurrently under a shared
// timeout. The form server registers the definition source as a check so
// that an unreachable bucket or a missing description directory takes the
// instance out of rotation:
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "definitions": manager.Healthcheck(),
//	}))
//
// Responses are plain text ("OK", "Service Unavailable") unless the client
// asks for JSON with an Accept header or ?format=json.
package health
