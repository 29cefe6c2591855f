// Package middlewares provides HTTP middleware for formtree servers.
//
// # Request ID
//
// RequestID assigns an ID to each request, reusing X-Request-ID or
// X-Correlation-ID from upstream proxies. Pair it with RequestIDExtractor
// so every log line carries it:
//
//	app := formtree.New(
//	    formtree.WithLogger("formserver", middlewares.RequestIDExtractor()),
//	    formtree.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover and Timeout
//
// Recover converts panics into *PanicError. Timeout puts a deadline on the
// request context and returns *TimeoutError, answered with 503 by the
// default error handler.
//
// # Locale
//
// Locale resolves the request language against an i18n.Catalog from the
// "lang" query parameter, the "lang" cookie, or Accept-Language. Forms
// processed in the request use it to localize validation messages.
//
//	formtree.WithMiddleware(middlewares.Locale(catalog))
//
// # CORS
//
// CORS lets pages on other origins load and submit forms with htmx.
//
// Recommended order:
//
//	formtree.WithMiddleware(
//	    middlewares.CORS(),
//	    middlewares.RequestID(),
//	    middlewares.Recover(),
//	    middlewares.Locale(catalog),
//	    middlewares.Timeout(10*time.Second),
//	)
package middlewares
