// Package logger builds the slog loggers used across formtree.
//
// Loggers write JSON (or text) records and enrich each record with
// attributes pulled from the context by ContextExtractors:
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithExtractors(middlewares.RequestIDExtractor(), logger.FormIDExtractor()),
//	)
//	ctx = logger.WithFormID(ctx, "signup")
//	log.InfoContext(ctx, "form processed")
//	// {"level":"INFO","msg":"form processed","request_id":"...","form_id":"signup"}
//
// NewWithSentry fans records out to Sentry as well: errors become issues,
// warnings are kept as breadcrumb logs. Without a DSN it degrades to the
// plain logger.
//
// NewNope returns a logger discarding everything; it is the default
// wherever a logger is optional.
package logger
