package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor pulls one attribute out of a context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

type formIDKey struct{}
type instanceIDKey struct{}

// WithFormID records the form being processed.
func WithFormID(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, formIDKey{}, name)
}

// WithInstanceID records the form instance being processed.
func WithInstanceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, instanceIDKey{}, id)
}

// FormIDExtractor adds "form_id" to records logged with a form in context.
func FormIDExtractor() ContextExtractor {
	return stringExtractor(formIDKey{}, "form_id")
}

// InstanceIDExtractor adds "form_instance" to records logged with a form
// instance in context.
func InstanceIDExtractor() ContextExtractor {
	return stringExtractor(instanceIDKey{}, "form_instance")
}

func stringExtractor(key any, attr string) ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			return slog.String(attr, v), true
		}
		return slog.Attr{}, false
	}
}

// extractingHandler adds extracted attributes to every record.
type extractingHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

// NewExtractingHandler wraps next so that every record carries the
// attributes the extractors find in the logging context.
func NewExtractingHandler(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	clean := make([]ContextExtractor, 0, len(extractors))
	for _, ex := range extractors {
		if ex != nil {
			clean = append(clean, ex)
		}
	}
	return newExtractingHandler(next, clean)
}

func newExtractingHandler(next slog.Handler, extractors []ContextExtractor) slog.Handler {
	if len(extractors) == 0 {
		return next
	}
	return &extractingHandler{next: next, extractors: extractors}
}

func (h *extractingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *extractingHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *extractingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &extractingHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *extractingHandler) WithGroup(name string) slog.Handler {
	return &extractingHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}
