package logger

import (
	"io"
	"log/slog"
)

// New creates a logger writing to stdout unless configured otherwise.
func New(opts ...Option) *slog.Logger {
	c := newConfig(opts...)
	return slog.New(newExtractingHandler(c.handler(), c.extractors))
}

// NewNope creates a logger that discards every record.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
