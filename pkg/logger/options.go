package logger

import (
	"io"
	"log/slog"
	"os"
)

// Format selects the record encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

type config struct {
	out        io.Writer
	format     Format
	extractors []ContextExtractor
	level      slog.Level
}

// Option configures a logger.
type Option func(*config)

// WithLevel sets the minimum level written. Default: info.
func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithWriter sets the destination. Default: stdout.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.out = w
		}
	}
}

// WithFormat sets the record encoding. Default: JSON.
func WithFormat(f Format) Option {
	return func(c *config) { c.format = f }
}

// WithExtractors adds context extractors. Nil extractors are ignored.
func WithExtractors(ex ...ContextExtractor) Option {
	return func(c *config) {
		for _, e := range ex {
			if e != nil {
				c.extractors = append(c.extractors, e)
			}
		}
	}
}

func newConfig(opts ...Option) *config {
	c := &config{out: os.Stdout, format: FormatJSON, level: slog.LevelInfo}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *config) handler() slog.Handler {
	ho := &slog.HandlerOptions{Level: c.level}
	if c.format == FormatText {
		return slog.NewTextHandler(c.out, ho)
	}
	return slog.NewJSONHandler(c.out, ho)
}

// ParseLevel maps "debug", "info", "warn" and "error" to a level.
// Unknown names yield info.
func ParseLevel(name string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return l
}
