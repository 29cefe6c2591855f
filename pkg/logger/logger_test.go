package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formtree/pkg/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestNew_Extractors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithWriter(&buf),
		logger.WithExtractors(logger.FormIDExtractor(), nil, logger.InstanceIDExtractor()),
	)

	ctx := logger.WithFormID(context.Background(), "signup")
	ctx = logger.WithInstanceID(ctx, "abc")
	log.InfoContext(ctx, "processed", slog.Int("rows", 2))

	rec := decode(t, &buf)
	assert.Equal(t, "processed", rec["msg"])
	assert.Equal(t, "signup", rec["form_id"])
	assert.Equal(t, "abc", rec["form_instance"])
	assert.EqualValues(t, 2, rec["rows"])
}

func TestNew_MissingContextValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithWriter(&buf), logger.WithExtractors(logger.FormIDExtractor()))
	log.With("component", "test").Info("no form")

	rec := decode(t, &buf)
	assert.NotContains(t, rec, "form_id")
	assert.Equal(t, "test", rec["component"])
}

func TestNew_LevelAndFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithWriter(&buf),
		logger.WithFormat(logger.FormatText),
		logger.WithLevel(logger.ParseLevel("warn")),
	)
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "msg=shown"), out)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"loud":  slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, logger.ParseLevel(name), name)
	}
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	log := logger.NewNope()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}

func TestNewWithSentry_WithoutDSN(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithSentry(logger.SentryConfig{}, logger.WithWriter(&buf))
	log.Error("local only")
	assert.Equal(t, "local only", decode(t, &buf)["msg"])
}

func TestNewExtractingHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := logger.NewExtractingHandler(slog.NewJSONHandler(&buf, nil), logger.FormIDExtractor())
	slog.New(h).WithGroup("g").InfoContext(logger.WithFormID(context.Background(), "f"), "grouped", "k", "v")

	rec := decode(t, &buf)
	group, ok := rec["g"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "v", group["k"])
	assert.Equal(t, "f", group["form_id"])
}
