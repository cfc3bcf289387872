package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{" WARN ", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctxLogger := New(buf, slog.LevelInfo).With("requestID", "abc")
	ctx := ToContext(context.Background(), ctxLogger)

	FromContext(ctx).Info("import finished")

	assert.Contains(t, buf.String(), `"requestID":"abc"`)
	assert.Contains(t, buf.String(), "import finished")
}

func TestFromContext_FallsBackToGlobal(t *testing.T) {
	assert.Same(t, L, FromContext(context.Background()))
}

func TestNew_RespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(buf, slog.LevelWarn)

	log.Info("dropped")
	assert.Empty(t, buf.String())

	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
