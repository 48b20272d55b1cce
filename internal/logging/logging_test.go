package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("json by default", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, "", slog.LevelInfo)
		logger.Info("hello", slog.Int("count", 42))

		out := buf.String()
		assert.Contains(t, out, `"level":"INFO"`)
		assert.Contains(t, out, `"msg":"hello"`)
		assert.Contains(t, out, `"count":42`)
	})

	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, "text", slog.LevelInfo)
		logger.Info("hello")

		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("respects level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, "json", slog.LevelWarn)
		logger.Info("quiet")
		logger.Warn("loud")

		assert.NotContains(t, buf.String(), "quiet")
		assert.Contains(t, buf.String(), "loud")
	})
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLevel("loudest")
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json", slog.LevelInfo)

	LogError(logger, "calc failed", assert.AnError, slog.String("component", "calcclient"))
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"component":"calcclient"`)
	assert.Contains(t, buf.String(), assert.AnError.Error())

	buf.Reset()
	LogOperation(logger, "op", slog.Duration("duration", 0), slog.String("k", "v"))
	assert.NotContains(t, buf.String(), "duration")
	assert.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	LogHTTPRequest(logger, "POST", "/submit", 303, 1.5)
	assert.Contains(t, buf.String(), `"msg":"http_request"`)
	assert.Contains(t, buf.String(), `"status":303`)

	// nil-логгер не паникует
	LogError(nil, "x", assert.AnError)
	LogOperation(nil, "x", slog.Duration("duration", time.Second))
}

func TestContextLogger(t *testing.T) {
	logger := New(&bytes.Buffer{}, "json", slog.LevelInfo)
	ctx := WithLogger(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json", slog.LevelInfo)

	var ctxLogger *slog.Logger
	h := Middleware(logger, "web")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health?x=1", nil))

	require.NotNil(t, ctxLogger)
	assert.Contains(t, buf.String(), `"path":"/health"`)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"component":"web"`)
}
