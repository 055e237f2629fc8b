package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	require.Equal(t, slog.LevelError, ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "json", "info")
	log.Debug("hidden")
	log.Info("product created", "id", 7)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "product created", record["msg"])
	require.EqualValues(t, 7, record["id"])
}

func TestPrettyHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "pretty", "warn")

	log.Info("ignored")
	require.Zero(t, buf.Len())

	log.With("component", "repo").WithGroup("req").Warn("slow write", "ms", 250)

	out := buf.String()
	require.Contains(t, out, "WARN")
	require.Contains(t, out, "slow write")
	require.Contains(t, out, "component"+reset+"=repo")
	require.Contains(t, out, "req.ms"+reset+"=250")
}
