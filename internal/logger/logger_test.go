package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDisabledDiscards(t *testing.T) {
	l := New(Options{Enabled: false})
	require.False(t, l.Enabled(context.Background(), slog.LevelError))
}

func TestNewText(t *testing.T) {
	var out bytes.Buffer
	l := New(Options{Enabled: true, Writer: &out, Level: slog.LevelDebug})
	l.Debug("pool grown", "size", 4096)
	require.Contains(t, out.String(), "pool grown")
	require.Contains(t, out.String(), "size=4096")
}

func TestNewJSONRespectsLevel(t *testing.T) {
	var out bytes.Buffer
	l := New(Options{Enabled: true, Writer: &out, JSON: true, Level: slog.LevelWarn})
	l.Info("dropped")
	require.Empty(t, out.String())
	l.Warn("kept", "pools", 3)
	require.Contains(t, out.String(), `"msg":"kept"`)
	require.Contains(t, out.String(), `"pools":3`)
}

func TestInitAndOr(t *testing.T) {
	saved := L
	t.Cleanup(func() { L = saved })

	var out bytes.Buffer
	Init(Options{Enabled: true, Writer: &out})
	Info("hello")
	require.Contains(t, out.String(), "hello")

	custom := Discard()
	require.Same(t, custom, Or(custom))
	require.Same(t, L, Or(nil))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}
