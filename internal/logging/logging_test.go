package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnabled(t *testing.T) {
	tests := []struct {
		name    string
		env     bool
		verbose bool
		want    bool
	}{
		{"off", false, false, false},
		{"env", true, false, true},
		{"verbose flag", false, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldEnv, oldVerbose := debugEnv, verboseMode
			defer func() { debugEnv, verboseMode = oldEnv, oldVerbose }()

			debugEnv = tt.env
			SetVerbose(tt.verbose)
			assert.Equal(t, tt.want, Enabled())
			if tt.want {
				assert.Equal(t, slog.LevelDebug, Level())
			} else {
				assert.Equal(t, slog.LevelInfo, Level())
			}
		})
	}
}

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(&buf, "JSON", slog.LevelInfo)
	require.NoError(t, err)

	slog.New(h).Info("sprint synced", "sprint", "Sprint 3")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "sprint synced", rec["msg"])
	assert.Equal(t, "Sprint 3", rec["sprint"])
}

func TestNewHandlerRejectsUnknownFormat(t *testing.T) {
	_, err := NewHandler(&bytes.Buffer{}, "xml", slog.LevelInfo)
	assert.Error(t, err)
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	log, closer, err := New(Options{File: path})
	require.NoError(t, err)
	log.Info("hello", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=hello")
	assert.Contains(t, string(data), "k=v")
}
