package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("TODOQL_DATA_DIR", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:4000/graphql", cfg.Endpoint)
	assert.Equal(t, "local", cfg.Completion)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Sunday, cfg.WeekStartDay())
	assert.False(t, cfg.Debug)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, `
endpoint: https://todo.example.com/graphql
data_dir: `+dir+`
completion: Server
week_start: mon
request_timeout: 5s
theme: dracula
`)
	t.Setenv("TODOQL_THEME", "nord")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://todo.example.com/graphql", cfg.Endpoint)
	assert.Equal(t, "server", cfg.Completion)
	assert.Equal(t, time.Monday, cfg.WeekStartDay())
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "nord", cfg.Theme)
	assert.Equal(t, filepath.Join(dir, "todoql.db"), cfg.DBPath())
	assert.Equal(t, filepath.Join(dir, "todoql.log"), cfg.LogPath())
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"completion", "completion: sometimes\n"},
		{"week start", "week_start: caturday\n"},
		{"endpoint", "endpoint: not a url\n"},
		{"timeout", "request_timeout: -1s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TODOQL_DATA_DIR", t.TempDir())
			_, err := Load(writeFile(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	_, err := Load(writeFile(t, "endpoint: [unclosed\n"))
	assert.Error(t, err)
}

func TestUsageListsVariables(t *testing.T) {
	assert.Contains(t, Usage(), "TODOQL_ENDPOINT")
}
