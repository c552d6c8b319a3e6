package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/imagecombiner/pkg/errors"
	"github.com/matzehuels/imagecombiner/pkg/export"
	"github.com/matzehuels/imagecombiner/pkg/layout"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[layout]
orientation = "column"
alignment = "start"
gap = 8

[export]
quality = 0.8
format = "png"
keep_aspect = true
width = 640

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "12h"

[server]
addr = ":9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, layout.Settings{Orientation: layout.Column, Alignment: layout.Start, Gap: 8}, cfg.Layout)
	assert.Equal(t, 12*time.Hour, cfg.Cache.TTL.Duration)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 32, cfg.Server.MaxUploadMB, "unset keys keep defaults")

	es := cfg.ExportSettings()
	assert.Equal(t, export.PNG, es.Format)
	assert.Equal(t, 640, es.Width)
	assert.True(t, es.PreserveAspectRatio)
	assert.Equal(t, 0.8, es.Quality)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad gap", "[layout]\ngap = 150\n"},
		{"bad quality", "[export]\nquality = 3.0\n"},
		{"bad backend", "[cache]\nbackend = \"memcached\"\n"},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n"},
		{"unknown key", "[layout]\nspacing = 3\n"},
		{"bad duration", "[cache]\nttl = \"soon\"\n"},
		{"syntax", "[layout\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadLayoutError(t *testing.T) {
	_, err := Load(writeConfig(t, "[layout]\nalignment = \"middle-ish\"\n"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidLayout))
}

func TestPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg-config/imagecombiner/config.toml", p)

	c, err := CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg-cache/imagecombiner", c)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	assert.Error(t, WriteDefault(path), "existing file is not overwritten")
}
