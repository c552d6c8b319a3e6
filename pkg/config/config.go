// Package config loads imagecombiner settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/imagecombiner/config.toml (falling back
// to ~/.config/imagecombiner/config.toml). A missing file yields defaults.
// Command-line flags override file values.
//
// Example:
//
//	[layout]
//	orientation = "column"
//	alignment = "start"
//	gap = 8
//
//	[export]
//	quality = 0.8
//	format = "jpeg"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "12h"
//
//	[server]
//	addr = ":8080"
//	max_upload_mb = 32
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/imagecombiner/pkg/errors"
	"github.com/matzehuels/imagecombiner/pkg/export"
	"github.com/matzehuels/imagecombiner/pkg/layout"
)

// AppName names the config and cache directories.
const AppName = "imagecombiner"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the full configuration file.
type Config struct {
	Layout layout.Settings `toml:"layout"`
	Export ExportConfig    `toml:"export"`
	Cache  CacheConfig     `toml:"cache"`
	Server ServerConfig    `toml:"server"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	Width      int     `toml:"width"`
	Height     int     `toml:"height"`
	KeepAspect bool    `toml:"keep_aspect"`
	Quality    float64 `toml:"quality"`
	Format     string  `toml:"format"`
	Output     string  `toml:"output"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	RedisDB   int      `toml:"redis_db"`
	TTL       Duration `toml:"ttl"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr        string   `toml:"addr"`
	MaxUploadMB int      `toml:"max_upload_mb"`
	SessionTTL  Duration `toml:"session_ttl"`
}

// Duration is a time.Duration that reads from TOML strings like "12h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Layout: layout.DefaultSettings(),
		Export: ExportConfig{
			Quality: export.DefaultQuality,
			Format:  string(export.JPEG),
			Output:  export.DefaultFilename,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			TTL:     Duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 32,
			SessionTTL:  Duration{time.Hour},
		},
	}
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Dir returns the config directory using the XDG convention.
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// CacheDir returns the cache directory using the XDG convention.
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// Load reads the file at path on top of Default. An empty path means Path().
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidInput, "unknown config key %q in %s", undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	c.Layout = c.Layout.WithDefaults()
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if err := c.ExportSettings().Validate(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "", CacheFile, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid cache backend: %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "cache.redis_addr is required for the redis backend")
	}
	if c.Server.MaxUploadMB < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "server.max_upload_mb must not be negative")
	}
	return nil
}

// ExportSettings converts the export section.
func (c Config) ExportSettings() export.Settings {
	format, err := export.ParseFormat(c.Export.Format)
	if err != nil {
		format = export.Format(c.Export.Format)
	}
	return export.Settings{
		Width:               c.Export.Width,
		Height:              c.Export.Height,
		PreserveAspectRatio: c.Export.KeepAspect,
		Quality:             c.Export.Quality,
		Format:              format,
	}.WithDefaults()
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the default config to path unless a file already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.New(errors.ErrCodeInvalidInput, "config file already exists: %s", path)
	}
	data, err := Encode(Default())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
