package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/imagecombiner/pkg/cache"
	"github.com/matzehuels/imagecombiner/pkg/config"
	"github.com/matzehuels/imagecombiner/pkg/errors"
)

// isolate points config and cache lookups at temporary directories.
func isolate(t *testing.T) (configHome, cacheHome string) {
	t.Helper()
	configHome, cacheHome = t.TempDir(), t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	return configHome, cacheHome
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCachePath(t *testing.T) {
	_, cacheHome := isolate(t)

	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	want := filepath.Join(cacheHome, config.AppName)
	if strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestCacheClear(t *testing.T) {
	_, cacheHome := isolate(t)
	dir := filepath.Join(cacheHome, config.AppName)

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, key := range []string{"composite:a", "composite:b", "export:c"} {
		if err := fc.Set(ctx, key, []byte("x"), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	if _, hit, _ := fc.Get(ctx, "composite:a"); hit {
		t.Error("entry survived cache clear")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("cache root should be kept: %v", err)
	}
}

func TestCacheClearRedisUnsupported(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := "[cache]\nbackend = \"redis\"\nredis_addr = \"localhost:6379\"\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "--config", path, "cache", "clear")
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("cache clear on redis = %v, want UNSUPPORTED", err)
	}
}

func TestNewCacheBackends(t *testing.T) {
	isolate(t)
	ctx := context.Background()

	c := New(io.Discard, LogInfo)
	got, err := c.newCache(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(cache.NullCache); !ok {
		t.Errorf("--no-cache: got %T, want cache.NullCache", got)
	}

	c.cfg.Cache.Backend = config.CacheNone
	if got, _ = c.newCache(ctx, false); got == nil {
		t.Fatal("nil cache")
	}
	if _, ok := got.(cache.NullCache); !ok {
		t.Errorf("backend none: got %T, want cache.NullCache", got)
	}

	c.cfg.Cache.Backend = config.CacheFile
	c.cfg.Cache.Dir = t.TempDir()
	if got, err = c.newCache(ctx, false); err != nil {
		t.Fatal(err)
	}
	fc, ok := got.(*cache.FileCache)
	if !ok {
		t.Fatalf("backend file: got %T, want *cache.FileCache", got)
	}
	if fc.Dir() != c.cfg.Cache.Dir {
		t.Errorf("Dir() = %q, want %q", fc.Dir(), c.cfg.Cache.Dir)
	}
}
