package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/shapecloud/pkg/cache"
)

func TestCachePathCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache path: %v", err)
	}

	if got, want := strings.TrimSpace(out.String()), filepath.Join(dir, appName); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	fc, err := cache.NewFileCache(filepath.Join(dir, appName))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"scene:a", "scene:b"} {
		if err := fc.Set(t.Context(), key, []byte("{}"), cache.SceneTTL); err != nil {
			t.Fatal(err)
		}
	}

	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "clear"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	if _, ok, _ := fc.Get(t.Context(), "scene:a"); ok {
		t.Error("entry should be cleared")
	}
}

func TestNewCache(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)

	if _, ok := c.newCache(true).(cache.NullCache); !ok {
		t.Error("--no-cache should select the null cache")
	}

	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	if _, ok := c.newCache(false).(*cache.FileCache); !ok {
		t.Error("default should be the file cache")
	}

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CACHE_HOME", blocker)
	if _, ok := c.newCache(false).(cache.NullCache); !ok {
		t.Error("unusable cache dir should fall back to the null cache")
	}
}
