package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", "")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".local", "share", "poki-launcher"), cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "poki.sock"), cfg.SocketPath)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, 72*time.Hour, cfg.Storage.HalfLife)
	assert.Zero(t, cfg.Storage.RebaselineAfter)
	assert.Equal(t, 9, cfg.Search.MaxResults)
	assert.Equal(t, []string{PluginFiles, PluginApps}, cfg.Plugins.LoadOrder)
	assert.Contains(t, cfg.Plugins.Apps.Paths, filepath.Join(home, ".local", "share", "applications"))
	assert.Equal(t, ":", cfg.Plugins.Files.Prefix)
	assert.True(t, cfg.Watcher.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Watcher.DebounceWindow)
	assert.Equal(t, filepath.Join(cfg.DataDir, "apps.sqlite"), cfg.DBPath(PluginApps))
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("POKI_STORAGE_BACKEND", "blob")
	path := writeConfig(t, `
data_dir: /tmp/poki-test
storage:
  half_life: 24h
  rebaseline_after: 720h
search:
  max_results: 20
plugins:
  load_order: [apps]
  apps:
    paths: [/opt/apps]
    term_cmd: alacritty
watcher:
  debounce_window: 500ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "/tmp/poki-test", cfg.DataDir)
	assert.Equal(t, BackendBlob, cfg.Storage.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Storage.HalfLife)
	assert.Equal(t, 720*time.Hour, cfg.Storage.RebaselineAfter)
	assert.Equal(t, 20, cfg.Search.MaxResults)
	assert.Equal(t, []string{PluginApps}, cfg.Plugins.LoadOrder)
	assert.Equal(t, []string{"/opt/apps"}, cfg.Plugins.Apps.Paths)
	assert.Equal(t, "alacritty", cfg.Plugins.Apps.TermCmd)
	assert.Equal(t, 500*time.Millisecond, cfg.Watcher.DebounceWindow)
	assert.Equal(t, "/tmp/poki-test/apps.db", cfg.DBPath(PluginApps))
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"backend":        "storage: {backend: redis}\n",
		"half life":      "storage: {half_life: 0s}\n",
		"unknown plugin": "plugins: {load_order: [apps, music]}\n",
		"duplicate":      "plugins: {load_order: [apps, apps]}\n",
		"empty order":    "plugins: {load_order: []}\n",
		"max results":    "search: {max_results: -1}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "storage: [unclosed\n"))
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, filepath.Join(home, "docs"), ExpandHome("~/docs"))
	assert.Equal(t, "/abs", ExpandHome("/abs"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}

func TestYAMLDump(t *testing.T) {
	cfg, err := Load(writeConfig(t, "data_dir: /tmp/poki-dump\n"))
	require.NoError(t, err)

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "data_dir: /tmp/poki-dump"))

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Contains(t, back, "storage")
	assert.NotContains(t, back, "file")
}
