package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/alucardeht/poki-launcher/internal/apps"
	"github.com/alucardeht/poki-launcher/internal/frecency"
	"github.com/alucardeht/poki-launcher/internal/watcher"
)

const (
	BackendSQLite = "sqlite"
	BackendBlob   = "blob"

	PluginApps  = "apps"
	PluginFiles = "files"

	envPrefix = "POKI"
)

type Config struct {
	DataDir    string                `mapstructure:"data_dir" yaml:"data_dir"`
	SocketPath string                `mapstructure:"socket_path" yaml:"socket_path"`
	Log        LogConfig             `mapstructure:"log" yaml:"log"`
	Storage    StorageConfig         `mapstructure:"storage" yaml:"storage"`
	Search     SearchConfig          `mapstructure:"search" yaml:"search"`
	Plugins    PluginsConfig         `mapstructure:"plugins" yaml:"plugins"`
	Watcher    watcher.WatcherConfig `mapstructure:"watcher" yaml:"watcher"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" yaml:"-"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type StorageConfig struct {
	Backend  string        `mapstructure:"backend" yaml:"backend"`
	HalfLife time.Duration `mapstructure:"half_life" yaml:"half_life"`
	// RebaselineAfter moves the score reference time forward on startup
	// once it is older than this. Zero disables it.
	RebaselineAfter time.Duration `mapstructure:"rebaseline_after" yaml:"rebaseline_after"`
}

type SearchConfig struct {
	MaxResults int `mapstructure:"max_results" yaml:"max_results"`
}

type PluginsConfig struct {
	LoadOrder []string    `mapstructure:"load_order" yaml:"load_order"`
	Apps      AppsConfig  `mapstructure:"apps" yaml:"apps"`
	Files     FilesConfig `mapstructure:"files" yaml:"files"`
}

type AppsConfig struct {
	Paths   []string `mapstructure:"paths" yaml:"paths"`
	TermCmd string   `mapstructure:"term_cmd" yaml:"term_cmd"`
}

type FilesConfig struct {
	Prefix  string   `mapstructure:"prefix" yaml:"prefix"`
	Roots   []string `mapstructure:"roots" yaml:"roots"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
}

func setDefaults(v *viper.Viper) {
	dataDir := filepath.Join(dataHome(), "poki-launcher")
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("socket_path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("storage.backend", BackendSQLite)
	v.SetDefault("storage.half_life", frecency.DefaultHalfLife)
	v.SetDefault("storage.rebaseline_after", time.Duration(0))

	v.SetDefault("search.max_results", 9)

	v.SetDefault("plugins.load_order", []string{PluginFiles, PluginApps})
	v.SetDefault("plugins.apps.paths", slices.Clone(apps.DefaultPaths))
	v.SetDefault("plugins.apps.term_cmd", "")
	v.SetDefault("plugins.files.prefix", ":")
	v.SetDefault("plugins.files.roots", []string{"~/Documents", "~/Downloads"})
	v.SetDefault("plugins.files.exclude", []string{"**/node_modules", "**/target", "**/__pycache__"})

	wc := watcher.DefaultWatcherConfig()
	v.SetDefault("watcher.enabled", wc.Enabled)
	v.SetDefault("watcher.debounce_window", wc.DebounceWindow)
	v.SetDefault("watcher.max_batch_size", wc.MaxBatchSize)
	v.SetDefault("watcher.ignore_patterns", wc.IgnorePatterns)
	v.SetDefault("watcher.watch_hidden", wc.WatchHidden)
}

// Load reads configuration from path, or from config.yaml in the user
// config directory when path is empty. Environment variables prefixed with
// POKI_ override file values, e.g. POKI_STORAGE_BACKEND=blob.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(configHome(), "poki-launcher"))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) expandPaths() {
	c.DataDir = ExpandHome(c.DataDir)
	if c.SocketPath == "" {
		c.SocketPath = filepath.Join(c.DataDir, "poki.sock")
	}
	c.SocketPath = ExpandHome(c.SocketPath)
	for i, p := range c.Plugins.Apps.Paths {
		c.Plugins.Apps.Paths[i] = ExpandHome(p)
	}
	for i, p := range c.Plugins.Files.Roots {
		c.Plugins.Files.Roots[i] = ExpandHome(p)
	}
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	switch c.Storage.Backend {
	case BackendSQLite, BackendBlob:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendSQLite, BackendBlob, c.Storage.Backend)
	}
	if c.Storage.HalfLife <= 0 {
		return fmt.Errorf("storage.half_life must be greater than 0")
	}
	if c.Storage.RebaselineAfter < 0 {
		return fmt.Errorf("storage.rebaseline_after must be >= 0")
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be >= 0")
	}
	if len(c.Plugins.LoadOrder) == 0 {
		return fmt.Errorf("plugins.load_order must name at least one plugin")
	}
	seen := map[string]bool{}
	for _, name := range c.Plugins.LoadOrder {
		if !slices.Contains([]string{PluginApps, PluginFiles}, name) {
			return fmt.Errorf("plugins.load_order: unknown plugin %q", name)
		}
		if seen[name] {
			return fmt.Errorf("plugins.load_order: %q listed twice", name)
		}
		seen[name] = true
	}
	if seen[PluginFiles] && c.Plugins.Files.Prefix == "" {
		return fmt.Errorf("plugins.files.prefix must not be empty")
	}
	if c.Watcher.Enabled && c.Watcher.DebounceWindow <= 0 {
		return fmt.Errorf("watcher.debounce_window must be greater than 0")
	}
	return nil
}

// DBPath is where plugin keeps its database for the configured backend.
func (c *Config) DBPath(plugin string) string {
	ext := ".sqlite"
	if c.Storage.Backend == BackendBlob {
		ext = ".db"
	}
	return filepath.Join(c.DataDir, plugin+ext)
}

func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "daemon.lock")
}

func (c *Config) PIDPath() string {
	return filepath.Join(c.DataDir, "daemon.pid")
}

func (c *Config) EnsureDirectories() error {
	return os.MkdirAll(c.DataDir, 0o700)
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	return filepath.Join(homeDir(), strings.TrimPrefix(path, "~"))
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(homeDir(), ".local", "share")
}

func configHome() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return filepath.Join(homeDir(), ".config")
}
