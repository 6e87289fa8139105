package watcher

import "time"

type WatcherConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	DebounceWindow time.Duration `mapstructure:"debounce_window" yaml:"debounce_window"`
	MaxBatchSize   int           `mapstructure:"max_batch_size" yaml:"max_batch_size"`
	IgnorePatterns []string      `mapstructure:"ignore_patterns" yaml:"ignore_patterns"`
	WatchHidden    bool          `mapstructure:"watch_hidden" yaml:"watch_hidden"`
}

// DefaultWatcherConfig waits long enough for package managers to finish
// writing a batch of desktop entries before reporting a change.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Enabled:        true,
		DebounceWindow: 2 * time.Second,
		MaxBatchSize:   256,
		IgnorePatterns: []string{
			"**/*.tmp",
			"**/*~",
			"**/.git/**",
			"**/node_modules/**",
			"**/__pycache__/**",
		},
		WatchHidden: false,
	}
}
