package daemon

import (
	"time"

	"github.com/alucardeht/poki-launcher/internal/frecency"
	"github.com/alucardeht/poki-launcher/internal/launcher"
)

const (
	MethodPing   = "ping"
	MethodSearch = "search"
	MethodLaunch = "launch"
	MethodRescan = "rescan"
	MethodReload = "reload"
	MethodShow   = "show"
	MethodStats  = "stats"
)

// Error codes beyond the JSON-RPC reserved range.
const (
	CodeNotFound int64 = 1
)

type PingResult struct {
	PID    int           `json:"pid"`
	Uptime time.Duration `json:"uptime"`
}

type SearchParams struct {
	Input string `json:"input"`
	Limit int    `json:"limit,omitempty"`
}

type SearchResult struct {
	Entries []launcher.Entry `json:"entries"`
}

type LaunchParams struct {
	Plugin string      `json:"plugin"`
	ID     frecency.ID `json:"id"`
}

type ReloadParams struct {
	Plugins []string `json:"plugins,omitempty"`
}

type RescanResult struct {
	Plugins map[string]frecency.MergeStats `json:"plugins"`
}

type StatsResult struct {
	PID         int                    `json:"pid"`
	Uptime      time.Duration          `json:"uptime"`
	Connections int                    `json:"connections"`
	Plugins     []launcher.PluginStats `json:"plugins"`
}

type Ack struct {
	OK bool `json:"ok"`
}
