// Package config handles loading and managing chatarchive configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ArchiveConfig locates the Messages database.
type ArchiveConfig struct {
	DatabasePath string `toml:"database_path"` // Path to chat.db (default: ~/Library/Messages/chat.db)
}

// ThreadsConfig tunes thread segmentation.
type ThreadsConfig struct {
	TimeGapHours        float64 `toml:"time_gap_hours"`       // Max gap within one thread (default: 4)
	SimilarityThreshold float64 `toml:"similarity_threshold"` // Jaccard threshold for borderline gaps (default: 0.3)
	MaxDaysApart        int     `toml:"max_days_apart"`       // Window for related-thread detection (default: 7)
}

// ServerConfig holds dashboard API server configuration.
type ServerConfig struct {
	APIPort int `toml:"api_port"` // HTTP server port (default: 8080)
}

type Config struct {
	Archive ArchiveConfig `toml:"archive"`
	Threads ThreadsConfig `toml:"threads"`
	Server  ServerConfig  `toml:"server"`

	// Computed paths (not from config file)
	HomeDir string `toml:"-"`
}

// DefaultHome returns the default chatarchive home directory.
// Respects CHATARCHIVE_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("CHATARCHIVE_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chatarchive"
	}
	return filepath.Join(home, ".chatarchive")
}

// Load reads the configuration from the specified file.
// If path is empty, uses the default location (~/.chatarchive/config.toml).
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	homeDir := DefaultHome()

	if path == "" {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := &Config{
		HomeDir: homeDir,
		// Defaults
		Threads: ThreadsConfig{
			TimeGapHours:        4,
			SimilarityThreshold: 0.3,
			MaxDaysApart:        7,
		},
		Server: ServerConfig{
			APIPort: 8080,
		},
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Archive.DatabasePath = expandPath(cfg.Archive.DatabasePath)

	return cfg, nil
}

// HistoryPath returns the path to the search-history file.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.HomeDir, "search_history.json")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
