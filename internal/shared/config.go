package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// APIURLEnv overrides [APIConfig.BaseURL] when set.
const APIURLEnv = "CINEAI_API_URL"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Polling  PollingConfig  `toml:"polling"`
	Blend    BlendConfig    `toml:"blend"`
	History  HistoryConfig  `toml:"history"`
}

// APIConfig locates the remote CineAI API and its web frontend.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
	WebURL  string `toml:"web_url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PollingConfig controls the background refresh loops of the blend screens.
type PollingConfig struct {
	ListIntervalSeconds   int `toml:"list_interval_seconds"`
	DetailIntervalSeconds int `toml:"detail_interval_seconds"`
	ListRefreshDelayMS    int `toml:"list_refresh_delay_ms"`
	DetailRefreshDelayMS  int `toml:"detail_refresh_delay_ms"`
}

// BlendConfig contains local blend cache settings.
type BlendConfig struct {
	PruneAfter int `toml:"prune_after"`
}

// HistoryConfig contains watch history settings.
type HistoryConfig struct {
	RateLimit   float64 `toml:"rate_limit"`
	RecentLimit int     `toml:"recent_limit"`
}

// ListInterval is the poll period of the blend list.
func (p PollingConfig) ListInterval() time.Duration {
	return seconds(p.ListIntervalSeconds, 15)
}

// DetailInterval is the poll period of a single blend.
func (p PollingConfig) DetailInterval() time.Duration {
	return seconds(p.DetailIntervalSeconds, 5)
}

// ListRefreshDelay is how long the list waits after an add-history action before refreshing.
func (p PollingConfig) ListRefreshDelay() time.Duration {
	return millis(p.ListRefreshDelayMS, 2000)
}

// DetailRefreshDelay is how long the detail view waits after an add-history action before refreshing.
func (p PollingConfig) DetailRefreshDelay() time.Duration {
	return millis(p.DetailRefreshDelayMS, 1000)
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}

func millis(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.applyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

func (c *Config) applyEnv() {
	if u := os.Getenv(APIURLEnv); u != "" {
		c.API.BaseURL = u
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
