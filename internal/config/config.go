// Package config provides configuration loading and validation for the
// server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config represents the service configuration. It can be loaded from a JSON
// file, from the environment, or both; environment values win.
type Config struct {
	// Server
	Port int `json:"port,omitempty"` // HTTP listen port

	// Storage
	DataDir string `json:"data_dir,omitempty"` // Root directory for pipeline artifacts

	// Collection
	FeedBaseURL string `json:"feed_base_url,omitempty"` // Base URL of the feed mirror to scrape
	UseBrowser  bool   `json:"use_browser,omitempty"`   // Use headless browser for JS-rendered mirrors

	// Behavior
	APIKey  string `json:"api_key,omitempty"` // Gemini API key
	Verbose bool   `json:"verbose,omitempty"` // Print detailed debug information

	// Scheduled refresh
	RefreshSchedule  string   `json:"refresh_schedule,omitempty"`  // Cron expression; empty disables the scheduler
	RefreshUsernames []string `json:"refresh_usernames,omitempty"` // Usernames refreshed on the schedule
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:        3000,
		DataDir:     "data/pipeline",
		FeedBaseURL: "https://nitter.net",
	}
}

// Load loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overlays environment variables onto the config. Recognized
// variables: PORT, DATA_DIR, FEED_BASE_URL, USE_BROWSER, GEMINI_API_KEY,
// REFRESH_SCHEDULE, REFRESH_USERNAMES (comma-separated).
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("FEED_BASE_URL"); v != "" {
		c.FeedBaseURL = v
	}
	if v := os.Getenv("USE_BROWSER"); v != "" {
		c.UseBrowser = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("REFRESH_SCHEDULE"); v != "" {
		c.RefreshSchedule = v
	}
	if v := os.Getenv("REFRESH_USERNAMES"); v != "" {
		c.RefreshUsernames = c.RefreshUsernames[:0]
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.RefreshUsernames = append(c.RefreshUsernames, name)
			}
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.FeedBaseURL == "" {
		result.FeedBaseURL = defaults.FeedBaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.RefreshSchedule == "" {
		result.RefreshSchedule = defaults.RefreshSchedule
	}
	if len(result.RefreshUsernames) == 0 {
		result.RefreshUsernames = defaults.RefreshUsernames
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535")
	}
	if c.DataDir == "" {
		return fmt.Errorf("config error: 'data_dir' must not be empty")
	}
	if c.FeedBaseURL == "" {
		return fmt.Errorf("config error: 'feed_base_url' must not be empty")
	}
	if c.RefreshSchedule != "" && len(c.RefreshUsernames) == 0 {
		return fmt.Errorf("config error: 'refresh_schedule' is set but 'refresh_usernames' is empty")
	}
	return nil
}
