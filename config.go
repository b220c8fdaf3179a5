package axdom

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	// DBPath is the SQLite archive for snapshots and the query log.
	// Empty runs the service without persistence.
	DBPath string `yaml:"db_path"`

	Browser BrowserConfig `yaml:"browser"`

	// MaxMatches caps QueryAll result size. Default: 200.
	MaxMatches int `yaml:"max_matches"`

	// HTTPAddr is the web API listen address (e.g. ":8470"). Empty
	// disables the HTTP surface.
	HTTPAddr string `yaml:"http_addr"`

	Logger *slog.Logger `yaml:"-"`
}

// BrowserConfig controls the Chrome connection used for live captures.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Headful          bool          `yaml:"headful"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	NavigateTimeout  time.Duration `yaml:"navigate_timeout"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("axdom: read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("axdom: parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxMatches <= 0 {
		c.MaxMatches = 200
	}
	if c.Browser.NavigateTimeout <= 0 {
		c.Browser.NavigateTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
