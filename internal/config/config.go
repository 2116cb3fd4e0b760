package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models scoreline.yml.
type Config struct {
	Scoring struct {
		HighScoreThreshold int `yaml:"high_score_threshold" json:"high_score_threshold"`
	} `yaml:"scoring" json:"scoring"`
	Listing struct {
		RecentGames int `yaml:"recent_games" json:"recent_games"`
		HighScores  int `yaml:"high_scores" json:"high_scores"`
		MaxLimit    int `yaml:"max_limit" json:"max_limit"`
	} `yaml:"listing" json:"listing"`
	Defaults struct {
		SoloPlayerName string `yaml:"solo_player_name" json:"solo_player_name"`
	} `yaml:"defaults" json:"defaults"`
	Webhooks []WebhookConfig `yaml:"webhooks" json:"webhooks,omitempty"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url" json:"url"`
	Events         []string `yaml:"events" json:"events,omitempty"`
	Secret         string   `yaml:"secret" json:"-"`
	TimeoutSeconds int      `yaml:"timeout_seconds" json:"timeout_seconds,omitempty"`
	Enabled        *bool    `yaml:"enabled" json:"enabled,omitempty"`
}

// Active reports whether the hook should receive deliveries.
func (w WebhookConfig) Active() bool {
	return w.Enabled == nil || *w.Enabled
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	cfg, err := FromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config %s not found; create it with sl config init", path)
	}
	return cfg, err
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Scoring.HighScoreThreshold < 1 || c.Scoring.HighScoreThreshold > 180 {
		return fmt.Errorf("config.scoring.high_score_threshold must be between 1 and 180")
	}
	if c.Listing.MaxLimit < 1 {
		return fmt.Errorf("config.listing.max_limit must be positive")
	}
	if c.Listing.RecentGames < 1 || c.Listing.HighScores < 1 {
		return fmt.Errorf("config.listing limits must be positive")
	}
	if c.Listing.RecentGames > c.Listing.MaxLimit {
		return fmt.Errorf("config.listing.recent_games exceeds max_limit %d", c.Listing.MaxLimit)
	}
	if c.Listing.HighScores > c.Listing.MaxLimit {
		return fmt.Errorf("config.listing.high_scores exceeds max_limit %d", c.Listing.MaxLimit)
	}
	if c.Defaults.SoloPlayerName == "" {
		return fmt.Errorf("config.defaults.solo_player_name is required")
	}
	for i, hook := range c.Webhooks {
		if hook.URL == "" {
			return fmt.Errorf("config.webhooks[%d].url is required", i)
		}
		u, err := url.Parse(hook.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config.webhooks[%d].url must be an http(s) url", i)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("config.webhooks[%d].timeout_seconds must not be negative", i)
		}
		for _, evt := range hook.Events {
			if evt == "" {
				return fmt.Errorf("config.webhooks[%d] has empty event type", i)
			}
		}
	}
	return nil
}

// ApplyDefaults fills zero values from the default template.
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Scoring.HighScoreThreshold == 0 {
		c.Scoring.HighScoreThreshold = d.Scoring.HighScoreThreshold
	}
	if c.Listing.RecentGames == 0 {
		c.Listing.RecentGames = d.Listing.RecentGames
	}
	if c.Listing.HighScores == 0 {
		c.Listing.HighScores = d.Listing.HighScores
	}
	if c.Listing.MaxLimit == 0 {
		c.Listing.MaxLimit = d.Listing.MaxLimit
	}
	if c.Defaults.SoloPlayerName == "" {
		c.Defaults.SoloPlayerName = d.Defaults.SoloPlayerName
	}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "scoreline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	cfg, err := FromFile(Path(workspace))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return cfg, err
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `scoring:
  # a turn total (three darts at most) reaching this counts as a high score
  high_score_threshold: 80

listing:
  recent_games: 5
  high_scores: 5
  max_limit: 200

defaults:
  solo_player_name: "Practice Mode"

# webhooks:
#   - url: https://example.com/hooks/darts
#     events: [game.completed]
#     timeout_seconds: 5
`
