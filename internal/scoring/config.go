package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the declarative scoring configuration decoded from
// scoring_config.yaml. It is the single source of truth shared by
// ScoreAll and any future read-side score breakdown.
type Config struct {
	SignalWeights map[string]float64 `yaml:"signal_weights"`

	Recency struct {
		MaxAgeDays int     `yaml:"max_age_days"`
		DecayBoost float64 `yaml:"decay_boost"`
	} `yaml:"recency"`

	// StatusMultipliers is keyed by source, then by lowercased/trimmed
	// detail.status.
	StatusMultipliers map[string]map[string]float64 `yaml:"status_multipliers"`

	Bonuses struct {
		MultiSourceThreshold int     `yaml:"multi_source_threshold"`
		MultiSourcePoints    float64 `yaml:"multi_source_points"`
	} `yaml:"bonuses"`

	Tiers struct {
		A float64 `yaml:"A"`
		B float64 `yaml:"B"`
	} `yaml:"tiers"`
}

// defaults mirrors the fallbacks the original scoring config shipped with,
// applied to any field the YAML file leaves zero-valued.
func (c *Config) applyDefaults() {
	if c.Recency.MaxAgeDays == 0 {
		c.Recency.MaxAgeDays = 1825
	}
	if c.Recency.DecayBoost == 0 {
		c.Recency.DecayBoost = 0.5
	}
	if c.Bonuses.MultiSourceThreshold == 0 {
		c.Bonuses.MultiSourceThreshold = 2
	}
	if c.Bonuses.MultiSourcePoints == 0 {
		c.Bonuses.MultiSourcePoints = 5
	}
	if c.Tiers.A == 0 {
		c.Tiers.A = 25
	}
	if c.Tiers.B == 0 {
		c.Tiers.B = 12
	}
}

// LoadConfig reads and decodes the scoring configuration from path.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scoring config %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing scoring config %q: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}
