// Package config loads the engine's YAML configuration file and back-fills
// defaults for anything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/veralis-app/salesdesk/go-engine/internal/convergence"
	"github.com/veralis-app/salesdesk/go-engine/internal/poller"
)

// Config holds all engine configuration.
type Config struct {
	ListenAddr string       `yaml:"listen_addr"`
	BackendURL string       `yaml:"backend_url"`
	DBPath     string       `yaml:"db_path"`
	Poller     PollerConfig `yaml:"poller"`
}

// PollerConfig controls convergence polling behaviour.
type PollerConfig struct {
	Interval            time.Duration `yaml:"interval"`
	FetchTimeout        time.Duration `yaml:"fetch_timeout"`
	MaxAttempts         int           `yaml:"max_attempts"`
	RequiredStreak      int           `yaml:"required_streak"`
	ScoreTolerance      float64       `yaml:"score_tolerance"`
	ConfidenceTolerance float64       `yaml:"confidence_tolerance"`
	MinConfidence       float64       `yaml:"min_confidence"`
}

func (c *Config) defaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8085"
	}
	if c.BackendURL == "" {
		c.BackendURL = "http://localhost:8090"
	}
	if c.DBPath == "" {
		c.DBPath = "engine_history.db"
	}
	def := poller.DefaultConfig()
	if c.Poller.Interval <= 0 {
		c.Poller.Interval = def.Interval
	}
	if c.Poller.FetchTimeout <= 0 {
		c.Poller.FetchTimeout = def.FetchTimeout
	}
	if c.Poller.MaxAttempts <= 0 {
		c.Poller.MaxAttempts = def.MaxAttempts
	}
	if c.Poller.RequiredStreak <= 0 {
		c.Poller.RequiredStreak = def.RequiredStreak
	}
	if c.Poller.ScoreTolerance <= 0 {
		c.Poller.ScoreTolerance = def.Tolerances.Score
	}
	if c.Poller.ConfidenceTolerance <= 0 {
		c.Poller.ConfidenceTolerance = def.Tolerances.Confidence
	}
	if c.Poller.MinConfidence <= 0 {
		c.Poller.MinConfidence = def.Completeness.MinConfidence
	}
}

// Default returns a config with every field at its default value.
func Default() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

// LoadFile reads a YAML config file and back-fills defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.defaults()
	return cfg, nil
}

// ToPollerConfig converts the YAML shape to the domain poller.Config.
func (c *Config) ToPollerConfig() poller.Config {
	return poller.Config{
		Interval:       c.Poller.Interval,
		FetchTimeout:   c.Poller.FetchTimeout,
		MaxAttempts:    c.Poller.MaxAttempts,
		RequiredStreak: c.Poller.RequiredStreak,
		Tolerances: convergence.Tolerances{
			Score:      c.Poller.ScoreTolerance,
			Confidence: c.Poller.ConfidenceTolerance,
		},
		Completeness: convergence.CompletenessConfig{
			MinConfidence: c.Poller.MinConfidence,
		},
	}
}
