package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/veralis-app/salesdesk/go-engine/internal/convergence"
	"github.com/veralis-app/salesdesk/go-engine/internal/poller"
	"github.com/veralis-app/salesdesk/go-engine/internal/profile"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a scripted
// sequence of backend responses plus the outcome the engine is expected to
// reach.
type Fixture struct {
	Description string        `json:"description"`
	SubjectID   string        `json:"subject_id"`
	Config      FixtureConfig `json:"config"`
	Polls       []Poll        `json:"polls"`
	Expected    Expected      `json:"expected"`
}

// Poll is one scripted backend response: either a snapshot or a fetch
// failure kind ("transport" | "not_found" | "malformed").
type Poll struct {
	Snapshot *profile.Snapshot `json:"snapshot,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Expected captures the outcome a fixture asserts: the terminal reason and,
// optionally, the attempt count and the streak value after each poll.
type Expected struct {
	Reason   string `json:"reason"`
	Attempts int    `json:"attempts,omitempty"`
	Streaks  []int  `json:"streaks,omitempty"`
}

// FixtureConfig mirrors poller.Config with JSON tags. Zero fields fall back
// to the engine defaults.
type FixtureConfig struct {
	IntervalMs          int     `json:"interval_ms"`
	MaxAttempts         int     `json:"max_attempts"`
	RequiredStreak      int     `json:"required_streak"`
	ScoreTolerance      float64 `json:"score_tolerance"`
	ConfidenceTolerance float64 `json:"confidence_tolerance"`
	MinConfidence       float64 `json:"min_confidence"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.SubjectID == "" {
		return nil, fmt.Errorf("fixture %s: missing subject_id", path)
	}
	if len(f.Polls) == 0 {
		return nil, fmt.Errorf("fixture %s: no polls", path)
	}
	return &f, nil
}

// ToPollerConfig converts a FixtureConfig to a domain poller.Config.
// Replays run with a millisecond-scale interval; the fixture may widen it
// but never waits the production five seconds.
func (fc FixtureConfig) ToPollerConfig() poller.Config {
	cfg := poller.Config{
		Interval:       time.Millisecond,
		FetchTimeout:   time.Second,
		MaxAttempts:    fc.MaxAttempts,
		RequiredStreak: fc.RequiredStreak,
		Tolerances: convergence.Tolerances{
			Score:      fc.ScoreTolerance,
			Confidence: fc.ConfidenceTolerance,
		},
		Completeness: convergence.CompletenessConfig{
			MinConfidence: fc.MinConfidence,
		},
	}
	if fc.IntervalMs > 0 {
		cfg.Interval = time.Duration(fc.IntervalMs) * time.Millisecond
	}
	return cfg
}

// #endregion fixture-loader
