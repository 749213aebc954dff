package poller

import (
	"context"
	"errors"
	"time"

	"github.com/veralis-app/salesdesk/go-engine/internal/convergence"
	"github.com/veralis-app/salesdesk/go-engine/internal/profile"
)

// #region reason

// Reason enumerates why a polling session stopped (or has not started).
type Reason string

const (
	ReasonNotStarted    Reason = "not-started"
	ReasonConverged     Reason = "converged"
	ReasonExhausted     Reason = "exhausted"
	ReasonCancelled     Reason = "cancelled"
	ReasonAwaitingInput Reason = "awaiting-input"
)

// Terminal reports whether the reason ends a session.
func (r Reason) Terminal() bool {
	return r != "" && r != ReasonNotStarted
}

// #endregion reason

// #region errors

// ErrEmptySubject is fatal to session start: the controller never enters
// fetching for a blank subject identifier.
var ErrEmptySubject = errors.New("empty subject id")

// #endregion errors

// #region fetcher

// Fetcher abstracts the snapshot read so the controller can be tested
// without the HTTP client.
type Fetcher interface {
	Fetch(ctx context.Context, subjectID string) (profile.Snapshot, error)
}

// #endregion fetcher

// #region config

// Config holds the tuning knobs for one polling session.
type Config struct {
	Interval       time.Duration // delay between polls
	FetchTimeout   time.Duration // per-fetch deadline
	MaxAttempts    int           // attempt ceiling before exhaustion
	RequiredStreak int           // consecutive complete-and-stable observations to converge
	Tolerances     convergence.Tolerances
	Completeness   convergence.CompletenessConfig
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Interval:       5 * time.Second,
		FetchTimeout:   10 * time.Second,
		MaxAttempts:    15,
		RequiredStreak: 3,
		Tolerances:     convergence.DefaultTolerances(),
		Completeness:   convergence.DefaultCompletenessConfig(),
	}
}

// normalized back-fills zero fields with defaults so a partially specified
// config never yields a session that cannot terminate.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = def.FetchTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.RequiredStreak <= 0 {
		c.RequiredStreak = def.RequiredStreak
	}
	if c.Tolerances.Score <= 0 {
		c.Tolerances.Score = def.Tolerances.Score
	}
	if c.Tolerances.Confidence <= 0 {
		c.Tolerances.Confidence = def.Tolerances.Confidence
	}
	if c.Completeness.MinConfidence <= 0 {
		c.Completeness.MinConfidence = def.Completeness.MinConfidence
	}
	return c
}

// #endregion config

// #region observation

// Observation is the record of one fetch-and-evaluate cycle. The raw
// snapshot is kept so a recorded session can be replayed deterministically.
type Observation struct {
	Attempt   int               `json:"attempt"`
	ErrorKind string            `json:"error_kind,omitempty"` // transport | not_found | malformed
	Complete  bool              `json:"complete"`
	Stable    bool              `json:"stable"`
	Streak    int               `json:"streak"`
	Note      string            `json:"note,omitempty"` // first field that broke stability
	Snapshot  *profile.Snapshot `json:"snapshot,omitempty"`
	At        time.Time         `json:"at"`
}

// #endregion observation

// #region view

// SessionView is the read-only projection handed to callers. The session's
// own state is mutated only by its polling goroutine.
type SessionView struct {
	SessionID      string            `json:"session_id"`
	SubjectID      string            `json:"subject_id"`
	Polling        bool              `json:"polling"`
	Attempts       int               `json:"attempts"`
	MaxAttempts    int               `json:"max_attempts"`
	Streak         int               `json:"streak"`
	RequiredStreak int               `json:"required_streak"`
	Reason         Reason            `json:"reason"`
	Snapshot       *profile.Snapshot `json:"snapshot,omitempty"` // best known, possibly partial
	StartedAt      time.Time         `json:"started_at"`
	EndedAt        time.Time         `json:"ended_at,omitempty"`
}

// #endregion view

// #region recorder

// Recorder receives session telemetry for persistence. Implementations must
// tolerate being called from the session goroutine; failures are the
// recorder's to log, never the session's to propagate.
type Recorder interface {
	RecordObservation(sessionID, subjectID string, obs Observation)
	RecordTerminal(view SessionView)
}

// #endregion recorder
