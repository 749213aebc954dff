package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veralis-app/salesdesk/go-engine/internal/convergence"
	"github.com/veralis-app/salesdesk/go-engine/internal/fetch"
	"github.com/veralis-app/salesdesk/go-engine/internal/profile"
)

// #region session-struct

// Session is one polling run for one subject. All mutable state is owned by
// the session's goroutine; callers interact only through Stop, Done and the
// SessionView projection.
type Session struct {
	id        string
	subjectID string
	cfg       Config
	fetcher   Fetcher
	recorder  Recorder

	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	attempts  int
	tracker   convergence.Tracker
	prev      *profile.Snapshot
	reason    Reason
	startedAt time.Time
	endedAt   time.Time
}

func newSession(subjectID string, cfg Config, fetcher Fetcher, recorder Recorder) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:        uuid.New().String(),
		subjectID: subjectID,
		cfg:       cfg,
		fetcher:   fetcher,
		recorder:  recorder,
		cancel:    cancel,
		done:      make(chan struct{}),
		reason:    ReasonNotStarted,
		startedAt: time.Now().UTC(),
	}
	go s.run(ctx)
	return s
}

// #endregion session-struct

// #region accessors

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// SubjectID returns the subject this session polls.
func (s *Session) SubjectID() string { return s.subjectID }

// Done is closed when the session reaches a terminal reason and its timer
// resource is released.
func (s *Session) Done() <-chan struct{} { return s.done }

// Stop cancels the session. A pending timer or in-flight fetch resolving
// after this call never mutates session state. Safe to call repeatedly.
func (s *Session) Stop() { s.cancel() }

// View returns a read-only projection of the session's current state.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() SessionView {
	v := SessionView{
		SessionID:      s.id,
		SubjectID:      s.subjectID,
		Polling:        !s.reason.Terminal(),
		Attempts:       s.attempts,
		MaxAttempts:    s.cfg.MaxAttempts,
		Streak:         s.tracker.Streak(),
		RequiredStreak: s.cfg.RequiredStreak,
		Reason:         s.reason,
		StartedAt:      s.startedAt,
		EndedAt:        s.endedAt,
	}
	if s.prev != nil {
		snap := s.prev.Clone()
		v.Snapshot = &snap
	}
	return v
}

// #endregion accessors

// #region run-loop

// run is the session's state machine: fetch, evaluate, then either finish
// or schedule the next fetch. One outstanding fetch at a time; the next one
// is never issued before the previous evaluation completes.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	log.Printf("[POLL] %s subject=%s start interval=%s max_attempts=%d required_streak=%d",
		shortID(s.id), s.subjectID, s.cfg.Interval, s.cfg.MaxAttempts, s.cfg.RequiredStreak)

	timer := time.NewTimer(0) // first fetch fires immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.finish(ReasonCancelled)
			return
		case <-timer.C:
		}

		fctx, cancelFetch := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		snap, err := s.fetcher.Fetch(fctx, s.subjectID)
		cancelFetch()

		// A fetch that resolves after cancellation belongs to a superseded
		// session; drop it without touching counters or the snapshot.
		if ctx.Err() != nil {
			s.finish(ReasonCancelled)
			return
		}

		if reason := s.evaluate(snap, err); reason.Terminal() {
			s.finish(reason)
			return
		}

		timer.Reset(s.cfg.Interval)
	}
}

// evaluate folds one fetch result into the session state and returns a
// terminal reason, or ReasonNotStarted to keep polling.
func (s *Session) evaluate(snap profile.Snapshot, fetchErr error) Reason {
	s.mu.Lock()

	s.attempts++
	obs := Observation{
		Attempt: s.attempts,
		At:      time.Now().UTC(),
	}

	var terminal Reason
	if fetchErr != nil {
		// One spent attempt, one incomplete observation, streak resets.
		obs.ErrorKind = fetch.Kind(fetchErr)
		obs.Streak = s.tracker.Observe(false, false)
		log.Printf("[POLL] %s subject=%s attempt=%d fetch failed (%s): %v",
			shortID(s.id), s.subjectID, s.attempts, obs.ErrorKind, fetchErr)
	} else {
		comp := convergence.EvaluateCompleteness(snap, s.cfg.Completeness)
		stab := convergence.CompareStability(s.prev, snap, s.cfg.Tolerances)
		obs.Complete = comp.Complete()
		obs.Stable = stab.Stable
		obs.Note = stab.Reason
		obs.Streak = s.tracker.Observe(obs.Complete, obs.Stable)
		s.prev = &snap
		snapCopy := snap.Clone()
		obs.Snapshot = &snapCopy

		log.Printf("[POLL] %s subject=%s attempt=%d complete=%v stable=%v streak=%d/%d",
			shortID(s.id), s.subjectID, s.attempts, obs.Complete, obs.Stable,
			obs.Streak, s.cfg.RequiredStreak)

		switch {
		case comp.AwaitingInput:
			// Backend is blocked on open questions; polling longer cannot
			// make progress. Terminal regardless of attempt count.
			terminal = ReasonAwaitingInput
		case s.tracker.HasConverged(s.cfg.RequiredStreak):
			terminal = ReasonConverged
		}
	}

	if terminal == "" && s.attempts >= s.cfg.MaxAttempts {
		terminal = ReasonExhausted
	}
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.RecordObservation(s.id, s.subjectID, obs)
	}
	if terminal == "" {
		return ReasonNotStarted
	}
	return terminal
}

// finish records the terminal transition exactly once.
func (s *Session) finish(reason Reason) {
	s.mu.Lock()
	if s.reason.Terminal() {
		s.mu.Unlock()
		return
	}
	s.reason = reason
	s.endedAt = time.Now().UTC()
	view := s.viewLocked()
	s.mu.Unlock()

	log.Printf("[POLL] %s subject=%s terminal reason=%s attempts=%d streak=%d",
		shortID(s.id), s.subjectID, reason, view.Attempts, view.Streak)

	if s.recorder != nil {
		s.recorder.RecordTerminal(view)
	}
}

// #endregion run-loop

// #region helpers

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion helpers
