package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/veralis-app/salesdesk/go-engine/internal/fetch"
	"github.com/veralis-app/salesdesk/go-engine/internal/poller"
	"github.com/veralis-app/salesdesk/go-engine/internal/profile"
)

// #region types

// Result captures the outcome of replaying a scripted poll sequence through
// a real polling session.
type Result struct {
	SubjectID    string
	Reason       poller.Reason
	Attempts     int
	Streak       int
	Observations []poller.Observation
}

// #endregion types

// #region scripted-fetcher

// scriptedFetcher serves polls in order. If the session outlives the
// script, the final poll repeats — a backend that has stopped changing.
type scriptedFetcher struct {
	mu    sync.Mutex
	polls []Poll
	idx   int
}

func (f *scriptedFetcher) Fetch(_ context.Context, subjectID string) (profile.Snapshot, error) {
	f.mu.Lock()
	p := f.polls[f.idx]
	if f.idx < len(f.polls)-1 {
		f.idx++
	}
	f.mu.Unlock()

	switch p.Error {
	case "":
		if p.Snapshot == nil {
			return profile.Snapshot{}, &fetch.MalformedError{Err: errors.New("scripted poll has no snapshot")}
		}
	case "not_found":
		return profile.Snapshot{}, fmt.Errorf("subject %s: %w", subjectID, fetch.ErrNotFound)
	case "malformed":
		return profile.Snapshot{}, &fetch.MalformedError{Err: errors.New("scripted failure")}
	default: // "transport" and anything unrecognized
		return profile.Snapshot{}, &fetch.TransportError{Op: "scripted", Err: errors.New("scripted failure")}
	}

	snap := p.Snapshot.Clone()
	if snap.SubjectID == "" {
		snap.SubjectID = subjectID
	}
	snap.FetchedAt = time.Now().UTC()
	return snap, nil
}

// #endregion scripted-fetcher

// #region collector

// collector implements poller.Recorder by accumulating observations in
// memory.
type collector struct {
	mu  sync.Mutex
	obs []poller.Observation
}

func (c *collector) RecordObservation(_, _ string, o poller.Observation) {
	c.mu.Lock()
	c.obs = append(c.obs, o)
	c.mu.Unlock()
}

func (c *collector) RecordTerminal(poller.SessionView) {}

func (c *collector) observations() []poller.Observation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]poller.Observation(nil), c.obs...)
}

// #endregion collector

// #region run

// Run replays the scripted polls through a real session and blocks until it
// reaches a terminal reason. Deterministic: evaluation is driven entirely
// by the script, only the inter-poll delay is real (millisecond scale).
func Run(subjectID string, polls []Poll, cfg poller.Config) (Result, error) {
	if len(polls) == 0 {
		return Result{}, errors.New("no polls to replay")
	}

	col := &collector{}
	mgr := poller.NewManager(&scriptedFetcher{polls: polls}, cfg, col)

	session, err := mgr.Start(subjectID)
	if err != nil {
		return Result{}, fmt.Errorf("start session: %w", err)
	}

	select {
	case <-session.Done():
	case <-time.After(30 * time.Second):
		session.Stop()
		return Result{}, errors.New("replay did not terminate within 30s")
	}

	view := session.View()
	return Result{
		SubjectID:    subjectID,
		Reason:       view.Reason,
		Attempts:     view.Attempts,
		Streak:       view.Streak,
		Observations: col.observations(),
	}, nil
}

// RunFixture replays a loaded fixture.
func RunFixture(f *Fixture) (Result, error) {
	return Run(f.SubjectID, f.Polls, f.Config.ToPollerConfig())
}

// #endregion run

// #region compare

// Mismatch describes one divergence between a fixture's expectation and the
// replayed result.
type Mismatch struct {
	Field    string
	Expected string
	Got      string
}

// Compare checks a replay result against a fixture's expectations.
func Compare(f *Fixture, res Result) []Mismatch {
	var diffs []Mismatch

	if f.Expected.Reason != "" && f.Expected.Reason != string(res.Reason) {
		diffs = append(diffs, Mismatch{"reason", f.Expected.Reason, string(res.Reason)})
	}
	if f.Expected.Attempts > 0 && f.Expected.Attempts != res.Attempts {
		diffs = append(diffs, Mismatch{"attempts", fmt.Sprint(f.Expected.Attempts), fmt.Sprint(res.Attempts)})
	}
	for i, want := range f.Expected.Streaks {
		if i >= len(res.Observations) {
			diffs = append(diffs, Mismatch{fmt.Sprintf("streak[%d]", i), fmt.Sprint(want), "missing"})
			continue
		}
		if got := res.Observations[i].Streak; got != want {
			diffs = append(diffs, Mismatch{fmt.Sprintf("streak[%d]", i), fmt.Sprint(want), fmt.Sprint(got)})
		}
	}
	return diffs
}

// #endregion compare
