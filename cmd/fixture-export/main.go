package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/veralis-app/salesdesk/go-engine/internal/history"
	"github.com/veralis-app/salesdesk/go-engine/internal/replay"
)

// fixture-export turns a recorded polling session into a replay fixture:
// the observation trail's snapshots and error kinds become scripted polls,
// and the recorded outcome becomes the expectation. Replaying the fixture
// against a changed engine shows exactly where behaviour diverged.

// #region main

func main() {
	dbPath := flag.String("db", "", "path to engine_history.db")
	sessionID := flag.String("session", "", "session to export")
	out := flag.String("out", "", "output fixture path (default: stdout)")
	description := flag.String("desc", "", "fixture description")
	flag.Parse()

	if *dbPath == "" || *sessionID == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/engine_history.db --session id [--out fixture.json] [--desc text]")
		os.Exit(2)
	}

	store, err := history.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	fixture, err := buildFixture(store, *sessionID, *description)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal fixture: %v\n", err)
		os.Exit(1)
	}
	data = append(data, '\n')

	if *out == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d polls)\n", *out, len(fixture.Polls))
}

// #endregion main

// #region build

func buildFixture(store *history.Store, sessionID, description string) (*replay.Fixture, error) {
	observations, err := store.Observations(sessionID)
	if err != nil {
		return nil, err
	}
	if len(observations) == 0 {
		return nil, fmt.Errorf("no observations for session %s", sessionID)
	}

	fixture := &replay.Fixture{
		Description: description,
		SubjectID:   observations[0].SubjectID,
	}

	fixture.Polls = make([]replay.Poll, len(observations))
	streaks := make([]int, len(observations))
	for i, o := range observations {
		poll := replay.Poll{Error: o.ErrorKind}
		if o.ErrorKind == "" {
			if o.Snapshot == nil {
				return nil, fmt.Errorf("attempt %d has no recorded snapshot; session predates snapshot capture", o.Attempt)
			}
			poll.Snapshot = o.Snapshot
		}
		fixture.Polls[i] = poll
		streaks[i] = o.Streak
	}
	fixture.Expected.Streaks = streaks
	fixture.Expected.Attempts = len(observations)

	// Terminal reason comes from the session row when present.
	sessions, err := store.SubjectSessions(observations[0].SubjectID, 50)
	if err == nil {
		for _, rec := range sessions {
			if rec.SessionID == sessionID {
				fixture.Expected.Reason = rec.Reason
				break
			}
		}
	}

	// An exhausted session only replays to exhaustion if the ceiling
	// matches the recorded attempt count.
	if fixture.Expected.Reason == "exhausted" {
		fixture.Config.MaxAttempts = len(observations)
	}

	return fixture, nil
}

// #endregion build
