package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/veralis-app/salesdesk/go-engine/internal/history"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to engine_history.db")
	last := flag.Int("last", 20, "show N most recent sessions")
	sessionID := flag.String("session", "", "show single session detail")
	subject := flag.String("subject", "", "filter sessions to one subject")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/engine_history.db [--last N] [--session id] [--subject id] [--json]")
		os.Exit(2)
	}

	store, err := history.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *sessionID != "" {
		err = runDetailMode(store, *sessionID, *jsonOut)
	} else {
		err = runListMode(store, *last, *subject, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runListMode(store *history.Store, last int, subject string, jsonOut bool) error {
	var sessions []history.SessionRecord
	var err error
	if subject != "" {
		sessions, err = store.SubjectSessions(subject, last)
	} else {
		sessions, err = store.RecentSessions(last)
	}
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	if jsonOut {
		return printJSON(sessions)
	}

	fmt.Printf("%-10s  %-14s  %-14s  %8s  %6s  %-12s  %s\n",
		"Session", "Subject", "Reason", "Attempts", "Streak", "Archetype", "Ended")
	fmt.Printf("%-10s+-%-14s+-%-14s+-%8s+-%6s+-%-12s+-%s\n",
		"----------", "--------------", "--------------", "--------", "------", "------------", "--------------------")
	for _, rec := range sessions {
		archetype := "—"
		if rec.Archetype != "" {
			archetype = rec.Archetype
		}
		fmt.Printf("%-10s  %-14s  %-14s  %8d  %6d  %-12s  %s\n",
			shortID(rec.SessionID), rec.SubjectID, rec.Reason, rec.Attempts,
			rec.Streak, archetype, rec.EndedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(store *history.Store, sessionID string, jsonOut bool) error {
	observations, err := store.Observations(sessionID)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		return fmt.Errorf("no observations for session %s", sessionID)
	}

	if jsonOut {
		return printJSON(observations)
	}

	fmt.Printf("Session: %s\n", sessionID)
	fmt.Printf("Subject: %s\n\n", observations[0].SubjectID)
	fmt.Printf("%-8s  %-10s  %-9s  %-7s  %6s  %s\n",
		"Attempt", "Error", "Complete", "Stable", "Streak", "Note")
	fmt.Printf("%-8s+-%-10s+-%-9s+-%-7s+-%6s+-%s\n",
		"--------", "----------", "---------", "-------", "------", "--------------------")
	for _, o := range observations {
		errKind := "—"
		if o.ErrorKind != "" {
			errKind = o.ErrorKind
		}
		note := o.Note
		if len(note) > 40 {
			note = note[:40] + "…"
		}
		fmt.Printf("%-8d  %-10s  %-9v  %-7v  %6d  %s\n",
			o.Attempt, errKind, o.Complete, o.Stable, o.Streak, note)
	}
	return nil
}

// #endregion detail-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
