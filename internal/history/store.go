package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"github.com/veralis-app/salesdesk/go-engine/internal/poller"
	"github.com/veralis-app/salesdesk/go-engine/internal/profile"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS poll_sessions (
	session_id   TEXT PRIMARY KEY,
	subject_id   TEXT NOT NULL,
	reason       TEXT NOT NULL,
	attempts     INTEGER NOT NULL,
	streak       INTEGER NOT NULL,
	archetype    TEXT,
	confidence   REAL,
	started_at   TEXT NOT NULL,
	ended_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_sessions_subject
ON poll_sessions(subject_id, ended_at);

CREATE TABLE IF NOT EXISTS poll_observations (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	subject_id    TEXT NOT NULL,
	attempt       INTEGER NOT NULL,
	error_kind    TEXT,
	complete      INTEGER NOT NULL DEFAULT 0,
	stable        INTEGER NOT NULL DEFAULT 0,
	streak        INTEGER NOT NULL,
	note          TEXT,
	snapshot_json TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_observations_session
ON poll_observations(session_id, attempt);
`

// #endregion schema

// #region store-struct

// Store persists polling sessions and their observation trails in SQLite.
// Writes are best-effort: a failed insert is logged and polling continues.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	return NewStoreWithDB(db)
}

// NewStoreWithDB runs migrations on an existing handle. Used for in-memory
// test databases.
func NewStoreWithDB(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store-struct

// #region recorder

// RecordObservation implements poller.Recorder.
func (s *Store) RecordObservation(sessionID, subjectID string, obs poller.Observation) {
	var snapJSON interface{}
	if obs.Snapshot != nil {
		data, err := json.Marshal(obs.Snapshot)
		if err == nil {
			snapJSON = string(data)
		}
	}
	_, err := s.db.Exec(`
		INSERT INTO poll_observations
		(session_id, subject_id, attempt, error_kind, complete, stable, streak, note, snapshot_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		subjectID,
		obs.Attempt,
		nullIfEmpty(obs.ErrorKind),
		boolToInt(obs.Complete),
		boolToInt(obs.Stable),
		obs.Streak,
		nullIfEmpty(obs.Note),
		snapJSON,
		obs.At.Format(time.RFC3339Nano),
	)
	if err != nil {
		log.Printf("[HIST] failed to record observation: %v", err)
	}
}

// RecordTerminal implements poller.Recorder.
func (s *Store) RecordTerminal(view poller.SessionView) {
	var archetype interface{}
	var confidence interface{}
	if view.Snapshot != nil {
		if view.Snapshot.Archetype != "" {
			archetype = view.Snapshot.Archetype
		}
		confidence = view.Snapshot.Confidence
	}
	_, err := s.db.Exec(`
		INSERT INTO poll_sessions
		(session_id, subject_id, reason, attempts, streak, archetype, confidence, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		view.SessionID,
		view.SubjectID,
		string(view.Reason),
		view.Attempts,
		view.Streak,
		archetype,
		confidence,
		view.StartedAt.Format(time.RFC3339Nano),
		view.EndedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		log.Printf("[HIST] failed to record session: %v", err)
	}
}

// #endregion recorder

// #region queries

// SessionRecord is one row from poll_sessions.
type SessionRecord struct {
	SessionID  string
	SubjectID  string
	Reason     string
	Attempts   int
	Streak     int
	Archetype  string
	Confidence float64
	StartedAt  time.Time
	EndedAt    time.Time
}

// ObservationRecord is one row from poll_observations.
type ObservationRecord struct {
	SessionID string
	SubjectID string
	Attempt   int
	ErrorKind string
	Complete  bool
	Stable    bool
	Streak    int
	Note      string
	Snapshot  *profile.Snapshot
	At        time.Time
}

// RecentSessions returns the most recently ended sessions.
func (s *Store) RecentSessions(limit int) ([]SessionRecord, error) {
	rows, err := s.db.Query(`
		SELECT session_id, subject_id, reason, attempts, streak, archetype, confidence, started_at, ended_at
		FROM poll_sessions ORDER BY ended_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// SubjectSessions returns a subject's sessions, newest first.
func (s *Store) SubjectSessions(subjectID string, limit int) ([]SessionRecord, error) {
	rows, err := s.db.Query(`
		SELECT session_id, subject_id, reason, attempts, streak, archetype, confidence, started_at, ended_at
		FROM poll_sessions WHERE subject_id = ? ORDER BY ended_at DESC LIMIT ?`, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list subject sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// Observations returns a session's full observation trail in attempt order.
func (s *Store) Observations(sessionID string) ([]ObservationRecord, error) {
	rows, err := s.db.Query(`
		SELECT session_id, subject_id, attempt, error_kind, complete, stable, streak, note, snapshot_json, created_at
		FROM poll_observations WHERE session_id = ? ORDER BY attempt ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	var records []ObservationRecord
	for rows.Next() {
		var rec ObservationRecord
		var errorKind, note, snapJSON sql.NullString
		var complete, stable int
		var createdStr string
		if err := rows.Scan(&rec.SessionID, &rec.SubjectID, &rec.Attempt, &errorKind,
			&complete, &stable, &rec.Streak, &note, &snapJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		rec.ErrorKind = errorKind.String
		rec.Note = note.String
		rec.Complete = complete != 0
		rec.Stable = stable != 0
		if snapJSON.Valid && snapJSON.String != "" {
			var snap profile.Snapshot
			if err := json.Unmarshal([]byte(snapJSON.String), &snap); err == nil {
				rec.Snapshot = &snap
			}
		}
		rec.At, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanSessions(rows *sql.Rows) ([]SessionRecord, error) {
	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var archetype sql.NullString
		var confidence sql.NullFloat64
		var startedStr, endedStr string
		if err := rows.Scan(&rec.SessionID, &rec.SubjectID, &rec.Reason, &rec.Attempts,
			&rec.Streak, &archetype, &confidence, &startedStr, &endedStr); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.Archetype = archetype.String
		rec.Confidence = confidence.Float64
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
		rec.EndedAt, _ = time.Parse(time.RFC3339Nano, endedStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion queries

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
