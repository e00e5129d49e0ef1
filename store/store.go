// Package store keeps the local history database: every dictation's text
// and every meeting with its speaker-attributed segments.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"voco/diarize"
)

type Dictation struct {
	ID           int64
	Workflow     string
	Text         string
	AudioSeconds float64
	CreatedAt    time.Time
}

type Meeting struct {
	ID           int64
	Transcript   string
	AudioSeconds float64
	CreatedAt    time.Time
	Segments     []diarize.Segment
}

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// modernc sqlite serializes writes; one connection avoids lock churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS dictations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			workflow TEXT NOT NULL,
			text TEXT NOT NULL,
			audio_seconds REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);
	`); err != nil {
		return fmt.Errorf("create dictations table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS meetings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transcript TEXT NOT NULL,
			audio_seconds REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);
	`); err != nil {
		return fmt.Errorf("create meetings table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS meeting_segments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			meeting_id INTEGER NOT NULL,
			speaker TEXT NOT NULL,
			start_time REAL NOT NULL,
			end_time REAL NOT NULL,
			FOREIGN KEY(meeting_id) REFERENCES meetings(id) ON DELETE CASCADE
		);
	`); err != nil {
		return fmt.Errorf("create meeting_segments table: %w", err)
	}

	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_dictations_created_at ON dictations(created_at)"); err != nil {
		return fmt.Errorf("create dictations index: %w", err)
	}
	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_meeting_segments_meeting_id ON meeting_segments(meeting_id, start_time)"); err != nil {
		return fmt.Errorf("create meeting_segments index: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) AddDictation(workflow, text string, audioSeconds float64) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO dictations(workflow, text, audio_seconds, created_at) VALUES(?, ?, ?, ?)`,
		workflow,
		strings.TrimSpace(text),
		audioSeconds,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("add dictation: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) RecentDictations(limit int) ([]Dictation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, workflow, text, audio_seconds, created_at
		 FROM dictations ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query dictations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Dictation
	for rows.Next() {
		var d Dictation
		var createdAt string
		if err := rows.Scan(&d.ID, &d.Workflow, &d.Text, &d.AudioSeconds, &createdAt); err != nil {
			return nil, fmt.Errorf("scan dictation: %w", err)
		}
		d.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse dictation %d created_at: %w", d.ID, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dictation rows: %w", err)
	}
	return out, nil
}

// AddMeeting writes the meeting and its segments in one transaction.
func (s *Store) AddMeeting(transcript string, audioSeconds float64, segments []diarize.Segment) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin meeting tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(
		`INSERT INTO meetings(transcript, audio_seconds, created_at) VALUES(?, ?, ?)`,
		strings.TrimSpace(transcript),
		audioSeconds,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("add meeting: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, seg := range segments {
		if _, err := tx.Exec(
			`INSERT INTO meeting_segments(meeting_id, speaker, start_time, end_time) VALUES(?, ?, ?, ?)`,
			id, seg.Speaker, seg.Start, seg.End,
		); err != nil {
			return 0, fmt.Errorf("add meeting segment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit meeting: %w", err)
	}
	return id, nil
}

func (s *Store) GetMeeting(id int64) (Meeting, error) {
	row := s.db.QueryRow(
		`SELECT id, transcript, audio_seconds, created_at FROM meetings WHERE id = ?`, id,
	)

	var m Meeting
	var createdAt string
	if err := row.Scan(&m.ID, &m.Transcript, &m.AudioSeconds, &createdAt); err != nil {
		return Meeting{}, fmt.Errorf("query meeting %d: %w", id, err)
	}
	var err error
	m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Meeting{}, fmt.Errorf("parse meeting %d created_at: %w", id, err)
	}

	rows, err := s.db.Query(
		`SELECT speaker, start_time, end_time FROM meeting_segments
		 WHERE meeting_id = ? ORDER BY start_time`, id,
	)
	if err != nil {
		return Meeting{}, fmt.Errorf("query meeting %d segments: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var seg diarize.Segment
		if err := rows.Scan(&seg.Speaker, &seg.Start, &seg.End); err != nil {
			return Meeting{}, fmt.Errorf("scan meeting segment: %w", err)
		}
		m.Segments = append(m.Segments, seg)
	}
	if err := rows.Err(); err != nil {
		return Meeting{}, fmt.Errorf("iterate meeting segment rows: %w", err)
	}
	return m, nil
}

// DefaultPath puts the database next to the logs.
func DefaultPath(logDir string) string {
	return filepath.Join(logDir, "history.db")
}
