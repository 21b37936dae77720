// Package storage keeps an archive of finished games in SQLite.
//
// Only outcomes are stored. A live arena is never written here and is never
// restored on start.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/coindelisi66/token-hunger-arena/internal/arena"
	"github.com/coindelisi66/token-hunger-arena/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
    id          TEXT PRIMARY KEY,
    started_at  DATETIME,
    finished_at DATETIME NOT NULL,
    survivors   TEXT     NOT NULL DEFAULT '',
    top_volume  INTEGER  NOT NULL DEFAULT 0,
    snapshot    TEXT     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_games_finished ON games(finished_at DESC);
`

const defaultHistoryLimit = 20

// SQLiteJournal implements game.Recorder.
type SQLiteJournal struct {
	db *sql.DB
}

var _ game.Recorder = (*SQLiteJournal)(nil)

// NewSQLiteJournal opens (or creates) the database at path. ":memory:" works
// for tests.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}

// RecordOutcome stores a finished game. Recording the same id twice keeps the
// latest row.
func (s *SQLiteJournal) RecordOutcome(ctx context.Context, o game.Outcome) error {
	snap, err := json.Marshal(o.Snapshot)
	if err != nil {
		return fmt.Errorf("storage.RecordOutcome: marshal snapshot: %w", err)
	}
	survivors := o.Snapshot.Survivors()
	names := make([]string, 0, len(survivors))
	var top int64
	for _, t := range survivors {
		names = append(names, t.Name)
		if t.Volume > top {
			top = t.Volume
		}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO games (id, started_at, finished_at, survivors, top_volume, snapshot)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at  = excluded.started_at,
			finished_at = excluded.finished_at,
			survivors   = excluded.survivors,
			top_volume  = excluded.top_volume,
			snapshot    = excluded.snapshot
	`, o.ID, nullTimeVal(o.StartedAt), o.FinishedAt.UTC(), strings.Join(names, ","), top, string(snap))
	if err != nil {
		return fmt.Errorf("storage.RecordOutcome: insert %s: %w", o.ID, err)
	}
	return nil
}

// Recent returns up to limit finished games, newest first.
func (s *SQLiteJournal) Recent(ctx context.Context, limit int) ([]game.Outcome, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, snapshot
		FROM games
		ORDER BY finished_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.Recent: query: %w", err)
	}
	defer rows.Close()

	var out []game.Outcome
	for rows.Next() {
		var (
			o       game.Outcome
			started sql.NullTime
			raw     string
		)
		if err := rows.Scan(&o.ID, &started, &o.FinishedAt, &raw); err != nil {
			return nil, fmt.Errorf("storage.Recent: scan: %w", err)
		}
		if started.Valid {
			o.StartedAt = started.Time
		}
		var snap arena.Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			return nil, fmt.Errorf("storage.Recent: decode snapshot %s: %w", o.ID, err)
		}
		o.Snapshot = snap
		out = append(out, o)
	}
	return out, rows.Err()
}

func nullTimeVal(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
