// Package trace keeps a SQLite journal of turn outcomes and stage timings.
// Message text is never written.
package trace

import (
	"context"
	"database/sql"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"voxtalk/internal/assistant"
)

type Journal struct {
	db *sql.DB
}

func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}

	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return j, nil
}

func (j *Journal) initSchema() error {
	_, err := j.db.Exec(`
	CREATE TABLE IF NOT EXISTS turns (
		session_id  TEXT NOT NULL,
		turn_index  INTEGER NOT NULL,
		outcome     TEXT NOT NULL,
		reason      TEXT NOT NULL DEFAULT '',
		started_at  INTEGER NOT NULL,
		listen_ms   INTEGER NOT NULL,
		complete_ms INTEGER NOT NULL,
		speak_ms    INTEGER NOT NULL,
		PRIMARY KEY (session_id, turn_index)
	);
	CREATE INDEX IF NOT EXISTS idx_turns_started ON turns(started_at);
	`)
	return err
}

func (j *Journal) Record(ctx context.Context, t assistant.Turn) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO turns (session_id, turn_index, outcome, reason, started_at, listen_ms, complete_ms, speak_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.SessionID, t.Index, string(t.Outcome), t.Reason, t.Started.UnixMilli(),
		t.Listen.Milliseconds(), t.Complete.Milliseconds(), t.Speak.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}

// Summary counts turns per outcome for one session.
func (j *Journal) Summary(ctx context.Context, sessionID string) (map[string]int, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM turns WHERE session_id = ? GROUP BY outcome`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out[outcome] = n
	}
	return out, rows.Err()
}

func (j *Journal) TurnDone(ctx context.Context, t assistant.Turn) {
	if err := j.Record(ctx, t); err != nil {
		log.Warn("Failed to journal turn", "err", err)
	}
}

func (j *Journal) StateChanged(string, bool) {}

func (j *Journal) Close() error {
	return j.db.Close()
}
