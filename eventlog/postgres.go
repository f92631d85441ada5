package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/m2c2kit/m2c2"
)

const createEventsTable = `
	CREATE TABLE IF NOT EXISTS m2c2_events (
		session_id  TEXT NOT NULL,
		sequence    BIGINT NOT NULL,
		event_type  TEXT NOT NULL,
		ts          DOUBLE PRECISION NOT NULL,
		body        JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (session_id, sequence)
	);
	CREATE INDEX IF NOT EXISTS idx_m2c2_events_created ON m2c2_events(created_at);
`

// PostgresLog stores events as rows keyed by session and sequence.
// Appending an event whose sequence is already stored replaces it.
type PostgresLog struct {
	db *sql.DB
}

// NewPostgresLog opens dsn with lib/pq, pings it and creates the events
// table if needed.
func NewPostgresLog(ctx context.Context, dsn string) (*PostgresLog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open postgres: %w", err)
	}
	l, err := NewPostgresLogFromDB(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// NewPostgresLogFromDB uses an open database.
func NewPostgresLogFromDB(ctx context.Context, db *sql.DB) (*PostgresLog, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("eventlog: ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createEventsTable); err != nil {
		return nil, fmt.Errorf("eventlog: create events table: %w", err)
	}
	return &PostgresLog{db: db}, nil
}

func (l *PostgresLog) Append(ctx context.Context, sessionID string, events ...m2c2.Event) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("eventlog: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO m2c2_events (session_id, sequence, event_type, ts, body)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, sequence) DO UPDATE
		SET event_type = EXCLUDED.event_type, ts = EXCLUDED.ts, body = EXCLUDED.body
	`)
	if err != nil {
		return fmt.Errorf("eventlog: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("eventlog: encode %s event: %w", e.Type, err)
		}
		if _, err := stmt.ExecContext(ctx, sessionID, e.Sequence, string(e.Type), e.Timestamp, body); err != nil {
			return fmt.Errorf("eventlog: insert %s event: %w", e.Type, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("eventlog: commit: %w", err)
	}
	return nil
}

func (l *PostgresLog) Load(ctx context.Context, sessionID string) ([]m2c2.Event, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT body FROM m2c2_events WHERE session_id = $1 ORDER BY sequence`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("eventlog: query session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var events []m2c2.Event
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("eventlog: scan event: %w", err)
		}
		var e m2c2.Event
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, fmt.Errorf("eventlog: %s event %d: %w", sessionID, len(events), err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("eventlog: read session %s: %w", sessionID, err)
	}
	if len(events) == 0 {
		return nil, ErrSessionNotFound
	}
	return events, nil
}

func (l *PostgresLog) Sessions(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT session_id FROM m2c2_events
		GROUP BY session_id
		ORDER BY min(created_at), session_id
	`)
	if err != nil {
		return nil, fmt.Errorf("eventlog: list postgres sessions: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("eventlog: scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (l *PostgresLog) Close() error { return l.db.Close() }
