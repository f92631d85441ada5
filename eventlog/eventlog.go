// Package eventlog persists recorded m2c2 sessions so they can be
// inspected and replayed later. A session is the ordered event list of one
// game run, keyed by a session ID (normally the game UUID).
package eventlog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/m2c2kit/m2c2"
)

// ErrSessionNotFound is returned by Load for an unknown session.
var ErrSessionNotFound = errors.New("eventlog: session not found")

// Log stores sessions.
type Log interface {
	// Append adds events to the end of a session, creating it if needed.
	Append(ctx context.Context, sessionID string, events ...m2c2.Event) error
	// Load returns a session's events in sequence order.
	Load(ctx context.Context, sessionID string) ([]m2c2.Event, error)
	// Sessions lists the stored session IDs, oldest first.
	Sessions(ctx context.Context) ([]string, error)
	Close() error
}

// Config selects and configures a Log backend.
type Config struct {
	// Backend is "file", "redis" or "postgres".
	Backend string `yaml:"backend"`
	// Dir is the FileLog directory.
	Dir string `yaml:"dir"`
	// Addr, Password and DB configure RedisLog.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// DSN is the PostgresLog connection string.
	DSN string `yaml:"dsn"`
}

// Open returns the Log cfg describes. An empty backend means "file".
func Open(ctx context.Context, cfg Config) (Log, error) {
	switch cfg.Backend {
	case "", "file":
		dir := cfg.Dir
		if dir == "" {
			dir = "sessions"
		}
		return NewFileLog(dir)
	case "redis":
		return NewRedisLog(ctx, cfg.Addr, cfg.Password, cfg.DB)
	case "postgres":
		return NewPostgresLog(ctx, cfg.DSN)
	}
	return nil, fmt.Errorf("eventlog: unknown backend %q", cfg.Backend)
}

func sortBySequence(events []m2c2.Event) {
	slices.SortStableFunc(events, func(a, b m2c2.Event) int {
		switch {
		case a.Sequence < b.Sequence:
			return -1
		case a.Sequence > b.Sequence:
			return 1
		}
		return 0
	})
}

// Recorder copies the events a game records into a Log.
type Recorder struct {
	log       Log
	sessionID string
	store     *m2c2.EventStore

	mu      sync.Mutex
	written int
}

// NewRecorder returns a recorder writing store's events to sessionID.
func NewRecorder(log Log, sessionID string, store *m2c2.EventStore) *Recorder {
	return &Recorder{log: log, sessionID: sessionID, store: store}
}

// Flush appends the events recorded since the last successful Flush.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.store.Events()
	if len(events) <= r.written {
		return nil
	}
	if err := r.log.Append(ctx, r.sessionID, events[r.written:]...); err != nil {
		return err
	}
	r.written = len(events)
	return nil
}

// Written returns the number of events flushed so far.
func (r *Recorder) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Attach flushes after every frame of g. Failures are logged and retried
// on the next frame.
func (r *Recorder) Attach(g *m2c2.Game) {
	g.OnFrame(func(stats m2c2.FrameStats) {
		if err := r.Flush(context.Background()); err != nil {
			m2c2.Logger().Warn("event log flush failed",
				zap.String("session", r.sessionID),
				zap.Int64("frame", stats.Frame),
				zap.Error(err),
			)
		}
	})
}
