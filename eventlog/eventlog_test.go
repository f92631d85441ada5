package eventlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2c2kit/m2c2"
)

func event(seq int64, property string, value any) m2c2.Event {
	return m2c2.Event{
		Type:      m2c2.EventNodePropertyChange,
		Target:    "node-1",
		Timestamp: float64(seq) * 10,
		Sequence:  seq,
		UUID:      "node-1",
		Property:  property,
		Value:     value,
	}
}

// runLogContract checks the behavior every Log backend shares.
func runLogContract(t *testing.T, log Log) {
	t.Helper()
	ctx := context.Background()

	_, err := log.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, log.Append(ctx, "s1", event(2, "hidden", true), event(1, "alpha", 0.5)))
	require.NoError(t, log.Append(ctx, "s1", event(3, "name", "box")))
	require.NoError(t, log.Append(ctx, "s2", event(1, "alpha", 1.0)))

	events, err := log.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, int64(i+1), e.Sequence, "events load in sequence order")
	}
	assert.Equal(t, "alpha", events[0].Property)
	assert.Equal(t, 0.5, events[0].Value)
	assert.Equal(t, "node-1", events[0].TargetID())
	assert.Equal(t, m2c2.EventNodePropertyChange, events[2].Type)

	sessions, err := log.Sessions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, sessions)
}

func TestFileLog(t *testing.T) {
	log, err := NewFileLog(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)
	defer log.Close()
	runLogContract(t, log)
}

func TestFileLogRejectsPathSessionIDs(t *testing.T) {
	log, err := NewFileLog(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	for _, id := range []string{"", "..", "a/b", `a\b`} {
		assert.Error(t, log.Append(ctx, id, event(1, "alpha", 1.0)), "session id %q", id)
	}
}

func TestFileLogCorruptLine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.jsonl"), []byte("{\"type\":\"NodeNew\"}\nnot json\n"), 0o644))
	log, err := NewFileLog(dir)
	require.NoError(t, err)
	_, err = log.Load(context.Background(), "bad")
	assert.ErrorContains(t, err, "line 2")
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisLog(t *testing.T) {
	_, client := newMiniredis(t)
	log := NewRedisLogFromClient(client, WithPrefix("test:"))
	defer log.Close()
	runLogContract(t, log)
}

func TestRedisLogExpiredSessionsLeaveIndex(t *testing.T) {
	mr, client := newMiniredis(t)
	log := NewRedisLogFromClient(client, WithTTL(time.Minute))
	ctx := context.Background()
	require.NoError(t, log.Append(ctx, "short", event(1, "alpha", 1.0)))

	mr.FastForward(2 * time.Minute)
	sessions, err := log.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	_, err = log.Load(ctx, "short")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestNewRedisLogPing(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	log, err := NewRedisLog(context.Background(), addr, "", 0)
	require.NoError(t, err)
	require.NoError(t, log.Close())

	mr.Close()
	_, err = NewRedisLog(context.Background(), addr, "", 0)
	assert.Error(t, err)
}

func TestPostgresLog(t *testing.T) {
	dsn := os.Getenv("M2C2_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("M2C2_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	log, err := NewPostgresLog(ctx, dsn)
	require.NoError(t, err)
	defer log.Close()
	_, err = log.db.ExecContext(ctx, `DELETE FROM m2c2_events WHERE session_id IN ('s1', 's2')`)
	require.NoError(t, err)
	runLogContract(t, log)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	log, err := Open(ctx, Config{Backend: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileLog{}, log)

	_, client := newMiniredis(t)
	log, err = Open(ctx, Config{Backend: "redis", Addr: client.Options().Addr})
	require.NoError(t, err)
	assert.IsType(t, &RedisLog{}, log)
	log.Close()

	_, err = Open(ctx, Config{Backend: "kafka"})
	assert.ErrorContains(t, err, "unknown backend")
}

func TestRecorderFlushesNewEvents(t *testing.T) {
	g := m2c2.NewGame(m2c2.GameOptions{TimeStepping: true, EventStore: m2c2.EventStoreRecord}, m2c2.Services{
		Fonts:  m2c2.NewDefaultFonts(),
		Images: m2c2.NewMemoryImages(),
	})
	log, err := NewFileLog(t.TempDir())
	require.NoError(t, err)
	rec := NewRecorder(log, g.UUID(), g.EventStore())
	ctx := context.Background()

	s := m2c2.NewScene(m2c2.SceneOptions{NodeOptions: m2c2.NodeOptions{Name: "trial"}})
	g.AddScene(s)
	require.NoError(t, rec.Flush(ctx))
	first := rec.Written()
	require.Positive(t, first)

	require.NoError(t, rec.Flush(ctx))
	assert.Equal(t, first, rec.Written(), "nothing new to flush")

	g.PresentScene(s, m2c2.TransitionNone())
	require.NoError(t, rec.Flush(ctx))

	stored, err := log.Load(ctx, g.UUID())
	require.NoError(t, err)
	assert.Equal(t, g.EventStore().Len(), len(stored))
	assert.Equal(t, m2c2.EventScenePresent, stored[len(stored)-1].Type)
}

func TestRecorderAttach(t *testing.T) {
	g := m2c2.NewGame(m2c2.GameOptions{TimeStepping: true, EventStore: m2c2.EventStoreRecord}, m2c2.Services{
		Fonts:  m2c2.NewDefaultFonts(),
		Images: m2c2.NewMemoryImages(),
	})
	_, client := newMiniredis(t)
	log := NewRedisLogFromClient(client)
	rec := NewRecorder(log, "attached", g.EventStore())
	rec.Attach(g)

	s := m2c2.NewScene(m2c2.SceneOptions{})
	g.AddScene(s)
	g.PresentScene(s, m2c2.TransitionNone())
	require.NoError(t, g.Update())
	g.ReportFrame(0, 0)

	stored, err := log.Load(context.Background(), "attached")
	require.NoError(t, err)
	assert.Equal(t, g.EventStore().Len(), len(stored))
}
