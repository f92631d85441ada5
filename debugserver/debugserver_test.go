package debugserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2c2kit/m2c2"
	"github.com/m2c2kit/m2c2/eventlog"
)

func newGame(t *testing.T) *m2c2.Game {
	t.Helper()
	g := m2c2.NewGame(m2c2.GameOptions{Name: "debug", TimeStepping: true, EventStore: m2c2.EventStoreRecord}, m2c2.Services{
		Fonts:  m2c2.NewDefaultFonts(),
		Images: m2c2.NewMemoryImages(),
	})
	s := m2c2.NewScene(m2c2.SceneOptions{NodeOptions: m2c2.NodeOptions{Name: "trial"}})
	g.AddScene(s)
	g.PresentScene(s, m2c2.TransitionNone())
	s.AddChild(m2c2.NewShape(m2c2.ShapeOptions{Rect: &m2c2.Size{Width: 10, Height: 10}}))
	return g
}

func frame(t *testing.T, g *m2c2.Game) {
	t.Helper()
	require.NoError(t, g.Update())
	g.ReportFrame(0, 0)
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestGameAndFrame(t *testing.T) {
	g := newGame(t)
	srv := New(g, nil)
	frame(t, g)
	h := srv.Handler()

	code, body := get(t, h, "/game")
	require.Equal(t, http.StatusOK, code)
	var info gameInfo
	require.NoError(t, json.Unmarshal([]byte(body), &info))
	assert.Equal(t, g.UUID(), info.UUID)
	assert.Equal(t, "trial", info.CurrentScene)
	assert.Equal(t, "record", info.EventStore)

	code, body = get(t, h, "/frame")
	require.Equal(t, http.StatusOK, code)
	var fr frameResponse
	require.NoError(t, json.Unmarshal([]byte(body), &fr))
	assert.Equal(t, int64(1), fr.Frame)
	assert.Equal(t, 3, fr.Nodes, "scene, shape and free nodes scene")

	code, _ = get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, code)
}

func TestEvents(t *testing.T) {
	g := newGame(t)
	h := New(g, nil).Handler()

	code, body := get(t, h, "/events")
	require.Equal(t, http.StatusOK, code)
	events, err := m2c2.UnmarshalEvents([]byte(body))
	require.NoError(t, err)
	require.Equal(t, g.EventStore().Len(), len(events))

	last := events[len(events)-1].Sequence
	_, body = get(t, h, "/events?after="+jsonInt(last))
	assert.JSONEq(t, "[]", body)

	code, _ = get(t, h, "/events?after=x")
	assert.Equal(t, http.StatusBadRequest, code)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestSessions(t *testing.T) {
	g := newGame(t)
	log, err := eventlog.NewFileLog(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, eventlog.NewRecorder(log, "s1", g.EventStore()).Flush(context.Background()))
	h := New(g, log).Handler()

	code, body := get(t, h, "/sessions")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["s1"]`, body)

	code, body = get(t, h, "/sessions/s1")
	require.Equal(t, http.StatusOK, code)
	events, err := m2c2.UnmarshalEvents([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, g.EventStore().Len(), len(events))

	code, _ = get(t, h, "/sessions/nope")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = get(t, New(g, nil).Handler(), "/sessions")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMetrics(t *testing.T) {
	g := newGame(t)
	srv := New(g, nil)
	frame(t, g)
	frame(t, g)

	code, body := get(t, srv.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "m2c2_frames_total 2")
	assert.Contains(t, body, "m2c2_nodes 3")
	assert.True(t, strings.Contains(body, `m2c2_frame_phase_seconds_count{phase="draw"} 2`))
}

func TestEventCounter(t *testing.T) {
	g := newGame(t)
	srv := New(g, nil)
	box := m2c2.NewShape(m2c2.ShapeOptions{Rect: &m2c2.Size{Width: 5, Height: 5}})
	g.CurrentScene().AddChild(box)

	_, body := get(t, srv.Handler(), "/metrics")
	assert.Contains(t, body, `m2c2_events_total{type="NodeAddChild"} 1`)
}
