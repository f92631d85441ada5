// Package debugserver exposes a running game over HTTP: its recorded
// events, the latest frame statistics, stored sessions and Prometheus
// metrics.
package debugserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/m2c2kit/m2c2"
	"github.com/m2c2kit/m2c2/eventlog"
)

// Server serves debug endpoints for one game.
type Server struct {
	game     *m2c2.Game
	log      eventlog.Log
	registry *prometheus.Registry

	frames       prometheus.Counter
	frameSeconds *prometheus.HistogramVec
	nodes        prometheus.Gauge
	actions      prometheus.Gauge
	storedEvents prometheus.Gauge
	events       *prometheus.CounterVec

	mu   sync.RWMutex
	last m2c2.FrameStats
}

// New returns a server observing g. log may be nil, which disables the
// session endpoints.
func New(g *m2c2.Game, log eventlog.Log) *Server {
	s := &Server{
		game:     g,
		log:      log,
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "m2c2_frames_total",
			Help: "Frames run by the game.",
		}),
		frameSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "m2c2_frame_phase_seconds",
			Help:    "Time spent per frame in update and draw.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}, []string{"phase"}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "m2c2_nodes",
			Help: "Nodes in the current scene, outgoing scene and free nodes.",
		}),
		actions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "m2c2_running_actions",
			Help: "Actions attached to nodes in the last frame.",
		}),
		storedEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "m2c2_stored_events",
			Help: "Events held by the event store.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "m2c2_events_total",
			Help: "Events handled by the game, by type.",
		}, []string{"type"}),
	}
	s.registry.MustRegister(s.frames, s.frameSeconds, s.nodes, s.actions, s.storedEvents, s.events)
	g.OnFrame(s.observeFrame)
	g.OnEvent(func(e m2c2.Event) {
		s.events.WithLabelValues(string(e.Type)).Inc()
	})
	return s
}

func (s *Server) observeFrame(stats m2c2.FrameStats) {
	s.frames.Inc()
	s.frameSeconds.WithLabelValues("update").Observe(stats.UpdateTime.Seconds())
	s.frameSeconds.WithLabelValues("draw").Observe(stats.DrawTime.Seconds())
	s.nodes.Set(float64(stats.Nodes))
	s.actions.Set(float64(stats.Actions))
	s.storedEvents.Set(float64(stats.StoredEvents))
	s.mu.Lock()
	s.last = stats
	s.mu.Unlock()
}

// Registry returns the server's metrics registry.
func (s *Server) Registry() *prometheus.Registry { return s.registry }

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/game", s.getGame)
	r.Get("/frame", s.getFrame)
	r.Get("/events", s.getEvents)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Get("/{id}", s.getSession)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// ListenAndServe serves Handler on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	m2c2.Logger().Info("debug server listening", zap.String("addr", addr))
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type gameInfo struct {
	UUID         string           `json:"uuid"`
	Options      m2c2.GameOptions `json:"options"`
	CurrentScene string           `json:"currentScene,omitempty"`
	EventStore   string           `json:"eventStore"`
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	info := gameInfo{
		UUID:       s.game.UUID(),
		Options:    s.game.Options(),
		EventStore: s.game.EventStore().Mode().String(),
	}
	if sc := s.game.CurrentScene(); sc != nil {
		info.CurrentScene = sc.Name()
	}
	writeJSON(w, http.StatusOK, info)
}

type frameResponse struct {
	Frame        int64   `json:"frame"`
	Timestamp    float64 `json:"timestamp"`
	DeltaTime    float64 `json:"deltaTime"`
	UpdateMillis float64 `json:"updateMillis"`
	DrawMillis   float64 `json:"drawMillis"`
	Nodes        int     `json:"nodes"`
	Actions      int     `json:"actions"`
	Events       int     `json:"events"`
	StoredEvents int     `json:"storedEvents"`
}

func (s *Server) getFrame(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st := s.last
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, frameResponse{
		Frame:        st.Frame,
		Timestamp:    st.Timestamp,
		DeltaTime:    st.DeltaTime,
		UpdateMillis: float64(st.UpdateTime) / float64(time.Millisecond),
		DrawMillis:   float64(st.DrawTime) / float64(time.Millisecond),
		Nodes:        st.Nodes,
		Actions:      st.Actions,
		Events:       st.Events,
		StoredEvents: st.StoredEvents,
	})
}

// getEvents returns the recorded events, optionally only those with a
// sequence number above ?after=.
func (s *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	events := s.game.EventStore().Events()
	if v := r.URL.Query().Get("after"); v != "" {
		after, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid after", http.StatusBadRequest)
			return
		}
		filtered := events[:0]
		for _, e := range events {
			if e.Sequence > after {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	if events == nil {
		events = []m2c2.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if s.log == nil {
		http.Error(w, "no event log configured", http.StatusNotFound)
		return
	}
	ids, err := s.log.Sessions(r.Context())
	if err != nil {
		s.internalError(w, "list sessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	if s.log == nil {
		http.Error(w, "no event log configured", http.StatusNotFound)
		return
	}
	id := chi.URLParam(r, "id")
	events, err := s.log.Load(r.Context(), id)
	if errors.Is(err, eventlog.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, "load session", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	m2c2.Logger().Error("debug server", zap.String("op", op), zap.Error(err))
	http.Error(w, op+" failed", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		m2c2.Logger().Warn("debug server encode failed", zap.Error(err))
	}
}
