package m2c2

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EventStoreMode selects what an EventStore does with events.
type EventStoreMode uint8

const (
	EventStoreDisabled EventStoreMode = iota
	EventStoreRecord
	EventStoreReplay
)

func (m EventStoreMode) String() string {
	switch m {
	case EventStoreDisabled:
		return "disabled"
	case EventStoreRecord:
		return "record"
	case EventStoreReplay:
		return "replay"
	}
	return fmt.Sprintf("EventStoreMode(%d)", m)
}

// ParseEventStoreMode parses "disabled", "record" or "replay".
func ParseEventStoreMode(s string) (EventStoreMode, error) {
	switch s {
	case "", "disabled":
		return EventStoreDisabled, nil
	case "record":
		return EventStoreRecord, nil
	case "replay":
		return EventStoreReplay, nil
	}
	return EventStoreDisabled, fmt.Errorf("m2c2: unknown event store mode %q", s)
}

// UnmarshalYAML decodes a mode name.
func (m *EventStoreMode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	mode, err := ParseEventStoreMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// MarshalYAML encodes the mode name.
func (m EventStoreMode) MarshalYAML() (any, error) {
	return m.String(), nil
}

// EventStore records events in Record mode and feeds them back, on
// schedule, in Replay mode. It is safe for concurrent use.
type EventStore struct {
	mu     sync.Mutex
	mode   EventStoreMode
	events []Event
	// serialized holds the last Serialize output, used by Replay(nil).
	serialized []byte

	queue          []Event
	replayBegin    float64
	firstTimestamp float64
	replayThrough  int64
}

// NewEventStore returns a store in mode.
func NewEventStore(mode EventStoreMode) *EventStore {
	return &EventStore{mode: mode}
}

// Mode returns the current mode.
func (s *EventStore) Mode() EventStoreMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the mode.
func (s *EventStore) SetMode(m EventStoreMode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}

// AddEvent stores a copy of e in Record mode and is a no-op otherwise. The
// copy is the event's JSON round trip, so later changes to the original
// target or payload cannot alter the record. A missing sequence number is
// assigned from the process-wide counter.
func (s *EventStore) AddEvent(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != EventStoreRecord {
		return nil
	}
	if e.Sequence == 0 {
		e.Sequence = nextSequence()
	}
	stored, err := roundTrip(e)
	if err != nil {
		return err
	}
	s.events = append(s.events, stored)
	return nil
}

// Events returns a copy of the recorded events.
func (s *EventStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// Len returns the number of recorded events.
func (s *EventStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Serialize encodes the recorded events as JSON and keeps the result for
// a later Replay(nil).
func (s *EventStore) Serialize() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := MarshalEvents(s.events)
	if err != nil {
		return nil, err
	}
	s.serialized = data
	return data, nil
}

// Clear drops recorded and queued events.
func (s *EventStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.queue = nil
}

// Replay switches to Replay mode and queues events, ordered by sequence,
// to be dequeued relative to now. With nil events it replays the last
// serialized snapshot or, if none, the recorded events.
func (s *EventStore) Replay(events []Event, now float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if events == nil {
		switch {
		case s.serialized != nil:
			decoded, err := UnmarshalEvents(s.serialized)
			if err != nil {
				return err
			}
			events = decoded
		default:
			events = s.events
		}
	}
	if len(events) == 0 {
		return ErrReplayEmpty
	}
	q := slices.Clone(events)
	slices.SortStableFunc(q, func(a, b Event) int {
		switch {
		case a.Sequence < b.Sequence:
			return -1
		case a.Sequence > b.Sequence:
			return 1
		}
		return 0
	})
	s.queue = q
	s.firstTimestamp = q[0].Timestamp
	s.replayBegin = now
	s.mode = EventStoreReplay
	logger().Info("replay started",
		zap.Int("events", len(q)),
		zap.Int64("firstSequence", q[0].Sequence),
		zap.Int64("lastSequence", q[len(q)-1].Sequence),
	)
	return nil
}

// ReplayThroughSequence limits replay to events with a sequence number up
// to and including seq. Zero removes the limit.
func (s *EventStore) ReplayThroughSequence(seq int64) {
	s.mu.Lock()
	s.replayThrough = seq
	s.mu.Unlock()
}

// DequeueEvents removes and returns the queued events whose original
// timestamp has been reached at now. The replay clock starts at the first
// event's timestamp when Replay is called. Due events past the
// ReplayThroughSequence limit are removed without being returned.
func (s *EventStore) DequeueEvents(now float64) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != EventStoreReplay || len(s.queue) == 0 {
		return nil
	}
	due := now - s.replayBegin + s.firstTimestamp
	i := 0
	for i < len(s.queue) && s.queue[i].Timestamp <= due {
		i++
	}
	if i == 0 {
		return nil
	}
	var out []Event
	for _, e := range s.queue[:i] {
		if s.replayThrough > 0 && e.Sequence > s.replayThrough {
			continue
		}
		out = append(out, e)
	}
	s.queue = s.queue[i:]
	return out
}

// Pending returns the number of events still queued for replay.
func (s *EventStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
