package m2c2

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
)

func TestEventStoreRecordsOnlyInRecordMode(t *testing.T) {
	s := NewEventStore(EventStoreDisabled)
	if err := s.AddEvent(Event{Type: EventNodeNew, UUID: "x"}); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Error("disabled store recorded an event")
	}
	s.SetMode(EventStoreRecord)
	if err := s.AddEvent(Event{Type: EventNodeNew, UUID: "x"}); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	if s.Events()[0].Sequence == 0 {
		t.Error("missing sequence should be assigned")
	}
}

func TestEventStoreCopiesEvents(t *testing.T) {
	s := NewEventStore(EventStoreRecord)
	opts := NodeOptions{Name: "before"}
	if err := s.AddEvent(Event{Type: EventNodeNew, UUID: "x", NodeOptions: &opts}); err != nil {
		t.Fatal(err)
	}
	opts.Name = "after"
	stored := s.Events()[0].NodeOptions.(map[string]any)
	if stored["name"] != "before" {
		t.Errorf("stored name = %v, want before", stored["name"])
	}
}

func TestEventTargetSerializesAsID(t *testing.T) {
	n := NewNode(NodeOptions{})
	s := NewEventStore(EventStoreRecord)
	if err := s.AddEvent(Event{Type: EventNodePropertyChange, Target: n, UUID: n.UUID()}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddEvent(Event{Type: EventI18nDataReady, Target: TargetI18n}); err != nil {
		t.Fatal(err)
	}
	events := s.Events()
	if events[0].TargetID() != n.UUID() {
		t.Errorf("node target = %v", events[0].Target)
	}
	if events[1].TargetID() != TargetI18n {
		t.Errorf("manager target = %v", events[1].Target)
	}
}

func TestReplayEmpty(t *testing.T) {
	s := NewEventStore(EventStoreRecord)
	if err := s.Replay(nil, 0); !errors.Is(err, ErrReplayEmpty) {
		t.Errorf("err = %v, want ErrReplayEmpty", err)
	}
}

func TestDequeueEventsBySchedule(t *testing.T) {
	s := NewEventStore(EventStoreRecord)
	events := []Event{
		{Type: EventNodeNew, Sequence: 3, Timestamp: 1200},
		{Type: EventNodeNew, Sequence: 1, Timestamp: 1000},
		{Type: EventNodeNew, Sequence: 2, Timestamp: 1100},
	}
	if err := s.Replay(events, 50); err != nil {
		t.Fatal(err)
	}
	if s.Mode() != EventStoreReplay {
		t.Fatal("Replay should switch to replay mode")
	}

	got := s.DequeueEvents(50)
	if len(got) != 1 || got[0].Sequence != 1 {
		t.Fatalf("at start got %v, want sequence 1", got)
	}
	if got := s.DequeueEvents(149); len(got) != 0 {
		t.Fatalf("before second event got %d events", len(got))
	}
	got = s.DequeueEvents(300)
	if len(got) != 2 || got[0].Sequence != 2 || got[1].Sequence != 3 {
		t.Fatalf("got %v, want sequences 2 and 3", got)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", s.Pending())
	}
}

func TestReplayThroughSequence(t *testing.T) {
	s := NewEventStore(EventStoreRecord)
	var events []Event
	for i := int64(1); i <= 5; i++ {
		events = append(events, Event{Type: EventNodeNew, Sequence: i, Timestamp: 0})
	}
	if err := s.Replay(events, 0); err != nil {
		t.Fatal(err)
	}
	s.ReplayThroughSequence(3)
	got := s.DequeueEvents(0)
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if s.Pending() != 0 {
		t.Errorf("events past the limit should be dropped, %d pending", s.Pending())
	}
}

func TestReplayNilUsesSerializedSnapshot(t *testing.T) {
	s := NewEventStore(EventStoreRecord)
	if err := s.AddEvent(Event{Type: EventNodeNew, UUID: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Serialize(); err != nil {
		t.Fatal(err)
	}
	if err := s.AddEvent(Event{Type: EventNodeNew, UUID: "b"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Replay(nil, 0); err != nil {
		t.Fatal(err)
	}
	if s.Pending() != 1 {
		t.Errorf("Pending = %d, want the 1 serialized event", s.Pending())
	}
}

func TestParseEventStoreMode(t *testing.T) {
	tests := []struct {
		in   string
		want EventStoreMode
		err  bool
	}{
		{"", EventStoreDisabled, false},
		{"disabled", EventStoreDisabled, false},
		{"record", EventStoreRecord, false},
		{"replay", EventStoreReplay, false},
		{"rewind", EventStoreDisabled, true},
	}
	for _, tt := range tests {
		got, err := ParseEventStoreMode(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseEventStoreMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}

// eventKey identifies an event by what it did, for order comparisons.
type eventKey struct {
	typ      EventType
	uuid     string
	child    string
	property string
}

func keyOf(e Event) eventKey {
	return eventKey{e.Type, e.UUID, e.ChildUUID, e.Property}
}

func TestEventSequenceMatchesCallOrder(t *testing.T) {
	g, _ := newTestGame(t, EventStoreRecord)
	scene := presentNewScene(g, "s")
	marker := nextSequence()

	r := rand.New(rand.NewPCG(7, 11))
	var want []eventKey
	var detached, attached []*Node
	for i := range 1000 {
		switch op := r.IntN(4); {
		case op == 0 || len(detached)+len(attached) == 0:
			n := NewNode(NodeOptions{Name: fmt.Sprintf("n%d", i)})
			want = append(want, eventKey{typ: EventNodeNew, uuid: n.UUID()})
			detached = append(detached, n)
		case op == 1 && len(detached) > 0:
			j := r.IntN(len(detached))
			n := detached[j]
			detached = slices.Delete(detached, j, j+1)
			parent := scene
			if len(attached) > 0 && r.IntN(2) == 0 {
				parent = attached[r.IntN(len(attached))]
			}
			parent.AddChild(n)
			want = append(want, eventKey{typ: EventNodeAddChild, uuid: parent.UUID(), child: n.UUID()})
			attached = append(attached, n)
		case op == 3 && len(attached) > 0:
			j := r.IntN(len(attached))
			n := attached[j]
			if n.NumChildren() > 0 {
				continue
			}
			parent := n.Parent()
			n.RemoveFromParent()
			want = append(want, eventKey{typ: EventNodeRemoveChild, uuid: parent.UUID(), child: n.UUID()})
			attached = slices.Delete(attached, j, j+1)
			detached = append(detached, n)
		default:
			all := append(slices.Clone(detached), attached...)
			n := all[r.IntN(len(all))]
			n.SetPosition(Point{X: float64(i)})
			want = append(want, eventKey{typ: EventNodePropertyChange, uuid: n.UUID(), property: "position"})
		}
	}
	for _, n := range detached {
		scene.AddChild(n)
		want = append(want, eventKey{typ: EventNodeAddChild, uuid: scene.UUID(), child: n.UUID()})
	}

	data, err := g.EventStore().Serialize()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := UnmarshalEvents(data)
	if err != nil {
		t.Fatal(err)
	}
	var got []Event
	for _, e := range decoded {
		if e.Sequence > marker {
			got = append(got, e)
		}
	}
	slices.SortFunc(got, func(a, b Event) int { return int(a.Sequence - b.Sequence) })

	if len(got) != len(want) {
		t.Fatalf("recorded %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if keyOf(got[i]) != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, keyOf(got[i]), want[i])
		}
	}
}
