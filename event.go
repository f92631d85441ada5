package m2c2

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType discriminates Event records.
type EventType string

// Recorded event types. Each is rebuilt by the Materializer on replay.
const (
	EventNodeNew               EventType = "NodeNew"
	EventNodeAddChild          EventType = "NodeAddChild"
	EventNodeRemoveChild       EventType = "NodeRemoveChild"
	EventNodePropertyChange    EventType = "NodePropertyChange"
	EventScenePresent          EventType = "ScenePresent"
	EventDomPointerDown        EventType = "DomPointerDown"
	EventBrowserImageDataReady EventType = "BrowserImageDataReady"
	EventI18nDataReady         EventType = "I18nDataReady"
)

// Sentinel errors returned while materializing a replay log.
var (
	ErrUnknownNode      = errors.New("m2c2: unknown node")
	ErrUnknownProperty  = errors.New("m2c2: unknown property")
	ErrUnknownEventType = errors.New("m2c2: unknown event type")
	ErrReplayEmpty      = errors.New("m2c2: no events to replay")
)

// Event is one recorded change to the game. Common fields come first;
// the rest are set per Type.
type Event struct {
	Type             EventType `json:"type"`
	Target           any       `json:"target,omitempty"`
	Timestamp        float64   `json:"timestamp"`
	ISO8601Timestamp string    `json:"iso8601Timestamp"`
	Sequence         int64     `json:"sequence"`

	// NodeNew, NodePropertyChange, NodeAddChild, NodeRemoveChild,
	// ScenePresent
	UUID string `json:"uuid,omitempty"`

	// NodeNew
	NodeType      NodeType `json:"nodeType,omitempty"`
	CompositeType string   `json:"compositeType,omitempty"`
	NodeOptions   any      `json:"nodeOptions,omitempty"`

	// NodePropertyChange
	Property string `json:"property,omitempty"`
	Value    any    `json:"value,omitempty"`

	// NodeAddChild, NodeRemoveChild
	ChildUUID string `json:"childUuid,omitempty"`

	// ScenePresent
	TransitionType TransitionType `json:"transitionType,omitempty"`
	Direction      SlideDirection `json:"direction,omitempty"`
	Duration       *float64       `json:"duration,omitempty"`
	EasingType     string         `json:"easingType,omitempty"`

	// DomPointerDown
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	// BrowserImageDataReady
	ImageDescriptor *ImageDescriptor `json:"imageDescriptor,omitempty"`

	// I18nDataReady
	I18n *I18nData `json:"i18n,omitempty"`
}

// Manager targets. Events whose target is an asset manager or the
// translator serialize the target as one of these tags.
const (
	TargetImageManager = "ImageManager"
	TargetFontManager  = "FontManager"
	TargetSoundManager = "SoundManager"
	TargetI18n         = "I18n"
)

// MarshalJSON encodes the event with its target replaced by an
// identifier: a node or game by UUID, a manager by its tag.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	p := plain(e)
	p.Target = targetID(e.Target)
	return json.Marshal(p)
}

func targetID(t any) any {
	switch v := t.(type) {
	case nil:
		return nil
	case string:
		return v
	case *Node:
		return v.uuid
	case *Game:
		return v.uuid
	default:
		return fmt.Sprintf("%T", v)
	}
}

// TargetID returns the serialized form of the event's target.
func (e Event) TargetID() string {
	s, _ := targetID(e.Target).(string)
	return s
}

// roundTrip returns e as it would be read back from its JSON form.
func roundTrip(e Event) (Event, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return Event{}, fmt.Errorf("m2c2: encode %s event: %w", e.Type, err)
	}
	var out Event
	if err := json.Unmarshal(data, &out); err != nil {
		return Event{}, fmt.Errorf("m2c2: decode %s event: %w", e.Type, err)
	}
	return out, nil
}

// MarshalEvents encodes events as a JSON array.
func MarshalEvents(events []Event) ([]byte, error) {
	if events == nil {
		events = []Event{}
	}
	return json.Marshal(events)
}

// UnmarshalEvents decodes a JSON array of events.
func UnmarshalEvents(data []byte) ([]Event, error) {
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("m2c2: decode events: %w", err)
	}
	return events, nil
}
