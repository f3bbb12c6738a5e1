package protocol

import (
	"encoding/json"
	"fmt"
)

// EventKind is the outer tag of a pad event.
type EventKind string

// Outer event tags.
const (
	EventConnect    EventKind = "connect"
	EventDisconnect EventKind = "disconnect"
	EventGeneric    EventKind = "event"
	EventLog        EventKind = "log"
)

// EventType is the secondary tag carried by generic events.
type EventType string

// Secondary event tags.
const (
	EventTypeConfig     EventType = "config"
	EventTypeConnect    EventType = "connect"
	EventTypeDisconnect EventType = "disconnect"
	EventTypeEvent      EventType = "event"
	EventTypeLog        EventType = "log"
)

// Event is a device-originated notification.
//
//	{"type": "connect"}
//	{"type": "disconnect"}
//	{"type": "event", "event_type": "config", "data": ...}
//	{"type": "log", ...}
type Event struct {
	Kind      EventKind       `json:"type"`
	EventType EventType       `json:"event_type,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`

	// Raw is the payload as received. Log events may carry fields beyond
	// data, which are only available here.
	Raw json.RawMessage `json:"-"`
}

// DecodeEvent decodes and checks an event payload.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	switch e.Kind {
	case EventConnect, EventDisconnect, EventLog:
	case EventGeneric:
		switch e.EventType {
		case EventTypeConfig, EventTypeConnect, EventTypeDisconnect, EventTypeEvent, EventTypeLog:
		default:
			return Event{}, fmt.Errorf("%w: event_type %q", ErrUnknownEvent, string(e.EventType))
		}
	default:
		return Event{}, fmt.Errorf("%w: type %q", ErrUnknownEvent, string(e.Kind))
	}

	e.Raw = append(json.RawMessage(nil), data...)
	if isAbsent(e.Data) {
		e.Data = nil
	}
	return e, nil
}

// EncodeEvent encodes an event to its wire shape.
func EncodeEvent(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// ConnectEvent returns the event the pad sends once the link is up.
func ConnectEvent() Event { return Event{Kind: EventConnect} }

// DisconnectEvent returns the event sent when the link drops.
func DisconnectEvent() Event { return Event{Kind: EventDisconnect} }

// ConfigChangedEvent returns the event sent after the pad's
// configuration changed.
func ConfigChangedEvent() Event {
	return Event{Kind: EventGeneric, EventType: EventTypeConfig}
}

// InputEvent wraps a pad input in a generic event.
func InputEvent(in Input) (Event, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return Event{Kind: EventGeneric, EventType: EventTypeEvent, Data: data}, nil
}

// LogEvent returns a log line event.
func LogEvent(message string) Event {
	data, _ := json.Marshal(message)
	return Event{Kind: EventLog, Data: data}
}

// IsConnect reports whether the event signals an established link.
func (e Event) IsConnect() bool {
	return e.Kind == EventConnect || (e.Kind == EventGeneric && e.EventType == EventTypeConnect)
}

// IsDisconnect reports whether the event signals a dropped link.
func (e Event) IsDisconnect() bool {
	return e.Kind == EventDisconnect || (e.Kind == EventGeneric && e.EventType == EventTypeDisconnect)
}

// IsConfigChange reports whether the pad's configuration changed.
func (e Event) IsConfigChange() bool {
	return e.Kind == EventGeneric && e.EventType == EventTypeConfig
}

// IsInput reports whether the event carries a pad input.
func (e Event) IsInput() bool {
	return e.Kind == EventGeneric && e.EventType == EventTypeEvent
}

// IsLog reports whether the event is a log line.
func (e Event) IsLog() bool {
	return e.Kind == EventLog || (e.Kind == EventGeneric && e.EventType == EventTypeLog)
}

// LogMessage returns the text of a log event. Non-string data is returned
// as raw JSON.
func (e Event) LogMessage() string {
	if len(e.Data) == 0 {
		return string(e.Raw)
	}
	var s string
	if err := json.Unmarshal(e.Data, &s); err == nil {
		return s
	}
	return string(e.Data)
}

// Input decodes the pad input carried by an input event.
func (e Event) Input() (Input, error) {
	if !e.IsInput() {
		return Input{}, fmt.Errorf("%w: %s event carries no input", ErrInvalidInput, e.Kind)
	}
	return ParseInput(e.Data)
}
