package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is one fact about a week schedule, appended to the week's stream
type Event interface {
	ID() string
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
	Version() int
}

type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// ScheduleEvent is the stored form of every event the scheduler publishes
type ScheduleEvent struct {
	EventID    string      `json:"id"`
	EventType  string      `json:"type"`
	Stream     string      `json:"stream_id"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
	Seq        int         `json:"seq"`
}

func (e ScheduleEvent) ID() string { return e.EventID }
func (e ScheduleEvent) Type() string { return e.EventType }
func (e ScheduleEvent) StreamID() string { return e.Stream }
func (e ScheduleEvent) Data() interface{} { return e.Payload }
func (e ScheduleEvent) Timestamp() time.Time { return e.OccurredAt }
func (e ScheduleEvent) Version() int { return e.Seq }

// NewEvent stamps a fresh id and time; the store assigns the stream version on append
func NewEvent(eventType, streamID string, payload interface{}) Event {
	return ScheduleEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		Stream:     streamID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
		Seq:        1,
	}
}

// sequenced copies an event into a stream at the given version
func sequenced(event Event, streamID string, seq int) ScheduleEvent {
	return ScheduleEvent{
		EventID:    event.ID(),
		EventType:  event.Type(),
		Stream:     streamID,
		Payload:    event.Data(),
		OccurredAt: event.Timestamp(),
		Seq:        seq,
	}
}

// HandlerFunc adapts a function to an EventHandler for the given types
type HandlerFunc struct {
	Types []string
	Fn    func(Event) error
}

func (h *HandlerFunc) Handle(event Event) error {
	return h.Fn(event)
}

func (h *HandlerFunc) CanHandle(eventType string) bool {
	for _, t := range h.Types {
		if t == eventType {
			return true
		}
	}
	return false
}
