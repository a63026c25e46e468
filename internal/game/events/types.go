package events

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Event is something that happened to a hosted game. Type names are dotted,
// "<category>.<what>", e.g. "change.performed".
type Event interface {
	Type() string
	Timestamp() time.Time
	GameID() string
}

// BaseEvent carries the fields every event has.
type BaseEvent struct {
	EventType string    `json:"type"`
	Time      time.Time `json:"timestamp"`
	Game      string    `json:"game_id"`
}

func (e BaseEvent) Type() string         { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }
func (e BaseEvent) GameID() string       { return e.Game }

// Category is the part of an event type before the first dot.
func Category(eventType string) string {
	category, _, _ := strings.Cut(eventType, ".")
	return category
}

// EventHandler handles one event. Handlers run on the publisher's goroutine.
type EventHandler func(Event)

// Subscriber is a named listener that picks the event types it wants.
type Subscriber interface {
	ID() string
	HandleEvent(Event)
	InterestedIn(eventType string) bool
}

// EventMetadata places an event in the game's turn order.
type EventMetadata struct {
	Player string         `json:"player,omitempty"`
	Round  int            `json:"round,omitempty"`
	Step   string         `json:"step,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// MarshalZerologObject lets loggers attach metadata with Object or EmbedObject.
func (m EventMetadata) MarshalZerologObject(e *zerolog.Event) {
	if m.Round != 0 {
		e.Int("round", m.Round)
	}
	if m.Step != "" {
		e.Str("step", m.Step)
	}
	if m.Player != "" {
		e.Str("player", m.Player)
	}
	if len(m.Extra) > 0 {
		e.Fields(m.Extra)
	}
}

// Publisher hands events to a bus.
type Publisher interface {
	Publish(Event)
}

// Bus fans published events out to subscribers and function handlers.
// SubscribeFunc returns an ID for UnsubscribeFunc.
type Bus interface {
	Publisher
	Subscribe(Subscriber)
	Unsubscribe(subscriberID string)
	SubscribeFunc(eventType string, handler EventHandler) string
	UnsubscribeFunc(handlerID string) bool
}
