package game

import (
	"slices"
	"time"
)

// EventType identifies a table event.
type EventType string

const (
	EventTypeHandStart    EventType = "hand_start"
	EventTypeHandEnd      EventType = "hand_end"
	EventTypeStreetChange EventType = "street_change"
	EventTypePlayerAction EventType = "player_action"
)

// Event is anything published by the Table.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
}

// HandStartEvent is published after blinds are posted.
type HandStartEvent struct {
	HandID     string
	HandNumber int
	Dealer     string
	Players    []string
	SmallBlind int
	BigBlind   int
	timestamp  time.Time
}

func (e HandStartEvent) EventType() EventType { return EventTypeHandStart }
func (e HandStartEvent) Timestamp() time.Time { return e.timestamp }

// PlayerActionEvent is published for every applied move.
type PlayerActionEvent struct {
	HandID    string
	Player    string
	Move      Move
	Stage     Stage
	Reasoning string
	PotAfter  int
	timestamp time.Time
}

func (e PlayerActionEvent) EventType() EventType { return EventTypePlayerAction }
func (e PlayerActionEvent) Timestamp() time.Time { return e.timestamp }

// StreetChangeEvent is published when community cards are dealt.
type StreetChangeEvent struct {
	HandID    string
	Stage     Stage
	Board     []string
	timestamp time.Time
}

func (e StreetChangeEvent) EventType() EventType { return EventTypeStreetChange }
func (e StreetChangeEvent) Timestamp() time.Time { return e.timestamp }

// WinnerInfo describes one share of the pot.
type WinnerInfo struct {
	Name   string
	Amount int
	Hand   string // hand description, empty for walkovers
}

// HandEndEvent is published once per hand, after the pot is paid.
type HandEndEvent struct {
	HandID     string
	HandNumber int
	Winners    []WinnerInfo
	Pot        int
	Board      []string
	Showdown   bool
	// HumanCards are the human seat's hole cards, or "Mucked" if they folded.
	HumanCards         string
	HumanFoldedPreflop bool
	Log                []string
	timestamp          time.Time
}

func (e HandEndEvent) EventType() EventType { return EventTypeHandEnd }
func (e HandEndEvent) Timestamp() time.Time { return e.timestamp }

// WinnerNames lists the winners in payout order.
func (e HandEndEvent) WinnerNames() []string {
	names := make([]string, len(e.Winners))
	for i, w := range e.Winners {
		names[i] = w.Name
	}
	return names
}

// EventSubscriber receives table events synchronously.
type EventSubscriber interface {
	OnEvent(event Event)
}

// EventSubscriberFunc adapts a function to EventSubscriber.
type EventSubscriberFunc func(Event)

func (f EventSubscriberFunc) OnEvent(event Event) { f(event) }

// EventBus fans events out to subscribers.
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Publish(event Event)
}

// SimpleEventBus delivers events in subscription order on the caller's
// goroutine.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates an empty bus.
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{}
}

func (b *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	b.subscribers = append(b.subscribers, subscriber)
}

func (b *SimpleEventBus) Publish(event Event) {
	for _, s := range slices.Clone(b.subscribers) {
		s.OnEvent(event)
	}
}
