package game

import (
	"log"
	"sync/atomic"
	"time"
)

// EventType classifies settlement events emitted by the simulation.
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeEat               // one player absorbed another
	EventTypeCashOut           // a player left voluntarily with their value
)

func (t EventType) String() string {
	switch t {
	case EventTypeEat:
		return "eat"
	case EventTypeCashOut:
		return "cash_out"
	default:
		return "unknown"
	}
}

// SettlementEvent is one value movement the external settlement collaborator
// must act on. The simulation only reports; it never waits on settlement.
type SettlementEvent struct {
	Type      EventType
	RoomID    int
	Eater     string // wallet address, empty for cash-out
	Eaten     string // wallet address, or the cashing-out player
	Lamports  uint64
	Timestamp time.Time
}

// EventSink carries settlement events out of the simulation on a bounded
// channel. Emit never blocks a tick; events that do not fit are dropped and
// counted.
type EventSink struct {
	ch      chan SettlementEvent
	dropped atomic.Uint64
}

// NewEventSink creates a sink with the given buffer depth.
func NewEventSink(depth int) *EventSink {
	if depth <= 0 {
		depth = 256
	}
	return &EventSink{ch: make(chan SettlementEvent, depth)}
}

// Emit queues an event without blocking. A full buffer drops the event and
// bumps the drop counter.
func (s *EventSink) Emit(ev SettlementEvent) {
	select {
	case s.ch <- ev:
	default:
		n := s.dropped.Add(1)
		metricSettlementDropped.Inc()
		log.Printf("⚠️ settlement sink full, dropped %s event (total dropped: %d)", ev.Type, n)
	}
}

// Events exposes the outbound channel for the settlement consumer.
func (s *EventSink) Events() <-chan SettlementEvent {
	return s.ch
}

// Dropped reports how many events were lost to a full buffer.
func (s *EventSink) Dropped() uint64 {
	return s.dropped.Load()
}
