// Package events holds the contract between aggregates and the outbox.
package events

import (
	"slices"
	"time"
)

// DomainEvent is a fact recorded by an aggregate and relayed through the outbox.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// Source is anything that buffers events until they are drained.
type Source interface {
	PendingEvents() []DomainEvent
	ClearEvents()
}

// EventRecorder is embedded by aggregates to satisfy Source.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(evs ...DomainEvent) {
	for _, ev := range evs {
		if ev != nil {
			r.pending = append(r.pending, ev)
		}
	}
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	return slices.Clone(r.pending)
}

// ClearEvents forgets the buffer without touching its backing array, which
// copies of the aggregate may still share.
func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}
