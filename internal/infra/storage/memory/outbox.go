package memory

import (
	"context"
	"sync"

	appoutbox "rentals/internal/app/outbox"
	"rentals/internal/app/uow"
)

// Sink receives flushed records, typically a broker publisher.
type Sink func(ctx context.Context, records []appoutbox.EventRecord) error

// Outbox holds records committed by units until Flush hands them to the
// sink. Records added inside a memory Unit are staged on the unit and only
// reach the outbox when it commits.
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
	sink    Sink
}

func NewOutbox(sink Sink) *Outbox {
	return &Outbox{sink: sink}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if u, ok := unit.(*Unit); ok && u.outbox == o && !u.closed {
			u.records = append(u.records, record)
			return nil
		}
	}
	o.append(record)
	return nil
}

// Flush hands pending records to the sink. Without a sink they are dropped;
// on sink failure they stay pending for the next flush.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	pending := o.records
	o.records = nil
	o.mu.Unlock()
	if len(pending) == 0 || o.sink == nil {
		return nil
	}
	if err := o.sink(ctx, pending); err != nil {
		o.mu.Lock()
		o.records = append(pending, o.records...)
		o.mu.Unlock()
		return err
	}
	return nil
}

// Pending returns a copy of the records not yet flushed.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

func (o *Outbox) append(records ...appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, records...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
