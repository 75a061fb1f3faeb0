// Package lookup runs remote lookups typed by a user (referral codes, place
// names) so that only the latest request of a session reaches the caller.
package lookup

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned to a request replaced by a newer one from the
// same session before it completed.
var ErrSuperseded = errors.New("lookup: superseded by a newer request")

type Func[T any] func(ctx context.Context, input string) (T, error)

// Debouncer delays each request by a fixed quiet period and cancels the
// pending or in-flight request of a session when a newer one arrives. A
// response from a cancelled request is dropped even if the upstream ignored
// the cancellation, so a slow stale answer never overtakes a newer one.
type Debouncer[T any] struct {
	delay time.Duration
	fn    Func[T]

	mu      sync.Mutex
	seq     uint64
	pending map[string]pendingCall
}

type pendingCall struct {
	seq    uint64
	cancel context.CancelCauseFunc
}

func NewDebouncer[T any](delay time.Duration, fn Func[T]) *Debouncer[T] {
	if fn == nil {
		panic("lookup: nil func")
	}
	if delay < 0 {
		delay = 0
	}
	return &Debouncer[T]{delay: delay, fn: fn, pending: make(map[string]pendingCall)}
}

// Do runs fn(input) for session after the quiet period. Requests without a
// session are never superseded.
func (d *Debouncer[T]) Do(ctx context.Context, session, input string) (T, error) {
	var zero T
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	seq := d.register(session, cancel)
	defer d.release(session, seq)

	if d.delay > 0 {
		timer := time.NewTimer(d.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, cause(ctx)
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return zero, cause(ctx)
	}

	res, err := d.fn(ctx, input)
	if ctx.Err() != nil {
		return zero, cause(ctx)
	}
	return res, err
}

// Pending is the number of sessions with a request in progress.
func (d *Debouncer[T]) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Debouncer[T]) register(session string, cancel context.CancelCauseFunc) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if session == "" {
		return d.seq
	}
	if prev, ok := d.pending[session]; ok {
		prev.cancel(ErrSuperseded)
	}
	d.pending[session] = pendingCall{seq: d.seq, cancel: cancel}
	return d.seq
}

func (d *Debouncer[T]) release(session string, seq uint64) {
	if session == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.pending[session]; ok && cur.seq == seq {
		delete(d.pending, session)
	}
}

func cause(ctx context.Context) error {
	if err := context.Cause(ctx); errors.Is(err, ErrSuperseded) {
		return ErrSuperseded
	}
	return ctx.Err()
}
