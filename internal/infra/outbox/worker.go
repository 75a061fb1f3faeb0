package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appoutbox "rentals/internal/app/outbox"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// ClaimStore is the part of Store the Worker drives.
type ClaimStore interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

const (
	ResultPublished = "published"
	ResultFailed    = "failed"
)

// Worker relays stored records to the broker, retrying with Backoff.
type Worker struct {
	Store       ClaimStore
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Logger      *slog.Logger
	// Observe, when set, counts records by result.
	Observe func(result string, n int)
	Now     func() time.Time
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && ctx.Err() == nil {
				w.logger().Error("outbox drain failed", "error", err)
			}
		}
	}
}

// Drain relays due records until none is left and returns how many were
// published.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	sent := 0
	for {
		ok, err := w.processOnce(ctx)
		if err != nil {
			return sent, err
		}
		if !ok {
			return sent, nil
		}
		sent++
	}
}

// processOnce reports whether a record was claimed and published.
func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	doc, err := w.Store.Claim(ctx, w.ID)
	if err != nil || doc == nil {
		return false, err
	}
	record := doc.Record()
	payload, headers, err := Envelope(record, w.Source)
	if err == nil {
		err = w.Producer.Publish(ctx, TopicFor(w.TopicPrefix, record.Name), record.Aggregate, payload, headers)
	}
	if err != nil {
		w.observe(ResultFailed)
		w.logger().Warn("outbox publish failed", "id", doc.ID, "name", doc.Name, "attempts", doc.Attempts+1, "error", err)
		if markErr := w.Store.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error()); markErr != nil {
			return false, markErr
		}
		// leave the rest for the next tick
		return false, nil
	}
	w.observe(ResultPublished)
	return true, w.Store.MarkSent(ctx, doc.ID)
}

// Sink publishes records directly; the in-memory outbox flushes through it.
func Sink(p Producer, prefix, source string) func(ctx context.Context, records []appoutbox.EventRecord) error {
	return func(ctx context.Context, records []appoutbox.EventRecord) error {
		for _, rec := range records {
			payload, headers, err := Envelope(rec, source)
			if err != nil {
				return err
			}
			if err := p.Publish(ctx, TopicFor(prefix, rec.Name), rec.Aggregate, payload, headers); err != nil {
				return err
			}
		}
		return nil
	}
}

func (w *Worker) observe(result string) {
	if w.Observe != nil {
		w.Observe(result, 1)
	}
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return w.now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return w.now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return w.now().Add(5 * time.Second)
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
