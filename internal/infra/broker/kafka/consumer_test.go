package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	ch chan *sarama.ConsumerMessage
}

func (c fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.ch }

func claimOf(offsets ...int64) fakeClaim {
	ch := make(chan *sarama.ConsumerMessage, len(offsets))
	for _, o := range offsets {
		ch <- &sarama.ConsumerMessage{Topic: "t", Offset: o}
	}
	close(ch)
	return fakeClaim{ch: ch}
}

type handlerFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

func (f handlerFunc) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error { return f(ctx, msg) }

func withFastRetries(t *testing.T) {
	prev := retryDelays
	retryDelays = []time.Duration{time.Millisecond, time.Millisecond}
	t.Cleanup(func() { retryDelays = prev })
}

func TestConsumeClaimRetriesTransientFailure(t *testing.T) {
	withFastRetries(t)
	attempts := 0
	h := consumerGroupHandler{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		handler: handlerFunc(func(_ context.Context, msg *sarama.ConsumerMessage) error {
			if msg.Offset == 1 {
				attempts++
				if attempts < 2 {
					return errors.New("flaky")
				}
			}
			return nil
		}),
	}
	sess := &fakeSession{ctx: context.Background()}
	require.NoError(t, h.ConsumeClaim(sess, claimOf(0, 1, 2)))
	assert.Equal(t, []int64{0, 1, 2}, sess.marked)
	assert.Equal(t, 2, attempts)
}

func TestConsumeClaimStopsOnPersistentFailure(t *testing.T) {
	withFastRetries(t)
	h := consumerGroupHandler{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		handler: handlerFunc(func(_ context.Context, msg *sarama.ConsumerMessage) error {
			if msg.Offset == 1 {
				return errors.New("store down")
			}
			return nil
		}),
	}
	sess := &fakeSession{ctx: context.Background()}
	err := h.ConsumeClaim(sess, claimOf(0, 1, 2))
	require.ErrorContains(t, err, "store down")
	assert.Equal(t, []int64{0}, sess.marked)
}
