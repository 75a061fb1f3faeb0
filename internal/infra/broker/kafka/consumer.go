package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if cfg == nil {
		cfg = NewConfig("rentals")
	}
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	g, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{group: g, handler: handler, logger: logger}, nil
}

// Run consumes topics until ctx is done, rejoining the group after each
// rebalance.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	for {
		err := c.group.Consume(ctx, topics, consumerGroupHandler{handler: c.handler, logger: c.logger})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return err
		}
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type consumerGroupHandler struct {
	handler MessageHandler
	logger  *slog.Logger
}

func (h consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

var retryDelays = []time.Duration{100 * time.Millisecond, 500 * time.Millisecond, 2 * time.Second}

// ConsumeClaim retries a failing message in place. If it still fails the
// session ends without marking it, so the group resumes from that offset.
func (h consumerGroupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for message := range claim.Messages() {
		err := h.handler.Handle(ctx, message)
		for _, delay := range retryDelays {
			if err == nil {
				break
			}
			h.logger.Warn("kafka message failed, retrying", "topic", message.Topic, "partition", message.Partition, "offset", message.Offset, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			err = h.handler.Handle(ctx, message)
		}
		if err != nil {
			return fmt.Errorf("kafka: %s/%d offset %d: %w", message.Topic, message.Partition, message.Offset, err)
		}
		sess.MarkMessage(message, "")
	}
	return nil
}
