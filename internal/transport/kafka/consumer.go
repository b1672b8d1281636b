package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

// HandleFunc processes a single notification from Kafka.
// Returning a Permanent error marks the message as consumed.
type HandleFunc func(context.Context, domain.Notification) error

var newConsumerGroup = sarama.NewConsumerGroup

// Consumer wraps a Sarama consumer group and dispatches notifications to a handler.
type Consumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler HandleFunc
	logger  logx.Logger
	backoff time.Duration
}

// NewConsumer creates a new Kafka consumer. It returns (nil, nil) when Kafka is not configured.
func NewConsumer(logger logx.Logger, brokers []string, groupID, topic string, h HandleFunc) (*Consumer, error) {
	// не стартуем если у кафки нет настроек
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" || strings.TrimSpace(groupID) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := newConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:   group,
		topic:   topic,
		handler: h,
		logger:  logger,
		backoff: time.Second,
	}, nil
}

// Run consumes until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}

	h := &groupHandler{c: c}

	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("kafka consume error", logx.Err(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff):
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close closes the consumer group.
func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	return c.group.Close()
}

type groupHandler struct{ c *Consumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var dto NotificationDTO
		if err := json.Unmarshal(msg.Value, &dto); err != nil {
			h.c.logger.Warn("kafka bad json", logx.Int64("offset", msg.Offset), logx.Err(err))
			sess.MarkMessage(msg, "")
			continue
		}
		n := ToDomain(dto)
		if n.To == "" || (n.Channel != domain.ChannelSMS && n.Channel != domain.ChannelEmail) {
			h.c.logger.Warn("kafka invalid notification",
				logx.String("tracking_code", n.TrackingCode),
				logx.String("channel", string(n.Channel)),
			)
			sess.MarkMessage(msg, "")
			continue
		}

		if err := h.c.handler(sess.Context(), n); err != nil {
			if !IsPermanent(err) {
				// сообщение будет перечитано после ребаланса
				h.c.logger.Warn("kafka handle failed, will retry",
					logx.String("tracking_code", n.TrackingCode),
					logx.Err(err),
				)
				return err
			}
			h.c.logger.Error("kafka handle failed, skipping message",
				logx.String("tracking_code", n.TrackingCode),
				logx.String("channel", string(n.Channel)),
				logx.Err(err),
			)
		}

		sess.MarkMessage(msg, "")
	}
	return nil
}
