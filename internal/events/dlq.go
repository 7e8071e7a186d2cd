package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// DeadLetter is an order.created message that exhausted its retries.
type DeadLetter struct {
	Key       string
	Partition int32
	Offset    int64
	Metadata  MessageMetadata
	Event     *OrderCreatedEvent
}

// ParseDeadLetter reads the metadata header written by the consumer. The
// payload is decoded when it is a valid event and left nil otherwise.
func ParseDeadLetter(message *sarama.ConsumerMessage) (DeadLetter, error) {
	letter := DeadLetter{
		Key:       string(message.Key),
		Partition: message.Partition,
		Offset:    message.Offset,
	}
	for _, header := range message.Headers {
		if header == nil || string(header.Key) != "metadata" {
			continue
		}
		if err := json.Unmarshal(header.Value, &letter.Metadata); err != nil {
			return letter, fmt.Errorf("failed to decode dead letter metadata: %w", err)
		}
	}

	var event OrderCreatedEvent
	if err := json.Unmarshal(message.Value, &event); err == nil && event.OrderID != "" {
		letter.Event = &event
	}
	return letter, nil
}

// DLQMonitor logs every dead letter on order.created.dlq.
type DLQMonitor struct {
	consumerGroup sarama.ConsumerGroup
	onLetter      func(DeadLetter)
	logger        *logrus.Logger
}

func NewDLQMonitor(brokers, groupID string, onLetter func(DeadLetter), logger *logrus.Logger) (*DLQMonitor, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Version = sarama.V2_6_0_0

	consumerGroup, err := sarama.NewConsumerGroup(strings.Split(brokers, ","), groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create DLQ consumer: %w", err)
	}
	return &DLQMonitor{consumerGroup: consumerGroup, onLetter: onLetter, logger: logger}, nil
}

func (m *DLQMonitor) Start(ctx context.Context) error {
	for {
		if err := m.consumerGroup.Consume(ctx, []string{OrderCreatedDLQTopic}, m); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (m *DLQMonitor) Close() error {
	return m.consumerGroup.Close()
}

func (m *DLQMonitor) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (m *DLQMonitor) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (m *DLQMonitor) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		m.handle(message)
		session.MarkMessage(message, "")
	}
	return nil
}

func (m *DLQMonitor) handle(message *sarama.ConsumerMessage) {
	letter, err := ParseDeadLetter(message)
	if err != nil {
		m.logger.WithError(err).WithField("offset", message.Offset).Error("Unreadable DLQ message")
	}

	fields := logrus.Fields{
		"partition":      letter.Partition,
		"offset":         letter.Offset,
		"key":            letter.Key,
		"original_topic": letter.Metadata.OriginalTopic,
		"retry_count":    letter.Metadata.RetryCount,
		"error_message":  letter.Metadata.ErrorMessage,
	}
	if letter.Event != nil {
		fields["order_id"] = letter.Event.OrderID
		fields["customer_id"] = letter.Event.CustomerID
		fields["grand_total"] = letter.Event.GrandTotal
	}
	m.logger.WithFields(fields).Warn("DLQ message detected")

	if m.onLetter != nil {
		m.onLetter(letter)
	}
}
