package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// OrderCreatedHandler reacts to new orders. IsRetryable tells the consumer
// whether a failed attempt is worth repeating.
type OrderCreatedHandler interface {
	HandleOrderCreated(ctx context.Context, event OrderCreatedEvent) error
	IsRetryable(err error) bool
}

type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:   3,
	InitialDelay: time.Second,
	MaxDelay:     30 * time.Second,
}

type ConsumerStats struct {
	Processed    int64 `json:"processed"`
	Succeeded    int64 `json:"succeeded"`
	Retried      int64 `json:"retried"`
	DeadLettered int64 `json:"dead_lettered"`
}

type MessageMetadata struct {
	RetryCount    int       `json:"retry_count"`
	LastFailure   time.Time `json:"last_failure"`
	OriginalTopic string    `json:"original_topic"`
	ErrorMessage  string    `json:"error_message"`
}

// processor holds the per-message logic, independent of the consumer group
// session so that it can be exercised without a broker.
type processor struct {
	handler OrderCreatedHandler
	dlq     sarama.SyncProducer
	policy  RetryPolicy
	logger  *logrus.Logger

	processed    atomic.Int64
	succeeded    atomic.Int64
	retried      atomic.Int64
	deadLettered atomic.Int64
}

type KafkaConsumer struct {
	consumerGroup sarama.ConsumerGroup
	processor     *processor
	logger        *logrus.Logger
	topics        []string
}

func NewKafkaConsumer(brokers, groupID string, handler OrderCreatedHandler, policy RetryPolicy, logger *logrus.Logger) (*KafkaConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Version = sarama.V2_6_0_0

	consumerGroup, err := sarama.NewConsumerGroup(strings.Split(brokers, ","), groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	dlq, err := sarama.NewSyncProducer(strings.Split(brokers, ","), newProducerConfig())
	if err != nil {
		consumerGroup.Close()
		return nil, fmt.Errorf("failed to create producer for DLQ: %w", err)
	}

	return &KafkaConsumer{
		consumerGroup: consumerGroup,
		processor:     newProcessor(handler, dlq, policy, logger),
		logger:        logger,
		topics:        []string{OrderCreatedTopic},
	}, nil
}

func newProcessor(handler OrderCreatedHandler, dlq sarama.SyncProducer, policy RetryPolicy, logger *logrus.Logger) *processor {
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = DefaultRetryPolicy.InitialDelay
	}
	if policy.MaxDelay < policy.InitialDelay {
		policy.MaxDelay = policy.InitialDelay
	}
	return &processor{handler: handler, dlq: dlq, policy: policy, logger: logger}
}

func (c *KafkaConsumer) Start(ctx context.Context) error {
	handler := &consumerGroupHandler{processor: c.processor, logger: c.logger}

	for {
		if err := c.consumerGroup.Consume(ctx, c.topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.logger.WithError(err).Error("Error consuming from Kafka")
			return err
		}
		if ctx.Err() != nil {
			c.logger.Info("Kafka consumer context cancelled")
			return nil
		}
	}
}

func (c *KafkaConsumer) Stats() ConsumerStats {
	return c.processor.stats()
}

func (c *KafkaConsumer) Close() error {
	if err := c.processor.dlq.Close(); err != nil {
		c.logger.WithError(err).Error("Failed to close DLQ producer")
	}
	return c.consumerGroup.Close()
}

type consumerGroupHandler struct {
	processor *processor
	logger    *logrus.Logger
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka consumer group session setup")
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka consumer group session cleanup")
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if !h.processor.process(session.Context(), message) {
				// Leave the offset uncommitted so that the message is
				// redelivered once the group rejoins.
				h.logger.WithFields(logrus.Fields{
					"partition": message.Partition,
					"offset":    message.Offset,
				}).Warn("Message not handled, stopping claim")
				return nil
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// process handles one message, retrying retryable failures with exponential
// backoff and dead-lettering whatever still fails. It reports whether the
// message is done with: handled, or safely in the DLQ.
func (p *processor) process(ctx context.Context, message *sarama.ConsumerMessage) bool {
	p.processed.Add(1)

	err := p.handle(ctx, message)
	if err == nil {
		p.succeeded.Add(1)
		return true
	}
	if ctx.Err() != nil {
		return false
	}

	p.logger.WithError(err).WithField("key", string(message.Key)).Error("Failed to process message after retries")
	if dlqErr := p.sendToDLQ(message, err); dlqErr != nil {
		p.logger.WithError(dlqErr).Error("Failed to send message to DLQ")
		return false
	}
	p.deadLettered.Add(1)
	return true
}

func (p *processor) handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event OrderCreatedEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal order created event: %w", err)
	}

	delay := p.policy.InitialDelay
	for attempt := 0; ; attempt++ {
		err := p.handler.HandleOrderCreated(ctx, event)
		if err == nil {
			return nil
		}
		if !p.handler.IsRetryable(err) {
			return err
		}
		if attempt >= p.policy.MaxRetries {
			return fmt.Errorf("exhausted retries for order %s: %w", event.OrderID, err)
		}

		p.logger.WithError(err).WithFields(logrus.Fields{
			"order_id": event.OrderID,
			"attempt":  attempt + 1,
			"delay":    delay.String(),
		}).Warn("Retryable error processing order")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		p.retried.Add(1)

		delay *= 2
		if delay > p.policy.MaxDelay {
			delay = p.policy.MaxDelay
		}
	}
}

func (p *processor) sendToDLQ(message *sarama.ConsumerMessage, processingError error) error {
	metadata := MessageMetadata{
		RetryCount:    p.policy.MaxRetries,
		LastFailure:   time.Now(),
		OriginalTopic: message.Topic,
		ErrorMessage:  processingError.Error(),
	}
	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	dlqMessage := &sarama.ProducerMessage{
		Topic: OrderCreatedDLQTopic,
		Key:   sarama.ByteEncoder(message.Key),
		Value: sarama.ByteEncoder(message.Value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("metadata"), Value: metadataBytes},
			{Key: []byte("original_topic"), Value: []byte(message.Topic)},
			{Key: []byte("original_partition"), Value: []byte(strconv.Itoa(int(message.Partition)))},
			{Key: []byte("original_offset"), Value: []byte(strconv.FormatInt(message.Offset, 10))},
		},
	}

	partition, offset, err := p.dlq.SendMessage(dlqMessage)
	if err != nil {
		return fmt.Errorf("failed to send to DLQ: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"dlq_topic":     OrderCreatedDLQTopic,
		"dlq_partition": partition,
		"dlq_offset":    offset,
		"original_key":  string(message.Key),
	}).Warn("Message sent to dead letter queue")
	return nil
}

func (p *processor) stats() ConsumerStats {
	return ConsumerStats{
		Processed:    p.processed.Load(),
		Succeeded:    p.succeeded.Load(),
		Retried:      p.retried.Load(),
		DeadLettered: p.deadLettered.Load(),
	}
}
