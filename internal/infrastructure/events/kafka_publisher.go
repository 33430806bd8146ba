package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const publishTimeout = 10 * time.Second

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes payment events to one topic, keyed by ledger id so
// all events of an entry land on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *zap.Logger
}

var _ interfaces.IPaymentEventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           publishTimeout,
	}, topic, log)
}

func newKafkaPublisher(w messageWriter, topic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, log: log.Named("payment.events")}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event entities.PaymentEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode payment event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.PaymentID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("publish failed", zap.String("topic", p.topic), zap.String("payment_id", event.PaymentID), zap.String("type", string(event.Type)), zap.Error(err))
		return fmt.Errorf("publish payment event: %w", err)
	}
	p.log.Info("published", zap.String("topic", p.topic), zap.String("payment_id", event.PaymentID), zap.String("type", string(event.Type)))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher only logs events. Used when no Kafka brokers are configured.
type LogPublisher struct {
	log *zap.Logger
}

var _ interfaces.IPaymentEventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log.Named("payment.events")}
}

func (p *LogPublisher) Publish(_ context.Context, event entities.PaymentEvent) error {
	p.log.Info("payment event",
		zap.String("type", string(event.Type)),
		zap.String("payment_id", event.PaymentID),
		zap.String("transaction_id", event.TransactionID),
		zap.String("payment_platform", event.PaymentPlatform),
		zap.String("amount", event.Amount.StringFixed(2)),
		zap.String("currency_code", event.CurrencyCode))
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// NewPublisher picks Kafka when brokers are configured, the log publisher otherwise.
func NewPublisher(brokers []string, topic string, log *zap.Logger) interfaces.IPaymentEventPublisher {
	if len(brokers) == 0 {
		log.Warn("KAFKA_BROKERS not set, payment events are only logged")
		return NewLogPublisher(log)
	}
	return NewKafkaPublisher(brokers, topic, log)
}
