package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON envelopes to a single topic keyed by entity id.
type KafkaPublisher struct {
	writer messageWriter
	log    *zap.Logger
	now    func() time.Time
}

const eventTypeHeader = "eventType"

// NewKafkaPublisher returns a publisher backed by an async writer, so Publish
// never blocks a request on the broker. Delivery failures are logged from the
// writer's completion callback; Close flushes pending batches.
func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{log: log, now: time.Now}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            3,
		WriteBackoffMin:        100 * time.Millisecond,
		WriteBackoffMax:        time.Second,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             p.completed,
	}
	return p
}

// Publish hands the envelope to the writer. Messages with the same key land on
// the same partition, which keeps per-entity ordering.
func (p *KafkaPublisher) Publish(ctx context.Context, key, eventType string, data any) {
	payload, err := json.Marshal(Message{EventType: eventType, Data: data, OccurredAt: p.now()})
	if err != nil {
		p.log.Error("failed to encode event", zap.String("eventType", eventType), zap.Error(err))
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:     []byte(key),
		Value:   payload,
		Headers: []kafka.Header{{Key: eventTypeHeader, Value: []byte(eventType)}},
	})
	if err != nil {
		p.log.Error("failed to publish event",
			zap.String("component", "KafkaPublisher"),
			zap.String("eventType", eventType),
			zap.String("key", key),
			zap.Error(err))
	}
}

func (p *KafkaPublisher) completed(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range msgs {
		p.log.Error("failed to deliver event",
			zap.String("component", "KafkaPublisher"),
			zap.String("eventType", headerValue(m, eventTypeHeader)),
			zap.String("key", string(m.Key)),
			zap.Error(err))
	}
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
