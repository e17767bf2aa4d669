package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

var fixed = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestKafkaPublisherEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, log: zap.NewNop(), now: func() time.Time { return fixed }}

	p.Publish(context.Background(), "p-1", ProductCreated, map[string]string{"title": "Lamp"})

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "p-1", string(w.msgs[0].Key))
	assert.Equal(t, ProductCreated, headerValue(w.msgs[0], eventTypeHeader))

	var msg struct {
		EventType  string            `json:"eventType"`
		Data       map[string]string `json:"data"`
		OccurredAt time.Time         `json:"occurredAt"`
	}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &msg))
	assert.Equal(t, ProductCreated, msg.EventType)
	assert.Equal(t, "Lamp", msg.Data["title"])
	assert.True(t, fixed.Equal(msg.OccurredAt))
}

func TestKafkaPublisherLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}, log: zap.New(core), now: time.Now}

	p.Publish(context.Background(), "u-1", UserRegistered, nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to publish event", logs.All()[0].Message)
}

func TestKafkaPublisherWritesAsync(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	p := NewKafkaPublisher([]string{"localhost:9092"}, "bazzarly.events", zap.New(core))

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.True(t, w.Async)
	require.NotNil(t, w.Completion)

	w.Completion([]kafka.Message{{
		Key:     []byte("p-9"),
		Headers: []kafka.Header{{Key: eventTypeHeader, Value: []byte(ProductSold)}},
	}}, errors.New("leader not available"))
	w.Completion([]kafka.Message{{Key: []byte("p-10")}}, nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "failed to deliver event", entry.Message)
	assert.Equal(t, ProductSold, entry.ContextMap()["eventType"])
	assert.Equal(t, "p-9", entry.ContextMap()["key"])
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewLogPublisher(zap.New(core))

	p.Publish(context.Background(), "s-1", StoreCreated, map[string]any{"name": "Shop"})

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, StoreCreated, logs.All()[0].ContextMap()["eventType"])
	assert.NoError(t, p.Close())
}
