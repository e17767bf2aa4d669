// Package events publishes domain events for downstream consumers such as
// search indexing and analytics.
package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const (
	UserRegistered   = "user_registered"
	ProductCreated   = "product_created"
	ProductViewed    = "product_viewed"
	ProductModerated = "product_moderated"
	ProductSold      = "product_sold"
	OfferMade        = "offer_made"
	StoreCreated     = "store_created"
	SearchPerformed  = "search_performed"
)

// Message is the envelope written to the event stream.
type Message struct {
	EventType  string    `json:"eventType"`
	Data       any       `json:"data"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers events. Implementations never fail the caller: errors
// are logged.
type Publisher interface {
	Publish(ctx context.Context, key, eventType string, data any)
	Close() error
}

// LogPublisher writes events to the logger. It is used when no brokers are configured.
type LogPublisher struct {
	log *zap.Logger
	now func() time.Time
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log, now: time.Now}
}

func (p *LogPublisher) Publish(_ context.Context, key, eventType string, data any) {
	payload, err := json.Marshal(Message{EventType: eventType, Data: data, OccurredAt: p.now()})
	if err != nil {
		p.log.Error("failed to encode event", zap.String("eventType", eventType), zap.Error(err))
		return
	}
	p.log.Debug("event", zap.String("eventType", eventType), zap.String("key", key), zap.ByteString("payload", payload))
}

func (p *LogPublisher) Close() error { return nil }
