package electrician

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-social/pkg/codec"
)

// Envelope is the JSON payload written to the relay for every event.
type Envelope struct {
	Topic      string    `json:"topic"`
	OccurredAt time.Time `json:"occurredAt"`
	Event      any       `json:"event"`
}

// Activity encodes domain events and hands them to a RelayClient.
type Activity struct {
	relay   RelayClient
	codec   codec.Codec
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
}

func NewActivity(relay RelayClient, log *zap.Logger) *Activity {
	if relay == nil {
		relay = Noop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Activity{relay: relay, codec: codec.JSON, timeout: 2 * time.Second, log: log, now: time.Now}
}

func (a *Activity) Publish(ctx context.Context, topic string, event any) error {
	body, err := a.codec.Marshal(Envelope{Topic: topic, OccurredAt: a.now().UTC(), Event: event})
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}
	err = a.relay.Publish(ctx, RelayRequest{
		Topic:   topic,
		Body:    body,
		Headers: map[string]string{"content-type": a.codec.ContentType()},
		Timeout: a.timeout,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	a.log.Debug("activity published", zap.String("topic", topic), zap.Int("bytes", len(body)))
	return nil
}
