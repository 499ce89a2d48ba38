// Package electrician publishes activity events through an Electrician
// ForwardRelay.
package electrician

import (
	"context"
	"errors"
	"time"
)

// RelayRequest is the byte-level publish envelope.
type RelayRequest struct {
	Topic   string
	Body    []byte
	Headers map[string]string
	Timeout time.Duration
}

// RelayClient is the minimal interface the publisher needs.
type RelayClient interface {
	Publish(ctx context.Context, rr RelayRequest) error
}

var errMissingTopic = errors.New("relay: missing topic")

// noopRelay accepts publishes and discards them.
type noopRelay struct{}

func (noopRelay) Publish(_ context.Context, rr RelayRequest) error {
	if rr.Topic == "" {
		return errMissingTopic
	}
	return nil
}

// Noop returns a RelayClient that drops everything.
func Noop() RelayClient { return noopRelay{} }
