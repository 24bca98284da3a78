// Package pubsub provides a generic publish/subscribe event broker used to
// fan ledger notifications out to in-process consumers and API streams.
package pubsub

import (
	"context"
	"time"
)

// Envelope wraps a published payload with its publication time.
type Envelope[T any] struct {
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Envelope[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(payload T)
}
