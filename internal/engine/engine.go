// Package engine implements the ledger engine: the identity registry,
// the provenance graph, the custody transfer state machine, and the
// traceability query, all behind one serialization boundary.
//
// Writes take the engine's write lock, run against the store atomically,
// and publish their notifications before the lock is released, so event
// order always matches commit order. Reads share a read lock and observe
// committed state only.
package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jcmxo/98-pfm-traza-2025/internal/cachemanager"
	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
	"github.com/jcmxo/98-pfm-traza-2025/internal/pubsub"
)

// DefaultTraceCacheTTL bounds how long a traceability result is kept.
// Ancestry is immutable, so the TTL only caps memory, never staleness.
const DefaultTraceCacheTTL = 10 * time.Minute

// Options configures an Engine.
type Options struct {
	// Tracer creates spans for every operation. Nil disables tracing.
	Tracer trace.Tracer

	// EventBuffer is the per-subscriber event channel capacity.
	// Zero means the broker default.
	EventBuffer int

	// TraceCacheTTL overrides DefaultTraceCacheTTL when positive.
	TraceCacheTTL time.Duration

	// DisableTraceCache bypasses the traceability cache entirely.
	DisableTraceCache bool
}

// Engine is the single source of truth for participants, tokens and
// transfers. Safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	store  ledger.Store
	broker *pubsub.Broker[ledger.Event]
	tracer trace.Tracer

	traceTTL   time.Duration
	traceCache *cachemanager.ReadThroughCache[string, []ledger.TokenID, ledger.TokenID]
}

// New creates an engine over the given store.
func New(store ledger.Store, opts Options) *Engine {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("engine")
	}

	var broker *pubsub.Broker[ledger.Event]
	if opts.EventBuffer > 0 {
		broker = pubsub.NewBrokerWithBuffer[ledger.Event](opts.EventBuffer)
	} else {
		broker = pubsub.NewBroker[ledger.Event]()
	}

	ttl := opts.TraceCacheTTL
	if ttl <= 0 {
		ttl = DefaultTraceCacheTTL
	}

	e := &Engine{
		store:    store,
		broker:   broker,
		tracer:   tracer,
		traceTTL: ttl,
	}

	backing := cachemanager.NewInMemoryCacheManager[string, []ledger.TokenID](
		"traceability", ttl, cachemanager.DefaultCleanupInterval,
	)
	e.traceCache = cachemanager.NewReadThroughCache(backing, e.loadTrace, opts.DisableTraceCache)

	return e
}

// Events returns a subscription to the engine's notifications. The
// channel closes when ctx is cancelled or the engine shuts down.
// Subscribers that fall behind lose events rather than block writers.
func (e *Engine) Events(ctx context.Context) <-chan pubsub.Envelope[ledger.Event] {
	return e.broker.Subscribe(ctx)
}

// Close shuts down the event broker and the underlying store.
func (e *Engine) Close() error {
	e.broker.Close()
	return e.store.Close()
}

// publish emits events in order. Callers hold the write lock, so
// delivery order equals commit order.
func (e *Engine) publish(events ...ledger.Event) {
	for _, ev := range events {
		e.broker.Publish(ev)
	}
}
