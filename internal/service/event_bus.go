package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/policymesh/engine/internal/domain/policy"
)

// EventBus fans invalidation events out to every subscriber, isolating
// one subscriber's error from the publisher and from every other
// subscriber (spec §4.8) — a panic or error in one never stops the
// others from being notified.
type EventBus struct {
	mu     sync.RWMutex
	subs   []policy.Subscriber
	logger *slog.Logger
}

// NewEventBus builds an empty EventBus.
func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{logger: logger}
}

// Subscribe registers sub to receive future Publish calls.
func (b *EventBus) Subscribe(sub policy.Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
}

// Publish notifies every subscriber of evt. Each subscriber runs in its
// own recovered call so one failing subscriber cannot block or crash
// the rest.
func (b *EventBus) Publish(ctx context.Context, evt policy.InvalidationEvent) {
	b.mu.RLock()
	subs := make([]policy.Subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		b.notify(ctx, sub, evt)
	}
}

func (b *EventBus) notify(ctx context.Context, sub policy.Subscriber, evt policy.InvalidationEvent) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.Error("invalidation subscriber panicked", "panic", r, "event_type", evt.Type)
		}
	}()
	if err := sub.OnInvalidate(ctx, evt); err != nil && b.logger != nil {
		b.logger.Warn("invalidation subscriber returned error", "error", err, "event_type", evt.Type)
	}
}
