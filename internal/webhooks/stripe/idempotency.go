package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const provider = "stripe"

// EventStore records processed webhook event ids.
type EventStore interface {
	MarkProcessed(ctx context.Context, provider, eventID string, ttl time.Duration) (bool, error)
	WebhookEventKey(provider, eventID string) string
	Del(ctx context.Context, keys ...string) error
}

type IdempotencyGuard struct {
	store EventStore
	ttl   time.Duration
}

func NewIdempotencyGuard(store EventStore, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("event store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &IdempotencyGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark reports whether the event was already processed, marking it otherwise.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	fresh, err := g.store.MarkProcessed(ctx, provider, eventID, g.ttl)
	if err != nil {
		return false, fmt.Errorf("mark webhook event: %w", err)
	}
	return !fresh, nil
}

// Delete forgets the event so a failed delivery can be retried.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.WebhookEventKey(provider, eventID))
}
