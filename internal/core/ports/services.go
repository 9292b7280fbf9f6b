package ports

import (
	"context"

	"github.com/giovanto/overhead/internal/core/domain"
)

// FlightSource yields one batch of raw position reports for a bounding
// box. Implementations own authentication and retries against the feed.
type FlightSource interface {
	FetchStates(ctx context.Context, bounds domain.Bounds) ([]domain.PositionReport, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishObservation(ctx context.Context, area string, report *domain.ClassifiedReport) error
	PublishNoiseAlert(ctx context.Context, area string, report *domain.ClassifiedReport) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeObservations(ctx context.Context, handler func(ctx context.Context, report *domain.ClassifiedReport) error) error
	SubscribeNoiseAlerts(ctx context.Context, handler func(ctx context.Context, report *domain.ClassifiedReport) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
