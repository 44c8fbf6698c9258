package ports

import (
	"context"
	"net"

	"github.com/samirrijal/globefolio/internal/core/domain"
)

// FramePublisher hands computed frames to whoever is rendering them.
type FramePublisher interface {
	PublishFrame(ctx context.Context, f *domain.Frame) error
}

// EventPublisher publishes library events to a message broker.
type EventPublisher interface {
	PublishLibraryEvent(ctx context.Context, ev *domain.LibraryEvent) error
}

// EventSubscriber subscribes to library events from a message broker.
type EventSubscriber interface {
	SubscribeLibraryEvents(ctx context.Context, handler func(ctx context.Context, ev *domain.LibraryEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Locator resolves an IP address to an approximate location.
type Locator interface {
	Locate(ip net.IP) (domain.GeoPoint, string, error)
}

// PublishLauncher starts the durable publish pipeline for a podcast.
type PublishLauncher interface {
	StartPublish(ctx context.Context, p *domain.Podcast) (workflowID string, err error)
}
