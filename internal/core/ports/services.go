package ports

import (
	"context"
	"time"

	"github.com/samirrijal/aptscout/internal/core/domain"
)

// ListingSource fetches listings from the classifieds site.
type ListingSource interface {
	// Search returns the newest listings of an area.
	Search(ctx context.Context, area string) ([]domain.Listing, error)
	// Details fills in geotag and photo from the listing page.
	Details(ctx context.Context, listing *domain.Listing) error
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishMatchedListing(ctx context.Context, listing *domain.Listing) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeMatchedListings(ctx context.Context, handler func(ctx context.Context, listing *domain.Listing) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// TableSink appends a listing to an external tabular store.
type TableSink interface {
	CreateRecord(ctx context.Context, fields map[string]any) error
}

// ChatNotifier posts a message to a chat channel.
type ChatNotifier interface {
	PostMessage(ctx context.Context, text string) error
}

// MapRenderer builds a static map image URL for a point.
type MapRenderer interface {
	MarkerURL(p domain.GeoPoint) string
}

// SeenStore is a fast path for listing IDs already processed.
type SeenStore interface {
	Seen(ctx context.Context, id string) (bool, error)
	MarkSeen(ctx context.Context, id string, ttl time.Duration) error
}
