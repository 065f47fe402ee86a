package ports

import (
	"context"

	"github.com/samirrijal/aptscout/internal/core/domain"
)

// ListingRepository persists scraped listings and doubles as the seen-set.
type ListingRepository interface {
	// Save stores a listing. Saving an ID that already exists is a no-op.
	Save(ctx context.Context, listing *domain.Listing) error
	Exists(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	// List returns one page of listings, newest first, and the total match count.
	List(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, int, error)
	FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Listing, error)
}
