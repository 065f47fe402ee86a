package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samirrijal/aptscout/internal/core/domain"
	"github.com/samirrijal/aptscout/internal/core/ports"
	"github.com/samirrijal/aptscout/internal/pkg/metrics"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxNearbyLimit  = 50
	maxNearbyKm     = 25.0
)

// ListingPage is one page of a listing query.
type ListingPage struct {
	Listings []domain.Listing `json:"listings"`
	Total    int              `json:"total"`
}

// ListingService handles listing queries.
type ListingService struct {
	listings ports.ListingRepository
	cache    ports.CacheService
}

// NewListingService creates a new ListingService.
func NewListingService(listings ports.ListingRepository, cache ports.CacheService) *ListingService {
	return &ListingService{listings: listings, cache: cache}
}

// List returns one page of listings, newest first.
func (s *ListingService) List(ctx context.Context, f domain.ListingFilter) (ListingPage, error) {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	cacheKey := fmt.Sprintf("listings:list:%s:%s:%t:%d:%d", f.Area, f.Region, f.NearTransitOnly, f.Offset, f.Limit)
	var page ListingPage
	if s.cached(ctx, "listings.list", cacheKey, &page) {
		return page, nil
	}

	listings, total, err := s.listings.List(ctx, f)
	if err != nil {
		return ListingPage{}, err
	}
	if listings == nil {
		listings = []domain.Listing{}
	}
	page = ListingPage{Listings: listings, Total: total}

	// New listings arrive every scrape cycle; keep this short.
	s.store(ctx, cacheKey, page, 60)
	return page, nil
}

// GetByID returns a single listing.
func (s *ListingService) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	cacheKey := "listings:id:" + id
	var l domain.Listing
	if s.cached(ctx, "listings.get", cacheKey, &l) {
		return &l, nil
	}

	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.store(ctx, cacheKey, listing, 600)
	return listing, nil
}

// FindNearby returns geotagged listings within radiusKm, closest first.
func (s *ListingService) FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Listing, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("coordinates out of range: %f,%f", lat, lon)
	}
	if radiusKm <= 0 {
		radiusKm = 1
	}
	if radiusKm > maxNearbyKm {
		radiusKm = maxNearbyKm
	}
	if limit <= 0 || limit > maxNearbyLimit {
		limit = maxNearbyLimit
	}

	cacheKey := fmt.Sprintf("listings:nearby:%.4f:%.4f:%.2f:%d", lat, lon, radiusKm, limit)
	var listings []domain.Listing
	if s.cached(ctx, "listings.nearby", cacheKey, &listings) {
		return listings, nil
	}

	listings, err := s.listings.FindNearby(ctx, lat, lon, radiusKm, limit)
	if err != nil {
		return nil, err
	}

	s.store(ctx, cacheKey, listings, 120)
	return listings, nil
}

func (s *ListingService) cached(ctx context.Context, op, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err == nil && json.Unmarshal(data, dst) == nil {
		metrics.CacheHits.WithLabelValues(op).Inc()
		return true
	}
	metrics.CacheMisses.WithLabelValues(op).Inc()
	return false
}

func (s *ListingService) store(ctx context.Context, key string, v any, ttlSeconds int) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = s.cache.Set(ctx, key, data, ttlSeconds)
	}
}
