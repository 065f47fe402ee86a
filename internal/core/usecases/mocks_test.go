package usecases_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samirrijal/aptscout/internal/core/domain"
)

var errBoom = errors.New("boom")

// --- Mock ListingRepository ---

type mockListingRepo struct {
	mu           sync.Mutex
	saved        []domain.Listing
	saveFn       func(ctx context.Context, l *domain.Listing) error
	existsFn     func(ctx context.Context, id string) (bool, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.Listing, error)
	listFn       func(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, int, error)
	findNearbyFn func(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Listing, error)
}

func (m *mockListingRepo) Save(ctx context.Context, l *domain.Listing) error {
	if m.saveFn != nil {
		if err := m.saveFn(ctx, l); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.saved = append(m.saved, *l)
	m.mu.Unlock()
	return nil
}

func (m *mockListingRepo) Exists(ctx context.Context, id string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	return false, nil
}

func (m *mockListingRepo) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockListingRepo) List(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, 0, nil
}

func (m *mockListingRepo) FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Listing, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lon, radiusKm, limit)
	}
	return nil, nil
}

// --- Mock ListingSource ---

type mockSource struct {
	searchFn  func(ctx context.Context, area string) ([]domain.Listing, error)
	detailsFn func(ctx context.Context, l *domain.Listing) error
}

func (m *mockSource) Search(ctx context.Context, area string) ([]domain.Listing, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, area)
	}
	return nil, nil
}

func (m *mockSource) Details(ctx context.Context, l *domain.Listing) error {
	if m.detailsFn != nil {
		return m.detailsFn(ctx, l)
	}
	return nil
}

// --- Mock SeenStore ---

type mockSeen struct {
	mu     sync.Mutex
	ids    map[string]bool
	seenFn func(ctx context.Context, id string) (bool, error)
}

func newMockSeen(ids ...string) *mockSeen {
	m := &mockSeen{ids: map[string]bool{}}
	for _, id := range ids {
		m.ids[id] = true
	}
	return m
}

func (m *mockSeen) Seen(ctx context.Context, id string) (bool, error) {
	if m.seenFn != nil {
		return m.seenFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[id], nil
}

func (m *mockSeen) MarkSeen(ctx context.Context, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[id] = true
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	published []domain.Listing
	err       error
}

func (m *mockPublisher) PublishMatchedListing(ctx context.Context, l *domain.Listing) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	m.published = append(m.published, *l)
	m.mu.Unlock()
	return nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock sinks ---

type mockTable struct {
	fields map[string]any
	err    error
}

func (m *mockTable) CreateRecord(ctx context.Context, fields map[string]any) error {
	m.fields = fields
	return m.err
}

type mockChat struct {
	text string
	err  error
}

func (m *mockChat) PostMessage(ctx context.Context, text string) error {
	m.text = text
	return m.err
}

type mockMaps struct{}

func (mockMaps) MarkerURL(p domain.GeoPoint) string { return "https://maps.test/marker" }
