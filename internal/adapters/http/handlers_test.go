package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/aptscout/internal/adapters/http"
	"github.com/samirrijal/aptscout/internal/core/domain"
	"github.com/samirrijal/aptscout/internal/core/poi"
	"github.com/samirrijal/aptscout/internal/core/usecases"
)

// ---- Mock repository ----

type mockListingRepo struct {
	getByIDFn    func(ctx context.Context, id string) (*domain.Listing, error)
	listFn       func(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, int, error)
	findNearbyFn func(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Listing, error)
}

func (m *mockListingRepo) Save(ctx context.Context, l *domain.Listing) error   { return nil }
func (m *mockListingRepo) Exists(ctx context.Context, id string) (bool, error) { return false, nil }
func (m *mockListingRepo) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
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

type mockPinger struct{ err error }

func (m mockPinger) Ping(ctx context.Context) error { return m.err }

// ---- Test helpers ----

func testResolver() *poi.Resolver {
	return poi.NewResolver(poi.Config{
		Regions: []domain.Region{
			{Name: "adams_point", Corners: [2]domain.GeoPoint{{Lat: 37.80789, Lon: -122.25000}, {Lat: 37.81589, Lon: -122.26081}}},
			{Name: "rockridge", Corners: [2]domain.GeoPoint{{Lat: 37.83826, Lon: -122.24073}, {Lat: 37.84680, Lon: -122.25944}}},
		},
		Neighborhoods: []string{"berkeley", "rockridge"},
		TransitStops: []domain.TransitStop{
			{Name: "rockridge_bart", Location: domain.GeoPoint{Lat: 37.844601, Lon: -122.251793}},
			{Name: "19th_st_bart", Location: domain.GeoPoint{Lat: 37.808209, Lon: -122.268724}},
		},
		MaxWalkingMinutes: 20,
		MaxTransitKm:      2,
	})
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Listings: usecases.NewListingService(&mockListingRepo{}, nil),
		POI:      testResolver(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func withRepo(repo *mockListingRepo) func(*handler.Dependencies) {
	return func(d *handler.Dependencies) {
		d.Listings = usecases.NewListingService(repo, nil)
	}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func sampleListings(n int) []domain.Listing {
	out := make([]domain.Listing, n)
	for i := range out {
		out[i] = domain.Listing{
			ID:       fmt.Sprintf("74%08d", i),
			Name:     fmt.Sprintf("Sunny 1br #%d", i),
			Price:    2100,
			Area:     "eby",
			PostedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC).Add(-time.Duration(i) * time.Hour),
		}
	}
	return out
}

// ---- Listing handler tests ----

func TestListListings_Success(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockListingRepo{
		listFn: func(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, int, error) {
			return sampleListings(2), 2, nil
		},
	})))

	req := httptest.NewRequest("GET", "/v1/listings", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Listing `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 2 {
		t.Errorf("expected total 2, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 listings, got %d", len(result.Data))
	}
}

func TestListListings_PassesFilter(t *testing.T) {
	var got domain.ListingFilter
	app := setupApp(makeDeps(withRepo(&mockListingRepo{
		listFn: func(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, int, error) {
			got = f
			return nil, 0, nil
		},
	})))

	req := httptest.NewRequest("GET", "/v1/listings?area=eby&region=rockridge&near_transit=true&offset=4&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	want := domain.ListingFilter{Area: "eby", Region: "rockridge", NearTransitOnly: true, Offset: 4, Limit: 2}
	if got != want {
		t.Errorf("expected filter %+v, got %+v", want, got)
	}
}

func TestListListings_NegativeOffset(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/listings?offset=-1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListListings_RepoError(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockListingRepo{
		listFn: func(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, int, error) {
			return nil, 0, errors.New("connection refused")
		},
	})))

	req := httptest.NewRequest("GET", "/v1/listings", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	var apiErr handler.APIError
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "internal_error" {
		t.Errorf("expected internal_error, got %s", apiErr.Code)
	}
}

func TestListListings_LinkHeader(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockListingRepo{
		listFn: func(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, int, error) {
			return sampleListings(3), 10, nil
		},
	})))

	req := httptest.NewRequest("GET", "/v1/listings?offset=0&limit=3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	link := resp.Header.Get("Link")
	if link == "" {
		t.Fatal("expected Link header, got empty")
	}
	for _, rel := range []string{`rel="next"`, `rel="first"`, `rel="last"`} {
		if !strings.Contains(link, rel) {
			t.Errorf("expected %s in Link, got %s", rel, link)
		}
	}
}

func TestGetListing_Success(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockListingRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Listing, error) {
			return &domain.Listing{
				ID:         id,
				Name:       "Quiet studio",
				Enrichment: domain.Enrichment{Region: "rockridge", TransitStop: "rockridge_bart", NearTransit: true},
			}, nil
		},
	})))

	req := httptest.NewRequest("GET", "/v1/listings/7412345678", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var l domain.Listing
	json.NewDecoder(resp.Body).Decode(&l)
	if l.ID != "7412345678" || l.Enrichment.Region != "rockridge" {
		t.Errorf("unexpected listing %+v", l)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=600" {
		t.Errorf("expected 600s cache, got %q", cc)
	}
}

func TestGetListing_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/listings/missing", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var apiErr handler.APIError
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "not_found" {
		t.Errorf("expected not_found, got %s", apiErr.Code)
	}
}

func TestNearbyListings_Success(t *testing.T) {
	var gotRadius float64
	app := setupApp(makeDeps(withRepo(&mockListingRepo{
		findNearbyFn: func(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Listing, error) {
			gotRadius = radiusKm
			d := 0.4
			return []domain.Listing{{ID: "1", Distance: &d}}, nil
		},
	})))

	req := httptest.NewRequest("GET", "/v1/listings/nearby?lat=37.84&lon=-122.25&radius=1.5", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotRadius != 1.5 {
		t.Errorf("expected radius 1.5, got %v", gotRadius)
	}

	var listings []domain.Listing
	json.NewDecoder(resp.Body).Decode(&listings)
	if len(listings) != 1 || listings[0].Distance == nil {
		t.Errorf("expected one listing with distance, got %+v", listings)
	}
}

func TestNearbyListings_EmptyIsArray(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/listings/nearby?lat=37.84&lon=-122.25", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := strings.TrimSpace(string(readBody(t, resp.Body))); body != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

func TestNearbyListings_BadParams(t *testing.T) {
	app := setupApp(makeDeps())

	for _, q := range []string{
		"",
		"?lat=37.84",
		"?lat=abc&lon=-122.25",
		"?lat=95&lon=-122.25",
		"?lat=37.84&lon=-122.25&radius=50",
	} {
		req := httptest.NewRequest("GET", "/v1/listings/nearby"+q, nil)
		resp, _ := app.Test(req, -1)
		if resp.StatusCode != 400 {
			t.Errorf("%q: expected 400, got %d", q, resp.StatusCode)
		}
	}
}

// ---- Enrichment handler tests ----

func TestEnrich_PointInRegion(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/enrich?lat=37.8420&lon=-122.2540", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var e domain.Enrichment
	json.NewDecoder(resp.Body).Decode(&e)
	if e.Region != "rockridge" {
		t.Errorf("expected rockridge, got %q", e.Region)
	}
	if e.TransitStop != "rockridge_bart" || !e.NearTransit {
		t.Errorf("expected near rockridge_bart, got %+v", e)
	}
}

func TestEnrich_LabelOnly(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/enrich?label=North%20Berkeley", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var e domain.Enrichment
	json.NewDecoder(resp.Body).Decode(&e)
	if e.Region != "berkeley" {
		t.Errorf("expected berkeley, got %q", e.Region)
	}
	if e.TransitStop != "" || e.NearTransit {
		t.Errorf("expected no transit without a point, got %+v", e)
	}
}

func TestEnrich_MissingInput(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/enrich", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestEnrich_HalfPoint(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/enrich?lat=37.84&label=rockridge", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRegions_DeclarationOrder(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/regions", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var regions []struct {
		Name   string        `json:"name"`
		Bounds domain.Bounds `json:"bounds"`
	}
	json.NewDecoder(resp.Body).Decode(&regions)
	if len(regions) != 2 || regions[0].Name != "adams_point" || regions[1].Name != "rockridge" {
		t.Fatalf("unexpected regions %+v", regions)
	}
	if regions[0].Bounds.MinLon != -122.26081 || regions[0].Bounds.MaxLon != -122.25000 {
		t.Errorf("expected normalized bounds, got %+v", regions[0].Bounds)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("expected 3600s cache, got %q", cc)
	}
}

func TestTransitStops_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/transit/stops", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var stops []domain.TransitStop
	json.NewDecoder(resp.Body).Decode(&stops)
	if len(stops) != 2 {
		t.Errorf("expected 2 stops, got %d", len(stops))
	}
}

// ---- GraphQL ----

func TestGraphQL_Enrich(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"query":"{ enrich(lat: 37.842, lon: -122.254) { region transit_stop near_transit } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Enrich struct {
				Region      string `json:"region"`
				TransitStop string `json:"transit_stop"`
				NearTransit bool   `json:"near_transit"`
			} `json:"enrich"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
	if result.Data.Enrich.Region != "rockridge" || !result.Data.Enrich.NearTransit {
		t.Errorf("unexpected enrichment %+v", result.Data.Enrich)
	}
}

func TestGraphQL_ListingsAndRegions(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockListingRepo{
		listFn: func(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, int, error) {
			l := sampleListings(1)
			l[0].Enrichment.Region = "adams_point"
			return l, 1, nil
		},
	})))

	body := `{"query":"{ listings(limit: 5) { id enrichment { region } } regions { name bounds { min_lat } } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	raw := string(readBody(t, resp.Body))
	if !strings.Contains(raw, `"region":"adams_point"`) {
		t.Errorf("expected listing region in %s", raw)
	}
	if !strings.Contains(raw, `"min_lat":37.80789`) {
		t.Errorf("expected region bounds in %s", raw)
	}
}

func TestGraphQL_MissingQuery(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Health ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if v := resp.Header.Get("X-API-Version"); v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

func TestReady_NoDB(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestReady_CacheDownStillReady(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.DB = mockPinger{}
		d.Cache = mockPinger{err: errors.New("dial tcp: refused")}
	}))

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if !strings.HasPrefix(result.Checks["cache"], "error") {
		t.Errorf("expected cache error reported, got %q", result.Checks["cache"])
	}
}

func TestWebSocket_NotRegisteredWithoutNATS(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/ws", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// TestAccessLogMiddleware verifies structured access logging is emitted.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(handler.AccessLogMiddleware())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp.Body); !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}

func TestListListings_LinkHeaderKeepsFilters(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockListingRepo{
		listFn: func(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, int, error) {
			return sampleListings(2), 6, nil
		},
	})))

	req := httptest.NewRequest("GET", "/v1/listings?region=rockridge&limit=2", nil)
	resp, _ := app.Test(req, -1)
	link := resp.Header.Get("Link")
	if !strings.Contains(link, "offset=2") || !strings.Contains(link, "region=rockridge") {
		t.Errorf("expected next link with region filter, got %s", link)
	}
}

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/regions", nil), -1)
	etag := resp.Header.Get("ETag")
	if !strings.HasPrefix(etag, `W/"`) {
		t.Fatalf("expected weak ETag, got %q", etag)
	}

	req := httptest.NewRequest("GET", "/v1/regions", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Fatalf("expected 304, got %d", resp.StatusCode)
	}
}

func TestDocs_ServesOpenAPI(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/docs/openapi.yaml", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := string(readBody(t, resp.Body)); !strings.Contains(body, "title: aptscout API") {
		t.Errorf("expected openapi document, got %.80s", body)
	}
}
