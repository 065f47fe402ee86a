package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/aptscout/internal/core/domain"
	"github.com/samirrijal/aptscout/internal/pkg/geospatial"
)

// ErrNotFound is returned when a listing does not exist.
var ErrNotFound = domain.ErrNotFound

const listingColumns = `id, url, name, price, location, area, posted_at, has_image,
	lat, lon, photo_url, map_image_url,
	region, transit_stop, transit_km, walking_minutes, near_transit, created_at`

// ListingRepo implements ports.ListingRepository with pgx.
type ListingRepo struct {
	db *DB
}

// NewListingRepo creates a new ListingRepo.
func NewListingRepo(db *DB) *ListingRepo {
	return &ListingRepo{db: db}
}

// Save inserts a listing. An existing ID is left untouched.
func (r *ListingRepo) Save(ctx context.Context, l *domain.Listing) error {
	var lat, lon *float64
	if l.Geotag != nil {
		lat, lon = &l.Geotag.Lat, &l.Geotag.Lon
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO listings (id, url, name, price, location, area, posted_at, has_image,
		                      lat, lon, photo_url, map_image_url,
		                      region, transit_stop, transit_km, walking_minutes, near_transit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO NOTHING
	`, l.ID, l.URL, l.Name, l.Price, l.Location, l.Area, l.PostedAt, l.HasImage,
		lat, lon, l.PhotoURL, l.MapImageURL,
		l.Enrichment.Region, l.Enrichment.TransitStop, l.Enrichment.TransitKm,
		l.Enrichment.WalkingMinutes, l.Enrichment.NearTransit)
	if err != nil {
		return fmt.Errorf("save listing %s: %w", l.ID, err)
	}
	return nil
}

// Exists reports whether a listing ID has been stored.
func (r *ListingRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM listings WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("listing exists %s: %w", id, err)
	}
	return exists, nil
}

// GetByID returns a listing or ErrNotFound.
func (r *ListingRepo) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}
	return l, nil
}

// List returns one page of listings, newest first, and the total count.
func (r *ListingRepo) List(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, int, error) {
	where, args := filterClause(f)

	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, f.Offset)
	q := fmt.Sprintf(`SELECT %s FROM listings%s ORDER BY posted_at DESC, id LIMIT $%d OFFSET $%d`,
		listingColumns, where, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, *l)
	}
	return out, total, rows.Err()
}

// FindNearby returns geotagged listings within radiusKm, closest first.
// The SQL bounding box is a coarse prefilter; the haversine pass is exact.
func (r *ListingRepo) FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Listing, error) {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(lat, lon, radiusKm)
	west, east := lonRanges(minLon, maxLon)

	rows, err := r.db.Pool.Query(ctx, `SELECT `+listingColumns+` FROM listings
		WHERE lat BETWEEN $1 AND $2
		AND (lon BETWEEN $3 AND $4 OR lon BETWEEN $5 AND $6)`,
		minLat, maxLat, west[0], west[1], east[0], east[1])
	if err != nil {
		return nil, fmt.Errorf("nearby listings: %w", err)
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		if l.Geotag == nil {
			continue
		}
		d := geospatial.HaversineKm(lat, lon, l.Geotag.Lat, l.Geotag.Lon)
		if d > radiusKm {
			continue
		}
		l.Distance = &d
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return *out[i].Distance < *out[j].Distance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func filterClause(f domain.ListingFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Area != "" {
		args = append(args, f.Area)
		conds = append(conds, fmt.Sprintf("area = $%d", len(args)))
	}
	if f.Region != "" {
		args = append(args, f.Region)
		conds = append(conds, fmt.Sprintf("region = $%d", len(args)))
	}
	if f.NearTransitOnly {
		conds = append(conds, "near_transit")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var l domain.Listing
	var lat, lon *float64
	if err := row.Scan(
		&l.ID, &l.URL, &l.Name, &l.Price, &l.Location, &l.Area, &l.PostedAt, &l.HasImage,
		&lat, &lon, &l.PhotoURL, &l.MapImageURL,
		&l.Enrichment.Region, &l.Enrichment.TransitStop, &l.Enrichment.TransitKm,
		&l.Enrichment.WalkingMinutes, &l.Enrichment.NearTransit, &l.CreatedAt,
	); err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		l.Geotag = &domain.GeoPoint{Lat: *lat, Lon: *lon}
	}
	return &l, nil
}

// lonRanges splits a longitude window that crosses the antimeridian into
// two in-range windows. Without a crossing both windows are the same.
func lonRanges(minLon, maxLon float64) (west, east [2]float64) {
	switch {
	case minLon < -180:
		return [2]float64{minLon + 360, 180}, [2]float64{-180, maxLon}
	case maxLon > 180:
		return [2]float64{minLon, 180}, [2]float64{-180, maxLon - 360}
	}
	return [2]float64{minLon, maxLon}, [2]float64{minLon, maxLon}
}
