package http

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/aptscout/internal/core/domain"
)

const maxNearbyRadiusKm = 25

// ListListingsHandler returns listings newest first, filtered by area,
// region and near_transit.
func ListListingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := domain.ListingFilter{
			Area:            strings.TrimSpace(c.Query("area")),
			Region:          strings.TrimSpace(c.Query("region")),
			NearTransitOnly: c.QueryBool("near_transit", false),
			Offset:          c.QueryInt("offset", 0),
			Limit:           c.QueryInt("limit", 20),
		}
		if f.Offset < 0 {
			return errBadRequest(c, "offset must not be negative")
		}
		if f.Limit <= 0 || f.Limit > 100 {
			f.Limit = 20
		}

		page, err := deps.Listings.List(c.UserContext(), f)
		if err != nil {
			return errInternal(c, err)
		}

		pg := Pagination{Offset: f.Offset, Limit: f.Limit, Total: page.Total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page.Listings, Pagination: pg})
	}
}

// GetListingHandler returns a single listing by its post ID.
func GetListingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "id is required")
		}

		l, err := deps.Listings.GetByID(c.UserContext(), id)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "listing not found")
		}
		if err != nil {
			return errInternal(c, err)
		}
		return c.JSON(l)
	}
}

// NearbyListingsHandler returns geotagged listings within radius km of a point.
func NearbyListingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if !ok {
			return errBadRequest(c, "lat and lon are required")
		}
		radius := c.QueryFloat("radius", 2)
		if radius <= 0 || radius > maxNearbyRadiusKm {
			return errBadRequest(c, "radius must be between 0 and 25 km")
		}
		limit := c.QueryInt("limit", 20)
		if limit <= 0 || limit > 50 {
			limit = 20
		}

		listings, err := deps.Listings.FindNearby(c.UserContext(), p.Lat, p.Lon, radius, limit)
		if err != nil {
			return errInternal(c, err)
		}
		if listings == nil {
			listings = []domain.Listing{}
		}
		return c.JSON(listings)
	}
}

// EnrichHandler resolves region and nearest transit for a point and label.
// Without coordinates only the label is matched.
func EnrichHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		label := c.Query("label")
		if len(label) > 200 {
			return errBadRequest(c, "label too long (max 200 characters)")
		}
		p, ok, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		switch {
		case ok:
			return c.JSON(deps.POI.Resolve(p, label))
		case label != "":
			return c.JSON(deps.POI.ResolveLabel(label))
		default:
			return errBadRequest(c, "lat and lon, or label, are required")
		}
	}
}

type regionResponse struct {
	Name   string        `json:"name"`
	Bounds domain.Bounds `json:"bounds"`
}

// RegionsHandler lists the configured regions in declaration order.
func RegionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		regions := deps.POI.Regions()
		out := make([]regionResponse, 0, len(regions))
		for _, r := range regions {
			out = append(out, regionResponse{Name: r.Name, Bounds: r.Bounds()})
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(out)
	}
}

// TransitStopsHandler lists the configured transit stops.
func TransitStopsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stops := deps.POI.TransitStops()
		if stops == nil {
			stops = []domain.TransitStop{}
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(stops)
	}
}

// queryPoint parses lat/lon. ok is false when both are absent.
func queryPoint(c *fiber.Ctx) (domain.GeoPoint, bool, error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		return domain.GeoPoint{}, false, nil
	}
	if latStr == "" || lonStr == "" {
		return domain.GeoPoint{}, false, errors.New("lat and lon must be given together")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || math.IsNaN(lat) || lat < -90 || lat > 90 {
		return domain.GeoPoint{}, false, errors.New("lat must be a number between -90 and 90")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || math.IsNaN(lon) || lon < -180 || lon > 180 {
		return domain.GeoPoint{}, false, errors.New("lon must be a number between -180 and 180")
	}
	return domain.GeoPoint{Lat: lat, Lon: lon}, true, nil
}
