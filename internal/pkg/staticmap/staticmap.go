// Package staticmap builds Google Static Maps image URLs.
package staticmap

import (
	"net/url"
	"strconv"

	"github.com/samirrijal/aptscout/internal/core/domain"
)

const endpoint = "https://maps.googleapis.com/maps/api/staticmap"

// Renderer implements ports.MapRenderer.
type Renderer struct {
	key  string
	zoom int
	size string
}

// New creates a Renderer. Zero values fall back to zoom 14 and 400x400.
func New(key string, zoom int, size string) *Renderer {
	if zoom <= 0 {
		zoom = 14
	}
	if size == "" {
		size = "400x400"
	}
	return &Renderer{key: key, zoom: zoom, size: size}
}

// MarkerURL returns a map centered on p with a single marker.
func (r *Renderer) MarkerURL(p domain.GeoPoint) string {
	loc := strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
	q := url.Values{}
	q.Set("center", loc)
	q.Set("zoom", strconv.Itoa(r.zoom))
	q.Set("size", r.size)
	q.Set("markers", loc)
	if r.key != "" {
		q.Set("key", r.key)
	}
	return endpoint + "?" + q.Encode()
}
