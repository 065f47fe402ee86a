package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// NewBounds builds a box from two opposite corners given in any order.
func NewBounds(a, b GeoPoint) Bounds {
	return Bounds{
		MinLat: math.Min(a.Lat, b.Lat),
		MinLon: math.Min(a.Lon, b.Lon),
		MaxLat: math.Max(a.Lat, b.Lat),
		MaxLon: math.Max(a.Lon, b.Lon),
	}
}

// Contains reports whether p lies inside the box. Edges count as inside.
// NaN coordinates are never contained.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Region is a named neighborhood box.
type Region struct {
	Name    string      `json:"name"`
	Corners [2]GeoPoint `json:"corners"`
}

// Bounds returns the normalized box of the region.
func (r Region) Bounds() Bounds {
	return NewBounds(r.Corners[0], r.Corners[1])
}

// TransitStop is a named public-transit access point.
type TransitStop struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}
