package domain

import (
	"time"
)

// Listing is a housing post scraped from the classifieds site.
type Listing struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	Name        string     `json:"name"`
	Price       float64    `json:"price"`
	Location    string     `json:"location"`
	Area        string     `json:"area"`
	PostedAt    time.Time  `json:"posted_at"`
	HasImage    bool       `json:"has_image"`
	Geotag      *GeoPoint  `json:"geotag,omitempty"`
	PhotoURL    string     `json:"photo_url,omitempty"`
	MapImageURL string     `json:"map_image_url,omitempty"`
	Enrichment  Enrichment `json:"enrichment"`
	Distance    *float64   `json:"distance,omitempty"` // computed field, km
	CreatedAt   time.Time  `json:"created_at"`
}

// Enrichment is the geographic context derived for one listing.
// An empty Region or TransitStop means no match.
type Enrichment struct {
	Region         string  `json:"region"`
	TransitStop    string  `json:"transit_stop"`
	TransitKm      float64 `json:"transit_km"`
	WalkingMinutes float64 `json:"walking_minutes"`
	NearTransit    bool    `json:"near_transit"`
}

// ListingFilter narrows a listing query.
type ListingFilter struct {
	Area            string
	Region          string
	NearTransitOnly bool
	Offset          int
	Limit           int
}

// AreaReport counts what happened to one area during a scrape cycle.
type AreaReport struct {
	Area    string `json:"area"`
	Scraped int    `json:"scraped"`
	New     int    `json:"new"`
	Matched int    `json:"matched"`
	Errors  int    `json:"errors"`
}

// CycleReport summarizes a full scrape cycle.
type CycleReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Areas     []AreaReport  `json:"areas"`
	Matched   []Listing     `json:"-"`
}
