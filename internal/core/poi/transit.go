package poi

import (
	"math"

	"github.com/samirrijal/aptscout/internal/core/domain"
	"github.com/samirrijal/aptscout/internal/pkg/geospatial"
)

// TransitMatch describes the nearest transit stop to a point.
type TransitMatch struct {
	Stop            domain.TransitStop `json:"stop"`
	DistanceKm      float64            `json:"distance_km"`
	WalkingMinutes  float64            `json:"walking_minutes"`
	WithinThreshold bool               `json:"within_threshold"`
}

// TransitLocator finds the closest configured stop and checks it against the
// walking-time and distance thresholds.
type TransitLocator struct {
	stops             []domain.TransitStop
	maxWalkingMinutes float64
	maxKm             float64
}

// NewTransitLocator creates a locator. Non-positive thresholds are ignored.
func NewTransitLocator(stops []domain.TransitStop, maxWalkingMinutes, maxKm float64) *TransitLocator {
	return &TransitLocator{
		stops:             append([]domain.TransitStop(nil), stops...),
		maxWalkingMinutes: maxWalkingMinutes,
		maxKm:             maxKm,
	}
}

// Nearest returns the closest stop to p. Equal distances keep the stop declared
// first. ok is false when no stops are configured or p yields no finite distance.
func (l *TransitLocator) Nearest(p domain.GeoPoint) (TransitMatch, bool) {
	best := -1
	bestKm := math.Inf(1)
	for i, s := range l.stops {
		d := geospatial.HaversineKm(p.Lat, p.Lon, s.Location.Lat, s.Location.Lon)
		if math.IsNaN(d) {
			continue
		}
		if d < bestKm {
			best, bestKm = i, d
		}
	}
	if best < 0 {
		return TransitMatch{}, false
	}

	minutes := WalkingMinutes(bestKm)
	return TransitMatch{
		Stop:            l.stops[best],
		DistanceKm:      bestKm,
		WalkingMinutes:  minutes,
		WithinThreshold: l.within(bestKm, minutes),
	}, true
}

func (l *TransitLocator) within(km, minutes float64) bool {
	if l.maxWalkingMinutes > 0 && minutes > l.maxWalkingMinutes {
		return false
	}
	if l.maxKm > 0 && km > l.maxKm {
		return false
	}
	return true
}

// Stops returns a copy of the configured stops.
func (l *TransitLocator) Stops() []domain.TransitStop {
	return append([]domain.TransitStop(nil), l.stops...)
}
