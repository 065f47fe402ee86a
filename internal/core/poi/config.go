// Package poi resolves a listing's coordinate and location label into
// geographic context: the neighborhood it falls in and its nearest transit stop.
//
// Everything in this package is pure computation over caller-owned configuration.
// Values are immutable after construction and safe for concurrent use.
package poi

import "github.com/samirrijal/aptscout/internal/core/domain"

// WalkingSpeedKmh is the assumed walking pace used to turn distance into minutes.
const WalkingSpeedKmh = 5.0

// Config holds the regions, neighborhood names, transit stops and thresholds
// the resolver works against.
type Config struct {
	Regions       []domain.Region
	Neighborhoods []string
	TransitStops  []domain.TransitStop

	// MaxWalkingMinutes and MaxTransitKm gate NearTransit. A value <= 0 is
	// treated as unset and does not gate.
	MaxWalkingMinutes float64
	MaxTransitKm      float64
}

// WalkingMinutes converts a distance in kilometers to minutes at WalkingSpeedKmh.
func WalkingMinutes(km float64) float64 {
	return km / WalkingSpeedKmh * 60
}
