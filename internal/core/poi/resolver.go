package poi

import "github.com/samirrijal/aptscout/internal/core/domain"

// Resolver attaches region and transit context to a listing location.
type Resolver struct {
	regions *RegionClassifier
	transit *TransitLocator
	cfg     Config
}

// NewResolver builds a resolver over cfg. cfg is copied; later changes by the
// caller are not observed.
func NewResolver(cfg Config) *Resolver {
	cfg.Regions = append([]domain.Region(nil), cfg.Regions...)
	cfg.Neighborhoods = append([]string(nil), cfg.Neighborhoods...)
	cfg.TransitStops = append([]domain.TransitStop(nil), cfg.TransitStops...)
	return &Resolver{
		regions: NewRegionClassifier(cfg.Regions, cfg.Neighborhoods),
		transit: NewTransitLocator(cfg.TransitStops, cfg.MaxWalkingMinutes, cfg.MaxTransitKm),
		cfg:     cfg,
	}
}

// Resolve classifies p and label and finds the nearest transit stop to p.
// The two lookups are independent; a miss in either is reported in-band.
func (r *Resolver) Resolve(p domain.GeoPoint, label string) domain.Enrichment {
	e := domain.Enrichment{Region: r.regions.Classify(p, label)}
	if m, ok := r.transit.Nearest(p); ok {
		e.TransitStop = m.Stop.Name
		e.TransitKm = m.DistanceKm
		e.WalkingMinutes = m.WalkingMinutes
		e.NearTransit = m.WithinThreshold
	}
	return e
}

// ResolveLabel is used for listings without coordinates: only the
// neighborhood label is matched and no transit stop is reported.
func (r *Resolver) ResolveLabel(label string) domain.Enrichment {
	name, _ := r.regions.MatchNeighborhood(label)
	return domain.Enrichment{Region: name}
}

// Regions returns the configured regions in declaration order.
func (r *Resolver) Regions() []domain.Region {
	return append([]domain.Region(nil), r.cfg.Regions...)
}

// TransitStops returns the configured transit stops in declaration order.
func (r *Resolver) TransitStops() []domain.TransitStop {
	return r.transit.Stops()
}
