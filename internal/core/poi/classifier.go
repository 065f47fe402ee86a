package poi

import (
	"strings"

	"github.com/samirrijal/aptscout/internal/core/domain"
)

type namedBounds struct {
	name   string
	bounds domain.Bounds
}

type neighborhood struct {
	name  string
	lower string
}

// RegionClassifier maps a coordinate to a configured region, falling back to
// substring matching of the free-text location label against neighborhood names.
type RegionClassifier struct {
	boxes         []namedBounds
	neighborhoods []neighborhood
}

// NewRegionClassifier normalizes the region boxes once. Declaration order is kept:
// it decides which region wins when boxes overlap.
func NewRegionClassifier(regions []domain.Region, neighborhoods []string) *RegionClassifier {
	c := &RegionClassifier{
		boxes:         make([]namedBounds, 0, len(regions)),
		neighborhoods: make([]neighborhood, 0, len(neighborhoods)),
	}
	for _, r := range regions {
		c.boxes = append(c.boxes, namedBounds{name: r.Name, bounds: r.Bounds()})
	}
	for _, n := range neighborhoods {
		lower := strings.ToLower(strings.TrimSpace(n))
		if lower == "" {
			continue
		}
		c.neighborhoods = append(c.neighborhoods, neighborhood{name: n, lower: lower})
	}
	return c
}

// Classify returns the first region whose box contains p, else the first
// neighborhood name found in label, else "".
func (c *RegionClassifier) Classify(p domain.GeoPoint, label string) string {
	if name, ok := c.RegionAt(p); ok {
		return name
	}
	if name, ok := c.MatchNeighborhood(label); ok {
		return name
	}
	return ""
}

// RegionAt runs the box test only.
func (c *RegionClassifier) RegionAt(p domain.GeoPoint) (string, bool) {
	for _, b := range c.boxes {
		if b.bounds.Contains(p) {
			return b.name, true
		}
	}
	return "", false
}

// MatchNeighborhood runs the case-insensitive label test only.
func (c *RegionClassifier) MatchNeighborhood(label string) (string, bool) {
	if label == "" {
		return "", false
	}
	lower := strings.ToLower(label)
	for _, n := range c.neighborhoods {
		if strings.Contains(lower, n.lower) {
			return n.name, true
		}
	}
	return "", false
}
