package poi_test

import (
	"math"
	"testing"

	"github.com/samirrijal/aptscout/internal/core/domain"
	"github.com/samirrijal/aptscout/internal/core/poi"
)

var bartStops = []domain.TransitStop{
	{Name: "macarthur_bart", Location: domain.GeoPoint{Lat: 37.829083, Lon: -122.267040}},
	{Name: "rockridge_bart", Location: domain.GeoPoint{Lat: 37.844700, Lon: -122.251397}},
	{Name: "ashby_bart", Location: domain.GeoPoint{Lat: 37.852815, Lon: -122.269977}},
	{Name: "north_berkeley_bart", Location: domain.GeoPoint{Lat: 37.873954, Lon: -122.283420}},
}

func TestNearest_AshbyExample(t *testing.T) {
	l := poi.NewTransitLocator(bartStops, 15, 2)
	m, ok := l.Nearest(domain.GeoPoint{Lat: 37.852815, Lon: -122.269977})
	if !ok {
		t.Fatal("expected a stop")
	}
	if m.Stop.Name != "ashby_bart" {
		t.Errorf("expected ashby_bart, got %s", m.Stop.Name)
	}
	if m.DistanceKm != 0 || m.WalkingMinutes != 0 {
		t.Errorf("expected zero distance and minutes, got %f km %f min", m.DistanceKm, m.WalkingMinutes)
	}
	if !m.WithinThreshold {
		t.Error("expected within threshold")
	}
}

func TestNearest_PicksClosest(t *testing.T) {
	l := poi.NewTransitLocator(bartStops, 15, 0)
	// A few blocks from Rockridge BART.
	m, ok := l.Nearest(domain.GeoPoint{Lat: 37.8420, Lon: -122.2540})
	if !ok {
		t.Fatal("expected a stop")
	}
	if m.Stop.Name != "rockridge_bart" {
		t.Errorf("expected rockridge_bart, got %s", m.Stop.Name)
	}
	if m.DistanceKm <= 0 {
		t.Errorf("expected positive distance, got %f", m.DistanceKm)
	}
	if want := m.DistanceKm / 5 * 60; math.Abs(m.WalkingMinutes-want) > 1e-12 {
		t.Errorf("expected %f minutes, got %f", want, m.WalkingMinutes)
	}
}

func TestNearest_TieKeepsFirst(t *testing.T) {
	stops := []domain.TransitStop{
		{Name: "west", Location: domain.GeoPoint{Lat: 0, Lon: -1}},
		{Name: "east", Location: domain.GeoPoint{Lat: 0, Lon: 1}},
	}
	m, ok := poi.NewTransitLocator(stops, 0, 0).Nearest(domain.GeoPoint{})
	if !ok || m.Stop.Name != "west" {
		t.Errorf("expected west on tie, got %+v", m)
	}
}

func TestNearest_Thresholds(t *testing.T) {
	// ~1.11 km north of the stop: ~13.3 walking minutes.
	stops := []domain.TransitStop{{Name: "s", Location: domain.GeoPoint{Lat: 0, Lon: 0}}}
	p := domain.GeoPoint{Lat: 0.01, Lon: 0}

	tests := []struct {
		name    string
		minutes float64
		km      float64
		want    bool
	}{
		{"walking only, within", 15, 0, true},
		{"walking only, too far", 10, 0, false},
		{"distance only, within", 0, 2, true},
		{"distance only, too far", 0, 1, false},
		{"both hold", 15, 2, true},
		{"walking holds, distance fails", 15, 1, false},
		{"distance holds, walking fails", 10, 2, false},
		{"neither configured", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := poi.NewTransitLocator(stops, tt.minutes, tt.km).Nearest(p)
			if !ok {
				t.Fatal("expected a stop")
			}
			if m.WithinThreshold != tt.want {
				t.Errorf("expected within=%v, got %v (%.3f km, %.2f min)", tt.want, m.WithinThreshold, m.DistanceKm, m.WalkingMinutes)
			}
		})
	}
}

func TestNearest_ThresholdInclusive(t *testing.T) {
	stops := []domain.TransitStop{{Name: "s", Location: domain.GeoPoint{Lat: 0, Lon: 0}}}
	p := domain.GeoPoint{Lat: 0.01, Lon: 0}
	m, _ := poi.NewTransitLocator(stops, 0, 0).Nearest(p)

	exact, _ := poi.NewTransitLocator(stops, m.WalkingMinutes, m.DistanceKm).Nearest(p)
	if !exact.WithinThreshold {
		t.Error("expected thresholds equal to the computed values to pass")
	}
}

func TestNearest_NoStops(t *testing.T) {
	m, ok := poi.NewTransitLocator(nil, 15, 2).Nearest(domain.GeoPoint{Lat: 37.85, Lon: -122.27})
	if ok {
		t.Fatalf("expected no stop, got %+v", m)
	}
	if m.WithinThreshold || m.Stop.Name != "" {
		t.Errorf("expected zero match, got %+v", m)
	}
}

func TestNearest_NaNCoordinate(t *testing.T) {
	_, ok := poi.NewTransitLocator(bartStops, 15, 2).Nearest(domain.GeoPoint{Lat: math.NaN(), Lon: -122.27})
	if ok {
		t.Error("expected no stop for NaN coordinate")
	}
}

func TestNearest_DistanceNonNegative(t *testing.T) {
	l := poi.NewTransitLocator(bartStops, 15, 2)
	points := []domain.GeoPoint{{}, {Lat: -33.86, Lon: 151.21}, {Lat: 90, Lon: 0}, {Lat: 37.8, Lon: 57.7}}
	for _, p := range points {
		m, ok := l.Nearest(p)
		if !ok {
			t.Fatalf("%v: expected a stop", p)
		}
		if m.DistanceKm <= 0 {
			t.Errorf("%v: expected positive distance for distinct point, got %f", p, m.DistanceKm)
		}
	}
}

func TestWalkingMinutes(t *testing.T) {
	if got := poi.WalkingMinutes(5); got != 60 {
		t.Errorf("expected 60, got %f", got)
	}
	if got := poi.WalkingMinutes(1.25); got != 15 {
		t.Errorf("expected 15, got %f", got)
	}
}
