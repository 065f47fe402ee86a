package staticmap_test

import (
	"net/url"
	"testing"

	"github.com/samirrijal/aptscout/internal/core/domain"
	"github.com/samirrijal/aptscout/internal/pkg/staticmap"
)

func TestMarkerURL(t *testing.T) {
	r := staticmap.New("k3y", 15, "600x300")
	raw := r.MarkerURL(domain.GeoPoint{Lat: 37.8105, Lon: -122.252})

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid url: %v", err)
	}
	if u.Host != "maps.googleapis.com" {
		t.Errorf("unexpected host %q", u.Host)
	}
	q := u.Query()
	if q.Get("markers") != "37.8105,-122.252" {
		t.Errorf("unexpected markers %q", q.Get("markers"))
	}
	if q.Get("center") != q.Get("markers") {
		t.Error("map should be centered on the marker")
	}
	if q.Get("zoom") != "15" || q.Get("size") != "600x300" || q.Get("key") != "k3y" {
		t.Errorf("unexpected query %v", q)
	}
}

func TestMarkerURL_Defaults(t *testing.T) {
	r := staticmap.New("", 0, "")
	u, _ := url.Parse(r.MarkerURL(domain.GeoPoint{Lat: 1, Lon: 2}))
	q := u.Query()
	if q.Get("zoom") != "14" || q.Get("size") != "400x400" {
		t.Errorf("expected defaults, got %v", q)
	}
	if q.Has("key") {
		t.Error("empty key should be omitted")
	}
}
