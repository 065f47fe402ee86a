package craigslist

import (
	"io"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/samirrijal/aptscout/internal/core/domain"
)

const postedLayout = "2006-01-02 15:04"

// ParseSearch extracts listings from a search results page. Relative links
// are resolved against baseURL. limit <= 0 means no limit.
func ParseSearch(r io.Reader, baseURL, area string, loc *time.Location, limit int) ([]domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	var out []domain.Listing
	doc.Find("li.result-row[data-pid]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		id, _ := s.Attr("data-pid")
		title := s.Find("a.result-title").First()
		href, _ := title.Attr("href")
		if id == "" || href == "" {
			return true
		}

		l := domain.Listing{
			ID:       id,
			URL:      resolve(base, href),
			Name:     strings.TrimSpace(title.Text()),
			Price:    parsePrice(s.Find("span.result-price").First().Text()),
			Location: cleanHood(s.Find("span.result-hood").First().Text()),
			Area:     area,
		}
		if dt, ok := s.Find("time.result-date").Attr("datetime"); ok {
			if t, err := time.ParseInLocation(postedLayout, dt, loc); err == nil {
				l.PostedAt = t
			}
		}
		if ids, ok := s.Find("a.result-image").Attr("data-ids"); ok && strings.TrimSpace(ids) != "" {
			l.HasImage = true
		}
		out = append(out, l)
		return true
	})
	return out, nil
}

// ParseDetails reads the geotag and first image from a listing page.
// Missing elements leave the listing unchanged.
func ParseDetails(r io.Reader, l *domain.Listing) error {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return err
	}

	m := doc.Find("#map").First()
	latStr, okLat := m.Attr("data-latitude")
	lonStr, okLon := m.Attr("data-longitude")
	if okLat && okLon {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if errLat == nil && errLon == nil && validCoordinate(lat, lon) {
			l.Geotag = &domain.GeoPoint{Lat: lat, Lon: lon}
		}
	}

	if src, ok := doc.Find("img[src]").First().Attr("src"); ok {
		l.PhotoURL = src
	}
	return nil
}

// validCoordinate rejects NaN, infinities and out-of-range degrees, which
// ParseFloat accepts but JSON and the resolver cannot use.
func validCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func parsePrice(s string) float64 {
	s = strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return p
}

func cleanHood(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	return strings.TrimSpace(s)
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
