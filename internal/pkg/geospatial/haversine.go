package geospatial

import "math"

const (
	earthRadiusKm = 6371.0
	kmPerDegree   = 111.32
)

// HaversineKm returns the great-circle distance in kilometers between two
// points. NaN inputs yield NaN.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := toRad(lat1), toRad(lat2)
	sinLat := math.Sin((phi2 - phi1) / 2)
	sinLon := math.Sin(toRad(lon2-lon1) / 2)

	h := sinLat*sinLat + math.Cos(phi1)*math.Cos(phi2)*sinLon*sinLon
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(math.Min(h, 1)))
}

// BoundingBox returns a box around a point with the given radius in kilometers,
// for use as a coarse SQL prefilter before exact haversine filtering. Near the
// poles the box spans every longitude.
func BoundingBox(lat, lon, radiusKm float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusKm / kmPerDegree
	minLat, maxLat = math.Max(lat-latDelta, -90), math.Min(lat+latDelta, 90)

	cos := math.Cos(toRad(lat))
	if cos < 1e-6 {
		return minLat, -180, maxLat, 180
	}
	lonDelta := radiusKm / (kmPerDegree * cos)
	return minLat, lon - lonDelta, maxLat, lon + lonDelta
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
