package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by HaversineKm.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between a and b in kilometres.
func HaversineKm(a, b Point) float64 {
	if a == b {
		return 0
	}
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// WithinRadius reports whether b lies within radiusKm of a, boundary included.
func WithinRadius(a, b Point, radiusKm float64) bool {
	return HaversineKm(a, b) <= radiusKm
}

// MetersToKm converts a radius expressed in metres, as used by geospatial
// indexes, to kilometres.
func MetersToKm(m float64) float64 { return m / 1000 }

// KmToMeters is the inverse of MetersToKm.
func KmToMeters(km float64) float64 { return km * 1000 }

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
