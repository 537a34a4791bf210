package geo

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two lat/lng points.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// BoundingBox returns a lat/lng box that contains every point within radiusKm of the center.
func BoundingBox(lat, lng, radiusKm float64) (minLat, minLng, maxLat, maxLng float64) {
	angular := radiusKm / earthRadiusKm
	dLat := degrees(angular)
	dLng := 180.0
	if s := math.Sin(angular) / math.Cos(radians(lat)); s >= 0 && s < 1 {
		dLng = degrees(math.Asin(s))
	}
	return lat - dLat, lng - dLng, lat + dLat, lng + dLng
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
