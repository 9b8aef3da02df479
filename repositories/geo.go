package repositories

import (
	"math"

	"github.com/HSouheill/homeservices_backend/models"
)

// earthRadiusMeters matches the sphere MongoDB uses for 2dsphere queries.
const earthRadiusMeters = 6378100.0

// DistanceMeters is the great-circle distance between two points.
func DistanceMeters(a, b models.GeoPoint) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Lng() - a.Lng()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
