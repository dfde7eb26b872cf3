package spatial

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
)

// HaversineDistance calculates the great-circle distance between two points
// in meters using the Haversine formula
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// PointDistance calculates the great-circle distance in meters between two
// orb points (lon/lat order).
func PointDistance(a, b orb.Point) float64 {
	return HaversineDistance(a.Lat(), a.Lon(), b.Lat(), b.Lon())
}

// PathDistance calculates the cumulative distance in meters along a line,
// summing consecutive great-circle segments.
func PathDistance(line orb.LineString) float64 {
	if len(line) < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i < len(line)-1; i++ {
		total += PointDistance(line[i], line[i+1])
	}
	return total
}
