package spatial

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "same point",
			lat1: -0.1806, lon1: -78.4678,
			lat2: -0.1806, lon2: -78.4678,
			want: 0, tolerance: 0.01,
		},
		{
			name: "one millidegree of latitude",
			lat1: 0, lon1: 0,
			lat2: 0.001, lon2: 0,
			want: 111.19, tolerance: 0.5,
		},
		{
			name: "quito to guayaquil",
			lat1: -0.1807, lon1: -78.4678,
			lat2: -2.1894, lon2: -79.8891,
			want: 271000, tolerance: 3000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineDistance() = %f, want %f +/- %f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestHaversineDistanceSymmetric(t *testing.T) {
	d1 := HaversineDistance(-0.18, -78.46, -0.19, -78.48)
	d2 := HaversineDistance(-0.19, -78.48, -0.18, -78.46)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", d1, d2)
	}
}

func TestPathDistance(t *testing.T) {
	// Three points in a straight line along the equator, 0.001 degrees apart.
	line := orb.LineString{
		{0, 0},
		{0.001, 0},
		{0.002, 0},
	}
	got := PathDistance(line)
	want := 2 * 111.19
	if math.Abs(got-want) > 1 {
		t.Errorf("PathDistance() = %f, want about %f", got, want)
	}

	if d := PathDistance(orb.LineString{{0, 0}}); d != 0 {
		t.Errorf("PathDistance of single point = %f, want 0", d)
	}
	if d := PathDistance(nil); d != 0 {
		t.Errorf("PathDistance of nil = %f, want 0", d)
	}
}

func TestPointDistanceMatchesHaversine(t *testing.T) {
	// orb points are (lon, lat).
	a := orb.Point{-78.4678, -0.1806}
	b := orb.Point{-78.4700, -0.1850}
	got := PointDistance(a, b)
	want := HaversineDistance(-0.1806, -78.4678, -0.1850, -78.4700)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("PointDistance() = %f, want %f", got, want)
	}
}
