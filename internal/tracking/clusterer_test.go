package tracking

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/safetrack-app/safetrack-go/internal/config"
	"github.com/safetrack-app/safetrack-go/internal/models"
	"github.com/safetrack-app/safetrack-go/internal/spatial"
)

// routeGeometry interpolates n points between two coordinates, pushing the
// interior points sideways by bulge degrees of longitude.
func routeGeometry(startLat, startLon, endLat, endLon float64, n int, bulge float64) string {
	line := make(orb.LineString, 0, n)
	for i := 0; i < n; i++ {
		f := float64(i) / float64(n-1)
		lat := startLat + f*(endLat-startLat)
		lon := startLon + f*(endLon-startLon)
		if i > 0 && i < n-1 {
			lon += bulge
		}
		line = append(line, orb.Point{lon, lat})
	}
	return spatial.EncodeLine(line)
}

func tripWithGeometry(g string) models.Trip {
	return models.Trip{Geometry: g}
}

func TestSimilarityIdenticalRoutes(t *testing.T) {
	c := NewClusterer(config.DefaultTracking())
	g := routeGeometry(0, 0, 0.01, 0, 10, 0)

	got := c.Similarity(tripWithGeometry(g), tripWithGeometry(g))
	// Endpoint base 0.8 averaged with a perfect route score of 1.0.
	if math.Abs(got-0.9) > 1e-9 {
		t.Errorf("Similarity() = %f, want 0.9", got)
	}
}

func TestSimilaritySameEndpointsDifferentRoute(t *testing.T) {
	c := NewClusterer(config.DefaultTracking())
	a := routeGeometry(0, 0, 0.01, 0, 10, 0)
	// Same endpoints but the route bows out by roughly 330 meters.
	b := routeGeometry(0, 0, 0.01, 0, 10, 0.003)

	got := c.Similarity(tripWithGeometry(a), tripWithGeometry(b))
	if math.Abs(got-0.4) > 0.01 {
		t.Errorf("Similarity() = %f, want about 0.4", got)
	}
	if got >= c.cfg.SimilarityThreshold {
		t.Errorf("diverging routes should not cluster together, similarity %f", got)
	}
}

func TestSimilarityDifferentEndpoints(t *testing.T) {
	c := NewClusterer(config.DefaultTracking())
	a := routeGeometry(0, 0, 0.01, 0, 10, 0)
	b := routeGeometry(0.05, 0.05, 0.06, 0.05, 10, 0)

	if got := c.Similarity(tripWithGeometry(a), tripWithGeometry(b)); got != 0 {
		t.Errorf("Similarity() = %f, want 0", got)
	}
}

func TestSimilarityShortGeometry(t *testing.T) {
	c := NewClusterer(config.DefaultTracking())
	// Two points per line: endpoints decide everything.
	a := routeGeometry(0, 0, 0.01, 0, 2, 0)
	b := routeGeometry(0, 0, 0.01, 0, 2, 0)

	if got := c.Similarity(tripWithGeometry(a), tripWithGeometry(b)); got != 0.8 {
		t.Errorf("Similarity() = %f, want 0.8", got)
	}
}

func TestSimilarityUnreadableGeometry(t *testing.T) {
	c := NewClusterer(config.DefaultTracking())
	a := routeGeometry(0, 0, 0.01, 0, 10, 0)

	tests := []struct {
		name     string
		geometry string
	}{
		{"empty", ""},
		{"garbage", "not-a-line"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Similarity(tripWithGeometry(a), tripWithGeometry(tt.geometry)); got != 0 {
				t.Errorf("Similarity() = %f, want 0", got)
			}
		})
	}
}

func TestClusterDominantRoute(t *testing.T) {
	c := NewClusterer(config.DefaultTracking())

	var trips []models.Trip
	for i := 0; i < 8; i++ {
		trips = append(trips, tripWithGeometry(routeGeometry(0, 0, 0.01, 0, 10, 0)))
	}
	for i := 0; i < 2; i++ {
		trips = append(trips, tripWithGeometry(routeGeometry(0.05, 0.05, 0.06, 0.05, 10, 0)))
	}

	clusters := c.Cluster(trips)
	if len(clusters) != 2 {
		t.Fatalf("Cluster() produced %d clusters, want 2", len(clusters))
	}
	if got := Dominant(clusters).Size(); got != 8 {
		t.Errorf("dominant cluster size = %d, want 8", got)
	}
}

func TestClusterEmpty(t *testing.T) {
	c := NewClusterer(config.DefaultTracking())
	if clusters := c.Cluster(nil); len(clusters) != 0 {
		t.Errorf("Cluster(nil) = %v, want empty", clusters)
	}
	if Dominant(nil).Size() != 0 {
		t.Error("Dominant(nil) should be empty")
	}
}
