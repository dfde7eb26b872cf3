package tracking

import (
	"github.com/montanaflynn/stats"

	"github.com/safetrack-app/safetrack-go/internal/config"
	"github.com/safetrack-app/safetrack-go/internal/models"
	"github.com/safetrack-app/safetrack-go/internal/spatial"
)

// Cluster is a group of trips judged to follow the same route.
type Cluster struct {
	Trips []models.Trip
}

// Size returns the number of trips in the cluster.
func (c Cluster) Size() int { return len(c.Trips) }

// Clusterer groups trips by trajectory similarity. Clustering is greedy and
// single-pass: each trip is compared against the first trip of every existing
// cluster and joins the first one that clears the similarity threshold.
type Clusterer struct {
	cfg config.Tracking
}

// NewClusterer creates a trajectory clusterer.
func NewClusterer(cfg config.Tracking) *Clusterer {
	return &Clusterer{cfg: cfg}
}

// Cluster partitions trips into route clusters. Input order is preserved
// inside each cluster.
func (c *Clusterer) Cluster(trips []models.Trip) []Cluster {
	var clusters []Cluster
	for _, trip := range trips {
		placed := false
		for i := range clusters {
			if c.Similarity(trip, clusters[i].Trips[0]) >= c.cfg.SimilarityThreshold {
				clusters[i].Trips = append(clusters[i].Trips, trip)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, Cluster{Trips: []models.Trip{trip}})
		}
	}
	return clusters
}

// Dominant returns the largest cluster, or a zero cluster when there are none.
func Dominant(clusters []Cluster) Cluster {
	var best Cluster
	for _, c := range clusters {
		if c.Size() > best.Size() {
			best = c
		}
	}
	return best
}

// Similarity scores two trips in [0, 1]. Matching endpoints alone score 0.8;
// the route shapes refine that through evenly spaced midpoint samples. Trips
// with unreadable geometry score zero.
func (c *Clusterer) Similarity(a, b models.Trip) float64 {
	la := spatial.DecodeLine(a.Geometry)
	lb := spatial.DecodeLine(b.Geometry)
	if len(la) == 0 || len(lb) == 0 {
		return 0
	}

	base := 0.0
	if spatial.PointDistance(la[0], lb[0]) < c.cfg.EndpointRadiusM &&
		spatial.PointDistance(la[len(la)-1], lb[len(lb)-1]) < c.cfg.EndpointRadiusM {
		base = 0.8
	}

	k := c.cfg.MidpointSamples
	if len(la) < k {
		k = len(la)
	}
	if len(lb) < k {
		k = len(lb)
	}
	// Too few points to say anything about the route shape.
	if k <= 2 {
		return base
	}

	ia := spatial.SampleIndices(len(la), k)
	ib := spatial.SampleIndices(len(lb), k)
	dists := make([]float64, k)
	for i := 0; i < k; i++ {
		dists[i] = spatial.PointDistance(la[ia[i]], lb[ib[i]])
	}
	mean, err := stats.Mean(dists)
	if err != nil {
		return base
	}

	route := 1 - mean/c.cfg.MidpointToleranceM
	if route < 0 {
		route = 0
	}
	return (base + route) / 2
}
