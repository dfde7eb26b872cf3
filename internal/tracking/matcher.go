package tracking

import (
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/safetrack-app/safetrack-go/internal/config"
	"github.com/safetrack-app/safetrack-go/internal/models"
	"github.com/safetrack-app/safetrack-go/internal/repository"
	"github.com/safetrack-app/safetrack-go/internal/spatial"
)

// Matcher resolves coordinates to the user's saved locations. The active
// location set is cached per user for a short TTL so that ingestion bursts
// don't hammer the database; writes to locations invalidate the entry.
type Matcher struct {
	cfg       config.Tracking
	locations *repository.LocationRepository
	cache     *ttlcache.Cache[int64, []models.SavedLocation]
	log       *zap.Logger
}

// NewMatcher creates a destination matcher.
func NewMatcher(cfg config.Tracking, locations *repository.LocationRepository, log *zap.Logger) *Matcher {
	cache := ttlcache.New[int64, []models.SavedLocation](
		ttlcache.WithTTL[int64, []models.SavedLocation](cfg.LocationCacheTTL),
		ttlcache.WithDisableTouchOnHit[int64, []models.SavedLocation](),
	)
	go cache.Start()
	return &Matcher{cfg: cfg, locations: locations, cache: cache, log: log}
}

// Match returns the id of the nearest active saved location within the
// matching radius of (lat, lon), or nil when none is close enough.
func (m *Matcher) Match(userID int64, lat, lon float64) (*int64, error) {
	locs, err := m.activeLocations(userID)
	if err != nil {
		return nil, err
	}

	var best *models.SavedLocation
	var bestDist float64
	for i := range locs {
		d := spatial.HaversineDistance(lat, lon, locs[i].Latitude, locs[i].Longitude)
		if d > m.cfg.DestinationRadiusM {
			continue
		}
		if best == nil || d < bestDist {
			best = &locs[i]
			bestDist = d
		}
	}
	if best == nil {
		return nil, nil
	}

	m.log.Debug("matched saved location",
		zap.Int64("user_id", userID),
		zap.Int64("location_id", best.ID),
		zap.Float64("distance_m", bestDist),
	)
	id := best.ID
	return &id, nil
}

// Invalidate drops the cached location set for a user. Called after any
// saved-location write.
func (m *Matcher) Invalidate(userID int64) {
	m.cache.Delete(userID)
}

// Stop shuts down the cache's eviction loop.
func (m *Matcher) Stop() {
	m.cache.Stop()
}

func (m *Matcher) activeLocations(userID int64) ([]models.SavedLocation, error) {
	if item := m.cache.Get(userID); item != nil {
		return item.Value(), nil
	}
	locs, err := m.locations.GetActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	m.cache.Set(userID, locs, ttlcache.DefaultTTL)
	return locs, nil
}
