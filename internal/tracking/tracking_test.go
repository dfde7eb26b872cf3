package tracking

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/safetrack-app/safetrack-go/internal/config"
	"github.com/safetrack-app/safetrack-go/internal/database"
	"github.com/safetrack-app/safetrack-go/internal/models"
	"github.com/safetrack-app/safetrack-go/internal/notify"
	"github.com/safetrack-app/safetrack-go/internal/repository"
)

// captureSender records notifications instead of delivering them.
type captureSender struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (s *captureSender) Send(_ context.Context, n notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// syncDispatcher runs jobs inline so tests observe their effects immediately.
var syncDispatcher = DispatcherFunc(func(name string, fn func(ctx context.Context) error) {
	_ = fn(context.Background())
})

type testEnv struct {
	db        *sql.DB
	cfg       config.Tracking
	fixes     *repository.FixRepository
	trips     *repository.TripRepository
	locations *repository.LocationRepository
	patterns  *repository.PatternRepository
	matcher   *Matcher
	clusterer *Clusterer
	analyzer  *Analyzer
	segmenter *Segmenter
	sender    *captureSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	cfg := config.DefaultTracking()
	log := zap.NewNop()

	env := &testEnv{
		db:        db,
		cfg:       cfg,
		fixes:     repository.NewFixRepository(db),
		trips:     repository.NewTripRepository(db),
		locations: repository.NewLocationRepository(db),
		patterns:  repository.NewPatternRepository(db),
		clusterer: NewClusterer(cfg),
		sender:    &captureSender{},
	}
	env.matcher = NewMatcher(cfg, env.locations, log)
	t.Cleanup(env.matcher.Stop)
	env.analyzer = NewAnalyzer(cfg, env.trips, env.patterns, env.locations, env.clusterer, env.sender, syncDispatcher, log)
	env.segmenter = NewSegmenter(cfg, env.fixes, env.trips, env.matcher, env.analyzer, syncDispatcher, log)
	return env
}

// freeze pins the engine clock for deterministic windows and policy checks.
func (e *testEnv) freeze(now time.Time) {
	e.segmenter.now = func() time.Time { return now }
	e.analyzer.now = func() time.Time { return now }
}

func (e *testEnv) addLocation(t *testing.T, userID int64, name string, lat, lon float64) *models.SavedLocation {
	t.Helper()
	l := &models.SavedLocation{UserID: userID, Name: name, Latitude: lat, Longitude: lon}
	if err := e.locations.Insert(l); err != nil {
		t.Fatalf("failed to insert location: %v", err)
	}
	e.matcher.Invalidate(userID)
	return l
}
