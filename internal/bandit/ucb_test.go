package bandit

import (
	"database/sql"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/safetrack-app/safetrack-go/internal/config"
	"github.com/safetrack-app/safetrack-go/internal/database"
	"github.com/safetrack-app/safetrack-go/internal/models"
	"github.com/safetrack-app/safetrack-go/internal/repository"
)

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()

	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	cfg := config.Bandit{DefaultRouteType: models.RouteTypeFastest}
	return New(cfg, repository.NewBanditRepository(db), zap.NewNop()), db
}

func feedback(locationID int64, routeType string, completed bool) *models.RouteFeedbackRequest {
	return &models.RouteFeedbackRequest{
		LocationID: locationID,
		RouteType:  routeType,
		Completed:  &completed,
	}
}

func TestColdStartVisitsEveryArm(t *testing.T) {
	svc, _ := newTestService(t)

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		rt := svc.SelectRouteType(1, 10)
		if !models.ValidRouteType(rt) {
			t.Fatalf("SelectRouteType() = %q, not a valid route type", rt)
		}
		if seen[rt] {
			t.Fatalf("route type %q selected twice during cold start", rt)
		}
		seen[rt] = true
		if err := svc.RecordFeedback(1, feedback(10, rt, true)); err != nil {
			t.Fatalf("RecordFeedback() error: %v", err)
		}
	}
	if len(seen) != len(models.RouteTypes) {
		t.Errorf("cold start visited %d arms, want %d", len(seen), len(models.RouteTypes))
	}
}

func TestSelectExploitsBestArm(t *testing.T) {
	svc, _ := newTestService(t)

	// One play per arm; only fastest was rewarded.
	if err := svc.RecordFeedback(1, feedback(10, models.RouteTypeFastest, true)); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordFeedback(1, feedback(10, models.RouteTypeShortest, false)); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordFeedback(1, feedback(10, models.RouteTypeRecommended, false)); err != nil {
		t.Fatal(err)
	}

	if got := svc.SelectRouteType(1, 10); got != models.RouteTypeFastest {
		t.Errorf("SelectRouteType() = %q, want %q", got, models.RouteTypeFastest)
	}
}

func TestSelectPrioritizesUnusedArm(t *testing.T) {
	svc, _ := newTestService(t)

	// Heavy use of two arms leaves the third untouched; it must be explored
	// before any exploitation.
	for i := 0; i < 3; i++ {
		if err := svc.RecordFeedback(1, feedback(10, models.RouteTypeFastest, true)); err != nil {
			t.Fatal(err)
		}
		if err := svc.RecordFeedback(1, feedback(10, models.RouteTypeShortest, true)); err != nil {
			t.Fatal(err)
		}
	}

	if got := svc.SelectRouteType(1, 10); got != models.RouteTypeRecommended {
		t.Errorf("SelectRouteType() = %q, want unused %q", got, models.RouteTypeRecommended)
	}
}

func TestFeedbackUpdatesArmCounters(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.RecordFeedback(1, feedback(10, models.RouteTypeFastest, true)); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordFeedback(1, feedback(10, models.RouteTypeFastest, false)); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Statistics(1, nil)
	if err != nil {
		t.Fatalf("Statistics() error: %v", err)
	}

	var fastest *models.ArmStats
	for i := range stats.Arms {
		if stats.Arms[i].RouteType == models.RouteTypeFastest {
			fastest = &stats.Arms[i]
		}
	}
	if fastest == nil {
		t.Fatal("fastest arm missing from statistics")
	}
	if fastest.TotalUses != 2 || fastest.TotalRewards != 1 {
		t.Errorf("fastest = %d uses / %d rewards, want 2 / 1", fastest.TotalUses, fastest.TotalRewards)
	}
	if fastest.SuccessRate != 0.5 {
		t.Errorf("success rate = %f, want 0.5", fastest.SuccessRate)
	}
	if stats.CompletedTrips != 1 || stats.AbandonedTrips != 1 {
		t.Errorf("outcomes = %d completed / %d abandoned, want 1 / 1",
			stats.CompletedTrips, stats.AbandonedTrips)
	}
}

func TestFeedbackCoercesUnknownRouteType(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.RecordFeedback(1, feedback(10, "scenic", true)); err != nil {
		t.Fatalf("RecordFeedback() error: %v", err)
	}

	stats, err := svc.Statistics(1, nil)
	if err != nil {
		t.Fatalf("Statistics() error: %v", err)
	}
	for _, arm := range stats.Arms {
		want := int64(0)
		if arm.RouteType == models.RouteTypeFastest {
			want = 1
		}
		if arm.TotalUses != want {
			t.Errorf("arm %s uses = %d, want %d", arm.RouteType, arm.TotalUses, want)
		}
	}
}

func TestFeedbackRequiresLocation(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.RecordFeedback(1, feedback(0, models.RouteTypeFastest, true))
	if !errors.Is(err, ErrMissingLocation) {
		t.Errorf("RecordFeedback() error = %v, want ErrMissingLocation", err)
	}
}

func TestFeedbackRecordsDurations(t *testing.T) {
	svc, _ := newTestService(t)

	fb := feedback(10, models.RouteTypeFastest, true)
	d1 := 600.0
	fb.DurationS = &d1
	if err := svc.RecordFeedback(1, fb); err != nil {
		t.Fatal(err)
	}
	fb2 := feedback(10, models.RouteTypeFastest, true)
	d2 := 900.0
	fb2.DurationS = &d2
	if err := svc.RecordFeedback(1, fb2); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Statistics(1, nil)
	if err != nil {
		t.Fatalf("Statistics() error: %v", err)
	}
	if got := stats.AvgDurationByRT[models.RouteTypeFastest]; got != 750 {
		t.Errorf("avg duration = %f, want 750", got)
	}
}

func TestStatisticsPerLocation(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.RecordFeedback(1, feedback(10, models.RouteTypeFastest, true)); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordFeedback(1, feedback(20, models.RouteTypeShortest, false)); err != nil {
		t.Fatal(err)
	}

	loc := int64(10)
	stats, err := svc.Statistics(1, &loc)
	if err != nil {
		t.Fatalf("Statistics() error: %v", err)
	}
	if len(stats.Arms) != len(models.RouteTypes) {
		t.Errorf("arm count = %d, want %d", len(stats.Arms), len(models.RouteTypes))
	}
	for _, arm := range stats.Arms {
		if arm.LocationID != loc {
			t.Errorf("arm for location %d leaked into filtered stats", arm.LocationID)
		}
	}
	if stats.CompletedTrips != 1 || stats.AbandonedTrips != 0 {
		t.Errorf("outcomes = %d / %d, want 1 / 0", stats.CompletedTrips, stats.AbandonedTrips)
	}
}

func TestResetClearsState(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.RecordFeedback(1, feedback(10, models.RouteTypeFastest, true)); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reset(1, nil); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}

	stats, err := svc.Statistics(1, nil)
	if err != nil {
		t.Fatalf("Statistics() error: %v", err)
	}
	if len(stats.Arms) != 0 {
		t.Errorf("arms after reset = %d, want 0", len(stats.Arms))
	}
	if stats.CompletedTrips != 0 || stats.AbandonedTrips != 0 {
		t.Errorf("outcomes after reset = %d / %d, want 0 / 0",
			stats.CompletedTrips, stats.AbandonedTrips)
	}
}

func TestScore(t *testing.T) {
	if got := Score(0, 0, 5); !math.IsInf(got, 1) {
		t.Errorf("Score with zero uses = %f, want +Inf", got)
	}

	// avg 0.5 plus sqrt(2 ln 4 / 2).
	got := Score(1, 2, 4)
	want := 0.5 + math.Sqrt(2*math.Log(4)/2)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Score(1, 2, 4) = %f, want %f", got, want)
	}

	// More total plays raise the exploration bonus.
	if Score(1, 2, 16) <= Score(1, 2, 4) {
		t.Error("exploration bonus should grow with total plays")
	}
}
