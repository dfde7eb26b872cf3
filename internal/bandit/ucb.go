package bandit

import (
	"database/sql"
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/safetrack-app/safetrack-go/internal/config"
	"github.com/safetrack-app/safetrack-go/internal/database"
	"github.com/safetrack-app/safetrack-go/internal/models"
	"github.com/safetrack-app/safetrack-go/internal/repository"
)

// ErrMissingLocation is returned when feedback arrives without a location id.
var ErrMissingLocation = errors.New("feedback requires a location id")

// Service runs UCB1 route-type selection per (user, location) pair.
// Selection never fails: any internal error degrades to the configured
// default route type, because the mobile client must always get a route.
type Service struct {
	cfg  config.Bandit
	repo *repository.BanditRepository
	log  *zap.Logger
	rand *rand.Rand
	now  func() time.Time
}

// New creates a bandit service.
func New(cfg config.Bandit, repo *repository.BanditRepository, log *zap.Logger) *Service {
	return &Service{
		cfg:  cfg,
		repo: repo,
		log:  log,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		now:  time.Now,
	}
}

// SelectRouteType picks the route type to offer for a (user, location) pair.
func (s *Service) SelectRouteType(userID, locationID int64) string {
	arms, err := s.repo.EnsureArms(userID, locationID)
	if err != nil || len(arms) == 0 {
		s.log.Error("arm lookup failed, using default route type",
			zap.Int64("user_id", userID),
			zap.Int64("location_id", locationID),
			zap.Error(err),
		)
		return s.cfg.DefaultRouteType
	}

	var totalPlays int64
	for _, a := range arms {
		totalPlays += a.TotalUses
	}

	// Cold start: explore randomly until every arm has been tried once.
	if totalPlays < int64(len(arms)) {
		var unplayed []models.BanditArm
		for _, a := range arms {
			if a.TotalUses == 0 {
				unplayed = append(unplayed, a)
			}
		}
		if len(unplayed) > 0 {
			return unplayed[s.rand.Intn(len(unplayed))].RouteType
		}
	}

	// An arm can still be unused past the cold-start phase, e.g. after
	// feedback skewed the counts. It gets priority in creation order.
	for _, a := range arms {
		if a.TotalUses == 0 {
			return a.RouteType
		}
	}

	best := arms[0].RouteType
	bestScore := math.Inf(-1)
	for _, a := range arms {
		score := Score(a.TotalRewards, a.TotalUses, totalPlays)
		if score > bestScore {
			best = a.RouteType
			bestScore = score
		}
	}
	return best
}

// RecordFeedback registers how a recommended route went: the arm counters and
// the outcome log move together in one transaction. An unknown route type is
// coerced to the default; a missing location is rejected.
func (s *Service) RecordFeedback(userID int64, fb *models.RouteFeedbackRequest) error {
	if fb.LocationID == 0 {
		return ErrMissingLocation
	}

	routeType := fb.RouteType
	if !models.ValidRouteType(routeType) {
		s.log.Warn("unknown route type in feedback, coercing to default",
			zap.Int64("user_id", userID),
			zap.String("route_type", routeType),
		)
		routeType = s.cfg.DefaultRouteType
	}

	if _, err := s.repo.EnsureArms(userID, fb.LocationID); err != nil {
		return err
	}

	completed := fb.Completed != nil && *fb.Completed
	reward := 0
	if completed {
		reward = 1
	}

	now := s.now().UTC()
	outcome := &models.RouteOutcome{
		UserID:     userID,
		LocationID: fb.LocationID,
		RouteType:  routeType,
		Completed:  completed,
		DistanceM:  fb.DistanceM,
		DurationS:  fb.DurationS,
		StartedAt:  now,
	}
	if completed {
		outcome.EndedAt = &now
	}

	return database.Transaction(s.repo.DB(), func(tx *sql.Tx) error {
		if err := s.repo.IncrementArm(tx, userID, fb.LocationID, routeType, reward); err != nil {
			return err
		}
		return s.repo.InsertOutcome(tx, outcome)
	})
}

// Statistics reports the user's arms with recomputed UCB scores, outcome
// counts and mean completed durations, optionally restricted to one location.
func (s *Service) Statistics(userID int64, locationID *int64) (*models.BanditStats, error) {
	arms, err := s.repo.GetArms(userID, locationID)
	if err != nil {
		return nil, err
	}

	// UCB scores are relative to the total plays of each arm's own
	// (user, location) pool.
	playsByLocation := make(map[int64]int64)
	for _, a := range arms {
		playsByLocation[a.LocationID] += a.TotalUses
	}

	armStats := make([]models.ArmStats, 0, len(arms))
	for _, a := range arms {
		st := models.ArmStats{
			LocationID:   a.LocationID,
			RouteType:    a.RouteType,
			TotalUses:    a.TotalUses,
			TotalRewards: a.TotalRewards,
		}
		if a.TotalUses > 0 {
			st.SuccessRate = float64(a.TotalRewards) / float64(a.TotalUses)
			st.UCBScore = Score(a.TotalRewards, a.TotalUses, playsByLocation[a.LocationID])
		}
		armStats = append(armStats, st)
	}
	sort.SliceStable(armStats, func(i, j int) bool {
		return armStats[i].UCBScore > armStats[j].UCBScore
	})

	completed, abandoned, err := s.repo.CountOutcomes(userID, locationID)
	if err != nil {
		return nil, err
	}

	durations, err := s.repo.GetCompletedDurations(userID, locationID)
	if err != nil {
		return nil, err
	}
	avg := make(map[string]float64, len(durations))
	for rt, ds := range durations {
		mean, err := stats.Mean(ds)
		if err != nil {
			continue
		}
		avg[rt] = mean
	}

	return &models.BanditStats{
		UserID:          userID,
		Arms:            armStats,
		CompletedTrips:  completed,
		AbandonedTrips:  abandoned,
		AvgDurationByRT: avg,
	}, nil
}

// Reset wipes the user's learned arms and outcome history. Irreversible.
func (s *Service) Reset(userID int64, locationID *int64) error {
	return s.repo.Reset(userID, locationID)
}

// Score computes the UCB1 score of one arm given the pool's total plays.
func Score(rewards, uses, totalPlays int64) float64 {
	if uses == 0 {
		return math.Inf(1)
	}
	avg := float64(rewards) / float64(uses)
	return avg + math.Sqrt(2*math.Log(float64(totalPlays))/float64(uses))
}
