package tracking

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/safetrack-app/safetrack-go/internal/config"
	"github.com/safetrack-app/safetrack-go/internal/models"
	"github.com/safetrack-app/safetrack-go/internal/notify"
	"github.com/safetrack-app/safetrack-go/internal/repository"
)

// Notification reasons recorded in the push payload.
const (
	ReasonFirstDetection = "first_detection"
	ReasonFrequent       = "frequent_pattern"
	ReasonReactivated    = "pattern_reactivated"
)

// Analyzer recomputes a user's predictability pattern for one destination
// and decides whether to alert them. Runs off the request path, after trip
// finalization.
type Analyzer struct {
	cfg       config.Tracking
	trips     *repository.TripRepository
	patterns  *repository.PatternRepository
	locations *repository.LocationRepository
	clusterer *Clusterer
	sender    notify.Sender
	jobs      Dispatcher
	log       *zap.Logger
	now       func() time.Time
}

// NewAnalyzer creates a predictability analyzer.
func NewAnalyzer(
	cfg config.Tracking,
	trips *repository.TripRepository,
	patterns *repository.PatternRepository,
	locations *repository.LocationRepository,
	clusterer *Clusterer,
	sender notify.Sender,
	jobs Dispatcher,
	log *zap.Logger,
) *Analyzer {
	return &Analyzer{
		cfg:       cfg,
		trips:     trips,
		patterns:  patterns,
		locations: locations,
		clusterer: clusterer,
		sender:    sender,
		jobs:      jobs,
		log:       log,
		now:       time.Now,
	}
}

// Analyze recomputes the pattern for (user, destination) and fires a
// notification when the policy allows one.
func (a *Analyzer) Analyze(ctx context.Context, userID, destinationID int64) error {
	trips, err := a.trips.GetByUserAndDestination(userID, destinationID)
	if err != nil {
		return err
	}
	if len(trips) < a.cfg.MinTripsForAnalysis {
		a.log.Debug("not enough trips for analysis",
			zap.Int64("user_id", userID),
			zap.Int64("destination_id", destinationID),
			zap.Int("trips", len(trips)),
		)
		return nil
	}

	// Trips arrive newest first; analyze the most recent window.
	window := trips
	if len(window) > a.cfg.AnalysisWindowTrips {
		window = window[:a.cfg.AnalysisWindowTrips]
	}
	dominant := Dominant(a.clusterer.Cluster(window))
	score := float64(dominant.Size()) / float64(len(window))

	// TotalTrips is the analyzed window, not the lifetime count, so the
	// stored score always equals similar/total.
	pattern := &models.Pattern{
		UserID:                userID,
		DestinationLocationID: destinationID,
		TotalTrips:            len(window),
		SimilarTrips:          dominant.Size(),
		Score:                 score,
		IsPredictable:         score >= a.cfg.PredictabilityThreshold,
		UpdatedAt:             a.now().UTC(),
	}
	if err := a.patterns.Upsert(pattern); err != nil {
		return err
	}

	a.log.Info("predictability analyzed",
		zap.Int64("user_id", userID),
		zap.Int64("destination_id", destinationID),
		zap.Int("total_trips", pattern.TotalTrips),
		zap.Int("similar_trips", pattern.SimilarTrips),
		zap.Float64("score", score),
		zap.Bool("predictable", pattern.IsPredictable),
	)

	if !pattern.IsPredictable {
		return nil
	}

	times := make([]time.Time, 0, len(window))
	for _, t := range window {
		times = append(times, t.StartTime)
	}
	notifyNow, reason := a.decide(pattern, times, a.now().UTC())
	if !notifyNow {
		return nil
	}
	return a.fire(ctx, pattern, reason)
}

// decide applies the notification policy, in strict priority order. tripTimes
// are the start times of the analyzed trips.
func (a *Analyzer) decide(p *models.Pattern, tripTimes []time.Time, now time.Time) (bool, string) {
	if !p.NotificationSent {
		return true, ReasonFirstDetection
	}

	if p.LastNotificationAt != nil {
		last := p.LastNotificationAt.UTC()
		ly, lm, ld := last.Date()
		ny, nm, nd := now.Date()
		if ly == ny && lm == nm && ld == nd {
			return false, ""
		}
		if now.Sub(last) < a.cfg.NotificationCooldown {
			return false, ""
		}
	}

	var recent []time.Time
	for _, t := range tripTimes {
		if now.Sub(t) <= a.cfg.FrequentTripWindow {
			recent = append(recent, t)
		}
	}
	if len(recent) >= a.cfg.FrequentTripCount {
		return true, ReasonFrequent
	}

	if len(recent) > 0 {
		newest := recent[0]
		for _, t := range recent {
			if t.After(newest) {
				newest = t
			}
		}
		if now.Sub(newest) >= a.cfg.ReactivationAfter {
			return true, ReasonReactivated
		}
	}
	return false, ""
}

// fire marks the pattern as notified, then hands delivery off. The flag is
// committed before delivery so a transport failure can never cause a repeat
// alert.
func (a *Analyzer) fire(ctx context.Context, p *models.Pattern, reason string) error {
	now := a.now().UTC()
	if err := a.patterns.UpdateNotification(p.ID, true, &now); err != nil {
		return err
	}
	p.NotificationSent = true
	p.LastNotificationAt = &now

	name := "a frequent destination"
	if loc, err := a.locations.GetByIDAndUser(p.DestinationLocationID, p.UserID); err != nil {
		a.log.Error("failed to load destination for notification", zap.Error(err))
	} else if loc != nil {
		name = loc.Name
	}

	n := notify.Notification{
		UserID: p.UserID,
		Title:  "Predictable route detected",
		Body:   fmt.Sprintf("You often travel to %s by the same route. Consider varying your routes and schedules.", name),
		Data: map[string]string{
			"type":                    "predictability_alert",
			"destination_location_id": strconv.FormatInt(p.DestinationLocationID, 10),
			"score":                   fmt.Sprintf("%.2f", p.Score),
			"reason":                  reason,
		},
	}
	a.jobs.Dispatch("predictability-notification", func(ctx context.Context) error {
		return a.sender.Send(ctx, n)
	})

	a.log.Info("predictability notification queued",
		zap.Int64("user_id", p.UserID),
		zap.Int64("destination_id", p.DestinationLocationID),
		zap.String("reason", reason),
	)
	return nil
}
