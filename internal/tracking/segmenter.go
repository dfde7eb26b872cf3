package tracking

import (
	"context"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/safetrack-app/safetrack-go/internal/config"
	"github.com/safetrack-app/safetrack-go/internal/models"
	"github.com/safetrack-app/safetrack-go/internal/repository"
	"github.com/safetrack-app/safetrack-go/internal/spatial"
)

// Ingest statuses reported back to the client.
const (
	StatusAccumulating = "accumulating"
	StatusNoise        = "noise_discarded"
	StatusBelowMinimum = "below_minimum"
	StatusTripCreated  = "trip_created"
	StatusDuplicate    = "duplicate"
)

// IngestResult summarizes one batch ingestion.
type IngestResult struct {
	Stored int    `json:"stored"`
	Status string `json:"status"`
	TripID *int64 `json:"tripId,omitempty"`
}

// Segmenter ingests raw GPS fixes and carves finalized trips out of them.
// Detection is stateless across requests: every batch re-reads the fix window
// since the user's last trip, so re-delivered batches converge on the same
// trips instead of duplicating them.
type Segmenter struct {
	cfg      config.Tracking
	fixes    *repository.FixRepository
	trips    *repository.TripRepository
	matcher  *Matcher
	analyzer *Analyzer
	jobs     Dispatcher
	log      *zap.Logger
	now      func() time.Time
}

// NewSegmenter creates a trip segmenter.
func NewSegmenter(
	cfg config.Tracking,
	fixes *repository.FixRepository,
	trips *repository.TripRepository,
	matcher *Matcher,
	analyzer *Analyzer,
	jobs Dispatcher,
	log *zap.Logger,
) *Segmenter {
	return &Segmenter{
		cfg:      cfg,
		fixes:    fixes,
		trips:    trips,
		matcher:  matcher,
		analyzer: analyzer,
		jobs:     jobs,
		log:      log,
		now:      time.Now,
	}
}

// Ingest stores a batch of fixes and runs one detection pass over the user's
// open fix window. Malformed fixes are skipped, and a detection failure never
// fails the request once the fixes are committed.
func (s *Segmenter) Ingest(userID int64, batch []models.FixInput) (*IngestResult, error) {
	saved, err := s.fixes.InsertBatch(s.parseBatch(userID, batch))
	if err != nil {
		return nil, err
	}

	status, tripID, err := s.detect(userID)
	if err != nil {
		s.log.Error("trip detection failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return &IngestResult{Stored: saved, Status: StatusAccumulating}, nil
	}
	return &IngestResult{Stored: saved, Status: status, TripID: tripID}, nil
}

func (s *Segmenter) parseBatch(userID int64, batch []models.FixInput) []models.RawFix {
	fixes := make([]models.RawFix, 0, len(batch))
	for i, in := range batch {
		ts := s.now().UTC()
		if in.Timestamp != "" {
			parsed, err := time.Parse(time.RFC3339, in.Timestamp)
			if err != nil {
				s.log.Warn("skipping fix with unparseable timestamp",
					zap.Int64("user_id", userID),
					zap.Int("index", i),
					zap.String("timestamp", in.Timestamp),
				)
				continue
			}
			ts = parsed.UTC()
		}
		fixes = append(fixes, models.RawFix{
			UserID:         userID,
			Latitude:       in.Lat,
			Longitude:      in.Lon,
			Timestamp:      ts,
			AccuracyMeters: in.Accuracy,
			SpeedMPS:       in.Speed,
		})
	}
	return fixes
}

// detect scans the open window and decides whether it holds a finished trip.
func (s *Segmenter) detect(userID int64) (string, *int64, error) {
	windowStart := s.now().Add(-s.cfg.LookbackWindow)
	last, err := s.trips.GetLatestByUser(userID)
	if err != nil {
		return "", nil, err
	}
	if last != nil {
		windowStart = last.EndTime
	}

	window, err := s.fixes.GetSince(userID, windowStart)
	if err != nil {
		return "", nil, err
	}
	if len(window) < s.cfg.StationaryPoints {
		return StatusAccumulating, nil, nil
	}

	distance := windowDistance(window)
	if !s.isStationary(window) {
		// Still moving, or signal too erratic to call. Wait for more fixes.
		return StatusAccumulating, nil, nil
	}
	if distance < s.cfg.MinTripDistanceM {
		s.log.Debug("discarding stationary noise window",
			zap.Int64("user_id", userID),
			zap.Int("points", len(window)),
			zap.Float64("distance_m", distance),
		)
		return StatusNoise, nil, nil
	}

	return s.finalize(userID, window, distance)
}

// isStationary reports whether the user has come to rest: the mean gap
// between the last few consecutive fixes stays under the stationary bound.
func (s *Segmenter) isStationary(window []models.RawFix) bool {
	tail := window[len(window)-s.cfg.StationaryPoints:]
	gaps := make([]float64, 0, len(tail)-1)
	for i := 1; i < len(tail); i++ {
		gaps = append(gaps, spatial.HaversineDistance(
			tail[i-1].Latitude, tail[i-1].Longitude,
			tail[i].Latitude, tail[i].Longitude,
		))
	}
	mean, err := stats.Mean(gaps)
	if err != nil {
		return false
	}
	return mean < s.cfg.StationaryMeanM
}

func (s *Segmenter) finalize(userID int64, window []models.RawFix, distance float64) (string, *int64, error) {
	startTime := window[0].Timestamp
	endTime := window[len(window)-1].Timestamp
	duration := int64(endTime.Sub(startTime).Seconds())
	if distance < s.cfg.MinTripDistanceM || duration < s.cfg.MinTripDurationS {
		return StatusBelowMinimum, nil, nil
	}

	// The batch may be a re-delivery of fixes that already formed this trip.
	exists, err := s.trips.ExistsByUserAndStart(userID, startTime)
	if err != nil {
		return "", nil, err
	}
	if exists {
		return StatusDuplicate, nil, nil
	}

	points := window[s.motionStart(userID, window):]
	origin := points[0]
	end := points[len(points)-1]

	line := make(orb.LineString, 0, len(points))
	for _, f := range points {
		line = append(line, orb.Point{f.Longitude, f.Latitude})
	}
	geometry := spatial.EncodeLine(spatial.Decimate(line, s.cfg.GeometryDecimation))

	trip := &models.Trip{
		UserID:         userID,
		StartLat:       origin.Latitude,
		StartLon:       origin.Longitude,
		EndLat:         end.Latitude,
		EndLon:         end.Longitude,
		StartTime:      startTime,
		EndTime:        endTime,
		Geometry:       geometry,
		GeometryHash:   spatial.GeometryHash(geometry),
		TotalDistanceM: distance,
		DurationS:      duration,
	}

	if trip.OriginLocationID, err = s.matcher.Match(userID, origin.Latitude, origin.Longitude); err != nil {
		return "", nil, err
	}
	if trip.DestinationLocationID, err = s.matcher.Match(userID, end.Latitude, end.Longitude); err != nil {
		return "", nil, err
	}

	if err := s.trips.Insert(trip); err != nil {
		if err == repository.ErrDuplicateTrip {
			// Lost a race against a concurrent ingest of the same window.
			return StatusDuplicate, nil, nil
		}
		return "", nil, err
	}

	s.log.Info("trip finalized",
		zap.Int64("user_id", userID),
		zap.Int64("trip_id", trip.ID),
		zap.Float64("distance_m", distance),
		zap.Int64("duration_s", duration),
	)

	if trip.DestinationLocationID != nil {
		destID := *trip.DestinationLocationID
		s.jobs.Dispatch("predictability-analysis", func(ctx context.Context) error {
			return s.analyzer.Analyze(ctx, userID, destID)
		})
	}

	id := trip.ID
	return StatusTripCreated, &id, nil
}

// motionStart returns the index of the point where motion began: the point
// preceding the first large inter-point jump. Falls back to the window start.
func (s *Segmenter) motionStart(userID int64, window []models.RawFix) int {
	for i := 1; i < len(window); i++ {
		d := spatial.HaversineDistance(
			window[i-1].Latitude, window[i-1].Longitude,
			window[i].Latitude, window[i].Longitude,
		)
		if d > s.cfg.MotionStartDistanceM {
			return i - 1
		}
	}
	s.log.Warn("no motion start found in trip window, using first fix",
		zap.Int64("user_id", userID),
		zap.Int("points", len(window)),
	)
	return 0
}

func windowDistance(window []models.RawFix) float64 {
	var total float64
	for i := 1; i < len(window); i++ {
		total += spatial.HaversineDistance(
			window[i-1].Latitude, window[i-1].Longitude,
			window[i].Latitude, window[i].Longitude,
		)
	}
	return total
}
