package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds the application configuration, loaded from the environment.
type Config struct {
	Port      string `env:"PORT" envDefault:":8080"`
	DBPath    string `env:"DB_PATH" envDefault:"./data/safetrack.db"`
	JWTSecret string `env:"JWT_SECRET" envDefault:"change-me-in-production"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Requests per client IP per minute across the API.
	RateLimit int `env:"RATE_LIMIT" envDefault:"240"`

	Tracking Tracking
	Bandit   Bandit
}

// Tracking holds the thresholds of the passive trip-detection engine.
// The defaults are the tuned mobile-app values; production deployments raise
// MinTripDistanceM/MinTripDurationS via environment.
type Tracking struct {
	MinTripDistanceM float64 `env:"TRIP_MIN_DISTANCE_M" envDefault:"50"`
	MinTripDurationS int64   `env:"TRIP_MIN_DURATION_S" envDefault:"30"`

	// Window scanned when the user has no previous trip.
	LookbackWindow time.Duration `env:"TRIP_LOOKBACK_WINDOW" envDefault:"2h"`

	// Stationary signal: mean consecutive-point gap over the last
	// StationaryPoints fixes must stay under StationaryMeanM.
	StationaryPoints     int     `env:"TRIP_STATIONARY_POINTS" envDefault:"6"`
	StationaryMeanM      float64 `env:"TRIP_STATIONARY_MEAN_M" envDefault:"30"`
	MotionStartDistanceM float64 `env:"TRIP_MOTION_START_M" envDefault:"50"`

	// Every n-th raw fix is kept in the stored trip geometry.
	GeometryDecimation int `env:"TRIP_GEOMETRY_DECIMATION" envDefault:"3"`

	DestinationRadiusM float64       `env:"DESTINATION_RADIUS_M" envDefault:"100"`
	LocationCacheTTL   time.Duration `env:"LOCATION_CACHE_TTL" envDefault:"30s"`

	// Trajectory similarity and predictability analysis.
	SimilarityThreshold     float64 `env:"SIMILARITY_THRESHOLD" envDefault:"0.50"`
	EndpointRadiusM         float64 `env:"SIMILARITY_ENDPOINT_M" envDefault:"50"`
	MidpointSamples         int     `env:"SIMILARITY_MIDPOINT_SAMPLES" envDefault:"5"`
	MidpointToleranceM      float64 `env:"SIMILARITY_MIDPOINT_TOLERANCE_M" envDefault:"150"`
	MinTripsForAnalysis     int     `env:"ANALYSIS_MIN_TRIPS" envDefault:"5"`
	AnalysisWindowTrips     int     `env:"ANALYSIS_WINDOW_TRIPS" envDefault:"10"`
	PredictabilityThreshold float64 `env:"PREDICTABILITY_THRESHOLD" envDefault:"0.60"`

	// Notification throttling.
	NotificationCooldown time.Duration `env:"NOTIFY_COOLDOWN" envDefault:"168h"`
	FrequentTripCount    int           `env:"NOTIFY_FREQUENT_TRIPS" envDefault:"3"`
	FrequentTripWindow   time.Duration `env:"NOTIFY_FREQUENT_WINDOW" envDefault:"168h"`
	ReactivationAfter    time.Duration `env:"NOTIFY_REACTIVATION_AFTER" envDefault:"336h"`
}

// Bandit holds route-type selection settings.
type Bandit struct {
	// Returned whenever selection cannot complete.
	DefaultRouteType string `env:"BANDIT_DEFAULT_ROUTE_TYPE" envDefault:"fastest"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// DefaultTracking returns the stock engine thresholds. Used by tests.
func DefaultTracking() Tracking {
	return Tracking{
		MinTripDistanceM:        50,
		MinTripDurationS:        30,
		LookbackWindow:          2 * time.Hour,
		StationaryPoints:        6,
		StationaryMeanM:         30,
		MotionStartDistanceM:    50,
		GeometryDecimation:      3,
		DestinationRadiusM:      100,
		LocationCacheTTL:        30 * time.Second,
		SimilarityThreshold:     0.50,
		EndpointRadiusM:         50,
		MidpointSamples:         5,
		MidpointToleranceM:      150,
		MinTripsForAnalysis:     5,
		AnalysisWindowTrips:     10,
		PredictabilityThreshold: 0.60,
		NotificationCooldown:    7 * 24 * time.Hour,
		FrequentTripCount:       3,
		FrequentTripWindow:      7 * 24 * time.Hour,
		ReactivationAfter:       14 * 24 * time.Hour,
	}
}
