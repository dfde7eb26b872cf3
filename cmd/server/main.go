package main

import (
	"log"

	"github.com/safetrack-app/safetrack-go/internal/api"
	"github.com/safetrack-app/safetrack-go/internal/bandit"
	"github.com/safetrack-app/safetrack-go/internal/config"
	"github.com/safetrack-app/safetrack-go/internal/database"
	"github.com/safetrack-app/safetrack-go/internal/handler"
	"github.com/safetrack-app/safetrack-go/internal/notify"
	"github.com/safetrack-app/safetrack-go/internal/repository"
	"github.com/safetrack-app/safetrack-go/internal/tracking"
	"github.com/safetrack-app/safetrack-go/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration: ", err)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()
	zlog := logger.L()

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	fixes := repository.NewFixRepository(db)
	trips := repository.NewTripRepository(db)
	locations := repository.NewLocationRepository(db)
	patterns := repository.NewPatternRepository(db)
	bandits := repository.NewBanditRepository(db)
	tokens := repository.NewTokenRepository(db)

	runner := tracking.NewRunner(64, zlog)
	defer runner.Close()

	// No push transport is wired in yet; notifications are logged.
	// TODO: plug in the FCM transport once the mobile release ships tokens.
	sender := notify.NewLogSender(zlog)

	matcher := tracking.NewMatcher(cfg.Tracking, locations, zlog)
	defer matcher.Stop()
	clusterer := tracking.NewClusterer(cfg.Tracking)
	analyzer := tracking.NewAnalyzer(cfg.Tracking, trips, patterns, locations, clusterer, sender, runner, zlog)
	segmenter := tracking.NewSegmenter(cfg.Tracking, fixes, trips, matcher, analyzer, runner, zlog)
	banditSvc := bandit.New(cfg.Bandit, bandits, zlog)

	router := api.SetupRouter(cfg, api.Handlers{
		Tracking:     handler.NewTrackingHandler(segmenter, trips, patterns),
		Location:     handler.NewLocationHandler(locations, matcher),
		Route:        handler.NewRouteHandler(banditSvc),
		Notification: handler.NewNotificationHandler(tokens),
	})

	zlog.Info("server starting", zap.String("port", cfg.Port))
	if err := router.Run(cfg.Port); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}
