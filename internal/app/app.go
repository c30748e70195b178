// Package app holds the startup steps shared by the server and fitctl.
package app

import (
	"context"
	"fmt"

	"fitcommunity/config"
	"fitcommunity/internal/database"
	"fitcommunity/internal/logging"
	"fitcommunity/internal/metrics"
	"fitcommunity/internal/repository"
	"fitcommunity/internal/router"
	"fitcommunity/internal/service"
	"fitcommunity/internal/upstream"
	"fitcommunity/pkg/cloudinary"

	"gorm.io/gorm"
)

// Open loads configuration, configures logging and metrics, and connects to the database.
func Open() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	metrics.Register()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	return cfg, db, nil
}

// Integrations connects the optional push and image services. Failures are
// logged and leave the feature disabled.
func Integrations(ctx context.Context, cfg *config.Config) router.Integrations {
	var ext router.Integrations
	// a nil *FCMService must not become a non-nil Pusher
	if fcm := service.NewFCMService(ctx, cfg.Firebase.ServiceAccountPath); fcm != nil {
		ext.Push = fcm
	}
	if cfg.Cloudinary.CloudName != "" {
		images, err := cloudinary.NewClient(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			logging.Warn().Err(err).Msg("cloudinary init failed, uploads disabled")
		} else {
			ext.Images = images
		}
	}
	return ext
}

// Maintenance builds the counter reconciliation and pull-check service
// without the HTTP stack.
func Maintenance(cfg *config.Config, db *gorm.DB, ext router.Integrations) *service.MaintenanceService {
	users := repository.NewUserRepository(db)
	notify := service.NewNotificationService(repository.NewNotificationRepository(db), users, ext.Push)
	notify.SetPushTimeout(cfg.Firebase.PushTimeout)
	geo := upstream.NewNominatim(upstream.NewClient("geocoder", cfg.Upstream.Geocoder, cfg.Upstream.UserAgent), cfg.Upstream.CacheTTL)
	goals := service.NewGoalService(repository.NewGoalRepository(db), repository.NewMentorRepository(db), users, notify, nil)
	challenges := service.NewChallengeService(repository.NewChallengeRepository(db), geo, notify, cfg.Search.DefaultRadiusKm)
	return service.NewMaintenanceService(repository.NewCounterRepository(db), goals, challenges)
}
