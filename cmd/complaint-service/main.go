package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"complaint-service/internal/auth"
	"complaint-service/internal/cache"
	"complaint-service/internal/config"
	"complaint-service/internal/db"
	"complaint-service/internal/events"
	httphandler "complaint-service/internal/http"
	"complaint-service/internal/http/middleware"
	"complaint-service/internal/logger"
	"complaint-service/internal/media"
	"complaint-service/internal/repository"
	"complaint-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	sqlDB, err := database.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get sql.DB")
	}
	defer sqlDB.Close()

	mediaStore, err := newMediaStore(cfg.Media)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init media store")
	}

	redisClient := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if redisClient == nil {
		log.Warn().Msg("redis unavailable, report cache disabled")
	} else {
		defer redisClient.Close()
	}
	reportCache := cache.NewReportCache(redisClient, cfg.Redis.ReportTTL)

	publisher := newPublisher(cfg.AMQP, log)

	store := repository.NewStore(database)
	issuer := auth.NewIssuer(cfg.Auth.AccessSecret, cfg.Auth.AccessTTL)

	complaintService := service.NewComplaintService(store, mediaStore, publisher, reportCache, log)
	identityService := service.NewIdentityService(store, issuer, reportCache, log)
	reportService := service.NewReportService(store, reportCache, log)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.HealthCheck(bootCtx, database); err != nil {
		log.Fatal().Err(err).Msg("database health check failed")
	}
	if err := identityService.EnsureAdmin(bootCtx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin")
	}
	cancelBoot()

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(complaintService, identityService, reportService, cfg.Media.MaxUploadBytes, log)
	router := httphandler.NewRouter(handler, middleware.Auth(tokenParser), log, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().Str("addr", addr).Msg("starting complaint service")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func newMediaStore(cfg config.MediaConfig) (media.Store, error) {
	switch cfg.Driver {
	case config.MediaDriverCloudinary:
		return media.NewCloudinaryStore(cfg.CloudinaryURL, cfg.CloudinaryDir)
	default:
		return media.NewLocalStore(afero.NewOsFs(), cfg.UploadDir)
	}
}

func newPublisher(cfg config.AMQPConfig, log zerolog.Logger) events.Publisher {
	if cfg.URL == "" {
		log.Info().Msg("AMQP_URL not set, lifecycle events disabled")
		return events.NopPublisher{}
	}
	return events.NewAMQPPublisher(cfg.URL, cfg.Queue, cfg.DialTimeout)
}
