package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"library-backend/pkg/container"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("[Config] failed to load")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("[Container] failed to initialize")
	}
	defer c.Cleanup()

	probes := workerProbes(c)
	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = checkAll(startupCtx, probes)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("[Startup] health check failed")
	}

	handlers := newHandlerRegistry(c.Photos, c.NotificationService, cfg.Worker.ReadNotificationTTL)
	srv := setupAsynqServer(cfg, handlers)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("[Worker] failed to start")
	}

	scheduler, err := setupScheduler(cfg)
	if err != nil {
		srv.Shutdown()
		log.Fatal().Err(err).Msg("[Scheduler] failed to set up")
	}
	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		log.Fatal().Err(err).Msg("[Scheduler] failed to start")
	}

	health := startHealthServer(cfg.Worker.HealthAddr, probes)

	<-ctx.Done()
	log.Info().Msg("[Shutdown] gracefully stopping")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = health.Shutdown(shutdownCtx)
	scheduler.Shutdown()
	srv.Shutdown()
}
