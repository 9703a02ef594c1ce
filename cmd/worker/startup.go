package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"library-backend/pkg/container"
)

type probe struct {
	name string
	fn   func(ctx context.Context) error
}

// checkAll runs every probe and returns the first failure.
func checkAll(ctx context.Context, probes []probe) error {
	for _, p := range probes {
		if err := p.fn(ctx); err != nil {
			return fmt.Errorf("%s failed: %w", p.name, err)
		}
		log.Info().Str("check", p.name).Msg("[Health] ok")
	}
	return nil
}

func workerProbes(c *container.Container) []probe {
	return []probe{
		{"database", c.DB.Ping},
		{"redis", c.Cache.Ping},
		{"storage", c.Objects.HealthCheck},
	}
}

// healthRouter serves liveness and readiness probes for the worker.
func healthRouter(probes []probe) *gin.Engine {
	r := gin.New()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "service": "library-worker"})
	})
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := checkAll(ctx, probes); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "NOT_READY", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "READY"})
	})
	return r
}

func startHealthServer(addr string, probes []probe) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           healthRouter(probes),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("[Health] starting probe server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("[Health] probe server failed")
		}
	}()
	return srv
}
