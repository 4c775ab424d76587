// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/autoreplenish/internal/api"
	"github.com/andresuchdata/autoreplenish/internal/cache"
	"github.com/andresuchdata/autoreplenish/internal/config"
	"github.com/andresuchdata/autoreplenish/internal/replenishment"
	"github.com/andresuchdata/autoreplenish/internal/repository/postgres"
	"github.com/andresuchdata/autoreplenish/internal/service"
	"github.com/andresuchdata/autoreplenish/pkg/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Configure(cfg.Server.Mode, cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	planning := service.PlanningDefaults(cfg.Planning)
	distribution := service.DistributionDefaults(cfg.Planning)
	for name, p := range map[string]replenishment.PlanningConfig{"planning": planning, "distribution": distribution} {
		if err := p.Validate(); err != nil {
			logger.Log.Fatal().Err(err).Str("defaults", name).Msg("Invalid planning configuration")
		}
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	hierarchyCache, err := cache.NewHierarchyCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Redis unavailable, hierarchy cache disabled")
		hierarchyCache = cache.NewNoopHierarchyCache()
	}

	// Initialize repositories and services
	inventoryRepo := postgres.NewInventoryRepository(db)
	needService := service.NewNeedService(inventoryRepo, postgres.NewOrderRepository(db), hierarchyCache)
	distributionService := service.NewDistributionService(inventoryRepo, postgres.NewAllocationRepository(db))

	live := service.NewRecomputer(needService.Compute, service.NeedRequest{
		Config: planning,
		Mode:   replenishment.ViewAllStores,
	})
	defer live.Close()
	poller := service.NewPoller(inventoryRepo, live, needService, time.Duration(cfg.Planning.PollIntervalSeconds)*time.Second)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		NeedService:          needService,
		DistributionService:  distributionService,
		Live:                 live,
		PlanningDefaults:     planning,
		DistributionDefaults: distribution,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := poller.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	// Wait for interrupt signal (or a failed component) to gracefully shut down the server
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Log.Error().Err(err).Msg("Server stopped with error")
	}

	logger.Log.Info().Msg("Server exiting")
}
