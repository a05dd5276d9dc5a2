// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harveystores/reorder-backend/internal/api"
	"github.com/harveystores/reorder-backend/internal/cache"
	"github.com/harveystores/reorder-backend/internal/config"
	"github.com/harveystores/reorder-backend/internal/repository/postgres"
	"github.com/harveystores/reorder-backend/internal/service"
	"github.com/harveystores/reorder-backend/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	statsCache, err := cache.NewSessionStatisticsCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("statistics cache unavailable, running without cache")
		statsCache = cache.NewNoopSessionStatisticsCache()
	}

	orderService := service.NewOrderService(
		postgres.NewOrderRepository(db),
		postgres.NewSalesRepository(db),
		cfg.Order,
		statsCache,
	)

	router := api.NewRouter(orderService, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Log.Info().Msg("server exiting")
}
