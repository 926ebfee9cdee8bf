// cmd/trip-server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EGDongAn/trip-planner-ai/internal/common/config"
	"github.com/EGDongAn/trip-planner-ai/internal/common/logger"
	"github.com/EGDongAn/trip-planner-ai/internal/server"
	"github.com/EGDongAn/trip-planner-ai/internal/travel"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/engine"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/genai"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/session"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	log.Info("starting trip planner", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"model":       cfg.GenAI.Model,
	})

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unavailable, travel cache disabled", map[string]interface{}{
				"address": cfg.Redis.Address,
			})
			redisClient = nil
		}
		cancel()
	}

	client := genai.NewHTTPClient(cfg.GenAI, log)
	eng := engine.New(client, log)
	store := session.NewStore(cfg.Sessions)
	controller := session.NewController(store, eng, log)
	travelSvc := travel.NewService(cfg.Search, redisClient, log)

	srv := server.New(cfg.Server, eng, controller, store, travelSvc, log)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.WithError(err).Error("server failed", nil)
		os.Exit(1)
	case sig := <-sigCh:
		log.Info("shutting down", map[string]interface{}{"signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed", nil)
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}
	log.Info("shutdown complete", nil)
}
