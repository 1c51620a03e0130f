// Package main is the entry point for the CB2 game server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EvLab-MIT/cb2/internal/config"
	"github.com/EvLab-MIT/cb2/internal/coordinator"
	"github.com/EvLab-MIT/cb2/internal/infra/cache"
	"github.com/EvLab-MIT/cb2/internal/infra/storage"
	"github.com/EvLab-MIT/cb2/internal/network"
	"github.com/EvLab-MIT/cb2/internal/platform/logger"
	"github.com/EvLab-MIT/cb2/internal/platform/metrics"
)

func main() {
	log.Println("[CB2-SERVER] Initializing CB2 game server...")

	appLogger := logger.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		appLogger.Error("Failed to load configuration: " + err.Error())
		os.Exit(1)
	}

	appLogger.Info("Initializing SQLite database '" + cfg.DBPath + "'...")
	db, err := storage.InitSQLite(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	eventRepo := storage.NewSQLiteEventRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var scenarioCache *cache.ScenarioCache
	if cfg.RedisAddr != "" {
		appLogger.Info("Connecting to Redis at " + cfg.RedisAddr + "...")
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			// The cache is an accelerator, not a dependency.
			appLogger.Warn("Redis unavailable, running without scenario cache: " + err.Error())
		} else {
			scenarioCache = cache.NewScenarioCache(redisClient)
		}
	}

	appLogger.Info("Bootstrapping game coordinator...")
	coord := coordinator.New(eventRepo, nil, appLogger)
	defer coord.Shutdown()

	// Sweep finished games periodically.
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.CleanupInterval) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				coord.Cleanup()
			}
		}
	}()

	appLogger.Info("Bootstrapping WebSocket hub...")
	hub := network.NewHub(coord, appLogger)
	go hub.Run(ctx)

	replayHandler := network.NewReplayHandler(eventRepo, scenarioCache, appLogger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.Handle("/metrics", metrics.Handler())
	replayHandler.RegisterRoutes(mux)

	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(coord.StatsView())
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		log.Println("[CB2-SERVER] HTTP API & WS server listening on " + cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[CB2-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[CB2-SERVER] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown error: " + err.Error())
	}
}
