package main

// @title           Faderbank Service API
// @version         1.0
// @description     Realtime collaborative fader bank control service
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"faderbank/internal/api/routes"
	"faderbank/internal/config"
	"faderbank/internal/database"
	"faderbank/internal/journal"
	"faderbank/internal/services"
	"faderbank/internal/websocket"
)

func main() {
	// Local development reads a .env file; in deployment the variables
	// are already in the environment
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting faderbank server")

	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	db, err := database.NewPostgresConnection(cfg.Database.URI)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	redisService := services.NewRedisService(redisClient)

	jrnl := journal.New(cfg.Journal.Brokers, cfg.Journal.Topic)
	defer jrnl.Close()

	hub := websocket.NewHub(redisService, jrnl)

	router := routes.NewRouter(cfg, db, redisClient, redisService, hub)
	router.SetupRoutes()

	// The router attached the responsibility arbiter; safe to run now
	go hub.Run()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Stop()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
