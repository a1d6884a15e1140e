package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resona-backend/internal/config"
	"resona-backend/internal/database"
	"resona-backend/internal/handlers"
	"resona-backend/internal/router"
	"resona-backend/internal/services"
)

func main() {
	log.Println("🚀 Starting Resona Gateway...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Redis ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ──── Step 3: Initialize Services ────
	audioService := services.NewAudioService(cfg.AudioServiceURL)
	analysisCache := services.NewAnalysisCache(redisClient, cfg.CacheTTL)
	metadataService := services.NewMetadataService()

	// ──── Step 4: Initialize Handlers ────
	analyzeHandler := handlers.NewAnalyzeHandler(audioService, analysisCache, metadataService, cfg.WebSocketURL)
	jobHandler := handlers.NewJobHandler(audioService, analysisCache)

	// ──── Step 5: Start HTTP Server ────
	r, rateLimiter := router.New(analyzeHandler, jobHandler, cfg.RateLimitPerMin, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		rateLimiter.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Resona Gateway ready on http://localhost:%s", cfg.Port)
	log.Printf("  API:     http://localhost:%s/api", cfg.Port)
	log.Printf("  Metrics: http://localhost:%s/metrics", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
