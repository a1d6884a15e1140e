package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Collaborators
	AudioServiceURL string
	WebSocketURL    string

	// Redis
	RedisURL string

	// Result cache
	CacheTTL time.Duration

	// Rate limiting
	RateLimitPerMin int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		Env:             getEnvOrDefault("ENV", "development"),
		AudioServiceURL: getEnvOrDefault("AUDIO_SERVICE_URL", "http://localhost:8000"),
		WebSocketURL:    getEnvOrDefault("WEBSOCKET_URL", "ws://localhost:8001"),
		RedisURL:        getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		CacheTTL:        time.Duration(getEnvAsIntOrDefault("CACHE_TTL_HOURS", 24)) * time.Hour,
		RateLimitPerMin: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 10),
		FrontendURL:     getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
