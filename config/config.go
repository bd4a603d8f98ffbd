// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	ListenAddr      string
	RedisAddr       string
	RedisDB         int
	MongoURI        string
	MongoDatabase   string
	JWTSecret       string
	AllowedOrigins  []string
	FallbackLat     float64
	FallbackLng     float64
	DefaultRadiusKm float64
}

// Load reads the configuration, falling back to development defaults.
// The fallback coordinate defaults to the Yumbo town center, the fixed
// reference point substituted whenever a client location is unavailable.
func Load() Config {
	return Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGODB_DATABASE", "goodimpact"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		FallbackLat:     getEnvFloat("FALLBACK_LAT", 3.5836),
		FallbackLng:     getEnvFloat("FALLBACK_LNG", -76.4951),
		DefaultRadiusKm: getEnvFloat("DEFAULT_RADIUS_KM", 50),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return fallback
}
