package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendSQL    = "sql"
	BackendMemory = "memory"
)

type Config struct {
	DatabaseURL    string
	Port           string
	AllowedOrigins string
	LogLevel       string
	AutoMigrate    bool
	StoreBackend   string
}

// Load reads .env when present, then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DatabaseURL:    getEnv("DATABASE_URL", "habits.db"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AutoMigrate:    getBool("AUTO_MIGRATE", true),
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", BackendSQL)),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}
