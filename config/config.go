package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Poll   PollConfig
	Chat   ChatConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// RedisConfig holds Redis connection settings for the optional event
// mirror. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PollConfig holds poll lifecycle defaults.
type PollConfig struct {
	DefaultTimeLimitSec int
}

// ChatConfig holds chat retention settings.
type ChatConfig struct {
	MaxMessages int
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "5000"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Poll: PollConfig{
			DefaultTimeLimitSec: getEnvInt("POLL_DEFAULT_TIME_LIMIT_SEC", 60),
		},
		Chat: ChatConfig{
			MaxMessages: getEnvInt("CHAT_MAX_MESSAGES", 100),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
