package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the recommender service
type Config struct {
	Catalog CatalogConfig
	Engine  EngineConfig
	Server  ServerConfig
	Fetch   FetchConfig
	Cache   CacheConfig
	Log     LogConfig
}

// CatalogConfig describes where the restaurant table comes from
type CatalogConfig struct {
	Source      string
	Table       string
	NameColumn  string
	TagsColumn  string
	OrderColumn string
}

// EngineConfig holds similarity engine tuning
type EngineConfig struct {
	TopK           int
	ExtraStopWords []string
	StripMarkup    bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// FetchConfig holds remote catalog download configuration
type FetchConfig struct {
	Timeout       time.Duration
	UserAgent     string
	RespectRobots bool
	MaxBodySize   int64
}

// CacheConfig holds response cache configuration
type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

type LogConfig struct {
	Level string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Source:      GetStringEnv("CATALOG_SOURCE", "restaurants_cleaned.csv"),
			Table:       GetStringEnv("CATALOG_TABLE", "restaurants"),
			NameColumn:  GetStringEnv("CATALOG_NAME_COLUMN", "Name"),
			TagsColumn:  GetStringEnv("CATALOG_TAGS_COLUMN", "tags"),
			OrderColumn: GetStringEnv("CATALOG_ORDER_COLUMN", ""),
		},
		Engine: EngineConfig{
			TopK:           GetIntEnv("ENGINE_TOP_K", 10),
			ExtraStopWords: GetListEnv("ENGINE_EXTRA_STOP_WORDS", nil),
			StripMarkup:    GetBoolEnv("ENGINE_STRIP_MARKUP", false),
		},
		Server: ServerConfig{
			Addr:            GetStringEnv("SERVER_ADDR", ":8080"),
			ShutdownTimeout: GetDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Fetch: FetchConfig{
			Timeout:       GetDurationEnv("FETCH_TIMEOUT", 30*time.Second),
			UserAgent:     GetStringEnv("FETCH_USER_AGENT", "Recommender-Catalog/1.0"),
			RespectRobots: GetBoolEnv("FETCH_RESPECT_ROBOTS", true),
			MaxBodySize:   int64(GetIntEnv("FETCH_MAX_BODY_SIZE", 64<<20)),
		},
		Cache: CacheConfig{
			Enabled:       GetBoolEnv("CACHE_ENABLED", false),
			RedisURL:      GetStringEnv("REDIS_URL", "localhost:6379"),
			RedisPassword: GetStringEnv("REDIS_PASSWORD", ""),
			RedisDB:       GetIntEnv("REDIS_DB", 0),
			TTL:           GetDurationEnv("CACHE_TTL", 1*time.Hour),
		},
		Log: LogConfig{
			Level: GetStringEnv("LOG_LEVEL", "info"),
		},
	}
}

func GetStringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetListEnv splits a comma separated value, dropping blank entries
func GetListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
