package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDatabase   string
	MongoMaxPool    uint64
	MongoMinPool    uint64
	RedisAddr       string
	KafkaBrokers    []string
	PushRelayURL    string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Load reads .env if present, then the environment. Missing keys fall back
// to local-development defaults.
func Load(log *zap.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "shop"),
		MongoMaxPool:    getUint("MONGO_MAX_POOL_SIZE", 64),
		MongoMinPool:    getUint("MONGO_MIN_POOL_SIZE", 4),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		PushRelayURL:    getEnv("PUSH_RELAY_URL", "http://localhost:9099/push"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getUint(key string, defaultValue uint64) uint64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}
