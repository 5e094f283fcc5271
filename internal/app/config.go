package app

import (
	"os"
	"strconv"
	"time"

	"go-wages/internal/shared/connection"

	"go.uber.org/zap"
)

type Config struct {
	Env         string
	Port        string
	DB          connection.DBConfig
	RedisAddr   string
	KafkaBroker string

	IngestChunkSize int
	TitleTopN       int
	UploadWorkers   int
	UploadQueue     int
	RunMigrations   bool

	OutboxPollInterval time.Duration
	OutboxRetention    time.Duration
	ConsumerGroup      string
}

// LoadConfig reads the process environment. cmd/* loads .env beforehand.
func LoadConfig() Config {
	return Config{
		Env:         getenv("APP_ENV", "development"),
		Port:        getenv("PORT", "3000"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		KafkaBroker: os.Getenv("KAFKA_BROKER"),
		DB: connection.DBConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getenv("DB_PORT", "5432"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		IngestChunkSize:    getenvInt("INGEST_CHUNK_SIZE", 1000),
		TitleTopN:          getenvInt("TITLE_TOP_N", 20),
		UploadWorkers:      getenvInt("UPLOAD_WORKERS", 4),
		UploadQueue:        getenvInt("UPLOAD_QUEUE", 16),
		RunMigrations:      getenvBool("RUN_MIGRATIONS", false),
		OutboxPollInterval: getenvDuration("OUTBOX_POLL_INTERVAL", 3*time.Second),
		OutboxRetention:    getenvDuration("OUTBOX_RETENTION", 7*24*time.Hour),
		ConsumerGroup:      getenv("KAFKA_CONSUMER_GROUP", "go-wages-analysis"),
	}
}

// NewLogger builds the process logger for cfg.Env.
func NewLogger(cfg Config) (*zap.Logger, error) {
	if cfg.Env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getenvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
