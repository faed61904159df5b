package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Firestore Config
	FirestoreProjectID   string `env:"FIRESTORE_PROJECT_ID"`
	FirestoreDatabase    string `env:"FIRESTORE_DATABASE" envDefault:"(default)"`
	FirestoreCredentials string `env:"FIRESTORE_CREDENTIALS_FILE"`
	AlertsCollection     string `env:"ALERTS_COLLECTION" envDefault:"alerts"`
	UseMemoryStore       bool   `env:"USE_MEMORY_STORE" envDefault:"false"`

	// Alert Lifecycle Config
	EscalationThreshold time.Duration `env:"ESCALATION_THRESHOLD" envDefault:"120s"`
	HistoryLimit        int           `env:"HISTORY_LIMIT" envDefault:"15"`
	FallbackZone        string        `env:"FALLBACK_ZONE" envDefault:"General Campus"`
	WriteTimeout        time.Duration `env:"WRITE_TIMEOUT" envDefault:"5s"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Auth Config
	AuthAPIKey   string        `env:"AUTH_API_KEY"`
	AuthEndpoint string        `env:"AUTH_ENDPOINT" envDefault:"https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		FirestoreProjectID:   os.Getenv("FIRESTORE_PROJECT_ID"),
		FirestoreDatabase:    getEnv("FIRESTORE_DATABASE", "(default)"),
		FirestoreCredentials: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		AlertsCollection:     getEnv("ALERTS_COLLECTION", "alerts"),
		UseMemoryStore:       getEnvAsBool("USE_MEMORY_STORE", false),
		EscalationThreshold:  getEnvAsDuration("ESCALATION_THRESHOLD", 120*time.Second),
		HistoryLimit:         getEnvAsInt("HISTORY_LIMIT", 15),
		FallbackZone:         getEnv("FALLBACK_ZONE", "General Campus"),
		WriteTimeout:         getEnvAsDuration("WRITE_TIMEOUT", 5*time.Second),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:            os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getEnvAsInt("REDIS_DB", 0),
		AuthAPIKey:           os.Getenv("AUTH_API_KEY"),
		AuthEndpoint:         getEnv("AUTH_ENDPOINT", "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"),
		SessionTTL:           getEnvAsDuration("SESSION_TTL", 12*time.Hour),
		WebhookURL:           os.Getenv("WEBHOOK_URL"),
		WebhookSecret:        os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:       getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:    getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:     getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
	}

	if cfg.FirestoreProjectID == "" && !cfg.UseMemoryStore {
		return nil, fmt.Errorf("FIRESTORE_PROJECT_ID environment variable is required")
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool возвращает значение переменной окружения как bool или значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
