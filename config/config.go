package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process configuration. It is loaded once at startup and
// passed explicitly to everything that needs it.
type Config struct {
	Port       string
	DBURL      string
	JWTSecret  string
	APISecret  string
	CORSOrigin string
	LogLevel   string
	GinMode    string

	StripeTestKey       string
	StripeLiveKey       string
	StripeWebhookSecret string

	RedisURL string

	SweepConcurrency          int
	ThresholdCents            int64
	ThresholdWithPaymentCents int64
}

func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	return Config{
		Port:       getEnv("PORT", "8080"),
		DBURL:      mustEnv("DB_URL"),
		JWTSecret:  mustEnv("JWT_SECRET"),
		APISecret:  mustEnv("BILLING_API_SECRET"),
		CORSOrigin: getEnv("CORS_ORIGIN", ""),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		GinMode:    getEnv("GIN_MODE", "debug"),

		StripeTestKey:       mustEnv("STRIPE_TEST_SECRET_KEY"),
		StripeLiveKey:       mustEnv("STRIPE_LIVE_SECRET_KEY"),
		StripeWebhookSecret: mustEnv("STRIPE_WEBHOOK_SECRET"),

		RedisURL: strings.TrimSpace(getEnv("REDIS_URL", "")),

		SweepConcurrency:          getEnvInt("SWEEP_CONCURRENCY", 8),
		ThresholdCents:            int64(getEnvInt("BILLING_THRESHOLD_CENTS", 50)),
		ThresholdWithPaymentCents: int64(getEnvInt("BILLING_THRESHOLD_WITH_PAYMENT_CENTS", 5000)),
	}
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}
