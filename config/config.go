// Package config handles application configuration via environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
)

// Config holds all configurable values for the app plus shared clients.
type Config struct {
	Env    string
	Port   string
	DBName string

	MongoURI    string
	MongoClient *mongo.Client

	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	// Payment gateway
	GatewayBaseURL   string
	GatewayPublicKey string
	GatewaySecretKey string
	WebhookHash      string
	RedirectURL      string

	// Analytics
	AnalyticsEndpoint  string
	AnalyticsQueuePath string
	AnalyticsQueueCap  int

	// Donation limits
	DonationMin float64
	DonationMax float64
}

// Load reads .env (if present) plus environment variables and populates a Config.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:    getEnv("ENV", "development"),
		Port:   getEnv("PORT", "8080"),
		DBName: getEnv("DB_NAME", "giving_portal"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),

		JWTSecret:        mustEnv("JWT_SECRET"),
		JWTRefreshSecret: mustEnv("JWT_REFRESH_SECRET"),
		AccessTokenTTL:   getDuration("ACCESS_TOKEN_TTL", "15m"),
		RefreshTokenTTL:  getDuration("REFRESH_TOKEN_TTL", "168h"),

		GatewayBaseURL:   getEnv("GATEWAY_BASE_URL", "https://api.flutterwave.com/v3"),
		GatewayPublicKey: getEnv("GATEWAY_PUBLIC_KEY", ""),
		GatewaySecretKey: getEnv("GATEWAY_SECRET_KEY", ""),
		WebhookHash:      getEnv("GATEWAY_WEBHOOK_HASH", ""),
		RedirectURL:      getEnv("PAYMENT_REDIRECT_URL", "http://localhost:3000/donate/complete"),

		AnalyticsEndpoint:  getEnv("ANALYTICS_ENDPOINT", "http://localhost:9000/collect"),
		AnalyticsQueuePath: getEnv("ANALYTICS_QUEUE_PATH", "failed_events.json"),
		AnalyticsQueueCap:  getInt("ANALYTICS_QUEUE_CAP", "500"),

		DonationMin: getFloat("DONATION_MIN", "1"),
		DonationMax: getFloat("DONATION_MAX", "50000"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func mustEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Panicf("Missing required env %s", key)
	}
	return val
}

func getInt(key, fallback string) int {
	n, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		log.Panicf("Invalid %s: %v", key, err)
	}
	return n
}

func getFloat(key, fallback string) float64 {
	f, err := strconv.ParseFloat(getEnv(key, fallback), 64)
	if err != nil {
		log.Panicf("Invalid %s: %v", key, err)
	}
	return f
}

func getDuration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		log.Panicf("Invalid %s: %v", key, err)
	}
	return d
}
