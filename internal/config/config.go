package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	// Capacity defaults applied when staff bulk-generate agenda slots.
	// These replace the single global defaults record of the legacy system
	// and are always passed explicitly into the generation call.
	DefaultMorningCapacity   int
	DefaultAfternoonCapacity int

	// Depot is the station the daily route starts from.
	DepotLatitude  float64
	DepotLongitude float64

	// Sweeper cadence. Zero means run once and exit (cron mode).
	SweepInterval time.Duration

	// StaffAuthSecret signs the HMAC JWTs protecting /admin routes.
	StaffAuthSecret    string
	CORSAllowedOrigins []string

	// Per-IP throttle on the public reservation endpoint.
	PublicRateLimit float64
	PublicRateBurst int

	// Email delivery for appointment notifications.
	EmailProvider     string // "sendgrid", "ses" or "none"
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	SESFromEmail        string
	SESFromName         string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		DefaultMorningCapacity:   getEnvAsInt("DEFAULT_MORNING_CAPACITY", 6),
		DefaultAfternoonCapacity: getEnvAsInt("DEFAULT_AFTERNOON_CAPACITY", 4),

		DepotLatitude:  getEnvAsFloat("DEPOT_LATITUDE", 0.8234943),
		DepotLongitude: getEnvAsFloat("DEPOT_LONGITUDE", -77.7071697),

		SweepInterval: getEnvAsDuration("SWEEP_INTERVAL", 0),

		StaffAuthSecret:    getEnv("STAFF_AUTH_SECRET", ""),
		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),

		PublicRateLimit: getEnvAsFloat("PUBLIC_RATE_LIMIT", 5),
		PublicRateBurst: getEnvAsInt("PUBLIC_RATE_BURST", 10),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "none"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "sistema@cbt.gob.ec"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Cuerpo de Bomberos Tulcan"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		SESFromEmail:        getEnv("SES_FROM_EMAIL", "sistema@cbt.gob.ec"),
		SESFromName:         getEnv("SES_FROM_NAME", "Cuerpo de Bomberos Tulcan"),
	}
}

// splitAndTrim parses a comma-separated list, dropping empty entries
func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float64
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a time.Duration
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
