// Package config loads application configuration from environment
// variables. Required variables are enforced by must() and missing
// values abort startup with a fatal log message.
package config

import (
	"log"
	"os"
	"time"
)

// Config holds all runtime configuration values. Strings for
// identifiers and secrets, durations for the hold TTL and the sweep
// interval that govern the seat inventory core.
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	JWTSecret     string        // secret used to verify access tokens
	AMQPURL       string        // RabbitMQ URL for the notification port
	HoldTTL       time.Duration // lifetime of a seat hold before expiry
	SweepInterval time.Duration // how often the expiry sweep runs
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Env:           getenv("APP_ENV", "dev"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		AMQPURL:       getenv("AMQP_URL", os.Getenv("RABBITMQ_URL")),
		HoldTTL:       envDur("HOLD_TTL", 10*time.Minute),
		SweepInterval: envDur("SWEEP_INTERVAL", 15*time.Second),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return def
}
