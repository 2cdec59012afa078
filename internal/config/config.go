// Package config reads this service's environment-variable-only
// configuration: plain os.Getenv with defaults, no config file format,
// matching the source's own configuration story.
package config

import (
	"os"
	"strconv"
)

// Config holds every environment-derived setting this process needs.
type Config struct {
	DatabaseURL          string
	RESTAddr             string
	GRPCAddr             string
	NATSURL              string // empty means "use an embedded server"
	OTelTracesSampleRate float64
	LogFormat            string // "text" or "json"
}

const (
	defaultDatabaseURL = "file:spec_service.db?mode=rwc&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	defaultRESTAddr    = "0.0.0.0:3000"
	defaultGRPCAddr    = "0.0.0.0:50051"
)

// FromEnv reads the process environment, applying spec.md §6's defaults plus
// this repository's ambient-stack additions.
func FromEnv() Config {
	return Config{
		DatabaseURL:          getEnv("DATABASE_URL", defaultDatabaseURL),
		RESTAddr:             getEnv("REST_ADDR", defaultRESTAddr),
		GRPCAddr:             getEnv("GRPC_ADDR", defaultGRPCAddr),
		NATSURL:              os.Getenv("NATS_URL"),
		OTelTracesSampleRate: getEnvFloat("OTEL_TRACES_SAMPLE_RATE", 1.0),
		LogFormat:            os.Getenv("LOG_FORMAT"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
