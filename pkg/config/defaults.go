// Package config provides centralized default values for JourneyTrack
package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err == nil {
			log.Println("Loading configuration overrides from .env file...")
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Project Registry
	HomeDir           string
	MaxProjects       int
	MaxSessionsCached int

	// Ingestion Limits
	MaxBatchSize      int
	MaxPropertyBytes  int
	MaxEventAge       time.Duration
	EventClockSkew    time.Duration
	SessionTTL        time.Duration
	SessionSweepEvery time.Duration

	// Database Pool
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	DBConnMaxIdleMinutes     int
	SlowQueryThreshold       time.Duration

	// Live Stream
	StreamWriteTimeout time.Duration
	StreamSendBuffer   int
	MaxStreamClients   int
	StreamPingInterval time.Duration

	// Dashboard Auth
	AdminTokenLifetime time.Duration

	// Digest Emails
	DigestEnabled  bool
	DigestInterval time.Duration
	DigestLookback time.Duration
	EmailFrom      string
	EmailFromName  string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Project Registry
	HomeDir = getEnvString("JOURNEYTRACK_HOME", "./journeytrack")
	MaxProjects = getEnvInt("MAX_PROJECTS", 25)
	MaxSessionsCached = getEnvInt("MAX_SESSIONS_CACHED", 5000)

	// Ingestion Limits
	MaxBatchSize = getEnvInt("MAX_BATCH_SIZE", 500)
	MaxPropertyBytes = getEnvInt("MAX_PROPERTY_BYTES", 8192)
	MaxEventAge = getEnvDuration("MAX_EVENT_AGE", 7*24*time.Hour)
	EventClockSkew = getEnvDuration("EVENT_CLOCK_SKEW", 5*time.Minute)
	SessionTTL = getEnvDuration("SESSION_TTL", 30*time.Minute)
	SessionSweepEvery = getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute)

	// Database Pool
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	DBConnMaxIdleMinutes = getEnvInt("DB_CONN_MAX_IDLE_MINUTES", 3)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 100*time.Millisecond)

	// Live Stream
	StreamWriteTimeout = getEnvDuration("STREAM_WRITE_TIMEOUT", 10*time.Second)
	StreamSendBuffer = getEnvInt("STREAM_SEND_BUFFER", 64)
	MaxStreamClients = getEnvInt("MAX_STREAM_CLIENTS", 100)
	StreamPingInterval = getEnvDuration("STREAM_PING_INTERVAL", 30*time.Second)

	// Dashboard Auth
	AdminTokenLifetime = getEnvDuration("ADMIN_TOKEN_LIFETIME", 24*time.Hour)

	// Digest Emails
	DigestEnabled = getEnvBool("DIGEST_ENABLED", false)
	DigestInterval = getEnvDuration("DIGEST_INTERVAL", 24*time.Hour)
	DigestLookback = getEnvDuration("DIGEST_LOOKBACK", 24*time.Hour)
	EmailFrom = getEnvString("DIGEST_EMAIL_FROM", "noreply@journeytrack.io")
	EmailFromName = getEnvString("DIGEST_EMAIL_FROM_NAME", "JourneyTrack")
}
