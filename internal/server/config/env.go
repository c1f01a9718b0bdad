package config

import (
	"os"
	"time"
)

// parseEnv overlays Config fields from environment variables.
//
// Recognized variables:
//
//	ADDRESS         full bind address, e.g. ":8080"
//	PORT            port only; expands to ":<port>" (hosting platforms set this)
//	DATABASE_URL    PostgreSQL DSN
//	JWT_SECRET      HMAC signing secret
//	TOKEN_VALIDITY  token lifetime as a Go duration, e.g. "24h"
//	CORS_ORIGIN     single allowed cross-site origin
func parseEnv(config *Config) {
	config.EndpointAddr = getEnvString("ADDRESS", config.EndpointAddr)
	if port := os.Getenv("PORT"); port != "" {
		config.EndpointAddr = ":" + port
	}
	config.DatabaseDSN = getEnvString("DATABASE_URL", config.DatabaseDSN)
	config.SecretKey = getEnvString("JWT_SECRET", config.SecretKey)
	config.TokenValidityDuration = getEnvDuration("TOKEN_VALIDITY", config.TokenValidityDuration)
	config.CORSOrigin = getEnvString("CORS_ORIGIN", config.CORSOrigin)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
