package config

import (
	"os"
	"time"
)

type Config struct {
	APIBaseURL  string
	WSURL       string
	Token       string
	HTTPTimeout time.Duration
}

func Load() *Config {
	return &Config{
		APIBaseURL:  getEnv("KUDOS_API_URL", "http://localhost:3000/api"),
		WSURL:       getEnv("KUDOS_WS_URL", "ws://localhost:3000/ws"),
		Token:       getEnv("KUDOS_TOKEN", ""),
		HTTPTimeout: getDurationEnv("KUDOS_HTTP_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}

	return d
}
