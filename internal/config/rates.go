package config

import (
	"os"
	"time"
)

type RatesConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	CacheKeyPrefix string
	DefaultBase    string
}

func LoadRatesConfig() RatesConfig {
	return RatesConfig{
		BaseURL:        getEnv("RATES_BASE_URL", "https://open.er-api.com/v6/latest"),
		RequestTimeout: getEnvAsDuration("RATES_REQUEST_TIMEOUT", 10*time.Second),
		CacheTTL:       getEnvAsDuration("RATES_CACHE_TTL", 1*time.Hour),
		CacheKeyPrefix: getEnv("RATES_CACHE_PREFIX", "rate"),
		DefaultBase:    getEnv("RATES_DEFAULT_BASE", "BRL"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
