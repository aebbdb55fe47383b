package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"offsetmarket-buyer-go/internal/models"
)

func Load() (*models.Config, error) {
	httpTimeout, err := getEnvDuration("HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pollingInterval, err := getEnvDuration("WATCHER_POLLING_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, err
	}

	tokenTTL, err := getEnvDuration("MOCK_TOKEN_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		API: models.APIConfig{
			BaseURL: getEnvString("API_BASE_URL", "http://localhost:8000"),
			Timeout: httpTimeout,
		},
		Session: models.SessionConfig{
			Path: getEnvString("SESSION_PATH", "session.json"),
		},
		Watcher: models.WatcherConfig{
			PollingInterval: pollingInterval,
			TodayOnly:       getEnvBool("WATCHER_TODAY_ONLY", true),
		},
		MockServer: models.MockServerConfig{
			ListenAddr: getEnvString("MOCK_LISTEN_ADDR", ":8000"),
			JWTSecret:  getEnvString("MOCK_JWT_SECRET", "dev-secret-not-for-production"),
			TokenTTL:   tokenTTL,
			ZonesFile:  getEnvString("ZONES_FILE", "zones.yaml"),
			StorageDir: getEnvString("MOCK_STORAGE_DIR", "storage"),
			Database: models.DatabaseConfig{
				Path:            getEnvString("DATABASE_PATH", "marketplace.db"),
				MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
				ConnMaxLifetime: connMaxLifetime,
				ConnMaxIdleTime: connMaxIdleTime,
				PingTimeout:     pingTimeout,
			},
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
