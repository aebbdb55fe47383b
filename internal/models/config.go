package models

import "time"

// Config represents the application configuration
type Config struct {
	API        APIConfig
	Session    SessionConfig
	Watcher    WatcherConfig
	MockServer MockServerConfig
}

// APIConfig holds settings for the marketplace API client
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig holds the persistent auth session settings
type SessionConfig struct {
	Path string
}

// WatcherConfig holds transaction watcher settings
type WatcherConfig struct {
	PollingInterval time.Duration
	TodayOnly       bool
}

// MockServerConfig holds settings for the bundled mock marketplace server
type MockServerConfig struct {
	ListenAddr string
	JWTSecret  string
	TokenTTL   time.Duration
	ZonesFile  string
	StorageDir string
	Database   DatabaseConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}
