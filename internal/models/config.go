package models

import "time"

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	Sync      SyncConfig
	Vault     VaultConfig
	TrueLayer TrueLayerConfig
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

// SyncConfig holds retry settings for connector syncs
type SyncConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	BackoffMultiplier int
	FormatsFile       string
}

// VaultConfig holds the credential encryption key (64 hex characters, 32 bytes)
type VaultConfig struct {
	EncryptionKey string
}

// TrueLayerConfig holds OAuth client settings for the TrueLayer provider
type TrueLayerConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}
