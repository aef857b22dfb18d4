package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"finance-sync-go/internal/models"
)

func Load() (*models.Config, error) {
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

	initialDelay, err := getEnvDuration("SYNC_INITIAL_DELAY", time.Second)
	if err != nil {
		return nil, err
	}

	encryptionKey := os.Getenv("ENCRYPTION_KEY")
	if encryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY environment variable is required")
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "finance.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Sync: models.SyncConfig{
			MaxRetries:        getEnvInt("SYNC_MAX_RETRIES", 3),
			InitialDelay:      initialDelay,
			BackoffMultiplier: getEnvInt("SYNC_BACKOFF_MULTIPLIER", 2),
			FormatsFile:       getEnvString("CSV_FORMATS_FILE", ""),
		},
		Vault: models.VaultConfig{
			EncryptionKey: encryptionKey,
		},
		TrueLayer: models.TrueLayerConfig{
			ClientID:     getEnvString("TRUELAYER_CLIENT_ID", ""),
			ClientSecret: getEnvString("TRUELAYER_CLIENT_SECRET", ""),
			RedirectURI:  getEnvString("TRUELAYER_REDIRECT_URI", ""),
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
