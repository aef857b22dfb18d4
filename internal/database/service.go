package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"finance-sync-go/internal/models"
	"finance-sync-go/internal/store"
)

// Compile-time check: *Service must satisfy store.Store.
var _ store.Store = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

// NewServiceFromDB wraps an existing database handle and initializes the
// schema. Used by tests with an in-memory database.
func NewServiceFromDB(db *sql.DB) (*Service, error) {
	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema() error {
	schema := `
	-- API connections: one row per user/provider linkage
	CREATE TABLE IF NOT EXISTS connections (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		encrypted_credentials TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		last_synced_at TIMESTAMP,
		expires_at TIMESTAMP,
		error_message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_connections_user ON connections(user_id);
	CREATE INDEX IF NOT EXISTS idx_connections_status ON connections(status);

	-- Append-only sync attempt log
	CREATE TABLE IF NOT EXISTS sync_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		connection_id TEXT NOT NULL REFERENCES connections(id),
		sync_type TEXT NOT NULL,
		status TEXT NOT NULL,
		records_synced INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		completed_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_sync_logs_connection ON sync_logs(connection_id);

	-- Canonical accounts; id is the external provider account id for synced
	-- accounts
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT 'checking',
		institution TEXT NOT NULL DEFAULT '',
		account_number_last4 TEXT NOT NULL DEFAULT '',
		balance TEXT NOT NULL DEFAULT '0',
		currency TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		api_connection_id TEXT,
		last_synced_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id);

	-- Canonical transactions; the composite unique index is the
	-- reconciliation conflict key
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		amount TEXT NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		merchant TEXT NOT NULL DEFAULT '',
		transaction_date TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT ''
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_identity
		ON transactions(external_id, account_id, transaction_date, amount);
	CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id, transaction_date);

	-- CSV import lifecycle records
	CREATE TABLE IF NOT EXISTS csv_imports (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		column_mapping TEXT NOT NULL DEFAULT '{}',
		total_rows INTEGER NOT NULL DEFAULT 0,
		imported_rows INTEGER NOT NULL DEFAULT 0,
		error_rows INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_csv_imports_user ON csv_imports(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}
