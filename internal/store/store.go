package store

import (
	"context"
	"errors"
	"time"

	"finance-sync-go/internal/models"
)

// Sentinel errors shared by all backend implementations.
var (
	ErrNotFound         = errors.New("record not found")
	ErrAlreadyProcessed = errors.New("import already processed")
)

// Store defines the persistence contract for the sync and import engine.
// Upserts must be idempotent: re-running with identical input produces no new
// rows, only no-op updates, which is what makes retries after partial
// failures safe.
type Store interface {
	// --- Connections ---
	CreateConnection(ctx context.Context, conn models.Connection) error
	GetConnection(ctx context.Context, userId, connectionId string) (*models.Connection, error)
	ListActiveConnections(ctx context.Context) ([]models.Connection, error)
	UpdateConnectionStatus(ctx context.Context, connectionId, status, errorMessage string) error
	MarkConnectionSynced(ctx context.Context, connectionId string, syncedAt time.Time) error
	DisconnectConnection(ctx context.Context, userId, connectionId string) error

	// --- Sync logs ---
	CreateSyncLog(ctx context.Context, log models.SyncLog) error
	FinalizeSyncLog(ctx context.Context, syncLogId, status string, recordsSynced int, errorMessage string, completedAt time.Time) error

	// --- Accounts & transactions ---
	UpsertAccount(ctx context.Context, account models.Account) error
	UpsertTransaction(ctx context.Context, tx models.Transaction) error
	GetAccount(ctx context.Context, userId, accountId string) (*models.Account, error)
	GetAccountTransactions(ctx context.Context, userId, accountId string, limit, offset int) ([]models.Transaction, error)

	// --- CSV imports ---
	CreateCsvImport(ctx context.Context, imp models.CsvImport) error
	GetCsvImport(ctx context.Context, userId, importId string) (*models.CsvImport, error)
	UpdateCsvImportStatus(ctx context.Context, importId, status string) error
	FinalizeCsvImport(ctx context.Context, importId, status string, totalRows, importedRows, errorRows int) error

	// --- Lifecycle ---
	Close()
}
