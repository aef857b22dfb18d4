package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Connection status values. A failed sync moves a connection to
// ConnectionError, a detected token expiry to ConnectionExpired, and a user
// delete to ConnectionDisconnected.
const (
	ConnectionActive       = "active"
	ConnectionExpired      = "expired"
	ConnectionError        = "error"
	ConnectionDisconnected = "disconnected"
)

// Sync log status values
const (
	SyncStatusSuccess = "success"
	SyncStatusPartial = "partial"
	SyncStatusError   = "error"
)

// CSV import status values
const (
	ImportPending    = "pending"
	ImportProcessing = "processing"
	ImportCompleted  = "completed"
	ImportFailed     = "failed"
)

// Transaction type values. Amounts are stored non-negative; the sign of the
// source amount is carried by the type.
const (
	TypeIncome   = "income"
	TypeExpense  = "expense"
	TypeTransfer = "transfer"
)

// Connection represents one linkage between a user and an external provider
type Connection struct {
	Id                   string     `db:"id"`
	UserId               string     `db:"user_id"`
	Provider             string     `db:"provider"`
	EncryptedCredentials string     `db:"encrypted_credentials"`
	Status               string     `db:"status"`
	LastSyncedAt         *time.Time `db:"last_synced_at"`
	ExpiresAt            *time.Time `db:"expires_at"`
	ErrorMessage         string     `db:"error_message"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
}

// SyncLog is an append-only record of one sync attempt. It is created when the
// sync starts and finalized exactly once when the sync ends.
type SyncLog struct {
	Id            string     `db:"id"`
	UserId        string     `db:"user_id"`
	ConnectionId  string     `db:"connection_id"`
	SyncType      string     `db:"sync_type"`
	Status        string     `db:"status"`
	RecordsSynced int        `db:"records_synced"`
	ErrorMessage  string     `db:"error_message"`
	StartedAt     time.Time  `db:"started_at"`
	CompletedAt   *time.Time `db:"completed_at"`
}

// Account represents a canonical financial account. For connector-synced
// accounts the id is the external provider account id, which is also the
// upsert key.
type Account struct {
	Id                 string          `db:"id"`
	UserId             string          `db:"user_id"`
	Name               string          `db:"name"`
	Type               string          `db:"type"`
	Institution        string          `db:"institution"`
	AccountNumberLast4 string          `db:"account_number_last4"`
	Balance            decimal.Decimal `db:"balance"`
	Currency           string          `db:"currency"`
	IsActive           bool            `db:"is_active"`
	ApiConnectionId    string          `db:"api_connection_id"`
	LastSyncedAt       *time.Time      `db:"last_synced_at"`
}

// Transaction represents a canonical transaction. Amount is always
// non-negative; Type distinguishes income from expense.
type Transaction struct {
	Id              string          `db:"id"`
	UserId          string          `db:"user_id"`
	AccountId       string          `db:"account_id"`
	Amount          decimal.Decimal `db:"amount"`
	Type            string          `db:"type"`
	Description     string          `db:"description"`
	Merchant        string          `db:"merchant"`
	TransactionDate time.Time       `db:"transaction_date"`
	ExternalId      string          `db:"external_id"`
}

// Investment represents a holding fetched from a provider that supports the
// optional investments capability
type Investment struct {
	Id           string          `db:"id"`
	UserId       string          `db:"user_id"`
	AccountId    string          `db:"account_id"`
	Symbol       string          `db:"symbol"`
	Name         string          `db:"name"`
	Quantity     decimal.Decimal `db:"quantity"`
	CurrentPrice decimal.Decimal `db:"current_price"`
	TotalValue   decimal.Decimal `db:"total_value"`
	Currency     string          `db:"currency"`
	LastUpdated  time.Time       `db:"last_updated"`
}

// CsvImport tracks the lifecycle of one uploaded CSV file
type CsvImport struct {
	Id            string        `db:"id"`
	UserId        string        `db:"user_id"`
	Filename      string        `db:"filename"`
	Status        string        `db:"status"`
	ColumnMapping ColumnMapping `db:"column_mapping"`
	TotalRows     int           `db:"total_rows"`
	ImportedRows  int           `db:"imported_rows"`
	ErrorRows     int           `db:"error_rows"`
	CreatedAt     time.Time     `db:"created_at"`
}

// ColumnMapping assigns raw CSV header names to canonical transaction fields.
// An empty string means the field is unmapped. A mapping is valid when Date,
// Amount and Description are all set.
type ColumnMapping struct {
	Date        string `json:"date" yaml:"date"`
	Amount      string `json:"amount" yaml:"amount"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Merchant    string `json:"merchant,omitempty" yaml:"merchant,omitempty"`
	Balance     string `json:"balance,omitempty" yaml:"balance,omitempty"`
}
