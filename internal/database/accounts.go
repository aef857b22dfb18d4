package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finance-sync-go/internal/models"
	"finance-sync-go/internal/store"
)

// UpsertAccount inserts or updates an account keyed by its id (the external
// provider account id for synced accounts). Idempotent.
func (s *Service) UpsertAccount(ctx context.Context, account models.Account) error {
	var lastSyncedAt any
	if account.LastSyncedAt != nil {
		lastSyncedAt = account.LastSyncedAt.UTC()
	}

	var apiConnectionId any
	if account.ApiConnectionId != "" {
		apiConnectionId = account.ApiConnectionId
	}

	_, err := s.db.ExecContext(ctx, queryUpsertAccount,
		account.Id, account.UserId, account.Name, account.Type, account.Institution,
		account.AccountNumberLast4, account.Balance.String(), account.Currency,
		account.IsActive, apiConnectionId, lastSyncedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}

func (s *Service) GetAccount(ctx context.Context, userId, accountId string) (*models.Account, error) {
	var account models.Account
	var balanceStr string
	var apiConnectionId sql.NullString
	var lastSyncedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, queryGetAccount, accountId, userId).Scan(
		&account.Id, &account.UserId, &account.Name, &account.Type, &account.Institution,
		&account.AccountNumberLast4, &balanceStr, &account.Currency,
		&account.IsActive, &apiConnectionId, &lastSyncedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: account %s", store.ErrNotFound, accountId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance %q: %w", balanceStr, err)
	}
	if apiConnectionId.Valid {
		account.ApiConnectionId = apiConnectionId.String
	}
	if lastSyncedAt.Valid {
		account.LastSyncedAt = &lastSyncedAt.Time
	}
	return &account, nil
}

// UpsertTransaction inserts or updates a transaction keyed by the composite
// (external_id, account_id, transaction_date, amount) identity so repeated
// syncs and re-imports never create duplicate rows.
func (s *Service) UpsertTransaction(ctx context.Context, tx models.Transaction) error {
	_, err := s.db.ExecContext(ctx, queryUpsertTransaction,
		tx.Id, tx.UserId, tx.AccountId, tx.Amount.String(), tx.Type,
		tx.Description, tx.Merchant, tx.TransactionDate.UTC().Format(time.RFC3339), tx.ExternalId)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return nil
}

func (s *Service) GetAccountTransactions(ctx context.Context, userId, accountId string, limit, offset int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryGetAccountTransactions, userId, accountId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}()

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var amountStr, dateStr string

		err := rows.Scan(&tx.Id, &tx.UserId, &tx.AccountId, &amountStr, &tx.Type,
			&tx.Description, &tx.Merchant, &dateStr, &tx.ExternalId)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		tx.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
		}
		tx.TransactionDate, err = time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction date %q: %w", dateStr, err)
		}

		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}
