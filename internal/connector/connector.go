package connector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"finance-sync-go/internal/models"
)

// ErrNoRefreshToken indicates a refresh attempt on a connection that never
// stored a refresh token.
var ErrNoRefreshToken = errors.New("no refresh token available")

// Connector is the capability interface every provider implements. All
// operations run against a live remote API and are fallible.
type Connector interface {
	// Provider returns the registry identifier, e.g. "truelayer".
	Provider() string

	// IsAuthenticated reports whether a usable access token is present: it
	// is non-empty, not past its recorded expiry, and a lightweight probe
	// call succeeds.
	IsAuthenticated(ctx context.Context) bool

	// RefreshAuth exchanges the refresh token for new tokens. Fails with
	// ErrNoRefreshToken when none is stored.
	RefreshAuth(ctx context.Context) (models.Credentials, error)

	// FetchAccounts lists remote accounts with balances.
	FetchAccounts(ctx context.Context) ([]models.Account, error)

	// FetchTransactions lists transactions for one account, optionally
	// bounded by a date range.
	FetchTransactions(ctx context.Context, accountId string, startDate, endDate *time.Time) ([]models.Transaction, error)
}

// InvestmentFetcher is the optional capability for providers that expose
// investment holdings.
type InvestmentFetcher interface {
	FetchInvestments(ctx context.Context) ([]models.Investment, error)
}

// Sync drives one connector through a full fetch cycle: re-authenticate if
// needed, fetch accounts, then transactions per account, then investments if
// the provider supports them. A single account's transaction-fetch failure is
// recorded as a soft error and does not abort the remaining accounts; only a
// hard failure in authentication or account listing aborts the whole sync.
func Sync(ctx context.Context, c Connector, startDate, endDate *time.Time) (*models.SyncResult, error) {
	if !c.IsAuthenticated(ctx) {
		if _, err := c.RefreshAuth(ctx); err != nil {
			return nil, syncFailed(c, err)
		}
	}

	accounts, err := c.FetchAccounts(ctx)
	if err != nil {
		return nil, syncFailed(c, err)
	}

	result := &models.SyncResult{Accounts: accounts}

	for _, account := range accounts {
		transactions, err := c.FetchTransactions(ctx, account.Id, startDate, endDate)
		if err != nil {
			zap.L().Error("Failed to fetch transactions for account",
				zap.String("provider", c.Provider()),
				zap.String("account_id", account.Id),
				zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("error fetching transactions for account %s: %v", account.Id, err))
			continue
		}
		result.Transactions = append(result.Transactions, transactions...)
	}

	if fetcher, ok := c.(InvestmentFetcher); ok {
		investments, err := fetcher.FetchInvestments(ctx)
		if err != nil {
			zap.L().Error("Failed to fetch investments",
				zap.String("provider", c.Provider()),
				zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("error fetching investments: %v", err))
		} else {
			result.Investments = investments
		}
	}

	return result, nil
}

func syncFailed(c Connector, err error) error {
	return fmt.Errorf("sync failed for %s: %w", c.Provider(), err)
}
