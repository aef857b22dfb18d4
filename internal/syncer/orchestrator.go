// Package syncer drives one provider connection through an authenticated
// fetch cycle with bounded retries, then reconciles the results into storage.
//
// Each sync invocation is an independent unit of work; callers may sync many
// connections concurrently. Concurrent syncs of the same connection are not
// serialized here and race last-writer-wins on the connection and sync log
// status fields. Deployments should serialize syncs per connection id.
package syncer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"finance-sync-go/internal/connector"
	"finance-sync-go/internal/models"
	"finance-sync-go/internal/store"
	"finance-sync-go/internal/vault"
)

// Orchestrator runs the sync state machine for one connection at a time:
// started, fetching, reconciling, then succeeded, partial or failed.
type Orchestrator struct {
	store    store.Store
	vault    *vault.Vault
	registry *connector.Registry
	cfg      models.SyncConfig

	// sleep is swapped out in tests to observe backoff delays.
	sleep func(time.Duration)
}

func NewOrchestrator(st store.Store, v *vault.Vault, registry *connector.Registry, cfg models.SyncConfig) *Orchestrator {
	return &Orchestrator{
		store:    st,
		vault:    v,
		registry: registry,
		cfg:      cfg,
		sleep:    time.Sleep,
	}
}

// Summary reports the outcome of one sync invocation.
type Summary struct {
	RecordsSynced int
	Status        string
	Errors        []string
}

// SyncConnection syncs one connection. Regardless of path, exactly one sync
// log row transitions from open to a terminal status, and the connection
// status always reflects the outcome of this attempt.
func (o *Orchestrator) SyncConnection(ctx context.Context, userId, connectionId string, startDate, endDate *time.Time) (*Summary, error) {
	conn, err := o.store.GetConnection(ctx, userId, connectionId)
	if err != nil {
		return nil, fmt.Errorf("connection not found: %w", err)
	}

	syncLog := models.SyncLog{
		Id:           uuid.New().String(),
		UserId:       userId,
		ConnectionId: connectionId,
		SyncType:     "transactions",
		Status:       models.SyncStatusSuccess,
		StartedAt:    time.Now().UTC(),
	}
	if err := o.store.CreateSyncLog(ctx, syncLog); err != nil {
		return nil, fmt.Errorf("failed to create sync log: %w", err)
	}

	summary, err := o.runSync(ctx, conn, syncLog.Id, startDate, endDate)
	if err != nil {
		o.finalizeFailure(ctx, conn, syncLog.Id, err)
		return nil, err
	}

	if err := o.store.FinalizeSyncLog(ctx, syncLog.Id, summary.Status, summary.RecordsSynced, strings.Join(summary.Errors, "; "), time.Now().UTC()); err != nil {
		zap.L().Error("Failed to finalize sync log", zap.String("sync_log_id", syncLog.Id), zap.Error(err))
	}
	if err := o.store.MarkConnectionSynced(ctx, connectionId, time.Now().UTC()); err != nil {
		zap.L().Error("Failed to mark connection synced", zap.String("connection_id", connectionId), zap.Error(err))
	}

	zap.L().Info("Sync completed",
		zap.String("connection_id", connectionId),
		zap.String("provider", conn.Provider),
		zap.String("status", summary.Status),
		zap.Int("records_synced", summary.RecordsSynced))

	return summary, nil
}

// SyncAll syncs every active connection, continuing past individual
// failures. Intended for a periodic external caller such as cron.
func (o *Orchestrator) SyncAll(ctx context.Context, startDate, endDate *time.Time) error {
	connections, err := o.store.ListActiveConnections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active connections: %w", err)
	}

	zap.L().Info("Syncing active connections", zap.Int("count", len(connections)))

	for _, conn := range connections {
		if _, err := o.SyncConnection(ctx, conn.UserId, conn.Id, startDate, endDate); err != nil {
			zap.L().Error("Connection sync failed, continuing",
				zap.String("connection_id", conn.Id),
				zap.String("provider", conn.Provider),
				zap.Error(err))
		}
	}

	return nil
}

func (o *Orchestrator) runSync(ctx context.Context, conn *models.Connection, syncLogId string, startDate, endDate *time.Time) (*Summary, error) {
	credentials, err := o.vault.DecryptCredentials(conn.EncryptedCredentials)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	if credentials.Expired(time.Now()) && credentials.RefreshToken == "" {
		return nil, fmt.Errorf("%w: credentials expired", errCredentialsExpired)
	}

	c, err := o.registry.Create(conn.Provider, credentials)
	if err != nil {
		return nil, err
	}

	result, err := o.syncWithRetry(ctx, c, startDate, endDate)
	if err != nil {
		return nil, err
	}

	recordsSynced := o.reconcile(ctx, conn, result)

	status := models.SyncStatusSuccess
	if len(result.Errors) > 0 {
		status = models.SyncStatusPartial
	}

	return &Summary{
		RecordsSynced: recordsSynced,
		Status:        status,
		Errors:        result.Errors,
	}, nil
}

var errCredentialsExpired = fmt.Errorf("credentials expired")

// syncWithRetry wraps the connector's fetch cycle in bounded exponential
// backoff: maxRetries retries after the first attempt, delay doubling each
// time, no jitter. Exhausting all attempts surfaces every attempt's message.
func (o *Orchestrator) syncWithRetry(ctx context.Context, c connector.Connector, startDate, endDate *time.Time) (*models.SyncResult, error) {
	var attemptErrors []string

	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		result, err := connector.Sync(ctx, c, startDate, endDate)
		if err == nil {
			return result, nil
		}

		attemptErrors = append(attemptErrors, fmt.Sprintf("Attempt %d: %v", attempt+1, err))

		if attempt < o.cfg.MaxRetries {
			delay := o.cfg.InitialDelay * time.Duration(pow(o.cfg.BackoffMultiplier, attempt))
			zap.L().Warn("Sync attempt failed, retrying",
				zap.String("provider", c.Provider()),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(err))
			o.sleep(delay)
		}
	}

	return nil, fmt.Errorf("sync failed after %d attempts: %s", o.cfg.MaxRetries+1, strings.Join(attemptErrors, "; "))
}

// reconcile stamps ownership on fetched records and upserts them by their
// external identity. The count of rows upserted without error becomes the
// sync log's records_synced; per-record failures are logged, never thrown.
func (o *Orchestrator) reconcile(ctx context.Context, conn *models.Connection, result *models.SyncResult) int {
	synced := 0

	for _, account := range result.Accounts {
		account.UserId = conn.UserId
		account.ApiConnectionId = conn.Id

		if err := o.store.UpsertAccount(ctx, account); err != nil {
			zap.L().Warn("Failed to upsert account",
				zap.String("account_id", account.Id),
				zap.Error(err))
			continue
		}
		synced++
	}

	for _, tx := range result.Transactions {
		tx.UserId = conn.UserId
		if tx.Id == "" {
			tx.Id = uuid.New().String()
		}

		if err := o.store.UpsertTransaction(ctx, tx); err != nil {
			zap.L().Warn("Failed to upsert transaction",
				zap.String("external_id", tx.ExternalId),
				zap.String("account_id", tx.AccountId),
				zap.Error(err))
			continue
		}
		synced++
	}

	if len(result.Investments) > 0 {
		zap.L().Info("Connector returned investments",
			zap.String("connection_id", conn.Id),
			zap.Int("count", len(result.Investments)))
	}

	return synced
}

// finalizeFailure records a hard sync failure on both the sync log and the
// connection before the error is surfaced to the caller.
func (o *Orchestrator) finalizeFailure(ctx context.Context, conn *models.Connection, syncLogId string, syncErr error) {
	message := syncErr.Error()

	if err := o.store.FinalizeSyncLog(ctx, syncLogId, models.SyncStatusError, 0, message, time.Now().UTC()); err != nil {
		zap.L().Error("Failed to finalize sync log after error", zap.String("sync_log_id", syncLogId), zap.Error(err))
	}

	status := models.ConnectionError
	if strings.Contains(message, errCredentialsExpired.Error()) {
		status = models.ConnectionExpired
	}
	if err := o.store.UpdateConnectionStatus(ctx, conn.Id, status, message); err != nil {
		zap.L().Error("Failed to update connection status after error", zap.String("connection_id", conn.Id), zap.Error(err))
	}

	zap.L().Error("Sync failed",
		zap.String("connection_id", conn.Id),
		zap.String("provider", conn.Provider),
		zap.String("status", status),
		zap.Error(syncErr))
}

func pow(base, exp int) int {
	result := 1
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
