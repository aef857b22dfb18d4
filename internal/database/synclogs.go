package database

import (
	"context"
	"fmt"
	"time"

	"finance-sync-go/internal/models"
	"finance-sync-go/internal/store"
)

func (s *Service) CreateSyncLog(ctx context.Context, log models.SyncLog) error {
	_, err := s.db.ExecContext(ctx, queryInsertSyncLog,
		log.Id, log.UserId, log.ConnectionId, log.SyncType, log.Status, log.RecordsSynced, log.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert sync log: %w", err)
	}
	return nil
}

// FinalizeSyncLog moves an open sync log to a terminal status. The guard on
// completed_at makes finalization happen at most once per log row.
func (s *Service) FinalizeSyncLog(ctx context.Context, syncLogId, status string, recordsSynced int, errorMessage string, completedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, queryFinalizeSyncLog,
		status, recordsSynced, errorMessage, completedAt.UTC(), syncLogId)
	if err != nil {
		return fmt.Errorf("failed to finalize sync log: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: open sync log %s", store.ErrNotFound, syncLogId)
	}
	return nil
}
