package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"finance-sync-go/internal/models"
	"finance-sync-go/internal/store"
)

func (s *Service) CreateConnection(ctx context.Context, conn models.Connection) error {
	var expiresAt any
	if conn.ExpiresAt != nil {
		expiresAt = conn.ExpiresAt.UTC()
	}

	_, err := s.db.ExecContext(ctx, queryInsertConnection,
		conn.Id, conn.UserId, conn.Provider, conn.EncryptedCredentials, conn.Status, expiresAt, conn.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to insert connection: %w", err)
	}

	zap.L().Info("Connection created",
		zap.String("connection_id", conn.Id),
		zap.String("provider", conn.Provider))
	return nil
}

func (s *Service) GetConnection(ctx context.Context, userId, connectionId string) (*models.Connection, error) {
	row := s.db.QueryRowContext(ctx, queryGetConnection, connectionId, userId)

	conn, err := scanConnection(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: connection %s", store.ErrNotFound, connectionId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return conn, nil
}

func (s *Service) ListActiveConnections(ctx context.Context) ([]models.Connection, error) {
	rows, err := s.db.QueryContext(ctx, queryListActiveConnections)
	if err != nil {
		return nil, fmt.Errorf("failed to list active connections: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}()

	var connections []models.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, *conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connection rows: %w", err)
	}

	return connections, nil
}

func (s *Service) UpdateConnectionStatus(ctx context.Context, connectionId, status, errorMessage string) error {
	result, err := s.db.ExecContext(ctx, queryUpdateConnectionStatus, status, errorMessage, connectionId)
	if err != nil {
		return fmt.Errorf("failed to update connection status: %w", err)
	}
	return requireRow(result, connectionId)
}

func (s *Service) MarkConnectionSynced(ctx context.Context, connectionId string, syncedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, queryMarkConnectionSynced, syncedAt.UTC(), connectionId)
	if err != nil {
		return fmt.Errorf("failed to mark connection synced: %w", err)
	}
	return requireRow(result, connectionId)
}

// DisconnectConnection marks a connection disconnected and destroys its
// stored credentials.
func (s *Service) DisconnectConnection(ctx context.Context, userId, connectionId string) error {
	result, err := s.db.ExecContext(ctx, queryDisconnectConnection, connectionId, userId)
	if err != nil {
		return fmt.Errorf("failed to disconnect connection: %w", err)
	}
	return requireRow(result, connectionId)
}

func requireRow(result sql.Result, connectionId string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: connection %s", store.ErrNotFound, connectionId)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConnection(row rowScanner) (*models.Connection, error) {
	var conn models.Connection
	var lastSyncedAt, expiresAt sql.NullTime

	err := row.Scan(&conn.Id, &conn.UserId, &conn.Provider, &conn.EncryptedCredentials,
		&conn.Status, &lastSyncedAt, &expiresAt, &conn.ErrorMessage, &conn.CreatedAt, &conn.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if lastSyncedAt.Valid {
		conn.LastSyncedAt = &lastSyncedAt.Time
	}
	if expiresAt.Valid {
		conn.ExpiresAt = &expiresAt.Time
	}
	return &conn, nil
}
