package syncer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"finance-sync-go/internal/connector"
	"finance-sync-go/internal/models"
	"finance-sync-go/internal/store"
	"finance-sync-go/internal/vault"
)

// Connections manages the connection lifecycle around the sync engine:
// creation from freshly exchanged OAuth credentials, and teardown.
type Connections struct {
	store    store.Store
	vault    *vault.Vault
	registry *connector.Registry
}

func NewConnections(st store.Store, v *vault.Vault, registry *connector.Registry) *Connections {
	return &Connections{store: st, vault: v, registry: registry}
}

// Create encrypts the credentials and records an active connection. The
// provider must have a registered connector.
func (c *Connections) Create(ctx context.Context, userId, provider string, credentials models.Credentials) (*models.Connection, error) {
	if !c.registry.Supported(provider) {
		return nil, fmt.Errorf("%w: %s", connector.ErrUnsupportedProvider, provider)
	}

	encrypted, err := c.vault.EncryptCredentials(credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	conn := models.Connection{
		Id:                   uuid.New().String(),
		UserId:               userId,
		Provider:             provider,
		EncryptedCredentials: encrypted,
		Status:               models.ConnectionActive,
	}
	if !credentials.ExpiresAt.IsZero() {
		expiresAt := credentials.ExpiresAt.UTC()
		conn.ExpiresAt = &expiresAt
	}

	if err := c.store.CreateConnection(ctx, conn); err != nil {
		return nil, err
	}

	zap.L().Info("Provider connection created",
		zap.String("connection_id", conn.Id),
		zap.String("provider", provider),
		zap.String("user_id", userId))

	return &conn, nil
}

// Delete marks the connection disconnected and destroys its credential blob.
func (c *Connections) Delete(ctx context.Context, userId, connectionId string) error {
	if err := c.store.DisconnectConnection(ctx, userId, connectionId); err != nil {
		return err
	}

	zap.L().Info("Connection disconnected",
		zap.String("connection_id", connectionId),
		zap.String("user_id", userId))
	return nil
}
