package common

import (
	"context"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"finance-sync-go/internal/connector"
	"finance-sync-go/internal/connector/truelayer"
	"finance-sync-go/internal/csvimport"
	"finance-sync-go/internal/database"
	"finance-sync-go/internal/models"
	"finance-sync-go/internal/store"
	"finance-sync-go/internal/syncer"
	"finance-sync-go/internal/vault"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

// Services bundles the wired-up engine components.
type Services struct {
	Store        store.Store
	Vault        *vault.Vault
	Registry     *connector.Registry
	Orchestrator *syncer.Orchestrator
	Connections  *syncer.Connections
	Importer     *csvimport.Importer
	Catalogue    *csvimport.Catalogue
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the storage backend, credential vault, connector
// registry and engine services from configuration. Key problems surface here,
// at startup, not at first use.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	credentialVault, err := vault.New(cfg.Vault.EncryptionKey)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	registry := connector.NewRegistry()
	registry.Register("truelayer", truelayer.NewFactory(cfg.TrueLayer))

	catalogue := csvimport.DefaultCatalogue()
	if cfg.Sync.FormatsFile != "" {
		formats, err := csvimport.LoadFormats(cfg.Sync.FormatsFile)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		catalogue.Extend(formats...)
		zap.L().Info("Loaded custom CSV formats",
			zap.String("file", cfg.Sync.FormatsFile),
			zap.Int("count", len(formats)))
	}

	return &Services{
		Store:        dbService,
		Vault:        credentialVault,
		Registry:     registry,
		Orchestrator: syncer.NewOrchestrator(dbService, credentialVault, registry, cfg.Sync),
		Connections:  syncer.NewConnections(dbService, credentialVault, registry),
		Importer:     csvimport.NewImporter(dbService, catalogue),
		Catalogue:    catalogue,
	}, nil
}

func (cs *Services) Close() {
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
