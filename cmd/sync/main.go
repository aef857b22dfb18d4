package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"finance-sync-go/internal/common"
	"finance-sync-go/internal/config"
)

// Entry point for the periodic sync run. Scheduling is external: a cron job
// invokes this binary, either for one connection or for all active ones.
func main() {
	connectionId := flag.String("connection", "", "Sync a single connection id (requires -user)")
	userId := flag.String("user", "", "User id owning the connection")
	all := flag.Bool("all", false, "Sync all active connections")
	start := flag.String("start", "", "Optional start date (2006-01-02)")
	end := flag.String("end", "", "Optional end date (2006-01-02)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startDate, err := parseDateFlag(*start)
	if err != nil {
		zap.L().Fatal("Invalid -start date", zap.Error(err))
	}
	endDate, err := parseDateFlag(*end)
	if err != nil {
		zap.L().Fatal("Invalid -end date", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	switch {
	case *all:
		if err := services.Orchestrator.SyncAll(ctx, startDate, endDate); err != nil {
			zap.L().Fatal("Sync run failed", zap.Error(err))
		}
	case *connectionId != "" && *userId != "":
		summary, err := services.Orchestrator.SyncConnection(ctx, *userId, *connectionId, startDate, endDate)
		if err != nil {
			zap.L().Fatal("Sync failed",
				zap.String("connection_id", *connectionId),
				zap.Error(err))
		}
		zap.L().Info("Sync finished",
			zap.String("status", summary.Status),
			zap.Int("records_synced", summary.RecordsSynced),
			zap.Strings("errors", summary.Errors))
	default:
		zap.L().Fatal("Either -all or both -connection and -user are required")
	}
}

func parseDateFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
