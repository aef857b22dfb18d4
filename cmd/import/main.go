package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"finance-sync-go/internal/common"
	"finance-sync-go/internal/config"
	"finance-sync-go/internal/csvimport"
)

// Entry point for importing a bank CSV export into an existing account.
func main() {
	file := flag.String("file", "", "Path to the CSV file to import")
	userId := flag.String("user", "", "User id owning the target account")
	accountId := flag.String("account", "", "Target account id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if *file == "" || *userId == "" || *accountId == "" {
		zap.L().Fatal("-file, -user and -account are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	data, err := os.ReadFile(*file)
	if err != nil {
		zap.L().Fatal("Failed to read CSV file", zap.String("file", *file), zap.Error(err))
	}
	content := string(data)

	headers := headerLine(content)
	imp, format, err := services.Importer.CreateImport(ctx, *userId, filepath.Base(*file), headers)
	if err != nil {
		zap.L().Fatal("Failed to create import", zap.Error(err))
	}

	if valid, errs := csvimport.ValidateMapping(imp.ColumnMapping); !valid {
		zap.L().Fatal("Could not auto-map required columns",
			zap.String("detected_format", format.Name),
			zap.Strings("errors", errs))
	}

	zap.L().Info("Detected CSV format",
		zap.String("format", format.Name),
		zap.String("date_column", imp.ColumnMapping.Date),
		zap.String("amount_column", imp.ColumnMapping.Amount),
		zap.String("description_column", imp.ColumnMapping.Description))

	summary, err := services.Importer.ProcessImport(ctx, *userId, imp.Id, *accountId, content)
	if err != nil {
		zap.L().Fatal("Import failed", zap.String("import_id", imp.Id), zap.Error(err))
	}

	fmt.Printf("Imported %d of %d rows (%d errors)\n", summary.ImportedRows, summary.TotalRows, summary.ErrorRows)
	for _, rowErr := range summary.RowErrors {
		fmt.Printf("  row %d: %s\n", rowErr.Row, rowErr.Error)
	}
}

func headerLine(content string) []string {
	line := content
	if idx := strings.IndexAny(content, "\r\n"); idx >= 0 {
		line = content[:idx]
	}
	headers := strings.Split(line, ",")
	for i := range headers {
		headers[i] = strings.Trim(strings.TrimSpace(headers[i]), `"`)
	}
	return headers
}
