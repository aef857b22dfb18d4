package csvimport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"finance-sync-go/internal/models"
	"finance-sync-go/internal/store"
)

// Importer drives the CsvImport lifecycle: pending on upload, processing once
// submitted, then a terminal completed or failed.
type Importer struct {
	store     store.Store
	catalogue *Catalogue
}

func NewImporter(st store.Store, catalogue *Catalogue) *Importer {
	return &Importer{store: st, catalogue: catalogue}
}

// ImportSummary reports the outcome of one processed import.
type ImportSummary struct {
	TotalRows    int
	ImportedRows int
	ErrorRows    int
	RowErrors    []RowError
}

// CreateImport records a pending import with an auto-detected column mapping.
func (im *Importer) CreateImport(ctx context.Context, userId, filename string, headers []string) (*models.CsvImport, Format, error) {
	mapping, format := im.catalogue.AutoMap(headers)

	imp := models.CsvImport{
		Id:            uuid.New().String(),
		UserId:        userId,
		Filename:      filename,
		Status:        models.ImportPending,
		ColumnMapping: mapping,
		CreatedAt:     time.Now().UTC(),
	}

	if err := im.store.CreateCsvImport(ctx, imp); err != nil {
		return nil, Format{}, fmt.Errorf("failed to create import record: %w", err)
	}

	zap.L().Info("CSV import created",
		zap.String("import_id", imp.Id),
		zap.String("filename", filename),
		zap.String("detected_format", format.Name))

	return &imp, format, nil
}

// ProcessImport parses the file content, deduplicates the parsed rows and
// reconciles them into the target account. The import must be pending. No
// partial results are visible to callers until the full parse completes.
func (im *Importer) ProcessImport(ctx context.Context, userId, importId, accountId, content string) (*ImportSummary, error) {
	imp, err := im.store.GetCsvImport(ctx, userId, importId)
	if err != nil {
		return nil, fmt.Errorf("import record not found: %w", err)
	}
	if imp.Status != models.ImportPending {
		return nil, fmt.Errorf("%w: import %s is %s", store.ErrAlreadyProcessed, importId, imp.Status)
	}

	if _, err := im.store.GetAccount(ctx, userId, accountId); err != nil {
		return nil, fmt.Errorf("target account not found: %w", err)
	}

	valid, mappingErrors := ValidateMapping(imp.ColumnMapping)
	if !valid {
		message := strings.Join(mappingErrors, "; ")
		if err := im.store.FinalizeCsvImport(ctx, importId, models.ImportFailed, 0, 0, 0); err != nil {
			zap.L().Warn("Failed to finalize invalid import", zap.String("import_id", importId), zap.Error(err))
		}
		return nil, fmt.Errorf("invalid column mapping: %s", message)
	}

	if err := im.store.UpdateCsvImportStatus(ctx, importId, models.ImportProcessing); err != nil {
		return nil, fmt.Errorf("failed to mark import processing: %w", err)
	}

	// Re-detect the format so the parser gets the layout's preferred date
	// format; the stored record only carries the column mapping.
	format := im.catalogue.Detect(headerLine(content))

	result, err := Parse(content, imp.ColumnMapping, &format, 0)
	if err != nil {
		if finErr := im.store.FinalizeCsvImport(ctx, importId, models.ImportFailed, 0, 0, 0); finErr != nil {
			zap.L().Warn("Failed to finalize failed import", zap.String("import_id", importId), zap.Error(finErr))
		}
		return nil, err
	}

	transactions := Deduplicate(ToTransactions(result.Rows, userId, accountId))

	imported := 0
	failed := 0
	for _, tx := range transactions {
		tx.Id = uuid.New().String()
		if err := im.store.UpsertTransaction(ctx, tx); err != nil {
			failed++
			zap.L().Warn("Failed to upsert imported transaction",
				zap.String("import_id", importId),
				zap.String("external_id", tx.ExternalId),
				zap.Error(err))
			continue
		}
		imported++
	}

	summary := &ImportSummary{
		TotalRows:    result.TotalRows,
		ImportedRows: imported,
		ErrorRows:    len(result.Errors) + failed,
		RowErrors:    result.Errors,
	}

	status := models.ImportCompleted
	if imported == 0 && summary.ErrorRows > 0 {
		status = models.ImportFailed
	}

	if err := im.store.FinalizeCsvImport(ctx, importId, status, summary.TotalRows, summary.ImportedRows, summary.ErrorRows); err != nil {
		return nil, fmt.Errorf("failed to finalize import: %w", err)
	}

	zap.L().Info("CSV import processed",
		zap.String("import_id", importId),
		zap.String("status", status),
		zap.Int("total_rows", summary.TotalRows),
		zap.Int("imported_rows", summary.ImportedRows),
		zap.Int("error_rows", summary.ErrorRows))

	return summary, nil
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
