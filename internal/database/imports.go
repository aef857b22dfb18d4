package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"finance-sync-go/internal/models"
	"finance-sync-go/internal/store"
)

func (s *Service) CreateCsvImport(ctx context.Context, imp models.CsvImport) error {
	mapping, err := json.Marshal(imp.ColumnMapping)
	if err != nil {
		return fmt.Errorf("failed to marshal column mapping: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryInsertCsvImport,
		imp.Id, imp.UserId, imp.Filename, imp.Status, string(mapping), imp.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert csv import: %w", err)
	}
	return nil
}

func (s *Service) GetCsvImport(ctx context.Context, userId, importId string) (*models.CsvImport, error) {
	var imp models.CsvImport
	var mappingStr string

	err := s.db.QueryRowContext(ctx, queryGetCsvImport, importId, userId).Scan(
		&imp.Id, &imp.UserId, &imp.Filename, &imp.Status, &mappingStr,
		&imp.TotalRows, &imp.ImportedRows, &imp.ErrorRows, &imp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: import %s", store.ErrNotFound, importId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get csv import: %w", err)
	}

	if err := json.Unmarshal([]byte(mappingStr), &imp.ColumnMapping); err != nil {
		return nil, fmt.Errorf("failed to unmarshal column mapping: %w", err)
	}
	return &imp, nil
}

func (s *Service) UpdateCsvImportStatus(ctx context.Context, importId, status string) error {
	result, err := s.db.ExecContext(ctx, queryUpdateCsvImportStatus, status, importId)
	if err != nil {
		return fmt.Errorf("failed to update csv import status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: import %s", store.ErrNotFound, importId)
	}
	return nil
}

func (s *Service) FinalizeCsvImport(ctx context.Context, importId, status string, totalRows, importedRows, errorRows int) error {
	result, err := s.db.ExecContext(ctx, queryFinalizeCsvImport,
		status, totalRows, importedRows, errorRows, importId)
	if err != nil {
		return fmt.Errorf("failed to finalize csv import: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: import %s", store.ErrNotFound, importId)
	}
	return nil
}
