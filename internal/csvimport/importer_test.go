package csvimport

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finance-sync-go/internal/models"
	"finance-sync-go/internal/store"
)

// importStore is an in-memory store.Store covering only what the importer
// touches.
type importStore struct {
	imports  map[string]*models.CsvImport
	accounts map[string]models.Account
	txs      map[string]models.Transaction
	statuses []string
}

func newImportStore() *importStore {
	return &importStore{
		imports:  make(map[string]*models.CsvImport),
		accounts: make(map[string]models.Account),
		txs:      make(map[string]models.Transaction),
	}
}

func (s *importStore) CreateCsvImport(_ context.Context, imp models.CsvImport) error {
	s.imports[imp.Id] = &imp
	return nil
}

func (s *importStore) GetCsvImport(_ context.Context, userId, importId string) (*models.CsvImport, error) {
	imp, ok := s.imports[importId]
	if !ok || imp.UserId != userId {
		return nil, store.ErrNotFound
	}
	copied := *imp
	return &copied, nil
}

func (s *importStore) UpdateCsvImportStatus(_ context.Context, importId, status string) error {
	imp, ok := s.imports[importId]
	if !ok {
		return store.ErrNotFound
	}
	imp.Status = status
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *importStore) FinalizeCsvImport(_ context.Context, importId, status string, totalRows, importedRows, errorRows int) error {
	imp, ok := s.imports[importId]
	if !ok {
		return store.ErrNotFound
	}
	imp.Status = status
	imp.TotalRows = totalRows
	imp.ImportedRows = importedRows
	imp.ErrorRows = errorRows
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *importStore) UpsertAccount(_ context.Context, account models.Account) error {
	s.accounts[account.Id] = account
	return nil
}

func (s *importStore) GetAccount(_ context.Context, userId, accountId string) (*models.Account, error) {
	account, ok := s.accounts[accountId]
	if !ok || account.UserId != userId {
		return nil, store.ErrNotFound
	}
	return &account, nil
}

func (s *importStore) UpsertTransaction(_ context.Context, tx models.Transaction) error {
	s.txs[tx.ExternalId] = tx
	return nil
}

func (s *importStore) CreateConnection(context.Context, models.Connection) error { return nil }
func (s *importStore) GetConnection(context.Context, string, string) (*models.Connection, error) {
	return nil, store.ErrNotFound
}
func (s *importStore) ListActiveConnections(context.Context) ([]models.Connection, error) {
	return nil, nil
}
func (s *importStore) UpdateConnectionStatus(context.Context, string, string, string) error {
	return nil
}
func (s *importStore) MarkConnectionSynced(_ context.Context, _ string, _ time.Time) error {
	return nil
}
func (s *importStore) DisconnectConnection(context.Context, string, string) error { return nil }
func (s *importStore) CreateSyncLog(context.Context, models.SyncLog) error        { return nil }
func (s *importStore) FinalizeSyncLog(context.Context, string, string, int, string, time.Time) error {
	return nil
}
func (s *importStore) GetAccountTransactions(context.Context, string, string, int, int) ([]models.Transaction, error) {
	return nil, nil
}
func (s *importStore) Close() {}

const chaseContent = "Transaction Date,Description,Amount,Balance\n" +
	"03/15/2024,GROCERY STORE,-42.50,1200.00\n" +
	"03/16/2024,PAYCHECK,2500.00,3700.00\n" +
	"03/16/2024,GROCERY STORE,-42.50,3657.50\n" +
	"bad-date,COFFEE,-4.00,3653.50\n"

func newImportFixture(t *testing.T) (*Importer, *importStore) {
	t.Helper()
	st := newImportStore()
	st.accounts["acc-1"] = models.Account{Id: "acc-1", UserId: "user-1", Name: "Checking"}
	return NewImporter(st, DefaultCatalogue()), st
}

func TestImporter_Lifecycle(t *testing.T) {
	im, st := newImportFixture(t)
	ctx := context.Background()

	imp, format, err := im.CreateImport(ctx, "user-1", "march.csv", headerLine(chaseContent))
	if err != nil {
		t.Fatalf("CreateImport failed: %v", err)
	}
	if imp.Status != models.ImportPending {
		t.Errorf("Status = %s, want pending", imp.Status)
	}
	if format.Name != "Chase Bank" {
		t.Errorf("Detected format = %s, want Chase Bank", format.Name)
	}
	if imp.ColumnMapping.Date != "Transaction Date" || imp.ColumnMapping.Amount != "Amount" {
		t.Errorf("Unexpected mapping: %+v", imp.ColumnMapping)
	}

	summary, err := im.ProcessImport(ctx, "user-1", imp.Id, "acc-1", chaseContent)
	if err != nil {
		t.Fatalf("ProcessImport failed: %v", err)
	}

	if summary.TotalRows != 4 {
		t.Errorf("TotalRows = %d, want 4", summary.TotalRows)
	}
	if summary.ImportedRows != 3 {
		t.Errorf("ImportedRows = %d, want 3", summary.ImportedRows)
	}
	if summary.ErrorRows != 1 {
		t.Errorf("ErrorRows = %d, want 1", summary.ErrorRows)
	}
	if len(summary.RowErrors) != 1 || !strings.Contains(summary.RowErrors[0].Error, "invalid date format") {
		t.Errorf("Unexpected row errors: %+v", summary.RowErrors)
	}

	record := st.imports[imp.Id]
	if record.Status != models.ImportCompleted {
		t.Errorf("Final status = %s, want completed", record.Status)
	}
	if record.TotalRows != 4 || record.ImportedRows != 3 || record.ErrorRows != 1 {
		t.Errorf("Counts not persisted: %+v", record)
	}

	// Status path: processing, then terminal.
	wantStatuses := []string{models.ImportProcessing, models.ImportCompleted}
	if len(st.statuses) != 2 || st.statuses[0] != wantStatuses[0] || st.statuses[1] != wantStatuses[1] {
		t.Errorf("Status transitions = %v, want %v", st.statuses, wantStatuses)
	}

	if len(st.txs) != 3 {
		t.Errorf("Expected 3 upserted transactions, got %d", len(st.txs))
	}
	for _, tx := range st.txs {
		if tx.UserId != "user-1" || tx.AccountId != "acc-1" {
			t.Errorf("Ownership not stamped: %+v", tx)
		}
		if !strings.HasPrefix(tx.ExternalId, "csv_") {
			t.Errorf("Expected deterministic csv external id, got %q", tx.ExternalId)
		}
	}
}

func TestImporter_AlreadyProcessed(t *testing.T) {
	im, _ := newImportFixture(t)
	ctx := context.Background()

	imp, _, err := im.CreateImport(ctx, "user-1", "march.csv", headerLine(chaseContent))
	if err != nil {
		t.Fatalf("CreateImport failed: %v", err)
	}

	if _, err := im.ProcessImport(ctx, "user-1", imp.Id, "acc-1", chaseContent); err != nil {
		t.Fatalf("First ProcessImport failed: %v", err)
	}

	_, err = im.ProcessImport(ctx, "user-1", imp.Id, "acc-1", chaseContent)
	if !errors.Is(err, store.ErrAlreadyProcessed) {
		t.Errorf("Expected ErrAlreadyProcessed on second run, got %v", err)
	}
}

func TestImporter_InvalidMapping(t *testing.T) {
	im, st := newImportFixture(t)
	ctx := context.Background()

	// Headers with no recognizable amount column force an incomplete mapping.
	imp, _, err := im.CreateImport(ctx, "user-1", "odd.csv", []string{"Date", "Description"})
	if err != nil {
		t.Fatalf("CreateImport failed: %v", err)
	}

	_, err = im.ProcessImport(ctx, "user-1", imp.Id, "acc-1", "Date,Description\n2024-03-15,LUNCH\n")
	if err == nil {
		t.Fatal("Expected error for invalid mapping")
	}
	if !strings.Contains(err.Error(), "Amount column is required") {
		t.Errorf("Unexpected error: %v", err)
	}

	if st.imports[imp.Id].Status != models.ImportFailed {
		t.Errorf("Status = %s, want failed", st.imports[imp.Id].Status)
	}
}

func TestImporter_UnknownAccount(t *testing.T) {
	im, st := newImportFixture(t)
	ctx := context.Background()

	imp, _, err := im.CreateImport(ctx, "user-1", "march.csv", headerLine(chaseContent))
	if err != nil {
		t.Fatalf("CreateImport failed: %v", err)
	}

	_, err = im.ProcessImport(ctx, "user-1", imp.Id, "no-such-account", chaseContent)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown account, got %v", err)
	}
	if st.imports[imp.Id].Status != models.ImportPending {
		t.Errorf("Import should stay pending, got %s", st.imports[imp.Id].Status)
	}
}

func TestImporter_UnknownImport(t *testing.T) {
	im, _ := newImportFixture(t)

	_, err := im.ProcessImport(context.Background(), "user-1", "missing", "acc-1", chaseContent)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestImporter_AllRowsInvalid(t *testing.T) {
	im, st := newImportFixture(t)
	ctx := context.Background()

	content := "Transaction Date,Description,Amount\n" +
		"not-a-date,LUNCH,-10.00\n" +
		"also-bad,DINNER,-20.00\n"

	imp, _, err := im.CreateImport(ctx, "user-1", "broken.csv", headerLine(content))
	if err != nil {
		t.Fatalf("CreateImport failed: %v", err)
	}

	summary, err := im.ProcessImport(ctx, "user-1", imp.Id, "acc-1", content)
	if err != nil {
		t.Fatalf("ProcessImport failed: %v", err)
	}

	if summary.ImportedRows != 0 || summary.ErrorRows != 2 {
		t.Errorf("Summary = %+v, want 0 imported and 2 errors", summary)
	}
	if st.imports[imp.Id].Status != models.ImportFailed {
		t.Errorf("Status = %s, want failed when nothing imports", st.imports[imp.Id].Status)
	}
}

func TestImporter_ReimportIsIdempotent(t *testing.T) {
	im, st := newImportFixture(t)
	ctx := context.Background()

	first, _, err := im.CreateImport(ctx, "user-1", "march.csv", headerLine(chaseContent))
	if err != nil {
		t.Fatalf("CreateImport failed: %v", err)
	}
	if _, err := im.ProcessImport(ctx, "user-1", first.Id, "acc-1", chaseContent); err != nil {
		t.Fatalf("First ProcessImport failed: %v", err)
	}

	second, _, err := im.CreateImport(ctx, "user-1", "march-again.csv", headerLine(chaseContent))
	if err != nil {
		t.Fatalf("CreateImport failed: %v", err)
	}
	if _, err := im.ProcessImport(ctx, "user-1", second.Id, "acc-1", chaseContent); err != nil {
		t.Fatalf("Second ProcessImport failed: %v", err)
	}

	// Same file, same account: external ids collide, so the store holds the
	// same three rows after the re-import.
	if len(st.txs) != 3 {
		t.Errorf("Expected 3 transactions after re-import, got %d", len(st.txs))
	}
}
