package csvimport

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finance-sync-go/internal/models"
)

var testMapping = models.ColumnMapping{
	Date:        "Date",
	Amount:      "Amount",
	Description: "Description",
}

func TestParse_RowAccounting(t *testing.T) {
	content := strings.Join([]string{
		"Date,Amount,Description",
		"2024-01-02,-42.50,Coffee",
		"not-a-date,10.00,Bad date",
		"2024-01-03,abc,Bad amount",
		"2024-01-04,100,Salary",
	}, "\n")

	result, err := Parse(content, testMapping, nil, 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if result.TotalRows != 4 {
		t.Errorf("TotalRows = %d, want 4", result.TotalRows)
	}
	// Every row is accounted for: accepted rows plus errors.
	if len(result.Rows)+len(result.Errors) != result.TotalRows {
		t.Errorf("Rows (%d) + Errors (%d) != TotalRows (%d)",
			len(result.Rows), len(result.Errors), result.TotalRows)
	}
	if len(result.Rows) != 2 {
		t.Errorf("Expected 2 parsed rows, got %d", len(result.Rows))
	}
}

func TestParse_RowNumbers(t *testing.T) {
	content := strings.Join([]string{
		"Date,Amount,Description",
		"2024-01-02,5,ok",
		"bad,5,first error",
	}, "\n")

	result, err := Parse(content, testMapping, nil, 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(result.Errors))
	}
	// Row 3 as a user would see it in a spreadsheet (header is row 1).
	if result.Errors[0].Row != 3 {
		t.Errorf("Error row = %d, want 3", result.Errors[0].Row)
	}

	// skipRows shifts reported numbers for files with a stripped preamble.
	result, err = Parse(content, testMapping, nil, 4)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.Errors[0].Row != 7 {
		t.Errorf("Error row with skipRows=4 = %d, want 7", result.Errors[0].Row)
	}
}

func TestParse_MissingRequiredFields(t *testing.T) {
	content := strings.Join([]string{
		"Date,Amount,Description",
		",5,no date",
		"2024-01-02,,no amount",
	}, "\n")

	result, err := Parse(content, testMapping, nil, 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(result.Errors))
	}
	for _, rowErr := range result.Errors {
		if !strings.HasPrefix(rowErr.Error, "missing required fields") {
			t.Errorf("Error = %q, want missing required fields prefix", rowErr.Error)
		}
	}
}

func TestParse_DateLayouts(t *testing.T) {
	chase := Format{Name: "Chase Bank", DateLayout: "01/02/2006"}

	tests := []struct {
		value  string
		format *Format
		want   time.Time
	}{
		{"2024-03-09", nil, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"03/09/2024", &chase, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
		// Without a US-format hint the US slash layout is tried before EU.
		{"03/09/2024", nil, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"2024/03/09", nil, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"Mar 9, 2024", nil, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		content := "Date,Amount,Description\n" + `"` + tt.value + `"` + ",1,x"
		result, err := Parse(content, testMapping, tt.format, 0)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tt.value, err)
		}
		if len(result.Rows) != 1 {
			t.Fatalf("Parse(%q): expected 1 row, got %d errors=%v", tt.value, len(result.Rows), result.Errors)
		}
		if !result.Rows[0].Date.Equal(tt.want) {
			t.Errorf("Parse(%q): date = %v, want %v", tt.value, result.Rows[0].Date, tt.want)
		}
	}
}

func TestParse_InvalidDate(t *testing.T) {
	content := "Date,Amount,Description\n31/31/2024,1,x"

	result, err := Parse(content, testMapping, nil, 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(result.Errors))
	}
	if !strings.HasPrefix(result.Errors[0].Error, "invalid date format") {
		t.Errorf("Error = %q, want invalid date format prefix", result.Errors[0].Error)
	}
}

func TestParse_AmountScrubbing(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"$1,234.56", "1234.56"},
		{"-42.50", "-42.5"},
		{"£ 100", "100"},
		{"(nothing)4", "4"},
	}

	for _, tt := range tests {
		content := "Date,Amount,Description\n2024-01-02," + `"` + tt.value + `"` + ",x"
		result, err := Parse(content, testMapping, nil, 0)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tt.value, err)
		}
		if len(result.Rows) != 1 {
			t.Fatalf("Parse(%q): expected 1 row, got errors %v", tt.value, result.Errors)
		}
		want, _ := decimal.NewFromString(tt.want)
		if !result.Rows[0].Amount.Equal(want) {
			t.Errorf("Parse(%q): amount = %s, want %s", tt.value, result.Rows[0].Amount, want)
		}
	}
}

func TestParse_BalanceIsAdvisory(t *testing.T) {
	mapping := testMapping
	mapping.Balance = "Balance"

	content := strings.Join([]string{
		"Date,Amount,Description,Balance",
		"2024-01-02,5,ok,1000.00",
		"2024-01-03,6,bad balance,n/a",
	}, "\n")

	result, err := Parse(content, mapping, nil, 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	// A bad balance never blocks the row.
	if len(result.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d (errors %v)", len(result.Rows), result.Errors)
	}
	if result.Rows[0].Balance == nil || !result.Rows[0].Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Row 0 balance = %v, want 1000", result.Rows[0].Balance)
	}
	if result.Rows[1].Balance != nil {
		t.Errorf("Row 1 balance = %v, want nil", result.Rows[1].Balance)
	}
}

func TestParse_DescriptionTrimmed(t *testing.T) {
	content := "Date,Amount,Description\n2024-01-02,5,\"  padded text  \""

	result, err := Parse(content, testMapping, nil, 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.Rows[0].Description != "padded text" {
		t.Errorf("Description = %q, want trimmed", result.Rows[0].Description)
	}
}

func TestParse_RawRowRetained(t *testing.T) {
	content := "Date,Amount,Description\n2024-01-02,5,x"

	result, err := Parse(content, testMapping, nil, 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	raw := result.Rows[0].Raw
	if raw["Date"] != "2024-01-02" || raw["Amount"] != "5" || raw["Description"] != "x" {
		t.Errorf("Raw = %v, want original values", raw)
	}
}

func TestToTransactions_SignMapping(t *testing.T) {
	rows := []ParsedRow{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("-42.50"), Description: "Coffee"},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("100"), Description: "Salary"},
		{Date: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), Amount: decimal.Zero, Description: "Zero"},
	}

	transactions := ToTransactions(rows, "user1", "acct1")

	if transactions[0].Type != models.TypeExpense {
		t.Errorf("Negative amount: type = %s, want expense", transactions[0].Type)
	}
	if !transactions[0].Amount.Equal(decimal.RequireFromString("42.50")) {
		t.Errorf("Negative amount stored as %s, want 42.5", transactions[0].Amount)
	}
	if transactions[1].Type != models.TypeIncome {
		t.Errorf("Positive amount: type = %s, want income", transactions[1].Type)
	}
	// Zero counts as income: the rule is >= 0.
	if transactions[2].Type != models.TypeIncome {
		t.Errorf("Zero amount: type = %s, want income", transactions[2].Type)
	}

	for _, tx := range transactions {
		if tx.UserId != "user1" || tx.AccountId != "acct1" {
			t.Errorf("Ownership not stamped: %+v", tx)
		}
		if tx.ExternalId == "" {
			t.Error("Expected deterministic external id")
		}
	}
}

func TestToTransactions_DeterministicExternalId(t *testing.T) {
	row := ParsedRow{
		Date:        time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("-10"),
		Description: "Groceries",
	}

	first := ToTransactions([]ParsedRow{row}, "user1", "acct1")
	second := ToTransactions([]ParsedRow{row}, "user1", "acct1")
	if first[0].ExternalId != second[0].ExternalId {
		t.Error("Re-parsing the same row must yield the same external id")
	}

	other := ToTransactions([]ParsedRow{row}, "user1", "acct2")
	if first[0].ExternalId == other[0].ExternalId {
		t.Error("Different accounts must yield different external ids")
	}
}

func TestDeduplicate(t *testing.T) {
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("42.50")

	transactions := []models.Transaction{
		{AccountId: "a", TransactionDate: date, Amount: amount, Description: "Coffee"},
		{AccountId: "a", TransactionDate: date, Amount: amount, Description: "Coffee"}, // exact duplicate
		{AccountId: "a", TransactionDate: date, Amount: amount, Description: "Tea"},
		{AccountId: "b", TransactionDate: date, Amount: amount, Description: "Coffee"}, // other account
	}

	unique := Deduplicate(transactions)
	if len(unique) != 3 {
		t.Fatalf("Expected 3 unique transactions, got %d", len(unique))
	}
	// Order preserved, later occurrence dropped.
	if unique[0].Description != "Coffee" || unique[1].Description != "Tea" {
		t.Errorf("Order not preserved: %v", unique)
	}

	// Idempotent: deduplicating the output changes nothing.
	again := Deduplicate(unique)
	if len(again) != len(unique) {
		t.Errorf("Deduplicate not idempotent: %d then %d", len(unique), len(again))
	}
}
