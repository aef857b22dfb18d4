package csvimport

import (
	"reflect"
	"testing"

	"finance-sync-go/internal/models"
)

func TestAutoMap_KnownFormat(t *testing.T) {
	catalogue := DefaultCatalogue()

	mapping, format := catalogue.AutoMap([]string{"Transaction Date", "Amount", "Description", "Category"})

	if format.Name != "Chase Bank" {
		t.Fatalf("Expected Chase Bank, got %s", format.Name)
	}
	if mapping.Date != "Transaction Date" {
		t.Errorf("Date = %q, want Transaction Date", mapping.Date)
	}
	if mapping.Amount != "Amount" {
		t.Errorf("Amount = %q, want Amount", mapping.Amount)
	}
	if mapping.Description != "Description" {
		t.Errorf("Description = %q, want Description", mapping.Description)
	}
	if mapping.Category != "Category" {
		t.Errorf("Category = %q, want Category", mapping.Category)
	}
}

func TestAutoMap_FirstHeaderWinsPerField(t *testing.T) {
	catalogue := DefaultCatalogue()

	// Both "Transaction Date" and "Date" are Chase date aliases; the first
	// header in header order is kept, the second never overwrites it.
	mapping, _ := catalogue.AutoMap([]string{"Transaction Date", "Date", "Amount", "Description"})

	if mapping.Date != "Transaction Date" {
		t.Errorf("Date = %q, want Transaction Date", mapping.Date)
	}
}

func TestAutoMap_GenericFallbackRequiredFieldsOnly(t *testing.T) {
	catalogue := DefaultCatalogue()

	// "note" and "value" are only in the fallback heuristic lists, so
	// detection lands on the generic entry.
	mapping, format := catalogue.AutoMap([]string{"Transaction Date", "Value", "Note", "Payee"})

	if !format.IsGeneric() {
		t.Fatalf("Expected generic fallback, got %s", format.Name)
	}
	if mapping.Date != "Transaction Date" {
		t.Errorf("Date = %q, want Transaction Date", mapping.Date)
	}
	if mapping.Amount != "Value" {
		t.Errorf("Amount = %q, want Value", mapping.Amount)
	}
	if mapping.Description != "Note" {
		t.Errorf("Description = %q, want Note", mapping.Description)
	}
	// Optional fields are never auto-mapped on the fallback path.
	if mapping.Merchant != "" {
		t.Errorf("Merchant = %q, want empty", mapping.Merchant)
	}
	if mapping.Category != "" {
		t.Errorf("Category = %q, want empty", mapping.Category)
	}
}

func TestValidateMapping(t *testing.T) {
	tests := []struct {
		name       string
		mapping    models.ColumnMapping
		wantValid  bool
		wantErrors []string
	}{
		{
			name:      "complete",
			mapping:   models.ColumnMapping{Date: "Date", Amount: "Amount", Description: "Desc"},
			wantValid: true,
		},
		{
			name:       "missing date",
			mapping:    models.ColumnMapping{Amount: "Amt", Description: "Desc"},
			wantErrors: []string{"Date column is required"},
		},
		{
			name:    "missing all, fixed order",
			mapping: models.ColumnMapping{},
			wantErrors: []string{
				"Date column is required",
				"Amount column is required",
				"Description column is required",
			},
		},
		{
			name:       "optional fields do not matter",
			mapping:    models.ColumnMapping{Date: "D", Amount: "A"},
			wantErrors: []string{"Description column is required"},
		},
	}

	for _, tt := range tests {
		valid, errs := ValidateMapping(tt.mapping)
		if valid != tt.wantValid {
			t.Errorf("%s: valid = %v, want %v", tt.name, valid, tt.wantValid)
		}
		if !tt.wantValid && !reflect.DeepEqual(errs, tt.wantErrors) {
			t.Errorf("%s: errors = %v, want %v", tt.name, errs, tt.wantErrors)
		}
	}
}
