package csvimport

import "testing"

func TestDetect_KnownFormat(t *testing.T) {
	catalogue := DefaultCatalogue()

	headers := []string{"Transaction Date", "Amount", "Description", "Category"}
	format := catalogue.Detect(headers)

	if format.Name != "Chase Bank" {
		t.Errorf("Expected Chase Bank, got %s", format.Name)
	}
	if format.IsGeneric() {
		t.Error("Detected format should not be the generic fallback")
	}
}

func TestDetect_CaseInsensitiveAndTrimmed(t *testing.T) {
	catalogue := DefaultCatalogue()

	headers := []string{" transaction date ", "AMOUNT", "description"}
	format := catalogue.Detect(headers)

	if format.Name != "Chase Bank" {
		t.Errorf("Expected Chase Bank, got %s", format.Name)
	}
}

func TestDetect_OrderIsTieBreak(t *testing.T) {
	catalogue := DefaultCatalogue()

	// Date/Amount/Description match Chase, Bank of America and Wells Fargo
	// alike; the earlier catalogue entry wins.
	headers := []string{"Date", "Amount", "Description"}
	format := catalogue.Detect(headers)

	if format.Name != "Chase Bank" {
		t.Errorf("Expected first matching entry (Chase Bank), got %s", format.Name)
	}
}

func TestDetect_GenericFallback(t *testing.T) {
	catalogue := DefaultCatalogue()

	tests := [][]string{
		{"Foo", "Bar", "Baz"},
		{},
		{"Date"}, // required fields incomplete everywhere
	}
	for _, headers := range tests {
		format := catalogue.Detect(headers)
		if !format.IsGeneric() {
			t.Errorf("Detect(%v): expected generic fallback, got %s", headers, format.Name)
		}
	}
}

func TestExtend_InsertsBeforeGeneric(t *testing.T) {
	catalogue := DefaultCatalogue()
	catalogue.Extend(Format{
		Name:       "Monzo",
		DateLayout: "2006-01-02",
		Columns: FormatColumns{
			Date:        []string{"Date"},
			Amount:      []string{"Amount"},
			Description: []string{"Name"},
		},
	})

	format := catalogue.Detect([]string{"Date", "Amount", "Name"})
	if format.Name != "Monzo" {
		t.Errorf("Expected extended format Monzo, got %s", format.Name)
	}

	// The fallback must still be last and still always match.
	format = catalogue.Detect([]string{"nothing", "recognizable"})
	if !format.IsGeneric() {
		t.Errorf("Expected generic fallback after Extend, got %s", format.Name)
	}
}
