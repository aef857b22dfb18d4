package csvimport

import (
	"strings"

	"finance-sync-go/internal/models"
)

// Fallback aliases tried when detection only yields the generic format.
// Optional fields are never auto-mapped on this path.
var fallbackAliases = struct {
	date        []string
	amount      []string
	description []string
}{
	date:        []string{"date", "transaction_date", "transaction date"},
	amount:      []string{"amount", "value"},
	description: []string{"description", "memo", "details", "note"},
}

// AutoMap derives a column mapping from CSV headers. For each canonical field
// the first header (in header order) matching one of the detected format's
// aliases wins; an already-assigned field is never overwritten. When detection
// falls back to the generic format, only date, amount and description are
// mapped, using a list of common aliases.
func (c *Catalogue) AutoMap(headers []string) (models.ColumnMapping, Format) {
	format := c.Detect(headers)

	var mapping models.ColumnMapping

	if format.IsGeneric() {
		for _, header := range headers {
			trimmed := strings.TrimSpace(header)
			lower := strings.ToLower(trimmed)

			if mapping.Date == "" && contains(fallbackAliases.date, lower) {
				mapping.Date = trimmed
			}
			if mapping.Amount == "" && contains(fallbackAliases.amount, lower) {
				mapping.Amount = trimmed
			}
			if mapping.Description == "" && contains(fallbackAliases.description, lower) {
				mapping.Description = trimmed
			}
		}
		return mapping, format
	}

	for _, header := range headers {
		trimmed := strings.TrimSpace(header)
		lower := strings.ToLower(trimmed)

		if mapping.Date == "" && containsAlias(format.Columns.Date, lower) {
			mapping.Date = trimmed
		}
		if mapping.Amount == "" && containsAlias(format.Columns.Amount, lower) {
			mapping.Amount = trimmed
		}
		if mapping.Description == "" && containsAlias(format.Columns.Description, lower) {
			mapping.Description = trimmed
		}
		if mapping.Category == "" && containsAlias(format.Columns.Category, lower) {
			mapping.Category = trimmed
		}
		if mapping.Merchant == "" && containsAlias(format.Columns.Merchant, lower) {
			mapping.Merchant = trimmed
		}
		if mapping.Balance == "" && containsAlias(format.Columns.Balance, lower) {
			mapping.Balance = trimmed
		}
	}

	return mapping, format
}

// ValidateMapping checks that the three required fields are mapped. Errors
// come back in a fixed order (date, amount, description) so user-facing
// messages are deterministic.
func ValidateMapping(mapping models.ColumnMapping) (bool, []string) {
	var errs []string

	if mapping.Date == "" {
		errs = append(errs, "Date column is required")
	}
	if mapping.Amount == "" {
		errs = append(errs, "Amount column is required")
	}
	if mapping.Description == "" {
		errs = append(errs, "Description column is required")
	}

	return len(errs) == 0, errs
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func containsAlias(aliases []string, lower string) bool {
	for _, alias := range aliases {
		if strings.ToLower(alias) == lower {
			return true
		}
	}
	return false
}
