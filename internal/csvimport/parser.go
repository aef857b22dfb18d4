package csvimport

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finance-sync-go/internal/models"
)

// RowError is a soft per-row failure. Row is the 1-based spreadsheet row
// number the user would see, including the header line and any skipped rows.
type RowError struct {
	Row   int
	Error string
}

// ParsedRow is one successfully parsed CSV row. Raw retains the original
// record for audit.
type ParsedRow struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Category    string
	Merchant    string
	Balance     *decimal.Decimal
	Raw         map[string]string
}

// ParseResult accounts for every data row: TotalRows == len(Rows) + len(Errors).
type ParseResult struct {
	Rows      []ParsedRow
	Errors    []RowError
	TotalRows int
}

// Date layouts tried after the format's preferred layout, most common first.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"01-02-2006",
}

// Lenient last-resort layouts for exports that spell dates out.
var lenientDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// Parse converts raw CSV content into rows keyed by the given column mapping.
// Row-level problems never abort the batch; each bad row gets a RowError and
// the rest continue. skipRows only affects reported row numbers, for files
// whose preamble was stripped before parsing.
func Parse(content string, mapping models.ColumnMapping, format *Format, skipRows int) (*ParseResult, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return &ParseResult{}, nil
	}

	headers := records[0]
	columnIndex := make(map[string]int, len(headers))
	for i, h := range headers {
		columnIndex[strings.TrimSpace(h)] = i
	}

	preferredLayout := "2006-01-02"
	if format != nil && format.DateLayout != "" {
		preferredLayout = format.DateLayout
	}

	result := &ParseResult{TotalRows: len(records) - 1}

	for i, record := range records[1:] {
		// Reported as the user would see it in a spreadsheet: 1-based,
		// after the header line and any skipped preamble.
		rowNumber := i + skipRows + 2

		field := func(column string) string {
			if column == "" {
				return ""
			}
			idx, ok := columnIndex[column]
			if !ok || idx >= len(record) {
				return ""
			}
			return record[idx]
		}

		dateStr := field(mapping.Date)
		amountStr := field(mapping.Amount)

		if strings.TrimSpace(dateStr) == "" || strings.TrimSpace(amountStr) == "" {
			result.Errors = append(result.Errors, RowError{
				Row:   rowNumber,
				Error: "missing required fields (date or amount)",
			})
			continue
		}

		date, err := parseDate(strings.TrimSpace(dateStr), preferredLayout)
		if err != nil {
			result.Errors = append(result.Errors, RowError{
				Row:   rowNumber,
				Error: fmt.Sprintf("invalid date format: %s", dateStr),
			})
			continue
		}

		amount, err := parseAmount(amountStr)
		if err != nil {
			result.Errors = append(result.Errors, RowError{
				Row:   rowNumber,
				Error: fmt.Sprintf("invalid amount: %s", amountStr),
			})
			continue
		}

		row := ParsedRow{
			Date:        date,
			Amount:      amount,
			Description: strings.TrimSpace(field(mapping.Description)),
			Category:    field(mapping.Category),
			Merchant:    field(mapping.Merchant),
			Raw:         rawRecord(headers, record),
		}

		// Balance is advisory: parse failures are ignored, never blocking.
		if balanceStr := field(mapping.Balance); balanceStr != "" {
			if balance, err := parseAmount(balanceStr); err == nil {
				row.Balance = &balance
			}
		}

		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// parseDate tries the preferred layout, then the common layouts, then the
// lenient set. The first successful parse wins.
func parseDate(value, preferredLayout string) (time.Time, error) {
	layouts := make([]string, 0, 1+len(dateLayouts)+len(lenientDateLayouts))
	layouts = append(layouts, preferredLayout)
	layouts = append(layouts, dateLayouts...)
	layouts = append(layouts, lenientDateLayouts...)

	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", value)
}

// parseAmount strips everything that is not a digit, '.' or '-' (currency
// symbols, thousands separators) and parses the remainder as a decimal.
func parseAmount(value string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, value)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("not a number: %q", value)
	}
	return amount, nil
}

func rawRecord(headers, record []string) map[string]string {
	raw := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(record) {
			raw[strings.TrimSpace(h)] = record[i]
		}
	}
	return raw
}
