package csvimport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Format describes one known bank-export CSV layout: the date layout its
// export uses and the header aliases it accepts per canonical field.
type Format struct {
	Name       string        `yaml:"name"`
	DateLayout string        `yaml:"date_layout"`
	Columns    FormatColumns `yaml:"columns"`
}

// FormatColumns lists accepted header aliases per canonical field.
type FormatColumns struct {
	Date        []string `yaml:"date"`
	Amount      []string `yaml:"amount"`
	Description []string `yaml:"description"`
	Category    []string `yaml:"category,omitempty"`
	Merchant    []string `yaml:"merchant,omitempty"`
	Balance     []string `yaml:"balance,omitempty"`
}

// genericFormatName marks the catalogue's fallback entry.
const genericFormatName = "Generic CSV"

// IsGeneric reports whether this is the fallback format.
func (f Format) IsGeneric() bool {
	return f.Name == genericFormatName
}

// Catalogue is an ordered list of known formats. Order is the detection
// tie-break: earlier entries are assumed more specific. The generic fallback
// is always last and always matches.
type Catalogue struct {
	formats []Format
}

// DefaultCatalogue returns the built-in bank layouts plus the generic
// fallback.
func DefaultCatalogue() *Catalogue {
	return &Catalogue{formats: []Format{
		{
			Name:       "Chase Bank",
			DateLayout: "01/02/2006",
			Columns: FormatColumns{
				Date:        []string{"Transaction Date", "Date"},
				Amount:      []string{"Amount", "Debit", "Credit"},
				Description: []string{"Description", "Details"},
				Category:    []string{"Category", "Type"},
			},
		},
		{
			Name:       "Bank of America",
			DateLayout: "01/02/2006",
			Columns: FormatColumns{
				Date:        []string{"Date", "Transaction Date"},
				Amount:      []string{"Amount"},
				Description: []string{"Description", "Payee"},
				Category:    []string{"Category"},
			},
		},
		{
			Name:       "Wells Fargo",
			DateLayout: "01/02/2006",
			Columns: FormatColumns{
				Date:        []string{"Date"},
				Amount:      []string{"Amount"},
				Description: []string{"Description"},
				Category:    []string{"Category"},
			},
		},
		{
			Name:       genericFormatName,
			DateLayout: "2006-01-02",
			Columns: FormatColumns{
				Date:        []string{"date", "transaction_date", "Transaction Date"},
				Amount:      []string{"amount", "value"},
				Description: []string{"description", "memo", "details"},
				Category:    []string{"category", "type"},
				Merchant:    []string{"merchant", "payee"},
			},
		},
	}}
}

// Extend inserts custom formats before the generic fallback, preserving the
// order they are given in.
func (c *Catalogue) Extend(formats ...Format) {
	if len(formats) == 0 {
		return
	}
	last := len(c.formats) - 1
	extended := make([]Format, 0, len(c.formats)+len(formats))
	extended = append(extended, c.formats[:last]...)
	extended = append(extended, formats...)
	extended = append(extended, c.formats[last])
	c.formats = extended
}

// Detect identifies the first catalogue entry whose date, amount and
// description aliases all appear in the headers (case-insensitive, trimmed).
// It never fails: when no entry matches, the generic fallback is returned.
func (c *Catalogue) Detect(headers []string) Format {
	normalized := make(map[string]bool, len(headers))
	for _, h := range headers {
		normalized[strings.ToLower(strings.TrimSpace(h))] = true
	}

	for _, format := range c.formats {
		if anyAlias(normalized, format.Columns.Date) &&
			anyAlias(normalized, format.Columns.Amount) &&
			anyAlias(normalized, format.Columns.Description) {
			return format
		}
	}

	return c.formats[len(c.formats)-1]
}

func anyAlias(headers map[string]bool, aliases []string) bool {
	for _, alias := range aliases {
		if headers[strings.ToLower(alias)] {
			return true
		}
	}
	return false
}

// formatsFile is the yaml shape of a custom catalogue file.
type formatsFile struct {
	Formats []Format `yaml:"formats"`
}

// LoadFormats reads extra bank layouts from a yaml catalogue file.
func LoadFormats(formatsFileName string) ([]Format, error) {
	var formatsPath string
	if filepath.IsAbs(formatsFileName) {
		formatsPath = formatsFileName
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		formatsPath = filepath.Join(wd, formatsFileName)
	}

	data, err := os.ReadFile(formatsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", formatsFileName, err)
	}

	var file formatsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", formatsFileName, err)
	}

	for i, format := range file.Formats {
		if format.Name == "" {
			return nil, fmt.Errorf("format at index %d missing name", i)
		}
		if len(format.Columns.Date) == 0 || len(format.Columns.Amount) == 0 || len(format.Columns.Description) == 0 {
			return nil, fmt.Errorf("format %q must declare date, amount and description aliases", format.Name)
		}
	}

	return file.Formats, nil
}
