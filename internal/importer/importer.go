// Package importer parses company spreadsheets (XLSX or CSV) into company
// records ready for bulk insertion.
package importer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Options configures file parsing.
type Options struct {
	SheetIndex int    // XLSX only, default 0
	SheetName  string // XLSX only, overrides SheetIndex if set
}

// ParseFile reads an XLSX or CSV file of companies, dispatching on the file
// extension. Every returned company has status incomplete.
func ParseFile(path string, opts Options) ([]model.Company, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ParseXLSX(path, opts)
	case ".csv":
		return ParseCSV(path)
	default:
		return nil, eris.Errorf("importer: unsupported file type %q", filepath.Ext(path))
	}
}

// ParseXLSX reads company rows from a spreadsheet.
func ParseXLSX(path string, opts Options) ([]model.Company, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return companiesFromRows(rows), nil
}

// ParseCSV reads company rows from a comma-separated file.
func ParseCSV(path string) ([]model.Company, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open csv")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "importer: read csv")
	}
	return companiesFromRows(rows), nil
}

func getSheet(f *xlsx.File, opts Options) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("importer: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("importer: sheet index %d out of range (file has %d sheets)",
			opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

// headerAliases maps recognized header spellings to company fields.
var headerAliases = map[string]string{
	"name":         "name",
	"company":      "name",
	"company name": "name",
	"business":     "name",
	"phone":        "phone",
	"phone number": "phone",
	"telephone":    "phone",
	"address":      "address",
	"street":       "address",
	"location":     "address",
	"website":      "website",
	"url":          "website",
	"email":        "email",
	"e-mail":       "email",
	"industry":     "industry",
	"description":  "description",
}

// companiesFromRows converts raw rows into companies. If the first row looks
// like a header it drives the column mapping; otherwise columns are taken
// positionally as name, phone, address.
func companiesFromRows(rows [][]string) []model.Company {
	if len(rows) == 0 {
		return nil
	}

	columns := map[string]int{"name": 0, "phone": 1, "address": 2}
	start := 0
	if mapped, ok := headerColumns(rows[0]); ok {
		columns = mapped
		start = 1
	}

	var companies []model.Company
	for _, row := range rows[start:] {
		name := cellAt(row, columns, "name")
		if name == "" {
			continue
		}
		companies = append(companies, model.Company{
			Name:        name,
			Phone:       cellAt(row, columns, "phone"),
			Address:     cellAt(row, columns, "address"),
			Website:     cellAt(row, columns, "website"),
			Email:       cellAt(row, columns, "email"),
			Industry:    cellAt(row, columns, "industry"),
			Description: cellAt(row, columns, "description"),
			Status:      model.StatusIncomplete,
		})
	}
	return companies
}

// headerColumns recognizes a header row. It is one only if a name column is
// present, so files without headers fall back to positional parsing.
func headerColumns(row []string) (map[string]int, bool) {
	columns := make(map[string]int)
	for i, cell := range row {
		key := strings.ToLower(strings.TrimSpace(cell))
		if field, ok := headerAliases[key]; ok {
			if _, seen := columns[field]; !seen {
				columns[field] = i
			}
		}
	}
	if _, ok := columns["name"]; !ok {
		return nil, false
	}
	return columns, true
}

func cellAt(row []string, columns map[string]int, field string) string {
	i, ok := columns[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
