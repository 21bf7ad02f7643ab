package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/enrich-cli/internal/model"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	err := f.Save(path)
	require.NoError(t, err)
	return path
}

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseXLSX_WithHeader(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Companies": {
			{"Company Name", "Phone", "Address", "Website"},
			{"Acme Plumbing", "+1 555 0100", "12 Main St", "https://acmeplumbing.com"},
			{"Bravo Roofing", "+1 555 0200", "9 Elm Ave", ""},
		},
	})

	companies, err := ParseXLSX(path, Options{})
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "Acme Plumbing", companies[0].Name)
	assert.Equal(t, "+1 555 0100", companies[0].Phone)
	assert.Equal(t, "https://acmeplumbing.com", companies[0].Website)
	assert.Equal(t, model.StatusIncomplete, companies[0].Status)
	assert.Empty(t, companies[1].Website)
}

func TestParseXLSX_SheetName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"ignored"}},
		"Leads":  {{"Acme", "555-0100", "12 Main St"}},
	})

	companies, err := ParseXLSX(path, Options{SheetName: "Leads"})
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)

	_, err = ParseXLSX(path, Options{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestParseCSV_Positional(t *testing.T) {
	// No header row: columns are name, phone, address.
	path := writeTestCSV(t, "Acme Plumbing,+1 555 0100,12 Main St\nBravo Roofing,,9 Elm Ave\n")

	companies, err := ParseCSV(path)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "Acme Plumbing", companies[0].Name)
	assert.Equal(t, "12 Main St", companies[0].Address)
	assert.Empty(t, companies[1].Phone)
}

func TestParseCSV_HeaderMapping(t *testing.T) {
	path := writeTestCSV(t, "phone,name,email\n555-0100,Acme,info@acme.com\n,,\n")

	companies, err := ParseCSV(path)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)
	assert.Equal(t, "555-0100", companies[0].Phone)
	assert.Equal(t, "info@acme.com", companies[0].Email)
}

func TestParseFile_Dispatch(t *testing.T) {
	csvPath := writeTestCSV(t, "Acme,555-0100,12 Main St\n")

	companies, err := ParseFile(csvPath, Options{})
	require.NoError(t, err)
	assert.Len(t, companies, 1)

	_, err = ParseFile("companies.txt", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestCompaniesFromRows_SkipsBlankNames(t *testing.T) {
	companies := companiesFromRows([][]string{
		{"name", "phone"},
		{"", "555-0100"},
		{"Acme", "555-0200"},
	})
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)
}
