package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
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
	path := filepath.Join(t.TempDir(), "listings.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX_Basic(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Name", "Address", "Phone"},
			{"Joe's Diner", "123 Main St, Tonasket, WA 98855", "(509) 555-0100"},
			{"Okanogan Hardware", "456 Oak Ave, Tonasket, WA 98855", ""},
		},
	})

	inputs, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "Joe's Diner", inputs[0].Name)
	assert.Equal(t, "123 Main St, Tonasket, WA 98855", inputs[0].Address)
	assert.Equal(t, "(509) 555-0100", inputs[0].Phone)
	assert.Empty(t, inputs[1].Phone)
}

func TestReadXLSX_SheetByName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Listings": {
			{"name", "address"},
			{"Joe's Diner", "123 Main St"},
		},
	})

	inputs, err := ReadXLSX(path, XLSXOptions{SheetName: "Listings"})
	require.NoError(t, err)
	require.Len(t, inputs, 1)

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Missing" not found`)
}

func TestReadXLSX_MissingRequiredColumn(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"name", "phone"},
			{"Joe's Diner", "5095550100"},
		},
	})

	_, err := ReadXLSX(path, XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address column")
}

func TestReadXLSX_SkipsEmptyRows(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"name", "address"},
			{"Joe's Diner", "123 Main St"},
			{"", ""},
		},
	})

	inputs, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	assert.Len(t, inputs, 1)
}

func TestReadXLSX_NonexistentFile(t *testing.T) {
	_, err := ReadXLSX(filepath.Join(t.TempDir(), "missing.xlsx"), XLSXOptions{})
	require.Error(t, err)
}
