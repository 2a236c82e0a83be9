package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonasket-wiki/directory-cli/internal/directory"
)

func collectCSV(t *testing.T, data string, opts CSVOptions) ([]directory.Input, error) {
	t.Helper()
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(data), opts)
	var inputs []directory.Input
	for in := range rowCh {
		inputs = append(inputs, in)
	}
	return inputs, <-errCh
}

func TestStreamCSV_MapsColumnsByHeader(t *testing.T) {
	data := `name,address,phone,website
Joe's Diner,"123 Main St, Tonasket, WA 98855",(509) 555-0100,joesdiner.example.com
Okanogan Hardware,"456 Oak Ave, Tonasket, WA 98855",,
`
	inputs, err := collectCSV(t, data, CSVOptions{})
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	assert.Equal(t, "Joe's Diner", inputs[0].Name)
	assert.Equal(t, "123 Main St, Tonasket, WA 98855", inputs[0].Address)
	assert.Equal(t, "(509) 555-0100", inputs[0].Phone)
	assert.Equal(t, "joesdiner.example.com", inputs[0].Website)
	assert.Equal(t, "Okanogan Hardware", inputs[1].Name)
	assert.Empty(t, inputs[1].Phone)
}

func TestStreamCSV_ReorderedAndExtraColumns(t *testing.T) {
	data := `license_id,Address,Name
12345,123 Main St,Joe's Diner
`
	inputs, err := collectCSV(t, data, CSVOptions{})
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "Joe's Diner", inputs[0].Name)
	assert.Equal(t, "123 Main St", inputs[0].Address)
}

func TestStreamCSV_SkipsEmptyRows(t *testing.T) {
	data := "name,address\nJoe's Diner,123 Main St\n,\n"
	inputs, err := collectCSV(t, data, CSVOptions{})
	require.NoError(t, err)
	assert.Len(t, inputs, 1)
}

func TestStreamCSV_MissingRequiredColumn(t *testing.T) {
	data := "name,phone\nJoe's Diner,5095550100\n"
	_, err := collectCSV(t, data, CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address column")
}

func TestStreamCSV_EmptyFile(t *testing.T) {
	_, err := collectCSV(t, "", CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty csv")
}

func TestStreamCSV_CustomDelimiter(t *testing.T) {
	data := "name;address\nJoe's Diner;123 Main St\n"
	inputs, err := collectCSV(t, data, CSVOptions{Delimiter: ';'})
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "Joe's Diner", inputs[0].Name)
}
