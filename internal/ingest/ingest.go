// Package ingest parses bulk business listings from CSV and XLSX
// files into submission inputs.
package ingest

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/tonasket-wiki/directory-cli/internal/directory"
)

// Recognized header names, lowercased. Files may order columns freely
// and include extra columns, which are ignored.
const (
	colName        = "name"
	colAddress     = "address"
	colPhone       = "phone"
	colEmail       = "email"
	colWebsite     = "website"
	colCategory    = "category"
	colDescription = "description"
)

// HeaderIndex maps column positions from a header row.
type HeaderIndex map[string]int

// ParseHeader builds a HeaderIndex from the first row of a file. The
// name and address columns are mandatory.
func ParseHeader(row []string) (HeaderIndex, error) {
	idx := HeaderIndex{}
	for i, cell := range row {
		idx[strings.ToLower(strings.TrimSpace(cell))] = i
	}
	if _, ok := idx[colName]; !ok {
		return nil, eris.New("ingest: header is missing a name column")
	}
	if _, ok := idx[colAddress]; !ok {
		return nil, eris.New("ingest: header is missing an address column")
	}
	return idx, nil
}

// Input converts a data row into a submission input using the header
// positions. Missing or short rows yield empty fields, which the
// submission flow then validates.
func (idx HeaderIndex) Input(row []string) directory.Input {
	cell := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	return directory.Input{
		Name:        cell(colName),
		Address:     cell(colAddress),
		Phone:       cell(colPhone),
		Email:       cell(colEmail),
		Website:     cell(colWebsite),
		Category:    cell(colCategory),
		Description: cell(colDescription),
	}
}
