// Package deckimport loads front/back card pairs from spreadsheet files
// into a deck.
package deckimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one front/back pair read from a file. Line is 1-based.
type Row struct {
	Line  int
	Front string
	Back  string
}

// Options controls how a file is read.
type Options struct {
	// Sheet is the XLSX sheet to read. Empty selects the first sheet.
	Sheet string
	// SkipHeader drops the first row.
	SkipHeader bool
}

// ReadFile reads rows from a .csv, .tsv/.txt or .xlsx file. The first
// column is the front text and the second the back text; further columns
// are ignored.
func ReadFile(path string, opts Options) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadDelimited(f, ',', opts.SkipHeader)
	case ".tsv", ".txt":
		return ReadDelimited(f, '\t', opts.SkipHeader)
	case ".xlsx":
		return ReadXLSX(f, opts)
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}

// ReadDelimited reads rows separated by comma.
func ReadDelimited(r io.Reader, comma rune, skipHeader bool) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var rows []Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		line, _ := cr.FieldPos(0)
		if skipHeader && line == 1 {
			continue
		}
		rows = append(rows, toRow(line, record))
	}
	return rows, nil
}

// ReadXLSX reads rows from one sheet of a workbook.
func ReadXLSX(r io.Reader, opts Options) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	rows := make([]Row, 0, len(records))
	for i, record := range records {
		if opts.SkipHeader && i == 0 {
			continue
		}
		rows = append(rows, toRow(i+1, record))
	}
	return rows, nil
}

func toRow(line int, record []string) Row {
	row := Row{Line: line}
	if len(record) > 0 {
		row.Front = strings.TrimSpace(record[0])
	}
	if len(record) > 1 {
		row.Back = strings.TrimSpace(record[1])
	}
	return row
}
