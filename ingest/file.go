package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"glyco/defs"
)

// timeFormats are tried in order when parsing a timestamp cell.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02-01-2006 15:04",
	"01/02/2006 15:04",
}

// ReadFile loads a two-column export, timestamp then glucose, picking
// the parser by extension.
func ReadFile(path string) ([]defs.Reading, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
}

func ReadCSV(r io.Reader) ([]defs.Reading, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read csv: %w", err)
	}
	return rowsToReadings(rows)
}

func ReadXLSX(path string) ([]defs.Reading, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets: %s", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet %q: %w", sheets[0], err)
	}
	return rowsToReadings(rows)
}

// rowsToReadings parses raw rows into readings. A first row whose
// timestamp does not parse is treated as a header; later ones are
// errors. A glucose cell that is empty, absent, or unparsable becomes a
// missing sample rather than dropping the slot. Workbook rows drop
// their trailing empty cells, so a row may arrive with the timestamp
// alone.
func rowsToReadings(rows [][]string) ([]defs.Reading, error) {
	var rs []defs.Reading
	for i, row := range rows {
		if emptyRow(row) {
			continue
		}

		ts, err := parseTime(strings.TrimSpace(row[0]))
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		value := defs.Missing()
		if len(row) > 1 {
			if cell := strings.TrimSpace(row[1]); cell != "" {
				if v, err := strconv.ParseFloat(cell, 64); err == nil {
					value = v
				}
			}
		}

		rs = append(rs, defs.Reading{Time: ts, Value: value})
	}
	return rs, nil
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseTime(cell string) (time.Time, error) {
	for _, layout := range timeFormats {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", cell)
}
