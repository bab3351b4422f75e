// Package report renders analysis runs as PDF and XLSX documents.
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"glyco/defs"
	"glyco/gvi"
)

const (
	timeFormat = "2006-01-02 15:04"
	sheetName  = "Report"

	// undefinedCell marks statistics that had no value for the series.
	undefinedCell = "n/a"
)

// Summary is everything a rendered report carries about one run.
type Summary struct {
	RunID    string
	Start    time.Time
	End      time.Time
	Unit     string
	Interval float64
	Results  []gvi.Result
}

// Filename names the report artifact for a run.
func Filename(runID, ext string) string {
	return fmt.Sprintf("gv-report-%s.%s", runID, ext)
}

func unitLabel(unit string) string {
	if unit == defs.UnitMmol {
		return "mmol/L"
	}
	return "mg/dL"
}

func formatValue(r gvi.Result) string {
	if !r.Defined() {
		return undefinedCell
	}
	return strconv.FormatFloat(r.Value, 'f', 3, 64)
}

// BuildPDF renders the summary as a single-page table.
func BuildPDF(s Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Glycemic Variability Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(40, 8, fmt.Sprintf("Run: %s", s.RunID))
	pdf.Ln(6)
	pdf.Cell(40, 8, fmt.Sprintf("Window: %s to %s", s.Start.Format(timeFormat), s.End.Format(timeFormat)))
	pdf.Ln(6)
	pdf.Cell(40, 8, fmt.Sprintf("Unit: %s, interval: %g min", unitLabel(s.Unit), s.Interval))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(90, 8, "Index", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, "Value", "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 11)
	for _, r := range s.Results {
		pdf.CellFormat(90, 8, r.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, formatValue(r), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("unable to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildXLSX renders the summary as a workbook, keeping defined values
// numeric so they stay usable in further analysis.
func BuildXLSX(s Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("unable to name sheet: %w", err)
	}

	meta := [][]interface{}{
		{"Run", s.RunID},
		{"Window start", s.Start.Format(timeFormat)},
		{"Window end", s.End.Format(timeFormat)},
		{"Unit", unitLabel(s.Unit)},
		{"Interval (min)", s.Interval},
	}
	for i, row := range meta {
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", i+1), row[0])
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", i+1), row[1])
	}

	headerRow := len(meta) + 2
	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", headerRow), "Index")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", headerRow), "Value")

	for i, r := range s.Results {
		row := headerRow + 1 + i
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.Name)
		if r.Defined() {
			_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.Value)
		} else {
			_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), undefinedCell)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("unable to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
