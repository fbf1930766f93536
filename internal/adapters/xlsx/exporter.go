// Package xlsx renders reports as Excel workbooks.
package xlsx

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/example/mes/internal/ports/secondary"
)

// ContentType is the MIME type of the produced workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names of the production workbook.
const (
	SheetSummary  = "Summary"
	SheetProducts = "By Product"
	SheetDays     = "By Date"
)

var valueHeaders = []string{"Ordered", "Produced", "Rate (%)"}

// Exporter implements secondary.SpreadsheetExporter with excelize.
type Exporter struct{}

func NewExporter() *Exporter { return &Exporter{} }

var _ secondary.SpreadsheetExporter = (*Exporter)(nil)

// ExportProduction writes a Summary sheet with the period totals and one
// sheet each for the per-product and per-day breakdowns.
func (e *Exporter) ExportProduction(report secondary.ProductionReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	summary := [][]any{
		{"Production Summary"},
		{"Period start", report.Start.Format("2006-01-02")},
		{"Period end", report.End.Format("2006-01-02")},
		{"Total ordered", report.TotalQuantityOrdered},
		{"Total produced", report.TotalQuantityProduced},
		{"Production rate (%)", report.ProductionRate},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return nil, fmt.Errorf("write summary: %w", err)
		}
	}
	f.SetCellStyle(SheetSummary, "A1", "A1", boldStyle)
	f.SetColWidth(SheetSummary, "A", "A", 22)
	f.SetColWidth(SheetSummary, "B", "B", 14)

	if err := writeRows(f, SheetProducts, "Product", report.Products, boldStyle); err != nil {
		return nil, err
	}
	if err := writeRows(f, SheetDays, "Date", report.Days, boldStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet, label string, rows []secondary.ProductionRow, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	headers := append([]string{label}, valueHeaders...)
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, r := range rows {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Label)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.Ordered)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.Produced)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.Rate)
	}

	f.SetColWidth(sheet, "A", "A", 24)
	f.SetColWidth(sheet, "B", "D", 12)
	return nil
}
