// Package spreadsheet renders a reviewed dataset as an .xlsx workbook, so the
// edited table can be kept alongside the generated summary document.
package spreadsheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/dutysummary/internal/core"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names.
const (
	RowsSheet   = "值班记录"
	TotalsSheet = "汇总"
)

// Build creates a workbook with a rows sheet and a totals sheet. The totals
// sheet also carries the problems summary and the dataset fingerprint.
func Build(d *core.ReportDataset) (*excelize.File, error) {
	if d == nil {
		return nil, core.ErrNoDataset
	}

	f := excelize.NewFile()
	if err := build(f, d); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func build(f *excelize.File, d *core.ReportDataset) error {
	if err := f.SetSheetName("Sheet1", RowsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	header := make([]interface{}, len(core.FieldSpecs))
	for i, spec := range core.FieldSpecs {
		header[i] = spec.Label
	}
	if err := setRow(f, RowsSheet, 1, header); err != nil {
		return err
	}
	if err := f.SetRowStyle(RowsSheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", RowsSheet, err)
	}

	for r, row := range d.Rows {
		values := make([]interface{}, len(core.FieldSpecs))
		for c, spec := range core.FieldSpecs {
			switch spec.Field {
			case core.FieldShelving:
				values[c] = int(row.Shelving)
			case core.FieldCorrection:
				values[c] = int(row.Correction)
			default:
				values[c] = row.Value(spec.Field)
			}
		}
		if err := setRow(f, RowsSheet, r+2, values); err != nil {
			return err
		}
	}
	if err := setColWidths(f, RowsSheet, []colWidth{
		{"A", "B", 14},
		{"C", "D", 10},
		{"E", "F", 20},
	}); err != nil {
		return err
	}

	if _, err := f.NewSheet(TotalsSheet); err != nil {
		return fmt.Errorf("create totals sheet: %w", err)
	}
	totals := [][]interface{}{
		{"指标", "数值"},
		{"总人数", d.Totals.Assistants},
		{"总班次", d.Totals.Shifts},
		{"上书量合计", d.Totals.Shelving},
		{"纠错量合计", d.Totals.Corrections},
		{"存在问题", d.Problems},
		{"版本", core.Fingerprint(d)},
	}
	for i, row := range totals {
		if err := setRow(f, TotalsSheet, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(TotalsSheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", TotalsSheet, err)
	}
	return setColWidths(f, TotalsSheet, []colWidth{
		{"A", "A", 14},
		{"B", "B", 40},
	})
}

// setRow writes values into consecutive cells of one row, starting at
// column A.
func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, row, err)
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return fmt.Errorf("%s cell %s: %w", sheet, cell, err)
		}
	}
	return nil
}

type colWidth struct {
	first, last string
	width       float64
}

func setColWidths(f *excelize.File, sheet string, widths []colWidth) error {
	for _, w := range widths {
		if err := f.SetColWidth(sheet, w.first, w.last, w.width); err != nil {
			return fmt.Errorf("%s column width %s-%s: %w", sheet, w.first, w.last, err)
		}
	}
	return nil
}

// Render builds the workbook and returns its bytes.
func Render(d *core.ReportDataset) ([]byte, error) {
	f, err := Build(d)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
