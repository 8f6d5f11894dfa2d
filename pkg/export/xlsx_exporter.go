package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of a workbook export.
type Sheet struct {
	Name    string
	Title   string
	Headers []string
	Rows    [][]string
}

// XLSXExporter renders sheets into an Excel workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes every sheet with a merged title row, a styled header row and the body.
func (e *XLSXExporter) Render(sheets []Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one sheet")
	}
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create body style: %w", err)
	}

	for i, sheet := range sheets {
		if len(sheet.Headers) == 0 {
			return nil, fmt.Errorf("sheet %q requires at least one header", sheet.Name)
		}
		name := sheetName(sheet.Name, i)
		idx, err := f.NewSheet(name)
		if err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := writeSheet(f, name, sheet, headerStyle, bodyStyle); err != nil {
			return nil, err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, sheet Sheet, headerStyle, bodyStyle int) error {
	lastCol := colName(len(sheet.Headers) - 1)
	row := 1
	if sheet.Title != "" {
		if err := f.SetCellValue(name, cell("A", row), sheet.Title); err != nil {
			return fmt.Errorf("write title: %w", err)
		}
		if len(sheet.Headers) > 1 {
			if err := f.MergeCell(name, cell("A", row), cell(lastCol, row)); err != nil {
				return fmt.Errorf("merge title: %w", err)
			}
		}
		row++
	}

	for i, h := range sheet.Headers {
		if err := f.SetCellValue(name, cell(colName(i), row), h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := f.SetCellStyle(name, cell("A", row), cell(lastCol, row), headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(name, "A", "A", 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if len(sheet.Headers) > 1 {
		if err := f.SetColWidth(name, "B", lastCol, 24); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	first := row + 1
	for _, values := range sheet.Rows {
		row++
		for i, v := range values {
			if i >= len(sheet.Headers) {
				break
			}
			if err := f.SetCellValue(name, cell(colName(i), row), v); err != nil {
				return fmt.Errorf("write cell: %w", err)
			}
		}
	}
	if row >= first {
		if err := f.SetCellStyle(name, cell("A", first), cell(lastCol, row), bodyStyle); err != nil {
			return fmt.Errorf("style body: %w", err)
		}
	}
	return nil
}

// sheetName trims names to the 31 characters Excel allows.
func sheetName(name string, idx int) string {
	if name == "" {
		name = fmt.Sprintf("Sheet %d", idx+1)
	}
	runes := []rune(name)
	if len(runes) > 31 {
		runes = runes[:31]
	}
	return string(runes)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
