package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/macrodash/pkg/core"
)

// maxSheetName is Excel's sheet name length limit.
const maxSheetName = 31

// WriteXLSX writes t to a single-sheet workbook named after the group.
func WriteXLSX(w io.Writer, t *core.PeriodIndexedTable) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := sheetName(t.Group)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := fillSheet(f, sheet, t); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveXLSXWorkbook writes one sheet per table to path.
func SaveXLSXWorkbook(path string, tables []*core.PeriodIndexedTable) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, t := range tables {
		sheet := sheetName(t.Group)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("failed to name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}
		if err := fillSheet(f, sheet, t); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func fillSheet(f *excelize.File, sheet string, t *core.PeriodIndexedTable) error {
	headers := append([]string{PeriodColumn}, t.Indicators...)
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		col, _, _ := excelize.SplitCellName(cell)
		if err := f.SetColWidth(sheet, col, col, 16); err != nil {
			return err
		}
	}

	for i, p := range t.Periods {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, cell, p.Label()); err != nil {
			return err
		}
		for j, v := range t.Values[i] {
			if !v.Valid {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(j+2, row)
			if err := f.SetCellValue(sheet, cell, v.Float); err != nil {
				return err
			}
		}
	}
	return nil
}

// sheetName trims a group label to a valid sheet name.
func sheetName(group string) string {
	if group == "" {
		return "Series"
	}
	r := []rune(group)
	for i, c := range r {
		switch c {
		case ':', '\\', '/', '?', '*', '[', ']':
			r[i] = '_'
		}
	}
	if len(r) > maxSheetName {
		r = r[:maxSheetName]
	}
	return string(r)
}
