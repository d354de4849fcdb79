package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// sheetName makes a category name safe for excel: non-empty, at most 31
// runes.
func sheetName(category string) string {
	if category == "" {
		return "General"
	}
	runes := []rune(category)
	if len(runes) > 31 {
		return string(runes[:31])
	}
	return category
}

// WriteXLSX writes each group to its own sheet with a header row.
func WriteXLSX(path string, groups []Group) error {
	f := excelize.NewFile()
	defer f.Close()

	base := f.GetSheetName(0)
	for i, g := range groups {
		name := sheetName(g.Category)
		if i == 0 {
			if err := f.SetSheetName(base, name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %q: %w", name, err)
		}

		if err := f.SetSheetRow(name, "A1", &[]any{"question", "answer", "createdAt"}); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for r, row := range g.Rows {
			axis, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetSheetRow(name, axis, &[]any{row.Question, row.Answer, row.CreatedAt}); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
