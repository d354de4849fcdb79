package importer

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX walks every sheet of a workbook. Sheets with a recognizable
// text column use sniffed columns; sheets without one treat the first
// column as text and the sheet name as the category.
func ParseXLSX(path string) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var records []Record
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) < 2 {
			continue
		}

		header := rows[0]
		textIdx := findColumn(header, textColumns)
		if textIdx < 0 {
			// No text column: first column is the question, sheet is the tab.
			for _, row := range rows[1:] {
				text := strings.TrimSpace(cell(row, 0))
				if text == "" {
					continue
				}
				records = append(records, Record{Tab: sheet, Text: text})
			}
			continue
		}

		tabIdx := findColumn(header, tabColumns)
		idIdx := findColumn(header, idColumns)
		createdIdx := findColumn(header, createdColumns)
		for _, row := range rows[1:] {
			text := strings.TrimSpace(cell(row, textIdx))
			if text == "" {
				continue
			}
			tab := strings.TrimSpace(cell(row, tabIdx))
			if tabIdx < 0 {
				tab = sheet
			}
			records = append(records, Record{
				Tab:       tab,
				Text:      text,
				ID:        strings.TrimSpace(cell(row, idIdx)),
				CreatedAt: parseTimestamp(cell(row, createdIdx)),
			})
		}
	}
	return records, nil
}
