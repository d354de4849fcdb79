package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

var csvHeader = []string{"category", "question", "answer", "createdAt"}

// WriteCSV writes every group as a flat table with a single header row.
func WriteCSV(w io.Writer, groups []Group) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range Flatten(groups) {
		if err := cw.Write([]string{row.Category, row.Question, row.Answer, row.CreatedAt}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
