package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrUnsupportedExtension indicates a file type no parser handles.
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	// ErrMissingTextColumn indicates a tabular file without a usable text column.
	ErrMissingTextColumn = errors.New("missing required text column")
)

// Column-name synonyms recognized across formats, compared lowercase.
var (
	textColumns    = []string{"text", "question", "質問"}
	tabColumns     = []string{"tab", "category", "カテゴリ"}
	idColumns      = []string{"id"}
	createdColumns = []string{"createdat", "created_at", "作成日時"}
)

// ParseFile dispatches on the file extension. Any parser failure rejects
// the whole file; no partial recovery is attempted.
func ParseFile(path string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return ParseCSV(f)
	case ".xlsx":
		return ParseXLSX(path)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return ParseJSON(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExtension, filepath.Ext(path))
	}
}

// ParseCSV reads a header-based CSV with sniffed column names.
func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrMissingTextColumn
	}

	header := rows[0]
	textIdx := findColumn(header, textColumns)
	if textIdx < 0 {
		return nil, ErrMissingTextColumn
	}
	tabIdx := findColumn(header, tabColumns)
	idIdx := findColumn(header, idColumns)
	createdIdx := findColumn(header, createdColumns)

	var records []Record
	for _, row := range rows[1:] {
		text := strings.TrimSpace(cell(row, textIdx))
		if text == "" {
			continue
		}
		records = append(records, Record{
			Tab:       strings.TrimSpace(cell(row, tabIdx)),
			Text:      text,
			ID:        strings.TrimSpace(cell(row, idIdx)),
			CreatedAt: parseTimestamp(cell(row, createdIdx)),
		})
	}
	return records, nil
}

// findColumn locates the first header matching any synonym, ignoring case.
func findColumn(header []string, synonyms []string) int {
	for i, name := range header {
		lowered := strings.ToLower(strings.TrimSpace(name))
		for _, want := range synonyms {
			if lowered == want {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseTimestamp reads a unix-milliseconds value, tolerating blanks and
// garbage as zero (caller substitutes current time).
func parseTimestamp(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
		return int64(v)
	}
	return 0
}
