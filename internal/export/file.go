package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ymorita/soudan/internal/store"
)

// ErrUnsupportedExtension marks an export path without a known format.
var ErrUnsupportedExtension = errors.New("unsupported export format")

// ErrNothingToExport marks a store with no answered questions.
var ErrNothingToExport = errors.New("nothing to export")

// WriteFile projects the store and writes it in the format implied by the
// file extension (.csv, .xlsx, .json).
func WriteFile(path string, st *store.Store) error {
	groups := Project(st)
	if len(groups) == 0 {
		return ErrNothingToExport
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return WriteXLSX(path, groups)
	case ".csv", ".json":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		if strings.ToLower(filepath.Ext(path)) == ".csv" {
			if err := WriteCSV(f, groups); err != nil {
				return err
			}
		} else if err := WriteJSON(f, groups); err != nil {
			return err
		}
		return f.Close()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedExtension, filepath.Ext(path))
	}
}
