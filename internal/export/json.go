package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON writes the groups as a pretty-printed array.
func WriteJSON(w io.Writer, groups []Group) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if groups == nil {
		groups = []Group{}
	}
	if err := enc.Encode(groups); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
