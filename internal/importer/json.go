package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnsupportedSchema indicates JSON input that is neither a flat record
// array nor the nested tabs shape.
var ErrUnsupportedSchema = errors.New("json schema not supported")

type jsonRecord struct {
	Tab       string      `json:"tab"`
	Text      string      `json:"text"`
	ID        string      `json:"id"`
	CreatedAt json.Number `json:"createdAt"`
}

type jsonNested struct {
	Tabs []struct {
		Name  string       `json:"name"`
		Items []jsonRecord `json:"items"`
	} `json:"tabs"`
}

// ParseJSON accepts either a flat array of records or a nested
// {tabs:[{name,items}]} document.
func ParseJSON(r io.Reader) ([]Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}

	var flat []jsonRecord
	if err := json.Unmarshal(raw, &flat); err == nil {
		return fromJSONRecords("", flat), nil
	}

	var nested jsonNested
	if err := json.Unmarshal(raw, &nested); err == nil && nested.Tabs != nil {
		var out []Record
		for _, tab := range nested.Tabs {
			out = append(out, fromJSONRecords(tab.Name, tab.Items)...)
		}
		return out, nil
	}

	return nil, ErrUnsupportedSchema
}

// fromJSONRecords converts parsed rows, dropping blank text and applying a
// tab override for the nested shape.
func fromJSONRecords(tabOverride string, rows []jsonRecord) []Record {
	var out []Record
	for _, row := range rows {
		text := strings.TrimSpace(row.Text)
		if text == "" {
			continue
		}
		tab := strings.TrimSpace(row.Tab)
		if tabOverride != "" {
			tab = strings.TrimSpace(tabOverride)
		}
		out = append(out, Record{
			Tab:       tab,
			Text:      text,
			ID:        strings.TrimSpace(row.ID),
			CreatedAt: numberToMillis(row.CreatedAt),
		})
	}
	return out
}

func numberToMillis(n json.Number) int64 {
	if n == "" {
		return 0
	}
	if v, err := n.Float64(); err == nil && v > 0 {
		return int64(v)
	}
	return 0
}
