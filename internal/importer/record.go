// Package importer parses question files (CSV, XLSX, JSON) into flat
// records and merges them into the store with category auto-creation and
// duplicate suppression.
package importer

// Record is one parsed row before normalization. Tab is the category
// display name; ID and CreatedAt are honored when the source provides them.
type Record struct {
	Tab       string
	Text      string
	ID        string
	CreatedAt int64
}
