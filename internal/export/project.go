package export

import (
	"time"

	"github.com/ymorita/soudan/internal/store"
)

// TimeLayout is the row timestamp format.
const TimeLayout = "06/01/02 15:04:05"

// Row is one answered question/answer pair ready for a writer.
type Row struct {
	Category  string `json:"category"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	CreatedAt string `json:"createdAt"`
}

// Group holds the rows of a single category, in store question order with
// answers most-recent-first.
type Group struct {
	Category string `json:"category"`
	Rows     []Row  `json:"rows"`
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).Format(TimeLayout)
}

// Project flattens the store into per-category groups. Only questions with
// at least one answer appear; categories with nothing answered are omitted.
func Project(st *store.Store) []Group {
	byCategory := make(map[string][]Row)
	for _, q := range st.Questions() {
		answers := st.Answers(q.ID)
		if len(answers) == 0 {
			continue
		}
		name := st.CategoryName(q.CategoryID)
		for _, a := range answers {
			byCategory[name] = append(byCategory[name], Row{
				Category:  name,
				Question:  q.Text,
				Answer:    a.Text,
				CreatedAt: formatMillis(a.CreatedAt),
			})
		}
	}
	if len(byCategory) == 0 {
		return nil
	}

	var groups []Group
	seen := make(map[string]bool)
	appendGroup := func(name string) {
		if rows, ok := byCategory[name]; ok && !seen[name] {
			seen[name] = true
			groups = append(groups, Group{Category: name, Rows: rows})
		}
	}
	for _, c := range st.Categories() {
		appendGroup(c.Name)
	}
	// Questions whose category is missing resolve to the uncategorized name.
	appendGroup(store.UncategorizedName)
	return groups
}

// Flatten concatenates all group rows in group order.
func Flatten(groups []Group) []Row {
	var rows []Row
	for _, g := range groups {
		rows = append(rows, g.Rows...)
	}
	return rows
}
