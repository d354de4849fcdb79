package importer

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ymorita/soudan/internal/store"
)

// Plan is the result of normalizing parsed records against an existing
// store: only categories and questions that do not already exist.
type Plan struct {
	Categories []store.Category
	Questions  []store.Question
	Skipped    int
}

// Empty reports whether the plan adds nothing.
func (p Plan) Empty() bool {
	return len(p.Categories) == 0 && len(p.Questions) == 0
}

func dedupKey(category, text string) string {
	return strings.ToLower(strings.TrimSpace(category)) + "||" + strings.ToLower(strings.TrimSpace(text))
}

// Normalize dedups records against the store and against earlier rows of
// the same batch. A row whose category+text pair already exists is
// skipped; a row naming an unknown category introduces it, and later
// rows in the batch see the new category as existing.
func Normalize(records []Record, st *store.Store) Plan {
	var plan Plan

	seen := make(map[string]struct{})
	for _, q := range st.Questions() {
		seen[dedupKey(st.CategoryName(q.CategoryID), q.Text)] = struct{}{}
	}

	catByName := make(map[string]store.Category)
	usedIDs := make(map[string]bool)
	order := 0
	for _, c := range st.Categories() {
		catByName[c.Name] = c
		usedIDs[c.ID] = true
		if c.Order > order {
			order = c.Order
		}
	}

	now := time.Now().UnixMilli()
	for _, rec := range records {
		text := strings.TrimSpace(rec.Text)
		if text == "" {
			plan.Skipped++
			continue
		}
		tab := strings.TrimSpace(rec.Tab)
		if tab == "" {
			tab = store.UncategorizedName
		}

		key := dedupKey(tab, text)
		if _, dup := seen[key]; dup {
			plan.Skipped++
			continue
		}
		seen[key] = struct{}{}

		cat, ok := catByName[tab]
		if !ok {
			order++
			id := store.UniqueCategoryID(tab, func(candidate string) bool { return usedIDs[candidate] })
			cat = store.Category{ID: id, Name: tab, Order: order}
			catByName[tab] = cat
			usedIDs[id] = true
			plan.Categories = append(plan.Categories, cat)
		}

		q := store.Question{
			ID:         strings.TrimSpace(rec.ID),
			Text:       text,
			CreatedAt:  rec.CreatedAt,
			CategoryID: cat.ID,
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if q.CreatedAt == 0 {
			q.CreatedAt = now
		}
		plan.Questions = append(plan.Questions, q)
	}
	return plan
}

// Run parses a file, normalizes it against the store, and applies the
// resulting plan. It returns the plan so callers can report counts.
func Run(path string, st *store.Store) (Plan, error) {
	records, err := ParseFile(path)
	if err != nil {
		return Plan{}, err
	}
	plan := Normalize(records, st)
	if !plan.Empty() {
		st.ApplyImport(plan.Categories, plan.Questions)
	}
	return plan, nil
}
