package store

import "encoding/json"

// Snapshot is the full persisted state tuple. It is a pure function of the
// in-memory collections plus the persisted view selections.
type Snapshot struct {
	Categories              []Category          `json:"categories"`
	Questions               []Question          `json:"questions"`
	Answers                 map[string][]Answer `json:"answers"`
	ActiveCategoryID        string              `json:"activeCategoryId"`
	ActiveTab               Tab                 `json:"activeTab"`
	ActiveHistoryCategoryID string              `json:"activeHistoryCategoryId"`
}

// EmptySnapshot returns the initial state used on first run and on corruption.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Categories:              []Category{},
		Questions:               []Question{},
		Answers:                 map[string][]Answer{},
		ActiveCategoryID:        AllCategories,
		ActiveTab:               TabUnanswered,
		ActiveHistoryCategoryID: AllCategories,
	}
}

// Encode serializes the snapshot for the persistence sink.
func (s Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses a stored snapshot. Malformed input yields the empty
// initial state rather than an error; partial input is normalized.
func DecodeSnapshot(raw []byte) Snapshot {
	if len(raw) == 0 {
		return EmptySnapshot()
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return EmptySnapshot()
	}
	return normalize(s)
}

// normalize enforces the snapshot invariants: defaulted selections, no nil
// collections, no empty answer sequences, and done flags derived from the
// answer map.
func normalize(s Snapshot) Snapshot {
	if s.Categories == nil {
		s.Categories = []Category{}
	}
	if s.Questions == nil {
		s.Questions = []Question{}
	}
	if s.Answers == nil {
		s.Answers = map[string][]Answer{}
	}
	if s.ActiveCategoryID == "" {
		s.ActiveCategoryID = AllCategories
	}
	if s.ActiveTab != TabAnswered {
		s.ActiveTab = TabUnanswered
	}
	if s.ActiveHistoryCategoryID == "" {
		s.ActiveHistoryCategoryID = AllCategories
	}

	for id, answers := range s.Answers {
		if len(answers) == 0 {
			delete(s.Answers, id)
		}
	}
	for i := range s.Questions {
		_, answered := s.Answers[s.Questions[i].ID]
		s.Questions[i].Done = answered
	}
	return s
}

// clone deep-copies a snapshot so callers never alias store internals.
func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		Categories:              append([]Category(nil), s.Categories...),
		Questions:               append([]Question(nil), s.Questions...),
		Answers:                 make(map[string][]Answer, len(s.Answers)),
		ActiveCategoryID:        s.ActiveCategoryID,
		ActiveTab:               s.ActiveTab,
		ActiveHistoryCategoryID: s.ActiveHistoryCategoryID,
	}
	if out.Categories == nil {
		out.Categories = []Category{}
	}
	if out.Questions == nil {
		out.Questions = []Question{}
	}
	for id, answers := range s.Answers {
		out.Answers[id] = append([]Answer(nil), answers...)
	}
	return out
}
