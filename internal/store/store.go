package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrQuestionNotFound indicates a mutation referenced an unknown question.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAnswerNotFound indicates a mutation referenced an unknown answer.
	ErrAnswerNotFound = errors.New("answer not found")
)

// Saver persists a snapshot after each store mutation.
type Saver interface {
	Save(Snapshot) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(Snapshot) error

func (f SaverFunc) Save(s Snapshot) error { return f(s) }

// Store owns the in-memory collections. Every mutation is atomic under the
// store lock and followed by a full snapshot write through the saver.
type Store struct {
	logger *slog.Logger
	saver  Saver

	mu   sync.RWMutex
	snap Snapshot
}

// New constructs an empty store. A nil saver disables persistence.
func New(logger *slog.Logger, saver Saver) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if saver == nil {
		saver = SaverFunc(func(Snapshot) error { return nil })
	}
	return &Store{logger: logger, saver: saver, snap: EmptySnapshot()}
}

// Load replaces the store contents with a normalized snapshot.
func (s *Store) Load(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = normalize(snap.clone())
}

// Snapshot returns a deep copy of the current state tuple.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Categories returns all categories sorted by display order.
func (s *Store) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]Category(nil), s.snap.Categories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Question looks up one question by id.
func (s *Store) Question(id string) (Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.snap.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Questions returns all questions in store order.
func (s *Store) Questions() []Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Question(nil), s.snap.Questions...)
}

// Answers returns the answer history for a question, most recent first.
func (s *Store) Answers(questionID string) []Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Answer(nil), s.snap.Answers[questionID]...)
}

// CategoryName resolves a category id to its display name. Dangling ids
// resolve to the uncategorized label, never an error.
func (s *Store) CategoryName(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categoryNameLocked(id)
}

func (s *Store) categoryNameLocked(id string) string {
	for _, c := range s.snap.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return UncategorizedName
}

// Category looks up one category by id.
func (s *Store) Category(id string) (Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.snap.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryByName finds a category by exact name.
func (s *Store) CategoryByName(name string) (Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.snap.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// FirstCategory returns the lowest-order category when any exist.
func (s *Store) FirstCategory() (Category, bool) {
	cats := s.Categories()
	if len(cats) == 0 {
		return Category{}, false
	}
	return cats[0], true
}

// EnsureCategory returns the category with the given name, materializing it
// with a deterministic slug id and next display order when missing.
func (s *Store) EnsureCategory(name string) Category {
	name = strings.TrimSpace(name)
	if name == "" {
		name = UncategorizedName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.snap.Categories {
		if c.Name == name {
			return c
		}
	}
	id := UniqueCategoryID(name, func(candidate string) bool {
		for _, c := range s.snap.Categories {
			if c.ID == candidate {
				return true
			}
		}
		return false
	})
	cat := Category{ID: id, Name: name, Order: s.maxOrderLocked() + 1}
	s.snap.Categories = append(s.snap.Categories, cat)
	s.persistLocked()
	return cat
}

func (s *Store) maxOrderLocked() int {
	max := 0
	for _, c := range s.snap.Categories {
		if c.Order > max {
			max = c.Order
		}
	}
	return max
}

// PrependAnswer records a confirmed answer at the head of a question's
// history and marks the question done.
func (s *Store) PrependAnswer(questionID, text string, isFromOther bool) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, q := range s.snap.Questions {
		if q.ID == questionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Answer{}, fmt.Errorf("prepend answer to %q: %w", questionID, ErrQuestionNotFound)
	}

	answer := Answer{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: time.Now().UnixMilli(),
		Meta: AnswerMeta{
			CategoryID:  s.snap.Questions[idx].CategoryID,
			IsFromOther: isFromOther,
		},
	}
	s.snap.Answers[questionID] = append([]Answer{answer}, s.snap.Answers[questionID]...)
	s.snap.Questions[idx].Done = true
	s.persistLocked()
	return answer, nil
}

// CreateAnsweredQuestion materializes a question plus its first answer in a
// single atomic update. Used when an OTHER capture is confirmed.
func (s *Store) CreateAnsweredQuestion(text, answerText, categoryID string) (Question, Answer) {
	now := time.Now().UnixMilli()
	question := Question{
		ID:         uuid.NewString(),
		Text:       text,
		CreatedAt:  now,
		Done:       true,
		CategoryID: categoryID,
	}
	answer := Answer{
		ID:        uuid.NewString(),
		Text:      answerText,
		CreatedAt: now,
		Meta:      AnswerMeta{CategoryID: categoryID, IsFromOther: true},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Questions = append(s.snap.Questions, question)
	s.snap.Answers[question.ID] = []Answer{answer}
	s.persistLocked()
	return question, answer
}

// DeleteAnswer removes one answer. Deleting the last answer drops the
// question's history entry and reverts its done flag.
func (s *Store) DeleteAnswer(questionID, answerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers, ok := s.snap.Answers[questionID]
	if !ok {
		return fmt.Errorf("delete answer %q: %w", answerID, ErrAnswerNotFound)
	}
	kept := answers[:0:0]
	found := false
	for _, a := range answers {
		if a.ID == answerID {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return fmt.Errorf("delete answer %q: %w", answerID, ErrAnswerNotFound)
	}

	if len(kept) == 0 {
		delete(s.snap.Answers, questionID)
		for i := range s.snap.Questions {
			if s.snap.Questions[i].ID == questionID {
				s.snap.Questions[i].Done = false
			}
		}
	} else {
		s.snap.Answers[questionID] = kept
	}
	s.persistLocked()
	return nil
}

// EditAnswer replaces an answer's text and refreshes its timestamp.
func (s *Store) EditAnswer(questionID, answerID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers, ok := s.snap.Answers[questionID]
	if !ok {
		return fmt.Errorf("edit answer %q: %w", answerID, ErrAnswerNotFound)
	}
	for i := range answers {
		if answers[i].ID == answerID {
			answers[i].Text = text
			answers[i].CreatedAt = time.Now().UnixMilli()
			s.persistLocked()
			return nil
		}
	}
	return fmt.Errorf("edit answer %q: %w", answerID, ErrAnswerNotFound)
}

// PurgeAll wipes every collection and resets the view selections.
func (s *Store) PurgeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = EmptySnapshot()
	s.persistLocked()
}

// Filtered returns questions matching the category, tab, and query filters,
// preserving store order.
func (s *Store) Filtered(categoryID string, tab Tab, query string) []Question {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	var out []Question
	for _, q := range s.snap.Questions {
		if categoryID != "" && categoryID != AllCategories && q.CategoryID != categoryID {
			continue
		}
		switch tab {
		case TabUnanswered:
			if q.Done {
				continue
			}
		case TabAnswered:
			if !q.Done {
				continue
			}
		}
		if query != "" && !strings.Contains(strings.ToLower(q.Text), query) {
			continue
		}
		out = append(out, q)
	}
	return out
}

// ApplyImport adds pre-validated categories and questions from one import
// batch as a single atomic update.
func (s *Store) ApplyImport(categories []Category, questions []Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Categories = append(s.snap.Categories, categories...)
	s.snap.Questions = append(s.snap.Questions, questions...)
	s.persistLocked()
}

// ActiveCategory returns the persisted question-list category selection.
func (s *Store) ActiveCategory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.ActiveCategoryID
}

func (s *Store) SetActiveCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = AllCategories
	}
	s.snap.ActiveCategoryID = id
	s.persistLocked()
}

// ActiveTab returns the persisted answered/unanswered tab selection.
func (s *Store) ActiveTab() Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.ActiveTab
}

func (s *Store) SetActiveTab(tab Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tab != TabAnswered {
		tab = TabUnanswered
	}
	s.snap.ActiveTab = tab
	s.persistLocked()
}

// ActiveHistoryCategory returns the persisted history-view category filter.
func (s *Store) ActiveHistoryCategory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.ActiveHistoryCategoryID
}

func (s *Store) SetActiveHistoryCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = AllCategories
	}
	s.snap.ActiveHistoryCategoryID = id
	s.persistLocked()
}

// persistLocked writes the snapshot through the saver. Save failures are
// logged and do not roll back the in-memory mutation.
func (s *Store) persistLocked() {
	if err := s.saver.Save(s.snap.clone()); err != nil {
		s.logger.Error("snapshot save failed", "error", err.Error())
	}
}
