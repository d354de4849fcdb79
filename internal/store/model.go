// Package store holds the category, question, and answer collections and
// their persistent snapshot boundary.
package store

import (
	"fmt"
	"strings"
	"unicode"
)

// AllCategories is the pseudo category id meaning "no category filter".
const AllCategories = "all_cats"

// UncategorizedName labels questions whose category cannot be resolved.
const UncategorizedName = "未分類"

// Tab selects between the unanswered and answered question views.
type Tab string

const (
	TabUnanswered Tab = "unanswered"
	TabAnswered   Tab = "answered"
)

// Category groups questions. Order defines tab sequence.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Question is one importable/answerable item. Done is derived: it is true
// iff at least one answer exists for the question.
type Question struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	CreatedAt  int64  `json:"createdAt"`
	Done       bool   `json:"done"`
	CategoryID string `json:"categoryId"`
}

// AnswerMeta carries the category at answer time and the OTHER origin mark.
type AnswerMeta struct {
	CategoryID  string `json:"categoryId"`
	IsFromOther bool   `json:"isFromOther,omitempty"`
}

// Answer is one confirmed answer. Sequences are kept most-recent-first.
type Answer struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	CreatedAt int64      `json:"createdAt"`
	Meta      AnswerMeta `json:"meta"`
}

// CategorySlugID derives a stable category id from a display name. ASCII
// names become a lowercase slug; names with no ASCII material fall back to
// a stable base-36 hash so the id never depends on insertion order.
func CategorySlugID(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	slug := b.String()
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if slug != "" && strings.Trim(slug, "_") != "" {
		return "cat_" + slug
	}

	var h uint32
	for _, r := range name {
		h = h*31 + uint32(r)
	}
	hash := formatBase36(h)
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return "cat_t_" + hash
}

// UniqueCategoryID derives a slug id for name, suffixing it numerically
// when distinct names collapse to the same slug ("Q&A" and "QA").
func UniqueCategoryID(name string, taken func(id string) bool) string {
	id := CategorySlugID(name)
	if !taken(id) {
		return id
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", id, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

const base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"

func formatBase36(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = base36Digits[v%36]
		v /= 36
	}
	return string(buf[i:])
}
