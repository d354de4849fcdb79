package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func seedQuestion(t *testing.T, s *Store, text, categoryName string) Question {
	t.Helper()
	cat := s.EnsureCategory(categoryName)
	q := Question{ID: "q_" + text, Text: text, CreatedAt: 1, CategoryID: cat.ID}
	s.ApplyImport(nil, []Question{q})
	got, ok := s.Question(q.ID)
	require.True(t, ok)
	return got
}

func TestPrependAnswerMarksDoneAndOrdersMostRecentFirst(t *testing.T) {
	s := New(nil, nil)
	q := seedQuestion(t, s, "返金方法は？", "一般")

	first, err := s.PrependAnswer(q.ID, "最初の回答", false)
	require.NoError(t, err)
	second, err := s.PrependAnswer(q.ID, "新しい回答", false)
	require.NoError(t, err)

	got, ok := s.Question(q.ID)
	require.True(t, ok)
	require.True(t, got.Done)

	answers := s.Answers(q.ID)
	require.Len(t, answers, 2)
	require.Equal(t, second.ID, answers[0].ID)
	require.Equal(t, first.ID, answers[1].ID)
	require.Equal(t, q.CategoryID, answers[0].Meta.CategoryID)
}

func TestPrependAnswerUnknownQuestion(t *testing.T) {
	s := New(nil, nil)
	_, err := s.PrependAnswer("missing", "text", false)
	require.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestDeleteLastAnswerRevertsDoneFlag(t *testing.T) {
	s := New(nil, nil)
	q := seedQuestion(t, s, "配送日数は？", "一般")
	answer, err := s.PrependAnswer(q.ID, "三日です", false)
	require.NoError(t, err)

	require.NoError(t, s.DeleteAnswer(q.ID, answer.ID))

	got, ok := s.Question(q.ID)
	require.True(t, ok)
	require.False(t, got.Done)
	require.Empty(t, s.Answers(q.ID))
	_, exists := s.Snapshot().Answers[q.ID]
	require.False(t, exists, "empty history must be dropped from the answers map")
}

func TestDeleteAnswerKeepsRemainingHistory(t *testing.T) {
	s := New(nil, nil)
	q := seedQuestion(t, s, "営業時間は？", "一般")
	a1, err := s.PrependAnswer(q.ID, "9時から", false)
	require.NoError(t, err)
	a2, err := s.PrependAnswer(q.ID, "訂正 10時から", false)
	require.NoError(t, err)

	require.NoError(t, s.DeleteAnswer(q.ID, a2.ID))

	answers := s.Answers(q.ID)
	require.Len(t, answers, 1)
	require.Equal(t, a1.ID, answers[0].ID)
	got, _ := s.Question(q.ID)
	require.True(t, got.Done)
}

func TestEditAnswerUpdatesTextAndTimestamp(t *testing.T) {
	s := New(nil, nil)
	q := seedQuestion(t, s, "質問", "一般")
	answer, err := s.PrependAnswer(q.ID, "古い回答", false)
	require.NoError(t, err)

	require.NoError(t, s.EditAnswer(q.ID, answer.ID, "修正済みの回答"))
	answers := s.Answers(q.ID)
	require.Equal(t, "修正済みの回答", answers[0].Text)
	require.GreaterOrEqual(t, answers[0].CreatedAt, answer.CreatedAt)

	require.ErrorIs(t, s.EditAnswer(q.ID, "missing", "x"), ErrAnswerNotFound)
}

func TestCreateAnsweredQuestionIsAtomic(t *testing.T) {
	s := New(nil, nil)
	cat := s.EnsureCategory("一般")

	q, a := s.CreateAnsweredQuestion("テスト回答", "テスト回答", cat.ID)

	got, ok := s.Question(q.ID)
	require.True(t, ok)
	require.True(t, got.Done)
	require.Equal(t, cat.ID, got.CategoryID)

	answers := s.Answers(q.ID)
	require.Len(t, answers, 1)
	require.Equal(t, a.ID, answers[0].ID)
	require.True(t, answers[0].Meta.IsFromOther)
}

func TestEnsureCategoryIsIdempotentAndOrdersSequentially(t *testing.T) {
	s := New(nil, nil)

	first := s.EnsureCategory("一般")
	again := s.EnsureCategory("一般")
	second := s.EnsureCategory("契約")

	require.Equal(t, first, again)
	require.Equal(t, 1, first.Order)
	require.Equal(t, 2, second.Order)
	require.Len(t, s.Categories(), 2)
}

func TestEnsureCategoryDisambiguatesCollidingSlugs(t *testing.T) {
	s := New(nil, nil)

	qa := s.EnsureCategory("Q&A")
	qa2 := s.EnsureCategory("QA")
	qa3 := s.EnsureCategory("Q-A")

	require.Equal(t, "cat_qa", qa.ID)
	require.Equal(t, "cat_qa_2", qa2.ID)
	require.Equal(t, "cat_qa_3", qa3.ID)
	require.Len(t, s.Categories(), 3)
}

func TestEnsureCategoryBlankNameFallsBackToUncategorized(t *testing.T) {
	s := New(nil, nil)
	cat := s.EnsureCategory("  ")
	require.Equal(t, UncategorizedName, cat.Name)
}

func TestCategoryNameFallsBackForDanglingID(t *testing.T) {
	s := New(nil, nil)
	require.Equal(t, UncategorizedName, s.CategoryName("cat_missing"))
}

func TestFiltered(t *testing.T) {
	s := New(nil, nil)
	general := s.EnsureCategory("一般")
	billing := s.EnsureCategory("請求")
	s.ApplyImport(nil, []Question{
		{ID: "q1", Text: "返金方法は？", CategoryID: general.ID},
		{ID: "q2", Text: "請求書の再発行", CategoryID: billing.ID},
		{ID: "q3", Text: "返金の期限", CategoryID: billing.ID},
	})
	_, err := s.PrependAnswer("q2", "回答済み", false)
	require.NoError(t, err)

	tests := []struct {
		name     string
		category string
		tab      Tab
		query    string
		wantIDs  []string
	}{
		{name: "all unanswered", category: AllCategories, tab: TabUnanswered, wantIDs: []string{"q1", "q3"}},
		{name: "all answered", category: AllCategories, tab: TabAnswered, wantIDs: []string{"q2"}},
		{name: "category filter", category: billing.ID, tab: TabUnanswered, wantIDs: []string{"q3"}},
		{name: "query filter", category: AllCategories, tab: TabUnanswered, query: "期限", wantIDs: []string{"q3"}},
		{name: "query no match", category: AllCategories, tab: TabUnanswered, query: "存在しない", wantIDs: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Filtered(tc.category, tc.tab, tc.query)
			var ids []string
			for _, q := range got {
				ids = append(ids, q.ID)
			}
			require.Equal(t, tc.wantIDs, ids)
		})
	}
}

func TestPurgeAllResetsSelections(t *testing.T) {
	s := New(nil, nil)
	seedQuestion(t, s, "質問", "一般")
	s.SetActiveTab(TabAnswered)
	s.SetActiveCategory("cat_x")
	s.SetActiveHistoryCategory("cat_x")

	s.PurgeAll()

	snap := s.Snapshot()
	require.Empty(t, snap.Categories)
	require.Empty(t, snap.Questions)
	require.Empty(t, snap.Answers)
	require.Equal(t, AllCategories, snap.ActiveCategoryID)
	require.Equal(t, TabUnanswered, snap.ActiveTab)
	require.Equal(t, AllCategories, snap.ActiveHistoryCategoryID)
}

func TestEveryMutationTriggersSave(t *testing.T) {
	saves := 0
	s := New(nil, SaverFunc(func(Snapshot) error {
		saves++
		return nil
	}))

	q := seedQuestion(t, s, "質問", "一般") // EnsureCategory + ApplyImport
	require.Equal(t, 2, saves)

	a, err := s.PrependAnswer(q.ID, "回答", false)
	require.NoError(t, err)
	require.NoError(t, s.EditAnswer(q.ID, a.ID, "回答2"))
	require.NoError(t, s.DeleteAnswer(q.ID, a.ID))
	s.SetActiveTab(TabAnswered)
	s.PurgeAll()
	require.Equal(t, 7, saves)
}

func TestCategorySlugID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "ascii lowered", in: "General Support", want: "cat_general_support"},
		{name: "strips punctuation", in: "Q&A (FAQ)", want: "cat_qa_faq"},
		{name: "caps at 40", in: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", want: "cat_" + "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CategorySlugID(tc.in))
		})
	}
}

func TestCategorySlugIDNonASCIIIsStable(t *testing.T) {
	a := CategorySlugID("一般")
	b := CategorySlugID("一般")
	c := CategorySlugID("契約")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.True(t, len(a) > len("cat_t_"))
	require.Equal(t, "cat_t_", a[:6])
}

func TestDecodeSnapshotCorruptionFallsBackToEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "empty", raw: nil},
		{name: "garbage", raw: []byte("{not json")},
		{name: "wrong shape", raw: []byte(`"just a string"`)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := DecodeSnapshot(tc.raw)
			require.Equal(t, EmptySnapshot(), snap)
		})
	}
}

func TestNormalizeDerivesDoneFromAnswers(t *testing.T) {
	raw := []byte(`{
		"categories": [{"id":"cat_general","name":"一般","order":1}],
		"questions": [
			{"id":"q1","text":"a","createdAt":1,"done":false,"categoryId":"cat_general"},
			{"id":"q2","text":"b","createdAt":1,"done":true,"categoryId":"cat_general"}
		],
		"answers": {
			"q1": [{"id":"a1","text":"x","createdAt":2,"meta":{"categoryId":"cat_general"}}],
			"q2": []
		}
	}`)

	snap := DecodeSnapshot(raw)
	require.True(t, snap.Questions[0].Done, "answered question must be done")
	require.False(t, snap.Questions[1].Done, "empty history must clear done")
	_, ok := snap.Answers["q2"]
	require.False(t, ok)
	require.Equal(t, AllCategories, snap.ActiveCategoryID)
	require.Equal(t, TabUnanswered, snap.ActiveTab)
}
