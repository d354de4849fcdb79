package export

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ymorita/soudan/internal/store"
)

func answeredStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(nil, nil)
	general := s.EnsureCategory("一般")
	billing := s.EnsureCategory("決済")
	s.ApplyImport(nil, []store.Question{
		{ID: "q1", Text: "返金方法は？", CreatedAt: 1, CategoryID: general.ID},
		{ID: "q2", Text: "未回答の質問", CreatedAt: 2, CategoryID: general.ID},
		{ID: "q3", Text: "カードは使えますか？", CreatedAt: 3, CategoryID: billing.ID},
	})
	_, err := s.PrependAnswer("q1", "最初の回答", false)
	require.NoError(t, err)
	_, err = s.PrependAnswer("q1", "新しい回答", false)
	require.NoError(t, err)
	_, err = s.PrependAnswer("q3", "使えます", false)
	require.NoError(t, err)
	return s
}

func TestProjectGroupsAnsweredByCategory(t *testing.T) {
	groups := Project(answeredStore(t))

	require.Len(t, groups, 2)
	require.Equal(t, "一般", groups[0].Category)
	require.Equal(t, "決済", groups[1].Category)

	require.Len(t, groups[0].Rows, 2)
	require.Equal(t, "新しい回答", groups[0].Rows[0].Answer)
	require.Equal(t, "最初の回答", groups[0].Rows[1].Answer)
	require.Equal(t, "返金方法は？", groups[0].Rows[0].Question)

	require.Len(t, groups[1].Rows, 1)
	require.Equal(t, "使えます", groups[1].Rows[0].Answer)
}

func TestProjectOmitsUnanswered(t *testing.T) {
	for _, g := range Project(answeredStore(t)) {
		for _, row := range g.Rows {
			require.NotEqual(t, "未回答の質問", row.Question)
		}
	}
}

func TestProjectEmptyStore(t *testing.T) {
	require.Nil(t, Project(store.New(nil, nil)))
}

func TestFormatMillis(t *testing.T) {
	ms := time.Date(2026, 8, 28, 9, 30, 5, 0, time.Local).UnixMilli()
	require.Equal(t, "26/08/28 09:30:05", formatMillis(ms))
	require.Equal(t, "", formatMillis(0))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Project(answeredStore(t))))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "category,question,answer,createdAt", lines[0])
	require.Contains(t, lines[1], "新しい回答")
	require.Contains(t, lines[3], "決済")
}

func TestWriteJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Project(answeredStore(t))))

	var groups []Group
	require.NoError(t, json.Unmarshal(buf.Bytes(), &groups))
	require.Len(t, groups, 2)
	require.Equal(t, "一般", groups[0].Category)
}

func TestSheetName(t *testing.T) {
	require.Equal(t, "General", sheetName(""))
	require.Equal(t, "一般", sheetName("一般"))
	long := strings.Repeat("あ", 40)
	require.Equal(t, strings.Repeat("あ", 31), sheetName(long))
}

func TestWriteXLSXOneSheetPerCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(path, Project(answeredStore(t))))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"一般", "決済"}, f.GetSheetList())
	rows, err := f.GetRows("一般")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "question", rows[0][0])
	require.Equal(t, "新しい回答", rows[1][1])
}

func TestWriteFileDispatch(t *testing.T) {
	dir := t.TempDir()
	s := answeredStore(t)

	require.NoError(t, WriteFile(filepath.Join(dir, "out.csv"), s))
	require.NoError(t, WriteFile(filepath.Join(dir, "out.json"), s))
	require.NoError(t, WriteFile(filepath.Join(dir, "out.xlsx"), s))
	require.ErrorIs(t, WriteFile(filepath.Join(dir, "out.txt"), s), ErrUnsupportedExtension)
	require.ErrorIs(t, WriteFile(filepath.Join(dir, "empty.csv"), store.New(nil, nil)), ErrNothingToExport)
}
