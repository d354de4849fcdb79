// Package ui renders the interactive soudan session and forwards operator
// intents to the capture controller. The store and controller stay
// authoritative; the model reads live snapshots on every render.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ymorita/soudan/internal/capture"
	"github.com/ymorita/soudan/internal/importer"
	"github.com/ymorita/soudan/internal/store"
)

// DoubleEnterWindow is how quickly Enter must be pressed twice to commit
// the buffered answer instead of reselecting the question.
const DoubleEnterWindow = 300 * time.Millisecond

type promptKind int

const (
	promptNone promptKind = iota
	promptSearch
	promptImport
	promptPurge
	promptDeleteAnswer
	promptEditAnswer
)

// panelFocus tracks which pane keyboard navigation applies to.
type panelFocus int

const (
	focusList panelFocus = iota
	focusHistory
)

// Model is the root bubbletea model for the soudan TUI.
type Model struct {
	store      *store.Store
	controller *capture.Controller
	events     chan tea.Msg

	input  textinput.Model
	prompt promptKind
	query  string

	focus     panelFocus
	selected  int
	answerSel int
	lastEnter time.Time

	// answer targeted by an open delete/edit prompt
	actQuestionID string
	actAnswerID   string

	toast   string
	errText string

	width  int
	height int
}

// New wires a model to the store and capture controller. Controller state
// changes are pumped into the bubbletea loop through an internal channel.
func New(st *store.Store, ctrl *capture.Controller) *Model {
	input := textinput.New()
	input.CharLimit = 256

	m := &Model{
		store:      st,
		controller: ctrl,
		events:     make(chan tea.Msg, 16),
		input:      input,
	}
	ctrl.SetListener(func() {
		select {
		case m.events <- CaptureChangedMsg{}:
		default:
		}
	})
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.waitEvent()
}

// waitEvent blocks on the controller event channel.
func (m *Model) waitEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func importCmd(path string, st *store.Store) tea.Cmd {
	return func() tea.Msg {
		plan, err := importer.Run(path, st)
		return ImportDoneMsg{Added: len(plan.Questions), Skipped: plan.Skipped, Err: err}
	}
}

func clearToastCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return ClearToastMsg{}
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case CaptureChangedMsg:
		m.clampSelection()
		return m, m.waitEvent()

	case ImportDoneMsg:
		if msg.Err != nil {
			m.errText = fmt.Sprintf("import failed: %v", msg.Err)
			return m, nil
		}
		m.errText = ""
		m.toast = fmt.Sprintf("imported %d questions (%d skipped)", msg.Added, msg.Skipped)
		return m, clearToastCmd()

	case ClearToastMsg:
		m.toast = ""
		return m, nil
	}

	return m, nil
}

// handleKey processes key presses. Prompt modes capture all input first.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != promptNone {
		return m.handlePromptKey(msg)
	}

	switch msg.String() {
	case KeyQuit, KeyCtrlC:
		return m, tea.Quit

	case KeyEnter:
		now := time.Now()
		if now.Sub(m.lastEnter) <= DoubleEnterWindow {
			m.lastEnter = time.Time{}
			m.controller.Confirm()
			return m, nil
		}
		m.lastEnter = now
		if q, ok := m.selectedQuestion(); ok {
			m.controller.SelectTarget(context.Background(), q.ID)
		}
		return m, nil

	case KeyEsc:
		m.controller.Cancel()
		m.errText = ""
		return m, nil

	case KeyFocusSwitch:
		if m.focus == focusList {
			m.focus = focusHistory
		} else {
			m.focus = focusList
		}
		m.answerSel = 0
		return m, nil

	case KeyDown:
		m.moveSelection(1)
		return m, nil
	case KeyUp:
		m.moveSelection(-1)
		return m, nil
	case KeyDownFast:
		m.moveSelection(5)
		return m, nil
	case KeyUpFast:
		m.moveSelection(-5)
		return m, nil

	case KeyDeleteAnswer:
		if q, a, ok := m.selectedAnswer(); ok {
			m.prompt = promptDeleteAnswer
			m.actQuestionID = q.ID
			m.actAnswerID = a.ID
		}
		return m, nil

	case KeyEditAnswer:
		if q, a, ok := m.selectedAnswer(); ok {
			m.prompt = promptEditAnswer
			m.actQuestionID = q.ID
			m.actAnswerID = a.ID
			m.input.Placeholder = "edited answer"
			m.input.SetValue(a.Text)
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.selected = int(msg.String()[0] - '1')
		m.clampSelection()
		return m, nil

	case KeyTabUnanswerd:
		m.store.SetActiveTab(store.TabUnanswered)
		m.selected = 0
		return m, nil
	case KeyTabAnswered:
		m.store.SetActiveTab(store.TabAnswered)
		m.selected = 0
		return m, nil

	case KeyOther:
		m.controller.CreateOther(context.Background())
		return m, nil

	case KeyPauseResume:
		if m.controller.Status().State == capture.StateRecording {
			m.controller.Pause()
		} else {
			m.controller.Resume(context.Background())
		}
		return m, nil

	case KeyCategoryNext:
		m.cycleCategory(1)
		return m, nil
	case KeyCategoryPrev:
		m.cycleCategory(-1)
		return m, nil

	case KeySearch:
		m.prompt = promptSearch
		m.input.Placeholder = "filter questions"
		m.input.SetValue(m.query)
		m.input.Focus()
		return m, textinput.Blink

	case KeyImport:
		m.prompt = promptImport
		m.input.Placeholder = "path to .csv / .xlsx / .json"
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink

	case KeyPurge:
		m.prompt = promptPurge
		return m, nil
	}

	return m, nil
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt == promptPurge {
		switch msg.String() {
		case "y", "Y":
			m.prompt = promptNone
			m.controller.Cancel()
			m.store.PurgeAll()
			m.selected = 0
			m.toast = "all data wiped"
			return m, clearToastCmd()
		default:
			m.prompt = promptNone
			return m, nil
		}
	}

	if m.prompt == promptDeleteAnswer {
		switch msg.String() {
		case "y", "Y":
			m.prompt = promptNone
			if err := m.store.DeleteAnswer(m.actQuestionID, m.actAnswerID); err != nil {
				m.errText = fmt.Sprintf("delete failed: %v", err)
				return m, nil
			}
			m.clampSelection()
			m.toast = "回答を削除しました"
			return m, clearToastCmd()
		default:
			m.prompt = promptNone
			return m, nil
		}
	}

	switch msg.String() {
	case KeyEsc:
		m.prompt = promptNone
		m.input.Blur()
		return m, nil

	case KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		kind := m.prompt
		m.prompt = promptNone
		m.input.Blur()

		switch kind {
		case promptSearch:
			m.query = value
			m.selected = 0
			return m, nil
		case promptImport:
			if value == "" {
				return m, nil
			}
			return m, importCmd(value, m.store)
		case promptEditAnswer:
			if value == "" {
				return m, nil
			}
			if err := m.store.EditAnswer(m.actQuestionID, m.actAnswerID, value); err != nil {
				m.errText = fmt.Sprintf("edit failed: %v", err)
				return m, nil
			}
			m.toast = "回答を更新しました"
			return m, clearToastCmd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// activeFilter returns the category filter for the current tab. The answered
// tab follows the history-view filter, which confirming an answer shifts to
// the answered question's category.
func (m *Model) activeFilter() string {
	if m.store.ActiveTab() == store.TabAnswered {
		return m.store.ActiveHistoryCategory()
	}
	return m.store.ActiveCategory()
}

func (m *Model) setActiveFilter(id string) {
	if m.store.ActiveTab() == store.TabAnswered {
		m.store.SetActiveHistoryCategory(id)
		return
	}
	m.store.SetActiveCategory(id)
}

// filtered returns the question list for the active category/tab/query.
func (m *Model) filtered() []store.Question {
	return m.store.Filtered(m.activeFilter(), m.store.ActiveTab(), m.query)
}

func (m *Model) selectedQuestion() (store.Question, bool) {
	questions := m.filtered()
	if m.selected < 0 || m.selected >= len(questions) {
		return store.Question{}, false
	}
	return questions[m.selected], true
}

// selectedAnswer resolves the answer the history cursor points at. Only
// meaningful while the history pane has focus.
func (m *Model) selectedAnswer() (store.Question, store.Answer, bool) {
	if m.focus != focusHistory {
		return store.Question{}, store.Answer{}, false
	}
	q, ok := m.selectedQuestion()
	if !ok {
		return store.Question{}, store.Answer{}, false
	}
	answers := m.store.Answers(q.ID)
	if m.answerSel < 0 || m.answerSel >= len(answers) {
		return store.Question{}, store.Answer{}, false
	}
	return q, answers[m.answerSel], true
}

func (m *Model) moveSelection(delta int) {
	if m.focus == focusHistory {
		m.answerSel += delta
		m.clampSelection()
		return
	}
	m.selected += delta
	m.clampSelection()
}

func (m *Model) clampSelection() {
	n := len(m.filtered())
	if n == 0 {
		m.selected = 0
	} else {
		if m.selected < 0 {
			m.selected = 0
		}
		if m.selected >= n {
			m.selected = n - 1
		}
	}

	answers := 0
	if q, ok := m.selectedQuestion(); ok {
		answers = len(m.store.Answers(q.ID))
	}
	if answers == 0 {
		m.answerSel = 0
	} else {
		if m.answerSel < 0 {
			m.answerSel = 0
		}
		if m.answerSel >= answers {
			m.answerSel = answers - 1
		}
	}
}

// cycleCategory moves the active category filter through "all" plus every
// stored category, wrapping at both ends.
func (m *Model) cycleCategory(delta int) {
	ids := []string{store.AllCategories}
	for _, c := range m.store.Categories() {
		ids = append(ids, c.ID)
	}

	current := 0
	active := m.activeFilter()
	for i, id := range ids {
		if id == active {
			current = i
			break
		}
	}
	next := (current + delta + len(ids)) % len(ids)
	m.setActiveFilter(ids[next])
	m.selected = 0
}

// View renders the full TUI. A render panic degrades to an error bar
// instead of tearing down the session.
func (m *Model) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = ErrorStyle.Render(fmt.Sprintf("render error: %v", r)) + "\n" +
				FooterDescStyle.Render("state is safe; press q to quit")
		}
	}()

	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderMainContent())
	sections = append(sections, DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderBufferPane())

	if bar := m.renderMessageBar(); bar != "" {
		sections = append(sections, bar)
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m *Model) renderHeader() string {
	title := TitleStyle.Render("SOUDAN")

	active := m.activeFilter()
	var tabs []string
	render := func(id, name string) string {
		if id == active {
			return TabActiveStyle.Render(name)
		}
		return TabStyle.Render(name)
	}
	tabs = append(tabs, render(store.AllCategories, "すべて"))
	for _, c := range m.store.Categories() {
		tabs = append(tabs, render(c.ID, c.Name))
	}

	var query string
	if m.query != "" {
		query = DimStyle.Render(fmt.Sprintf("  [filter: %s]", m.query))
	}
	return title + "  " + strings.Join(tabs, " ") + query
}

func (m *Model) renderStatusBar() string {
	status := m.controller.Status()

	var dot string
	switch status.State {
	case capture.StateRecording:
		dot = RecordingDotStyle.Render("● REC")
	case capture.StatePaused:
		dot = PausedDotStyle.Render("◐ PAUSE")
	default:
		dot = IdleDotStyle.Render("○ IDLE")
	}

	var target string
	switch {
	case status.Target == capture.TargetOther:
		target = "  " + PromptStyle.Render("[OTHER capture]")
	case status.Target != "":
		if q, ok := m.store.Question(status.Target); ok {
			target = "  " + DimStyle.Render("→ "+truncateToWidth(q.Text, max(10, m.width-20)))
		}
	}

	tab := "未回答"
	if m.store.ActiveTab() == store.TabAnswered {
		tab = "回答済み"
	}
	return dot + "  " + TabStyle.Render(tab) + target
}

func (m *Model) renderMainContent() string {
	listW := m.listPanelWidth()
	historyW := max(20, m.width-listW-3)
	contentH := m.contentHeight()

	listPanel := m.renderListPanel(listW, contentH)
	historyPanel := m.renderHistoryPanel(historyW, contentH)
	divider := DividerStyle.Render("│")

	listLines := strings.Split(listPanel, "\n")
	historyLines := strings.Split(historyPanel, "\n")

	var rows []string
	for i := 0; i < contentH; i++ {
		left := strings.Repeat(" ", listW)
		if i < len(listLines) {
			left = padRight(listLines[i], listW)
		}
		right := ""
		if i < len(historyLines) {
			right = historyLines[i]
		}
		rows = append(rows, left+divider+right)
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderListPanel(width, height int) string {
	questions := m.filtered()

	var lines []string
	lines = append(lines, PanelTitleStyle.Render(fmt.Sprintf("QUESTIONS (%d)", len(questions))))

	if len(questions) == 0 {
		lines = append(lines, DimStyle.Render("  質問がありません"))
		lines = append(lines, DimStyle.Render("  i でインポート、o でフリー回答"))
	}

	// Keep the selection visible in a window of the panel height.
	start := 0
	visible := height - 1
	if m.selected >= visible {
		start = m.selected - visible + 1
	}
	for i := start; i < len(questions) && len(lines) < height; i++ {
		q := questions[i]
		mark := "  "
		if q.Done {
			mark = DoneMarkStyle.Render("✓ ")
		}
		number := ""
		if i < 9 {
			number = DimStyle.Render(fmt.Sprintf("%d ", i+1))
		}
		text := truncateToWidth(q.Text, max(10, width-8))
		if i == m.selected {
			lines = append(lines, SelectedStyle.Render("> ")+number+mark+SelectedStyle.Render(text))
		} else {
			lines = append(lines, "  "+number+mark+text)
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines[:height], "\n")
}

func (m *Model) renderHistoryPanel(width, height int) string {
	var lines []string
	lines = append(lines, PanelTitleStyle.Render("ANSWERS"))

	q, ok := m.selectedQuestion()
	if !ok {
		lines = append(lines, DimStyle.Render("  —"))
	} else {
		answers := m.store.Answers(q.ID)
		if len(answers) == 0 {
			lines = append(lines, DimStyle.Render("  回答はまだありません"))
		}
		for i, a := range answers {
			if len(lines) >= height {
				break
			}
			ts := TimestampStyle.Render(time.UnixMilli(a.CreatedAt).Format("[15:04:05]"))
			text := truncateToWidth(a.Text, max(10, width-12))
			if m.focus == focusHistory && i == m.answerSel {
				lines = append(lines, SelectedStyle.Render("> ")+ts+" "+SelectedStyle.Render(text))
			} else {
				lines = append(lines, ts+" "+text)
			}
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines[:height], "\n")
}

// renderBufferPane shows the committed buffer and the yellow in-flight
// interim text on a single live line.
func (m *Model) renderBufferPane() string {
	status := m.controller.Status()
	label := PanelTitleStyle.Render("BUFFER ")

	if status.AnswerBuffer == "" && status.InterimBuffer == "" {
		return label + DimStyle.Render("（空）")
	}

	line := BufferTextStyle.Render(status.AnswerBuffer)
	if status.InterimBuffer != "" {
		if status.AnswerBuffer != "" {
			line += " "
		}
		line += InterimTextStyle.Render(status.InterimBuffer + "▌")
	}
	return label + line
}

func (m *Model) renderMessageBar() string {
	switch m.prompt {
	case promptSearch, promptImport, promptEditAnswer:
		return PromptStyle.Render("> ") + m.input.View()
	case promptPurge:
		return PromptStyle.Render("全データを削除します。y で確定、他のキーで中止")
	case promptDeleteAnswer:
		return PromptStyle.Render("回答を削除します。y で確定、他のキーで中止")
	}
	if m.errText != "" {
		return ErrorStyle.Render("Error: ") + m.errText
	}
	if m.toast != "" {
		return ToastStyle.Render(m.toast)
	}
	return ""
}

func (m *Model) renderFooter() string {
	parts := []string{
		FooterKeyStyle.Render("Enter") + FooterDescStyle.Render(" 選択 (2回で確定)"),
		FooterKeyStyle.Render("Esc") + FooterDescStyle.Render(" 破棄"),
		FooterKeyStyle.Render("j/k J/K 1-9") + FooterDescStyle.Render(" 移動"),
		FooterKeyStyle.Render("u/a") + FooterDescStyle.Render(" タブ"),
		FooterKeyStyle.Render("Tab") + FooterDescStyle.Render(" ペイン"),
		FooterKeyStyle.Render("d/e") + FooterDescStyle.Render(" 回答削除/編集"),
		FooterKeyStyle.Render("o") + FooterDescStyle.Render(" その他"),
		FooterKeyStyle.Render("/") + FooterDescStyle.Render(" 検索"),
		FooterKeyStyle.Render("i") + FooterDescStyle.Render(" 取込"),
		FooterKeyStyle.Render("D") + FooterDescStyle.Render(" 全削除"),
		FooterKeyStyle.Render("q") + FooterDescStyle.Render(" 終了"),
	}
	return strings.Join(parts, "  ")
}

func (m *Model) listPanelWidth() int {
	if m.width == 0 {
		return 40
	}
	return max(24, m.width*55/100)
}

func (m *Model) contentHeight() int {
	if m.height == 0 {
		return 16
	}
	// header + status + two dividers + buffer + message + footer
	return max(5, m.height-7)
}

// Helpers

func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
