package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/vocabfilter/internal/controller"
	"github.com/abelbrown/vocabfilter/internal/model"
)

// fakeList records refreshes instead of querying.
type fakeList struct {
	mu        sync.Mutex
	refreshed []controller.Criteria
	seqs      []uint64
	events    chan controller.Event
}

func newFakeList() *fakeList {
	return &fakeList{events: make(chan controller.Event, 10)}
}

func (f *fakeList) ID() string { return "fake" }

func (f *fakeList) Refresh(ctx context.Context, req controller.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, req.Criteria)
	f.seqs = append(f.seqs, req.Seq)
}

func (f *fakeList) Subscribe() <-chan controller.Event { return f.events }

var (
	catFood  = &model.Category{ID: 1, Label: "Food & drink", ShortName: "food"}
	catVerbs = &model.Category{ID: 2, Label: "Common verbs", ShortName: "verbs"}
)

func newTestApp(t *testing.T, initial controller.Criteria) (App, *fakeList) {
	t.Helper()
	list := newFakeList()
	app := NewAppWithConfig(AppConfig{
		Filter:     controller.New(initial),
		List:       list,
		Categories: []*model.Category{catFood, catVerbs},
	})
	app.ready = true
	app.width = 100
	app.height = 30
	t.Cleanup(app.Close)
	return app, list
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, app App, msgs ...tea.Msg) (App, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var m tea.Model
		m, cmd = app.Update(msg)
		app = m.(App)
	}
	return app, cmd
}

// runRefresh executes cmd and reports whether it (or a batched child) was
// a list refresh.
func runRefresh(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	switch msg := cmd().(type) {
	case RefreshDone:
		return true
	case tea.BatchMsg:
		for _, c := range msg {
			if runRefresh(c) {
				return true
			}
		}
	}
	return false
}

func TestAppInit(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{})

	if cmd := app.Init(); cmd == nil {
		t.Fatal("Init should return a command")
	}
}

func TestTypingWritesThroughWithoutRefresh(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{})

	app, _ = press(t, app, runes("た"), runes("べ"))

	if got := app.filter.State().ReadingText(); got != "たべ" {
		t.Errorf("ReadingText = %q, want %q", got, "たべ")
	}
	if app.loading || app.refresh.signals != 0 {
		t.Error("typing must not refresh the list")
	}
	if !app.fieldPending(controller.FieldReadingText) {
		t.Error("reading should show as pending until committed")
	}
}

func TestEnterCommitsReading(t *testing.T) {
	app, list := newTestApp(t, controller.Criteria{})

	app, _ = press(t, app, runes("み"))
	app, cmd := press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	if app.refresh.signals != 1 {
		t.Fatalf("signals = %d, want 1", app.refresh.signals)
	}
	if !app.loading {
		t.Error("commit should start loading")
	}
	if app.committed.ReadingText != "み" {
		t.Errorf("committed = %v", app.committed)
	}
	if app.fieldPending(controller.FieldReadingText) {
		t.Error("reading still pending after commit")
	}

	if !runRefresh(cmd) {
		t.Fatal("commit should return a refresh command")
	}
	if len(list.refreshed) != 1 || list.refreshed[0].ReadingText != "み" {
		t.Errorf("refreshed with %v", list.refreshed)
	}
}

func TestCommitWithoutEditStillRefreshes(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{ReadingText: "た"})

	app, cmd := press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	if app.refresh.signals != 1 || !runRefresh(cmd) {
		t.Error("commit with unchanged text should still refresh")
	}
}

func TestMeaningInput(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{})

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	if app.focus != focusMeaning {
		t.Fatalf("focus = %v, want meaning", app.focus)
	}

	app, _ = press(t, app, runes("water"))
	if got := app.filter.State().MeaningText(); got != "water" {
		t.Errorf("MeaningText = %q", got)
	}
	if got := app.filter.State().ReadingText(); got != "" {
		t.Errorf("ReadingText changed to %q", got)
	}

	app, cmd := press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if !runRefresh(cmd) || app.committed.MeaningText != "water" {
		t.Error("enter should commit meaning")
	}
}

func TestBackspaceWritesThrough(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{ReadingText: "たべ"})

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyBackspace})

	if got := app.filter.State().ReadingText(); got != "た" {
		t.Errorf("ReadingText = %q, want %q", got, "た")
	}
}

func TestCategoryPicker(t *testing.T) {
	app, list := newTestApp(t, controller.Criteria{})
	app.focus = focusCategory

	right := tea.KeyMsg{Type: tea.KeyRight}
	left := tea.KeyMsg{Type: tea.KeyLeft}

	app, _ = press(t, app, right)
	if app.filter.State().Category() != catFood {
		t.Fatalf("first right should pick food, got %v", app.filter.State().Category())
	}
	app, _ = press(t, app, right)
	if app.filter.State().Category() != catVerbs {
		t.Fatalf("second right should pick verbs")
	}
	app, _ = press(t, app, right)
	if app.filter.State().Category() != nil {
		t.Fatalf("third right should wrap to any")
	}
	app, _ = press(t, app, left)
	if app.filter.State().Category() != catVerbs {
		t.Fatalf("left from any should wrap to verbs")
	}
	if app.refresh.signals != 0 {
		t.Fatal("picking must not refresh")
	}

	app, cmd := press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if !runRefresh(cmd) {
		t.Fatal("enter should commit the category")
	}
	if list.refreshed[0].Category != catVerbs {
		t.Errorf("refreshed with category %v", list.refreshed[0].Category)
	}

	app, cmd = press(t, app, runes("x"))
	if app.filter.State().Category() != nil {
		t.Error("x should clear the category")
	}
	if !runRefresh(cmd) {
		t.Error("clearing should refresh")
	}
}

func TestClearEmptyCategoryStillRefreshes(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{})
	app.focus = focusCategory

	_, cmd := press(t, app, runes("x"))
	if !runRefresh(cmd) {
		t.Error("clear-category should signal even when nothing was set")
	}
}

func TestLevelControls(t *testing.T) {
	app, list := newTestApp(t, controller.Criteria{})
	app.focus = focusLevels
	st := app.filter.State()

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyLeft})
	if st.JLPTLevel() != 5 {
		t.Errorf("left from any: JLPT = %d, want 5", st.JLPTLevel())
	}
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	if st.JLPTLevel() != controller.LevelAny {
		t.Errorf("right from 5: JLPT = %d, want any", st.JLPTLevel())
	}
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyRight})
	if st.JLPTLevel() != 3 {
		t.Errorf("JLPT = %d, want 3", st.JLPTLevel())
	}

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	if st.WKLevel() != 0 {
		t.Errorf("down from any: WK = %d, want 0", st.WKLevel())
	}
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyPgUp}, tea.KeyMsg{Type: tea.KeyUp})
	if st.WKLevel() != 11 {
		t.Errorf("WK = %d, want 11", st.WKLevel())
	}
	if app.refresh.signals != 0 {
		t.Fatal("adjusting levels must not refresh")
	}

	app, cmd := press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if !runRefresh(cmd) {
		t.Fatal("enter should commit levels")
	}
	if got := list.refreshed[0]; got.JLPTLevel != 3 || got.WKLevel != 11 {
		t.Errorf("refreshed with %v", got)
	}

	app, _ = press(t, app, runes("0"))
	if st.JLPTLevel() != controller.LevelAny || st.WKLevel() != controller.LevelAny {
		t.Error("0 should reset both levels")
	}
}

func TestOrderingToggles(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{})
	app.focus = focusResults

	app, cmd := press(t, app, runes("c"))
	if !app.filter.State().CommonFirst() {
		t.Error("c should toggle common-first")
	}
	if !runRefresh(cmd) {
		t.Error("toggle should refresh")
	}

	app, cmd = press(t, app, runes("s"))
	if !app.filter.State().ShortReadingFirst() {
		t.Error("s should toggle short-reading-first")
	}
	if !runRefresh(cmd) {
		t.Error("toggle should refresh")
	}
	if app.refresh.signals != 2 {
		t.Errorf("signals = %d, want 2", app.refresh.signals)
	}
}

func TestToggleKeysTypeInInputs(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{})

	app, _ = press(t, app, runes("c"))

	if app.filter.State().CommonFirst() {
		t.Error("c in the reading input should not toggle")
	}
	if app.filter.State().ReadingText() != "c" {
		t.Errorf("ReadingText = %q, want %q", app.filter.State().ReadingText(), "c")
	}
}

func TestFocusCycle(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{})

	order := []focus{focusMeaning, focusCategory, focusLevels, focusResults, focusReading}
	for _, want := range order {
		app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyTab})
		if app.focus != want {
			t.Fatalf("focus = %v, want %v", app.focus, want)
		}
	}

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyShiftTab})
	if app.focus != focusResults {
		t.Errorf("shift+tab: focus = %v, want results", app.focus)
	}

	app, _ = press(t, app, runes("/"))
	if app.focus != focusReading || !app.reading.Focused() {
		t.Error("/ should focus the reading input")
	}

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.focus != focusResults || app.reading.Focused() {
		t.Error("esc should leave the input")
	}
}

func TestQuit(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{})
	app.focus = focusResults

	_, cmd := press(t, app, runes("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestListEvents(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{})
	app.cursor = 5

	app, cmd := press(t, app, ListEvent{Event: controller.Event{Type: controller.EventStarted, QueryID: "q1", Seq: app.seq}})
	if !app.loading || app.queryID != "q1" {
		t.Error("started event should set loading")
	}
	if cmd == nil {
		t.Error("list events should re-arm the listener")
	}

	items := []model.Vocab{
		{ID: 1, KanjiWriting: "水", KanaWriting: "みず", Meaning: "water"},
		{ID: 2, KanjiWriting: "山", KanaWriting: "やま", Meaning: "mountain"},
	}
	app, _ = press(t, app, ListEvent{Event: controller.Event{Type: controller.EventCompleted, QueryID: "q1", Seq: app.seq, Items: items, Total: 1234}})
	if app.loading {
		t.Error("completed event should stop loading")
	}
	if len(app.items) != 2 || app.total != 1234 {
		t.Errorf("items=%d total=%d", len(app.items), app.total)
	}
	if app.cursor != 1 {
		t.Errorf("cursor = %d, want clamped to 1", app.cursor)
	}

	view := app.View()
	if !strings.Contains(view, "2 of 1,234 matches") {
		t.Errorf("status bar should show humanized count, got:\n%s", view)
	}
	if !strings.Contains(view, "みず") || !strings.Contains(view, "mountain") {
		t.Errorf("view should list results, got:\n%s", view)
	}

	boom := errors.New("query failed")
	app, _ = press(t, app, ListEvent{Event: controller.Event{Type: controller.EventError, Seq: app.seq, Err: boom}})
	if app.err != boom || app.loading {
		t.Error("error event should set err")
	}
	if !strings.Contains(app.View(), "query failed") {
		t.Error("view should show the error")
	}

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	if app.err != nil {
		t.Error("key press should clear the error")
	}
}

func TestResultsNavigation(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{})
	app.focus = focusResults
	app.items = []model.Vocab{{ID: 1, KanaWriting: "あ"}, {ID: 2, KanaWriting: "い"}, {ID: 3, KanaWriting: "う"}}

	app, _ = press(t, app, runes("j"), runes("j"), runes("j"))
	if app.cursor != 2 {
		t.Errorf("cursor = %d, want 2", app.cursor)
	}
	app, _ = press(t, app, runes("k"))
	if app.cursor != 1 {
		t.Errorf("cursor = %d, want 1", app.cursor)
	}
	app, _ = press(t, app, runes("g"))
	if app.cursor != 0 {
		t.Errorf("cursor = %d, want 0", app.cursor)
	}
	app, _ = press(t, app, runes("G"))
	if app.cursor != 2 {
		t.Errorf("cursor = %d, want 2", app.cursor)
	}
}

func TestPendingMarkInView(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{})

	if strings.Contains(app.View(), "*") {
		t.Fatal("fresh view should have no pending marks")
	}

	app, _ = press(t, app, runes("た"))
	if !strings.Contains(app.View(), "*") {
		t.Error("uncommitted reading should be marked")
	}

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if strings.Contains(app.View(), "*") {
		t.Error("mark should clear after commit")
	}
}

func TestCloseUnsubscribes(t *testing.T) {
	fc := controller.New(controller.Criteria{})
	app := NewAppWithConfig(AppConfig{Filter: fc})

	fc.CommitReading()
	if app.refresh.signals != 1 {
		t.Fatalf("signals = %d, want 1", app.refresh.signals)
	}

	app.Close()
	fc.CommitReading()
	if app.refresh.signals != 1 {
		t.Errorf("handler still registered after Close: signals = %d", app.refresh.signals)
	}
}

func TestExternalActionRefreshesOnNextKey(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{})
	app.focus = focusResults

	// Another owner of the controller commits; the App picks it up on its
	// next update.
	app.filter.ToggleCommonFirst()
	_, cmd := press(t, app, runes("j"))
	if !runRefresh(cmd) {
		t.Error("pending signal should turn into a refresh")
	}
}

func TestLevelsText(t *testing.T) {
	tests := []struct {
		jlpt, wk int
		want     string
	}{
		{0, 0, "JLPT any · WK any"},
		{3, 0, "JLPT N3+ · WK any"},
		{0, 10, "JLPT any · WK ≤10"},
	}
	for _, tt := range tests {
		if got := levelsText(tt.jlpt, tt.wk); got != tt.want {
			t.Errorf("levelsText(%d, %d) = %q, want %q", tt.jlpt, tt.wk, got, tt.want)
		}
	}
}

func TestRefreshSeqFollowsCommitOrder(t *testing.T) {
	app, list := newTestApp(t, controller.Criteria{})
	app.focus = focusResults

	app, older := press(t, app, runes("c"))
	app, newer := press(t, app, runes("s"))

	// The newer command goroutine may well run first.
	if !runRefresh(newer) || !runRefresh(older) {
		t.Fatal("both toggles should return a refresh command")
	}

	if len(list.seqs) != 2 || list.seqs[0] != 3 || list.seqs[1] != 2 {
		t.Fatalf("seqs = %v, want [3 2]", list.seqs)
	}
	if !list.refreshed[0].ShortReadingFirst || list.refreshed[1].ShortReadingFirst {
		t.Errorf("seq 3 should carry the newest criteria, got %v", list.refreshed)
	}
	if app.seq != 3 {
		t.Errorf("app.seq = %d, want 3", app.seq)
	}
}

func TestStaleListEventsDropped(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{})
	app.focus = focusResults

	app, _ = press(t, app, runes("c"))
	olderCrit := app.committed
	olderSeq := app.seq
	app, _ = press(t, app, runes("s"))

	stale := []model.Vocab{{ID: 1, KanaWriting: "ふるい", Meaning: "old"}}
	fresh := []model.Vocab{{ID: 2, KanaWriting: "あたらしい", Meaning: "new"}}

	app, cmd := press(t, app, ListEvent{Event: controller.Event{Type: controller.EventCompleted, Seq: olderSeq, Criteria: olderCrit, Items: stale, Total: 1}})
	if cmd == nil {
		t.Error("a dropped event should still re-arm the listener")
	}
	if len(app.items) != 0 || !app.loading {
		t.Fatalf("stale results applied: items=%v loading=%v", app.items, app.loading)
	}

	// Right seq, wrong criteria.
	app, _ = press(t, app, ListEvent{Event: controller.Event{Type: controller.EventCompleted, Seq: app.seq, Criteria: olderCrit, Items: stale, Total: 1}})
	if len(app.items) != 0 {
		t.Fatal("results for other criteria applied")
	}

	app, _ = press(t, app, ListEvent{Event: controller.Event{Type: controller.EventCompleted, Seq: app.seq, Criteria: app.committed, Items: fresh, Total: 1}})
	if len(app.items) != 1 || app.items[0].ID != 2 || app.loading {
		t.Errorf("newest results not applied: items=%v loading=%v", app.items, app.loading)
	}
}

func TestExternalFieldWriteSyncsInputs(t *testing.T) {
	app, _ := newTestApp(t, controller.Criteria{})
	st := app.filter.State()

	st.SetReadingText("みず")
	st.SetMeaningText("water")
	app, _ = press(t, app, tea.WindowSizeMsg{Width: 100, Height: 30})

	if got := app.reading.Value(); got != "みず" {
		t.Errorf("reading input = %q, want みず", got)
	}
	if got := app.meaning.Value(); got != "water" {
		t.Errorf("meaning input = %q, want water", got)
	}
	if !app.fieldPending(controller.FieldReadingText) {
		t.Error("an outside write should show as pending")
	}

	// Typing continues from the synced value.
	app, _ = press(t, app, runes("うみ"))
	if got := st.ReadingText(); got != "みずうみ" {
		t.Errorf("ReadingText = %q, want みずうみ", got)
	}
}

func TestCloseRemovesFieldHandlers(t *testing.T) {
	fc := controller.New(controller.Criteria{})
	app := NewAppWithConfig(AppConfig{Filter: fc})
	app.Close()

	fc.State().SetReadingText("た")
	if len(app.refresh.edited) != 0 {
		t.Errorf("field handler still registered after Close: %v", app.refresh.edited)
	}
}
