package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/vocabfilter/internal/controller"
	"github.com/abelbrown/vocabfilter/internal/model"
	"github.com/abelbrown/vocabfilter/internal/otel"
)

const uiComp = "ui"

// focus identifies the control that receives keys.
type focus int

const (
	focusReading focus = iota
	focusMeaning
	focusCategory
	focusLevels
	focusResults
	focusCount
)

func (f focus) String() string {
	switch f {
	case focusReading:
		return "reading"
	case focusMeaning:
		return "meaning"
	case focusCategory:
		return "category"
	case focusLevels:
		return "levels"
	case focusResults:
		return "results"
	}
	return fmt.Sprintf("focus(%d)", int(f))
}

// AppConfig holds the collaborators of the App.
type AppConfig struct {
	Filter     *controller.FilterController // nil means an empty filter
	List       controller.Controller        // nil disables querying
	Categories []*model.Category            // picker choices, in display order
	Obs        ObsConfig
}

// ObsConfig wires observability into the App.
type ObsConfig struct {
	Ring   *otel.RingBuffer // debug overlay source; nil disables the overlay
	Logger *otel.Logger
}

// refreshState is shared by every copy of the App so the handlers,
// registered once, can reach the model Update returns.
type refreshState struct {
	pending bool
	signals int
	edited  map[controller.Field]bool // text fields written since the last sync
}

func newRefreshState() *refreshState {
	return &refreshState{edited: make(map[controller.Field]bool)}
}

func (r *refreshState) fieldChanged(ch controller.FieldChange) {
	r.edited[ch.Field] = true
}

func (r *refreshState) mark() {
	r.pending = true
	r.signals++
}

func (r *refreshState) take() bool {
	p := r.pending
	r.pending = false
	return p
}

// App is the root Bubble Tea model: it owns the filter controls and the
// result list.
//
// Controls write through to the FilterState on every edit; the list only
// re-queries when an action signals that the filter changed.
// IMPORTANT: App does NOT hold *store.Store. It receives results via messages.
type App struct {
	filter     *controller.FilterController
	list       controller.Controller
	categories []*model.Category
	subs       []controller.Subscription
	refresh    *refreshState
	obs        ObsConfig

	reading textinput.Model
	meaning textinput.Model
	focus   focus

	// committed is the criteria the current results were requested with,
	// seq the Request.Seq of that refresh.
	committed controller.Criteria
	seq       uint64

	items   []model.Vocab
	total   int
	dur     time.Duration
	queryID string
	cursor  int
	loading bool
	err     error

	width  int
	height int
	ready  bool

	debugVisible bool
	debugPrefix  string
}

// NewAppWithConfig creates the App and registers its filter handlers.
// Call Close to unregister them.
func NewAppWithConfig(cfg AppConfig) App {
	filter := cfg.Filter
	if filter == nil {
		filter = controller.New(controller.Criteria{})
	}

	refresh := newRefreshState()
	st := filter.State()
	subs := []controller.Subscription{
		filter.OnFilterChanged(refresh.mark),
		st.OnField(controller.FieldReadingText, refresh.fieldChanged),
		st.OnField(controller.FieldMeaningText, refresh.fieldChanged),
	}

	reading := textinput.New()
	reading.Prompt = ""
	reading.Placeholder = "kana or kanji"
	reading.CharLimit = 32
	reading.Width = 20
	reading.SetValue(st.ReadingText())
	reading.Focus()

	meaning := textinput.New()
	meaning.Prompt = ""
	meaning.Placeholder = "english"
	meaning.CharLimit = 64
	meaning.Width = 24
	meaning.SetValue(st.MeaningText())

	return App{
		filter:     filter,
		list:       cfg.List,
		categories: cfg.Categories,
		subs:       subs,
		refresh:    refresh,
		obs:        cfg.Obs,
		reading:    reading,
		meaning:    meaning,
		focus:      focusReading,
		committed:  filter.Snapshot(),
		seq:        1,
	}
}

// Filter returns the filter controller the App drives.
func (a App) Filter() *controller.FilterController {
	return a.filter
}

// Close unregisters the App's filter handlers.
func (a App) Close() {
	for _, sub := range a.subs {
		a.filter.Unsubscribe(sub)
	}
}

// Init starts listening for list events and loads the initial results.
func (a App) Init() tea.Cmd {
	if a.list != nil {
		a.obs.Logger.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindRefresh, Comp: uiComp, Seq: a.seq, Query: a.committed.String()})
	}
	return tea.Batch(textinput.Blink, a.listen(), a.refreshCmd(a.seq, a.committed))
}

// listen waits for the next list controller event.
func (a App) listen() tea.Cmd {
	if a.list == nil {
		return nil
	}
	ch := a.list.Subscribe()
	return func() tea.Msg {
		return ListEvent{Event: <-ch}
	}
}

// refreshCmd runs a list refresh for c off the UI goroutine. seq is taken
// here, in commit order, since the command goroutines may start in any order.
func (a App) refreshCmd(seq uint64, c controller.Criteria) tea.Cmd {
	if a.list == nil {
		return nil
	}
	list := a.list
	return func() tea.Msg {
		list.Refresh(context.Background(), controller.Request{Seq: seq, Criteria: c})
		return RefreshDone{Seq: seq, Criteria: c}
	}
}

// takeRefresh turns a pending filter-changed signal into a refresh command.
func (a *App) takeRefresh() tea.Cmd {
	if !a.refresh.take() {
		return nil
	}
	a.seq++
	a.committed = a.filter.Snapshot()
	a.loading = true
	a.obs.Logger.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindRefresh, Comp: uiComp, Seq: a.seq, Query: a.committed.String()})
	return a.refreshCmd(a.seq, a.committed)
}

// syncInputs copies reading and meaning values written from outside the
// text inputs back into them.
func (a *App) syncInputs() {
	if len(a.refresh.edited) == 0 {
		return
	}
	st := a.filter.State()
	if a.refresh.edited[controller.FieldReadingText] && a.reading.Value() != st.ReadingText() {
		a.reading.SetValue(st.ReadingText())
		a.reading.CursorEnd()
	}
	if a.refresh.edited[controller.FieldMeaningText] && a.meaning.Value() != st.MeaningText() {
		a.meaning.SetValue(st.MeaningText())
		a.meaning.CursorEnd()
	}
	clear(a.refresh.edited)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.obs.Logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Comp: uiComp, Msg: fmt.Sprintf("%T", msg)})
		start := time.Now()
		defer func() {
			a.obs.Logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgHandled, Comp: uiComp, Msg: fmt.Sprintf("%T", msg), Dur: time.Since(start)})
		}()
	}

	a.syncInputs()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		next, cmd := a.handleKeyMsg(msg)
		next.syncInputs()
		if rc := next.takeRefresh(); rc != nil {
			cmd = tea.Batch(cmd, rc)
		}
		return next, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case ListEvent:
		a.applyListEvent(msg.Event)
		return a, a.listen()

	case RefreshDone:
		return a, nil
	}

	// Cursor blink and other input housekeeping.
	var cmd tea.Cmd
	switch a.focus {
	case focusReading:
		a.reading, cmd = a.reading.Update(msg)
	case focusMeaning:
		a.meaning, cmd = a.meaning.Update(msg)
	}
	return a, cmd
}

// applyListEvent applies ev unless it belongs to a refresh other than the
// latest one.
func (a *App) applyListEvent(ev controller.Event) {
	if ev.Seq != a.seq || ev.Criteria != a.committed {
		a.obs.Logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindStale, Comp: uiComp, QueryID: ev.QueryID, Seq: ev.Seq, Msg: string(ev.Type)})
		return
	}

	switch ev.Type {
	case controller.EventStarted:
		a.loading = true
		a.queryID = ev.QueryID

	case controller.EventCompleted:
		a.loading = false
		a.err = nil
		a.items = ev.Items
		a.total = ev.Total
		a.dur = ev.Dur
		if a.cursor >= len(a.items) {
			a.cursor = max(len(a.items)-1, 0)
		}

	case controller.EventError:
		a.loading = false
		a.err = ev.Err
	}
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (App, tea.Cmd) {
	// Clear any existing error on key press
	if a.err != nil {
		a.err = nil
	}

	key := msg.String()
	a.obs.Logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: uiComp, Msg: key, Field: a.focus.String()})

	switch key {
	case "ctrl+c":
		return a, tea.Quit
	case "tab":
		return a, a.setFocus((a.focus + 1) % focusCount)
	case "shift+tab":
		return a, a.setFocus((a.focus + focusCount - 1) % focusCount)
	}

	if a.debugVisible {
		return a.handleDebugKey(key)
	}

	if a.focus == focusReading || a.focus == focusMeaning {
		return a.handleInputKey(msg)
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "?":
		if a.obs.Ring != nil {
			a.debugVisible = true
		}
		return a, nil
	case "/":
		return a, a.setFocus(focusReading)
	case "c":
		a.filter.ToggleCommonFirst()
		return a, nil
	case "s":
		a.filter.ToggleShortReadingFirst()
		return a, nil
	}

	switch a.focus {
	case focusCategory:
		return a.handleCategoryKey(key)
	case focusLevels:
		return a.handleLevelsKey(key)
	case focusResults:
		return a.handleResultsKey(key)
	}
	return a, nil
}

// handleInputKey routes keys to the focused text input. Every edit is
// written to the filter state; enter commits.
func (a App) handleInputKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return a, a.setFocus(focusResults)
	case "enter":
		if a.focus == focusReading {
			a.filter.CommitReading()
		} else {
			a.filter.CommitMeaning()
		}
		return a, nil
	}

	var cmd tea.Cmd
	st := a.filter.State()
	if a.focus == focusReading {
		a.reading, cmd = a.reading.Update(msg)
		st.SetReadingText(a.reading.Value())
	} else {
		a.meaning, cmd = a.meaning.Update(msg)
		st.SetMeaningText(a.meaning.Value())
	}
	return a, cmd
}

func (a App) handleCategoryKey(key string) (App, tea.Cmd) {
	switch key {
	case "left", "h":
		a.cycleCategory(-1)
	case "right", "l", " ":
		a.cycleCategory(1)
	case "enter":
		a.filter.CommitCategory()
	case "x", "backspace", "delete":
		a.filter.ClearCategory()
	}
	return a, nil
}

// cycleCategory moves the picker by d through "any" and the categories.
func (a App) cycleCategory(d int) {
	n := len(a.categories) + 1
	idx := 0
	cur := a.filter.State().Category()
	for i, c := range a.categories {
		if model.SameCategory(c, cur) {
			idx = i + 1
			break
		}
	}
	idx = ((idx+d)%n + n) % n

	var next *model.Category
	if idx > 0 {
		next = a.categories[idx-1]
	}
	a.filter.State().SetCategory(next)
}

// Level bounds offered by the level controls.
const (
	maxJLPT = 5
	maxWK   = 60
)

func (a App) handleLevelsKey(key string) (App, tea.Cmd) {
	st := a.filter.State()
	switch key {
	case "left", "h":
		st.SetJLPTLevel((st.JLPTLevel() + maxJLPT) % (maxJLPT + 1))
	case "right", "l":
		st.SetJLPTLevel((st.JLPTLevel() + 1) % (maxJLPT + 1))
	case "down", "j":
		st.SetWKLevel(clamp(st.WKLevel()-1, 0, maxWK))
	case "up", "k":
		st.SetWKLevel(clamp(st.WKLevel()+1, 0, maxWK))
	case "pgdown":
		st.SetWKLevel(clamp(st.WKLevel()-10, 0, maxWK))
	case "pgup":
		st.SetWKLevel(clamp(st.WKLevel()+10, 0, maxWK))
	case "0":
		st.SetJLPTLevel(controller.LevelAny)
		st.SetWKLevel(controller.LevelAny)
	case "enter":
		a.filter.CommitLevels()
	}
	return a, nil
}

func (a App) handleResultsKey(key string) (App, tea.Cmd) {
	switch key {
	case "j", "down":
		if a.cursor < len(a.items)-1 {
			a.cursor++
		}
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
	case "g", "home":
		a.cursor = 0
	case "G", "end":
		if len(a.items) > 0 {
			a.cursor = len(a.items) - 1
		}
	}
	return a, nil
}

func (a App) handleDebugKey(key string) (App, tea.Cmd) {
	switch key {
	case "?", "esc", "q":
		a.debugVisible = false
	case "f":
		a.debugPrefix = nextDebugPrefix(a.debugPrefix)
	}
	return a, nil
}

// setFocus moves keyboard focus to f.
func (a *App) setFocus(f focus) tea.Cmd {
	a.focus = f
	a.reading.Blur()
	a.meaning.Blur()
	switch f {
	case focusReading:
		return a.reading.Focus()
	case focusMeaning:
		return a.meaning.Focus()
	}
	return nil
}

// fieldPending reports whether f has been edited since the last refresh.
func (a App) fieldPending(f controller.Field) bool {
	live := a.filter.Snapshot()
	switch f {
	case controller.FieldReadingText:
		return live.ReadingText != a.committed.ReadingText
	case controller.FieldMeaningText:
		return live.MeaningText != a.committed.MeaningText
	case controller.FieldCategory:
		return !model.SameCategory(live.Category, a.committed.Category)
	case controller.FieldJLPTLevel:
		return live.JLPTLevel != a.committed.JLPTLevel
	case controller.FieldWKLevel:
		return live.WKLevel != a.committed.WKLevel
	}
	return false
}

// View renders the App.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.debugVisible {
		overlay := debugOverlay(a.obs, a.debugPrefix, a.width, a.height-1)
		return overlay + "\n" + debugStatusBar(a.width)
	}

	var b strings.Builder
	bar := a.renderFilterBar()
	b.WriteString(bar)
	b.WriteString("\n")
	used := strings.Count(bar, "\n") + 2

	if a.err != nil {
		b.WriteString(ErrorStyle.Render("Error: " + a.err.Error()))
		b.WriteString("\n")
		used++
	}

	b.WriteString(RenderResults(a.items, a.cursor, a.width, a.height-used))
	b.WriteString(RenderStatusBar(len(a.items), a.total, a.dur, a.width, a.loading, a.hints()))
	return b.String()
}

func (a App) renderFilterBar() string {
	st := a.filter.State()

	line1 := a.label("reading", focusReading) + a.reading.View() + a.pendingMark(controller.FieldReadingText) +
		"  " + a.label("meaning", focusMeaning) + a.meaning.View() + a.pendingMark(controller.FieldMeaningText)

	cat := "any"
	if c := st.Category(); c != nil {
		cat = c.String()
	}
	line2 := a.label("category", focusCategory) + FilterValue.Render("‹ "+cat+" ›") + a.pendingMark(controller.FieldCategory) +
		"  " + a.label("levels", focusLevels) + FilterValue.Render(levelsText(st.JLPTLevel(), st.WKLevel())) +
		a.pendingMark(controller.FieldJLPTLevel, controller.FieldWKLevel) +
		"  " + toggle("common first", st.CommonFirst()) + "  " + toggle("short first", st.ShortReadingFirst())

	return FilterBar.Width(a.width).Render(line1) + "\n" + FilterBar.Width(a.width).Render(line2)
}

func (a App) label(name string, f focus) string {
	if a.focus == f {
		return FilterLabelFocused.Render(name+": ")
	}
	return FilterLabel.Render(name + ": ")
}

func (a App) pendingMark(fields ...controller.Field) string {
	for _, f := range fields {
		if a.fieldPending(f) {
			return FilterPending.Render("*")
		}
	}
	return " "
}

func (a App) hints() []string {
	switch a.focus {
	case focusReading, focusMeaning:
		return []string{hint("Enter", "commit"), hint("Tab", "next"), hint("Esc", "results")}
	case focusCategory:
		return []string{hint("←/→", "pick"), hint("Enter", "commit"), hint("x", "clear"), hint("c/s", "order"), hint("Tab", "next")}
	case focusLevels:
		return []string{hint("←/→", "JLPT"), hint("↑/↓", "WK"), hint("0", "any"), hint("Enter", "commit"), hint("Tab", "next")}
	}
	return []string{hint("j/k", "nav"), hint("/", "filter"), hint("c/s", "order"), hint("?", "debug"), hint("q", "quit")}
}

// levelsText describes the level bounds, e.g. "N3+ · WK≤10".
func levelsText(jlpt, wk int) string {
	j := "any"
	if jlpt != controller.LevelAny {
		j = fmt.Sprintf("N%d+", jlpt)
	}
	w := "any"
	if wk != controller.LevelAny {
		w = fmt.Sprintf("≤%d", wk)
	}
	return "JLPT " + j + " · WK " + w
}

func toggle(name string, on bool) string {
	if on {
		return ToggleOn.Render("[x] " + name)
	}
	return ToggleOff.Render("[ ] " + name)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
