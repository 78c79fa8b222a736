package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/action"
	"github.com/fwojciec/codey/chat"
	"github.com/fwojciec/codey/chroma"
	"github.com/fwojciec/codey/palette"
	"github.com/fwojciec/codey/segment"
	"github.com/fwojciec/codey/suggest"
	"go.uber.org/zap"
)

var _ tea.Model = Model{}

const (
	inputHeight = 3
	// chrome is the number of rows around the viewport: header, hint,
	// status and the input.
	chrome = 3 + inputHeight
)

type focus int

const (
	focusInput focus = iota
	focusSidebar
	focusThemes
	focusThemePrompt
)

// Model is the Bubble Tea model for the codey TUI.
type Model struct {
	// Input is the message editor. Exported for test access.
	Input textarea.Model
	// Viewport is the scrollable conversation. Exported for test access.
	Viewport viewport.Model

	ctx       context.Context
	store     Store
	chat      *chat.Controller
	actions   *action.Coordinator
	completer *suggest.Completer
	debounce  time.Duration
	themes    *palette.Generator
	files     codey.FileReader
	dictation codey.Dictation
	hl        *chroma.Highlighter
	clipboard io.Writer
	logger    *zap.Logger
	keys      KeyMap

	palette palette.Palette
	styles  Styles
	spinner spinner.Model

	// blocks caches rendered assistant messages by message ID.
	blocks   map[int64]*AssistantBlock
	selected action.Key
	picked   bool
	pending  int // in-flight actions

	focus         focus
	sideCursor    int
	renaming      bool
	rename        textinput.Model
	confirmDelete string
	themeCursor   int
	themePrompt   textinput.Model
	generating    bool

	attachment *codey.Attachment
	ghost      string

	dictating  bool
	dictCancel context.CancelFunc

	running bool
	updates chan chat.Update
	done    chan chat.State
	status  string
	err     error
	width   int
	height  int
	ready   bool
}

// Option configures a Model.
type Option func(*Model)

// WithActions enables refactor and explain on code blocks.
func WithActions(c *action.Coordinator) Option {
	return func(m *Model) { m.actions = c }
}

// WithCompleter enables autocomplete. A request is made once the input
// has been unchanged for debounce.
func WithCompleter(c *suggest.Completer, debounce time.Duration) Option {
	return func(m *Model) {
		m.completer = c
		m.debounce = debounce
	}
}

// WithThemeGenerator enables generating themes from a description.
func WithThemeGenerator(g *palette.Generator) Option {
	return func(m *Model) { m.themes = g }
}

// WithFileReader enables /attach.
func WithFileReader(r codey.FileReader) Option {
	return func(m *Model) { m.files = r }
}

// WithDictation enables voice input.
func WithDictation(d codey.Dictation) Option {
	return func(m *Model) { m.dictation = d }
}

// WithHighlighter sets the code highlighter.
func WithHighlighter(h *chroma.Highlighter) Option {
	return func(m *Model) { m.hl = h }
}

// WithClipboard sets where OSC 52 clipboard sequences are written.
func WithClipboard(w io.Writer) Option {
	return func(m *Model) { m.clipboard = w }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a TUI Model over the store and the chat controller.
func New(store Store, ctrl *chat.Controller, opts ...Option) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask Codey anything... (/attach <file> to attach)"
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = DefaultKeyMap().Newline
	ta.Focus()

	rename := textinput.New()
	rename.Prompt = ""
	prompt := textinput.New()
	prompt.Placeholder = "a calm forest at dusk"
	prompt.Prompt = "✨ "

	m := Model{
		Input:       ta,
		ctx:         context.Background(),
		store:       store,
		chat:        ctrl,
		debounce:    300 * time.Millisecond,
		clipboard:   os.Stdout,
		logger:      zap.NewNop(),
		keys:        DefaultKeyMap(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		blocks:      make(map[int64]*AssistantBlock),
		rename:      rename,
		themePrompt: prompt,
	}
	for _, opt := range opts {
		opt(&m)
	}
	ui := store.UI()
	m.palette = palette.Named(ui.Theme, ui.CustomThemes)
	m.styles = NewStyles(m.palette)
	m.spinner.Style = m.styles.Accent
	return m
}

// Running returns whether an exchange is streaming.
func (m Model) Running() bool { return m.running }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Ghost returns the autocomplete text shown after the input.
func (m Model) Ghost() string { return m.ghost }

// Attachment returns the attachment waiting to be sent.
func (m Model) Attachment() *codey.Attachment { return m.attachment }

// Palette returns the active palette.
func (m Model) Palette() palette.Palette { return m.palette }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case UpdateMsg:
		m = m.applyUpdate(msg.Update)
		if msg.updates != nil {
			return m, listenForUpdate(msg.updates, msg.done)
		}
		return m, nil

	case ExchangeDoneMsg:
		if msg.done != nil && msg.done != m.done {
			return m.refresh(false), nil
		}
		m.running = false
		m.updates = nil
		m.done = nil
		m = m.refresh(false)
		return m, m.Input.Focus()

	case ActionDoneMsg:
		m.pending = max(m.pending-1, 0)
		return m.refresh(false), nil

	case suggestTickMsg:
		if m.completer == nil || !m.completer.Latest(msg.ticket) {
			return m, nil
		}
		return m, requestSuggestion(m.ctx, m.completer, msg.ticket)

	case suggestMsg:
		if !msg.ok {
			return m, nil
		}
		if cur, text := m.completer.Current(); cur == msg.ticket && cur.Input == m.Input.Value() {
			m.ghost = text
		}
		return m, nil

	case themeMsg:
		m.generating = false
		if msg.err != nil {
			m.logger.Warn("generate theme", zap.Error(msg.err))
			m.err = msg.err
			return m, nil
		}
		return m.addTheme(msg.theme), nil

	case attachMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.attachment = &msg.att
		m.status = "Attached " + msg.att.Name
		return m, nil

	case dictationStartedMsg:
		m.status = "Listening... alt+v to stop"
		return m, listenForDictation(msg.ch)

	case dictationMsg:
		v := m.Input.Value()
		if v != "" && !strings.HasSuffix(v, " ") {
			v += " "
		}
		m.Input.SetValue(v + strings.TrimSpace(msg.text))
		return m, listenForDictation(msg.ch)

	case dictationDoneMsg:
		m.dictating = false
		if m.dictCancel != nil {
			m.dictCancel()
			m.dictCancel = nil
		}
		m.status = ""
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.logger.Warn("copy to clipboard", zap.Error(msg.err))
			m.err = msg.err
		} else {
			m.status = "Copied to clipboard"
		}
		return m, nil

	case spinner.TickMsg:
		if !m.running && m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if m.focus == focusInput {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	main := strings.Join([]string{
		m.headerLine(),
		m.mainArea(),
		m.hintLine(),
		m.Input.View(),
		m.statusLine(),
	}, "\n")
	if sw := m.sidebarOuterWidth(); sw > 0 {
		side := m.styles.Sidebar.Width(sw - 1).Height(m.height).Render(m.sidebarView(sw - 2))
		return lipgloss.JoinHorizontal(lipgloss.Top, side, main)
	}
	return main
}

func (m Model) sidebarOuterWidth() int {
	if m.width >= 90 || (m.focus == focusSidebar && m.width >= sidebarWidth+20) {
		return sidebarWidth
	}
	return 0
}

func (m Model) mainWidth() int {
	return max(m.width-m.sidebarOuterWidth(), 1)
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	m.width, m.height = msg.Width, msg.Height
	vpHeight := max(msg.Height-chrome, 1)
	w := m.mainWidth()
	if !m.ready {
		m.Viewport = viewport.New(w, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = w
		m.Viewport.Height = vpHeight
	}
	m.Input.SetWidth(w)
	m.rename.Width = sidebarWidth - 6
	return m.refresh(true)
}

// layout reapplies widths after the sidebar appears or disappears.
func (m Model) layout() Model {
	if !m.ready {
		return m
	}
	return m.handleWindowSize(tea.WindowSizeMsg{Width: m.width, Height: m.height})
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.running && m.chat.Busy() {
			m.chat.Stop()
			return m, nil
		}
		if m.dictCancel != nil {
			m.dictCancel()
		}
		return m, tea.Quit
	}

	switch m.focus {
	case focusSidebar:
		return m.handleSidebarKey(msg)
	case focusThemes:
		return m.handleThemeKey(msg)
	case focusThemePrompt:
		return m.handleThemePromptKey(msg)
	}

	m.err = nil
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Stop):
		switch {
		case m.running:
			m.chat.Stop()
		case m.ghost != "":
			m.ghost = ""
		case m.picked:
			m.picked = false
			m = m.refresh(false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Send):
		return m.submit()

	case key.Matches(msg, m.keys.Accept):
		if m.ghost == "" {
			return m, nil
		}
		m.Input.SetValue(m.Input.Value() + m.ghost)
		m.ghost = ""
		return m, m.inputChanged()

	case key.Matches(msg, m.keys.Sessions):
		m.focus = focusSidebar
		m.sideCursor = m.activeIndex()
		m.Input.Blur()
		return m.layout(), nil

	case key.Matches(msg, m.keys.NewChat):
		m.chat.NewSession()
		m.picked = false
		return m.refresh(true), nil

	case key.Matches(msg, m.keys.Mode):
		next := m.chat.Mode().Next()
		m.chat.SetMode(next)
		ui := m.store.UI()
		ui.Mode = next
		m.store.SetUI(ui)
		m.status = "Mode: " + next.Label()
		return m, nil

	case key.Matches(msg, m.keys.Themes):
		m.focus = focusThemes
		m.themeCursor = 0
		m.Input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Dictate):
		return m.toggleDictation()

	case key.Matches(msg, m.keys.PrevCode):
		return m.moveSelection(-1), nil

	case key.Matches(msg, m.keys.NextCode):
		return m.moveSelection(1), nil

	case key.Matches(msg, m.keys.Refactor):
		return m.runAction(action.Refactor)

	case key.Matches(msg, m.keys.Explain):
		return m.runAction(action.Explain)

	case key.Matches(msg, m.keys.Copy):
		return m.copySelected()

	case key.Matches(msg, m.keys.Dismiss):
		if m.picked && m.actions != nil {
			m.actions.Dismiss(m.selected, action.Refactor)
			m.actions.Dismiss(m.selected, action.Explain)
			m = m.refresh(false)
		}
		return m, nil
	}

	if prompt, ok := m.starterPrompt(msg); ok {
		m.Input.SetValue(prompt)
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	// Only non-character keys reach the viewport: j and k are both scroll
	// keys and text.
	if msg.Type != tea.KeyRunes && msg.Type != tea.KeySpace {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	before := m.Input.Value()
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	if m.Input.Value() != before {
		m.ghost = ""
		cmds = append(cmds, m.inputChanged())
	}
	return m, tea.Batch(cmds...)
}

// starterPrompt maps the digits 1-4 to the starter prompts while the
// session and the input are both empty.
func (m Model) starterPrompt(msg tea.KeyMsg) (string, bool) {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 || m.Input.Value() != "" {
		return "", false
	}
	i := int(msg.Runes[0] - '1')
	if i < 0 || i >= len(codey.Suggestions) {
		return "", false
	}
	if sess, err := m.store.Session(m.store.ActiveID()); err == nil && len(sess.Messages) > 0 {
		return "", false
	}
	return codey.Suggestions[i].Prompt, true
}

// inputChanged issues a new autocomplete ticket and schedules the
// debounced request for it.
func (m Model) inputChanged() tea.Cmd {
	if m.completer == nil {
		return nil
	}
	t := m.completer.Next(m.Input.Value())
	return tea.Tick(m.debounce, func(time.Time) tea.Msg { return suggestTickMsg{ticket: t} })
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.Input.Value()
	trimmed := strings.TrimSpace(text)
	if handle, ok := strings.CutPrefix(trimmed, "/attach "); ok {
		m.Input.Reset()
		return m, m.attach(strings.TrimSpace(handle))
	}
	if trimmed == "/detach" {
		m.Input.Reset()
		m.attachment = nil
		return m, nil
	}

	e, err := m.chat.Submit(text, m.attachment)
	if err != nil {
		if errors.Is(err, codey.ErrUserInputRejected) && trimmed == "" && m.attachment == nil {
			return m, nil
		}
		m.logger.Debug("submit rejected", zap.Error(err))
		m.err = err
		if errors.Is(err, codey.ErrBusy) {
			m.err = nil
			m.status = "Codey is still answering. esc to stop."
		}
		return m, nil
	}

	m.Input.Reset()
	m.attachment = nil
	m.ghost = ""
	m.status = ""
	if m.completer != nil {
		m.completer.Next("")
	}
	m.updates = make(chan chat.Update, 64)
	m.done = make(chan chat.State, 1)
	m.running = true
	m = m.refresh(true)
	return m, tea.Batch(
		runExchange(m.ctx, e, m.updates, m.done),
		listenForUpdate(m.updates, m.done),
		m.spinner.Tick,
	)
}

func (m Model) attach(handle string) tea.Cmd {
	if m.files == nil {
		return func() tea.Msg {
			return attachMsg{err: fmt.Errorf("attachments are not available: %w", codey.ErrUserInputRejected)}
		}
	}
	files, ctx := m.files, m.ctx
	return func() tea.Msg {
		data, mime, err := files.ReadFile(ctx, handle)
		if err != nil {
			return attachMsg{err: err}
		}
		return attachMsg{att: codey.NewAttachment(filepath.Base(handle), mime, data)}
	}
}

func (m Model) applyUpdate(u chat.Update) Model {
	if u.Removed != 0 && u.Message.ID != u.Removed {
		delete(m.blocks, u.Removed)
		if m.actions != nil {
			m.actions.Forget(u.Removed)
		}
	}
	if u.State == chat.StateErrored && u.Err != nil {
		m.err = u.Err
	}
	return m.refresh(u.SessionID == m.store.ActiveID())
}

// refresh re-renders the active session. With follow set, or when the
// viewport was already at the bottom, the view scrolls to the end.
func (m Model) refresh(follow bool) Model {
	if !m.ready {
		return m
	}
	atBottom := m.Viewport.AtBottom()
	m.Viewport.SetContent(m.renderContent())
	if follow || atBottom {
		m.Viewport.GotoBottom()
	}
	return m
}

func (m Model) renderContent() string {
	width := m.Viewport.Width
	sess, err := m.store.Session(m.store.ActiveID())
	if err != nil || len(sess.Messages) == 0 {
		return m.welcome(width)
	}
	parts := make([]string, 0, len(sess.Messages))
	for _, msg := range sess.Messages {
		switch {
		case msg.Sender == codey.RoleUser:
			parts = append(parts, NewUserMessageBlock(msg.Text, msg.Attachment, m.styles).View(width))
		case msg.Notice:
			parts = append(parts, NewNoticeBlock(msg.Text, m.styles).View(width))
		default:
			b, ok := m.blocks[msg.ID]
			if !ok {
				b = NewAssistantBlock(msg, m.styles, m.hl)
				m.blocks[msg.ID] = b
			}
			b.Set(msg, m.decor(msg))
			parts = append(parts, b.View(width))
		}
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) welcome(width int) string {
	lines := []string{
		m.styles.Accent.Render("Hey! I'm Codey, your coding buddy."),
		m.styles.Muted.Render("Ask anything, or press a number to start with:"),
		"",
	}
	for i, s := range codey.Suggestions {
		lines = append(lines, m.styles.Accent.Render(fmt.Sprintf(" %d ", i+1))+" "+s.Title)
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) decor(msg codey.Message) []CodeDecor {
	if msg.Streaming {
		return nil
	}
	codes := segment.Codes(msg.Text)
	if len(codes) == 0 {
		return nil
	}
	out := make([]CodeDecor, len(codes))
	for i := range codes {
		k := action.Key{MessageID: msg.ID, Block: i}
		out[i].Selected = m.picked && m.selected == k
		if m.actions != nil {
			out[i].Refactor = m.actions.Get(k, action.Refactor)
			out[i].Explain = m.actions.Get(k, action.Explain)
		}
	}
	return out
}

// codeKeys lists the code blocks of the active session's finished
// assistant messages, oldest first.
func (m Model) codeKeys() ([]action.Key, []segment.Code) {
	sess, err := m.store.Session(m.store.ActiveID())
	if err != nil {
		return nil, nil
	}
	var (
		keys  []action.Key
		codes []segment.Code
	)
	for _, msg := range sess.Messages {
		if msg.Sender != codey.RoleAssistant || msg.Notice || msg.Streaming {
			continue
		}
		for i, c := range segment.Codes(msg.Text) {
			keys = append(keys, action.Key{MessageID: msg.ID, Block: i})
			codes = append(codes, c)
		}
	}
	return keys, codes
}

func (m Model) moveSelection(delta int) Model {
	keys, _ := m.codeKeys()
	if len(keys) == 0 {
		m.picked = false
		return m
	}
	idx := len(keys) - 1
	if m.picked {
		for i, k := range keys {
			if k == m.selected {
				idx = min(max(i+delta, 0), len(keys)-1)
				break
			}
		}
	}
	m.selected = keys[idx]
	m.picked = true
	return m.refresh(false)
}

func (m Model) selectedCode() (segment.Code, bool) {
	if !m.picked {
		return segment.Code{}, false
	}
	keys, codes := m.codeKeys()
	for i, k := range keys {
		if k == m.selected {
			return codes[i], true
		}
	}
	return segment.Code{}, false
}

func (m Model) runAction(kind action.Kind) (tea.Model, tea.Cmd) {
	code, ok := m.selectedCode()
	if !ok {
		m.status = "Select a code block with alt+↑/alt+↓ first"
		return m, nil
	}
	if m.actions == nil {
		return m, nil
	}
	var job *action.Job
	if kind == action.Refactor {
		job = m.actions.Refactor(m.selected, code)
	} else {
		job = m.actions.Explain(m.selected, code)
	}
	m.pending++
	m = m.refresh(false)
	k, ctx := m.selected, m.ctx
	run := func() tea.Msg {
		res, current := job.Run(ctx)
		return ActionDoneMsg{Key: k, Result: res, Current: current}
	}
	return m, tea.Batch(run, m.spinner.Tick)
}

func (m Model) copySelected() (tea.Model, tea.Cmd) {
	code, ok := m.selectedCode()
	if !ok {
		m.status = "Select a code block with alt+↑/alt+↓ first"
		return m, nil
	}
	text := code.Text()
	if m.actions != nil {
		if r := m.actions.Get(m.selected, action.Refactor); r.Status == action.Done && !r.Unchanged {
			text = r.Replacement
		}
	}
	w := m.clipboard
	return m, func() tea.Msg {
		_, err := io.WriteString(w, ansi.SetSystemClipboard(text))
		return copiedMsg{err: err}
	}
}

func (m Model) toggleDictation() (tea.Model, tea.Cmd) {
	if m.dictation == nil {
		m.status = "Dictation is not available"
		return m, nil
	}
	if m.dictating {
		if m.dictCancel != nil {
			m.dictCancel()
		}
		return m, nil
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.dictating = true
	m.dictCancel = cancel
	d := m.dictation
	return m, func() tea.Msg {
		ch, err := d.StartDictation(ctx)
		if err != nil {
			return dictationDoneMsg{err: err}
		}
		return dictationStartedMsg{ch: ch}
	}
}

func (m Model) activeIndex() int {
	active := m.store.ActiveID()
	for i, s := range m.store.List() {
		if s.ID == active {
			return i
		}
	}
	return 0
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.renaming {
		switch msg.Type {
		case tea.KeyEnter:
			if s, ok := m.sessionAt(m.sideCursor); ok {
				if title := strings.TrimSpace(m.rename.Value()); title != "" {
					if err := m.store.Rename(s.ID, title); err != nil {
						m.err = err
					}
				}
			}
			m.renaming = false
			m.rename.Blur()
			return m, nil
		case tea.KeyEsc:
			m.renaming = false
			m.rename.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.rename, cmd = m.rename.Update(msg)
		return m, cmd
	}

	if m.confirmDelete != "" {
		id := m.confirmDelete
		m.confirmDelete = ""
		if key.Matches(msg, m.keys.Confirm) {
			if err := m.chat.DeleteSession(id); err != nil {
				m.err = err
			}
			m.sideCursor = min(m.sideCursor, max(len(m.store.List())-1, 0))
			m.picked = false
			return m.refresh(true), nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.sideCursor = max(m.sideCursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.sideCursor = min(m.sideCursor+1, max(len(m.store.List())-1, 0))
	case msg.Type == tea.KeyEnter:
		if s, ok := m.sessionAt(m.sideCursor); ok {
			if err := m.chat.Activate(s.ID); err != nil {
				m.err = err
			}
		}
		m.focus = focusInput
		m.picked = false
		m = m.layout()
		return m, m.Input.Focus()
	case key.Matches(msg, m.keys.NewChat), msg.String() == "n":
		m.chat.NewSession()
		m.sideCursor = 0
		m.picked = false
		return m.refresh(true), nil
	case key.Matches(msg, m.keys.Rename):
		if s, ok := m.sessionAt(m.sideCursor); ok {
			m.renaming = true
			m.rename.SetValue(s.Title)
			m.rename.CursorEnd()
			return m, m.rename.Focus()
		}
	case key.Matches(msg, m.keys.Delete):
		if s, ok := m.sessionAt(m.sideCursor); ok {
			m.confirmDelete = s.ID
		}
	case key.Matches(msg, m.keys.Stop), key.Matches(msg, m.keys.Sessions):
		m.focus = focusInput
		m = m.layout()
		return m, m.Input.Focus()
	}
	return m, nil
}

// themeItems returns the presets followed by custom themes.
func (m Model) themeItems() []codey.Theme {
	return append(append([]codey.Theme{}, palette.Presets...), m.store.UI().CustomThemes...)
}

func (m Model) handleThemeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.themeItems()
	last := len(items) - 1
	if m.themes != nil {
		last++ // the generate entry
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.themeCursor = max(m.themeCursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.themeCursor = min(m.themeCursor+1, last)
	case msg.Type == tea.KeyEnter:
		if m.themeCursor == len(items) {
			m.focus = focusThemePrompt
			m.themePrompt.SetValue("")
			return m, m.themePrompt.Focus()
		}
		m = m.applyTheme(items[m.themeCursor].Name)
		m.focus = focusInput
		return m, m.Input.Focus()
	case key.Matches(msg, m.keys.Stop), key.Matches(msg, m.keys.Themes):
		m.focus = focusInput
		return m, m.Input.Focus()
	}
	return m, nil
}

func (m Model) handleThemePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.themePrompt.Blur()
		m.focus = focusThemes
		return m, nil
	case tea.KeyEnter:
		if m.generating {
			return m, nil
		}
		desc := m.themePrompt.Value()
		m.generating = true
		m.err = nil
		g, ctx := m.themes, m.ctx
		return m, func() tea.Msg {
			t, err := g.Generate(ctx, desc)
			return themeMsg{theme: t, err: err}
		}
	}
	var cmd tea.Cmd
	m.themePrompt, cmd = m.themePrompt.Update(msg)
	return m, cmd
}

// addTheme stores a generated theme, replacing a custom theme of the same
// name, and selects it.
func (m Model) addTheme(t codey.Theme) Model {
	if _, err := palette.Resolve(t); err != nil {
		m.err = err
		return m
	}
	ui := m.store.UI()
	replaced := false
	for i, c := range ui.CustomThemes {
		if strings.EqualFold(c.Name, t.Name) {
			ui.CustomThemes[i] = t
			replaced = true
		}
	}
	if !replaced {
		ui.CustomThemes = append(ui.CustomThemes, t)
	}
	m.store.SetUI(ui)
	m.themePrompt.Blur()
	m.focus = focusInput
	m = m.applyTheme(t.Name)
	m.status = "Theme: " + t.Name
	return m
}

func (m Model) applyTheme(name string) Model {
	ui := m.store.UI()
	ui.Theme = strings.ToLower(name)
	m.store.SetUI(ui)
	m.palette = palette.Named(ui.Theme, ui.CustomThemes)
	m.styles = NewStyles(m.palette)
	m.spinner.Style = m.styles.Accent
	m.blocks = make(map[int64]*AssistantBlock)
	return m.refresh(false)
}

func (m Model) mainArea() string {
	switch m.focus {
	case focusThemes, focusThemePrompt:
		return lipgloss.NewStyle().Width(m.mainWidth()).Height(m.Viewport.Height).MaxHeight(m.Viewport.Height).Render(m.themeView())
	}
	return m.Viewport.View()
}

func (m Model) themeView() string {
	lines := []string{m.styles.Accent.Render("Choose a theme"), ""}
	current := m.store.UI().Theme
	for i, t := range m.themeItems() {
		p, err := palette.Resolve(t)
		if err != nil {
			continue
		}
		swatch := lipgloss.NewStyle().Background(p.Light).Render("  ") +
			lipgloss.NewStyle().Background(p.Base).Render("  ") +
			lipgloss.NewStyle().Background(p.Dark).Render("  ")
		name := t.Name
		if strings.EqualFold(t.Name, current) {
			name += " ✓"
		}
		if i == m.themeCursor {
			name = m.styles.Selected.Render(" " + name + " ")
		} else {
			name = " " + name
		}
		lines = append(lines, swatch+" "+name)
	}
	if m.themes != nil {
		entry := " ✨ Generate a theme…"
		if m.themeCursor == len(m.themeItems()) {
			entry = m.styles.Selected.Render(entry + " ")
		}
		lines = append(lines, "", entry)
	}
	if m.focus == focusThemePrompt {
		lines = append(lines, "", m.styles.Muted.Render("Describe your theme:"), m.themePrompt.View())
		if m.generating {
			lines = append(lines, m.styles.Muted.Render("Generating…"))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) headerLine() string {
	title := codey.DefaultSessionTitle
	if sess, err := m.store.Session(m.store.ActiveID()); err == nil {
		title = sess.Title
	}
	left := m.styles.Header.Render("Codey") + " " + title
	right := m.styles.Accent.Render(m.chat.Mode().Label())
	gap := max(m.mainWidth()-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return ansi.Truncate(left+strings.Repeat(" ", gap)+right, m.mainWidth(), "…")
}

func (m Model) hintLine() string {
	var parts []string
	if m.attachment != nil {
		parts = append(parts, m.styles.Chip.Render(attachmentLabel(*m.attachment)))
	}
	if m.dictating {
		parts = append(parts, m.styles.Error.Render("● listening"))
	}
	if m.ghost != "" {
		parts = append(parts, m.styles.Muted.Render("tab ▸ …"+lastLine(m.Input.Value())+m.ghost))
	}
	return ansi.Truncate(strings.Join(parts, " "), m.mainWidth(), "…")
}

func (m Model) statusLine() string {
	var s string
	switch {
	case m.err != nil:
		s = m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	case m.status != "":
		s = m.styles.Muted.Render(m.status)
	case m.running:
		s = m.spinner.View() + m.styles.Muted.Render(" Generating... esc to stop")
	default:
		var help []string
		for _, b := range m.keys.shortHelp() {
			h := b.Help()
			help = append(help, h.Key+" "+h.Desc)
		}
		s = m.styles.Muted.Render(strings.Join(help, " · "))
	}
	return ansi.Truncate(s, m.mainWidth(), "…")
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// runExchange runs an exchange in a goroutine and signals completion.
func runExchange(ctx context.Context, e *chat.Exchange, updates chan<- chat.Update, done chan<- chat.State) tea.Cmd {
	return func() tea.Msg {
		st := e.Run(ctx, func(u chat.Update) {
			select {
			case updates <- u:
			case <-ctx.Done():
			}
		})
		close(updates)
		done <- st
		return nil
	}
}

// listenForUpdate waits for the next update from the channel. When the
// channel closes it reads the final state and returns ExchangeDoneMsg.
func listenForUpdate(ch <-chan chat.Update, done <-chan chat.State) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return ExchangeDoneMsg{State: <-done, done: done}
		}
		return UpdateMsg{Update: u, updates: ch, done: done}
	}
}

func requestSuggestion(ctx context.Context, c *suggest.Completer, t suggest.Ticket) tea.Cmd {
	return func() tea.Msg {
		_, ok, _ := c.Complete(ctx, t)
		return suggestMsg{ticket: t, ok: ok}
	}
}

func listenForDictation(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		text, ok := <-ch
		if !ok {
			return dictationDoneMsg{}
		}
		return dictationMsg{text: text, ch: ch}
	}
}
