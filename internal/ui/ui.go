package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/cineai/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BoardView ViewState = iota
	RoomView
	InputView
	ConfirmView
)

type inputKind int

const (
	inputCreate inputKind = iota
	inputJoin
	inputHistory
	inputInvite
)

var prompts = map[inputKind]struct{ title, placeholder string }{
	inputCreate:  {"Create a blend", "Movie Night"},
	inputJoin:    {"Join a blend", "blend code"},
	inputHistory: {"Add movies you've watched", "Inception, The Matrix, Interstellar"},
	inputInvite:  {"Invite someone", "username"},
}

// Model represents the TUI application state.
type Model struct {
	ctx  context.Context
	deps tasks.Deps
	opts tasks.Options

	view ViewState
	prev ViewState // view to return to from input and confirm

	board     *tasks.BlendBoard
	boardStop context.CancelFunc
	room      *tasks.BlendRoom
	roomStop  context.CancelFunc

	notices chan tasks.Notice
	changed chan struct{}

	list      list.Model
	input     textinput.Model
	inputKind inputKind
	drafts    map[inputKind]string // submitted text kept until its action succeeds
	target    string // blend code the pending delete applies to
	status    *tasks.Notice
	busy      bool
	authErr   string

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates the TUI over deps. Notices, Changed and Confirm in opts are replaced by the model's own.
func NewModel(ctx context.Context, deps tasks.Deps, opts tasks.Options) *Model {
	m := &Model{
		ctx:     ctx,
		deps:    deps,
		view:    BoardView,
		notices: make(chan tasks.Notice, 32),
		changed: make(chan struct{}, 1),
		help:    help.New(),
		keys:    newKeyMap(),
		drafts:  make(map[inputKind]string),
	}

	opts.Notices = m.notices
	opts.Changed = m.changed
	opts.Confirm = nil
	m.opts = opts
	m.board = tasks.NewBlendBoard(deps, opts)

	m.list = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.list.Title = "Your Blends"
	m.list.SetShowHelp(false)
	m.list.SetStatusBarItemName("blend", "blends")

	m.input = textinput.New()
	m.input.CharLimit = 500
	return m
}

// Init mounts the list view and starts listening to the controllers.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.mountBoard(), m.waitForNotice(), m.waitForChange())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		m.input.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		if m.authErr != "" {
			return m.handleAuthKeys(msg)
		}
		switch m.view {
		case BoardView:
			return m.handleBoardKeys(msg)
		case RoomView:
			return m.handleRoomKeys(msg)
		case InputView:
			return m.handleInputKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgBoardMounted:
		return m, m.refresh()

	case MsgRoomMounted:
		return m, nil

	case MsgNotice:
		n := msg.data.(tasks.Notice)
		m.status = &n
		return m, tea.Batch(m.follow(n), m.waitForNotice())

	case MsgChanged:
		return m, tea.Batch(m.refresh(), m.waitForChange())

	case MsgActionDone:
		m.busy = false
		return m, m.refresh()

	case MsgInputDone:
		done := msg.data.(struct {
			input inputKind
			err   error
		})
		m.busy = false
		if done.err == nil {
			delete(m.drafts, done.input)
		}
		return m, m.refresh()
	}
	return m, nil
}

// follow acts on a notice's navigation request.
func (m *Model) follow(n tasks.Notice) tea.Cmd {
	switch {
	case n.Navigate == "":
		return nil
	case n.Navigate == tasks.RouteLogin:
		m.authErr = n.Message
		m.stop()
		return nil
	case n.Navigate == tasks.RouteBlends:
		if m.room != nil {
			return m.closeRoom()
		}
		return nil
	}

	code, ok := tasks.RouteCode(n.Navigate)
	if !ok || (m.room != nil && m.room.Code() == code) {
		return nil
	}
	return m.openRoom(code)
}

func (m *Model) handleAuthKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) || msg.String() == "enter" || msg.String() == "esc" {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.stop()
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if code := m.selectedCode(); code != "" {
			return m, m.openRoom(code)
		}
		return m, nil
	case key.Matches(msg, m.keys.create):
		return m, m.startInput(inputCreate)
	case key.Matches(msg, m.keys.join):
		return m, m.startInput(inputJoin)
	case key.Matches(msg, m.keys.history):
		return m, m.startInput(inputHistory)
	case key.Matches(msg, m.keys.copy):
		if code := m.selectedCode(); code != "" {
			return m, m.run(func(context.Context) error { return m.board.CopyCode(code) })
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if code := m.selectedCode(); code != "" {
			m.confirm(code)
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.run(func(ctx context.Context) error { m.board.RefreshList(ctx); return nil })
	}

	return m.updateList(msg)
}

func (m *Model) handleRoomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	room := m.room
	switch {
	case key.Matches(msg, m.keys.quit):
		m.stop()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		return m, m.closeRoom()
	case key.Matches(msg, m.keys.history):
		return m, m.startInput(inputHistory)
	case key.Matches(msg, m.keys.invite):
		return m, m.startInput(inputInvite)
	case key.Matches(msg, m.keys.copy):
		return m, m.run(func(context.Context) error { return room.CopyCode() })
	case key.Matches(msg, m.keys.remove):
		m.confirm(room.Code())
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.run(func(ctx context.Context) error { room.FetchDetail(ctx); return nil })
	}
	return m, nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = m.prev
		m.input.Blur()
		return m, nil
	case "enter":
		value := m.input.Value()
		m.drafts[m.inputKind] = value
		m.view = m.prev
		m.input.Blur()
		return m, m.submit(m.inputKind, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = m.prev
		code, room := m.target, m.room
		if m.prev == RoomView && room != nil {
			return m, m.run(func(ctx context.Context) error { return room.Delete(ctx) })
		}
		return m, m.run(func(ctx context.Context) error { return m.board.Delete(ctx, code) })
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = m.prev
	}
	return m, nil
}

func (m *Model) confirm(code string) {
	m.target = code
	m.prev = m.view
	m.view = ConfirmView
}

func (m *Model) startInput(kind inputKind) tea.Cmd {
	p := prompts[kind]
	m.inputKind = kind
	m.prev = m.view
	m.view = InputView
	m.input.Reset()
	m.input.SetValue(m.drafts[kind])
	m.input.Placeholder = p.placeholder
	m.input.Prompt = "› "
	return m.input.Focus()
}

// submit runs the action an input was opened for.
func (m *Model) submit(kind inputKind, value string) tea.Cmd {
	room := m.room
	inRoom := m.prev == RoomView && room != nil

	var action func(context.Context) error
	switch kind {
	case inputCreate:
		action = func(ctx context.Context) error { _, err := m.board.Create(ctx, value); return err }
	case inputJoin:
		action = func(ctx context.Context) error { _, err := m.board.Join(ctx, value); return err }
	case inputHistory:
		if inRoom {
			action = func(ctx context.Context) error { _, err := room.AddHistory(ctx, value); return err }
		} else {
			action = func(ctx context.Context) error { _, err := m.board.AddHistory(ctx, value); return err }
		}
	case inputInvite:
		if inRoom {
			action = func(ctx context.Context) error { _, err := room.Invite(ctx, value); return err }
		}
	}
	if action == nil {
		return nil
	}

	m.busy = true
	ctx := m.ctx
	return func() tea.Msg {
		return inputDoneMsg(kind, action(ctx))
	}
}

// run executes an action off the update loop. Its outcome reaches the user as a notice.
func (m *Model) run(action func(context.Context) error) tea.Cmd {
	m.busy = true
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg(action(ctx))
	}
}

func (m *Model) selectedCode() string {
	if it, ok := m.list.SelectedItem().(blendItem); ok {
		return it.card.Summary.Code
	}
	return ""
}

func (m *Model) mountBoard() tea.Cmd {
	ctx, stop := context.WithCancel(m.ctx)
	m.boardStop = stop
	board := m.board

	return func() tea.Msg {
		err := board.Mount(ctx)
		if err == nil {
			go board.Run(ctx)
		}
		return boardMountedMsg(err)
	}
}

func (m *Model) openRoom(code string) tea.Cmd {
	if m.boardStop != nil {
		m.boardStop()
		m.boardStop = nil
	}
	m.board.Unmount()
	if m.roomStop != nil {
		m.roomStop()
		m.room.Unmount()
	}

	ctx, stop := context.WithCancel(m.ctx)
	room := tasks.NewBlendRoom(code, m.deps, m.opts)
	m.room, m.roomStop = room, stop
	m.view = RoomView

	return func() tea.Msg {
		err := room.Mount(ctx)
		if err == nil {
			go room.Run(ctx)
		}
		return roomMountedMsg(room, err)
	}
}

func (m *Model) closeRoom() tea.Cmd {
	if m.roomStop != nil {
		m.roomStop()
		m.room.Unmount()
	}
	m.room, m.roomStop = nil, nil
	m.view = BoardView
	return m.mountBoard()
}

// stop unmounts whichever screen is live.
func (m *Model) stop() {
	if m.boardStop != nil {
		m.boardStop()
	}
	if m.roomStop != nil {
		m.roomStop()
	}
	m.board.Unmount()
	if m.room != nil {
		m.room.Unmount()
	}
}

func (m *Model) refresh() tea.Cmd {
	return m.list.SetItems(boardItems(m.board.Snapshot()))
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != BoardView {
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) waitForNotice() tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-m.notices:
			return noticeMsg(n)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changed:
			return changedMsg()
		case <-m.ctx.Done():
			return nil
		}
	}
}
