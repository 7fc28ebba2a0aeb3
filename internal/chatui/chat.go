// Package chatui is the interactive chat surface: a thin bubbletea
// composition binding the session coordinator, the stream assembler and the
// reconnecting transport to a textarea and a viewport. All chat semantics
// live in the internal package; this one only routes input and renders
// state.
package chatui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hermes-agent/hermesctl/internal"
)

const inputPlaceholder = "Message the agent... (enter to send, ctrl+l sessions, ctrl+n new chat)"

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	systemStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("240"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	connectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	connectingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	disconnectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// Messages delivered into the bubbletea loop from transport callbacks and
// coordinator commands.
type (
	streamEventMsg   struct{ ev internal.Event }
	statusChangedMsg struct{ status internal.ConnectionStatus }
	terminalCloseMsg struct{}
	streamFailedMsg  struct{ message string }

	sessionsLoadedMsg struct {
		sessions []internal.Session
		err      error
	}
	sessionSelectedMsg struct {
		id  string
		err error
	}
	sessionCreatedMsg struct {
		id  string
		err error
	}
	sessionDeletedMsg struct {
		id  string
		err error
	}
	noticeExpiredMsg struct{ seq int }
)

type sessionItem struct {
	session internal.Session
}

func (i sessionItem) Title() string { return i.session.Title }
func (i sessionItem) Description() string {
	return fmt.Sprintf("%d messages, updated %s", i.session.MessageCount,
		i.session.UpdatedAt.Format("Jan 02 15:04"))
}
func (i sessionItem) FilterValue() string { return i.session.Title }

// Model is the chat surface state.
type Model struct {
	coord     *internal.Coordinator
	asm       *internal.Assembler
	transport *internal.Transport
	events    <-chan tea.Msg

	textarea    textarea.Model
	viewport    viewport.Model
	spinner     spinner.Model
	sessionList list.Model

	status      internal.ConnectionStatus
	showList    bool
	notice      string
	noticeSeq   int
	width       int
	height      int
	initialized bool
}

// New assembles the chat surface around an already-wired coordinator,
// assembler and transport. Transport callbacks feed events; the model
// re-arms a read on it after every delivery so inbound events stay ordered.
func New(coord *internal.Coordinator, asm *internal.Assembler, transport *internal.Transport, events <-chan tea.Msg) Model {
	ta := textarea.New()
	ta.Placeholder = inputPlaceholder
	ta.Focus()
	ta.SetHeight(3)
	ta.CharLimit = 0
	ta.ShowLineNumbers = false

	vp := viewport.New(80, 20)
	vp.SetContent("Connecting to Hermes Agent...")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))

	sl := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	sl.Title = "Sessions  (enter select, n new, d delete, esc close)"
	sl.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFF")).
		Background(lipgloss.Color("#7D56F4")).
		Padding(0, 1)
	sl.SetShowHelp(false)

	return Model{
		coord:       coord,
		asm:         asm,
		transport:   transport,
		events:      events,
		textarea:    ta,
		viewport:    vp,
		spinner:     sp,
		sessionList: sl,
		status:      transport.Status(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.loadSessionsCmd(), m.waitForEvent())
}

// waitForEvent reads one transport-originated message; the corresponding
// Update branch always re-arms it.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

func (m Model) loadSessionsCmd() tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sessions, err := coord.LoadSessions(ctx)
		return sessionsLoadedMsg{sessions: sessions, err: err}
	}
}

func (m Model) selectSessionCmd(id string) tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return sessionSelectedMsg{id: id, err: coord.SelectSession(ctx, id)}
	}
}

func (m Model) createSessionCmd() tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		id, err := coord.CreateSession(ctx)
		return sessionCreatedMsg{id: id, err: err}
	}
}

func (m Model) deleteSessionCmd(id string) tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return sessionDeletedMsg{id: id, err: coord.DeleteSession(ctx, id)}
	}
}

func (m *Model) setNotice(text string) tea.Cmd {
	m.notice = text
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

func (m *Model) refreshSessionItems() {
	sessions := m.coord.Sessions()
	items := make([]list.Item, len(sessions))
	for i, s := range sessions {
		items[i] = sessionItem{session: s}
	}
	m.sessionList.SetItems(items)
}

// canSend reports whether input should reach the transport: a session must
// be active, no turn streaming, and the stream connected.
func (m Model) canSend() bool {
	return m.coord.ActiveSession() != "" &&
		!m.asm.Streaming() &&
		m.status == internal.StatusConnected
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	if m.showList {
		return m.updateSessionList(msg)
	}

	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyCtrlL:
			m.refreshSessionItems()
			m.sessionList.SetSize(m.width, m.height)
			m.showList = true
			return m, nil

		case tea.KeyCtrlN:
			return m, m.createSessionCmd()

		case tea.KeyEnter:
			if msg.Alt {
				m.textarea.SetValue(m.textarea.Value() + "\n")
				return m, taCmd
			}
			text := strings.TrimSpace(m.textarea.Value())
			if text == "" || !m.canSend() {
				return m, taCmd
			}
			return m.sendMessage(text, taCmd, vpCmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textarea.SetWidth(msg.Width - 2)
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = msg.Height - m.textarea.Height() - 2
		if !m.initialized {
			m.initialized = true
			m.refreshViewport()
		}

	case streamEventMsg:
		next, cmd := m.handleStreamEvent(msg.ev)
		return next, tea.Batch(cmd, m.waitForEvent())

	case streamFailedMsg:
		m.refreshViewport()
		return m, tea.Batch(m.setNotice("Agent error: "+msg.message), m.waitForEvent())

	case statusChangedMsg:
		m.status = msg.status
		// An abrupt disconnect mid-turn is equivalent to a stream error:
		// the half-formed response must not survive a reconnect.
		if msg.status != internal.StatusConnected && m.asm.Streaming() {
			m.asm.Abort()
			m.refreshViewport()
			return m, tea.Batch(
				m.setNotice("Connection lost mid-response, partial output discarded"),
				m.waitForEvent(),
			)
		}
		return m, m.waitForEvent()

	case terminalCloseMsg:
		m.status = internal.StatusDisconnected
		return m, tea.Batch(
			m.setNotice("Gave up reconnecting; restart chat to try again"),
			m.waitForEvent(),
		)

	case sessionsLoadedMsg:
		if msg.err != nil {
			return m, m.setNotice("Failed to load sessions: " + msg.err.Error())
		}
		m.refreshSessionItems()
		if m.coord.ActiveSession() == "" && len(msg.sessions) == 0 {
			return m, m.createSessionCmd()
		}
		if m.coord.ActiveSession() == "" && len(msg.sessions) > 0 {
			return m, m.selectSessionCmd(msg.sessions[0].ID)
		}
		return m, nil

	case sessionSelectedMsg:
		if msg.err != nil {
			return m, m.setNotice("Failed to open session: " + msg.err.Error())
		}
		m.refreshViewport()
		return m, nil

	case sessionCreatedMsg:
		if msg.err != nil {
			return m, m.setNotice("Failed to create session: " + msg.err.Error())
		}
		m.refreshSessionItems()
		m.refreshViewport()
		return m, nil

	case sessionDeletedMsg:
		if msg.err != nil {
			return m, m.setNotice("Failed to delete session: " + msg.err.Error())
		}
		m.refreshSessionItems()
		m.refreshViewport()
		return m, nil

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case spinner.TickMsg:
		if m.asm.Streaming() {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, tea.Batch(taCmd, vpCmd, spCmd)
		}
		return m, tea.Batch(taCmd, vpCmd)
	}

	return m, tea.Batch(taCmd, vpCmd)
}

func (m Model) updateSessionList(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+l":
			m.showList = false
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			if i, ok := m.sessionList.SelectedItem().(sessionItem); ok {
				m.showList = false
				return m, m.selectSessionCmd(i.session.ID)
			}
		case "n":
			m.showList = false
			return m, m.createSessionCmd()
		case "d":
			if i, ok := m.sessionList.SelectedItem().(sessionItem); ok {
				m.showList = false
				return m, m.deleteSessionCmd(i.session.ID)
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sessionList.SetSize(msg.Width, msg.Height)
	}

	var cmd tea.Cmd
	m.sessionList, cmd = m.sessionList.Update(msg)
	return m, cmd
}

func (m Model) sendMessage(text string, cmds ...tea.Cmd) (tea.Model, tea.Cmd) {
	active := m.coord.ActiveSession()

	// Optimistic local echo, then open the turn before handing the text to
	// the transport so inbound tokens always find a streaming turn.
	m.coord.AddMessage(internal.Message{
		ID:        internal.LocalMessageID(),
		SessionID: active,
		Role:      internal.RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	})
	m.asm.Begin(active)
	m.transport.Send(text, active)

	m.textarea.Reset()
	m.refreshViewport()
	return m, tea.Batch(append(cmds, m.spinner.Tick)...)
}

func (m Model) handleStreamEvent(ev internal.Event) (Model, tea.Cmd) {
	if _, ok := ev.(internal.SessionCreatedEvent); ok {
		// Server-side session creation (e.g. via a gateway): refresh list.
		m.asm.Handle(ev)
		return m, m.loadSessionsCmd()
	}
	m.asm.Handle(ev)
	m.refreshViewport()
	return m, nil
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m *Model) renderMessages() string {
	var b strings.Builder
	for _, msg := range m.coord.Messages() {
		b.WriteString(roleLabel(msg.Role))
		b.WriteString("\n")
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	if m.asm.Streaming() {
		b.WriteString(assistantStyle.Render("assistant"))
		b.WriteString("\n")
		if preview := m.asm.Preview(); preview != "" {
			b.WriteString(preview)
		}
		b.WriteString(" " + m.spinner.View())
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "No messages yet. Say hello."
	}
	return b.String()
}

func roleLabel(role string) string {
	switch role {
	case internal.RoleUser:
		return userStyle.Render("you")
	case internal.RoleAssistant:
		return assistantStyle.Render("assistant")
	default:
		return systemStyle.Render(role)
	}
}

func (m Model) statusLine() string {
	var indicator string
	switch m.status {
	case internal.StatusConnected:
		indicator = connectedStyle.Render("● connected")
	case internal.StatusConnecting:
		indicator = connectingStyle.Render("◌ connecting...")
	default:
		indicator = disconnectedStyle.Render("○ disconnected")
	}
	if title := m.activeTitle(); title != "" {
		indicator += systemStyle.Render("  |  " + title)
	}
	if m.notice != "" {
		indicator += "  " + noticeStyle.Render(m.notice)
	}
	return indicator
}

func (m Model) activeTitle() string {
	active := m.coord.ActiveSession()
	if active == "" {
		return ""
	}
	for _, s := range m.coord.Sessions() {
		if s.ID == active {
			return s.Title
		}
	}
	return active
}

func (m Model) View() string {
	if m.showList {
		return m.sessionList.View()
	}
	return fmt.Sprintf("%s\n%s\n%s\n", m.statusLine(), m.viewport.View(), m.textarea.View())
}
