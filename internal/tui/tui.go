// Package tui is a terminal client for a local session.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/llmholdem/internal/game"
	"github.com/lox/llmholdem/internal/session"
	"github.com/lox/llmholdem/poker"
)

// Controller is the part of a session the terminal client drives.
type Controller interface {
	StartHand() error
	SubmitAction(move game.Move) error
	RunBots(ctx context.Context) error
	AdvanceStage() error
	SetBotCount(n int) error
	Rebuy() error
	Interact(target, item string) error
	Snapshot() session.Snapshot
	Subscribe() (<-chan session.Snapshot, func())
}

type snapshotMsg struct{ snap session.Snapshot }

type commandDoneMsg struct {
	err     error
	runBots bool
}

type botsDoneMsg struct{ err error }

// Model is the bubbletea model for one table.
type Model struct {
	ctx         context.Context
	ctrl        Controller
	logger      *log.Logger
	updates     <-chan session.Snapshot
	unsubscribe func()

	snap        session.Snapshot
	status      string
	statusErr   bool
	lastEmoteID int

	logViewport viewport.Model
	actionInput textinput.Model
	focusedPane int // 0 = log, 1 = input

	width       int
	height      int
	initialized bool
	quitting    bool
}

// NewModel subscribes to ctrl. Bot turns run under ctx.
func NewModel(ctx context.Context, ctrl Controller, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Enter to deal, 'help' for commands"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.Prompt = "> "

	updates, unsubscribe := ctrl.Subscribe()
	return &Model{
		ctx:         ctx,
		ctrl:        ctrl,
		logger:      logger.WithPrefix("tui"),
		updates:     updates,
		unsubscribe: unsubscribe,
		snap:        ctrl.Snapshot(),
		logViewport: vp,
		actionInput: ti,
		focusedPane: 1,
	}
}

// Run shows the table full screen until the user quits or ctx ends.
func Run(ctx context.Context, ctrl Controller, logger *log.Logger) error {
	ConfigureColors(termenv.NewOutput(os.Stdout))
	m := NewModel(ctx, ctrl, logger)
	defer m.unsubscribe()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForSnapshot())
}

func (m *Model) waitForSnapshot() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg{snap}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case snapshotMsg:
		m.applySnapshot(msg.snap)
		return m, m.waitForSnapshot()

	case commandDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		if msg.runBots {
			return m, m.runBots()
		}
		return m, nil

	case botsDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, m.quit()
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				input := m.actionInput.Value()
				m.actionInput.SetValue("")
				return m, m.submit(input)
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) applySnapshot(snap session.Snapshot) {
	m.snap = snap
	if e := snap.LastEmote; e != nil && e.ID > m.lastEmoteID {
		m.lastEmoteID = e.ID
		m.status = fmt.Sprintf("%s → %s: %s", e.From, e.To, e.Item)
		m.statusErr = false
	}
	m.logViewport.SetContent(strings.Join(snap.Log, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

func (m *Model) setError(err error) {
	m.logger.Debug("Command failed", "error", err)
	m.status = err.Error()
	m.statusErr = true
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.unsubscribe()
	return tea.Sequence(tea.ClearScreen, tea.Quit)
}

// submit parses a line of input and runs it off the update loop.
func (m *Model) submit(input string) tea.Cmd {
	cmd, err := ParseCommand(input, m.snap)
	if err != nil {
		m.setError(err)
		return nil
	}
	m.status, m.statusErr = "", false

	var run func() error
	runBots := false
	switch cmd.Kind {
	case CmdQuit:
		return m.quit()
	case CmdHelp:
		m.status = helpText
		return nil
	case CmdNone:
		if m.snap.Thinking != "" {
			m.status = m.snap.Thinking + " is thinking..."
		}
		return nil
	case CmdDeal:
		run, runBots = m.ctrl.StartHand, true
	case CmdMove:
		move := cmd.Move
		run, runBots = func() error { return m.ctrl.SubmitAction(move) }, true
	case CmdAdvance:
		run, runBots = m.ctrl.AdvanceStage, true
	case CmdSetBots:
		n := cmd.Bots
		run = func() error { return m.ctrl.SetBotCount(n) }
	case CmdRebuy:
		run = m.ctrl.Rebuy
	case CmdEmote:
		target, item := cmd.Target, cmd.Item
		run = func() error { return m.ctrl.Interact(target, item) }
	}
	return func() tea.Msg {
		return commandDoneMsg{err: run(), runBots: runBots}
	}
}

func (m *Model) runBots() tea.Cmd {
	return func() tea.Msg {
		return botsDoneMsg{err: m.ctrl.RunBots(m.ctx)}
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(max(1, m.width-2)).
		Height(max(1, actionHeight)).
		Render(actionContent)

	paneHeight := max(1, m.height-actionHeight-5)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(32, lipgloss.Width(sidebarContent))
	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	m.logViewport.Width = max(1, m.width-sidebarWidth-4)
	m.logViewport.Height = paneHeight
	if !m.initialized && m.logViewport.Width > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(m.logViewport.Width).
		Height(paneHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	header := HeaderStyle.Width(max(1, m.width)).Render(m.renderHeader())
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Left, header, topRow, actionPane)
}

func (m *Model) renderHeader() string {
	s := m.snap
	header := fmt.Sprintf(" LLM Hold'em  Hand #%d  %s", s.HandNumber, s.Stage)
	if s.GameOver {
		header += "  GAME OVER, type rebuy"
	}
	return header
}

func (m *Model) renderSidebarPane() string {
	var content strings.Builder
	s := m.snap

	content.WriteString(WarningStyle.Render(fmt.Sprintf("Pot: $%d", s.Pot)))
	if s.HighBet > 0 {
		content.WriteString(" | ")
		content.WriteString(WarningStyle.Render(fmt.Sprintf("Bet: $%d", s.HighBet)))
	}
	content.WriteString("\n")
	if len(s.Board) > 0 {
		content.WriteString("Board: " + formatCards(s.Board) + "\n")
	}
	content.WriteString("\n")

	for _, seat := range s.Seats {
		content.WriteString(renderSeat(seat, s.HandActive))
		content.WriteString("\n")
	}

	if s.LastThought.Reasoning != "" {
		content.WriteString("\n")
		content.WriteString(InfoStyle.Render(fmt.Sprintf("%s: %s", s.LastThought.Name, s.LastThought.Reasoning)))
		content.WriteString("\n")
	}
	if len(s.Memory) > 0 {
		content.WriteString("\n")
		content.WriteString(InfoStyle.Render("Bots remember:"))
		content.WriteString("\n")
		for _, line := range s.Memory {
			content.WriteString(InfoStyle.Render("  " + line))
			content.WriteString("\n")
		}
	}
	return content.String()
}

func renderSeat(seat game.SeatView, handActive bool) string {
	marker := "  "
	if seat.IsTurn {
		marker = TurnStyle.Render("▶ ")
	}
	name := seat.Name
	if seat.Role != game.RoleNone {
		name += " (" + string(seat.Role) + ")"
	}
	switch {
	case seat.Folded:
		name = FoldedStyle.Render(name)
	case seat.IsWinner:
		name = SuccessStyle.Render(name)
	}

	line := fmt.Sprintf("%s%s $%d", marker, name, seat.Stack)
	if seat.CurrentBet > 0 {
		line += fmt.Sprintf(" bet %d", seat.CurrentBet)
	}
	switch {
	case len(seat.Cards) > 0:
		line += " " + formatCards(seat.Cards)
	case handActive && !seat.Folded:
		line += " " + InfoStyle.Render("[?? ??]")
	}
	if seat.LastAction != "" {
		line += " " + InfoStyle.Render(seat.LastAction)
	}
	return line
}

func (m *Model) renderActionPane() string {
	var content strings.Builder
	s := m.snap

	if human := m.humanSeat(); human != nil && len(human.Cards) > 0 {
		content.WriteString(HandInfoStyle.Render(fmt.Sprintf("Hand: %s  Pot: $%d", formatCards(human.Cards), s.Pot)))
		content.WriteString("\n")
	}

	switch {
	case s.HandActive && s.Turn == s.Human:
		content.WriteString(m.renderAvailableActions())
		m.actionInput.Placeholder = "fold, check, call, raise 40, raise to 120, allin"
	case s.AwaitingRunout:
		content.WriteString(HandInfoStyle.Render("All in. Enter to deal the next street."))
		m.actionInput.Placeholder = "Enter for the next street"
	case s.HandActive:
		waiting := "Waiting..."
		if s.Thinking != "" {
			waiting = s.Thinking + " is thinking..."
		}
		content.WriteString(HandInfoStyle.Render(waiting))
		m.actionInput.Placeholder = "Waiting for the bots"
	default:
		if len(s.Winners) > 0 {
			content.WriteString(SuccessStyle.Render("Winner: " + strings.Join(s.Winners, ", ")))
		} else {
			content.WriteString(HandInfoStyle.Render("Between hands."))
		}
		m.actionInput.Placeholder = "Enter to deal, 'help' for commands"
	}
	content.WriteString("\n")

	if m.status != "" {
		if m.statusErr {
			content.WriteString(ErrorStyle.Render(m.status))
		} else {
			content.WriteString(InfoStyle.Render(m.status))
		}
		content.WriteString("\n")
	}

	content.WriteString(m.actionInput.View())
	content.WriteString("\n")
	content.WriteString(InfoStyle.Render("Tab to scroll log • Enter to submit • Ctrl+C to quit"))
	return content.String()
}

func (m *Model) renderAvailableActions() string {
	s := m.snap
	human := m.humanSeat()
	if human == nil {
		return ""
	}
	toCall := max(0, s.HighBet-human.CurrentBet)

	var actions []string
	actions = append(actions, ErrorStyle.Render("[fold]"))
	if toCall == 0 {
		actions = append(actions, SuccessStyle.Render("[check]"))
	} else {
		actions = append(actions, SuccessStyle.Render(fmt.Sprintf("[call $%d]", min(toCall, human.Stack))))
	}
	if human.Stack > toCall {
		actions = append(actions, WarningStyle.Render(fmt.Sprintf("[raise to %d+]", s.MinRaiseTo)))
		actions = append(actions, WarningStyle.Render(fmt.Sprintf("[allin $%d]", human.Stack)))
	}
	return ActionsStyle.Render("Actions: " + strings.Join(actions, " "))
}

func (m *Model) humanSeat() *game.SeatView {
	for i := range m.snap.Seats {
		if m.snap.Seats[i].Name == m.snap.Human {
			return &m.snap.Seats[i]
		}
	}
	return nil
}

// formatCards renders card codes like "As" with suit colours.
func formatCards(cards []string) string {
	if len(cards) == 0 {
		return ""
	}
	formatted := make([]string, len(cards))
	for i, code := range cards {
		c, err := poker.ParseCard(code)
		switch {
		case err != nil:
			formatted[i] = code
		case c.IsRed():
			formatted[i] = RedCardStyle.Render(c.String())
		default:
			formatted[i] = BlackCardStyle.Render(c.String())
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}
