package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

// EventMsg delivers a game event into the Bubble Tea loop
type EventMsg struct {
	Event game.Event
}

// RunDoneMsg is sent when the orchestrator's run loop returns
type RunDoneMsg struct {
	Err error
}

// Model is the Bubble Tea model for an interactive blackjack game. All game
// state arrives through events; the model never reaches into the table.
type Model struct {
	orch   *game.Orchestrator
	logger *log.Logger
	seat   int // our human seat, -1 when spectating

	logViewport viewport.Model
	betInput    textinput.Model

	snapshot    game.Snapshot
	gameLog     []string
	awaitingBet bool
	quitting    bool
	finished    bool

	width       int
	height      int
	initialized bool
}

// NewModel creates a TUI model bound to an orchestrator. The first human
// seat, if any, is played from this terminal.
func NewModel(orch *game.Orchestrator, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "bet amount (10, 25, 50, 100...)"
	ti.CharLimit = 6
	ti.Width = 30
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.Prompt = "$ "

	snapshot := orch.Snapshot()
	seat := -1
	for _, s := range snapshot.Seats {
		if s.Human {
			seat = s.Index
			break
		}
	}

	return &Model{
		orch:        orch,
		logger:      logger.WithPrefix("tui"),
		seat:        seat,
		logViewport: vp,
		betInput:    ti,
		snapshot:    snapshot,
		gameLog:     []string{},
	}
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case EventMsg:
		m.applyEvent(msg.Event)

	case RunDoneMsg:
		if msg.Err != nil && !errors.Is(msg.Err, game.ErrQuit) {
			m.addLog(ErrorStyle.Render(fmt.Sprintf("game stopped: %v", msg.Err)))
		}
		m.finished = true
		if m.quitting {
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	if m.awaitingBet {
		m.betInput, cmd = m.betInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey processes game control keys; input editing keys fall through
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "esc", "q":
		if m.awaitingBet && msg.String() == "q" {
			return nil, false // "q" may be a typo while typing a bet
		}
		m.quitting = true
		if m.finished {
			return tea.Sequence(tea.ClearScreen, tea.Quit), true
		}
		m.orch.Quit()
		return nil, true

	case "enter":
		if m.awaitingBet {
			m.submitBet()
			return nil, true
		}
		return nil, false

	case "h":
		if m.isOurTurn() {
			if err := m.orch.SubmitAction(m.seat, game.ActionHit); err != nil {
				m.logger.Debug("hit rejected", "error", err)
			}
			return nil, true
		}
		return nil, false

	case "s":
		if m.isOurTurn() {
			if err := m.orch.SubmitAction(m.seat, game.ActionStand); err != nil {
				m.logger.Debug("stand rejected", "error", err)
			}
			return nil, true
		}
		return nil, false

	case "p":
		if m.awaitingBet {
			return nil, false
		}
		if m.orch.Paused() {
			m.orch.Resume()
		} else {
			m.orch.Pause()
		}
		return nil, true

	case "n":
		if m.snapshot.Phase == "results" && !m.snapshot.GameOver {
			m.orch.NextRound()
			return nil, true
		}
		return nil, false

	case "r":
		if m.awaitingBet {
			return nil, false
		}
		m.orch.Restart()
		return nil, true
	}
	return nil, false
}

// submitBet parses and submits the typed bet, keeping focus on rejection
func (m *Model) submitBet() {
	value := strings.TrimSpace(m.betInput.Value())
	amount, err := strconv.Atoi(value)
	if err != nil {
		m.addLog(ErrorStyle.Render(fmt.Sprintf("%q is not a bet amount", value)))
		m.betInput.SetValue("")
		return
	}
	if err := m.orch.SubmitBet(m.seat, amount); err != nil {
		m.addLog(ErrorStyle.Render(err.Error()))
		m.betInput.SetValue("")
		return
	}
	m.betInput.SetValue("")
	m.betInput.Blur()
	m.awaitingBet = false
}

func (m *Model) isOurTurn() bool {
	return m.seat >= 0 &&
		m.snapshot.Phase == "playerTurn" &&
		m.snapshot.CurrentTurn == m.seat
}

// applyEvent folds a game event into the display state and log
func (m *Model) applyEvent(event game.Event) {
	m.snapshot = event.State()

	switch e := event.(type) {
	case game.RoundStartEvent:
		m.addLog("")
		m.addLog(HeaderStyle.Render(fmt.Sprintf(" Round %d of %d ", e.Round, m.snapshot.RoundsTarget)))

	case game.BetsOpenEvent:
		for _, seat := range e.WaitingSeats {
			if seat == m.seat {
				m.awaitingBet = true
				m.betInput.Focus()
				m.addLog(WarningStyle.Render("Place your bet"))
			}
		}

	case game.BetPlacedEvent:
		m.addLog(fmt.Sprintf("%s bets $%d", m.seatName(e.Seat), e.Amount))

	case game.CardDealtEvent:
		seat := m.snapshot.Seats[e.Seat]
		if !e.FaceUp {
			m.addLog(fmt.Sprintf("%s takes a card face down", seat.Name))
		} else {
			card := seat.Cards[len(seat.Cards)-1]
			m.addLog(fmt.Sprintf("%s draws %s", seat.Name, m.formatCard(card)))
		}

	case game.NaturalsEvent:
		for _, seat := range e.Seats {
			m.addLog(SuccessStyle.Render(fmt.Sprintf("%s has blackjack!", m.seatName(seat))))
		}

	case game.TurnStartEvent:
		if e.Seat == m.seat {
			m.addLog(TurnStyle.Render("Your turn: (h)it or (s)tand"))
		} else {
			m.addLog(InfoStyle.Render(fmt.Sprintf("%s's turn", m.seatName(e.Seat))))
		}

	case game.SeatActionEvent:
		m.logSeatAction(e)

	case game.DealerRevealEvent:
		dealer := m.snapshot.Seats[m.snapshot.DealerIndex]
		m.addLog(fmt.Sprintf("Dealer reveals %s (%d)", m.formatCards(dealer.Cards), dealer.Score))

	case game.DealerSkipEvent:
		m.addLog(InfoStyle.Render("Everyone busted; the dealer keeps the hole card hidden"))

	case game.RoundSettledEvent:
		m.logSettlement()

	case game.GameOverEvent:
		m.addLog("")
		m.addLog(HeaderStyle.Render(" Game over "))
		m.logStandings()

	case game.PausedEvent:
		m.addLog(WarningStyle.Render("Paused — press p to resume"))

	case game.ResumedEvent:
		m.addLog(InfoStyle.Render("Resumed"))
	}

	m.logViewport.GotoBottom()
}

func (m *Model) logSeatAction(e game.SeatActionEvent) {
	seat := m.snapshot.Seats[e.Seat]
	name := seat.Name
	if e.Seat == m.seat {
		name = "You"
	}

	if e.Action == game.ActionStand {
		m.addLog(fmt.Sprintf("%s stands at %d", name, seat.Score))
		return
	}

	card := seat.Cards[len(seat.Cards)-1]
	line := fmt.Sprintf("%s hits: %s (%d)", name, m.formatCard(card), seat.Score)
	switch e.Outcome {
	case game.HitBust:
		m.addLog(ErrorStyle.Render(line + " — bust!"))
	case game.HitTwentyOne:
		m.addLog(SuccessStyle.Render(line + " — twenty-one!"))
	default:
		m.addLog(line)
	}
}

func (m *Model) logSettlement() {
	for _, seat := range m.snapshot.Seats {
		if seat.Dealer || seat.Result == "none" {
			continue
		}
		name := seat.Name
		if seat.Index == m.seat {
			name = "You"
		}
		verb := map[string]string{"win": "win", "lose": "lose", "draw": "push"}[seat.Result]
		if seat.Index != m.seat {
			verb = map[string]string{"win": "wins", "lose": "loses", "draw": "pushes"}[seat.Result]
		}

		line := fmt.Sprintf("%s %s", name, verb)
		if m.snapshot.Mode == "betting" && seat.Bet > 0 && seat.Result != "draw" {
			line = fmt.Sprintf("%s ($%d)", line, seat.Bet)
		}
		switch seat.Result {
		case "win":
			m.addLog(SuccessStyle.Render(line))
		case "lose":
			m.addLog(ErrorStyle.Render(line))
		default:
			m.addLog(line)
		}
	}
	if !m.snapshot.GameOver {
		m.addLog(InfoStyle.Render("Press n for the next round"))
	}
}

func (m *Model) logStandings() {
	for _, seat := range m.snapshot.Seats {
		if seat.Dealer {
			continue
		}
		if m.snapshot.Mode == "betting" {
			m.addLog(fmt.Sprintf("  %s: $%d", seat.Name, seat.Chips))
		} else {
			m.addLog(fmt.Sprintf("  %s: %.1f points", seat.Name, seat.Points))
		}
	}
	m.addLog(InfoStyle.Render("Press r to play again or q to quit"))
}

func (m *Model) seatName(seat int) string {
	if seat == m.seat {
		return "You"
	}
	return m.snapshot.Seats[seat].Name
}

func (m *Model) addLog(line string) {
	m.gameLog = append(m.gameLog, line)
}

// formatCard renders one card, colouring red suits
func (m *Model) formatCard(card deck.Card) string {
	if !card.FaceUp {
		return HiddenCardStyle.Render("[??]")
	}
	if card.Suit.IsRed() {
		return RedCardStyle.Render(card.String())
	}
	return BlackCardStyle.Render(card.String())
}

func (m *Model) formatCards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, card := range cards {
		parts[i] = m.formatCard(card)
	}
	return strings.Join(parts, " ")
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting && m.finished {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	tablePane := m.renderTablePane()
	footer := m.renderFooter()

	footerHeight := lipgloss.Height(footer)
	tableHeight := lipgloss.Height(tablePane)

	logHeight := m.height - tableHeight - footerHeight - 2
	if logHeight < 1 {
		logHeight = 1
	}
	logWidth := m.width - 2
	if logWidth < 1 {
		logWidth = 1
	}

	m.logViewport.Width = logWidth
	m.logViewport.Height = logHeight
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if !m.initialized {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(logHeight)

	return lipgloss.JoinVertical(lipgloss.Top,
		tablePane,
		logStyle.Render(m.logViewport.View()),
		footer,
	)
}

// renderTablePane renders every seat's cards and totals
func (m *Model) renderTablePane() string {
	var b strings.Builder

	title := fmt.Sprintf(" Blackjack • round %d/%d ", m.snapshot.Round, m.snapshot.RoundsTarget)
	b.WriteString(HeaderStyle.Render(title))
	b.WriteString("\n\n")

	for _, seat := range m.snapshot.Seats {
		marker := "  "
		if seat.Index == m.snapshot.CurrentTurn {
			marker = TurnStyle.Render("▶ ")
		}

		name := seat.Name
		if seat.Index == m.seat {
			name = name + " (you)"
		}

		score := m.scoreLabel(seat)
		line := fmt.Sprintf("%s%-16s %s %s", marker, name, m.formatCards(seat.Cards), score)

		if m.snapshot.Mode == "betting" && !seat.Dealer {
			line += InfoStyle.Render(fmt.Sprintf("  $%d", seat.Chips))
			if seat.Bet > 0 {
				line += WarningStyle.Render(fmt.Sprintf(" bet $%d", seat.Bet))
			}
		} else if m.snapshot.Mode == "points" && !seat.Dealer {
			line += InfoStyle.Render(fmt.Sprintf("  %.1f pts", seat.Points))
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

// scoreLabel shows the visible score while a hole card is hidden
func (m *Model) scoreLabel(seat game.SeatView) string {
	if len(seat.Cards) == 0 {
		return ""
	}
	holeHidden := false
	for _, card := range seat.Cards {
		if !card.FaceUp {
			holeHidden = true
		}
	}

	score := seat.Score
	if holeHidden {
		score = seat.VisibleScore
	}

	label := fmt.Sprintf("(%d)", score)
	if holeHidden {
		label = fmt.Sprintf("(%d+?)", score)
	}

	switch seat.Status {
	case "bust":
		return ErrorStyle.Render(label + " bust")
	case "blackjack":
		return SuccessStyle.Render(label + " blackjack")
	}
	return HandInfoStyle.Render(label)
}

// renderFooter renders the input line or contextual key help
func (m *Model) renderFooter() string {
	if m.awaitingBet {
		return m.betInput.View() + "\n" +
			InfoStyle.Render("Enter to bet • Ctrl+C to quit")
	}

	var help string
	switch {
	case m.finished:
		help = "q quit"
	case m.isOurTurn():
		help = "h hit • s stand • p pause • q quit"
	case m.snapshot.Phase == "results" && !m.snapshot.GameOver:
		help = "n next round • r restart • q quit"
	case m.snapshot.GameOver:
		help = "r restart • q quit"
	default:
		help = "p pause • r restart • q quit"
	}
	return InfoStyle.Render(help)
}
