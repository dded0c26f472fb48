package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/blackjack/internal/game"
)

// Bridge forwards orchestrator events into a running Bubble Tea program.
// Events are published from the orchestrator's goroutines; program.Send is
// safe to call from any of them.
type Bridge struct {
	program *tea.Program
}

// NewBridge creates a bridge targeting a program
func NewBridge(program *tea.Program) *Bridge {
	return &Bridge{program: program}
}

// OnEvent implements the game.EventSubscriber interface
func (b *Bridge) OnEvent(event game.Event) {
	b.program.Send(EventMsg{Event: event})
}

// Run plays an interactive game: it wires the orchestrator's events into a
// full-screen program, drives rounds on a background goroutine and blocks
// until the player quits. A restart loops straight into a fresh game.
func Run(ctx context.Context, orch *game.Orchestrator, logger *log.Logger) error {
	lipgloss.SetColorProfile(termenv.ColorProfile())

	model := NewModel(orch, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())

	bridge := NewBridge(program)
	orch.Bus().Subscribe(bridge)
	defer orch.Bus().Unsubscribe(bridge)

	go func() {
		for {
			err := orch.Run(ctx)
			if errors.Is(err, game.ErrRestart) {
				continue
			}
			program.Send(RunDoneMsg{Err: err})
			return
		}
	}()

	_, err := program.Run()
	orch.Quit()
	return err
}
