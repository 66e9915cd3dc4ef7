package rcatui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fourkites/rca-core/internal/rcacore"
)

// Run renders stream until it terminates or the user quits.
func Run(ctx context.Context, stream *rcacore.Stream) error {
	model := New(stream.Events())
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("tui error: %w", err)
	}

	if m, ok := finalModel.(Model); ok && m.quitting {
		stream.CloseOnDisconnect()
	}
	return nil
}
