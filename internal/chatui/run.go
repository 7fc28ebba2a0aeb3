package chatui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hermes-agent/hermesctl/internal"
)

// Run wires the coordinator, assembler and transport together, connects the
// chat stream and blocks until the user quits. initialSession may be empty;
// the most recent session is selected instead.
func Run(client *internal.Client, transport *internal.Transport, initialSession string) error {
	coord := internal.NewCoordinator(client)

	events := make(chan tea.Msg, 256)

	asm := internal.NewAssembler(coord, func(message string) {
		events <- streamFailedMsg{message: message}
	})
	coord.SetAborter(asm)

	if initialSession != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := coord.SelectSession(ctx, initialSession)
		cancel()
		if err != nil {
			return fmt.Errorf("cannot open session %s: %w", initialSession, err)
		}
	}

	transport.Connect(
		func(ev internal.Event) { events <- streamEventMsg{ev: ev} },
		func() { events <- terminalCloseMsg{} },
	)
	unsubscribe := transport.OnStatusChange(func(s internal.ConnectionStatus) {
		events <- statusChangedMsg{status: s}
	})
	defer func() {
		unsubscribe()
		transport.Disconnect()
	}()

	program := tea.NewProgram(New(coord, asm, transport, events), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
