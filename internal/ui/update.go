package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"presenced/internal/presence"
)

// Update handles messages and updates the model accordingly.
func Update(msg tea.Msg, m Model) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.Keys.ToggleHelp):
			switch m.State {
			case stateRunning:
				m.State = stateHelp
			case stateHelp:
				m.State = stateRunning
			}
			return m, nil
		}

	case StatusMsg:
		m.Status = presence.Status(msg)
		m.HaveStatus = true
		m.WakeAt = time.Now().Add(m.Status.NextSleep)
		return m, nil

	case DoneMsg:
		m.Err = msg.Err
		m.State = stateDone
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}
