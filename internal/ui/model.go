package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"presenced/internal/presence"
)

// state represents the different states of the TUI.
type state int

const (
	stateRunning state = iota
	stateHelp
	stateDone
)

// StatusMsg carries one completed loop iteration into the UI.
type StatusMsg presence.Status

// DoneMsg reports that the loop has stopped.
type DoneMsg struct {
	Err error
}

// Model holds the current state of the UI and the latest loop status.
type Model struct {
	State      state
	Config     presence.Config
	Version    string
	Status     presence.Status
	HaveStatus bool
	WakeAt     time.Time // when the loop wakes from its current sleep
	StartTime  time.Time
	Err        error

	Spinner spinner.Model
	Help    help.Model
	Keys    KeyMap
}

// InitialModel returns the model for a freshly started loop.
func InitialModel(cfg presence.Config, version string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = Current.Spinner

	return Model{
		State:     stateRunning,
		Config:    cfg,
		Version:   version,
		StartTime: time.Now(),
		Spinner:   s,
		Help:      help.New(),
		Keys:      DefaultKeys(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return m.Spinner.Tick
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return Update(msg, m)
}

// View implements tea.Model
func (m Model) View() string {
	return View(m)
}

// NextWake returns how long until the loop wakes from its current sleep.
func (m Model) NextWake() time.Duration {
	if !m.HaveStatus {
		return 0
	}
	remaining := time.Until(m.WakeAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
