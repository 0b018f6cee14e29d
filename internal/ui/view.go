package ui

import (
	"fmt"
	"strings"
	"time"
)

// View renders the current state of the model to a string.
func View(m Model) string {
	switch m.State {
	case stateHelp:
		return helpView()
	case stateDone:
		return doneView(m)
	default:
		return runningView(m)
	}
}

func runningView(m Model) string {
	var b strings.Builder

	b.WriteString(Current.Title.Render("Presence Active"))
	b.WriteString("\n\n")

	b.WriteString(m.Spinner.View())
	b.WriteString(Current.ActiveStatus.Render("Simulating user presence"))
	b.WriteString("\n\n")

	b.WriteString(Current.Label.Render("Window:"))
	b.WriteString(Current.Value.Render(fmt.Sprintf("%s - %s", m.Config.ActiveStart, m.Config.ActiveEnd)))
	b.WriteString("\n")
	b.WriteString(Current.Label.Render("Cadence:"))
	b.WriteString(Current.Value.Render(fmt.Sprintf("%ds ± %ds", m.Config.BaseInterval, m.Config.Jitter)))
	b.WriteString("\n")
	b.WriteString(Current.Label.Render("Pointer:"))
	b.WriteString(Current.Value.Render(fmt.Sprintf("up to %dpx per axis", m.Config.PointerRange)))
	b.WriteString("\n")

	if m.HaveStatus {
		if m.Status.PowerHeld {
			b.WriteString(Current.ActiveStatus.Render("System is being kept awake"))
		} else {
			b.WriteString(Current.InactiveStatus.Render("Stay-awake unavailable; injecting input only"))
		}
		b.WriteString("\n\n")

		b.WriteString(Current.Label.Render(fmt.Sprintf("Iteration %d:", m.Status.Iteration)))
		b.WriteString(Current.Value.Render(lastAction(m)))
		b.WriteString("\n")
		b.WriteString(Current.Label.Render("Elapsed:"))
		b.WriteString(Current.Value.Render(m.Status.Elapsed.Round(time.Second).String()))
		b.WriteString("\n")
		b.WriteString(Current.Label.Render("Next wake:"))
		b.WriteString(Current.Value.Render(fmt.Sprintf("in %s", m.NextWake().Round(time.Second))))
		b.WriteString("\n")
	} else {
		b.WriteString(Current.InactiveStatus.Render("Waiting for the first iteration"))
		b.WriteString("\n")
	}

	b.WriteString("\n" + Current.Help.Render(m.Help.View(m.Keys)))
	b.WriteString("\n" + Current.Help.Render("presenced "+m.Version))
	return b.String()
}

// lastAction describes the most recent iteration's injection for display.
func lastAction(m Model) string {
	st := m.Status
	var parts []string
	if st.Key != "" {
		parts = append(parts, fmt.Sprintf("tapped %s", st.Key))
	}
	if st.OffsetX != 0 || st.OffsetY != 0 {
		parts = append(parts, fmt.Sprintf("nudged pointer (%+d,%+d)", st.OffsetX, st.OffsetY))
	}
	if len(parts) == 0 {
		return st.Action.String()
	}
	return strings.Join(parts, ", ")
}

func doneView(m Model) string {
	var b strings.Builder

	b.WriteString(Current.Title.Render("Presence Stopped"))
	b.WriteString("\n\n")

	if m.HaveStatus {
		b.WriteString(Current.Label.Render(fmt.Sprintf("%d iterations over %s",
			m.Status.Iteration, m.Status.Elapsed.Round(time.Second))))
		b.WriteString("\n")
	}
	if m.Err != nil {
		b.WriteString(Current.Error.Render(m.Err.Error()))
		b.WriteString("\n")
	}

	return b.String()
}

func helpView() string {
	help := `Presenced Help

Usage:
  presenced [flags]

Flags:
  -interval int    Base seconds between activity bursts (default 30)
  -jitter int      Random variation in seconds per sleep (default 10)
  -range int       Maximum pointer offset per axis in pixels (default 5)
  -start string    Daily window start (default "08:00")
  -end string      Daily window end, inclusive (default "22:00")
  -log string      Append debug output to this file
  -version         Show version information

Examples:
  presenced                              # defaults, 08:00-22:00
  presenced -interval 45 -jitter 15      # slower, more varied cadence
  presenced -start 9:00AM -end 5:30PM    # 12-hour window bounds

Keys:
  h/?        : Toggle this help
  q/Esc      : Quit

Press 'h' to close help`

	return Current.Help.Render(help)
}
