package util

import (
	"fmt"
	"strings"
	"time"
)

// Clock is a time of day expressed as minutes since midnight. Clocks compare
// with the usual integer operators, which is all the active-window gate needs.
type Clock int

// ClockOf returns the Clock for the wall-clock time of t.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// Hour returns the hour component of the clock.
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute component of the clock.
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// ParseClock parses a time-of-day string in either 12-hour or 24-hour format.
// Supported formats:
// - 24-hour: "HH:MM" (e.g., "22:30", "09:45")
// - 12-hour: "HH:MM[AM|PM]" (e.g., "10:30PM", "9:45 AM")
func ParseClock(timeStr string) (Clock, error) {
	timeStr = strings.TrimSpace(strings.ToUpper(timeStr))

	// Try 24-hour format first
	if t, err := time.Parse("15:04", timeStr); err == nil {
		return Clock(t.Hour()*60 + t.Minute()), nil
	}

	// Try 12-hour format with AM/PM
	formats := []string{"3:04PM", "3:04 PM", "03:04PM", "03:04 PM"}
	for _, format := range formats {
		if t, err := time.Parse(format, timeStr); err == nil {
			return Clock(t.Hour()*60 + t.Minute()), nil
		}
	}

	return 0, fmt.Errorf("invalid time format: %s\n\nValid formats:\n"+
		"• 24-hour format: HH:MM (e.g., '22:30', '09:45')\n"+
		"• 12-hour format: HH:MM[AM|PM] (e.g., '11:30PM', '9:45 AM')", timeStr)
}
