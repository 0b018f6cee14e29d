// Package config parses and validates the command-line surface.
package config

import (
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/charmbracelet/lipgloss"

	"presenced/internal/presence"
	"presenced/internal/util"
)

// Flag defaults.
const (
	DefaultInterval     = 30
	DefaultJitter       = 10
	DefaultPointerRange = 5
	DefaultActiveStart  = "08:00"
	DefaultActiveEnd    = "22:00"
)

// Config is the parsed and validated command-line surface.
type Config struct {
	Loop        presence.Config
	LogFile     string // debug log path, empty disables logging
	ShowVersion bool
}

// ParseFlags parses args (not including the program name) into a Config.
// Validation is strict: a malformed time bound or an inverted window is an
// error, not a silent default.
func ParseFlags(args []string) (Config, error) {
	return parseFlags(args, nil)
}

func parseFlags(args []string, output io.Writer) (Config, error) {
	fs := flag.NewFlagSet("presenced", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}

	interval := fs.Int("interval", DefaultInterval, "base seconds between activity bursts")
	jitter := fs.Int("jitter", DefaultJitter, "random variation in seconds applied to each sleep")
	pointerRange := fs.Int("range", DefaultPointerRange, "maximum pointer offset per axis in pixels")
	start := fs.String("start", DefaultActiveStart, "daily window start (24-hour HH:MM or 12-hour h:MMAM/PM)")
	end := fs.String("end", DefaultActiveEnd, "daily window end, inclusive")
	logFile := fs.String("log", "", "append debug output to this file")
	version := fs.Bool("version", false, "print version and exit")

	fs.Usage = func() {
		w := fs.Output()
		fmt.Fprintf(w, "Usage: presenced [options]\n\n")
		fmt.Fprintf(w, "Simulates user presence during a daily time window: keeps the machine\n")
		fmt.Fprintf(w, "awake and injects small randomized key taps and pointer nudges.\n\n")
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(w, "\nExamples:\n")
		fmt.Fprintf(w, "  presenced                                # defaults, 08:00-22:00\n")
		fmt.Fprintf(w, "  presenced -interval 45 -jitter 15        # slower, more varied cadence\n")
		fmt.Fprintf(w, "  presenced -start 9:00AM -end 5:30PM      # 12-hour window bounds\n")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		LogFile:     *logFile,
		ShowVersion: *version,
	}
	if cfg.ShowVersion {
		return cfg, nil
	}

	if *interval <= 0 {
		return Config{}, fmt.Errorf("-interval must be positive, got %d", *interval)
	}
	if *jitter < 0 {
		return Config{}, fmt.Errorf("-jitter must not be negative, got %d", *jitter)
	}
	if *pointerRange < 1 {
		log.Printf("config: -range %d is below the 1px minimum, using 1", *pointerRange)
		*pointerRange = 1
	}

	activeStart, err := util.ParseClock(*start)
	if err != nil {
		return Config{}, fmt.Errorf("invalid -start value %q: %w", *start, err)
	}
	activeEnd, err := util.ParseClock(*end)
	if err != nil {
		return Config{}, fmt.Errorf("invalid -end value %q: %w", *end, err)
	}
	if activeEnd < activeStart {
		return Config{}, fmt.Errorf("-end %s is before -start %s; the window must not wrap past midnight",
			activeEnd, activeStart)
	}

	cfg.Loop = presence.Config{
		BaseInterval: *interval,
		Jitter:       *jitter,
		PointerRange: *pointerRange,
		ActiveStart:  activeStart,
		ActiveEnd:    activeEnd,
	}
	return cfg, nil
}

var (
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"})

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#585858", Dark: "#8A8A8A"})
)

// FormatError renders a configuration error for the terminal.
func FormatError(err error) string {
	return errorStyle.Render("Error: "+err.Error()) + "\n" +
		hintStyle.Render("Run 'presenced -h' for usage.")
}
