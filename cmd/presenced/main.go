package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"presenced/internal/config"
	"presenced/internal/platform"
	"presenced/internal/presence"
	"presenced/internal/ui"
)

const appVersion = "1.0.0"

// releaseGrace bounds how long shutdown waits for the loop to drop the
// stay-awake assertion after the TUI has exited.
const releaseGrace = 5 * time.Second

func main() {
	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		os.Exit(1)
	}
	if cfg.ShowVersion {
		fmt.Printf("presenced %s\n", appVersion)
		return
	}

	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "debug")
		if err != nil {
			fmt.Fprintln(os.Stderr, config.FormatError(err))
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	power, err := platform.NewPowerManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		os.Exit(1)
	}
	injector, err := platform.NewInjector()
	if err != nil {
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(
		ui.InitialModel(cfg.Loop, appVersion),
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	loop := &presence.Loop{
		Config: cfg.Loop,
		Power:  power,
		Input:  injector,
		Notify: func(st presence.Status) {
			p.Send(ui.StatusMsg(st))
		},
	}

	done := make(chan error, 1)
	go func() {
		err := loop.Run(ctx)
		done <- err
		p.Send(ui.DoneMsg{Err: err})
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, getSignalsForPlatform()...)
	go func() {
		sig := <-sigChan
		log.Printf("main: received signal %v", sig)
		cancel()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		log.Printf("main: UI error: %v", err)
	}

	// The UI is gone; stop the loop and wait for the release path to run.
	cancel()
	select {
	case err := <-done:
		if err != nil && err != context.Canceled {
			log.Printf("main: loop error: %v", err)
		}
	case <-time.After(releaseGrace):
		log.Printf("main: loop did not stop within %s", releaseGrace)
	}
}
