//go:build !darwin && !linux && !windows

package platform

import (
	"errors"

	"presenced/internal/presence"
)

var errUnsupported = errors.New("unsupported platform")

type unsupportedPower struct{}

func (unsupportedPower) Acquire() error { return errUnsupported }
func (unsupportedPower) Release() error { return nil }

type unsupportedInjector struct{}

func (unsupportedInjector) TapKey(presence.Key) error { return errUnsupported }

func (unsupportedInjector) PointerPosition() (int, int, error) {
	return 0, 0, errUnsupported
}

func (unsupportedInjector) MovePointer(int, int) error { return errUnsupported }

// NewPowerManager creates a stub gateway whose calls report the platform as
// unsupported.
func NewPowerManager() (presence.PowerManager, error) {
	return unsupportedPower{}, nil
}

// NewInjector creates a stub injector whose calls report the platform as
// unsupported.
func NewInjector() (presence.Injector, error) {
	return unsupportedInjector{}, nil
}
