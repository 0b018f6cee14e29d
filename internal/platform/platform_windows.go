//go:build windows

package platform

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"presenced/internal/presence"
)

const (
	esSystemRequired  = 0x00000001
	esDisplayRequired = 0x00000002
	esContinuous      = 0x80000000

	keyeventfKeyUp = 0x0002
)

var (
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")
	moduser32   = windows.NewLazySystemDLL("user32.dll")

	procSetThreadExecutionState = modkernel32.NewProc("SetThreadExecutionState")
	procGetCursorPos            = moduser32.NewProc("GetCursorPos")
	procSetCursorPos            = moduser32.NewProc("SetCursorPos")
	procKeybdEvent              = moduser32.NewProc("keybd_event")
)

// Virtual-key codes for the default key set.
var windowsKeyCodes = map[string]uintptr{
	"shift":      0x10, // VK_SHIFT
	"f15":        0x7E, // VK_F15
	"scrolllock": 0x91, // VK_SCROLL
	"numlock":    0x90, // VK_NUMLOCK
}

type point struct {
	x, y int32
}

// windowsPower holds the stay-awake assertion via SetThreadExecutionState.
// ES_CONTINUOUS makes the request sticky until the release call clears it.
type windowsPower struct {
	mu   sync.Mutex
	held bool
}

func (p *windowsPower) Acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, _, err := procSetThreadExecutionState.Call(uintptr(esContinuous | esSystemRequired | esDisplayRequired))
	if r == 0 {
		return fmt.Errorf("SetThreadExecutionState: %v", err)
	}
	p.held = true
	return nil
}

func (p *windowsPower) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.held {
		return nil
	}
	r, _, err := procSetThreadExecutionState.Call(uintptr(esContinuous))
	if r == 0 {
		return fmt.Errorf("SetThreadExecutionState: %v", err)
	}
	p.held = false
	return nil
}

type windowsInjector struct{}

func (windowsInjector) TapKey(k presence.Key) error {
	code, ok := windowsKeyCodes[k.Name]
	if !ok {
		return fmt.Errorf("no virtual-key code for %q", k.Name)
	}
	procKeybdEvent.Call(code, 0, 0, 0)
	procKeybdEvent.Call(code, 0, keyeventfKeyUp, 0)
	return nil
}

func (windowsInjector) PointerPosition() (int, int, error) {
	var pt point
	r, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if r == 0 {
		return 0, 0, fmt.Errorf("GetCursorPos: %v", err)
	}
	return int(pt.x), int(pt.y), nil
}

func (windowsInjector) MovePointer(x, y int) error {
	r, _, err := procSetCursorPos.Call(uintptr(int32(x)), uintptr(int32(y)))
	if r == 0 {
		return fmt.Errorf("SetCursorPos: %v", err)
	}
	return nil
}

// NewPowerManager creates the Windows stay-awake gateway.
func NewPowerManager() (presence.PowerManager, error) {
	return &windowsPower{}, nil
}

// NewInjector creates the Windows input injector.
func NewInjector() (presence.Injector, error) {
	return windowsInjector{}, nil
}
