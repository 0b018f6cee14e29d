//go:build darwin

package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"presenced/internal/presence"
	"presenced/internal/util"
)

const scriptTimeout = 3 * time.Second

// darwinKeyCodes maps key names to CGEvent virtual key codes. Scroll Lock
// and Num Lock have no modern Mac key; F14 and Keypad Clear are the closest
// ADB-era equivalents and remain harmless no-ops on current keyboards.
var darwinKeyCodes = map[string]int{
	"shift":      56,
	"f15":        113,
	"scrolllock": 107,
	"numlock":    71,
}

// darwinPower holds the stay-awake assertion by keeping a caffeinate child
// alive for the lifetime of the loop.
type darwinPower struct {
	mu       sync.Mutex
	cmd      *exec.Cmd
	waitDone chan struct{}
}

func (p *darwinPower) Acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return nil // already held
	}
	if !util.HasCommand("caffeinate") {
		return fmt.Errorf("caffeinate not found in PATH")
	}

	cmd := exec.Command("caffeinate", "-d", "-i", "-m", "-s", "-u")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start caffeinate: %w", err)
	}

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	p.cmd = cmd
	p.waitDone = done
	return nil
}

func (p *darwinPower) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}

	pid := p.cmd.Process.Pid
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = p.cmd.Process.Kill()
	}

	select {
	case <-p.waitDone:
	case <-time.After(500 * time.Millisecond):
		_ = p.cmd.Process.Kill()
		// caffeinate may have forked; sweep the process group.
		_ = syscall.Kill(-pid, syscall.SIGKILL)
	}

	p.cmd = nil
	p.waitDone = nil
	return nil
}

// darwinInjector posts CGEvents through osascript's JavaScript runtime,
// the same route macOS gates behind the Accessibility permission.
type darwinInjector struct{}

func (darwinInjector) TapKey(k presence.Key) error {
	code, ok := darwinKeyCodes[k.Name]
	if !ok {
		return fmt.Errorf("no CGEvent key code for %q", k.Name)
	}
	script := fmt.Sprintf(`
ObjC.import('CoreGraphics');
var down = $.CGEventCreateKeyboardEvent(null, %d, true);
var up = $.CGEventCreateKeyboardEvent(null, %d, false);
$.CGEventPost($.kCGHIDEventTap, down);
delay(0.01);
$.CGEventPost($.kCGHIDEventTap, up);
console.log("ok");
`, code, code)
	out, err := runJXA(script)
	if err != nil {
		return fmt.Errorf("key tap failed: %v (output: %q)", err, out)
	}
	return nil
}

func (darwinInjector) PointerPosition() (int, int, error) {
	script := `
ObjC.import('CoreGraphics');
var ev = $.CGEventCreate(null);
var p = $.CGEventGetLocation(ev);
console.log(Math.round(p.x) + " " + Math.round(p.y));
`
	out, err := runJXA(script)
	if err != nil {
		return 0, 0, fmt.Errorf("pointer read failed: %v (output: %q)", err, out)
	}
	var x, y int
	if _, err := fmt.Sscanf(out, "%d %d", &x, &y); err != nil {
		return 0, 0, fmt.Errorf("unexpected pointer output %q: %v", out, err)
	}
	return x, y, nil
}

func (darwinInjector) MovePointer(x, y int) error {
	script := fmt.Sprintf(`
ObjC.import('CoreGraphics');
var move = $.CGEventCreateMouseEvent(null, $.kCGEventMouseMoved, {x: %d, y: %d}, $.kCGMouseButtonLeft);
$.CGEventPost($.kCGHIDEventTap, move);
console.log("ok");
`, x, y)
	out, err := runJXA(script)
	if err != nil {
		return fmt.Errorf("pointer move failed: %v (output: %q)", err, out)
	}
	return nil
}

// runJXA executes an osascript JavaScript snippet with a timeout so a
// stuck Accessibility prompt cannot hang an iteration.
func runJXA(script string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "osascript", "-l", "JavaScript", "-e", script)
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return strings.TrimSpace(string(out)), fmt.Errorf("osascript timed out after %s", scriptTimeout)
	}
	return strings.TrimSpace(string(out)), err
}

// NewPowerManager creates the macOS stay-awake gateway.
func NewPowerManager() (presence.PowerManager, error) {
	return &darwinPower{}, nil
}

// NewInjector creates the macOS input injector.
func NewInjector() (presence.Injector, error) {
	return darwinInjector{}, nil
}
