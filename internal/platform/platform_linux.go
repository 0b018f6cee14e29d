//go:build linux

package platform

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"presenced/internal/presence"
	"presenced/internal/util"
)

const (
	displayServerX11     = "x11"
	displayServerWayland = "wayland"
	displayServerUnknown = "unknown"
)

func detectDisplayServer() string {
	switch strings.ToLower(os.Getenv("XDG_SESSION_TYPE")) {
	case "wayland":
		return displayServerWayland
	case "x11":
		return displayServerX11
	}
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return displayServerWayland
	}
	if os.Getenv("DISPLAY") != "" {
		return displayServerX11
	}
	return displayServerUnknown
}

// inhibitor is a single Linux sleep-prevention mechanism. Desktop
// environments differ in which ones they honor, so every working candidate
// is activated and reversed on release.
type inhibitor interface {
	Name() string
	Activate() error
	Deactivate() error
}

type systemdInhibitor struct {
	cmd *exec.Cmd
}

func (s *systemdInhibitor) Name() string { return "systemd-inhibit" }

func (s *systemdInhibitor) Activate() error {
	if !util.HasCommand("systemd-inhibit") {
		return fmt.Errorf("systemd-inhibit not found")
	}
	cmd := exec.Command("systemd-inhibit",
		"--what=idle:sleep",
		"--who=presenced",
		"--why=Simulating user presence",
		"--mode=block",
		"sh", "-c", "while true; do sleep 3600; done")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start systemd-inhibit: %w", err)
	}
	s.cmd = cmd
	return nil
}

func (s *systemdInhibitor) Deactivate() error {
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	err := s.cmd.Process.Kill()
	_, _ = s.cmd.Process.Wait()
	s.cmd = nil
	return err
}

type dbusInhibitor struct {
	cookie uint32
}

func (d *dbusInhibitor) Name() string { return "dbus-screensaver" }

func (d *dbusInhibitor) Activate() error {
	if !util.HasCommand("dbus-send") {
		return fmt.Errorf("dbus-send not found")
	}
	out, err := util.RunVerbose("dbus-send", "--session", "--print-reply",
		"--dest=org.freedesktop.ScreenSaver",
		"/org/freedesktop/ScreenSaver",
		"org.freedesktop.ScreenSaver.Inhibit",
		"string:presenced", "string:Simulating user presence")
	if err != nil {
		return fmt.Errorf("screensaver inhibit failed: %v (output: %q)", err, out)
	}
	cookie, err := parseInhibitCookie(out)
	if err != nil {
		return err
	}
	d.cookie = cookie
	return nil
}

func (d *dbusInhibitor) Deactivate() error {
	if d.cookie == 0 {
		return nil
	}
	out, err := util.RunVerbose("dbus-send", "--session", "--print-reply",
		"--dest=org.freedesktop.ScreenSaver",
		"/org/freedesktop/ScreenSaver",
		"org.freedesktop.ScreenSaver.UnInhibit",
		"uint32:"+strconv.FormatUint(uint64(d.cookie), 10))
	d.cookie = 0
	if err != nil {
		return fmt.Errorf("screensaver uninhibit failed: %v (output: %q)", err, out)
	}
	return nil
}

// parseInhibitCookie extracts the cookie from a dbus-send reply of the form
// "method return ...\n   uint32 1234".
func parseInhibitCookie(out string) (uint32, error) {
	fields := strings.Fields(out)
	for i := len(fields) - 1; i > 0; i-- {
		if fields[i-1] == "uint32" {
			v, err := strconv.ParseUint(fields[i], 10, 32)
			if err != nil {
				return 0, fmt.Errorf("bad inhibit cookie %q: %v", fields[i], err)
			}
			return uint32(v), nil
		}
	}
	return 0, fmt.Errorf("no inhibit cookie in reply %q", out)
}

type xsetInhibitor struct{}

func (x *xsetInhibitor) Name() string { return "xset" }

func (x *xsetInhibitor) Activate() error {
	if !util.HasCommand("xset") {
		return fmt.Errorf("xset not found")
	}
	if out, err := util.RunVerbose("xset", "s", "off"); err != nil {
		return fmt.Errorf("xset s off failed: %v (output: %q)", err, out)
	}
	if out, err := util.RunVerbose("xset", "-dpms"); err != nil {
		return fmt.Errorf("xset -dpms failed: %v (output: %q)", err, out)
	}
	return nil
}

func (x *xsetInhibitor) Deactivate() error {
	_, _ = util.RunVerbose("xset", "s", "on")
	if out, err := util.RunVerbose("xset", "+dpms"); err != nil {
		return fmt.Errorf("xset +dpms failed: %v (output: %q)", err, out)
	}
	return nil
}

// linuxPower activates every inhibitor that works. Acquire succeeds when at
// least one does; Release reverses them in reverse activation order.
type linuxPower struct {
	mu     sync.Mutex
	active []inhibitor
}

func (p *linuxPower) Acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.active) > 0 {
		return nil // already held
	}

	candidates := []inhibitor{&systemdInhibitor{}, &dbusInhibitor{}}
	if detectDisplayServer() == displayServerX11 {
		candidates = append(candidates, &xsetInhibitor{})
	}

	var failures []string
	for _, inh := range candidates {
		if err := inh.Activate(); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", inh.Name(), err))
			continue
		}
		log.Printf("platform: activated inhibitor %s", inh.Name())
		p.active = append(p.active, inh)
	}

	if len(p.active) == 0 {
		return fmt.Errorf("no sleep inhibitor available: %s", strings.Join(failures, "; "))
	}
	return nil
}

func (p *linuxPower) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var failed []string
	for i := len(p.active) - 1; i >= 0; i-- {
		inh := p.active[i]
		if err := inh.Deactivate(); err != nil {
			log.Printf("platform: inhibitor %s deactivation failed: %v", inh.Name(), err)
			failed = append(failed, inh.Name())
		}
	}
	p.active = nil

	if len(failed) > 0 {
		return fmt.Errorf("inhibitors failed to deactivate: %s", strings.Join(failed, ", "))
	}
	return nil
}

// xdotool key names for the default key set.
var x11KeyNames = map[string]string{
	"shift":      "shift",
	"f15":        "F15",
	"scrolllock": "Scroll_Lock",
	"numlock":    "Num_Lock",
}

// ydotool takes raw input event codes from linux/input-event-codes.h.
var uinputKeyCodes = map[string]int{
	"shift":      42,  // KEY_LEFTSHIFT
	"f15":        185, // KEY_F15
	"scrolllock": 70,  // KEY_SCROLLLOCK
	"numlock":    69,  // KEY_NUMLOCK
}

// linuxInjector shells out to xdotool on X11 and ydotool elsewhere.
type linuxInjector struct {
	displayServer string
}

func (l *linuxInjector) usesXdotool() bool {
	return l.displayServer == displayServerX11 && util.HasCommand("xdotool")
}

func (l *linuxInjector) TapKey(k presence.Key) error {
	if l.usesXdotool() {
		name, ok := x11KeyNames[k.Name]
		if !ok {
			return fmt.Errorf("no X11 key name for %q", k.Name)
		}
		out, err := util.RunVerbose("xdotool", "key", name)
		if err != nil {
			return fmt.Errorf("xdotool key failed: %v (output: %q)", err, out)
		}
		return nil
	}
	if util.HasCommand("ydotool") {
		code, ok := uinputKeyCodes[k.Name]
		if !ok {
			return fmt.Errorf("no input event code for %q", k.Name)
		}
		out, err := util.RunVerbose("ydotool", "key",
			fmt.Sprintf("%d:1", code), fmt.Sprintf("%d:0", code))
		if err != nil {
			return fmt.Errorf("ydotool key failed: %v (output: %q)", err, out)
		}
		return nil
	}
	return fmt.Errorf("no key injection tool found (install xdotool or ydotool)")
}

func (l *linuxInjector) PointerPosition() (int, int, error) {
	if !l.usesXdotool() {
		return 0, 0, fmt.Errorf("pointer position requires xdotool on X11")
	}
	out, err := util.RunVerbose("xdotool", "getmouselocation", "--shell")
	if err != nil {
		return 0, 0, fmt.Errorf("xdotool getmouselocation failed: %v (output: %q)", err, out)
	}
	return parseMouseLocation(out)
}

// parseMouseLocation reads the X= and Y= lines of
// "xdotool getmouselocation --shell" output.
func parseMouseLocation(out string) (int, int, error) {
	var x, y int
	var haveX, haveY bool
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "X="); ok {
			if n, err := strconv.Atoi(v); err == nil {
				x, haveX = n, true
			}
		}
		if v, ok := strings.CutPrefix(line, "Y="); ok {
			if n, err := strconv.Atoi(v); err == nil {
				y, haveY = n, true
			}
		}
	}
	if !haveX || !haveY {
		return 0, 0, fmt.Errorf("no pointer position in %q", out)
	}
	return x, y, nil
}

func (l *linuxInjector) MovePointer(x, y int) error {
	if l.usesXdotool() {
		out, err := util.RunVerbose("xdotool", "mousemove", strconv.Itoa(x), strconv.Itoa(y))
		if err != nil {
			return fmt.Errorf("xdotool mousemove failed: %v (output: %q)", err, out)
		}
		return nil
	}
	if util.HasCommand("ydotool") {
		out, err := util.RunVerbose("ydotool", "mousemove", "-a", "-x", strconv.Itoa(x), "-y", strconv.Itoa(y))
		if err != nil {
			return fmt.Errorf("ydotool mousemove failed: %v (output: %q)", err, out)
		}
		return nil
	}
	return fmt.Errorf("no pointer injection tool found (install xdotool or ydotool)")
}

// NewPowerManager creates the Linux stay-awake gateway.
func NewPowerManager() (presence.PowerManager, error) {
	return &linuxPower{}, nil
}

// NewInjector creates the Linux input injector.
func NewInjector() (presence.Injector, error) {
	return &linuxInjector{displayServer: detectDisplayServer()}, nil
}
