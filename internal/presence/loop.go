// Package presence implements the scheduling loop that keeps a workstation
// looking busy: it holds an OS stay-awake assertion for its lifetime and
// injects small randomized input while inside the configured daily window.
package presence

import (
	"context"
	"log"
	"math/rand"
	"time"

	"presenced/internal/util"
)

const (
	// minimumSleepSeconds is the floor for the inter-iteration sleep, even
	// when jitter pushes the lower bound below it.
	minimumSleepSeconds = 5

	// announceEvery is how many iterations pass between elapsed-runtime lines.
	announceEvery = 6

	// Intra-iteration pauses between injection steps.
	keyPauseMin     = 50 * time.Millisecond
	keyPauseMax     = 150 * time.Millisecond
	pointerPauseMin = 80 * time.Millisecond
	pointerPauseMax = 250 * time.Millisecond
)

// PowerManager holds and releases the OS stay-awake assertion. Both calls
// are idempotent; releasing an assertion that is not held is a no-op.
type PowerManager interface {
	Acquire() error
	Release() error
}

// Injector sends synthetic input events. All calls are best-effort: the
// loop logs failures and moves on, it never retries.
type Injector interface {
	TapKey(k Key) error
	PointerPosition() (x, y int, err error)
	MovePointer(x, y int) error
}

// Config holds the immutable per-run loop parameters.
type Config struct {
	BaseInterval int        // seconds between iterations, > 0
	Jitter       int        // symmetric random variation in seconds, >= 0
	PointerRange int        // max pointer offset per axis in pixels, clamped to >= 1
	ActiveStart  util.Clock // daily window start, inclusive
	ActiveEnd    util.Clock // daily window end, inclusive
}

// SleepBounds returns the inclusive bounds in seconds of the randomized
// inter-iteration sleep.
func (c Config) SleepBounds() (lo, hi int) {
	lo = c.BaseInterval - c.Jitter
	if lo < minimumSleepSeconds {
		lo = minimumSleepSeconds
	}
	hi = c.BaseInterval + c.Jitter
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Contains reports whether the time of day of t falls inside the window.
func (c Config) Contains(t time.Time) bool {
	clock := util.ClockOf(t)
	return clock >= c.ActiveStart && clock <= c.ActiveEnd
}

// Status describes one completed iteration. It is published through Notify
// for display; the log file carries the same information.
type Status struct {
	Iteration int
	Action    Action
	Key       string // key tapped this iteration, if any
	OffsetX   int    // pointer offset applied this iteration, if any
	OffsetY   int
	NextSleep time.Duration // how long the loop sleeps after this iteration
	Elapsed   time.Duration // runtime since the loop started
	PowerHeld bool
}

// Loop runs the presence simulation. Config, Power and Input must be set;
// the remaining fields default on Run. A Loop is single-use: Run owns all
// loop state and must not be called twice.
type Loop struct {
	Config Config
	Power  PowerManager
	Input  Injector

	Keys   []Key            // candidate keys, defaults to DefaultKeySet
	Rand   *rand.Rand       // randomness source, defaults to a time-seeded one
	Now    func() time.Time // clock, defaults to time.Now
	Notify func(Status)     // optional per-iteration callback

	sleep      func(ctx context.Context, d time.Duration) error
	iterations int
	started    time.Time
	powerHeld  bool
}

// Run drives the loop until the active window closes or ctx is canceled.
// The power assertion is acquired before the first iteration and released
// on every exit path, including cancellation mid-sleep. Run returns nil on
// a normal window exit and ctx.Err() on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	l.applyDefaults()
	l.started = l.Now()

	if err := l.Power.Acquire(); err != nil {
		log.Printf("presence: stay-awake request failed: %v (continuing without it)", err)
	} else {
		l.powerHeld = true
		log.Printf("presence: stay-awake assertion held")
	}
	defer l.release()

	log.Printf("presence: active window %s-%s, interval %ds ± %ds, pointer range %dpx",
		l.Config.ActiveStart, l.Config.ActiveEnd, l.Config.BaseInterval, l.Config.Jitter, l.Config.PointerRange)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := l.Now()
		if !l.Config.Contains(now) {
			log.Printf("presence: %s is outside active window %s-%s; stopping",
				util.ClockOf(now), l.Config.ActiveStart, l.Config.ActiveEnd)
			return nil
		}

		l.iterations++
		st := Status{
			Iteration: l.iterations,
			Action:    Action(l.Rand.Intn(actionCount)),
			PowerHeld: l.powerHeld,
		}

		if st.Action == ActionKey || st.Action == ActionBoth {
			st.Key = l.tapRandomKey(ctx)
		}
		if st.Action == ActionPointer || st.Action == ActionBoth {
			st.OffsetX, st.OffsetY = l.nudgePointer(ctx)
		}

		st.NextSleep = l.sleepDuration()
		st.Elapsed = l.Now().Sub(l.started)
		l.report(st)

		if err := l.sleep(ctx, st.NextSleep); err != nil {
			return err
		}

		if l.iterations%announceEvery == 0 {
			log.Printf("presence: %d iterations, %s elapsed, now %s",
				l.iterations, l.Now().Sub(l.started).Round(time.Second), l.Now().Format("15:04:05"))
		}
	}
}

func (l *Loop) applyDefaults() {
	if l.Rand == nil {
		l.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if l.Now == nil {
		l.Now = time.Now
	}
	if l.sleep == nil {
		l.sleep = sleepCtx
	}
	if len(l.Keys) == 0 {
		l.Keys = DefaultKeySet()
	}
	if l.Config.PointerRange < 1 {
		l.Config.PointerRange = 1
	}
}

// release drops the stay-awake assertion. Run defers it so it executes
// exactly once per run, whether the window closed or the sleep was
// interrupted, and regardless of whether the acquire succeeded.
func (l *Loop) release() {
	err := l.Power.Release()
	elapsed := l.Now().Sub(l.started).Round(time.Second)
	if err != nil {
		log.Printf("presence: stay-awake release failed: %v", err)
	} else {
		log.Printf("presence: stay-awake assertion released")
	}
	l.powerHeld = false
	log.Printf("presence: done after %d iterations, %s elapsed", l.iterations, elapsed)
}

// tapRandomKey taps one key from the key set and returns its name. Toggle
// keys get a second tap immediately after the pause so the latched state is
// restored. An injection failure abandons the action for this iteration.
func (l *Loop) tapRandomKey(ctx context.Context) string {
	k := l.Keys[l.Rand.Intn(len(l.Keys))]
	if err := l.Input.TapKey(k); err != nil {
		log.Printf("presence: key tap %q failed: %v", k.Name, err)
		return ""
	}
	if err := l.sleep(ctx, l.pause(keyPauseMin, keyPauseMax)); err != nil {
		return k.Name
	}
	if k.Toggle {
		if err := l.Input.TapKey(k); err != nil {
			log.Printf("presence: toggle restore for %q failed: %v", k.Name, err)
		}
	}
	return k.Name
}

// nudgePointer moves the pointer by a random nonzero offset and moves it
// back to the exact recorded origin. Failures are logged and leave the
// pointer wherever the last successful move placed it.
func (l *Loop) nudgePointer(ctx context.Context) (dx, dy int) {
	x, y, err := l.Input.PointerPosition()
	if err != nil {
		log.Printf("presence: pointer position read failed: %v", err)
		return 0, 0
	}

	dx, dy = l.pointerOffset()
	if err := l.Input.MovePointer(x+dx, y+dy); err != nil {
		log.Printf("presence: pointer move failed: %v", err)
		return 0, 0
	}
	if err := l.sleep(ctx, l.pause(pointerPauseMin, pointerPauseMax)); err != nil {
		return dx, dy
	}
	if err := l.Input.MovePointer(x, y); err != nil {
		log.Printf("presence: pointer restore failed: %v", err)
	}
	return dx, dy
}

// pointerOffset draws a per-axis offset in [-range, +range]. A (0,0) draw is
// redrawn on one axis to ±1 so every nudge actually moves the pointer.
func (l *Loop) pointerOffset() (dx, dy int) {
	r := l.Config.PointerRange
	dx = l.Rand.Intn(2*r+1) - r
	dy = l.Rand.Intn(2*r+1) - r
	if dx == 0 && dy == 0 {
		v := l.Rand.Intn(2)*2 - 1
		if l.Rand.Intn(2) == 0 {
			dx = v
		} else {
			dy = v
		}
	}
	return dx, dy
}

// sleepDuration draws a whole-second duration inside SleepBounds, inclusive.
func (l *Loop) sleepDuration() time.Duration {
	lo, hi := l.Config.SleepBounds()
	return time.Duration(lo+l.Rand.Intn(hi-lo+1)) * time.Second
}

// pause draws a short intra-iteration pause in [lo, hi].
func (l *Loop) pause(lo, hi time.Duration) time.Duration {
	return lo + time.Duration(l.Rand.Int63n(int64(hi-lo)+1))
}

func (l *Loop) report(st Status) {
	switch st.Action {
	case ActionKey:
		log.Printf("presence: iteration %d: tapped %q, sleeping %s", st.Iteration, st.Key, st.NextSleep)
	case ActionPointer:
		log.Printf("presence: iteration %d: nudged pointer by (%d,%d), sleeping %s", st.Iteration, st.OffsetX, st.OffsetY, st.NextSleep)
	case ActionBoth:
		log.Printf("presence: iteration %d: tapped %q and nudged pointer by (%d,%d), sleeping %s", st.Iteration, st.Key, st.OffsetX, st.OffsetY, st.NextSleep)
	default:
		log.Printf("presence: iteration %d: no action, sleeping %s", st.Iteration, st.NextSleep)
	}
	if l.Notify != nil {
		l.Notify(st)
	}
}

// sleepCtx blocks for d or until ctx is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
