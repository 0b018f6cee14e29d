package presence

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presenced/internal/util"
)

// fakePower records acquire/release calls in order.
type fakePower struct {
	calls       []string
	failAcquire bool
	failRelease bool
}

func (p *fakePower) Acquire() error {
	p.calls = append(p.calls, "acquire")
	if p.failAcquire {
		return errors.New("assertion denied")
	}
	return nil
}

func (p *fakePower) Release() error {
	p.calls = append(p.calls, "release")
	if p.failRelease {
		return errors.New("release denied")
	}
	return nil
}

func (p *fakePower) count(call string) int {
	n := 0
	for _, c := range p.calls {
		if c == call {
			n++
		}
	}
	return n
}

// fakeInjector records taps and pointer moves against a virtual pointer.
type fakeInjector struct {
	x, y         int
	taps         []string
	moves        [][2]int
	failKey      bool
	failPosition bool
	failMove     bool
}

func (f *fakeInjector) TapKey(k Key) error {
	if f.failKey {
		return errors.New("tap failed")
	}
	f.taps = append(f.taps, k.Name)
	return nil
}

func (f *fakeInjector) PointerPosition() (int, int, error) {
	if f.failPosition {
		return 0, 0, errors.New("position read failed")
	}
	return f.x, f.y, nil
}

func (f *fakeInjector) MovePointer(x, y int) error {
	if f.failMove {
		return errors.New("move failed")
	}
	f.moves = append(f.moves, [2]int{x, y})
	f.x, f.y = x, y
	return nil
}

func instantSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 6, 3, hour, minute, 0, 0, time.UTC)
}

func window(startHour, endHour int) Config {
	return Config{
		BaseInterval: 30,
		Jitter:       10,
		PointerRange: 5,
		ActiveStart:  util.Clock(startHour * 60),
		ActiveEnd:    util.Clock(endHour * 60),
	}
}

func testLoop(cfg Config, power *fakePower, inj *fakeInjector) *Loop {
	return &Loop{
		Config: cfg,
		Power:  power,
		Input:  inj,
		Rand:   rand.New(rand.NewSource(42)),
		Now:    func() time.Time { return at(12, 0) },
		sleep:  instantSleep,
	}
}

func TestSleepBounds(t *testing.T) {
	tests := []struct {
		name     string
		base     int
		jitter   int
		wantLo   int
		wantHi   int
	}{
		{"default config", 30, 10, 20, 40},
		{"no jitter", 30, 0, 30, 30},
		{"floor applies", 3, 0, 5, 5},
		{"jitter exceeds base", 10, 20, 5, 30},
		{"jitter pushes below floor", 8, 5, 5, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{BaseInterval: tt.base, Jitter: tt.jitter}
			lo, hi := cfg.SleepBounds()
			if lo != tt.wantLo || hi != tt.wantHi {
				t.Errorf("SleepBounds() = (%d, %d), want (%d, %d)", lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}
}

func TestSleepDurationWithinBounds(t *testing.T) {
	l := testLoop(window(8, 22), &fakePower{}, &fakeInjector{})
	l.applyDefaults()

	lo := 20 * time.Second
	hi := 40 * time.Second
	for i := 0; i < 1000; i++ {
		d := l.sleepDuration()
		if d < lo || d > hi {
			t.Fatalf("sample %d: sleep %v outside [%v, %v]", i, d, lo, hi)
		}
	}
}

func TestSleepDurationFloor(t *testing.T) {
	cfg := window(8, 22)
	cfg.BaseInterval = 3
	cfg.Jitter = 0
	l := testLoop(cfg, &fakePower{}, &fakeInjector{})
	l.applyDefaults()

	for i := 0; i < 100; i++ {
		if d := l.sleepDuration(); d != 5*time.Second {
			t.Fatalf("sample %d: sleep %v, want 5s floor", i, d)
		}
	}
}

func TestPointerOffsetWithinRangeAndNonzero(t *testing.T) {
	l := testLoop(window(8, 22), &fakePower{}, &fakeInjector{})
	l.applyDefaults()

	for i := 0; i < 1000; i++ {
		dx, dy := l.pointerOffset()
		if dx < -5 || dx > 5 || dy < -5 || dy > 5 {
			t.Fatalf("sample %d: offset (%d,%d) outside range", i, dx, dy)
		}
		if dx == 0 && dy == 0 {
			t.Fatalf("sample %d: offset is (0,0)", i)
		}
	}
}

func TestPointerOffsetRangeOneReachesAllPairs(t *testing.T) {
	cfg := window(8, 22)
	cfg.PointerRange = 1
	l := testLoop(cfg, &fakePower{}, &fakeInjector{})
	l.applyDefaults()

	seen := make(map[[2]int]bool)
	for i := 0; i < 2000; i++ {
		dx, dy := l.pointerOffset()
		seen[[2]int{dx, dy}] = true
	}

	// 3x3 grid minus the origin
	assert.Len(t, seen, 8, "all nonzero offset pairs should be reachable")
	assert.NotContains(t, seen, [2]int{0, 0})
}

func TestTapRandomKeyTogglesTwice(t *testing.T) {
	inj := &fakeInjector{}
	l := testLoop(window(8, 22), &fakePower{}, inj)
	l.Keys = []Key{{Name: "scrolllock", Toggle: true}}
	l.applyDefaults()

	name := l.tapRandomKey(context.Background())
	require.Equal(t, "scrolllock", name)
	assert.Equal(t, []string{"scrolllock", "scrolllock"}, inj.taps, "toggle keys are tapped twice")
}

func TestTapRandomKeyPlainTapsOnce(t *testing.T) {
	inj := &fakeInjector{}
	l := testLoop(window(8, 22), &fakePower{}, inj)
	l.Keys = []Key{{Name: "shift"}}
	l.applyDefaults()

	l.tapRandomKey(context.Background())
	assert.Equal(t, []string{"shift"}, inj.taps)
}

func TestTapRandomKeyFailureAbandonsAction(t *testing.T) {
	inj := &fakeInjector{failKey: true}
	l := testLoop(window(8, 22), &fakePower{}, inj)
	l.Keys = []Key{{Name: "scrolllock", Toggle: true}}
	l.applyDefaults()

	name := l.tapRandomKey(context.Background())
	assert.Empty(t, name)
	assert.Empty(t, inj.taps)
}

func TestNudgePointerRestoresOrigin(t *testing.T) {
	inj := &fakeInjector{x: 640, y: 480}
	l := testLoop(window(8, 22), &fakePower{}, inj)
	l.applyDefaults()

	dx, dy := l.nudgePointer(context.Background())
	require.False(t, dx == 0 && dy == 0)
	require.Len(t, inj.moves, 2)
	assert.Equal(t, [2]int{640 + dx, 480 + dy}, inj.moves[0])
	assert.Equal(t, [2]int{640, 480}, inj.moves[1], "pointer returns to the recorded origin")
	assert.Equal(t, 640, inj.x)
	assert.Equal(t, 480, inj.y)
}

func TestNudgePointerPositionFailureSkipsAction(t *testing.T) {
	inj := &fakeInjector{failPosition: true}
	l := testLoop(window(8, 22), &fakePower{}, inj)
	l.applyDefaults()

	dx, dy := l.nudgePointer(context.Background())
	assert.Zero(t, dx)
	assert.Zero(t, dy)
	assert.Empty(t, inj.moves)
}

func TestWindowContains(t *testing.T) {
	cfg := window(9, 17)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before window", at(8, 59), false},
		{"window start", at(9, 0), true},
		{"midday", at(12, 0), true},
		{"window end", at(17, 0), true},
		{"after window", at(17, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.Contains(tt.now); got != tt.want {
				t.Errorf("Contains(%s) = %v, want %v", tt.now.Format("15:04"), got, tt.want)
			}
		})
	}
}

func TestRunOutsideWindowReleasesWithoutIterating(t *testing.T) {
	power := &fakePower{}
	l := testLoop(window(9, 17), power, &fakeInjector{})
	l.Now = func() time.Time { return at(8, 59) }

	statuses := 0
	l.Notify = func(Status) { statuses++ }

	err := l.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, statuses, "no iteration runs outside the window")
	assert.Equal(t, []string{"acquire", "release"}, power.calls)
}

func TestRunExitsWhenWindowCloses(t *testing.T) {
	power := &fakePower{}
	l := testLoop(window(8, 22), power, &fakeInjector{})

	now := at(12, 0)
	l.Now = func() time.Time { return now }

	var statuses []Status
	l.Notify = func(st Status) {
		statuses = append(statuses, st)
		if len(statuses) == 3 {
			now = at(23, 30)
		}
	}

	err := l.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, statuses, 3)
	assert.Equal(t, 1, power.count("acquire"))
	assert.Equal(t, 1, power.count("release"))

	for i, st := range statuses {
		assert.Equal(t, i+1, st.Iteration, "iteration count is monotonic")
		assert.GreaterOrEqual(t, st.NextSleep, 20*time.Second)
		assert.LessOrEqual(t, st.NextSleep, 40*time.Second)
	}
}

func TestRunReleasesExactlyOnceOnCancel(t *testing.T) {
	power := &fakePower{}
	l := testLoop(window(8, 22), power, &fakeInjector{})

	ctx, cancel := context.WithCancel(context.Background())
	l.Notify = func(st Status) {
		if st.Iteration == 2 {
			cancel()
		}
	}

	err := l.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, power.count("release"), "interrupted run still releases exactly once")
	assert.Equal(t, "acquire", power.calls[0], "release never precedes acquire")
}

func TestRunContinuesWhenAcquireFails(t *testing.T) {
	power := &fakePower{failAcquire: true}
	l := testLoop(window(8, 22), power, &fakeInjector{})

	ctx, cancel := context.WithCancel(context.Background())
	var statuses []Status
	l.Notify = func(st Status) {
		statuses = append(statuses, st)
		if len(statuses) == 2 {
			cancel()
		}
	}

	err := l.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotEmpty(t, statuses, "loop runs even when the stay-awake request fails")
	assert.False(t, statuses[0].PowerHeld)
	assert.Equal(t, 1, power.count("release"), "release happens even after a failed acquire")
}

func TestRunInjectionFailuresAreNonFatal(t *testing.T) {
	power := &fakePower{}
	inj := &fakeInjector{failKey: true, failPosition: true}
	l := testLoop(window(8, 22), power, inj)

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	l.Notify = func(Status) {
		count++
		if count == 5 {
			cancel()
		}
	}

	err := l.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, count, "loop keeps iterating past injection failures")
	assert.Equal(t, 1, power.count("release"))
}
