package presence

// Action selects which synthetic input runs in one iteration. It is drawn
// uniformly each iteration; there is deliberately no dependence on prior
// draws, the loop only needs to avoid a perfectly periodic signature.
type Action int

const (
	ActionKey Action = iota
	ActionPointer
	ActionBoth

	actionCount = 3
)

func (a Action) String() string {
	switch a {
	case ActionKey:
		return "key tap"
	case ActionPointer:
		return "pointer nudge"
	case ActionBoth:
		return "key tap + pointer nudge"
	default:
		return "no action"
	}
}

// Key identifies a candidate key for injection. Platform injectors map Name
// to their native key code. Toggle keys latch an OS-visible state (lock
// lights) and are tapped a second time to leave that state unchanged.
type Key struct {
	Name   string
	Toggle bool
}

// DefaultKeySet returns the candidate keys the loop draws from. The set
// favors keys that register as activity without typing anything visible.
func DefaultKeySet() []Key {
	return []Key{
		{Name: "shift"},
		{Name: "f15"},
		{Name: "scrolllock", Toggle: true},
		{Name: "numlock", Toggle: true},
	}
}
