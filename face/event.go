package face

import "time"

// EventKind enumerates the closed set of signals the controller accepts.
type EventKind int

const (
	EventWake EventKind = iota
	EventSleep
	EventTick
	EventAmbientUpdate
)

func (k EventKind) String() string {
	switch k {
	case EventWake:
		return "wake"
	case EventSleep:
		return "sleep"
	case EventTick:
		return "tick"
	case EventAmbientUpdate:
		return "ambient-update"
	default:
		return "unknown"
	}
}

// Event is one external signal delivered to the controller. At carries the
// instant for Tick and AmbientUpdate; Wake and Sleep read the controller
// clock instead and ignore it.
type Event struct {
	Kind EventKind
	At   time.Time
}

// Origin distinguishes where an accepted redraw came from.
type Origin uint8

const (
	// OriginTick is the high-frequency active cadence.
	OriginTick Origin = iota
	// OriginAmbient is the low-frequency external broadcast cadence.
	OriginAmbient
	// OriginTransition is the single redraw a mode switch produces.
	OriginTransition
)

func (o Origin) String() string {
	switch o {
	case OriginAmbient:
		return "ambient"
	case OriginTransition:
		return "transition"
	default:
		return "tick"
	}
}

// RefreshEvent records one accepted redraw trigger. Seq equals the draw
// count after the redraw, so replaying a journal reproduces the counter.
type RefreshEvent struct {
	Seq    uint64
	At     time.Time
	Origin Origin
	Mode   Mode
}
