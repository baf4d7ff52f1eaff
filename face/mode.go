package face

// Mode identifies the display power state. Exactly one mode is current at
// any time.
type Mode int

const (
	// ModeActive is the high-frequency refresh state while the display is
	// fully powered.
	ModeActive Mode = iota
	// ModeAmbient is the low-power state refreshed only on external signals.
	ModeAmbient
)

// The two mode labels are part of the observable contract and must not
// change.
const (
	labelActive  = "Active"
	labelAmbient = "Ambient"
)

func (m Mode) String() string {
	if m == ModeAmbient {
		return labelAmbient
	}
	return labelActive
}
