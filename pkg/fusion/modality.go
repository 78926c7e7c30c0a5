package fusion

import (
	"fmt"
	"strings"
)

// Modality identifies an input channel.
type Modality string

const (
	Eye     Modality = "eye"
	Gesture Modality = "gesture"
	Voice   Modality = "voice"
	Switch  Modality = "switch"
	Touch   Modality = "touch"
)

// AllModalities lists every modality in registration order. Conflict
// detection scans modalities in this order.
var AllModalities = []Modality{Eye, Gesture, Voice, Switch, Touch}

// Valid reports whether m is one of the known modalities.
func (m Modality) Valid() bool {
	switch m {
	case Eye, Gesture, Voice, Switch, Touch:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (m Modality) String() string {
	return string(m)
}

// ParseModality converts a name such as "voice" into a Modality.
func ParseModality(name string) (Modality, error) {
	m := Modality(strings.ToLower(strings.TrimSpace(name)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownModality, name)
	}
	return m, nil
}

// Priorities maps each modality to its integer weight. Higher wins.
type Priorities map[Modality]int

// Clone returns an independent copy.
func (p Priorities) Clone() Priorities {
	out := make(Priorities, len(p))
	for m, v := range p {
		out[m] = v
	}
	return out
}

// Thresholds maps each modality to its minimum accepted confidence.
type Thresholds map[Modality]float64

// Clone returns an independent copy.
func (t Thresholds) Clone() Thresholds {
	out := make(Thresholds, len(t))
	for m, v := range t {
		out[m] = v
	}
	return out
}
