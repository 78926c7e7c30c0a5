package fusion

// Input kinds produced by adapters.
const (
	KindGaze       = "gaze"
	KindDwellClick = "dwell-click"
	KindGesture    = "gesture"
	KindVoice      = "voice"
	KindSwitch     = "switch"
	KindTouch      = "touch"
)

// Point is a screen position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Payload is the modality-specific part of a RawInput. The concrete types
// are Point, Utterance, GestureName, SwitchState, TouchData and DwellTarget.
type Payload interface {
	isPayload()
}

// Utterance is recognised speech.
type Utterance struct {
	Text string `json:"text"`
}

// GestureName is a recognised hand gesture, optionally anchored at a point.
type GestureName struct {
	Name     string `json:"name"`
	Position *Point `json:"position,omitempty"`
}

// SwitchState is the state of an assistive switch.
type SwitchState struct {
	ID      string `json:"id"`
	Pressed bool   `json:"pressed"`
}

// TouchData is a touch observation. Gesture is "tap", "swipe" or another
// touch gesture name; Direction is set for swipes.
type TouchData struct {
	Position  Point  `json:"position"`
	Gesture   string `json:"gesture"`
	Direction string `json:"direction,omitempty"`
}

// DwellTarget is a completed gaze dwell. Label is set when the dwell landed
// on a labelled control and should be treated as a named command.
type DwellTarget struct {
	Position Point  `json:"position"`
	Label    string `json:"label,omitempty"`
}

func (Point) isPayload()       {}
func (Utterance) isPayload()   {}
func (GestureName) isPayload() {}
func (SwitchState) isPayload() {}
func (TouchData) isPayload()   {}
func (DwellTarget) isPayload() {}

// RawInput is one observation from a modality. Timestamp is in
// milliseconds and is captured when the input arrives.
type RawInput struct {
	Modality   Modality `json:"modality"`
	Kind       string   `json:"kind"`
	Payload    Payload  `json:"payload"`
	Confidence float64  `json:"confidence"`
	Timestamp  int64    `json:"timestamp"`
}
