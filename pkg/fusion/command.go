package fusion

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Command types.
const (
	TypeClick   = "click"
	TypeSwipe   = "swipe"
	TypeCommand = "command"
	TypeSwitch  = "switch"
)

// Action is the intent carried by a Command. The concrete types are Click,
// Swipe, Directive, SwitchPress and Generic.
type Action interface {
	// Type is the command type compared by conflict detection.
	Type() string
}

// Click selects the element at Position.
type Click struct {
	Position Point `json:"position"`
}

// Swipe is a directional swipe: "left", "right", "up" or "down".
type Swipe struct {
	Direction string `json:"direction"`
}

// Directive is a named command such as "open settings".
type Directive struct {
	Text string `json:"text"`
}

// SwitchPress is an activation of an assistive switch.
type SwitchPress struct {
	SwitchID string `json:"switch_id"`
}

// Generic covers actions with no dedicated case. Name doubles as the type.
type Generic struct {
	Name   string         `json:"name"`
	Detail map[string]any `json:"detail,omitempty"`
}

func (Click) Type() string       { return TypeClick }
func (Swipe) Type() string       { return TypeSwipe }
func (Directive) Type() string   { return TypeCommand }
func (SwitchPress) Type() string { return TypeSwitch }
func (g Generic) Type() string   { return g.Name }

// Command is a candidate user intent derived from one RawInput.
type Command struct {
	ID         string   `json:"id"`
	Modality   Modality `json:"modality"`
	Action     Action   `json:"action"`
	Confidence float64  `json:"confidence"`
	Timestamp  int64    `json:"timestamp"`
}

// NewCommand creates a command with a fresh ID.
func NewCommand(m Modality, action Action, confidence float64, ts int64) Command {
	return Command{
		ID:         uuid.NewString(),
		Modality:   m,
		Action:     action,
		Confidence: confidence,
		Timestamp:  ts,
	}
}

// Type returns the action type, or "" when the command has no action.
func (c Command) Type() string {
	if c.Action == nil {
		return ""
	}
	return c.Action.Type()
}

// MarshalJSON adds the derived command type so subscribers can switch on it
// without inspecting the action.
func (c Command) MarshalJSON() ([]byte, error) {
	type plain Command
	return json.Marshal(struct {
		plain
		Type string `json:"type"`
	}{plain(c), c.Type()})
}
