// Package protocol defines the WebSocket message types exchanged between
// input adapters, the fusion service, and event subscribers.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Adapter → Service messages
	TypeGaze           MessageType = "gaze"            // Gaze position update
	TypeDwell          MessageType = "dwell"           // Completed gaze dwell
	TypeGesture        MessageType = "gesture"         // Recognised hand gesture
	TypeVoice          MessageType = "voice"           // Recognised voice command
	TypeSwitch         MessageType = "switch"          // Assistive switch state
	TypeTouch          MessageType = "touch"           // Touch observation
	TypeModalityStatus MessageType = "modality_status" // Adapter availability
	TypeProfile        MessageType = "profile"         // User profile replacement
	TypeContext        MessageType = "context"         // Situational context
	TypeSettings       MessageType = "settings"        // Partial settings update

	// Service → Subscriber messages
	TypeExecuted         MessageType = "executed"          // Any command executed
	TypeClick            MessageType = "click"             // Click executed
	TypeSwipe            MessageType = "swipe"             // Swipe executed
	TypeDirective        MessageType = "directive"         // Named command executed
	TypeModalityExecuted MessageType = "modality_executed" // Other command executed
	TypeConflict         MessageType = "conflict"          // Conflict resolved
	TypePriorities       MessageType = "priorities"        // Priorities changed

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
	TypeAck  MessageType = "ack"  // Input accepted or rejected
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: %w", ErrMissingType)
	}
	return &msg, nil
}

// =============================================================================
// Adapter → Service Message Types
// =============================================================================

// GazeData is a gaze position sample
type GazeData struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
}

// DwellData is a completed dwell. Label is set when the dwell landed on a
// labelled control.
type DwellData struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence"`
}

// GestureData is a recognised gesture, e.g. "swipe_left", "tap", "wave"
type GestureData struct {
	Name       string   `json:"name"`
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
	Confidence float64  `json:"confidence"`
}

// VoiceData is a recognised voice command
type VoiceData struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// SwitchData is an assistive switch state change. Switch inputs carry no
// confidence: they are always deliberate.
type SwitchData struct {
	ID      string `json:"id"`
	Pressed bool   `json:"pressed"`
}

// TouchData is a touch observation. Touch inputs carry no confidence.
type TouchData struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Gesture   string  `json:"gesture,omitempty"`   // "tap", "swipe", ...
	Direction string  `json:"direction,omitempty"` // for swipes
}

// ModalityStatusData announces adapter availability
type ModalityStatusData struct {
	Modality string `json:"modality"`
	Active   bool   `json:"active"`
}

// ContextData names the situational context
type ContextData struct {
	Context string `json:"context"` // "driving", "meeting", "home", "public"
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}

// AckData reports whether an adapter message was accepted
type AckData struct {
	Type     MessageType `json:"type"`
	Accepted bool        `json:"accepted"`
	Error    string      `json:"error,omitempty"`
}
