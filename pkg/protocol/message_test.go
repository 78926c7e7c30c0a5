package protocol

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "gaze message",
			msgType: TypeGaze,
			data:    GazeData{X: 0.5, Y: 0.25, Confidence: 0.9},
			wantErr: false,
		},
		{
			name:    "voice message",
			msgType: TypeVoice,
			data:    VoiceData{Text: "open menu", Confidence: 0.85},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
			wantErr: false,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeVoice,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if msg == nil {
				t.Error("NewMessage() returned nil message")
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	msg, err := NewDwellMessage(0.4, 0.6, "Send", 0.75)
	if err != nil {
		t.Fatalf("NewDwellMessage() error = %v", err)
	}

	bytes, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(bytes)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypeDwell {
		t.Errorf("Type = %v, want %v", parsed.Type, TypeDwell)
	}
	if parsed.Timestamp != msg.Timestamp {
		t.Errorf("Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}

	dwell, err := parsed.GetDwellData()
	if err != nil {
		t.Fatalf("GetDwellData() error = %v", err)
	}
	if dwell.X != 0.4 || dwell.Y != 0.6 {
		t.Errorf("position = (%v, %v), want (0.4, 0.6)", dwell.X, dwell.Y)
	}
	if dwell.Label != "Send" {
		t.Errorf("Label = %v, want Send", dwell.Label)
	}
	if dwell.Confidence != 0.75 {
		t.Errorf("Confidence = %v, want 0.75", dwell.Confidence)
	}
}

func TestGestureMessageOptionalPosition(t *testing.T) {
	msg, err := NewGestureMessage("swipe_left", 0.8)
	if err != nil {
		t.Fatalf("NewGestureMessage() error = %v", err)
	}

	bytes, _ := msg.Bytes()
	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(bytes, &raw); err != nil {
		t.Fatalf("Failed to unmarshal as map: %v", err)
	}
	if _, ok := raw["data"]["x"]; ok {
		t.Error("x should be omitted when no position is given")
	}

	x, y := 0.1, 0.2
	withPos, _ := NewMessage(TypeGesture, GestureData{Name: "tap", X: &x, Y: &y, Confidence: 0.9})
	data, err := withPos.GetGestureData()
	if err != nil {
		t.Fatalf("GetGestureData() error = %v", err)
	}
	if data.X == nil || *data.X != 0.1 {
		t.Errorf("X = %v, want 0.1", data.X)
	}
}

func TestSwitchAndTouchMessages(t *testing.T) {
	sw, err := NewSwitchMessage("big-red", true)
	if err != nil {
		t.Fatalf("NewSwitchMessage() error = %v", err)
	}
	swData, err := sw.GetSwitchData()
	if err != nil {
		t.Fatalf("GetSwitchData() error = %v", err)
	}
	if swData.ID != "big-red" || !swData.Pressed {
		t.Errorf("switch = %+v, want big-red pressed", swData)
	}

	touch, err := NewTouchMessage(10, 20, "swipe", "up")
	if err != nil {
		t.Fatalf("NewTouchMessage() error = %v", err)
	}
	touchData, err := touch.GetTouchData()
	if err != nil {
		t.Fatalf("GetTouchData() error = %v", err)
	}
	if touchData.Gesture != "swipe" || touchData.Direction != "up" {
		t.Errorf("touch = %+v, want swipe up", touchData)
	}
}

func TestControlMessages(t *testing.T) {
	status, _ := NewModalityStatusMessage("voice", false)
	statusData, err := status.GetModalityStatusData()
	if err != nil {
		t.Fatalf("GetModalityStatusData() error = %v", err)
	}
	if statusData.Modality != "voice" || statusData.Active {
		t.Errorf("status = %+v, want voice inactive", statusData)
	}

	ctx, _ := NewContextMessage("meeting")
	ctxData, err := ctx.GetContextData()
	if err != nil {
		t.Fatalf("GetContextData() error = %v", err)
	}
	if ctxData.Context != "meeting" {
		t.Errorf("Context = %v, want meeting", ctxData.Context)
	}
}

func TestPingPongMessage(t *testing.T) {
	pingMsg, err := NewPingMessage("test-123")
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}

	if pingMsg.Type != TypePing {
		t.Errorf("Type = %v, want %v", pingMsg.Type, TypePing)
	}

	pingData, err := pingMsg.GetPingData()
	if err != nil {
		t.Fatalf("GetPingData() error = %v", err)
	}

	if pingData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pingData.ID)
	}

	// Create pong response
	now := time.Now().UnixMilli()
	pongMsg, err := NewPongMessage("test-123", pingMsg.Timestamp, now)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}

	if pongMsg.Type != TypePong {
		t.Errorf("Type = %v, want %v", pongMsg.Type, TypePong)
	}

	pongData, err := pongMsg.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData() error = %v", err)
	}

	if pongData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pongData.ID)
	}
	if pongData.LatencyMs < 0 {
		t.Errorf("LatencyMs = %v, should be >= 0", pongData.LatencyMs)
	}
}

func TestAckMessage(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantAccepted bool
		wantError    string
	}{
		{name: "accepted", err: nil, wantAccepted: true},
		{name: "rejected", err: errors.New("modality inactive"), wantAccepted: false, wantError: "modality inactive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewAckMessage(TypeVoice, tt.err)
			if err != nil {
				t.Fatalf("NewAckMessage() error = %v", err)
			}
			ack, err := msg.GetAckData()
			if err != nil {
				t.Fatalf("GetAckData() error = %v", err)
			}
			if ack.Type != TypeVoice {
				t.Errorf("Type = %v, want %v", ack.Type, TypeVoice)
			}
			if ack.Accepted != tt.wantAccepted {
				t.Errorf("Accepted = %v, want %v", ack.Accepted, tt.wantAccepted)
			}
			if ack.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", ack.Error, tt.wantError)
			}
		})
	}
}

func TestParseInvalidMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "invalid json",
			input:   "not json",
			wantErr: true,
		},
		{
			name:    "empty json",
			input:   "{}",
			wantErr: true,
		},
		{
			name:    "valid message",
			input:   `{"type":"ping","ts":1234567890}`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseMessageMissingType(t *testing.T) {
	_, err := ParseMessage([]byte(`{"data":{"text":"hi"}}`))
	if !errors.Is(err, ErrMissingType) {
		t.Errorf("ParseMessage() error = %v, want ErrMissingType", err)
	}
}

func TestParseDataWithoutPayload(t *testing.T) {
	msg := &Message{Type: TypePing}
	var data PingData
	if err := msg.ParseData(&data); err != nil {
		t.Errorf("ParseData() error = %v", err)
	}
}

func TestMessageJSON(t *testing.T) {
	// Verify JSON structure matches expected format
	msg, _ := NewVoiceMessage("scroll down", 0.9)

	bytes, _ := msg.Bytes()

	var parsed map[string]interface{}
	if err := json.Unmarshal(bytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal as map: %v", err)
	}

	if parsed["type"] != "voice" {
		t.Errorf("type = %v, want voice", parsed["type"])
	}

	if _, ok := parsed["ts"]; !ok {
		t.Error("ts field should be present")
	}

	if _, ok := parsed["data"]; !ok {
		t.Error("data field should be present")
	}
}

func BenchmarkParseMessage(b *testing.B) {
	msg, _ := NewGazeMessage(0.5, 0.5, 0.9)
	bytes, _ := msg.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseMessage(bytes)
	}
}
