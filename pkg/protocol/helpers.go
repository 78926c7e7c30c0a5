package protocol

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewGazeMessage creates a gaze message
func NewGazeMessage(x, y, confidence float64) (*Message, error) {
	return NewMessage(TypeGaze, GazeData{X: x, Y: y, Confidence: confidence})
}

// NewDwellMessage creates a dwell message
func NewDwellMessage(x, y float64, label string, confidence float64) (*Message, error) {
	return NewMessage(TypeDwell, DwellData{X: x, Y: y, Label: label, Confidence: confidence})
}

// NewGestureMessage creates a gesture message without a position
func NewGestureMessage(name string, confidence float64) (*Message, error) {
	return NewMessage(TypeGesture, GestureData{Name: name, Confidence: confidence})
}

// NewVoiceMessage creates a voice command message
func NewVoiceMessage(text string, confidence float64) (*Message, error) {
	return NewMessage(TypeVoice, VoiceData{Text: text, Confidence: confidence})
}

// NewSwitchMessage creates a switch message
func NewSwitchMessage(id string, pressed bool) (*Message, error) {
	return NewMessage(TypeSwitch, SwitchData{ID: id, Pressed: pressed})
}

// NewTouchMessage creates a touch message
func NewTouchMessage(x, y float64, gesture, direction string) (*Message, error) {
	return NewMessage(TypeTouch, TouchData{X: x, Y: y, Gesture: gesture, Direction: direction})
}

// NewModalityStatusMessage creates a modality status message
func NewModalityStatusMessage(modality string, active bool) (*Message, error) {
	return NewMessage(TypeModalityStatus, ModalityStatusData{Modality: modality, Active: active})
}

// NewContextMessage creates a context change message
func NewContextMessage(context string) (*Message, error) {
	return NewMessage(TypeContext, ContextData{Context: context})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// NewAckMessage creates an acknowledgement. A nil err means accepted.
func NewAckMessage(msgType MessageType, err error) (*Message, error) {
	ack := AckData{Type: msgType, Accepted: err == nil}
	if err != nil {
		ack.Error = err.Error()
	}
	return NewMessage(TypeAck, ack)
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetGazeData extracts gaze data from a message
func (m *Message) GetGazeData() (*GazeData, error) {
	var data GazeData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetDwellData extracts dwell data from a message
func (m *Message) GetDwellData() (*DwellData, error) {
	var data DwellData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetGestureData extracts gesture data from a message
func (m *Message) GetGestureData() (*GestureData, error) {
	var data GestureData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetVoiceData extracts voice data from a message
func (m *Message) GetVoiceData() (*VoiceData, error) {
	var data VoiceData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSwitchData extracts switch data from a message
func (m *Message) GetSwitchData() (*SwitchData, error) {
	var data SwitchData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTouchData extracts touch data from a message
func (m *Message) GetTouchData() (*TouchData, error) {
	var data TouchData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetModalityStatusData extracts modality status from a message
func (m *Message) GetModalityStatusData() (*ModalityStatusData, error) {
	var data ModalityStatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetContextData extracts context data from a message
func (m *Message) GetContextData() (*ContextData, error) {
	var data ContextData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetAckData extracts ack data from a message
func (m *Message) GetAckData() (*AckData, error) {
	var data AckData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
