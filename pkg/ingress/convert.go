package ingress

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/teslashibe/go-alejo/pkg/events"
	"github.com/teslashibe/go-alejo/pkg/fusion"
	"github.com/teslashibe/go-alejo/pkg/protocol"
)

// publication is a decoded adapter message ready to go on the bus.
type publication struct {
	topic   string
	publish func(*events.Bus)
}

func publishOn[T any](t events.Topic[T], v T) publication {
	return publication{
		topic:   t.Name(),
		publish: func(b *events.Bus) { events.Publish(b, t, v) },
	}
}

// decode turns an adapter message into a bus publication. arrival is the
// receive time in Unix milliseconds and becomes the input timestamp.
func decode(msg *protocol.Message, arrival int64) (publication, error) {
	switch msg.Type {
	case protocol.TypeGaze:
		d, err := msg.GetGazeData()
		if err != nil {
			return publication{}, invalid(msg.Type, err)
		}
		p := fusion.Point{X: d.X, Y: d.Y}
		return publishOn(fusion.TopicGaze, fusion.RawInput{
			Modality:   fusion.Eye,
			Kind:       fusion.KindGaze,
			Payload:    p,
			Confidence: d.Confidence,
			Timestamp:  arrival,
		}), nil

	case protocol.TypeDwell:
		d, err := msg.GetDwellData()
		if err != nil {
			return publication{}, invalid(msg.Type, err)
		}
		return publishOn(fusion.TopicDwell, fusion.RawInput{
			Modality:   fusion.Eye,
			Kind:       fusion.KindDwellClick,
			Payload:    fusion.DwellTarget{Position: fusion.Point{X: d.X, Y: d.Y}, Label: d.Label},
			Confidence: d.Confidence,
			Timestamp:  arrival,
		}), nil

	case protocol.TypeGesture:
		d, err := msg.GetGestureData()
		if err != nil {
			return publication{}, invalid(msg.Type, err)
		}
		if strings.TrimSpace(d.Name) == "" {
			return publication{}, invalid(msg.Type, fmt.Errorf("gesture name missing"))
		}
		g := fusion.GestureName{Name: d.Name}
		if d.X != nil && d.Y != nil {
			g.Position = &fusion.Point{X: *d.X, Y: *d.Y}
		}
		return publishOn(fusion.TopicGesture, fusion.RawInput{
			Modality:   fusion.Gesture,
			Kind:       fusion.KindGesture,
			Payload:    g,
			Confidence: d.Confidence,
			Timestamp:  arrival,
		}), nil

	case protocol.TypeVoice:
		d, err := msg.GetVoiceData()
		if err != nil {
			return publication{}, invalid(msg.Type, err)
		}
		return publishOn(fusion.TopicVoice, fusion.RawInput{
			Modality:   fusion.Voice,
			Kind:       fusion.KindVoice,
			Payload:    fusion.Utterance{Text: d.Text},
			Confidence: d.Confidence,
			Timestamp:  arrival,
		}), nil

	case protocol.TypeSwitch:
		d, err := msg.GetSwitchData()
		if err != nil {
			return publication{}, invalid(msg.Type, err)
		}
		return publishOn(fusion.TopicSwitch, fusion.RawInput{
			Modality:  fusion.Switch,
			Kind:      fusion.KindSwitch,
			Payload:   fusion.SwitchState{ID: d.ID, Pressed: d.Pressed},
			Timestamp: arrival,
		}), nil

	case protocol.TypeTouch:
		d, err := msg.GetTouchData()
		if err != nil {
			return publication{}, invalid(msg.Type, err)
		}
		return publishOn(fusion.TopicTouch, fusion.RawInput{
			Modality: fusion.Touch,
			Kind:     fusion.KindTouch,
			Payload: fusion.TouchData{
				Position:  fusion.Point{X: d.X, Y: d.Y},
				Gesture:   d.Gesture,
				Direction: d.Direction,
			},
			Timestamp: arrival,
		}), nil

	case protocol.TypeModalityStatus:
		d, err := msg.GetModalityStatusData()
		if err != nil {
			return publication{}, invalid(msg.Type, err)
		}
		m, err := fusion.ParseModality(d.Modality)
		if err != nil {
			return publication{}, invalid(msg.Type, err)
		}
		return publishOn(fusion.TopicModalityStatus, fusion.ModalityStatus{Modality: m, Active: d.Active}), nil

	case protocol.TypeContext:
		d, err := msg.GetContextData()
		if err != nil {
			return publication{}, invalid(msg.Type, err)
		}
		return publishOn(fusion.TopicContextChange, fusion.ContextChange{Context: d.Context}), nil

	case protocol.TypeProfile:
		if missing(msg) {
			return publication{}, invalid(msg.Type, errors.New("profile missing"))
		}
		var p fusion.UserProfile
		if err := msg.ParseData(&p); err != nil {
			return publication{}, invalid(msg.Type, err)
		}
		return publishOn(fusion.TopicProfileUpdate, p), nil

	case protocol.TypeSettings:
		if missing(msg) {
			return publication{}, invalid(msg.Type, errors.New("settings missing"))
		}
		var patch fusion.SettingsPatch
		if err := msg.ParseData(&patch); err != nil {
			return publication{}, invalid(msg.Type, err)
		}
		return publishOn(fusion.TopicSettingsUpdate, patch), nil
	}

	return publication{}, fmt.Errorf("%w: %s", protocol.ErrUnknownType, msg.Type)
}

func invalid(t protocol.MessageType, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalidPayload, t, err)
}

// missing reports a message whose data is absent or null. Replacement
// messages must not decode into zero values.
func missing(msg *protocol.Message) bool {
	d := bytes.TrimSpace(msg.Data)
	return len(d) == 0 || bytes.Equal(d, []byte("null"))
}
