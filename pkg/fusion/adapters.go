package fusion

import (
	"strings"
)

// Confidence assigned at the adapter boundary to inputs that are always
// deliberate.
const (
	SwitchConfidence = 1.0
	TouchConfidence  = 0.95
)

// accept normalises an inbound input and reports whether it should be
// processed. Inputs are dropped when the engine is not initialized or the
// modality is inactive.
func (e *Engine) accept(m Modality, in *RawInput) bool {
	if !e.initialized {
		return false
	}
	if in.Modality == "" {
		in.Modality = m
	}
	if in.Modality != m {
		e.logger.Debug("input on wrong topic", "topic_modality", m, "modality", in.Modality)
		return false
	}
	if !e.registry.IsActive(m) {
		e.stats.DroppedInactive++
		e.logger.Debug("dropping input from inactive modality", "modality", m, "kind", in.Kind)
		return false
	}
	if in.Timestamp == 0 {
		in.Timestamp = e.now()
	}
	e.stats.Inputs++
	e.AddToBuffer(m, *in)
	return true
}

func (e *Engine) submit(in RawInput, action Action) {
	if action == nil {
		return
	}
	e.ProcessCommand(NewCommand(in.Modality, action, in.Confidence, in.Timestamp))
}

// handleGaze tracks gaze position. Gaze updates are never commands.
func (e *Engine) handleGaze(in RawInput) {
	in.Kind = KindGaze
	e.accept(Eye, &in)
}

func (e *Engine) handleDwell(in RawInput) {
	in.Kind = KindDwellClick
	if !e.accept(Eye, &in) {
		return
	}
	e.submit(in, dwellAction(in.Payload))
}

func (e *Engine) handleGesture(in RawInput) {
	in.Kind = KindGesture
	if !e.accept(Gesture, &in) {
		return
	}
	e.submit(in, gestureAction(in.Payload))
}

func (e *Engine) handleVoice(in RawInput) {
	in.Kind = KindVoice
	if !e.accept(Voice, &in) {
		return
	}
	e.submit(in, voiceAction(in.Payload))
}

func (e *Engine) handleSwitch(in RawInput) {
	in.Kind = KindSwitch
	in.Confidence = SwitchConfidence
	if !e.accept(Switch, &in) {
		return
	}
	e.submit(in, switchAction(in.Payload))
}

func (e *Engine) handleTouch(in RawInput) {
	in.Kind = KindTouch
	in.Confidence = TouchConfidence
	if !e.accept(Touch, &in) {
		return
	}
	e.submit(in, touchAction(in.Payload))
}

func (e *Engine) handleModalityStatus(s ModalityStatus) {
	e.SetModalityActive(s.Modality, s.Active)
}

func (e *Engine) handleContextChange(c ContextChange) {
	e.HandleContextChange(c.Context)
}

// Submit routes a raw input to the handler for its modality and kind, as if
// it had been published on the matching topic.
func (e *Engine) Submit(in RawInput) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	switch in.Modality {
	case Eye:
		if in.Kind == KindGaze {
			e.handleGaze(in)
		} else {
			e.handleDwell(in)
		}
	case Gesture:
		e.handleGesture(in)
	case Voice:
		e.handleVoice(in)
	case Switch:
		e.handleSwitch(in)
	case Touch:
		e.handleTouch(in)
	default:
		return ErrUnknownModality
	}
	return nil
}

// =============================================================================
// Input → action mapping
// =============================================================================

func dwellAction(p Payload) Action {
	switch v := p.(type) {
	case DwellTarget:
		if v.Label != "" {
			return Directive{Text: v.Label}
		}
		return Click{Position: v.Position}
	case Point:
		return Click{Position: v}
	case Utterance:
		if v.Text != "" {
			return Directive{Text: v.Text}
		}
	}
	return nil
}

func gestureAction(p Payload) Action {
	g, ok := p.(GestureName)
	if !ok || g.Name == "" {
		return nil
	}

	name := strings.ToLower(g.Name)
	if dir, ok := strings.CutPrefix(name, "swipe_"); ok {
		return Swipe{Direction: dir}
	}
	switch name {
	case "tap", "pinch", "point", TypeClick:
		var pos Point
		if g.Position != nil {
			pos = *g.Position
		}
		return Click{Position: pos}
	}
	return generic(Gesture, name, nil)
}

func voiceAction(p Payload) Action {
	u, ok := p.(Utterance)
	if !ok {
		return nil
	}
	text := strings.TrimSpace(u.Text)
	if text == "" {
		return nil
	}
	return Directive{Text: text}
}

func switchAction(p Payload) Action {
	s, ok := p.(SwitchState)
	if !ok || !s.Pressed {
		return nil
	}
	return SwitchPress{SwitchID: s.ID}
}

func touchAction(p Payload) Action {
	t, ok := p.(TouchData)
	if !ok {
		return nil
	}
	name := strings.ToLower(t.Gesture)
	switch name {
	case "", "tap", TypeClick:
		return Click{Position: t.Position}
	case "swipe":
		if t.Direction == "" {
			return nil
		}
		return Swipe{Direction: t.Direction}
	}
	return generic(Touch, name, map[string]any{"x": t.Position.X, "y": t.Position.Y})
}

// generic wraps an unrecognised name. Names that collide with a built-in
// command type are prefixed with the modality so they never conflict with,
// or displace, a real command of that type.
func generic(m Modality, name string, detail map[string]any) Generic {
	switch name {
	case TypeClick, TypeSwipe, TypeCommand, TypeSwitch:
		name = string(m) + ":" + name
	}
	return Generic{Name: name, Detail: detail}
}
