package fusion

import (
	"github.com/teslashibe/go-alejo/pkg/events"
)

// Dispatcher publishes executed commands to the bus.
type Dispatcher struct {
	bus *events.Bus
	now func() int64
}

// NewDispatcher creates a dispatcher that stamps events with now().
func NewDispatcher(bus *events.Bus, now func() int64) *Dispatcher {
	return &Dispatcher{bus: bus, now: now}
}

// Execute announces cmd: first the generic executed event, then exactly one
// type-specific event.
func (d *Dispatcher) Execute(cmd Command) {
	executed := CommandExecuted{
		Command:    cmd,
		Processed:  true,
		ExecutedAt: d.now(),
	}
	events.Publish(d.bus, TopicCommandExecuted, executed)

	switch a := cmd.Action.(type) {
	case Click:
		events.Publish(d.bus, TopicClick, ClickEvent{Position: a.Position, Source: cmd.Modality})
	case Swipe:
		events.Publish(d.bus, TopicSwipe, SwipeEvent{Direction: a.Direction, Source: cmd.Modality})
	case Directive:
		events.Publish(d.bus, TopicDirective, DirectiveEvent{Text: a.Text, Source: cmd.Modality})
	default:
		events.Publish(d.bus, ModalityExecutedTopic(cmd.Modality), executed)
	}
}
