package web

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-alejo/pkg/fusion"
	"github.com/teslashibe/go-alejo/pkg/ingress"
	"github.com/teslashibe/go-alejo/pkg/protocol"
)

// handleHealth reports liveness
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "ok",
		"version":     s.opts.Version,
		"loop":        s.loop.IsRunning(),
		"adapters":    s.adapters.AdapterCount(),
		"subscribers": s.stream.ClientCount(),
		"uptime_s":    int64(time.Since(s.started).Seconds()),
	})
}

// handleMetrics exposes counters in Prometheus text format
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	var state fusion.State
	if err := s.do(c, func() { state = s.engine.Snapshot() }); err != nil {
		return unavailable(c, err)
	}
	es := state.Stats
	as := s.adapters.GetStats()
	hs := s.stream.GetStats()
	ls := s.loop.GetStats()

	var b strings.Builder
	metric := func(name, kind, help string, v any) {
		fmt.Fprintf(&b, "# HELP alejo_%s %s\n# TYPE alejo_%s %s\nalejo_%s %v\n\n", name, help, name, kind, name, v)
	}
	metric("inputs_total", "counter", "Raw inputs accepted from active modalities", es.Inputs)
	metric("inputs_dropped_inactive_total", "counter", "Raw inputs dropped because their modality was inactive", es.DroppedInactive)
	metric("commands_total", "counter", "Commands derived from inputs", es.Commands)
	metric("commands_below_threshold_total", "counter", "Commands dropped below the confidence threshold", es.BelowThreshold)
	metric("commands_executed_total", "counter", "Commands dispatched", es.Executed)
	metric("conflicts_total", "counter", "Conflicts detected", es.Conflicts)
	metric("conflicts_won_total", "counter", "Conflicts won by the incoming command", es.ConflictsWon)
	metric("active_modalities", "gauge", "Modalities currently active", len(state.Active))
	metric("adapters", "gauge", "Connected input adapters", as.AdapterCount)
	metric("adapter_messages_received_total", "counter", "Messages received from adapters", as.MessagesReceived)
	metric("adapter_messages_rejected_total", "counter", "Adapter messages rejected", as.Rejected)
	metric("subscribers", "gauge", "Connected event stream subscribers", hs.Clients)
	metric("events_forwarded_total", "counter", "Engine events forwarded to the stream", s.forwarded.Load())
	metric("events_dropped_total", "counter", "Stream messages dropped for slow subscribers", hs.Dropped)
	metric("loop_queued", "gauge", "Work items waiting on the engine loop", ls.Queued)
	metric("loop_dropped_total", "counter", "Work items dropped because the loop queue was full", ls.Dropped)

	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4")
	return c.SendString(b.String())
}

// handleStatus returns the engine state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	var state fusion.State
	if err := s.do(c, func() { state = s.engine.Snapshot() }); err != nil {
		return unavailable(c, err)
	}
	return c.JSON(state)
}

// ModalityRequest is the body for PUT /api/modalities/:modality
type ModalityRequest struct {
	Active bool `json:"active"`
}

// handleSetModality activates or deactivates a modality
func (s *Server) handleSetModality(c *fiber.Ctx) error {
	m, err := fusion.ParseModality(c.Params("modality"))
	if err != nil {
		return badRequest(c, err)
	}

	var req ModalityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	var active []fusion.Modality
	if err := s.do(c, func() {
		s.engine.SetModalityActive(m, req.Active)
		active = s.engine.Snapshot().Active
	}); err != nil {
		return unavailable(c, err)
	}

	return c.JSON(fiber.Map{
		"modality":   m,
		"active":     req.Active,
		"modalities": active,
	})
}

// handleContext changes the situational context
func (s *Server) handleContext(c *fiber.Ctx) error {
	var req fusion.ContextChange
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if req.Context == "" {
		return badRequest(c, errors.New("context is required"))
	}

	var state fusion.State
	if err := s.do(c, func() {
		s.engine.HandleContextChange(req.Context)
		state = s.engine.Snapshot()
	}); err != nil {
		return unavailable(c, err)
	}

	return c.JSON(fiber.Map{
		"context":            state.Context,
		"known":              fusion.KnownContext(req.Context),
		"priorities":         state.Priorities,
		"context_priorities": state.ContextPriorities,
	})
}

// handleProfile replaces the user profile
func (s *Server) handleProfile(c *fiber.Ctx) error {
	var p fusion.UserProfile
	if err := c.BodyParser(&p); err != nil {
		return badRequest(c, err)
	}
	if p.PreferredInputMethod != "" && !p.PreferredInputMethod.Valid() {
		return badRequest(c, fmt.Errorf("%w: %q", fusion.ErrUnknownModality, p.PreferredInputMethod))
	}

	var state fusion.State
	if err := s.do(c, func() {
		s.engine.UpdateProfile(p)
		state = s.engine.Snapshot()
	}); err != nil {
		return unavailable(c, err)
	}

	return c.JSON(fiber.Map{
		"profile":    state.Profile,
		"priorities": state.Priorities,
	})
}

// handleSettings applies a partial settings update. Invalid configuration
// is rejected here rather than silently ignored by the engine.
func (s *Server) handleSettings(c *fiber.Ctx) error {
	var patch fusion.SettingsPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, err)
	}

	var (
		invalid error
		state   fusion.State
	)
	if err := s.do(c, func() {
		if patch.Config != nil {
			if invalid = patch.Config.Apply(s.engine.Config()).Validate(); invalid != nil {
				return
			}
		}
		s.engine.ApplySettings(patch)
		state = s.engine.Snapshot()
	}); err != nil {
		return unavailable(c, err)
	}
	if invalid != nil {
		return badRequest(c, invalid)
	}

	return c.JSON(state)
}

// handleInput accepts one adapter message over HTTP
func (s *Server) handleInput(c *fiber.Ctx) error {
	msg, err := protocol.ParseMessage(c.Body())
	if err != nil {
		return badRequest(c, err)
	}

	if err := s.adapters.Forward(msg); err != nil {
		if errors.Is(err, ingress.ErrBusy) {
			return unavailable(c, err)
		}
		return badRequest(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued", "type": msg.Type})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

func unavailable(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
}
