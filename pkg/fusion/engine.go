// Package fusion arbitrates between accessibility input modalities.
//
// Eye tracking, gesture, voice, switch and touch adapters publish raw
// inputs on the event bus. The Engine buffers them per modality, turns
// qualifying inputs into commands, drops commands below the modality's
// confidence threshold, and looks for a command of the same type from a
// different modality inside the conflict window. Conflicts are settled by
// modality priority, then confidence, then arrival order. Winning commands
// are published back on the bus for the UI and avatar layers.
//
// Priorities follow the user's capability profile (hands, mobility,
// preferred method) and, separately, the situational context.
//
// # Threading
//
// An Engine is not safe for concurrent use. Run every call, and every
// publish on its bus, from a single events.Loop.
package fusion

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-alejo/internal/log"
	"github.com/teslashibe/go-alejo/pkg/events"
)

// Outcome reports what ProcessCommand did with a command.
type Outcome string

const (
	OutcomeExecuted       Outcome = "executed"
	OutcomeBelowThreshold Outcome = "below_threshold"
	OutcomeConflictWon    Outcome = "conflict_won"
	OutcomeConflictLost   Outcome = "conflict_lost"
)

// Stats contains engine counters.
type Stats struct {
	Inputs          uint64 `json:"inputs"`
	DroppedInactive uint64 `json:"dropped_inactive"`
	Commands        uint64 `json:"commands"`
	BelowThreshold  uint64 `json:"below_threshold"`
	Executed        uint64 `json:"executed"`
	Conflicts       uint64 `json:"conflicts"`
	ConflictsWon    uint64 `json:"conflicts_won"`
}

// State is a point-in-time copy of the engine's state.
type State struct {
	Initialized       bool        `json:"initialized"`
	Active            []Modality  `json:"active"`
	Profile           UserProfile `json:"profile"`
	Priorities        Priorities  `json:"priorities"`
	Context           string      `json:"context,omitempty"`
	ContextPriorities Priorities  `json:"context_priorities,omitempty"`
	Strategy          Strategy    `json:"strategy"`
	ConflictTimeoutMs int64       `json:"conflict_timeout_ms"`
	Thresholds        Thresholds  `json:"thresholds"`
	Stats             Stats       `json:"stats"`
	LastDecision      *Decision   `json:"last_decision,omitempty"`
}

// Engine owns all fusion state.
type Engine struct {
	bus    *events.Bus
	now    func() int64
	logger *slog.Logger

	config            Config
	profile           UserProfile
	context           string
	contextPriorities Priorities

	registry   *Registry
	buffer     *InputBuffer
	history    *commandHistory
	dispatcher *Dispatcher

	initialized  bool
	unsubscribe  []func()
	stats        Stats
	lastDecision *Decision
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the millisecond clock. Tests use it to control the
// conflict window.
func WithClock(now func() int64) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithProfile sets the initial user profile.
func WithProfile(p UserProfile) Option {
	return func(e *Engine) {
		e.profile = p
	}
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine publishing on bus. Call Init to start consuming
// inputs.
func New(bus *events.Bus, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		bus:     bus,
		now:     func() int64 { return time.Now().UnixMilli() },
		config:  cfg.Clone(),
		profile: DefaultProfile(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.With("component", "fusion")
	}

	e.registry = NewRegistry()
	e.buffer = NewInputBuffer(e.config.BufferCapacity)
	e.history = newCommandHistory(e.config.BufferCapacity)
	e.dispatcher = NewDispatcher(bus, e.now)
	e.profile.Priorities = ComputePriorities(e.profile, e.config.DefaultPriorities)

	return e
}

// Init subscribes the engine to its inbound topics. On failure the engine
// stays uninitialized and every input is ignored.
func (e *Engine) Init() error {
	if e.initialized {
		return nil
	}

	subs := []func() (func(), error){
		func() (func(), error) { return events.Subscribe(e.bus, TopicGaze, e.handleGaze) },
		func() (func(), error) { return events.Subscribe(e.bus, TopicDwell, e.handleDwell) },
		func() (func(), error) { return events.Subscribe(e.bus, TopicGesture, e.handleGesture) },
		func() (func(), error) { return events.Subscribe(e.bus, TopicVoice, e.handleVoice) },
		func() (func(), error) { return events.Subscribe(e.bus, TopicSwitch, e.handleSwitch) },
		func() (func(), error) { return events.Subscribe(e.bus, TopicTouch, e.handleTouch) },
		func() (func(), error) { return events.Subscribe(e.bus, TopicModalityStatus, e.handleModalityStatus) },
		func() (func(), error) { return events.Subscribe(e.bus, TopicProfileUpdate, e.UpdateProfile) },
		func() (func(), error) { return events.Subscribe(e.bus, TopicContextChange, e.handleContextChange) },
		func() (func(), error) { return events.Subscribe(e.bus, TopicSettingsUpdate, e.ApplySettings) },
	}

	for _, sub := range subs {
		unsub, err := sub()
		if err != nil {
			e.unsubscribeAll()
			e.logger.Error("failed to initialize fusion engine", "error", err)
			return fmt.Errorf("subscribe inputs: %w", err)
		}
		e.unsubscribe = append(e.unsubscribe, unsub)
	}

	e.initialized = true
	e.logger.Info("fusion engine initialized",
		"strategy", e.config.FusionStrategy,
		"conflict_timeout", e.config.ConflictTimeout,
	)
	events.Publish(e.bus, TopicInitialized, Initialized{Active: e.registry.Active()})
	return nil
}

// Close unsubscribes from all inputs. The engine can be initialized again.
func (e *Engine) Close() {
	e.unsubscribeAll()
	e.initialized = false
}

func (e *Engine) unsubscribeAll() {
	for _, unsub := range e.unsubscribe {
		unsub()
	}
	e.unsubscribe = nil
}

// Initialized reports whether Init succeeded.
func (e *Engine) Initialized() bool {
	return e.initialized
}

// =============================================================================
// Modality registry
// =============================================================================

// SetModalityActive marks a modality as available or unavailable.
func (e *Engine) SetModalityActive(m Modality, active bool) {
	if !e.registry.SetActive(m, active) {
		e.logger.Debug("ignoring status for unknown modality", "modality", m)
		return
	}
	e.logger.Debug("modality status changed", "modality", m, "active", active)
}

// IsActive reports whether a modality is active.
func (e *Engine) IsActive(m Modality) bool {
	return e.registry.IsActive(m)
}

// =============================================================================
// Input buffer
// =============================================================================

// AddToBuffer stores a raw input in its modality's history.
func (e *Engine) AddToBuffer(m Modality, input RawInput) {
	e.buffer.Add(m, input)
}

// Buffer returns a copy of a modality's buffered inputs, oldest first.
func (e *Engine) Buffer(m Modality) []RawInput {
	return e.buffer.Snapshot(m)
}

// =============================================================================
// Command processing
// =============================================================================

// ProcessCommand gates cmd on its modality's confidence threshold, then
// executes it or settles a conflict with a recent command of the same type.
func (e *Engine) ProcessCommand(cmd Command) Outcome {
	e.stats.Commands++

	threshold := e.config.ConfidenceThresholds[cmd.Modality]
	if cmd.Confidence < threshold {
		e.stats.BelowThreshold++
		e.logger.Debug("command below confidence threshold",
			"modality", cmd.Modality,
			"type", cmd.Type(),
			"confidence", cmd.Confidence,
			"threshold", threshold,
		)
		return OutcomeBelowThreshold
	}

	existing, ok := e.CheckForConflicts(cmd)
	if !ok {
		e.ExecuteCommand(cmd)
		return OutcomeExecuted
	}

	if d := e.ResolveConflict(cmd, existing); d.NewWins {
		return OutcomeConflictWon
	}
	return OutcomeConflictLost
}

// CheckForConflicts returns the first recent command from another modality
// that conflicts with cmd. Modalities are scanned in registration order and
// each modality's history oldest first, so the first match wins even when a
// later one is newer or more confident.
func (e *Engine) CheckForConflicts(cmd Command) (Command, bool) {
	windowStart := cmd.Timestamp - e.config.ConflictTimeout.Milliseconds()

	for _, m := range AllModalities {
		if m == cmd.Modality {
			continue
		}
		for _, candidate := range e.history.since(m, windowStart) {
			if CommandsConflict(cmd, candidate) {
				return candidate, true
			}
		}
	}
	return Command{}, false
}

// ResolveConflict settles a conflict between an incoming command and an
// existing one. The existing command was already dispatched when it was
// processed, so only an incoming winner is executed here.
func (e *Engine) ResolveConflict(incoming, existing Command) Decision {
	d := Resolve(incoming, existing, e.resolutionPriorities(), e.config.FusionStrategy)

	e.stats.Conflicts++
	e.lastDecision = &d

	e.logger.Debug("conflict resolved",
		"type", incoming.Type(),
		"winner", d.Winner.Modality,
		"loser", d.Loser.Modality,
		"reason", d.Reason,
	)
	events.Publish(e.bus, TopicConflictResolved, d)

	if d.NewWins {
		e.stats.ConflictsWon++
		e.ExecuteCommand(incoming)
	}
	return d
}

// resolutionPriorities returns the priorities conflict resolution reads.
// Context priorities are used only when explicitly enabled.
func (e *Engine) resolutionPriorities() Priorities {
	if e.config.UseContextPriorities && e.contextPriorities != nil {
		return e.contextPriorities
	}
	return e.profile.Priorities
}

// ExecuteCommand dispatches cmd and records it for conflict detection.
func (e *Engine) ExecuteCommand(cmd Command) {
	e.stats.Executed++
	e.history.record(cmd)
	e.dispatcher.Execute(cmd)
}

// =============================================================================
// Priorities, profile, context and settings
// =============================================================================

// UpdatePriorities recomputes the profile priorities from the configured
// defaults, and the context priorities if a context is set.
func (e *Engine) UpdatePriorities() {
	e.profile.Priorities = ComputePriorities(e.profile, e.config.DefaultPriorities)
	if e.context != "" && e.config.ContextAwareness {
		e.contextPriorities = ContextPriorities(e.profile.Priorities, e.context)
	}
	e.publishPriorities()
}

// UpdateProfile replaces the user profile and recomputes priorities. Any
// priorities carried by p are ignored.
func (e *Engine) UpdateProfile(p UserProfile) {
	if p.PreferredInputMethod != "" && !p.PreferredInputMethod.Valid() {
		e.logger.Debug("ignoring unknown preferred input method", "modality", p.PreferredInputMethod)
		p.PreferredInputMethod = ""
	}
	p.Priorities = nil
	e.profile = p
	e.UpdatePriorities()
}

// HandleContextChange derives context priorities for a situational context
// such as "driving" or "meeting". It does nothing when context awareness is
// disabled.
func (e *Engine) HandleContextChange(context string) {
	if !e.config.ContextAwareness {
		e.logger.Debug("context awareness disabled, ignoring context", "context", context)
		return
	}
	if context == "" {
		return
	}
	if !KnownContext(context) {
		e.logger.Debug("unknown context, priorities unchanged", "context", context)
	}

	e.context = context
	e.contextPriorities = ContextPriorities(e.profile.Priorities, context)
	e.publishPriorities()
}

// ApplySettings merges a settings patch into the live config and profile.
// An invalid config patch is skipped; the profile part still applies.
func (e *Engine) ApplySettings(patch SettingsPatch) {
	if patch.Config == nil && patch.Profile == nil {
		return
	}

	if patch.Config != nil {
		cfg := patch.Config.Apply(e.config)
		if err := cfg.Validate(); err != nil {
			e.logger.Warn("ignoring invalid settings update", "error", err)
		} else {
			e.config = cfg
			e.buffer.Resize(cfg.BufferCapacity)
			e.history.resize(cfg.BufferCapacity)
			if !cfg.ContextAwareness {
				e.context = ""
				e.contextPriorities = nil
			}
		}
	}

	if patch.Profile != nil {
		e.profile = patch.Profile.Apply(e.profile)
	}

	e.UpdatePriorities()
}

func (e *Engine) publishPriorities() {
	events.Publish(e.bus, TopicPrioritiesUpdated, PrioritiesUpdated{
		Priorities:        e.profile.Priorities.Clone(),
		Context:           e.context,
		ContextPriorities: e.contextPriorities.Clone(),
	})
}

// Priorities returns a copy of the profile priorities.
func (e *Engine) Priorities() Priorities {
	return e.profile.Priorities.Clone()
}

// ContextPriorities returns a copy of the context priorities, or nil when
// no context is set.
func (e *Engine) ContextPriorities() Priorities {
	if e.contextPriorities == nil {
		return nil
	}
	return e.contextPriorities.Clone()
}

// Config returns a copy of the live configuration.
func (e *Engine) Config() Config {
	return e.config.Clone()
}

// Profile returns a copy of the user profile.
func (e *Engine) Profile() UserProfile {
	p := e.profile
	p.Priorities = e.profile.Priorities.Clone()
	return p
}

// Snapshot returns a copy of the engine's state.
func (e *Engine) Snapshot() State {
	s := State{
		Initialized:       e.initialized,
		Active:            e.registry.Active(),
		Profile:           e.Profile(),
		Priorities:        e.Priorities(),
		Context:           e.context,
		ContextPriorities: e.ContextPriorities(),
		Strategy:          e.config.FusionStrategy,
		ConflictTimeoutMs: e.config.ConflictTimeout.Milliseconds(),
		Thresholds:        e.config.ConfidenceThresholds.Clone(),
		Stats:             e.stats,
	}
	if e.lastDecision != nil {
		d := *e.lastDecision
		s.LastDecision = &d
	}
	return s
}
