package fusion

import (
	"fmt"
	"time"
)

// Strategy selects the conflict tie-break policy.
type Strategy string

const (
	// StrategyPriority compares priority, then confidence, then keeps the
	// command that arrived first.
	StrategyPriority Strategy = "priority"

	// StrategyConfidence compares confidence, then priority, then keeps the
	// command that arrived first.
	StrategyConfidence Strategy = "confidence"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyPriority || s == StrategyConfidence
}

// DefaultConflictTimeout is how far back conflict detection looks.
const DefaultConflictTimeout = 1000 * time.Millisecond

// Config holds the tunable parameters of the fusion engine.
type Config struct {
	// DefaultPriorities seed the priority model before profile adjustments
	DefaultPriorities Priorities

	// ConfidenceThresholds gate commands per modality
	ConfidenceThresholds Thresholds

	// FusionStrategy selects the conflict tie-break policy
	FusionStrategy Strategy

	// ContextAwareness enables situational context priorities
	ContextAwareness bool

	// ConflictTimeout is the window in which same-type commands conflict
	ConflictTimeout time.Duration

	// BufferCapacity bounds every per-modality buffer
	BufferCapacity int

	// UseContextPriorities makes conflict resolution read the context
	// priorities instead of the profile priorities while a context is set
	UseContextPriorities bool
}

// DefaultPriorities returns the stock modality priorities.
func DefaultPriorities() Priorities {
	return Priorities{
		Eye:     3,
		Gesture: 4,
		Voice:   2,
		Switch:  1,
		Touch:   5,
	}
}

// DefaultThresholds returns the stock confidence thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Eye:     0.6,
		Gesture: 0.7,
		Voice:   0.8,
		Switch:  0.9,
		Touch:   0.5,
	}
}

// DefaultConfig returns the recommended engine configuration.
func DefaultConfig() Config {
	return Config{
		DefaultPriorities:    DefaultPriorities(),
		ConfidenceThresholds: DefaultThresholds(),
		FusionStrategy:       StrategyPriority,
		ContextAwareness:     true,
		ConflictTimeout:      DefaultConflictTimeout,
		BufferCapacity:       DefaultBufferCapacity,
	}
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	out.DefaultPriorities = c.DefaultPriorities.Clone()
	out.ConfidenceThresholds = c.ConfidenceThresholds.Clone()
	return out
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	for m, v := range c.ConfidenceThresholds {
		if !m.Valid() {
			return fmt.Errorf("%w: threshold for %q", ErrUnknownModality, m)
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: threshold for %s is %v, want [0,1]", ErrInvalidConfig, m, v)
		}
	}
	for m := range c.DefaultPriorities {
		if !m.Valid() {
			return fmt.Errorf("%w: priority for %q", ErrUnknownModality, m)
		}
	}
	if !c.FusionStrategy.Valid() {
		return fmt.Errorf("%w: unknown fusion strategy %q", ErrInvalidConfig, c.FusionStrategy)
	}
	if c.ConflictTimeout <= 0 {
		return fmt.Errorf("%w: conflict timeout must be positive", ErrInvalidConfig)
	}
	if c.BufferCapacity <= 0 {
		return fmt.Errorf("%w: buffer capacity must be positive", ErrInvalidConfig)
	}
	return nil
}

// ConfigPatch is a partial Config. Nil fields are left unchanged; map
// fields replace individual entries.
type ConfigPatch struct {
	DefaultPriorities    Priorities `json:"default_priorities,omitempty" yaml:"default_priorities,omitempty"`
	ConfidenceThresholds Thresholds `json:"confidence_thresholds,omitempty" yaml:"confidence_thresholds,omitempty"`
	FusionStrategy       *Strategy  `json:"fusion_strategy,omitempty" yaml:"fusion_strategy,omitempty"`
	ContextAwareness     *bool      `json:"context_awareness,omitempty" yaml:"context_awareness,omitempty"`
	ConflictTimeoutMs    *int64     `json:"conflict_timeout_ms,omitempty" yaml:"conflict_timeout_ms,omitempty"`
	BufferCapacity       *int       `json:"buffer_capacity,omitempty" yaml:"buffer_capacity,omitempty"`
	UseContextPriorities *bool      `json:"use_context_priorities,omitempty" yaml:"use_context_priorities,omitempty"`
}

// Apply returns c with the patch merged in. Entries for unknown modalities
// are skipped.
func (p ConfigPatch) Apply(c Config) Config {
	out := c.Clone()
	for m, v := range p.DefaultPriorities {
		if m.Valid() {
			out.DefaultPriorities[m] = v
		}
	}
	for m, v := range p.ConfidenceThresholds {
		if m.Valid() {
			out.ConfidenceThresholds[m] = v
		}
	}
	if p.FusionStrategy != nil {
		out.FusionStrategy = *p.FusionStrategy
	}
	if p.ContextAwareness != nil {
		out.ContextAwareness = *p.ContextAwareness
	}
	if p.ConflictTimeoutMs != nil {
		out.ConflictTimeout = time.Duration(*p.ConflictTimeoutMs) * time.Millisecond
	}
	if p.BufferCapacity != nil {
		out.BufferCapacity = *p.BufferCapacity
	}
	if p.UseContextPriorities != nil {
		out.UseContextPriorities = *p.UseContextPriorities
	}
	return out
}
