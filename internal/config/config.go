// Package config loads configuration for the alejo fusion service.
//
// Precedence, lowest first: built-in defaults, the config file (YAML or
// TOML by extension), environment variables, command line flags.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-alejo/pkg/fusion"
)

// Defaults.
const (
	DefaultPort      = 8080
	DefaultLogLevel  = "info"
	DefaultLoopQueue = 1024
	DefaultDir       = ".alejo"
	DefaultFile      = "fusion.yaml"
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	Fusion  FusionConfig  `yaml:"fusion" toml:"fusion"`
	Profile ProfileConfig `yaml:"profile" toml:"profile"`
}

// ServerConfig configures the HTTP and WebSocket listener.
type ServerConfig struct {
	Port      int  `yaml:"port" toml:"port"`
	Debug     bool `yaml:"debug" toml:"debug"`
	LoopQueue int  `yaml:"loop_queue" toml:"loop_queue"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// FusionConfig mirrors fusion.Config in file-friendly form. Map keys are
// modality names.
type FusionConfig struct {
	DefaultPriorities    map[string]int     `yaml:"default_priorities" toml:"default_priorities"`
	ConfidenceThresholds map[string]float64 `yaml:"confidence_thresholds" toml:"confidence_thresholds"`
	Strategy             string             `yaml:"strategy" toml:"strategy"`
	ContextAwareness     bool               `yaml:"context_awareness" toml:"context_awareness"`
	UseContextPriorities bool               `yaml:"use_context_priorities" toml:"use_context_priorities"`
	ConflictTimeoutMs    int64              `yaml:"conflict_timeout_ms" toml:"conflict_timeout_ms"`
	BufferCapacity       int                `yaml:"buffer_capacity" toml:"buffer_capacity"`
}

// ProfileConfig is the initial user profile.
type ProfileConfig struct {
	HasLimitedMobility   bool   `yaml:"has_limited_mobility" toml:"has_limited_mobility"`
	CanUseHands          bool   `yaml:"can_use_hands" toml:"can_use_hands"`
	CanUseVoice          bool   `yaml:"can_use_voice" toml:"can_use_voice"`
	CanUseEyes           bool   `yaml:"can_use_eyes" toml:"can_use_eyes"`
	PreferredInputMethod string `yaml:"preferred_input_method,omitempty" toml:"preferred_input_method,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	fc := fusion.DefaultConfig()
	p := fusion.DefaultProfile()

	cfg := &Config{
		Server: ServerConfig{Port: DefaultPort, LoopQueue: DefaultLoopQueue},
		Log:    LogConfig{Level: DefaultLogLevel},
		Fusion: FusionConfig{
			DefaultPriorities:    make(map[string]int, len(fc.DefaultPriorities)),
			ConfidenceThresholds: make(map[string]float64, len(fc.ConfidenceThresholds)),
			Strategy:             string(fc.FusionStrategy),
			ContextAwareness:     fc.ContextAwareness,
			UseContextPriorities: fc.UseContextPriorities,
			ConflictTimeoutMs:    fc.ConflictTimeout.Milliseconds(),
			BufferCapacity:       fc.BufferCapacity,
		},
		Profile: ProfileConfig{
			HasLimitedMobility: p.HasLimitedMobility,
			CanUseHands:        p.CanUseHands,
			CanUseVoice:        p.CanUseVoice,
			CanUseEyes:         p.CanUseEyes,
		},
	}
	for m, v := range fc.DefaultPriorities {
		cfg.Fusion.DefaultPriorities[string(m)] = v
	}
	for m, v := range fc.ConfidenceThresholds {
		cfg.Fusion.ConfidenceThresholds[string(m)] = v
	}
	return cfg
}

// DefaultPath returns ~/.alejo/fusion.yaml, or a relative path when the
// home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DefaultDir, DefaultFile)
	}
	return filepath.Join(home, DefaultDir, DefaultFile)
}

// Load reads the config file at path over the defaults. A missing file is
// not an error. The result is not validated and has no env overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch filepath.Ext(path) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	}
	return nil
}

// Engine converts the fusion section to an engine configuration.
func (c *Config) Engine() (fusion.Config, error) {
	out := fusion.DefaultConfig()

	priorities, err := modalityMap(c.Fusion.DefaultPriorities)
	if err != nil {
		return fusion.Config{}, fmt.Errorf("default_priorities: %w", err)
	}
	for m, v := range priorities {
		out.DefaultPriorities[m] = v
	}

	thresholds, err := modalityMap(c.Fusion.ConfidenceThresholds)
	if err != nil {
		return fusion.Config{}, fmt.Errorf("confidence_thresholds: %w", err)
	}
	for m, v := range thresholds {
		out.ConfidenceThresholds[m] = v
	}

	out.FusionStrategy = fusion.Strategy(c.Fusion.Strategy)
	out.ContextAwareness = c.Fusion.ContextAwareness
	out.UseContextPriorities = c.Fusion.UseContextPriorities
	out.ConflictTimeout = msDuration(c.Fusion.ConflictTimeoutMs)
	out.BufferCapacity = c.Fusion.BufferCapacity
	return out, nil
}

// UserProfile converts the profile section.
func (c *Config) UserProfile() (fusion.UserProfile, error) {
	p := fusion.UserProfile{
		HasLimitedMobility: c.Profile.HasLimitedMobility,
		CanUseHands:        c.Profile.CanUseHands,
		CanUseVoice:        c.Profile.CanUseVoice,
		CanUseEyes:         c.Profile.CanUseEyes,
	}
	if c.Profile.PreferredInputMethod != "" {
		m, err := fusion.ParseModality(c.Profile.PreferredInputMethod)
		if err != nil {
			return fusion.UserProfile{}, fmt.Errorf("preferred_input_method: %w", err)
		}
		p.PreferredInputMethod = m
	}
	return p, nil
}

// Patch builds a settings update that brings a running engine in line
// with this configuration.
func (c *Config) Patch() (fusion.SettingsPatch, error) {
	ec, err := c.Engine()
	if err != nil {
		return fusion.SettingsPatch{}, err
	}
	p, err := c.UserProfile()
	if err != nil {
		return fusion.SettingsPatch{}, err
	}

	timeout := ec.ConflictTimeout.Milliseconds()
	preferred := p.PreferredInputMethod
	return fusion.SettingsPatch{
		Config: &fusion.ConfigPatch{
			DefaultPriorities:    ec.DefaultPriorities,
			ConfidenceThresholds: ec.ConfidenceThresholds,
			FusionStrategy:       &ec.FusionStrategy,
			ContextAwareness:     &ec.ContextAwareness,
			ConflictTimeoutMs:    &timeout,
			BufferCapacity:       &ec.BufferCapacity,
			UseContextPriorities: &ec.UseContextPriorities,
		},
		Profile: &fusion.ProfilePatch{
			HasLimitedMobility:   &p.HasLimitedMobility,
			CanUseHands:          &p.CanUseHands,
			CanUseVoice:          &p.CanUseVoice,
			CanUseEyes:           &p.CanUseEyes,
			PreferredInputMethod: &preferred,
		},
	}, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func modalityMap[V any](in map[string]V) (map[fusion.Modality]V, error) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[fusion.Modality]V, len(in))
	for _, k := range keys {
		m, err := fusion.ParseModality(k)
		if err != nil {
			return nil, err
		}
		out[m] = in[k]
	}
	return out, nil
}
