package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-alejo/pkg/protocol"
)

// Step is one scripted adapter message.
type Step struct {
	AfterMs int64          `yaml:"after_ms"`
	Type    string         `yaml:"type"`
	Data    map[string]any `yaml:"data"`
}

// Scenario is an ordered script of adapter messages.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// builtin scenarios, selectable by name
var builtin = map[string]Scenario{
	"conflict": {
		Name: "two clicks and two directives collide across modalities",
		Steps: []Step{
			{Type: "modality_status", Data: map[string]any{"modality": "eye", "active": true}},
			{Type: "modality_status", Data: map[string]any{"modality": "gesture", "active": true}},
			{Type: "modality_status", Data: map[string]any{"modality": "voice", "active": true}},
			{Type: "modality_status", Data: map[string]any{"modality": "touch", "active": true}},
			// touch outranks gesture, so the second click wins
			{AfterMs: 200, Type: "gesture", Data: map[string]any{"name": "tap", "x": 100, "y": 100, "confidence": 0.9}},
			{AfterMs: 200, Type: "touch", Data: map[string]any{"x": 100, "y": 100, "gesture": "tap"}},
			// eye outranks voice, so the dwell stands and the utterance is dropped
			{AfterMs: 1500, Type: "dwell", Data: map[string]any{"x": 100, "y": 40, "label": "next page", "confidence": 0.9}},
			{AfterMs: 300, Type: "voice", Data: map[string]any{"text": "next page", "confidence": 0.95}},
		},
	},
	"tour": {
		Name: "one command from every modality",
		Steps: []Step{
			{Type: "modality_status", Data: map[string]any{"modality": "eye", "active": true}},
			{Type: "modality_status", Data: map[string]any{"modality": "gesture", "active": true}},
			{Type: "modality_status", Data: map[string]any{"modality": "voice", "active": true}},
			{Type: "modality_status", Data: map[string]any{"modality": "switch", "active": true}},
			{Type: "modality_status", Data: map[string]any{"modality": "touch", "active": true}},
			{AfterMs: 100, Type: "gaze", Data: map[string]any{"x": 320, "y": 240, "confidence": 0.9}},
			{AfterMs: 100, Type: "dwell", Data: map[string]any{"x": 320, "y": 240, "confidence": 0.9}},
			{AfterMs: 1200, Type: "gesture", Data: map[string]any{"name": "swipe_up", "confidence": 0.85}},
			{AfterMs: 1200, Type: "voice", Data: map[string]any{"text": "open settings", "confidence": 0.9}},
			{AfterMs: 1200, Type: "switch", Data: map[string]any{"id": "primary", "pressed": true}},
			{AfterMs: 1200, Type: "touch", Data: map[string]any{"x": 10, "y": 10, "gesture": "wave"}},
		},
	},
	"meeting": {
		Name: "context switch to a meeting, then a quiet voice command",
		Steps: []Step{
			{Type: "modality_status", Data: map[string]any{"modality": "voice", "active": true}},
			{Type: "context", Data: map[string]any{"context": "meeting"}},
			{AfterMs: 200, Type: "voice", Data: map[string]any{"text": "mute", "confidence": 0.7}},
			{AfterMs: 200, Type: "voice", Data: map[string]any{"text": "mute", "confidence": 0.85}},
		},
	},
}

// loadScenario returns a builtin by name, or reads a YAML file.
func loadScenario(nameOrPath string) (Scenario, error) {
	if s, ok := builtin[nameOrPath]; ok {
		return s, nil
	}

	data, err := os.ReadFile(nameOrPath)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %q is not builtin and cannot be read: %w", nameOrPath, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}
	if len(s.Steps) == 0 {
		return Scenario{}, fmt.Errorf("scenario %q has no steps", nameOrPath)
	}
	return s, nil
}

// message encodes the step for the adapter endpoint.
func (s Step) message() (*protocol.Message, error) {
	if s.Type == "" {
		return nil, protocol.ErrMissingType
	}
	var data any
	if len(s.Data) > 0 {
		data = s.Data
	}
	return protocol.NewMessage(protocol.MessageType(s.Type), data)
}

func (s Step) delay() time.Duration {
	return time.Duration(s.AfterMs) * time.Millisecond
}
