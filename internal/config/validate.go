package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// Validate checks the whole configuration, including the fusion and
// profile sections.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalid, c.Server.Port)
	}
	if c.Server.LoopQueue < 1 {
		return fmt.Errorf("%w: server.loop_queue must be positive", ErrInvalid)
	}
	if !logLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}

	ec, err := c.Engine()
	if err != nil {
		return fmt.Errorf("%w: fusion.%v", ErrInvalid, err)
	}
	if err := ec.Validate(); err != nil {
		return fmt.Errorf("%w: fusion: %v", ErrInvalid, err)
	}
	if _, err := c.UserProfile(); err != nil {
		return fmt.Errorf("%w: profile.%v", ErrInvalid, err)
	}
	return nil
}
