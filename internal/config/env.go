package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables.
const (
	EnvPort             = "ALEJO_PORT"
	EnvPortFallback     = "PORT"
	EnvLogLevel         = "ALEJO_LOG_LEVEL"
	EnvConflictTimeout  = "ALEJO_CONFLICT_TIMEOUT"
	EnvContextAwareness = "ALEJO_CONTEXT_AWARENESS"
	EnvConfigPath       = "ALEJO_CONFIG"
)

// Path returns the config file path from ALEJO_CONFIG, or DefaultPath.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath()
}

// ApplyEnv overrides c from the environment. ALEJO_PORT wins over PORT.
// ALEJO_CONFLICT_TIMEOUT takes milliseconds or a Go duration ("750ms").
func (c *Config) ApplyEnv() error {
	for _, key := range []string{EnvPortFallback, EnvPort} {
		if v := os.Getenv(key); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			c.Server.Port = port
		}
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}

	if v := os.Getenv(EnvConflictTimeout); v != "" {
		ms, err := parseMillis(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConflictTimeout, err)
		}
		c.Fusion.ConflictTimeoutMs = ms
	}

	if v := os.Getenv(EnvContextAwareness); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvContextAwareness, err)
		}
		c.Fusion.ContextAwareness = on
	}

	return nil
}

func parseMillis(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return d.Milliseconds(), nil
}

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
