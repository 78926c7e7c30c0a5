package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-alejo/internal/config"
	"github.com/teslashibe/go-alejo/internal/log"
	"github.com/teslashibe/go-alejo/pkg/fusion"
)

func TestConfigCommandPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fusion.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7000\nlog:\n  level: warn\nfusion:\n  conflict_timeout_ms: 400\n"), 0o644))

	t.Setenv(config.EnvPort, "7100")
	t.Setenv(config.EnvConflictTimeout, "600")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "--config", path, "--port", "7200"})
	require.NoError(t, rootCmd.Execute())

	var got config.Config
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))

	assert.Equal(t, 7200, got.Server.Port, "flag wins over env and file")
	assert.Equal(t, int64(600), got.Fusion.ConflictTimeoutMs, "env wins over file")
	assert.Equal(t, "warn", got.Log.Level, "file wins over defaults")
}

func TestReloadKeepsLogLevelFlag(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "")
	require.NoError(t, cmd.Flags().Set("log-level", "error"))
	log.Init("error")
	t.Cleanup(func() { log.SetLevel(config.DefaultLogLevel) })

	var posted []fusion.SettingsPatch
	reload := onReload(cmd, func(p fusion.SettingsPatch) { posted = append(posted, p) })

	c := config.Default()
	c.Log.Level = "debug"
	reload(c)

	assert.Equal(t, slog.LevelError, log.Level(), "flag wins over the reloaded file")
	assert.Len(t, posted, 1)
}

func TestReloadAppliesFileLogLevel(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "")
	log.Init("info")
	t.Cleanup(func() { log.SetLevel(config.DefaultLogLevel) })

	c := config.Default()
	c.Log.Level = "warn"
	onReload(cmd, func(fusion.SettingsPatch) {})(c)

	assert.Equal(t, slog.LevelWarn, log.Level())
}

func TestConfigCommandRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fusion.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fusion:\n  strategy: loudest\n"), 0o644))

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"config", "--config", path})
	assert.ErrorIs(t, rootCmd.Execute(), config.ErrInvalid)
}
