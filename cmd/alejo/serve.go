package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-alejo/internal/config"
	"github.com/teslashibe/go-alejo/internal/log"
	"github.com/teslashibe/go-alejo/pkg/events"
	"github.com/teslashibe/go-alejo/pkg/fusion"
	"github.com/teslashibe/go-alejo/pkg/web"
)

var watchConfig bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fusion service",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&watchConfig, "watch", true, "reload the config file when it changes")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log.Init(cfg.Log.Level)

	fmt.Println()
	fmt.Println("🧭 Alejo v" + version)
	fmt.Println("   Multimodal input fusion")
	fmt.Println()

	ec, err := cfg.Engine()
	if err != nil {
		return err
	}
	profile, err := cfg.UserProfile()
	if err != nil {
		return err
	}

	bus := events.NewBus()
	defer bus.Close()
	loop := events.NewLoop("engine", cfg.Server.LoopQueue)

	engine := fusion.New(bus, ec, fusion.WithProfile(profile))
	if err := engine.Init(); err != nil {
		return err
	}

	server, err := web.NewServer(web.Options{
		Port:    cfg.Server.Port,
		Debug:   cfg.Server.Debug,
		Version: version,
	}, engine, bus, loop)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return loop.Run(ctx) })
	g.Go(func() error { return server.Run(ctx) })

	if watchConfig {
		if _, err := os.Stat(filepath.Dir(configPath)); err == nil {
			watcher := config.NewWatcher(configPath, onReload(cmd, func(patch fusion.SettingsPatch) {
				loop.Post(func() { events.Publish(bus, fusion.TopicSettingsUpdate, patch) })
			}))
			g.Go(func() error { return watcher.Run(ctx) })
			log.Info("watching config", "path", configPath)
		}
	}

	err = g.Wait()

	// The loop has stopped, so the engine can be touched directly
	engine.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("goodbye")
	return nil
}

// onReload applies a reloaded config file. Command line flags keep
// precedence over the file, as they did at startup.
func onReload(cmd *cobra.Command, post func(fusion.SettingsPatch)) func(*config.Config) {
	return func(c *config.Config) {
		applyFlags(cmd, c)
		log.SetLevel(c.Log.Level)

		patch, err := c.Patch()
		if err != nil {
			log.Warn("config patch", "error", err)
			return
		}
		post(patch)
	}
}
