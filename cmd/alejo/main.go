// alejo: multimodal input fusion service
// Accepts input adapter connections and streams resolved commands to the UI
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-alejo/internal/config"
)

var version = "1.0.0"

// Flags shared by subcommands
var (
	configPath string
	port       int
	debug      bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "alejo",
	Short:         "Multimodal input fusion service",
	Long:          `Fuses eye, gesture, voice, switch and touch input into a single command stream, resolving conflicts between modalities.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.Path(), "config file (YAML or TOML)")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", config.DefaultPort, "HTTP server port")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable request logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves file, environment and flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags overlays the flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if flags.Changed("debug") {
		cfg.Server.Debug = debug
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
}
