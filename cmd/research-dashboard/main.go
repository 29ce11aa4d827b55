// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-dashboard CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-dashboard/internal/secrets"
	"github.com/pdiddy/research-dashboard/internal/telemetry"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// shutdownTelemetry flushes spans once the command finishes.
var shutdownTelemetry telemetry.ShutdownFunc = func(context.Context) error { return nil }

// rootCmd is the base command for the research-dashboard CLI.
var rootCmd = &cobra.Command{
	Use:   "research-dashboard",
	Short: "Search, rank, and report on academic literature",
	Long: `research-dashboard queries academic search providers, fuses their results
into a single ranked list, and recovers missing abstracts along the way.

The search command runs the full pipeline: lenient query escalation,
abstract backfill, keyword similarity scoring, and citation ranking.
Companion commands list citing works, search patents, look up authors,
and reprint saved query files.`,
	SilenceUsage: true,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdownTelemetry(context.WithoutCancel(cmd.Context()))
	},
}

func init() {
	// Assigned here rather than in the rootCmd literal to avoid an
	// initialization cycle (setupLogging reads rootCmd's flags).
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		if err := setupLogging(cmd.ErrOrStderr()); err != nil {
			return err
		}

		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			slog.Debug("loaded secrets", "keys", keys)
		}

		shutdown, err := telemetry.Setup(cmd.Context(), dashboardConfig().Telemetry)
		if err != nil {
			return err
		}
		shutdownTelemetry = shutdown
		return nil
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-dashboard.yaml or ~/.config/research-dashboard/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-dashboard")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-dashboard"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_DASHBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setupLogging installs the default slog logger on w.
func setupLogging(w io.Writer) error {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	format, _ := rootCmd.PersistentFlags().GetString("log-format")

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", format)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
