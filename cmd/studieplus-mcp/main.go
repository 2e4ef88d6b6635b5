package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mboesen/studieplus-mcp/internal/capture"
	"github.com/mboesen/studieplus-mcp/internal/config"
	"github.com/mboesen/studieplus-mcp/internal/mcpserver"
	"github.com/mboesen/studieplus-mcp/internal/studieplus"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "studieplus-mcp",
		Short:         "MCP server exposing a StudiePlus school portal account as tools",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	f := rootCmd.Flags()
	f.String("username", "", "portal username")
	f.String("password", "", "portal password")
	f.String("school", "", "institution name as listed on the portal landing page")
	f.String("base-url", studieplus.DefaultBaseURL, "portal base URL")
	f.String("capture-db", "", "SQLite path for raw-response capture (empty disables)")
	f.Int("capture-retention-days", 14, "days to keep captured responses")
	f.String("download-dir", os.TempDir(), "directory for downloaded files")
	f.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	f.Bool("keep-repeated-flags", false, "keep note flags on every block of a double lesson")

	// Viper keys use underscores so they match the env var suffix after
	// stripping the STUDIEPLUS_ prefix.
	bindFlag := func(viperKey, flagName string) {
		_ = viper.BindPFlag(viperKey, f.Lookup(flagName))
	}
	bindFlag("username", "username")
	bindFlag("password", "password")
	bindFlag("school", "school")
	bindFlag("base_url", "base-url")
	bindFlag("capture_db", "capture-db")
	bindFlag("capture_retention_days", "capture-retention-days")
	bindFlag("download_dir", "download-dir")
	bindFlag("log_level", "log-level")
	bindFlag("keep_repeated_flags", "keep-repeated-flags")

	viper.SetEnvPrefix("STUDIEPLUS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// stdout carries the MCP transport; everything human-readable goes to
	// stderr.
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()

	log.Info().Str("version", config.Version).Str("school", cfg.School).Msg("starting")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink studieplus.RecordSink
	if cfg.CaptureDB != "" {
		store, err := capture.Open(cfg.CaptureDB, log)
		if err != nil {
			return fmt.Errorf("open capture store: %w", err)
		}
		defer store.Close() //nolint:errcheck
		if cfg.CaptureRetentionDays > 0 {
			retention := time.Duration(cfg.CaptureRetentionDays) * 24 * time.Hour
			if n, err := store.Prune(ctx, retention); err != nil {
				log.Warn().Err(err).Msg("capture prune failed")
			} else if n > 0 {
				log.Info().Int64("pruned", n).Msg("expired captured responses removed")
			}
		}
		sink = store
		log.Info().Str("path", cfg.CaptureDB).Msg("raw-response capture enabled")
	}

	client, err := studieplus.NewClient(studieplus.ClientConfig{
		BaseURL:  cfg.BaseURL,
		Username: cfg.Username,
		Password: cfg.Password,
		School:   cfg.School,
		Logger:   log.With().Str("component", "client").Logger(),
		Capture:  sink,
	})
	if err != nil {
		return err
	}

	svc := studieplus.NewService(client, studieplus.ServiceOptions{
		Logger:            log.With().Str("component", "service").Logger(),
		DownloadDir:       cfg.DownloadDir,
		KeepRepeatedFlags: cfg.KeepRepeatedFlags,
	})

	err = mcpserver.Run(ctx, svc)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("shutting down")
	return nil
}
