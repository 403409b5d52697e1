package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/laibajaved880/team-chat/internal/app"
	"github.com/laibajaved880/team-chat/internal/config"
	"github.com/laibajaved880/team-chat/internal/log"
)

func main() {
	var (
		configPath string
		addr       string
		dbPath     string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:   "team-chat-server",
		Short: "Real-time room-based chat backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New(logLevel)

			cfg, path, err := config.Load(logger, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Info().Str("config", path).Msg("configuration loaded")

			// Flags override the config file.
			if addr != "" {
				cfg.Addr = addr
			}
			if dbPath != "" {
				cfg.DatabasePath = dbPath
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			logger = log.New(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting team-chat server")
			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
