package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iliyamo/cinema-catalog-bot/internal/config"
	"github.com/iliyamo/cinema-catalog-bot/internal/logging"
)

// Commands annotated with configBase skip the bot and store settings.
const (
	configAnnotation = "config"
	configBase       = "base"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg config.Config
		log zerolog.Logger
	)
	root := &cobra.Command{
		Use:          "catalog-bot",
		Short:        "Telegram movie catalog bot",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			load := config.Load
			if cmd.Annotations[configAnnotation] == configBase {
				load = config.LoadBase
			}
			var err error
			cfg, err = load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			log = logging.New(cfg.LogLevel, cfg.LogFormat).With().Str("env", cfg.Env).Logger()
			return nil
		},
	}
	root.AddCommand(
		webhookCmd(&cfg, &log),
		pollCmd(&cfg, &log),
		tokenCmd(&cfg),
		auditConsumerCmd(&cfg, &log),
	)
	return root
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
