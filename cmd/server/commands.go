package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-catalog-bot/internal/config"
	"github.com/iliyamo/cinema-catalog-bot/internal/logging"
	"github.com/iliyamo/cinema-catalog-bot/internal/middleware"
	"github.com/iliyamo/cinema-catalog-bot/internal/queue"
	"github.com/iliyamo/cinema-catalog-bot/internal/utils"
)

func webhookCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var register bool
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Serve Telegram updates over an HTTPS webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, *cfg, *log)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			if register {
				if cfg.WebhookURL == "" {
					return errors.New("WEBHOOK_URL is required to register the webhook")
				}
				if err := a.telegram.SetWebhook(cfg.WebhookURL + "/telegram/webhook/" + a.webhookSecret()); err != nil {
					return err
				}
			}
			return a.serve(ctx, a.echo(true))
		},
	}
	cmd.Flags().BoolVar(&register, "register", true, "register WEBHOOK_URL with Telegram on startup")
	return cmd
}

func pollCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var timeout int
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Long-poll Telegram for updates and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, *cfg, *log)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return a.telegram.Poll(gctx, timeout, a.router.Handle) })
			g.Go(func() error { return a.serve(gctx, a.echo(false)) })
			return g.Wait()
		},
	}
	cmd.Flags().IntVar(&timeout, "timeout", 60, "long-poll timeout in seconds")
	return cmd
}

func tokenCmd(cfg *config.Config) *cobra.Command {
	var adminID int64
	cmd := &cobra.Command{
		Use:         "token",
		Short:       "Issue an admin API token",
		Annotations: map[string]string{configAnnotation: configBase},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			found := false
			for _, id := range cfg.Admins {
				found = found || id == adminID
			}
			if !found {
				return fmt.Errorf("%d is not listed in ADMINS", adminID)
			}
			tok, err := utils.NewAccessToken(cfg.JWTSecret, adminID, middleware.RoleAdmin, cfg.AccessTTLMin)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", tok.Exp.Format("2006-01-02 15:04 MST"))
			return nil
		},
	}
	cmd.Flags().Int64Var(&adminID, "admin-id", 0, "chat user id of the admin")
	_ = cmd.MarkFlagRequired("admin-id")
	return cmd
}

func auditConsumerCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:         "audit-consumer",
		Short:       "Append audit events from RabbitMQ to a log file",
		Annotations: map[string]string{configAnnotation: configBase},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			return queue.StartAuditConsumer(ctx, cfg.RabbitURL, dir, logging.Component(*log, "audit-consumer"))
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "logs", "directory for audit.log")
	return cmd
}
