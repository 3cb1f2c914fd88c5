package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-catalog-bot/internal/access"
	"github.com/iliyamo/cinema-catalog-bot/internal/bot"
	"github.com/iliyamo/cinema-catalog-bot/internal/broadcast"
	"github.com/iliyamo/cinema-catalog-bot/internal/catalog"
	"github.com/iliyamo/cinema-catalog-bot/internal/config"
	"github.com/iliyamo/cinema-catalog-bot/internal/conversation"
	"github.com/iliyamo/cinema-catalog-bot/internal/gateway"
	"github.com/iliyamo/cinema-catalog-bot/internal/handler"
	"github.com/iliyamo/cinema-catalog-bot/internal/logging"
	"github.com/iliyamo/cinema-catalog-bot/internal/middleware"
	"github.com/iliyamo/cinema-catalog-bot/internal/repository"
	"github.com/iliyamo/cinema-catalog-bot/internal/router"
	"github.com/iliyamo/cinema-catalog-bot/internal/service"
	"github.com/iliyamo/cinema-catalog-bot/internal/subscription"
)

// app holds every long lived component of one process.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	started time.Time

	store      repository.Store
	rdb        *redis.Client
	telegram   *gateway.Telegram
	admins     access.Admins
	engine     *catalog.Engine
	dispatcher *broadcast.Dispatcher
	publisher  *service.AuditPublisher
	router     *bot.Router
	webhook    *handler.WebhookHandler
}

func newApp(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, started: time.Now()}

	store, err := repository.Open(ctx, cfg, logging.Component(log, "store"))
	if err != nil {
		return nil, err
	}
	a.store = store

	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, rate limiting and caching disabled")
	} else {
		a.rdb = rdb
	}

	tg, err := gateway.NewTelegram(cfg.BotToken, logging.Component(log, "telegram"))
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.telegram = tg
	log.Info().Str("bot", tg.Username()).Msg("telegram connected")

	var auditor conversation.Auditor
	if cfg.AuditEnabled {
		a.publisher = service.NewAuditPublisher(cfg.RabbitURL, logging.Component(log, "audit"))
		auditor = a.publisher
	}

	a.admins = access.NewAdmins(cfg.Admins)
	a.engine = catalog.NewEngine(store)
	a.dispatcher = broadcast.NewDispatcher(store, tg, cfg.BroadcastConcurrency, logging.Component(log, "broadcast"))
	machine := conversation.NewMachine(conversation.NewSessions(), a.engine, a.dispatcher, auditor,
		logging.Component(log, "conversation"))

	rl := config.LoadRateLimitConfig()
	var limiter bot.Limiter
	if a.rdb != nil && rl.Enabled {
		limiter = middleware.NewTokenBucket(rl, a.rdb, rl.BotCapacity, logging.Component(log, "ratelimit"))
	}

	a.router = &bot.Router{
		Gateway:      tg,
		Catalog:      a.engine,
		Gate:         subscription.NewGate(tg, a.admins, cfg.RequiredChannels, logging.Component(log, "gate")),
		Admins:       a.admins,
		Conversation: machine,
		Users:        store,
		Limiter:      limiter,
		Log:          logging.Component(log, "bot"),
	}
	if a.admins.Len() == 0 {
		log.Warn().Msg("ADMINS is empty, nobody can manage the catalog")
	}
	return a, nil
}

// echo builds the HTTP server.  The webhook route is only registered when
// withWebhook is set.
func (a *app) echo(withWebhook bool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(requestLogger(logging.Component(a.log, "http")))

	router.RegisterRoutes(e, &handler.HealthHandler{Started: a.started})
	if withWebhook {
		a.webhook = &handler.WebhookHandler{
			Secret: a.webhookSecret(),
			Bot:    a.router,
			Log:    logging.Component(a.log, "webhook"),
		}
		router.RegisterWebhook(e, a.webhook)
	}

	rl := config.LoadRateLimitConfig()
	bucket := middleware.NewTokenBucket(rl, a.rdb, rl.Capacity, logging.Component(a.log, "ratelimit"))
	router.RegisterCatalog(e, &handler.CatalogHandler{Catalog: a.engine},
		bucket.Middleware(),
		middleware.NewRedisCache(config.LoadCacheConfig(), a.rdb),
	)

	if a.cfg.JWTSecret != "" {
		var auditor handler.Auditor
		if a.publisher != nil {
			auditor = a.publisher
		}
		router.RegisterAdmin(e, &handler.AdminHandler{
			Stats:       a.engine,
			Broadcaster: a.dispatcher,
			Auditor:     auditor,
		}, a.cfg.JWTSecret, a.admins, bucket.Middleware())
	} else {
		a.log.Info().Msg("JWT_SECRET not set, admin API disabled")
	}
	return e
}

// webhookSecret falls back to the bot token, which Telegram never
// reveals to third parties.
func (a *app) webhookSecret() string {
	if a.cfg.WebhookSecret != "" {
		return a.cfg.WebhookSecret
	}
	return a.cfg.BotToken
}

// serve runs e until ctx is cancelled, then shuts it down gracefully.
func (a *app) serve(ctx context.Context, e *echo.Echo) error {
	errc := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", ":"+a.cfg.Port).Msg("http listening")
		errc <- e.Start(":" + a.cfg.Port)
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := e.Shutdown(shutdownCtx)
	if a.webhook != nil {
		if werr := a.webhook.Wait(shutdownCtx); werr != nil {
			a.log.Warn().Err(werr).Msg("updates still in flight at shutdown")
		}
	}
	return err
}

func (a *app) close(ctx context.Context) {
	if a.publisher != nil {
		_ = a.publisher.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			a.log.Warn().Err(err).Msg("close store")
		}
	}
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURIPath: true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz"
		},
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			// The webhook path carries the secret, so only the route is logged.
			ev.Str("method", v.Method).
				Str("route", c.Path()).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
