// Package handler exposes the HTTP endpoints: the Telegram webhook, health
// checks, the public catalog API and the admin API.
package handler

import (
    "context"
    "crypto/subtle"
    "net/http"
    "sync"

    tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/cinema-catalog-bot/internal/gateway"
    "github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// EventHandler consumes translated chat events.
type EventHandler interface {
    Handle(ctx context.Context, ev model.Event)
}

// WebhookHandler receives updates pushed by Telegram.  The last path
// segment must equal Secret.  Updates are acknowledged before they are
// handled, so a slow admin action such as a broadcast never makes
// Telegram redeliver.
type WebhookHandler struct {
    Secret string
    Bot    EventHandler
    Log    zerolog.Logger

    inflight sync.WaitGroup
}

func (h *WebhookHandler) Receive(c echo.Context) error {
    if h.Secret == "" || subtle.ConstantTimeCompare([]byte(c.Param("secret")), []byte(h.Secret)) != 1 {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    }
    var upd tgbotapi.Update
    if err := c.Bind(&upd); err != nil {
        h.Log.Warn().Err(err).Msg("webhook: bad update body")
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid update"})
    }
    ev, ok := gateway.EventFromUpdate(upd)
    if !ok {
        h.Log.Debug().Int("update_id", upd.UpdateID).Msg("webhook: ignored update")
        return c.NoContent(http.StatusOK)
    }

    ctx := context.WithoutCancel(c.Request().Context())
    h.inflight.Add(1)
    go func() {
        defer h.inflight.Done()
        defer func() {
            if r := recover(); r != nil {
                h.Log.Error().Interface("panic", r).Int("update_id", upd.UpdateID).Msg("webhook: handler panicked")
            }
        }()
        h.Bot.Handle(ctx, ev)
    }()
    return c.NoContent(http.StatusOK)
}

// Wait blocks until every acknowledged update has been handled or ctx is
// done.
func (h *WebhookHandler) Wait(ctx context.Context) error {
    done := make(chan struct{})
    go func() {
        h.inflight.Wait()
        close(done)
    }()
    select {
    case <-done:
        return nil
    case <-ctx.Done():
        return ctx.Err()
    }
}
