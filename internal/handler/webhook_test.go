package handler

import (
    "context"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// blockingBot holds every event until release is closed.
type blockingBot struct {
    started chan model.Event
    release chan struct{}
}

func (b *blockingBot) Handle(_ context.Context, ev model.Event) {
    b.started <- ev
    <-b.release
}

const textUpdate = `{"update_id":1,"message":{"message_id":5,"date":0,"from":{"id":1,"is_bot":false,"first_name":"A"},"chat":{"id":1,"type":"private"},"text":"Premiere tonight"}}`

func postUpdate(h *WebhookHandler, secret string) *httptest.ResponseRecorder {
    e := echo.New()
    e.POST("/telegram/webhook/:secret", h.Receive)
    req := httptest.NewRequest(http.MethodPost, "/telegram/webhook/"+secret, strings.NewReader(textUpdate))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestWebhook_AcknowledgesBeforeHandling(t *testing.T) {
    bot := &blockingBot{started: make(chan model.Event, 1), release: make(chan struct{})}
    h := &WebhookHandler{Secret: "s3cret", Bot: bot, Log: zerolog.Nop()}

    // The response arrives while the bot is still busy.
    if rec := postUpdate(h, "s3cret"); rec.Code != http.StatusOK {
        t.Fatalf("want 200, got %d", rec.Code)
    }
    select {
    case ev := <-bot.started:
        if ev.Text != "Premiere tonight" {
            t.Fatalf("unexpected event %+v", ev)
        }
    case <-time.After(2 * time.Second):
        t.Fatalf("update never reached the bot")
    }

    short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
    defer cancel()
    if err := h.Wait(short); err == nil {
        t.Fatalf("wait should time out while the update is in flight")
    }

    close(bot.release)
    if err := h.Wait(context.Background()); err != nil {
        t.Fatalf("wait after release: %v", err)
    }
}

func TestWebhook_WrongSecretIsNotHandled(t *testing.T) {
    bot := &blockingBot{started: make(chan model.Event, 1), release: make(chan struct{})}
    close(bot.release)
    h := &WebhookHandler{Secret: "s3cret", Bot: bot, Log: zerolog.Nop()}

    if rec := postUpdate(h, "nope"); rec.Code != http.StatusNotFound {
        t.Fatalf("want 404, got %d", rec.Code)
    }
    if err := h.Wait(context.Background()); err != nil {
        t.Fatal(err)
    }
    if len(bot.started) != 0 {
        t.Fatalf("rejected update reached the bot")
    }
}
