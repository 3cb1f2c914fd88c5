package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-catalog-bot/internal/broadcast"
    "github.com/iliyamo/cinema-catalog-bot/internal/middleware"
    "github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// StatsReader reports catalog counts.
type StatsReader interface {
    Stats(ctx context.Context) (model.Stats, error)
}

// Broadcaster sends one text to every registered user.
type Broadcaster interface {
    Broadcast(ctx context.Context, text string) (broadcast.Result, error)
}

// Auditor records admin actions.
type Auditor interface {
    Record(ctx context.Context, action string, actorID int64, subject string)
}

// AdminHandler serves the JWT protected admin API.
type AdminHandler struct {
    Stats       StatsReader
    Broadcaster Broadcaster
    Auditor     Auditor // optional
}

func (h *AdminHandler) GetStats(c echo.Context) error {
    st, err := h.Stats.Stats(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, st)
}

type broadcastRequest struct {
    Text string `json:"text"`
}

// Broadcast sends the body's text to every user and reports the counts.
func (h *AdminHandler) Broadcast(c echo.Context) error {
    var req broadcastRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    text := strings.TrimSpace(req.Text)
    if text == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "text is required"})
    }
    ctx := c.Request().Context()
    res, err := h.Broadcaster.Broadcast(ctx, text)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not read users"})
    }
    if h.Auditor != nil {
        id, _ := middleware.AdminID(c)
        h.Auditor.Record(ctx, "broadcast.sent", id, "api")
    }
    return c.JSON(http.StatusOK, echo.Map{
        "total":     res.Total,
        "delivered": res.Delivered,
        "failed":    res.Failed,
    })
}
