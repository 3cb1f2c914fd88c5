package handler

import (
    "context"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-catalog-bot/internal/model"
)

const maxTopLimit = 50

// CatalogReader is the read-only catalog used by the public API.
type CatalogReader interface {
    GetByCode(ctx context.Context, code string) (*model.Movie, error)
    TopByViews(ctx context.Context, limit int) ([]model.Movie, error)
    Categories(ctx context.Context) ([]string, error)
}

// CatalogHandler serves the public catalog API.  Media references are
// never exposed.
type CatalogHandler struct {
    Catalog CatalogReader
}

// Top lists the most viewed movies; ?limit= defaults to 10, max 50.
func (h *CatalogHandler) Top(c echo.Context) error {
    limit := 10
    if v := c.QueryParam("limit"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n < 1 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
        }
        limit = min(n, maxTopLimit)
    }
    movies, err := h.Catalog.TopByViews(c.Request().Context(), limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if movies == nil {
        movies = []model.Movie{}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": movies})
}

func (h *CatalogHandler) GetMovie(c echo.Context) error {
    m, err := h.Catalog.GetByCode(c.Request().Context(), c.Param("code"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if m == nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
    }
    return c.JSON(http.StatusOK, m)
}

func (h *CatalogHandler) Categories(c echo.Context) error {
    cats, err := h.Catalog.Categories(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if cats == nil {
        cats = []string{}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": cats})
}
