// Package router registers the HTTP routes on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-catalog-bot/internal/handler"
	"github.com/iliyamo/cinema-catalog-bot/internal/middleware"
)

// RegisterRoutes registers unauthenticated infrastructure routes.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterWebhook exposes the Telegram update endpoint.  The secret is
// part of the path.
func RegisterWebhook(e *echo.Echo, w *handler.WebhookHandler) {
	e.POST("/telegram/webhook/:secret", w.Receive)
}

// RegisterCatalog registers the public read API behind the given
// middleware, typically the rate limiter and the response cache.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1/catalog", mw...)
	g.GET("/top", h.Top)
	g.GET("/movies/:code", h.GetMovie)
	g.GET("/categories", h.Categories)
}

// RegisterAdmin registers the admin API.  Requests need a valid token
// with the ADMIN role whose subject is on the current allow-list.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, admins middleware.AdminChecker, mw ...echo.MiddlewareFunc) {
	chain := append([]echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin),
		middleware.RequireAdmin(admins),
	}, mw...)
	g := e.Group("/v1/admin", chain...)
	g.GET("/stats", h.GetStats)
	g.POST("/broadcast", h.Broadcast)
}
