package app

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wyrmroot/almanac/internal/middleware"
	"github.com/wyrmroot/almanac/internal/plugins/almanacapi"
	"github.com/wyrmroot/almanac/internal/plugins/calendars"
)

// RegisterRoutes builds the full dependency graph (repositories,
// services, handlers) and registers every route. This is the single
// place where all routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// --- Repositories and Services ---
	calendarRepo := calendars.NewCalendarRepository(a.DB)
	calendarSvc := calendars.NewCalendarService(calendarRepo)

	keyRepo := almanacapi.NewAPIKeyRepository(a.DB)
	almanacSvc := almanacapi.NewAlmanacService(keyRepo, calendarSvc, a.Redis, a.Config.Cache.SnapshotTTL)

	calendarHandler := calendars.NewHandler(calendarSvc)
	almanacHandler := almanacapi.NewHandler(almanacSvc)

	// --- Public Routes ---

	// Health check endpoint for Docker health monitoring.
	e.GET("/healthz", func(c echo.Context) error {
		if err := a.DB.PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// --- API Routes ---
	// Everything under /api/v1 requires an API key; each key carries its
	// own per-minute rate limit.
	api := e.Group("/api/v1",
		almanacapi.RequireAPIKey(almanacSvc),
		almanacapi.RateLimit(),
	)
	calendars.RegisterRoutes(api, calendarHandler)
	almanacapi.RegisterRoutes(api, almanacHandler)

	// --- Admin Routes ---
	// Key management cannot authenticate with a key (bootstrap problem),
	// so it lives under /admin with per-IP limiting; deployments restrict
	// access at the reverse proxy.
	admin := e.Group("/admin", middleware.RateLimit(30, time.Minute))
	almanacapi.RegisterAdminRoutes(admin, almanacHandler)
}
