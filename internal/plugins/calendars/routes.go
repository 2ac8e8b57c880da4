package calendars

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all calendar-definition routes under the
// given group (mounted at /api/v1 by the app). The group is expected
// to already carry API key authentication.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.POST("/calendars", h.Create)
	g.GET("/calendars", h.List)
	g.GET("/calendars/:id", h.Get)
	g.PUT("/calendars/:id", h.Update)
	g.DELETE("/calendars/:id", h.Delete)

	// Bulk sub-resource replacement (replace-all semantics).
	g.PUT("/calendars/:id/months", h.SetMonths)
	g.PUT("/calendars/:id/moons", h.SetMoons)
	g.PUT("/calendars/:id/seasons", h.SetSeasons)
	g.PUT("/calendars/:id/eras", h.SetEras)
	g.PUT("/calendars/:id/cycles", h.SetCycles)

	// Advance the stored current date.
	g.POST("/calendars/:id/advance", h.Advance)

	// Portable definition export and import.
	g.GET("/calendars/:id/export", h.Export)
	g.POST("/calendars/import", h.Import)
}
