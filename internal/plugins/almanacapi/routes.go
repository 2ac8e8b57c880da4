package almanacapi

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the authenticated almanac query routes under
// the given group (mounted at /api/v1 by the app). The group is
// expected to already carry API key authentication and rate limiting.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/calendars/:id/almanac", h.GetAlmanac)
	g.GET("/calendars/:id/almanac/moons", h.GetMoons)
	g.GET("/calendars/:id/almanac/daylight", h.GetDaylight)
}

// RegisterAdminRoutes sets up key management routes. These are mounted
// outside the API-key group; deployments restrict them at the reverse
// proxy (the first key cannot authenticate with a key).
func RegisterAdminRoutes(g *echo.Group, h *Handler) {
	g.POST("/keys", h.CreateKey)
	g.GET("/keys", h.ListKeys)
	g.POST("/keys/:keyID/activate", h.ActivateKey)
	g.POST("/keys/:keyID/deactivate", h.DeactivateKey)
	g.DELETE("/keys/:keyID", h.RevokeKey)
}
