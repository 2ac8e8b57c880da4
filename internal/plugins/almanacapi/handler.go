package almanacapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/wyrmroot/almanac/internal/engine"
)

// Handler processes HTTP requests for the almanac query API.
type Handler struct {
	svc AlmanacService
}

// NewHandler creates a new almanacapi Handler.
func NewHandler(svc AlmanacService) *Handler {
	return &Handler{svc: svc}
}

// calendarID parses the :id route parameter.
func calendarID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid calendar id")
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s parameter", name))
	}
	return &v, nil
}

// snapshotQuery parses the point-in-time query parameters.
func snapshotQuery(c echo.Context) (SnapshotQuery, error) {
	var q SnapshotQuery
	var err error
	if q.Year, err = queryInt(c, "year"); err != nil {
		return q, err
	}
	if q.Month, err = queryInt(c, "month"); err != nil {
		return q, err
	}
	if q.Day, err = queryInt(c, "day"); err != nil {
		return q, err
	}
	if q.Hour, err = queryInt(c, "hour"); err != nil {
		return q, err
	}
	if q.Minute, err = queryInt(c, "minute"); err != nil {
		return q, err
	}
	if q.Second, err = queryInt(c, "second"); err != nil {
		return q, err
	}
	return q, nil
}

// --- Almanac Queries ---

// GetAlmanac returns the full snapshot for a point in time. Omitted
// date components fall back to the calendar's stored current date.
// GET /api/v1/calendars/:id/almanac?year=&month=&day=&hour=&minute=&second=
func (h *Handler) GetAlmanac(c echo.Context) error {
	id, err := calendarID(c)
	if err != nil {
		return err
	}
	q, err := snapshotQuery(c)
	if err != nil {
		return err
	}
	snap, err := h.svc.Snapshot(c.Request().Context(), id, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap)
}

// GetMoons returns only the moon phases for a point in time.
// GET /api/v1/calendars/:id/almanac/moons
func (h *Handler) GetMoons(c echo.Context) error {
	id, err := calendarID(c)
	if err != nil {
		return err
	}
	q, err := snapshotQuery(c)
	if err != nil {
		return err
	}
	moons, err := h.svc.MoonPhases(c.Request().Context(), id, q)
	if err != nil {
		return err
	}
	if moons == nil {
		moons = []engine.MoonPhaseResult{}
	}
	return c.JSON(http.StatusOK, moons)
}

// GetDaylight returns only the daylight times for a point in time.
// GET /api/v1/calendars/:id/almanac/daylight
func (h *Handler) GetDaylight(c echo.Context) error {
	id, err := calendarID(c)
	if err != nil {
		return err
	}
	q, err := snapshotQuery(c)
	if err != nil {
		return err
	}
	times, err := h.svc.Daylight(c.Request().Context(), id, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, times)
}

// --- Key Management ---

// keyID parses the :keyID route parameter.
func keyID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("keyID"), 10, 64)
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid key id")
	}
	return id, nil
}

// CreateKey generates a new API key. The plaintext key appears in the
// response once and is never retrievable afterwards.
// POST /admin/keys
func (h *Handler) CreateKey(c echo.Context) error {
	var input CreateAPIKeyInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	result, err := h.svc.CreateKey(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// ListKeys returns all registered keys (hashes excluded).
// GET /admin/keys
func (h *Handler) ListKeys(c echo.Context) error {
	keys, err := h.svc.ListKeys(c.Request().Context())
	if err != nil {
		return err
	}
	if keys == nil {
		keys = []APIKey{}
	}
	return c.JSON(http.StatusOK, keys)
}

// ActivateKey re-enables a deactivated key.
// POST /admin/keys/:keyID/activate
func (h *Handler) ActivateKey(c echo.Context) error {
	id, err := keyID(c)
	if err != nil {
		return err
	}
	if err := h.svc.ActivateKey(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// DeactivateKey disables a key without deleting it.
// POST /admin/keys/:keyID/deactivate
func (h *Handler) DeactivateKey(c echo.Context) error {
	id, err := keyID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeactivateKey(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// RevokeKey permanently deletes a key.
// DELETE /admin/keys/:keyID
func (h *Handler) RevokeKey(c echo.Context) error {
	id, err := keyID(c)
	if err != nil {
		return err
	}
	if err := h.svc.RevokeKey(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}
