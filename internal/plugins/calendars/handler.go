package calendars

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// maxImportSize caps the accepted import payload at 1 MiB. Real
// definitions are a few KiB; anything larger is not a calendar.
const maxImportSize = 1 << 20

// Handler processes HTTP requests for the calendars plugin.
type Handler struct {
	svc CalendarService
}

// NewHandler creates a new calendars Handler.
func NewHandler(svc CalendarService) *Handler {
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

// Create creates a new calendar definition.
// POST /api/v1/calendars
func (h *Handler) Create(c echo.Context) error {
	var input CreateCalendarInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	cal, err := h.svc.CreateCalendar(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cal)
}

// List returns all calendar definitions without sub-resources.
// GET /api/v1/calendars
func (h *Handler) List(c echo.Context) error {
	cals, err := h.svc.ListCalendars(c.Request().Context())
	if err != nil {
		return err
	}
	if cals == nil {
		cals = []Calendar{}
	}
	return c.JSON(http.StatusOK, cals)
}

// Get returns a calendar with all sub-resources.
// GET /api/v1/calendars/:id
func (h *Handler) Get(c echo.Context) error {
	id, err := calendarID(c)
	if err != nil {
		return err
	}
	cal, err := h.svc.GetCalendar(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}

// Update replaces the top-level settings of a calendar.
// PUT /api/v1/calendars/:id
func (h *Handler) Update(c echo.Context) error {
	id, err := calendarID(c)
	if err != nil {
		return err
	}
	var input UpdateCalendarInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := h.svc.UpdateCalendar(c.Request().Context(), id, input); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// Delete removes a calendar and all its data.
// DELETE /api/v1/calendars/:id
func (h *Handler) Delete(c echo.Context) error {
	id, err := calendarID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteCalendar(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// SetMonths replaces all months.
// PUT /api/v1/calendars/:id/months
func (h *Handler) SetMonths(c echo.Context) error {
	id, err := calendarID(c)
	if err != nil {
		return err
	}
	var months []MonthInput
	if err := c.Bind(&months); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := h.svc.SetMonths(c.Request().Context(), id, months); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// SetMoons replaces all moons.
// PUT /api/v1/calendars/:id/moons
func (h *Handler) SetMoons(c echo.Context) error {
	id, err := calendarID(c)
	if err != nil {
		return err
	}
	var moons []MoonInput
	if err := c.Bind(&moons); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := h.svc.SetMoons(c.Request().Context(), id, moons); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// SetSeasons replaces all seasons.
// PUT /api/v1/calendars/:id/seasons
func (h *Handler) SetSeasons(c echo.Context) error {
	id, err := calendarID(c)
	if err != nil {
		return err
	}
	var seasons []SeasonInput
	if err := c.Bind(&seasons); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := h.svc.SetSeasons(c.Request().Context(), id, seasons); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// SetEras replaces all eras.
// PUT /api/v1/calendars/:id/eras
func (h *Handler) SetEras(c echo.Context) error {
	id, err := calendarID(c)
	if err != nil {
		return err
	}
	var eras []EraInput
	if err := c.Bind(&eras); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := h.svc.SetEras(c.Request().Context(), id, eras); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// SetCycles replaces all cycles.
// PUT /api/v1/calendars/:id/cycles
func (h *Handler) SetCycles(c echo.Context) error {
	id, err := calendarID(c)
	if err != nil {
		return err
	}
	var cycles []CycleInput
	if err := c.Bind(&cycles); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := h.svc.SetCycles(c.Request().Context(), id, cycles); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// Advance moves the current date by N days (negative rolls backward).
// POST /api/v1/calendars/:id/advance
func (h *Handler) Advance(c echo.Context) error {
	id, err := calendarID(c)
	if err != nil {
		return err
	}
	var req struct {
		Days int `json:"days"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if req.Days == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "days must be non-zero")
	}
	if req.Days > 36500 || req.Days < -36500 {
		return echo.NewHTTPError(http.StatusBadRequest, "days must be within ±36500")
	}

	cal, err := h.svc.AdvanceDate(c.Request().Context(), id, req.Days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"current_year":  cal.CurrentYear,
		"current_month": cal.CurrentMonth,
		"current_day":   cal.CurrentDay,
		"version":       cal.Version,
	})
}

// Export returns the portable definition of a calendar as a download.
// GET /api/v1/calendars/:id/export
func (h *Handler) Export(c echo.Context) error {
	id, err := calendarID(c)
	if err != nil {
		return err
	}
	export, err := h.svc.ExportCalendar(c.Request().Context(), id)
	if err != nil {
		return err
	}

	filename := strings.ReplaceAll(strings.ToLower(export.Calendar.Name), " ", "-")
	if filename == "" {
		filename = "calendar"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", filename+".json"))
	return c.JSON(http.StatusOK, export)
}

// Import creates a new calendar from an exported definition.
// POST /api/v1/calendars/import
func (h *Handler) Import(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportSize+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}
	if len(body) > maxImportSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "import payload too large")
	}

	cal, err := h.svc.ImportCalendar(c.Request().Context(), body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cal)
}
