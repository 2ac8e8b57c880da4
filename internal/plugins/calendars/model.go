// Package calendars stores and serves calendar definitions: months,
// leap rules, moons, seasons, eras, and cycles for custom fantasy and
// historical calendars. Definitions are plain data; all computation
// happens in the engine package. Every mutation bumps the definition
// version so downstream caches can key on it.
package calendars

import (
	"time"

	"github.com/wyrmroot/almanac/internal/engine"
)

// Calendar is the stored top-level calendar definition.
type Calendar struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	HoursPerDay int     `json:"hours_per_day"`

	// Leap year configuration (engine.LeapYearConfig flattened for storage).
	LeapRule     string `json:"leap_rule"`
	LeapInterval int    `json:"leap_interval"`
	LeapStart    int    `json:"leap_start"`
	LeapPattern  string `json:"leap_pattern"`

	YearZeroExists bool `json:"year_zero_exists"`
	YearZeroOffset int  `json:"year_zero_offset"`

	CycleFormat string `json:"cycle_format"`

	// Daylight configuration.
	DaylightEnabled bool    `json:"daylight_enabled"`
	ShortestDay     float64 `json:"shortest_day"`
	LongestDay      float64 `json:"longest_day"`
	WinterSolstice  int     `json:"winter_solstice"`
	SummerSolstice  int     `json:"summer_solstice"`

	// Current date, advanced during play. Month and day are 0-indexed.
	CurrentYear   int `json:"current_year"`
	CurrentMonth  int `json:"current_month"`
	CurrentDay    int `json:"current_day"`
	CurrentHour   int `json:"current_hour"`
	CurrentMinute int `json:"current_minute"`

	// Version increments on every mutation. Snapshot cache keys embed it.
	Version int `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Eager-loaded sub-resources (populated by the service, not by every query).
	Months  []Month  `json:"months,omitempty"`
	Moons   []Moon   `json:"moons,omitempty"`
	Seasons []Season `json:"seasons,omitempty"`
	Eras    []Era    `json:"eras,omitempty"`
	Cycles  []Cycle  `json:"cycles,omitempty"`
}

// Month is a stored month row.
type Month struct {
	ID           int64  `json:"id"`
	CalendarID   int64  `json:"calendar_id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation,omitempty"`
	Days         int    `json:"days"`
	LeapDays     *int   `json:"leap_days,omitempty"`
	SortOrder    int    `json:"sort_order"`
}

// Moon is a stored moon row. Phases are persisted as a JSON column.
type Moon struct {
	ID             int64                 `json:"id"`
	CalendarID     int64                 `json:"calendar_id"`
	Name           string                `json:"name"`
	CycleLength    float64               `json:"cycle_length"`
	CycleDayAdjust int                   `json:"cycle_day_adjust"`
	RefYear        int                   `json:"ref_year"`
	RefMonth       int                   `json:"ref_month"`
	RefDay         int                   `json:"ref_day"`
	Phases         []engine.MoonPhaseDef `json:"phases"`
	SortOrder      int                   `json:"sort_order"`
}

// Season is a stored season row. A row is either the day-of-year shape
// (DayStart/DayEnd only) or the month-range shape (MonthStart/MonthEnd
// 1-indexed, DayStart/DayEnd narrowing the boundary months).
type Season struct {
	ID         int64  `json:"id"`
	CalendarID int64  `json:"calendar_id"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	DayStart   *int   `json:"day_start,omitempty"`
	DayEnd     *int   `json:"day_end,omitempty"`
	MonthStart int    `json:"month_start,omitempty"`
	MonthEnd   int    `json:"month_end,omitempty"`
	SortOrder  int    `json:"sort_order"`
}

// Era is a stored era row.
type Era struct {
	ID           int64  `json:"id"`
	CalendarID   int64  `json:"calendar_id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	StartYear    int    `json:"start_year"`
	EndYear      *int   `json:"end_year,omitempty"`
	Format       string `json:"format,omitempty"`
	Template     string `json:"template,omitempty"`
	SortOrder    int    `json:"sort_order"`
}

// Cycle is a stored cycle row. Entries are persisted as a JSON column.
type Cycle struct {
	ID         int64    `json:"id"`
	CalendarID int64    `json:"calendar_id"`
	Name       string   `json:"name"`
	Length     int      `json:"length"`
	Offset     int      `json:"offset"`
	BasedOn    string   `json:"based_on"`
	Entries    []string `json:"entries"`
	SortOrder  int      `json:"sort_order"`
}

// CurrentDate returns the stored current date as an engine point in
// time.
func (c *Calendar) CurrentDate() engine.PointInTime {
	return engine.PointInTime{
		Year:   c.CurrentYear,
		Month:  c.CurrentMonth,
		Day:    c.CurrentDay,
		Hour:   c.CurrentHour,
		Minute: c.CurrentMinute,
	}
}

// ToEngine converts a fully loaded definition into the engine's value
// form. The result shares no storage identifiers and is safe to hand
// to any number of goroutines.
func (c *Calendar) ToEngine() *engine.Calendar {
	cal := &engine.Calendar{
		Name:        c.Name,
		HoursPerDay: c.HoursPerDay,
		LeapYear: engine.LeapYearConfig{
			Rule:     c.LeapRule,
			Interval: c.LeapInterval,
			Start:    c.LeapStart,
			Pattern:  c.LeapPattern,
		},
		CycleFormat: c.CycleFormat,
		Daylight: engine.DaylightConfig{
			Enabled:        c.DaylightEnabled,
			ShortestDay:    c.ShortestDay,
			LongestDay:     c.LongestDay,
			WinterSolstice: c.WinterSolstice,
			SummerSolstice: c.SummerSolstice,
		},
		YearZeroExists: c.YearZeroExists,
		YearZeroOffset: c.YearZeroOffset,
	}

	for _, m := range c.Months {
		cal.Months = append(cal.Months, engine.Month{
			Name:         m.Name,
			Abbreviation: m.Abbreviation,
			Ordinal:      m.SortOrder + 1,
			Days:         m.Days,
			LeapDays:     m.LeapDays,
		})
	}
	for _, m := range c.Moons {
		cal.Moons = append(cal.Moons, engine.Moon{
			Name:           m.Name,
			CycleLength:    m.CycleLength,
			CycleDayAdjust: m.CycleDayAdjust,
			ReferenceDate:  engine.ReferenceDate{Year: m.RefYear, Month: m.RefMonth, Day: m.RefDay},
			Phases:         m.Phases,
		})
	}
	for _, s := range c.Seasons {
		cal.Seasons = append(cal.Seasons, engine.Season{
			Name:       s.Name,
			DayStart:   s.DayStart,
			DayEnd:     s.DayEnd,
			MonthStart: s.MonthStart,
			MonthEnd:   s.MonthEnd,
			Color:      s.Color,
		})
	}
	for _, e := range c.Eras {
		cal.Eras = append(cal.Eras, engine.Era{
			Name:         e.Name,
			Abbreviation: e.Abbreviation,
			StartYear:    e.StartYear,
			EndYear:      e.EndYear,
			Format:       e.Format,
			Template:     e.Template,
		})
	}
	for _, cy := range c.Cycles {
		entries := make([]engine.CycleEntry, len(cy.Entries))
		for i, name := range cy.Entries {
			entries[i] = engine.CycleEntry{Name: name}
		}
		cal.Cycles = append(cal.Cycles, engine.Cycle{
			Name:    cy.Name,
			Length:  cy.Length,
			Offset:  cy.Offset,
			BasedOn: cy.BasedOn,
			Entries: entries,
		})
	}
	return cal
}

// --- Request DTOs ---

// CreateCalendarInput is the validated input for creating a calendar.
type CreateCalendarInput struct {
	Name           string  `json:"name"`
	Description    *string `json:"description"`
	HoursPerDay    int     `json:"hours_per_day"`
	LeapRule       string  `json:"leap_rule"`
	LeapInterval   int     `json:"leap_interval"`
	LeapStart      int     `json:"leap_start"`
	LeapPattern    string  `json:"leap_pattern"`
	YearZeroExists bool    `json:"year_zero_exists"`
	YearZeroOffset int     `json:"year_zero_offset"`
	CurrentYear    int     `json:"current_year"`
}

// UpdateCalendarInput is the validated input for updating calendar
// settings, including the current date and daylight model.
type UpdateCalendarInput struct {
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	HoursPerDay     int     `json:"hours_per_day"`
	LeapRule        string  `json:"leap_rule"`
	LeapInterval    int     `json:"leap_interval"`
	LeapStart       int     `json:"leap_start"`
	LeapPattern     string  `json:"leap_pattern"`
	YearZeroExists  bool    `json:"year_zero_exists"`
	YearZeroOffset  int     `json:"year_zero_offset"`
	CycleFormat     string  `json:"cycle_format"`
	DaylightEnabled bool    `json:"daylight_enabled"`
	ShortestDay     float64 `json:"shortest_day"`
	LongestDay      float64 `json:"longest_day"`
	WinterSolstice  int     `json:"winter_solstice"`
	SummerSolstice  int     `json:"summer_solstice"`
	CurrentYear     int     `json:"current_year"`
	CurrentMonth    int     `json:"current_month"`
	CurrentDay      int     `json:"current_day"`
	CurrentHour     int     `json:"current_hour"`
	CurrentMinute   int     `json:"current_minute"`
}

// MonthInput is the input for bulk-replacing months.
type MonthInput struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Days         int    `json:"days"`
	LeapDays     *int   `json:"leap_days"`
}

// MoonInput is the input for bulk-replacing moons.
type MoonInput struct {
	Name           string                `json:"name"`
	CycleLength    float64               `json:"cycle_length"`
	CycleDayAdjust int                   `json:"cycle_day_adjust"`
	RefYear        int                   `json:"ref_year"`
	RefMonth       int                   `json:"ref_month"`
	RefDay         int                   `json:"ref_day"`
	Phases         []engine.MoonPhaseDef `json:"phases"`
}

// SeasonInput is the input for bulk-replacing seasons.
type SeasonInput struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	DayStart   *int   `json:"day_start"`
	DayEnd     *int   `json:"day_end"`
	MonthStart int    `json:"month_start"`
	MonthEnd   int    `json:"month_end"`
}

// EraInput is the input for bulk-replacing eras.
type EraInput struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	StartYear    int    `json:"start_year"`
	EndYear      *int   `json:"end_year"`
	Format       string `json:"format"`
	Template     string `json:"template"`
}

// CycleInput is the input for bulk-replacing cycles.
type CycleInput struct {
	Name    string   `json:"name"`
	Length  int      `json:"length"`
	Offset  int      `json:"offset"`
	BasedOn string   `json:"based_on"`
	Entries []string `json:"entries"`
}
