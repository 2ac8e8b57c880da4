package calendars

// export.go implements the portable calendar definition format
// (almanac-calendar-v1). Exports round-trip losslessly through import:
// everything that defines the calendar is included, while storage
// identifiers and the mutation version are deliberately left out.

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wyrmroot/almanac/internal/apperror"
)

const (
	// ExportFormat identifies the native export envelope.
	ExportFormat = "almanac-calendar-v1"

	// exportFormatVersion is bumped when the envelope changes shape.
	// Import accepts this version and older.
	exportFormatVersion = 1
)

// CalendarExport is the envelope written by export and read by import.
type CalendarExport struct {
	Format        string         `json:"format"`
	FormatVersion int            `json:"format_version"`
	ExportedAt    time.Time      `json:"exported_at"`
	Calendar      ExportCalendar `json:"calendar"`
}

// ExportCalendar is the complete portable definition of a calendar.
// Sub-resources reuse the bulk-replace input shapes so an import can
// feed them straight through the normal validation path.
type ExportCalendar struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	HoursPerDay int     `json:"hours_per_day"`

	LeapRule     string `json:"leap_rule"`
	LeapInterval int    `json:"leap_interval,omitempty"`
	LeapStart    int    `json:"leap_start,omitempty"`
	LeapPattern  string `json:"leap_pattern,omitempty"`

	YearZeroExists bool `json:"year_zero_exists"`
	YearZeroOffset int  `json:"year_zero_offset,omitempty"`

	CycleFormat string `json:"cycle_format,omitempty"`

	DaylightEnabled bool    `json:"daylight_enabled"`
	ShortestDay     float64 `json:"shortest_day,omitempty"`
	LongestDay      float64 `json:"longest_day,omitempty"`
	WinterSolstice  int     `json:"winter_solstice,omitempty"`
	SummerSolstice  int     `json:"summer_solstice,omitempty"`

	// Current date, same 0-indexed month/day convention as storage.
	CurrentYear   int `json:"current_year"`
	CurrentMonth  int `json:"current_month"`
	CurrentDay    int `json:"current_day"`
	CurrentHour   int `json:"current_hour"`
	CurrentMinute int `json:"current_minute"`

	Months  []MonthInput  `json:"months,omitempty"`
	Moons   []MoonInput   `json:"moons,omitempty"`
	Seasons []SeasonInput `json:"seasons,omitempty"`
	Eras    []EraInput    `json:"eras,omitempty"`
	Cycles  []CycleInput  `json:"cycles,omitempty"`
}

// BuildExport assembles the export envelope from a fully loaded
// calendar. The caller is responsible for eager-loading sub-resources.
func BuildExport(cal *Calendar) *CalendarExport {
	out := ExportCalendar{
		Name:            cal.Name,
		Description:     cal.Description,
		HoursPerDay:     cal.HoursPerDay,
		LeapRule:        cal.LeapRule,
		LeapInterval:    cal.LeapInterval,
		LeapStart:       cal.LeapStart,
		LeapPattern:     cal.LeapPattern,
		YearZeroExists:  cal.YearZeroExists,
		YearZeroOffset:  cal.YearZeroOffset,
		CycleFormat:     cal.CycleFormat,
		DaylightEnabled: cal.DaylightEnabled,
		ShortestDay:     cal.ShortestDay,
		LongestDay:      cal.LongestDay,
		WinterSolstice:  cal.WinterSolstice,
		SummerSolstice:  cal.SummerSolstice,
		CurrentYear:     cal.CurrentYear,
		CurrentMonth:    cal.CurrentMonth,
		CurrentDay:      cal.CurrentDay,
		CurrentHour:     cal.CurrentHour,
		CurrentMinute:   cal.CurrentMinute,
	}

	for _, m := range cal.Months {
		out.Months = append(out.Months, MonthInput{
			Name:         m.Name,
			Abbreviation: m.Abbreviation,
			Days:         m.Days,
			LeapDays:     m.LeapDays,
		})
	}
	for _, m := range cal.Moons {
		out.Moons = append(out.Moons, MoonInput{
			Name:           m.Name,
			CycleLength:    m.CycleLength,
			CycleDayAdjust: m.CycleDayAdjust,
			RefYear:        m.RefYear,
			RefMonth:       m.RefMonth,
			RefDay:         m.RefDay,
			Phases:         m.Phases,
		})
	}
	for _, s := range cal.Seasons {
		out.Seasons = append(out.Seasons, SeasonInput{
			Name:       s.Name,
			Color:      s.Color,
			DayStart:   s.DayStart,
			DayEnd:     s.DayEnd,
			MonthStart: s.MonthStart,
			MonthEnd:   s.MonthEnd,
		})
	}
	for _, e := range cal.Eras {
		out.Eras = append(out.Eras, EraInput{
			Name:         e.Name,
			Abbreviation: e.Abbreviation,
			StartYear:    e.StartYear,
			EndYear:      e.EndYear,
			Format:       e.Format,
			Template:     e.Template,
		})
	}
	for _, cy := range cal.Cycles {
		out.Cycles = append(out.Cycles, CycleInput{
			Name:    cy.Name,
			Length:  cy.Length,
			Offset:  cy.Offset,
			BasedOn: cy.BasedOn,
			Entries: cy.Entries,
		})
	}

	return &CalendarExport{
		Format:        ExportFormat,
		FormatVersion: exportFormatVersion,
		ExportedAt:    time.Now().UTC(),
		Calendar:      out,
	}
}

// ParseExport decodes and checks an export envelope. Unknown formats
// and newer envelope versions are rejected with a validation error.
func ParseExport(data []byte) (*CalendarExport, error) {
	var export CalendarExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, apperror.NewValidation("invalid export JSON: " + err.Error())
	}
	if export.Format != ExportFormat {
		return nil, apperror.NewValidation(fmt.Sprintf("unrecognized export format %q, expected %q", export.Format, ExportFormat))
	}
	if export.FormatVersion < 1 || export.FormatVersion > exportFormatVersion {
		return nil, apperror.NewValidation(fmt.Sprintf("unsupported export format version %d", export.FormatVersion))
	}
	return &export, nil
}
