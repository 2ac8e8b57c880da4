// Package engine implements the calendar computation core for custom
// fantasy and historical calendars: leap year rules, month lengths,
// moon phases, seasons, eras, repeating cycles, and daylight times.
//
// Every function in this package is a pure query over a Calendar and a
// PointInTime. Nothing here reads a clock, caches results, or mutates
// its inputs, so identical inputs always produce identical outputs and
// any number of goroutines may call into the engine without
// synchronization. Callers that want memoization must layer it outside,
// keyed on (definition version, point in time).
//
// The engine is deliberately lenient: degenerate definitions (zero
// cycle lengths, missing phases, empty era lists) degrade to safe
// fallback values instead of errors, because a live shared calendar
// must always produce something renderable. Definition validation is
// the job of the layer that stores definitions, not of this package.
package engine

// PointInTime is a single instant on a calendar. Month and Day are
// 0-indexed. The engine never mutates or retains a PointInTime; the
// time-keeping layer owns its lifecycle.
type PointInTime struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// HourOfDay returns the fractional hour for this instant (e.g. 13.5
// for 13:30:00). Used by the daylight progress calculations.
func (pt PointInTime) HourOfDay() float64 {
	return float64(pt.Hour) + float64(pt.Minute)/60 + float64(pt.Second)/3600
}

// Month is a named period with a configurable number of days. LeapDays,
// when set, replaces Days entirely on leap years (it is not added).
type Month struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation,omitempty"`
	Ordinal      int    `json:"ordinal"` // 1-indexed position, informational
	Days         int    `json:"days"`
	LeapDays     *int   `json:"leap_days,omitempty"`
}

// Calendar is the immutable definition the engine computes against.
// It is owned by the configuration layer; the engine only reads it.
type Calendar struct {
	Name        string `json:"name"`
	HoursPerDay int    `json:"hours_per_day"` // 0 means 24

	Months   []Month        `json:"months"`
	LeapYear LeapYearConfig `json:"leap_year"`
	Moons    []Moon         `json:"moons,omitempty"`
	Seasons  []Season       `json:"seasons,omitempty"`
	Eras     []Era          `json:"eras,omitempty"`

	Cycles      []Cycle `json:"cycles,omitempty"`
	CycleFormat string  `json:"cycle_format,omitempty"`

	Daylight DaylightConfig `json:"daylight"`

	// YearZeroExists controls whether year 0 is a real year. When false,
	// leap year modulo math for negative years compensates for the gap.
	YearZeroExists bool `json:"year_zero_exists"`

	// YearZeroOffset maps internal zero-based years to display years.
	YearZeroOffset int `json:"year_zero_offset"`
}

// DisplayYear converts an internal zero-based year to the year value
// shown to users. Eras and year-based cycles operate on display years.
func (c *Calendar) DisplayYear(year int) int {
	return year + c.YearZeroOffset
}

// hoursPerDay returns the configured day length in hours, defaulting
// to 24 when unset.
func (c *Calendar) hoursPerDay() float64 {
	if c.HoursPerDay <= 0 {
		return 24
	}
	return float64(c.HoursPerDay)
}

// DaysInMonth returns the number of days in a month for a given year.
// On leap years a month's LeapDays replaces its normal length. Unknown
// month indices yield 0.
func (c *Calendar) DaysInMonth(monthIdx, year int) int {
	if monthIdx < 0 || monthIdx >= len(c.Months) {
		return 0
	}
	m := c.Months[monthIdx]
	if m.LeapDays != nil && c.IsLeapYear(year) {
		return *m.LeapDays
	}
	return m.Days
}

// DaysInYear returns the total days in a specific year, accounting for
// leap year month lengths.
func (c *Calendar) DaysInYear(year int) int {
	total := 0
	for i := range c.Months {
		total += c.DaysInMonth(i, year)
	}
	return total
}

// DayOfYear returns the 0-indexed day-of-year for a date: days in all
// prior months of that year plus the 0-indexed day-of-month.
func (c *Calendar) DayOfYear(year, month, day int) int {
	doy := day
	for i := 0; i < month && i < len(c.Months); i++ {
		doy += c.DaysInMonth(i, year)
	}
	return doy
}

// DaysSinceEpoch returns the absolute day count for a date, measured
// from year 0, month 0, day 0. Negative years count backwards, so the
// value is negative before the epoch. This is the shared day math
// behind moon phases and day-based cycles.
func (c *Calendar) DaysSinceEpoch(year, month, day int) int {
	total := 0
	switch {
	case year > 0:
		for y := 0; y < year; y++ {
			total += c.DaysInYear(y)
		}
	case year < 0:
		for y := year; y < 0; y++ {
			total -= c.DaysInYear(y)
		}
	}
	return total + c.DayOfYear(year, month, day)
}

// AdvanceDays rolls a point in time forward (or backward, for negative
// n) by whole days, carrying across month and year boundaries with
// leap-aware month lengths. The time-of-day components pass through
// unchanged. With no months configured the input is returned as-is.
func (c *Calendar) AdvanceDays(pt PointInTime, n int) PointInTime {
	if len(c.Months) == 0 {
		return pt
	}
	year, month, day := pt.Year, pt.Month, pt.Day
	if month < 0 || month >= len(c.Months) {
		month = 0
	}

	for ; n > 0; n-- {
		day++
		if day >= c.DaysInMonth(month, year) {
			day = 0
			month++
			if month >= len(c.Months) {
				month = 0
				year++
			}
		}
	}
	for ; n < 0; n++ {
		day--
		if day < 0 {
			month--
			if month < 0 {
				month = len(c.Months) - 1
				year--
			}
			day = c.DaysInMonth(month, year) - 1
			if day < 0 {
				day = 0
			}
		}
	}

	pt.Year, pt.Month, pt.Day = year, month, day
	return pt
}
