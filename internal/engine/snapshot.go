package engine

// Snapshot is every derived fact for one point in time, assembled in a
// single pass. This is the unit the query API serializes and the unit
// external caches should key on (definition version + point in time);
// the engine itself computes it fresh on every call.
type Snapshot struct {
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	Day           int    `json:"day"`
	DisplayYear   int    `json:"display_year"`
	FormattedYear string `json:"formatted_year"`

	IsLeapYear  bool `json:"is_leap_year"`
	DaysInMonth int  `json:"days_in_month"`
	DaysInYear  int  `json:"days_in_year"`
	DayOfYear   int  `json:"day_of_year"`

	Season *Season   `json:"season,omitempty"`
	Era    *EraMatch `json:"era,omitempty"`

	Moons  []MoonPhaseResult `json:"moons,omitempty"`
	Cycles CycleValues       `json:"cycles"`

	Daylight DaylightTimes `json:"daylight"`
}

// Snapshot computes the full set of calendar facts for a point in
// time.
func (c *Calendar) Snapshot(pt PointInTime) Snapshot {
	displayYear := c.DisplayYear(pt.Year)

	snap := Snapshot{
		Year:          pt.Year,
		Month:         pt.Month,
		Day:           pt.Day,
		DisplayYear:   displayYear,
		FormattedYear: c.FormatYearWithEra(displayYear),
		IsLeapYear:    c.IsLeapYear(pt.Year),
		DaysInMonth:   c.DaysInMonth(pt.Month, pt.Year),
		DaysInYear:    c.DaysInYear(pt.Year),
		DayOfYear:     c.DayOfYear(pt.Year, pt.Month, pt.Day),
		Season:        c.SeasonFor(pt),
		Moons:         c.MoonPhases(pt),
		Cycles:        c.CycleValuesAt(pt),
		Daylight:      c.DaylightAt(pt),
	}

	if era, ok := c.ResolveEra(displayYear); ok {
		snap.Era = &era
	}
	return snap
}
