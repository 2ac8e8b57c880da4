package engine

// Season is a named span of the year in one of two shapes. A
// day-of-year season bounds a 0-indexed day-of-year range in DayStart
// and DayEnd. A month-range season (MonthStart and MonthEnd both set,
// 1-indexed) bounds whole months, with DayStart and DayEnd narrowing
// the boundary months by 1-indexed day-of-month (defaulting to the
// first and last day respectively). Either shape may wrap around the
// end of the year by putting the start after the end.
type Season struct {
	Name       string `json:"name"`
	DayStart   *int   `json:"day_start,omitempty"`
	DayEnd     *int   `json:"day_end,omitempty"`
	MonthStart int    `json:"month_start,omitempty"`
	MonthEnd   int    `json:"month_end,omitempty"`
	Color      string `json:"color,omitempty"`
}

// IsMonthRange reports whether this season is the month-range shape.
func (s *Season) IsMonthRange() bool {
	return s.MonthStart >= 1 && s.MonthEnd >= 1
}

// SeasonFor returns the season containing the given point in time.
// Seasons are tested in definition order and the first match wins; if
// none match, the first season is returned so a configured calendar
// never reports "no season". Returns nil only when the calendar has
// no seasons at all.
func (c *Calendar) SeasonFor(pt PointInTime) *Season {
	return c.SeasonForDate(pt.Year, pt.Month, pt.Day)
}

// SeasonForDate is SeasonFor for an explicit year/month/day (month and
// day-of-month 0-indexed).
func (c *Calendar) SeasonForDate(year, month, day int) *Season {
	if len(c.Seasons) == 0 {
		return nil
	}
	doy := c.DayOfYear(year, month, day)
	for i := range c.Seasons {
		s := &c.Seasons[i]
		if c.seasonContains(s, year, month, day, doy) {
			return s
		}
	}
	return &c.Seasons[0]
}

// seasonContains tests one season against a date.
func (c *Calendar) seasonContains(s *Season, year, month, day, dayOfYear int) bool {
	if s.IsMonthRange() {
		return c.monthRangeContains(s, year, month+1, day+1)
	}

	start := 0
	if s.DayStart != nil {
		start = *s.DayStart
	}
	end := c.DaysInYear(year) - 1
	if s.DayEnd != nil {
		end = *s.DayEnd
	}

	if start <= end {
		return dayOfYear >= start && dayOfYear <= end
	}
	// Wraparound, e.g. winter running across the end of the year.
	return dayOfYear >= start || dayOfYear <= end
}

// monthRangeContains tests a month-range season against a 1-indexed
// month and day-of-month.
func (c *Calendar) monthRangeContains(s *Season, year, month, day int) bool {
	dayStart := 1
	if s.DayStart != nil {
		dayStart = *s.DayStart
	}
	dayEnd := c.DaysInMonth(s.MonthEnd-1, year)
	if s.DayEnd != nil {
		dayEnd = *s.DayEnd
	}

	if s.MonthStart <= s.MonthEnd {
		if s.MonthStart == s.MonthEnd {
			return month == s.MonthStart && day >= dayStart && day <= dayEnd
		}
		switch {
		case month > s.MonthStart && month < s.MonthEnd:
			return true
		case month == s.MonthStart:
			return day >= dayStart
		case month == s.MonthEnd:
			return day <= dayEnd
		}
		return false
	}

	// Wraparound: the season runs from MonthStart through the end of
	// the year and on into MonthEnd.
	switch {
	case month > s.MonthStart || month < s.MonthEnd:
		return true
	case month == s.MonthStart:
		return day >= dayStart
	case month == s.MonthEnd:
		return day <= dayEnd
	}
	return false
}
