package engine

import "math"

// DaylightConfig models how day length varies across the year. With
// Enabled false, every day is an even 50/50 split. With Enabled true,
// day length swings between ShortestDay hours at the winter solstice
// and LongestDay hours at the summer solstice, eased with a cosine
// curve. Solstices are 0-indexed days of the year.
type DaylightConfig struct {
	Enabled        bool    `json:"enabled"`
	ShortestDay    float64 `json:"shortest_day"`
	LongestDay     float64 `json:"longest_day"`
	WinterSolstice int     `json:"winter_solstice"`
	SummerSolstice int     `json:"summer_solstice"`
}

// DaylightTimes holds the solar landmarks of one day, as hours from
// midnight. SolarMidnight can exceed the day length, which represents
// a time on the following day.
type DaylightTimes struct {
	Sunrise       float64 `json:"sunrise"`
	Sunset        float64 `json:"sunset"`
	SolarMidday   float64 `json:"solar_midday"`
	SolarMidnight float64 `json:"solar_midnight"`
}

// DaylightAt computes the solar landmarks for a point in time. A
// degenerate configuration (empty year, coincident solstices) falls
// back to the static split rather than dividing by zero.
func (c *Calendar) DaylightAt(pt PointInTime) DaylightTimes {
	hpd := c.hoursPerDay()
	if !c.Daylight.Enabled {
		return daylightTimes(hpd*0.5, hpd)
	}

	daysPerYear := c.DaysInYear(pt.Year)
	if daysPerYear <= 0 {
		return daylightTimes(hpd*0.5, hpd)
	}

	dayOfYear := c.DayOfYear(pt.Year, pt.Month, pt.Day)
	return daylightTimes(c.daylightHours(dayOfYear, daysPerYear, hpd), hpd)
}

// daylightHours interpolates the day length for a day of the year.
// The year splits into two halves at the solstices: winter to summer
// lengthens the days, summer back to winter shortens them. Progress
// through each half is eased with a half-cosine so the change is
// gradual near the solstices and fastest at the equinoxes.
func (c *Calendar) daylightHours(dayOfYear, daysPerYear int, hoursPerDay float64) float64 {
	d := c.Daylight

	sinceWinter := ((dayOfYear-d.WinterSolstice)%daysPerYear + daysPerYear) % daysPerYear
	between := ((d.SummerSolstice-d.WinterSolstice)%daysPerYear + daysPerYear) % daysPerYear
	if between == 0 {
		return hoursPerDay * 0.5
	}

	var progress float64
	if sinceWinter <= between {
		progress = float64(sinceWinter) / float64(between)
	} else {
		progress = 1 - float64(sinceWinter-between)/float64(daysPerYear-between)
	}

	eased := (1 - math.Cos(progress*math.Pi)) / 2
	return d.ShortestDay + (d.LongestDay-d.ShortestDay)*eased
}

// daylightTimes centers a span of daylight hours on solar midday.
func daylightTimes(daylightHours, hoursPerDay float64) DaylightTimes {
	midday := hoursPerDay / 2
	sunset := midday + daylightHours/2
	return DaylightTimes{
		Sunrise:       midday - daylightHours/2,
		Sunset:        sunset,
		SolarMidday:   midday,
		SolarMidnight: sunset + (hoursPerDay-daylightHours)/2,
	}
}

// ProgressDay reports the fractional position of an hour-of-day value
// through the daylight span, clamped to [0, 1].
func (dt DaylightTimes) ProgressDay(hour float64) float64 {
	span := dt.Sunset - dt.Sunrise
	if span <= 0 {
		return 0
	}
	return clamp01((hour - dt.Sunrise) / span)
}

// ProgressNight reports the fractional position of an hour-of-day
// value through the night span, clamped to [0, 1]. Hours before
// sunset-time-of-day are shifted forward by a full day so the night
// span stays contiguous across midnight.
func (dt DaylightTimes) ProgressNight(hour, hoursPerDay float64) float64 {
	span := hoursPerDay - (dt.Sunset - dt.Sunrise)
	if span <= 0 {
		return 0
	}
	if hour < dt.Sunset {
		hour += hoursPerDay
	}
	return clamp01((hour - dt.Sunset) / span)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
