package engine

import (
	"reflect"
	"testing"
)

// harptosLike builds a fuller calendar exercising every subsystem at
// once: leap months, moons, seasons, eras, cycles, and daylight.
func harptosLike() *Calendar {
	leap := 2
	return &Calendar{
		Name:        "Calendar of the Vale",
		HoursPerDay: 24,
		Months: []Month{
			{Name: "Deepwinter", Ordinal: 1, Days: 30},
			{Name: "Thaw", Ordinal: 2, Days: 30},
			{Name: "Midsummer", Ordinal: 3, Days: 1, LeapDays: &leap},
			{Name: "Harvest", Ordinal: 4, Days: 30},
			{Name: "Fading", Ordinal: 5, Days: 30},
		},
		LeapYear:       LeapYearConfig{Rule: LeapRuleCustom, Pattern: "4"},
		YearZeroExists: true,
		Moons: []Moon{{
			Name:          "Selune",
			CycleLength:   30,
			ReferenceDate: ReferenceDate{Year: 0, Month: 0, Day: 1},
			Phases:        eightPhases(),
		}},
		Seasons: []Season{
			{Name: "Winter", DayStart: intPtr(100), DayEnd: intPtr(20)},
			{Name: "Bright", DayStart: intPtr(21), DayEnd: intPtr(99)},
		},
		Eras: []Era{
			{Name: "Age of Ash", Abbreviation: "AA", StartYear: 0, EndYear: intPtr(499)},
			{Name: "Age of Gold", Abbreviation: "AG", StartYear: 500},
		},
		Cycles: []Cycle{{
			Name:    "Ringbearers",
			Length:  3,
			BasedOn: CycleBasisYear,
			Entries: []CycleEntry{{Name: "Oak"}, {Name: "Iron"}, {Name: "Salt"}},
		}},
		CycleFormat: "Year of {{1}}",
		Daylight: DaylightConfig{
			Enabled:        true,
			ShortestDay:    6,
			LongestDay:     14,
			WinterSolstice: 110,
			SummerSolstice: 50,
		},
	}
}

func TestDaysInYear_LeapVariantMonth(t *testing.T) {
	cal := harptosLike()

	if got := cal.DaysInYear(1); got != 121 {
		t.Errorf("common year length = %d, want 121", got)
	}
	// Year 4 is leap: Midsummer runs 2 days instead of 1.
	if got := cal.DaysInYear(4); got != 122 {
		t.Errorf("leap year length = %d, want 122", got)
	}
	if got := cal.DaysInMonth(2, 4); got != 2 {
		t.Errorf("leap Midsummer = %d days, want 2", got)
	}
	if got := cal.DaysInMonth(2, 5); got != 1 {
		t.Errorf("common Midsummer = %d days, want 1", got)
	}
	if got := cal.DaysInMonth(99, 4); got != 0 {
		t.Errorf("unknown month = %d days, want 0", got)
	}
}

func TestDayOfYear(t *testing.T) {
	cal := harptosLike()

	if got := cal.DayOfYear(1, 0, 0); got != 0 {
		t.Errorf("first day = %d, want 0", got)
	}
	// Month 3 (Harvest) day 4 in a common year: 30 + 30 + 1 + 4.
	if got := cal.DayOfYear(1, 3, 4); got != 65 {
		t.Errorf("Harvest 5 = %d, want 65", got)
	}
	// Same date in a leap year shifts by the extra Midsummer day.
	if got := cal.DayOfYear(4, 3, 4); got != 66 {
		t.Errorf("leap Harvest 5 = %d, want 66", got)
	}
}

func TestDaysSinceEpoch_ContinuousAcrossZero(t *testing.T) {
	cal := harptosLike()

	if got := cal.DaysSinceEpoch(0, 0, 0); got != 0 {
		t.Errorf("epoch = %d, want 0", got)
	}
	// The last day of year -1 is exactly one day before the epoch.
	lastMonth := len(cal.Months) - 1
	lastDay := cal.DaysInMonth(lastMonth, -1) - 1
	if got := cal.DaysSinceEpoch(-1, lastMonth, lastDay); got != -1 {
		t.Errorf("eve of epoch = %d, want -1", got)
	}
	// One full year after the epoch (year 0 is leap: 122 days).
	if got := cal.DaysSinceEpoch(1, 0, 0); got != 122 {
		t.Errorf("start of year 1 = %d, want 122", got)
	}
}

func TestAdvanceDays_RollsMonthsAndYears(t *testing.T) {
	cal := harptosLike()

	pt := PointInTime{Year: 1, Month: 0, Day: 28, Hour: 9, Minute: 30}
	got := cal.AdvanceDays(pt, 3)
	want := PointInTime{Year: 1, Month: 1, Day: 1, Hour: 9, Minute: 30}
	if got != want {
		t.Errorf("advance 3 = %+v, want %+v", got, want)
	}

	// Across a year boundary.
	got = cal.AdvanceDays(PointInTime{Year: 1, Month: 4, Day: 29}, 1)
	if got.Year != 2 || got.Month != 0 || got.Day != 0 {
		t.Errorf("year rollover = %+v", got)
	}

	// Backward across the same boundary.
	got = cal.AdvanceDays(PointInTime{Year: 2, Month: 0, Day: 0}, -1)
	if got.Year != 1 || got.Month != 4 || got.Day != 29 {
		t.Errorf("backward rollover = %+v", got)
	}

	// Advancing over leap Midsummer respects its 2-day length.
	got = cal.AdvanceDays(PointInTime{Year: 4, Month: 2, Day: 0}, 1)
	if got.Month != 2 || got.Day != 1 {
		t.Errorf("leap Midsummer advance = %+v, want month 2 day 1", got)
	}
	got = cal.AdvanceDays(PointInTime{Year: 5, Month: 2, Day: 0}, 1)
	if got.Month != 3 || got.Day != 0 {
		t.Errorf("common Midsummer advance = %+v, want month 3 day 0", got)
	}
}

func TestAdvanceDays_InverseRoundTrip(t *testing.T) {
	cal := harptosLike()
	start := PointInTime{Year: 3, Month: 1, Day: 7}

	for _, n := range []int{1, 29, 121, 365, 1000} {
		fwd := cal.AdvanceDays(start, n)
		back := cal.AdvanceDays(fwd, -n)
		if back != start {
			t.Errorf("advance %d then -%d = %+v, want %+v", n, n, back, start)
		}
	}
}

func TestSnapshot_AssemblesAllFacts(t *testing.T) {
	cal := harptosLike()
	pt := PointInTime{Year: 501, Month: 3, Day: 4, Hour: 10}

	snap := cal.Snapshot(pt)

	if snap.DisplayYear != 501 {
		t.Errorf("display year = %d", snap.DisplayYear)
	}
	if snap.FormattedYear != "501 AG" {
		t.Errorf("formatted year = %q, want \"501 AG\"", snap.FormattedYear)
	}
	if snap.Era == nil || snap.Era.Name != "Age of Gold" || snap.Era.YearInEra != 2 {
		t.Errorf("era = %+v", snap.Era)
	}
	if snap.Season == nil || snap.Season.Name != "Bright" {
		t.Errorf("season = %+v, want Bright (day 65)", snap.Season)
	}
	if len(snap.Moons) != 1 || snap.Moons[0].Moon != "Selune" {
		t.Errorf("moons = %+v", snap.Moons)
	}
	if snap.Cycles.Text != "Year of Oak" { // 501 mod 3 == 0
		t.Errorf("cycles text = %q", snap.Cycles.Text)
	}
	if snap.DaysInYear != 121 || snap.DayOfYear != 65 {
		t.Errorf("days in year %d, day of year %d", snap.DaysInYear, snap.DayOfYear)
	}
	if snap.IsLeapYear {
		t.Error("501 is not a leap year")
	}
	if snap.Daylight.Sunset <= snap.Daylight.Sunrise {
		t.Errorf("daylight = %+v", snap.Daylight)
	}
}

// Identical inputs must produce structurally identical results; the
// engine holds no state between calls.
func TestSnapshot_Deterministic(t *testing.T) {
	cal := harptosLike()
	pt := PointInTime{Year: -12, Month: 4, Day: 17, Hour: 23, Minute: 59, Second: 59}

	first := cal.Snapshot(pt)
	second := cal.Snapshot(pt)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("snapshots differ:\n%+v\n%+v", first, second)
	}
}

func TestYearZeroOffset_DisplayYear(t *testing.T) {
	cal := harptosLike()
	cal.YearZeroOffset = 1000

	if got := cal.DisplayYear(420); got != 1420 {
		t.Errorf("display year = %d, want 1420", got)
	}
	snap := cal.Snapshot(PointInTime{Year: 0})
	if snap.DisplayYear != 1000 {
		t.Errorf("snapshot display year = %d, want 1000", snap.DisplayYear)
	}
}
