package engine

import (
	"math"
	"testing"
)

// eightPhases is a standard lunar phase table.
func eightPhases() []MoonPhaseDef {
	names := []string{
		"New Moon", "Waxing Crescent", "First Quarter", "Waxing Gibbous",
		"Full Moon", "Waning Gibbous", "Last Quarter", "Waning Crescent",
	}
	phases := make([]MoonPhaseDef, len(names))
	for i, n := range names {
		phases[i] = MoonPhaseDef{
			Name:  n,
			Start: float64(i) / 8,
			End:   float64(i+1) / 8,
		}
	}
	return phases
}

// moonCalendar is a 360-day calendar (12 x 30) with one 30-day moon
// referenced to year 0, month 0, day 1.
func moonCalendar() *Calendar {
	months := make([]Month, 12)
	for i := range months {
		months[i] = Month{Name: "Month", Ordinal: i + 1, Days: 30}
	}
	return &Calendar{
		Months:         months,
		LeapYear:       LeapYearConfig{Rule: LeapRuleNone},
		YearZeroExists: true,
		Moons: []Moon{{
			Name:          "Luna",
			CycleLength:   30,
			ReferenceDate: ReferenceDate{Year: 0, Month: 0, Day: 1},
			Phases:        eightPhases(),
		}},
	}
}

func TestPhaseDayDistribution_EightPhases(t *testing.T) {
	dist := phaseDayDistribution(30, 8)
	if len(dist) != 8 {
		t.Fatalf("expected 8 spans, got %d", len(dist))
	}

	sum := 0.0
	for _, d := range dist {
		sum += d
	}
	if sum != 30 {
		t.Errorf("distribution sums to %v, want 30", sum)
	}

	// New and full each take floor(30/8)=3 days; the six secondary
	// phases split the remaining 24 evenly at 4 days each.
	if dist[0] != 3 || dist[4] != 3 {
		t.Errorf("primary phases = %v and %v, want 3 each", dist[0], dist[4])
	}
	for _, i := range []int{1, 2, 3, 5, 6, 7} {
		if dist[i] != 4 {
			t.Errorf("secondary phase %d = %v, want 4", i, dist[i])
		}
	}
}

func TestPhaseDayDistribution_EvenSplitWithRemainder(t *testing.T) {
	dist := phaseDayDistribution(20, 6)

	want := []float64{4, 4, 3, 3, 3, 3}
	sum := 0.0
	for i, d := range dist {
		sum += d
		if d != want[i] {
			t.Errorf("phase %d = %v, want %v", i, d, want[i])
		}
	}
	if sum != 20 {
		t.Errorf("distribution sums to %v, want 20", sum)
	}
}

func TestPhaseDayDistribution_SecondaryRemainderOrder(t *testing.T) {
	// cycle 27, 8 phases: primaries floor(27/8)=3, remaining 21,
	// base floor(21/6)=3, remainder 3 goes to the earliest secondaries.
	dist := phaseDayDistribution(27, 8)
	want := []float64{3, 4, 4, 4, 3, 3, 3, 3}
	for i, d := range dist {
		if d != want[i] {
			t.Errorf("phase %d = %v, want %v", i, d, want[i])
		}
	}
}

func TestMoonPhaseAt_WalksPhases(t *testing.T) {
	cal := moonCalendar()

	// Day 0 of the cycle is the first day of New Moon (3-day phase).
	res := cal.MoonPhaseAt(0, PointInTime{Year: 0, Month: 0, Day: 0})
	if res.Name != "New Moon" {
		t.Errorf("day 0 phase = %q, want New Moon", res.Name)
	}
	if res.PhaseIndex != 0 || res.DayWithinPhase != 0 {
		t.Errorf("day 0: index %d within %v", res.PhaseIndex, res.DayWithinPhase)
	}

	// Days 0..2 new, 3..6 waxing crescent, ... 15..17 full.
	res = cal.MoonPhaseAt(0, PointInTime{Year: 0, Month: 0, Day: 3})
	if res.Name != "Waxing Crescent" {
		t.Errorf("day 3 phase = %q, want Waxing Crescent", res.Name)
	}

	res = cal.MoonPhaseAt(0, PointInTime{Year: 0, Month: 0, Day: 15})
	if res.Name != "Full Moon" || res.PhaseIndex != 4 {
		t.Errorf("day 15 phase = %q (index %d), want Full Moon (4)", res.Name, res.PhaseIndex)
	}

	// Day 29 is the last day of the last phase; day 30 wraps to new.
	res = cal.MoonPhaseAt(0, PointInTime{Year: 0, Month: 0, Day: 29})
	if res.Name != "Waning Crescent" {
		t.Errorf("day 29 phase = %q, want Waning Crescent", res.Name)
	}
	res = cal.MoonPhaseAt(0, PointInTime{Year: 0, Month: 1, Day: 0})
	if res.Name != "New Moon" {
		t.Errorf("day 30 phase = %q, want New Moon (wrapped)", res.Name)
	}
}

func TestMoonPhase_PositionNormalized(t *testing.T) {
	cal := moonCalendar()

	// Dates far before the reference date still land in [0, 1).
	for _, pt := range []PointInTime{
		{Year: -3, Month: 7, Day: 12},
		{Year: -1, Month: 0, Day: 0},
		{Year: 120, Month: 11, Day: 29},
	} {
		res := cal.MoonPhaseAt(0, pt)
		if res.Position < 0 || res.Position >= 1 {
			t.Errorf("position %v out of [0,1) for %+v", res.Position, pt)
		}
		if res.DayInCycle < 0 || res.DayInCycle >= 30 {
			t.Errorf("day in cycle %v out of [0,30) for %+v", res.DayInCycle, pt)
		}
	}
}

func TestMoonPhase_CycleDayAdjustShifts(t *testing.T) {
	cal := moonCalendar()
	cal.Moons[0].CycleDayAdjust = 15

	res := cal.MoonPhaseAt(0, PointInTime{Year: 0, Month: 0, Day: 0})
	if res.Name != "Full Moon" {
		t.Errorf("adjusted day 0 phase = %q, want Full Moon", res.Name)
	}
}

func TestMoonPhase_DegenerateInputs(t *testing.T) {
	moon := &Moon{Name: "Broken", CycleLength: 0, Phases: eightPhases()}
	res := moonPhase(moon, 123)
	if res.Name != "New Moon" || res.Position != 0 || res.DayInCycle != 0 {
		t.Errorf("zero cycle length should fall back to first phase: %+v", res)
	}

	res = moonPhase(&Moon{Name: "Luna", CycleLength: 30, Phases: eightPhases()}, math.NaN())
	if res.Name != "New Moon" || res.Position != 0 {
		t.Errorf("NaN day count should fall back to first phase: %+v", res)
	}

	res = moonPhase(&Moon{Name: "Phaseless", CycleLength: 30}, 3)
	if res.Name != "" || res.Position != 0 {
		t.Errorf("missing phases should yield an empty safe result: %+v", res)
	}
}

func TestSubPhaseName_Thirds(t *testing.T) {
	p := MoonPhaseDef{Name: "Full Moon"}

	// Single-day phases have no sub-phases.
	if got := subPhaseName(p, 0, 1); got != "Full Moon" {
		t.Errorf("duration 1 = %q", got)
	}

	// Three-day phase: day 0 rising, day 1 peak, day 2 fading.
	if got := subPhaseName(p, 0, 3); got != "Rising Full Moon" {
		t.Errorf("day 0 of 3 = %q", got)
	}
	if got := subPhaseName(p, 1, 3); got != "Full Moon" {
		t.Errorf("day 1 of 3 = %q", got)
	}
	if got := subPhaseName(p, 2, 3); got != "Fading Full Moon" {
		t.Errorf("day 2 of 3 = %q", got)
	}
}

func TestSubPhaseName_ExplicitNames(t *testing.T) {
	p := MoonPhaseDef{Name: "Full Moon", RisingName: "Gathering Light", FadingName: "Failing Light"}

	if got := subPhaseName(p, 0, 6); got != "Gathering Light" {
		t.Errorf("rising third = %q", got)
	}
	if got := subPhaseName(p, 5, 6); got != "Failing Light" {
		t.Errorf("fading third = %q", got)
	}
	if got := subPhaseName(p, 3, 6); got != "Full Moon" {
		t.Errorf("middle third = %q", got)
	}
}
