package engine

import "math"

// ReferenceDate anchors a moon's cycle to a known date: the day the
// moon was (or will be) at the start of its first phase. Month is
// 0-indexed and Day is 1-indexed, matching how reference dates are
// written in calendar source material.
type ReferenceDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// MoonPhaseDef is one named phase of a moon. Start and End describe
// the phase's nominal position in the cycle as fractions in [0, 1];
// the engine derives actual day spans from the cycle length, so these
// are carried through for presentation only.
type MoonPhaseDef struct {
	Name       string  `json:"name"`
	RisingName string  `json:"rising_name,omitempty"`
	FadingName string  `json:"fading_name,omitempty"`
	Icon       string  `json:"icon,omitempty"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
}

// Moon is a celestial body with a repeating phase cycle.
type Moon struct {
	Name           string         `json:"name"`
	CycleLength    float64        `json:"cycle_length"`
	CycleDayAdjust int            `json:"cycle_day_adjust"`
	ReferenceDate  ReferenceDate  `json:"reference_date"`
	Phases         []MoonPhaseDef `json:"phases"`
}

// MoonPhaseResult describes a moon's state on a specific day.
type MoonPhaseResult struct {
	Moon           string  `json:"moon"`
	Name           string  `json:"name"`
	SubPhaseName   string  `json:"sub_phase_name"`
	Icon           string  `json:"icon,omitempty"`
	Position       float64 `json:"position"`     // [0, 1) through the full cycle
	DayInCycle     float64 `json:"day_in_cycle"` // days into the current cycle
	PhaseIndex     int     `json:"phase_index"`
	DayWithinPhase float64 `json:"day_within_phase"`
	PhaseDuration  float64 `json:"phase_duration"`
}

// MoonPhases computes the phase of every moon for a point in time.
func (c *Calendar) MoonPhases(pt PointInTime) []MoonPhaseResult {
	if len(c.Moons) == 0 {
		return nil
	}
	results := make([]MoonPhaseResult, len(c.Moons))
	for i := range c.Moons {
		results[i] = c.MoonPhaseAt(i, pt)
	}
	return results
}

// MoonPhaseAt computes the phase of the moon at the given index. An
// out-of-range index yields a zero result rather than panicking.
func (c *Calendar) MoonPhaseAt(index int, pt PointInTime) MoonPhaseResult {
	if index < 0 || index >= len(c.Moons) {
		return MoonPhaseResult{}
	}
	m := &c.Moons[index]
	ref := m.ReferenceDate
	refDays := c.DaysSinceEpoch(ref.Year, ref.Month, ref.Day-1)
	curDays := c.DaysSinceEpoch(pt.Year, pt.Month, pt.Day)
	return moonPhase(m, float64(curDays-refDays))
}

// moonPhase maps days-since-reference onto a moon's phase table.
// Degenerate inputs (non-positive cycle, non-finite day count, no
// phases) fall back to the first defined phase at position 0.
func moonPhase(m *Moon, daysSinceRef float64) MoonPhaseResult {
	if m.CycleLength <= 0 || len(m.Phases) == 0 ||
		math.IsNaN(daysSinceRef) || math.IsInf(daysSinceRef, 0) {
		return moonFallback(m)
	}

	days := daysSinceRef + float64(m.CycleDayAdjust)
	// Double modulo keeps negative day counts in [0, cycleLength).
	into := math.Mod(math.Mod(days, m.CycleLength)+m.CycleLength, m.CycleLength)
	position := into / m.CycleLength

	dist := phaseDayDistribution(m.CycleLength, len(m.Phases))
	dayIdx := math.Floor(into)

	phaseIdx := len(dist) - 1
	cum := 0.0
	for i, d := range dist {
		if dayIdx < cum+d {
			phaseIdx = i
			break
		}
		cum += d
	}

	phase := m.Phases[phaseIdx]
	within := dayIdx - cum
	duration := dist[phaseIdx]

	return MoonPhaseResult{
		Moon:           m.Name,
		Name:           phase.Name,
		SubPhaseName:   subPhaseName(phase, within, duration),
		Icon:           phase.Icon,
		Position:       position,
		DayInCycle:     into,
		PhaseIndex:     phaseIdx,
		DayWithinPhase: within,
		PhaseDuration:  duration,
	}
}

// moonFallback is the safe result for a misconfigured moon.
func moonFallback(m *Moon) MoonPhaseResult {
	res := MoonPhaseResult{Moon: m.Name}
	if len(m.Phases) > 0 {
		p := m.Phases[0]
		res.Name = p.Name
		res.SubPhaseName = p.Name
		res.Icon = p.Icon
	}
	return res
}

// phaseDayDistribution splits a cycle's days across its phases.
//
// Eight-phase moons use the canonical lunar distribution: the two
// primary phases (new at index 0, full at index 4) each span
// floor(cycleLength/8) days, and the rest of the cycle is split across
// the six secondary phases, earliest secondaries taking the remainder.
// Any other phase count splits evenly, with the first phases taking
// the remainder. Fractional cycle lengths are floored the same way the
// integer case is, so the walk in moonPhase always terminates.
func phaseDayDistribution(cycleLength float64, numPhases int) []float64 {
	if numPhases <= 0 {
		return nil
	}
	dist := make([]float64, numPhases)

	if numPhases == 8 {
		primary := math.Floor(cycleLength / 8)
		remaining := cycleLength - 2*primary
		base := math.Floor(remaining / 6)
		extra := remaining - base*6

		dist[0], dist[4] = primary, primary
		sec := 0
		for i := range dist {
			if i == 0 || i == 4 {
				continue
			}
			dist[i] = base
			if float64(sec) < extra {
				dist[i]++
			}
			sec++
		}
		return dist
	}

	base := math.Floor(cycleLength / float64(numPhases))
	extra := cycleLength - base*float64(numPhases)
	for i := range dist {
		dist[i] = base
		if float64(i) < extra {
			dist[i]++
		}
	}
	return dist
}

// subPhaseName refines a phase name by position within the phase:
// the first third is rising, the last third is fading, the middle is
// the phase itself. Phases of a single day (or less) have no
// sub-phases. Explicit rising/fading names win over generated ones.
func subPhaseName(p MoonPhaseDef, dayWithinPhase, duration float64) string {
	if duration <= 1 {
		return p.Name
	}
	third := duration / 3
	switch {
	case dayWithinPhase < third:
		if p.RisingName != "" {
			return p.RisingName
		}
		return "Rising " + p.Name
	case dayWithinPhase >= duration-third:
		if p.FadingName != "" {
			return p.FadingName
		}
		return "Fading " + p.Name
	}
	return p.Name
}
