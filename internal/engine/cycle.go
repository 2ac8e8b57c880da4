package engine

import (
	"math"
	"strconv"
	"strings"
)

// Cycle basis identifiers: which time component drives a cycle.
const (
	CycleBasisYear     = "year"    // display year
	CycleBasisEraYear  = "eraYear" // year within the resolved era
	CycleBasisMonth    = "month"   // 0-indexed month
	CycleBasisMonthDay = "monthDay" // 0-indexed day-of-month
	CycleBasisDay      = "day"     // absolute day count since epoch
	CycleBasisYearDay  = "yearDay" // 0-indexed day-of-year
)

// CycleEntry is one named value in a repeating cycle.
type CycleEntry struct {
	Name string `json:"name"`
}

// Cycle is an arbitrary named repeating sequence (zodiac signs,
// elemental years, market weeks). Length is the full span of one
// repetition in units of the BasedOn component; the entries divide
// that span evenly, so Length need not equal the entry count. Offset
// shifts where in the sequence the epoch falls.
type Cycle struct {
	Name    string       `json:"name"`
	Length  int          `json:"length"`
	Offset  int          `json:"offset"`
	BasedOn string       `json:"based_on"`
	Entries []CycleEntry `json:"entries"`
}

// CycleValue is the resolved entry of one cycle.
type CycleValue struct {
	CycleName string `json:"cycle_name"`
	EntryName string `json:"entry_name"`
	Index     int    `json:"index"`
}

// CycleValues bundles every cycle's resolved entry with the rendered
// composite text.
type CycleValues struct {
	Text   string       `json:"text"`
	Values []CycleValue `json:"values"`
}

// CycleValuesAt resolves every cycle for a point in time and renders
// the calendar's shared cycle format. Placeholders are positional and
// 1-based in cycle definition order ({{1}}, {{2}}, ...); the literal
// escape {{n}} renders as a line break, not a placeholder.
func (c *Calendar) CycleValuesAt(pt PointInTime) CycleValues {
	values := make([]CycleValue, 0, len(c.Cycles))
	text := c.CycleFormat

	for i := range c.Cycles {
		cy := &c.Cycles[i]
		idx, name := c.resolveCycle(cy, pt)
		values = append(values, CycleValue{CycleName: cy.Name, EntryName: name, Index: idx})
		text = strings.ReplaceAll(text, "{{"+strconv.Itoa(i+1)+"}}", name)
	}

	text = strings.ReplaceAll(text, "{{n}}", "\n")
	return CycleValues{Text: text, Values: values}
}

// resolveCycle maps a cycle onto its current entry. The driving value
// (plus offset) is normalized into [0, Length) with a double modulo so
// negative values never produce a negative entry index, then mapped
// proportionally onto the entry list.
func (c *Calendar) resolveCycle(cy *Cycle, pt PointInTime) (int, string) {
	n := len(cy.Entries)
	if n == 0 || cy.Length < 1 {
		return 0, ""
	}

	epoch := float64(c.cycleEpochValue(cy.BasedOn, pt) + cy.Offset)
	length := float64(cy.Length)

	position := math.Mod(math.Mod(epoch, length)+length, length)
	idx := int(math.Floor(position / length * float64(n)))
	idx = ((idx % n) + n) % n

	return idx, cy.Entries[idx].Name
}

// cycleEpochValue selects the time component a cycle is keyed on.
// Unknown bases resolve to 0, pinning the cycle to its first span.
func (c *Calendar) cycleEpochValue(basis string, pt PointInTime) int {
	switch basis {
	case CycleBasisYear:
		return c.DisplayYear(pt.Year)
	case CycleBasisEraYear:
		if m, ok := c.ResolveEra(c.DisplayYear(pt.Year)); ok {
			return m.YearInEra
		}
		return c.DisplayYear(pt.Year)
	case CycleBasisMonth:
		return pt.Month
	case CycleBasisMonthDay:
		return pt.Day
	case CycleBasisDay:
		return c.DaysSinceEpoch(pt.Year, pt.Month, pt.Day)
	case CycleBasisYearDay:
		return c.DayOfYear(pt.Year, pt.Month, pt.Day)
	}
	return 0
}
