package engine

import (
	"sort"
	"strconv"
	"strings"
)

// Era format identifiers for calendars without a template.
const (
	// EraFormatPrefix renders "<abbreviation> <year>".
	EraFormatPrefix = "prefix"
	// EraFormatSuffix renders "<year> <abbreviation>" (the default).
	EraFormatSuffix = "suffix"
)

// Era is a named span of display years. EndYear nil means the era is
// open-ended. Template, when set, wins over Format and may reference
// {{year}}, {{abbreviation}}, {{era}}, and {{yearInEra}}.
type Era struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	StartYear    int    `json:"start_year"`
	EndYear      *int   `json:"end_year,omitempty"`
	Format       string `json:"format,omitempty"`
	Template     string `json:"template,omitempty"`
}

// EraMatch is the resolved era for a display year.
type EraMatch struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Format       string `json:"format,omitempty"`
	Template     string `json:"template,omitempty"`
	YearInEra    int    `json:"year_in_era"`
}

// ResolveEra returns the era covering a display year, or ok=false when
// the calendar defines no eras. Candidates are checked in descending
// StartYear order over a fresh copy, so of two overlapping open-ended
// eras the later-starting one wins: later declarations supersede
// earlier ones for the years they also cover.
//
// When eras exist but none covers the year, the first era in original
// definition order is returned with YearInEra set to the display year
// itself, NOT displayYear-StartYear+1. The asymmetry is intentional:
// years outside every era read as absolute years. Flagged for product
// confirmation; do not unify the two formulas without checking.
func (c *Calendar) ResolveEra(displayYear int) (EraMatch, bool) {
	if len(c.Eras) == 0 {
		return EraMatch{}, false
	}

	sorted := make([]Era, len(c.Eras))
	copy(sorted, c.Eras)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartYear > sorted[j].StartYear
	})

	for _, e := range sorted {
		if e.StartYear <= displayYear && (e.EndYear == nil || displayYear <= *e.EndYear) {
			return EraMatch{
				Name:         e.Name,
				Abbreviation: e.Abbreviation,
				Format:       e.Format,
				Template:     e.Template,
				YearInEra:    displayYear - e.StartYear + 1,
			}, true
		}
	}

	first := c.Eras[0]
	return EraMatch{
		Name:         first.Name,
		Abbreviation: first.Abbreviation,
		Format:       first.Format,
		Template:     first.Template,
		YearInEra:    displayYear,
	}, true
}

// FormatYearWithEra renders a display year with its era. Template
// substitution wins when a template is set; otherwise the era's
// prefix/suffix format applies. With no eras the bare year is
// returned.
func (c *Calendar) FormatYearWithEra(displayYear int) string {
	m, ok := c.ResolveEra(displayYear)
	if !ok {
		return strconv.Itoa(displayYear)
	}

	if m.Template != "" {
		return strings.NewReplacer(
			"{{year}}", strconv.Itoa(displayYear),
			"{{abbreviation}}", m.Abbreviation,
			"{{era}}", m.Name,
			"{{yearInEra}}", strconv.Itoa(m.YearInEra),
		).Replace(m.Template)
	}

	if m.Format == EraFormatPrefix {
		return m.Abbreviation + " " + strconv.Itoa(displayYear)
	}
	return strconv.Itoa(displayYear) + " " + m.Abbreviation
}
