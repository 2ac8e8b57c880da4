package engine

import "testing"

// gregorianCalendar returns a minimal calendar with the Gregorian leap rule.
func gregorianCalendar() *Calendar {
	leap := 29
	return &Calendar{
		Months: []Month{
			{Name: "January", Ordinal: 1, Days: 31},
			{Name: "February", Ordinal: 2, Days: 28, LeapDays: &leap},
			{Name: "March", Ordinal: 3, Days: 31},
			{Name: "April", Ordinal: 4, Days: 30},
			{Name: "May", Ordinal: 5, Days: 31},
			{Name: "June", Ordinal: 6, Days: 30},
			{Name: "July", Ordinal: 7, Days: 31},
			{Name: "August", Ordinal: 8, Days: 31},
			{Name: "September", Ordinal: 9, Days: 30},
			{Name: "October", Ordinal: 10, Days: 31},
			{Name: "November", Ordinal: 11, Days: 30},
			{Name: "December", Ordinal: 12, Days: 31},
		},
		LeapYear:       LeapYearConfig{Rule: LeapRuleGregorian},
		YearZeroExists: true,
	}
}

func TestIsLeapYear_Gregorian(t *testing.T) {
	cal := gregorianCalendar()

	cases := []struct {
		year int
		want bool
	}{
		{2000, true},  // divisible by 400
		{1900, false}, // century, not divisible by 400
		{2024, true},
		{2023, false},
		{1600, true},
		{2100, false},
	}
	for _, tc := range cases {
		if got := cal.IsLeapYear(tc.year); got != tc.want {
			t.Errorf("IsLeapYear(%d) = %v, want %v", tc.year, got, tc.want)
		}
	}
}

func TestIsLeapYear_CustomEveryFour(t *testing.T) {
	cal := &Calendar{
		LeapYear:       LeapYearConfig{Rule: LeapRuleCustom, Pattern: "4"},
		YearZeroExists: true,
	}
	for year := -40; year <= 40; year++ {
		want := year%4 == 0
		if got := cal.IsLeapYear(year); got != want {
			t.Errorf("IsLeapYear(%d) = %v, want %v", year, got, want)
		}
	}
}

func TestIsLeapYear_Simple(t *testing.T) {
	cal := &Calendar{
		LeapYear:       LeapYearConfig{Rule: LeapRuleSimple, Interval: 5, Start: 2},
		YearZeroExists: true,
	}
	if !cal.IsLeapYear(2) {
		t.Error("year 2 should be leap with interval 5 offset 2")
	}
	if !cal.IsLeapYear(7) {
		t.Error("year 7 should be leap with interval 5 offset 2")
	}
	if cal.IsLeapYear(5) {
		t.Error("year 5 should not be leap with interval 5 offset 2")
	}
}

// A pattern whose allow and deny votes cancel produces sum 0, and a
// tie is not a leap year.
func TestIsLeapYear_VotingTieIsNotLeap(t *testing.T) {
	cal := &Calendar{
		LeapYear:       LeapYearConfig{Rule: LeapRuleCustom, Pattern: "4,!4"},
		YearZeroExists: true,
	}
	for _, year := range []int{0, 4, 8, 400} {
		if cal.IsLeapYear(year) {
			t.Errorf("year %d: tied votes must not produce a leap year", year)
		}
	}
}

func TestIsLeapYear_DenyOverridesAllow(t *testing.T) {
	// Every 4 years, but denied twice as hard on multiples of 100.
	cal := &Calendar{
		LeapYear:       LeapYearConfig{Rule: LeapRuleCustom, Pattern: "4,!100,!100"},
		YearZeroExists: true,
	}
	if cal.IsLeapYear(200) {
		t.Error("year 200: deny votes should win")
	}
	if !cal.IsLeapYear(204) {
		t.Error("year 204 should still be leap")
	}
}

func TestIsLeapYear_NoneAndUnknownRules(t *testing.T) {
	for _, rule := range []string{LeapRuleNone, "", "martian"} {
		cal := &Calendar{LeapYear: LeapYearConfig{Rule: rule, Interval: 4}}
		if cal.IsLeapYear(4) {
			t.Errorf("rule %q must never produce leap years", rule)
		}
	}
}

// Without a year zero, negative years shift by one exactly once so the
// interval sequence stays aligned across the gap: ..., -5, -1, 4, 8.
func TestIsLeapYear_NegativeYearsWithoutYearZero(t *testing.T) {
	cal := &Calendar{
		LeapYear:       LeapYearConfig{Rule: LeapRuleCustom, Pattern: "4"},
		YearZeroExists: false,
	}

	cases := []struct {
		year int
		want bool
	}{
		{-1, true}, // -1 + 1 = 0
		{-5, true}, // -5 + 1 = -4
		{-4, false},
		{-2, false},
		{4, true},
		{3, false},
	}
	for _, tc := range cases {
		if got := cal.IsLeapYear(tc.year); got != tc.want {
			t.Errorf("IsLeapYear(%d) = %v, want %v", tc.year, got, tc.want)
		}
	}
}

func TestParseInterval_Prefixes(t *testing.T) {
	iv := parseInterval("!100", 0)
	if iv.Interval != 100 || !iv.Subtracts || iv.IgnoresOffset {
		t.Errorf("parseInterval(!100) = %+v", iv)
	}

	iv = parseInterval("+8", 3)
	if iv.Interval != 8 || iv.Subtracts || !iv.IgnoresOffset {
		t.Errorf("parseInterval(+8) = %+v", iv)
	}
	if iv.Offset != 0 {
		t.Errorf("'+' prefix must zero the offset, got %d", iv.Offset)
	}
}

func TestParseInterval_OffsetNormalization(t *testing.T) {
	// Interval 1 always has offset 0 regardless of the shared offset.
	if iv := parseInterval("1", 7); iv.Offset != 0 {
		t.Errorf("interval 1 offset = %d, want 0", iv.Offset)
	}
	// ((10 + -3) mod 10 + 10) mod 10 = 7.
	if iv := parseInterval("10", -3); iv.Offset != 7 {
		t.Errorf("interval 10 offset -3 = %d, want 7", iv.Offset)
	}
	// ((4 + 6) mod 4 + 4) mod 4 = 2.
	if iv := parseInterval("4", 6); iv.Offset != 2 {
		t.Errorf("interval 4 offset 6 = %d, want 2", iv.Offset)
	}
}

func TestParsePattern_DropsBlankSegments(t *testing.T) {
	intervals := parsePattern("4, ,,!100", 0)
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(intervals))
	}
	if intervals[0].Interval != 4 || intervals[1].Interval != 100 {
		t.Errorf("unexpected intervals: %+v", intervals)
	}
}

func TestValidatePattern(t *testing.T) {
	valid := []string{"4", "400,!100,4", "+8,!3", "", " 4 , 8 ", "4,,8"}
	for _, p := range valid {
		if res := ValidatePattern(p); !res.Valid {
			t.Errorf("ValidatePattern(%q) invalid: %s", p, res.Error)
		}
	}

	invalid := []string{"abc", "0", "!0", "4.5", "-4", "!+4", "4,x"}
	for _, p := range invalid {
		res := ValidatePattern(p)
		if res.Valid {
			t.Errorf("ValidatePattern(%q) should be invalid", p)
		}
		if res.Error == "" {
			t.Errorf("ValidatePattern(%q) should carry an error message", p)
		}
	}
}
