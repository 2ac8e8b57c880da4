package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Leap year rule identifiers.
const (
	// LeapRuleNone disables leap years entirely.
	LeapRuleNone = "none"
	// LeapRuleSimple is a single fixed interval (every N years).
	LeapRuleSimple = "simple"
	// LeapRuleGregorian is the real-world rule: every 4 years, except
	// centuries, except every 400 years.
	LeapRuleGregorian = "gregorian"
	// LeapRuleCustom is an arbitrary comma-separated interval pattern
	// with allow/deny voting, e.g. "400,!100,4".
	LeapRuleCustom = "custom"
)

// gregorianPattern expresses the Gregorian rule in custom-pattern form.
const gregorianPattern = "400,!100,4"

// LeapYearConfig selects and parameterizes the calendar's leap rule.
type LeapYearConfig struct {
	Rule     string `json:"rule"`
	Interval int    `json:"interval,omitempty"`
	Start    int    `json:"start"` // offset applied to every interval
	Pattern  string `json:"pattern,omitempty"`
}

// leapInterval is one parsed segment of a leap pattern. An interval
// votes on a year: match + Subtracts denies leap status, match without
// Subtracts allows it, no match abstains.
type leapInterval struct {
	Interval      int
	Subtracts     bool // '!' prefix: matching years are denied
	IgnoresOffset bool // '+' prefix: the pattern offset does not apply
	Offset        int  // normalized into [0, Interval)
}

// parseInterval parses a single interval token ("4", "!100", "+8")
// against the shared pattern offset. Malformed numeric parts collapse
// to interval 1 rather than failing; ValidatePattern is the strict
// path for user-edited patterns.
func parseInterval(token string, offset int) leapInterval {
	token = strings.TrimSpace(token)
	subtracts := strings.HasPrefix(token, "!")
	ignores := strings.HasPrefix(token, "+")
	if subtracts || ignores {
		token = token[1:]
	}

	n, err := strconv.Atoi(token)
	if err != nil {
		n = 1
	}
	if n < 0 {
		n = -n
	}
	if n < 1 {
		n = 1
	}

	iv := leapInterval{Interval: n, Subtracts: subtracts, IgnoresOffset: ignores}
	if n > 1 && !ignores {
		iv.Offset = ((n+offset)%n + n) % n
	}
	return iv
}

// parsePattern parses a comma-separated interval pattern. Blank
// segments are dropped; every segment shares the same offset.
func parsePattern(pattern string, offset int) []leapInterval {
	var intervals []leapInterval
	for _, part := range strings.Split(pattern, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		intervals = append(intervals, parseInterval(part, offset))
	}
	return intervals
}

// vote returns +1 (allow), -1 (deny), or 0 (abstain) for a year.
// When year 0 does not exist, negative years shift by one so the
// interval arithmetic stays aligned across the gap.
func (iv leapInterval) vote(year int, yearZeroExists bool) int {
	mod := year - iv.Offset
	if !yearZeroExists && year < 0 {
		mod++
	}
	if mod%iv.Interval != 0 {
		return 0
	}
	if iv.Subtracts {
		return -1
	}
	return 1
}

// intersectsYear tallies the votes of all intervals for a year. The
// year is leap only when allows strictly outnumber denies; a tie is
// not leap.
func intersectsYear(intervals []leapInterval, year int, yearZeroExists bool) bool {
	sum := 0
	for _, iv := range intervals {
		sum += iv.vote(year, yearZeroExists)
	}
	return sum > 0
}

// IsLeapYear reports whether a year is a leap year under the
// calendar's configured rule. Unknown rules are never leap.
func (c *Calendar) IsLeapYear(year int) bool {
	cfg := c.LeapYear
	switch cfg.Rule {
	case LeapRuleSimple:
		iv := parseInterval(strconv.Itoa(cfg.Interval), cfg.Start)
		return intersectsYear([]leapInterval{iv}, year, c.YearZeroExists)
	case LeapRuleGregorian:
		return intersectsYear(parsePattern(gregorianPattern, cfg.Start), year, c.YearZeroExists)
	case LeapRuleCustom:
		return intersectsYear(parsePattern(cfg.Pattern, cfg.Start), year, c.YearZeroExists)
	}
	return false
}

// PatternValidation is the result of checking a user-edited leap
// pattern. Invalid patterns are reported as data, never as an error
// value, so a settings UI can surface them inline.
type PatternValidation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// intervalTokenRe matches one well-formed pattern segment: an optional
// '!' or '+' prefix followed by digits.
var intervalTokenRe = regexp.MustCompile(`^[!+]?\d+$`)

// ValidatePattern checks a custom leap pattern string. Each segment
// must be an optionally prefixed positive integer; blank segments are
// permitted and ignored.
func ValidatePattern(pattern string) PatternValidation {
	for _, part := range strings.Split(pattern, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !intervalTokenRe.MatchString(part) {
			return PatternValidation{
				Error: fmt.Sprintf("invalid interval %q: expected a number with optional '!' or '+' prefix", part),
			}
		}
		digits := strings.TrimLeft(part, "!+")
		n, err := strconv.Atoi(digits)
		if err != nil || n < 1 {
			return PatternValidation{
				Error: fmt.Sprintf("invalid interval %q: interval must be at least 1", part),
			}
		}
	}
	return PatternValidation{Valid: true}
}
