package calendars

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wyrmroot/almanac/internal/apperror"
	"github.com/wyrmroot/almanac/internal/engine"
	"github.com/wyrmroot/almanac/internal/sanitize"
)

// CalendarService defines business logic for the calendars plugin.
// Services validate engine invariants at the boundary; the engine
// itself is lenient and never errors.
type CalendarService interface {
	CreateCalendar(ctx context.Context, input CreateCalendarInput) (*Calendar, error)
	GetCalendar(ctx context.Context, calendarID int64) (*Calendar, error)
	ListCalendars(ctx context.Context) ([]Calendar, error)
	UpdateCalendar(ctx context.Context, calendarID int64, input UpdateCalendarInput) error
	DeleteCalendar(ctx context.Context, calendarID int64) error

	// Sub-resource bulk updates (replace all).
	SetMonths(ctx context.Context, calendarID int64, months []MonthInput) error
	SetMoons(ctx context.Context, calendarID int64, moons []MoonInput) error
	SetSeasons(ctx context.Context, calendarID int64, seasons []SeasonInput) error
	SetEras(ctx context.Context, calendarID int64, eras []EraInput) error
	SetCycles(ctx context.Context, calendarID int64, cycles []CycleInput) error

	// Date helpers.
	AdvanceDate(ctx context.Context, calendarID int64, days int) (*Calendar, error)

	// Portable definition export and import.
	ExportCalendar(ctx context.Context, calendarID int64) (*CalendarExport, error)
	ImportCalendar(ctx context.Context, data []byte) (*Calendar, error)
}

// calendarService is the default CalendarService implementation.
type calendarService struct {
	repo CalendarRepository
}

// NewCalendarService creates a CalendarService backed by the given repository.
func NewCalendarService(repo CalendarRepository) CalendarService {
	return &calendarService{repo: repo}
}

// validLeapRules enumerates the engine's leap rule identifiers.
var validLeapRules = map[string]bool{
	engine.LeapRuleNone:      true,
	engine.LeapRuleSimple:    true,
	engine.LeapRuleGregorian: true,
	engine.LeapRuleCustom:    true,
}

// validCycleBases mirrors the engine's cycle basis identifiers.
var validCycleBases = map[string]bool{
	engine.CycleBasisYear:     true,
	engine.CycleBasisEraYear:  true,
	engine.CycleBasisMonth:    true,
	engine.CycleBasisMonthDay: true,
	engine.CycleBasisDay:      true,
	engine.CycleBasisYearDay:  true,
}

// validateLeapConfig checks a leap rule + pattern combination.
func validateLeapConfig(rule string, interval int, pattern string) error {
	if rule == "" {
		return nil
	}
	if !validLeapRules[rule] {
		return apperror.NewValidation(fmt.Sprintf("unknown leap rule %q", rule))
	}
	if rule == engine.LeapRuleSimple && interval < 1 {
		return apperror.NewValidation("leap interval must be at least 1 for the simple rule")
	}
	if rule == engine.LeapRuleCustom {
		if v := engine.ValidatePattern(pattern); !v.Valid {
			return apperror.NewValidation("leap pattern: " + v.Error)
		}
	}
	return nil
}

// CreateCalendar creates a new calendar definition.
func (s *calendarService) CreateCalendar(ctx context.Context, input CreateCalendarInput) (*Calendar, error) {
	name := sanitize.Name(input.Name)
	if name == "" {
		return nil, apperror.NewValidation("calendar name is required")
	}
	if input.HoursPerDay < 0 {
		return nil, apperror.NewValidation("hours_per_day cannot be negative")
	}
	if input.LeapRule == "" {
		input.LeapRule = engine.LeapRuleNone
	}
	if err := validateLeapConfig(input.LeapRule, input.LeapInterval, input.LeapPattern); err != nil {
		return nil, err
	}

	var desc *string
	if input.Description != nil {
		d := sanitize.HTML(*input.Description)
		desc = &d
	}

	cal := &Calendar{
		Name:           name,
		Description:    desc,
		HoursPerDay:    input.HoursPerDay,
		LeapRule:       input.LeapRule,
		LeapInterval:   input.LeapInterval,
		LeapStart:      input.LeapStart,
		LeapPattern:    input.LeapPattern,
		YearZeroExists: input.YearZeroExists,
		YearZeroOffset: input.YearZeroOffset,
		CurrentYear:    input.CurrentYear,
	}

	if err := s.repo.Create(ctx, cal); err != nil {
		return nil, fmt.Errorf("create calendar: %w", err)
	}
	return cal, nil
}

// GetCalendar returns a calendar by ID with all sub-resources loaded.
func (s *calendarService) GetCalendar(ctx context.Context, calendarID int64) (*Calendar, error) {
	cal, err := s.repo.GetByID(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("get calendar: %w", err)
	}
	if cal == nil {
		return nil, apperror.NewNotFound("calendar not found")
	}
	return s.eagerLoad(ctx, cal)
}

// ListCalendars returns all calendar definitions without sub-resources.
func (s *calendarService) ListCalendars(ctx context.Context) ([]Calendar, error) {
	return s.repo.List(ctx)
}

// eagerLoad populates all sub-resources on a calendar.
func (s *calendarService) eagerLoad(ctx context.Context, cal *Calendar) (*Calendar, error) {
	var err error
	if cal.Months, err = s.repo.GetMonths(ctx, cal.ID); err != nil {
		return nil, fmt.Errorf("get months: %w", err)
	}
	if cal.Moons, err = s.repo.GetMoons(ctx, cal.ID); err != nil {
		return nil, fmt.Errorf("get moons: %w", err)
	}
	if cal.Seasons, err = s.repo.GetSeasons(ctx, cal.ID); err != nil {
		return nil, fmt.Errorf("get seasons: %w", err)
	}
	if cal.Eras, err = s.repo.GetEras(ctx, cal.ID); err != nil {
		return nil, fmt.Errorf("get eras: %w", err)
	}
	if cal.Cycles, err = s.repo.GetCycles(ctx, cal.ID); err != nil {
		return nil, fmt.Errorf("get cycles: %w", err)
	}
	return cal, nil
}

// UpdateCalendar updates the top-level settings and current date.
func (s *calendarService) UpdateCalendar(ctx context.Context, calendarID int64, input UpdateCalendarInput) error {
	cal, err := s.repo.GetByID(ctx, calendarID)
	if err != nil {
		return fmt.Errorf("get calendar: %w", err)
	}
	if cal == nil {
		return apperror.NewNotFound("calendar not found")
	}

	name := sanitize.Name(input.Name)
	if name == "" {
		return apperror.NewValidation("calendar name is required")
	}
	if input.HoursPerDay < 0 {
		return apperror.NewValidation("hours_per_day cannot be negative")
	}
	if input.LeapRule == "" {
		input.LeapRule = engine.LeapRuleNone
	}
	if err := validateLeapConfig(input.LeapRule, input.LeapInterval, input.LeapPattern); err != nil {
		return err
	}
	if input.DaylightEnabled && input.LongestDay < input.ShortestDay {
		return apperror.NewValidation("longest_day cannot be shorter than shortest_day")
	}

	cal.Name = name
	if input.Description != nil {
		d := sanitize.HTML(*input.Description)
		cal.Description = &d
	} else {
		cal.Description = nil
	}
	cal.HoursPerDay = input.HoursPerDay
	cal.LeapRule = input.LeapRule
	cal.LeapInterval = input.LeapInterval
	cal.LeapStart = input.LeapStart
	cal.LeapPattern = input.LeapPattern
	cal.YearZeroExists = input.YearZeroExists
	cal.YearZeroOffset = input.YearZeroOffset
	cal.CycleFormat = input.CycleFormat
	cal.DaylightEnabled = input.DaylightEnabled
	cal.ShortestDay = input.ShortestDay
	cal.LongestDay = input.LongestDay
	cal.WinterSolstice = input.WinterSolstice
	cal.SummerSolstice = input.SummerSolstice
	cal.CurrentYear = input.CurrentYear
	cal.CurrentMonth = input.CurrentMonth
	cal.CurrentDay = input.CurrentDay
	cal.CurrentHour = input.CurrentHour
	cal.CurrentMinute = input.CurrentMinute

	if err := s.repo.Update(ctx, cal); err != nil {
		return fmt.Errorf("update calendar: %w", err)
	}
	return nil
}

// DeleteCalendar removes a calendar and all its data.
func (s *calendarService) DeleteCalendar(ctx context.Context, calendarID int64) error {
	return s.repo.Delete(ctx, calendarID)
}

// SetMonths replaces all months. A calendar must keep at least one.
func (s *calendarService) SetMonths(ctx context.Context, calendarID int64, months []MonthInput) error {
	if len(months) == 0 {
		return apperror.NewValidation("calendar must have at least one month")
	}
	for i := range months {
		m := &months[i]
		m.Name = sanitize.Name(m.Name)
		m.Abbreviation = sanitize.Name(m.Abbreviation)
		if m.Name == "" {
			return apperror.NewValidation(fmt.Sprintf("month %d: name is required", i+1))
		}
		if m.Days < 1 || m.Days > 1000 {
			return apperror.NewValidation(fmt.Sprintf("month %q: days must be between 1 and 1000", m.Name))
		}
		if m.LeapDays != nil && *m.LeapDays < 0 {
			return apperror.NewValidation(fmt.Sprintf("month %q: leap_days cannot be negative", m.Name))
		}
	}
	return s.repo.SetMonths(ctx, calendarID, months)
}

// SetMoons replaces all moons.
func (s *calendarService) SetMoons(ctx context.Context, calendarID int64, moons []MoonInput) error {
	for i := range moons {
		m := &moons[i]
		m.Name = sanitize.Name(m.Name)
		if m.Name == "" {
			return apperror.NewValidation(fmt.Sprintf("moon %d: name is required", i+1))
		}
		if m.CycleLength <= 0 {
			return apperror.NewValidation(fmt.Sprintf("moon %q: cycle_length must be positive", m.Name))
		}
		if len(m.Phases) == 0 {
			return apperror.NewValidation(fmt.Sprintf("moon %q: at least one phase is required", m.Name))
		}
		for j := range m.Phases {
			p := &m.Phases[j]
			p.Name = sanitize.Name(p.Name)
			p.RisingName = sanitize.Name(p.RisingName)
			p.FadingName = sanitize.Name(p.FadingName)
			if p.Name == "" {
				return apperror.NewValidation(fmt.Sprintf("moon %q: phase %d needs a name", m.Name, j+1))
			}
		}
	}
	return s.repo.SetMoons(ctx, calendarID, moons)
}

// SetSeasons replaces all seasons. Each season must be one of the two
// supported shapes: day-of-year bounds, or a 1-indexed month range.
func (s *calendarService) SetSeasons(ctx context.Context, calendarID int64, seasons []SeasonInput) error {
	for i := range seasons {
		se := &seasons[i]
		se.Name = sanitize.Name(se.Name)
		if se.Name == "" {
			return apperror.NewValidation(fmt.Sprintf("season %d: name is required", i+1))
		}
		monthRange := se.MonthStart >= 1 && se.MonthEnd >= 1
		if (se.MonthStart >= 1) != (se.MonthEnd >= 1) {
			return apperror.NewValidation(fmt.Sprintf("season %q: month_start and month_end must be set together", se.Name))
		}
		if !monthRange && se.DayStart == nil && se.DayEnd == nil {
			return apperror.NewValidation(fmt.Sprintf("season %q: needs day bounds or a month range", se.Name))
		}
	}
	return s.repo.SetSeasons(ctx, calendarID, seasons)
}

// SetEras replaces all eras.
func (s *calendarService) SetEras(ctx context.Context, calendarID int64, eras []EraInput) error {
	for i := range eras {
		e := &eras[i]
		e.Name = sanitize.Name(e.Name)
		e.Abbreviation = sanitize.Name(e.Abbreviation)
		if e.Name == "" {
			return apperror.NewValidation(fmt.Sprintf("era %d: name is required", i+1))
		}
		if e.EndYear != nil && *e.EndYear < e.StartYear {
			return apperror.NewValidation(fmt.Sprintf("era %q: end_year is before start_year", e.Name))
		}
		if e.Format != "" && e.Format != engine.EraFormatPrefix && e.Format != engine.EraFormatSuffix {
			return apperror.NewValidation(fmt.Sprintf("era %q: format must be %q or %q", e.Name, engine.EraFormatPrefix, engine.EraFormatSuffix))
		}
	}
	return s.repo.SetEras(ctx, calendarID, eras)
}

// SetCycles replaces all cycles.
func (s *calendarService) SetCycles(ctx context.Context, calendarID int64, cycles []CycleInput) error {
	for i := range cycles {
		cy := &cycles[i]
		cy.Name = sanitize.Name(cy.Name)
		if cy.Name == "" {
			return apperror.NewValidation(fmt.Sprintf("cycle %d: name is required", i+1))
		}
		if cy.Length < 1 {
			return apperror.NewValidation(fmt.Sprintf("cycle %q: length must be at least 1", cy.Name))
		}
		if !validCycleBases[cy.BasedOn] {
			return apperror.NewValidation(fmt.Sprintf("cycle %q: unknown based_on %q", cy.Name, cy.BasedOn))
		}
		if len(cy.Entries) == 0 {
			return apperror.NewValidation(fmt.Sprintf("cycle %q: at least one entry is required", cy.Name))
		}
		for j, entry := range cy.Entries {
			cy.Entries[j] = sanitize.Name(entry)
			if cy.Entries[j] == "" {
				return apperror.NewValidation(fmt.Sprintf("cycle %q: entry %d needs a name", cy.Name, j+1))
			}
		}
	}
	return s.repo.SetCycles(ctx, calendarID, cycles)
}

// AdvanceDate moves the stored current date by the given number of
// days (negative rolls backward) and returns the updated calendar.
func (s *calendarService) AdvanceDate(ctx context.Context, calendarID int64, days int) (*Calendar, error) {
	cal, err := s.GetCalendar(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	if len(cal.Months) == 0 {
		return nil, apperror.NewValidation("calendar has no months configured")
	}

	pt := cal.ToEngine().AdvanceDays(cal.CurrentDate(), days)
	cal.CurrentYear = pt.Year
	cal.CurrentMonth = pt.Month
	cal.CurrentDay = pt.Day

	if err := s.repo.Update(ctx, cal); err != nil {
		return nil, fmt.Errorf("update calendar: %w", err)
	}
	cal.Version++
	return cal, nil
}

// ExportCalendar builds the portable export envelope for a calendar.
func (s *calendarService) ExportCalendar(ctx context.Context, calendarID int64) (*CalendarExport, error) {
	cal, err := s.GetCalendar(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	return BuildExport(cal), nil
}

// ImportCalendar creates a new calendar from an export envelope. The
// imported definition goes through the same validation as the normal
// create and bulk-replace paths. On validation failure partway through,
// the half-created calendar is removed.
func (s *calendarService) ImportCalendar(ctx context.Context, data []byte) (*Calendar, error) {
	export, err := ParseExport(data)
	if err != nil {
		return nil, err
	}
	def := export.Calendar

	cal, err := s.CreateCalendar(ctx, CreateCalendarInput{
		Name:           def.Name,
		Description:    def.Description,
		HoursPerDay:    def.HoursPerDay,
		LeapRule:       def.LeapRule,
		LeapInterval:   def.LeapInterval,
		LeapStart:      def.LeapStart,
		LeapPattern:    def.LeapPattern,
		YearZeroExists: def.YearZeroExists,
		YearZeroOffset: def.YearZeroOffset,
		CurrentYear:    def.CurrentYear,
	})
	if err != nil {
		return nil, err
	}

	if err := s.applyImport(ctx, cal.ID, def); err != nil {
		// Best effort cleanup so a bad file doesn't leave a stub behind.
		if delErr := s.repo.Delete(ctx, cal.ID); delErr != nil {
			slog.Warn("failed to clean up partial import",
				slog.Int64("calendar_id", cal.ID),
				slog.Any("error", delErr),
			)
		}
		return nil, err
	}

	slog.Info("imported calendar",
		slog.Int64("calendar_id", cal.ID),
		slog.String("name", cal.Name),
	)
	return s.GetCalendar(ctx, cal.ID)
}

// applyImport applies the remaining settings and sub-resources of an
// export to a freshly created calendar.
func (s *calendarService) applyImport(ctx context.Context, calendarID int64, def ExportCalendar) error {
	err := s.UpdateCalendar(ctx, calendarID, UpdateCalendarInput{
		Name:            def.Name,
		Description:     def.Description,
		HoursPerDay:     def.HoursPerDay,
		LeapRule:        def.LeapRule,
		LeapInterval:    def.LeapInterval,
		LeapStart:       def.LeapStart,
		LeapPattern:     def.LeapPattern,
		YearZeroExists:  def.YearZeroExists,
		YearZeroOffset:  def.YearZeroOffset,
		CycleFormat:     def.CycleFormat,
		DaylightEnabled: def.DaylightEnabled,
		ShortestDay:     def.ShortestDay,
		LongestDay:      def.LongestDay,
		WinterSolstice:  def.WinterSolstice,
		SummerSolstice:  def.SummerSolstice,
		CurrentYear:     def.CurrentYear,
		CurrentMonth:    def.CurrentMonth,
		CurrentDay:      def.CurrentDay,
		CurrentHour:     def.CurrentHour,
		CurrentMinute:   def.CurrentMinute,
	})
	if err != nil {
		return err
	}

	if len(def.Months) > 0 {
		if err := s.SetMonths(ctx, calendarID, def.Months); err != nil {
			return err
		}
	}
	if len(def.Moons) > 0 {
		if err := s.SetMoons(ctx, calendarID, def.Moons); err != nil {
			return err
		}
	}
	if len(def.Seasons) > 0 {
		if err := s.SetSeasons(ctx, calendarID, def.Seasons); err != nil {
			return err
		}
	}
	if len(def.Eras) > 0 {
		if err := s.SetEras(ctx, calendarID, def.Eras); err != nil {
			return err
		}
	}
	if len(def.Cycles) > 0 {
		if err := s.SetCycles(ctx, calendarID, def.Cycles); err != nil {
			return err
		}
	}
	return nil
}
