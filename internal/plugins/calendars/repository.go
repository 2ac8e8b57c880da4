package calendars

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// CalendarRepository defines persistence operations for calendar
// definitions. Every mutation bumps the calendar's version column in
// the same transaction so snapshot caches never serve stale data.
type CalendarRepository interface {
	Create(ctx context.Context, cal *Calendar) error
	GetByID(ctx context.Context, id int64) (*Calendar, error)
	List(ctx context.Context) ([]Calendar, error)
	Update(ctx context.Context, cal *Calendar) error
	Delete(ctx context.Context, id int64) error

	// Sub-resource bulk replacement (delete + insert in one transaction).
	SetMonths(ctx context.Context, calendarID int64, months []MonthInput) error
	GetMonths(ctx context.Context, calendarID int64) ([]Month, error)
	SetMoons(ctx context.Context, calendarID int64, moons []MoonInput) error
	GetMoons(ctx context.Context, calendarID int64) ([]Moon, error)
	SetSeasons(ctx context.Context, calendarID int64, seasons []SeasonInput) error
	GetSeasons(ctx context.Context, calendarID int64) ([]Season, error)
	SetEras(ctx context.Context, calendarID int64, eras []EraInput) error
	GetEras(ctx context.Context, calendarID int64) ([]Era, error)
	SetCycles(ctx context.Context, calendarID int64, cycles []CycleInput) error
	GetCycles(ctx context.Context, calendarID int64) ([]Cycle, error)
}

// calendarRepo is the MariaDB implementation of CalendarRepository.
type calendarRepo struct {
	db *sql.DB
}

// NewCalendarRepository creates a new MariaDB-backed calendar repository.
func NewCalendarRepository(db *sql.DB) CalendarRepository {
	return &calendarRepo{db: db}
}

// calendarCols is the column list for calendar queries.
const calendarCols = `id, name, description, hours_per_day,
        leap_rule, leap_interval, leap_start, leap_pattern,
        year_zero_exists, year_zero_offset, cycle_format,
        daylight_enabled, shortest_day, longest_day, winter_solstice, summer_solstice,
        current_year, current_month, current_day, current_hour, current_minute,
        version, created_at, updated_at`

// scanCalendar reads a row into a Calendar struct.
func scanCalendar(scanner interface{ Scan(...any) error }) (*Calendar, error) {
	cal := &Calendar{}
	err := scanner.Scan(&cal.ID, &cal.Name, &cal.Description, &cal.HoursPerDay,
		&cal.LeapRule, &cal.LeapInterval, &cal.LeapStart, &cal.LeapPattern,
		&cal.YearZeroExists, &cal.YearZeroOffset, &cal.CycleFormat,
		&cal.DaylightEnabled, &cal.ShortestDay, &cal.LongestDay, &cal.WinterSolstice, &cal.SummerSolstice,
		&cal.CurrentYear, &cal.CurrentMonth, &cal.CurrentDay, &cal.CurrentHour, &cal.CurrentMinute,
		&cal.Version, &cal.CreatedAt, &cal.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return cal, err
}

// Create inserts a new calendar and assigns its generated ID.
func (r *calendarRepo) Create(ctx context.Context, cal *Calendar) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO almanac_calendars (name, description, hours_per_day,
		        leap_rule, leap_interval, leap_start, leap_pattern,
		        year_zero_exists, year_zero_offset, cycle_format,
		        daylight_enabled, shortest_day, longest_day, winter_solstice, summer_solstice,
		        current_year, current_month, current_day, current_hour, current_minute, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		cal.Name, cal.Description, cal.HoursPerDay,
		cal.LeapRule, cal.LeapInterval, cal.LeapStart, cal.LeapPattern,
		cal.YearZeroExists, cal.YearZeroOffset, cal.CycleFormat,
		cal.DaylightEnabled, cal.ShortestDay, cal.LongestDay, cal.WinterSolstice, cal.SummerSolstice,
		cal.CurrentYear, cal.CurrentMonth, cal.CurrentDay, cal.CurrentHour, cal.CurrentMinute,
	)
	if err != nil {
		return err
	}
	cal.ID, err = res.LastInsertId()
	cal.Version = 1
	return err
}

// GetByID returns a calendar by its ID without sub-resources.
func (r *calendarRepo) GetByID(ctx context.Context, id int64) (*Calendar, error) {
	return scanCalendar(r.db.QueryRowContext(ctx,
		`SELECT `+calendarCols+` FROM almanac_calendars WHERE id = ?`, id))
}

// List returns all calendars without sub-resources, newest first.
func (r *calendarRepo) List(ctx context.Context) ([]Calendar, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+calendarCols+` FROM almanac_calendars ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cals []Calendar
	for rows.Next() {
		cal, err := scanCalendar(rows)
		if err != nil {
			return nil, err
		}
		cals = append(cals, *cal)
	}
	return cals, rows.Err()
}

// Update modifies a calendar's settings and current date, bumping the
// version.
func (r *calendarRepo) Update(ctx context.Context, cal *Calendar) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE almanac_calendars SET name = ?, description = ?, hours_per_day = ?,
		        leap_rule = ?, leap_interval = ?, leap_start = ?, leap_pattern = ?,
		        year_zero_exists = ?, year_zero_offset = ?, cycle_format = ?,
		        daylight_enabled = ?, shortest_day = ?, longest_day = ?,
		        winter_solstice = ?, summer_solstice = ?,
		        current_year = ?, current_month = ?, current_day = ?,
		        current_hour = ?, current_minute = ?,
		        version = version + 1
		 WHERE id = ?`,
		cal.Name, cal.Description, cal.HoursPerDay,
		cal.LeapRule, cal.LeapInterval, cal.LeapStart, cal.LeapPattern,
		cal.YearZeroExists, cal.YearZeroOffset, cal.CycleFormat,
		cal.DaylightEnabled, cal.ShortestDay, cal.LongestDay,
		cal.WinterSolstice, cal.SummerSolstice,
		cal.CurrentYear, cal.CurrentMonth, cal.CurrentDay,
		cal.CurrentHour, cal.CurrentMinute,
		cal.ID,
	)
	return err
}

// Delete removes a calendar and all child records (cascaded by FK).
func (r *calendarRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM almanac_calendars WHERE id = ?`, id)
	return err
}

// replaceChildren runs a delete + insert-all + version-bump transaction.
func (r *calendarRepo) replaceChildren(ctx context.Context, calendarID int64, deleteQuery string, insert func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteQuery, calendarID); err != nil {
		return err
	}
	if err := insert(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE almanac_calendars SET version = version + 1 WHERE id = ?`, calendarID); err != nil {
		return err
	}
	return tx.Commit()
}

// SetMonths replaces all months for a calendar.
func (r *calendarRepo) SetMonths(ctx context.Context, calendarID int64, months []MonthInput) error {
	return r.replaceChildren(ctx, calendarID,
		`DELETE FROM almanac_months WHERE calendar_id = ?`,
		func(tx *sql.Tx) error {
			for i, m := range months {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO almanac_months (calendar_id, name, abbreviation, days, leap_days, sort_order)
					 VALUES (?, ?, ?, ?, ?, ?)`,
					calendarID, m.Name, m.Abbreviation, m.Days, m.LeapDays, i,
				); err != nil {
					return err
				}
			}
			return nil
		})
}

// GetMonths returns all months for a calendar ordered by sort_order.
func (r *calendarRepo) GetMonths(ctx context.Context, calendarID int64) ([]Month, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, calendar_id, name, abbreviation, days, leap_days, sort_order
		 FROM almanac_months WHERE calendar_id = ? ORDER BY sort_order`, calendarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var months []Month
	for rows.Next() {
		var m Month
		if err := rows.Scan(&m.ID, &m.CalendarID, &m.Name, &m.Abbreviation, &m.Days, &m.LeapDays, &m.SortOrder); err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

// SetMoons replaces all moons for a calendar. Phase tables are stored
// as a JSON column.
func (r *calendarRepo) SetMoons(ctx context.Context, calendarID int64, moons []MoonInput) error {
	return r.replaceChildren(ctx, calendarID,
		`DELETE FROM almanac_moons WHERE calendar_id = ?`,
		func(tx *sql.Tx) error {
			for i, m := range moons {
				phases, err := json.Marshal(m.Phases)
				if err != nil {
					return fmt.Errorf("encode phases for moon %q: %w", m.Name, err)
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO almanac_moons (calendar_id, name, cycle_length, cycle_day_adjust,
					        ref_year, ref_month, ref_day, phases, sort_order)
					 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					calendarID, m.Name, m.CycleLength, m.CycleDayAdjust,
					m.RefYear, m.RefMonth, m.RefDay, phases, i,
				); err != nil {
					return err
				}
			}
			return nil
		})
}

// GetMoons returns all moons for a calendar ordered by sort_order.
func (r *calendarRepo) GetMoons(ctx context.Context, calendarID int64) ([]Moon, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, calendar_id, name, cycle_length, cycle_day_adjust,
		        ref_year, ref_month, ref_day, phases, sort_order
		 FROM almanac_moons WHERE calendar_id = ? ORDER BY sort_order`, calendarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moons []Moon
	for rows.Next() {
		var m Moon
		var phases []byte
		if err := rows.Scan(&m.ID, &m.CalendarID, &m.Name, &m.CycleLength, &m.CycleDayAdjust,
			&m.RefYear, &m.RefMonth, &m.RefDay, &phases, &m.SortOrder); err != nil {
			return nil, err
		}
		if len(phases) > 0 {
			if err := json.Unmarshal(phases, &m.Phases); err != nil {
				return nil, fmt.Errorf("decode phases for moon %d: %w", m.ID, err)
			}
		}
		moons = append(moons, m)
	}
	return moons, rows.Err()
}

// SetSeasons replaces all seasons for a calendar.
func (r *calendarRepo) SetSeasons(ctx context.Context, calendarID int64, seasons []SeasonInput) error {
	return r.replaceChildren(ctx, calendarID,
		`DELETE FROM almanac_seasons WHERE calendar_id = ?`,
		func(tx *sql.Tx) error {
			for i, s := range seasons {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO almanac_seasons (calendar_id, name, color, day_start, day_end,
					        month_start, month_end, sort_order)
					 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
					calendarID, s.Name, s.Color, s.DayStart, s.DayEnd,
					s.MonthStart, s.MonthEnd, i,
				); err != nil {
					return err
				}
			}
			return nil
		})
}

// GetSeasons returns all seasons for a calendar ordered by sort_order.
func (r *calendarRepo) GetSeasons(ctx context.Context, calendarID int64) ([]Season, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, calendar_id, name, color, day_start, day_end, month_start, month_end, sort_order
		 FROM almanac_seasons WHERE calendar_id = ? ORDER BY sort_order`, calendarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seasons []Season
	for rows.Next() {
		var s Season
		if err := rows.Scan(&s.ID, &s.CalendarID, &s.Name, &s.Color, &s.DayStart, &s.DayEnd,
			&s.MonthStart, &s.MonthEnd, &s.SortOrder); err != nil {
			return nil, err
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}

// SetEras replaces all eras for a calendar.
func (r *calendarRepo) SetEras(ctx context.Context, calendarID int64, eras []EraInput) error {
	return r.replaceChildren(ctx, calendarID,
		`DELETE FROM almanac_eras WHERE calendar_id = ?`,
		func(tx *sql.Tx) error {
			for i, e := range eras {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO almanac_eras (calendar_id, name, abbreviation, start_year, end_year,
					        format, template, sort_order)
					 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
					calendarID, e.Name, e.Abbreviation, e.StartYear, e.EndYear,
					e.Format, e.Template, i,
				); err != nil {
					return err
				}
			}
			return nil
		})
}

// GetEras returns all eras for a calendar ordered by sort_order.
func (r *calendarRepo) GetEras(ctx context.Context, calendarID int64) ([]Era, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, calendar_id, name, abbreviation, start_year, end_year, format, template, sort_order
		 FROM almanac_eras WHERE calendar_id = ? ORDER BY sort_order`, calendarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var eras []Era
	for rows.Next() {
		var e Era
		if err := rows.Scan(&e.ID, &e.CalendarID, &e.Name, &e.Abbreviation, &e.StartYear, &e.EndYear,
			&e.Format, &e.Template, &e.SortOrder); err != nil {
			return nil, err
		}
		eras = append(eras, e)
	}
	return eras, rows.Err()
}

// SetCycles replaces all cycles for a calendar. Entry lists are stored
// as a JSON column.
func (r *calendarRepo) SetCycles(ctx context.Context, calendarID int64, cycles []CycleInput) error {
	return r.replaceChildren(ctx, calendarID,
		`DELETE FROM almanac_cycles WHERE calendar_id = ?`,
		func(tx *sql.Tx) error {
			for i, cy := range cycles {
				entries, err := json.Marshal(cy.Entries)
				if err != nil {
					return fmt.Errorf("encode entries for cycle %q: %w", cy.Name, err)
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO almanac_cycles (calendar_id, name, length, cycle_offset,
					        based_on, entries, sort_order)
					 VALUES (?, ?, ?, ?, ?, ?, ?)`,
					calendarID, cy.Name, cy.Length, cy.Offset, cy.BasedOn, entries, i,
				); err != nil {
					return err
				}
			}
			return nil
		})
}

// GetCycles returns all cycles for a calendar ordered by sort_order.
func (r *calendarRepo) GetCycles(ctx context.Context, calendarID int64) ([]Cycle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, calendar_id, name, length, cycle_offset, based_on, entries, sort_order
		 FROM almanac_cycles WHERE calendar_id = ? ORDER BY sort_order`, calendarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var cy Cycle
		var entries []byte
		if err := rows.Scan(&cy.ID, &cy.CalendarID, &cy.Name, &cy.Length, &cy.Offset,
			&cy.BasedOn, &entries, &cy.SortOrder); err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			if err := json.Unmarshal(entries, &cy.Entries); err != nil {
				return nil, fmt.Errorf("decode entries for cycle %d: %w", cy.ID, err)
			}
		}
		cycles = append(cycles, cy)
	}
	return cycles, rows.Err()
}
