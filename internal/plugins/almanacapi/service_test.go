package almanacapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/wyrmroot/almanac/internal/apperror"
	"github.com/wyrmroot/almanac/internal/plugins/calendars"
)

// --- Mock Repository ---

// mockKeyRepo implements APIKeyRepository for testing.
type mockKeyRepo struct {
	createKeyFn        func(ctx context.Context, key *APIKey) error
	findKeyByIDFn      func(ctx context.Context, id int64) (*APIKey, error)
	findKeyByPrefixFn  func(ctx context.Context, prefix string) (*APIKey, error)
	listKeysFn         func(ctx context.Context) ([]APIKey, error)
	updateKeyActiveFn  func(ctx context.Context, id int64, active bool) error
	updateKeyLastUsedF func(ctx context.Context, id int64) error
	deleteKeyFn        func(ctx context.Context, id int64) error
}

func (m *mockKeyRepo) CreateKey(ctx context.Context, key *APIKey) error {
	if m.createKeyFn != nil {
		return m.createKeyFn(ctx, key)
	}
	key.ID = 1
	return nil
}

func (m *mockKeyRepo) FindKeyByID(ctx context.Context, id int64) (*APIKey, error) {
	if m.findKeyByIDFn != nil {
		return m.findKeyByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("api key not found")
}

func (m *mockKeyRepo) FindKeyByPrefix(ctx context.Context, prefix string) (*APIKey, error) {
	if m.findKeyByPrefixFn != nil {
		return m.findKeyByPrefixFn(ctx, prefix)
	}
	return nil, apperror.NewNotFound("api key not found")
}

func (m *mockKeyRepo) ListKeys(ctx context.Context) ([]APIKey, error) {
	if m.listKeysFn != nil {
		return m.listKeysFn(ctx)
	}
	return nil, nil
}

func (m *mockKeyRepo) UpdateKeyActive(ctx context.Context, id int64, active bool) error {
	if m.updateKeyActiveFn != nil {
		return m.updateKeyActiveFn(ctx, id, active)
	}
	return nil
}

func (m *mockKeyRepo) UpdateKeyLastUsed(ctx context.Context, id int64) error {
	if m.updateKeyLastUsedF != nil {
		return m.updateKeyLastUsedF(ctx, id)
	}
	return nil
}

func (m *mockKeyRepo) DeleteKey(ctx context.Context, id int64) error {
	if m.deleteKeyFn != nil {
		return m.deleteKeyFn(ctx, id)
	}
	return nil
}

// mockCalendarService implements calendars.CalendarService; only
// GetCalendar matters to the query API.
type mockCalendarService struct {
	getFn func(ctx context.Context, calendarID int64) (*calendars.Calendar, error)
}

func (m *mockCalendarService) GetCalendar(ctx context.Context, calendarID int64) (*calendars.Calendar, error) {
	if m.getFn != nil {
		return m.getFn(ctx, calendarID)
	}
	return nil, apperror.NewNotFound("calendar not found")
}

func (m *mockCalendarService) CreateCalendar(ctx context.Context, input calendars.CreateCalendarInput) (*calendars.Calendar, error) {
	return nil, nil
}
func (m *mockCalendarService) ListCalendars(ctx context.Context) ([]calendars.Calendar, error) {
	return nil, nil
}
func (m *mockCalendarService) UpdateCalendar(ctx context.Context, calendarID int64, input calendars.UpdateCalendarInput) error {
	return nil
}
func (m *mockCalendarService) DeleteCalendar(ctx context.Context, calendarID int64) error {
	return nil
}
func (m *mockCalendarService) SetMonths(ctx context.Context, calendarID int64, months []calendars.MonthInput) error {
	return nil
}
func (m *mockCalendarService) SetMoons(ctx context.Context, calendarID int64, moons []calendars.MoonInput) error {
	return nil
}
func (m *mockCalendarService) SetSeasons(ctx context.Context, calendarID int64, seasons []calendars.SeasonInput) error {
	return nil
}
func (m *mockCalendarService) SetEras(ctx context.Context, calendarID int64, eras []calendars.EraInput) error {
	return nil
}
func (m *mockCalendarService) SetCycles(ctx context.Context, calendarID int64, cycles []calendars.CycleInput) error {
	return nil
}
func (m *mockCalendarService) AdvanceDate(ctx context.Context, calendarID int64, days int) (*calendars.Calendar, error) {
	return nil, nil
}
func (m *mockCalendarService) ExportCalendar(ctx context.Context, calendarID int64) (*calendars.CalendarExport, error) {
	return nil, nil
}
func (m *mockCalendarService) ImportCalendar(ctx context.Context, data []byte) (*calendars.Calendar, error) {
	return nil, nil
}

// --- Test Helpers ---

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// storedCalendar creates a loaded 10x30-day calendar definition.
func storedCalendar() *calendars.Calendar {
	cal := &calendars.Calendar{
		ID:           3,
		Name:         "Reckoning",
		CurrentYear:  1000,
		CurrentMonth: 1,
		CurrentDay:   5,
		Version:      2,
	}
	for i := 0; i < 10; i++ {
		cal.Months = append(cal.Months, calendars.Month{
			ID: int64(i + 1), CalendarID: 3, Name: "Month", Days: 30, SortOrder: i,
		})
	}
	return cal
}

// testCache spins up a miniredis-backed client.
func testCache(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func intQuery(v int) *int { return &v }

// --- Key Management Tests ---

func TestCreateKey_GeneratesPrefixedKey(t *testing.T) {
	svc := NewAlmanacService(&mockKeyRepo{}, &mockCalendarService{}, nil, time.Hour)

	result, err := svc.CreateKey(context.Background(), CreateAPIKeyInput{Name: "foundry"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(result.RawKey, keyScheme) {
		t.Errorf("raw key %q missing %q scheme", result.RawKey, keyScheme)
	}
	if len(result.RawKey) != len(keyScheme)+keyBytes*2 {
		t.Errorf("raw key length = %d", len(result.RawKey))
	}
	if result.Key.KeyPrefix != result.RawKey[:keyPrefixLen] {
		t.Errorf("prefix %q does not match raw key", result.Key.KeyPrefix)
	}
	if !result.Key.IsActive {
		t.Error("new key should be active")
	}
	if result.Key.RateLimit != 60 {
		t.Errorf("default rate limit = %d, want 60", result.Key.RateLimit)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(result.Key.KeyHash), []byte(result.RawKey)); err != nil {
		t.Errorf("stored hash does not verify the raw key: %v", err)
	}
}

func TestCreateKey_Validation(t *testing.T) {
	svc := NewAlmanacService(&mockKeyRepo{}, &mockCalendarService{}, nil, time.Hour)

	_, err := svc.CreateKey(context.Background(), CreateAPIKeyInput{Name: "  "})
	assertAppError(t, err, http.StatusBadRequest)

	_, err = svc.CreateKey(context.Background(), CreateAPIKeyInput{Name: "greedy", RateLimit: 5000})
	assertAppError(t, err, http.StatusBadRequest)
}

func TestAuthenticateKey(t *testing.T) {
	var stored *APIKey
	repo := &mockKeyRepo{
		createKeyFn: func(ctx context.Context, key *APIKey) error {
			key.ID = 9
			stored = key
			return nil
		},
		findKeyByPrefixFn: func(ctx context.Context, prefix string) (*APIKey, error) {
			if stored != nil && stored.KeyPrefix == prefix {
				return stored, nil
			}
			return nil, apperror.NewNotFound("api key not found")
		},
	}
	svc := NewAlmanacService(repo, &mockCalendarService{}, nil, time.Hour)

	result, err := svc.CreateKey(context.Background(), CreateAPIKeyInput{Name: "bot"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key, err := svc.AuthenticateKey(context.Background(), result.RawKey)
	if err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
	if key.ID != 9 {
		t.Errorf("wrong key returned: %+v", key)
	}

	// Same prefix, wrong secret.
	forged := result.RawKey[:keyPrefixLen] + strings.Repeat("0", keyBytes*2-keyPrefixLen+len(keyScheme))
	_, err = svc.AuthenticateKey(context.Background(), forged)
	assertAppError(t, err, http.StatusUnauthorized)

	// Missing scheme.
	_, err = svc.AuthenticateKey(context.Background(), "plainkey")
	assertAppError(t, err, http.StatusUnauthorized)

	// Deactivated.
	stored.IsActive = false
	_, err = svc.AuthenticateKey(context.Background(), result.RawKey)
	assertAppError(t, err, http.StatusForbidden)
	stored.IsActive = true

	// Expired.
	past := time.Now().Add(-time.Hour)
	stored.ExpiresAt = &past
	_, err = svc.AuthenticateKey(context.Background(), result.RawKey)
	assertAppError(t, err, http.StatusForbidden)
}

// --- Snapshot Tests ---

func TestSnapshot_DefaultsToCurrentDate(t *testing.T) {
	cal := storedCalendar()
	svc := NewAlmanacService(&mockKeyRepo{}, &mockCalendarService{
		getFn: func(ctx context.Context, calendarID int64) (*calendars.Calendar, error) {
			return cal, nil
		},
	}, nil, time.Hour)

	snap, err := svc.Snapshot(context.Background(), 3, SnapshotQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Year != 1000 || snap.Month != 1 || snap.Day != 5 {
		t.Errorf("snapshot at %d/%d/%d, want stored current date", snap.Year, snap.Month, snap.Day)
	}
	if snap.DaysInYear != 300 {
		t.Errorf("days in year = %d, want 300", snap.DaysInYear)
	}
}

func TestSnapshot_QueryOverridesComponents(t *testing.T) {
	cal := storedCalendar()
	svc := NewAlmanacService(&mockKeyRepo{}, &mockCalendarService{
		getFn: func(ctx context.Context, calendarID int64) (*calendars.Calendar, error) {
			return cal, nil
		},
	}, nil, time.Hour)

	snap, err := svc.Snapshot(context.Background(), 3, SnapshotQuery{
		Year: intQuery(1200),
		Day:  intQuery(20),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Month falls back to the stored current month.
	if snap.Year != 1200 || snap.Month != 1 || snap.Day != 20 {
		t.Errorf("snapshot at %d/%d/%d", snap.Year, snap.Month, snap.Day)
	}
}

func TestSnapshot_CacheKeyedOnVersion(t *testing.T) {
	cal := storedCalendar()
	cache := testCache(t)
	svc := NewAlmanacService(&mockKeyRepo{}, &mockCalendarService{
		getFn: func(ctx context.Context, calendarID int64) (*calendars.Calendar, error) {
			return cal, nil
		},
	}, cache, time.Hour)
	ctx := context.Background()

	first, err := svc.Snapshot(ctx, 3, SnapshotQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.DaysInYear != 300 {
		t.Fatalf("days in year = %d, want 300", first.DaysInYear)
	}

	// Change the definition without bumping the version. The cached
	// snapshot must still be served for the same version.
	cal.Months[0].Days = 40
	second, err := svc.Snapshot(ctx, 3, SnapshotQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.DaysInYear != 300 {
		t.Errorf("cache miss: days in year = %d, want cached 300", second.DaysInYear)
	}

	// A version bump changes the cache key and picks up the new months.
	cal.Version++
	third, err := svc.Snapshot(ctx, 3, SnapshotQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third.DaysInYear != 310 {
		t.Errorf("after version bump days in year = %d, want 310", third.DaysInYear)
	}
}

func TestSnapshot_CalendarNotFound(t *testing.T) {
	svc := NewAlmanacService(&mockKeyRepo{}, &mockCalendarService{}, nil, time.Hour)

	_, err := svc.Snapshot(context.Background(), 99, SnapshotQuery{})
	assertAppError(t, err, http.StatusNotFound)
}

func TestMoonPhases_EmptyWithoutMoons(t *testing.T) {
	cal := storedCalendar()
	svc := NewAlmanacService(&mockKeyRepo{}, &mockCalendarService{
		getFn: func(ctx context.Context, calendarID int64) (*calendars.Calendar, error) {
			return cal, nil
		},
	}, nil, time.Hour)

	moons, err := svc.MoonPhases(context.Background(), 3, SnapshotQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(moons) != 0 {
		t.Errorf("expected no moon results, got %d", len(moons))
	}
}
