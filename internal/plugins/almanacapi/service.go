package almanacapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/wyrmroot/almanac/internal/apperror"
	"github.com/wyrmroot/almanac/internal/engine"
	"github.com/wyrmroot/almanac/internal/plugins/calendars"
)

// keyBytes is the number of random bytes in a generated API key.
const keyBytes = 32

// keyPrefixLen is the length of the prefix stored for key identification.
const keyPrefixLen = 8

// keyScheme prefixes every raw key so leaked keys are recognizable in
// secret scanners.
const keyScheme = "alm_"

// AlmanacService handles API key management and almanac queries.
type AlmanacService interface {
	// Key management.
	CreateKey(ctx context.Context, input CreateAPIKeyInput) (*CreateAPIKeyResult, error)
	GetKey(ctx context.Context, id int64) (*APIKey, error)
	ListKeys(ctx context.Context) ([]APIKey, error)
	ActivateKey(ctx context.Context, id int64) error
	DeactivateKey(ctx context.Context, id int64) error
	RevokeKey(ctx context.Context, id int64) error

	// Authentication.
	AuthenticateKey(ctx context.Context, rawKey string) (*APIKey, error)
	TouchKey(ctx context.Context, id int64) error

	// Almanac queries.
	Snapshot(ctx context.Context, calendarID int64, q SnapshotQuery) (*engine.Snapshot, error)
	MoonPhases(ctx context.Context, calendarID int64, q SnapshotQuery) ([]engine.MoonPhaseResult, error)
	Daylight(ctx context.Context, calendarID int64, q SnapshotQuery) (*engine.DaylightTimes, error)
}

// almanacService implements AlmanacService.
type almanacService struct {
	keys      APIKeyRepository
	calendars calendars.CalendarService
	cache     *redis.Client
	cacheTTL  time.Duration
}

// NewAlmanacService creates an AlmanacService. The Redis client may be
// nil, in which case every snapshot is computed fresh.
func NewAlmanacService(keys APIKeyRepository, cals calendars.CalendarService, cache *redis.Client, cacheTTL time.Duration) AlmanacService {
	return &almanacService{
		keys:      keys,
		calendars: cals,
		cache:     cache,
		cacheTTL:  cacheTTL,
	}
}

// --- Key Management ---

// CreateKey generates a new API key with bcrypt-hashed storage.
func (s *almanacService) CreateKey(ctx context.Context, input CreateAPIKeyInput) (*CreateAPIKeyResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewBadRequest("key name is required")
	}
	if input.RateLimit <= 0 {
		input.RateLimit = 60 // Default.
	}
	if input.RateLimit > 1000 {
		return nil, apperror.NewBadRequest("rate limit cannot exceed 1000 requests per minute")
	}

	// Generate random key.
	raw := make([]byte, keyBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("generating key: %w", err))
	}
	rawKey := keyScheme + hex.EncodeToString(raw)
	prefix := rawKey[:keyPrefixLen]

	// Hash for storage.
	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing key: %w", err))
	}

	key := &APIKey{
		KeyHash:   string(hash),
		KeyPrefix: prefix,
		Name:      name,
		RateLimit: input.RateLimit,
		IsActive:  true,
		ExpiresAt: input.ExpiresAt,
	}

	if err := s.keys.CreateKey(ctx, key); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating key: %w", err))
	}

	slog.Info("api key created",
		slog.String("prefix", prefix),
		slog.String("name", name),
	)

	return &CreateAPIKeyResult{Key: key, RawKey: rawKey}, nil
}

// GetKey retrieves an API key by ID.
func (s *almanacService) GetKey(ctx context.Context, id int64) (*APIKey, error) {
	return s.keys.FindKeyByID(ctx, id)
}

// ListKeys returns all registered API keys.
func (s *almanacService) ListKeys(ctx context.Context) ([]APIKey, error) {
	return s.keys.ListKeys(ctx)
}

// ActivateKey enables an API key.
func (s *almanacService) ActivateKey(ctx context.Context, id int64) error {
	if err := s.keys.UpdateKeyActive(ctx, id, true); err != nil {
		return err
	}
	slog.Info("api key activated", slog.Int64("id", id))
	return nil
}

// DeactivateKey disables an API key without deleting it.
func (s *almanacService) DeactivateKey(ctx context.Context, id int64) error {
	if err := s.keys.UpdateKeyActive(ctx, id, false); err != nil {
		return err
	}
	slog.Info("api key deactivated", slog.Int64("id", id))
	return nil
}

// RevokeKey permanently deletes an API key.
func (s *almanacService) RevokeKey(ctx context.Context, id int64) error {
	if err := s.keys.DeleteKey(ctx, id); err != nil {
		return err
	}
	slog.Info("api key revoked", slog.Int64("id", id))
	return nil
}

// AuthenticateKey validates a raw API key and returns the associated
// key record. It extracts the prefix, looks up the key, and verifies
// with bcrypt.
func (s *almanacService) AuthenticateKey(ctx context.Context, rawKey string) (*APIKey, error) {
	if len(rawKey) < keyPrefixLen || !strings.HasPrefix(rawKey, keyScheme) {
		return nil, apperror.NewUnauthorized("invalid api key format")
	}

	prefix := rawKey[:keyPrefixLen]
	key, err := s.keys.FindKeyByPrefix(ctx, prefix)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid api key")
	}

	// Verify the full key against the stored hash.
	if err := bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(rawKey)); err != nil {
		return nil, apperror.NewUnauthorized("invalid api key")
	}

	if !key.IsActive {
		return nil, apperror.NewForbidden("api key is deactivated")
	}
	if key.IsExpired() {
		return nil, apperror.NewForbidden("api key has expired")
	}

	return key, nil
}

// TouchKey records a key's last usage time. Failures are non-critical.
func (s *almanacService) TouchKey(ctx context.Context, id int64) error {
	if err := s.keys.UpdateKeyLastUsed(ctx, id); err != nil {
		slog.Warn("failed to update key last used", slog.Any("error", err))
	}
	return nil
}

// --- Almanac Queries ---

// snapshotCacheKey builds the Redis key for a cached snapshot. The
// definition version is part of the key, so mutations never serve
// stale snapshots; old versions simply age out via TTL.
func snapshotCacheKey(calendarID int64, version int, pt engine.PointInTime) string {
	return fmt.Sprintf("almanac:%d:v%d:%d-%d-%d-%d-%d-%d",
		calendarID, version, pt.Year, pt.Month, pt.Day, pt.Hour, pt.Minute, pt.Second)
}

// Snapshot computes (or serves from cache) the full set of calendar
// facts for a point in time. Omitted query components fall back to the
// calendar's stored current date.
func (s *almanacService) Snapshot(ctx context.Context, calendarID int64, q SnapshotQuery) (*engine.Snapshot, error) {
	cal, err := s.calendars.GetCalendar(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	pt := q.Resolve(cal.CurrentDate())

	cacheKey := snapshotCacheKey(cal.ID, cal.Version, pt)
	if s.cache != nil {
		data, err := s.cache.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var snap engine.Snapshot
			if jsonErr := json.Unmarshal(data, &snap); jsonErr == nil {
				return &snap, nil
			}
			// Corrupt entry, recompute and overwrite.
		} else if !errors.Is(err, redis.Nil) {
			slog.Warn("snapshot cache read failed", slog.Any("error", err))
		}
	}

	snap := cal.ToEngine().Snapshot(pt)

	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.cacheTTL).Err(); err != nil {
				slog.Warn("snapshot cache write failed", slog.Any("error", err))
			}
		}
	}
	return &snap, nil
}

// MoonPhases returns only the moon facts for a point in time.
func (s *almanacService) MoonPhases(ctx context.Context, calendarID int64, q SnapshotQuery) ([]engine.MoonPhaseResult, error) {
	cal, err := s.calendars.GetCalendar(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	return cal.ToEngine().MoonPhases(q.Resolve(cal.CurrentDate())), nil
}

// Daylight returns only the daylight facts for a point in time.
func (s *almanacService) Daylight(ctx context.Context, calendarID int64, q SnapshotQuery) (*engine.DaylightTimes, error) {
	cal, err := s.calendars.GetCalendar(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	times := cal.ToEngine().DaylightAt(q.Resolve(cal.CurrentDate()))
	return &times, nil
}
