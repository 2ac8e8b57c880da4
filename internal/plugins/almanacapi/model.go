// Package almanacapi exposes the read-side query API for external
// tools (VTT modules, bots, scripts). Clients authenticate with
// bcrypt-hashed API keys and query computed calendar snapshots, which
// are cached in Redis keyed on the definition version.
package almanacapi

import (
	"time"

	"github.com/wyrmroot/almanac/internal/engine"
)

// APIKey represents a registered API key for external client access.
type APIKey struct {
	ID         int64      `json:"id"`
	KeyHash    string     `json:"-"`          // Never exposed in JSON.
	KeyPrefix  string     `json:"key_prefix"` // First 8 chars for display.
	Name       string     `json:"name"`
	RateLimit  int        `json:"rate_limit"` // Requests per minute.
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsExpired returns true if the key has passed its expiry date.
func (k *APIKey) IsExpired() bool {
	if k.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*k.ExpiresAt)
}

// CreateAPIKeyInput is the validated input for creating a new API key.
type CreateAPIKeyInput struct {
	Name      string     `json:"name"`
	RateLimit int        `json:"rate_limit"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// CreateAPIKeyResult is returned after key creation, containing the
// plaintext key that is only shown once.
type CreateAPIKeyResult struct {
	Key    *APIKey `json:"key"`
	RawKey string  `json:"raw_key"` // Plaintext key, shown once and never stored.
}

// SnapshotQuery selects the point in time for an almanac query. Every
// component is optional; omitted components fall back to the
// calendar's stored current date. Month and Day are 0-indexed,
// matching the stored date.
type SnapshotQuery struct {
	Year   *int
	Month  *int
	Day    *int
	Hour   *int
	Minute *int
	Second *int
}

// Resolve fills in the missing components from the stored current
// date. Seconds are not part of the stored date and default to zero.
func (q SnapshotQuery) Resolve(current engine.PointInTime) engine.PointInTime {
	pt := current
	pt.Second = 0
	if q.Year != nil {
		pt.Year = *q.Year
	}
	if q.Month != nil {
		pt.Month = *q.Month
	}
	if q.Day != nil {
		pt.Day = *q.Day
	}
	if q.Hour != nil {
		pt.Hour = *q.Hour
	}
	if q.Minute != nil {
		pt.Minute = *q.Minute
	}
	if q.Second != nil {
		pt.Second = *q.Second
	}
	return pt
}
