package almanacapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wyrmroot/almanac/internal/apperror"
)

// APIKeyRepository defines the data access contract for API keys.
type APIKeyRepository interface {
	CreateKey(ctx context.Context, key *APIKey) error
	FindKeyByID(ctx context.Context, id int64) (*APIKey, error)
	FindKeyByPrefix(ctx context.Context, prefix string) (*APIKey, error)
	ListKeys(ctx context.Context) ([]APIKey, error)
	UpdateKeyActive(ctx context.Context, id int64, active bool) error
	UpdateKeyLastUsed(ctx context.Context, id int64) error
	DeleteKey(ctx context.Context, id int64) error
}

// apiKeyRepo implements APIKeyRepository with MariaDB.
type apiKeyRepo struct {
	db *sql.DB
}

// NewAPIKeyRepository creates a new API key repository.
func NewAPIKeyRepository(db *sql.DB) APIKeyRepository {
	return &apiKeyRepo{db: db}
}

const apiKeyCols = `id, key_hash, key_prefix, name, rate_limit, is_active, last_used_at, expires_at, created_at, updated_at`

// scanKey reads one API key row from a row or rows scanner.
func scanKey(scanner interface{ Scan(dest ...any) error }) (*APIKey, error) {
	var k APIKey
	err := scanner.Scan(
		&k.ID, &k.KeyHash, &k.KeyPrefix, &k.Name, &k.RateLimit, &k.IsActive,
		&k.LastUsedAt, &k.ExpiresAt, &k.CreatedAt, &k.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("api key not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning api key: %w", err)
	}
	return &k, nil
}

// CreateKey inserts a new API key.
func (r *apiKeyRepo) CreateKey(ctx context.Context, key *APIKey) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO almanac_api_keys (key_hash, key_prefix, name, rate_limit, is_active, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		key.KeyHash, key.KeyPrefix, key.Name, key.RateLimit, key.IsActive, key.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("creating api key: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading api key id: %w", err)
	}
	key.ID = id
	return nil
}

// FindKeyByID retrieves an API key by its ID.
func (r *apiKeyRepo) FindKeyByID(ctx context.Context, id int64) (*APIKey, error) {
	return scanKey(r.db.QueryRowContext(ctx,
		`SELECT `+apiKeyCols+` FROM almanac_api_keys WHERE id = ?`, id))
}

// FindKeyByPrefix retrieves an API key by its prefix (for auth lookup).
func (r *apiKeyRepo) FindKeyByPrefix(ctx context.Context, prefix string) (*APIKey, error) {
	return scanKey(r.db.QueryRowContext(ctx,
		`SELECT `+apiKeyCols+` FROM almanac_api_keys WHERE key_prefix = ?`, prefix))
}

// ListKeys returns all registered API keys, newest first.
func (r *apiKeyRepo) ListKeys(ctx context.Context) ([]APIKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+apiKeyCols+` FROM almanac_api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, *k)
	}
	return keys, rows.Err()
}

// UpdateKeyActive enables or disables an API key.
func (r *apiKeyRepo) UpdateKeyActive(ctx context.Context, id int64, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE almanac_api_keys SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("updating key active: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("api key not found")
	}
	return nil
}

// UpdateKeyLastUsed records the last usage time.
func (r *apiKeyRepo) UpdateKeyLastUsed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE almanac_api_keys SET last_used_at = NOW() WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("updating key last used: %w", err)
	}
	return nil
}

// DeleteKey permanently removes an API key.
func (r *apiKeyRepo) DeleteKey(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM almanac_api_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("api key not found")
	}
	return nil
}
