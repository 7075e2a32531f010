package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	portsrepo "github.com/SscSPs/storefront_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/common"
)

// RateLimitStore keeps limiter counters in Postgres so every instance shares one
// window per key.
type RateLimitStore struct {
	BaseRepository
	prefix string
	now    func() time.Time
}

var (
	_ limiter.Store           = (*RateLimitStore)(nil)
	_ portsrepo.CounterPurger = (*RateLimitStore)(nil)
)

func newRateLimitStore(db *pgxpool.Pool, prefix string) *RateLimitStore {
	return &RateLimitStore{BaseRepository: BaseRepository{Pool: db}, prefix: prefix, now: time.Now}
}

func (s *RateLimitStore) key(key string) string {
	return s.prefix + ":" + key
}

// Get increments the counter of key by one.
func (s *RateLimitStore) Get(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	return s.Increment(ctx, key, 1, rate)
}

// Increment adds count to key, starting a new window when the previous one expired.
func (s *RateLimitStore) Increment(ctx context.Context, key string, count int64, rate limiter.Rate) (limiter.Context, error) {
	now := s.now().UTC()
	expiresAt := now.Add(rate.Period)

	query := `
		INSERT INTO rate_limit_counters (key, count, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			count = CASE WHEN rate_limit_counters.expires_at <= $4 THEN EXCLUDED.count
			             ELSE rate_limit_counters.count + EXCLUDED.count END,
			expires_at = CASE WHEN rate_limit_counters.expires_at <= $4 THEN EXCLUDED.expires_at
			                  ELSE rate_limit_counters.expires_at END
		RETURNING count, expires_at;
	`
	var total int64
	var expiration time.Time
	if err := s.Pool.QueryRow(ctx, query, s.key(key), count, expiresAt, now).Scan(&total, &expiration); err != nil {
		return limiter.Context{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	return common.GetContextFromState(now, rate, expiration, total), nil
}

// Peek returns the state of key without incrementing it.
func (s *RateLimitStore) Peek(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	now := s.now().UTC()

	var total int64
	var expiration time.Time
	err := s.Pool.QueryRow(ctx, `
		SELECT count, expires_at FROM rate_limit_counters WHERE key = $1 AND expires_at > $2;
	`, s.key(key), now).Scan(&total, &expiration)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.GetContextFromState(now, rate, now.Add(rate.Period), 0), nil
		}
		return limiter.Context{}, fmt.Errorf("failed to read rate limit counter: %w", err)
	}
	return common.GetContextFromState(now, rate, expiration, total), nil
}

// Reset clears the counter of key.
func (s *RateLimitStore) Reset(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	now := s.now().UTC()
	if _, err := s.Pool.Exec(ctx, `DELETE FROM rate_limit_counters WHERE key = $1;`, s.key(key)); err != nil {
		return limiter.Context{}, fmt.Errorf("failed to reset rate limit counter: %w", err)
	}
	return common.GetContextFromState(now, rate, now.Add(rate.Period), 0), nil
}

// PurgeExpired deletes counters whose window has closed.
func (s *RateLimitStore) PurgeExpired(ctx context.Context) (int64, error) {
	cmdTag, err := s.Pool.Exec(ctx, `DELETE FROM rate_limit_counters WHERE expires_at <= $1;`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge rate limit counters: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
