// internal/store/profiles.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agrimarket-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

var (
	ErrProfileNotFound    = errors.New("PROFILE_NOT_FOUND")
	ErrProfileFetchFailed = errors.New("PROFILE_FETCH_FAILED")
)

// ProfileStore loads farmer profiles from Postgres with a Redis
// read-through cache. Profiles change only when marketplace transactions
// settle, so a short TTL is safe.
type ProfileStore struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
}

func NewProfileStore(db *sql.DB, redisClient *redis.Client, cacheTTL time.Duration) *ProfileStore {
	return &ProfileStore{
		db:       db,
		redis:    redisClient,
		cacheTTL: cacheTTL,
	}
}

func profileCacheKey(farmerID string) string {
	return "profile:" + farmerID
}

// GetProfile returns the profile for a farmer, reading through the cache.
func (s *ProfileStore) GetProfile(ctx context.Context, farmerID string) (*models.FarmerProfile, error) {
	cacheKey := profileCacheKey(farmerID)
	if val, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
		var profile models.FarmerProfile
		if err := json.Unmarshal([]byte(val), &profile); err == nil {
			return &profile, nil
		}
	}

	var profile models.FarmerProfile
	query := `SELECT farmer_id, region, total_revenue_minor, sales_count, sales_history_months, payment_reliability FROM farmer_profiles WHERE farmer_id = $1`
	err := s.db.QueryRowContext(ctx, query, farmerID).Scan(
		&profile.FarmerID,
		&profile.Region,
		&profile.TotalRevenue,
		&profile.SalesCount,
		&profile.SalesHistoryMonths,
		&profile.PaymentReliability,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}

	trend, err := s.loadRevenueTrend(ctx, farmerID)
	if err != nil {
		return nil, err
	}
	profile.RevenueTrend = trend

	data, _ := json.Marshal(profile)
	s.redis.Set(ctx, cacheKey, data, s.cacheTTL)

	return &profile, nil
}

// loadRevenueTrend returns up to the last 12 monthly revenue figures in
// chronological order. Missing rows are fine for newly onboarded farmers.
func (s *ProfileStore) loadRevenueTrend(ctx context.Context, farmerID string) ([]models.Money, error) {
	query := `SELECT revenue_minor FROM farmer_monthly_revenue WHERE farmer_id = $1 ORDER BY month ASC`
	rows, err := s.db.QueryContext(ctx, query, farmerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	defer rows.Close()

	var trend []models.Money
	for rows.Next() {
		var revenue models.Money
		if err := rows.Scan(&revenue); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
		}
		trend = append(trend, revenue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}

	if len(trend) > 12 {
		trend = trend[len(trend)-12:]
	}
	return trend, nil
}

// InvalidateProfile drops the cached copy after an upstream settlement.
func (s *ProfileStore) InvalidateProfile(ctx context.Context, farmerID string) error {
	return s.redis.Del(ctx, profileCacheKey(farmerID)).Err()
}
