// internal/store/catalog.go
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
	ErrCatalogFetchFailed = errors.New("CATALOG_FETCH_FAILED")
	ErrCatalogEmpty       = errors.New("CATALOG_EMPTY")
)

const catalogCacheKey = "catalog:loan-products"

// CatalogStore loads the active loan product catalog from Postgres with a
// Redis read-through cache. Partner institutions update products rarely.
type CatalogStore struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
}

func NewCatalogStore(db *sql.DB, redisClient *redis.Client, cacheTTL time.Duration) *CatalogStore {
	return &CatalogStore{
		db:       db,
		redis:    redisClient,
		cacheTTL: cacheTTL,
	}
}

// GetCatalog returns all active loan products, reading through the cache.
func (s *CatalogStore) GetCatalog(ctx context.Context) ([]models.LoanProduct, error) {
	if val, err := s.redis.Get(ctx, catalogCacheKey).Result(); err == nil {
		var catalog []models.LoanProduct
		if err := json.Unmarshal([]byte(val), &catalog); err == nil && len(catalog) > 0 {
			return catalog, nil
		}
	}

	query := `SELECT product_id, issuer, min_principal_minor, max_principal_minor, annual_rate_percent, term_months, min_credit_score, min_revenue_minor, min_sales_history_months FROM loan_products WHERE active = true ORDER BY product_id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogFetchFailed, err)
	}
	defer rows.Close()

	var catalog []models.LoanProduct
	for rows.Next() {
		var p models.LoanProduct
		if err := rows.Scan(
			&p.ProductID,
			&p.Issuer,
			&p.MinPrincipal,
			&p.MaxPrincipal,
			&p.AnnualRatePercent,
			&p.TermMonths,
			&p.MinCreditScore,
			&p.MinRevenue,
			&p.MinSalesHistoryMonths,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCatalogFetchFailed, err)
		}
		catalog = append(catalog, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogFetchFailed, err)
	}

	if len(catalog) == 0 {
		return nil, ErrCatalogEmpty
	}

	data, _ := json.Marshal(catalog)
	s.redis.Set(ctx, catalogCacheKey, data, s.cacheTTL)

	return catalog, nil
}

// InvalidateCatalog drops the cached catalog after a partner update.
func (s *CatalogStore) InvalidateCatalog(ctx context.Context) error {
	return s.redis.Del(ctx, catalogCacheKey).Err()
}

// GetProduct returns a single product by ID without touching the cache.
func (s *CatalogStore) GetProduct(ctx context.Context, productID string) (*models.LoanProduct, error) {
	var p models.LoanProduct
	query := `SELECT product_id, issuer, min_principal_minor, max_principal_minor, annual_rate_percent, term_months, min_credit_score, min_revenue_minor, min_sales_history_months FROM loan_products WHERE product_id = $1`
	err := s.db.QueryRowContext(ctx, query, productID).Scan(
		&p.ProductID,
		&p.Issuer,
		&p.MinPrincipal,
		&p.MaxPrincipal,
		&p.AnnualRatePercent,
		&p.TermMonths,
		&p.MinCreditScore,
		&p.MinRevenue,
		&p.MinSalesHistoryMonths,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCatalogEmpty
		}
		return nil, fmt.Errorf("%w: %v", ErrCatalogFetchFailed, err)
	}
	return &p, nil
}
