// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrimarket-workers/internal/common/config"
	"agrimarket-workers/internal/common/database"
	"agrimarket-workers/internal/common/logger"
	"agrimarket-workers/internal/models"

	buildbundle "agrimarket-workers/internal/workers/advisory/build-recommendation-bundle"
	evaluateweather "agrimarket-workers/internal/workers/advisory/evaluate-weather-rules"
	matchoffers "agrimarket-workers/internal/workers/credit/match-loan-offers"
	scorecredit "agrimarket-workers/internal/workers/credit/score-farmer-credit"
)

const e2eFarmerID = "e2e-farmer-1"

// TestRecommendationFlow runs the full pipeline against real Postgres, Redis,
// and Elasticsearch instances. Enable it with E2E_TESTS=true once the
// services from docker-compose are up.
func TestRecommendationFlow(t *testing.T) {
	if os.Getenv("E2E_TESTS") != "true" {
		t.Skip("E2E_TESTS not set, skipping")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.URL = "http://localhost:9200"

	log := logger.NewTestLogger(t)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer pg.Close()
	require.NoError(t, pg.Ping(ctx))

	redisClient, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	defer redisClient.Close()
	require.NoError(t, redisClient.Ping(ctx))

	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)
	require.NoError(t, esClient.Ping())

	seedTables(t, ctx, pg)
	defer cleanupTables(t, ctx, pg)

	// Stand in for the external weather feed
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.WeatherSnapshot{
			Region:      r.URL.Query().Get("region"),
			Timestamp:   time.Now().UTC(),
			Temperature: 36,
			Humidity:    55,
			WindSpeed:   3,
			Rainfall:    2,
		})
	}))
	defer feed.Close()
	cfg.Weather.BaseURL = feed.URL
	cfg.Weather.APIKey = "e2e-key"

	// --- 1. score-farmer-credit ---
	scoreHandler := scorecredit.NewHandler(scorecredit.FromAppConfig(cfg), pg.DB, redisClient.Client, log)
	scoreOut, err := scoreHandler.Execute(ctx, &scorecredit.Input{FarmerID: e2eFarmerID})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, scoreOut.Score, 300)
	assert.LessOrEqual(t, scoreOut.Score, 850)
	t.Logf("credit score: %d (%s)", scoreOut.Score, scoreOut.Band)

	// --- 2. match-loan-offers ---
	matchHandler := matchoffers.NewHandler(matchoffers.FromAppConfig(cfg), pg.DB, redisClient.Client, log)
	matchOut, err := matchHandler.Execute(ctx, &matchoffers.Input{
		FarmerID: e2eFarmerID,
		Score:    scoreOut.Score,
		Band:     scoreOut.Band,
	})
	require.NoError(t, err)
	require.NotEmpty(t, matchOut.Offers)
	t.Logf("offers: %d total, %d eligible, %d pre-approved",
		len(matchOut.Offers), matchOut.EligibleCount, matchOut.PreApprovedCount)

	// --- 3. evaluate-weather-rules ---
	weatherHandler := evaluateweather.NewHandler(evaluateweather.FromAppConfig(cfg), redisClient.Client, log)
	weatherOut, err := weatherHandler.Execute(ctx, &evaluateweather.Input{Region: "e2e-region"})
	require.NoError(t, err)
	require.NotEmpty(t, weatherOut.Alerts)
	require.NotEmpty(t, weatherOut.Advisories)
	assert.Equal(t, "heat-stress", weatherOut.Alerts[0].RuleID)

	// --- 4. build-recommendation-bundle ---
	bundleHandler := buildbundle.NewHandler(buildbundle.FromAppConfig(cfg), pg.DB, redisClient.Client, esClient.Client, log)
	bundleOut, err := bundleHandler.Execute(ctx, &buildbundle.Input{FarmerID: e2eFarmerID})
	require.NoError(t, err)
	assert.NotEmpty(t, bundleOut.BundleID)
	assert.Equal(t, e2eFarmerID, bundleOut.Bundle.FarmerID)
	assert.Equal(t, scoreOut.Score, bundleOut.Bundle.CreditScore.Value)
	assert.Len(t, bundleOut.Bundle.Offers, len(matchOut.Offers))
	t.Logf("bundle %s indexed at %s", bundleOut.BundleID, bundleOut.IndexedAt)
}

func seedTables(t *testing.T, ctx context.Context, pg *database.PostgresClient) {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS farmer_profiles (
			farmer_id TEXT PRIMARY KEY,
			region TEXT NOT NULL,
			total_revenue_minor BIGINT NOT NULL,
			sales_count INT NOT NULL,
			sales_history_months INT NOT NULL,
			payment_reliability DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS farmer_monthly_revenue (
			farmer_id TEXT NOT NULL,
			month DATE NOT NULL,
			revenue_minor BIGINT NOT NULL,
			PRIMARY KEY (farmer_id, month)
		)`,
		`CREATE TABLE IF NOT EXISTS loan_products (
			product_id TEXT PRIMARY KEY,
			issuer TEXT NOT NULL,
			min_principal_minor BIGINT NOT NULL,
			max_principal_minor BIGINT NOT NULL,
			annual_rate_percent DOUBLE PRECISION NOT NULL,
			term_months INT NOT NULL,
			min_credit_score INT NOT NULL,
			min_revenue_minor BIGINT NOT NULL,
			min_sales_history_months INT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE TABLE IF NOT EXISTS farmer_contacts (
			farmer_id TEXT PRIMARY KEY,
			email TEXT,
			phone TEXT
		)`,
		`INSERT INTO farmer_profiles VALUES ('` + e2eFarmerID + `', 'e2e-region', 12500000, 480, 12, 0.85)
			ON CONFLICT (farmer_id) DO NOTHING`,
		`INSERT INTO loan_products VALUES
			('e2e-starter', 'E2E Bank', 1000000, 5000000, 14.5, 12, 550, 2000000, 6, true),
			('e2e-bridge', 'E2E Bank', 2000000, 10000000, 9.75, 24, 600, 6000000, 12, true)
			ON CONFLICT (product_id) DO NOTHING`,
		`INSERT INTO farmer_contacts VALUES ('` + e2eFarmerID + `', 'e2e@agrimarket.example', '+911112223334')
			ON CONFLICT (farmer_id) DO NOTHING`,
	}
	for _, stmt := range statements {
		_, err := pg.DB.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
}

func cleanupTables(t *testing.T, ctx context.Context, pg *database.PostgresClient) {
	for _, stmt := range []string{
		`DELETE FROM farmer_profiles WHERE farmer_id = '` + e2eFarmerID + `'`,
		`DELETE FROM farmer_monthly_revenue WHERE farmer_id = '` + e2eFarmerID + `'`,
		`DELETE FROM loan_products WHERE product_id LIKE 'e2e-%'`,
		`DELETE FROM farmer_contacts WHERE farmer_id = '` + e2eFarmerID + `'`,
	} {
		if _, err := pg.DB.ExecContext(ctx, stmt); err != nil {
			t.Logf("cleanup failed: %v", err)
		}
	}
}
