// internal/workers/advisory/build-recommendation-bundle/handler_test.go
package buildrecommendationbundle

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	apperrors "agrimarket-workers/internal/common/errors"
	"agrimarket-workers/internal/common/logger"
	"agrimarket-workers/internal/engine/weatherrule"
	"agrimarket-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// stubTransport answers every Elasticsearch request with a canned status.
type stubTransport struct {
	status int
	calls  int
}

func (tr *stubTransport) RoundTrip(*http.Request) (*http.Response, error) {
	tr.calls++
	return &http.Response{
		StatusCode: tr.status,
		Body:       io.NopCloser(strings.NewReader(`{"result":"created"}`)),
		Header: http.Header{
			"Content-Type":      []string{"application/json"},
			"X-Elastic-Product": []string{"Elasticsearch"},
		},
	}, nil
}

func setupES(t *testing.T, status int) (*elasticsearch.Client, *stubTransport) {
	tr := &stubTransport{status: status}
	es, err := elasticsearch.NewClient(elasticsearch.Config{Transport: tr})
	require.NoError(t, err)
	return es, tr
}

type stubFeed struct {
	snapshot *models.WeatherSnapshot
	err      error
}

func (s *stubFeed) FetchSnapshot(_ context.Context, region string) (*models.WeatherSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	snap := *s.snapshot
	snap.Region = region
	return &snap, nil
}

func referenceProfile(farmerID string) *models.FarmerProfile {
	return &models.FarmerProfile{
		FarmerID:           farmerID,
		Region:             "nashik-west",
		TotalRevenue:       models.FromUnits(125000),
		SalesCount:         48,
		SalesHistoryMonths: 12,
		PaymentReliability: 0.85,
	}
}

func testCatalog() []models.LoanProduct {
	return []models.LoanProduct{
		{
			ProductID:             "agri-starter",
			Issuer:                "Grameen AgriBank",
			MinPrincipal:          models.FromUnits(5000),
			MaxPrincipal:          models.FromUnits(50000),
			AnnualRatePercent:     12.5,
			TermMonths:            12,
			MinCreditScore:        600,
			MinRevenue:            models.FromUnits(10000),
			MinSalesHistoryMonths: 3,
		},
		{
			ProductID:             "estate-expansion",
			Issuer:                "Bharat Rural Finance",
			MinPrincipal:          models.FromUnits(100000),
			MaxPrincipal:          models.FromUnits(1000000),
			AnnualRatePercent:     8.5,
			TermMonths:            60,
			MinCreditScore:        800,
			MinRevenue:            models.FromUnits(100000),
			MinSalesHistoryMonths: 24,
		},
	}
}

func heatSnapshot() *models.WeatherSnapshot {
	return &models.WeatherSnapshot{
		Timestamp:   time.Date(2026, 4, 12, 9, 0, 0, 0, time.UTC),
		Temperature: 36,
		Humidity:    55,
		WindSpeed:   3,
		Rainfall:    2,
	}
}

func seedStores(t *testing.T, mr *miniredis.Miniredis, profile *models.FarmerProfile, catalog []models.LoanProduct) {
	profileJSON, err := json.Marshal(profile)
	require.NoError(t, err)
	require.NoError(t, mr.Set("profile:"+profile.FarmerID, string(profileJSON)))

	catalogJSON, err := json.Marshal(catalog)
	require.NoError(t, err)
	require.NoError(t, mr.Set("catalog:loan-products", string(catalogJSON)))
}

func createTestHandler(t *testing.T, db *sql.DB, redisClient *redis.Client, es *elasticsearch.Client, feed WeatherFeed) *Handler {
	cfg := LoadConfig()
	cfg.Timeout = 10 * time.Second
	return NewHandlerWithFeed(cfg, db, redisClient, es, feed, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_BuildsAndIndexesBundle(t *testing.T) {
	mr, redisClient := setupRedis(t)
	db, _ := setupMockDB(t)
	es, tr := setupES(t, http.StatusCreated)

	profile := referenceProfile("farmer-726")
	seedStores(t, mr, profile, testCatalog())

	handler := createTestHandler(t, db, redisClient, es, &stubFeed{snapshot: heatSnapshot()})
	output, err := handler.Execute(context.Background(), &Input{FarmerID: "farmer-726"})

	require.NoError(t, err)
	assert.NotEmpty(t, output.BundleID)
	assert.Equal(t, 1, tr.calls, "bundle should be indexed exactly once")

	bundle := output.Bundle
	assert.Equal(t, "farmer-726", bundle.FarmerID)
	assert.Equal(t, 726, bundle.CreditScore.Value)
	assert.Equal(t, models.BandGood, bundle.CreditScore.Band)

	require.Len(t, bundle.Offers, 2)
	assert.Equal(t, "agri-starter", bundle.Offers[0].Product.ProductID)
	assert.True(t, bundle.Offers[0].PreApproved)
	assert.False(t, bundle.Offers[1].Eligible)

	require.Len(t, bundle.Alerts, 1)
	assert.Equal(t, "heat-stress", bundle.Alerts[0].RuleID)
	require.Len(t, bundle.Advisories, 1)
	assert.Equal(t, weatherrule.NoAdvisoryRuleID, bundle.Advisories[0].RuleID)
}

func TestHandler_Execute_RegionDefaultsToProfile(t *testing.T) {
	mr, redisClient := setupRedis(t)
	db, _ := setupMockDB(t)
	es, _ := setupES(t, http.StatusCreated)

	profile := referenceProfile("farmer-region")
	seedStores(t, mr, profile, testCatalog())

	handler := createTestHandler(t, db, redisClient, es, &stubFeed{snapshot: heatSnapshot()})
	_, err := handler.Execute(context.Background(), &Input{FarmerID: "farmer-region"})

	require.NoError(t, err)
	assert.True(t, mr.Exists("weather:nashik-west"), "snapshot cached under the profile region")
}

func TestHandler_Execute_IndexFailureFailsJob(t *testing.T) {
	mr, redisClient := setupRedis(t)
	db, _ := setupMockDB(t)
	es, _ := setupES(t, http.StatusInternalServerError)

	profile := referenceProfile("farmer-es-down")
	seedStores(t, mr, profile, testCatalog())

	handler := createTestHandler(t, db, redisClient, es, &stubFeed{snapshot: heatSnapshot()})
	input := &Input{FarmerID: "farmer-es-down"}
	output, err := handler.Execute(context.Background(), input)

	assert.Nil(t, output)
	require.Error(t, err)

	stdErr := classifyError(input, err)
	assert.Equal(t, apperrors.ErrCodeBundleIndexFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, 3, apperrors.ConvertToBPMNError(stdErr).Retries)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name         string
		input        *Input
		seed         func(t *testing.T, mr *miniredis.Miniredis, mock sqlmock.Sqlmock)
		feed         WeatherFeed
		expectedCode string
	}{
		{
			name:         "missing farmer id",
			input:        &Input{},
			seed:         func(*testing.T, *miniredis.Miniredis, sqlmock.Sqlmock) {},
			feed:         &stubFeed{snapshot: heatSnapshot()},
			expectedCode: "INVALID_INPUT",
		},
		{
			name:  "profile not found",
			input: &Input{FarmerID: "ghost"},
			seed: func(t *testing.T, mr *miniredis.Miniredis, mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT farmer_id`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
			},
			feed:         &stubFeed{snapshot: heatSnapshot()},
			expectedCode: "PROFILE_NOT_FOUND",
		},
		{
			name:  "half supplied loan terms",
			input: &Input{FarmerID: "farmer-1", RequestedTermMonths: 12},
			seed: func(t *testing.T, mr *miniredis.Miniredis, mock sqlmock.Sqlmock) {
				seedStores(t, mr, referenceProfile("farmer-1"), testCatalog())
			},
			feed:         &stubFeed{snapshot: heatSnapshot()},
			expectedCode: "INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, redisClient := setupRedis(t)
			db, mock := setupMockDB(t)
			es, _ := setupES(t, http.StatusCreated)
			tt.seed(t, mr, mock)

			handler := createTestHandler(t, db, redisClient, es, tt.feed)
			output, err := handler.Execute(context.Background(), tt.input)

			assert.Nil(t, output)
			require.Error(t, err)
			assert.Equal(t, tt.expectedCode, string(classifyError(tt.input, err).Code))
		})
	}
}
