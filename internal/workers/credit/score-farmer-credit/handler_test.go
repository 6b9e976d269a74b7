// internal/workers/credit/score-farmer-credit/handler_test.go
package scorefarmercredit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	apperrors "agrimarket-workers/internal/common/errors"
	"agrimarket-workers/internal/common/logger"
	"agrimarket-workers/internal/models"
	"agrimarket-workers/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	cfg := LoadConfig()
	cfg.Timeout = 10 * time.Second
	return cfg
}

func createTestHandler(t *testing.T, db *sql.DB, redisClient *redis.Client, config *Config) *Handler {
	if config == nil {
		config = createTestConfig()
	}
	testLog := logger.NewTestLogger(t)
	return NewHandler(config, db, redisClient, testLog)
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

const profileQuery = `SELECT farmer_id, region, total_revenue_minor, sales_count, sales_history_months, payment_reliability FROM farmer_profiles WHERE farmer_id = \$1`
const trendQuery = `SELECT revenue_minor FROM farmer_monthly_revenue WHERE farmer_id = \$1 ORDER BY month ASC`

func expectProfileLookup(mock sqlmock.Sqlmock, redisMock redismock.ClientMock, p *models.FarmerProfile) {
	redisMock.ExpectGet("profile:" + p.FarmerID).RedisNil()

	rows := sqlmock.NewRows([]string{"farmer_id", "region", "total_revenue_minor", "sales_count", "sales_history_months", "payment_reliability"}).
		AddRow(p.FarmerID, p.Region, int64(p.TotalRevenue), p.SalesCount, p.SalesHistoryMonths, p.PaymentReliability)
	mock.ExpectQuery(profileQuery).WithArgs(p.FarmerID).WillReturnRows(rows)
	mock.ExpectQuery(trendQuery).WithArgs(p.FarmerID).WillReturnRows(sqlmock.NewRows([]string{"revenue_minor"}))

	redisMock.Regexp().ExpectSet("profile:"+p.FarmerID, `.*`, 15*time.Minute).SetVal("OK")
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ReferenceProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()

	profile := referenceProfile("farmer-726")
	expectProfileLookup(mock, redisMock, profile)

	handler := createTestHandler(t, db, redisClient, nil)
	output, err := handler.Execute(context.Background(), &Input{FarmerID: "farmer-726"})

	require.NoError(t, err)
	assert.Equal(t, "farmer-726", output.FarmerID)
	assert.Equal(t, 726, output.Score)
	assert.Equal(t, models.BandGood, output.Band)
	assert.InDelta(t, 0.85, output.Breakdown.Reliability, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheHit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()

	profile := referenceProfile("farmer-cached")
	cached, _ := json.Marshal(profile)
	redisMock.ExpectGet("profile:farmer-cached").SetVal(string(cached))

	handler := createTestHandler(t, db, redisClient, nil)
	output, err := handler.Execute(context.Background(), &Input{FarmerID: "farmer-cached"})

	require.NoError(t, err)
	assert.Equal(t, 726, output.Score)

	// Database untouched on a cache hit
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name          string
		farmerID      string
		setupMocks    func(mock sqlmock.Sqlmock, redisMock redismock.ClientMock)
		expectedCode  string
		expectedError string
	}{
		{
			name:         "missing farmer id",
			farmerID:     "",
			setupMocks:   func(sqlmock.Sqlmock, redismock.ClientMock) {},
			expectedCode: "INVALID_INPUT",
		},
		{
			name:     "profile not found",
			farmerID: "ghost",
			setupMocks: func(mock sqlmock.Sqlmock, redisMock redismock.ClientMock) {
				redisMock.ExpectGet("profile:ghost").RedisNil()
				mock.ExpectQuery(profileQuery).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
			},
			expectedCode: "PROFILE_NOT_FOUND",
		},
		{
			name:     "database error",
			farmerID: "farmer-db-err",
			setupMocks: func(mock sqlmock.Sqlmock, redisMock redismock.ClientMock) {
				redisMock.ExpectGet("profile:farmer-db-err").RedisNil()
				mock.ExpectQuery(profileQuery).WithArgs("farmer-db-err").
					WillReturnError(errors.New("connection refused"))
			},
			expectedCode: "PROFILE_FETCH_FAILED",
		},
		{
			name:     "corrupt profile rejected by engine",
			farmerID: "farmer-corrupt",
			setupMocks: func(mock sqlmock.Sqlmock, redisMock redismock.ClientMock) {
				redisMock.ExpectGet("profile:farmer-corrupt").RedisNil()
				rows := sqlmock.NewRows([]string{"farmer_id", "region", "total_revenue_minor", "sales_count", "sales_history_months", "payment_reliability"}).
					AddRow("farmer-corrupt", "nashik-west", int64(100000), 3, 6, 1.7)
				mock.ExpectQuery(profileQuery).WithArgs("farmer-corrupt").WillReturnRows(rows)
				mock.ExpectQuery(trendQuery).WithArgs("farmer-corrupt").
					WillReturnRows(sqlmock.NewRows([]string{"revenue_minor"}))
				redisMock.Regexp().ExpectSet("profile:farmer-corrupt", `.*`, 15*time.Minute).SetVal("OK")
			},
			expectedCode: "INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			redisClient, redisMock := redismock.NewClientMock()
			tt.setupMocks(mock, redisMock)

			handler := createTestHandler(t, db, redisClient, nil)
			output, err := handler.Execute(context.Background(), &Input{FarmerID: tt.farmerID})

			assert.Nil(t, output)
			require.Error(t, err)
			assert.Equal(t, tt.expectedCode, string(classifyError(&Input{FarmerID: tt.farmerID}, err).Code))
		})
	}
}

func TestClassifyError_RetrySemantics(t *testing.T) {
	notFound := classifyError(&Input{FarmerID: "ghost"}, fmt.Errorf("load profile: %w", store.ErrProfileNotFound))
	assert.Equal(t, apperrors.ErrCodeProfileNotFound, notFound.Code)
	assert.False(t, notFound.Retryable)
	assert.Contains(t, notFound.Details, "ghost")
	assert.Equal(t, 0, apperrors.ConvertToBPMNError(notFound).Retries)

	fetchFailed := classifyError(&Input{FarmerID: "farmer-1"}, fmt.Errorf("%w: connection refused", store.ErrProfileFetchFailed))
	assert.Equal(t, apperrors.ErrCodeProfileFetchFailed, fetchFailed.Code)
	assert.True(t, fetchFailed.Retryable)
	assert.Equal(t, 3, apperrors.ConvertToBPMNError(fetchFailed).Retries)
}

func TestHandler_Execute_PolicyOverride(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()

	profile := referenceProfile("farmer-policy")
	expectProfileLookup(mock, redisMock, profile)

	// All weight on reliability: raw = 0.85, score = 300 + round(0.85*550) = 768
	cfg := createTestConfig()
	cfg.Policy.ReliabilityWeight = 1.0
	cfg.Policy.HistoryWeight = 0
	cfg.Policy.RevenueWeight = 0

	handler := createTestHandler(t, db, redisClient, cfg)
	output, err := handler.Execute(context.Background(), &Input{FarmerID: "farmer-policy"})

	require.NoError(t, err)
	assert.Equal(t, 768, output.Score)
	assert.Equal(t, models.BandExcellent, output.Band)
}
