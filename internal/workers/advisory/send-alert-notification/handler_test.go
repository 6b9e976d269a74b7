// internal/workers/advisory/send-alert-notification/handler_test.go
package sendalertnotification

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	apperrors "agrimarket-workers/internal/common/errors"
	"agrimarket-workers/internal/common/logger"
	"agrimarket-workers/internal/engine/weatherrule"
	"agrimarket-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type mockSES struct {
	calls  int
	lastIn *ses.SendEmailInput
	err    error
}

func (m *mockSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls++
	m.lastIn = params
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	calls  int
	lastIn *sns.PublishInput
	err    error
}

func (m *mockSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls++
	m.lastIn = params
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{}, nil
}

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

func createTestConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "alerts@agrimarket.example",
		Timeout:      10 * time.Second,
	}
}

func expectContactLookup(mock sqlmock.Sqlmock, farmerID, email, phone string) {
	rows := sqlmock.NewRows([]string{"email", "phone"}).AddRow(email, phone)
	mock.ExpectQuery(`SELECT email, phone FROM farmer_contacts WHERE farmer_id = \$1`).
		WithArgs(farmerID).
		WillReturnRows(rows)
}

func expectDeliveryRecord(mock sqlmock.Sqlmock, farmerID string) {
	mock.ExpectExec(`INSERT INTO notification_log`).
		WithArgs(sqlmock.AnyArg(), farmerID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
}

func heatAlert() models.WeatherEntry {
	return models.WeatherEntry{
		RuleID:        "heat-stress",
		Category:      "temperature",
		Priority:      models.PriorityHigh,
		Message:       "Temperature above 35C, shade-net recommended",
		ObservedValue: 36,
	}
}

func windAlert() models.WeatherEntry {
	return models.WeatherEntry{
		RuleID:        "strong-wind",
		Category:      "wind",
		Priority:      models.PriorityMedium,
		Message:       "Strong wind, secure loose covers",
		ObservedValue: 12,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_HighPriorityUsesBothChannels(t *testing.T) {
	_, redisClient := setupRedis(t)
	db, mock := setupMockDB(t)
	sesMock, snsMock := &mockSES{}, &mockSNS{}

	expectContactLookup(mock, "farmer-1", "farmer@example.com", "+911234567890")
	expectDeliveryRecord(mock, "farmer-1")

	handler := NewHandlerWithClients(createTestConfig(), db, redisClient, sesMock, snsMock, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{
		FarmerID: "farmer-1",
		Region:   "nashik-west",
		Alerts:   []models.WeatherEntry{heatAlert()},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, []string{"email", "sms"}, output.Channels)
	assert.NotEmpty(t, output.NotificationID)

	assert.Equal(t, 1, sesMock.calls)
	assert.Equal(t, 1, snsMock.calls)
	assert.Contains(t, *sesMock.lastIn.Message.Subject.Data, "nashik-west")
	assert.Contains(t, *snsMock.lastIn.Message, "shade-net")
}

func TestHandler_Execute_MediumPriorityEmailOnly(t *testing.T) {
	_, redisClient := setupRedis(t)
	db, mock := setupMockDB(t)
	sesMock, snsMock := &mockSES{}, &mockSNS{}

	expectContactLookup(mock, "farmer-2", "farmer@example.com", "+911234567890")
	expectDeliveryRecord(mock, "farmer-2")

	handler := NewHandlerWithClients(createTestConfig(), db, redisClient, sesMock, snsMock, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{
		FarmerID: "farmer-2",
		Region:   "pune-east",
		Alerts:   []models.WeatherEntry{windAlert()},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, []string{"email"}, output.Channels)
	assert.Equal(t, 1, sesMock.calls)
	assert.Zero(t, snsMock.calls, "SMS reserved for high priority")
}

func TestHandler_Execute_FallbackAlertSkipped(t *testing.T) {
	_, redisClient := setupRedis(t)
	db, _ := setupMockDB(t)
	sesMock, snsMock := &mockSES{}, &mockSNS{}

	handler := NewHandlerWithClients(createTestConfig(), db, redisClient, sesMock, snsMock, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{
		FarmerID: "farmer-3",
		Region:   "calm-valley",
		Alerts: []models.WeatherEntry{{
			RuleID:   weatherrule.NoAlertRuleID,
			Category: "none",
			Priority: models.PriorityLow,
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, output.Status)
	assert.Zero(t, sesMock.calls)
	assert.Zero(t, snsMock.calls)
}

func TestHandler_Execute_DeduplicatesSameDay(t *testing.T) {
	_, redisClient := setupRedis(t)
	db, mock := setupMockDB(t)
	sesMock, snsMock := &mockSES{}, &mockSNS{}

	expectContactLookup(mock, "farmer-4", "farmer@example.com", "")
	expectDeliveryRecord(mock, "farmer-4")

	handler := NewHandlerWithClients(createTestConfig(), db, redisClient, sesMock, snsMock, logger.NewTestLogger(t))
	input := &Input{
		FarmerID: "farmer-4",
		Region:   "nashik-west",
		Alerts:   []models.WeatherEntry{heatAlert()},
	}

	first, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, first.Status)

	second, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, second.Status)
	assert.Equal(t, 1, sesMock.calls, "repeat alert suppressed for the day")
}

func TestHandler_Execute_MissingContactDisabled(t *testing.T) {
	_, redisClient := setupRedis(t)
	db, mock := setupMockDB(t)
	sesMock, snsMock := &mockSES{}, &mockSNS{}

	mock.ExpectQuery(`SELECT email, phone FROM farmer_contacts WHERE farmer_id = \$1`).
		WithArgs("farmer-unknown").
		WillReturnError(sql.ErrNoRows)

	handler := NewHandlerWithClients(createTestConfig(), db, redisClient, sesMock, snsMock, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{
		FarmerID: "farmer-unknown",
		Region:   "nashik-west",
		Alerts:   []models.WeatherEntry{heatAlert()},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
	assert.Zero(t, sesMock.calls)
}

func TestHandler_Execute_ProviderFailureIsRetryable(t *testing.T) {
	_, redisClient := setupRedis(t)
	db, mock := setupMockDB(t)
	sesMock := &mockSES{err: errors.New("throttled")}
	snsMock := &mockSNS{}

	expectContactLookup(mock, "farmer-5", "farmer@example.com", "+911234567890")

	handler := NewHandlerWithClients(createTestConfig(), db, redisClient, sesMock, snsMock, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{
		FarmerID: "farmer-5",
		Region:   "nashik-west",
		Alerts:   []models.WeatherEntry{heatAlert()},
	})

	assert.Nil(t, output)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotificationSendFailed)

	stdErr := classifyError(err)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "email")
	assert.Equal(t, 3, apperrors.ConvertToBPMNError(stdErr).Retries)
}
