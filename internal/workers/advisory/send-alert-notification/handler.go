// internal/workers/advisory/send-alert-notification/handler.go
package sendalertnotification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	awsclients "agrimarket-workers/internal/common/aws"
	apperrors "agrimarket-workers/internal/common/errors"
	"agrimarket-workers/internal/common/logger"
	"agrimarket-workers/internal/common/metrics"
	"agrimarket-workers/internal/engine/weatherrule"
	"agrimarket-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "send-alert-notification"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

// sendError records which channel a provider call failed on.
type sendError struct {
	channel string
	err     error
}

func (e *sendError) Error() string { return fmt.Sprintf("%s: %v", e.channel, e.err) }
func (e *sendError) Unwrap() error { return ErrNotificationSendFailed }

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	db        *sql.DB
	redis     *redis.Client
	logger    logger.Logger
	errs      *apperrors.ErrorHandler
	sesClient SESService
	snsClient SNSService
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) (*Handler, error) {
	ctx := context.Background()

	sesClient, err := awsclients.NewSESClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("init SES client: %w", err)
	}
	snsClient, err := awsclients.NewSNSClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("init SNS client: %w", err)
	}

	return NewHandlerWithClients(config, db, redisClient, sesClient, snsClient, log), nil
}

// NewHandlerWithClients injects provider clients directly.
func NewHandlerWithClients(config *Config, db *sql.DB, redisClient *redis.Client, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	wlog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		db:        db,
		redis:     redisClient,
		logger:    wlog,
		errs:      apperrors.NewErrorHandler(wlog),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		stdErr := apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errs.HandleJobError(ctx, client, job, stdErr)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		stdErr := classifyError(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errs.HandleJobError(ctx, client, job, stdErr)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	sentAt := time.Now().UTC().Format(time.RFC3339)
	notificationID := uuid.New().String()

	realAlerts := filterRealAlerts(input.Alerts)
	if len(realAlerts) == 0 {
		// "no-alert" fallback entries are not worth a message
		return &Output{
			NotificationID: notificationID,
			Status:         StatusSkipped,
			SentAt:         sentAt,
		}, nil
	}

	// Deduplicate: one message per farmer per alert set per day
	if h.alreadyNotified(ctx, input.FarmerID, realAlerts) {
		return &Output{
			NotificationID: notificationID,
			Status:         StatusSkipped,
			SentAt:         sentAt,
		}, nil
	}

	email, phone, err := h.getFarmerContact(ctx, input.FarmerID)
	if err != nil {
		h.logger.Warn("farmer contact not found", map[string]interface{}{
			"farmerId": input.FarmerID,
		})
		return &Output{
			NotificationID: notificationID,
			Status:         StatusDisabled,
			SentAt:         sentAt,
		}, nil
	}

	subject, body := renderAlertMessage(input.Region, realAlerts)

	var channels []string

	if h.config.EmailEnabled && email != "" {
		if err := h.sendEmail(ctx, email, subject, body); err != nil {
			metrics.NotificationsSent.WithLabelValues("email", StatusFailed).Inc()
			return nil, &sendError{channel: "email", err: err}
		}
		metrics.NotificationsSent.WithLabelValues("email", StatusSent).Inc()
		channels = append(channels, "email")
	}

	// SMS is reserved for high-priority alerts
	if h.config.SMSEnabled && phone != "" && hasHighPriority(realAlerts) {
		if err := h.sendSMS(ctx, phone, body); err != nil {
			metrics.NotificationsSent.WithLabelValues("sms", StatusFailed).Inc()
			return nil, &sendError{channel: "sms", err: err}
		}
		metrics.NotificationsSent.WithLabelValues("sms", StatusSent).Inc()
		channels = append(channels, "sms")
	}

	status := StatusDisabled
	if len(channels) > 0 {
		status = StatusSent
		h.markNotified(ctx, input.FarmerID, realAlerts)
		h.recordDelivery(ctx, notificationID, input.FarmerID, channels, sentAt)
	}

	return &Output{
		NotificationID: notificationID,
		Status:         status,
		Channels:       channels,
		SentAt:         sentAt,
	}, nil
}

func filterRealAlerts(alerts []models.WeatherEntry) []models.WeatherEntry {
	var out []models.WeatherEntry
	for _, a := range alerts {
		if a.RuleID != weatherrule.NoAlertRuleID {
			out = append(out, a)
		}
	}
	return out
}

func hasHighPriority(alerts []models.WeatherEntry) bool {
	for _, a := range alerts {
		if a.Priority == models.PriorityHigh {
			return true
		}
	}
	return false
}

func dedupeKey(farmerID string, alerts []models.WeatherEntry) string {
	ids := make([]string, 0, len(alerts))
	for _, a := range alerts {
		ids = append(ids, a.RuleID)
	}
	day := time.Now().UTC().Format("2006-01-02")
	return fmt.Sprintf("notified:%s:%s:%s", farmerID, day, strings.Join(ids, ","))
}

func (h *Handler) alreadyNotified(ctx context.Context, farmerID string, alerts []models.WeatherEntry) bool {
	_, err := h.redis.Get(ctx, dedupeKey(farmerID, alerts)).Result()
	return err == nil
}

func (h *Handler) markNotified(ctx context.Context, farmerID string, alerts []models.WeatherEntry) {
	h.redis.Set(ctx, dedupeKey(farmerID, alerts), "1", 24*time.Hour)
}

// recordDelivery is best effort; a failed audit row never undoes a sent message.
func (h *Handler) recordDelivery(ctx context.Context, notificationID, farmerID string, channels []string, sentAt string) {
	query := `INSERT INTO notification_log (notification_id, farmer_id, channels, sent_at) VALUES ($1, $2, $3, $4)`
	if _, err := h.db.ExecContext(ctx, query, notificationID, farmerID, strings.Join(channels, ","), sentAt); err != nil {
		h.logger.Warn("failed to record delivery", map[string]interface{}{
			"notificationId": notificationID,
			"error":          err.Error(),
		})
	}
}

func (h *Handler) getFarmerContact(ctx context.Context, farmerID string) (string, string, error) {
	var email, phone string
	query := `SELECT email, phone FROM farmer_contacts WHERE farmer_id = $1`
	err := h.db.QueryRowContext(ctx, query, farmerID).Scan(&email, &phone)
	return email, phone, err
}

func renderAlertMessage(region string, alerts []models.WeatherEntry) (string, string) {
	subject := fmt.Sprintf("Weather alert for %s", region)
	if len(alerts) > 1 {
		subject = fmt.Sprintf("%d weather alerts for %s", len(alerts), region)
	}

	var b strings.Builder
	for _, a := range alerts {
		fmt.Fprintf(&b, "[%s] %s (observed: %.1f)\n", strings.ToUpper(string(a.Priority)), a.Message, a.ObservedValue)
	}
	b.WriteString("Check the AgriMarket app for guidance.")

	return subject, b.String()
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func classifyError(err error) *apperrors.StandardError {
	var sendErr *sendError
	if errors.As(err, &sendErr) {
		return apperrors.NewNotificationSendFailedError(sendErr.channel, sendErr.err)
	}
	return &apperrors.StandardError{
		Code:      "UNKNOWN_ERROR",
		Message:   "Unexpected error while sending notification",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
