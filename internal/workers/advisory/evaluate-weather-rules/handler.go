// internal/workers/advisory/evaluate-weather-rules/handler.go
package evaluateweatherrules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "agrimarket-workers/internal/common/errors"
	"agrimarket-workers/internal/common/logger"
	"agrimarket-workers/internal/common/metrics"
	"agrimarket-workers/internal/common/weatherfeed"
	"agrimarket-workers/internal/engine"
	"agrimarket-workers/internal/engine/weatherrule"
	"agrimarket-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "evaluate-weather-rules"
)

var (
	ErrMissingRegion = errors.New("INVALID_INPUT")
)

// WeatherFeed is the slice of the feed client the handler needs; tests
// substitute a stub.
type WeatherFeed interface {
	FetchSnapshot(ctx context.Context, region string) (*models.WeatherSnapshot, error)
}

type Handler struct {
	config *Config
	feed   WeatherFeed
	redis  *redis.Client
	logger logger.Logger
	errs   *apperrors.ErrorHandler
}

func NewHandler(config *Config, redisClient *redis.Client, log logger.Logger) *Handler {
	return NewHandlerWithFeed(config, weatherfeed.NewClient(config.Feed), redisClient, log)
}

// NewHandlerWithFeed injects a feed implementation directly.
func NewHandlerWithFeed(config *Config, feed WeatherFeed, redisClient *redis.Client, log logger.Logger) *Handler {
	wlog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		feed:   feed,
		redis:  redisClient,
		logger: wlog,
		errs:   apperrors.NewErrorHandler(wlog),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
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
		stdErr := classifyError(&input, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errs.HandleJobError(ctx, client, job, stdErr)
		return
	}

	for _, alert := range output.Alerts {
		if alert.RuleID != weatherrule.NoAlertRuleID {
			metrics.WeatherAlertsRaised.WithLabelValues(alert.RuleID, string(alert.Priority)).Inc()
		}
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Region == "" {
		return nil, fmt.Errorf("%w: region is required", ErrMissingRegion)
	}

	snapshot, err := h.getSnapshot(ctx, input.Region)
	if err != nil {
		return nil, err
	}

	findings, err := weatherrule.Evaluate(*snapshot, h.config.Rules)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("rules evaluated", map[string]interface{}{
		"region":     input.Region,
		"alerts":     len(findings.Alerts),
		"advisories": len(findings.Advisories),
	})

	return &Output{
		Region:           input.Region,
		ObservedAt:       snapshot.Timestamp,
		Alerts:           findings.Alerts,
		Advisories:       findings.Advisories,
		RuleTableVersion: h.config.RuleTableVersion,
	}, nil
}

// getSnapshot reads through a short-lived Redis cache so a burst of
// advisory requests for one region hits the provider once.
func (h *Handler) getSnapshot(ctx context.Context, region string) (*models.WeatherSnapshot, error) {
	cacheKey := "weather:" + region
	if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var snapshot models.WeatherSnapshot
		if err := json.Unmarshal([]byte(val), &snapshot); err == nil {
			return &snapshot, nil
		}
	}

	snapshot, err := h.feed.FetchSnapshot(ctx, region)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(snapshot)
	h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL)

	return snapshot, nil
}

func classifyError(input *Input, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrMissingRegion), errors.Is(err, engine.ErrInvalidInput):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, weatherfeed.ErrFeedTimeout):
		return apperrors.NewWeatherFeedTimeoutError(input.Region)
	default:
		return apperrors.NewWeatherFeedUnavailableError(err)
	}
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
