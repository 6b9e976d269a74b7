// internal/workers/credit/match-loan-offers/handler.go
package matchloanoffers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "agrimarket-workers/internal/common/errors"
	"agrimarket-workers/internal/common/logger"
	"agrimarket-workers/internal/common/metrics"
	"agrimarket-workers/internal/engine"
	"agrimarket-workers/internal/engine/creditscore"
	"agrimarket-workers/internal/engine/eligibility"
	"agrimarket-workers/internal/models"
	"agrimarket-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "match-loan-offers"
)

var (
	ErrInvalidRequest = errors.New("INVALID_INPUT")
)

type Handler struct {
	config   *Config
	profiles *store.ProfileStore
	catalog  *store.CatalogStore
	logger   logger.Logger
	errs     *apperrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	wlog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		profiles: store.NewProfileStore(db, redisClient, config.ProfileCacheTTL),
		catalog:  store.NewCatalogStore(db, redisClient, config.CatalogCacheTTL),
		logger:   wlog,
		errs:     apperrors.NewErrorHandler(wlog),
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

	metrics.LoanOffersMatched.WithLabelValues(TaskType).Observe(float64(output.EligibleCount))
	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.FarmerID == "" {
		return nil, fmt.Errorf("%w: farmerId is required", ErrInvalidRequest)
	}
	if input.Score < creditscore.ScoreFloor || input.Score > creditscore.ScoreCeiling {
		return nil, fmt.Errorf("%w: creditScore %d out of range", ErrInvalidRequest, input.Score)
	}

	profile, err := h.profiles.GetProfile(ctx, input.FarmerID)
	if err != nil {
		return nil, err
	}

	catalog, err := h.catalog.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}

	score := models.CreditScore{Value: input.Score, Band: input.Band}
	opts := eligibility.Options{
		RequestedPrincipal:  models.Money(input.RequestedPrincipalMinor),
		RequestedTermMonths: input.RequestedTermMonths,
	}

	offers, err := eligibility.MatchOffers(*profile, score, catalog, opts)
	if err != nil {
		return nil, err
	}

	eligibleCount := 0
	preApprovedCount := 0
	for _, offer := range offers {
		if offer.Eligible {
			eligibleCount++
		}
		if offer.PreApproved {
			preApprovedCount++
		}
	}

	h.logger.Debug("offers matched", map[string]interface{}{
		"farmerId":    input.FarmerID,
		"products":    len(offers),
		"eligible":    eligibleCount,
		"preApproved": preApprovedCount,
	})

	return &Output{
		FarmerID:         input.FarmerID,
		Offers:           offers,
		EligibleCount:    eligibleCount,
		PreApprovedCount: preApprovedCount,
	}, nil
}

func classifyError(input *Input, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, engine.ErrInvalidInput):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, store.ErrProfileNotFound):
		return apperrors.NewProfileNotFoundError(input.FarmerID)
	case errors.Is(err, store.ErrProfileFetchFailed):
		return apperrors.NewProfileFetchFailedError(err)
	case errors.Is(err, store.ErrCatalogEmpty):
		return apperrors.NewCatalogEmptyError()
	case errors.Is(err, store.ErrCatalogFetchFailed):
		return apperrors.NewCatalogFetchFailedError(err)
	default:
		return &apperrors.StandardError{
			Code:      "UNKNOWN_ERROR",
			Message:   "Unexpected error while matching loan offers",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
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
