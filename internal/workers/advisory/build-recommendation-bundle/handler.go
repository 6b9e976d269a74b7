// internal/workers/advisory/build-recommendation-bundle/handler.go
package buildrecommendationbundle

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "agrimarket-workers/internal/common/errors"
	"agrimarket-workers/internal/common/logger"
	"agrimarket-workers/internal/common/metrics"
	"agrimarket-workers/internal/common/weatherfeed"
	"agrimarket-workers/internal/engine"
	"agrimarket-workers/internal/engine/eligibility"
	"agrimarket-workers/internal/engine/recommend"
	"agrimarket-workers/internal/models"
	"agrimarket-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "build-recommendation-bundle"
)

var (
	ErrInvalidRequest    = errors.New("INVALID_INPUT")
	ErrBundleIndexFailed = errors.New("BUNDLE_INDEX_FAILED")
)

// WeatherFeed is the slice of the feed client the handler needs; tests
// substitute a stub.
type WeatherFeed interface {
	FetchSnapshot(ctx context.Context, region string) (*models.WeatherSnapshot, error)
}

type Handler struct {
	config   *Config
	profiles *store.ProfileStore
	catalog  *store.CatalogStore
	feed     WeatherFeed
	redis    *redis.Client
	esClient *elasticsearch.Client
	logger   logger.Logger
	errs     *apperrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, esClient *elasticsearch.Client, log logger.Logger) *Handler {
	h := newHandler(config, db, redisClient, esClient, log)
	h.feed = weatherfeed.NewClient(config.Feed)
	return h
}

// NewHandlerWithFeed injects a feed implementation directly.
func NewHandlerWithFeed(config *Config, db *sql.DB, redisClient *redis.Client, esClient *elasticsearch.Client, feed WeatherFeed, log logger.Logger) *Handler {
	h := newHandler(config, db, redisClient, esClient, log)
	h.feed = feed
	return h
}

func newHandler(config *Config, db *sql.DB, redisClient *redis.Client, esClient *elasticsearch.Client, log logger.Logger) *Handler {
	wlog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		profiles: store.NewProfileStore(db, redisClient, config.ProfileCacheTTL),
		catalog:  store.NewCatalogStore(db, redisClient, config.CatalogCacheTTL),
		redis:    redisClient,
		esClient: esClient,
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

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.FarmerID == "" {
		return nil, fmt.Errorf("%w: farmerId is required", ErrInvalidRequest)
	}

	profile, err := h.profiles.GetProfile(ctx, input.FarmerID)
	if err != nil {
		return nil, err
	}

	region := input.Region
	if region == "" {
		region = profile.Region
	}

	catalog, err := h.catalog.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := h.getSnapshot(ctx, region)
	if err != nil {
		return nil, err
	}

	bundle, err := recommend.BuildBundle(recommend.Inputs{
		Profile:  *profile,
		Snapshot: *snapshot,
		Catalog:  catalog,
		Rules:    h.config.Rules,
		Policy:   h.config.Policy,
		Options: eligibility.Options{
			RequestedPrincipal:  models.Money(input.RequestedPrincipalMinor),
			RequestedTermMonths: input.RequestedTermMonths,
		},
	})
	if err != nil {
		return nil, err
	}

	bundleID := uuid.New().String()
	indexedAt := time.Now().UTC()

	if err := h.indexBundle(ctx, bundleID, bundle, indexedAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBundleIndexFailed, err)
	}

	h.logger.Info("bundle built", map[string]interface{}{
		"farmerId": input.FarmerID,
		"bundleId": bundleID,
		"score":    bundle.CreditScore.Value,
		"offers":   len(bundle.Offers),
	})

	return &Output{
		BundleID:  bundleID,
		Bundle:    bundle,
		IndexedAt: indexedAt.Format(time.RFC3339),
	}, nil
}

// getSnapshot reads through the shared per-region weather cache.
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
	h.redis.Set(ctx, cacheKey, data, h.config.WeatherCacheTTL)

	return snapshot, nil
}

// indexBundle writes the bundle to the audit index. Advisory output given to
// farmers has to be reconstructible later, so an index failure fails the job.
func (h *Handler) indexBundle(ctx context.Context, bundleID string, bundle models.RecommendationBundle, indexedAt time.Time) error {
	doc := map[string]interface{}{
		"bundleId":  bundleID,
		"indexedAt": indexedAt.Format(time.RFC3339),
		"bundle":    bundle,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      h.config.BundleIndex,
		DocumentID: bundleID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, h.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index request failed: %s", res.Status())
	}
	return nil
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
	case errors.Is(err, weatherfeed.ErrFeedTimeout):
		return apperrors.NewWeatherFeedTimeoutError(input.Region)
	case errors.Is(err, ErrBundleIndexFailed):
		return apperrors.NewBundleIndexFailedError(err)
	default:
		return &apperrors.StandardError{
			Code:      "UNKNOWN_ERROR",
			Message:   "Unexpected error while building recommendation bundle",
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
