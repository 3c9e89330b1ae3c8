package filtervenues

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"venue-finder/internal/common/config"
	"venue-finder/internal/common/errors"
	"venue-finder/internal/common/logger"
	"venue-finder/internal/common/metrics"
	"venue-finder/internal/finder/filter"
	"venue-finder/internal/finder/store"
	"venue-finder/internal/models"
)

const TaskType = "filter-venues"

// JobRecorder receives per-job measurements.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, status string)
	RecordJobDuration(ctx context.Context, duration time.Duration, status string)
}

type nopRecorder struct{}

func (nopRecorder) RecordJobProcessed(context.Context, string)               {}
func (nopRecorder) RecordJobDuration(context.Context, time.Duration, string) {}

type Handler struct {
	config   *Config
	logger   logger.Logger
	errors   *errors.ErrorHandler
	recorder JobRecorder
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Logger       logger.Logger
	Recorder     JobRecorder
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.CustomConfig
	if cfg == nil {
		cfg = ConfigFromApp(opts.AppConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	var recorder JobRecorder = nopRecorder{}
	if opts.Recorder != nil {
		recorder = opts.Recorder
	}

	return &Handler{
		config:   cfg,
		logger:   log,
		errors:   errors.NewErrorHandler(log),
		recorder: recorder,
	}, nil
}

func (h *Handler) Config() *Config {
	return h.config
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err, startTime)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err, startTime)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.recorder.RecordJobProcessed(ctx, "completed")
	h.recorder.RecordJobDuration(ctx, time.Since(startTime), "completed")
}

// ==========================
// Execution
// ==========================

// Execute runs the filter pipeline over the venues carried by the job.
// Malformed or duplicate venues are dropped the way the loader drops them.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	criteria, err := h.criteria(input.Criteria)
	if err != nil {
		return nil, err
	}
	st, warnings := store.New(input.Venues, h.logger)

	set := filter.Apply(st.View(), criteria)
	summary := filter.Summarize(set)

	h.logger.Info("venues filtered", map[string]interface{}{
		"criteria": criteria.String(),
		"received": len(input.Venues),
		"dropped":  len(warnings),
		"matched":  set.Len(),
	})

	return &Output{
		Venues:  set.Venues(),
		Points:  set.Points(),
		Count:   set.Len(),
		Summary: summary,
		Dropped: len(warnings),
	}, nil
}

// criteria checks only the rating scale. Labels absent from the batch are
// valid and filter to an empty set.
func (h *Handler) criteria(in CriteriaInput) (models.Criteria, error) {
	c := models.Criteria{
		Cuisine:   in.Cuisine,
		PriceTier: in.PriceTier,
		MinRating: h.config.RatingMin,
	}
	if in.MinRating != nil {
		c.MinRating = *in.MinRating
	}

	if math.IsNaN(c.MinRating) || c.MinRating < h.config.RatingMin || c.MinRating > h.config.RatingMax {
		return c, errors.NewInvalidFilterFormatError(fmt.Sprintf("minRating %v outside %v..%v",
			c.MinRating, h.config.RatingMin, h.config.RatingMax))
	}
	return c, nil
}

// ==========================
// Job Plumbing
// ==========================

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	raw := []byte(job.GetVariables())

	result, err := inputSchema.ValidateBytes(raw)
	if err != nil {
		return nil, errors.NewInvalidFilterFormatError(fmt.Sprintf("parse variables: %v", err))
	}
	if !result.Valid {
		return nil, errors.NewInvalidFilterFormatError(
			"validation errors: " + strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInvalidFilterFormatError(fmt.Sprintf("decode variables: %v", err))
	}
	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey": job.GetKey(),
		"count":  output.Count,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, startTime time.Time) {
	code := string(errors.CodeOf(err))
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.recorder.RecordJobProcessed(ctx, "failed")
	h.recorder.RecordJobDuration(ctx, time.Since(startTime), "failed")

	h.errors.HandleJobError(ctx, client, job, err)
}
