package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/catalogbridge/catalogbridge/jobs"
)

// Job processes catalog pipeline tasks from the queue.
type Job struct {
	service *Service
	logger  *slog.Logger
}

// NewJob constructs a job handler around the pipeline service.
func NewJob(service *Service, logger *slog.Logger) *Job {
	return &Job{service: service, logger: logger}
}

// HandleIngest fulfils the asynq.HandlerFunc contract for catalog:ingest.
func (j *Job) HandleIngest(ctx context.Context, task *asynq.Task) error {
	return j.run(ctx, task, jobs.TaskCatalogIngest, j.service.Ingest)
}

// HandleSync fulfils the asynq.HandlerFunc contract for catalog:sync.
func (j *Job) HandleSync(ctx context.Context, task *asynq.Task) error {
	return j.run(ctx, task, jobs.TaskCatalogSync, j.service.SyncToShopify)
}

// HandleReapplyPricing fulfils the contract for catalog:reapply_pricing.
func (j *Job) HandleReapplyPricing(ctx context.Context, task *asynq.Task) error {
	return j.run(ctx, task, jobs.TaskCatalogReapplyPricing, j.service.ReapplyPricingRules)
}

// HandleSyncAll fulfils the contract for catalog:sync_all.
func (j *Job) HandleSyncAll(ctx context.Context, task *asynq.Task) error {
	return j.run(ctx, task, jobs.TaskCatalogSyncAll, j.service.SyncAll)
}

func (j *Job) run(ctx context.Context, task *asynq.Task, taskType string, fn func(context.Context) ([]ItemResult, error)) error {
	var payload jobs.TriggerPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	results, err := fn(ctx)
	if err != nil {
		j.logger.Error("pipeline task",
			slog.String("task", taskType),
			slog.String("triggered_by", payload.TriggeredBy),
			slog.Any("error", err))
		return err
	}
	j.logger.Info("pipeline task finished",
		slog.String("task", taskType),
		slog.String("triggered_by", payload.TriggeredBy),
		slog.Int("items", len(results)),
		slog.Int("failed", Failed(results)))
	return nil
}
