package jobs

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskCatalogIngest pulls supplier products into the staging store.
	TaskCatalogIngest = "catalog:ingest"
	// TaskCatalogSync pushes staged products to the storefront.
	TaskCatalogSync = "catalog:sync"
	// TaskCatalogReapplyPricing recomputes prices for staged products.
	TaskCatalogReapplyPricing = "catalog:reapply_pricing"
	// TaskCatalogSyncAll runs ingest followed by sync.
	TaskCatalogSyncAll = "catalog:sync_all"
)

// TriggerPayload records who asked for a pipeline run.
type TriggerPayload struct {
	TriggeredBy string `json:"triggeredBy,omitempty"`
}

// NewPipelineTask constructs an Asynq task for one of the catalog task types.
func NewPipelineTask(taskType string, payload TriggerPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueuePipeline enqueues a catalog pipeline task. The task id equals the
// task type, so a trigger arriving while the same operation is still queued
// or running is rejected instead of racing on the staging rows; callers see
// that as "already scheduled", not an error.
func (c *Client) EnqueuePipeline(ctx context.Context, taskType string, payload TriggerPayload) (*asynq.TaskInfo, bool, error) {
	task, err := NewPipelineTask(taskType, payload)
	if err != nil {
		return nil, false, err
	}
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.TaskID(taskType),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return info, false, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
