package camunda

import (
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"venue-finder/internal/common/config"
	"venue-finder/internal/common/logger"
)

// Worker is one open job worker subscription.
type Worker struct {
	worker   worker.JobWorker
	log      logger.Logger
	taskType string
}

// StartWorker opens a job worker for taskType with the per-task limits.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler worker.JobHandler, log logger.Logger) *Worker {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout":       config.GetDuration(wcfg.Timeout).String(),
	})
	return &Worker{worker: jobWorker, log: log, taskType: taskType}
}

// Close stops polling and waits for in-flight jobs.
func (w *Worker) Close() {
	w.log.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
