package services

import (
	"context"
	"sync"
	"time"

	"reasoning_backend/models"
	"reasoning_backend/pkg/logging"
)

// JobRunner executes one queued run.
type JobRunner interface {
	RunJob(ctx context.Context, job *models.SolveJob) (*models.SolveRes, error)
}

// Worker drains the solve queue with a fixed number of loops.
type Worker struct {
	runner      JobRunner
	queue       JobQueue
	idleWait    time.Duration
	concurrency int
}

func NewWorker(runner JobRunner, queue JobQueue, idleWait time.Duration, concurrency int) *Worker {
	if idleWait <= 0 {
		idleWait = 5 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{runner: runner, queue: queue, idleWait: idleWait, concurrency: concurrency}
}

// Run blocks until ctx is canceled and every loop has finished its current job.
func (w *Worker) Run(ctx context.Context) error {
	logging.Logger.Info("worker started", "concurrency", w.concurrency)
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()
	logging.Logger.Info("worker stopped")
	return nil
}

func (w *Worker) loop(ctx context.Context, id int) {
	for ctx.Err() == nil {
		job, err := w.queue.PopJob(ctx, w.idleWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Logger.Error("fail PopJob", "worker", id, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.idleWait):
			}
			continue
		}
		if job == nil {
			continue
		}
		w.handle(ctx, id, job)
	}
}

func (w *Worker) handle(ctx context.Context, id int, job *models.SolveJob) {
	start := time.Now()
	logging.Logger.Info("job received", "worker", id, "runID", job.RunID)
	res, err := w.runner.RunJob(ctx, job)
	if err != nil {
		logging.Logger.Error("fail RunJob", "worker", id, "runID", job.RunID, "error", err)
		return
	}
	if res == nil {
		return
	}
	logging.Logger.Info("job done",
		"worker", id,
		"runID", job.RunID,
		"status", res.Status,
		"duration", time.Since(start),
	)
}
