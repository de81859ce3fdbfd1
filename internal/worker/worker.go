// Package worker runs periodic maintenance tasks in the background.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type scheduled struct {
	task     Task
	interval time.Duration
}

// Worker runs each registered task on its own interval.
type Worker struct {
	tasks  []scheduled
	config Config
	logger *slog.Logger

	// Synchronization
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a new Worker with the given configuration.
// The worker must be started with Start() and stopped with Stop().
func New(config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Worker{
		config: config,
		logger: logger.With("component", "worker"),
		stopCh: make(chan struct{}),
	}, nil
}

// Register schedules task every interval. Call this before Start().
func (w *Worker) Register(task Task, interval time.Duration) error {
	if interval < w.config.MinInterval {
		return fmt.Errorf("task %s: interval %v is below the minimum %v", task.Name(), interval, w.config.MinInterval)
	}
	w.tasks = append(w.tasks, scheduled{task: task, interval: interval})
	w.logger.Debug("Registered task", "task", task.Name(), "interval", interval)
	return nil
}

// Start runs every registered task once and then on its interval until
// Stop is called or ctx is done.
func (w *Worker) Start(ctx context.Context) {
	for _, s := range w.tasks {
		w.wg.Add(1)
		go w.runTask(ctx, s)
	}

	w.logger.Info("Worker started", "tasks", len(w.tasks))
}

// Stop signals all tasks to stop and waits for them to finish.
// It respects the configured ShutdownTimeout.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping worker...")
		close(w.stopCh)
	})

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Worker shutdown timeout exceeded, some tasks may still be running")
	}
}

// runTask is the loop for one task's goroutine.
func (w *Worker) runTask(ctx context.Context, s scheduled) {
	defer w.wg.Done()

	logger := w.logger.With("task", s.task.Name())
	logger.Debug("Task loop started")

	if !w.runOnce(ctx, s.task, logger) {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			logger.Debug("Task loop stopping")
			return
		case <-ctx.Done():
			logger.Debug("Task loop context done")
			return
		case <-ticker.C:
			if !w.runOnce(ctx, s.task, logger) {
				return
			}
		}
	}
}

// runOnce runs task with the task timeout. It returns false when the task
// must not run again.
func (w *Worker) runOnce(ctx context.Context, task Task, logger *slog.Logger) bool {
	runCtx, cancel := context.WithTimeout(ctx, w.config.TaskTimeout)
	defer cancel()

	start := time.Now()
	err := task.Run(runCtx)
	if err == nil {
		logger.Debug("Task completed", "duration", time.Since(start))
		return true
	}
	if IsPermanent(err) {
		logger.Error("Task failed permanently, unscheduling", "error", err)
		return false
	}
	logger.Error("Task failed", "error", err)
	return true
}
