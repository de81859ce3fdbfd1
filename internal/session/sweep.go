package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DukeRupert/treadline/internal/clock"
)

// SweepTask deletes expired slots from a Backend. It satisfies the
// worker.Task interface.
type SweepTask struct {
	backend Backend
	clock   clock.Clock
	logger  *slog.Logger
}

// NewSweepTask creates a SweepTask.
func NewSweepTask(backend Backend, clk clock.Clock, logger *slog.Logger) *SweepTask {
	if clk == nil {
		clk = clock.Real()
	}
	return &SweepTask{backend: backend, clock: clk, logger: logger}
}

// Name implements worker.Task.
func (t *SweepTask) Name() string {
	return "session_sweep"
}

// Run implements worker.Task.
func (t *SweepTask) Run(ctx context.Context) error {
	n, err := t.backend.DeleteExpired(ctx, t.clock.Now())
	if err != nil {
		return fmt.Errorf("sweep sessions: %w", err)
	}
	if n > 0 {
		t.logger.Info("Swept expired session slots", "count", n)
	}
	return nil
}
