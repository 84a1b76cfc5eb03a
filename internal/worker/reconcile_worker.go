package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"donortrack/internal/amqp"
	"donortrack/internal/core"
	"donortrack/internal/log"
)

// Reconciler recomputes program progress from donations.
// *services.DonationService implements it.
type Reconciler interface {
	ReconcileProgram(ctx context.Context, id int64) (core.Reconciliation, error)
	ReconcileAll(ctx context.Context, concurrency int) ([]core.Reconciliation, error)
}

// ReconcileWorker keeps stored program progress honest: it reconciles the
// programs named by donation events and periodically sweeps all of them.
type ReconcileWorker struct {
	reconciler  Reconciler
	concurrency int
	interval    time.Duration
	logger      *log.Logger
}

func NewReconcileWorker(reconciler Reconciler, concurrency int, interval time.Duration, logger *log.Logger) *ReconcileWorker {
	return &ReconcileWorker{
		reconciler:  reconciler,
		concurrency: concurrency,
		interval:    interval,
		logger:      logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent reconciles every program a donation event touched. Other
// event types are acknowledged and ignored. A returned error makes the
// consumer requeue the message.
func (w *ReconcileWorker) HandleEvent(ctx context.Context, e *amqp.Event) error {
	if !e.IsDonationEvent() {
		w.logger.DebugContext(ctx, "Ignoring event", "event_type", e.Type, "event_id", e.ID)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing donation event",
		"event_type", e.Type,
		"event_id", e.ID,
		log.FieldDonationID, e.DonationID,
		"program_ids", e.ProgramIDs)

	for _, id := range e.ProgramIDs {
		r, err := w.reconciler.ReconcileProgram(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			// deleted since the event was published; nothing to fix
			w.logger.InfoContext(ctx, "Program gone, skipping", log.FieldProgramID, id)
			continue
		}
		if err != nil {
			return fmt.Errorf("reconcile program %d: %w", id, err)
		}
		if !r.Drift.IsZero() {
			w.logger.WarnContext(ctx, "Drift after donation event",
				log.FieldProgramID, id,
				"drift_cents", r.Drift.Cents,
				"event_id", e.ID)
		}
	}
	return nil
}

// Sweep reconciles every program and returns how many had drifted.
func (w *ReconcileWorker) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	results, err := w.reconciler.ReconcileAll(ctx, w.concurrency)
	if err != nil {
		return 0, err
	}

	drifted := 0
	for _, r := range results {
		if !r.Drift.IsZero() {
			drifted++
		}
	}
	w.logger.InfoContext(ctx, "Reconciliation sweep finished",
		log.FieldOperation, log.OpReconcile,
		"programs", len(results),
		"drifted", drifted,
		log.FieldDuration, time.Since(start).Milliseconds())
	return drifted, nil
}

// RunSweeps sweeps once immediately and then every interval until ctx is
// cancelled. Sweep failures are logged and retried on the next tick.
func (w *ReconcileWorker) RunSweeps(ctx context.Context) {
	w.sweepLogged(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Reconciliation sweeps stopped")
			return
		case <-ticker.C:
			w.sweepLogged(ctx)
		}
	}
}

func (w *ReconcileWorker) sweepLogged(ctx context.Context) {
	if _, err := w.Sweep(ctx); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Reconciliation sweep failed", log.FieldError, err)
	}
}
