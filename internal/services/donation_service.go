package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"donortrack/internal/amqp"
	"donortrack/internal/core"
	"donortrack/internal/storage"
)

// DonationService is the progress ledger. It is the only writer of a
// program's current progress: every donation mutation and the matching
// progress adjustments commit in one transaction.
type DonationService struct {
	store     *storage.Store
	publisher Publisher
}

func NewDonationService(store *storage.Store, publisher Publisher) *DonationService {
	return &DonationService{store: store, publisher: publisher}
}

func (s *DonationService) Create(ctx context.Context, d core.Donation) (core.Donation, error) {
	var created core.Donation
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		if err := checkReferences(ctx, q, d.DonorID, d.ProgramID); err != nil {
			return err
		}

		var err error
		created, err = q.CreateDonation(ctx, d)
		if err != nil {
			return err
		}
		if created.ProgramID != nil {
			return adjust(ctx, q, *created.ProgramID, created.Amount)
		}
		return nil
	})
	if err != nil {
		return core.Donation{}, fmt.Errorf("create donation: %w", err)
	}

	publish(ctx, s.publisher, amqp.NewDonationEvent(amqp.EventDonationCreated, created.ID, programIDs(created.ProgramID)))
	return created, nil
}

func (s *DonationService) Get(ctx context.Context, id int64) (core.Donation, error) {
	return s.store.Queries().GetDonation(ctx, id)
}

func (s *DonationService) List(ctx context.Context, f storage.DonationFilter, p storage.Page) ([]core.Donation, error) {
	return s.store.Queries().ListDonations(ctx, f, p)
}

// Update replaces donation id. The prior amount is taken off the prior
// program and the new amount is put on the new program, even when both are
// the same program.
func (s *DonationService) Update(ctx context.Context, id int64, d core.Donation) (core.Donation, error) {
	var prior, updated core.Donation
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		var err error
		prior, err = q.GetDonation(ctx, id)
		if err != nil {
			return err
		}
		if err := checkReferences(ctx, q, d.DonorID, d.ProgramID); err != nil {
			return err
		}

		updated, err = q.UpdateDonation(ctx, id, d)
		if err != nil {
			return err
		}
		if prior.ProgramID != nil {
			if err := adjust(ctx, q, *prior.ProgramID, prior.Amount.Neg()); err != nil {
				return err
			}
		}
		if updated.ProgramID != nil {
			return adjust(ctx, q, *updated.ProgramID, updated.Amount)
		}
		return nil
	})
	if err != nil {
		return core.Donation{}, fmt.Errorf("update donation: %w", err)
	}

	publish(ctx, s.publisher, amqp.NewDonationEvent(amqp.EventDonationUpdated, id, programIDs(prior.ProgramID, updated.ProgramID)))
	return updated, nil
}

// Delete removes donation id together with its tax receipts and thank-you
// notes, and takes its amount off its program. It returns the donation as
// it was before removal.
func (s *DonationService) Delete(ctx context.Context, id int64) (core.Donation, error) {
	var deleted core.Donation
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		prior, err := q.GetDonation(ctx, id)
		if err != nil {
			return err
		}
		if prior.ProgramID != nil {
			if err := adjust(ctx, q, *prior.ProgramID, prior.Amount.Neg()); err != nil {
				return err
			}
		}

		receipts, err := q.DeleteTaxReceiptsForDonation(ctx, id)
		if err != nil {
			return err
		}
		notes, err := q.DeleteThankYouNotesForDonation(ctx, id)
		if err != nil {
			return err
		}
		if receipts > 0 || notes > 0 {
			slog.InfoContext(ctx, "Removed donation dependents",
				"donation_id", id,
				"tax_receipts", receipts,
				"thank_you_notes", notes)
		}

		deleted, err = q.DeleteDonation(ctx, id)
		return err
	})
	if err != nil {
		return core.Donation{}, fmt.Errorf("delete donation: %w", err)
	}

	publish(ctx, s.publisher, amqp.NewDonationEvent(amqp.EventDonationDeleted, id, programIDs(deleted.ProgramID)))
	return deleted, nil
}

// ReconcileProgram recomputes the progress of program id from its
// donations and stores it. Drift is the difference it corrected.
func (s *DonationService) ReconcileProgram(ctx context.Context, id int64) (core.Reconciliation, error) {
	var r core.Reconciliation
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		program, err := q.GetProgram(ctx, id)
		if err != nil {
			return err
		}
		sum, err := q.SumProgramDonations(ctx, id)
		if err != nil {
			return err
		}

		r = core.Reconciliation{
			ProgramID: id,
			Previous:  program.CurrentProgress,
			Current:   sum,
			Drift:     sum.Sub(program.CurrentProgress),
		}
		if r.Drift.IsZero() {
			return nil
		}
		return q.SetProgramProgress(ctx, id, sum)
	})
	if err != nil {
		return core.Reconciliation{}, fmt.Errorf("reconcile program %d: %w", id, err)
	}

	if !r.Drift.IsZero() {
		slog.WarnContext(ctx, "Program progress drift corrected",
			"program_id", id,
			"previous_cents", r.Previous.Cents,
			"current_cents", r.Current.Cents,
			"drift_cents", r.Drift.Cents)
	}
	return r, nil
}

// ReconcileAll reconciles every program with at most concurrency programs
// in flight. Results are in program id order; programs deleted while the
// sweep runs are left out.
func (s *DonationService) ReconcileAll(ctx context.Context, concurrency int) ([]core.Reconciliation, error) {
	ids, err := s.store.Queries().ListProgramIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile all: %w", err)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*core.Reconciliation, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			r, err := s.ReconcileProgram(gctx, id)
			if errors.Is(err, core.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reconcile all: %w", err)
	}

	out := make([]core.Reconciliation, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// checkReferences verifies the donor and, when set, the program exist.
func checkReferences(ctx context.Context, q *storage.Queries, donorID int64, programID *int64) error {
	ok, err := q.DonorExists(ctx, donorID)
	if err != nil {
		return err
	}
	if !ok {
		return core.NotFound(core.KindDonor, donorID)
	}
	if programID == nil {
		return nil
	}
	ok, err = q.ProgramExists(ctx, *programID)
	if err != nil {
		return err
	}
	if !ok {
		return core.NotFound(core.KindProgram, *programID)
	}
	return nil
}

// adjust applies delta to a program's progress. A program that no longer
// exists has nothing to adjust.
func adjust(ctx context.Context, q *storage.Queries, programID int64, delta core.Money) error {
	ok, err := q.AdjustProgramProgress(ctx, programID, delta)
	if err != nil {
		return err
	}
	if !ok {
		slog.WarnContext(ctx, "Skipped progress adjustment for missing program", "program_id", programID)
	}
	return nil
}

// programIDs lists the distinct non-nil program references.
func programIDs(refs ...*int64) []int64 {
	var ids []int64
	seen := map[int64]bool{}
	for _, ref := range refs {
		if ref == nil || seen[*ref] {
			continue
		}
		seen[*ref] = true
		ids = append(ids, *ref)
	}
	return ids
}
