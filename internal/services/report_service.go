package services

import (
	"context"
	"fmt"

	"donortrack/internal/core"
	"donortrack/internal/storage"
)

// ReportService computes the read-only report views on demand.
type ReportService struct {
	store *storage.Store
}

func NewReportService(store *storage.Store) *ReportService {
	return &ReportService{store: store}
}

// Reports bundles every view computed from one consistent snapshot.
type Reports struct {
	Programs           []core.ProgramSummary
	Donors             []core.DonorSummary
	UnfulfilledPledges []core.UnfulfilledPledge
	PendingThankYou    []core.PendingThankYou
}

func (s *ReportService) DonationsByProgram(ctx context.Context) ([]core.ProgramSummary, error) {
	var out []core.ProgramSummary
	err := s.store.InTx(ctx, func(q *storage.Queries) (err error) {
		out, err = q.ProgramSummaries(ctx)
		return err
	})
	return out, err
}

func (s *ReportService) DonationsByDonor(ctx context.Context) ([]core.DonorSummary, error) {
	var out []core.DonorSummary
	err := s.store.InTx(ctx, func(q *storage.Queries) (err error) {
		out, err = q.DonorSummaries(ctx)
		return err
	})
	return out, err
}

func (s *ReportService) UnfulfilledPledges(ctx context.Context) ([]core.UnfulfilledPledge, error) {
	var out []core.UnfulfilledPledge
	err := s.store.InTx(ctx, func(q *storage.Queries) (err error) {
		out, err = q.UnfulfilledPledges(ctx)
		return err
	})
	return out, err
}

func (s *ReportService) PendingThankYouNotes(ctx context.Context) ([]core.PendingThankYou, error) {
	var out []core.PendingThankYou
	err := s.store.InTx(ctx, func(q *storage.Queries) (err error) {
		out, err = q.PendingThankYouNotes(ctx)
		return err
	})
	return out, err
}

// All computes the four views inside a single transaction.
func (s *ReportService) All(ctx context.Context) (Reports, error) {
	var r Reports
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if r.Programs, err = q.ProgramSummaries(ctx); err != nil {
			return err
		}
		if r.Donors, err = q.DonorSummaries(ctx); err != nil {
			return err
		}
		if r.UnfulfilledPledges, err = q.UnfulfilledPledges(ctx); err != nil {
			return err
		}
		r.PendingThankYou, err = q.PendingThankYouNotes(ctx)
		return err
	})
	if err != nil {
		return Reports{}, fmt.Errorf("compute reports: %w", err)
	}
	return r, nil
}
