package services

import (
	"context"
	"fmt"

	"donortrack/internal/core"
	"donortrack/internal/storage"
)

type PledgeService struct {
	store *storage.Store
}

func NewPledgeService(store *storage.Store) *PledgeService {
	return &PledgeService{store: store}
}

func (s *PledgeService) Create(ctx context.Context, p core.Pledge) (core.Pledge, error) {
	var created core.Pledge
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		if err := checkReferences(ctx, q, p.DonorID, p.ProgramID); err != nil {
			return err
		}
		var err error
		created, err = q.CreatePledge(ctx, p)
		return err
	})
	if err != nil {
		return core.Pledge{}, fmt.Errorf("create pledge: %w", err)
	}
	return created, nil
}

func (s *PledgeService) Get(ctx context.Context, id int64) (core.Pledge, error) {
	return s.store.Queries().GetPledge(ctx, id)
}

func (s *PledgeService) List(ctx context.Context, f storage.PledgeFilter, p storage.Page) ([]core.Pledge, error) {
	return s.store.Queries().ListPledges(ctx, f, p)
}

func (s *PledgeService) Update(ctx context.Context, id int64, p core.Pledge) (core.Pledge, error) {
	var updated core.Pledge
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetPledge(ctx, id); err != nil {
			return err
		}
		if err := checkReferences(ctx, q, p.DonorID, p.ProgramID); err != nil {
			return err
		}
		var err error
		updated, err = q.UpdatePledge(ctx, id, p)
		return err
	})
	if err != nil {
		return core.Pledge{}, fmt.Errorf("update pledge: %w", err)
	}
	return updated, nil
}

func (s *PledgeService) Delete(ctx context.Context, id int64) (core.Pledge, error) {
	return s.store.Queries().DeletePledge(ctx, id)
}
