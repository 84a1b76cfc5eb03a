package services

import (
	"context"
	"fmt"

	"donortrack/internal/core"
	"donortrack/internal/storage"
)

type DonorService struct {
	store *storage.Store
}

func NewDonorService(store *storage.Store) *DonorService {
	return &DonorService{store: store}
}

func (s *DonorService) Create(ctx context.Context, d core.Donor) (core.Donor, error) {
	return s.store.Queries().CreateDonor(ctx, d)
}

func (s *DonorService) Get(ctx context.Context, id int64) (core.Donor, error) {
	return s.store.Queries().GetDonor(ctx, id)
}

func (s *DonorService) List(ctx context.Context, f storage.DonorFilter, p storage.Page) ([]core.Donor, error) {
	return s.store.Queries().ListDonors(ctx, f, p)
}

func (s *DonorService) Update(ctx context.Context, id int64, d core.Donor) (core.Donor, error) {
	return s.store.Queries().UpdateDonor(ctx, id, d)
}

// Delete removes a donor that has no donations, pledges or thank-you
// notes. A donor still referenced yields core.ErrInUse.
func (s *DonorService) Delete(ctx context.Context, id int64) (core.Donor, error) {
	var deleted core.Donor
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetDonor(ctx, id); err != nil {
			return err
		}
		refs, err := q.DonorReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("donor %d has %d dependent records: %w", id, refs, core.ErrInUse)
		}
		deleted, err = q.DeleteDonor(ctx, id)
		return err
	})
	if err != nil {
		return core.Donor{}, fmt.Errorf("delete donor: %w", err)
	}
	return deleted, nil
}
