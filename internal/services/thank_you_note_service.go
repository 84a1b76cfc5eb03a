package services

import (
	"context"
	"fmt"

	"donortrack/internal/core"
	"donortrack/internal/storage"
)

type ThankYouNoteService struct {
	store *storage.Store
}

func NewThankYouNoteService(store *storage.Store) *ThankYouNoteService {
	return &ThankYouNoteService{store: store}
}

func (s *ThankYouNoteService) Create(ctx context.Context, n core.ThankYouNote) (core.ThankYouNote, error) {
	var created core.ThankYouNote
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		if err := checkDonorAndDonation(ctx, q, n); err != nil {
			return err
		}
		var err error
		created, err = q.CreateThankYouNote(ctx, n)
		return err
	})
	if err != nil {
		return core.ThankYouNote{}, fmt.Errorf("create thank you note: %w", err)
	}
	return created, nil
}

func (s *ThankYouNoteService) Get(ctx context.Context, id int64) (core.ThankYouNote, error) {
	return s.store.Queries().GetThankYouNote(ctx, id)
}

func (s *ThankYouNoteService) List(ctx context.Context, f storage.ThankYouNoteFilter, p storage.Page) ([]core.ThankYouNote, error) {
	return s.store.Queries().ListThankYouNotes(ctx, f, p)
}

func (s *ThankYouNoteService) Update(ctx context.Context, id int64, n core.ThankYouNote) (core.ThankYouNote, error) {
	var updated core.ThankYouNote
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetThankYouNote(ctx, id); err != nil {
			return err
		}
		if err := checkDonorAndDonation(ctx, q, n); err != nil {
			return err
		}
		var err error
		updated, err = q.UpdateThankYouNote(ctx, id, n)
		return err
	})
	if err != nil {
		return core.ThankYouNote{}, fmt.Errorf("update thank you note: %w", err)
	}
	return updated, nil
}

func (s *ThankYouNoteService) Delete(ctx context.Context, id int64) (core.ThankYouNote, error) {
	return s.store.Queries().DeleteThankYouNote(ctx, id)
}

func checkDonorAndDonation(ctx context.Context, q *storage.Queries, n core.ThankYouNote) error {
	if err := checkReferences(ctx, q, n.DonorID, nil); err != nil {
		return err
	}
	return checkDonation(ctx, q, n.DonationID)
}
