package services

import (
	"context"
	"fmt"

	"donortrack/internal/core"
	"donortrack/internal/storage"
)

// TaxReceiptService is manual receipt CRUD. Bulk issuing goes through
// ReceiptGenerator.
type TaxReceiptService struct {
	store *storage.Store
}

func NewTaxReceiptService(store *storage.Store) *TaxReceiptService {
	return &TaxReceiptService{store: store}
}

func (s *TaxReceiptService) Create(ctx context.Context, r core.TaxReceipt) (core.TaxReceipt, error) {
	var created core.TaxReceipt
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		if err := checkDonation(ctx, q, r.DonationID); err != nil {
			return err
		}
		var err error
		created, err = q.CreateTaxReceipt(ctx, r)
		return err
	})
	if err != nil {
		return core.TaxReceipt{}, fmt.Errorf("create tax receipt: %w", err)
	}
	return created, nil
}

func (s *TaxReceiptService) Get(ctx context.Context, id int64) (core.TaxReceipt, error) {
	return s.store.Queries().GetTaxReceipt(ctx, id)
}

func (s *TaxReceiptService) List(ctx context.Context, f storage.TaxReceiptFilter, p storage.Page) ([]core.TaxReceipt, error) {
	return s.store.Queries().ListTaxReceipts(ctx, f, p)
}

func (s *TaxReceiptService) Update(ctx context.Context, id int64, r core.TaxReceipt) (core.TaxReceipt, error) {
	var updated core.TaxReceipt
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetTaxReceipt(ctx, id); err != nil {
			return err
		}
		if err := checkDonation(ctx, q, r.DonationID); err != nil {
			return err
		}
		var err error
		updated, err = q.UpdateTaxReceipt(ctx, id, r)
		return err
	})
	if err != nil {
		return core.TaxReceipt{}, fmt.Errorf("update tax receipt: %w", err)
	}
	return updated, nil
}

func (s *TaxReceiptService) Delete(ctx context.Context, id int64) (core.TaxReceipt, error) {
	return s.store.Queries().DeleteTaxReceipt(ctx, id)
}

func checkDonation(ctx context.Context, q *storage.Queries, id int64) error {
	ok, err := q.DonationExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return core.NotFound(core.KindDonation, id)
	}
	return nil
}
