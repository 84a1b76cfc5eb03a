package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"donortrack/internal/amqp"
	"donortrack/internal/core"
	"donortrack/internal/storage"
)

const (
	MinReceiptYear = 1
	MaxReceiptYear = 9999
)

// ReceiptGenerator issues one tax receipt per tax-deductible donation of a
// calendar year. Donations that already have a receipt are skipped, so
// running it again for the same year creates nothing.
type ReceiptGenerator struct {
	store     *storage.Store
	publisher Publisher
	now       func() time.Time
}

func NewReceiptGenerator(store *storage.Store, publisher Publisher) *ReceiptGenerator {
	return &ReceiptGenerator{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// SetClock overrides the source of the generation date.
func (g *ReceiptGenerator) SetClock(now func() time.Time) {
	g.now = now
}

// GenerateForYear returns the receipts created by this run, in donation id order.
func (g *ReceiptGenerator) GenerateForYear(ctx context.Context, year int) ([]core.TaxReceipt, error) {
	if year < MinReceiptYear || year > MaxReceiptYear {
		return nil, fmt.Errorf("year %d out of range %d..%d: %w", year, MinReceiptYear, MaxReceiptYear, core.ErrInvalid)
	}

	from, to := core.YearBounds(year)
	today := core.DateOf(g.now())
	created := []core.TaxReceipt{}

	err := g.store.InTx(ctx, func(q *storage.Queries) error {
		donations, err := q.ListTaxDeductibleDonations(ctx, from, to)
		if err != nil {
			return err
		}

		for _, d := range donations {
			receipt, ok, err := q.CreateTaxReceiptIfAbsent(ctx, core.TaxReceipt{
				DonationID:    d.ID,
				YearDonated:   &from,
				TotalAmount:   d.Amount,
				GeneratedDate: today,
			})
			if err != nil {
				return fmt.Errorf("donation %d: %w", d.ID, err)
			}
			if ok {
				created = append(created, receipt)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generate tax receipts for %d: %w", year, err)
	}

	slog.InfoContext(ctx, "Tax receipts generated", "year", year, "count", len(created))
	publish(ctx, g.publisher, amqp.NewReceiptsGeneratedEvent(year, len(created)))
	return created, nil
}
