package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"donortrack/internal/core"
)

const taxReceiptColumns = "id, donation_id, year_donated, total_amount_cents, generated_date, sent_date, " +
	"created_at, updated_at"

func scanTaxReceipt(row rowScanner) (core.TaxReceipt, error) {
	var (
		r                     core.TaxReceipt
		year, generated, sent dateCol
		created, updated      timeCol
	)
	err := row.Scan(&r.ID, &r.DonationID, &year, &r.TotalAmount.Cents, &generated, &sent, &created, &updated)
	if err != nil {
		return r, err
	}
	r.YearDonated, r.GeneratedDate, r.SentDate = year.Ptr(), generated.Date, sent.Ptr()
	r.CreatedAt, r.UpdatedAt = created.Time, updated.Time
	return r, nil
}

func taxReceiptValues(r core.TaxReceipt) map[string]any {
	return map[string]any{
		"donation_id":        r.DonationID,
		"year_donated":       nullDateArg(r.YearDonated),
		"total_amount_cents": r.TotalAmount.Cents,
		"generated_date":     dateArg(r.GeneratedDate),
		"sent_date":          nullDateArg(r.SentDate),
	}
}

func (q *Queries) CreateTaxReceipt(ctx context.Context, r core.TaxReceipt) (core.TaxReceipt, error) {
	now := q.now()
	values := taxReceiptValues(r)
	values["created_at"] = now
	values["updated_at"] = now

	b := q.sb.Insert("tax_receipts").SetMap(values).Suffix("RETURNING " + taxReceiptColumns)
	created, err := getOne(ctx, q, b, core.KindTaxReceipt, 0, scanTaxReceipt)
	if err != nil {
		return core.TaxReceipt{}, fmt.Errorf("create tax receipt: %w", err)
	}
	return created, nil
}

// CreateTaxReceiptIfAbsent stores r unless a receipt already references the
// same donation. created is false when nothing was written. Run it inside a
// transaction so the check and the insert see the same state.
func (q *Queries) CreateTaxReceiptIfAbsent(ctx context.Context, r core.TaxReceipt) (receipt core.TaxReceipt, created bool, err error) {
	n, err := q.count(ctx, "tax_receipts", sq.Eq{"donation_id": r.DonationID})
	if err != nil {
		return core.TaxReceipt{}, false, fmt.Errorf("check existing receipt: %w", err)
	}
	if n > 0 {
		return core.TaxReceipt{}, false, nil
	}
	receipt, err = q.CreateTaxReceipt(ctx, r)
	if err != nil {
		return core.TaxReceipt{}, false, err
	}
	return receipt, true, nil
}

func (q *Queries) GetTaxReceipt(ctx context.Context, id int64) (core.TaxReceipt, error) {
	b := q.sb.Select(taxReceiptColumns).From("tax_receipts").Where(sq.Eq{"id": id})
	return getOne(ctx, q, b, core.KindTaxReceipt, id, scanTaxReceipt)
}

func (q *Queries) ListTaxReceipts(ctx context.Context, f TaxReceiptFilter, p Page) ([]core.TaxReceipt, error) {
	b := p.apply(q.sb.Select(taxReceiptColumns).From("tax_receipts").Where(f.where()))
	receipts, err := getMany(ctx, q, b, scanTaxReceipt)
	if err != nil {
		return nil, fmt.Errorf("list tax receipts: %w", err)
	}
	return receipts, nil
}

func (q *Queries) UpdateTaxReceipt(ctx context.Context, id int64, r core.TaxReceipt) (core.TaxReceipt, error) {
	values := taxReceiptValues(r)
	values["updated_at"] = q.now()

	b := q.sb.Update("tax_receipts").SetMap(values).Where(sq.Eq{"id": id}).Suffix("RETURNING " + taxReceiptColumns)
	return getOne(ctx, q, b, core.KindTaxReceipt, id, scanTaxReceipt)
}

func (q *Queries) DeleteTaxReceipt(ctx context.Context, id int64) (core.TaxReceipt, error) {
	b := q.sb.Delete("tax_receipts").Where(sq.Eq{"id": id}).Suffix("RETURNING " + taxReceiptColumns)
	return getOne(ctx, q, b, core.KindTaxReceipt, id, scanTaxReceipt)
}

// DeleteTaxReceiptsForDonation removes every receipt of donationID and
// returns how many were deleted.
func (q *Queries) DeleteTaxReceiptsForDonation(ctx context.Context, donationID int64) (int64, error) {
	n, err := q.exec(ctx, q.sb.Delete("tax_receipts").Where(sq.Eq{"donation_id": donationID}))
	if err != nil {
		return 0, fmt.Errorf("delete tax receipts for donation: %w", err)
	}
	return n, nil
}
