package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"donortrack/internal/core"
)

const donationColumns = "id, donor_id, program_id, amount_cents, donation_date, payment_method, " +
	"transaction_id, is_tax_deductible, notes, created_at, updated_at"

func scanDonation(row rowScanner) (core.Donation, error) {
	var (
		d                   core.Donation
		programID           sql.NullInt64
		date                dateCol
		method, txID, notes sql.NullString
		created, updated    timeCol
	)
	err := row.Scan(&d.ID, &d.DonorID, &programID, &d.Amount.Cents, &date, &method,
		&txID, &d.IsTaxDeductible, &notes, &created, &updated)
	if err != nil {
		return d, err
	}
	d.ProgramID = int64Ptr(programID)
	d.DonationDate = date.Date
	d.PaymentMethod, d.TransactionID, d.Notes = strPtr(method), strPtr(txID), strPtr(notes)
	d.CreatedAt, d.UpdatedAt = created.Time, updated.Time
	return d, nil
}

func donationValues(d core.Donation) map[string]any {
	return map[string]any{
		"donor_id":          d.DonorID,
		"program_id":        nullInt64Arg(d.ProgramID),
		"amount_cents":      d.Amount.Cents,
		"donation_date":     dateArg(d.DonationDate),
		"payment_method":    nullStringArg(d.PaymentMethod),
		"transaction_id":    nullStringArg(d.TransactionID),
		"is_tax_deductible": d.IsTaxDeductible,
		"notes":             nullStringArg(d.Notes),
	}
}

func (q *Queries) CreateDonation(ctx context.Context, d core.Donation) (core.Donation, error) {
	now := q.now()
	values := donationValues(d)
	values["created_at"] = now
	values["updated_at"] = now

	b := q.sb.Insert("donations").SetMap(values).Suffix("RETURNING " + donationColumns)
	created, err := getOne(ctx, q, b, core.KindDonation, 0, scanDonation)
	if err != nil {
		return core.Donation{}, fmt.Errorf("create donation: %w", err)
	}

	slog.InfoContext(ctx, "Donation saved",
		"donation_id", created.ID,
		"donor_id", created.DonorID,
		"amount_cents", created.Amount.Cents)
	return created, nil
}

func (q *Queries) GetDonation(ctx context.Context, id int64) (core.Donation, error) {
	b := q.sb.Select(donationColumns).From("donations").Where(sq.Eq{"id": id})
	return getOne(ctx, q, b, core.KindDonation, id, scanDonation)
}

func (q *Queries) ListDonations(ctx context.Context, f DonationFilter, p Page) ([]core.Donation, error) {
	b := p.apply(q.sb.Select(donationColumns).From("donations").Where(f.where()))
	donations, err := getMany(ctx, q, b, scanDonation)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return donations, nil
}

func (q *Queries) UpdateDonation(ctx context.Context, id int64, d core.Donation) (core.Donation, error) {
	values := donationValues(d)
	values["updated_at"] = q.now()

	b := q.sb.Update("donations").SetMap(values).Where(sq.Eq{"id": id}).Suffix("RETURNING " + donationColumns)
	return getOne(ctx, q, b, core.KindDonation, id, scanDonation)
}

func (q *Queries) DeleteDonation(ctx context.Context, id int64) (core.Donation, error) {
	b := q.sb.Delete("donations").Where(sq.Eq{"id": id}).Suffix("RETURNING " + donationColumns)
	return getOne(ctx, q, b, core.KindDonation, id, scanDonation)
}

func (q *Queries) DonationExists(ctx context.Context, id int64) (bool, error) {
	return q.exists(ctx, "donations", id)
}

// ListTaxDeductibleDonations returns tax-deductible donations dated within
// [from, to], both inclusive, in id order.
func (q *Queries) ListTaxDeductibleDonations(ctx context.Context, from, to core.Date) ([]core.Donation, error) {
	b := q.sb.Select(donationColumns).From("donations").
		Where(sq.And{
			sq.Eq{"is_tax_deductible": true},
			sq.GtOrEq{"donation_date": dateArg(from)},
			sq.LtOrEq{"donation_date": dateArg(to)},
		}).
		OrderBy("id")
	donations, err := getMany(ctx, q, b, scanDonation)
	if err != nil {
		return nil, fmt.Errorf("list tax-deductible donations: %w", err)
	}
	return donations, nil
}
