package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"donortrack/internal/core"
)

// Report queries scan whole tables; they are not paginated.

func (q *Queries) ProgramSummaries(ctx context.Context) ([]core.ProgramSummary, error) {
	b := q.sb.Select(
		"p.id", "p.name", "p.goal_amount_cents",
		"COUNT(d.id)",
		"CAST(COALESCE(SUM(d.amount_cents), 0) AS BIGINT)",
		"COUNT(DISTINCT d.donor_id)",
	).
		From("programs p").
		LeftJoin("donations d ON d.program_id = p.id").
		GroupBy("p.id", "p.name", "p.goal_amount_cents").
		OrderBy("p.id")

	summaries, err := getMany(ctx, q, b, func(row rowScanner) (core.ProgramSummary, error) {
		var (
			s    core.ProgramSummary
			goal sql.NullInt64
		)
		if err := row.Scan(&s.ProgramID, &s.ProgramName, &goal, &s.TotalDonations, &s.TotalAmount.Cents, &s.DonorCount); err != nil {
			return s, err
		}
		s.GoalAmount = moneyPtr(goal)
		s.ProgressPercentage = core.ProgressPercentage(s.TotalAmount, s.GoalAmount)
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("program summaries: %w", err)
	}
	return summaries, nil
}

func (q *Queries) DonorSummaries(ctx context.Context) ([]core.DonorSummary, error) {
	b := q.sb.Select(
		"dn.id", "dn.donor_type", "dn.first_name", "dn.last_name", "dn.organization_name",
		"COUNT(d.id)",
		"CAST(COALESCE(SUM(d.amount_cents), 0) AS BIGINT)",
		"MIN(d.donation_date)", "MAX(d.donation_date)",
	).
		From("donors dn").
		LeftJoin("donations d ON d.donor_id = dn.id").
		GroupBy("dn.id", "dn.donor_type", "dn.first_name", "dn.last_name", "dn.organization_name").
		OrderBy("dn.id")

	summaries, err := getMany(ctx, q, b, func(row rowScanner) (core.DonorSummary, error) {
		var (
			s                core.DonorSummary
			first, last, org sql.NullString
			earliest, latest dateCol
		)
		err := row.Scan(&s.DonorID, &s.DonorType, &first, &last, &org,
			&s.TotalDonations, &s.TotalAmount.Cents, &earliest, &latest)
		if err != nil {
			return s, err
		}
		s.DonorName = core.DisplayName(s.DonorType, strPtr(first), strPtr(last), strPtr(org))
		s.FirstDonationDate, s.LastDonationDate = earliest.Ptr(), latest.Ptr()
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("donor summaries: %w", err)
	}
	return summaries, nil
}

// UnfulfilledPledges lists pledges that are not both marked fulfilled and
// fully paid. A pledge without a status counts as unfulfilled.
func (q *Queries) UnfulfilledPledges(ctx context.Context) ([]core.UnfulfilledPledge, error) {
	b := q.sb.Select(
		"pl.id", "pl.donor_id", "dn.donor_type", "dn.first_name", "dn.last_name", "dn.organization_name",
		"pl.program_id", "pr.name",
		"pl.amount_cents", "pl.amount_fulfilled_cents", "pl.pledge_date", "pl.status",
	).
		From("pledges pl").
		Join("donors dn ON dn.id = pl.donor_id").
		LeftJoin("programs pr ON pr.id = pl.program_id").
		Where(sq.Or{
			sq.Expr("pl.amount_fulfilled_cents < pl.amount_cents"),
			sq.Expr("COALESCE(pl.status, '') <> ?", core.PledgeFulfilled),
		}).
		OrderBy("pl.id")

	pledges, err := getMany(ctx, q, b, func(row rowScanner) (core.UnfulfilledPledge, error) {
		var (
			p                                 core.UnfulfilledPledge
			donorType                         string
			first, last, org, program, status sql.NullString
			programID                         sql.NullInt64
			pledged                           dateCol
		)
		err := row.Scan(&p.PledgeID, &p.DonorID, &donorType, &first, &last, &org,
			&programID, &program,
			&p.PledgeAmount.Cents, &p.AmountFulfilled.Cents, &pledged, &status)
		if err != nil {
			return p, err
		}
		p.DonorName = core.DisplayName(donorType, strPtr(first), strPtr(last), strPtr(org))
		p.ProgramID, p.ProgramName = int64Ptr(programID), strPtr(program)
		p.RemainingAmount = p.PledgeAmount.Sub(p.AmountFulfilled)
		p.PledgeDate, p.Status = pledged.Date, strPtr(status)
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("unfulfilled pledges: %w", err)
	}
	return pledges, nil
}

// PendingThankYouNotes lists donations that have no thank-you note yet.
func (q *Queries) PendingThankYouNotes(ctx context.Context) ([]core.PendingThankYou, error) {
	b := q.sb.Select(
		"d.id", "d.donor_id", "dn.donor_type", "dn.first_name", "dn.last_name", "dn.organization_name",
		"d.amount_cents", "d.donation_date", "dn.preferred_contact_method",
	).
		From("donations d").
		Join("donors dn ON dn.id = d.donor_id").
		Where("NOT EXISTS (SELECT 1 FROM thank_you_notes t WHERE t.donation_id = d.id)").
		OrderBy("d.id")

	pending, err := getMany(ctx, q, b, func(row rowScanner) (core.PendingThankYou, error) {
		var (
			p                         core.PendingThankYou
			donorType                 string
			first, last, org, contact sql.NullString
			date                      dateCol
		)
		err := row.Scan(&p.DonationID, &p.DonorID, &donorType, &first, &last, &org,
			&p.DonationAmount.Cents, &date, &contact)
		if err != nil {
			return p, err
		}
		p.DonorName = core.DisplayName(donorType, strPtr(first), strPtr(last), strPtr(org))
		p.DonationDate, p.PreferredContactMethod = date.Date, strPtr(contact)
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("pending thank you notes: %w", err)
	}
	return pending, nil
}
