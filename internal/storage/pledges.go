package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"donortrack/internal/core"
)

const pledgeColumns = "id, donor_id, program_id, amount_cents, pledge_date, fulfillment_date, status, " +
	"amount_fulfilled_cents, notes, created_at, updated_at"

func scanPledge(row rowScanner) (core.Pledge, error) {
	var (
		p                core.Pledge
		programID        sql.NullInt64
		pledged, fulfill dateCol
		status, notes    sql.NullString
		created, updated timeCol
	)
	err := row.Scan(&p.ID, &p.DonorID, &programID, &p.Amount.Cents, &pledged, &fulfill, &status,
		&p.AmountFulfilled.Cents, &notes, &created, &updated)
	if err != nil {
		return p, err
	}
	p.ProgramID = int64Ptr(programID)
	p.PledgeDate, p.FulfillmentDate = pledged.Date, fulfill.Ptr()
	p.Status, p.Notes = strPtr(status), strPtr(notes)
	p.CreatedAt, p.UpdatedAt = created.Time, updated.Time
	return p, nil
}

func pledgeValues(p core.Pledge) map[string]any {
	return map[string]any{
		"donor_id":               p.DonorID,
		"program_id":             nullInt64Arg(p.ProgramID),
		"amount_cents":           p.Amount.Cents,
		"pledge_date":            dateArg(p.PledgeDate),
		"fulfillment_date":       nullDateArg(p.FulfillmentDate),
		"status":                 nullStringArg(p.Status),
		"amount_fulfilled_cents": p.AmountFulfilled.Cents,
		"notes":                  nullStringArg(p.Notes),
	}
}

func (q *Queries) CreatePledge(ctx context.Context, p core.Pledge) (core.Pledge, error) {
	now := q.now()
	values := pledgeValues(p)
	values["created_at"] = now
	values["updated_at"] = now

	b := q.sb.Insert("pledges").SetMap(values).Suffix("RETURNING " + pledgeColumns)
	created, err := getOne(ctx, q, b, core.KindPledge, 0, scanPledge)
	if err != nil {
		return core.Pledge{}, fmt.Errorf("create pledge: %w", err)
	}
	return created, nil
}

func (q *Queries) GetPledge(ctx context.Context, id int64) (core.Pledge, error) {
	b := q.sb.Select(pledgeColumns).From("pledges").Where(sq.Eq{"id": id})
	return getOne(ctx, q, b, core.KindPledge, id, scanPledge)
}

func (q *Queries) ListPledges(ctx context.Context, f PledgeFilter, p Page) ([]core.Pledge, error) {
	b := p.apply(q.sb.Select(pledgeColumns).From("pledges").Where(f.where()))
	pledges, err := getMany(ctx, q, b, scanPledge)
	if err != nil {
		return nil, fmt.Errorf("list pledges: %w", err)
	}
	return pledges, nil
}

func (q *Queries) UpdatePledge(ctx context.Context, id int64, p core.Pledge) (core.Pledge, error) {
	values := pledgeValues(p)
	values["updated_at"] = q.now()

	b := q.sb.Update("pledges").SetMap(values).Where(sq.Eq{"id": id}).Suffix("RETURNING " + pledgeColumns)
	return getOne(ctx, q, b, core.KindPledge, id, scanPledge)
}

func (q *Queries) DeletePledge(ctx context.Context, id int64) (core.Pledge, error) {
	b := q.sb.Delete("pledges").Where(sq.Eq{"id": id}).Suffix("RETURNING " + pledgeColumns)
	return getOne(ctx, q, b, core.KindPledge, id, scanPledge)
}
