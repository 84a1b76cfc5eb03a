package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"donortrack/internal/core"
)

const thankYouNoteColumns = "id, donor_id, donation_id, sent_date, method, template_used, notes, " +
	"created_at, updated_at"

func scanThankYouNote(row rowScanner) (core.ThankYouNote, error) {
	var (
		n                       core.ThankYouNote
		sent                    dateCol
		method, template, notes sql.NullString
		created, updated        timeCol
	)
	err := row.Scan(&n.ID, &n.DonorID, &n.DonationID, &sent, &method, &template, &notes, &created, &updated)
	if err != nil {
		return n, err
	}
	n.SentDate = sent.Ptr()
	n.Method, n.TemplateUsed, n.Notes = strPtr(method), strPtr(template), strPtr(notes)
	n.CreatedAt, n.UpdatedAt = created.Time, updated.Time
	return n, nil
}

func thankYouNoteValues(n core.ThankYouNote) map[string]any {
	return map[string]any{
		"donor_id":      n.DonorID,
		"donation_id":   n.DonationID,
		"sent_date":     nullDateArg(n.SentDate),
		"method":        nullStringArg(n.Method),
		"template_used": nullStringArg(n.TemplateUsed),
		"notes":         nullStringArg(n.Notes),
	}
}

func (q *Queries) CreateThankYouNote(ctx context.Context, n core.ThankYouNote) (core.ThankYouNote, error) {
	now := q.now()
	values := thankYouNoteValues(n)
	values["created_at"] = now
	values["updated_at"] = now

	b := q.sb.Insert("thank_you_notes").SetMap(values).Suffix("RETURNING " + thankYouNoteColumns)
	created, err := getOne(ctx, q, b, core.KindThankYouNote, 0, scanThankYouNote)
	if err != nil {
		return core.ThankYouNote{}, fmt.Errorf("create thank you note: %w", err)
	}
	return created, nil
}

func (q *Queries) GetThankYouNote(ctx context.Context, id int64) (core.ThankYouNote, error) {
	b := q.sb.Select(thankYouNoteColumns).From("thank_you_notes").Where(sq.Eq{"id": id})
	return getOne(ctx, q, b, core.KindThankYouNote, id, scanThankYouNote)
}

func (q *Queries) ListThankYouNotes(ctx context.Context, f ThankYouNoteFilter, p Page) ([]core.ThankYouNote, error) {
	b := p.apply(q.sb.Select(thankYouNoteColumns).From("thank_you_notes").Where(f.where()))
	notes, err := getMany(ctx, q, b, scanThankYouNote)
	if err != nil {
		return nil, fmt.Errorf("list thank you notes: %w", err)
	}
	return notes, nil
}

func (q *Queries) UpdateThankYouNote(ctx context.Context, id int64, n core.ThankYouNote) (core.ThankYouNote, error) {
	values := thankYouNoteValues(n)
	values["updated_at"] = q.now()

	b := q.sb.Update("thank_you_notes").SetMap(values).Where(sq.Eq{"id": id}).Suffix("RETURNING " + thankYouNoteColumns)
	return getOne(ctx, q, b, core.KindThankYouNote, id, scanThankYouNote)
}

func (q *Queries) DeleteThankYouNote(ctx context.Context, id int64) (core.ThankYouNote, error) {
	b := q.sb.Delete("thank_you_notes").Where(sq.Eq{"id": id}).Suffix("RETURNING " + thankYouNoteColumns)
	return getOne(ctx, q, b, core.KindThankYouNote, id, scanThankYouNote)
}

func (q *Queries) DeleteThankYouNotesForDonation(ctx context.Context, donationID int64) (int64, error) {
	n, err := q.exec(ctx, q.sb.Delete("thank_you_notes").Where(sq.Eq{"donation_id": donationID}))
	if err != nil {
		return 0, fmt.Errorf("delete thank you notes for donation: %w", err)
	}
	return n, nil
}
