package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"donortrack/internal/core"
)

const donorColumns = "id, donor_type, first_name, last_name, organization_name, email, phone, " +
	"address_line1, address_line2, city, state, postal_code, country, preferred_contact_method, notes, " +
	"created_at, updated_at"

func scanDonor(row rowScanner) (core.Donor, error) {
	var (
		d                                                         core.Donor
		first, last, org, email, phone, addr1, addr2, city, state sql.NullString
		postal, country, contact, notes                           sql.NullString
		created, updated                                          timeCol
	)
	err := row.Scan(&d.ID, &d.DonorType, &first, &last, &org, &email, &phone,
		&addr1, &addr2, &city, &state, &postal, &country, &contact, &notes,
		&created, &updated)
	if err != nil {
		return d, err
	}
	d.FirstName, d.LastName, d.OrganizationName = strPtr(first), strPtr(last), strPtr(org)
	d.Email, d.Phone = strPtr(email), strPtr(phone)
	d.AddressLine1, d.AddressLine2 = strPtr(addr1), strPtr(addr2)
	d.City, d.State, d.PostalCode, d.Country = strPtr(city), strPtr(state), strPtr(postal), strPtr(country)
	d.PreferredContactMethod, d.Notes = strPtr(contact), strPtr(notes)
	d.CreatedAt, d.UpdatedAt = created.Time, updated.Time
	return d, nil
}

func donorValues(d core.Donor) map[string]any {
	return map[string]any{
		"donor_type":               d.DonorType,
		"first_name":               nullStringArg(d.FirstName),
		"last_name":                nullStringArg(d.LastName),
		"organization_name":        nullStringArg(d.OrganizationName),
		"email":                    nullStringArg(d.Email),
		"phone":                    nullStringArg(d.Phone),
		"address_line1":            nullStringArg(d.AddressLine1),
		"address_line2":            nullStringArg(d.AddressLine2),
		"city":                     nullStringArg(d.City),
		"state":                    nullStringArg(d.State),
		"postal_code":              nullStringArg(d.PostalCode),
		"country":                  nullStringArg(d.Country),
		"preferred_contact_method": nullStringArg(d.PreferredContactMethod),
		"notes":                    nullStringArg(d.Notes),
	}
}

func (q *Queries) CreateDonor(ctx context.Context, d core.Donor) (core.Donor, error) {
	now := q.now()
	values := donorValues(d)
	values["created_at"] = now
	values["updated_at"] = now

	b := q.sb.Insert("donors").SetMap(values).Suffix("RETURNING " + donorColumns)
	created, err := getOne(ctx, q, b, core.KindDonor, 0, scanDonor)
	if err != nil {
		return core.Donor{}, fmt.Errorf("create donor: %w", err)
	}

	slog.InfoContext(ctx, "Donor saved", "donor_id", created.ID, "donor_type", created.DonorType)
	return created, nil
}

func (q *Queries) GetDonor(ctx context.Context, id int64) (core.Donor, error) {
	b := q.sb.Select(donorColumns).From("donors").Where(sq.Eq{"id": id})
	return getOne(ctx, q, b, core.KindDonor, id, scanDonor)
}

func (q *Queries) ListDonors(ctx context.Context, f DonorFilter, p Page) ([]core.Donor, error) {
	b := p.apply(q.sb.Select(donorColumns).From("donors").Where(f.where()))
	donors, err := getMany(ctx, q, b, scanDonor)
	if err != nil {
		return nil, fmt.Errorf("list donors: %w", err)
	}
	return donors, nil
}

// UpdateDonor replaces every mutable field of donor id.
func (q *Queries) UpdateDonor(ctx context.Context, id int64, d core.Donor) (core.Donor, error) {
	values := donorValues(d)
	values["updated_at"] = q.now()

	b := q.sb.Update("donors").SetMap(values).Where(sq.Eq{"id": id}).Suffix("RETURNING " + donorColumns)
	return getOne(ctx, q, b, core.KindDonor, id, scanDonor)
}

// DeleteDonor removes donor id and returns its prior state.
func (q *Queries) DeleteDonor(ctx context.Context, id int64) (core.Donor, error) {
	b := q.sb.Delete("donors").Where(sq.Eq{"id": id}).Suffix("RETURNING " + donorColumns)
	return getOne(ctx, q, b, core.KindDonor, id, scanDonor)
}

// DonorReferences counts the donations, pledges and thank-you notes pointing at donor id.
func (q *Queries) DonorReferences(ctx context.Context, id int64) (int64, error) {
	var total int64
	for _, table := range []string{"donations", "pledges", "thank_you_notes"} {
		n, err := q.count(ctx, table, sq.Eq{"donor_id": id})
		if err != nil {
			return 0, fmt.Errorf("count %s for donor: %w", table, err)
		}
		total += n
	}
	return total, nil
}

func (q *Queries) DonorExists(ctx context.Context, id int64) (bool, error) {
	return q.exists(ctx, "donors", id)
}
