package storage

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"donortrack/internal/core"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page paginates listings. Zero value means skip 0, limit DefaultLimit.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) normalized() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Page) apply(b sq.SelectBuilder) sq.SelectBuilder {
	p = p.normalized()
	return b.OrderBy("id").Limit(uint64(p.Limit)).Offset(uint64(p.Skip))
}

type DonorFilter struct {
	DonorType string
	Search    string
}

type ProgramFilter struct {
	Search string
	// ActiveOn keeps programs running on that day.
	ActiveOn *core.Date
}

type DonationFilter struct {
	DonorID   *int64
	ProgramID *int64
	StartDate *core.Date
	EndDate   *core.Date
}

type PledgeFilter struct {
	DonorID   *int64
	ProgramID *int64
	Status    string
}

type TaxReceiptFilter struct {
	DonationID      *int64
	GeneratedAfter  *core.Date
	GeneratedBefore *core.Date
	Sent            *bool
}

type ThankYouNoteFilter struct {
	DonorID    *int64
	DonationID *int64
	Method     string
	Sent       *bool
}

// search builds a case-insensitive substring match over columns.
func search(term string, columns ...string) sq.Sqlizer {
	pattern := "%" + strings.ToLower(term) + "%"
	or := sq.Or{}
	for _, col := range columns {
		or = append(or, sq.Expr("LOWER("+col+") LIKE ?", pattern))
	}
	return or
}

// presence filters on whether a nullable column is set.
func presence(column string, set bool) sq.Sqlizer {
	if set {
		return sq.NotEq{column: nil}
	}
	return sq.Eq{column: nil}
}

func (f DonorFilter) where() sq.And {
	w := sq.And{}
	if f.DonorType != "" {
		w = append(w, sq.Eq{"donor_type": f.DonorType})
	}
	if f.Search != "" {
		w = append(w, search(f.Search, "first_name", "last_name", "organization_name", "email"))
	}
	return w
}

func (f ProgramFilter) where() sq.And {
	w := sq.And{}
	if f.Search != "" {
		w = append(w, search(f.Search, "name", "description"))
	}
	if f.ActiveOn != nil {
		day := dateArg(*f.ActiveOn)
		w = append(w,
			sq.LtOrEq{"start_date": day},
			sq.Or{sq.GtOrEq{"end_date": day}, sq.Eq{"end_date": nil}},
		)
	}
	return w
}

func (f DonationFilter) where() sq.And {
	w := sq.And{}
	if f.DonorID != nil {
		w = append(w, sq.Eq{"donor_id": *f.DonorID})
	}
	if f.ProgramID != nil {
		w = append(w, sq.Eq{"program_id": *f.ProgramID})
	}
	if f.StartDate != nil {
		w = append(w, sq.GtOrEq{"donation_date": dateArg(*f.StartDate)})
	}
	if f.EndDate != nil {
		w = append(w, sq.LtOrEq{"donation_date": dateArg(*f.EndDate)})
	}
	return w
}

func (f PledgeFilter) where() sq.And {
	w := sq.And{}
	if f.DonorID != nil {
		w = append(w, sq.Eq{"donor_id": *f.DonorID})
	}
	if f.ProgramID != nil {
		w = append(w, sq.Eq{"program_id": *f.ProgramID})
	}
	if f.Status != "" {
		w = append(w, sq.Eq{"status": f.Status})
	}
	return w
}

func (f TaxReceiptFilter) where() sq.And {
	w := sq.And{}
	if f.DonationID != nil {
		w = append(w, sq.Eq{"donation_id": *f.DonationID})
	}
	if f.GeneratedAfter != nil {
		w = append(w, sq.GtOrEq{"generated_date": dateArg(*f.GeneratedAfter)})
	}
	if f.GeneratedBefore != nil {
		w = append(w, sq.LtOrEq{"generated_date": dateArg(*f.GeneratedBefore)})
	}
	if f.Sent != nil {
		w = append(w, presence("sent_date", *f.Sent))
	}
	return w
}

func (f ThankYouNoteFilter) where() sq.And {
	w := sq.And{}
	if f.DonorID != nil {
		w = append(w, sq.Eq{"donor_id": *f.DonorID})
	}
	if f.DonationID != nil {
		w = append(w, sq.Eq{"donation_id": *f.DonationID})
	}
	if f.Method != "" {
		w = append(w, sq.Eq{"method": f.Method})
	}
	if f.Sent != nil {
		w = append(w, presence("sent_date", *f.Sent))
	}
	return w
}
