package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donortrack/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), Options{
		Dialect:    DialectSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func strp(s string) *string { return &s }

func seedDonor(t *testing.T, q *Queries, first, last string) core.Donor {
	t.Helper()
	d, err := q.CreateDonor(context.Background(), core.Donor{
		DonorType: core.DonorIndividual,
		FirstName: strp(first),
		LastName:  strp(last),
		Email:     strp(first + "@example.org"),
	})
	require.NoError(t, err)
	return d
}

func seedProgram(t *testing.T, q *Queries, name string, goalCents int64) core.Program {
	t.Helper()
	start := core.NewDate(2024, 1, 1)
	p, err := q.CreateProgram(context.Background(), core.Program{
		Name:       name,
		StartDate:  &start,
		GoalAmount: &core.Money{Cents: goalCents},
	})
	require.NoError(t, err)
	return p
}

func seedDonation(t *testing.T, q *Queries, donorID int64, programID *int64, cents int64, date core.Date, deductible bool) core.Donation {
	t.Helper()
	d, err := q.CreateDonation(context.Background(), core.Donation{
		DonorID:         donorID,
		ProgramID:       programID,
		Amount:          core.Money{Cents: cents},
		DonationDate:    date,
		IsTaxDeductible: deductible,
	})
	require.NoError(t, err)
	return d
}

func TestOpen_RejectsUnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), Options{Dialect: "oracle"})
	assert.Error(t, err)
}

func TestOpen_MigrationsAreRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	for i := 0; i < 2; i++ {
		store, err := Open(context.Background(), Options{Dialect: DialectSQLite, SQLitePath: path})
		require.NoError(t, err)
		require.NoError(t, store.Close())
	}
}

func TestDonorCRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return fixed })
	q := store.Queries()

	created := seedDonor(t, q, "Ada", "Lovelace")
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Ada", *created.FirstName)
	assert.True(t, created.CreatedAt.Equal(fixed))

	got, err := q.GetDonor(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Ada", *got.FirstName)
	assert.Nil(t, got.Phone)

	later := fixed.Add(time.Hour)
	store.SetClock(func() time.Time { return later })
	got.Phone = strp("555-0100")
	got.FirstName = strp("Augusta")
	updated, err := store.Queries().UpdateDonor(ctx, created.ID, got)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", *updated.FirstName)
	assert.Equal(t, "555-0100", *updated.Phone)
	assert.True(t, updated.UpdatedAt.Equal(later))
	assert.True(t, updated.CreatedAt.Equal(fixed))

	deleted, err := q.DeleteDonor(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", *deleted.FirstName)

	_, err = q.GetDonor(ctx, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	q := newTestStore(t).Queries()

	_, err := q.GetProgram(ctx, 42)
	require.ErrorIs(t, err, core.ErrNotFound)
	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, core.KindProgram, nf.Kind)
	assert.Equal(t, int64(42), nf.ID)

	_, err = q.UpdateDonation(ctx, 7, core.Donation{DonorID: 1, DonationDate: core.NewDate(2024, 1, 1)})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = q.DeletePledge(ctx, 3)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListDonors_FiltersAndPagination(t *testing.T) {
	ctx := context.Background()
	q := newTestStore(t).Queries()

	seedDonor(t, q, "Ada", "Lovelace")
	seedDonor(t, q, "Grace", "Hopper")
	_, err := q.CreateDonor(ctx, core.Donor{DonorType: core.DonorOrganization, OrganizationName: strp("Lovelace Foundation")})
	require.NoError(t, err)

	all, err := q.ListDonors(ctx, DonorFilter{}, Page{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Less(t, all[0].ID, all[1].ID)

	matches, err := q.ListDonors(ctx, DonorFilter{Search: "LOVE"}, Page{})
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	orgs, err := q.ListDonors(ctx, DonorFilter{DonorType: core.DonorOrganization}, Page{})
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "Lovelace Foundation", *orgs[0].OrganizationName)

	page, err := q.ListDonors(ctx, DonorFilter{}, Page{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, all[1].ID, page[0].ID)

	empty, err := q.ListDonors(ctx, DonorFilter{Search: "nobody"}, Page{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestListPrograms_ActiveOn(t *testing.T) {
	ctx := context.Background()
	q := newTestStore(t).Queries()

	start := core.NewDate(2024, 1, 1)
	end := core.NewDate(2024, 6, 30)
	_, err := q.CreateProgram(ctx, core.Program{Name: "Spring drive", StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	_, err = q.CreateProgram(ctx, core.Program{Name: "Open ended", StartDate: &start})
	require.NoError(t, err)
	_, err = q.CreateProgram(ctx, core.Program{Name: "Unscheduled"})
	require.NoError(t, err)

	day := core.NewDate(2024, 6, 30)
	active, err := q.ListPrograms(ctx, ProgramFilter{ActiveOn: &day}, Page{})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	day = core.NewDate(2024, 7, 1)
	active, err = q.ListPrograms(ctx, ProgramFilter{ActiveOn: &day}, Page{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Open ended", active[0].Name)

	found, err := q.ListPrograms(ctx, ProgramFilter{Search: "drive"}, Page{})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestProgramProgress(t *testing.T) {
	ctx := context.Background()
	q := newTestStore(t).Queries()
	donor := seedDonor(t, q, "Ada", "Lovelace")
	program := seedProgram(t, q, "Library", 100000)
	assert.True(t, program.CurrentProgress.IsZero())

	ok, err := q.AdjustProgramProgress(ctx, program.ID, core.Money{Cents: 2500})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = q.AdjustProgramProgress(ctx, program.ID, core.Money{Cents: -500})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := q.GetProgram(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.CurrentProgress.Cents)

	ok, err = q.AdjustProgramProgress(ctx, 999, core.Money{Cents: 1})
	require.NoError(t, err)
	assert.False(t, ok)

	// update keeps the stored progress
	got.Name = "Library fund"
	got.CurrentProgress = core.Money{}
	updated, err := q.UpdateProgram(ctx, program.ID, got)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), updated.CurrentProgress.Cents)

	seedDonation(t, q, donor.ID, &program.ID, 1250, core.NewDate(2024, 3, 1), true)
	seedDonation(t, q, donor.ID, &program.ID, 750, core.NewDate(2024, 3, 2), false)
	sum, err := q.SumProgramDonations(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), sum.Cents)

	require.NoError(t, q.SetProgramProgress(ctx, program.ID, sum))
	assert.ErrorIs(t, q.SetProgramProgress(ctx, 999, sum), core.ErrNotFound)

	ids, err := q.ListProgramIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{program.ID}, ids)
}

func TestDetachProgram(t *testing.T) {
	ctx := context.Background()
	q := newTestStore(t).Queries()
	donor := seedDonor(t, q, "Ada", "Lovelace")
	program := seedProgram(t, q, "Library", 0)
	donation := seedDonation(t, q, donor.ID, &program.ID, 1000, core.NewDate(2024, 2, 1), true)
	pledge, err := q.CreatePledge(ctx, core.Pledge{
		DonorID: donor.ID, ProgramID: &program.ID,
		Amount: core.Money{Cents: 5000}, PledgeDate: core.NewDate(2024, 2, 1),
	})
	require.NoError(t, err)

	require.NoError(t, q.DetachProgram(ctx, program.ID))
	_, err = q.DeleteProgram(ctx, program.ID)
	require.NoError(t, err)

	gotDonation, err := q.GetDonation(ctx, donation.ID)
	require.NoError(t, err)
	assert.Nil(t, gotDonation.ProgramID)
	gotPledge, err := q.GetPledge(ctx, pledge.ID)
	require.NoError(t, err)
	assert.Nil(t, gotPledge.ProgramID)
}

func TestListDonations_DateRangeInclusive(t *testing.T) {
	ctx := context.Background()
	q := newTestStore(t).Queries()
	donor := seedDonor(t, q, "Ada", "Lovelace")
	seedDonation(t, q, donor.ID, nil, 100, core.NewDate(2023, 12, 31), true)
	seedDonation(t, q, donor.ID, nil, 200, core.NewDate(2024, 1, 1), true)
	seedDonation(t, q, donor.ID, nil, 300, core.NewDate(2024, 12, 31), true)
	seedDonation(t, q, donor.ID, nil, 400, core.NewDate(2025, 1, 1), true)

	from, to := core.YearBounds(2024)
	got, err := q.ListDonations(ctx, DonationFilter{StartDate: &from, EndDate: &to}, Page{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(200), got[0].Amount.Cents)
	assert.Equal(t, int64(300), got[1].Amount.Cents)
	assert.Equal(t, "2024-01-01", got[0].DonationDate.String())

	byDonor, err := q.ListDonations(ctx, DonationFilter{DonorID: &donor.ID}, Page{})
	require.NoError(t, err)
	assert.Len(t, byDonor, 4)
}

func TestTaxReceipts(t *testing.T) {
	ctx := context.Background()
	q := newTestStore(t).Queries()
	donor := seedDonor(t, q, "Ada", "Lovelace")
	deductible := seedDonation(t, q, donor.ID, nil, 10000, core.NewDate(2024, 4, 1), true)
	seedDonation(t, q, donor.ID, nil, 5000, core.NewDate(2024, 4, 2), false)

	from, to := core.YearBounds(2024)
	eligible, err := q.ListTaxDeductibleDonations(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, deductible.ID, eligible[0].ID)

	receipt := core.TaxReceipt{
		DonationID:    deductible.ID,
		YearDonated:   &from,
		TotalAmount:   deductible.Amount,
		GeneratedDate: core.NewDate(2025, 1, 15),
	}
	created, ok, err := q.CreateTaxReceiptIfAbsent(ctx, receipt)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", created.YearDonated.String())
	assert.Nil(t, created.SentDate)

	_, ok, err = q.CreateTaxReceiptIfAbsent(ctx, receipt)
	require.NoError(t, err)
	assert.False(t, ok)

	sent := true
	unsent, err := q.ListTaxReceipts(ctx, TaxReceiptFilter{Sent: &sent}, Page{})
	require.NoError(t, err)
	assert.Empty(t, unsent)

	n, err := q.DeleteTaxReceiptsForDonation(ctx, deductible.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.InTx(ctx, func(q *Queries) error {
		seedDonor(t, q, "Ada", "Lovelace")
		return core.ErrInUse
	})
	require.ErrorIs(t, err, core.ErrInUse)

	donors, err := store.Queries().ListDonors(ctx, DonorFilter{}, Page{})
	require.NoError(t, err)
	assert.Empty(t, donors)
}

func TestDonations_TaxDeductibleDefaultsToFalse(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	donor := seedDonor(t, store.Queries(), "Ada", "Lovelace")

	now := time.Now().UTC()
	res, err := store.db.ExecContext(ctx,
		`INSERT INTO donations (donor_id, amount_cents, donation_date, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		donor.ID, 1000, "2024-01-01", now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	var deductible bool
	err = store.db.QueryRowContext(ctx, `SELECT is_tax_deductible FROM donations WHERE id = ?`, id).Scan(&deductible)
	require.NoError(t, err)
	assert.False(t, deductible)
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	q := newTestStore(t).Queries()
	ada := seedDonor(t, q, "Ada", "Lovelace")
	org, err := q.CreateDonor(ctx, core.Donor{
		DonorType:              core.DonorOrganization,
		OrganizationName:       strp("Analytical Engines Ltd"),
		PreferredContactMethod: strp("email"),
	})
	require.NoError(t, err)
	library := seedProgram(t, q, "Library", 100000)
	seedProgram(t, q, "Empty", 0)

	first := seedDonation(t, q, ada.ID, &library.ID, 30000, core.NewDate(2024, 1, 10), true)
	seedDonation(t, q, ada.ID, &library.ID, 20000, core.NewDate(2024, 2, 10), true)
	seedDonation(t, q, org.ID, nil, 5000, core.NewDate(2024, 3, 10), false)

	programs, err := q.ProgramSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, programs, 2)
	assert.Equal(t, 2, programs[0].TotalDonations)
	assert.Equal(t, int64(50000), programs[0].TotalAmount.Cents)
	assert.Equal(t, 1, programs[0].DonorCount)
	require.NotNil(t, programs[0].ProgressPercentage)
	assert.InDelta(t, 50.0, *programs[0].ProgressPercentage, 1e-9)
	assert.Nil(t, programs[1].ProgressPercentage)
	assert.Equal(t, 0, programs[1].TotalDonations)

	donors, err := q.DonorSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, donors, 2)
	assert.Equal(t, "Ada Lovelace", donors[0].DonorName)
	assert.Equal(t, "2024-01-10", donors[0].FirstDonationDate.String())
	assert.Equal(t, "2024-02-10", donors[0].LastDonationDate.String())
	assert.Equal(t, "Analytical Engines Ltd", donors[1].DonorName)
	assert.Equal(t, core.DonorOrganization, donors[1].DonorType)

	_, err = q.CreateThankYouNote(ctx, core.ThankYouNote{DonorID: ada.ID, DonationID: first.ID, Method: strp("letter")})
	require.NoError(t, err)
	pending, err := q.PendingThankYouNotes(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "Ada Lovelace", pending[0].DonorName)
	assert.Equal(t, "email", *pending[1].PreferredContactMethod)
}

func TestUnfulfilledPledges(t *testing.T) {
	ctx := context.Background()
	q := newTestStore(t).Queries()
	donor := seedDonor(t, q, "Ada", "Lovelace")
	program := seedProgram(t, q, "Library", 0)

	tests := []struct {
		name        string
		amount      int64
		fulfilled   int64
		status      *string
		unfulfilled bool
	}{
		{"pending", 50000, 0, strp("pending"), true},
		{"fulfilled and paid", 50000, 50000, strp("fulfilled"), false},
		{"marked fulfilled but short", 50000, 40000, strp("fulfilled"), true},
		{"paid but not marked", 50000, 50000, strp("pending"), true},
		{"no status", 50000, 50000, nil, true},
		{"overpaid and fulfilled", 50000, 60000, strp("fulfilled"), false},
	}

	want := map[int64]bool{}
	for _, tt := range tests {
		p, err := q.CreatePledge(ctx, core.Pledge{
			DonorID: donor.ID, ProgramID: &program.ID,
			Amount: core.Money{Cents: tt.amount}, AmountFulfilled: core.Money{Cents: tt.fulfilled},
			PledgeDate: core.NewDate(2024, 1, 1), Status: tt.status,
		})
		require.NoError(t, err, tt.name)
		want[p.ID] = tt.unfulfilled
	}

	got, err := q.UnfulfilledPledges(ctx)
	require.NoError(t, err)
	listed := map[int64]core.UnfulfilledPledge{}
	for _, p := range got {
		listed[p.PledgeID] = p
	}
	for id, unfulfilled := range want {
		_, ok := listed[id]
		assert.Equal(t, unfulfilled, ok, "pledge %d", id)
	}
	first := got[0]
	assert.Equal(t, "Library", *first.ProgramName)
	assert.Equal(t, "Ada Lovelace", first.DonorName)
	assert.Equal(t, first.PledgeAmount.Sub(first.AmountFulfilled), first.RemainingAmount)
}
