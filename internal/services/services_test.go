package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donortrack/internal/amqp"
	"donortrack/internal/core"
	"donortrack/internal/sheets"
	"donortrack/internal/sheets/memory"
	"donortrack/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.Event
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, e *amqp.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	ctx       context.Context
	store     *storage.Store
	publisher *recordingPublisher
	donors    *DonorService
	programs  *ProgramService
	donations *DonationService
	pledges   *PledgeService
	receipts  *TaxReceiptService
	notes     *ThankYouNoteService
	generator *ReceiptGenerator
	reports   *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.Options{
		Dialect:    storage.DialectSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "services.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	pub := &recordingPublisher{}
	return &fixture{
		ctx:       context.Background(),
		store:     store,
		publisher: pub,
		donors:    NewDonorService(store),
		programs:  NewProgramService(store),
		donations: NewDonationService(store, pub),
		pledges:   NewPledgeService(store),
		receipts:  NewTaxReceiptService(store),
		notes:     NewThankYouNoteService(store),
		generator: NewReceiptGenerator(store, pub),
		reports:   NewReportService(store),
	}
}

func strp(s string) *string { return &s }

func cents(c int64) core.Money { return core.Money{Cents: c} }

func (f *fixture) donor(t *testing.T) core.Donor {
	t.Helper()
	d, err := f.donors.Create(f.ctx, core.Donor{
		DonorType: core.DonorIndividual,
		FirstName: strp("Ada"),
		LastName:  strp("Lovelace"),
	})
	require.NoError(t, err)
	return d
}

func (f *fixture) program(t *testing.T, goal *core.Money) core.Program {
	t.Helper()
	p, err := f.programs.Create(f.ctx, core.Program{Name: "Library", GoalAmount: goal})
	require.NoError(t, err)
	return p
}

func (f *fixture) donate(t *testing.T, donorID int64, programID *int64, amount int64, date core.Date, deductible bool) core.Donation {
	t.Helper()
	d, err := f.donations.Create(f.ctx, core.Donation{
		DonorID:         donorID,
		ProgramID:       programID,
		Amount:          cents(amount),
		DonationDate:    date,
		IsTaxDeductible: deductible,
	})
	require.NoError(t, err)
	return d
}

func (f *fixture) progress(t *testing.T, programID int64) int64 {
	t.Helper()
	p, err := f.programs.Get(f.ctx, programID)
	require.NoError(t, err)
	return p.CurrentProgress.Cents
}

func TestLedger_CreateAddsAmount(t *testing.T) {
	f := newFixture(t)
	donor := f.donor(t)
	program := f.program(t, nil)

	f.donate(t, donor.ID, &program.ID, 12345, core.NewDate(2024, 1, 1), true)
	assert.Equal(t, int64(12345), f.progress(t, program.ID))

	f.donate(t, donor.ID, nil, 999, core.NewDate(2024, 1, 2), true)
	assert.Equal(t, int64(12345), f.progress(t, program.ID))
}

func TestLedger_CreateChecksReferences(t *testing.T) {
	f := newFixture(t)
	donor := f.donor(t)
	missing := int64(404)

	_, err := f.donations.Create(f.ctx, core.Donation{DonorID: 999, Amount: cents(100), DonationDate: core.NewDate(2024, 1, 1)})
	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, core.KindDonor, nf.Kind)

	_, err = f.donations.Create(f.ctx, core.Donation{DonorID: donor.ID, ProgramID: &missing, Amount: cents(100), DonationDate: core.NewDate(2024, 1, 1)})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, core.KindProgram, nf.Kind)

	list, err := f.donations.List(f.ctx, storage.DonationFilter{}, storage.Page{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLedger_UpdateSameProgram(t *testing.T) {
	f := newFixture(t)
	donor := f.donor(t)
	program := f.program(t, nil)
	f.donate(t, donor.ID, &program.ID, 5000, core.NewDate(2024, 1, 1), true)
	d := f.donate(t, donor.ID, &program.ID, 30000, core.NewDate(2024, 1, 2), true)
	before := f.progress(t, program.ID)

	d.Amount = cents(45000)
	updated, err := f.donations.Update(f.ctx, d.ID, d)
	require.NoError(t, err)
	assert.Equal(t, int64(45000), updated.Amount.Cents)
	assert.Equal(t, before-30000+45000, f.progress(t, program.ID))
}

func TestLedger_UpdateMovesBetweenPrograms(t *testing.T) {
	f := newFixture(t)
	donor := f.donor(t)
	x := f.program(t, nil)
	y := f.program(t, nil)
	d := f.donate(t, donor.ID, &x.ID, 20000, core.NewDate(2024, 1, 1), true)

	d.ProgramID = &y.ID
	_, err := f.donations.Update(f.ctx, d.ID, d)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.progress(t, x.ID))
	assert.Equal(t, int64(20000), f.progress(t, y.ID))

	d.ProgramID = nil
	_, err = f.donations.Update(f.ctx, d.ID, d)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.progress(t, y.ID))

	events := f.publisher.events
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, amqp.EventDonationUpdated, last.Type)
	assert.Equal(t, []int64{y.ID}, last.ProgramIDs)
}

func TestLedger_UpdateFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	donor := f.donor(t)
	program := f.program(t, nil)
	d := f.donate(t, donor.ID, &program.ID, 20000, core.NewDate(2024, 1, 1), true)
	missing := int64(777)

	d.ProgramID = &missing
	d.Amount = cents(1)
	_, err := f.donations.Update(f.ctx, d.ID, d)
	require.ErrorIs(t, err, core.ErrNotFound)

	got, err := f.donations.Get(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), got.Amount.Cents)
	assert.Equal(t, int64(20000), f.progress(t, program.ID))

	_, err = f.donations.Update(f.ctx, 9999, d)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLedger_DeleteSubtractsAndCascades(t *testing.T) {
	f := newFixture(t)
	donor := f.donor(t)
	program := f.program(t, nil)
	keep := f.donate(t, donor.ID, &program.ID, 30000, core.NewDate(2024, 1, 1), true)
	d := f.donate(t, donor.ID, &program.ID, 20000, core.NewDate(2024, 1, 2), true)

	_, err := f.receipts.Create(f.ctx, core.TaxReceipt{DonationID: d.ID, TotalAmount: d.Amount, GeneratedDate: core.NewDate(2024, 2, 1)})
	require.NoError(t, err)
	_, err = f.notes.Create(f.ctx, core.ThankYouNote{DonorID: donor.ID, DonationID: d.ID})
	require.NoError(t, err)

	deleted, err := f.donations.Delete(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, deleted.ID)
	assert.Equal(t, int64(30000), f.progress(t, program.ID))

	_, err = f.donations.Get(f.ctx, d.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	receipts, err := f.receipts.List(f.ctx, storage.TaxReceiptFilter{DonationID: &d.ID}, storage.Page{})
	require.NoError(t, err)
	assert.Empty(t, receipts)
	notes, err := f.notes.List(f.ctx, storage.ThankYouNoteFilter{DonationID: &d.ID}, storage.Page{})
	require.NoError(t, err)
	assert.Empty(t, notes)

	_, err = f.donations.Delete(f.ctx, d.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.donations.Get(f.ctx, keep.ID)
	assert.NoError(t, err)
}

func TestLedger_ProgressScenario(t *testing.T) {
	f := newFixture(t)
	donor := f.donor(t)
	goal := cents(100000)
	p0 := f.program(t, &goal)
	assert.Equal(t, int64(0), p0.CurrentProgress.Cents)

	f.donate(t, donor.ID, &p0.ID, 30000, core.NewDate(2024, 5, 1), true)
	assert.Equal(t, int64(30000), f.progress(t, p0.ID))

	second := f.donate(t, donor.ID, &p0.ID, 20000, core.NewDate(2024, 5, 2), true)
	assert.Equal(t, int64(50000), f.progress(t, p0.ID))

	summaries, err := f.reports.DonationsByProgram(f.ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.NotNil(t, summaries[0].ProgressPercentage)
	assert.InDelta(t, 50.0, *summaries[0].ProgressPercentage, 1e-9)

	_, err = f.donations.Delete(f.ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), f.progress(t, p0.ID))

	assert.Equal(t, []string{
		amqp.EventDonationCreated,
		amqp.EventDonationCreated,
		amqp.EventDonationDeleted,
	}, f.publisher.types())
}

func TestLedger_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")
	donor := f.donor(t)

	_, err := f.donations.Create(f.ctx, core.Donation{DonorID: donor.ID, Amount: cents(100), DonationDate: core.NewDate(2024, 1, 1)})
	assert.NoError(t, err)
}

func TestLedger_NilPublisher(t *testing.T) {
	f := newFixture(t)
	donations := NewDonationService(f.store, nil)
	donor := f.donor(t)

	_, err := donations.Create(f.ctx, core.Donation{DonorID: donor.ID, Amount: cents(100), DonationDate: core.NewDate(2024, 1, 1)})
	assert.NoError(t, err)
}

func TestReconcile(t *testing.T) {
	f := newFixture(t)
	donor := f.donor(t)
	a := f.program(t, nil)
	b := f.program(t, nil)
	f.donate(t, donor.ID, &a.ID, 1000, core.NewDate(2024, 1, 1), true)
	f.donate(t, donor.ID, &b.ID, 2000, core.NewDate(2024, 1, 1), true)

	// simulate a write that bypassed the ledger
	require.NoError(t, f.store.Queries().SetProgramProgress(f.ctx, a.ID, cents(5000)))

	r, err := f.donations.ReconcileProgram(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), r.Previous.Cents)
	assert.Equal(t, int64(1000), r.Current.Cents)
	assert.Equal(t, int64(-4000), r.Drift.Cents)
	assert.Equal(t, int64(1000), f.progress(t, a.ID))

	all, err := f.donations.ReconcileAll(f.ctx, 4)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ProgramID)
	assert.True(t, all[0].Drift.IsZero())
	assert.Equal(t, int64(2000), all[1].Current.Cents)

	_, err = f.donations.ReconcileProgram(f.ctx, 999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReceiptGenerator_Scenario(t *testing.T) {
	f := newFixture(t)
	f.generator.SetClock(func() time.Time { return time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC) })
	donor := f.donor(t)
	first := f.donate(t, donor.ID, nil, 10000, core.NewDate(2024, 3, 1), true)
	second := f.donate(t, donor.ID, nil, 20000, core.NewDate(2024, 12, 31), true)
	f.donate(t, donor.ID, nil, 5000, core.NewDate(2024, 6, 1), false)
	f.donate(t, donor.ID, nil, 7000, core.NewDate(2023, 12, 31), true)
	f.donate(t, donor.ID, nil, 8000, core.NewDate(2025, 1, 1), true)

	receipts, err := f.generator.GenerateForYear(f.ctx, 2024)
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	assert.Equal(t, first.ID, receipts[0].DonationID)
	assert.Equal(t, int64(10000), receipts[0].TotalAmount.Cents)
	assert.Equal(t, second.ID, receipts[1].DonationID)
	assert.Equal(t, int64(20000), receipts[1].TotalAmount.Cents)
	for _, r := range receipts {
		assert.Equal(t, "2024-01-01", r.YearDonated.String())
		assert.Equal(t, "2025-01-15", r.GeneratedDate.String())
		assert.Nil(t, r.SentDate)
	}

	again, err := f.generator.GenerateForYear(f.ctx, 2024)
	require.NoError(t, err)
	assert.Empty(t, again)

	all, err := f.receipts.List(f.ctx, storage.TaxReceiptFilter{}, storage.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	events := f.publisher.events
	last := events[len(events)-1]
	assert.Equal(t, amqp.EventReceiptsGenerated, last.Type)
	assert.Equal(t, 2024, last.Year)
	assert.Equal(t, 0, last.Count)
}

func TestReceiptGenerator_SkipsManuallyReceipted(t *testing.T) {
	f := newFixture(t)
	donor := f.donor(t)
	d := f.donate(t, donor.ID, nil, 10000, core.NewDate(2024, 3, 1), true)
	_, err := f.receipts.Create(f.ctx, core.TaxReceipt{DonationID: d.ID, TotalAmount: d.Amount, GeneratedDate: core.NewDate(2024, 3, 2)})
	require.NoError(t, err)

	receipts, err := f.generator.GenerateForYear(f.ctx, 2024)
	require.NoError(t, err)
	assert.Empty(t, receipts)
	assert.NotNil(t, receipts)
}

func TestReceiptGenerator_RejectsYear(t *testing.T) {
	f := newFixture(t)
	for _, year := range []int{0, -1, 10000} {
		_, err := f.generator.GenerateForYear(f.ctx, year)
		assert.ErrorIs(t, err, core.ErrInvalid, "year %d", year)
	}
}

func TestUnfulfilledPledgeScenario(t *testing.T) {
	f := newFixture(t)
	donor := f.donor(t)
	pledge, err := f.pledges.Create(f.ctx, core.Pledge{
		DonorID:    donor.ID,
		Amount:     cents(50000),
		PledgeDate: core.NewDate(2024, 1, 1),
		Status:     strp("pending"),
	})
	require.NoError(t, err)

	pending, err := f.reports.UnfulfilledPledges(f.ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, pledge.ID, pending[0].PledgeID)
	assert.Equal(t, int64(50000), pending[0].RemainingAmount.Cents)

	pledge.AmountFulfilled = cents(50000)
	pledge.Status = strp(core.PledgeFulfilled)
	_, err = f.pledges.Update(f.ctx, pledge.ID, pledge)
	require.NoError(t, err)

	pending, err = f.reports.UnfulfilledPledges(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDonorDelete(t *testing.T) {
	f := newFixture(t)
	busy := f.donor(t)
	idle := f.donor(t)
	f.donate(t, busy.ID, nil, 100, core.NewDate(2024, 1, 1), false)

	_, err := f.donors.Delete(f.ctx, busy.ID)
	assert.ErrorIs(t, err, core.ErrInUse)

	deleted, err := f.donors.Delete(f.ctx, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, idle.ID, deleted.ID)

	_, err = f.donors.Delete(f.ctx, idle.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestProgramUpdateKeepsProgressAndDeleteDetaches(t *testing.T) {
	f := newFixture(t)
	donor := f.donor(t)
	program := f.program(t, nil)
	d := f.donate(t, donor.ID, &program.ID, 4200, core.NewDate(2024, 1, 1), true)

	program.CurrentProgress = cents(1)
	program.Name = "Renamed"
	updated, err := f.programs.Update(f.ctx, program.ID, program)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, int64(4200), updated.CurrentProgress.Cents)

	_, err = f.programs.Delete(f.ctx, program.ID)
	require.NoError(t, err)
	got, err := f.donations.Get(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ProgramID)

	// the detached donation can still be edited and deleted
	got.Amount = cents(100)
	_, err = f.donations.Update(f.ctx, d.ID, got)
	require.NoError(t, err)
	_, err = f.donations.Delete(f.ctx, d.ID)
	require.NoError(t, err)
}

func TestReferenceChecks(t *testing.T) {
	f := newFixture(t)
	donor := f.donor(t)
	d := f.donate(t, donor.ID, nil, 100, core.NewDate(2024, 1, 1), true)

	_, err := f.receipts.Create(f.ctx, core.TaxReceipt{DonationID: 999, GeneratedDate: core.NewDate(2024, 1, 1)})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.notes.Create(f.ctx, core.ThankYouNote{DonorID: 999, DonationID: d.ID})
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.notes.Create(f.ctx, core.ThankYouNote{DonorID: donor.ID, DonationID: 999})
	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, core.KindDonation, nf.Kind)

	_, err = f.pledges.Update(f.ctx, 999, core.Pledge{DonorID: donor.ID})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, core.KindPledge, nf.Kind)
}

func TestReportExporter(t *testing.T) {
	f := newFixture(t)
	donor := f.donor(t)
	program := f.program(t, nil)
	f.donate(t, donor.ID, &program.ID, 2500, core.NewDate(2024, 1, 1), true)

	writer := memory.New()
	n, err := NewReportExporter(f.reports, writer).Export(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.ElementsMatch(t, []string{
		sheets.TabPrograms, sheets.TabDonors, sheets.TabUnfulfilledPledges, sheets.TabPendingThankYou,
	}, writer.Tabs())

	programs, ok := writer.Table(sheets.TabPrograms)
	require.True(t, ok)
	require.Len(t, programs.Rows, 1)
	assert.Equal(t, "25.00", programs.Rows[0][3])

	pending, _ := writer.Table(sheets.TabPendingThankYou)
	assert.Len(t, pending.Rows, 1)
}
