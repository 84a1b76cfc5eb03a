package sheets

import (
	"strconv"

	"donortrack/internal/core"
)

// Tab names used by the report export.
const (
	TabPrograms           = "Programs"
	TabDonors             = "Donors"
	TabUnfulfilledPledges = "Unfulfilled Pledges"
	TabPendingThankYou    = "Pending Thank You"
)

func ProgramsTable(summaries []core.ProgramSummary) Table {
	t := Table{
		Name:   TabPrograms,
		Header: []string{"Program ID", "Program", "Donations", "Total", "Donors", "Goal", "Progress %"},
		Rows:   make([][]string, 0, len(summaries)),
	}
	for _, s := range summaries {
		t.Rows = append(t.Rows, []string{
			id(s.ProgramID),
			s.ProgramName,
			strconv.Itoa(s.TotalDonations),
			s.TotalAmount.String(),
			strconv.Itoa(s.DonorCount),
			money(s.GoalAmount),
			percent(s.ProgressPercentage),
		})
	}
	return t
}

func DonorsTable(summaries []core.DonorSummary) Table {
	t := Table{
		Name:   TabDonors,
		Header: []string{"Donor ID", "Donor", "Type", "Donations", "Total", "First donation", "Last donation"},
		Rows:   make([][]string, 0, len(summaries)),
	}
	for _, s := range summaries {
		t.Rows = append(t.Rows, []string{
			id(s.DonorID),
			s.DonorName,
			s.DonorType,
			strconv.Itoa(s.TotalDonations),
			s.TotalAmount.String(),
			date(s.FirstDonationDate),
			date(s.LastDonationDate),
		})
	}
	return t
}

func UnfulfilledPledgesTable(pledges []core.UnfulfilledPledge) Table {
	t := Table{
		Name:   TabUnfulfilledPledges,
		Header: []string{"Pledge ID", "Donor", "Program", "Pledged", "Fulfilled", "Remaining", "Pledge date", "Status"},
		Rows:   make([][]string, 0, len(pledges)),
	}
	for _, p := range pledges {
		t.Rows = append(t.Rows, []string{
			id(p.PledgeID),
			p.DonorName,
			text(p.ProgramName),
			p.PledgeAmount.String(),
			p.AmountFulfilled.String(),
			p.RemainingAmount.String(),
			p.PledgeDate.String(),
			text(p.Status),
		})
	}
	return t
}

func PendingThankYouTable(pending []core.PendingThankYou) Table {
	t := Table{
		Name:   TabPendingThankYou,
		Header: []string{"Donation ID", "Donor", "Amount", "Date", "Contact method"},
		Rows:   make([][]string, 0, len(pending)),
	}
	for _, p := range pending {
		t.Rows = append(t.Rows, []string{
			id(p.DonationID),
			p.DonorName,
			p.DonationAmount.String(),
			p.DonationDate.String(),
			text(p.PreferredContactMethod),
		})
	}
	return t
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func money(m *core.Money) string {
	if m == nil {
		return ""
	}
	return m.String()
}

func percent(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 1, 64)
}

func date(d *core.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
