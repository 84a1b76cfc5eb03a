package core

// ProgramSummary aggregates the donations attributed to one program.
type ProgramSummary struct {
	ProgramID          int64    `json:"program_id"`
	ProgramName        string   `json:"program_name"`
	TotalDonations     int      `json:"total_donations"`
	TotalAmount        Money    `json:"total_amount"`
	DonorCount         int      `json:"donor_count"`
	GoalAmount         *Money   `json:"goal_amount"`
	ProgressPercentage *float64 `json:"progress_percentage"`
}

type DonorSummary struct {
	DonorID           int64  `json:"donor_id"`
	DonorName         string `json:"donor_name"`
	DonorType         string `json:"donor_type"`
	TotalDonations    int    `json:"total_donations"`
	TotalAmount       Money  `json:"total_amount"`
	FirstDonationDate *Date  `json:"first_donation_date"`
	LastDonationDate  *Date  `json:"last_donation_date"`
}

type UnfulfilledPledge struct {
	PledgeID        int64   `json:"pledge_id"`
	DonorID         int64   `json:"donor_id"`
	DonorName       string  `json:"donor_name"`
	ProgramID       *int64  `json:"program_id"`
	ProgramName     *string `json:"program_name"`
	PledgeAmount    Money   `json:"pledge_amount"`
	AmountFulfilled Money   `json:"amount_fulfilled"`
	RemainingAmount Money   `json:"remaining_amount"`
	PledgeDate      Date    `json:"pledge_date"`
	Status          *string `json:"status"`
}

type PendingThankYou struct {
	DonationID             int64   `json:"donation_id"`
	DonorID                int64   `json:"donor_id"`
	DonorName              string  `json:"donor_name"`
	DonationAmount         Money   `json:"donation_amount"`
	DonationDate           Date    `json:"donation_date"`
	PreferredContactMethod *string `json:"preferred_contact_method"`
}

// Reconciliation is the outcome of recomputing a program's progress from its donations.
type Reconciliation struct {
	ProgramID int64 `json:"program_id"`
	Previous  Money `json:"previous"`
	Current   Money `json:"current"`
	Drift     Money `json:"drift"`
}

// ProgressPercentage returns 100*total/goal, or nil when the goal is unset or zero.
func ProgressPercentage(total Money, goal *Money) *float64 {
	if goal == nil || goal.Cents == 0 {
		return nil
	}
	pct := float64(total.Cents) / float64(goal.Cents) * 100
	return &pct
}
