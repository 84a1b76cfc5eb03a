package http

import (
	"donortrack/internal/core"
)

// Request bodies. Updates take the same shape as creates (full replace).
// Required fields are pointers so a missing field is distinguishable from
// a zero value.

type donorRequest struct {
	DonorType              *string `json:"donor_type" binding:"required"`
	FirstName              *string `json:"first_name"`
	LastName               *string `json:"last_name"`
	OrganizationName       *string `json:"organization_name"`
	Email                  *string `json:"email" binding:"omitempty,email"`
	Phone                  *string `json:"phone"`
	AddressLine1           *string `json:"address_line1"`
	AddressLine2           *string `json:"address_line2"`
	City                   *string `json:"city"`
	State                  *string `json:"state"`
	PostalCode             *string `json:"postal_code"`
	Country                *string `json:"country"`
	PreferredContactMethod *string `json:"preferred_contact_method"`
	Notes                  *string `json:"notes"`
}

func (r donorRequest) entity() core.Donor {
	return core.Donor{
		DonorType:              *r.DonorType,
		FirstName:              r.FirstName,
		LastName:               r.LastName,
		OrganizationName:       r.OrganizationName,
		Email:                  r.Email,
		Phone:                  r.Phone,
		AddressLine1:           r.AddressLine1,
		AddressLine2:           r.AddressLine2,
		City:                   r.City,
		State:                  r.State,
		PostalCode:             r.PostalCode,
		Country:                r.Country,
		PreferredContactMethod: r.PreferredContactMethod,
		Notes:                  r.Notes,
	}
}

// current_progress is accepted for compatibility and ignored; only the
// ledger writes it.
type programRequest struct {
	Name            *string     `json:"name" binding:"required"`
	Description     *string     `json:"description"`
	StartDate       *core.Date  `json:"start_date"`
	EndDate         *core.Date  `json:"end_date"`
	Budget          *core.Money `json:"budget"`
	GoalAmount      *core.Money `json:"goal_amount"`
	CurrentProgress *core.Money `json:"current_progress"`
}

func (r programRequest) entity() core.Program {
	return core.Program{
		Name:        *r.Name,
		Description: r.Description,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Budget:      r.Budget,
		GoalAmount:  r.GoalAmount,
	}
}

type donationRequest struct {
	DonorID         *int64      `json:"donor_id" binding:"required"`
	ProgramID       *int64      `json:"program_id"`
	Amount          *core.Money `json:"amount" binding:"required"`
	DonationDate    *core.Date  `json:"donation_date" binding:"required"`
	PaymentMethod   *string     `json:"payment_method"`
	TransactionID   *string     `json:"transaction_id"`
	IsTaxDeductible *bool       `json:"is_tax_deductible"`
	Notes           *string     `json:"notes"`
}

func (r donationRequest) entity() core.Donation {
	return core.Donation{
		DonorID:         *r.DonorID,
		ProgramID:       r.ProgramID,
		Amount:          *r.Amount,
		DonationDate:    *r.DonationDate,
		PaymentMethod:   r.PaymentMethod,
		TransactionID:   r.TransactionID,
		IsTaxDeductible: r.IsTaxDeductible != nil && *r.IsTaxDeductible,
		Notes:           r.Notes,
	}
}

type pledgeRequest struct {
	DonorID         *int64      `json:"donor_id" binding:"required"`
	ProgramID       *int64      `json:"program_id"`
	Amount          *core.Money `json:"amount" binding:"required"`
	PledgeDate      *core.Date  `json:"pledge_date" binding:"required"`
	FulfillmentDate *core.Date  `json:"fulfillment_date"`
	Status          *string     `json:"status"`
	AmountFulfilled *core.Money `json:"amount_fulfilled"`
	Notes           *string     `json:"notes"`
}

func (r pledgeRequest) entity() core.Pledge {
	p := core.Pledge{
		DonorID:         *r.DonorID,
		ProgramID:       r.ProgramID,
		Amount:          *r.Amount,
		PledgeDate:      *r.PledgeDate,
		FulfillmentDate: r.FulfillmentDate,
		Status:          r.Status,
		Notes:           r.Notes,
	}
	if r.AmountFulfilled != nil {
		p.AmountFulfilled = *r.AmountFulfilled
	}
	return p
}

type taxReceiptRequest struct {
	DonationID    *int64      `json:"donation_id" binding:"required"`
	YearDonated   *core.Date  `json:"year_donated"`
	TotalAmount   *core.Money `json:"total_amount" binding:"required"`
	GeneratedDate *core.Date  `json:"generated_date" binding:"required"`
	SentDate      *core.Date  `json:"sent_date"`
}

func (r taxReceiptRequest) entity() core.TaxReceipt {
	return core.TaxReceipt{
		DonationID:    *r.DonationID,
		YearDonated:   r.YearDonated,
		TotalAmount:   *r.TotalAmount,
		GeneratedDate: *r.GeneratedDate,
		SentDate:      r.SentDate,
	}
}

type thankYouNoteRequest struct {
	DonorID      *int64     `json:"donor_id" binding:"required"`
	DonationID   *int64     `json:"donation_id" binding:"required"`
	SentDate     *core.Date `json:"sent_date"`
	Method       *string    `json:"method"`
	TemplateUsed *string    `json:"template_used"`
	Notes        *string    `json:"notes"`
}

func (r thankYouNoteRequest) entity() core.ThankYouNote {
	return core.ThankYouNote{
		DonorID:      *r.DonorID,
		DonationID:   *r.DonationID,
		SentDate:     r.SentDate,
		Method:       r.Method,
		TemplateUsed: r.TemplateUsed,
		Notes:        r.Notes,
	}
}
