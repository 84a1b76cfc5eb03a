package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DonorIndividual   = "individual"
	DonorOrganization = "organization"

	PledgeFulfilled = "fulfilled"
)

// Entity kinds, used in not-found errors and log fields.
const (
	KindDonor        = "Donor"
	KindProgram      = "Program"
	KindDonation     = "Donation"
	KindPledge       = "Pledge"
	KindTaxReceipt   = "Tax receipt"
	KindThankYouNote = "Thank you note"
)

type (
	Donor struct {
		ID                     int64     `json:"id"`
		DonorType              string    `json:"donor_type"`
		FirstName              *string   `json:"first_name"`
		LastName               *string   `json:"last_name"`
		OrganizationName       *string   `json:"organization_name"`
		Email                  *string   `json:"email"`
		Phone                  *string   `json:"phone"`
		AddressLine1           *string   `json:"address_line1"`
		AddressLine2           *string   `json:"address_line2"`
		City                   *string   `json:"city"`
		State                  *string   `json:"state"`
		PostalCode             *string   `json:"postal_code"`
		Country                *string   `json:"country"`
		PreferredContactMethod *string   `json:"preferred_contact_method"`
		Notes                  *string   `json:"notes"`
		CreatedAt              time.Time `json:"created_at"`
		UpdatedAt              time.Time `json:"updated_at"`
	}

	Program struct {
		ID              int64     `json:"id"`
		Name            string    `json:"name"`
		Description     *string   `json:"description"`
		StartDate       *Date     `json:"start_date"`
		EndDate         *Date     `json:"end_date"`
		Budget          *Money    `json:"budget"`
		GoalAmount      *Money    `json:"goal_amount"`
		CurrentProgress Money     `json:"current_progress"`
		CreatedAt       time.Time `json:"created_at"`
		UpdatedAt       time.Time `json:"updated_at"`
	}

	Donation struct {
		ID              int64     `json:"id"`
		DonorID         int64     `json:"donor_id"`
		ProgramID       *int64    `json:"program_id"`
		Amount          Money     `json:"amount"`
		DonationDate    Date      `json:"donation_date"`
		PaymentMethod   *string   `json:"payment_method"`
		TransactionID   *string   `json:"transaction_id"`
		IsTaxDeductible bool      `json:"is_tax_deductible"`
		Notes           *string   `json:"notes"`
		CreatedAt       time.Time `json:"created_at"`
		UpdatedAt       time.Time `json:"updated_at"`
	}

	Pledge struct {
		ID              int64     `json:"id"`
		DonorID         int64     `json:"donor_id"`
		ProgramID       *int64    `json:"program_id"`
		Amount          Money     `json:"amount"`
		PledgeDate      Date      `json:"pledge_date"`
		FulfillmentDate *Date     `json:"fulfillment_date"`
		Status          *string   `json:"status"`
		AmountFulfilled Money     `json:"amount_fulfilled"`
		Notes           *string   `json:"notes"`
		CreatedAt       time.Time `json:"created_at"`
		UpdatedAt       time.Time `json:"updated_at"`
	}

	// TaxReceipt evidences one tax-deductible donation.
	TaxReceipt struct {
		ID            int64     `json:"id"`
		DonationID    int64     `json:"donation_id"`
		YearDonated   *Date     `json:"year_donated"`
		TotalAmount   Money     `json:"total_amount"`
		GeneratedDate Date      `json:"generated_date"`
		SentDate      *Date     `json:"sent_date"`
		CreatedAt     time.Time `json:"created_at"`
		UpdatedAt     time.Time `json:"updated_at"`
	}

	ThankYouNote struct {
		ID           int64     `json:"id"`
		DonorID      int64     `json:"donor_id"`
		DonationID   int64     `json:"donation_id"`
		SentDate     *Date     `json:"sent_date"`
		Method       *string   `json:"method"`
		TemplateUsed *string   `json:"template_used"`
		Notes        *string   `json:"notes"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}
)

var (
	ErrNotFound = errors.New("not found")
	// ErrInUse is returned when a record cannot be removed while others still reference it.
	ErrInUse = errors.New("still referenced")
	// ErrInvalid marks input rejected before it reaches the store.
	ErrInvalid = errors.New("invalid input")
)

// NotFoundError reports a missing record of a given kind.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", strings.ToLower(e.Kind), e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a NotFoundError for kind and id.
func NotFound(kind string, id int64) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// DisplayName renders a donor the way reports show it: individuals as
// "first last", organizations by organization name.
func DisplayName(donorType string, first, last, organization *string) string {
	if donorType == DonorIndividual {
		return strings.TrimSpace(deref(first) + " " + deref(last))
	}
	return deref(organization)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
