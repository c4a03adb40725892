package applications

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/macado/b2b-backend/internal/customers"
	"github.com/macado/b2b-backend/pkg/db/models"
	"github.com/macado/b2b-backend/pkg/enums"
	"github.com/macado/b2b-backend/pkg/types"
)

// SubmitInput is the public application form.
type SubmitInput struct {
	CompanyName  string
	ContactName  string
	Email        string
	Phone        string
	Address      string
	BusinessType string
	TermsAgreed  bool
}

// ReviewInput carries the accounting review form. Nil fields keep their stored value.
type ReviewInput struct {
	ExternalAccountingID *string
	DiscountRate         *decimal.Decimal
	CreditLimit          *int64
	PaymentTerms         *int
	Notes                *string
}

// ApprovalInput lets the approver adjust terms at approval time. Nil fields carry the review values over.
type ApprovalInput struct {
	DiscountRate   *decimal.Decimal
	CreditLimit    *int64
	PaymentTerms   *int
	SpecialPricing types.SpecialPricing
	Notes          *string
}

// ListInput carries list filters from the controller.
type ListInput struct {
	Status *enums.ApplicationStatus
	Search string
	Limit  int
	Cursor string
}

// ListResult is one page of applications.
type ListResult struct {
	Items  []ApplicationDTO `json:"items"`
	Cursor string           `json:"cursor,omitempty"`
}

// ApprovalResult returns both records written by an approval.
type ApprovalResult struct {
	Application ApplicationDTO        `json:"application"`
	Customer    customers.CustomerDTO `json:"customer"`
}

// ApplicationDTO is the staff-facing application record.
type ApplicationDTO struct {
	ID                   uuid.UUID               `json:"id"`
	CompanyName          string                  `json:"company_name"`
	ContactName          string                  `json:"contact_name"`
	Email                string                  `json:"email"`
	Phone                *string                 `json:"phone,omitempty"`
	Address              string                  `json:"address"`
	BusinessType         string                  `json:"business_type"`
	TermsAgreedAt        time.Time               `json:"terms_agreed_at"`
	Status               enums.ApplicationStatus `json:"status"`
	ExternalAccountingID *string                 `json:"external_accounting_id,omitempty"`
	DiscountRate         decimal.Decimal         `json:"discount_rate"`
	CreditLimit          int64                   `json:"credit_limit"`
	PaymentTerms         int                     `json:"payment_terms"`
	SpecialPricing       types.SpecialPricing    `json:"special_pricing"`
	Notes                *string                 `json:"notes,omitempty"`
	ReviewedBy           *uuid.UUID              `json:"reviewed_by,omitempty"`
	DecidedBy            *uuid.UUID              `json:"decided_by,omitempty"`
	DecidedAt            *time.Time              `json:"decided_at,omitempty"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
}

func NewApplicationDTO(a *models.Application) ApplicationDTO {
	pricing := a.SpecialPricing
	if pricing == nil {
		pricing = types.SpecialPricing{}
	}
	return ApplicationDTO{
		ID:                   a.ID,
		CompanyName:          a.CompanyName,
		ContactName:          a.ContactName,
		Email:                a.Email,
		Phone:                a.Phone,
		Address:              a.Address,
		BusinessType:         a.BusinessType,
		TermsAgreedAt:        a.TermsAgreedAt,
		Status:               a.Status,
		ExternalAccountingID: a.ExternalAccountingID,
		DiscountRate:         a.DiscountRate,
		CreditLimit:          a.CreditLimit,
		PaymentTerms:         a.PaymentTerms,
		SpecialPricing:       pricing,
		Notes:                a.Notes,
		ReviewedBy:           a.ReviewedBy,
		DecidedBy:            a.DecidedBy,
		DecidedAt:            a.DecidedAt,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}
