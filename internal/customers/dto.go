package customers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/macado/b2b-backend/pkg/db/models"
	"github.com/macado/b2b-backend/pkg/enums"
	"github.com/macado/b2b-backend/pkg/types"
)

// CustomerDTO is the staff-facing customer record.
type CustomerDTO struct {
	ID                   uuid.UUID            `json:"id"`
	ApplicationID        *uuid.UUID           `json:"application_id,omitempty"`
	CompanyName          string               `json:"company_name"`
	ContactName          string               `json:"contact_name"`
	Email                string               `json:"email"`
	Phone                *string              `json:"phone,omitempty"`
	Address              string               `json:"address"`
	BusinessType         string               `json:"business_type"`
	ExternalAccountingID *string              `json:"external_accounting_id,omitempty"`
	DiscountRate         decimal.Decimal      `json:"discount_rate"`
	CreditLimit          int64                `json:"credit_limit"`
	PaymentTerms         int                  `json:"payment_terms"`
	SpecialPricing       types.SpecialPricing `json:"special_pricing"`
	Status               enums.CustomerStatus `json:"status"`
	Notes                *string              `json:"notes,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

func NewCustomerDTO(c *models.Customer) CustomerDTO {
	pricing := c.SpecialPricing
	if pricing == nil {
		pricing = types.SpecialPricing{}
	}
	return CustomerDTO{
		ID:                   c.ID,
		ApplicationID:        c.ApplicationID,
		CompanyName:          c.CompanyName,
		ContactName:          c.ContactName,
		Email:                c.Email,
		Phone:                c.Phone,
		Address:              c.Address,
		BusinessType:         c.BusinessType,
		ExternalAccountingID: c.ExternalAccountingID,
		DiscountRate:         c.DiscountRate,
		CreditLimit:          c.CreditLimit,
		PaymentTerms:         c.PaymentTerms,
		SpecialPricing:       pricing,
		Status:               c.Status,
		Notes:                c.Notes,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

// ListInput carries list filters from the controller.
type ListInput struct {
	Status *enums.CustomerStatus
	Search string
	Limit  int
	Cursor string
}

// ListResult is one page of customers.
type ListResult struct {
	Items  []CustomerDTO `json:"items"`
	Cursor string        `json:"cursor,omitempty"`
}

// UpdateInput holds optional staff edits. Nil fields are left unchanged.
type UpdateInput struct {
	CompanyName          *string
	ContactName          *string
	Email                *string
	Phone                *string
	Address              *string
	BusinessType         *string
	ExternalAccountingID *string
	DiscountRate         *decimal.Decimal
	CreditLimit          *int64
	PaymentTerms         *int
	Status               *enums.CustomerStatus
	Notes                *string
}
