package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/macado/b2b-backend/pkg/enums"
	"github.com/macado/b2b-backend/pkg/types"
)

// Application is a prospective customer's submission plus the terms filled in during review.
type Application struct {
	ID                   uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	CompanyName          string                  `gorm:"column:company_name;not null"`
	ContactName          string                  `gorm:"column:contact_name;not null"`
	Email                string                  `gorm:"column:email;not null;uniqueIndex"`
	Phone                *string                 `gorm:"column:phone"`
	Address              string                  `gorm:"column:address;not null"`
	BusinessType         string                  `gorm:"column:business_type;not null"`
	TermsAgreedAt        time.Time               `gorm:"column:terms_agreed_at;not null"`
	Status               enums.ApplicationStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ExternalAccountingID *string                 `gorm:"column:external_accounting_id"`
	DiscountRate         decimal.Decimal         `gorm:"column:discount_rate;type:numeric(5,2);not null;default:0"`
	CreditLimit          int64                   `gorm:"column:credit_limit;not null;default:0"`
	PaymentTerms         int                     `gorm:"column:payment_terms;not null;default:30"`
	SpecialPricing       types.SpecialPricing    `gorm:"column:special_pricing;type:jsonb;not null;default:'{}'"`
	Notes                *string                 `gorm:"column:notes"`
	ReviewedBy           *uuid.UUID              `gorm:"column:reviewed_by;type:uuid"`
	DecidedBy            *uuid.UUID              `gorm:"column:decided_by;type:uuid"`
	DecidedAt            *time.Time              `gorm:"column:decided_at"`
	CreatedAt            time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Application) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
