package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/macado/b2b-backend/pkg/enums"
	"github.com/macado/b2b-backend/pkg/types"
)

// Customer is an approved business account with its negotiated terms.
type Customer struct {
	ID                   uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ApplicationID        *uuid.UUID           `gorm:"column:application_id;type:uuid;uniqueIndex"`
	CompanyName          string               `gorm:"column:company_name;not null"`
	ContactName          string               `gorm:"column:contact_name;not null"`
	Email                string               `gorm:"column:email;not null;uniqueIndex"`
	Phone                *string              `gorm:"column:phone"`
	Address              string               `gorm:"column:address;not null"`
	BusinessType         string               `gorm:"column:business_type;not null"`
	ExternalAccountingID *string              `gorm:"column:external_accounting_id"`
	DiscountRate         decimal.Decimal      `gorm:"column:discount_rate;type:numeric(5,2);not null;default:0"`
	CreditLimit          int64                `gorm:"column:credit_limit;not null;default:0"`
	PaymentTerms         int                  `gorm:"column:payment_terms;not null;default:30"`
	SpecialPricing       types.SpecialPricing `gorm:"column:special_pricing;type:jsonb;not null;default:'{}'"`
	Status               enums.CustomerStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Notes                *string              `gorm:"column:notes"`
	CreatedAt            time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
