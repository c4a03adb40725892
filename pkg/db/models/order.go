package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/macado/b2b-backend/pkg/enums"
)

// Order is a priced snapshot of a customer's purchase. Amounts are whole currency units.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID     uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	Status         enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Source         string            `gorm:"column:source;not null"`
	ListSubtotal   int64             `gorm:"column:list_subtotal;not null"`
	Subtotal       int64             `gorm:"column:subtotal;not null"`
	DiscountAmount int64             `gorm:"column:discount_amount;not null;default:0"`
	TaxPercent     decimal.Decimal   `gorm:"column:tax_percent;type:numeric(5,2);not null"`
	TaxAmount      int64             `gorm:"column:tax_amount;not null;default:0"`
	TotalAmount    int64             `gorm:"column:total_amount;not null"`
	CreditLimit    int64             `gorm:"column:credit_limit;not null;default:0"`
	CreditWarning  bool              `gorm:"column:credit_warning;not null;default:false"`
	Notes          *string           `gorm:"column:notes"`
	CreatedBy      uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	Items          []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Customer       *Customer         `gorm:"foreignKey:CustomerID"`
	CancelledAt    *time.Time        `gorm:"column:cancelled_at"`
	DeliveredAt    *time.Time        `gorm:"column:delivered_at"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderLine keeps the pricing decision made at order time for audit.
type OrderLine struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID       uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	ProductName     string               `gorm:"column:product_name;not null"`
	Quantity        int                  `gorm:"column:quantity;not null"`
	ListPrice       int64                `gorm:"column:list_price;not null"`
	UnitPrice       int64                `gorm:"column:unit_price;not null"`
	Subtotal        int64                `gorm:"column:subtotal;not null"`
	DiscountPercent decimal.Decimal      `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	DiscountAmount  int64                `gorm:"column:discount_amount;not null"`
	DiscountSource  enums.DiscountSource `gorm:"column:discount_source;type:text;not null"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// AllModels lists every persisted model, in dependency order.
func AllModels() []any {
	return []any{
		&Product{},
		&ProductVolumeTier{},
		&Application{},
		&Customer{},
		&User{},
		&Order{},
		&OrderLine{},
	}
}
