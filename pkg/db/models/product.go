package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. List price is in whole currency units.
type Product struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SKU              string              `gorm:"column:sku;not null;uniqueIndex"`
	Name             string              `gorm:"column:name;not null"`
	Description      *string             `gorm:"column:description"`
	Category         string              `gorm:"column:category;not null"`
	ListPrice        int64               `gorm:"column:list_price;not null"`
	MinOrderQuantity int                 `gorm:"column:min_order_quantity;not null;default:1"`
	ImageURL         *string             `gorm:"column:image_url"`
	IsActive         bool                `gorm:"column:is_active;not null;default:true"`
	VolumeTiers      []ProductVolumeTier `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductVolumeTier grants DiscountPercent once a line reaches MinQuantity.
type ProductVolumeTier struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	MinQuantity     int             `gorm:"column:min_quantity;not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (t *ProductVolumeTier) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
