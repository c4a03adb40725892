package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/macado/b2b-backend/internal/pricing"
	"github.com/macado/b2b-backend/pkg/db/models"
)

// ProductDTO is the catalog entry returned to portal and staff clients.
type ProductDTO struct {
	ID               uuid.UUID      `json:"id"`
	SKU              string         `json:"sku"`
	Name             string         `json:"name"`
	Description      *string        `json:"description,omitempty"`
	Category         string         `json:"category"`
	ListPrice        int64          `json:"list_price"`
	MinOrderQuantity int            `json:"min_order_quantity"`
	ImageURL         *string        `json:"image_url,omitempty"`
	IsActive         bool           `json:"is_active"`
	VolumeTiers      []pricing.Tier `json:"volume_tiers"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// NewProductDTO maps the persisted model to its API shape.
func NewProductDTO(product *models.Product) ProductDTO {
	return ProductDTO{
		ID:               product.ID,
		SKU:              product.SKU,
		Name:             product.Name,
		Description:      product.Description,
		Category:         product.Category,
		ListPrice:        product.ListPrice,
		MinOrderQuantity: MinimumQuantity(product),
		ImageURL:         product.ImageURL,
		IsActive:         product.IsActive,
		VolumeTiers:      Tiers(product),
		CreatedAt:        product.CreatedAt,
		UpdatedAt:        product.UpdatedAt,
	}
}

// Tiers converts stored volume tiers into pricing tiers.
func Tiers(product *models.Product) []pricing.Tier {
	tiers := make([]pricing.Tier, 0, len(product.VolumeTiers))
	for _, tier := range product.VolumeTiers {
		tiers = append(tiers, pricing.Tier{
			MinQuantity: tier.MinQuantity,
			Percent:     tier.DiscountPercent,
		})
	}
	return tiers
}

// MinimumQuantity returns the product's minimum order quantity, never below one.
func MinimumQuantity(product *models.Product) int {
	if product.MinOrderQuantity < 1 {
		return 1
	}
	return product.MinOrderQuantity
}
