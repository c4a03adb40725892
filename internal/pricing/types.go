package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/macado/b2b-backend/pkg/enums"
	"github.com/macado/b2b-backend/pkg/types"
)

// Tier is a volume discount threshold for one product.
type Tier struct {
	MinQuantity int             `json:"min_quantity"`
	Percent     decimal.Decimal `json:"discount_percent"`
}

// LineInput carries everything needed to price a single line.
type LineInput struct {
	ProductID    uuid.UUID
	ListPrice    int64
	Quantity     int
	BasicPercent decimal.Decimal
	Special      *types.SpecialPrice
	Tiers        []Tier
}

// LineQuote is the priced line. DiscountPercent is the effective percent rounded for display.
type LineQuote struct {
	ProductID       uuid.UUID            `json:"product_id"`
	ListPrice       int64                `json:"list_price"`
	Quantity        int                  `json:"quantity"`
	UnitPrice       int64                `json:"unit_price"`
	Subtotal        int64                `json:"subtotal"`
	DiscountPercent decimal.Decimal      `json:"discount_percent"`
	DiscountAmount  int64                `json:"discount_amount"`
	Source          enums.DiscountSource `json:"discount_source"`
}

// OrderInput prices a set of lines for one customer. Any total above CreditLimit is flagged.
type OrderInput struct {
	Lines       []LineInput
	TaxPercent  decimal.Decimal
	CreditLimit int64
}

// OrderQuote aggregates line quotes into order totals.
type OrderQuote struct {
	Lines                  []LineQuote     `json:"lines"`
	ListSubtotal           int64           `json:"list_subtotal"`
	Subtotal               int64           `json:"subtotal"`
	DiscountAmount         int64           `json:"discount_amount"`
	AverageDiscountPercent decimal.Decimal `json:"average_discount_percent"`
	TaxPercent             decimal.Decimal `json:"tax_percent"`
	TaxAmount              int64           `json:"tax_amount"`
	Total                  int64           `json:"total"`
	CreditLimit            int64           `json:"credit_limit"`
	CreditLimitExceeded    bool            `json:"credit_limit_exceeded"`
}
