package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/macado/b2b-backend/internal/quoting"
	"github.com/macado/b2b-backend/pkg/db/models"
	"github.com/macado/b2b-backend/pkg/enums"
)

// Order sources.
const (
	SourcePortal = "portal"
	SourceManual = "manual"
)

// CheckoutInput carries the optional note a customer adds when placing the cart.
type CheckoutInput struct {
	Notes *string
}

// CreateInput is staff manual order entry.
type CreateInput struct {
	CustomerID uuid.UUID
	Items      []quoting.Item
	Notes      *string
}

// ListInput carries list filters from the controller.
type ListInput struct {
	CustomerID *uuid.UUID
	Status     *enums.OrderStatus
	Limit      int
	Cursor     string
}

// ListResult is one page of orders.
type ListResult struct {
	Items  []OrderDTO `json:"items"`
	Cursor string     `json:"cursor,omitempty"`
}

// Summary feeds the order dashboard.
type Summary struct {
	Total    int64                       `json:"total"`
	ByStatus map[enums.OrderStatus]int64 `json:"by_status"`
}

// OrderLineDTO is the stored pricing decision for one line.
type OrderLineDTO struct {
	ID              uuid.UUID            `json:"id"`
	ProductID       uuid.UUID            `json:"product_id"`
	ProductName     string               `json:"product_name"`
	Quantity        int                  `json:"quantity"`
	ListPrice       int64                `json:"list_price"`
	UnitPrice       int64                `json:"unit_price"`
	Subtotal        int64                `json:"subtotal"`
	DiscountPercent decimal.Decimal      `json:"discount_percent"`
	DiscountAmount  int64                `json:"discount_amount"`
	DiscountSource  enums.DiscountSource `json:"discount_source"`
}

// OrderDTO is the order returned to staff and portal clients.
type OrderDTO struct {
	ID             uuid.UUID         `json:"id"`
	CustomerID     uuid.UUID         `json:"customer_id"`
	CustomerName   string            `json:"customer_name,omitempty"`
	Status         enums.OrderStatus `json:"status"`
	Source         string            `json:"source"`
	ListSubtotal   int64             `json:"list_subtotal"`
	Subtotal       int64             `json:"subtotal"`
	DiscountAmount int64             `json:"discount_amount"`
	TaxPercent     decimal.Decimal   `json:"tax_percent"`
	TaxAmount      int64             `json:"tax_amount"`
	TotalAmount    int64             `json:"total_amount"`
	CreditLimit    int64             `json:"credit_limit"`
	CreditWarning  bool              `json:"credit_warning"`
	Notes          *string           `json:"notes,omitempty"`
	CreatedBy      uuid.UUID         `json:"created_by"`
	Items          []OrderLineDTO    `json:"items,omitempty"`
	CancelledAt    *time.Time        `json:"cancelled_at,omitempty"`
	DeliveredAt    *time.Time        `json:"delivered_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func NewOrderDTO(o *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:             o.ID,
		CustomerID:     o.CustomerID,
		Status:         o.Status,
		Source:         o.Source,
		ListSubtotal:   o.ListSubtotal,
		Subtotal:       o.Subtotal,
		DiscountAmount: o.DiscountAmount,
		TaxPercent:     o.TaxPercent,
		TaxAmount:      o.TaxAmount,
		TotalAmount:    o.TotalAmount,
		CreditLimit:    o.CreditLimit,
		CreditWarning:  o.CreditWarning,
		Notes:          o.Notes,
		CreatedBy:      o.CreatedBy,
		CancelledAt:    o.CancelledAt,
		DeliveredAt:    o.DeliveredAt,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if o.Customer != nil {
		dto.CustomerName = o.Customer.CompanyName
	}
	for _, line := range o.Items {
		dto.Items = append(dto.Items, OrderLineDTO{
			ID:              line.ID,
			ProductID:       line.ProductID,
			ProductName:     line.ProductName,
			Quantity:        line.Quantity,
			ListPrice:       line.ListPrice,
			UnitPrice:       line.UnitPrice,
			Subtotal:        line.Subtotal,
			DiscountPercent: line.DiscountPercent,
			DiscountAmount:  line.DiscountAmount,
			DiscountSource:  line.DiscountSource,
		})
	}
	return dto
}

// orderFromQuote snapshots a priced quote into a pending order.
func orderFromQuote(result *quoting.Result, source string, createdBy uuid.UUID, notes *string) *models.Order {
	quote := result.Quote
	order := &models.Order{
		CustomerID:     result.Customer.ID,
		Status:         enums.OrderStatusPending,
		Source:         source,
		ListSubtotal:   quote.ListSubtotal,
		Subtotal:       quote.Subtotal,
		DiscountAmount: quote.DiscountAmount,
		TaxPercent:     quote.TaxPercent,
		TaxAmount:      quote.TaxAmount,
		TotalAmount:    quote.Total,
		CreditLimit:    quote.CreditLimit,
		CreditWarning:  quote.CreditLimitExceeded,
		Notes:          notes,
		CreatedBy:      createdBy,
		Items:          make([]models.OrderLine, 0, len(quote.Lines)),
	}
	for _, line := range quote.Lines {
		name := ""
		if product := result.Products[line.ProductID]; product != nil {
			name = product.Name
		}
		order.Items = append(order.Items, models.OrderLine{
			ProductID:       line.ProductID,
			ProductName:     name,
			Quantity:        line.Quantity,
			ListPrice:       line.ListPrice,
			UnitPrice:       line.UnitPrice,
			Subtotal:        line.Subtotal,
			DiscountPercent: line.DiscountPercent,
			DiscountAmount:  line.DiscountAmount,
			DiscountSource:  line.Source,
		})
	}
	return order
}
