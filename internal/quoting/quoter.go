// Package quoting prices a customer's requested items against the catalog and the
// customer's negotiated terms. The cart and order flows share it.
package quoting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/macado/b2b-backend/internal/pricing"
	"github.com/macado/b2b-backend/internal/products"
	"github.com/macado/b2b-backend/pkg/db/models"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
	"github.com/macado/b2b-backend/pkg/metrics"
)

// Purposes label quote metrics by caller.
const (
	PurposePreview  = "preview"
	PurposeCart     = "cart"
	PurposeCheckout = "checkout"
	PurposeManual   = "manual"
)

// Item is one requested product and quantity.
type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Result carries the quote together with the rows it was computed from, so callers can
// persist an order without reloading them.
type Result struct {
	Customer *models.Customer
	Products map[uuid.UUID]*models.Product
	Quote    pricing.OrderQuote
}

type customerFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type productLoader interface {
	LoadForPricing(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
}

// Quoter assembles pricing inputs from stored customers and products.
type Quoter struct {
	customers  customerFinder
	products   productLoader
	taxPercent decimal.Decimal
	metrics    *metrics.Domain
	now        func() time.Time
}

// NewQuoter builds a quoter charging taxPercent on every order.
func NewQuoter(customers customerFinder, products productLoader, taxPercent decimal.Decimal, m *metrics.Domain) (*Quoter, error) {
	if customers == nil {
		return nil, fmt.Errorf("customer finder required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if taxPercent.IsNegative() || taxPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("tax percent must be within [0,100]")
	}
	return &Quoter{customers: customers, products: products, taxPercent: taxPercent, metrics: m, now: time.Now}, nil
}

// TaxPercent reports the rate applied to every quote.
func (q *Quoter) TaxPercent() decimal.Decimal {
	return q.taxPercent
}

// Quote prices items for customerID. Items with a non-positive quantity are dropped and
// repeated products are merged before pricing.
func (q *Quoter) Quote(ctx context.Context, purpose string, customerID uuid.UUID, items []Item) (*Result, error) {
	started := q.now()

	customer, err := q.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	merged := Normalize(items)
	result := &Result{Customer: customer, Products: map[uuid.UUID]*models.Product{}}
	if len(merged) > 0 {
		ids := make([]uuid.UUID, 0, len(merged))
		for _, item := range merged {
			ids = append(ids, item.ProductID)
		}
		result.Products, err = q.products.LoadForPricing(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	checks := make([]pricing.QuantityCheck, 0, len(merged))
	lines := make([]pricing.LineInput, 0, len(merged))
	for _, item := range merged {
		product := result.Products[item.ProductID]
		checks = append(checks, pricing.QuantityCheck{
			ProductID:   product.ID,
			ProductName: product.Name,
			MinQuantity: products.MinimumQuantity(product),
			Quantity:    item.Quantity,
		})
		line := pricing.LineInput{
			ProductID:    product.ID,
			ListPrice:    product.ListPrice,
			Quantity:     item.Quantity,
			BasicPercent: customer.DiscountRate,
			Tiers:        products.Tiers(product),
		}
		if special, ok := customer.SpecialPricing.For(product.ID); ok {
			line.Special = &special
		}
		lines = append(lines, line)
	}
	if err := pricing.ValidateMinimumQuantities(checks); err != nil {
		return nil, err
	}

	quote, err := pricing.QuoteOrder(pricing.OrderInput{
		Lines:       lines,
		TaxPercent:  q.taxPercent,
		CreditLimit: customer.CreditLimit,
	})
	if err != nil {
		return nil, err
	}
	result.Quote = quote

	sources := make([]string, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		sources = append(sources, string(line.Source))
	}
	q.metrics.ObserveQuote(purpose, sources, quote.CreditLimitExceeded, q.now().Sub(started))
	return result, nil
}

// Normalize drops non-positive quantities and merges repeated products, keeping first-seen order.
func Normalize(items []Item) []Item {
	out := make([]Item, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out
}
