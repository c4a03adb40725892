package quoting

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/macado/b2b-backend/pkg/db/models"
	"github.com/macado/b2b-backend/pkg/enums"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
	"github.com/macado/b2b-backend/pkg/metrics"
	"github.com/macado/b2b-backend/pkg/types"
)

type stubCustomers map[uuid.UUID]*models.Customer

func (s stubCustomers) FindByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, ok := s[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return customer, nil
}

type stubProducts struct {
	rows   map[uuid.UUID]*models.Product
	loaded [][]uuid.UUID
}

func (s *stubProducts) LoadForPricing(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	s.loaded = append(s.loaded, ids)
	out := make(map[uuid.UUID]*models.Product, len(ids))
	for _, id := range ids {
		product, ok := s.rows[id]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		out[id] = product
	}
	return out, nil
}

type fixture struct {
	quoter   *Quoter
	customer *models.Customer
	sencha   *models.Product
	matcha   *models.Product
	products *stubProducts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	customer := &models.Customer{
		ID:           uuid.New(),
		CompanyName:  "Uji Green Trading",
		DiscountRate: decimal.NewFromInt(5),
		CreditLimit:  500000,
		Status:       enums.CustomerStatusActive,
	}
	sencha := &models.Product{
		ID:               uuid.New(),
		Name:             "Sencha 1kg",
		ListPrice:        2000,
		MinOrderQuantity: 10,
		IsActive:         true,
		VolumeTiers: []models.ProductVolumeTier{
			{MinQuantity: 100, DiscountPercent: decimal.NewFromInt(5)},
			{MinQuantity: 500, DiscountPercent: decimal.NewFromInt(10)},
		},
	}
	matcha := &models.Product{ID: uuid.New(), Name: "Matcha 30g", ListPrice: 1500, MinOrderQuantity: 1, IsActive: true}
	products := &stubProducts{rows: map[uuid.UUID]*models.Product{sencha.ID: sencha, matcha.ID: matcha}}

	quoter, err := NewQuoter(stubCustomers{customer.ID: customer}, products, decimal.NewFromInt(10), metrics.NewDomain(prometheus.NewRegistry()))
	require.NoError(t, err)
	return &fixture{quoter: quoter, customer: customer, sencha: sencha, matcha: matcha, products: products}
}

func TestQuoteAppliesVolumeTierAndFlagsCredit(t *testing.T) {
	f := newFixture(t)

	result, err := f.quoter.Quote(context.Background(), PurposePreview, f.customer.ID, []Item{{ProductID: f.sencha.ID, Quantity: 500}})
	require.NoError(t, err)

	quote := result.Quote
	require.Len(t, quote.Lines, 1)
	assert.Equal(t, int64(1800), quote.Lines[0].UnitPrice)
	assert.Equal(t, enums.DiscountSourceVolume, quote.Lines[0].Source)
	assert.Equal(t, int64(900000), quote.Subtotal)
	assert.Equal(t, int64(90000), quote.TaxAmount)
	assert.Equal(t, int64(990000), quote.Total)
	assert.True(t, quote.CreditLimitExceeded)
	assert.Same(t, f.customer, result.Customer)
}

func TestQuoteUsesBasicDiscountAndSpecialPricing(t *testing.T) {
	f := newFixture(t)
	f.customer.SpecialPricing = types.SpecialPricing{f.matcha.ID: types.FixedPrice(1200)}

	result, err := f.quoter.Quote(context.Background(), PurposeCart, f.customer.ID, []Item{
		{ProductID: f.sencha.ID, Quantity: 10},
		{ProductID: f.matcha.ID, Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, result.Quote.Lines, 2)

	sencha := result.Quote.Lines[0]
	assert.Equal(t, enums.DiscountSourceBasic, sencha.Source)
	assert.Equal(t, int64(1900), sencha.UnitPrice)

	matcha := result.Quote.Lines[1]
	assert.Equal(t, enums.DiscountSourceSpecialFixed, matcha.Source)
	assert.Equal(t, int64(1200), matcha.UnitPrice)
	assert.True(t, matcha.DiscountPercent.Equal(decimal.NewFromInt(20)))
}

func TestQuoteDropsEmptyLinesAndMergesRepeats(t *testing.T) {
	f := newFixture(t)

	result, err := f.quoter.Quote(context.Background(), PurposePreview, f.customer.ID, []Item{
		{ProductID: f.matcha.ID, Quantity: 2},
		{ProductID: f.sencha.ID, Quantity: 0},
		{ProductID: f.matcha.ID, Quantity: 3},
		{ProductID: f.sencha.ID, Quantity: -4},
	})
	require.NoError(t, err)
	require.Len(t, result.Quote.Lines, 1)
	assert.Equal(t, 5, result.Quote.Lines[0].Quantity)
	require.Len(t, f.products.loaded, 1)
	assert.Equal(t, []uuid.UUID{f.matcha.ID}, f.products.loaded[0])
}

func TestQuoteEmptyItemsSkipsCatalog(t *testing.T) {
	f := newFixture(t)

	result, err := f.quoter.Quote(context.Background(), PurposePreview, f.customer.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Quote.Lines)
	assert.Zero(t, result.Quote.Total)
	assert.Empty(t, f.products.loaded)
}

func TestQuoteRejectsBelowMinimum(t *testing.T) {
	f := newFixture(t)

	_, err := f.quoter.Quote(context.Background(), PurposeCheckout, f.customer.ID, []Item{{ProductID: f.sencha.ID, Quantity: 9}})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Contains(t, typed.Details(), "violations")
}

func TestQuoteUnknownCustomerOrProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.quoter.Quote(ctx, PurposePreview, uuid.New(), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = f.quoter.Quote(ctx, PurposePreview, f.customer.ID, []Item{{ProductID: uuid.New(), Quantity: 1}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestNewQuoterValidatesTax(t *testing.T) {
	_, err := NewQuoter(stubCustomers{}, &stubProducts{}, decimal.NewFromInt(101), nil)
	assert.Error(t, err)
}
