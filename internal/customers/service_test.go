package customers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/macado/b2b-backend/internal/workflow"
	"github.com/macado/b2b-backend/pkg/db"
	"github.com/macado/b2b-backend/pkg/db/dbtest"
	"github.com/macado/b2b-backend/pkg/db/models"
	"github.com/macado/b2b-backend/pkg/enums"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
	"github.com/macado/b2b-backend/pkg/types"
)

type fixture struct {
	conn    *gorm.DB
	repo    *Repository
	svc     Service
	product *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	product := &models.Product{SKU: "MATCHA-30", Name: "Matcha 30g", Category: "tea", ListPrice: 1500, IsActive: true}
	require.NoError(t, conn.Create(product).Error)

	repo := NewRepository(conn)
	svc, err := NewService(repo, db.NewFromConn(conn), productLookup{conn}, decimal.NewFromInt(50), nil)
	require.NoError(t, err)
	return &fixture{conn: conn, repo: repo, svc: svc, product: product}
}

type productLookup struct{ conn *gorm.DB }

func (p productLookup) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := p.conn.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (f *fixture) seedCustomer(t *testing.T, company, email string, createdAt time.Time) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		CompanyName:  company,
		ContactName:  "Tanaka",
		Email:        email,
		Address:      "1-2-3 Chiyoda, Tokyo",
		BusinessType: "retail",
		DiscountRate: decimal.NewFromInt(5),
		CreditLimit:  100000,
		PaymentTerms: 30,
		Status:       enums.CustomerStatusActive,
		CreatedAt:    createdAt,
	}
	created, err := f.repo.Create(context.Background(), customer)
	require.NoError(t, err)
	return created
}

var (
	accounting = workflow.Actor{UserID: uuid.New(), Role: enums.UserRoleAccounting}
	president  = workflow.Actor{UserID: uuid.New(), Role: enums.UserRolePresident}
)

func TestUpdateAppliesEditsAndFreeStatusChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.seedCustomer(t, "Kyoto Tea House", "buyer@kyoto.example", time.Now().UTC())

	rate := decimal.RequireFromString("12.5")
	limit := int64(750000)
	suspended := enums.CustomerStatusSuspended
	notes := "  late payments  "
	dto, err := f.svc.Update(ctx, accounting, customer.ID, UpdateInput{
		DiscountRate: &rate,
		CreditLimit:  &limit,
		Status:       &suspended,
		Notes:        &notes,
	})
	require.NoError(t, err)
	assert.True(t, dto.DiscountRate.Equal(rate))
	assert.Equal(t, limit, dto.CreditLimit)
	assert.Equal(t, enums.CustomerStatusSuspended, dto.Status)
	require.NotNil(t, dto.Notes)
	assert.Equal(t, "late payments", *dto.Notes)

	active := enums.CustomerStatusActive
	dto, err = f.svc.Update(ctx, accounting, customer.ID, UpdateInput{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, enums.CustomerStatusActive, dto.Status)
}

func TestUpdateValidatesAndGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.seedCustomer(t, "Osaka Foods", "orders@osaka.example", time.Now().UTC())

	tooHigh := decimal.NewFromInt(51)
	_, err := f.svc.Update(ctx, accounting, customer.ID, UpdateInput{DiscountRate: &tooHigh})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	for _, raw := range []string{"not-an-email", "orders@", "   "} {
		bad := raw
		_, err = f.svc.Update(ctx, accounting, customer.ID, UpdateInput{Email: &bad})
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "email %q: got %v", raw, err)
	}

	bogus := enums.CustomerStatus("archived")
	_, err = f.svc.Update(ctx, accounting, customer.ID, UpdateInput{Status: &bogus})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	rate := decimal.NewFromInt(10)
	_, err = f.svc.Update(ctx, president, customer.ID, UpdateInput{DiscountRate: &rate})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)

	_, err = f.svc.Update(ctx, accounting, uuid.New(), UpdateInput{DiscountRate: &rate})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	reloaded, err := f.repo.FindByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.DiscountRate.Equal(decimal.NewFromInt(5)), "failed updates must not change the row")
	assert.Equal(t, "orders@osaka.example", reloaded.Email)
}

func TestUpdateDuplicateEmailConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCustomer(t, "First", "taken@example.jp", time.Now().UTC())
	second := f.seedCustomer(t, "Second", "second@example.jp", time.Now().UTC())

	email := "TAKEN@example.jp"
	_, err := f.svc.Update(ctx, accounting, second.ID, UpdateInput{Email: &email})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestSpecialPricingSetAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.seedCustomer(t, "Nagoya Cafe", "cafe@nagoya.example", time.Now().UTC())

	dto, err := f.svc.SetSpecialPrice(ctx, accounting, customer.ID, f.product.ID, types.FixedPrice(1200))
	require.NoError(t, err)
	sp, ok := dto.SpecialPricing.For(f.product.ID)
	require.True(t, ok)
	amount, isFixed := sp.Fixed()
	assert.True(t, isFixed)
	assert.Equal(t, int64(1200), amount)

	reloaded, err := f.repo.FindByID(ctx, customer.ID)
	require.NoError(t, err)
	_, ok = reloaded.SpecialPricing.For(f.product.ID)
	assert.True(t, ok, "special pricing must persist")

	dto, err = f.svc.ClearSpecialPrice(ctx, accounting, customer.ID, f.product.ID)
	require.NoError(t, err)
	assert.Empty(t, dto.SpecialPricing)

	_, err = f.svc.SetSpecialPrice(ctx, accounting, customer.ID, uuid.New(), types.FixedPrice(1))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = f.svc.SetSpecialPrice(ctx, accounting, customer.ID, f.product.ID, types.SpecialPrice{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestListFiltersAndPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.seedCustomer(t, "Alpha Trading", "alpha@example.jp", base)
	f.seedCustomer(t, "Beta Retail", "beta@example.jp", base.Add(time.Minute))
	gamma := f.seedCustomer(t, "Gamma Trading", "gamma@example.jp", base.Add(2*time.Minute))

	inactive := enums.CustomerStatusInactive
	_, err := f.svc.Update(ctx, accounting, gamma.ID, UpdateInput{Status: &inactive})
	require.NoError(t, err)

	page, err := f.svc.List(ctx, ListInput{Search: "trading"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Gamma Trading", page.Items[0].CompanyName)

	page, err = f.svc.List(ctx, ListInput{Status: &inactive})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	first, err := f.svc.List(ctx, ListInput{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.Cursor)

	second, err := f.svc.List(ctx, ListInput{Limit: 2, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "Alpha Trading", second.Items[0].CompanyName)
	assert.Empty(t, second.Cursor)

	_, err = f.svc.List(ctx, ListInput{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}
