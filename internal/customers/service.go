package customers

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/macado/b2b-backend/internal/workflow"
	"github.com/macado/b2b-backend/pkg/db"
	"github.com/macado/b2b-backend/pkg/db/models"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
	"github.com/macado/b2b-backend/pkg/metrics"
	"github.com/macado/b2b-backend/pkg/pagination"
	"github.com/macado/b2b-backend/pkg/types"
)

// Service exposes staff customer management.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*CustomerDTO, error)
	Update(ctx context.Context, actor workflow.Actor, id uuid.UUID, input UpdateInput) (*CustomerDTO, error)
	SetSpecialPrice(ctx context.Context, actor workflow.Actor, id, productID uuid.UUID, price types.SpecialPrice) (*CustomerDTO, error)
	ClearSpecialPrice(ctx context.Context, actor workflow.Actor, id, productID uuid.UUID) (*CustomerDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo        *Repository
	tx          txRunner
	products    productFinder
	maxDiscount decimal.Decimal
	metrics     *metrics.Domain
}

// NewService constructs the customer service. maxDiscount caps the basic discount rate.
func NewService(repo *Repository, tx txRunner, products productFinder, maxDiscount decimal.Decimal, m *metrics.Domain) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if maxDiscount.IsNegative() || maxDiscount.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("max discount must be within [0,100]")
	}
	return &service{repo: repo, tx: tx, products: products, maxDiscount: maxDiscount, metrics: m}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	limit := pagination.NormalizeLimit(input.Limit)
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, ListQuery{
		Status: input.Status,
		Search: input.Search,
		Cursor: cursor,
		Limit:  pagination.LimitWithBuffer(input.Limit),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	items := make([]CustomerDTO, 0, len(rows))
	for i := range rows {
		items = append(items, NewCustomerDTO(&rows[i]))
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := NewCustomerDTO(customer)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor workflow.Actor, id uuid.UUID, input UpdateInput) (*CustomerDTO, error) {
	if err := workflow.Authorize(actor, workflow.ActionEditCustomer); err != nil {
		return nil, err
	}
	updates, err := s.buildUpdates(input)
	if err != nil {
		return nil, err
	}

	var updated *models.Customer
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if input.Status != nil {
			if err := workflow.CustomerTransition(actor, current.Status, *input.Status); err != nil {
				return err
			}
		}
		if _, err := repo.Update(ctx, id, updates); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already belongs to another customer")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
		}
		updated, err = s.load(ctx, repo, id)
		return err
	})
	if err != nil {
		if input.Status != nil {
			s.metrics.IncTransitionFailure("customer", string(pkgerrors.As(err).Code()))
		}
		return nil, err
	}
	if input.Status != nil {
		s.metrics.IncTransition("customer", string(*input.Status))
	}
	dto := NewCustomerDTO(updated)
	return &dto, nil
}

func (s *service) SetSpecialPrice(ctx context.Context, actor workflow.Actor, id, productID uuid.UUID, price types.SpecialPrice) (*CustomerDTO, error) {
	if err := price.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid special pricing")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return s.mutateSpecialPricing(ctx, actor, id, func(pricing types.SpecialPricing) {
		pricing[productID] = price
	})
}

func (s *service) ClearSpecialPrice(ctx context.Context, actor workflow.Actor, id, productID uuid.UUID) (*CustomerDTO, error) {
	return s.mutateSpecialPricing(ctx, actor, id, func(pricing types.SpecialPricing) {
		delete(pricing, productID)
	})
}

func (s *service) mutateSpecialPricing(ctx context.Context, actor workflow.Actor, id uuid.UUID, mutate func(types.SpecialPricing)) (*CustomerDTO, error) {
	if err := workflow.Authorize(actor, workflow.ActionEditCustomer); err != nil {
		return nil, err
	}
	var updated *models.Customer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		pricing := current.SpecialPricing.Clone()
		mutate(pricing)
		if _, err := repo.Update(ctx, id, map[string]any{"special_pricing": pricing}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update special pricing")
		}
		current.SpecialPricing = pricing
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := NewCustomerDTO(updated)
	return &dto, nil
}

func (s *service) load(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Customer, error) {
	customer, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) buildUpdates(input UpdateInput) (map[string]any, error) {
	updates := map[string]any{}
	text := map[string]*string{
		"company_name":  input.CompanyName,
		"contact_name":  input.ContactName,
		"address":       input.Address,
		"business_type": input.BusinessType,
	}
	for column, value := range text {
		if value == nil {
			continue
		}
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, column+" cannot be empty")
		}
		updates[column] = trimmed
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		addr, err := mail.ParseAddress(email)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid email address")
		}
		updates["email"] = addr.Address
	}
	optional := map[string]*string{
		"phone":                  input.Phone,
		"external_accounting_id": input.ExternalAccountingID,
		"notes":                  input.Notes,
	}
	for column, value := range optional {
		if value == nil {
			continue
		}
		if trimmed := strings.TrimSpace(*value); trimmed != "" {
			updates[column] = trimmed
		} else {
			updates[column] = nil
		}
	}
	if input.DiscountRate != nil {
		if input.DiscountRate.IsNegative() || input.DiscountRate.GreaterThan(s.maxDiscount) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("discount rate must be within [0,%s]", s.maxDiscount))
		}
		updates["discount_rate"] = *input.DiscountRate
	}
	if input.CreditLimit != nil {
		if *input.CreditLimit < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit limit must be non-negative")
		}
		updates["credit_limit"] = *input.CreditLimit
	}
	if input.PaymentTerms != nil {
		if *input.PaymentTerms < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment terms must be non-negative")
		}
		updates["payment_terms"] = *input.PaymentTerms
	}
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	return updates, nil
}
