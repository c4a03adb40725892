package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/macado/b2b-backend/internal/cart"
	"github.com/macado/b2b-backend/internal/pricing"
	"github.com/macado/b2b-backend/internal/quoting"
	"github.com/macado/b2b-backend/internal/workflow"
	"github.com/macado/b2b-backend/pkg/db/models"
	"github.com/macado/b2b-backend/pkg/enums"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
	"github.com/macado/b2b-backend/pkg/logger"
	"github.com/macado/b2b-backend/pkg/metrics"
	"github.com/macado/b2b-backend/pkg/pagination"
)

// Service places, lists, and advances orders.
type Service interface {
	Quote(ctx context.Context, actor workflow.Actor, customerID uuid.UUID, items []quoting.Item) (*pricing.OrderQuote, error)
	Checkout(ctx context.Context, actor workflow.Actor, input CheckoutInput) (*OrderDTO, error)
	CreateManual(ctx context.Context, actor workflow.Actor, input CreateInput) (*OrderDTO, error)
	List(ctx context.Context, actor workflow.Actor, input ListInput) (*ListResult, error)
	Get(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, actor workflow.Actor, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	Summary(ctx context.Context) (*Summary, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type quoter interface {
	Quote(ctx context.Context, purpose string, customerID uuid.UUID, items []quoting.Item) (*quoting.Result, error)
}

type cartStore interface {
	Load(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error)
	Delete(ctx context.Context, customerID uuid.UUID) error
}

// ServiceParams groups the order service dependencies.
type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Quoter  quoter
	Carts   cartStore
	Logger  *logger.Logger
	Metrics *metrics.Domain
}

type service struct {
	repo    Repository
	tx      txRunner
	quoter  quoter
	carts   cartStore
	logg    *logger.Logger
	metrics *metrics.Domain
	now     func() time.Time
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Quoter == nil {
		return nil, fmt.Errorf("quoter required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		quoter:  params.Quoter,
		carts:   params.Carts,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

// Quote previews pricing. Staff may quote any customer; customers only themselves.
func (s *service) Quote(ctx context.Context, actor workflow.Actor, customerID uuid.UUID, items []quoting.Item) (*pricing.OrderQuote, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required")
	}
	if !actor.IsStaff() && !actor.OwnsCustomer(customerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot quote for another customer")
	}
	result, err := s.quoter.Quote(ctx, quoting.PurposePreview, customerID, items)
	if err != nil {
		return nil, err
	}
	return &result.Quote, nil
}

// Checkout turns the acting customer's stored cart into a pending order and clears the cart.
func (s *service) Checkout(ctx context.Context, actor workflow.Actor, input CheckoutInput) (*OrderDTO, error) {
	customerID, err := cart.CustomerOf(actor)
	if err != nil {
		return nil, err
	}
	c, err := s.carts.Load(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if c.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	order, err := s.place(ctx, actor, quoting.PurposeCheckout, SourcePortal, customerID, c.Items(), input.Notes)
	if err != nil {
		return nil, err
	}

	if err := s.carts.Delete(ctx, customerID); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": order.ID.String()})
		s.logg.Error(logCtx, "clear cart after checkout", err)
	}
	return order, nil
}

// CreateManual records an order entered by staff on a customer's behalf.
func (s *service) CreateManual(ctx context.Context, actor workflow.Actor, input CreateInput) (*OrderDTO, error) {
	if err := workflow.Authorize(actor, workflow.ActionCreateManualOrder); err != nil {
		return nil, err
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required")
	}
	return s.place(ctx, actor, quoting.PurposeManual, SourceManual, input.CustomerID, input.Items, input.Notes)
}

func (s *service) place(ctx context.Context, actor workflow.Actor, purpose, source string, customerID uuid.UUID, items []quoting.Item, notes *string) (*OrderDTO, error) {
	result, err := s.quoter.Quote(ctx, purpose, customerID, items)
	if err != nil {
		return nil, err
	}
	if len(result.Quote.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if result.Customer.Status != enums.CustomerStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("customer is %s", result.Customer.Status)).
			WithDetails(map[string]any{"customer_status": result.Customer.Status})
	}

	order := orderFromQuote(result, source, actor.UserID, trimNotes(notes))
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Customer = result.Customer

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":    order.ID.String(),
		"customer_id": customerID.String(),
		"source":      source,
		"total":       order.TotalAmount,
	})
	if order.CreditWarning {
		s.logg.Warn(logCtx, "order exceeds customer credit limit")
	}
	s.logg.Info(logCtx, "order placed")
	s.metrics.IncTransition("order", string(enums.OrderStatusPending))

	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor workflow.Actor, input ListInput) (*ListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if !actor.IsStaff() {
		customerID, err := cart.CustomerOf(actor)
		if err != nil {
			return nil, err
		}
		input.CustomerID = &customerID
	}

	limit := pagination.NormalizeLimit(input.Limit)
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, ListQuery{
		CustomerID: input.CustomerID,
		Status:     input.Status,
		Cursor:     cursor,
		Limit:      pagination.LimitWithBuffer(input.Limit),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	items := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		items = append(items, NewOrderDTO(&rows[i]))
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

// Get returns the order with its lines. Another customer's order reads as not found.
func (s *service) Get(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if !actor.IsStaff() && !actor.OwnsCustomer(order.CustomerID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

// UpdateStatus advances the order. The write only lands if the status is unchanged since it was read.
func (s *service) UpdateStatus(ctx context.Context, actor workflow.Actor, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	order, err := s.updateStatus(ctx, actor, id, status)
	if err != nil {
		s.metrics.IncTransitionFailure("order", string(pkgerrors.As(err).Code()))
		return nil, err
	}
	s.metrics.IncTransition("order", string(status))

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": id.String(),
		"status":   string(status),
	})
	s.logg.Info(logCtx, "order status updated")

	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) updateStatus(ctx context.Context, actor workflow.Actor, id uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if err := workflow.OrderTransition(actor, current.Status, status); err != nil {
		return nil, err
	}

	updates := map[string]any{"status": status}
	now := s.now().UTC()
	switch status {
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = now
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
	}

	ok, err := s.repo.UpdateWhereStatus(ctx, id, current.Status, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order changed while updating status")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return updated, nil
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	summary := &Summary{ByStatus: make(map[enums.OrderStatus]int64, len(enums.OrderStatuses()))}
	for _, status := range enums.OrderStatuses() {
		summary.ByStatus[status] = counts[status]
		summary.Total += counts[status]
	}
	return summary, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func trimNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
