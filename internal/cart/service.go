package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/macado/b2b-backend/internal/pricing"
	"github.com/macado/b2b-backend/internal/products"
	"github.com/macado/b2b-backend/internal/quoting"
	"github.com/macado/b2b-backend/internal/workflow"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
)

// View is the cart as returned to the portal.
type View struct {
	Lines           []Line    `json:"lines"`
	ItemCount       int       `json:"item_count"`
	UniqueItemCount int       `json:"unique_item_count"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// Service exposes the portal cart for the acting customer.
type Service interface {
	Get(ctx context.Context, actor workflow.Actor) (*View, error)
	Add(ctx context.Context, actor workflow.Actor, productID uuid.UUID, quantity int) (*View, error)
	UpdateQuantity(ctx context.Context, actor workflow.Actor, productID uuid.UUID, quantity int) (*View, error)
	Remove(ctx context.Context, actor workflow.Actor, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, actor workflow.Actor) error
	Quote(ctx context.Context, actor workflow.Actor) (*pricing.OrderQuote, error)
}

type cartStore interface {
	Load(ctx context.Context, customerID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, customerID uuid.UUID) error
}

type productGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*products.ProductDTO, error)
}

type quoter interface {
	Quote(ctx context.Context, purpose string, customerID uuid.UUID, items []quoting.Item) (*quoting.Result, error)
}

type service struct {
	store    cartStore
	products productGetter
	quoter   quoter
}

// NewService builds the cart service.
func NewService(store cartStore, products productGetter, q quoter) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product getter required")
	}
	if q == nil {
		return nil, fmt.Errorf("quoter required")
	}
	return &service{store: store, products: products, quoter: q}, nil
}

func (s *service) Get(ctx context.Context, actor workflow.Actor) (*View, error) {
	c, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	return newView(c), nil
}

func (s *service) Add(ctx context.Context, actor workflow.Actor, productID uuid.UUID, quantity int) (*View, error) {
	c, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available")
	}
	if err := c.Add(Product{ID: product.ID, Name: product.Name, MinQuantity: product.MinOrderQuantity}, quantity); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

func (s *service) UpdateQuantity(ctx context.Context, actor workflow.Actor, productID uuid.UUID, quantity int) (*View, error) {
	c, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateQuantity(productID, quantity); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

func (s *service) Remove(ctx context.Context, actor workflow.Actor, productID uuid.UUID) (*View, error) {
	c, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !c.Remove(productID) {
		return newView(c), nil
	}
	return s.save(ctx, c)
}

func (s *service) Clear(ctx context.Context, actor workflow.Actor) error {
	customerID, err := CustomerOf(actor)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) Quote(ctx context.Context, actor workflow.Actor) (*pricing.OrderQuote, error) {
	c, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	result, err := s.quoter.Quote(ctx, quoting.PurposeCart, c.CustomerID, c.Items())
	if err != nil {
		return nil, err
	}
	return &result.Quote, nil
}

func (s *service) load(ctx context.Context, actor workflow.Actor) (*Cart, error) {
	customerID, err := CustomerOf(actor)
	if err != nil {
		return nil, err
	}
	c, err := s.store.Load(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return c, nil
}

func (s *service) save(ctx context.Context, c *Cart) (*View, error) {
	if err := s.store.Save(ctx, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return newView(c), nil
}

// CustomerOf returns the customer a portal actor shops for.
func CustomerOf(actor workflow.Actor) (uuid.UUID, error) {
	if actor.CustomerID == nil || !actor.OwnsCustomer(*actor.CustomerID) {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customer users have a cart")
	}
	return *actor.CustomerID, nil
}

func newView(c *Cart) *View {
	return &View{
		Lines:           c.Lines,
		ItemCount:       c.ItemCount(),
		UniqueItemCount: c.UniqueItemCount(),
		UpdatedAt:       c.UpdatedAt,
	}
}
