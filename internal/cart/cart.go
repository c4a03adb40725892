package cart

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/macado/b2b-backend/internal/pricing"
	"github.com/macado/b2b-backend/internal/quoting"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
)

// Product is the catalog data a cart line needs to enforce minimum order quantities.
type Product struct {
	ID          uuid.UUID
	Name        string
	MinQuantity int
}

// Line is one product in the cart. Name and minimum are captured when the line is added.
type Line struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	MinQuantity int       `json:"min_quantity"`
	Quantity    int       `json:"quantity"`
}

// Cart is a customer's pending selection. Lines keep insertion order.
type Cart struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Lines      []Line    `json:"lines"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// New returns an empty cart for customerID.
func New(customerID uuid.UUID) *Cart {
	return &Cart{CustomerID: customerID, Lines: []Line{}}
}

// Add puts quantity units of product in the cart, merging with an existing line.
// The resulting quantity must meet the product's minimum.
func (c *Cart) Add(product Product, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	idx := c.find(product.ID)
	total := quantity
	if idx >= 0 {
		total += c.Lines[idx].Quantity
	}
	if err := checkMinimum(product.ID, product.Name, product.MinQuantity, total); err != nil {
		return err
	}
	if idx >= 0 {
		c.Lines[idx].Quantity = total
		c.Lines[idx].ProductName = product.Name
		c.Lines[idx].MinQuantity = product.MinQuantity
		return nil
	}
	c.Lines = append(c.Lines, Line{
		ProductID:   product.ID,
		ProductName: product.Name,
		MinQuantity: product.MinQuantity,
		Quantity:    total,
	})
	return nil
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less removes the line.
func (c *Cart) UpdateQuantity(productID uuid.UUID, quantity int) error {
	idx := c.find(productID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s is not in the cart", productID))
	}
	if quantity <= 0 {
		c.removeAt(idx)
		return nil
	}
	line := c.Lines[idx]
	if err := checkMinimum(line.ProductID, line.ProductName, line.MinQuantity, quantity); err != nil {
		return err
	}
	c.Lines[idx].Quantity = quantity
	return nil
}

// Remove drops the product's line and reports whether it was present.
func (c *Cart) Remove(productID uuid.UUID) bool {
	idx := c.find(productID)
	if idx < 0 {
		return false
	}
	c.removeAt(idx)
	return true
}

func (c *Cart) Clear() {
	c.Lines = []Line{}
}

// ItemCount is the total number of units across all lines.
func (c *Cart) ItemCount() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

// UniqueItemCount is the number of distinct products.
func (c *Cart) UniqueItemCount() int {
	return len(c.Lines)
}

// Quantity returns the quantity of productID in the cart, or zero.
func (c *Cart) Quantity(productID uuid.UUID) int {
	if idx := c.find(productID); idx >= 0 {
		return c.Lines[idx].Quantity
	}
	return 0
}

// Items converts the lines into quote items.
func (c *Cart) Items() []quoting.Item {
	items := make([]quoting.Item, 0, len(c.Lines))
	for _, line := range c.Lines {
		items = append(items, quoting.Item{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return items
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) find(productID uuid.UUID) int {
	for i, line := range c.Lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
}

func checkMinimum(productID uuid.UUID, name string, minimum, quantity int) error {
	return pricing.ValidateMinimumQuantity(pricing.QuantityCheck{
		ProductID:   productID,
		ProductName: name,
		MinQuantity: minimum,
		Quantity:    quantity,
	})
}
