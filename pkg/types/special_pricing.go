package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/macado/b2b-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// SpecialPrice is a per-customer, per-product override: either a fixed unit price or a
// percent discount off list. The zero value is not a valid override.
type SpecialPrice struct {
	mode    enums.SpecialPricingMode
	amount  int64
	percent decimal.Decimal
}

// FixedPrice builds an override that replaces the unit price outright. Zero means free.
func FixedPrice(amount int64) SpecialPrice {
	return SpecialPrice{mode: enums.SpecialPricingModeFixed, amount: amount}
}

// PercentDiscount builds an override that discounts the list price by percent.
func PercentDiscount(percent decimal.Decimal) SpecialPrice {
	return SpecialPrice{mode: enums.SpecialPricingModeDiscount, percent: percent}
}

func (s SpecialPrice) Mode() enums.SpecialPricingMode {
	return s.mode
}

// Fixed returns the fixed unit price when the override is a fixed price.
func (s SpecialPrice) Fixed() (int64, bool) {
	if s.mode != enums.SpecialPricingModeFixed {
		return 0, false
	}
	return s.amount, true
}

// Percent returns the discount percent when the override is a percent discount.
func (s SpecialPrice) Percent() (decimal.Decimal, bool) {
	if s.mode != enums.SpecialPricingModeDiscount {
		return decimal.Zero, false
	}
	return s.percent, true
}

// Validate checks the override's value against its mode.
func (s SpecialPrice) Validate() error {
	switch s.mode {
	case enums.SpecialPricingModeFixed:
		if s.amount < 0 {
			return fmt.Errorf("fixed price must be non-negative, got %d", s.amount)
		}
	case enums.SpecialPricingModeDiscount:
		if s.percent.IsNegative() || s.percent.GreaterThan(hundred) {
			return fmt.Errorf("discount percent must be within [0,100], got %s", s.percent)
		}
	default:
		return fmt.Errorf("invalid special pricing mode %q", s.mode)
	}
	return nil
}

// specialPriceWire is the stored JSON shape: {"type":"fixed","price":500} or
// {"type":"discount","discount_rate":10}.
type specialPriceWire struct {
	Type         string           `json:"type"`
	Price        *int64           `json:"price,omitempty"`
	DiscountRate *decimal.Decimal `json:"discount_rate,omitempty"`
}

func (s SpecialPrice) MarshalJSON() ([]byte, error) {
	wire := specialPriceWire{Type: string(s.mode)}
	switch s.mode {
	case enums.SpecialPricingModeFixed:
		amount := s.amount
		wire.Price = &amount
	case enums.SpecialPricingModeDiscount:
		percent := s.percent
		wire.DiscountRate = &percent
	default:
		return nil, fmt.Errorf("invalid special pricing mode %q", s.mode)
	}
	return json.Marshal(wire)
}

func (s *SpecialPrice) UnmarshalJSON(data []byte) error {
	var wire specialPriceWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	mode, err := enums.ParseSpecialPricingMode(wire.Type)
	if err != nil {
		return err
	}
	var parsed SpecialPrice
	switch mode {
	case enums.SpecialPricingModeFixed:
		if wire.Price == nil {
			return fmt.Errorf("fixed special price requires price")
		}
		parsed = FixedPrice(*wire.Price)
	case enums.SpecialPricingModeDiscount:
		if wire.DiscountRate == nil {
			return fmt.Errorf("discount special price requires discount_rate")
		}
		parsed = PercentDiscount(*wire.DiscountRate)
	}
	if err := parsed.Validate(); err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SpecialPricing maps product ids to their override for one customer.
type SpecialPricing map[uuid.UUID]SpecialPrice

// For returns the override for productID, if any.
func (p SpecialPricing) For(productID uuid.UUID) (SpecialPrice, bool) {
	if p == nil {
		return SpecialPrice{}, false
	}
	sp, ok := p[productID]
	return sp, ok
}

// Clone returns a shallow copy safe to mutate.
func (p SpecialPricing) Clone() SpecialPricing {
	out := make(SpecialPricing, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ParseSpecialPricing decodes a raw JSON object keyed by product id, reporting every
// invalid entry rather than stopping at the first.
func ParseSpecialPricing(data []byte) (SpecialPricing, error) {
	if len(data) == 0 || string(data) == "null" {
		return SpecialPricing{}, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("special pricing must be an object: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(SpecialPricing, len(raw))
	var errs error
	for _, key := range keys {
		productID, err := uuid.Parse(key)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %q: invalid id", key))
			continue
		}
		var sp SpecialPrice
		if err := json.Unmarshal(raw[key], &sp); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %s: %w", key, err))
			continue
		}
		out[productID] = sp
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

func (p *SpecialPricing) UnmarshalJSON(data []byte) error {
	parsed, err := ParseSpecialPricing(data)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Value implements driver.Valuer; the map is stored as a JSON document.
func (p SpecialPricing) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[uuid.UUID]SpecialPrice(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for json/jsonb/text columns.
func (p *SpecialPricing) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = SpecialPricing{}
		return nil
	case []byte:
		return p.UnmarshalJSON(v)
	case string:
		return p.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("unsupported special pricing column type %T", value)
	}
}
