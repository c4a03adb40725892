// Package pricing resolves the discount that applies to an order line and rolls lines up
// into order totals. Every function is pure; callers load products and customers.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/macado/b2b-backend/pkg/enums"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// DefaultTaxPercent is the consumption tax applied when no rate is configured.
var DefaultTaxPercent = decimal.NewFromInt(10)

// VolumePercent returns the largest percent among tiers whose minimum quantity is reached.
func VolumePercent(tiers []Tier, quantity int) decimal.Decimal {
	best := decimal.Zero
	for _, tier := range tiers {
		if tier.MinQuantity <= quantity && tier.Percent.GreaterThan(best) {
			best = tier.Percent
		}
	}
	return best
}

// QuoteLine prices one line. Precedence: special fixed price, then special percent (a volume
// tier replaces it only when strictly greater), then the larger of basic and volume with the
// basic label kept on ties.
func QuoteLine(in LineInput) (LineQuote, error) {
	if err := validateLine(in); err != nil {
		return LineQuote{}, err
	}

	volume := VolumePercent(in.Tiers, in.Quantity)
	quote := LineQuote{
		ProductID: in.ProductID,
		ListPrice: in.ListPrice,
		Quantity:  in.Quantity,
	}

	var percent decimal.Decimal
	switch {
	case in.Special != nil && in.Special.Mode() == enums.SpecialPricingModeFixed:
		fixed, _ := in.Special.Fixed()
		quote.UnitPrice = fixed
		quote.Source = enums.DiscountSourceSpecialFixed
		quote.DiscountPercent = fixedDisplayPercent(in.ListPrice, fixed)
		return finishLine(quote), nil
	case in.Special != nil:
		special, _ := in.Special.Percent()
		percent, quote.Source = special, enums.DiscountSourceSpecialPercent
		if volume.GreaterThan(special) {
			percent, quote.Source = volume, enums.DiscountSourceVolume
		}
	default:
		percent, quote.Source = in.BasicPercent, enums.DiscountSourceBasic
		if volume.GreaterThan(in.BasicPercent) {
			percent, quote.Source = volume, enums.DiscountSourceVolume
		}
	}

	quote.UnitPrice = applyPercent(in.ListPrice, percent)
	quote.DiscountPercent = percent.Round(2)
	return finishLine(quote), nil
}

// QuoteOrder prices every line and totals them. Exceeding the credit limit is advisory and
// never an error.
func QuoteOrder(in OrderInput) (OrderQuote, error) {
	if !percentInRange(in.TaxPercent) {
		return OrderQuote{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("tax percent must be within [0,100], got %s", in.TaxPercent))
	}
	if in.CreditLimit < 0 {
		return OrderQuote{}, pkgerrors.New(pkgerrors.CodeValidation, "credit limit must be non-negative")
	}

	out := OrderQuote{
		Lines:       make([]LineQuote, 0, len(in.Lines)),
		TaxPercent:  in.TaxPercent,
		CreditLimit: in.CreditLimit,
	}
	for i, line := range in.Lines {
		quote, err := QuoteLine(line)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil {
				return OrderQuote{}, typed.WithDetails(map[string]any{"line": i, "product_id": line.ProductID})
			}
			return OrderQuote{}, err
		}
		out.Lines = append(out.Lines, quote)
		out.ListSubtotal += quote.ListPrice * int64(quote.Quantity)
		out.Subtotal += quote.Subtotal
		out.DiscountAmount += quote.DiscountAmount
	}

	out.TaxAmount = decimal.NewFromInt(out.Subtotal).Mul(in.TaxPercent).Shift(-2).Floor().IntPart()
	out.Total = out.Subtotal + out.TaxAmount
	out.CreditLimitExceeded = out.Total > in.CreditLimit
	if out.ListSubtotal > 0 {
		out.AverageDiscountPercent = decimal.NewFromInt(out.DiscountAmount).
			Div(decimal.NewFromInt(out.ListSubtotal)).
			Mul(hundred).
			Round(2)
	}
	return out, nil
}

func validateLine(in LineInput) error {
	if in.ListPrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("list price must be non-negative, got %d", in.ListPrice))
	}
	if in.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be at least 1, got %d", in.Quantity))
	}
	if !percentInRange(in.BasicPercent) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("basic discount must be within [0,100], got %s", in.BasicPercent))
	}
	for _, tier := range in.Tiers {
		if tier.MinQuantity < 1 || !percentInRange(tier.Percent) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid volume tier %d+ at %s%%", tier.MinQuantity, tier.Percent))
		}
	}
	if in.Special != nil {
		if err := in.Special.Validate(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid special pricing")
		}
	}
	return nil
}

func percentInRange(p decimal.Decimal) bool {
	return !p.IsNegative() && !p.GreaterThan(hundred)
}

// applyPercent floors list × (100 − p) / 100 to a whole unit.
func applyPercent(list int64, percent decimal.Decimal) int64 {
	return decimal.NewFromInt(list).Mul(hundred.Sub(percent)).Shift(-2).Floor().IntPart()
}

// fixedDisplayPercent derives the percent shown for a fixed override, clamped to [0,100].
func fixedDisplayPercent(list, fixed int64) decimal.Decimal {
	if list == 0 {
		return decimal.Zero
	}
	p := decimal.NewFromInt(list - fixed).Div(decimal.NewFromInt(list)).Mul(hundred).Round(2)
	switch {
	case p.IsNegative():
		return decimal.Zero
	case p.GreaterThan(hundred):
		return hundred
	}
	return p
}

func finishLine(q LineQuote) LineQuote {
	qty := int64(q.Quantity)
	q.Subtotal = q.UnitPrice * qty
	q.DiscountAmount = (q.ListPrice - q.UnitPrice) * qty
	return q
}
