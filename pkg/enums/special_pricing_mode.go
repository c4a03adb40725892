package enums

import "fmt"

// SpecialPricingMode is the stored discriminator of a per-product special price.
type SpecialPricingMode string

const (
	SpecialPricingModeFixed    SpecialPricingMode = "fixed"
	SpecialPricingModeDiscount SpecialPricingMode = "discount"
)

// IsValid reports whether the value is a known SpecialPricingMode.
func (m SpecialPricingMode) IsValid() bool {
	return m == SpecialPricingModeFixed || m == SpecialPricingModeDiscount
}

// ParseSpecialPricingMode converts raw input into a SpecialPricingMode.
func ParseSpecialPricingMode(value string) (SpecialPricingMode, error) {
	mode := SpecialPricingMode(value)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid special pricing mode %q", value)
	}
	return mode, nil
}
