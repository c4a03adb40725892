package enums

// DiscountSource labels which pricing rule produced a line's effective percent.
type DiscountSource string

const (
	DiscountSourceBasic          DiscountSource = "basic"
	DiscountSourceVolume         DiscountSource = "volume"
	DiscountSourceSpecialFixed   DiscountSource = "special_fixed"
	DiscountSourceSpecialPercent DiscountSource = "special_percent"
)

// String implements fmt.Stringer.
func (d DiscountSource) String() string {
	return string(d)
}

// IsSpecial reports whether the source is a per-customer override.
func (d DiscountSource) IsSpecial() bool {
	return d == DiscountSourceSpecialFixed || d == DiscountSourceSpecialPercent
}
