package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/macado/b2b-backend/pkg/enums"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
	"github.com/macado/b2b-backend/pkg/types"
)

func pct(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func special(sp types.SpecialPrice) *types.SpecialPrice {
	return &sp
}

func mustQuoteLine(t *testing.T, in LineInput) LineQuote {
	t.Helper()
	quote, err := QuoteLine(in)
	if err != nil {
		t.Fatalf("quote line: %v", err)
	}
	return quote
}

func TestQuoteLine_NoDiscountsChargesList(t *testing.T) {
	for _, tc := range []struct {
		list int64
		qty  int
	}{{0, 1}, {1, 1}, {999, 7}, {123456, 250}} {
		quote := mustQuoteLine(t, LineInput{ListPrice: tc.list, Quantity: tc.qty})
		if quote.UnitPrice != tc.list {
			t.Fatalf("list %d: expected unit %d, got %d", tc.list, tc.list, quote.UnitPrice)
		}
		if quote.Subtotal != tc.list*int64(tc.qty) {
			t.Fatalf("list %d: expected subtotal %d, got %d", tc.list, tc.list*int64(tc.qty), quote.Subtotal)
		}
		if quote.DiscountAmount != 0 || quote.Source != enums.DiscountSourceBasic {
			t.Fatalf("expected undiscounted basic line, got %+v", quote)
		}
	}
}

func TestQuoteLine_BasicDiscountFloorsUnitPrice(t *testing.T) {
	cases := []struct {
		list    int64
		percent string
		want    int64
	}{
		{1000, "0", 1000},
		{1000, "10", 900},
		{999, "33", 669},
		{1999, "12.5", 1749},
		{101, "50", 50},
		{1000, "100", 0},
	}
	for _, tc := range cases {
		quote := mustQuoteLine(t, LineInput{ListPrice: tc.list, Quantity: 1, BasicPercent: pct(tc.percent)})
		if quote.UnitPrice != tc.want {
			t.Fatalf("list %d at %s%%: expected %d, got %d", tc.list, tc.percent, tc.want, quote.UnitPrice)
		}
	}
}

func TestQuoteLine_FloorAppliedPerUnitBeforeQuantity(t *testing.T) {
	quote := mustQuoteLine(t, LineInput{ListPrice: 999, Quantity: 3, BasicPercent: pct("33")})
	if quote.UnitPrice != 669 {
		t.Fatalf("expected unit 669, got %d", quote.UnitPrice)
	}
	if quote.Subtotal != 2007 {
		t.Fatalf("expected subtotal 2007, got %d", quote.Subtotal)
	}
	if quote.DiscountAmount != (999-669)*3 {
		t.Fatalf("expected discount %d, got %d", (999-669)*3, quote.DiscountAmount)
	}
}

func TestQuoteLine_VolumeWinsOnlyWhenStrictlyGreater(t *testing.T) {
	tiers := []Tier{{MinQuantity: 100, Percent: pct("10")}}
	quote := mustQuoteLine(t, LineInput{ListPrice: 1000, Quantity: 150, BasicPercent: pct("5"), Tiers: tiers})
	if !quote.DiscountPercent.Equal(pct("10")) || quote.Source != enums.DiscountSourceVolume {
		t.Fatalf("expected volume 10%%, got %s (%s)", quote.DiscountPercent, quote.Source)
	}

	equal := []Tier{{MinQuantity: 100, Percent: pct("5")}}
	quote = mustQuoteLine(t, LineInput{ListPrice: 1000, Quantity: 150, BasicPercent: pct("5"), Tiers: equal})
	if quote.Source != enums.DiscountSourceBasic || quote.UnitPrice != 950 {
		t.Fatalf("expected basic label on tie with unit 950, got %+v", quote)
	}

	quote = mustQuoteLine(t, LineInput{ListPrice: 1000, Quantity: 99, BasicPercent: pct("5"), Tiers: tiers})
	if quote.Source != enums.DiscountSourceBasic || quote.UnitPrice != 950 {
		t.Fatalf("expected tier not reached below min quantity, got %+v", quote)
	}
}

func TestVolumePercent_PicksLargestQualifyingTier(t *testing.T) {
	tiers := []Tier{
		{MinQuantity: 500, Percent: pct("10")},
		{MinQuantity: 100, Percent: pct("5")},
		{MinQuantity: 200, Percent: pct("3")},
	}
	cases := map[int]string{1: "0", 99: "0", 100: "5", 250: "5", 500: "10", 10000: "10"}
	for qty, want := range cases {
		if got := VolumePercent(tiers, qty); !got.Equal(pct(want)) {
			t.Fatalf("qty %d: expected %s, got %s", qty, want, got)
		}
	}
	if got := VolumePercent(nil, 1000); !got.IsZero() {
		t.Fatalf("expected zero without tiers, got %s", got)
	}
}

func TestQuoteLine_SpecialFixedOverridesEverything(t *testing.T) {
	tiers := []Tier{{MinQuantity: 1, Percent: pct("90")}}
	quote := mustQuoteLine(t, LineInput{
		ListPrice:    1000,
		Quantity:     3,
		BasicPercent: pct("40"),
		Special:      special(types.FixedPrice(500)),
		Tiers:        tiers,
	})
	if quote.UnitPrice != 500 || quote.Subtotal != 1500 {
		t.Fatalf("expected 500/1500, got %d/%d", quote.UnitPrice, quote.Subtotal)
	}
	if quote.Source != enums.DiscountSourceSpecialFixed || !quote.DiscountPercent.Equal(pct("50")) {
		t.Fatalf("expected special fixed at 50%%, got %s (%s)", quote.DiscountPercent, quote.Source)
	}
}

func TestQuoteLine_SpecialFixedZeroMeansFree(t *testing.T) {
	quote := mustQuoteLine(t, LineInput{ListPrice: 800, Quantity: 4, Special: special(types.FixedPrice(0))})
	if quote.UnitPrice != 0 || quote.Subtotal != 0 || quote.DiscountAmount != 3200 {
		t.Fatalf("expected free line, got %+v", quote)
	}
	if !quote.DiscountPercent.Equal(pct("100")) {
		t.Fatalf("expected 100%% display, got %s", quote.DiscountPercent)
	}
}

func TestQuoteLine_SpecialFixedAboveListYieldsNegativeDiscount(t *testing.T) {
	quote := mustQuoteLine(t, LineInput{ListPrice: 1000, Quantity: 2, Special: special(types.FixedPrice(1200))})
	if quote.DiscountAmount != -400 {
		t.Fatalf("expected negative discount -400, got %d", quote.DiscountAmount)
	}
	if !quote.DiscountPercent.IsZero() {
		t.Fatalf("expected display percent clamped to 0, got %s", quote.DiscountPercent)
	}

	quote = mustQuoteLine(t, LineInput{ListPrice: 0, Quantity: 1, Special: special(types.FixedPrice(10))})
	if !quote.DiscountPercent.IsZero() {
		t.Fatalf("expected 0%% display for zero list price, got %s", quote.DiscountPercent)
	}
}

func TestQuoteLine_SpecialFixedDisplayPercentRounded(t *testing.T) {
	quote := mustQuoteLine(t, LineInput{ListPrice: 3, Quantity: 1, Special: special(types.FixedPrice(2))})
	if !quote.DiscountPercent.Equal(pct("33.33")) {
		t.Fatalf("expected 33.33, got %s", quote.DiscountPercent)
	}
}

func TestQuoteLine_SpecialPercentIgnoresBasicAndYieldsToGreaterVolume(t *testing.T) {
	tiers := []Tier{{MinQuantity: 50, Percent: pct("15")}}

	quote := mustQuoteLine(t, LineInput{
		ListPrice: 1000, Quantity: 10, BasicPercent: pct("30"),
		Special: special(types.PercentDiscount(pct("12"))), Tiers: tiers,
	})
	if quote.Source != enums.DiscountSourceSpecialPercent || quote.UnitPrice != 880 {
		t.Fatalf("expected special 12%% ignoring basic 30%%, got %+v", quote)
	}

	quote = mustQuoteLine(t, LineInput{
		ListPrice: 1000, Quantity: 50, BasicPercent: pct("30"),
		Special: special(types.PercentDiscount(pct("12"))), Tiers: tiers,
	})
	if quote.Source != enums.DiscountSourceVolume || quote.UnitPrice != 850 {
		t.Fatalf("expected volume 15%% over special 12%%, got %+v", quote)
	}

	quote = mustQuoteLine(t, LineInput{
		ListPrice: 1000, Quantity: 50,
		Special: special(types.PercentDiscount(pct("15"))), Tiers: tiers,
	})
	if quote.Source != enums.DiscountSourceSpecialPercent {
		t.Fatalf("expected special label on tie, got %s", quote.Source)
	}
}

func TestQuoteLine_RejectsContractViolations(t *testing.T) {
	cases := map[string]LineInput{
		"negative list":     {ListPrice: -1, Quantity: 1},
		"zero quantity":     {ListPrice: 100, Quantity: 0},
		"negative quantity": {ListPrice: 100, Quantity: -3},
		"basic over 100":    {ListPrice: 100, Quantity: 1, BasicPercent: pct("100.01")},
		"negative basic":    {ListPrice: 100, Quantity: 1, BasicPercent: pct("-1")},
		"bad tier":          {ListPrice: 100, Quantity: 1, Tiers: []Tier{{MinQuantity: 0, Percent: pct("5")}}},
		"zero special":      {ListPrice: 100, Quantity: 1, Special: &types.SpecialPrice{}},
		"special over 100":  {ListPrice: 100, Quantity: 1, Special: special(types.PercentDiscount(pct("101")))},
	}
	for name, in := range cases {
		_, err := QuoteLine(in)
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestQuoteOrder_VolumeScenario(t *testing.T) {
	productID := uuid.New()
	quote, err := QuoteOrder(OrderInput{
		TaxPercent:  DefaultTaxPercent,
		CreditLimit: 990000,
		Lines: []LineInput{{
			ProductID: productID,
			ListPrice: 2000,
			Quantity:  500,
			Tiers:     []Tier{{MinQuantity: 100, Percent: pct("5")}, {MinQuantity: 500, Percent: pct("10")}},
		}},
	})
	if err != nil {
		t.Fatalf("quote order: %v", err)
	}
	line := quote.Lines[0]
	if !line.DiscountPercent.Equal(pct("10")) || line.UnitPrice != 1800 || line.Subtotal != 900000 {
		t.Fatalf("unexpected line %+v", line)
	}
	if quote.Subtotal != 900000 || quote.TaxAmount != 90000 || quote.Total != 990000 {
		t.Fatalf("unexpected totals %+v", quote)
	}
	if quote.ListSubtotal != 1000000 || quote.DiscountAmount != 100000 {
		t.Fatalf("unexpected list/discount totals %+v", quote)
	}
	if !quote.AverageDiscountPercent.Equal(pct("10")) {
		t.Fatalf("expected 10%% average, got %s", quote.AverageDiscountPercent)
	}
	if quote.CreditLimitExceeded {
		t.Fatal("total equal to the limit must not be flagged")
	}
}

func TestQuoteOrder_ZeroCreditLimitFlagsAnyTotal(t *testing.T) {
	quote, err := QuoteOrder(OrderInput{
		TaxPercent: DefaultTaxPercent,
		Lines:      []LineInput{{ProductID: uuid.New(), ListPrice: 1000, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("quote order: %v", err)
	}
	if quote.Total != 1100 {
		t.Fatalf("unexpected total %d", quote.Total)
	}
	if !quote.CreditLimitExceeded {
		t.Fatal("a zero credit limit must flag a positive total")
	}
}

func TestQuoteOrder_TaxFloorsAndCreditFlag(t *testing.T) {
	in := OrderInput{
		TaxPercent:  DefaultTaxPercent,
		CreditLimit: 1000,
		Lines: []LineInput{
			{ProductID: uuid.New(), ListPrice: 455, Quantity: 1},
			{ProductID: uuid.New(), ListPrice: 500, Quantity: 1},
		},
	}
	quote, err := QuoteOrder(in)
	if err != nil {
		t.Fatalf("quote order: %v", err)
	}
	if quote.Subtotal != 955 || quote.TaxAmount != 95 || quote.Total != 1050 {
		t.Fatalf("unexpected totals %+v", quote)
	}
	if !quote.CreditLimitExceeded {
		t.Fatal("expected credit flag when total exceeds limit")
	}
	if len(quote.Lines) != 2 {
		t.Fatalf("breakdown must still be returned, got %d lines", len(quote.Lines))
	}

	in.CreditLimit = 1050
	quote, err = QuoteOrder(in)
	if err != nil {
		t.Fatalf("quote order: %v", err)
	}
	if quote.CreditLimitExceeded {
		t.Fatal("total equal to limit must not be flagged")
	}
}

func TestQuoteOrder_ReportsFailingLine(t *testing.T) {
	badID := uuid.New()
	_, err := QuoteOrder(OrderInput{
		TaxPercent: DefaultTaxPercent,
		Lines: []LineInput{
			{ProductID: uuid.New(), ListPrice: 10, Quantity: 1},
			{ProductID: badID, ListPrice: 10, Quantity: 0},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["line"] != 1 || details["product_id"] != badID {
		t.Fatalf("expected failing line details, got %#v", typed.Details())
	}
}

func TestQuoteOrder_RejectsInvalidTax(t *testing.T) {
	_, err := QuoteOrder(OrderInput{TaxPercent: pct("150")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQuoteOrder_EmptyOrder(t *testing.T) {
	quote, err := QuoteOrder(OrderInput{TaxPercent: DefaultTaxPercent, CreditLimit: 10})
	if err != nil {
		t.Fatalf("quote order: %v", err)
	}
	if quote.Total != 0 || !quote.AverageDiscountPercent.IsZero() || quote.CreditLimitExceeded {
		t.Fatalf("expected zero quote, got %+v", quote)
	}
}
