package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func TestUnitPricePrecedence(t *testing.T) {
	product := cart.Product{
		ID:            uuid.New(),
		BasePrice:     dec("100"),
		RetailerPrice: decPtr("80"),
	}
	quote := &cart.Quote{ID: "q-1", UnitPrice: dec("70")}
	calc := NewCalculator()

	tests := []struct {
		name string
		line cart.Line
		role enums.Role
		want string
		tier enums.PriceTier
	}{
		{name: "base for user", line: cart.Line{Product: product, Quantity: 1, UseRetailerPrice: true}, role: enums.RoleUser, want: "100", tier: enums.PriceTierBase},
		{name: "retailer opted in", line: cart.Line{Product: product, Quantity: 1, UseRetailerPrice: true}, role: enums.RoleRetailer, want: "80", tier: enums.PriceTierRetailer},
		{name: "retailer not opted in", line: cart.Line{Product: product, Quantity: 1}, role: enums.RoleRetailer, want: "100", tier: enums.PriceTierBase},
		{name: "quote beats retailer", line: cart.Line{Product: product, Quantity: 1, Quote: quote, UseRetailerPrice: true}, role: enums.RoleRetailer, want: "70", tier: enums.PriceTierQuoted},
		{name: "quote for user", line: cart.Line{Product: product, Quantity: 1, Quote: quote}, role: enums.RoleUser, want: "70", tier: enums.PriceTierQuoted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, calc.UnitPrice(tt.line, tt.role).Equal(dec(tt.want)), "got %s", calc.UnitPrice(tt.line, tt.role))
			assert.Equal(t, tt.tier, calc.Tier(tt.line, tt.role))
		})
	}
}

func TestRetailerWithoutRetailerPriceFallsBackToBase(t *testing.T) {
	calc := NewCalculator()
	line := cart.Line{Product: cart.Product{ID: uuid.New()}, Quantity: 1, UseRetailerPrice: true}

	assert.True(t, calc.UnitPrice(line, enums.RoleRetailer).IsZero())
	assert.Equal(t, enums.PriceTierBase, calc.Tier(line, enums.RoleRetailer))
}

func TestWarrantySurcharge(t *testing.T) {
	calc := NewCalculator()
	covered := cart.Line{Product: cart.Product{
		ID:        uuid.New(),
		BasePrice: dec("500"),
		Warranty:  cart.Warranty{ExtendedPeriod: "2y", ExtendedPrice: decPtr("49.99")},
	}, Quantity: 2}
	plain := cart.Line{Product: cart.Product{ID: uuid.New(), BasePrice: dec("10")}, Quantity: 1}

	assert.True(t, calc.WarrantySurcharge(covered, enums.WarrantyExtended).Equal(dec("49.99")))
	assert.True(t, calc.WarrantySurcharge(covered, enums.WarrantyStandard).IsZero())
	assert.True(t, calc.WarrantySurcharge(plain, enums.WarrantyExtended).IsZero())

	assert.Equal(t, "1099.98", calc.LineTotal(covered, enums.WarrantyExtended, enums.RoleUser).StringFixed(2))
}

func TestLineTaxUsesProductPercentage(t *testing.T) {
	calc := NewCalculator()
	line := cart.Line{Product: cart.Product{ID: uuid.New(), BasePrice: dec("100"), TaxPercentage: decPtr("5")}, Quantity: 3}

	assert.Equal(t, "15.00", calc.LineTax(line, enums.WarrantyStandard, enums.RoleUser).StringFixed(2))

	line.Product.TaxPercentage = nil
	assert.Equal(t, "54.00", calc.LineTax(line, enums.WarrantyStandard, enums.RoleUser).StringFixed(2))
}

func TestCartTotalsScenario(t *testing.T) {
	store := cart.NewStore()
	_, err := store.Add(cart.Product{ID: uuid.New(), Name: "A", BasePrice: dec("100")}, 2, nil, false)
	require.NoError(t, err)

	calc := NewCalculator()
	totals := calc.CartTotals(store, enums.RoleUser)

	assert.Equal(t, "200.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "36.00", totals.Tax.StringFixed(2))
	assert.Equal(t, "236.00", totals.Total.StringFixed(2))
	require.Len(t, totals.Lines, 1)
	assert.Equal(t, enums.PriceTierBase, totals.Lines[0].Tier)
}

func TestCartTotalIsExactSumWithShipping(t *testing.T) {
	store := cart.NewStore()
	_, _ = store.Add(cart.Product{ID: uuid.New(), BasePrice: dec("19.99"), TaxPercentage: decPtr("12")}, 3, nil, false)
	_, _ = store.Add(cart.Product{ID: uuid.New(), BasePrice: dec("0.33")}, 7, nil, false)
	_, _ = store.Add(cart.Product{ID: uuid.New(), BasePrice: dec("1234.57"), TaxPercentage: decPtr("28")}, 1, nil, false)

	calc := NewCalculator(WithShipping(dec("40")))
	totals := calc.CartTotals(store, enums.RoleUser)

	assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax).Add(totals.Shipping)))
	assert.True(t, calc.CartTotal(store, enums.RoleUser).Equal(totals.Total))
	assert.True(t, totals.Tax.Equal(totals.Tax.Round(2)))
	assert.Equal(t, "40.00", calc.Shipping().StringFixed(2))
}

func TestCalculatorIsDeterministic(t *testing.T) {
	store := cart.NewStore()
	_, _ = store.Add(cart.Product{ID: uuid.New(), BasePrice: dec("33.33"), TaxPercentage: decPtr("18")}, 3, nil, false)

	calc := NewCalculator(WithDefaultTaxPercent(12))
	first := calc.CartTotals(store, enums.RoleUser)
	for i := 0; i < 10; i++ {
		again := calc.CartTotals(store, enums.RoleUser)
		assert.True(t, first.Total.Equal(again.Total))
	}
}
