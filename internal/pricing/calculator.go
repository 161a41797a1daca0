// Package pricing derives unit prices, warranty surcharges, taxes and cart totals.
// Every method is a pure function of its inputs.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	"github.com/angelmondragon/storefront-checkout/pkg/money"
)

// DefaultTaxPercent applies to products that do not declare their own tax percentage.
const DefaultTaxPercent = 18

// Calculator prices cart lines for an acting role.
type Calculator struct {
	defaultTax decimal.Decimal
	shipping   decimal.Decimal
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithDefaultTaxPercent overrides the fallback tax percentage.
func WithDefaultTaxPercent(pct int) Option {
	return func(c *Calculator) {
		if pct >= 0 {
			c.defaultTax = decimal.NewFromInt(int64(pct))
		}
	}
}

// WithShipping overrides the flat shipping term added to the cart total.
func WithShipping(amount decimal.Decimal) Option {
	return func(c *Calculator) {
		if !amount.IsNegative() {
			c.shipping = money.Round(amount)
		}
	}
}

// NewCalculator builds a calculator with an 18% default tax and zero shipping.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		defaultTax: decimal.NewFromInt(DefaultTaxPercent),
		shipping:   decimal.Zero,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Tier reports which price source applies: quote > retailer (retailer actor and opted in) > base.
func (c *Calculator) Tier(line cart.Line, role enums.Role) enums.PriceTier {
	if line.Quote != nil {
		return enums.PriceTierQuoted
	}
	if role.IsRetailer() && line.UseRetailerPrice && line.Product.RetailerPrice != nil {
		return enums.PriceTierRetailer
	}
	return enums.PriceTierBase
}

// UnitPrice applies the tier precedence to a line.
func (c *Calculator) UnitPrice(line cart.Line, role enums.Role) decimal.Decimal {
	switch c.Tier(line, role) {
	case enums.PriceTierQuoted:
		return line.Quote.UnitPrice
	case enums.PriceTierRetailer:
		return *line.Product.RetailerPrice
	}
	return line.Product.BasePrice
}

// WarrantySurcharge is the extended-warranty price when chosen and offered, zero otherwise.
func (c *Calculator) WarrantySurcharge(line cart.Line, choice enums.WarrantyChoice) decimal.Decimal {
	if choice != enums.WarrantyExtended || !line.Product.Warranty.ExtendedAvailable() {
		return decimal.Zero
	}
	return *line.Product.Warranty.ExtendedPrice
}

// LineTotal is (unit price + warranty surcharge) × quantity.
func (c *Calculator) LineTotal(line cart.Line, choice enums.WarrantyChoice, role enums.Role) decimal.Decimal {
	unit := c.UnitPrice(line, role).Add(c.WarrantySurcharge(line, choice))
	return money.Round(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
}

// TaxPercent returns the product's tax percentage, falling back to the default.
func (c *Calculator) TaxPercent(product cart.Product) decimal.Decimal {
	if product.TaxPercentage != nil {
		return *product.TaxPercentage
	}
	return c.defaultTax
}

// LineTax is the line total × the product's tax percentage / 100.
func (c *Calculator) LineTax(line cart.Line, choice enums.WarrantyChoice, role enums.Role) decimal.Decimal {
	return money.Percent(c.LineTotal(line, choice, role), c.TaxPercent(line.Product))
}

// Shipping is the flat shipping term of the cart total.
func (c *Calculator) Shipping() decimal.Decimal {
	return c.shipping
}

// LinePrice is the full pricing breakdown of one cart line.
type LinePrice struct {
	Key               cart.LineKey
	Name              string
	Tier              enums.PriceTier
	UnitPrice         decimal.Decimal
	Warranty          enums.WarrantyChoice
	WarrantySurcharge decimal.Decimal
	Quantity          int
	Total             decimal.Decimal
	Tax               decimal.Decimal
}

// PriceLine computes every pricing figure of a line in one pass.
func (c *Calculator) PriceLine(line cart.Line, choice enums.WarrantyChoice, role enums.Role) LinePrice {
	return LinePrice{
		Key:               line.Key(),
		Name:              line.Product.Name,
		Tier:              c.Tier(line, role),
		UnitPrice:         c.UnitPrice(line, role),
		Warranty:          choice,
		WarrantySurcharge: c.WarrantySurcharge(line, choice),
		Quantity:          line.Quantity,
		Total:             c.LineTotal(line, choice, role),
		Tax:               c.LineTax(line, choice, role),
	}
}

// Totals aggregates a cart. Total is always Subtotal + Tax + Shipping.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
	Lines    []LinePrice
}

// CartTotals prices every line of the cart for role.
func (c *Calculator) CartTotals(r cart.Reader, role enums.Role) Totals {
	lines := r.Lines()
	totals := Totals{
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Shipping: c.shipping,
		Lines:    make([]LinePrice, 0, len(lines)),
	}
	for _, line := range lines {
		priced := c.PriceLine(line, r.Warranty(line.Product.ID), role)
		totals.Subtotal = totals.Subtotal.Add(priced.Total)
		totals.Tax = totals.Tax.Add(priced.Tax)
		totals.Lines = append(totals.Lines, priced)
	}
	totals.Total = money.Sum(totals.Subtotal, totals.Tax, totals.Shipping)
	return totals
}

// CartSubtotal sums the line totals.
func (c *Calculator) CartSubtotal(r cart.Reader, role enums.Role) decimal.Decimal {
	return c.CartTotals(r, role).Subtotal
}

// CartTax sums the per-line taxes.
func (c *Calculator) CartTax(r cart.Reader, role enums.Role) decimal.Decimal {
	return c.CartTotals(r, role).Tax
}

// CartTotal is subtotal + tax + shipping.
func (c *Calculator) CartTotal(r cart.Reader, role enums.Role) decimal.Decimal {
	return c.CartTotals(r, role).Total
}
