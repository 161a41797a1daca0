package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Warranty describes the coverage a product ships with and the optional paid extension.
type Warranty struct {
	StandardPeriod string
	ExtendedPeriod string
	ExtendedPrice  *decimal.Decimal
}

// ExtendedAvailable reports whether the product offers an extended warranty.
func (w Warranty) ExtendedAvailable() bool {
	return w.ExtendedPrice != nil
}

// Product is the catalog snapshot a cart line prices against.
type Product struct {
	ID                   uuid.UUID
	Name                 string
	Category             string
	BasePrice            decimal.Decimal
	RetailerPrice        *decimal.Decimal
	TaxPercentage        *decimal.Decimal
	Warranty             Warranty
	Telecom              bool
	MaxDirectPurchaseQty *int
}

// Quote is an admin-negotiated unit price for one product.
type Quote struct {
	ID        string
	UnitPrice decimal.Decimal
}

// LineKey identifies a cart line. The same product may appear once unquoted and once per quote.
type LineKey struct {
	ProductID uuid.UUID
	QuoteID   string
}

// Line is one entry of the cart.
type Line struct {
	Product          Product
	Quantity         int
	Quote            *Quote
	UseRetailerPrice bool
}

// Key returns the identity of the line within the cart.
func (l Line) Key() LineKey {
	return KeyFor(l.Product.ID, l.Quote)
}

// KeyFor builds the line key for a product and optional quote.
func KeyFor(productID uuid.UUID, quote *Quote) LineKey {
	key := LineKey{ProductID: productID}
	if quote != nil {
		key.QuoteID = quote.ID
	}
	return key
}

func (l Line) clone() Line {
	out := l
	if l.Quote != nil {
		q := *l.Quote
		out.Quote = &q
	}
	return out
}
