package shipment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
)

// Address is a postal destination. City and State are filled by the postal lookup.
type Address struct {
	Line       string `json:"line" validate:"required"`
	Landmark   string `json:"landmark,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code" validate:"required,numeric"`
}

// CustomerDetails identifies the recipient of a shipment.
type CustomerDetails struct {
	Name    string  `json:"name" validate:"required"`
	Email   string  `json:"email" validate:"required,email"`
	Phone   string  `json:"phone,omitempty"`
	Address Address `json:"address"`
}

// AssignedItem is a quantity of one cart line routed to a group, with the price captured at assignment.
type AssignedItem struct {
	ProductID         uuid.UUID
	QuoteID           string
	Name              string
	Quantity          int
	Tier              enums.PriceTier
	UnitPrice         decimal.Decimal
	WarrantySurcharge decimal.Decimal
	Warranty          enums.WarrantyChoice
}

// Key returns the cart line the item was allocated from.
func (i AssignedItem) Key() cart.LineKey {
	return cart.LineKey{ProductID: i.ProductID, QuoteID: i.QuoteID}
}

// Group is one dropship destination.
type Group struct {
	ID          uuid.UUID
	Customer    CustomerDetails
	Items       []AssignedItem
	DocumentURL string
	// Revision increases on every change to Items.
	Revision uint64
}

// Empty reports whether no item is assigned to the group.
func (g Group) Empty() bool {
	return len(g.Items) == 0
}

// Quantity sums the assigned quantity of every item.
func (g Group) Quantity() int {
	total := 0
	for _, item := range g.Items {
		total += item.Quantity
	}
	return total
}

func (g Group) clone() Group {
	out := g
	out.Items = append([]AssignedItem(nil), g.Items...)
	return out
}

// Remainder is the unassigned quantity of a cart line, shipped to the purchaser.
type Remainder struct {
	Key      cart.LineKey
	Name     string
	Quantity int
}

// OverAllocation reports a cart line whose assigned quantity exceeds its live cart quantity.
type OverAllocation struct {
	Key          cart.LineKey
	CartQuantity int
	Assigned     int
}
