package checkout

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/pricing"
	"github.com/angelmondragon/storefront-checkout/internal/shipment"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/money"
)

// DropshipAddress replaces the shipping address of an order split across shipment groups.
const DropshipAddress = "DROPSHIP_MULTIPLE_ADDRESSES"

// PayloadLine is one cart line as submitted to the order API.
type PayloadLine struct {
	ProductID         uuid.UUID            `json:"product_id"`
	Name              string               `json:"name"`
	Quantity          int                  `json:"quantity"`
	UnitPrice         decimal.Decimal      `json:"unit_price"`
	PriceTier         enums.PriceTier      `json:"price_tier"`
	QuoteID           string               `json:"quote_id,omitempty"`
	Warranty          enums.WarrantyChoice `json:"warranty"`
	WarrantySurcharge decimal.Decimal      `json:"warranty_surcharge"`
	LineTotal         decimal.Decimal      `json:"line_total"`
	Tax               decimal.Decimal      `json:"tax"`
}

// PayloadGroupItem is an assigned item reduced to what the order API stores.
type PayloadGroupItem struct {
	ProductID         uuid.UUID            `json:"product_id"`
	QuoteID           string               `json:"quote_id,omitempty"`
	Name              string               `json:"name"`
	Quantity          int                  `json:"quantity"`
	UnitPrice         decimal.Decimal      `json:"unit_price"`
	Warranty          enums.WarrantyChoice `json:"warranty"`
	WarrantySurcharge decimal.Decimal      `json:"warranty_surcharge"`
}

// PayloadGroup is one dropship destination.
type PayloadGroup struct {
	Customer    shipment.CustomerDetails `json:"customer"`
	Items       []PayloadGroupItem       `json:"items"`
	DocumentURL string                   `json:"document_url"`
}

// OrderPayload is the request body of order creation. Kind selects between the
// standard shape (formatted address, no groups) and the dropship shape
// (sentinel address, one entry per group).
type OrderPayload struct {
	Kind                   enums.OrderKind `json:"kind"`
	Items                  []PayloadLine   `json:"items"`
	Subtotal               decimal.Decimal `json:"subtotal"`
	Tax                    decimal.Decimal `json:"tax"`
	Shipping               decimal.Decimal `json:"shipping"`
	Total                  decimal.Decimal `json:"total"`
	Currency               string          `json:"currency"`
	ShippingAddress        string          `json:"shipping_address"`
	RetailerDirectPurchase bool            `json:"retailer_direct_purchase"`
	Groups                 []PayloadGroup  `json:"groups,omitempty"`
}

// PayloadInput is the validated checkout state the payload is built from.
type PayloadInput struct {
	Cart     cart.Reader
	Pricing  *pricing.Calculator
	Role     enums.Role
	Dropship bool
	Address  shipment.CustomerDetails
	Groups   []shipment.Group
	Currency string
}

// BuildPayload assembles the order request and validates its shape.
func BuildPayload(in PayloadInput) (OrderPayload, error) {
	if in.Cart == nil || in.Pricing == nil {
		return OrderPayload{}, pkgerrors.New(pkgerrors.CodeInternal, "cart and pricing are required")
	}

	totals := in.Pricing.CartTotals(in.Cart, in.Role)
	payload := OrderPayload{
		Kind:                   enums.OrderKindStandard,
		Items:                  make([]PayloadLine, 0, len(totals.Lines)),
		Subtotal:               totals.Subtotal,
		Tax:                    totals.Tax,
		Shipping:               totals.Shipping,
		Total:                  totals.Total,
		Currency:               strings.ToUpper(strings.TrimSpace(in.Currency)),
		RetailerDirectPurchase: in.Role.IsRetailer(),
	}
	for _, priced := range totals.Lines {
		payload.Items = append(payload.Items, PayloadLine{
			ProductID:         priced.Key.ProductID,
			Name:              priced.Name,
			Quantity:          priced.Quantity,
			UnitPrice:         priced.UnitPrice,
			PriceTier:         priced.Tier,
			QuoteID:           priced.Key.QuoteID,
			Warranty:          priced.Warranty,
			WarrantySurcharge: priced.WarrantySurcharge,
			LineTotal:         priced.Total,
			Tax:               priced.Tax,
		})
	}

	if in.Dropship {
		payload.Kind = enums.OrderKindDropship
		payload.ShippingAddress = DropshipAddress
		for _, group := range in.Groups {
			if group.Empty() {
				continue
			}
			payload.Groups = append(payload.Groups, reduceGroup(group))
		}
	} else {
		payload.ShippingAddress = FormatAddress(in.Address)
	}

	if err := payload.Validate(); err != nil {
		return OrderPayload{}, err
	}
	return payload, nil
}

func reduceGroup(group shipment.Group) PayloadGroup {
	items := make([]PayloadGroupItem, len(group.Items))
	for i, item := range group.Items {
		items[i] = PayloadGroupItem{
			ProductID:         item.ProductID,
			QuoteID:           item.QuoteID,
			Name:              item.Name,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			Warranty:          item.Warranty,
			WarrantySurcharge: item.WarrantySurcharge,
		}
	}
	return PayloadGroup{Customer: group.Customer, Items: items, DocumentURL: group.DocumentURL}
}

// Validate enforces the closed schema of each payload kind.
func (p OrderPayload) Validate() error {
	if len(p.Items) == 0 {
		return invalidPayload("order has no items")
	}
	if p.Currency == "" {
		return invalidPayload("currency is required")
	}

	lineQty := map[cart.LineKey]int{}
	for _, item := range p.Items {
		if item.ProductID == uuid.Nil || item.Quantity < 1 {
			return invalidPayload("every item needs a product and a positive quantity")
		}
		if item.UnitPrice.IsNegative() {
			return invalidPayload("unit price cannot be negative")
		}
		lineQty[cart.LineKey{ProductID: item.ProductID, QuoteID: item.QuoteID}] += item.Quantity
	}
	if !p.Total.Equal(money.Sum(p.Subtotal, p.Tax, p.Shipping)) {
		return invalidPayload("total does not match subtotal, tax and shipping")
	}

	switch p.Kind {
	case enums.OrderKindStandard:
		if len(p.Groups) > 0 {
			return invalidPayload("standard orders cannot carry shipment groups")
		}
		if strings.TrimSpace(p.ShippingAddress) == "" || p.ShippingAddress == DropshipAddress {
			return invalidPayload("standard orders need a shipping address")
		}
	case enums.OrderKindDropship:
		if p.ShippingAddress != DropshipAddress {
			return invalidPayload("dropship orders use the dropship address marker")
		}
		if len(p.Groups) == 0 {
			return invalidPayload("dropship orders need at least one shipment group")
		}
		assigned := map[cart.LineKey]int{}
		for _, group := range p.Groups {
			if strings.TrimSpace(group.DocumentURL) == "" {
				return invalidPayload("every shipment group needs a delivery document")
			}
			for _, item := range group.Items {
				assigned[cart.LineKey{ProductID: item.ProductID, QuoteID: item.QuoteID}] += item.Quantity
			}
		}
		for key, qty := range assigned {
			if qty > lineQty[key] {
				return pkgerrors.New(pkgerrors.CodeAllocation, "shipment groups exceed ordered quantity").WithDetails(map[string]any{
					"product_id": key.ProductID.String(),
					"assigned":   qty,
					"ordered":    lineQty[key],
				})
			}
		}
	default:
		return invalidPayload(fmt.Sprintf("unknown order kind %q", p.Kind))
	}
	return nil
}

func invalidPayload(msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg)
}

// FormatAddress renders the three-line address block:
//
//	Name, Phone
//	Line, Landmark
//	City, State - PostalCode
func FormatAddress(c shipment.CustomerDetails) string {
	c = c.Normalize()
	first := joinNonEmpty(", ", c.Name, c.Phone)
	second := joinNonEmpty(", ", c.Address.Line, c.Address.Landmark)
	third := joinNonEmpty(", ", c.Address.City, c.Address.State)
	if c.Address.PostalCode != "" {
		third = joinNonEmpty(" - ", third, c.Address.PostalCode)
	}
	return joinNonEmpty("\n", first, second, third)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}
