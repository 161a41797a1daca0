package controllers

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/checkout"
	"github.com/angelmondragon/storefront-checkout/internal/pricing"
	"github.com/angelmondragon/storefront-checkout/internal/shipment"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
)

type addItemRequest struct {
	ProductID        string `json:"product_id" validate:"required"`
	Quantity         int    `json:"quantity" validate:"gt=0"`
	QuoteID          string `json:"quote_id,omitempty"`
	UseRetailerPrice *bool  `json:"use_retailer_price,omitempty"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

type warrantyRequest struct {
	Warranty string `json:"warranty" validate:"required,oneof=standard extended"`
}

type dropshipRequest struct {
	Enabled bool `json:"enabled"`
}

type createGroupRequest struct {
	Customer shipment.CustomerDetails `json:"customer"`
}

type assignRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	QuoteID   string `json:"quote_id,omitempty"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type submitRequest struct {
	Address shipment.CustomerDetails `json:"address" validate:"-"`
}

type confirmRequest struct {
	Outcome   string `json:"outcome" validate:"required,oneof=succeeded failed dismissed"`
	PaymentID string `json:"payment_id,omitempty"`
	Signature string `json:"signature,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type cartLineResponse struct {
	ProductID         uuid.UUID            `json:"product_id"`
	QuoteID           string               `json:"quote_id,omitempty"`
	Name              string               `json:"name"`
	Quantity          int                  `json:"quantity"`
	PriceTier         enums.PriceTier      `json:"price_tier"`
	UnitPrice         decimal.Decimal      `json:"unit_price"`
	Warranty          enums.WarrantyChoice `json:"warranty"`
	WarrantySurcharge decimal.Decimal      `json:"warranty_surcharge"`
	LineTotal         decimal.Decimal      `json:"line_total"`
	Tax               decimal.Decimal      `json:"tax"`
}

type cartResponse struct {
	Lines    []cartLineResponse `json:"lines"`
	Subtotal decimal.Decimal    `json:"subtotal"`
	Tax      decimal.Decimal    `json:"tax"`
	Shipping decimal.Decimal    `json:"shipping"`
	Total    decimal.Decimal    `json:"total"`
}

func newCartResponse(c cart.Reader, totals pricing.Totals) cartResponse {
	resp := cartResponse{
		Lines:    make([]cartLineResponse, 0, len(totals.Lines)),
		Subtotal: totals.Subtotal,
		Tax:      totals.Tax,
		Shipping: totals.Shipping,
		Total:    totals.Total,
	}
	for _, priced := range totals.Lines {
		var name string
		if line, ok := c.Line(priced.Key); ok {
			name = line.Product.Name
		}
		resp.Lines = append(resp.Lines, cartLineResponse{
			ProductID:         priced.Key.ProductID,
			QuoteID:           priced.Key.QuoteID,
			Name:              name,
			Quantity:          priced.Quantity,
			PriceTier:         priced.Tier,
			UnitPrice:         priced.UnitPrice,
			Warranty:          priced.Warranty,
			WarrantySurcharge: priced.WarrantySurcharge,
			LineTotal:         priced.Total,
			Tax:               priced.Tax,
		})
	}
	return resp
}

type groupItemResponse struct {
	ProductID         uuid.UUID            `json:"product_id"`
	QuoteID           string               `json:"quote_id,omitempty"`
	Name              string               `json:"name"`
	Quantity          int                  `json:"quantity"`
	PriceTier         enums.PriceTier      `json:"price_tier"`
	UnitPrice         decimal.Decimal      `json:"unit_price"`
	Warranty          enums.WarrantyChoice `json:"warranty"`
	WarrantySurcharge decimal.Decimal      `json:"warranty_surcharge"`
}

type groupResponse struct {
	ID          uuid.UUID                `json:"id"`
	Customer    shipment.CustomerDetails `json:"customer"`
	Items       []groupItemResponse      `json:"items"`
	Quantity    int                      `json:"quantity"`
	DocumentURL string                   `json:"document_url,omitempty"`
	Revision    uint64                   `json:"revision"`
}

func newGroupResponse(g shipment.Group) groupResponse {
	items := make([]groupItemResponse, len(g.Items))
	for i, item := range g.Items {
		items[i] = groupItemResponse{
			ProductID:         item.ProductID,
			QuoteID:           item.QuoteID,
			Name:              item.Name,
			Quantity:          item.Quantity,
			PriceTier:         item.Tier,
			UnitPrice:         item.UnitPrice,
			Warranty:          item.Warranty,
			WarrantySurcharge: item.WarrantySurcharge,
		}
	}
	return groupResponse{
		ID:          g.ID,
		Customer:    g.Customer,
		Items:       items,
		Quantity:    g.Quantity(),
		DocumentURL: g.DocumentURL,
		Revision:    g.Revision,
	}
}

type remainderResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	QuoteID   string    `json:"quote_id,omitempty"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
}

type overAllocationResponse struct {
	ProductID    uuid.UUID `json:"product_id"`
	QuoteID      string    `json:"quote_id,omitempty"`
	CartQuantity int       `json:"cart_quantity"`
	Assigned     int       `json:"assigned"`
}

type gateResponse struct {
	Proceed   bool             `json:"proceed"`
	Reason    enums.GateReason `json:"reason"`
	ProductID *uuid.UUID       `json:"product_id,omitempty"`
	Max       int              `json:"max,omitempty"`
	GroupID   *uuid.UUID       `json:"group_id,omitempty"`
}

func newGateResponse(o checkout.Outcome) gateResponse {
	resp := gateResponse{Proceed: o.Proceed(), Reason: o.Reason, Max: o.Max}
	if o.ProductID != uuid.Nil {
		id := o.ProductID
		resp.ProductID = &id
	}
	if o.GroupID != uuid.Nil {
		id := o.GroupID
		resp.GroupID = &id
	}
	return resp
}

type summaryResponse struct {
	Cart            cartResponse             `json:"cart"`
	Dropship        bool                     `json:"dropship"`
	Groups          []groupResponse          `json:"groups"`
	Unassigned      []remainderResponse      `json:"unassigned"`
	OverAllocations []overAllocationResponse `json:"over_allocations"`
	Gate            gateResponse             `json:"gate"`
	InFlight        bool                     `json:"in_flight"`
}

func newSummaryResponse(c cart.Reader, s checkout.Summary) summaryResponse {
	resp := summaryResponse{
		Cart:            newCartResponse(c, s.Totals),
		Dropship:        s.Dropship,
		Groups:          make([]groupResponse, len(s.Groups)),
		Unassigned:      make([]remainderResponse, len(s.Unassigned)),
		OverAllocations: make([]overAllocationResponse, len(s.OverAllocations)),
		Gate:            newGateResponse(s.Outcome),
		InFlight:        s.InFlight,
	}
	for i, g := range s.Groups {
		resp.Groups[i] = newGroupResponse(g)
	}
	for i, rem := range s.Unassigned {
		resp.Unassigned[i] = remainderResponse{ProductID: rem.Key.ProductID, QuoteID: rem.Key.QuoteID, Name: rem.Name, Quantity: rem.Quantity}
	}
	for i, over := range s.OverAllocations {
		resp.OverAllocations[i] = overAllocationResponse{
			ProductID:    over.Key.ProductID,
			QuoteID:      over.Key.QuoteID,
			CartQuantity: over.CartQuantity,
			Assigned:     over.Assigned,
		}
	}
	return resp
}

type paymentOrderResponse struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type pendingPaymentResponse struct {
	SubmissionID string               `json:"submission_id"`
	OrderHandle  string               `json:"order_handle"`
	Kind         enums.OrderKind      `json:"kind"`
	Total        decimal.Decimal      `json:"total"`
	PaymentOrder paymentOrderResponse `json:"payment_order"`
	PaymentKeyID string               `json:"payment_key_id,omitempty"`
}

func newPendingPaymentResponse(p *checkout.PendingPayment, keyID string) pendingPaymentResponse {
	return pendingPaymentResponse{
		SubmissionID: p.SubmissionID,
		OrderHandle:  p.OrderHandle,
		Kind:         p.Payload.Kind,
		Total:        p.Payload.Total,
		PaymentOrder: paymentOrderResponse{
			ID:       p.PaymentOrder.ID,
			Amount:   p.PaymentOrder.Amount,
			Currency: strings.ToUpper(p.PaymentOrder.Currency),
		},
		PaymentKeyID: keyID,
	}
}
