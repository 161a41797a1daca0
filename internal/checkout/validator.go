package checkout

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/session"
	"github.com/angelmondragon/storefront-checkout/internal/shipment"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

// DefaultQuoteLineThreshold is the number of distinct lines a user-tier cart may hold before a quote is required.
const DefaultQuoteLineThreshold = 3

// State is everything the gate looks at.
type State struct {
	Actor            session.Actor
	Cart             cart.Reader
	Dropship         bool
	Address          shipment.CustomerDetails
	Groups           []shipment.Group
	OverAllocations  []shipment.OverAllocation
	PaymentAvailable bool
}

// Outcome is the first blocking reason found, or GateProceed.
type Outcome struct {
	Reason    enums.GateReason
	ProductID uuid.UUID
	Max       int
	GroupID   uuid.UUID
}

// Proceed reports whether checkout may continue.
func (o Outcome) Proceed() bool {
	return !o.Reason.Blocking()
}

// Err converts a blocking outcome into a CodeCheckoutBlocked error.
func (o Outcome) Err() error {
	if o.Proceed() {
		return nil
	}
	details := map[string]any{"reason": string(o.Reason)}
	if o.ProductID != uuid.Nil {
		details["product_id"] = o.ProductID.String()
	}
	if o.Max > 0 {
		details["max"] = o.Max
	}
	if o.GroupID != uuid.Nil {
		details["group_id"] = o.GroupID.String()
	}
	return pkgerrors.New(pkgerrors.CodeCheckoutBlocked, gateMessages[o.Reason]).WithDetails(details)
}

var gateMessages = map[enums.GateReason]string{
	enums.GateRequiresAuth:       "sign in to check out",
	enums.GateEmptyCart:          "cart is empty",
	enums.GateRequiresQuote:      "carts with more than the allowed number of products must request a quote",
	enums.GateExceedsDirectLimit: "quantity exceeds the direct purchase limit for this product",
	enums.GateIncompleteAddress:  "shipping address is incomplete",
	enums.GateMissingGroups:      "create at least one shipment group",
	enums.GateOverAllocated:      "shipment groups hold more units than the cart",
	enums.GateMissingDocument:    "generate the delivery document for every shipment group",
	enums.GatePaymentUnavailable: "payment is currently unavailable",
}

// Validator evaluates the checkout gate.
type Validator struct {
	quoteThreshold int
}

// NewValidator builds a validator. A non-positive threshold falls back to the default.
func NewValidator(quoteThreshold int) *Validator {
	if quoteThreshold <= 0 {
		quoteThreshold = DefaultQuoteLineThreshold
	}
	return &Validator{quoteThreshold: quoteThreshold}
}

// Evaluate runs the rules in order and returns the first that blocks.
func (v *Validator) Evaluate(state State) Outcome {
	if !state.Actor.Authenticated {
		return Outcome{Reason: enums.GateRequiresAuth}
	}

	var lines []cart.Line
	if state.Cart != nil {
		lines = state.Cart.Lines()
	}
	if len(lines) == 0 {
		return Outcome{Reason: enums.GateEmptyCart}
	}

	role := state.Actor.EffectiveRole()
	// Distinct lines, not units.
	if role == enums.RoleUser && len(lines) > v.quoteThreshold {
		return Outcome{Reason: enums.GateRequiresQuote}
	}

	if !role.IsRetailer() {
		if outcome, blocked := directLimit(state.Cart, lines); blocked {
			return outcome
		}
	}

	if !state.Dropship {
		if !AddressComplete(state.Address) {
			return Outcome{Reason: enums.GateIncompleteAddress}
		}
	} else {
		if len(state.Groups) == 0 {
			return Outcome{Reason: enums.GateMissingGroups}
		}
		if len(state.OverAllocations) > 0 {
			return Outcome{Reason: enums.GateOverAllocated, ProductID: state.OverAllocations[0].Key.ProductID}
		}
		for _, group := range state.Groups {
			if !group.Empty() && strings.TrimSpace(group.DocumentURL) == "" {
				return Outcome{Reason: enums.GateMissingDocument, GroupID: group.ID}
			}
		}
	}

	if !state.PaymentAvailable {
		return Outcome{Reason: enums.GatePaymentUnavailable}
	}
	return Outcome{Reason: enums.GateProceed}
}

func directLimit(r cart.Reader, lines []cart.Line) (Outcome, bool) {
	seen := map[uuid.UUID]struct{}{}
	for _, line := range lines {
		product := line.Product
		if _, done := seen[product.ID]; done {
			continue
		}
		seen[product.ID] = struct{}{}
		if !product.Telecom || product.MaxDirectPurchaseQty == nil {
			continue
		}
		if max := *product.MaxDirectPurchaseQty; cart.ProductQuantity(r, product.ID) > max {
			return Outcome{Reason: enums.GateExceedsDirectLimit, ProductID: product.ID, Max: max}, true
		}
	}
	return Outcome{}, false
}

// AddressComplete reports whether every field of the purchaser's address block is filled.
func AddressComplete(c shipment.CustomerDetails) bool {
	required := []string{
		c.Name,
		c.Email,
		c.Phone,
		c.Address.Line,
		c.Address.City,
		c.Address.State,
		c.Address.PostalCode,
	}
	for _, value := range required {
		if strings.TrimSpace(value) == "" {
			return false
		}
	}
	return true
}
